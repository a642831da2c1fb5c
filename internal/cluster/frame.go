// Package cluster implements the host/client session layer. A host relays
// publishes between connected clients so a publish on any node reaches
// every subscriber cluster-wide; clients hold exactly one connection to
// the host and expose the same publish contract as the local bus.
package cluster

import (
	"errors"

	"github.com/liquidos-ai/medcluster/internal/bus"
)

// Session-layer errors.
var (
	// ErrAuthRejected means the peer's cookie did not match the cluster
	// cookie. Fatal to that connection only.
	ErrAuthRejected = errors.New("cluster handshake rejected: cookie mismatch")

	// ErrPeerLost means the connection dropped while active. The session
	// is terminal; no automatic reconnect is attempted.
	ErrPeerLost = errors.New("cluster peer lost")
)

// Frame kinds. Each websocket message carries exactly one frame.
const (
	KindHandshake = "handshake"
	KindSubscribe = "subscribe"
	KindPublish   = "publish"
	KindEvent     = "event"
)

// Frame is the wire envelope. Exactly one body field is set, matching Kind.
type Frame struct {
	Kind      string         `json:"kind"`
	Handshake *HandshakeBody `json:"handshake,omitempty"`
	Subscribe *SubscribeBody `json:"subscribe,omitempty"`
	Publish   *PublishBody   `json:"publish,omitempty"`
	Event     *EventBody     `json:"event,omitempty"`
}

// HandshakeBody opens a session (client → host) and acknowledges it
// (host → client). Topics declares the client's initial subscriptions.
type HandshakeBody struct {
	NodeName string   `json:"node_name"`
	Cookie   string   `json:"cookie,omitempty"`
	Topics   []string `json:"topics,omitempty"`
	Accepted bool     `json:"accepted,omitempty"`
	Error    string   `json:"error,omitempty"`
}

// SubscribeBody declares one additional topic subscription.
type SubscribeBody struct {
	Topic string `json:"topic"`
}

// PublishBody carries a task published by a client toward the host.
type PublishBody struct {
	Topic string   `json:"topic"`
	Task  bus.Task `json:"task"`
}

// EventBody carries a task relayed by the host toward a subscribed client.
type EventBody struct {
	Topic string   `json:"topic"`
	Task  bus.Task `json:"task"`
}
