package cluster

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/liquidos-ai/medcluster/internal/bus"
)

// State is the client session lifecycle.
type State int32

const (
	StateConnecting State = iota
	StateHandshaking
	StateActive
	StateDraining
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateHandshaking:
		return "handshaking"
	case StateActive:
		return "active"
	case StateDraining:
		return "draining"
	}
	return "closed"
}

// Client holds the single connection from this node to the cluster host.
// Local publishes are resolved on the local bus and forwarded to the host;
// events relayed by the host are applied to the local bus, so agents see
// one uniform event stream regardless of where a task was published.
type Client struct {
	nodeName string
	hostAddr string
	cookie   string

	Bus *bus.Bus

	conn    *websocket.Conn
	writeMu sync.Mutex
	state   atomic.Int32
	errs    chan error
	done    chan struct{}
}

// ClientConfig configures a cluster client.
type ClientConfig struct {
	NodeName string
	HostAddr string // host address, e.g. "localhost:9000"
	Cookie   string
	Bus      *bus.Bus
}

// NewClient creates a client; call Connect before publishing.
func NewClient(cfg ClientConfig) *Client {
	b := cfg.Bus
	if b == nil {
		b = bus.NewBus()
	}
	return &Client{
		nodeName: cfg.NodeName,
		hostAddr: cfg.HostAddr,
		cookie:   cfg.Cookie,
		Bus:      b,
		errs:     make(chan error, 1),
		done:     make(chan struct{}),
	}
}

// Connect dials the host and performs the handshake, declaring every topic
// the local bus currently has subscribers for. On cookie mismatch the host
// refuses and ErrAuthRejected is returned.
func (c *Client) Connect(ctx context.Context) error {
	c.state.Store(int32(StateConnecting))

	u := url.URL{Scheme: "ws", Host: c.hostAddr, Path: "/cluster"}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		c.state.Store(int32(StateClosed))
		return fmt.Errorf("dial cluster host %s: %w", c.hostAddr, err)
	}
	c.conn = conn

	c.state.Store(int32(StateHandshaking))
	hello := Frame{Kind: KindHandshake, Handshake: &HandshakeBody{
		NodeName: c.nodeName,
		Cookie:   c.cookie,
		Topics:   c.Bus.Registry.ActiveTopics(),
	}}
	if err := c.writeFrame(hello); err != nil {
		conn.Close()
		c.state.Store(int32(StateClosed))
		return fmt.Errorf("send handshake: %w", err)
	}

	conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	var ack Frame
	if err := conn.ReadJSON(&ack); err != nil {
		conn.Close()
		c.state.Store(int32(StateClosed))
		return fmt.Errorf("read handshake ack: %w", err)
	}
	conn.SetReadDeadline(time.Time{})

	if ack.Kind != KindHandshake || ack.Handshake == nil || !ack.Handshake.Accepted {
		conn.Close()
		c.state.Store(int32(StateClosed))
		if ack.Handshake != nil && ack.Handshake.Error != "" {
			return fmt.Errorf("%w: %s", ErrAuthRejected, ack.Handshake.Error)
		}
		return ErrAuthRejected
	}

	c.state.Store(int32(StateActive))
	log.Printf("[Cluster] 🌐 Node %q joined host %q at %s", c.nodeName, ack.Handshake.NodeName, c.hostAddr)

	go c.readLoop()
	return nil
}

// State returns the current session state.
func (c *Client) State() State {
	return State(c.state.Load())
}

// Errors surfaces session failures such as ErrPeerLost. The channel never
// delivers more than one error; the session is terminal after that.
func (c *Client) Errors() <-chan error {
	return c.errs
}

// Subscribe registers a local agent on a topic and declares the topic to
// the host so relayed events start flowing.
func (c *Client) Subscribe(topic, agentID string) error {
	c.Bus.Subscribe(topic, agentID)
	if c.State() != StateActive {
		return nil // declared at handshake time instead
	}
	return c.writeFrame(Frame{Kind: KindSubscribe, Subscribe: &SubscribeBody{Topic: topic}})
}

// Publish resolves the task on the local bus and forwards it to the host,
// which relays it to every other subscribed node. The host never echoes a
// publish back to its origin, so local subscribers see the task exactly
// once. A publish on a dead session fails with ErrPeerLost before any
// local delivery, so a retry cannot duplicate events for local
// subscribers.
func (c *Client) Publish(topic string, task bus.Task) error {
	if c.State() != StateActive {
		return ErrPeerLost
	}
	if err := c.Bus.Publish(topic, task); err != nil {
		return err
	}
	return c.writeFrame(Frame{Kind: KindPublish, Publish: &PublishBody{Topic: topic, Task: task}})
}

func (c *Client) readLoop() {
	for {
		var f Frame
		if err := c.conn.ReadJSON(&f); err != nil {
			if c.State() == StateActive {
				c.state.Store(int32(StateClosed))
				log.Printf("[Cluster] ❌ Connection to host lost: %v", err)
				select {
				case c.errs <- fmt.Errorf("%w: %v", ErrPeerLost, err):
				default:
				}
			}
			close(c.done)
			return
		}

		switch f.Kind {
		case KindEvent:
			if f.Event != nil {
				if err := c.Bus.Publish(f.Event.Topic, f.Event.Task); err != nil {
					log.Printf("[Cluster] ⚠️ Relayed event fan-out on %q: %v", f.Event.Topic, err)
				}
			}
		default:
			log.Printf("[Cluster] ⚠️ Unexpected frame kind %q from host", f.Kind)
		}
	}
}

// Close drains in-flight writes, closes the connection gracefully, and
// marks the session Closed. Safe to call once.
func (c *Client) Close() error {
	if c.conn == nil || c.State() == StateClosed {
		c.state.Store(int32(StateClosed))
		return nil
	}
	c.state.Store(int32(StateDraining))

	// Taking the write mutex waits out any in-flight frame.
	c.writeMu.Lock()
	c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "client shutdown"))
	c.writeMu.Unlock()

	err := c.conn.Close()
	c.state.Store(int32(StateClosed))

	select {
	case <-c.done:
	case <-time.After(time.Second):
	}
	return err
}

func (c *Client) writeFrame(f Frame) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(f)
}
