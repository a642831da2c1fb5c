package cluster

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/liquidos-ai/medcluster/internal/bus"
)

// peer is one connected client. Owned by a single reader goroutine;
// writes go through the write mutex because gorilla/websocket does not
// support concurrent writers.
type peer struct {
	name string
	conn *websocket.Conn

	writeMu sync.Mutex

	topicsMu sync.Mutex
	topics   map[string]bool
}

func (p *peer) writeFrame(f Frame) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	return p.conn.WriteJSON(f)
}

func (p *peer) subscribedTo(topic string) bool {
	p.topicsMu.Lock()
	defer p.topicsMu.Unlock()
	return p.topics[topic]
}

func (p *peer) addTopic(topic string) {
	p.topicsMu.Lock()
	defer p.topicsMu.Unlock()
	p.topics[topic] = true
}

// Host accepts client connections, tracks membership, and relays every
// publish to all peers subscribed to its topic. The host runs its own
// local bus, so host-side subscribers are served identically to remote
// ones.
type Host struct {
	nodeName string
	cookie   string
	addr     string

	Bus *bus.Bus

	peersMu sync.Mutex
	peers   []*peer // connect order, relay fan-out follows it

	mux *http.ServeMux
	srv *http.Server
}

// HostConfig configures a cluster Host.
type HostConfig struct {
	NodeName string
	Cookie   string
	Addr     string // listen address, e.g. "localhost:9000"
	Bus      *bus.Bus
}

// NewHost creates a cluster host.
func NewHost(cfg HostConfig) *Host {
	b := cfg.Bus
	if b == nil {
		b = bus.NewBus()
	}
	h := &Host{
		nodeName: cfg.NodeName,
		cookie:   cfg.Cookie,
		addr:     cfg.Addr,
		Bus:      b,
		mux:      http.NewServeMux(),
	}
	h.mux.HandleFunc("/cluster", h.handleCluster)
	return h
}

// Start listens for client connections. Blocks until ctx is cancelled or
// the listener fails.
func (h *Host) Start(ctx context.Context) error {
	h.srv = &http.Server{Addr: h.addr, Handler: h.mux}

	log.Printf("[Host] ✅ Cluster host %q listening on ws://%s/cluster", h.nodeName, h.addr)

	go func() {
		<-ctx.Done()
		h.closeAllPeers()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		h.srv.Shutdown(shutdownCtx)
	}()

	if err := h.srv.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func (h *Host) handleCluster(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[Host] ⚠️ Upgrade failed: %v", err)
		return
	}

	p, err := h.handshake(conn)
	if err != nil {
		log.Printf("[Host] 🚫 Handshake from %s failed: %v", r.RemoteAddr, err)
		conn.Close()
		return
	}

	h.peersMu.Lock()
	h.peers = append(h.peers, p)
	count := len(h.peers)
	h.peersMu.Unlock()
	log.Printf("[Host] 🔗 Node %q joined (%d peers)", p.name, count)

	// This goroutine is the connection's sole reader.
	h.readLoop(p)

	h.removePeer(p)
	conn.Close()
	log.Printf("[Host] 🔌 Node %q left", p.name)
}

// handshake reads the opening frame and validates the cookie. A rejected
// peer gets an explicit refusal before the connection closes; it never
// enters the peer set.
func (h *Host) handshake(conn *websocket.Conn) (*peer, error) {
	conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	var f Frame
	if err := conn.ReadJSON(&f); err != nil {
		return nil, fmt.Errorf("read handshake: %w", err)
	}
	conn.SetReadDeadline(time.Time{})

	if f.Kind != KindHandshake || f.Handshake == nil {
		return nil, fmt.Errorf("expected handshake frame, got %q", f.Kind)
	}
	hs := f.Handshake

	if hs.Cookie != h.cookie {
		conn.WriteJSON(Frame{Kind: KindHandshake, Handshake: &HandshakeBody{
			NodeName: h.nodeName,
			Error:    "auth rejected",
		}})
		return nil, ErrAuthRejected
	}

	if err := conn.WriteJSON(Frame{Kind: KindHandshake, Handshake: &HandshakeBody{
		NodeName: h.nodeName,
		Accepted: true,
	}}); err != nil {
		return nil, fmt.Errorf("write handshake ack: %w", err)
	}

	p := &peer{name: hs.NodeName, conn: conn, topics: make(map[string]bool)}
	for _, t := range hs.Topics {
		p.topics[t] = true
	}
	return p, nil
}

func (h *Host) readLoop(p *peer) {
	for {
		var f Frame
		if err := p.conn.ReadJSON(&f); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[Host] ⚠️ Node %q connection error: %v", p.name, err)
			}
			return
		}

		switch f.Kind {
		case KindSubscribe:
			if f.Subscribe != nil {
				p.addTopic(f.Subscribe.Topic)
				log.Printf("[Host] 📋 Node %q subscribed to %q", p.name, f.Subscribe.Topic)
			}
		case KindPublish:
			if f.Publish != nil {
				h.applyPublish(p, f.Publish.Topic, f.Publish.Task)
			}
		default:
			log.Printf("[Host] ⚠️ Unexpected frame kind %q from %q", f.Kind, p.name)
		}
	}
}

// applyPublish treats a publish arriving from origin as if it were local:
// it is fanned out on the host's own bus, then relayed to every other peer
// subscribed to the topic. origin is nil for host-local publishes. The
// local fan-out error is returned so a host-side caller sees backpressure;
// relay failures stay log-only (the remote origin already observed its own
// local result).
func (h *Host) applyPublish(origin *peer, topic string, task bus.Task) error {
	localErr := h.Bus.Publish(topic, task)
	if localErr != nil {
		log.Printf("[Host] ⚠️ Local fan-out on %q: %v", topic, localErr)
	}

	h.peersMu.Lock()
	targets := make([]*peer, 0, len(h.peers))
	for _, p := range h.peers {
		if p != origin && p.subscribedTo(topic) {
			targets = append(targets, p)
		}
	}
	h.peersMu.Unlock()

	for _, p := range targets {
		ev := Frame{Kind: KindEvent, Event: &EventBody{Topic: topic, Task: task}}
		if err := p.writeFrame(ev); err != nil {
			log.Printf("[Host] ⚠️ Relay to %q on %q failed: %v", p.name, topic, err)
		}
	}
	return localErr
}

// Publish publishes a task originating on the host itself. A full local
// subscriber stream surfaces as bus.ErrSubscriberOverloaded so the caller
// can retry after the subscriber drains.
func (h *Host) Publish(topic string, task bus.Task) error {
	return h.applyPublish(nil, topic, task)
}

// Peers returns the names of currently connected nodes, in connect order.
func (h *Host) Peers() []string {
	h.peersMu.Lock()
	defer h.peersMu.Unlock()
	names := make([]string, len(h.peers))
	for i, p := range h.peers {
		names[i] = p.name
	}
	return names
}

func (h *Host) removePeer(target *peer) {
	h.peersMu.Lock()
	defer h.peersMu.Unlock()
	for i, p := range h.peers {
		if p == target {
			h.peers = append(h.peers[:i], h.peers[i+1:]...)
			return
		}
	}
}

func (h *Host) closeAllPeers() {
	h.peersMu.Lock()
	peers := h.peers
	h.peers = nil
	h.peersMu.Unlock()
	for _, p := range peers {
		p.writeMu.Lock()
		p.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "host shutdown"))
		p.writeMu.Unlock()
		p.conn.Close()
	}
}
