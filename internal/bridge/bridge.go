// Package bridge adapts the agent node to an external front end: a
// command channel in, a response channel out. The front end speaks a
// tiny line protocol ("SEND:" plus the message text) so it needs no
// knowledge of topics or tasks.
package bridge

import (
	"context"
	"log"
	"strings"

	"github.com/liquidos-ai/medcluster/internal/bus"
)

// SendPrefix marks a command that submits a user message.
const SendPrefix = "SEND:"

// Publisher is the node-side transport the bridge publishes through.
type Publisher interface {
	Publish(topic string, task bus.Task) error
}

// Bridge translates front-end commands into published tasks and buffers
// agent results for the front end to poll.
type Bridge struct {
	topic     string
	pub       Publisher
	commands  chan string
	responses chan string
}

// New creates a bridge publishing user messages to topic.
func New(pub Publisher, topic string) *Bridge {
	return &Bridge{
		topic:     topic,
		pub:       pub,
		commands:  make(chan string, 16),
		responses: make(chan string, 64),
	}
}

// Commands is where the front end writes its command lines.
func (b *Bridge) Commands() chan<- string { return b.commands }

// Responses is where the front end reads agent results.
func (b *Bridge) Responses() <-chan string { return b.responses }

// Accept enqueues an agent result for the front end. When the front end
// falls behind, the oldest buffered response is dropped; results are
// advisory display text, not state.
func (b *Bridge) Accept(result string) {
	for {
		select {
		case b.responses <- result:
			return
		default:
		}
		select {
		case <-b.responses:
		default:
		}
	}
}

// Run consumes commands until ctx is cancelled. Malformed commands are
// logged and skipped; the bridge never stops over front-end input.
func (b *Bridge) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case cmd := <-b.commands:
			b.handle(cmd)
		}
	}
}

func (b *Bridge) handle(cmd string) {
	if !strings.HasPrefix(cmd, SendPrefix) {
		log.Printf("[Bridge] ⚠️ Ignoring unknown command: %.40s", cmd)
		return
	}
	text := strings.TrimSpace(strings.TrimPrefix(cmd, SendPrefix))
	if text == "" {
		log.Printf("[Bridge] ⚠️ Ignoring empty message")
		return
	}

	task := bus.NewTask(text)
	log.Printf("[Bridge] 📨 User message → %q: %.60s", b.topic, text)
	if err := b.pub.Publish(b.topic, task); err != nil {
		log.Printf("[Bridge] ❌ Publish failed: %v", err)
		b.Accept("Failed to submit message: " + err.Error())
	}
}
