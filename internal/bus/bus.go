package bus

import (
	"errors"
	"fmt"
	"log"
	"sync"
)

// ErrSubscriberOverloaded is returned when a publish would exceed a
// subscriber's stream capacity under the Reject policy.
var ErrSubscriberOverloaded = errors.New("subscriber event stream full")

// OverflowPolicy decides what Publish does when a subscriber's stream is full.
type OverflowPolicy int

const (
	// Reject fails the publish with ErrSubscriberOverloaded.
	Reject OverflowPolicy = iota
	// Block waits until the subscriber drains (backpressure).
	Block
)

// DefaultStreamCapacity bounds each subscriber's event stream so a slow
// agent cannot grow memory without bound.
const DefaultStreamCapacity = 64

// Bus fans a published task out to every local subscriber of its topic.
// Each subscriber owns one bounded event stream; delivery is at-most-once
// per subscriber per publish, FIFO in the order the bus observed publishes.
type Bus struct {
	Registry *Registry

	policy   OverflowPolicy
	capacity int

	mu      sync.RWMutex
	streams map[string]*stream
}

// stream is one subscriber's bounded event channel plus the bookkeeping
// that lets Detach close it without racing an in-flight Deliver: detaching
// closes done first, waits out registered senders, then closes ch.
type stream struct {
	ch      chan Event
	done    chan struct{}
	senders sync.WaitGroup
}

// Option configures a Bus.
type Option func(*Bus)

// WithPolicy sets the overflow policy (default Reject).
func WithPolicy(p OverflowPolicy) Option {
	return func(b *Bus) { b.policy = p }
}

// WithCapacity sets the per-subscriber stream capacity.
func WithCapacity(n int) Option {
	return func(b *Bus) { b.capacity = n }
}

// NewBus creates a bus over its own registry.
func NewBus(opts ...Option) *Bus {
	b := &Bus{
		Registry: NewRegistry(),
		policy:   Reject,
		capacity: DefaultStreamCapacity,
		streams:  make(map[string]*stream),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// AttachStream creates (or returns) the event stream for agentID.
func (b *Bus) AttachStream(agentID string) <-chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	if s, ok := b.streams[agentID]; ok {
		return s.ch
	}
	s := &stream{ch: make(chan Event, b.capacity), done: make(chan struct{})}
	b.streams[agentID] = s
	return s.ch
}

// Subscribe registers agentID on topic. The agent must have attached a
// stream before any publish can reach it. The error is always nil; the
// signature matches the cluster client so agents run unchanged on either.
func (b *Bus) Subscribe(topic, agentID string) error {
	b.Registry.Subscribe(topic, agentID)
	return nil
}

// Detach releases all of agentID's subscriptions and closes its stream.
// Publishers racing the detach either complete before the stream closes or
// see it as already gone; a blocked publisher is released with its event
// dropped. The stream channel is closed only once every in-flight send has
// finished.
func (b *Bus) Detach(agentID string) {
	b.Registry.UnsubscribeAll(agentID)
	b.mu.Lock()
	s, ok := b.streams[agentID]
	if ok {
		delete(b.streams, agentID)
		close(s.done)
	}
	b.mu.Unlock()
	if !ok {
		return
	}
	s.senders.Wait()
	close(s.ch)
}

// Publish delivers task as a new-task event to every current subscriber of
// topic. A topic with no subscribers succeeds trivially. Under Reject, a
// full stream fails that subscriber's delivery and the error is returned;
// deliveries to other subscribers are still attempted (at-most-once each,
// no retry).
func (b *Bus) Publish(topic string, task Task) error {
	subs := b.Registry.SubscribersOf(topic)
	if len(subs) == 0 {
		return nil
	}

	ev := Event{Kind: EventNewTask, Topic: topic, Task: task}

	var firstErr error
	for _, agentID := range subs {
		if err := b.Deliver(agentID, ev); err != nil {
			log.Printf("[Bus] ⚠️ Delivery to %s on %q failed: %v", agentID, topic, err)
			if firstErr == nil {
				firstErr = fmt.Errorf("deliver to %s: %w", agentID, err)
			}
		}
	}
	return firstErr
}

// Deliver enqueues one event onto agentID's stream, honoring the overflow
// policy. Used by Publish and by the agent runtime to hand completion
// events back to itself.
func (b *Bus) Deliver(agentID string, ev Event) error {
	b.mu.RLock()
	s, ok := b.streams[agentID]
	if ok {
		s.senders.Add(1)
	}
	b.mu.RUnlock()
	if !ok {
		// Subscribed but never attached, or already detached: nothing
		// to deliver to.
		return nil
	}
	defer s.senders.Done()

	if b.policy == Block {
		select {
		case s.ch <- ev:
			return nil
		case <-s.done:
			// Subscriber detached while we were waiting; drop.
			return nil
		}
	}

	select {
	case s.ch <- ev:
		return nil
	case <-s.done:
		return nil
	default:
		return ErrSubscriberOverloaded
	}
}

// Pending returns the number of undrained events on agentID's stream.
func (b *Bus) Pending(agentID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if s, ok := b.streams[agentID]; ok {
		return len(s.ch)
	}
	return 0
}

