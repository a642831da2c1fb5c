package bus

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_SoleSubscriberReceivesExactlyOnce(t *testing.T) {
	b := NewBus()
	stream := b.AttachStream("analysis")
	other := b.AttachStream("doctor")
	b.Subscribe("analysis_agent", "analysis")

	task := NewTask("check the ECG reading")
	require.NoError(t, b.Publish("analysis_agent", task))

	ev := <-stream
	assert.Equal(t, EventNewTask, ev.Kind)
	assert.Equal(t, "analysis_agent", ev.Topic)
	assert.Equal(t, task.ID, ev.Task.ID)

	assert.Equal(t, 0, b.Pending("analysis"), "no duplicate delivery")
	assert.Len(t, other, 0, "non-subscriber must not receive")
}

func TestBus_PublishOrderIsObservedOrder(t *testing.T) {
	b := NewBus()
	stream := b.AttachStream("doctor")
	b.Subscribe("user_messages", "doctor")

	for i := 0; i < 10; i++ {
		require.NoError(t, b.Publish("user_messages", NewTask(fmt.Sprintf("msg-%d", i))))
	}
	for i := 0; i < 10; i++ {
		ev := <-stream
		assert.Equal(t, fmt.Sprintf("msg-%d", i), ev.Task.Prompt)
	}
}

func TestBus_ZeroSubscribersSucceeds(t *testing.T) {
	b := NewBus()
	assert.NoError(t, b.Publish("nobody_home", NewTask("hello?")))
}

func TestBus_RejectOnFullStream(t *testing.T) {
	const n = 4
	b := NewBus(WithCapacity(n))
	b.AttachStream("slow")
	b.Subscribe("t", "slow")

	for i := 0; i < n; i++ {
		require.NoError(t, b.Publish("t", NewTask("fits")), "publish %d must not fail", i+1)
	}
	err := b.Publish("t", NewTask("overflow"))
	assert.ErrorIs(t, err, ErrSubscriberOverloaded)
	assert.Equal(t, n, b.Pending("slow"), "overflowing publish delivered nothing")
}

func TestBus_BlockPolicyWaitsForDrain(t *testing.T) {
	b := NewBus(WithCapacity(1), WithPolicy(Block))
	stream := b.AttachStream("a")
	b.Subscribe("t", "a")

	require.NoError(t, b.Publish("t", NewTask("first")))

	done := make(chan error, 1)
	go func() { done <- b.Publish("t", NewTask("second")) }()

	// Draining one event unblocks the pending publish.
	ev := <-stream
	assert.Equal(t, "first", ev.Task.Prompt)
	require.NoError(t, <-done)
	ev = <-stream
	assert.Equal(t, "second", ev.Task.Prompt)
}

func TestBus_DetachClosesStreamAndReleasesSubscriptions(t *testing.T) {
	b := NewBus()
	stream := b.AttachStream("camera")
	b.Subscribe("camera_requests", "camera")

	b.Detach("camera")

	_, open := <-stream
	assert.False(t, open)
	assert.Empty(t, b.Registry.SubscribersOf("camera_requests"))
	assert.NoError(t, b.Publish("camera_requests", NewTask("gone")))
}

func TestBus_DetachReleasesBlockedPublisher(t *testing.T) {
	b := NewBus(WithCapacity(1), WithPolicy(Block))
	b.AttachStream("slow")
	b.Subscribe("t", "slow")
	require.NoError(t, b.Publish("t", NewTask("fills the stream")))

	published := make(chan error, 1)
	go func() { published <- b.Publish("t", NewTask("parked")) }()
	// Let the publisher park on the full stream before detaching.
	time.Sleep(50 * time.Millisecond)

	b.Detach("slow")

	select {
	case err := <-published:
		assert.NoError(t, err, "a publish racing shutdown is dropped, not failed")
	case <-time.After(2 * time.Second):
		t.Fatal("publisher still blocked after detach")
	}
}

func TestBus_ConcurrentPublishAndDetach(t *testing.T) {
	for i := 0; i < 50; i++ {
		b := NewBus(WithCapacity(1))
		b.AttachStream("agent")
		b.Subscribe("t", "agent")

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				b.Publish("t", NewTask("spam"))
			}
		}()
		go func() {
			defer wg.Done()
			b.Detach("agent")
		}()
		wg.Wait()
	}
}

func TestBus_RejectStillDeliversToOtherSubscribers(t *testing.T) {
	b := NewBus(WithCapacity(1))
	b.AttachStream("slow")
	healthy := b.AttachStream("healthy")
	b.Subscribe("camera_response", "slow")
	b.Subscribe("camera_response", "healthy")

	require.NoError(t, b.Publish("camera_response", NewTask("one")))
	err := b.Publish("camera_response", NewTask("two"))
	assert.ErrorIs(t, err, ErrSubscriberOverloaded)

	// The healthy subscriber still got both.
	assert.Equal(t, "one", (<-healthy).Task.Prompt)
	assert.Equal(t, "two", (<-healthy).Task.Prompt)
}

func TestTask_DeriveGetsNewIdentity(t *testing.T) {
	orig := NewTask("analyze this")
	derived := orig.Derive("### Analysis Report\nfindings")

	assert.NotEqual(t, orig.ID, derived.ID)
	assert.Equal(t, "analyze this", orig.Prompt, "original is immutable")
}
