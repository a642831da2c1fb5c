package agent

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	"github.com/liquidos-ai/medcluster/internal/bus"
	"github.com/liquidos-ai/medcluster/internal/classify"
)

// RuntimeState is the runtime's lifecycle state.
type RuntimeState int32

const (
	StateIdle RuntimeState = iota
	StateAwaitingEvent
	StateExecuting
	StateStopped
)

func (s RuntimeState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingEvent:
		return "awaiting_event"
	case StateExecuting:
		return "executing"
	}
	return "stopped"
}

// RuntimeConfig wires one agent instance into the node.
type RuntimeConfig struct {
	Agent      Agent
	Bus        *bus.Bus
	Transport  Transport
	Classifier *classify.Classifier

	// Topics the agent consumes tasks from.
	Topics []string

	// OutputTopic, when set, receives every final result as a derived
	// task. Must not overlap Topics, or the agent would feed itself.
	OutputTopic string

	// ResultSink, when set, additionally receives every final result
	// (the GUI bridge on operator-facing nodes).
	ResultSink func(string)

}

// Runtime drives one agent: it subscribes the agent's topics, pulls
// events off the stream one at a time, consults the loop guard, and runs
// the executor. One task runs to completion before the runtime re-checks
// for shutdown.
type Runtime struct {
	agent      Agent
	bus        *bus.Bus
	classifier *classify.Classifier
	outputTop  string
	resultSink func(string)
	actx       *Context

	stream <-chan bus.Event
	state  atomic.Int32
	stop   sync.Once
}

// NewRuntime attaches the agent's event stream and registers its topic
// subscriptions.
func NewRuntime(cfg RuntimeConfig, actx *Context) (*Runtime, error) {
	for _, t := range cfg.Topics {
		if t == cfg.OutputTopic {
			return nil, fmt.Errorf("agent %s: output topic %q overlaps its subscriptions", cfg.Agent.Name(), t)
		}
	}

	r := &Runtime{
		agent:      cfg.Agent,
		bus:        cfg.Bus,
		classifier: cfg.Classifier,
		outputTop:  cfg.OutputTopic,
		resultSink: cfg.ResultSink,
		actx:       actx,
	}
	if r.classifier == nil {
		r.classifier = classify.Default()
	}
	actx.emit = func(ev bus.Event) {
		if err := r.bus.Deliver(r.agent.Name(), ev); err != nil {
			log.Printf("[Runtime] ⚠️ %s: lifecycle event dropped: %v", r.agent.Name(), err)
		}
	}

	r.stream = cfg.Bus.AttachStream(cfg.Agent.Name())
	for _, topic := range cfg.Topics {
		if err := cfg.Transport.Subscribe(topic, cfg.Agent.Name()); err != nil {
			return nil, fmt.Errorf("subscribe %s to %q: %w", cfg.Agent.Name(), topic, err)
		}
	}
	log.Printf("[Runtime] 🤖 Agent %q subscribed to %v", cfg.Agent.Name(), cfg.Topics)
	return r, nil
}

// State returns the runtime's current lifecycle state.
func (r *Runtime) State() RuntimeState {
	return RuntimeState(r.state.Load())
}

// Run blocks processing events until ctx is cancelled or the stream
// closes. Execution of one task always runs to completion before the
// shutdown check.
func (r *Runtime) Run(ctx context.Context) {
	defer r.state.Store(int32(StateStopped))
	for {
		r.state.Store(int32(StateAwaitingEvent))
		select {
		case <-ctx.Done():
			r.Stop()
			return
		case ev, ok := <-r.stream:
			if !ok {
				return
			}
			r.dispatch(ctx, ev)
			r.state.Store(int32(StateIdle))
		}
	}
}

func (r *Runtime) dispatch(ctx context.Context, ev bus.Event) {
	switch ev.Kind {
	case bus.EventNewTask:
		r.handleTask(ctx, ev)
	case bus.EventToolCallRequested:
		log.Printf("[Runtime] 🔧 %s requested tool %q", r.agent.Name(), ev.ToolName)
	case bus.EventTaskComplete:
		log.Printf("[Runtime] 🎯 %s completed task: %.80s", ev.AgentID, ev.Result)
	case bus.EventAgentStopped:
		log.Printf("[Runtime] 🛑 %s stopped", ev.AgentID)
	}
}

// handleTask runs one task through the loop guard and the executor, then
// delivers exactly one completion event to the runtime itself and exactly
// one publish of the result to the output topic, when configured.
func (r *Runtime) handleTask(ctx context.Context, ev bus.Event) {
	r.state.Store(int32(StateExecuting))
	task := ev.Task

	var result string
	if r.classifier.Classify(task.Prompt) == classify.AgentResult {
		// Hard override: a finished artifact from another agent is
		// routed straight to output, never back through tools.
		log.Printf("[Runtime] 📊 %s: task %s classified as agent result, forwarding", r.agent.Name(), task.ID)
		result = task.Prompt
	} else {
		result = r.execute(ctx, task)
	}

	if err := r.bus.Deliver(r.agent.Name(), bus.Event{
		Kind:    bus.EventTaskComplete,
		AgentID: r.agent.Name(),
		Result:  result,
	}); err != nil {
		log.Printf("[Runtime] ⚠️ %s: completion event dropped: %v", r.agent.Name(), err)
	}

	if r.outputTop != "" {
		if err := r.actx.Publish(r.outputTop, task.Derive(result)); err != nil {
			log.Printf("[Runtime] ⚠️ %s: publish result to %q: %v", r.agent.Name(), r.outputTop, err)
		}
	}
	if r.resultSink != nil {
		r.resultSink(result)
	}
}

// execute runs the agent's decision function, converting any error or
// panic into a completed failure result.
func (r *Runtime) execute(ctx context.Context, task bus.Task) (result string) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("[Runtime] ❌ %s panicked on task %s: %v", r.agent.Name(), task.ID, rec)
			result = fmt.Sprintf("Agent %s failed: %v", r.agent.Name(), rec)
		}
	}()

	res, err := r.agent.Execute(ctx, task, r.actx)
	if err != nil {
		log.Printf("[Runtime] ❌ %s failed on task %s: %v", r.agent.Name(), task.ID, err)
		return fmt.Sprintf("Agent %s failed: %v", r.agent.Name(), err)
	}
	return res
}

// Stop releases the agent's subscriptions and closes its stream. Any task
// already executing finishes first; no new events are accepted.
func (r *Runtime) Stop() {
	r.stop.Do(func() {
		r.bus.Deliver(r.agent.Name(), bus.Event{Kind: bus.EventAgentStopped, AgentID: r.agent.Name()})
		r.bus.Detach(r.agent.Name())
		log.Printf("[Runtime] 🛑 Agent %q detached", r.agent.Name())
	})
}
