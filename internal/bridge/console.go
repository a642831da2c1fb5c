package bridge

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"time"
)

// pollInterval is how often the console checks for new agent responses.
const pollInterval = time.Second

// Console is the built-in front end: it reads user lines from in, turns
// them into SEND commands, and polls the bridge for responses to print.
type Console struct {
	bridge *Bridge
	in     io.Reader
	out    io.Writer
}

// NewConsole wires a console front end over the bridge.
func NewConsole(b *Bridge, in io.Reader, out io.Writer) *Console {
	return &Console{bridge: b, in: in, out: out}
}

// Run blocks polling responses until ctx is cancelled. Input reading runs
// on its own goroutine because stdin reads cannot be interrupted.
func (c *Console) Run(ctx context.Context) {
	fmt.Fprintln(c.out, "💬 Type a message and press enter (ctrl-c to quit)")

	go c.readInput(ctx)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.drainResponses()
		}
	}
}

func (c *Console) readInput(ctx context.Context) {
	scanner := bufio.NewScanner(c.in)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		select {
		case <-ctx.Done():
			return
		case c.bridge.Commands() <- SendPrefix + line:
		}
	}
}

func (c *Console) drainResponses() {
	for {
		select {
		case resp := <-c.bridge.Responses():
			fmt.Fprintf(c.out, "\n🤖 %s\n", resp)
		default:
			return
		}
	}
}
