// Package memory provides sliding-window conversation memory for agents,
// with an optional Redis mirror so an operator can inspect recent turns.
package memory

import (
	"sync"
)

// Turn is one remembered conversation entry.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// SlidingWindow keeps the most recent N turns for one agent.
type SlidingWindow struct {
	agentID string
	window  int
	mirror  *RedisMirror

	mu    sync.Mutex
	turns []Turn
}

// NewSlidingWindow creates a window of size n for agentID. mirror may be
// nil; memory then stays purely in-process.
func NewSlidingWindow(agentID string, n int, mirror *RedisMirror) *SlidingWindow {
	if n < 1 {
		n = 10
	}
	return &SlidingWindow{agentID: agentID, window: n, mirror: mirror}
}

// Add records a turn, evicting the oldest once the window is full.
func (s *SlidingWindow) Add(role, content string) {
	turn := Turn{Role: role, Content: content}

	s.mu.Lock()
	s.turns = append(s.turns, turn)
	if len(s.turns) > s.window {
		s.turns = s.turns[len(s.turns)-s.window:]
	}
	s.mu.Unlock()

	if s.mirror != nil {
		s.mirror.Append(s.agentID, turn, s.window)
	}
}

// History returns a copy of the remembered turns, oldest first.
func (s *SlidingWindow) History() []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// Len returns the number of remembered turns.
func (s *SlidingWindow) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.turns)
}
