// Package classify decides whether an inbound prompt is a fresh user query
// or a finished result produced by another agent. It is the second line of
// defense against publish loops; the first is the disjoint input/result
// topic layout.
package classify

import "strings"

// Decision is the routing outcome for one message.
type Decision int

const (
	// UserQuery is fresh input; the agent may use tools.
	UserQuery Decision = iota
	// AgentResult is already-processed output; forward it, never re-submit
	// to tools.
	AgentResult
)

func (d Decision) String() string {
	if d == AgentResult {
		return "agent_result"
	}
	return "user_query"
}

// Default marker set, matching what the agents themselves emit.
var (
	DefaultPrefixes = []string{"### "}
	DefaultMarkers  = []string{
		"Analysis Report",
		"Key Insights",
		"Strategic Recommendations",
		"Executive Summary",
		"RESEARCH DATA FOR ANALYSIS",
	}
)

// Classifier matches prompts against configured structural markers.
// The zero value classifies everything as UserQuery.
type Classifier struct {
	Prefixes []string
	Markers  []string
}

// Default returns a classifier with the built-in marker set.
func Default() *Classifier {
	return &Classifier{Prefixes: DefaultPrefixes, Markers: DefaultMarkers}
}

// None returns a classifier with no markers: every message classifies as
// UserQuery. Used for specialist agents whose input topics legitimately
// carry marker text to be processed, not forwarded.
func None() *Classifier {
	return &Classifier{}
}

// Classify is stateless and total: any input yields a decision, unknown
// content defaults to UserQuery.
func (c *Classifier) Classify(prompt string) Decision {
	for _, p := range c.Prefixes {
		if strings.HasPrefix(prompt, p) {
			return AgentResult
		}
	}
	for _, m := range c.Markers {
		if strings.Contains(prompt, m) {
			return AgentResult
		}
	}
	return UserQuery
}
