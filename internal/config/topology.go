package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// AgentSpec describes one agent's place in the topology: the topics it
// consumes and, optionally, the topic its results go to.
type AgentSpec struct {
	Topics      []string `yaml:"topics"`
	OutputTopic string   `yaml:"output,omitempty"`
	MaxTurns    int      `yaml:"maxTurns,omitempty"`
}

// ClassifierSpec overrides the result-detection rules.
type ClassifierSpec struct {
	Prefixes []string `yaml:"prefixes,omitempty"`
	Markers  []string `yaml:"markers,omitempty"`
}

// Topology is the agents.yaml schema: which agent listens where, plus
// optional classifier overrides.
type Topology struct {
	Agents     map[string]AgentSpec `yaml:"agents"`
	Classifier ClassifierSpec       `yaml:"classifier,omitempty"`
}

// DefaultTopology returns the built-in medical topology: a coordinating
// doctor, an ECG analysis specialist, and a camera specialist. The input
// and result topics of each specialist are disjoint, so no agent can
// feed its own output back to itself.
func DefaultTopology() Topology {
	return Topology{
		Agents: map[string]AgentSpec{
			"doctor_agent": {
				Topics: []string{"user_messages", "analysis_response", "camera_response"},
			},
			"analysis_agent": {
				Topics:      []string{"analysis_agent"},
				OutputTopic: "analysis_response",
			},
			"camera_agent": {
				Topics:      []string{"camera_requests"},
				OutputTopic: "camera_response",
			},
		},
	}
}

// LoadTopology reads an agents.yaml topology. An empty path or a missing
// file yields the default topology.
func LoadTopology(path string) (Topology, error) {
	if path == "" {
		return DefaultTopology(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultTopology(), nil
		}
		return Topology{}, err
	}

	var topo Topology
	if err := yaml.Unmarshal(data, &topo); err != nil {
		return Topology{}, fmt.Errorf("parse topology: %w", err)
	}
	if err := topo.Validate(); err != nil {
		return Topology{}, err
	}
	return topo, nil
}

// Validate rejects topologies where an agent's output topic is also one
// of its input topics.
func (t Topology) Validate() error {
	for name, spec := range t.Agents {
		if len(spec.Topics) == 0 {
			return fmt.Errorf("agent %q has no topics", name)
		}
		for _, topic := range spec.Topics {
			if topic == spec.OutputTopic {
				return fmt.Errorf("agent %q would consume its own output topic %q", name, topic)
			}
		}
	}
	return nil
}
