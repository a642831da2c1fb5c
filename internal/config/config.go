// Package config handles node configuration loading, saving, and schema
// definition, plus the YAML agent topology file.
package config

import (
	"os"

	"github.com/liquidos-ai/medcluster/internal/bus"
)

// Config is the top-level node configuration.
// Uses json tags in camelCase to match the JSON config file format.
type Config struct {
	Cluster  ClusterConfig  `json:"cluster"`
	Provider ProviderConfig `json:"provider"`
	Agent    AgentConfig    `json:"agent"`
	Bus      BusConfig      `json:"bus"`
	Memory   MemoryConfig   `json:"memory"`
}

// ClusterConfig holds the session-layer settings shared by host and
// client nodes.
type ClusterConfig struct {
	Cookie     string `json:"cookie"`
	ListenAddr string `json:"listenAddr"`
	HostAddr   string `json:"hostAddr"`
	NodeName   string `json:"nodeName,omitempty"`
}

// ProviderConfig holds the reasoning backend settings.
type ProviderConfig struct {
	APIKey  string `json:"apiKey,omitempty"`
	APIBase string `json:"apiBase,omitempty"`
	Model   string `json:"model"`
}

// AgentConfig holds per-agent execution defaults.
type AgentConfig struct {
	MaxTokens    int     `json:"maxTokens"`
	Temperature  float64 `json:"temperature"`
	MaxTurns     int     `json:"maxTurns"`
	MemoryWindow int     `json:"memoryWindow"`
}

// BusConfig holds event-stream settings.
type BusConfig struct {
	StreamCapacity int    `json:"streamCapacity"`
	OverflowPolicy string `json:"overflowPolicy"` // "reject" or "block"
}

// MemoryConfig holds the optional conversation-memory mirror settings.
type MemoryConfig struct {
	RedisURL string `json:"redisUrl,omitempty"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() Config {
	return Config{
		Cluster: ClusterConfig{
			Cookie:     "medcluster-cookie",
			ListenAddr: ":8765",
			HostAddr:   "localhost:8765",
		},
		Provider: ProviderConfig{
			Model: "gpt-4o-mini",
		},
		Agent: AgentConfig{
			MaxTokens:    4096,
			Temperature:  0.7,
			MaxTurns:     5,
			MemoryWindow: 10,
		},
		Bus: BusConfig{
			StreamCapacity: bus.DefaultStreamCapacity,
			OverflowPolicy: "reject",
		},
	}
}

// ResolveAPIKey returns the configured key, falling back to the
// OPENAI_API_KEY environment variable.
func (p ProviderConfig) ResolveAPIKey() string {
	if p.APIKey != "" {
		return p.APIKey
	}
	return os.Getenv("OPENAI_API_KEY")
}

// Policy maps the configured overflow policy name to the bus policy.
// Unknown names fall back to reject.
func (b BusConfig) Policy() bus.OverflowPolicy {
	if b.OverflowPolicy == "block" {
		return bus.Block
	}
	return bus.Reject
}
