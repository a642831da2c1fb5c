package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liquidos-ai/medcluster/internal/bus"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "medcluster-cookie", cfg.Cluster.Cookie)
	assert.Equal(t, "gpt-4o-mini", cfg.Provider.Model)
	assert.Equal(t, 4096, cfg.Agent.MaxTokens)
	assert.Equal(t, bus.DefaultStreamCapacity, cfg.Bus.StreamCapacity)
	assert.Equal(t, bus.Reject, cfg.Bus.Policy())
}

func TestLoad_FileNotExist(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nonexistent.json"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_ValidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	content := `{
		"cluster": {"cookie": "secret", "hostAddr": "10.0.0.5:9000"},
		"provider": {"model": "gpt-4o"},
		"bus": {"overflowPolicy": "block"}
	}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "secret", cfg.Cluster.Cookie)
	assert.Equal(t, "10.0.0.5:9000", cfg.Cluster.HostAddr)
	assert.Equal(t, "gpt-4o", cfg.Provider.Model)
	assert.Equal(t, bus.Block, cfg.Bus.Policy())
	// Defaults should be preserved for unset fields
	assert.Equal(t, 0.7, cfg.Agent.Temperature)
	assert.Equal(t, ":8765", cfg.Cluster.ListenAddr)
}

func TestLoad_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	cfg, err := Load(path)
	require.Error(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestSaveThenLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")
	cfg := DefaultConfig()
	cfg.Cluster.NodeName = "ward-3"
	require.NoError(t, Save(cfg, path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestResolveAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "env-key")
	assert.Equal(t, "env-key", ProviderConfig{}.ResolveAPIKey())
	assert.Equal(t, "file-key", ProviderConfig{APIKey: "file-key"}.ResolveAPIKey())
}

func TestDefaultTopologyKeepsInputsAndOutputsDisjoint(t *testing.T) {
	topo := DefaultTopology()
	require.NoError(t, topo.Validate())
	assert.Contains(t, topo.Agents["doctor_agent"].Topics, "analysis_response")
	assert.Equal(t, "analysis_response", topo.Agents["analysis_agent"].OutputTopic)
	assert.Equal(t, "camera_response", topo.Agents["camera_agent"].OutputTopic)
}

func TestLoadTopology_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agents.yaml")
	content := `
agents:
  doctor_agent:
    topics: [user_messages]
    maxTurns: 8
  analysis_agent:
    topics: [analysis_agent]
    output: analysis_response
classifier:
  markers: ["Custom Report"]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	topo, err := LoadTopology(path)
	require.NoError(t, err)
	assert.Equal(t, 8, topo.Agents["doctor_agent"].MaxTurns)
	assert.Equal(t, "analysis_response", topo.Agents["analysis_agent"].OutputTopic)
	assert.Equal(t, []string{"Custom Report"}, topo.Classifier.Markers)
}

func TestLoadTopology_MissingFileUsesDefault(t *testing.T) {
	topo, err := LoadTopology(filepath.Join(t.TempDir(), "agents.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultTopology(), topo)
}

func TestLoadTopology_RejectsSelfFeedingAgent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agents.yaml")
	content := `
agents:
  loopy:
    topics: [analysis_response]
    output: analysis_response
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	_, err := LoadTopology(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "own output topic")
}
