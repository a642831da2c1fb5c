package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/liquidos-ai/medcluster/internal/agent"
	"github.com/liquidos-ai/medcluster/internal/bus"
	"github.com/liquidos-ai/medcluster/internal/classify"
	"github.com/liquidos-ai/medcluster/internal/cluster"
	"github.com/liquidos-ai/medcluster/internal/config"
	"github.com/liquidos-ai/medcluster/internal/providers"
)

var (
	configPath   string
	topologyPath string
)

// loadSetup reads the node config and the agent topology.
func loadSetup() (config.Config, config.Topology, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, config.Topology{}, fmt.Errorf("loading config: %w", err)
	}
	topo, err := config.LoadTopology(topologyPath)
	if err != nil {
		return config.Config{}, config.Topology{}, fmt.Errorf("loading topology: %w", err)
	}
	return cfg, topo, nil
}

// makeProvider creates the reasoning backend from the loaded config.
func makeProvider(cfg config.Config) *providers.Provider {
	apiKey := cfg.Provider.ResolveAPIKey()
	if apiKey == "" {
		log.Printf("[Setup] ⚠️ No API key configured; provider calls will fail gracefully")
	}
	return providers.NewProvider(apiKey, cfg.Provider.APIBase, cfg.Provider.Model)
}

func makeBus(cfg config.Config) *bus.Bus {
	return bus.NewBus(
		bus.WithCapacity(cfg.Bus.StreamCapacity),
		bus.WithPolicy(cfg.Bus.Policy()),
	)
}

// makeClassifier applies any topology overrides on top of the default
// result-detection rules.
func makeClassifier(topo config.Topology) *classify.Classifier {
	c := classify.Default()
	if len(topo.Classifier.Prefixes) > 0 {
		c.Prefixes = topo.Classifier.Prefixes
	}
	if len(topo.Classifier.Markers) > 0 {
		c.Markers = topo.Classifier.Markers
	}
	return c
}

// agentSpec resolves one agent's topology entry, falling back to the
// built-in default when the topology file omits it.
func agentSpec(topo config.Topology, name string) config.AgentSpec {
	if spec, ok := topo.Agents[name]; ok {
		return spec
	}
	return config.DefaultTopology().Agents[name]
}

// signalContext returns a context cancelled on SIGINT/SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// awaitShutdown blocks until interrupt or the cluster session dies, then
// stops the runtime and closes the session.
func awaitShutdown(ctx context.Context, client *cluster.Client, r *agent.Runtime) {
	select {
	case <-ctx.Done():
		log.Printf("[Node] 🛑 Interrupt received, shutting down")
	case err := <-client.Errors():
		log.Printf("[Node] ❌ Cluster session lost: %v", err)
	}
	r.Stop()
	client.Close()
}
