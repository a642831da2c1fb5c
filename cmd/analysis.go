package cmd

import (
	"github.com/spf13/cobra"

	"github.com/liquidos-ai/medcluster/internal/agent"
	"github.com/liquidos-ai/medcluster/internal/classify"
	"github.com/liquidos-ai/medcluster/internal/cluster"
)

var (
	analysisHostAddr string
	analysisName     string
)

var analysisCmd = &cobra.Command{
	Use:   "analysis",
	Short: "Run the ECG analysis node",
	RunE:  runAnalysis,
}

func init() {
	analysisCmd.Flags().StringVar(&analysisHostAddr, "host-addr", "", "Cluster host address (default from config)")
	analysisCmd.Flags().StringVarP(&analysisName, "name", "n", "analysis", "Node name")
	rootCmd.AddCommand(analysisCmd)
}

func runAnalysis(cmd *cobra.Command, args []string) error {
	cfg, topo, err := loadSetup()
	if err != nil {
		return err
	}
	if analysisHostAddr == "" {
		analysisHostAddr = cfg.Cluster.HostAddr
	}

	b := makeBus(cfg)
	client := cluster.NewClient(cluster.ClientConfig{
		NodeName: analysisName,
		HostAddr: analysisHostAddr,
		Cookie:   cfg.Cluster.Cookie,
		Bus:      b,
	})

	specialist := agent.NewAnalysisAgent()
	spec := agentSpec(topo, specialist.Name())
	actx := &agent.Context{
		Transport:   client,
		Provider:    makeProvider(cfg),
		Model:       cfg.Provider.Model,
		MaxTokens:   cfg.Agent.MaxTokens,
		Temperature: cfg.Agent.Temperature,
	}
	// The analysis agent consumes research-data messages that contain
	// marker text; it processes them rather than forwarding.
	r, err := agent.NewRuntime(agent.RuntimeConfig{
		Agent:       specialist,
		Bus:         b,
		Transport:   client,
		Classifier:  classify.None(),
		Topics:      spec.Topics,
		OutputTopic: spec.OutputTopic,
	}, actx)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	if err := client.Connect(ctx); err != nil {
		return err
	}
	go r.Run(ctx)

	awaitShutdown(ctx, client, r)
	return nil
}
