package cmd

import (
	"github.com/spf13/cobra"

	"github.com/liquidos-ai/medcluster/internal/agent"
	"github.com/liquidos-ai/medcluster/internal/capture"
	"github.com/liquidos-ai/medcluster/internal/classify"
	"github.com/liquidos-ai/medcluster/internal/cluster"
)

var (
	cameraHostAddr string
	cameraName     string
	cameraDir      string
)

var cameraCmd = &cobra.Command{
	Use:   "camera",
	Short: "Run the camera node (capture and visual assessment)",
	RunE:  runCamera,
}

func init() {
	cameraCmd.Flags().StringVar(&cameraHostAddr, "host-addr", "", "Cluster host address (default from config)")
	cameraCmd.Flags().StringVarP(&cameraName, "name", "n", "camera", "Node name")
	cameraCmd.Flags().StringVar(&cameraDir, "image-dir", "", "Directory for captured images")
	rootCmd.AddCommand(cameraCmd)
}

func runCamera(cmd *cobra.Command, args []string) error {
	cfg, topo, err := loadSetup()
	if err != nil {
		return err
	}
	if cameraHostAddr == "" {
		cameraHostAddr = cfg.Cluster.HostAddr
	}

	b := makeBus(cfg)
	client := cluster.NewClient(cluster.ClientConfig{
		NodeName: cameraName,
		HostAddr: cameraHostAddr,
		Cookie:   cfg.Cluster.Cookie,
		Bus:      b,
	})

	specialist := agent.NewCameraAgent(capture.NewCamera(cameraDir))
	spec := agentSpec(topo, specialist.Name())
	actx := &agent.Context{
		Transport:   client,
		Provider:    makeProvider(cfg),
		Model:       cfg.Provider.Model,
		MaxTokens:   cfg.Agent.MaxTokens,
		Temperature: cfg.Agent.Temperature,
	}
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
