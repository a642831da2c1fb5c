package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/liquidos-ai/medcluster/internal/agent"
	"github.com/liquidos-ai/medcluster/internal/bridge"
	"github.com/liquidos-ai/medcluster/internal/cluster"
	"github.com/liquidos-ai/medcluster/internal/memory"
)

// doctorMemoryWindow is larger than the specialists': the doctor carries
// the whole operator conversation, not single analysis exchanges.
const doctorMemoryWindow = 50

var (
	doctorHostAddr string
	doctorName     string
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run the doctor node (coordinating agent with console UI)",
	RunE:  runDoctor,
}

func init() {
	doctorCmd.Flags().StringVar(&doctorHostAddr, "host-addr", "", "Cluster host address (default from config)")
	doctorCmd.Flags().StringVarP(&doctorName, "name", "n", "doctor", "Node name")
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, args []string) error {
	cfg, topo, err := loadSetup()
	if err != nil {
		return err
	}
	if doctorHostAddr == "" {
		doctorHostAddr = cfg.Cluster.HostAddr
	}

	b := makeBus(cfg)
	client := cluster.NewClient(cluster.ClientConfig{
		NodeName: doctorName,
		HostAddr: doctorHostAddr,
		Cookie:   cfg.Cluster.Cookie,
		Bus:      b,
	})

	mirror := memory.NewRedisMirror(cfg.Memory.RedisURL)
	if mirror != nil {
		defer mirror.Close()
	}
	mem := memory.NewSlidingWindow("doctor_agent", doctorMemoryWindow, mirror)

	doctor := agent.NewDoctorAgent(client, mem)
	spec := agentSpec(topo, doctor.Name())
	doctor.SetMaxTurns(spec.MaxTurns)

	br := bridge.New(client, "user_messages")
	actx := &agent.Context{
		Transport:   client,
		Provider:    makeProvider(cfg),
		Model:       cfg.Provider.Model,
		MaxTokens:   cfg.Agent.MaxTokens,
		Temperature: cfg.Agent.Temperature,
	}
	r, err := agent.NewRuntime(agent.RuntimeConfig{
		Agent:      doctor,
		Bus:        b,
		Transport:  client,
		Classifier: makeClassifier(topo),
		Topics:     spec.Topics,
		ResultSink: br.Accept,
	}, actx)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	// Connect after the runtime subscribed, so the handshake declares
	// the doctor's topics.
	if err := client.Connect(ctx); err != nil {
		return err
	}

	go r.Run(ctx)
	go br.Run(ctx)
	go bridge.NewConsole(br, os.Stdin, os.Stdout).Run(ctx)

	awaitShutdown(ctx, client, r)
	return nil
}
