package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is set at build time.
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "medcluster",
	Short: "medcluster — distributed medical multi-agent cluster",
	Long: "medcluster runs a cluster of cooperating medical agents: a coordinating\n" +
		"doctor, an ECG analysis specialist, and a camera specialist, connected\n" +
		"over a topic-based publish/subscribe cluster.",
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = Version
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file path (default ~/.medcluster/config.json)")
	rootCmd.PersistentFlags().StringVar(&topologyPath, "topology", "", "Agent topology file (agents.yaml)")
}
