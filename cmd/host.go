package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/liquidos-ai/medcluster/internal/cluster"
)

var (
	hostPort int
	hostBind string
	hostName string
)

var hostCmd = &cobra.Command{
	Use:   "host",
	Short: "Run the cluster host node (relay and topic registry)",
	RunE:  runHost,
}

func init() {
	hostCmd.Flags().IntVarP(&hostPort, "port", "p", 9000, "Port to listen on")
	hostCmd.Flags().StringVar(&hostBind, "host", "localhost", "Interface to bind")
	hostCmd.Flags().StringVarP(&hostName, "name", "n", "cluster_host", "Node name")
	rootCmd.AddCommand(hostCmd)
}

func runHost(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadSetup()
	if err != nil {
		return err
	}

	h := cluster.NewHost(cluster.HostConfig{
		NodeName: hostName,
		Cookie:   cfg.Cluster.Cookie,
		Addr:     fmt.Sprintf("%s:%d", hostBind, hostPort),
		Bus:      makeBus(cfg),
	})

	ctx, cancel := signalContext()
	defer cancel()
	return h.Start(ctx)
}
