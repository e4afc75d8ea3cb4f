package commands

import (
	"github.com/spf13/cobra"

	"github.com/caravel-sh/caravel/cmd/caravel/handlers"
)

// Destroy returns the destroy command.
func Destroy() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "destroy",
		Short: "Destroy the cluster and all associated cloud resources",
		Long: `Destroy removes every cloud resource labeled as belonging to the
cluster: servers first, then firewalls, networks and SSH keys.

Example:
  caravel destroy -c caravel.yaml

WARNING: This operation is irreversible. All cluster data will be lost.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Destroy(cmd.Context(), configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to cluster configuration file (required)")
	_ = cmd.MarkFlagRequired("config")

	return cmd
}
