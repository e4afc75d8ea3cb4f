package commands

import (
	"github.com/spf13/cobra"

	"github.com/caravel-sh/caravel/cmd/caravel/handlers"
)

// Deploy returns the deploy command.
//
// Deploy converges everything: cloud servers are reconciled against the
// configured topology, the control plane is bootstrapped, workers are
// joined, workload manifests applied and retired servers removed last.
func Deploy() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Provision the cluster and deploy all configured workloads",
		Long: `Deploy converges the cluster toward the configuration file.

The run is idempotent: servers that exist are kept, missing servers are
created, surplus servers are drained and removed after the new state is
in place. Re-running an unchanged configuration makes no changes.

Example:
  caravel deploy -c caravel.yaml`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Deploy(cmd.Context(), configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to cluster configuration file (required)")
	_ = cmd.MarkFlagRequired("config")

	return cmd
}
