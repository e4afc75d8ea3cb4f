package commands

import (
	"github.com/spf13/cobra"

	"github.com/caravel-sh/caravel/cmd/caravel/handlers"
)

// Allocations returns the allocations command, which prints the memory
// each workload would receive without touching the cluster.
func Allocations() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "allocations",
		Short: "Show computed workload memory allocations",
		Long: `Allocations resolves server type capacities from the provider and
prints the per-replica memory budget the allocator computes for each
workload. Nothing is created or changed.

Example:
  caravel allocations -c caravel.yaml`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Allocations(cmd.Context(), cmd.OutOrStdout(), configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to cluster configuration file (required)")
	_ = cmd.MarkFlagRequired("config")

	return cmd
}
