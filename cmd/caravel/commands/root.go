// Package commands defines the CLI command structure and flag bindings.
//
// Cobra command definitions handle argument parsing and flag binding;
// execution is delegated to handler functions in the handlers package.
package commands

import "github.com/spf13/cobra"

// Root returns the root command for the caravel CLI.
func Root() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "caravel",
		Short: "Provision k3s clusters on Hetzner Cloud and deploy workloads",
	}

	cmd.AddCommand(Deploy())
	cmd.AddCommand(Destroy())
	cmd.AddCommand(Allocations())
	cmd.AddCommand(Version())

	return cmd
}
