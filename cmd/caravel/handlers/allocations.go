package handlers

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
)

// Allocations handles the allocations command. It prints the memory
// budget each workload replica would receive, without changing
// anything.
func Allocations(ctx context.Context, out io.Writer, configPath string) error {
	cfg, err := loadConfigFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.HCloudToken == "" {
		return fmt.Errorf("hcloud_token is required (in config or env HCLOUD_TOKEN)")
	}
	if len(cfg.Workloads) == 0 {
		fmt.Fprintln(out, "no workloads configured")
		return nil
	}

	allocations, err := computeAllocations(ctx, cfg, newInfraClient(cfg))
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "WORKLOAD\tGROUP\tSIZE\tREPLICAS\tMEMORY/REPLICA")
	for _, workload := range cfg.Workloads {
		group := workload.Group
		if group == "" {
			group = cfg.MasterGroup().Name
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d MB\n",
			workload.Name, group, workload.Size, workload.Replicas,
			allocations[workload.Name].MemoryMB)
	}
	return w.Flush()
}
