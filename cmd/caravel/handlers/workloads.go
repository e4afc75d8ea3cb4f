package handlers

import (
	"context"
	"fmt"

	"github.com/caravel-sh/caravel/internal/alloc"
	"github.com/caravel-sh/caravel/internal/cluster"
	"github.com/caravel-sh/caravel/internal/config"
	"github.com/caravel-sh/caravel/internal/manifest"
	hcloudinternal "github.com/caravel-sh/caravel/internal/platform/hcloud"
	"github.com/caravel-sh/caravel/internal/provision"
)

// computeAllocations resolves each group's node capacity from the
// provider and runs the allocator over the configured workloads.
func computeAllocations(ctx context.Context, cfg *config.Config, infra hcloudinternal.ServerProvisioner) (map[string]alloc.Allocation, error) {
	capacities := make(map[string]int64, len(cfg.ServerGroups))
	for _, group := range cfg.ServerGroups {
		memMB, err := infra.ServerTypeMemoryMB(ctx, group.ServerType)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve capacity of %s: %w", group.ServerType, err)
		}
		capacities[group.Name] = memMB
	}

	workloads := make([]alloc.Workload, 0, len(cfg.Workloads))
	for _, w := range cfg.Workloads {
		tier, err := alloc.ParseTier(w.Size)
		if err != nil {
			return nil, fmt.Errorf("workload %s: %w", w.Name, err)
		}
		workloads = append(workloads, alloc.Workload{
			Name:     w.Name,
			Tier:     tier,
			Replicas: w.Replicas,
			Group:    w.Group,
		})
	}

	return alloc.Allocate(cfg.MasterGroup().Name, capacities, workloads)
}

// deployWorkloads renders the workload manifests from the computed
// allocations and applies them.
func deployWorkloads(pctx *provision.Context, client cluster.ClusterClient) error {
	if len(pctx.Config.Workloads) == 0 {
		return nil
	}

	allocations, err := computeAllocations(pctx, pctx.Config, pctx.Infra)
	if err != nil {
		return fmt.Errorf("allocation failed: %w", err)
	}

	manifests, err := manifest.RenderWorkloads(pctx.Config, allocations)
	if err != nil {
		return err
	}
	if err := client.Apply(pctx, manifests); err != nil {
		return fmt.Errorf("failed to apply workload manifests: %w", err)
	}
	return nil
}
