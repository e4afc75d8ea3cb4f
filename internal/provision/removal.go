package provision

import (
	"context"
	"fmt"
)

const removalPhase = "removal"

// NodeRemover is the slice of cluster control operations deferred
// deletion needs.
type NodeRemover interface {
	CordonNode(ctx context.Context, name string) error
	DrainNode(ctx context.Context, name string) error
	DeleteNode(ctx context.Context, name string) error
}

// RemoveRetired deletes the servers the reconcile pass scheduled for
// removal, in order. Each node is cordoned and drained best-effort,
// removed from the cluster, then deleted at the provider. Drain
// failures are reported but do not block deletion; the server is going
// away either way.
func RemoveRetired(ctx *Context, nodes NodeRemover) error {
	if len(ctx.State.RemovalNames) == 0 {
		return nil
	}
	LogPhaseStart(ctx.Observer, removalPhase)

	for _, name := range ctx.State.RemovalNames {
		LogResourceDeleting(ctx.Observer, removalPhase, "server", name)

		if nodes != nil {
			if err := nodes.CordonNode(ctx, name); err != nil {
				LogWarning(ctx.Observer, removalPhase, name, fmt.Sprintf("cordon failed: %v", err))
			}
			if err := nodes.DrainNode(ctx, name); err != nil {
				LogWarning(ctx.Observer, removalPhase, name, fmt.Sprintf("drain failed: %v", err))
			}
			if err := nodes.DeleteNode(ctx, name); err != nil {
				return fmt.Errorf("failed to delete node %s: %w", name, err)
			}
		}

		if err := ctx.Infra.DeleteServer(ctx, name); err != nil {
			return fmt.Errorf("failed to delete server %s: %w", name, err)
		}
		LogResourceDeleted(ctx.Observer, removalPhase, "server", name)
	}
	return nil
}
