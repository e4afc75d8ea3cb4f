package cluster

import (
	"fmt"
	"strings"
	"time"

	"github.com/caravel-sh/caravel/internal/config"
	"github.com/caravel-sh/caravel/internal/k8s"
	"github.com/caravel-sh/caravel/internal/provision"
	"github.com/caravel-sh/caravel/internal/util/labels"
)

const joinPhase = "join"

// JoinWorkers joins every eligible worker to the cluster and then
// reconciles node labels for all nodes, master included.
//
// A worker is eligible when its server was created this run or when its
// node is missing or not Ready, which re-joins servers that exist at
// the provider but never made it into the cluster. Everything else is
// skipped; that is what keeps a no-change redeploy fast.
func JoinWorkers(ctx *provision.Context, client ClusterClient) error {
	start := time.Now()
	provision.LogPhaseStart(ctx.Observer, joinPhase)

	desired := provision.Desired(ctx.Config.ServerGroups)
	master := desired.MasterKey()

	// The join token is read from the master once per run and shared by
	// every worker joined in it.
	var token string

	for _, key := range desired.Keys {
		if key == master {
			continue
		}
		rec, ok := ctx.State.Servers[key]
		if !ok {
			continue
		}
		nodeName := key.ServerName(ctx.Config.ClusterName)

		node, err := client.GetNode(ctx, nodeName)
		if err != nil {
			return err
		}
		if node != nil && k8s.NodeReady(node) {
			if ctx.State.NewKeys[key] {
				provision.LogWarning(ctx.Observer, joinPhase, nodeName,
					"server is new but a Ready node with this name already exists, skipping join")
			} else {
				provision.LogResourceExists(ctx.Observer, joinPhase, "node", nodeName, "")
			}
			continue
		}

		if token == "" {
			if token, err = readJoinToken(ctx); err != nil {
				return err
			}
		}
		if err := joinWorker(ctx, key, rec, nodeName, token); err != nil {
			return err
		}
		if err := client.WaitForNodeReady(ctx, nodeName, ctx.Timeouts.NodeReady); err != nil {
			return err
		}
	}

	if err := labelNodes(ctx, client); err != nil {
		return err
	}

	provision.LogPhaseComplete(ctx.Observer, joinPhase, time.Since(start))
	return nil
}

func readJoinToken(ctx *provision.Context) (string, error) {
	exec, err := ctx.SSH.For(ctx.State.PrimaryIP)
	if err != nil {
		return "", err
	}
	out, err := exec.Execute(ctx, "cat "+k3sTokenPath)
	if err != nil {
		return "", fmt.Errorf("failed to read join token: %w", err)
	}
	token := strings.TrimSpace(out)
	if token == "" {
		return "", fmt.Errorf("join token on master is empty")
	}
	return token, nil
}

func joinWorker(ctx *provision.Context, key provision.Key, rec provision.ServerRecord, nodeName, token string) error {
	provision.LogResourceCreating(ctx.Observer, joinPhase, "node", nodeName)

	exec, err := ctx.SSH.For(rec.PublicIP)
	if err != nil {
		return fmt.Errorf("failed to build executor for %s: %w", nodeName, err)
	}

	if err := exec.WaitCloudInit(ctx, ctx.Timeouts.CloudInitAttempts, ctx.Timeouts.CloudInitInterval); err != nil {
		return fmt.Errorf("cloud-init never finished on %s: %w", nodeName, err)
	}

	info, err := DiscoverNetwork(ctx, exec, rec.PublicIP)
	if err != nil {
		return err
	}

	masterAddr := ctx.State.Servers[provision.Desired(ctx.Config.ServerGroups).MasterKey()].PrivateIP
	if masterAddr == "" {
		masterAddr = ctx.State.PrimaryIP
	}

	args := []string{
		"agent",
		"--node-name", nodeName,
		"--node-ip", info.PrivateIP,
		"--flannel-iface", info.Interface,
	}
	cmd := fmt.Sprintf("curl -sfL %s | K3S_URL=https://%s:%d K3S_TOKEN=%s INSTALL_K3S_EXEC=%q sh -s -",
		k3sInstallURL, masterAddr, config.KubeAPIPort, token, strings.Join(args, " "))

	if _, err := exec.ExecuteWithRetry(ctx, cmd, ctx.Timeouts.RetryMaxAttempts, ctx.Timeouts.RetryInitialDelay); err != nil {
		return fmt.Errorf("join failed on %s: %w", nodeName, err)
	}

	provision.LogResourceCreated(ctx.Observer, joinPhase, "node", nodeName, "")
	return nil
}

// labelNodes stamps every node with its server group, unconditionally.
// Labels are additive state that would otherwise drift when nodes are
// replaced outside a join.
func labelNodes(ctx *provision.Context, client ClusterClient) error {
	for key := range ctx.State.Servers {
		nodeName := key.ServerName(ctx.Config.ClusterName)
		err := client.LabelNode(ctx, nodeName, map[string]string{labels.NodeGroupKey: key.Group})
		if err != nil {
			return err
		}
	}
	return nil
}
