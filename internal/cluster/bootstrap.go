package cluster

import (
	_ "embed"
	"fmt"
	"strings"
	"time"

	"github.com/caravel-sh/caravel/internal/config"
	"github.com/caravel-sh/caravel/internal/platform/sshexec"
	"github.com/caravel-sh/caravel/internal/provision"
)

const bootstrapPhase = "bootstrap"

const (
	k3sInstallURL     = "https://get.k3s.io"
	k3sKubeconfigPath = "/etc/rancher/k3s/k3s.yaml"
	k3sRegistriesPath = "/etc/rancher/k3s/registries.yaml"
	k3sTokenPath      = "/var/lib/rancher/k3s/server/node-token"

	ingressNamespace = "ingress-nginx"
	ingressService   = "ingress-nginx-controller"
	ingressSelector  = "app.kubernetes.io/component=controller"
)

//go:embed assets/ingress-nginx.yaml
var ingressManifest string

// Bootstrap brings the control plane up on the primary server. Every
// step checks current state before acting, so re-running against a
// bootstrapped cluster is close to a no-op: the install is skipped when
// a Ready node already answers, the registry mirror and kubeconfig are
// simply rewritten, the ingress manifest re-applied.
func Bootstrap(ctx *provision.Context) (ClusterClient, error) {
	start := time.Now()
	provision.LogPhaseStart(ctx.Observer, bootstrapPhase)

	masterName := provision.Desired(ctx.Config.ServerGroups).MasterKey().ServerName(ctx.Config.ClusterName)

	exec, err := ctx.SSH.For(ctx.State.PrimaryIP)
	if err != nil {
		return nil, fmt.Errorf("failed to build executor for %s: %w", masterName, err)
	}

	if err := exec.WaitCloudInit(ctx, ctx.Timeouts.CloudInitAttempts, ctx.Timeouts.CloudInitInterval); err != nil {
		return nil, fmt.Errorf("cloud-init never finished on %s: %w", masterName, err)
	}

	info, err := DiscoverNetwork(ctx, exec, ctx.State.PrimaryIP)
	if err != nil {
		return nil, err
	}

	if err := writeRegistryMirror(ctx, exec); err != nil {
		return nil, err
	}

	if controlPlaneReady(ctx, exec) {
		provision.LogResourceExists(ctx.Observer, bootstrapPhase, "control plane", masterName, "")
	} else {
		if err := installControlPlane(ctx, exec, masterName, info); err != nil {
			return nil, err
		}
		if err := waitHostNodeReady(ctx, exec, masterName); err != nil {
			return nil, err
		}
	}

	if err := setupKubeconfig(ctx, exec, info); err != nil {
		return nil, err
	}

	kubeconfig, err := fetchKubeconfig(ctx, exec, ctx.State.PrimaryIP)
	if err != nil {
		return nil, err
	}
	ctx.State.Kubeconfig = kubeconfig

	client, err := NewClusterClient(kubeconfig)
	if err != nil {
		return nil, fmt.Errorf("failed to build cluster client: %w", err)
	}

	if err := deployIngress(ctx, client); err != nil {
		return nil, err
	}

	provision.LogPhaseComplete(ctx.Observer, bootstrapPhase, time.Since(start))
	return client, nil
}

// controlPlaneReady reports whether an installed control plane already
// answers with a Ready node. This is the install gate.
func controlPlaneReady(ctx *provision.Context, exec sshexec.Executor) bool {
	out, err := exec.Execute(ctx, "k3s kubectl get nodes --no-headers 2>/dev/null")
	return err == nil && strings.Contains(out, " Ready")
}

func installControlPlane(ctx *provision.Context, exec sshexec.Executor, masterName string, info NetworkInfo) error {
	args := []string{
		"server",
		"--node-name", masterName,
		"--disable", "traefik",
		"--disable", "servicelb",
		"--flannel-iface", info.Interface,
		"--node-ip", info.PrivateIP,
		"--advertise-address", info.PrivateIP,
		"--node-external-ip", info.PublicIP,
		"--tls-san", info.PublicIP,
		"--cluster-cidr", config.PodCIDR,
		"--service-cidr", config.ServiceCIDR,
		"--write-kubeconfig-mode", "600",
	}
	cmd := fmt.Sprintf("curl -sfL %s | INSTALL_K3S_EXEC=%q sh -s -", k3sInstallURL, strings.Join(args, " "))

	if _, err := exec.ExecuteWithRetry(ctx, cmd, ctx.Timeouts.RetryMaxAttempts, ctx.Timeouts.RetryInitialDelay); err != nil {
		return fmt.Errorf("control plane install failed on %s: %w", masterName, err)
	}
	return nil
}

// waitHostNodeReady polls the freshly installed control plane from the
// host itself, before any kubeconfig has been fetched.
func waitHostNodeReady(ctx *provision.Context, exec sshexec.Executor, masterName string) error {
	cmd := fmt.Sprintf("k3s kubectl get node %s --no-headers 2>/dev/null", masterName)
	deadline := time.Now().Add(ctx.Timeouts.NodeReady)

	for {
		out, err := exec.Execute(ctx, cmd)
		if err == nil && strings.Contains(out, " Ready") {
			return nil
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return fmt.Errorf("node %s did not become ready within %v", masterName, ctx.Timeouts.NodeReady)
		}
		interval := 5 * time.Second
		if remaining < interval {
			interval = remaining
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
}

// writeRegistryMirror configures containerd to pull the local registry
// port over plain HTTP, so nodes can use images pushed through the
// in-cluster registry without exposing it externally.
func writeRegistryMirror(ctx *provision.Context, exec sshexec.Executor) error {
	content := fmt.Sprintf(`mirrors:
  "localhost:%[1]d":
    endpoint:
      - "http://localhost:%[1]d"
`, config.RegistryMirrorPort)

	if err := exec.WriteFile(ctx, k3sRegistriesPath, content, "0644"); err != nil {
		return fmt.Errorf("failed to write registry mirror config: %w", err)
	}
	return nil
}

// setupKubeconfig copies the generated kubeconfig into the operating
// user's profile on the host, pointed at the private address so the
// same file works from any cluster host.
func setupKubeconfig(ctx *provision.Context, exec sshexec.Executor, info NetworkInfo) error {
	cmd := fmt.Sprintf(
		"mkdir -p ~/.kube && cp %s ~/.kube/config && sed -i 's/127.0.0.1/%s/g' ~/.kube/config && chmod 600 ~/.kube/config",
		k3sKubeconfigPath, info.PrivateIP)
	if _, err := exec.Execute(ctx, cmd); err != nil {
		return fmt.Errorf("failed to set up kubeconfig: %w", err)
	}
	return nil
}

// fetchKubeconfig pulls the kubeconfig for local use, rewritten to the
// public address the API server lists as a certificate SAN.
func fetchKubeconfig(ctx *provision.Context, exec sshexec.Executor, publicIP string) ([]byte, error) {
	out, err := exec.Execute(ctx, "cat "+k3sKubeconfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch kubeconfig: %w", err)
	}
	return []byte(strings.ReplaceAll(out, "127.0.0.1", publicIP)), nil
}

// deployIngress applies the pinned ingress-nginx manifest, waits for
// the controller and fixes the service node ports so firewall rules can
// target constants.
func deployIngress(ctx *provision.Context, client ClusterClient) error {
	if err := client.Apply(ctx, ingressManifest); err != nil {
		return fmt.Errorf("failed to apply ingress controller manifest: %w", err)
	}
	if err := client.WaitForPodsReady(ctx, ingressNamespace, ingressSelector, ctx.Timeouts.PodReady); err != nil {
		return err
	}
	return client.PatchServiceNodePorts(ctx, ingressNamespace, ingressService, map[int32]int32{
		80:  config.IngressHTTPNodePort,
		443: config.IngressHTTPSNodePort,
	})
}
