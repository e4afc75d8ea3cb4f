package provision

import (
	"fmt"
	"net"
	"os"
	"strconv"

	"github.com/caravel-sh/caravel/internal/config"
	"github.com/caravel-sh/caravel/internal/util/labels"
	"github.com/caravel-sh/caravel/internal/util/naming"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"
)

const infraPhase = "infrastructure"

// EnsureInfrastructure brings the shared cluster resources into
// existence: private network, firewall and the uploaded SSH key. All
// three are idempotent ensure operations keyed by cluster name.
func EnsureInfrastructure(ctx *Context) error {
	LogPhaseStart(ctx.Observer, infraPhase)

	clusterLabels := labels.NewBuilder(ctx.Config.ClusterName).Build()

	network, err := ctx.Infra.EnsureNetwork(ctx, naming.Network(ctx.Config.ClusterName), config.PrivateNetworkCIDR, clusterLabels)
	if err != nil {
		return fmt.Errorf("failed to ensure network: %w", err)
	}
	ctx.State.Network = network

	rules := buildFirewallRules(&ctx.Config.Firewall)
	firewall, err := ctx.Infra.EnsureFirewall(ctx, naming.Firewall(ctx.Config.ClusterName), rules, clusterLabels)
	if err != nil {
		return fmt.Errorf("failed to ensure firewall: %w", err)
	}
	ctx.State.Firewall = firewall

	publicKey, err := os.ReadFile(ctx.Config.SSH.PublicKeyPath)
	if err != nil {
		return fmt.Errorf("failed to read SSH public key: %w", err)
	}
	sshKey, err := ctx.Infra.EnsureSSHKey(ctx, ctx.Config.ClusterName, string(publicKey), clusterLabels)
	if err != nil {
		return fmt.Errorf("failed to ensure SSH key: %w", err)
	}
	ctx.State.SSHKeyID = sshKey.ID

	return nil
}

// buildFirewallRules constructs the inbound rule set. Empty allow lists
// fall back to any-source so a fresh cluster stays reachable before the
// operator locks it down.
func buildFirewallRules(fw *config.FirewallConfig) []hcloud.FirewallRule {
	return []hcloud.FirewallRule{
		inboundTCP("Kubernetes API", config.KubeAPIPort, fw.APIAllowList),
		inboundTCP("SSH", config.SSHPort, fw.SSHAllowList),
		inboundTCP("ingress HTTP", config.IngressHTTPNodePort, nil),
		inboundTCP("ingress HTTPS", config.IngressHTTPSNodePort, nil),
	}
}

func inboundTCP(description string, port int, allowList []string) hcloud.FirewallRule {
	return hcloud.FirewallRule{
		Description: hcloud.Ptr(description),
		Direction:   hcloud.FirewallRuleDirectionIn,
		Protocol:    hcloud.FirewallRuleProtocolTCP,
		Port:        hcloud.Ptr(strconv.Itoa(port)),
		SourceIPs:   parseCIDRs(allowList),
	}
}

// parseCIDRs parses CIDR strings, skipping invalid entries. An empty
// list yields the any-source ranges.
func parseCIDRs(cidrs []string) []net.IPNet {
	if len(cidrs) == 0 {
		cidrs = []string{"0.0.0.0/0", "::/0"}
	}
	var nets []net.IPNet
	for _, cidr := range cidrs {
		_, n, err := net.ParseCIDR(cidr)
		if err == nil {
			nets = append(nets, *n)
		}
	}
	return nets
}
