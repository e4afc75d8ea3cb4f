package cluster

import (
	"context"
	"net"
	"strings"

	"github.com/caravel-sh/caravel/internal/config"
	"github.com/caravel-sh/caravel/internal/platform/sshexec"
)

// NetworkInfo is what a node discovered about its own networking.
type NetworkInfo struct {
	// Interface carries the private network address, used to bind the
	// overlay network.
	Interface string

	// PrivateIP is the node's RFC1918 address on the cluster network.
	PrivateIP string

	// PublicIP is the address the node is reached at from outside.
	PublicIP string
}

// virtualInterfacePrefixes name interfaces that never carry the cluster
// network: overlay and bridge devices that show up once k3s or docker is
// running on the host.
var virtualInterfacePrefixes = []string{"cni", "flannel", "docker", "veth", "br-", "lo"}

func isVirtualInterface(name string) bool {
	for _, prefix := range virtualInterfacePrefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

// DiscoverNetwork inspects the host's interfaces and picks the private
// cluster address, skipping overlay and bridge devices so that re-runs
// against an already-bootstrapped node do not mistake a CNI address for
// the cluster network. When no private address exists the node falls
// back to its public IP on the default interface; a single-node cluster
// without a private network still works that way.
func DiscoverNetwork(ctx context.Context, exec sshexec.Executor, publicIP string) (NetworkInfo, error) {
	info := NetworkInfo{
		Interface: config.FallbackInterface,
		PrivateIP: publicIP,
		PublicIP:  publicIP,
	}

	out, err := exec.Execute(ctx, "ip -o -4 addr show scope global")
	if err != nil {
		return info, nil
	}

	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		// "2: enp7s0 inet 10.0.0.3/32 brd ..." per -o line format.
		if len(fields) < 4 || fields[2] != "inet" {
			continue
		}
		if isVirtualInterface(fields[1]) {
			continue
		}
		ip, _, err := net.ParseCIDR(fields[3])
		if err != nil {
			continue
		}
		if ip.IsPrivate() {
			info.Interface = fields[1]
			info.PrivateIP = ip.String()
			return info, nil
		}
	}
	return info, nil
}
