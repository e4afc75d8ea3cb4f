package provision

import (
	"context"
	"fmt"

	hcloudinternal "github.com/caravel-sh/caravel/internal/platform/hcloud"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"
)

// DiscoverExisting lists provider servers and maps the ones belonging to
// the cluster by parsing their names. Servers outside the cluster's
// naming scheme are ignored; the cloud server list is the source of
// truth, no local state is consulted.
func DiscoverExisting(ctx context.Context, infra hcloudinternal.ServerProvisioner, cluster string) (map[Key]ServerRecord, error) {
	servers, err := infra.ListServers(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list servers: %w", err)
	}

	existing := make(map[Key]ServerRecord)
	for _, server := range servers {
		key, ok := ParseServerName(cluster, server.Name)
		if !ok {
			continue
		}
		existing[key] = recordFromServer(key, server)
	}
	return existing, nil
}

func recordFromServer(key Key, server *hcloud.Server) ServerRecord {
	rec := ServerRecord{
		ID:    server.ID,
		Group: key.Group,
	}
	if server.ServerType != nil {
		rec.ServerType = server.ServerType.Name
	}
	if server.PublicNet.IPv4.IP != nil {
		rec.PublicIP = server.PublicNet.IPv4.IP.String()
	}
	if len(server.PrivateNet) > 0 && server.PrivateNet[0].IP != nil {
		rec.PrivateIP = server.PrivateNet[0].IP.String()
	}
	return rec
}
