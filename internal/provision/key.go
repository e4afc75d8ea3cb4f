// Package provision implements the infrastructure reconciliation engine:
// it diffs the configured topology against live cloud inventory, creates
// missing servers, computes an ordered removal list and guards the
// control-plane host against deletion.
package provision

import (
	"fmt"

	"github.com/caravel-sh/caravel/internal/util/naming"
)

// Key identifies one desired server: its group and 1-based index within
// the group. Keys are the stable identity servers keep across runs; the
// provider-side server name and the cluster node name both derive from
// the key.
type Key struct {
	Group string
	Index int
}

// String renders the key in its canonical "<group>-<index>" form.
func (k Key) String() string {
	return fmt.Sprintf("%s-%d", k.Group, k.Index)
}

// ServerName renders the fully-qualified provider server name.
func (k Key) ServerName(cluster string) string {
	return naming.Server(cluster, k.Group, k.Index)
}

// ParseServerName parses a provider server name into a Key. Names
// outside the cluster's naming scheme return ok=false and are ignored by
// discovery.
func ParseServerName(cluster, name string) (Key, bool) {
	group, index, ok := naming.SplitServer(cluster, name)
	if !ok {
		return Key{}, false
	}
	return Key{Group: group, Index: index}, true
}

// ServerRecord describes one live or newly created server.
type ServerRecord struct {
	ID         int64
	PublicIP   string
	PrivateIP  string // empty until discovered on the host
	Group      string
	ServerType string // populated when rediscovered from the provider
}
