// Package naming renders and parses the names of cluster resources.
//
// All Hetzner Cloud resources follow consistent naming patterns so that
// live inventory can be mapped back onto the configured topology.
package naming

import (
	"fmt"
	"regexp"
	"strconv"
)

// serverPattern captures the "<group>-<index>" suffix of a server name.
// Group names are DNS-label-like; the index is the trailing number.
var serverPattern = regexp.MustCompile(`^([a-z0-9][a-z0-9-]*)-([1-9][0-9]*)$`)

func Network(cluster string) string {
	return cluster
}

func Firewall(cluster string) string {
	return cluster
}

// Server returns the provider-side name for the node at the given
// group and 1-based index, e.g. "mycluster-app-2".
func Server(cluster, group string, index int) string {
	return fmt.Sprintf("%s-%s-%d", cluster, group, index)
}

// SplitServer parses a provider server name back into its group and index.
// Returns ok=false for names outside the cluster's naming scheme; such
// servers are not managed by the reconciler and must be left alone.
func SplitServer(cluster, name string) (group string, index int, ok bool) {
	prefix := cluster + "-"
	if len(name) <= len(prefix) || name[:len(prefix)] != prefix {
		return "", 0, false
	}
	m := serverPattern.FindStringSubmatch(name[len(prefix):])
	if m == nil {
		return "", 0, false
	}
	index, err := strconv.Atoi(m[2])
	if err != nil {
		return "", 0, false
	}
	return m[1], index, true
}
