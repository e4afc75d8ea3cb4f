package provision

import "github.com/caravel-sh/caravel/internal/config"

// DesiredState is the expanded server topology: one key per requested
// server, in configuration declaration order. The first key is always
// the control-plane host.
type DesiredState struct {
	Keys   []Key
	Groups map[Key]config.ServerGroup
}

// Desired expands the configured server groups into keys. Group order
// and index order are preserved so create operations run in a
// predictable sequence.
func Desired(groups []config.ServerGroup) DesiredState {
	ds := DesiredState{Groups: make(map[Key]config.ServerGroup)}
	for _, group := range groups {
		for i := 1; i <= group.Count; i++ {
			key := Key{Group: group.Name, Index: i}
			ds.Keys = append(ds.Keys, key)
			ds.Groups[key] = group
		}
	}
	return ds
}

// MasterKey returns the key of the control-plane host, always the first
// server of the first configured group.
func (ds DesiredState) MasterKey() Key {
	return ds.Keys[0]
}

// Contains reports whether the topology includes the given key.
func (ds DesiredState) Contains(key Key) bool {
	_, ok := ds.Groups[key]
	return ok
}
