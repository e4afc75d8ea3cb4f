package provision

import (
	"fmt"
	"sort"

	hcloudinternal "github.com/caravel-sh/caravel/internal/platform/hcloud"
	"github.com/caravel-sh/caravel/internal/util/labels"
)

const reconcilePhase = "reconcile"

// Result is the outcome of one reconcile pass.
type Result struct {
	// Servers maps every desired key to its live server, newly created
	// or rediscovered.
	Servers map[Key]ServerRecord

	// NewKeys marks the keys whose servers were created this run.
	NewKeys map[Key]bool

	// RemovalNames lists the server names to delete, highest index
	// first within each group. Deletion is deferred: retired servers
	// stay up until the cluster has been updated around them.
	RemovalNames []string
}

// Reconcile diffs the configured topology against live cloud inventory.
// Missing servers are created in declaration order and waited on until
// reachable; surplus servers are collected into an ordered removal list
// but not deleted. The control-plane host is protected: its server type
// cannot change in place and it is never scheduled for removal.
func Reconcile(ctx *Context) (*Result, error) {
	LogPhaseStart(ctx.Observer, reconcilePhase)

	desired := Desired(ctx.Config.ServerGroups)
	existing, err := DiscoverExisting(ctx, ctx.Infra, ctx.Config.ClusterName)
	if err != nil {
		return nil, err
	}

	master := desired.MasterKey()
	if rec, ok := existing[master]; ok {
		want := desired.Groups[master].ServerType
		if rec.ServerType != "" && rec.ServerType != want {
			return nil, fmt.Errorf(
				"control-plane server %s has type %s, config wants %s: in-place type changes are not supported",
				master.ServerName(ctx.Config.ClusterName), rec.ServerType, want)
		}
	}

	result := &Result{
		Servers: make(map[Key]ServerRecord),
		NewKeys: make(map[Key]bool),
	}

	var toCreate []Key
	for _, key := range desired.Keys {
		if rec, ok := existing[key]; ok {
			result.Servers[key] = rec
			continue
		}
		toCreate = append(toCreate, key)
	}

	var toRemove []Key
	for key := range existing {
		if desired.Contains(key) {
			continue
		}
		if key == master {
			return nil, fmt.Errorf("refusing to remove control-plane server %s",
				master.ServerName(ctx.Config.ClusterName))
		}
		toRemove = append(toRemove, key)
	}
	result.RemovalNames = renderRemovalNames(ctx.Config.ClusterName, toRemove)

	for _, key := range toCreate {
		rec, err := createServer(ctx, desired, key)
		if err != nil {
			return nil, err
		}
		result.Servers[key] = rec
		result.NewKeys[key] = true
	}

	// Only servers created this run need the reachability wait; kept
	// servers already answered for themselves in a previous run.
	for _, key := range desired.Keys {
		if !result.NewKeys[key] {
			continue
		}
		if err := waitReachable(ctx, key, result.Servers[key]); err != nil {
			return nil, err
		}
	}

	primary := result.Servers[master]
	ctx.State.Servers = result.Servers
	ctx.State.NewKeys = result.NewKeys
	ctx.State.RemovalNames = result.RemovalNames
	ctx.State.PrimaryID = primary.ID
	ctx.State.PrimaryIP = primary.PublicIP

	return result, nil
}

// renderRemovalNames orders retired keys so higher indexes within a
// group are deleted first, then renders the provider server names.
// The index is compared numerically, so demo-app-10 retires before
// demo-app-9. Order across groups is not significant.
func renderRemovalNames(cluster string, keys []Key) []string {
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Group != keys[j].Group {
			return keys[i].Group < keys[j].Group
		}
		return keys[i].Index < keys[j].Index
	})
	names := make([]string, 0, len(keys))
	for i := len(keys) - 1; i >= 0; i-- {
		names = append(names, keys[i].ServerName(cluster))
	}
	return names
}

func createServer(ctx *Context, desired DesiredState, key Key) (ServerRecord, error) {
	group := desired.Groups[key]
	name := key.ServerName(ctx.Config.ClusterName)
	LogResourceCreating(ctx.Observer, reconcilePhase, "server", name)

	opts := hcloudinternal.ServerCreateOpts{
		Name:       name,
		ServerType: group.ServerType,
		Image:      ctx.Config.Image,
		Location:   ctx.Config.Location,
		Labels:     labels.NewBuilder(ctx.Config.ClusterName).WithGroup(group.Name).Build(),
		UserData:   cloudInitUserData,
	}
	if ctx.State.SSHKeyID != 0 {
		opts.SSHKeyIDs = []int64{ctx.State.SSHKeyID}
	}
	if ctx.State.Firewall != nil {
		opts.FirewallID = ctx.State.Firewall.ID
	}
	if ctx.State.Network != nil {
		opts.NetworkID = ctx.State.Network.ID
	}

	server, err := ctx.Infra.CreateServer(ctx, opts)
	if err != nil {
		return ServerRecord{}, fmt.Errorf("failed to create server %s: %w", name, err)
	}

	rec := recordFromServer(key, server)
	LogResourceCreated(ctx.Observer, reconcilePhase, "server", name, fmt.Sprintf("%d", rec.ID))
	return rec, nil
}

func waitReachable(ctx *Context, key Key, rec ServerRecord) error {
	name := key.ServerName(ctx.Config.ClusterName)
	exec, err := ctx.SSH.For(rec.PublicIP)
	if err != nil {
		return fmt.Errorf("failed to build executor for %s: %w", name, err)
	}
	if err := exec.WaitReady(ctx, ctx.Timeouts.ReachableAttempts, ctx.Timeouts.ReachableInterval); err != nil {
		return fmt.Errorf("server %s never became reachable: %w", name, err)
	}
	return nil
}
