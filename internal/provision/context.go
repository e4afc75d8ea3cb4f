package provision

import (
	"context"

	"github.com/caravel-sh/caravel/internal/config"
	hcloudinternal "github.com/caravel-sh/caravel/internal/platform/hcloud"
	"github.com/caravel-sh/caravel/internal/platform/sshexec"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"
)

// State holds the shared results of provisioning phases. It is
// progressively populated as each phase completes and is passed to
// subsequent phases that need earlier results.
type State struct {
	// Infrastructure results.
	Network  *hcloud.Network
	Firewall *hcloud.Firewall
	SSHKeyID int64

	// Reconcile results.
	Servers      map[Key]ServerRecord
	NewKeys      map[Key]bool
	RemovalNames []string
	PrimaryID    int64  // control-plane server ID
	PrimaryIP    string // control-plane public IPv4

	// Cluster results.
	Kubeconfig []byte
}

// NewState creates an empty provisioning state.
func NewState() *State {
	return &State{
		Servers: make(map[Key]ServerRecord),
		NewKeys: make(map[Key]bool),
	}
}

// Context wraps all dependencies and state needed by a provisioning
// phase.
type Context struct {
	context.Context
	Config   *config.Config
	State    *State
	Infra    hcloudinternal.InventoryClient
	SSH      sshexec.ExecutorFactory
	Observer Observer
	Timeouts *config.Timeouts
}

// NewContext creates a provisioning context with a console observer and
// environment-derived timeouts.
func NewContext(
	ctx context.Context,
	cfg *config.Config,
	infra hcloudinternal.InventoryClient,
	ssh sshexec.ExecutorFactory,
) *Context {
	return &Context{
		Context:  ctx,
		Config:   cfg,
		State:    NewState(),
		Infra:    infra,
		SSH:      ssh,
		Observer: NewConsoleObserver(),
		Timeouts: config.LoadTimeouts(),
	}
}
