// Package hcloud wraps the Hetzner Cloud API behind capability
// interfaces so callers depend on explicit contracts instead of probing
// a concrete client for what it supports.
package hcloud

import (
	"context"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"
)

// ServerCreateOpts holds all parameters for creating a server.
type ServerCreateOpts struct {
	Name       string
	ServerType string
	Image      string
	Location   string
	SSHKeyIDs  []int64
	Labels     map[string]string
	UserData   string
	FirewallID int64
	NetworkID  int64
}

// ServerProvisioner manages the lifecycle of servers.
type ServerProvisioner interface {
	// ListServers returns all servers matching the label selector.
	ListServers(ctx context.Context, selector map[string]string) ([]*hcloud.Server, error)

	// GetServerByName returns the server with the given name, or nil if
	// it does not exist.
	GetServerByName(ctx context.Context, name string) (*hcloud.Server, error)

	// CreateServer creates a server and waits for the creation action
	// to complete.
	CreateServer(ctx context.Context, opts ServerCreateOpts) (*hcloud.Server, error)

	// DeleteServer deletes the named server, blocking until the
	// provider-side action finishes. Deleting a missing server is not
	// an error.
	DeleteServer(ctx context.Context, name string) error

	// ServerTypeMemoryMB returns the memory of the given server type in
	// megabytes.
	ServerTypeMemoryMB(ctx context.Context, serverType string) (int64, error)
}

// NetworkManager manages private networks.
type NetworkManager interface {
	EnsureNetwork(ctx context.Context, name, ipRange string, labels map[string]string) (*hcloud.Network, error)
	DeleteNetwork(ctx context.Context, name string) error
}

// FirewallManager manages firewalls.
type FirewallManager interface {
	EnsureFirewall(ctx context.Context, name string, rules []hcloud.FirewallRule, labels map[string]string) (*hcloud.Firewall, error)
	DeleteFirewall(ctx context.Context, name string) error
}

// SSHKeyManager manages uploaded SSH public keys.
type SSHKeyManager interface {
	EnsureSSHKey(ctx context.Context, name, publicKey string, labels map[string]string) (*hcloud.SSHKey, error)
	DeleteSSHKey(ctx context.Context, name string) error
}

// InventoryClient combines every provider capability the reconciler and
// destroy paths need.
type InventoryClient interface {
	ServerProvisioner
	NetworkManager
	FirewallManager
	SSHKeyManager

	// CleanupByLabel deletes all cluster resources matching the label
	// selector: servers first (those in lastGroup after the rest), then
	// firewalls, networks and SSH keys.
	CleanupByLabel(ctx context.Context, selector map[string]string, lastGroup string) error
}
