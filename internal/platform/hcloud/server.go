package hcloud

import (
	"context"
	"fmt"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"

	"github.com/caravel-sh/caravel/internal/util/retry"
)

// ListServers returns all servers matching the label selector.
func (c *RealClient) ListServers(ctx context.Context, selector map[string]string) ([]*hcloud.Server, error) {
	servers, err := c.client.Server.AllWithOpts(ctx, hcloud.ServerListOpts{
		ListOpts: hcloud.ListOpts{LabelSelector: renderSelector(selector)},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list servers: %w", err)
	}
	return servers, nil
}

// GetServerByName returns the server with the given name, or nil.
func (c *RealClient) GetServerByName(ctx context.Context, name string) (*hcloud.Server, error) {
	server, _, err := c.client.Server.GetByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to get server %s: %w", name, err)
	}
	return server, nil
}

// CreateServer creates a server and waits for the creation action and all
// attachment actions to complete.
func (c *RealClient) CreateServer(ctx context.Context, opts ServerCreateOpts) (*hcloud.Server, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeouts.ServerCreate)
	defer cancel()

	createOpts, err := c.buildServerCreateOpts(ctx, opts)
	if err != nil {
		return nil, err
	}

	var result hcloud.ServerCreateResult
	err = retry.Do(ctx, func() error {
		res, _, err := c.client.Server.Create(ctx, createOpts)
		if err != nil {
			if isInvalidParameter(err) {
				return retry.Fatal(err)
			}
			return err
		}
		result = res
		return nil
	},
		retry.WithMaxRetries(c.timeouts.RetryMaxAttempts),
		retry.WithInitialDelay(c.timeouts.RetryInitialDelay))
	if err != nil {
		return nil, fmt.Errorf("failed to create server %s: %w", opts.Name, err)
	}

	actions := append([]*hcloud.Action{result.Action}, result.NextActions...)
	if err := c.client.Action.WaitFor(ctx, actions...); err != nil {
		return nil, fmt.Errorf("failed to wait for server %s creation: %w", opts.Name, err)
	}

	// Re-fetch so private network addresses assigned by next actions are
	// visible on the returned record.
	server, _, err := c.client.Server.GetByID(ctx, result.Server.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to refresh server %s: %w", opts.Name, err)
	}
	if server == nil {
		return result.Server, nil
	}
	return server, nil
}

func (c *RealClient) buildServerCreateOpts(ctx context.Context, opts ServerCreateOpts) (hcloud.ServerCreateOpts, error) {
	serverType, _, err := c.client.ServerType.Get(ctx, opts.ServerType)
	if err != nil {
		return hcloud.ServerCreateOpts{}, fmt.Errorf("failed to get server type: %w", err)
	}
	if serverType == nil {
		return hcloud.ServerCreateOpts{}, fmt.Errorf("server type not found: %s", opts.ServerType)
	}

	image, err := c.resolveImage(ctx, opts.Image, serverType.Architecture)
	if err != nil {
		return hcloud.ServerCreateOpts{}, err
	}

	location, _, err := c.client.Location.Get(ctx, opts.Location)
	if err != nil {
		return hcloud.ServerCreateOpts{}, fmt.Errorf("failed to get location: %w", err)
	}

	sshKeys := make([]*hcloud.SSHKey, 0, len(opts.SSHKeyIDs))
	for _, id := range opts.SSHKeyIDs {
		sshKeys = append(sshKeys, &hcloud.SSHKey{ID: id})
	}

	createOpts := hcloud.ServerCreateOpts{
		Name:             opts.Name,
		ServerType:       serverType,
		Image:            image,
		Location:         location,
		SSHKeys:          sshKeys,
		Labels:           opts.Labels,
		UserData:         opts.UserData,
		StartAfterCreate: hcloud.Ptr(true),
	}
	if opts.FirewallID != 0 {
		createOpts.Firewalls = []*hcloud.ServerCreateFirewall{
			{Firewall: hcloud.Firewall{ID: opts.FirewallID}},
		}
	}
	if opts.NetworkID != 0 {
		createOpts.Networks = []*hcloud.Network{{ID: opts.NetworkID}}
	}
	return createOpts, nil
}

// resolveImage resolves an image by name for the given architecture.
func (c *RealClient) resolveImage(ctx context.Context, name string, arch hcloud.Architecture) (*hcloud.Image, error) {
	image, _, err := c.client.Image.Get(ctx, name) //nolint:staticcheck
	if err != nil {
		return nil, fmt.Errorf("failed to get image: %w", err)
	}
	if image != nil && image.Architecture != arch {
		images, _, err := c.client.Image.List(ctx, hcloud.ImageListOpts{
			Name:         name,
			Architecture: []hcloud.Architecture{arch},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list images: %w", err)
		}
		if len(images) > 0 {
			image = images[0]
		}
	}
	if image == nil {
		return nil, fmt.Errorf("image not found: %s", name)
	}
	return image, nil
}

// DeleteServer deletes the named server and blocks until the provider
// reports the delete action finished. Missing servers are not an error.
func (c *RealClient) DeleteServer(ctx context.Context, name string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeouts.Delete)
	defer cancel()

	server, _, err := c.client.Server.GetByName(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to get server %s: %w", name, err)
	}
	if server == nil {
		return nil
	}

	result, _, err := c.client.Server.DeleteWithResult(ctx, server)
	if err != nil {
		return fmt.Errorf("failed to delete server %s: %w", name, err)
	}
	if err := c.client.Action.WaitFor(ctx, result.Action); err != nil {
		return fmt.Errorf("failed to wait for server %s deletion: %w", name, err)
	}
	return nil
}

// ServerTypeMemoryMB returns the memory of a server type in megabytes.
func (c *RealClient) ServerTypeMemoryMB(ctx context.Context, serverType string) (int64, error) {
	st, _, err := c.client.ServerType.Get(ctx, serverType)
	if err != nil {
		return 0, fmt.Errorf("failed to get server type %s: %w", serverType, err)
	}
	if st == nil {
		return 0, fmt.Errorf("server type not found: %s", serverType)
	}
	return int64(st.Memory * 1024), nil
}

func renderSelector(selector map[string]string) string {
	out := ""
	for k, v := range selector {
		if out != "" {
			out += ","
		}
		out += k + "=" + v
	}
	return out
}
