package hcloud

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"

	"github.com/caravel-sh/caravel/internal/util/labels"
)

// CleanupByLabel deletes all cluster resources matching the label
// selector. Servers go first so networks and firewalls are free of
// attachments, with servers in lastGroup deleted after all others;
// every resource type is attempted even when earlier deletions fail,
// and all errors are reported together.
func (c *RealClient) CleanupByLabel(ctx context.Context, selector map[string]string, lastGroup string) error {
	selectorString := renderSelector(selector)
	listOpts := hcloud.ListOpts{LabelSelector: selectorString}

	var errs []error

	servers, err := c.client.Server.AllWithOpts(ctx, hcloud.ServerListOpts{ListOpts: listOpts})
	if err != nil {
		errs = append(errs, fmt.Errorf("failed to list servers: %w", err))
	}
	var deferred []*hcloud.Server
	for _, s := range servers {
		if lastGroup != "" && s.Labels[labels.KeyGroup] == lastGroup {
			deferred = append(deferred, s)
			continue
		}
		log.Printf("[cleanup] deleting server %s (id %d)", s.Name, s.ID)
		if err := c.DeleteServer(ctx, s.Name); err != nil {
			errs = append(errs, fmt.Errorf("server %q: %w", s.Name, err))
		}
	}
	for _, s := range deferred {
		log.Printf("[cleanup] deleting server %s (id %d)", s.Name, s.ID)
		if err := c.DeleteServer(ctx, s.Name); err != nil {
			errs = append(errs, fmt.Errorf("server %q: %w", s.Name, err))
		}
	}

	firewalls, err := c.client.Firewall.AllWithOpts(ctx, hcloud.FirewallListOpts{ListOpts: listOpts})
	if err != nil {
		errs = append(errs, fmt.Errorf("failed to list firewalls: %w", err))
	}
	for _, fw := range firewalls {
		log.Printf("[cleanup] deleting firewall %s (id %d)", fw.Name, fw.ID)
		if err := c.DeleteFirewall(ctx, fw.Name); err != nil {
			errs = append(errs, fmt.Errorf("firewall %q: %w", fw.Name, err))
		}
	}

	networks, err := c.client.Network.AllWithOpts(ctx, hcloud.NetworkListOpts{ListOpts: listOpts})
	if err != nil {
		errs = append(errs, fmt.Errorf("failed to list networks: %w", err))
	}
	for _, n := range networks {
		log.Printf("[cleanup] deleting network %s (id %d)", n.Name, n.ID)
		if err := c.DeleteNetwork(ctx, n.Name); err != nil {
			errs = append(errs, fmt.Errorf("network %q: %w", n.Name, err))
		}
	}

	keys, err := c.client.SSHKey.AllWithOpts(ctx, hcloud.SSHKeyListOpts{ListOpts: listOpts})
	if err != nil {
		errs = append(errs, fmt.Errorf("failed to list ssh keys: %w", err))
	}
	for _, k := range keys {
		log.Printf("[cleanup] deleting ssh key %s (id %d)", k.Name, k.ID)
		if err := c.DeleteSSHKey(ctx, k.Name); err != nil {
			errs = append(errs, fmt.Errorf("ssh key %q: %w", k.Name, err))
		}
	}

	return errors.Join(errs...)
}
