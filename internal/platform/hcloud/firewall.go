package hcloud

import (
	"context"
	"fmt"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"
)

// EnsureFirewall ensures a firewall with the given rules exists. Rules on
// an existing firewall are reset to the desired set so allow-list changes
// in configuration take effect on the next run.
func (c *RealClient) EnsureFirewall(ctx context.Context, name string, rules []hcloud.FirewallRule, labels map[string]string) (*hcloud.Firewall, error) {
	fw, _, err := c.client.Firewall.Get(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to get firewall %s: %w", name, err)
	}
	if fw != nil {
		actions, _, err := c.client.Firewall.SetRules(ctx, fw, hcloud.FirewallSetRulesOpts{Rules: rules})
		if err != nil {
			return nil, fmt.Errorf("failed to update firewall %s rules: %w", name, err)
		}
		if err := c.client.Action.WaitFor(ctx, actions...); err != nil {
			return nil, fmt.Errorf("failed to update firewall %s rules: %w", name, err)
		}
		return fw, nil
	}

	result, _, err := c.client.Firewall.Create(ctx, hcloud.FirewallCreateOpts{
		Name:   name,
		Rules:  rules,
		Labels: labels,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create firewall %s: %w", name, err)
	}
	if err := c.client.Action.WaitFor(ctx, result.Actions...); err != nil {
		return nil, fmt.Errorf("failed to create firewall %s: %w", name, err)
	}
	return result.Firewall, nil
}

// DeleteFirewall deletes the firewall with the given name.
func (c *RealClient) DeleteFirewall(ctx context.Context, name string) error {
	return (&deleteOperation[*hcloud.Firewall]{
		Name:         name,
		ResourceType: "firewall",
		Get:          c.client.Firewall.Get,
		Delete:       c.client.Firewall.Delete,
	}).Execute(ctx, c)
}
