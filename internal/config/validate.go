package config

import (
	"fmt"
	"net"
	"regexp"

	"github.com/caravel-sh/caravel/internal/alloc"
)

// dnsLabel matches names that are safe to embed in server and node names.
var dnsLabel = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?$`)

// Validate checks the configuration for errors that would otherwise
// surface mid-run. It performs no I/O.
func (c *Config) Validate() error {
	if c.ClusterName == "" {
		return fmt.Errorf("cluster_name is required")
	}
	if !dnsLabel.MatchString(c.ClusterName) {
		return fmt.Errorf("cluster_name %q must be a lowercase DNS label", c.ClusterName)
	}
	if c.HCloudToken == "" {
		return fmt.Errorf("hcloud_token is required (set HCLOUD_TOKEN)")
	}
	if c.SSH.PrivateKeyPath == "" {
		return fmt.Errorf("ssh.private_key_path is required")
	}

	if err := c.validateGroups(); err != nil {
		return err
	}
	if err := c.validateWorkloads(); err != nil {
		return err
	}
	return c.validateFirewall()
}

func (c *Config) validateGroups() error {
	if len(c.ServerGroups) == 0 {
		return fmt.Errorf("at least one server group is required; the first group hosts the control plane")
	}

	seen := make(map[string]bool)
	for _, g := range c.ServerGroups {
		if !dnsLabel.MatchString(g.Name) {
			return fmt.Errorf("server group name %q must be a lowercase DNS label", g.Name)
		}
		if seen[g.Name] {
			return fmt.Errorf("duplicate server group %q", g.Name)
		}
		seen[g.Name] = true
		if g.ServerType == "" {
			return fmt.Errorf("server group %q: type is required", g.Name)
		}
		if g.Count < 0 {
			return fmt.Errorf("server group %q: count must not be negative", g.Name)
		}
	}

	if c.ServerGroups[0].Count < 1 {
		return fmt.Errorf("master group %q must have count >= 1", c.ServerGroups[0].Name)
	}
	return nil
}

func (c *Config) validateWorkloads() error {
	seen := make(map[string]bool)
	for _, w := range c.Workloads {
		if !dnsLabel.MatchString(w.Name) {
			return fmt.Errorf("workload name %q must be a lowercase DNS label", w.Name)
		}
		if seen[w.Name] {
			return fmt.Errorf("duplicate workload %q", w.Name)
		}
		seen[w.Name] = true
		if _, err := alloc.ParseTier(w.Size); err != nil {
			return fmt.Errorf("workload %q: %w", w.Name, err)
		}
		if w.Replicas < 1 {
			return fmt.Errorf("workload %q: replicas must be >= 1", w.Name)
		}
		if w.Group != "" {
			if _, ok := c.Group(w.Group); !ok {
				return fmt.Errorf("workload %q targets unknown server group %q", w.Name, w.Group)
			}
		}
	}
	return nil
}

func (c *Config) validateFirewall() error {
	for _, list := range [][]string{c.Firewall.APIAllowList, c.Firewall.SSHAllowList} {
		for _, cidr := range list {
			if _, _, err := net.ParseCIDR(cidr); err != nil {
				return fmt.Errorf("invalid firewall allow list CIDR %q: %w", cidr, err)
			}
		}
	}
	return nil
}
