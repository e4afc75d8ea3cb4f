// Package config defines the cluster configuration model and loading.
package config

// Config holds the full cluster configuration.
type Config struct {
	// ClusterName is the naming prefix for every cloud resource and node.
	ClusterName string `mapstructure:"cluster_name" yaml:"cluster_name"`

	// HCloudToken authorizes calls to the Hetzner Cloud API. Usually
	// injected from the HCLOUD_TOKEN environment variable rather than
	// written to the config file.
	HCloudToken string `mapstructure:"hcloud_token" yaml:"hcloud_token"`

	// Location is the Hetzner location for all servers, e.g. nbg1, fsn1.
	Location string `mapstructure:"location" yaml:"location"`

	// Image is the OS image used for new servers.
	Image string `mapstructure:"image" yaml:"image"`

	// SSH holds credentials for remote command execution on nodes.
	SSH SSHConfig `mapstructure:"ssh" yaml:"ssh"`

	// Firewall restricts who may reach the Kubernetes and SSH ports.
	Firewall FirewallConfig `mapstructure:"firewall" yaml:"firewall"`

	// ServerGroups declares the cluster topology in order. The first
	// group is the master group; its first server hosts the control
	// plane and is never removed by reconciliation.
	ServerGroups []ServerGroup `mapstructure:"server_groups" yaml:"server_groups"`

	// Workloads are the applications deployed onto the cluster, sized by
	// the resource allocator.
	Workloads []Workload `mapstructure:"workloads" yaml:"workloads"`
}

// SSHConfig defines how caravel reaches cluster nodes.
type SSHConfig struct {
	User           string `mapstructure:"user" yaml:"user"`
	PrivateKeyPath string `mapstructure:"private_key_path" yaml:"private_key_path"`
	PublicKeyPath  string `mapstructure:"public_key_path" yaml:"public_key_path"`
	Port           int    `mapstructure:"port" yaml:"port"`
}

// FirewallConfig defines firewall allow lists. Empty lists default to
// allowing all sources.
type FirewallConfig struct {
	APIAllowList []string `mapstructure:"api_allow_list" yaml:"api_allow_list"`
	SSHAllowList []string `mapstructure:"ssh_allow_list" yaml:"ssh_allow_list"`
}

// ServerGroup declares one named group of identical servers.
type ServerGroup struct {
	Name       string `mapstructure:"name" yaml:"name"`
	ServerType string `mapstructure:"type" yaml:"type"`
	Count      int    `mapstructure:"count" yaml:"count"`
}

// Workload declares one application workload for the resource allocator.
type Workload struct {
	Name     string `mapstructure:"name" yaml:"name"`
	Image    string `mapstructure:"image" yaml:"image"`
	Size     string `mapstructure:"size" yaml:"size"`
	Replicas int    `mapstructure:"replicas" yaml:"replicas"`

	// Group is the target server group. Empty means the master group.
	Group string `mapstructure:"group" yaml:"group"`
}

// MasterGroup returns the first declared server group.
func (c *Config) MasterGroup() ServerGroup {
	return c.ServerGroups[0]
}

// Group returns the server group with the given name, or false.
func (c *Config) Group(name string) (ServerGroup, bool) {
	for _, g := range c.ServerGroups {
		if g.Name == name {
			return g, true
		}
	}
	return ServerGroup{}, false
}
