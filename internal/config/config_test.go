package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validYAML = `
cluster_name: demo
hcloud_token: test-token
ssh:
  private_key_path: /home/user/.ssh/id_ed25519
server_groups:
  - name: master
    type: cpx31
    count: 1
  - name: app
    type: cpx21
    count: 2
workloads:
  - name: web
    image: registry.example.com/web:latest
    size: small
    replicas: 2
    group: app
`

func TestLoad_Valid(t *testing.T) {
	t.Parallel()

	cfg, err := Load([]byte(validYAML))
	require.NoError(t, err)

	assert.Equal(t, "demo", cfg.ClusterName)
	assert.Equal(t, "master", cfg.MasterGroup().Name)
	assert.Equal(t, "cpx31", cfg.MasterGroup().ServerType)

	group, ok := cfg.Group("app")
	require.True(t, ok)
	assert.Equal(t, 2, group.Count)

	_, ok = cfg.Group("missing")
	assert.False(t, ok)
}

func TestLoad_Defaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load([]byte(validYAML))
	require.NoError(t, err)

	assert.Equal(t, "nbg1", cfg.Location)
	assert.Equal(t, "ubuntu-24.04", cfg.Image)
	assert.Equal(t, "root", cfg.SSH.User)
	assert.Equal(t, SSHPort, cfg.SSH.Port)
	assert.Equal(t, "/home/user/.ssh/id_ed25519.pub", cfg.SSH.PublicKeyPath)
}

func TestLoad_InvalidYAML(t *testing.T) {
	t.Parallel()

	_, err := Load([]byte("cluster_name: [unclosed"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	base := func() *Config {
		cfg, err := Load([]byte(validYAML))
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "missing cluster name",
			mutate:  func(c *Config) { c.ClusterName = "" },
			wantErr: "cluster_name is required",
		},
		{
			name:    "uppercase cluster name",
			mutate:  func(c *Config) { c.ClusterName = "Demo" },
			wantErr: "DNS label",
		},
		{
			name:    "no server groups",
			mutate:  func(c *Config) { c.ServerGroups = nil },
			wantErr: "at least one server group",
		},
		{
			name:    "zero count master group",
			mutate:  func(c *Config) { c.ServerGroups[0].Count = 0 },
			wantErr: "master group",
		},
		{
			name: "duplicate group",
			mutate: func(c *Config) {
				c.ServerGroups = append(c.ServerGroups, ServerGroup{Name: "app", ServerType: "cpx21", Count: 1})
			},
			wantErr: "duplicate server group",
		},
		{
			name:    "missing server type",
			mutate:  func(c *Config) { c.ServerGroups[1].ServerType = "" },
			wantErr: "type is required",
		},
		{
			name:    "unknown workload tier",
			mutate:  func(c *Config) { c.Workloads[0].Size = "huge" },
			wantErr: "size tier",
		},
		{
			name:    "unknown workload group",
			mutate:  func(c *Config) { c.Workloads[0].Group = "nope" },
			wantErr: "unknown server group",
		},
		{
			name:    "bad firewall cidr",
			mutate:  func(c *Config) { c.Firewall.APIAllowList = []string{"not-a-cidr"} },
			wantErr: "allow list CIDR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
