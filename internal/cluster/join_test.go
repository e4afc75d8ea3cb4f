package cluster

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caravel-sh/caravel/internal/config"
	"github.com/caravel-sh/caravel/internal/provision"
)

func joinConfig() *config.Config {
	return &config.Config{
		ClusterName: "demo",
		ServerGroups: []config.ServerGroup{
			{Name: "master", ServerType: "cx32", Count: 1},
			{Name: "app", ServerType: "cx42", Count: 2},
		},
	}
}

func joinState(ctx *provision.Context, newKeys ...provision.Key) {
	ctx.State.PrimaryIP = "203.0.113.10"
	ctx.State.Servers = map[provision.Key]provision.ServerRecord{
		{Group: "master", Index: 1}: {ID: 1, PublicIP: "203.0.113.10", PrivateIP: "10.0.0.2", Group: "master"},
		{Group: "app", Index: 1}:    {ID: 2, PublicIP: "203.0.113.11", PrivateIP: "10.0.0.3", Group: "app"},
		{Group: "app", Index: 2}:    {ID: 3, PublicIP: "203.0.113.12", PrivateIP: "10.0.0.4", Group: "app"},
	}
	for _, key := range newKeys {
		ctx.State.NewKeys[key] = true
	}
}

func TestJoinWorkersJoinsNewServers(t *testing.T) {
	ssh := newFakeExecFactory()
	master := ssh.host("203.0.113.10")
	master.responses["node-token"] = "K10abcdef::server:token\n"
	worker := ssh.host("203.0.113.12")
	worker.responses["ip -o -4 addr show"] =
		"3: enp7s0    inet 10.0.0.4/32 brd 10.0.0.4 scope global dynamic enp7s0\n"

	client := newFakeClusterClient()
	client.addNode("demo-app-1", true)

	ctx := testContext(joinConfig(), ssh)
	joinState(ctx, provision.Key{Group: "app", Index: 2})

	require.NoError(t, JoinWorkers(ctx, client))

	join := worker.commandMatching("get.k3s.io")
	require.NotEmpty(t, join)
	assert.Contains(t, join, "K3S_URL=https://10.0.0.2:6443", "workers join over the private network")
	assert.Contains(t, join, "K3S_TOKEN=K10abcdef::server:token")
	assert.Contains(t, join, "--node-name demo-app-2")
	assert.Contains(t, join, "--node-ip 10.0.0.4")
	assert.Contains(t, join, "--flannel-iface enp7s0")
	assert.Equal(t, []string{"demo-app-2"}, client.waited)

	// The healthy app-1 worker was not touched.
	assert.NotContains(t, ssh.execs, "203.0.113.11")
}

func TestJoinWorkersRelabelsEveryNode(t *testing.T) {
	ssh := newFakeExecFactory()
	client := newFakeClusterClient()
	client.addNode("demo-master-1", true)
	client.addNode("demo-app-1", true)
	client.addNode("demo-app-2", true)

	ctx := testContext(joinConfig(), ssh)
	joinState(ctx)

	require.NoError(t, JoinWorkers(ctx, client))

	assert.Equal(t, "master", client.labeled["demo-master-1"]["caravel.sh/node-group"])
	assert.Equal(t, "app", client.labeled["demo-app-1"]["caravel.sh/node-group"])
	assert.Equal(t, "app", client.labeled["demo-app-2"]["caravel.sh/node-group"])
}

func TestJoinWorkersSelfHealsNotReadyNode(t *testing.T) {
	ssh := newFakeExecFactory()
	master := ssh.host("203.0.113.10")
	master.responses["node-token"] = "K10abcdef::server:token\n"
	worker := ssh.host("203.0.113.11")

	client := newFakeClusterClient()
	client.addNode("demo-app-1", false) // joined once, never became Ready
	client.addNode("demo-app-2", true)

	ctx := testContext(joinConfig(), ssh)
	joinState(ctx) // nothing is new this run

	require.NoError(t, JoinWorkers(ctx, client))

	assert.NotEmpty(t, worker.commandMatching("get.k3s.io"),
		"a NotReady node is re-joined even when its server is not new")
}

func TestJoinWorkersSkipsReadyNodes(t *testing.T) {
	ssh := newFakeExecFactory()
	client := newFakeClusterClient()
	client.addNode("demo-app-1", true)
	client.addNode("demo-app-2", true)

	ctx := testContext(joinConfig(), ssh)
	joinState(ctx)

	require.NoError(t, JoinWorkers(ctx, client))

	assert.Empty(t, client.waited, "no join, no readiness wait")
	// The token was never read: the master executor was never built.
	assert.NotContains(t, ssh.execs, "203.0.113.10")
}

func TestJoinWorkersReadsTokenOnce(t *testing.T) {
	ssh := newFakeExecFactory()
	master := ssh.host("203.0.113.10")
	master.responses["node-token"] = "K10abcdef::server:token\n"

	client := newFakeClusterClient()

	ctx := testContext(joinConfig(), ssh)
	joinState(ctx,
		provision.Key{Group: "app", Index: 1},
		provision.Key{Group: "app", Index: 2})

	require.NoError(t, JoinWorkers(ctx, client))

	tokenReads := 0
	for _, cmd := range master.commands {
		if cmd == "cat /var/lib/rancher/k3s/server/node-token" {
			tokenReads++
		}
	}
	assert.Equal(t, 1, tokenReads)
	assert.Len(t, client.waited, 2)
}

func TestJoinWorkersWarnsOnNameCollision(t *testing.T) {
	ssh := newFakeExecFactory()
	client := newFakeClusterClient()
	client.addNode("demo-app-1", true)
	client.addNode("demo-app-2", true)

	ctx := testContext(joinConfig(), ssh)
	joinState(ctx, provision.Key{Group: "app", Index: 2}) // new server, Ready node

	require.NoError(t, JoinWorkers(ctx, client))
	assert.Empty(t, client.waited, "collision is flagged, not joined over")
}
