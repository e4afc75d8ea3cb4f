package provision

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	hcloudinternal "github.com/caravel-sh/caravel/internal/platform/hcloud"
	"github.com/caravel-sh/caravel/internal/platform/sshexec"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"
)

// fakeInfra implements hcloudinternal.InventoryClient in memory.
type fakeInfra struct {
	servers map[string]*hcloud.Server
	nextID  int64

	created []string // server names in creation order
	deleted []string // server names in deletion order

	listErr   error
	createErr map[string]error
}

func newFakeInfra() *fakeInfra {
	return &fakeInfra{
		servers:   make(map[string]*hcloud.Server),
		nextID:    100,
		createErr: make(map[string]error),
	}
}

// addServer seeds a pre-existing server, as if from a previous run.
func (f *fakeInfra) addServer(name, serverType, publicIP string) {
	f.nextID++
	f.servers[name] = &hcloud.Server{
		ID:         f.nextID,
		Name:       name,
		ServerType: &hcloud.ServerType{Name: serverType},
		PublicNet: hcloud.ServerPublicNet{
			IPv4: hcloud.ServerPublicNetIPv4{IP: net.ParseIP(publicIP)},
		},
	}
}

func (f *fakeInfra) ListServers(_ context.Context, _ map[string]string) ([]*hcloud.Server, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []*hcloud.Server
	for _, s := range f.servers {
		out = append(out, s)
	}
	return out, nil
}

func (f *fakeInfra) GetServerByName(_ context.Context, name string) (*hcloud.Server, error) {
	return f.servers[name], nil
}

func (f *fakeInfra) CreateServer(_ context.Context, opts hcloudinternal.ServerCreateOpts) (*hcloud.Server, error) {
	if err := f.createErr[opts.Name]; err != nil {
		return nil, err
	}
	f.nextID++
	server := &hcloud.Server{
		ID:         f.nextID,
		Name:       opts.Name,
		ServerType: &hcloud.ServerType{Name: opts.ServerType},
		PublicNet: hcloud.ServerPublicNet{
			IPv4: hcloud.ServerPublicNetIPv4{IP: net.ParseIP(fmt.Sprintf("192.0.2.%d", f.nextID-100))},
		},
	}
	f.servers[opts.Name] = server
	f.created = append(f.created, opts.Name)
	return server, nil
}

func (f *fakeInfra) DeleteServer(_ context.Context, name string) error {
	delete(f.servers, name)
	f.deleted = append(f.deleted, name)
	return nil
}

func (f *fakeInfra) ServerTypeMemoryMB(_ context.Context, serverType string) (int64, error) {
	return 4096, nil
}

func (f *fakeInfra) EnsureNetwork(_ context.Context, name, ipRange string, _ map[string]string) (*hcloud.Network, error) {
	_, cidr, _ := net.ParseCIDR(ipRange)
	return &hcloud.Network{ID: 1, Name: name, IPRange: cidr}, nil
}

func (f *fakeInfra) DeleteNetwork(_ context.Context, _ string) error { return nil }

func (f *fakeInfra) EnsureFirewall(_ context.Context, name string, _ []hcloud.FirewallRule, _ map[string]string) (*hcloud.Firewall, error) {
	return &hcloud.Firewall{ID: 2, Name: name}, nil
}

func (f *fakeInfra) DeleteFirewall(_ context.Context, _ string) error { return nil }

func (f *fakeInfra) EnsureSSHKey(_ context.Context, name, _ string, _ map[string]string) (*hcloud.SSHKey, error) {
	return &hcloud.SSHKey{ID: 3, Name: name}, nil
}

func (f *fakeInfra) DeleteSSHKey(_ context.Context, _ string) error { return nil }

func (f *fakeInfra) CleanupByLabel(_ context.Context, _ map[string]string, _ string) error {
	return nil
}

// fakeExecutor implements sshexec.Executor with canned responses.
type fakeExecutor struct {
	host      string
	responses map[string]string // command substring -> output
	commands  []string
	waitReady int
	readyErr  error
	execErr   error
	files     map[string]string
}

func (e *fakeExecutor) Execute(_ context.Context, command string) (string, error) {
	e.commands = append(e.commands, command)
	if e.execErr != nil {
		return "", e.execErr
	}
	for substr, out := range e.responses {
		if substr != "" && strings.Contains(command, substr) {
			return out, nil
		}
	}
	return "", nil
}

func (e *fakeExecutor) ExecuteWithRetry(ctx context.Context, command string, _ int, _ time.Duration) (string, error) {
	return e.Execute(ctx, command)
}

func (e *fakeExecutor) WriteFile(_ context.Context, path, content, _ string) error {
	if e.files == nil {
		e.files = make(map[string]string)
	}
	e.files[path] = content
	return nil
}

func (e *fakeExecutor) WaitReady(_ context.Context, _ int, _ time.Duration) error {
	e.waitReady++
	return e.readyErr
}

func (e *fakeExecutor) WaitCloudInit(_ context.Context, _ int, _ time.Duration) error {
	return nil
}

// fakeExecFactory hands out one fakeExecutor per host.
type fakeExecFactory struct {
	execs map[string]*fakeExecutor
}

func newFakeExecFactory() *fakeExecFactory {
	return &fakeExecFactory{execs: make(map[string]*fakeExecutor)}
}

func (f *fakeExecFactory) For(host string) (sshexec.Executor, error) {
	if e, ok := f.execs[host]; ok {
		return e, nil
	}
	e := &fakeExecutor{host: host, responses: make(map[string]string)}
	f.execs[host] = e
	return e, nil
}

// nopObserver drops all events; keeps test output quiet.
type nopObserver struct{}

func (nopObserver) Event(Event)                              {}
func (nopObserver) Progress(string, int, int)                {}
func (nopObserver) WithFields(map[string]string) Observer    { return nopObserver{} }
