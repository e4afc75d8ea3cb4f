package cluster

import (
	"context"
	"strings"
	"time"

	corev1 "k8s.io/api/core/v1"

	"github.com/caravel-sh/caravel/internal/config"
	"github.com/caravel-sh/caravel/internal/platform/sshexec"
	"github.com/caravel-sh/caravel/internal/provision"
)

// fakeExecutor implements sshexec.Executor with substring-keyed canned
// responses.
type fakeExecutor struct {
	responses map[string]string
	commands  []string
	files     map[string]string
	execErr   error
}

func newFakeExecutor() *fakeExecutor {
	return &fakeExecutor{
		responses: make(map[string]string),
		files:     make(map[string]string),
	}
}

func (e *fakeExecutor) Execute(_ context.Context, command string) (string, error) {
	e.commands = append(e.commands, command)
	if e.execErr != nil {
		return "", e.execErr
	}
	for substr, out := range e.responses {
		if strings.Contains(command, substr) {
			return out, nil
		}
	}
	return "", nil
}

func (e *fakeExecutor) ExecuteWithRetry(ctx context.Context, command string, _ int, _ time.Duration) (string, error) {
	return e.Execute(ctx, command)
}

func (e *fakeExecutor) WriteFile(_ context.Context, path, content, _ string) error {
	e.files[path] = content
	return nil
}

func (e *fakeExecutor) WaitReady(_ context.Context, _ int, _ time.Duration) error { return nil }

func (e *fakeExecutor) WaitCloudInit(_ context.Context, _ int, _ time.Duration) error { return nil }

// commandMatching returns the first executed command containing substr.
func (e *fakeExecutor) commandMatching(substr string) string {
	for _, cmd := range e.commands {
		if strings.Contains(cmd, substr) {
			return cmd
		}
	}
	return ""
}

type fakeExecFactory struct {
	execs map[string]*fakeExecutor
}

func newFakeExecFactory() *fakeExecFactory {
	return &fakeExecFactory{execs: make(map[string]*fakeExecutor)}
}

func (f *fakeExecFactory) host(host string) *fakeExecutor {
	if e, ok := f.execs[host]; ok {
		return e
	}
	e := newFakeExecutor()
	f.execs[host] = e
	return e
}

func (f *fakeExecFactory) For(host string) (sshexec.Executor, error) {
	return f.host(host), nil
}

// fakeClusterClient implements ClusterClient in memory.
type fakeClusterClient struct {
	nodes   map[string]*corev1.Node
	applied []string
	labeled map[string]map[string]string
	waited  []string
	patched map[string]map[int32]int32
}

func newFakeClusterClient() *fakeClusterClient {
	return &fakeClusterClient{
		nodes:   make(map[string]*corev1.Node),
		labeled: make(map[string]map[string]string),
		patched: make(map[string]map[int32]int32),
	}
}

func (c *fakeClusterClient) addNode(name string, ready bool) {
	status := corev1.ConditionFalse
	if ready {
		status = corev1.ConditionTrue
	}
	node := &corev1.Node{}
	node.Name = name
	node.Status.Conditions = []corev1.NodeCondition{{Type: corev1.NodeReady, Status: status}}
	c.nodes[name] = node
}

func (c *fakeClusterClient) Apply(_ context.Context, manifest string) error {
	c.applied = append(c.applied, manifest)
	return nil
}

func (c *fakeClusterClient) GetNode(_ context.Context, name string) (*corev1.Node, error) {
	return c.nodes[name], nil
}

func (c *fakeClusterClient) ListNodes(_ context.Context) ([]corev1.Node, error) {
	var out []corev1.Node
	for _, n := range c.nodes {
		out = append(out, *n)
	}
	return out, nil
}

func (c *fakeClusterClient) LabelNode(_ context.Context, name string, nodeLabels map[string]string) error {
	if c.labeled[name] == nil {
		c.labeled[name] = make(map[string]string)
	}
	for k, v := range nodeLabels {
		c.labeled[name][k] = v
	}
	return nil
}

func (c *fakeClusterClient) WaitForNodeReady(_ context.Context, name string, _ time.Duration) error {
	c.waited = append(c.waited, name)
	c.addNode(name, true)
	return nil
}

func (c *fakeClusterClient) WaitForPodsReady(_ context.Context, _, _ string, _ time.Duration) error {
	return nil
}

func (c *fakeClusterClient) PatchServiceNodePorts(_ context.Context, _, name string, nodePorts map[int32]int32) error {
	c.patched[name] = nodePorts
	return nil
}

func testContext(cfg *config.Config, ssh *fakeExecFactory) *provision.Context {
	return &provision.Context{
		Context:  context.Background(),
		Config:   cfg,
		State:    provision.NewState(),
		SSH:      ssh,
		Observer: nopObserver{},
		Timeouts: config.TestTimeouts(),
	}
}

type nopObserver struct{}

func (nopObserver) Event(provision.Event)       {}
func (nopObserver) Progress(string, int, int)   {}
func (nopObserver) WithFields(map[string]string) provision.Observer { return nopObserver{} }
