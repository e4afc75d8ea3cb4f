// Package cluster turns reconciled servers into a Kubernetes cluster:
// it bootstraps the control plane on the primary server, joins workers
// and keeps node labels in sync with their server groups.
package cluster

import (
	"context"
	"time"

	corev1 "k8s.io/api/core/v1"

	"github.com/caravel-sh/caravel/internal/k8s"
)

// ClusterClient is the slice of cluster control operations bootstrap
// and join need.
type ClusterClient interface {
	Apply(ctx context.Context, manifest string) error
	GetNode(ctx context.Context, name string) (*corev1.Node, error)
	ListNodes(ctx context.Context) ([]corev1.Node, error)
	LabelNode(ctx context.Context, name string, nodeLabels map[string]string) error
	WaitForNodeReady(ctx context.Context, name string, timeout time.Duration) error
	WaitForPodsReady(ctx context.Context, namespace, labelSelector string, timeout time.Duration) error
	PatchServiceNodePorts(ctx context.Context, namespace, name string, nodePorts map[int32]int32) error
}

// NewClusterClient builds the control client from fetched kubeconfig
// bytes. Variable so tests can substitute a fake.
var NewClusterClient = func(kubeconfig []byte) (ClusterClient, error) {
	return k8s.NewClientFromBytes(kubeconfig)
}
