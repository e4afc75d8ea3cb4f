// Package manifest renders Kubernetes manifests for configured
// workloads, pinning each deployment to its server group and sizing it
// from the resource allocator.
package manifest

import (
	"fmt"
	"strings"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/yaml"

	"github.com/caravel-sh/caravel/internal/alloc"
	"github.com/caravel-sh/caravel/internal/config"
	"github.com/caravel-sh/caravel/internal/util/labels"
)

// RenderWorkloads renders one Deployment per workload as a single
// multi-document YAML stream, in declaration order.
func RenderWorkloads(cfg *config.Config, allocations map[string]alloc.Allocation) (string, error) {
	var docs []string
	for _, workload := range cfg.Workloads {
		allocation, ok := allocations[workload.Name]
		if !ok {
			return "", fmt.Errorf("no allocation for workload %s", workload.Name)
		}
		deployment := Deployment(cfg, workload, allocation)
		out, err := yaml.Marshal(deployment)
		if err != nil {
			return "", fmt.Errorf("failed to render workload %s: %w", workload.Name, err)
		}
		docs = append(docs, string(out))
	}
	return strings.Join(docs, "---\n"), nil
}

// Deployment builds the apps/v1 Deployment for one workload. The pod is
// pinned to the workload's server group through the node-group label
// and requests exactly its allocated memory, with an identical limit so
// allocations stay honest.
func Deployment(cfg *config.Config, workload config.Workload, allocation alloc.Allocation) *appsv1.Deployment {
	group := workload.Group
	if group == "" {
		group = cfg.MasterGroup().Name
	}
	replicas := int32(workload.Replicas)

	selectorLabels := map[string]string{"app": workload.Name}

	return &appsv1.Deployment{
		TypeMeta: metav1.TypeMeta{
			APIVersion: "apps/v1",
			Kind:       "Deployment",
		},
		ObjectMeta: metav1.ObjectMeta{
			Name:      workload.Name,
			Namespace: "default",
			Labels: map[string]string{
				"app":               workload.Name,
				labels.KeyCluster:   cfg.ClusterName,
				labels.KeyManagedBy: labels.ManagedByCaravel,
			},
		},
		Spec: appsv1.DeploymentSpec{
			Replicas: &replicas,
			Selector: &metav1.LabelSelector{MatchLabels: selectorLabels},
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{
					Labels: selectorLabels,
				},
				Spec: corev1.PodSpec{
					NodeSelector: map[string]string{labels.NodeGroupKey: group},
					Containers: []corev1.Container{
						{
							Name:      workload.Name,
							Image:     workload.Image,
							Resources: allocation.Resources(),
						},
					},
				},
			},
		},
	}
}
