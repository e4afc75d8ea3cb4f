// Package k8s wraps the Kubernetes API operations caravel needs: manifest
// application, node lifecycle and readiness waits.
package k8s

import (
	"context"
	"fmt"
	"strings"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/apimachinery/pkg/util/yaml"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/tools/clientcmd"
)

// Client wraps Kubernetes API operations.
type Client struct {
	clientset kubernetes.Interface
	dynamic   dynamic.Interface
}

// NewClientFromBytes creates a Kubernetes client from kubeconfig bytes,
// as fetched from the control-plane host.
func NewClientFromBytes(kubeconfigData []byte) (*Client, error) {
	config, err := clientcmd.RESTConfigFromKubeConfig(kubeconfigData)
	if err != nil {
		return nil, fmt.Errorf("failed to build kubeconfig from bytes: %w", err)
	}

	clientset, err := kubernetes.NewForConfig(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create clientset: %w", err)
	}

	dynamicClient, err := dynamic.NewForConfig(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create dynamic client: %w", err)
	}

	return &Client{clientset: clientset, dynamic: dynamicClient}, nil
}

// newClient wires pre-built clients, used by tests with fakes.
func newClient(clientset kubernetes.Interface, dynamicClient dynamic.Interface) *Client {
	return &Client{clientset: clientset, dynamic: dynamicClient}
}

// Apply applies a multi-document YAML manifest to the cluster,
// creating each object and falling back to update when it already
// exists, so repeated runs converge instead of failing.
func (c *Client) Apply(ctx context.Context, manifest string) error {
	decoder := yaml.NewYAMLOrJSONDecoder(strings.NewReader(manifest), 4096)

	for {
		var obj unstructured.Unstructured
		err := decoder.Decode(&obj)
		if err != nil {
			if err.Error() == "EOF" {
				break
			}
			return fmt.Errorf("failed to decode manifest: %w", err)
		}

		if len(obj.Object) == 0 {
			continue
		}

		gvk := obj.GroupVersionKind()
		gvr := schema.GroupVersionResource{
			Group:    gvk.Group,
			Version:  gvk.Version,
			Resource: resourceForKind(gvk.Kind),
		}

		client := c.dynamic.Resource(gvr).Namespace(obj.GetNamespace())
		if _, err := client.Create(ctx, &obj, metav1.CreateOptions{}); err != nil {
			existing, getErr := client.Get(ctx, obj.GetName(), metav1.GetOptions{})
			if getErr != nil {
				return fmt.Errorf("failed to apply resource %s/%s: %w", obj.GetKind(), obj.GetName(), err)
			}
			obj.SetResourceVersion(existing.GetResourceVersion())
			if _, err := client.Update(ctx, &obj, metav1.UpdateOptions{}); err != nil {
				return fmt.Errorf("failed to apply resource %s/%s: %w", obj.GetKind(), obj.GetName(), err)
			}
		}
	}

	return nil
}

// resourceForKind maps a Kubernetes kind to its resource name. Covers
// the kinds caravel applies; anything else gets the lowercase-plural
// guess.
func resourceForKind(kind string) string {
	switch kind {
	case "Deployment":
		return "deployments"
	case "Service":
		return "services"
	case "ConfigMap":
		return "configmaps"
	case "Secret":
		return "secrets"
	case "DaemonSet":
		return "daemonsets"
	case "StatefulSet":
		return "statefulsets"
	case "ServiceAccount":
		return "serviceaccounts"
	case "Role":
		return "roles"
	case "RoleBinding":
		return "rolebindings"
	case "ClusterRole":
		return "clusterroles"
	case "ClusterRoleBinding":
		return "clusterrolebindings"
	case "Namespace":
		return "namespaces"
	case "IngressClass":
		return "ingressclasses"
	case "Ingress":
		return "ingresses"
	case "ValidatingWebhookConfiguration":
		return "validatingwebhookconfigurations"
	case "Job":
		return "jobs"
	default:
		return strings.ToLower(kind) + "s"
	}
}
