package k8s

import (
	"context"
	"fmt"
	"time"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/wait"
)

// WaitForPodsReady polls until at least one pod matches the label
// selector and every match is Running and Ready.
func (c *Client) WaitForPodsReady(ctx context.Context, namespace, labelSelector string, timeout time.Duration) error {
	err := wait.PollUntilContextTimeout(ctx, 5*time.Second, timeout, true, func(ctx context.Context) (bool, error) {
		pods, err := c.clientset.CoreV1().Pods(namespace).List(ctx, metav1.ListOptions{
			LabelSelector: labelSelector,
		})
		if err != nil {
			return false, nil
		}
		if len(pods.Items) == 0 {
			return false, nil
		}
		for i := range pods.Items {
			if !isPodReady(&pods.Items[i]) {
				return false, nil
			}
		}
		return true, nil
	})
	if err != nil {
		return fmt.Errorf("pods %s in %s did not become ready within %v: %w", labelSelector, namespace, timeout, err)
	}
	return nil
}

// PatchServiceNodePorts pins the service's HTTP and HTTPS node ports so
// firewall rules can target fixed constants. Ports are matched by their
// service port number.
func (c *Client) PatchServiceNodePorts(ctx context.Context, namespace, name string, nodePorts map[int32]int32) error {
	services := c.clientset.CoreV1().Services(namespace)
	svc, err := services.Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return fmt.Errorf("failed to get service %s/%s: %w", namespace, name, err)
	}

	changed := false
	for i, port := range svc.Spec.Ports {
		nodePort, ok := nodePorts[port.Port]
		if !ok || port.NodePort == nodePort {
			continue
		}
		svc.Spec.Ports[i].NodePort = nodePort
		changed = true
	}
	if !changed {
		return nil
	}

	if _, err := services.Update(ctx, svc, metav1.UpdateOptions{}); err != nil {
		return fmt.Errorf("failed to update service %s/%s: %w", namespace, name, err)
	}
	return nil
}

func isPodReady(pod *corev1.Pod) bool {
	if pod.Status.Phase != corev1.PodRunning {
		return false
	}
	for _, condition := range pod.Status.Conditions {
		if condition.Type == corev1.PodReady && condition.Status == corev1.ConditionTrue {
			return true
		}
	}
	return false
}
