package k8s

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/meta"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	dynamicfake "k8s.io/client-go/dynamic/fake"
	"k8s.io/client-go/kubernetes/fake"
	"k8s.io/client-go/kubernetes/scheme"
	k8stesting "k8s.io/client-go/testing"
)

func readyNode(name string) *corev1.Node {
	return &corev1.Node{
		ObjectMeta: metav1.ObjectMeta{Name: name},
		Status: corev1.NodeStatus{
			Conditions: []corev1.NodeCondition{
				{Type: corev1.NodeReady, Status: corev1.ConditionTrue},
			},
		},
	}
}

func TestNodeReady(t *testing.T) {
	assert.True(t, NodeReady(readyNode("n1")))
	assert.False(t, NodeReady(nil))
	assert.False(t, NodeReady(&corev1.Node{}))
	assert.False(t, NodeReady(&corev1.Node{
		Status: corev1.NodeStatus{
			Conditions: []corev1.NodeCondition{
				{Type: corev1.NodeReady, Status: corev1.ConditionFalse},
			},
		},
	}))
}

func TestGetNodeMissing(t *testing.T) {
	client := newClient(fake.NewSimpleClientset(), nil)

	node, err := client.GetNode(context.Background(), "absent")
	require.NoError(t, err)
	assert.Nil(t, node)
}

func TestLabelNode(t *testing.T) {
	clientset := fake.NewSimpleClientset(readyNode("demo-app-1"))
	client := newClient(clientset, nil)

	err := client.LabelNode(context.Background(), "demo-app-1", map[string]string{
		"caravel.sh/node-group": "app",
	})
	require.NoError(t, err)

	node, err := clientset.CoreV1().Nodes().Get(context.Background(), "demo-app-1", metav1.GetOptions{})
	require.NoError(t, err)
	assert.Equal(t, "app", node.Labels["caravel.sh/node-group"])
}

func TestCordonNode(t *testing.T) {
	clientset := fake.NewSimpleClientset(readyNode("demo-app-2"))
	client := newClient(clientset, nil)

	require.NoError(t, client.CordonNode(context.Background(), "demo-app-2"))

	node, err := clientset.CoreV1().Nodes().Get(context.Background(), "demo-app-2", metav1.GetOptions{})
	require.NoError(t, err)
	assert.True(t, node.Spec.Unschedulable)
}

func TestDeleteNodeMissing(t *testing.T) {
	client := newClient(fake.NewSimpleClientset(), nil)
	assert.NoError(t, client.DeleteNode(context.Background(), "absent"))
}

func TestDrainNodeSkipsUnevictable(t *testing.T) {
	pods := []runtime.Object{
		&corev1.Pod{
			ObjectMeta: metav1.ObjectMeta{Name: "web", Namespace: "default"},
			Spec:       corev1.PodSpec{NodeName: "demo-app-2"},
		},
		&corev1.Pod{
			ObjectMeta: metav1.ObjectMeta{
				Name: "kube-flannel", Namespace: "kube-system",
				OwnerReferences: []metav1.OwnerReference{{Kind: "DaemonSet", Name: "flannel"}},
			},
			Spec: corev1.PodSpec{NodeName: "demo-app-2"},
		},
		&corev1.Pod{
			ObjectMeta: metav1.ObjectMeta{
				Name: "static-web", Namespace: "kube-system",
				Annotations: map[string]string{corev1.MirrorPodAnnotationKey: "mirror"},
			},
			Spec: corev1.PodSpec{NodeName: "demo-app-2"},
		},
	}
	clientset := fake.NewSimpleClientset(pods...)

	var evicted []string
	clientset.PrependReactor("create", "pods", func(action k8stesting.Action) (bool, runtime.Object, error) {
		if action.GetSubresource() != "eviction" {
			return false, nil, nil
		}
		create := action.(k8stesting.CreateAction)
		obj, err := meta.Accessor(create.GetObject())
		if err != nil {
			return true, nil, err
		}
		evicted = append(evicted, obj.GetName())
		return true, nil, nil
	})

	client := newClient(clientset, nil)
	require.NoError(t, client.DrainNode(context.Background(), "demo-app-2"))
	assert.Equal(t, []string{"web"}, evicted)
}

func TestWaitForNodeReady(t *testing.T) {
	client := newClient(fake.NewSimpleClientset(readyNode("demo-master-1")), nil)
	assert.NoError(t, client.WaitForNodeReady(context.Background(), "demo-master-1", time.Second))
}

func TestWaitForNodeReadyTimeout(t *testing.T) {
	client := newClient(fake.NewSimpleClientset(), nil)
	err := client.WaitForNodeReady(context.Background(), "absent", 50*time.Millisecond)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "did not become ready")
}

func TestPatchServiceNodePorts(t *testing.T) {
	svc := &corev1.Service{
		ObjectMeta: metav1.ObjectMeta{Name: "ingress-nginx-controller", Namespace: "ingress-nginx"},
		Spec: corev1.ServiceSpec{
			Type: corev1.ServiceTypeNodePort,
			Ports: []corev1.ServicePort{
				{Name: "http", Port: 80, NodePort: 31234},
				{Name: "https", Port: 443, NodePort: 31235},
			},
		},
	}
	clientset := fake.NewSimpleClientset(svc)
	client := newClient(clientset, nil)

	err := client.PatchServiceNodePorts(context.Background(), "ingress-nginx", "ingress-nginx-controller",
		map[int32]int32{80: 30080, 443: 30443})
	require.NoError(t, err)

	updated, err := clientset.CoreV1().Services("ingress-nginx").Get(context.Background(), "ingress-nginx-controller", metav1.GetOptions{})
	require.NoError(t, err)
	assert.Equal(t, int32(30080), updated.Spec.Ports[0].NodePort)
	assert.Equal(t, int32(30443), updated.Spec.Ports[1].NodePort)
}

func TestApplyCreatesAndUpdates(t *testing.T) {
	dyn := dynamicfake.NewSimpleDynamicClient(scheme.Scheme)
	client := newClient(fake.NewSimpleClientset(), dyn)

	manifest := `apiVersion: v1
kind: Namespace
metadata:
  name: ingress-nginx
---
apiVersion: v1
kind: ConfigMap
metadata:
  name: settings
  namespace: ingress-nginx
data:
  key: one
`
	require.NoError(t, client.Apply(context.Background(), manifest))

	// Second apply with changed data takes the update path.
	manifest2 := `apiVersion: v1
kind: ConfigMap
metadata:
  name: settings
  namespace: ingress-nginx
data:
  key: two
`
	require.NoError(t, client.Apply(context.Background(), manifest2))
}

func TestResourceForKind(t *testing.T) {
	assert.Equal(t, "deployments", resourceForKind("Deployment"))
	assert.Equal(t, "ingressclasses", resourceForKind("IngressClass"))
	assert.Equal(t, "clusterrolebindings", resourceForKind("ClusterRoleBinding"))
	assert.Equal(t, "widgets", resourceForKind("Widget"))
}
