package alloc

import (
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
)

// Resources renders the allocation as an equal request and limit pair.
// No burst allowance: a workload gets exactly its computed share.
func (a Allocation) Resources() corev1.ResourceRequirements {
	qty := resource.NewQuantity(a.MemoryMB*1024*1024, resource.BinarySI)
	return corev1.ResourceRequirements{
		Requests: corev1.ResourceList{
			corev1.ResourceMemory: *qty,
		},
		Limits: corev1.ResourceList{
			corev1.ResourceMemory: *qty,
		},
	}
}
