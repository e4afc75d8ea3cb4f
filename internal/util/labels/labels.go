// Package labels provides consistent labeling for cloud resources and
// cluster nodes.
//
// Cloud resource labels identify which cluster owns a resource so destroy
// can clean up by selector. The node group label steers workload placement
// and is re-applied on every deploy.
package labels

// Standard label keys, namespaced under the caravel.sh domain.
const (
	// KeyCluster identifies which cluster a cloud resource belongs to.
	KeyCluster = "caravel.sh/cluster"

	// KeyGroup identifies the server group a resource belongs to.
	KeyGroup = "caravel.sh/group"

	// KeyManagedBy identifies the management system.
	KeyManagedBy = "caravel.sh/managed-by"

	// NodeGroupKey is the Kubernetes node label used for workload
	// placement. Applied to every node on every deploy.
	NodeGroupKey = "caravel.sh/node-group"
)

// ManagedByCaravel is the value of KeyManagedBy for CLI-created resources.
const ManagedByCaravel = "caravel"

// Builder provides a fluent interface for building resource labels.
type Builder struct {
	labels map[string]string
}

// NewBuilder creates a label builder with the cluster and managed-by
// labels pre-set.
func NewBuilder(cluster string) *Builder {
	return &Builder{
		labels: map[string]string{
			KeyCluster:   cluster,
			KeyManagedBy: ManagedByCaravel,
		},
	}
}

// WithGroup adds the server group label.
func (b *Builder) WithGroup(group string) *Builder {
	b.labels[KeyGroup] = group
	return b
}

// Build returns the accumulated label map.
func (b *Builder) Build() map[string]string {
	out := make(map[string]string, len(b.labels))
	for k, v := range b.labels {
		out[k] = v
	}
	return out
}

// Selector returns the label selector matching all resources of a cluster.
func Selector(cluster string) map[string]string {
	return map[string]string{KeyCluster: cluster}
}
