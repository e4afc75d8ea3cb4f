package config

// Ports and endpoints shared across components. Centralized so firewall
// rules, join commands and manifests all target the same constants.
const (
	// KubeAPIPort is the Kubernetes API server port.
	KubeAPIPort = 6443

	// SSHPort is the remote execution port opened in the firewall.
	SSHPort = 22

	// RegistryMirrorPort is the host-local port nodes pull images
	// through; it maps to the in-cluster registry service.
	RegistryMirrorPort = 30777

	// IngressHTTPNodePort and IngressHTTPSNodePort are the fixed node
	// ports the ingress controller service is patched to, so firewall
	// and tunnel configuration can target constants.
	IngressHTTPNodePort  = 30080
	IngressHTTPSNodePort = 30443
)

// Cluster network ranges. Chosen not to overlap the 10.0.0.0/16 private
// server network.
const (
	PrivateNetworkCIDR = "10.0.0.0/16"
	PodCIDR            = "10.244.0.0/16"
	ServiceCIDR        = "10.96.0.0/16"
)

// FallbackInterface is used when private interface detection fails on a
// node.
const FallbackInterface = "eth0"
