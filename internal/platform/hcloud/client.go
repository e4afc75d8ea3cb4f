package hcloud

import (
	"github.com/hetznercloud/hcloud-go/v2/hcloud"

	"github.com/caravel-sh/caravel/internal/config"
)

// RealClient implements InventoryClient against the Hetzner Cloud API.
type RealClient struct {
	client   *hcloud.Client
	timeouts *config.Timeouts
}

// ClientOption configures a RealClient.
type ClientOption func(*RealClient)

// WithTimeouts sets custom timeouts for the client.
func WithTimeouts(t *config.Timeouts) ClientOption {
	return func(c *RealClient) { c.timeouts = t }
}

// WithHCloudClient sets a custom hcloud client (useful for testing
// against a stub API server).
func WithHCloudClient(hc *hcloud.Client) ClientOption {
	return func(c *RealClient) { c.client = hc }
}

// NewRealClient creates a new RealClient authorized by the given token.
func NewRealClient(token string, opts ...ClientOption) *RealClient {
	c := &RealClient{
		client:   hcloud.NewClient(hcloud.WithToken(token)),
		timeouts: config.LoadTimeouts(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}
