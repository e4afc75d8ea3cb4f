package handlers

import (
	"context"
	"fmt"
	"log"

	"github.com/caravel-sh/caravel/internal/util/labels"
)

// Destroy handles the destroy command.
//
// It deletes every cloud resource labeled as belonging to the cluster,
// in dependency order: servers, then firewalls, networks and SSH keys.
func Destroy(ctx context.Context, configPath string) error {
	cfg, err := loadConfigFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.HCloudToken == "" {
		return fmt.Errorf("hcloud_token is required (in config or env HCLOUD_TOKEN)")
	}

	log.Printf("Destroying cluster: %s", cfg.ClusterName)

	infra := newInfraClient(cfg)
	if err := infra.CleanupByLabel(ctx, labels.Selector(cfg.ClusterName), cfg.MasterGroup().Name); err != nil {
		return fmt.Errorf("destroy failed: %w", err)
	}

	log.Printf("Cluster %s destroyed successfully", cfg.ClusterName)
	return nil
}
