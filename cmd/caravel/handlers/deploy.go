// Package handlers implements command execution. Handlers load the
// configuration, wire the platform clients and run the provisioning
// phases in order. Client constructors are variables so tests can
// substitute fakes.
package handlers

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/caravel-sh/caravel/internal/cluster"
	"github.com/caravel-sh/caravel/internal/config"
	hcloudinternal "github.com/caravel-sh/caravel/internal/platform/hcloud"
	"github.com/caravel-sh/caravel/internal/platform/sshexec"
	"github.com/caravel-sh/caravel/internal/provision"
	"github.com/caravel-sh/caravel/internal/util/keygen"
)

// Factory variables for test injection.
var (
	loadConfigFile = config.LoadFile

	newInfraClient = func(cfg *config.Config) hcloudinternal.InventoryClient {
		return hcloudinternal.NewRealClient(cfg.HCloudToken)
	}

	newExecutorFactory = func(cfg *config.Config) (sshexec.ExecutorFactory, error) {
		return sshexec.NewFactory(cfg.SSH.User, cfg.SSH.PrivateKeyPath, cfg.SSH.Port)
	}
)

// ensureSSHKeyPair generates a key pair on first run, when the
// configured private key file does not exist yet. An existing private
// key is never touched, even when its public half is missing.
func ensureSSHKeyPair(cfg *config.Config) error {
	if _, err := os.Stat(cfg.SSH.PrivateKeyPath); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return err
	}

	log.Printf("SSH key %s not found, generating a new key pair", cfg.SSH.PrivateKeyPath)

	pair, err := keygen.GenerateEd25519()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(cfg.SSH.PrivateKeyPath), 0o700); err != nil {
		return err
	}
	if err := os.WriteFile(cfg.SSH.PrivateKeyPath, pair.PrivateKey, 0o600); err != nil {
		return err
	}
	return os.WriteFile(cfg.SSH.PublicKeyPath, pair.PublicKey, 0o644)
}

// nodeRemoverFor extracts the drain capability from the cluster client.
// A client without it is noisy when removals are pending: the retired
// servers will be deleted without the eviction sequence.
func nodeRemoverFor(pctx *provision.Context, client cluster.ClusterClient) provision.NodeRemover {
	if r, ok := client.(provision.NodeRemover); ok {
		return r
	}
	if len(pctx.State.RemovalNames) > 0 {
		provision.LogWarning(pctx.Observer, "removal", "",
			"cluster client cannot drain nodes, retired servers are deleted without eviction")
	}
	return nil
}

// Deploy handles the deploy command: reconcile servers, bootstrap the
// control plane, join workers, apply workload manifests and finally
// remove retired servers. Removal runs last so a shrinking cluster
// keeps serving until the new state is in place.
func Deploy(ctx context.Context, configPath string) error {
	cfg, err := loadConfigFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.HCloudToken == "" {
		return fmt.Errorf("hcloud_token is required (in config or env HCLOUD_TOKEN)")
	}

	log.Printf("Deploying cluster: %s", cfg.ClusterName)

	if err := ensureSSHKeyPair(cfg); err != nil {
		return fmt.Errorf("failed to prepare SSH key: %w", err)
	}
	ssh, err := newExecutorFactory(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize SSH: %w", err)
	}

	pctx := provision.NewContext(ctx, cfg, newInfraClient(cfg), ssh)

	if err := provision.EnsureInfrastructure(pctx); err != nil {
		return err
	}
	if _, err := provision.Reconcile(pctx); err != nil {
		return fmt.Errorf("reconciliation failed: %w", err)
	}

	client, err := cluster.Bootstrap(pctx)
	if err != nil {
		return fmt.Errorf("bootstrap failed: %w", err)
	}
	if err := cluster.JoinWorkers(pctx, client); err != nil {
		return fmt.Errorf("worker join failed: %w", err)
	}

	if err := deployWorkloads(pctx, client); err != nil {
		return err
	}

	// Retired servers go last: their nodes kept serving through the
	// manifest rollout above.
	if err := provision.RemoveRetired(pctx, nodeRemoverFor(pctx, client)); err != nil {
		return fmt.Errorf("removal failed: %w", err)
	}

	log.Printf("Cluster %s deployed successfully", cfg.ClusterName)
	return nil
}
