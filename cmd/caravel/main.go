// Package main is the entry point for the caravel CLI.
//
// caravel provisions small k3s clusters on Hetzner Cloud and deploys
// the configured workloads onto them. One declarative config file
// describes server groups and workloads; `caravel deploy` converges
// cloud inventory, cluster membership and manifests toward it.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/caravel-sh/caravel/cmd/caravel/commands"
)

// Version information set by goreleaser at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersionInfo(version, commit, date)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := commands.Root().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
