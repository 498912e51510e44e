package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"reloc/internal/engine"
	"reloc/internal/provision"
)

var (
	provisionWait        bool
	provisionWaitTimeout time.Duration
	provisionForce       bool
)

// provisionCmd performs the one-time setup of a freshly unpacked bundle.
var provisionCmd = &cobra.Command{
	Use:   "provision",
	Short: "First-run setup: relocate the bundle and install its scripts",
	Long: `Performs the one-time setup of a freshly unpacked bundle:

  1. Verifies the bundle root exists (optionally waiting for it)
  2. Installs the boot script and the one-shot setup script
  3. Hooks the setup script into the shell rc file
  4. Rewrites the old prefix throughout the bundle
  5. Records the provisioning version

Once the version is recorded, further runs are no-ops unless --force
is given.`,
	RunE: runProvision,
}

func init() {
	provisionCmd.Flags().BoolVar(&provisionWait, "wait", false, "Wait for the bundle root to appear before provisioning")
	provisionCmd.Flags().DurationVar(&provisionWaitTimeout, "wait-timeout", 0, "How long --wait may block (default from config)")
	provisionCmd.Flags().BoolVar(&provisionForce, "force", false, "Provision even when the recorded version is current")
}

func runProvision(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal")
		cancel()
	}()

	if provisionWait {
		timeout := provisionWaitTimeout
		if timeout == 0 {
			timeout = cfg.GetWaitTimeout()
		}
		logger.Info("waiting for bundle root",
			zap.String("root", cfg.Bundle.Root),
			zap.Duration("timeout", timeout))
		if err := provision.WaitForDir(ctx, cfg.Bundle.Root, timeout, logger); err != nil {
			return err
		}
	}

	prov := provision.New(cfg, engine.New(logger), logger)
	res, err := prov.Provision(ctx, provisionForce)
	if err != nil {
		if errors.Is(err, provision.ErrNotReady) {
			return fmt.Errorf("%w (unpack the bundle first, or run with --wait)", err)
		}
		return err
	}

	if !res.Performed {
		fmt.Println("Bundle already provisioned; nothing to do. Use --force to repeat.")
		return nil
	}

	fmt.Printf("Provisioned bundle at %s\n", cfg.Bundle.Root)
	for _, f := range res.FilesCreated {
		fmt.Printf("  created %s\n", f)
	}
	if res.Report != nil {
		fmt.Printf("  patched %d files\n", res.Report.FilesPatched)
	}
	return nil
}
