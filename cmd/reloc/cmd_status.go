package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"reloc/cmd/reloc/ui"
	"reloc/internal/history"
	"reloc/internal/provision"
)

// statusCmd shows bundle, provisioning and last-run status.
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show bundle, provisioning and last-run status",
	RunE:  showStatus,
}

func showStatus(cmd *cobra.Command, args []string) error {
	styles := ui.DefaultStyles()

	fmt.Println(styles.Header.Render(" reloc " + cfg.Version + " "))
	fmt.Println(styles.RenderDivider(30))
	fmt.Println()

	fmt.Println(styles.Bold.Render("Bundle"))
	switch root := cfg.Bundle.Root; {
	case root == "":
		fmt.Printf("  root:        %s\n", styles.Warning.Render("(not set)"))
	default:
		marker := styles.Success.Render("(present)")
		if _, err := os.Stat(root); err != nil {
			marker = styles.Warning.Render("(missing)")
		}
		fmt.Printf("  root:        %s %s\n", root, marker)
	}
	fmt.Printf("  old prefix:  %s\n", valueOr(cfg.Bundle.OldPrefix, styles.Warning.Render("(not set)")))
	fmt.Printf("  new prefix:  %s\n", valueOr(cfg.EffectiveNewPrefix(), styles.Warning.Render("(not set)")))
	fmt.Println()

	fmt.Println(styles.Bold.Render("Provisioning"))
	state := provision.NewStateManager(cfg.StateDir())
	if err := state.Load(); err != nil {
		fmt.Printf("  state:       %s\n", styles.Error.Render(err.Error()))
	} else if state.IsProvisioned() {
		s := state.Get()
		fmt.Printf("  provisioned: %s at version %d on %s\n",
			styles.Success.Render("yes"),
			s.InitializedVersion,
			s.ProvisionedAt.Format("2006-01-02 15:04:05"))
	} else {
		fmt.Printf("  provisioned: %s\n", styles.Warning.Render("not yet"))
	}
	fmt.Printf("  state file:  %s\n", state.Path())
	fmt.Println()

	fmt.Println(styles.Bold.Render("History"))
	if !cfg.History.Enabled {
		fmt.Printf("  %s\n", styles.Muted.Render("disabled in config"))
		return nil
	}

	store, err := history.Open(cfg.HistoryPath(), logger)
	if err != nil {
		fmt.Printf("  %s\n", styles.Error.Render(err.Error()))
		return nil
	}
	defer store.Close()

	last, err := store.LastRun()
	if errors.Is(err, history.ErrRunNotFound) {
		fmt.Printf("  %s\n", styles.Muted.Render("no runs recorded"))
		return nil
	}
	if err != nil {
		return err
	}

	verdict := styles.Success.Render("ok")
	if !last.Success {
		verdict = styles.Error.Render("failed")
	}
	fmt.Printf("  last run:    %s  %s (%d patched, %d failed)\n",
		last.StartedAt.Format("2006-01-02 15:04:05"), verdict,
		last.FilesPatched, last.FilesFailed)
	fmt.Printf("  run id:      %s\n", last.ID)
	return nil
}

func valueOr(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
