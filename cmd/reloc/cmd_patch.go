package main

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"reloc/cmd/reloc/ui"
	"reloc/internal/engine"
	"reloc/internal/history"
	"reloc/internal/patch"
)

var (
	patchRoot      string
	patchOld       string
	patchNew       string
	patchPlain     bool
	patchNoHistory bool
)

// patchCmd rewrites the configured prefix throughout the bundle.
var patchCmd = &cobra.Command{
	Use:   "patch",
	Short: "Rewrite the old prefix throughout the bundle",
	Long: `Walks the bundle root and rewrites every occurrence of the old prefix.

Shell scripts, configs and other known text files get a plain
substitution. Binaries are patched in place; when the new prefix is
longer than the old one the affected strings are skipped and reported,
because growing a string inside a binary would corrupt it.

Files that fail to patch are counted and reported, and the run always
continues to the end of the tree. The exit code is nonzero when any
file failed.`,
	RunE: runPatch,
}

func init() {
	patchCmd.Flags().StringVar(&patchRoot, "root", "", "Bundle root (overrides config)")
	patchCmd.Flags().StringVar(&patchOld, "old", "", "Prefix to replace (overrides config)")
	patchCmd.Flags().StringVar(&patchNew, "new", "", "Replacement prefix (overrides config, default: the bundle root)")
	patchCmd.Flags().BoolVar(&patchPlain, "plain", false, "Line output instead of the live view")
	patchCmd.Flags().BoolVar(&patchNoHistory, "no-history", false, "Skip recording this run in history")
}

func runPatch(cmd *cobra.Command, args []string) error {
	if patchRoot != "" {
		cfg.Bundle.Root = patchRoot
	}
	if patchOld != "" {
		cfg.Bundle.OldPrefix = patchOld
	}
	if patchNew != "" {
		cfg.Bundle.NewPrefix = patchNew
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	prefix := patch.NewPrefix(cfg.Bundle.OldPrefix, cfg.EffectiveNewPrefix())
	started := time.Now()

	var report *engine.Report
	var err error
	if patchPlain {
		report, err = patchWithPlainOutput(prefix)
	} else {
		report, err = patchWithLiveView(prefix)
	}
	if err != nil {
		return err
	}

	recordRun(report, started)

	if !report.Success() {
		return fmt.Errorf("relocation failed on %d of %d files",
			report.FilesFailed, len(report.Outcomes))
	}
	return nil
}

// patchWithPlainOutput runs the engine with one line per attempted file
// and a styled summary at the end.
func patchWithPlainOutput(prefix patch.Prefix) (*engine.Report, error) {
	eng := engine.New(logger)
	eng.OnProgress = func(p engine.Progress) {
		if p.Outcome == nil {
			return
		}
		fmt.Printf("[%d/%d] %-18s %s\n", p.Index, p.Total, p.Outcome.Reason, p.Path)
	}

	report, err := eng.Run(cfg.Bundle.Root, prefix)
	if err != nil {
		return nil, err
	}
	printSummary(report)
	return report, nil
}

func printSummary(report *engine.Report) {
	styles := ui.DefaultStyles()

	skipped := 0
	for _, out := range report.Outcomes {
		if out.Reason == patch.ReasonNoSpace {
			skipped++
		}
	}

	line := fmt.Sprintf("%d patched, %d skipped, %d failed",
		report.FilesPatched, skipped, report.FilesFailed)
	if report.Success() {
		fmt.Println(styles.Success.Render("✓ " + line))
	} else {
		fmt.Println(styles.Error.Render("✗ " + line))
	}
}

// patchWithLiveView runs the engine behind the interactive run view. The
// engine gets a nop logger so its output cannot fight the UI for the
// terminal; failures surface through the view and the final report.
func patchWithLiveView(prefix patch.Prefix) (*engine.Report, error) {
	prog := tea.NewProgram(ui.NewPatchModel(cfg.Bundle.Root))

	eng := engine.New(zap.NewNop())
	eng.OnProgress = func(p engine.Progress) {
		prog.Send(ui.ProgressMsg(p))
	}

	var report *engine.Report
	g := new(errgroup.Group)
	g.Go(func() error {
		var err error
		report, err = eng.Run(cfg.Bundle.Root, prefix)
		prog.Send(ui.DoneMsg{Report: report, Err: err})
		return err
	})
	g.Go(func() error {
		_, err := prog.Run()
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return report, nil
}

// recordRun stores the finished run in the history database. History
// problems are logged, never fatal; the relocation itself already
// happened.
func recordRun(report *engine.Report, started time.Time) {
	if patchNoHistory || !cfg.History.Enabled {
		return
	}

	store, err := history.Open(cfg.HistoryPath(), logger)
	if err != nil {
		logger.Warn("history disabled for this run", zap.Error(err))
		return
	}
	defer store.Close()

	id, err := store.RecordRun(history.Run{
		StartedAt:  started,
		FinishedAt: time.Now(),
		Root:       cfg.Bundle.Root,
		OldPrefix:  cfg.Bundle.OldPrefix,
		NewPrefix:  cfg.EffectiveNewPrefix(),
	}, report)
	if err != nil {
		logger.Warn("failed to record run", zap.Error(err))
		return
	}
	fmt.Printf("Run recorded: %s\n", id)
}
