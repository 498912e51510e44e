package main

import (
	"fmt"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"reloc/cmd/reloc/ui"
	"reloc/internal/history"
)

var historyLimit int

// historyCmd lists recorded relocation runs.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded relocation runs",
	RunE:  listHistory,
}

// historyShowCmd shows one run with its per-file outcomes.
var historyShowCmd = &cobra.Command{
	Use:   "show [run-id]",
	Short: "Show one run with its per-file outcomes",
	Args:  cobra.ExactArgs(1),
	RunE:  showHistoryRun,
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum number of runs to list")
	historyCmd.AddCommand(historyShowCmd)
}

func openHistory() (*history.Store, error) {
	if !cfg.History.Enabled {
		return nil, fmt.Errorf("history is disabled in config")
	}
	return history.Open(cfg.HistoryPath(), logger)
}

func listHistory(cmd *cobra.Command, args []string) error {
	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.ListRuns(historyLimit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded yet.")
		return nil
	}

	styles := ui.DefaultStyles()
	for _, run := range runs {
		verdict := styles.Success.Render("ok    ")
		if !run.Success {
			verdict = styles.Error.Render("failed")
		}
		fmt.Printf("%s  %s  %4d patched  %4d failed  %s\n",
			run.StartedAt.Format("2006-01-02 15:04:05"), verdict,
			run.FilesPatched, run.FilesFailed, run.ID)
	}
	return nil
}

func showHistoryRun(cmd *cobra.Command, args []string) error {
	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	run, outcomes, err := store.GetRun(args[0])
	if err != nil {
		return err
	}

	fmt.Print(renderMarkdown(history.RunMarkdown(run, outcomes)))
	return nil
}

// renderMarkdown renders markdown for the terminal, falling back to the
// raw text when no renderer can be built.
func renderMarkdown(md string) string {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return md
	}
	out, err := renderer.Render(md)
	if err != nil {
		return md
	}
	return out
}
