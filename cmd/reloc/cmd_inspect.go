package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"reloc/cmd/reloc/ui"
	"reloc/internal/classify"
	"reloc/internal/diff"
	"reloc/internal/patch"
)

var inspectDiff bool

// inspectCmd shows how reloc would treat a file, without touching it.
var inspectCmd = &cobra.Command{
	Use:   "inspect [file]",
	Short: "Show how reloc would treat a file, without modifying it",
	Long: `Classifies a file the way the patcher would and, when an old prefix is
configured, reports every occurrence it would rewrite. For binaries each
NUL-terminated string region is listed with whether the new prefix fits.

With --diff, text files additionally get a preview of the exact lines a
rewrite would change.`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func init() {
	inspectCmd.Flags().BoolVar(&inspectDiff, "diff", false, "Preview the line changes a rewrite would make (text files)")
}

func runInspect(cmd *cobra.Command, args []string) error {
	path := args[0]
	styles := ui.DefaultStyles()

	kind := classify.Classify(path)
	fmt.Printf("%s: %s\n", path, styles.Bold.Render(kind.String()))

	if kind == classify.Unknown {
		fmt.Println(styles.Muted.Render("  not a candidate; reloc leaves this file alone"))
		return nil
	}
	if cfg.Bundle.OldPrefix == "" {
		fmt.Println(styles.Muted.Render("  no old prefix configured; nothing to look for"))
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}
	old := []byte(cfg.Bundle.OldPrefix)

	switch kind {
	case classify.Text:
		count := bytes.Count(data, old)
		fmt.Printf("  %d occurrence(s) of %q\n", count, cfg.Bundle.OldPrefix)

		if inspectDiff && count > 0 {
			rewritten := bytes.ReplaceAll(data, old, []byte(cfg.EffectiveNewPrefix()))
			printDiff(diff.Compute(string(data), string(rewritten)), styles)
		}

	case classify.ObjectBinary:
		extents := patch.Extents(data, old)
		fmt.Printf("  %d string(s) containing %q\n", len(extents), cfg.Bundle.OldPrefix)

		grows := len(cfg.EffectiveNewPrefix()) > len(old)
		for _, ext := range extents {
			verdict := styles.Success.Render("patchable")
			if grows {
				verdict = styles.Warning.Render("no space")
			}
			fmt.Printf("    offset 0x%-8x width %-5d %s\n", ext.Offset, ext.Width(), verdict)
		}
	}
	return nil
}

func printDiff(hunks []diff.Hunk, styles ui.Styles) {
	for _, h := range hunks {
		header := fmt.Sprintf("  @@ -%d,%d +%d,%d @@", h.OldStart, h.OldCount, h.NewStart, h.NewCount)
		fmt.Println(styles.Info.Render(header))
		for _, line := range h.Lines {
			switch line.Type {
			case diff.LineAdded:
				fmt.Println(styles.Success.Render("  +" + line.Content))
			case diff.LineRemoved:
				fmt.Println(styles.Error.Render("  -" + line.Content))
			default:
				fmt.Println(styles.Muted.Render("   " + line.Content))
			}
		}
	}
}
