package history

import (
	"fmt"
	"strings"
	"time"

	"reloc/internal/patch"
)

// RunMarkdown renders one run as a markdown report, suitable for
// terminal display through a markdown renderer.
func RunMarkdown(run *Run, outcomes []patch.Outcome) string {
	var b strings.Builder

	status := "succeeded"
	if !run.Success {
		status = "FAILED"
	}

	fmt.Fprintf(&b, "# Relocation run %s\n\n", run.ID)
	fmt.Fprintf(&b, "Run %s in %s, started %s.\n\n",
		status,
		run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond),
		run.StartedAt.Format(time.RFC3339))

	b.WriteString("| Setting | Value |\n")
	b.WriteString("|---|---|\n")
	fmt.Fprintf(&b, "| Root | `%s` |\n", run.Root)
	fmt.Fprintf(&b, "| Old prefix | `%s` |\n", run.OldPrefix)
	fmt.Fprintf(&b, "| New prefix | `%s` |\n", run.NewPrefix)
	fmt.Fprintf(&b, "| Files patched | %d |\n", run.FilesPatched)
	fmt.Fprintf(&b, "| Files failed | %d |\n", run.FilesFailed)

	if len(outcomes) > 0 {
		b.WriteString("\n## Files\n\n")
		for _, out := range outcomes {
			marker := " "
			if out.Changed {
				marker = "x"
			}
			fmt.Fprintf(&b, "- [%s] `%s` (%s)\n", marker, out.Path, out.Reason)
		}
	}

	return b.String()
}
