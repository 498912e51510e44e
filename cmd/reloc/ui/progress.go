package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"reloc/internal/engine"
	"reloc/internal/patch"
)

// maxFailureLines bounds the failure list so a badly broken bundle does
// not scroll the summary off screen.
const maxFailureLines = 10

// ProgressMsg carries one engine progress event into the run view.
type ProgressMsg engine.Progress

// DoneMsg ends the run view. Err is a fatal error; per-file failures
// travel inside the report instead.
type DoneMsg struct {
	Report *engine.Report
	Err    error
}

// PatchModel is the live view of a relocation run.
type PatchModel struct {
	root   string
	bar    progress.Model
	spin   spinner.Model
	styles Styles
	width  int

	total    int
	examined int
	patched  int
	failed   int
	skipped  int

	current  string
	failures []patch.Outcome

	done bool
	err  error
}

// NewPatchModel creates the run view for a bundle root.
func NewPatchModel(root string) PatchModel {
	styles := DefaultStyles()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Spinner

	return PatchModel{
		root:   root,
		bar:    progress.New(progress.WithDefaultGradient()),
		spin:   sp,
		styles: styles,
		width:  80,
	}
}

// Init implements tea.Model.
func (m PatchModel) Init() tea.Cmd {
	return m.spin.Tick
}

// Update handles progress events and the final report.
func (m PatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.bar.Width = msg.Width - 4 // Padding
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			// The run keeps going; quitting only closes the view.
			return m, tea.Quit
		}
		return m, nil

	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case ProgressMsg:
		if msg.Total > 0 {
			m.total = msg.Total
		}
		if msg.Index > 0 {
			m.examined = msg.Index
			m.current = msg.Path
		}
		if out := msg.Outcome; out != nil {
			switch {
			case out.Failed():
				m.failed++
				m.failures = append(m.failures, *out)
			case out.Changed:
				m.patched++
			case out.Reason == patch.ReasonNoSpace:
				m.skipped++
			}
		}
		return m, nil

	case DoneMsg:
		m.done = true
		m.err = msg.Err
		return m, tea.Quit
	}

	return m, nil
}

// View renders the run view.
func (m PatchModel) View() string {
	var sb strings.Builder

	sb.WriteString(m.styles.Title.Render("Relocating "+m.root) + "\n\n")

	ratio := 0.0
	if m.total > 0 {
		ratio = float64(m.examined) / float64(m.total)
	}
	sb.WriteString(m.bar.ViewAs(ratio) + "\n\n")

	counts := fmt.Sprintf("%d/%d examined  |  %d patched  |  %d skipped  |  %d failed",
		m.examined, m.total, m.patched, m.skipped, m.failed)
	sb.WriteString(m.styles.Info.Render(counts) + "\n")

	if !m.done && m.current != "" {
		sb.WriteString(m.spin.View() + m.styles.Muted.Render(m.relative(m.current)) + "\n")
	}

	if len(m.failures) > 0 {
		sb.WriteString("\n" + m.styles.Error.Render("Failures") + "\n")
		shown := m.failures
		if len(shown) > maxFailureLines {
			shown = shown[:maxFailureLines]
		}
		for _, f := range shown {
			line := fmt.Sprintf(" ✗ %s (%s)", m.relative(f.Path), f.Reason)
			sb.WriteString(m.styles.Muted.Render(line) + "\n")
		}
		if rest := len(m.failures) - len(shown); rest > 0 {
			sb.WriteString(m.styles.Muted.Render(fmt.Sprintf("   … and %d more", rest)) + "\n")
		}
	}

	if m.done {
		sb.WriteString("\n")
		switch {
		case m.err != nil:
			sb.WriteString(m.styles.Error.Render("✗ "+m.err.Error()) + "\n")
		case m.failed > 0:
			msg := fmt.Sprintf("✗ Relocation finished with %d failures", m.failed)
			sb.WriteString(m.styles.Error.Render(msg) + "\n")
		default:
			sb.WriteString(m.styles.Success.Render("✓ Relocation complete") + "\n")
		}
	}

	return sb.String()
}

// relative trims the bundle root from a path to keep lines short.
func (m PatchModel) relative(path string) string {
	trimmed := strings.TrimPrefix(path, m.root)
	return strings.TrimPrefix(trimmed, "/")
}
