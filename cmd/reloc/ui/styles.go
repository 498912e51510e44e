// Package ui provides the terminal styling and the live run view for the
// reloc CLI.
package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Semantic colors shared by every reloc view.
var (
	ColorAccent  = lipgloss.Color("#8BC34A") // Lime Green
	ColorError   = lipgloss.Color("#e53935") // Red
	ColorWarning = lipgloss.Color("#FFC107") // Yellow
	ColorInfo    = lipgloss.Color("#2196F3") // Blue
	ColorMuted   = lipgloss.Color("245")     // Grey
)

// Styles holds the styled components used by reloc's terminal output.
type Styles struct {
	Title  lipgloss.Style
	Header lipgloss.Style
	Body   lipgloss.Style
	Muted  lipgloss.Style
	Bold   lipgloss.Style

	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style

	Spinner lipgloss.Style
	Badge   lipgloss.Style
	Divider lipgloss.Style
}

// DefaultStyles returns the reloc style set.
func DefaultStyles() Styles {
	return Styles{
		Title: lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true),

		Header: lipgloss.NewStyle().
			Background(ColorAccent).
			Foreground(lipgloss.Color("#101F38")).
			Padding(0, 1).
			Bold(true),

		Body: lipgloss.NewStyle(),

		Muted: lipgloss.NewStyle().
			Foreground(ColorMuted),

		Bold: lipgloss.NewStyle().
			Bold(true),

		Success: lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true),

		Error: lipgloss.NewStyle().
			Foreground(ColorError).
			Bold(true),

		Warning: lipgloss.NewStyle().
			Foreground(ColorWarning).
			Bold(true),

		Info: lipgloss.NewStyle().
			Foreground(ColorInfo),

		Spinner: lipgloss.NewStyle().
			Foreground(ColorAccent),

		Badge: lipgloss.NewStyle().
			Background(ColorAccent).
			Foreground(lipgloss.Color("#101F38")).
			Padding(0, 1).
			Bold(true),

		Divider: lipgloss.NewStyle().
			Foreground(ColorMuted),
	}
}

// RenderDivider returns a horizontal divider of the given width.
func (s Styles) RenderDivider(width int) string {
	if width <= 0 {
		return ""
	}
	return s.Divider.Render(strings.Repeat("─", width))
}
