// Package styles provides the shared lipgloss styles for git-loom output.
//
// Color is decided once at startup (flags, NO_COLOR, TERM, TTY detection)
// and read-only afterwards; Render falls back to plain text when disabled.
package styles

import "charm.land/lipgloss/v2"

// Color roles for the status graph.
var (
	// Graph structure: lines, connectors, dots on the integration line.
	Graph = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	// Branch names in brackets.
	Branch = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	// Labels like (upstream) and (common base).
	Label = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	// Dimmed secondary text: dates, hashes, "no changes".
	Dim = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	// Commit message text.
	Message = lipgloss.NewStyle().Foreground(lipgloss.Color("248"))
	// Short ID prefix.
	ShortID = lipgloss.NewStyle().Foreground(lipgloss.Color("4")).Underline(true)
	// Staged (index) file status, matching git's convention.
	Staged = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	// Unstaged (worktree) file status.
	Unstaged = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))

	// Success and Error decorate the ✓ and × message prefixes.
	Success = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	Error   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	// Hint decorates the › continuation arrows of multi-line errors.
	Hint = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
)

// BranchDots rotate through feature branch sections.
var BranchDots = []lipgloss.Style{
	lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
	lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
	lipgloss.NewStyle().Foreground(lipgloss.Color("5")),
	lipgloss.NewStyle().Foreground(lipgloss.Color("4")),
	lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
	lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
}

var enabled = true

// SetEnabled toggles colored output. Called once at startup.
func SetEnabled(on bool) { enabled = on }

// Enabled reports whether colored output is on.
func Enabled() bool { return enabled }

// Render applies a style when color is enabled, plain text otherwise.
func Render(style lipgloss.Style, s string) string {
	if !enabled || s == "" {
		return s
	}
	return style.Render(s)
}
