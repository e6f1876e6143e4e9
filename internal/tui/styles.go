package tui

import "github.com/charmbracelet/lipgloss"

var (
	primary = lipgloss.Color("#667eea")
	muted   = lipgloss.Color("#6b7280")
	warn    = lipgloss.Color("#fbbf24")
	danger  = lipgloss.Color("#ef4444")
)

type Styles struct {
	Header    lipgloss.Style
	Banner    lipgloss.Style
	TabActive lipgloss.Style
	Tab       lipgloss.Style
	Option    lipgloss.Style
	Selected  lipgloss.Style
	Blocked   lipgloss.Style
	Cursor    lipgloss.Style
	Result    lipgloss.Style
	Label     lipgloss.Style
	Muted     lipgloss.Style
	Error     lipgloss.Style
	Success   lipgloss.Style
	Footer    lipgloss.Style
}

func DefaultStyles() Styles {
	return Styles{
		Header: lipgloss.NewStyle().
			Background(primary).
			Foreground(lipgloss.Color("#ffffff")).
			Padding(0, 2).
			Bold(true),
		Banner: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ffffff")).
			Padding(0, 2).
			Bold(true),
		TabActive: lipgloss.NewStyle().
			Foreground(primary).
			Bold(true).
			Underline(true).
			Padding(0, 1),
		Tab: lipgloss.NewStyle().
			Foreground(muted).
			Padding(0, 1),
		Option: lipgloss.NewStyle(),
		Selected: lipgloss.NewStyle().
			Foreground(primary).
			Bold(true),
		Blocked: lipgloss.NewStyle().
			Foreground(muted).
			Faint(true),
		Cursor: lipgloss.NewStyle().
			Reverse(true),
		Result: lipgloss.NewStyle().
			PaddingLeft(2).
			BorderLeft(true).
			BorderStyle(lipgloss.ThickBorder()).
			BorderForeground(primary),
		Label: lipgloss.NewStyle().
			Foreground(muted).
			Bold(true),
		Muted: lipgloss.NewStyle().
			Foreground(muted),
		Error: lipgloss.NewStyle().
			Foreground(danger),
		Success: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10b981")),
		Footer: lipgloss.NewStyle().
			Foreground(muted).
			Padding(0, 2),
	}
}
