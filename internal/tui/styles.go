package tui

import "github.com/charmbracelet/lipgloss"

// Row statuses used by the build table.
const (
	StatusPending   = "pending"
	StatusCompiling = "compiling"
	StatusBibTeX    = "bibtex"
	StatusIndex     = "index"
	StatusDone      = "done"
	StatusUpToDate  = "up-to-date"
	StatusWarnings  = "warnings"
	StatusError     = "error"
)

var (
	// HeaderStyle styles the column header row.
	HeaderStyle = lipgloss.NewStyle().Bold(true)
	// TitleStyle styles the table title.
	TitleStyle = lipgloss.NewStyle().Bold(true).Underline(true)

	ErrorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	WarningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	FaintStyle   = lipgloss.NewStyle().Faint(true)

	statusStyles = map[string]lipgloss.Style{
		StatusDone:     lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		StatusUpToDate: lipgloss.NewStyle().Foreground(lipgloss.Color("2")),

		StatusCompiling: lipgloss.NewStyle().Foreground(lipgloss.Color("4")),
		StatusBibTeX:    lipgloss.NewStyle().Foreground(lipgloss.Color("4")),
		StatusIndex:     lipgloss.NewStyle().Foreground(lipgloss.Color("4")),

		StatusWarnings: lipgloss.NewStyle().Foreground(lipgloss.Color("3")),

		StatusError: lipgloss.NewStyle().Foreground(lipgloss.Color("1")),

		StatusPending: lipgloss.NewStyle().Faint(true),
	}
)

// StatusStyle returns the lipgloss style for the given status string.
func StatusStyle(status string) lipgloss.Style {
	if s, ok := statusStyles[status]; ok {
		return s
	}
	return lipgloss.NewStyle()
}
