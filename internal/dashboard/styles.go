package dashboard

import "github.com/charmbracelet/lipgloss"

const sidebarWidth = 36

var (
	primary = lipgloss.Color("#7C3AED")
	accent  = lipgloss.Color("#3B82F6")
	success = lipgloss.Color("#10B981")
	warning = lipgloss.Color("#F59E0B")
	danger  = lipgloss.Color("#EF4444")
	muted   = lipgloss.Color("#6B7280")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primary)

	captionStyle = lipgloss.NewStyle().
			Foreground(muted).
			Italic(true)

	sidebarStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(primary).
			Padding(0, 1).
			Width(sidebarWidth)

	mainStyle = lipgloss.NewStyle().
			Padding(0, 2)

	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(primary).
			Padding(0, 1)

	tabStyle = lipgloss.NewStyle().
			Foreground(muted).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accent)

	focusedLabelStyle = labelStyle.
				Underline(true)

	successStyle = lipgloss.NewStyle().
			Foreground(success).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(danger).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(warning)

	infoStyle = lipgloss.NewStyle().
			Foreground(accent)

	helpStyle = lipgloss.NewStyle().
			Foreground(muted)

	selectedStyle = lipgloss.NewStyle().
			Foreground(success)

	resultStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(success)
)
