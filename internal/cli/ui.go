package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dyike/StockPilot/internal/analysis"
	"github.com/dyike/StockPilot/internal/dashboard"
)

const reportWidth = 100

// UI styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED")).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#3B82F6")).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#3B82F6")).
			Padding(0, 2)

	completedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F59E0B"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EF4444")).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#3B82F6"))

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280"))
)

func displayError(w io.Writer, err error) {
	fmt.Fprintln(w, errorStyle.Render("❌ Error: "+err.Error()))
}

func displayInfo(w io.Writer, message string) {
	fmt.Fprintln(w, infoStyle.Render("ℹ️  "+message))
}

func displaySuccess(w io.Writer, message string) {
	fmt.Fprintln(w, completedStyle.Render("✅ "+message))
}

func displayWarning(w io.Writer, message string) {
	fmt.Fprintln(w, warningStyle.Render("⚠️  "+message))
}

// displayReport prints the assistant's markdown under a boxed title.
func displayReport(w io.Writer, title, markdown string) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, headerStyle.Render(title))
	fmt.Fprintln(w, dashboard.RenderMarkdown(markdown, reportWidth))
}

// statusLine renders "Label: ✅ Configured" or its negative.
func statusLine(label string, ok bool) string {
	name := fmt.Sprintf("%-22s", label+":")
	if ok {
		return name + completedStyle.Render("✅ Configured")
	}
	return name + mutedStyle.Render("❌ Not configured")
}

func reportTitle(req analysis.Request) string {
	switch len(req.Symbols) {
	case 2:
		return fmt.Sprintf("%s vs %s: %s", req.Symbols[0], req.Symbols[1], req.Kind)
	case 1:
		if len(req.Metrics) == 0 {
			return req.Symbols[0] + " Analysis"
		}
		return fmt.Sprintf("%s: %s", req.Symbols[0], strings.Join(req.Metrics, ", "))
	default:
		return "Stock Analysis"
	}
}
