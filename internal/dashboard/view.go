package dashboard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dyike/StockPilot/internal/analysis"
)

func (m Model) View() string {
	return lipgloss.JoinHorizontal(lipgloss.Top, m.sidebarView(), m.mainView())
}

func (m Model) sidebarView() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Authentication"))
	b.WriteString("\n\n")
	b.WriteString(m.label(providerLabel(m.provider), fieldKey))
	b.WriteString("\n")
	b.WriteString(m.keyInput.View())
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("Enter your API key to access the analysis tools. Press enter to verify."))
	b.WriteString("\n")

	if m.authMsg != "" {
		b.WriteString("\n")
		if m.authErr {
			b.WriteString(errorStyle.Render(m.authMsg))
		} else {
			b.WriteString(successStyle.Render(m.authMsg))
		}
		b.WriteString("\n")
	}
	if m.sess.Verified() {
		b.WriteString("\n")
		b.WriteString(successStyle.Render("✅ API Key Status: Verified"))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(labelStyle.Render("About"))
	b.WriteString("\n")
	b.WriteString(helpStyle.Render(aboutText))
	return sidebarStyle.Render(b.String())
}

func (m Model) mainView() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("AI Investment Analysis Dashboard 💸"))
	b.WriteString("\n")
	b.WriteString(captionStyle.Render("Comprehensive stock analysis tool powered by AI. Compare stocks, get real-time insights, and generate detailed investment reports."))
	b.WriteString("\n\n")

	if m.notice != "" {
		b.WriteString(infoStyle.Render(m.notice))
		b.WriteString("\n\n")
	}

	if !m.sess.Verified() {
		b.WriteString(warningStyle.Render("Please enter your API key in the sidebar to begin."))
		b.WriteString("\n")
		if m.busy {
			b.WriteString("\n" + m.spinner.View() + " " + m.busyText + "\n")
		}
		b.WriteString("\n" + helpStyle.Render(m.keys.helpLine(false)))
		return mainStyle.Render(b.String())
	}

	b.WriteString(m.tabsView())
	b.WriteString("\n\n")
	switch m.tab {
	case TabComparison:
		b.WriteString(m.comparisonView())
	case TabSingle:
		b.WriteString(m.singleView())
	case TabInsights:
		b.WriteString(infoStyle.Render("Market Insights feature coming soon!"))
		b.WriteString("\n")
	}

	if m.busy {
		b.WriteString("\n" + m.spinner.View() + " " + m.busyText + "\n")
	}
	if m.resultErr != "" {
		b.WriteString("\n" + errorStyle.Render(m.resultErr) + "\n")
	}
	if m.result != "" && m.tab != TabInsights {
		b.WriteString("\n" + resultStyle.Render(m.viewport.View()) + "\n")
	}
	b.WriteString("\n" + helpStyle.Render(m.keys.helpLine(true)))
	return mainStyle.Render(b.String())
}

func (m Model) tabsView() string {
	tabs := make([]string, 0, len(tabNames))
	for i, name := range tabNames {
		if Tab(i) == m.tab {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, tabStyle.Render(name))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) comparisonView() string {
	left := m.label("First Stock Symbol", fieldStockA) + "\n" + m.stockA.View()
	right := m.label("Second Stock Symbol", fieldStockB) + "\n" + m.stockB.View()
	out := lipgloss.JoinHorizontal(lipgloss.Top, lipgloss.NewStyle().Width(30).Render(left), right) + "\n"

	if symbolValue(m.stockA) == "" || symbolValue(m.stockB) == "" {
		return out
	}
	out += "\n" + m.label("Choose Analysis Type", fieldKind) + "\n"
	opts := make([]string, 0, len(analysis.Kinds))
	for i, k := range analysis.Kinds {
		if i == m.kind {
			opts = append(opts, selectedStyle.Render("◉ "+k.String()))
		} else {
			opts = append(opts, helpStyle.Render("○ "+k.String()))
		}
	}
	out += strings.Join(opts, "  ") + "\n"
	out += helpStyle.Render("←/→ change type • enter Generate Analysis") + "\n"
	return out
}

func (m Model) singleView() string {
	out := m.label("Enter Stock Symbol", fieldSymbol) + "\n" + m.symbol.View() + "\n"
	if symbolValue(m.symbol) == "" {
		return out
	}
	out += "\n" + m.label("Select Metrics", fieldMetrics) + "\n"
	for i, metric := range analysis.Metrics {
		cursor := "  "
		if m.focus == fieldMetrics && i == m.cursor {
			cursor = "> "
		}
		box := "[ ]"
		line := helpStyle.Render(metric.String())
		if pos := m.metricPosition(metric); pos > 0 {
			box = fmt.Sprintf("[%d]", pos)
			line = selectedStyle.Render(metric.String())
		}
		out += cursor + box + " " + line + "\n"
	}
	out += helpStyle.Render("↑/↓ move • space select • enter Analyze") + "\n"
	return out
}

// metricPosition is the 1-based selection order of metric, 0 if unselected.
func (m Model) metricPosition(metric analysis.Metric) int {
	for i, selected := range m.metrics {
		if selected == metric {
			return i + 1
		}
	}
	return 0
}

func (m Model) label(text string, f field) string {
	if m.focus == f {
		return focusedLabelStyle.Render(text)
	}
	return labelStyle.Render(text)
}
