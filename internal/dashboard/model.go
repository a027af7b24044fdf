// Package dashboard is the terminal front end: a sidebar for API key
// verification and tabs for comparison and single-stock analysis.
//
// Remote calls run as tea.Cmds and only report back; the session is read and
// written exclusively in Update.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dyike/StockPilot/config"
	"github.com/dyike/StockPilot/internal/analysis"
	"github.com/dyike/StockPilot/internal/assistant"
	"github.com/dyike/StockPilot/internal/session"
)

// Connector builds an assistant handle from a secret without touching any
// session. *assistant.Verifier implements it.
type Connector interface {
	Connect(ctx context.Context, secret string) (session.Assistant, error)
}

type Tab int

const (
	TabComparison Tab = iota
	TabSingle
	TabInsights
)

var tabNames = []string{"Stock Comparison", "Single Stock Analysis", "Market Insights"}

func (t Tab) String() string { return tabNames[t] }

type field int

const (
	fieldKey field = iota
	fieldStockA
	fieldStockB
	fieldKind
	fieldSymbol
	fieldMetrics
)

type verifyResultMsg struct {
	handle session.Assistant
	err    error
}

type analysisResultMsg struct {
	req  analysis.Request
	text string
	err  error
}

// ConfigChangedMsg reports settings reloaded from disk.
type ConfigChangedMsg struct {
	Config config.Config
}

const aboutText = "This tool provides AI-powered stock analysis using a hosted LLM and " +
	"real-time market data. Compare stocks, analyze trends, and get detailed insights " +
	"to make informed investment decisions."

type Model struct {
	ctx       context.Context
	sess      *session.Session
	connector Connector
	onConfig  func(config.Config)
	provider  string
	keys      keyMap

	keyInput textinput.Model
	stockA   textinput.Model
	stockB   textinput.Model
	symbol   textinput.Model
	kind     int
	metrics  []analysis.Metric
	cursor   int
	focus    field
	tab      Tab

	authMsg   string
	authErr   bool
	busy      bool
	busyText  string
	spinner   spinner.Model
	result    string
	resultErr string
	notice    string
	viewport  viewport.Model
	width     int
	height    int
}

// New returns a dashboard over sess. onConfig, if set, is called from Update
// when a ConfigChangedMsg arrives.
func New(ctx context.Context, sess *session.Session, connector Connector, provider string, onConfig func(config.Config)) Model {
	keyInput := textinput.New()
	keyInput.Placeholder = "sk-..."
	keyInput.EchoMode = textinput.EchoPassword
	keyInput.EchoCharacter = '•'
	keyInput.Width = sidebarWidth - 4
	keyInput.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(primary)

	m := Model{
		ctx:       ctx,
		sess:      sess,
		connector: connector,
		onConfig:  onConfig,
		provider:  provider,
		keys:      defaultKeyMap(),
		keyInput:  keyInput,
		stockA:    symbolInput("e.g., AAPL"),
		stockB:    symbolInput("e.g., MSFT"),
		symbol:    symbolInput("e.g., GOOGL"),
		spinner:   sp,
		viewport:  viewport.New(80, 20),
		width:     120,
		height:    40,
	}
	m.resize()
	return m
}

func symbolInput(placeholder string) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = 16
	ti.Width = 16
	return ti
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		return m, nil

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case verifyResultMsg:
		return m.handleVerifyResult(msg)

	case analysisResultMsg:
		return m.handleAnalysisResult(msg)

	case ConfigChangedMsg:
		if m.onConfig != nil {
			m.onConfig(msg.Config)
		}
		m.provider = msg.Config.LLMProvider
		m.notice = "Settings reloaded. They apply at the next API key verification."
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			return m, tea.Quit
		}
		if key.Matches(msg, m.keys.ScrollUp, m.keys.ScrollDown) {
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
		if m.busy {
			return m, nil
		}
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	verified := m.sess.Verified()

	var cmd tea.Cmd
	switch {
	case key.Matches(msg, m.keys.Next):
		cmd = m.moveFocus(1)
		return m, cmd
	case key.Matches(msg, m.keys.Prev):
		cmd = m.moveFocus(-1)
		return m, cmd
	case verified && key.Matches(msg, m.keys.NextTab):
		cmd = m.selectTab((m.tab + 1) % Tab(len(tabNames)))
		return m, cmd
	case verified && key.Matches(msg, m.keys.PrevTab):
		cmd = m.selectTab((m.tab + Tab(len(tabNames)) - 1) % Tab(len(tabNames)))
		return m, cmd
	case verified && key.Matches(msg, m.keys.Tab1):
		cmd = m.selectTab(TabComparison)
		return m, cmd
	case verified && key.Matches(msg, m.keys.Tab2):
		cmd = m.selectTab(TabSingle)
		return m, cmd
	case verified && key.Matches(msg, m.keys.Tab3):
		cmd = m.selectTab(TabInsights)
		return m, cmd
	case key.Matches(msg, m.keys.Submit):
		return m.submit()
	}

	switch m.focus {
	case fieldKind:
		switch {
		case key.Matches(msg, m.keys.Left):
			m.kind = (m.kind + len(analysis.Kinds) - 1) % len(analysis.Kinds)
		case key.Matches(msg, m.keys.Right):
			m.kind = (m.kind + 1) % len(analysis.Kinds)
		}
		return m, nil
	case fieldMetrics:
		switch {
		case key.Matches(msg, m.keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, m.keys.Down):
			if m.cursor < len(analysis.Metrics)-1 {
				m.cursor++
			}
		case key.Matches(msg, m.keys.Toggle):
			m.toggleMetric(analysis.Metrics[m.cursor])
		}
		return m, nil
	}

	switch m.focus {
	case fieldKey:
		m.keyInput, cmd = m.keyInput.Update(msg)
	case fieldStockA:
		m.stockA, cmd = m.stockA.Update(msg)
	case fieldStockB:
		m.stockB, cmd = m.stockB.Update(msg)
	case fieldSymbol:
		m.symbol, cmd = m.symbol.Update(msg)
	}
	return m, cmd
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	switch m.focus {
	case fieldKey:
		return m.startVerify()
	case fieldStockA, fieldStockB, fieldKind:
		a, b := symbolValue(m.stockA), symbolValue(m.stockB)
		if a == "" || b == "" {
			m.resultErr = "Enter both stock symbols."
			return m, nil
		}
		return m.startAnalysis(analysis.Request{
			Symbols: []string{a, b},
			Kind:    analysis.Kinds[m.kind],
		})
	case fieldSymbol, fieldMetrics:
		s := symbolValue(m.symbol)
		if s == "" {
			m.resultErr = "Enter a stock symbol."
			return m, nil
		}
		return m.startAnalysis(analysis.Request{
			Symbols: []string{s},
			Metrics: analysis.MetricLabels(m.metrics),
		})
	}
	return m, nil
}

func (m Model) startVerify() (tea.Model, tea.Cmd) {
	secret := m.keyInput.Value()
	connector, ctx := m.connector, m.ctx

	m.busy = true
	m.busyText = "Verifying API key..."
	m.authMsg = ""
	return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
		handle, err := connector.Connect(ctx, secret)
		return verifyResultMsg{handle: handle, err: err}
	})
}

func (m Model) handleVerifyResult(msg verifyResultMsg) (tea.Model, tea.Cmd) {
	m.busy = false
	if err := assistant.Record(m.sess, msg.handle, msg.err); err != nil {
		m.authErr = true
		if errors.Is(err, assistant.ErrEmptyKey) {
			m.authMsg = "Please enter an API key."
		} else {
			m.authMsg = "Invalid API key. Please check and try again."
		}
		cmd := m.setFocus(fieldKey)
		return m, cmd
	}
	m.authErr = false
	m.authMsg = "API key verified successfully!"
	m.keyInput.Reset()
	cmd := m.selectTab(m.tab)
	return m, cmd
}

func (m Model) startAnalysis(req analysis.Request) (tea.Model, tea.Cmd) {
	handle, err := analysis.Gate(m.sess)
	if err != nil {
		m.resultErr = err.Error()
		return m, nil
	}
	query, err := req.Query()
	if err != nil {
		m.resultErr = err.Error()
		return m, nil
	}
	ctx := m.ctx

	m.busy = true
	m.busyText = req.Describe()
	m.resultErr = ""
	return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
		text, err := analysis.Dispatch(ctx, handle, query)
		return analysisResultMsg{req: req, text: text, err: err}
	})
}

func (m Model) handleAnalysisResult(msg analysisResultMsg) (tea.Model, tea.Cmd) {
	m.busy = false
	if msg.err != nil {
		m.resultErr = fmt.Sprintf("Analysis of %s failed: %v", strings.Join(msg.req.Symbols, " and "), msg.err)
		return m, nil
	}
	m.result = msg.text
	m.refreshResult()
	return m, nil
}

func (m *Model) toggleMetric(metric analysis.Metric) {
	for i, selected := range m.metrics {
		if selected == metric {
			m.metrics = append(m.metrics[:i:i], m.metrics[i+1:]...)
			return
		}
	}
	m.metrics = append(m.metrics, metric)
}

// visibleFields lists the focusable fields in display order.
func (m Model) visibleFields() []field {
	fields := []field{fieldKey}
	if !m.sess.Verified() {
		return fields
	}
	switch m.tab {
	case TabComparison:
		fields = append(fields, fieldStockA, fieldStockB)
		if symbolValue(m.stockA) != "" && symbolValue(m.stockB) != "" {
			fields = append(fields, fieldKind)
		}
	case TabSingle:
		fields = append(fields, fieldSymbol)
		if symbolValue(m.symbol) != "" {
			fields = append(fields, fieldMetrics)
		}
	}
	return fields
}

func (m *Model) moveFocus(delta int) tea.Cmd {
	fields := m.visibleFields()
	idx := 0
	for i, f := range fields {
		if f == m.focus {
			idx = i
		}
	}
	idx = (idx + delta + len(fields)) % len(fields)
	return m.setFocus(fields[idx])
}

func (m *Model) selectTab(t Tab) tea.Cmd {
	m.tab = t
	m.resultErr = ""
	switch t {
	case TabComparison:
		return m.setFocus(fieldStockA)
	case TabSingle:
		return m.setFocus(fieldSymbol)
	default:
		return m.setFocus(fieldKey)
	}
}

func (m *Model) setFocus(f field) tea.Cmd {
	m.focus = f
	m.keyInput.Blur()
	m.stockA.Blur()
	m.stockB.Blur()
	m.symbol.Blur()
	switch f {
	case fieldKey:
		return m.keyInput.Focus()
	case fieldStockA:
		return m.stockA.Focus()
	case fieldStockB:
		return m.stockB.Focus()
	case fieldSymbol:
		return m.symbol.Focus()
	}
	return nil
}

func (m *Model) resize() {
	w := m.width - sidebarWidth - 8
	if w < 30 {
		w = 30
	}
	h := m.height - 16
	if h < 5 {
		h = 5
	}
	m.viewport.Width = w
	m.viewport.Height = h
	m.refreshResult()
}

func (m *Model) refreshResult() {
	if m.result == "" {
		m.viewport.SetContent("")
		return
	}
	m.viewport.SetContent(RenderMarkdown(m.result, m.viewport.Width-2))
	m.viewport.GotoTop()
}

func symbolValue(ti textinput.Model) string {
	return strings.ToUpper(strings.TrimSpace(ti.Value()))
}

func providerLabel(provider string) string {
	switch provider {
	case config.ProviderDeepSeek:
		return "DeepSeek API Key"
	case config.ProviderGemini:
		return "Gemini API Key"
	default:
		return "OpenAI API Key"
	}
}
