package dashboard

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dyike/StockPilot/config"
	"github.com/dyike/StockPilot/internal/assistant"
	"github.com/dyike/StockPilot/internal/session"
)

type spyAssistant struct {
	prompts []string
	reply   string
	err     error
}

func (s *spyAssistant) Run(ctx context.Context, prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	return s.reply, s.err
}

type fakeConnector struct {
	calls  int
	handle session.Assistant
	err    error
}

func (f *fakeConnector) Connect(ctx context.Context, secret string) (session.Assistant, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.handle, nil
}

// run executes cmd and feeds every resulting message back into m.
func run(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	for _, msg := range collect(cmd) {
		switch msg.(type) {
		case verifyResultMsg, analysisResultMsg:
			next, _ := m.Update(msg)
			m = next.(Model)
		}
	}
	return m
}

func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collect(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func press(t *testing.T, m Model, k tea.KeyType) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(tea.KeyMsg{Type: k})
	return next.(Model), cmd
}

func verifiedModel(t *testing.T, spy *spyAssistant) Model {
	t.Helper()
	sess := session.New()
	m := New(context.Background(), sess, &fakeConnector{handle: spy}, config.ProviderOpenAI, nil)
	m.keyInput.SetValue("sk-good")
	m, cmd := press(t, m, tea.KeyEnter)
	m = run(t, m, cmd)
	if !sess.Verified() {
		t.Fatal("expected a verified session")
	}
	return m
}

func TestUnverifiedShowsWarningOnly(t *testing.T) {
	m := New(context.Background(), session.New(), &fakeConnector{}, config.ProviderOpenAI, nil)
	view := m.View()
	if !strings.Contains(view, "Please enter your API key in the sidebar to begin.") {
		t.Fatal("missing unverified warning")
	}
	if strings.Contains(view, "Single Stock Analysis") {
		t.Fatal("tabs must be hidden until verified")
	}
	if !strings.Contains(view, "OpenAI API Key") {
		t.Fatal("missing key label")
	}
}

func TestVerifySuccessShowsTabs(t *testing.T) {
	m := verifiedModel(t, &spyAssistant{})
	view := m.View()
	for _, want := range []string{"API Key Status: Verified", "Stock Comparison", "Single Stock Analysis", "Market Insights", "API key verified successfully!"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
	if m.keyInput.Value() != "" {
		t.Error("key input should be cleared after verification")
	}
	if m.focus != fieldStockA {
		t.Errorf("focus = %d, want first symbol field", m.focus)
	}
}

func TestVerifyFailureClearsSession(t *testing.T) {
	sess := session.New()
	sess.SetVerified(&spyAssistant{})
	conn := &fakeConnector{err: &assistant.VerificationError{Provider: "openai", Err: assistant.ErrRejected}}
	m := New(context.Background(), sess, conn, config.ProviderOpenAI, nil)
	m.keyInput.SetValue("sk-bad")

	m, cmd := press(t, m, tea.KeyEnter)
	if !m.busy || !strings.Contains(m.View(), "Verifying API key...") {
		t.Fatal("expected busy indicator while verifying")
	}
	m = run(t, m, cmd)

	if sess.Verified() || sess.Assistant() != nil {
		t.Fatal("failed verification must clear the session")
	}
	if m.authMsg != "Invalid API key. Please check and try again." || !m.authErr {
		t.Fatalf("authMsg = %q", m.authMsg)
	}
	if m.busy {
		t.Fatal("busy flag not reset")
	}
}

func TestEmptyKeyUsesVerifierWithoutFactory(t *testing.T) {
	calls := 0
	v := &assistant.Verifier{Factory: func(context.Context, assistant.Options) (session.Assistant, error) {
		calls++
		return &spyAssistant{}, nil
	}}
	m := New(context.Background(), session.New(), v, config.ProviderOpenAI, nil)
	m.keyInput.SetValue("   ")

	m, cmd := press(t, m, tea.KeyEnter)
	m = run(t, m, cmd)

	if calls != 0 {
		t.Fatalf("factory called %d times", calls)
	}
	if m.authMsg != "Please enter an API key." {
		t.Fatalf("authMsg = %q", m.authMsg)
	}
}

func TestInputIgnoredWhileBusy(t *testing.T) {
	conn := &fakeConnector{handle: &spyAssistant{}}
	m := New(context.Background(), session.New(), conn, config.ProviderOpenAI, nil)
	m.keyInput.SetValue("sk-1")

	m, _ = press(t, m, tea.KeyEnter)
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	m = next.(Model)
	if m.keyInput.Value() != "sk-1" {
		t.Fatalf("typing while busy changed input to %q", m.keyInput.Value())
	}
	if cmd != nil {
		t.Fatal("no command expected while busy")
	}
	m, cmd = press(t, m, tea.KeyEnter)
	if cmd != nil {
		t.Fatal("second submit while busy must be ignored")
	}
	if conn.calls != 0 {
		t.Fatalf("connector called %d times before commands ran", conn.calls)
	}
}

func TestComparisonDispatch(t *testing.T) {
	spy := &spyAssistant{reply: "# Report\n\nAAPL vs MSFT"}
	m := verifiedModel(t, spy)

	m.stockA.SetValue("aapl")
	m.stockB.SetValue(" msft ")
	m, _ = press(t, m, tea.KeyTab)
	m, _ = press(t, m, tea.KeyTab)
	if m.focus != fieldKind {
		t.Fatalf("focus = %d, want kind selector", m.focus)
	}
	m, _ = press(t, m, tea.KeyRight)
	if !strings.Contains(m.View(), "Price Analysis") {
		t.Fatal("kind selector not shown")
	}

	m, cmd := press(t, m, tea.KeyEnter)
	if !strings.Contains(m.View(), "Analyzing AAPL and MSFT...") {
		t.Fatal("missing busy text")
	}
	m = run(t, m, cmd)

	if len(spy.prompts) != 1 || spy.prompts[0] != "Compare price performance and technical indicators for AAPL and MSFT." {
		t.Fatalf("prompts = %q", spy.prompts)
	}
	if m.result != spy.reply || m.resultErr != "" {
		t.Fatalf("result = %q err = %q", m.result, m.resultErr)
	}
}

func TestSingleStockMetricsKeepToggleOrder(t *testing.T) {
	spy := &spyAssistant{reply: "ok"}
	m := verifiedModel(t, spy)

	m, _ = press(t, m, tea.KeyF2)
	if m.tab != TabSingle || m.focus != fieldSymbol {
		t.Fatalf("tab=%s focus=%d", m.tab, m.focus)
	}
	m.symbol.SetValue("googl")
	m, _ = press(t, m, tea.KeyTab)
	if m.focus != fieldMetrics {
		t.Fatalf("focus = %d, want metrics", m.focus)
	}
	// Select Recent News first, then Price Trends.
	m, _ = press(t, m, tea.KeyDown)
	m, _ = press(t, m, tea.KeyDown)
	m, _ = press(t, m, tea.KeyDown)
	m, _ = press(t, m, tea.KeySpace)
	m, _ = press(t, m, tea.KeyUp)
	m, _ = press(t, m, tea.KeyUp)
	m, _ = press(t, m, tea.KeyUp)
	m, _ = press(t, m, tea.KeySpace)

	m, cmd := press(t, m, tea.KeyEnter)
	m = run(t, m, cmd)

	if len(spy.prompts) != 1 || spy.prompts[0] != "Analyze GOOGL focusing on Recent News, Price Trends" {
		t.Fatalf("prompts = %q", spy.prompts)
	}
}

func TestDispatchFailureKeepsVerified(t *testing.T) {
	spy := &spyAssistant{err: errors.New("provider timeout")}
	m := verifiedModel(t, spy)
	m.stockA.SetValue("AAPL")
	m.stockB.SetValue("MSFT")

	m, cmd := press(t, m, tea.KeyEnter)
	m = run(t, m, cmd)

	if !m.sess.Verified() {
		t.Fatal("session must stay verified")
	}
	if !strings.Contains(m.resultErr, "provider timeout") {
		t.Fatalf("resultErr = %q", m.resultErr)
	}
	if !strings.Contains(m.View(), "API Key Status: Verified") {
		t.Fatal("badge should remain")
	}
}

func TestInsightsTabAndConfigReload(t *testing.T) {
	var got config.Config
	spy := &spyAssistant{}
	sess := session.New()
	m := New(context.Background(), sess, &fakeConnector{handle: spy}, config.ProviderOpenAI, func(c config.Config) { got = c })
	m.keyInput.SetValue("sk")
	m, cmd := press(t, m, tea.KeyEnter)
	m = run(t, m, cmd)

	m, _ = press(t, m, tea.KeyF3)
	if !strings.Contains(m.View(), "Market Insights feature coming soon!") {
		t.Fatal("missing coming soon notice")
	}

	next, _ := m.Update(ConfigChangedMsg{Config: config.Config{LLMProvider: config.ProviderGemini}})
	m = next.(Model)
	if got.LLMProvider != config.ProviderGemini {
		t.Fatal("reconfigure callback not invoked")
	}
	view := m.View()
	if !strings.Contains(view, "Gemini API Key") || !strings.Contains(view, "Settings reloaded") {
		t.Fatal("reload not reflected in the view")
	}
	if !sess.Verified() {
		t.Fatal("a settings reload must not touch the session")
	}
}
