package analysis

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dyike/StockPilot/internal/session"
)

type spyAssistant struct {
	calls  int
	prompt string
	reply  string
	err    error
	panics bool

	hadDeadline bool
}

func (s *spyAssistant) Run(ctx context.Context, prompt string) (string, error) {
	s.calls++
	s.prompt = prompt
	_, s.hadDeadline = ctx.Deadline()
	if s.panics {
		panic("collaborator exploded")
	}
	return s.reply, s.err
}

func TestBuildComparisonQuery(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{FullComparison, "Provide a comprehensive comparison between AAPL and MSFT including price trends, fundamentals, and market sentiment."},
		{PriceAnalysis, "Compare price performance and technical indicators for AAPL and MSFT."},
		{Fundamentals, "Compare key fundamental metrics and financial health of AAPL and MSFT."},
		{News, "Compare recent news and market sentiment for AAPL and MSFT."},
	}
	for _, tt := range tests {
		if got := BuildComparisonQuery("AAPL", "MSFT", tt.kind); got != tt.want {
			t.Errorf("%s: got %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestUnknownKindFallsBackToFullComparison(t *testing.T) {
	full := BuildComparisonQuery("AAPL", "MSFT", FullComparison)
	for _, k := range []Kind{-1, 4, 99} {
		if got := BuildComparisonQuery("AAPL", "MSFT", k); got != full {
			t.Errorf("Kind(%d): got %q", int(k), got)
		}
	}
	for _, s := range []string{"", "Sentiment", "full", "???"} {
		if got := BuildComparisonQuery("AAPL", "MSFT", ParseKind(s)); got != full {
			t.Errorf("ParseKind(%q): got %q", s, got)
		}
	}
}

func TestPriceAnalysisMentionsBothSymbolsOnly(t *testing.T) {
	got := BuildComparisonQuery("AAPL", "MSFT", ParseKind("PriceAnalysis"))
	if !strings.Contains(got, "AAPL") || !strings.Contains(got, "MSFT") {
		t.Fatalf("missing symbol in %q", got)
	}
	if strings.Contains(strings.ToLower(got), "fundamental") {
		t.Fatalf("price analysis should not mention fundamentals: %q", got)
	}
}

func TestParseKind(t *testing.T) {
	tests := map[string]Kind{
		"Full Comparison": FullComparison,
		"Price Analysis":  PriceAnalysis,
		"PriceAnalysis":   PriceAnalysis,
		"price-analysis":  PriceAnalysis,
		"FUNDAMENTALS":    Fundamentals,
		" news ":          News,
		"bogus":           FullComparison,
	}
	for in, want := range tests {
		if got := ParseKind(in); got != want {
			t.Errorf("ParseKind(%q) = %s, want %s", in, got, want)
		}
	}
	for _, k := range Kinds {
		if ParseKind(k.String()) != k {
			t.Errorf("label %q does not round-trip", k)
		}
	}
}

func TestBuildSingleStockQueryKeepsOrder(t *testing.T) {
	got := BuildSingleStockQuery("GOOGL", []string{"Price Trends", "Recent News"})
	if got != "Analyze GOOGL focusing on Price Trends, Recent News" {
		t.Fatalf("got %q", got)
	}
	got = BuildSingleStockQuery("GOOGL", []string{"Recent News", "Price Trends"})
	if got != "Analyze GOOGL focusing on Recent News, Price Trends" {
		t.Fatalf("order not preserved: %q", got)
	}
	if got := BuildSingleStockQuery("GOOGL", nil); got != "Analyze GOOGL focusing on " {
		t.Fatalf("empty metrics: %q", got)
	}
	labels := MetricLabels([]Metric{CompanyInfo, AnalystRecommendations})
	if strings.Join(labels, "|") != "Company Info|Analyst Recommendations" {
		t.Fatalf("labels = %v", labels)
	}
}

func TestRequestQuery(t *testing.T) {
	q, err := Request{Symbols: []string{"TSLA"}, Metrics: []string{"Company Info"}}.Query()
	if err != nil || q != "Analyze TSLA focusing on Company Info" {
		t.Fatalf("single: %q %v", q, err)
	}
	q, err = Request{Symbols: []string{"AAPL", "MSFT"}, Kind: News}.Query()
	if err != nil || q != "Compare recent news and market sentiment for AAPL and MSFT." {
		t.Fatalf("comparison: %q %v", q, err)
	}
	if _, err := (Request{}).Query(); !errors.Is(err, ErrSymbolCount) {
		t.Fatalf("no symbols: %v", err)
	}
	if got := (Request{Symbols: []string{"AAPL", "MSFT"}}).Describe(); got != "Analyzing AAPL and MSFT..." {
		t.Fatalf("describe = %q", got)
	}
}

func TestDispatchUnboundMakesNoCall(t *testing.T) {
	spy := &spyAssistant{}
	sess := session.New()

	_, err := Run(context.Background(), sess, Request{Symbols: []string{"AAPL"}})
	var derr *DispatchError
	if !errors.As(err, &derr) || derr.Kind != Unbound {
		t.Fatalf("err = %v, want Unbound", err)
	}
	if !errors.Is(err, ErrUnbound) {
		t.Fatalf("err should match ErrUnbound")
	}

	if _, err := Dispatch(context.Background(), nil, "q"); !errors.Is(err, ErrUnbound) {
		t.Fatalf("nil handle: %v", err)
	}
	if spy.calls != 0 {
		t.Fatalf("collaborator called %d times", spy.calls)
	}
}

func TestDispatchReturnsTextVerbatim(t *testing.T) {
	spy := &spyAssistant{reply: "## AAPL\n| a | b |\n"}
	sess := session.New()
	sess.SetVerified(spy)

	out, err := Run(context.Background(), sess, Request{Symbols: []string{"AAPL"}, Metrics: []string{"Price Trends"}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out != spy.reply || spy.prompt != "Analyze AAPL focusing on Price Trends" {
		t.Fatalf("out=%q prompt=%q", out, spy.prompt)
	}
	if !sess.Verified() {
		t.Fatal("dispatch must not change the session")
	}
}

func TestDispatchRemoteFailureKeepsSession(t *testing.T) {
	cases := map[string]*spyAssistant{
		"error": {err: errors.New("rate limited upstream")},
		"panic": {panics: true},
	}
	for name, spy := range cases {
		t.Run(name, func(t *testing.T) {
			sess := session.New()
			sess.SetVerified(spy)

			_, err := Run(context.Background(), sess, Request{Symbols: []string{"AAPL", "MSFT"}})
			var derr *DispatchError
			if !errors.As(err, &derr) || derr.Kind != RemoteFailure {
				t.Fatalf("err = %v, want RemoteFailure", err)
			}
			if !errors.Is(err, ErrRemoteFailure) {
				t.Fatal("err should match ErrRemoteFailure")
			}
			if spy.err != nil && !errors.Is(err, spy.err) {
				t.Fatal("cause should be wrapped")
			}
			if !sess.Verified() || sess.Assistant() == nil {
				t.Fatal("session must stay verified after a failed dispatch")
			}
		})
	}
}

func TestParseMetric(t *testing.T) {
	tests := map[string]Metric{
		"Price Trends":            PriceTrends,
		"analyst-recommendations": AnalystRecommendations,
		"info":                    CompanyInfo,
		"Recent News":             RecentNews,
		"news":                    RecentNews,
	}
	for in, want := range tests {
		got, err := ParseMetric(in)
		if err != nil || got != want {
			t.Errorf("ParseMetric(%q) = %s, %v; want %s", in, got, err, want)
		}
	}
	if _, err := ParseMetric("volume"); !errors.Is(err, ErrUnknownMetric) {
		t.Fatalf("expected ErrUnknownMetric, got %v", err)
	}
}

// emptyHandle is an Assistant whose nil pointer reports ErrNoAssistant.
type emptyHandle struct{ calls int }

func (h *emptyHandle) Run(ctx context.Context, prompt string) (string, error) {
	if h == nil {
		return "", session.ErrNoAssistant
	}
	h.calls++
	return "ok", nil
}

func TestDispatchTypedNilHandleIsUnbound(t *testing.T) {
	var h *emptyHandle
	var handle session.Assistant = h

	_, err := Dispatch(context.Background(), handle, "q")
	var derr *DispatchError
	if !errors.As(err, &derr) || derr.Kind != Unbound {
		t.Fatalf("err = %v, want Unbound", err)
	}
	if !errors.Is(err, ErrUnbound) {
		t.Fatal("err should match ErrUnbound")
	}
}

func TestDispatchAddsNoDeadline(t *testing.T) {
	spy := &spyAssistant{reply: "fine"}
	if _, err := Dispatch(context.Background(), spy, "q"); err != nil {
		t.Fatal(err)
	}
	if spy.hadDeadline {
		t.Fatal("Dispatch must not add a deadline to the caller's context")
	}
}
