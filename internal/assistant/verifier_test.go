package assistant

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components"
	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
	"github.com/sirupsen/logrus"
	"google.golang.org/genai"

	"github.com/dyike/StockPilot/internal/logger"
	"github.com/dyike/StockPilot/internal/session"
	"github.com/dyike/StockPilot/internal/tools"
	"github.com/dyike/StockPilot/pkg/dataflows"
)

type stubAssistant struct{ reply string }

func (s *stubAssistant) Run(ctx context.Context, prompt string) (string, error) {
	return s.reply, nil
}

type factorySpy struct {
	calls  int
	secret string
	err    error
	panic  bool
}

func (f *factorySpy) create(ctx context.Context, opts Options) (session.Assistant, error) {
	f.calls++
	f.secret = opts.APIKey
	if f.panic {
		panic("boom")
	}
	if f.err != nil {
		return nil, f.err
	}
	return &stubAssistant{reply: "ok"}, nil
}

type probeFunc func(ctx context.Context, opts Options) error

func (p probeFunc) Check(ctx context.Context, opts Options) error { return p(ctx, opts) }

func TestVerifyEmptySecretSkipsFactory(t *testing.T) {
	for _, secret := range []string{"", "   ", "\t\n"} {
		spy := &factorySpy{}
		v := &Verifier{Factory: spy.create}
		sess := session.New()
		sess.SetVerified(&stubAssistant{})

		err := v.Verify(context.Background(), sess, secret)
		if !errors.Is(err, ErrVerification) || !errors.Is(err, ErrEmptyKey) {
			t.Fatalf("secret %q: err = %v", secret, err)
		}
		if spy.calls != 0 {
			t.Fatalf("secret %q: factory called %d times", secret, spy.calls)
		}
		if sess.Verified() || sess.Assistant() != nil {
			t.Fatalf("secret %q: session not cleared", secret)
		}
	}
}

func TestVerifySuccessBindsHandle(t *testing.T) {
	spy := &factorySpy{}
	v := &Verifier{Factory: spy.create}
	sess := session.New()

	if err := v.Verify(context.Background(), sess, "  sk-good  "); err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if spy.calls != 1 || spy.secret != "sk-good" {
		t.Fatalf("factory calls=%d secret=%q", spy.calls, spy.secret)
	}
	if !sess.Verified() || sess.Assistant() == nil {
		t.Fatal("session should be verified with a handle")
	}
}

func TestVerifyFailureClearsSession(t *testing.T) {
	cases := []struct {
		name  string
		spy   *factorySpy
		probe Prober
		cause error
	}{
		{"factory error", &factorySpy{err: errors.New("bad key")}, nil, nil},
		{"factory panic", &factorySpy{panic: true}, nil, nil},
		{"probe rejects", &factorySpy{}, probeFunc(func(context.Context, Options) error { return ErrRejected }), ErrRejected},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v := &Verifier{Factory: tc.spy.create, Probe: tc.probe}
			sess := session.New()
			sess.SetVerified(&stubAssistant{})

			err := v.Verify(context.Background(), sess, "sk-bad")
			var verr *VerificationError
			if !errors.As(err, &verr) {
				t.Fatalf("err = %v, want *VerificationError", err)
			}
			if tc.cause != nil && !errors.Is(err, tc.cause) {
				t.Fatalf("err = %v, want cause %v", err, tc.cause)
			}
			if sess.Verified() || sess.Assistant() != nil {
				t.Fatal("session should be cleared after a failed verification")
			}
		})
	}
}

func TestVerifyTwiceWithSameSecret(t *testing.T) {
	spy := &factorySpy{}
	v := &Verifier{Factory: spy.create}
	sess := session.New()

	for i := 0; i < 2; i++ {
		if err := v.Verify(context.Background(), sess, "sk-same"); err != nil {
			t.Fatalf("attempt %d: %v", i+1, err)
		}
		if sess.State() != session.StateVerified {
			t.Fatalf("attempt %d: state = %s", i+1, sess.State())
		}
		if out, err := sess.Assistant().Run(context.Background(), "q"); err != nil || out != "ok" {
			t.Fatalf("attempt %d: handle unusable: %q %v", i+1, out, err)
		}
	}
}

func TestReverifyReplacesHandle(t *testing.T) {
	sess := session.New()
	first := &Verifier{Factory: func(context.Context, Options) (session.Assistant, error) {
		return &stubAssistant{reply: "first"}, nil
	}}
	second := &Verifier{Factory: func(context.Context, Options) (session.Assistant, error) {
		return &stubAssistant{reply: "second"}, nil
	}}

	if err := first.Verify(context.Background(), sess, "k1"); err != nil {
		t.Fatal(err)
	}
	if err := second.Verify(context.Background(), sess, "k2"); err != nil {
		t.Fatal(err)
	}
	out, _ := sess.Assistant().Run(context.Background(), "q")
	if out != "second" {
		t.Fatalf("handle not replaced, got %q", out)
	}
}

func TestHTTPProbe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		switch {
		case r.Header.Get("Authorization") == "Bearer good":
			w.Write([]byte(`{"data":[]}`))
		case r.Header.Get("x-goog-api-key") == "good":
			w.Write([]byte(`{"models":[]}`))
		default:
			w.WriteHeader(http.StatusUnauthorized)
		}
	}))
	defer srv.Close()

	p := NewHTTPProbe(5 * time.Second)
	ctx := context.Background()

	if err := p.Check(ctx, Options{Provider: "openai", BaseURL: srv.URL, APIKey: "good"}); err != nil {
		t.Errorf("openai good key: %v", err)
	}
	if err := p.Check(ctx, Options{Provider: "gemini", BaseURL: srv.URL + "/", APIKey: "good"}); err != nil {
		t.Errorf("gemini good key: %v", err)
	}
	if err := p.Check(ctx, Options{Provider: "deepseek", BaseURL: srv.URL, APIKey: "bad"}); !errors.Is(err, ErrRejected) {
		t.Errorf("bad key: err = %v, want ErrRejected", err)
	}
	if err := p.Check(ctx, Options{Provider: "ollama", APIKey: "x"}); !errors.Is(err, ErrUnknownProvider) {
		t.Errorf("unknown provider: err = %v", err)
	}
}

type emptyMarket struct{}

func (emptyMarket) Quote(context.Context, string) (*dataflows.Quote, error) {
	return nil, dataflows.ErrNotConfigured
}

func (emptyMarket) Profile(context.Context, string) (*dataflows.CompanyProfile, error) {
	return nil, dataflows.ErrNotConfigured
}

func (emptyMarket) Recommendations(context.Context, string) ([]dataflows.Recommendation, error) {
	return nil, dataflows.ErrNotConfigured
}

func (emptyMarket) CompanyNews(context.Context, string, int) ([]*dataflows.NewsArticle, error) {
	return nil, dataflows.ErrNotConfigured
}

func TestNewSelectsProvider(t *testing.T) {
	ctx := context.Background()
	base := Options{APIKey: "sk-test", Data: emptyMarket{}, Capabilities: tools.AllCapabilities(), MaxSteps: 3}

	opts := base
	opts.Provider = "openai"
	a, err := New(ctx, opts)
	if err != nil {
		t.Fatalf("openai: %v", err)
	}
	if _, ok := a.(*reactAssistant); !ok {
		t.Fatalf("openai handle is %T", a)
	}

	opts.Provider = "ollama"
	if _, err := New(ctx, opts); !errors.Is(err, ErrUnknownProvider) {
		t.Fatalf("unknown provider: err = %v", err)
	}

	opts = base
	opts.Data = nil
	if _, err := New(ctx, opts); err == nil {
		t.Fatal("expected an error without market data")
	}
}

func TestWithToolCalls(t *testing.T) {
	if got := withToolCalls("answer", nil); got != "answer" {
		t.Fatalf("no calls: %q", got)
	}
	got := withToolCalls("answer\n", []tools.Call{{Name: "get_stock_price", Arguments: `{"symbol":"AAPL"}`}})
	want := "answer\n\n---\n\n**Tool calls**\n\n- `get_stock_price({\"symbol\":\"AAPL\"})`\n"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestSplitResponse(t *testing.T) {
	resp := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: []*genai.Part{
		{Text: "Looking up "},
		{FunctionCall: &genai.FunctionCall{Name: "get_stock_price", Args: map[string]any{"symbol": "AAPL"}}},
		{Text: "prices"},
	}}}}}
	text, calls, err := splitResponse(resp)
	if err != nil {
		t.Fatal(err)
	}
	if text != "Looking up prices" || len(calls) != 1 || calls[0].Name != "get_stock_price" {
		t.Fatalf("text=%q calls=%d", text, len(calls))
	}

	if _, _, err := splitResponse(&genai.GenerateContentResponse{}); err == nil {
		t.Fatal("expected error for an empty response")
	}
	if !strings.Contains(systemPrompt(time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)), "2025-01-02") {
		t.Fatal("system prompt should carry the date")
	}
}

func TestLogCallback(t *testing.T) {
	var buf bytes.Buffer
	out, level, format := logger.Log.Out, logger.Log.Level, logger.Log.Formatter
	logger.Log.SetOutput(&buf)
	logger.Log.SetLevel(logrus.DebugLevel)
	logger.Log.SetFormatter(&logger.CustomFormatter{})
	t.Cleanup(func() {
		logger.Log.SetOutput(out)
		logger.Log.SetLevel(level)
		logger.Log.SetFormatter(format)
	})

	cb := &logCallback{provider: "openai"}
	ctx := context.Background()
	toolInfo := &callbacks.RunInfo{Name: "get_stock_price", Component: components.ComponentOfTool}
	cb.OnStart(ctx, toolInfo, &tool.CallbackInput{ArgumentsInJSON: `{"symbol":"AAPL"}`})
	cb.OnEnd(ctx, toolInfo, &tool.CallbackOutput{Response: `{"price":1}`})
	cb.OnError(ctx, nil, errors.New("boom"))

	for _, want := range []string{`args={"symbol":"AAPL"}`, "tool returned 11 bytes", "agent step failed: boom", "provider=openai"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("log missing %q:\n%s", want, buf.String())
		}
	}

	sr, sw := schema.Pipe[callbacks.CallbackOutput](1)
	sw.Close()
	cb.OnEndWithStreamOutput(ctx, toolInfo, sr)
}
