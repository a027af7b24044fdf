package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/dyike/StockPilot/config"
	"github.com/dyike/StockPilot/internal/analysis"
	"github.com/dyike/StockPilot/internal/assistant"
	"github.com/dyike/StockPilot/internal/dashboard"
	"github.com/dyike/StockPilot/internal/debug"
	"github.com/dyike/StockPilot/internal/logger"
	"github.com/dyike/StockPilot/internal/marketdata"
	"github.com/dyike/StockPilot/internal/session"
	"github.com/dyike/StockPilot/internal/storage"
	"github.com/dyike/StockPilot/pkg/dataflows"
)

type globalFlags struct {
	configPath string
	debug      bool
	noInput    bool
}

// app carries what every command needs once setup has run.
type app struct {
	flags       globalFlags
	cfg         *config.Config
	settings    *config.Manager
	out         io.Writer
	interactive bool
	logCloser   io.Closer
	audit       *storage.Store

	newVerifier func(cfg *config.Config) *assistant.Verifier
}

func newApp() *app {
	return &app{
		out: os.Stdout,
		newVerifier: func(cfg *config.Config) *assistant.Verifier {
			return assistant.NewVerifier(cfg, marketData(cfg))
		},
	}
}

// setup loads configuration, merges the settings file over it and routes
// logging to the log file.
func (a *app) setup(cmd *cobra.Command) error {
	cfg := config.DefaultConfig()

	settings, err := config.NewManager(
		config.WithConfigPath(a.flags.configPath),
		config.WithInitialConfig(cfg),
	)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	cfg.ApplySettings(settings.Get())
	if a.flags.debug {
		cfg.LogLevel = "debug"
	}

	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("failed to create directories: %w", err)
	}
	closer, err := logger.InitLogger(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	a.cfg = cfg
	a.settings = settings
	a.logCloser = closer
	a.out = cmd.OutOrStdout()
	a.interactive = !a.flags.noInput && isatty.IsTerminal(os.Stdin.Fd())

	audit, err := storage.Open(filepath.Join(cfg.DataDir, "audit.db"))
	if err != nil {
		logger.Log.Warnf("verification audit disabled: %v", err)
	} else {
		a.audit = audit
	}

	if err := debug.NewEinoDebugger(cfg).Initialize(cmd.Context()); err != nil {
		logger.Log.Warnf("eino debug disabled: %v", err)
	}
	logger.Log.Debugf("command %s: provider=%s model=%s settings=%s", cmd.Name(), cfg.LLMProvider, cfg.Model, settings.Path())
	return nil
}

func (a *app) close() {
	if a.audit != nil {
		_ = a.audit.Close()
		a.audit = nil
	}
	if a.logCloser != nil {
		_ = a.logCloser.Close()
		a.logCloser = nil
	}
}

func marketData(cfg *config.Config) *marketdata.Coalescer {
	return marketdata.New(dataflows.NewDataFlowInterface(cfg))
}

// connector builds the verifier for cfg, audited when the audit log is open.
func (a *app) connector(cfg *config.Config) dashboard.Connector {
	v := a.newVerifier(cfg)
	if a.audit == nil {
		return v
	}
	provider, model := cfg.LLMProvider, cfg.Model
	if provider == "" {
		provider = config.ProviderOpenAI
	}
	if model == "" {
		model = config.DefaultModel(provider)
	}
	return storage.NewAuditedConnector(v, a.audit, provider, model)
}

// liveConnector lets the dashboard keep one Connector while settings reloads
// swap the verifier behind it.
type liveConnector struct {
	mu sync.Mutex
	c  dashboard.Connector
}

func (c *liveConnector) Connect(ctx context.Context, secret string) (session.Assistant, error) {
	c.mu.Lock()
	inner := c.c
	c.mu.Unlock()
	return inner.Connect(ctx, secret)
}

func (c *liveConnector) swap(next dashboard.Connector) {
	c.mu.Lock()
	c.c = next
	c.mu.Unlock()
}

func (a *app) runDashboard(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	conn := &liveConnector{c: a.connector(a.cfg)}
	onConfig := func(s config.Config) {
		next := *a.cfg
		next.ApplySettings(s)
		conn.swap(a.connector(&next))
		logger.Log.Infof("dashboard settings reloaded: provider=%s model=%s", next.LLMProvider, next.Model)
	}

	model := dashboard.New(ctx, session.New(), conn, a.cfg.LLMProvider, onConfig)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if err := a.settings.Watch(ctx, func(c config.Config) {
		p.Send(dashboard.ConfigChangedMsg{Config: c})
	}); err != nil {
		logger.Log.Warnf("settings watch disabled: %v", err)
	}

	logger.Log.Info("dashboard started")
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("dashboard: %w", err)
	}
	logger.Log.Info("dashboard stopped")
	return nil
}

// resolveAPIKey picks the credential from the flag, then the provider's
// environment variable, then an interactive prompt.
func (a *app) resolveAPIKey(flag string) (string, error) {
	if key := strings.TrimSpace(flag); key != "" {
		return key, nil
	}
	if key := strings.TrimSpace(a.cfg.ProviderAPIKey()); key != "" {
		return key, nil
	}
	if !a.interactive {
		return "", nil
	}
	return PromptForAPIKey(providerName(a.cfg.LLMProvider))
}

// connect verifies a credential and returns a session bound to it.
func (a *app) connect(ctx context.Context, apiKey string) (*session.Session, error) {
	key, err := a.resolveAPIKey(apiKey)
	if err != nil {
		return nil, err
	}

	sess := session.New()
	displayInfo(a.out, "Verifying API key...")
	handle, err := a.connector(a.cfg).Connect(ctx, key)
	if err := assistant.Record(sess, handle, err); err != nil {
		if errors.Is(err, assistant.ErrEmptyKey) {
			return nil, fmt.Errorf("please enter an API key (use --api-key or set %s)", a.cfg.ProviderKeyEnv())
		}
		return nil, fmt.Errorf("invalid API key, please check and try again: %w", err)
	}
	displaySuccess(a.out, "API key verified successfully!")
	return sess, nil
}

func (a *app) runAnalysis(ctx context.Context, sess *session.Session, req analysis.Request) error {
	displayInfo(a.out, req.Describe())

	text, err := analysis.Run(ctx, sess, req)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}
	displayReport(a.out, reportTitle(req), text)
	return nil
}

// symbols validates args and prompts for any that are missing.
func (a *app) symbols(args []string, want int) ([]string, error) {
	out := make([]string, 0, want)
	for _, arg := range args {
		symbol, err := normalizeSymbol(arg)
		if err != nil {
			return nil, err
		}
		out = append(out, symbol)
	}
	for len(out) < want {
		if !a.interactive {
			return nil, fmt.Errorf("expected %d stock symbols, got %d", want, len(out))
		}
		symbol, err := PromptForTicker(symbolPrompt(len(out), want))
		if err != nil {
			return nil, err
		}
		out = append(out, symbol)
	}
	return out, nil
}

func (a *app) resolveKind(flag string) (analysis.Kind, error) {
	if strings.TrimSpace(flag) != "" {
		return analysis.ParseKind(flag), nil
	}
	if !a.interactive {
		return analysis.FullComparison, nil
	}
	return PromptForKind()
}

func (a *app) resolveMetrics(flags []string) ([]analysis.Metric, error) {
	if len(flags) == 0 {
		if !a.interactive {
			return analysis.Metrics, nil
		}
		return PromptForMetrics()
	}

	var metrics []analysis.Metric
	seen := map[analysis.Metric]bool{}
	for _, f := range flags {
		m, err := analysis.ParseMetric(f)
		if err != nil {
			return nil, err
		}
		if !seen[m] {
			seen[m] = true
			metrics = append(metrics, m)
		}
	}
	return metrics, nil
}

func symbolPrompt(have, want int) string {
	if want == 1 {
		return "Enter Stock Symbol (e.g., GOOGL):"
	}
	if have == 0 {
		return "Enter First Stock Symbol (e.g., AAPL):"
	}
	return "Enter Second Stock Symbol (e.g., MSFT):"
}

func providerName(provider string) string {
	switch provider {
	case config.ProviderDeepSeek:
		return "DeepSeek"
	case config.ProviderGemini:
		return "Gemini"
	default:
		return "OpenAI"
	}
}
