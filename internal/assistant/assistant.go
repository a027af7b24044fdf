// Package assistant builds the remote LLM assistant bound to a session and
// verifies the credential used to build it.
package assistant

import (
	"context"
	"errors"
	"fmt"

	"github.com/dyike/StockPilot/config"
	"github.com/dyike/StockPilot/internal/session"
	"github.com/dyike/StockPilot/internal/tools"
)

// Options configures one assistant handle.
type Options struct {
	Provider      string
	Model         string
	BaseURL       string
	APIKey        string
	MaxSteps      int
	ShowToolCalls bool
	Capabilities  tools.Capabilities
	Data          tools.MarketData
}

// OptionsFromConfig derives the handle options from cfg. The API key is
// left empty: it is supplied per verification. The recommendations tool is
// only offered when Finnhub is configured.
func OptionsFromConfig(cfg *config.Config, data tools.MarketData) Options {
	caps := tools.AllCapabilities()
	caps.AnalystRecommendations = cfg.FinnhubConfigured()
	return Options{
		Provider:      cfg.LLMProvider,
		Model:         cfg.Model,
		BaseURL:       cfg.BackendURL,
		MaxSteps:      cfg.MaxSteps,
		ShowToolCalls: cfg.ShowToolCalls,
		Capabilities:  caps,
		Data:          data,
	}
}

// Factory creates an assistant handle from options carrying the secret.
type Factory func(ctx context.Context, opts Options) (session.Assistant, error)

var ErrUnknownProvider = errors.New("unknown llm provider")

// New is the default Factory. It constructs the provider client; it does not
// contact the provider.
func New(ctx context.Context, opts Options) (session.Assistant, error) {
	if opts.Data == nil {
		return nil, errors.New("assistant: no market data source")
	}
	if opts.Model == "" {
		opts.Model = config.DefaultModel(opts.Provider)
	}
	if opts.MaxSteps <= 0 {
		opts.MaxSteps = 12
	}
	toolkit := tools.NewToolkit(opts.Data, opts.Capabilities)

	switch opts.Provider {
	case config.ProviderOpenAI, "":
		return newOpenAIAssistant(ctx, opts, toolkit)
	case config.ProviderDeepSeek:
		return newDeepSeekAssistant(ctx, opts, toolkit)
	case config.ProviderGemini:
		return newGeminiAssistant(ctx, opts, toolkit)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, opts.Provider)
	}
}
