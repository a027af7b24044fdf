package assistant

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/dyike/StockPilot/config"
)

// ErrRejected reports that the provider refused the credential.
var ErrRejected = errors.New("credential rejected by provider")

// Prober checks a credential against the provider.
type Prober interface {
	Check(ctx context.Context, opts Options) error
}

var defaultEndpoints = map[string]string{
	config.ProviderOpenAI:   "https://api.openai.com/v1",
	config.ProviderDeepSeek: "https://api.deepseek.com",
	config.ProviderGemini:   "https://generativelanguage.googleapis.com/v1beta",
}

// HTTPProbe lists the provider's models with the credential. Listing is free
// and needs only a valid key.
type HTTPProbe struct {
	client *resty.Client
}

func NewHTTPProbe(timeout time.Duration) *HTTPProbe {
	client := resty.New()
	client.SetTimeout(timeout)
	return &HTTPProbe{client: client}
}

func (p *HTTPProbe) Check(ctx context.Context, opts Options) error {
	provider := opts.Provider
	if provider == "" {
		provider = config.ProviderOpenAI
	}
	base := opts.BaseURL
	if base == "" {
		base = defaultEndpoints[provider]
	}
	if base == "" {
		return fmt.Errorf("%w: %s", ErrUnknownProvider, provider)
	}

	req := p.client.R().SetContext(ctx)
	if provider == config.ProviderGemini {
		req.SetHeader("x-goog-api-key", opts.APIKey)
	} else {
		req.SetAuthToken(opts.APIKey)
	}

	resp, err := req.Get(strings.TrimRight(base, "/") + "/models")
	if err != nil {
		return fmt.Errorf("reach %s: %w", provider, err)
	}
	switch code := resp.StatusCode(); {
	case code == http.StatusUnauthorized, code == http.StatusForbidden:
		return fmt.Errorf("%w (HTTP %d)", ErrRejected, code)
	case code >= 300:
		return fmt.Errorf("%s returned HTTP %d", provider, code)
	}
	return nil
}
