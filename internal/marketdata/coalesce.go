// Package marketdata merges concurrent identical market data lookups into a
// single upstream call. Nothing is retained once a call returns.
package marketdata

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/dyike/StockPilot/internal/logger"
	"github.com/dyike/StockPilot/pkg/dataflows"
)

// Source is the market data a Coalescer fronts.
type Source interface {
	dataflows.QuoteSource
	dataflows.ProfileSource
	dataflows.RecommendationSource
	dataflows.NewsSource
}

// Coalescer shares one in-flight upstream call between callers asking for the
// same data at the same time. The agent runtimes run tool calls in parallel,
// so a comparison can ask for the same quote twice in one step.
//
// Results are shared between callers and must be treated as read-only.
type Coalescer struct {
	source Source
	group  singleflight.Group
}

func New(source Source) *Coalescer {
	return &Coalescer{source: source}
}

func (c *Coalescer) Quote(ctx context.Context, symbol string) (*dataflows.Quote, error) {
	v, err := c.do(ctx, key("quote", symbol), func(ctx context.Context) (any, error) {
		return c.source.Quote(ctx, symbol)
	})
	if err != nil {
		return nil, err
	}
	return v.(*dataflows.Quote), nil
}

func (c *Coalescer) Profile(ctx context.Context, symbol string) (*dataflows.CompanyProfile, error) {
	v, err := c.do(ctx, key("profile", symbol), func(ctx context.Context) (any, error) {
		return c.source.Profile(ctx, symbol)
	})
	if err != nil {
		return nil, err
	}
	return v.(*dataflows.CompanyProfile), nil
}

func (c *Coalescer) Recommendations(ctx context.Context, symbol string) ([]dataflows.Recommendation, error) {
	v, err := c.do(ctx, key("recommendations", symbol), func(ctx context.Context) (any, error) {
		return c.source.Recommendations(ctx, symbol)
	})
	if err != nil {
		return nil, err
	}
	return v.([]dataflows.Recommendation), nil
}

func (c *Coalescer) CompanyNews(ctx context.Context, symbol string, limit int) ([]*dataflows.NewsArticle, error) {
	k := fmt.Sprintf("%s-%d", key("news", symbol), limit)
	v, err := c.do(ctx, k, func(ctx context.Context) (any, error) {
		return c.source.CompanyNews(ctx, symbol, limit)
	})
	if err != nil {
		return nil, err
	}
	return v.([]*dataflows.NewsArticle), nil
}

// do runs fetch under the first caller's context.
func (c *Coalescer) do(ctx context.Context, k string, fetch func(context.Context) (any, error)) (any, error) {
	v, err, shared := c.group.Do(k, func() (any, error) {
		return fetch(ctx)
	})
	if shared {
		logger.Log.Debugf("market data lookup shared: %s", k)
	}
	return v, err
}

func key(kind, symbol string) string {
	return kind + ":" + strings.ToUpper(strings.TrimSpace(symbol))
}
