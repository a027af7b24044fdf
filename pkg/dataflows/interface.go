package dataflows

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dyike/StockPilot/config"
	"github.com/dyike/StockPilot/internal/logger"
)

// DataFlowInterface provides high-level access to all data sources. Each
// lookup tries its sources in order and returns the first success.
type DataFlowInterface struct {
	quotes          []QuoteSource
	profiles        []ProfileSource
	recommendations []RecommendationSource
	news            []NewsSource
}

// NewDataFlowInterface wires the sources available under cfg. Longport is
// preferred for prices when configured, Finnhub for news when a key exists.
func NewDataFlowInterface(cfg *config.Config) *DataFlowInterface {
	dfi := &DataFlowInterface{}
	yahoo := NewYahooFinanceClient()
	finnhub := NewFinnhubClient(cfg.FinnhubAPIKey, "")

	var longport *LongportClient
	if cfg.LongportConfigured() {
		lp, err := NewLongportClient(cfg)
		if err != nil {
			logger.Log.Warnf("longport unavailable, using yahoo only: %v", err)
		} else {
			longport = lp
		}
	}

	if longport != nil {
		dfi.quotes = append(dfi.quotes, longport)
	}
	dfi.quotes = append(dfi.quotes, yahoo)
	dfi.profiles = append(dfi.profiles, yahoo)
	if longport != nil {
		dfi.profiles = append(dfi.profiles, longport)
	}

	dfi.recommendations = append(dfi.recommendations, finnhub)
	if finnhub.Configured() {
		dfi.news = append(dfi.news, finnhub)
	}
	dfi.news = append(dfi.news, NewGoogleNewsClient("", cfg.NewsLanguage, cfg.NewsCountry))

	return dfi
}

// NewDataFlowInterfaceWith builds an interface over explicit sources.
func NewDataFlowInterfaceWith(quotes []QuoteSource, profiles []ProfileSource, recs []RecommendationSource, news []NewsSource) *DataFlowInterface {
	return &DataFlowInterface{quotes: quotes, profiles: profiles, recommendations: recs, news: news}
}

func (dfi *DataFlowInterface) Quote(ctx context.Context, symbol string) (*Quote, error) {
	if err := requireSymbol(symbol); err != nil {
		return nil, err
	}
	var errs []error
	for _, src := range dfi.quotes {
		q, err := src.Quote(ctx, symbol)
		if err == nil {
			return q, nil
		}
		errs = append(errs, err)
	}
	return nil, joinSourceErrors("quote", symbol, errs)
}

func (dfi *DataFlowInterface) Profile(ctx context.Context, symbol string) (*CompanyProfile, error) {
	if err := requireSymbol(symbol); err != nil {
		return nil, err
	}
	var errs []error
	for _, src := range dfi.profiles {
		p, err := src.Profile(ctx, symbol)
		if err == nil {
			return p, nil
		}
		errs = append(errs, err)
	}
	return nil, joinSourceErrors("company info", symbol, errs)
}

func (dfi *DataFlowInterface) Recommendations(ctx context.Context, symbol string) ([]Recommendation, error) {
	if err := requireSymbol(symbol); err != nil {
		return nil, err
	}
	var errs []error
	for _, src := range dfi.recommendations {
		r, err := src.Recommendations(ctx, symbol)
		if err == nil {
			return r, nil
		}
		errs = append(errs, err)
	}
	return nil, joinSourceErrors("analyst recommendations", symbol, errs)
}

func (dfi *DataFlowInterface) CompanyNews(ctx context.Context, symbol string, limit int) ([]*NewsArticle, error) {
	if err := requireSymbol(symbol); err != nil {
		return nil, err
	}
	var errs []error
	for _, src := range dfi.news {
		n, err := src.CompanyNews(ctx, symbol, limit)
		if err == nil {
			return n, nil
		}
		errs = append(errs, err)
	}
	return nil, joinSourceErrors("company news", symbol, errs)
}

func requireSymbol(symbol string) error {
	if strings.TrimSpace(symbol) == "" {
		return errors.New("symbol parameter is required")
	}
	return nil
}

func joinSourceErrors(what, symbol string, errs []error) error {
	if len(errs) == 0 {
		return fmt.Errorf("no %s source available for %s: %w", what, NormalizeSymbol(symbol), ErrNotConfigured)
	}
	return fmt.Errorf("%s for %s: %w", what, NormalizeSymbol(symbol), errors.Join(errs...))
}
