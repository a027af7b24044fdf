package dataflows

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrNotConfigured is returned by sources whose credentials are missing.
var ErrNotConfigured = errors.New("data source not configured")

// Quote is the latest price snapshot of a symbol.
type Quote struct {
	Symbol        string          `json:"symbol"`
	Name          string          `json:"name,omitempty"`
	Currency      string          `json:"currency,omitempty"`
	Price         decimal.Decimal `json:"price"`
	Change        decimal.Decimal `json:"change"`
	ChangePercent decimal.Decimal `json:"change_percent"`
	Open          decimal.Decimal `json:"open"`
	High          decimal.Decimal `json:"high"`
	Low           decimal.Decimal `json:"low"`
	PrevClose     decimal.Decimal `json:"previous_close"`
	Week52High    decimal.Decimal `json:"fifty_two_week_high,omitempty"`
	Week52Low     decimal.Decimal `json:"fifty_two_week_low,omitempty"`
	Volume        int64           `json:"volume"`
	MarketState   string          `json:"market_state,omitempty"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
}

// CompanyProfile holds descriptive and valuation data about an issuer.
type CompanyProfile struct {
	Symbol            string  `json:"symbol"`
	Name              string  `json:"name"`
	Exchange          string  `json:"exchange,omitempty"`
	Currency          string  `json:"currency,omitempty"`
	QuoteType         string  `json:"quote_type,omitempty"`
	MarketCap         int64   `json:"market_cap,omitempty"`
	SharesOutstanding int64   `json:"shares_outstanding,omitempty"`
	TrailingPE        float64 `json:"trailing_pe,omitempty"`
	ForwardPE         float64 `json:"forward_pe,omitempty"`
	EPS               float64 `json:"eps_ttm,omitempty"`
	PriceToBook       float64 `json:"price_to_book,omitempty"`
	DividendYield     float64 `json:"dividend_yield,omitempty"`
	LotSize           int     `json:"lot_size,omitempty"`
	Source            string  `json:"source"`
}

// Recommendation is one period of aggregated analyst ratings.
type Recommendation struct {
	Period     string `json:"period"`
	StrongBuy  int    `json:"strong_buy"`
	Buy        int    `json:"buy"`
	Hold       int    `json:"hold"`
	Sell       int    `json:"sell"`
	StrongSell int    `json:"strong_sell"`
}

// Total returns the number of analysts counted in the period.
func (r Recommendation) Total() int {
	return r.StrongBuy + r.Buy + r.Hold + r.Sell + r.StrongSell
}

// NewsArticle represents a news article
type NewsArticle struct {
	Title       string    `json:"title"`
	Summary     string    `json:"summary,omitempty"`
	URL         string    `json:"url"`
	Source      string    `json:"source"`
	PublishedAt time.Time `json:"published_at"`
}

type QuoteSource interface {
	Quote(ctx context.Context, symbol string) (*Quote, error)
}

type ProfileSource interface {
	Profile(ctx context.Context, symbol string) (*CompanyProfile, error)
}

type RecommendationSource interface {
	Recommendations(ctx context.Context, symbol string) ([]Recommendation, error)
}

type NewsSource interface {
	CompanyNews(ctx context.Context, symbol string, limit int) ([]*NewsArticle, error)
}
