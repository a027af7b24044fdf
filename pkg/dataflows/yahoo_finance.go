package dataflows

import (
	"context"
	"fmt"
	"time"

	finance "github.com/piquette/finance-go"
	"github.com/piquette/finance-go/equity"
	"github.com/piquette/finance-go/quote"
	"github.com/shopspring/decimal"
)

// YahooFinanceClient handles Yahoo Finance data operations
type YahooFinanceClient struct {
	getQuote  func(symbol string) (*finance.Quote, error)
	getEquity func(symbol string) (*finance.Equity, error)
}

// NewYahooFinanceClient creates a new Yahoo Finance client
func NewYahooFinanceClient() *YahooFinanceClient {
	return &YahooFinanceClient{
		getQuote:  quote.Get,
		getEquity: equity.Get,
	}
}

// Quote gets current quote data for a symbol
func (yf *YahooFinanceClient) Quote(ctx context.Context, symbol string) (*Quote, error) {
	symbol = NormalizeSymbol(symbol)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	q, err := yf.getQuote(symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to get quote for %s: %w", symbol, err)
	}
	if q == nil {
		return nil, fmt.Errorf("no quote found for %s", symbol)
	}

	return &Quote{
		Symbol:        symbol,
		Name:          q.ShortName,
		Currency:      q.CurrencyID,
		Price:         decimal.NewFromFloat(q.RegularMarketPrice),
		Change:        decimal.NewFromFloat(q.RegularMarketChange),
		ChangePercent: decimal.NewFromFloat(q.RegularMarketChangePercent).Round(2),
		Open:          decimal.NewFromFloat(q.RegularMarketOpen),
		High:          decimal.NewFromFloat(q.RegularMarketDayHigh),
		Low:           decimal.NewFromFloat(q.RegularMarketDayLow),
		PrevClose:     decimal.NewFromFloat(q.RegularMarketPreviousClose),
		Week52High:    decimal.NewFromFloat(q.FiftyTwoWeekHigh),
		Week52Low:     decimal.NewFromFloat(q.FiftyTwoWeekLow),
		Volume:        int64(q.RegularMarketVolume),
		MarketState:   string(q.MarketState),
		Source:        "yahoo",
		Timestamp:     time.Unix(int64(q.RegularMarketTime), 0),
	}, nil
}

// Profile gets basic company information
func (yf *YahooFinanceClient) Profile(ctx context.Context, symbol string) (*CompanyProfile, error) {
	symbol = NormalizeSymbol(symbol)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e, err := yf.getEquity(symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to get company info for %s: %w", symbol, err)
	}
	if e == nil {
		return nil, fmt.Errorf("no company info found for %s", symbol)
	}

	name := e.LongName
	if name == "" {
		name = e.ShortName
	}

	return &CompanyProfile{
		Symbol:            symbol,
		Name:              name,
		Exchange:          e.FullExchangeName,
		Currency:          e.CurrencyID,
		QuoteType:         string(e.QuoteType),
		MarketCap:         int64(e.MarketCap),
		SharesOutstanding: int64(e.SharesOutstanding),
		TrailingPE:        e.TrailingPE,
		ForwardPE:         e.ForwardPE,
		EPS:               e.EpsTrailingTwelveMonths,
		PriceToBook:       e.PriceToBook,
		DividendYield:     e.TrailingAnnualDividendYield,
		Source:            "yahoo",
	}, nil
}
