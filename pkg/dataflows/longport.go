package dataflows

import (
	"context"
	"errors"
	"fmt"
	"time"

	lpconfig "github.com/longportapp/openapi-go/config"
	"github.com/longportapp/openapi-go/quote"
	"github.com/shopspring/decimal"

	"github.com/dyike/StockPilot/config"
)

type LongportClient struct {
	quoteCtx *quote.QuoteContext
}

func NewLongportClient(cfg *config.Config) (*LongportClient, error) {
	if !cfg.LongportConfigured() {
		return nil, fmt.Errorf("longport: %w", ErrNotConfigured)
	}

	conf, err := lpconfig.New(lpconfig.WithConfigKey(cfg.LongportAppKey, cfg.LongportAppSecret, cfg.LongportAccessToken))
	if err != nil {
		return nil, err
	}

	quoteContext, err := quote.NewFromCfg(conf)
	if err != nil {
		return nil, err
	}

	return &LongportClient{
		quoteCtx: quoteContext,
	}, nil
}

// Quote derives the latest price and the day's change from the two most
// recent daily candlesticks.
func (lpc *LongportClient) Quote(ctx context.Context, symbol string) (*Quote, error) {
	if lpc.quoteCtx == nil {
		return nil, errors.New("quote context is nil")
	}
	symbol = NormalizeSymbol(symbol)

	sticks, err := lpc.quoteCtx.Candlesticks(ctx, symbol, quote.PeriodDay, 2, quote.AdjustTypeNo)
	if err != nil {
		return nil, fmt.Errorf("longport candlesticks for %s: %w", symbol, err)
	}
	if len(sticks) == 0 {
		return nil, fmt.Errorf("no candlesticks for %s", symbol)
	}

	last := sticks[len(sticks)-1]
	q := &Quote{
		Symbol:    symbol,
		Price:     decimalOf(last.Close),
		Open:      decimalOf(last.Open),
		High:      decimalOf(last.High),
		Low:       decimalOf(last.Low),
		Volume:    last.Volume,
		Source:    "longport",
		Timestamp: time.Unix(last.Timestamp, 0),
	}
	if len(sticks) > 1 {
		q.PrevClose = decimalOf(sticks[len(sticks)-2].Close)
		q.Change = q.Price.Sub(q.PrevClose)
		if !q.PrevClose.IsZero() {
			q.ChangePercent = q.Change.Div(q.PrevClose).Mul(decimal.NewFromInt(100)).Round(2)
		}
	}
	return q, nil
}

func (lpc *LongportClient) Profile(ctx context.Context, symbol string) (*CompanyProfile, error) {
	if lpc.quoteCtx == nil {
		return nil, errors.New("quote context is nil")
	}
	symbol = NormalizeSymbol(symbol)

	infos, err := lpc.quoteCtx.StaticInfo(ctx, []string{symbol})
	if err != nil {
		return nil, fmt.Errorf("longport static info for %s: %w", symbol, err)
	}
	if len(infos) == 0 || infos[0] == nil {
		return nil, fmt.Errorf("no static info for %s", symbol)
	}

	info := infos[0]
	return &CompanyProfile{
		Symbol:   symbol,
		Name:     info.NameEn,
		Exchange: info.Exchange,
		Currency: info.Currency,
		LotSize:  int(info.LotSize),
		Source:   "longport",
	}, nil
}
