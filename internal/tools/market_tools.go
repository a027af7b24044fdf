package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"

	"github.com/dyike/StockPilot/pkg/dataflows"
)

// SymbolInput is the argument of the single-symbol tools.
type SymbolInput struct {
	Symbol string `json:"symbol"`
}

func symbolParams() map[string]*schema.ParameterInfo {
	return map[string]*schema.ParameterInfo{
		"symbol": {
			Type:     "string",
			Desc:     "The stock ticker symbol, e.g. AAPL",
			Required: true,
		},
	}
}

// PriceOutput is the price snapshot handed to the model.
type PriceOutput struct {
	Symbol            string `json:"symbol"`
	Name              string `json:"name,omitempty"`
	Price             string `json:"price"`
	Change            string `json:"change"`
	ChangePercent     string `json:"change_percent"`
	DayRange          string `json:"day_range,omitempty"`
	FiftyTwoWeekRange string `json:"fifty_two_week_range,omitempty"`
	PreviousClose     string `json:"previous_close,omitempty"`
	Volume            int64  `json:"volume"`
	MarketState       string `json:"market_state,omitempty"`
	Source            string `json:"source"`
	AsOf              string `json:"as_of"`
}

// NewStockPriceTool creates the current-price tool.
func NewStockPriceTool(data dataflows.QuoteSource) *Tool {
	return newTool("get_stock_price",
		"Get the current stock price, daily change and trading range for a symbol",
		symbolParams(),
		func(ctx context.Context, input SymbolInput) (any, error) {
			if strings.TrimSpace(input.Symbol) == "" {
				return nil, fmt.Errorf("symbol parameter is required")
			}
			q, err := data.Quote(ctx, input.Symbol)
			if err != nil {
				return nil, err
			}
			return toPriceOutput(q), nil
		})
}

func toPriceOutput(q *dataflows.Quote) *PriceOutput {
	out := &PriceOutput{
		Symbol:        q.Symbol,
		Name:          q.Name,
		Price:         dataflows.FormatPrice(q.Price, q.Currency),
		Change:        dataflows.FormatPrice(q.Change, q.Currency),
		ChangePercent: q.ChangePercent.StringFixed(2) + "%",
		Volume:        q.Volume,
		MarketState:   q.MarketState,
		Source:        q.Source,
		AsOf:          q.Timestamp.UTC().Format(time.RFC3339),
	}
	if !q.Low.IsZero() || !q.High.IsZero() {
		out.DayRange = dataflows.FormatPrice(q.Low, q.Currency) + " - " + dataflows.FormatPrice(q.High, q.Currency)
	}
	if !q.Week52Low.IsZero() || !q.Week52High.IsZero() {
		out.FiftyTwoWeekRange = dataflows.FormatPrice(q.Week52Low, q.Currency) + " - " + dataflows.FormatPrice(q.Week52High, q.Currency)
	}
	if !q.PrevClose.IsZero() {
		out.PreviousClose = dataflows.FormatPrice(q.PrevClose, q.Currency)
	}
	return out
}

// RecommendationsOutput summarises the analyst rating trend.
type RecommendationsOutput struct {
	Symbol  string                     `json:"symbol"`
	Periods []dataflows.Recommendation `json:"periods"`
	Summary string                     `json:"summary,omitempty"`
}

// maxRecommendationPeriods bounds how many monthly periods reach the model.
const maxRecommendationPeriods = 4

// NewAnalystRecommendationsTool creates the analyst-rating tool.
func NewAnalystRecommendationsTool(data dataflows.RecommendationSource) *Tool {
	return newTool("get_analyst_recommendations",
		"Get the analyst recommendation trend (strong buy, buy, hold, sell, strong sell counts) for a symbol",
		symbolParams(),
		func(ctx context.Context, input SymbolInput) (any, error) {
			if strings.TrimSpace(input.Symbol) == "" {
				return nil, fmt.Errorf("symbol parameter is required")
			}
			recs, err := data.Recommendations(ctx, input.Symbol)
			if err != nil {
				return nil, err
			}
			if len(recs) > maxRecommendationPeriods {
				recs = recs[:maxRecommendationPeriods]
			}
			out := &RecommendationsOutput{
				Symbol:  dataflows.NormalizeSymbol(input.Symbol),
				Periods: recs,
			}
			if len(recs) > 0 {
				out.Summary = summarizeRecommendation(recs[0])
			}
			return out, nil
		})
}

func summarizeRecommendation(r dataflows.Recommendation) string {
	total := r.Total()
	if total == 0 {
		return fmt.Sprintf("no analyst ratings for %s", r.Period)
	}
	bullish := r.StrongBuy + r.Buy
	bearish := r.Sell + r.StrongSell
	return fmt.Sprintf("%s: %d analysts, %d bullish, %d hold, %d bearish", r.Period, total, bullish, r.Hold, bearish)
}

// NewCompanyInfoTool creates the company-profile tool.
func NewCompanyInfoTool(data dataflows.ProfileSource) *Tool {
	return newTool("get_company_info",
		"Get company information and valuation metrics (market cap, P/E, EPS, dividend yield) for a symbol",
		symbolParams(),
		func(ctx context.Context, input SymbolInput) (any, error) {
			if strings.TrimSpace(input.Symbol) == "" {
				return nil, fmt.Errorf("symbol parameter is required")
			}
			return data.Profile(ctx, input.Symbol)
		})
}
