package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/dyike/StockPilot/pkg/dataflows"
)

const (
	defaultNewsLimit = 10
	maxNewsLimit     = 50
)

// NewsInput is the argument of the company news tool.
type NewsInput struct {
	Symbol string `json:"symbol"`
	Limit  int    `json:"limit,omitempty"`
}

// NewsOutput represents the output of the company news tool.
type NewsOutput struct {
	Symbol   string                   `json:"symbol"`
	Count    int                      `json:"count"`
	Articles []*dataflows.NewsArticle `json:"articles"`
}

// NewCompanyNewsTool creates a tool returning the latest headlines about a company.
func NewCompanyNewsTool(data dataflows.NewsSource) *Tool {
	return newTool("get_company_news",
		"Get the latest news articles about a company",
		map[string]*schema.ParameterInfo{
			"symbol": {
				Type:     "string",
				Desc:     "The stock ticker symbol, e.g. AAPL",
				Required: true,
			},
			"limit": {
				Type:     "integer",
				Desc:     fmt.Sprintf("Maximum number of articles to return (1-%d, default: %d)", maxNewsLimit, defaultNewsLimit),
				Required: false,
			},
		},
		func(ctx context.Context, input NewsInput) (any, error) {
			if strings.TrimSpace(input.Symbol) == "" {
				return nil, fmt.Errorf("symbol parameter is required")
			}

			limit := input.Limit
			if limit <= 0 {
				limit = defaultNewsLimit
			}
			if limit > maxNewsLimit {
				limit = maxNewsLimit
			}

			articles, err := data.CompanyNews(ctx, input.Symbol, limit)
			if err != nil {
				return nil, err
			}
			return &NewsOutput{
				Symbol:   dataflows.NormalizeSymbol(input.Symbol),
				Count:    len(articles),
				Articles: articles,
			}, nil
		})
}
