package dataflows

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/go-resty/resty/v2"
)

const finnhubBaseURL = "https://finnhub.io/api/v1"

// FinnhubClient handles Finnhub API operations
type FinnhubClient struct {
	client *resty.Client
	apiKey string
	now    func() time.Time
}

// NewFinnhubClient creates a new Finnhub client. An empty baseURL selects
// the public endpoint.
func NewFinnhubClient(apiKey, baseURL string) *FinnhubClient {
	if baseURL == "" {
		baseURL = finnhubBaseURL
	}

	client := resty.New()
	client.SetBaseURL(baseURL)
	client.SetTimeout(30 * time.Second)

	return &FinnhubClient{
		client: client,
		apiKey: apiKey,
		now:    time.Now,
	}
}

func (fc *FinnhubClient) Configured() bool {
	return fc != nil && fc.apiKey != ""
}

// FinnhubNews represents news from Finnhub API
type FinnhubNews struct {
	Category string `json:"category"`
	DateTime int64  `json:"datetime"`
	Headline string `json:"headline"`
	ID       int64  `json:"id"`
	Image    string `json:"image"`
	Related  string `json:"related"`
	Source   string `json:"source"`
	Summary  string `json:"summary"`
	URL      string `json:"url"`
}

// FinnhubRecommendation is one entry of /stock/recommendation.
type FinnhubRecommendation struct {
	Buy        int    `json:"buy"`
	Hold       int    `json:"hold"`
	Period     string `json:"period"`
	Sell       int    `json:"sell"`
	StrongBuy  int    `json:"strongBuy"`
	StrongSell int    `json:"strongSell"`
	Symbol     string `json:"symbol"`
}

// Recommendations returns the analyst recommendation trend, newest period first.
func (fc *FinnhubClient) Recommendations(ctx context.Context, symbol string) ([]Recommendation, error) {
	if !fc.Configured() {
		return nil, fmt.Errorf("finnhub: %w", ErrNotConfigured)
	}
	symbol = NormalizeSymbol(symbol)

	var raw []FinnhubRecommendation
	if err := fc.get(ctx, "/stock/recommendation", map[string]string{"symbol": symbol}, &raw); err != nil {
		return nil, fmt.Errorf("failed to fetch recommendations for %s: %w", symbol, err)
	}

	result := make([]Recommendation, 0, len(raw))
	for _, r := range raw {
		result = append(result, Recommendation{
			Period:     r.Period,
			StrongBuy:  r.StrongBuy,
			Buy:        r.Buy,
			Hold:       r.Hold,
			Sell:       r.Sell,
			StrongSell: r.StrongSell,
		})
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].Period > result[j].Period })
	return result, nil
}

// CompanyNews gets news articles of the last seven days for a company.
func (fc *FinnhubClient) CompanyNews(ctx context.Context, symbol string, limit int) ([]*NewsArticle, error) {
	if !fc.Configured() {
		return nil, fmt.Errorf("finnhub: %w", ErrNotConfigured)
	}
	symbol = NormalizeSymbol(symbol)

	to := fc.now()
	from := to.AddDate(0, 0, -7)

	var raw []FinnhubNews
	err := fc.get(ctx, "/company-news", map[string]string{
		"symbol": symbol,
		"from":   from.Format("2006-01-02"),
		"to":     to.Format("2006-01-02"),
	}, &raw)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch news for %s: %w", symbol, err)
	}

	result := make([]*NewsArticle, 0, len(raw))
	for _, news := range raw {
		result = append(result, &NewsArticle{
			Title:       news.Headline,
			Summary:     news.Summary,
			URL:         news.URL,
			Source:      news.Source,
			PublishedAt: time.Unix(news.DateTime, 0),
		})
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].PublishedAt.After(result[j].PublishedAt) })
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (fc *FinnhubClient) get(ctx context.Context, path string, params map[string]string, out any) error {
	resp, err := fc.client.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetQueryParam("token", fc.apiKey).
		Get(path)
	if err != nil {
		return err
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("API error %d: %s", resp.StatusCode(), resp.String())
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
