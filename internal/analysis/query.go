// Package analysis turns user selections into assistant queries and
// dispatches them through a session's assistant.
package analysis

import (
	"errors"
	"fmt"
	"strings"
)

// Kind is the comparison analysis type.
type Kind int

const (
	FullComparison Kind = iota
	PriceAnalysis
	Fundamentals
	News
)

// Kinds lists every Kind in display order.
var Kinds = []Kind{FullComparison, PriceAnalysis, Fundamentals, News}

func (k Kind) String() string {
	switch k {
	case PriceAnalysis:
		return "Price Analysis"
	case Fundamentals:
		return "Fundamentals"
	case News:
		return "News"
	default:
		return "Full Comparison"
	}
}

// ParseKind maps a label such as "Price Analysis" or an identifier such as
// "PriceAnalysis" to its Kind. Anything unrecognised is FullComparison.
func ParseKind(s string) Kind {
	key := strings.ToLower(strings.Join(strings.Fields(s), ""))
	key = strings.NewReplacer("-", "", "_", "").Replace(key)
	switch key {
	case "priceanalysis", "price":
		return PriceAnalysis
	case "fundamentals":
		return Fundamentals
	case "news":
		return News
	default:
		return FullComparison
	}
}

// BuildComparisonQuery renders the comparison prompt for a and b. Symbols are
// substituted as given.
func BuildComparisonQuery(a, b string, k Kind) string {
	switch k {
	case PriceAnalysis:
		return fmt.Sprintf("Compare price performance and technical indicators for %s and %s.", a, b)
	case Fundamentals:
		return fmt.Sprintf("Compare key fundamental metrics and financial health of %s and %s.", a, b)
	case News:
		return fmt.Sprintf("Compare recent news and market sentiment for %s and %s.", a, b)
	default:
		return fmt.Sprintf("Provide a comprehensive comparison between %s and %s including price trends, fundamentals, and market sentiment.", a, b)
	}
}

// Metric is a focus area of a single-stock analysis.
type Metric int

const (
	PriceTrends Metric = iota
	AnalystRecommendations
	CompanyInfo
	RecentNews
)

// Metrics lists every Metric in display order.
var Metrics = []Metric{PriceTrends, AnalystRecommendations, CompanyInfo, RecentNews}

func (m Metric) String() string {
	switch m {
	case PriceTrends:
		return "Price Trends"
	case AnalystRecommendations:
		return "Analyst Recommendations"
	case CompanyInfo:
		return "Company Info"
	case RecentNews:
		return "Recent News"
	default:
		return fmt.Sprintf("Metric(%d)", int(m))
	}
}

var ErrUnknownMetric = errors.New("unknown metric")

// ParseMetric maps a label such as "Recent News" or a short name such as
// "news" to its Metric.
func ParseMetric(s string) (Metric, error) {
	key := strings.ToLower(strings.Join(strings.Fields(s), ""))
	key = strings.NewReplacer("-", "", "_", "").Replace(key)
	switch key {
	case "pricetrends", "price", "trends":
		return PriceTrends, nil
	case "analystrecommendations", "analyst", "recommendations":
		return AnalystRecommendations, nil
	case "companyinfo", "company", "info":
		return CompanyInfo, nil
	case "recentnews", "news":
		return RecentNews, nil
	}
	return 0, fmt.Errorf("%w %q", ErrUnknownMetric, s)
}

// MetricLabels returns the labels of ms in order.
func MetricLabels(ms []Metric) []string {
	labels := make([]string, 0, len(ms))
	for _, m := range ms {
		labels = append(labels, m.String())
	}
	return labels
}

// BuildSingleStockQuery renders "Analyze SYMBOL focusing on M1, M2". Metric
// order is kept. With no metrics the query ends in "focusing on ".
func BuildSingleStockQuery(symbol string, metrics []string) string {
	return "Analyze " + symbol + " focusing on " + strings.Join(metrics, ", ")
}

var ErrSymbolCount = errors.New("analysis needs one or two symbols")

// Request is a user's analysis selection.
type Request struct {
	Symbols []string
	Kind    Kind
	Metrics []string
}

// Query picks the single-stock or comparison form by symbol count.
func (r Request) Query() (string, error) {
	switch len(r.Symbols) {
	case 1:
		return BuildSingleStockQuery(r.Symbols[0], r.Metrics), nil
	case 2:
		return BuildComparisonQuery(r.Symbols[0], r.Symbols[1], r.Kind), nil
	default:
		return "", fmt.Errorf("%w, got %d", ErrSymbolCount, len(r.Symbols))
	}
}

// Describe is the busy-indicator text for r.
func (r Request) Describe() string {
	return "Analyzing " + strings.Join(r.Symbols, " and ") + "..."
}
