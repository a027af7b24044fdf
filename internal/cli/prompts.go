package cli

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/AlecAivazis/survey/v2"

	"github.com/dyike/StockPilot/internal/analysis"
)

var symbolPattern = regexp.MustCompile(`^[A-Z0-9.^=-]+$`)

// normalizeSymbol upper-cases and validates a ticker symbol.
func normalizeSymbol(s string) (string, error) {
	symbol := strings.TrimSpace(strings.ToUpper(s))
	if symbol == "" {
		return "", fmt.Errorf("ticker symbol cannot be empty")
	}
	if len(symbol) > 12 {
		return "", fmt.Errorf("ticker symbol too long (max 12 characters)")
	}
	if !symbolPattern.MatchString(symbol) {
		return "", fmt.Errorf("invalid ticker %q (use letters, numbers, dots, carets and hyphens only)", s)
	}
	return symbol, nil
}

// PromptForTicker prompts the user to enter a stock ticker symbol
func PromptForTicker(message string) (string, error) {
	var ticker string
	prompt := &survey.Input{
		Message: message,
		Help:    "Ticker symbols as listed by Yahoo Finance, e.g. AAPL, BRK-B, 700.HK",
	}

	err := survey.AskOne(prompt, &ticker, survey.WithValidator(func(val interface{}) error {
		_, err := normalizeSymbol(val.(string))
		return err
	}))
	if err != nil {
		return "", err
	}
	return normalizeSymbol(ticker)
}

// PromptForAPIKey asks for the provider credential without echoing it.
func PromptForAPIKey(provider string) (string, error) {
	var key string
	prompt := &survey.Password{
		Message: fmt.Sprintf("Enter your %s API Key:", provider),
		Help:    "The key is only used for this run and is never written to disk.",
	}
	err := survey.AskOne(prompt, &key, survey.WithValidator(survey.Required))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(key), nil
}

// PromptForKind asks which comparison to run.
func PromptForKind() (analysis.Kind, error) {
	options := make([]string, 0, len(analysis.Kinds))
	for _, k := range analysis.Kinds {
		options = append(options, k.String())
	}

	var selected string
	prompt := &survey.Select{
		Message: "Choose Analysis Type:",
		Options: options,
		Default: analysis.FullComparison.String(),
	}
	if err := survey.AskOne(prompt, &selected); err != nil {
		return analysis.FullComparison, err
	}
	return analysis.ParseKind(selected), nil
}

// PromptForMetrics asks which focus areas a single-stock analysis covers.
func PromptForMetrics() ([]analysis.Metric, error) {
	labels := analysis.MetricLabels(analysis.Metrics)

	var selected []string
	prompt := &survey.MultiSelect{
		Message: "Select Metrics:",
		Options: labels,
		Help:    "Use space to select, enter to confirm.",
	}
	err := survey.AskOne(prompt, &selected, survey.WithValidator(func(val interface{}) error {
		answers, ok := val.([]survey.OptionAnswer)
		if !ok {
			return fmt.Errorf("invalid selection type")
		}
		if len(answers) == 0 {
			return fmt.Errorf("select at least one metric")
		}
		return nil
	}))
	if err != nil {
		return nil, err
	}

	metrics := make([]analysis.Metric, 0, len(selected))
	for _, label := range selected {
		m, err := analysis.ParseMetric(label)
		if err != nil {
			return nil, err
		}
		metrics = append(metrics, m)
	}
	return metrics, nil
}
