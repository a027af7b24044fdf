package dataflows

import (
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// NormalizeSymbol trims and upper-cases a ticker. Symbols are not validated
// here: the upstream providers reject unknown tickers themselves.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// FormatPrice renders amount in currency, e.g. "$189.84". Unknown or empty
// currency codes fall back to "<amount> <code>".
func FormatPrice(amount decimal.Decimal, currency string) string {
	code := strings.ToUpper(strings.TrimSpace(currency))
	if code == "" {
		code = money.USD
	}
	cur := money.GetCurrency(code)
	if cur == nil {
		return amount.StringFixed(2) + " " + code
	}
	minor := amount.Shift(int32(cur.Fraction)).Round(0).IntPart()
	return money.New(minor, code).Display()
}

func decimalOf(v interface{ String() string }) decimal.Decimal {
	d, err := decimal.NewFromString(v.String())
	if err != nil {
		return decimal.Zero
	}
	return d
}
