package sizing

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Per-symbol default quantities used when an alert omits size. Metals
// trade in fractional units, FX pairs in larger nominal amounts.
var defaults = map[string]decimal.Decimal{
	"XAUUSD": decimal.RequireFromString("0.1"),
	"XAGUSD": decimal.RequireFromString("0.5"),
	"XPTUSD": decimal.RequireFromString("0.5"),
	"EURUSD": decimal.NewFromInt(100),
	"GBPUSD": decimal.NewFromInt(100),
	"USDJPY": decimal.NewFromInt(100),
	"AUDUSD": decimal.NewFromInt(100),
	"BTCUSD": decimal.RequireFromString("0.01"),
	"ETHUSD": decimal.RequireFromString("0.1"),
}

var globalDefault = decimal.NewFromInt(1)

// Resolve returns the alert's own size when it supplied a positive one,
// else the per-symbol default, else 1. It always returns a usable size.
func Resolve(explicit *decimal.Decimal, symbol string) decimal.Decimal {
	if explicit != nil && explicit.IsPositive() {
		return *explicit
	}
	if d, ok := defaults[strings.ToUpper(strings.TrimSpace(symbol))]; ok {
		return d
	}
	return globalDefault
}
