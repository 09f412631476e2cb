// Package symbols maps alert tickers to broker instrument identifiers
// (epics). Resolution order is fixed: static table first, live market
// search second.
package symbols

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/mhndayesh/capital-trading-bot/internal/cache"
	"github.com/mhndayesh/capital-trading-bot/internal/models"
)

// ErrNotFound means neither the static table nor the search fallback
// produced an epic for the ticker.
var ErrNotFound = errors.New("symbol not found")

// MarketSearcher is the slice of the broker client the fallback needs.
type MarketSearcher interface {
	SearchMarkets(ctx context.Context, term string) ([]models.Market, error)
}

// Built-in ticker→epic table. Merged with EPIC_MAP overrides at startup
// and read-only afterwards, so concurrent lookups need no locking.
var builtin = map[string]string{
	"XAUUSD": "GOLD",
	"XAGUSD": "SILVER",
	"XPTUSD": "PLATINUM",
	"USOIL":  "OIL_CRUDE",
	"UKOIL":  "OIL_BRENT",
	"NATGAS": "NATURALGAS",
	"EURUSD": "EURUSD",
	"GBPUSD": "GBPUSD",
	"USDJPY": "USDJPY",
	"AUDUSD": "AUDUSD",
	"US500":  "US500",
	"NAS100": "US100",
	"US30":   "US30",
	"GER40":  "DE40",
	"BTCUSD": "BTCUSD",
	"ETHUSD": "ETHUSD",
}

type Resolver struct {
	table  map[string]string
	search MarketSearcher // nil disables the fallback
	epics  *cache.Epics   // nil disables caching of fallback hits
	logger *zap.Logger
}

func NewResolver(overrides map[string]string, search MarketSearcher, epics *cache.Epics, logger *zap.Logger) *Resolver {
	table := make(map[string]string, len(builtin)+len(overrides))
	for k, v := range builtin {
		table[k] = v
	}
	for k, v := range overrides {
		table[strings.ToUpper(k)] = v
	}
	return &Resolver{table: table, search: search, epics: epics, logger: logger}
}

// Resolve returns the epic for a ticker, case-insensitively. Static table
// misses fall through to the live search when one is configured; a miss on
// both paths is ErrNotFound.
func (r *Resolver) Resolve(ctx context.Context, ticker string) (string, error) {
	key := strings.ToUpper(strings.TrimSpace(ticker))
	if key == "" {
		return "", ErrNotFound
	}
	if epic, ok := r.table[key]; ok {
		return epic, nil
	}
	if r.search == nil {
		return "", ErrNotFound
	}
	if r.epics != nil {
		if epic, ok := r.epics.Get(key); ok {
			return epic, nil
		}
	}

	markets, err := r.search.SearchMarkets(ctx, key)
	if err != nil {
		return "", fmt.Errorf("search %s: %w", key, err)
	}
	epic, ok := pick(markets, key)
	if !ok {
		return "", ErrNotFound
	}
	r.logger.Info("resolved symbol via market search",
		zap.String("ticker", key),
		zap.String("epic", epic),
		zap.Int("candidates", len(markets)),
	)
	if r.epics != nil {
		r.epics.Set(key, epic)
	}
	return epic, nil
}

// pick prefers an exact-name, non-expiring commodity match, then any exact
// match, then the first candidate.
func pick(markets []models.Market, key string) (string, bool) {
	if len(markets) == 0 {
		return "", false
	}
	var exact string
	for _, m := range markets {
		name := strings.ToUpper(m.InstrumentName)
		if name != key && strings.ToUpper(m.Epic) != key {
			continue
		}
		if m.InstrumentType == "COMMODITIES" && (m.Expiry == "" || m.Expiry == "-") {
			return m.Epic, true
		}
		if exact == "" {
			exact = m.Epic
		}
	}
	if exact != "" {
		return exact, true
	}
	return markets[0].Epic, true
}
