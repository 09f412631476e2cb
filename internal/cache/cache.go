package cache

import (
	"time"

	"github.com/dgraph-io/ristretto"
)

// Epics is a TTL cache for instrument identifiers resolved through the
// live market search, keyed by normalized ticker. Static table hits never
// pass through here.
type Epics struct {
	c   *ristretto.Cache
	ttl time.Duration
}

func NewEpics(maxCost int64, ttl time.Duration) (*Epics, error) {
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1e4,
		MaxCost:     maxCost,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &Epics{c: c, ttl: ttl}, nil
}

func (e *Epics) Get(ticker string) (string, bool) {
	v, ok := e.c.Get(ticker)
	if !ok {
		return "", false
	}
	epic, ok := v.(string)
	return epic, ok
}

func (e *Epics) Set(ticker, epic string) {
	e.c.SetWithTTL(ticker, epic, 1, e.ttl)
}

func (e *Epics) Del(ticker string) { e.c.Del(ticker) }

// Wait flushes pending writes; used by tests, not the request path.
func (e *Epics) Wait() { e.c.Wait() }
