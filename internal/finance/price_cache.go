package finance

import (
	"context"
	"fmt"
	"sync"
	"time"
)

type priceCacheEntry struct {
	createdAt time.Time
	series    PriceSeries
}

// CachedPriceSource memoizes successful fetches for ttl. Entries are copied on the
// way in and out, so no run can mutate data another run sees. Failures are not cached.
type CachedPriceSource struct {
	src PriceSource
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	entries map[string]priceCacheEntry
}

func NewCachedPriceSource(src PriceSource, ttl time.Duration) *CachedPriceSource {
	return &CachedPriceSource{
		src:     src,
		ttl:     ttl,
		now:     time.Now,
		entries: map[string]priceCacheEntry{},
	}
}

func priceCacheKey(symbol string, startEpoch, endEpoch int64) string {
	return fmt.Sprintf("%s|%d|%d", symbol, startEpoch, endEpoch)
}

func (c *CachedPriceSource) get(key string) (PriceSeries, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if entry, ok := c.entries[key]; ok {
		if c.now().Before(entry.createdAt.Add(c.ttl)) {
			return entry.series.clone(), true
		}
		delete(c.entries, key)
	}
	return PriceSeries{}, false
}

func (c *CachedPriceSource) set(key string, s PriceSeries) {
	c.mu.Lock()
	c.entries[key] = priceCacheEntry{createdAt: c.now(), series: s.clone()}
	c.mu.Unlock()
}

func (c *CachedPriceSource) FetchDailyCloses(ctx context.Context, symbol string, startEpoch, endEpoch int64) (PriceSeries, error) {
	if c.ttl <= 0 {
		return c.src.FetchDailyCloses(ctx, symbol, startEpoch, endEpoch)
	}
	key := priceCacheKey(symbol, startEpoch, endEpoch)
	if s, ok := c.get(key); ok {
		return s, nil
	}
	s, err := c.src.FetchDailyCloses(ctx, symbol, startEpoch, endEpoch)
	if err != nil {
		return PriceSeries{}, err
	}
	c.set(key, s)
	return s, nil
}

// Purge drops expired entries.
func (c *CachedPriceSource) Purge() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for k, e := range c.entries {
		if !c.now().Before(e.createdAt.Add(c.ttl)) {
			delete(c.entries, k)
			n++
		}
	}
	return n
}
