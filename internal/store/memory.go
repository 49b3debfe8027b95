package store

import (
	"context"
	"sync"
	"time"

	"sentinel/internal/market"
)

// MemoryPriceCache is the in-process PriceCache used when the on-disk cache
// is disabled, and in tests.
type MemoryPriceCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	table     market.RawPriceTable
	fetchedAt time.Time
}

func NewMemoryPriceCache() *MemoryPriceCache {
	return &MemoryPriceCache{entries: make(map[string]memoryEntry), now: time.Now}
}

func cacheKey(ticker string, period market.Period, interval market.Interval) string {
	return ticker + "@" + string(period) + "@" + string(interval)
}

func (c *MemoryPriceCache) Get(_ context.Context, ticker string, period market.Period, interval market.Interval, maxAge time.Duration) (market.RawPriceTable, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[cacheKey(ticker, period, interval)]
	if !ok {
		return market.RawPriceTable{}, false, nil
	}
	if maxAge > 0 && c.now().Sub(entry.fetchedAt) > maxAge {
		return market.RawPriceTable{}, false, nil
	}
	return entry.table, true, nil
}

func (c *MemoryPriceCache) Put(_ context.Context, table market.RawPriceTable, period market.Period, interval market.Interval) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[cacheKey(table.Ticker, period, interval)] = memoryEntry{table: table, fetchedAt: c.now()}
	return nil
}

func (c *MemoryPriceCache) Close() error { return nil }
