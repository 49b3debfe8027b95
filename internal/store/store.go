package store

import (
	"context"
	"time"

	"sentinel/internal/market"
)

// PriceCache caches fetched price tables keyed by (ticker, period,
// interval). Get treats entries older than maxAge as absent; implementations
// never invent data, they only avoid refetching fresh-enough series.
type PriceCache interface {
	Get(ctx context.Context, ticker string, period market.Period, interval market.Interval, maxAge time.Duration) (market.RawPriceTable, bool, error)
	Put(ctx context.Context, table market.RawPriceTable, period market.Period, interval market.Interval) error
	Close() error
}
