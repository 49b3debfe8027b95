package portfolio

import (
	"context"
	"math"
	"sort"

	"sentinel/internal/market"
)

// SectorLookup resolves sector labels for tickers. Implementations may hit
// the network; Normalize memoizes lookups per run and falls back to
// "Unknown" on error, so a flaky lookup never blocks price data.
type SectorLookup interface {
	Sector(ctx context.Context, ticker string) (string, error)
}

const sectorUnknown = "Unknown"

// sectorCache memoizes sector lookups for the duration of one normalization
// run. Deliberately not process-global: a fresh cache per batch avoids stale
// cross-run data.
type sectorCache struct {
	lookup SectorLookup
	seen   map[string]string
}

func newSectorCache(lookup SectorLookup) *sectorCache {
	return &sectorCache{lookup: lookup, seen: make(map[string]string)}
}

func (c *sectorCache) get(ctx context.Context, ticker string) (string, *Warning) {
	if s, ok := c.seen[ticker]; ok {
		return s, nil
	}
	sector := sectorUnknown
	var warn *Warning
	if c.lookup != nil {
		s, err := c.lookup.Sector(ctx, ticker)
		switch {
		case err != nil:
			w := warnf(ticker, WarnSectorLookup, "%v", err)
			warn = &w
		case s != "":
			sector = s
		}
	}
	c.seen[ticker] = sector
	return sector, warn
}

// Normalize converts raw provider price tables into canonical per-ticker
// PriceSeries. Tickers with no usable price data are absent from the result
// (never present as empty placeholders) and reported in the warnings slice.
//
// Close column policy: a table without Close falls back to AdjClose with a
// warning; a table with neither is dropped. Rows with a non-finite close are
// dropped as malformed without aborting the ticker. Bars are sorted by time
// and de-duplicated so the output series is strictly increasing.
func Normalize(ctx context.Context, raw map[string]market.RawPriceTable, sectors SectorLookup) (map[string]PriceSeries, []Warning) {
	out := make(map[string]PriceSeries, len(raw))
	var warnings []Warning
	cache := newSectorCache(sectors)

	for _, ticker := range sortedKeys(raw) {
		table := raw[ticker]
		if table.Empty() {
			warnings = append(warnings, Warning{Ticker: ticker, Code: WarnNoData})
			continue
		}

		useAdj := false
		switch {
		case table.HasClose:
		case table.HasAdjClose:
			useAdj = true
			warnings = append(warnings, warnf(ticker, WarnCloseFallback, "close missing, using adjusted close"))
		default:
			warnings = append(warnings, warnf(ticker, WarnNoClose, "no close or adjusted close column"))
			continue
		}

		points := make([]PricePoint, 0, len(table.Bars))
		dropped := 0
		for _, bar := range table.Bars {
			close := bar.Close
			if useAdj {
				close = bar.AdjClose
			}
			if math.IsNaN(close) || math.IsInf(close, 0) || close < 0 {
				dropped++
				continue
			}
			points = append(points, PricePoint{Time: bar.Time, Close: close})
		}
		if dropped > 0 {
			warnings = append(warnings, warnf(ticker, WarnMalformedRow, "dropped %d malformed rows", dropped))
		}
		if len(points) == 0 {
			warnings = append(warnings, Warning{Ticker: ticker, Code: WarnNoData})
			continue
		}

		sort.SliceStable(points, func(i, j int) bool { return points[i].Time < points[j].Time })
		points = dedupeByTime(points)

		sector := table.Sector
		if sector == "" {
			var warn *Warning
			sector, warn = cache.get(ctx, ticker)
			if warn != nil {
				warnings = append(warnings, *warn)
			}
		}

		out[ticker] = PriceSeries{Sector: sector, Points: points}
	}
	return out, warnings
}

// dedupeByTime keeps the last observation for each timestamp. Input must be
// sorted by time.
func dedupeByTime(points []PricePoint) []PricePoint {
	out := points[:0]
	for _, p := range points {
		if n := len(out); n > 0 && out[n-1].Time == p.Time {
			out[n-1] = p
			continue
		}
		out = append(out, p)
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
