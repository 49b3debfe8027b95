package market

import "context"

// Bar is a single historical price bar as returned by the data provider.
// Time is unix milliseconds. Close may be NaN when the provider returned a
// null entry for that slot; consumers treat such rows as malformed.
type Bar struct {
	Time     int64   `json:"time"`
	Open     float64 `json:"open"`
	High     float64 `json:"high"`
	Low      float64 `json:"low"`
	Close    float64 `json:"close"`
	AdjClose float64 `json:"adj_close"`
	Volume   float64 `json:"volume"`
}

// RawPriceTable is the provider-shaped price history for one ticker, before
// normalization. HasClose/HasAdjClose record which price columns the provider
// actually returned; Sector is "" when the provider did not supply one.
type RawPriceTable struct {
	Ticker      string `json:"ticker"`
	Bars        []Bar  `json:"bars"`
	HasClose    bool   `json:"has_close"`
	HasAdjClose bool   `json:"has_adj_close"`
	Sector      string `json:"sector"`
}

// Empty reports whether the table carries no bars at all.
func (t RawPriceTable) Empty() bool { return len(t.Bars) == 0 }

// Source fetches historical prices and sector metadata for equity tickers.
// Implementations must keep failures per-ticker: an error from FetchHistory
// concerns only that ticker and never aborts a batch.
type Source interface {
	FetchHistory(ctx context.Context, ticker string, period Period, interval Interval) (RawPriceTable, error)

	// Sector resolves the sector label for a ticker. Best effort; callers
	// fall back to "Unknown" on error.
	Sector(ctx context.Context, ticker string) (string, error)
}
