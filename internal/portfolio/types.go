// Package portfolio is the pure computation core of sentinel: it normalizes
// raw provider price tables, derives per-ticker and portfolio PnL, and
// computes the risk/performance statistics bundle. Every function here is
// stateless and reentrant; data-quality problems surface as Warnings or the
// undefined sentinel, never as errors or panics.
package portfolio

import (
	"fmt"
	"math"
)

// PricePoint is one normalized close-price observation. Time is unix
// milliseconds; points within a series are strictly increasing in time.
type PricePoint struct {
	Time  int64   `json:"time"`
	Close float64 `json:"close"`
}

// PriceSeries is the canonical per-ticker price history all downstream
// computation consumes. A series present in a map is never empty; absence of
// a ticker means its data was unusable (distinct from a legitimate zero PnL).
type PriceSeries struct {
	Sector string       `json:"sector"`
	Points []PricePoint `json:"points"`
}

// First returns the chronologically first close.
func (s PriceSeries) First() float64 { return s.Points[0].Close }

// Last returns the chronologically last close.
func (s PriceSeries) Last() float64 { return s.Points[len(s.Points)-1].Close }

// PnLRow is a point-in-time snapshot for one ticker: start/end price over the
// selected window, absolute and percentage PnL and the current position value.
type PnLRow struct {
	Ticker        string  `json:"ticker"`
	Quantity      float64 `json:"quantity"`
	StartPrice    float64 `json:"start_price"`
	EndPrice      float64 `json:"end_price"`
	PnL           float64 `json:"pnl"`
	ChangePct     float64 `json:"change_pct"`
	PositionValue float64 `json:"position_value"`
}

// TimeSeriesRow is one ticker at one timestamp in the long-format PnL table.
// PnL is measured against that ticker's own first bar, so every ticker's PnL
// path starts at exactly zero regardless of timestamp alignment.
type TimeSeriesRow struct {
	Time          int64   `json:"time"`
	Ticker        string  `json:"ticker"`
	Quantity      float64 `json:"quantity"`
	Price         float64 `json:"price"`
	PositionValue float64 `json:"position_value"`
	PnL           float64 `json:"pnl"`
}

// PnLTimeSeries is the long-format table all aggregate statistics are
// computed from. Rows are concatenated across tickers; there is no guarantee
// that tickers share a timestamp grid, so consumers group by time rather than
// assuming row alignment.
type PnLTimeSeries []TimeSeriesRow

// WarnCode tags the reason a ticker was skipped or degraded.
type WarnCode string

const (
	WarnNoData        WarnCode = "no_data"
	WarnNoClose       WarnCode = "no_close"
	WarnCloseFallback WarnCode = "close_fallback"
	WarnMalformedRow  WarnCode = "malformed_row"
	WarnSectorLookup  WarnCode = "sector_lookup_failed"
	WarnFetchFailed   WarnCode = "fetch_failed"
)

// Warning is the tagged skip/degrade result for one ticker. Processing one
// ticker never aborts the batch; failures accumulate here instead.
type Warning struct {
	Ticker string   `json:"ticker"`
	Code   WarnCode `json:"code"`
	Detail string   `json:"detail,omitempty"`
}

func (w Warning) String() string {
	if w.Detail == "" {
		return fmt.Sprintf("%s: %s", w.Ticker, w.Code)
	}
	return fmt.Sprintf("%s: %s (%s)", w.Ticker, w.Code, w.Detail)
}

func warnf(ticker string, code WarnCode, format string, args ...any) Warning {
	return Warning{Ticker: ticker, Code: code, Detail: fmt.Sprintf(format, args...)}
}

// Undefined is the sentinel every statistic returns when its input is empty
// or degenerate. It is NaN so it can never be mistaken for a legitimate zero.
func Undefined() float64 { return math.NaN() }

// IsUndefined reports whether v is the undefined sentinel.
func IsUndefined(v float64) bool { return math.IsNaN(v) }

// WinLoss aggregates per-period win/loss statistics. ProfitFactor is +Inf for
// an all-win series and undefined when the series is empty or all zero.
type WinLoss struct {
	WinRate      float64 `json:"win_rate"`
	LossRate     float64 `json:"loss_rate"`
	ProfitFactor float64 `json:"profit_factor"`
}

// CorrelationMatrix is a symmetric ticker-by-ticker Pearson correlation of
// percentage-change returns. Cells touching a degenerate (constant-price)
// ticker are undefined, including that ticker's diagonal.
type CorrelationMatrix struct {
	Tickers []string    `json:"tickers"`
	Cells   [][]float64 `json:"cells"`
}

// At returns the correlation between tickers i and j by index.
func (m CorrelationMatrix) At(i, j int) float64 { return m.Cells[i][j] }

// MetricsBundle is the full portfolio statistics suite. Scalar fields hold
// either a finite value, +Inf (profit factor only), or the undefined
// sentinel; emptiness of the whole bundle is signalled separately by the
// second return of ComputeBundle, never by a bundle of sentinels.
type MetricsBundle struct {
	VaR95        float64           `json:"var_95"`
	CVaR95       float64           `json:"cvar_95"`
	Sharpe       float64           `json:"sharpe"`
	Sortino      float64           `json:"sortino"`
	Calmar       float64           `json:"calmar"`
	MaxDrawdown  float64           `json:"max_drawdown"`
	WinRate      float64           `json:"win_rate"`
	LossRate     float64           `json:"loss_rate"`
	ProfitFactor float64           `json:"profit_factor"`
	Correlation  CorrelationMatrix `json:"correlation"`
}
