package portfolio

import (
	"math"

	"github.com/shopspring/decimal"
)

// SnapshotPnL derives one PnLRow per ticker from the first and last bar of
// its series. A ticker missing from quantities is treated as quantity zero
// but still emitted, since price data exists for it. Change% is 0 exactly
// when the start price is 0; that is a divide-by-zero policy choice, not a
// mathematical identity. Rows come out in sorted ticker order so repeated
// runs are stable; consumers may re-sort.
func SnapshotPnL(prices map[string]PriceSeries, quantities map[string]float64) ([]PnLRow, []Warning) {
	rows := make([]PnLRow, 0, len(prices))
	var warnings []Warning

	for _, ticker := range sortedKeys(prices) {
		series := prices[ticker]
		if len(series.Points) == 0 {
			warnings = append(warnings, Warning{Ticker: ticker, Code: WarnNoData})
			continue
		}
		start, end := series.First(), series.Last()
		if !finite(start) || !finite(end) {
			warnings = append(warnings, warnf(ticker, WarnMalformedRow, "non-finite start/end price"))
			continue
		}
		qty := quantities[ticker]

		pct := 0.0
		if start != 0 {
			pct = (end - start) / start * 100
		}
		rows = append(rows, PnLRow{
			Ticker:        ticker,
			Quantity:      qty,
			StartPrice:    start,
			EndPrice:      end,
			PnL:           (end - start) * qty,
			ChangePct:     pct,
			PositionValue: end * qty,
		})
	}
	return rows, warnings
}

// SnapshotTotals aggregates snapshot rows into portfolio-level totals.
// Sums run through decimal so many-row portfolios do not accumulate float
// drift in the displayed dollar figures.
type SnapshotTotals struct {
	PnL           float64 `json:"pnl"`
	PositionValue float64 `json:"position_value"`
	ChangePct     float64 `json:"change_pct"`
}

// Totals sums PnL and position value across rows. Total change% is
// totalPnL/totalValue*100, 0 when the total value is 0.
func Totals(rows []PnLRow) SnapshotTotals {
	pnl := decimal.Zero
	value := decimal.Zero
	for _, r := range rows {
		pnl = pnl.Add(decimal.NewFromFloat(r.PnL))
		value = value.Add(decimal.NewFromFloat(r.PositionValue))
	}
	totals := SnapshotTotals{
		PnL:           pnl.InexactFloat64(),
		PositionValue: value.InexactFloat64(),
	}
	if !value.IsZero() {
		totals.ChangePct = pnl.Div(value).InexactFloat64() * 100
	}
	return totals
}

// TimeSeriesPnL builds the long-format PnL table: one row per ticker per
// bar. Each ticker's PnL baseline is its own chronological first bar, not a
// cross-ticker global first timestamp, so every PnL path starts at exactly
// zero. Rows are concatenated ticker by ticker; no shared timestamp grid is
// implied.
func TimeSeriesPnL(prices map[string]PriceSeries, quantities map[string]float64) (PnLTimeSeries, []Warning) {
	var rows PnLTimeSeries
	var warnings []Warning

	for _, ticker := range sortedKeys(prices) {
		series := prices[ticker]
		if len(series.Points) == 0 {
			warnings = append(warnings, Warning{Ticker: ticker, Code: WarnNoData})
			continue
		}
		first := series.First()
		if !finite(first) {
			warnings = append(warnings, warnf(ticker, WarnMalformedRow, "non-finite first price"))
			continue
		}
		qty := quantities[ticker]
		for _, p := range series.Points {
			rows = append(rows, TimeSeriesRow{
				Time:          p.Time,
				Ticker:        ticker,
				Quantity:      qty,
				Price:         p.Close,
				PositionValue: p.Close * qty,
				PnL:           (p.Close - first) * qty,
			})
		}
	}
	return rows, warnings
}

// SectorAllocation groups the latest position values by sector label.
type SectorAllocation struct {
	Sector  string   `json:"sector"`
	Tickers []string `json:"tickers"`
	Value   float64  `json:"value"`
	Pct     float64  `json:"pct"`
}

// AllocateBySector computes per-sector position value shares from the
// normalized series and held quantities. Sectors come out sorted by label.
func AllocateBySector(prices map[string]PriceSeries, quantities map[string]float64) []SectorAllocation {
	bySector := make(map[string]*SectorAllocation)
	total := 0.0
	for _, ticker := range sortedKeys(prices) {
		series := prices[ticker]
		if len(series.Points) == 0 {
			continue
		}
		sector := series.Sector
		if sector == "" {
			sector = sectorUnknown
		}
		value := series.Last() * quantities[ticker]
		alloc, ok := bySector[sector]
		if !ok {
			alloc = &SectorAllocation{Sector: sector}
			bySector[sector] = alloc
		}
		alloc.Tickers = append(alloc.Tickers, ticker)
		alloc.Value += value
		total += value
	}

	out := make([]SectorAllocation, 0, len(bySector))
	for _, sector := range sortedKeys(bySector) {
		alloc := *bySector[sector]
		if total != 0 {
			alloc.Pct = alloc.Value / total * 100
		}
		out = append(out, alloc)
	}
	return out
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
