package portfolio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func series(sector string, closes ...float64) PriceSeries {
	points := make([]PricePoint, len(closes))
	for i, c := range closes {
		points[i] = PricePoint{Time: int64(i+1) * 60_000, Close: c}
	}
	return PriceSeries{Sector: sector, Points: points}
}

func TestSnapshotPnLEndToEnd(t *testing.T) {
	prices := map[string]PriceSeries{
		"NVDA":  series("Technology", 100, 110),
		"MSFT":  series("Technology", 50, 45),
		"GOOGL": series("Communication Services", 200, 220),
	}
	quantities := map[string]float64{"NVDA": 100, "MSFT": 30, "GOOGL": 70}

	rows, warnings := SnapshotPnL(prices, quantities)
	require.Empty(t, warnings)
	require.Len(t, rows, 3)

	byTicker := map[string]PnLRow{}
	for _, r := range rows {
		byTicker[r.Ticker] = r
	}
	assert.InDelta(t, 1000, byTicker["NVDA"].PnL, 1e-9)
	assert.InDelta(t, -150, byTicker["MSFT"].PnL, 1e-9)
	assert.InDelta(t, 1400, byTicker["GOOGL"].PnL, 1e-9)
	assert.InDelta(t, 10, byTicker["NVDA"].ChangePct, 1e-9)
	assert.InDelta(t, -10, byTicker["MSFT"].ChangePct, 1e-9)

	totals := Totals(rows)
	assert.InDelta(t, 2250, totals.PnL, 1e-9)
	assert.InDelta(t, 27750, totals.PositionValue, 1e-9)
	assert.InDelta(t, 8.1081, totals.ChangePct, 1e-3)
}

func TestSnapshotPnLSingleBar(t *testing.T) {
	prices := map[string]PriceSeries{"AAPL": series("Technology", 180)}
	rows, warnings := SnapshotPnL(prices, map[string]float64{"AAPL": 10})
	require.Empty(t, warnings)
	require.Len(t, rows, 1)
	assert.Equal(t, 0.0, rows[0].PnL)
	assert.Equal(t, 0.0, rows[0].ChangePct)
	assert.InDelta(t, 1800, rows[0].PositionValue, 1e-9)
}

func TestSnapshotPnLZeroStartPricePolicy(t *testing.T) {
	prices := map[string]PriceSeries{"PENNY": series("Unknown", 0, 5)}
	rows, _ := SnapshotPnL(prices, map[string]float64{"PENNY": 2})
	require.Len(t, rows, 1)
	assert.InDelta(t, 10, rows[0].PnL, 1e-9)
	// change% is 0 by policy when the start price is 0
	assert.Equal(t, 0.0, rows[0].ChangePct)
}

func TestSnapshotPnLMissingQuantityStillEmitsRow(t *testing.T) {
	prices := map[string]PriceSeries{"TSLA": series("Consumer Cyclical", 200, 210)}
	rows, _ := SnapshotPnL(prices, nil)
	require.Len(t, rows, 1)
	assert.Equal(t, 0.0, rows[0].Quantity)
	assert.Equal(t, 0.0, rows[0].PnL)
	assert.Equal(t, 0.0, rows[0].PositionValue)
	assert.InDelta(t, 5, rows[0].ChangePct, 1e-9)
}

func TestSnapshotPnLSkipsMalformedSeries(t *testing.T) {
	prices := map[string]PriceSeries{
		"GOOD": series("Technology", 10, 11),
		"BAD":  series("Technology", Undefined(), 11),
	}
	rows, warnings := SnapshotPnL(prices, map[string]float64{"GOOD": 1, "BAD": 1})
	require.Len(t, rows, 1)
	assert.Equal(t, "GOOD", rows[0].Ticker)
	require.Len(t, warnings, 1)
	assert.Equal(t, WarnMalformedRow, warnings[0].Code)
	assert.Equal(t, "BAD", warnings[0].Ticker)
}

func TestTimeSeriesPnLBaselineIsZeroPerTicker(t *testing.T) {
	prices := map[string]PriceSeries{
		"NVDA": series("Technology", 100, 105, 110),
		"MSFT": series("Technology", 50, 48),
	}
	quantities := map[string]float64{"NVDA": 100, "MSFT": 30}

	ts, warnings := TimeSeriesPnL(prices, quantities)
	require.Empty(t, warnings)
	require.Len(t, ts, 5)

	firstSeen := map[string]bool{}
	for _, row := range ts {
		if !firstSeen[row.Ticker] {
			assert.Equal(t, 0.0, row.PnL, "first row of %s", row.Ticker)
			firstSeen[row.Ticker] = true
		}
	}

	var last TimeSeriesRow
	for _, row := range ts {
		if row.Ticker == "NVDA" {
			last = row
		}
	}
	assert.InDelta(t, 1000, last.PnL, 1e-9)
	assert.InDelta(t, 11000, last.PositionValue, 1e-9)
}

func TestTimeSeriesPnLNoGridAlignmentAssumed(t *testing.T) {
	// tickers on disjoint timestamp grids still concatenate cleanly
	a := PriceSeries{Points: []PricePoint{{Time: 1000, Close: 10}, {Time: 3000, Close: 12}}}
	b := PriceSeries{Points: []PricePoint{{Time: 2000, Close: 20}, {Time: 4000, Close: 18}}}
	ts, _ := TimeSeriesPnL(map[string]PriceSeries{"A": a, "B": b}, map[string]float64{"A": 1, "B": 1})
	require.Len(t, ts, 4)
}

func TestTotalsZeroValue(t *testing.T) {
	totals := Totals(nil)
	assert.Equal(t, 0.0, totals.PnL)
	assert.Equal(t, 0.0, totals.ChangePct)
}

func TestAllocateBySector(t *testing.T) {
	prices := map[string]PriceSeries{
		"NVDA":  series("Technology", 100, 110),
		"MSFT":  series("Technology", 50, 45),
		"GOOGL": series("Communication Services", 200, 220),
	}
	quantities := map[string]float64{"NVDA": 100, "MSFT": 30, "GOOGL": 70}

	allocs := AllocateBySector(prices, quantities)
	require.Len(t, allocs, 2)

	assert.Equal(t, "Communication Services", allocs[0].Sector)
	assert.InDelta(t, 15400, allocs[0].Value, 1e-9)
	assert.Equal(t, "Technology", allocs[1].Sector)
	assert.InDelta(t, 12350, allocs[1].Value, 1e-9)
	assert.ElementsMatch(t, []string{"NVDA", "MSFT"}, allocs[1].Tickers)
	assert.InDelta(t, allocs[0].Pct+allocs[1].Pct, 100, 1e-9)
}
