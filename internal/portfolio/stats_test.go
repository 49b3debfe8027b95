package portfolio

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVaRInterpolatedQuantile(t *testing.T) {
	returns := []float64{-0.05, 0.01, -0.02, 0.03}
	got := VaR(returns, 0.95)
	// 0.05-quantile with linear interpolation over the sorted series
	assert.InDelta(t, -0.0455, got, 1e-9)

	assert.True(t, IsUndefined(VaR(nil, 0.95)))
	assert.True(t, IsUndefined(VaR([]float64{Undefined(), Undefined()}, 0.95)))
}

func TestCVaRTailMean(t *testing.T) {
	returns := []float64{-0.05, 0.01, -0.02, 0.03}
	got := CVaR(returns, 0.95)
	// only -0.05 sits at or below the VaR threshold
	assert.InDelta(t, -0.05, got, 1e-9)

	assert.True(t, IsUndefined(CVaR(nil, 0.95)))
}

func TestSharpeZeroVolatilityIsUndefined(t *testing.T) {
	flat := []float64{0.01, 0.01, 0.01, 0.01}
	assert.True(t, IsUndefined(Sharpe(flat, 0)))
	assert.True(t, IsUndefined(Sharpe(nil, 0)))
}

func TestSharpeSignMatchesMean(t *testing.T) {
	up := []float64{0.02, 0.01, 0.03, 0.01}
	down := []float64{-0.02, -0.01, -0.03, -0.01}
	assert.Positive(t, Sharpe(up, 0))
	assert.Negative(t, Sharpe(down, 0))
}

func TestSortinoNoDownsideIsUndefined(t *testing.T) {
	allGains := []float64{0.01, 0.02, 0.03}
	assert.True(t, IsUndefined(Sortino(allGains, 0)))

	// a single downside observation has zero deviation
	oneLoss := []float64{0.01, 0.02, -0.01}
	assert.True(t, IsUndefined(Sortino(oneLoss, 0)))

	twoLosses := []float64{0.05, -0.01, -0.03}
	got := Sortino(twoLosses, 0)
	require.False(t, IsUndefined(got))
	assert.Positive(t, got)
}

func TestCalmar(t *testing.T) {
	assert.True(t, IsUndefined(Calmar(nil)))

	// monotonic growth has zero drawdown
	assert.True(t, IsUndefined(Calmar([]float64{0.01, 0.01, 0.02})))

	got := Calmar([]float64{0.10, -0.05, 0.04})
	require.False(t, IsUndefined(got))
	assert.Positive(t, got)
}

func TestMaxDrawdown(t *testing.T) {
	got := MaxDrawdown([]float64{100, 110, 99, 120})
	assert.InDelta(t, -0.1, got, 1e-9)

	// flat series: exactly zero, not undefined
	assert.Equal(t, 0.0, MaxDrawdown([]float64{50, 50, 50}))

	// never positive
	for _, series := range [][]float64{
		{1, 2, 3},
		{3, 2, 1},
		{5, 1, 9, 2},
	} {
		dd := MaxDrawdown(series)
		require.False(t, IsUndefined(dd))
		assert.LessOrEqual(t, dd, 0.0)
	}

	assert.True(t, IsUndefined(MaxDrawdown(nil)))
	assert.True(t, IsUndefined(MaxDrawdown([]float64{0, 0, 0})))
}

func TestWinLossStats(t *testing.T) {
	allWins := WinLossStats([]float64{10, 5, 1})
	assert.Equal(t, 1.0, allWins.WinRate)
	assert.Equal(t, 0.0, allWins.LossRate)
	assert.True(t, math.IsInf(allWins.ProfitFactor, 1))

	mixed := WinLossStats([]float64{10, -5, 0, 5})
	assert.Equal(t, 0.5, mixed.WinRate)
	assert.Equal(t, 0.25, mixed.LossRate)
	assert.InDelta(t, 3.0, mixed.ProfitFactor, 1e-9)

	allZero := WinLossStats([]float64{0, 0})
	assert.Equal(t, 0.0, allZero.WinRate)
	assert.True(t, IsUndefined(allZero.ProfitFactor))

	empty := WinLossStats(nil)
	assert.True(t, IsUndefined(empty.WinRate))
	assert.True(t, IsUndefined(empty.LossRate))
	assert.True(t, IsUndefined(empty.ProfitFactor))
}

func TestCorrelateDiagonalAndSymmetry(t *testing.T) {
	wide := PriceWide{
		Tickers: []string{"AAA", "BBB", "CCC"},
		Rows: [][]float64{
			{100, 200, 50},
			{110, 190, 55},
			{105, 205, 52},
			{120, 185, 60},
		},
	}
	m := Correlate(wide)
	require.Len(t, m.Cells, 3)
	for i := range m.Tickers {
		assert.InDelta(t, 1.0, m.At(i, i), 1e-9, "diagonal %s", m.Tickers[i])
		for j := range m.Tickers {
			assert.Equal(t, m.At(i, j), m.At(j, i), "symmetry %d,%d", i, j)
		}
	}
	// AAA and BBB move in opposite directions here
	assert.Negative(t, m.At(0, 1))
}

func TestCorrelatePerfectPair(t *testing.T) {
	wide := PriceWide{
		Tickers: []string{"X", "Y"},
		Rows: [][]float64{
			{10, 100},
			{11, 110},
			{12.1, 121},
		},
	}
	m := Correlate(wide)
	assert.InDelta(t, 1.0, m.At(0, 1), 1e-9)
}

func TestCorrelateDegenerateTickerUndefined(t *testing.T) {
	wide := PriceWide{
		Tickers: []string{"FLAT", "MOVES"},
		Rows: [][]float64{
			{50, 100},
			{50, 110},
			{50, 99},
		},
	}
	m := Correlate(wide)
	assert.True(t, IsUndefined(m.At(0, 0)), "degenerate diagonal")
	assert.True(t, IsUndefined(m.At(0, 1)))
	assert.InDelta(t, 1.0, m.At(1, 1), 1e-9)
}

func TestCorrelateDropsIncompleteRows(t *testing.T) {
	wide := PriceWide{
		Tickers: []string{"X", "Y"},
		Rows: [][]float64{
			{10, 100},
			{11, Undefined()}, // Y missing this bar
			{12, 110},
			{13, 121},
		},
	}
	m := Correlate(wide)
	// still computable from the complete rows
	assert.False(t, IsUndefined(m.At(0, 1)))
}

func TestCorrelateTooFewRows(t *testing.T) {
	wide := PriceWide{Tickers: []string{"X"}, Rows: [][]float64{{10}}}
	m := Correlate(wide)
	assert.True(t, IsUndefined(m.At(0, 0)))
}

func TestQuantileBounds(t *testing.T) {
	vals := []float64{3, 1, 2}
	assert.Equal(t, 1.0, quantile(vals, 0))
	assert.Equal(t, 3.0, quantile(vals, 1))
	assert.InDelta(t, 2.0, quantile(vals, 0.5), 1e-9)
}
