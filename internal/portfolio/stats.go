package portfolio

import (
	"math"
	"sort"
)

// Shared edge-case policy for every statistic in this file: an empty,
// all-missing, or degenerate input yields the undefined sentinel. Nothing
// here returns an error, panics, or reports 0 as a false default. The
// rationale is that every ratio below divides by a volatility or drawdown
// term that can legitimately be zero on a flat price series; the epsilon and
// the sentinel keep a silent divide-by-zero from becoming an infinite or NaN
// ratio inside a displayed summary.

const (
	// epsVolatility is the threshold below which a standard deviation is
	// treated as zero volatility.
	epsVolatility = 1e-12

	// tradingDaysPerYear annualizes daily-return statistics.
	tradingDaysPerYear = 252
)

// VaR returns the Value at Risk of a return series at the given confidence
// level: the (1-level)-quantile of the distribution, linearly interpolated.
func VaR(returns []float64, level float64) float64 {
	clean := dropUndefined(returns)
	if len(clean) == 0 {
		return Undefined()
	}
	return quantile(clean, 1-level)
}

// CVaR returns the Conditional VaR: the mean of all returns at or below the
// VaR threshold.
func CVaR(returns []float64, level float64) float64 {
	clean := dropUndefined(returns)
	threshold := VaR(clean, level)
	if IsUndefined(threshold) {
		return Undefined()
	}
	sum, n := 0.0, 0
	for _, r := range clean {
		if r <= threshold {
			sum += r
			n++
		}
	}
	if n == 0 {
		return Undefined()
	}
	return sum / float64(n)
}

// Sharpe returns the annualized Sharpe ratio of a daily return series.
// riskFree is an annual rate; it is deflated to daily before excess returns
// are taken. Undefined when volatility is below epsVolatility.
func Sharpe(returns []float64, riskFree float64) float64 {
	excess := excessReturns(returns, riskFree)
	if len(excess) == 0 {
		return Undefined()
	}
	std := stdDev(excess)
	if std < epsVolatility {
		return Undefined()
	}
	return math.Sqrt(tradingDaysPerYear) * mean(excess) / std
}

// Sortino returns the annualized Sortino ratio: the Sharpe numerator over
// the standard deviation of the negative excess returns only. Undefined when
// there are no negative excess returns or their deviation is below epsilon.
func Sortino(returns []float64, riskFree float64) float64 {
	excess := excessReturns(returns, riskFree)
	if len(excess) == 0 {
		return Undefined()
	}
	var downside []float64
	for _, r := range excess {
		if r < 0 {
			downside = append(downside, r)
		}
	}
	if len(downside) == 0 {
		return Undefined()
	}
	std := stdDev(downside)
	if std < epsVolatility {
		return Undefined()
	}
	return math.Sqrt(tradingDaysPerYear) * mean(excess) / std
}

// Calmar returns the annualized compounded return divided by the magnitude
// of the maximum drawdown of the cumulative growth path. Undefined when the
// series is empty or the drawdown is zero (flat path).
func Calmar(returns []float64) float64 {
	clean := dropUndefined(returns)
	if len(clean) == 0 {
		return Undefined()
	}
	growth := make([]float64, len(clean))
	compounded := 1.0
	for i, r := range clean {
		compounded *= 1 + r
		growth[i] = compounded
	}
	mdd := MaxDrawdown(growth)
	if IsUndefined(mdd) || mdd == 0 {
		return Undefined()
	}
	annual := math.Pow(compounded, tradingDaysPerYear/float64(len(clean))) - 1
	if !finite(annual) {
		return Undefined()
	}
	return annual / math.Abs(mdd)
}

// MaxDrawdown returns the deepest peak-to-trough decline of a value series:
// min over time of value/runningPeak - 1. The running peak construction
// makes the result <= 0; a constant series yields exactly 0. Zero peaks are
// skipped so a worthless-from-the-start path cannot divide by zero.
func MaxDrawdown(values []float64) float64 {
	clean := dropUndefined(values)
	if len(clean) == 0 {
		return Undefined()
	}
	peak := clean[0]
	worst := 0.0
	seen := false
	for _, v := range clean {
		if v > peak {
			peak = v
		}
		if peak == 0 {
			continue
		}
		dd := v/peak - 1
		if !seen || dd < worst {
			worst = dd
			seen = true
		}
	}
	if !seen {
		return Undefined()
	}
	return worst
}

// WinLossStats computes win/loss rates and the profit factor of a per-period
// PnL series. Rates are undefined on an empty series. The profit factor is
// sum(wins)/|sum(losses)|; with no losses it is +Inf when there are wins and
// undefined when the series is all zero.
func WinLossStats(pnl []float64) WinLoss {
	clean := dropUndefined(pnl)
	if len(clean) == 0 {
		return WinLoss{WinRate: Undefined(), LossRate: Undefined(), ProfitFactor: Undefined()}
	}
	var wins, losses float64
	var winCount, lossCount int
	for _, v := range clean {
		switch {
		case v > 0:
			wins += v
			winCount++
		case v < 0:
			losses += v
			lossCount++
		}
	}
	out := WinLoss{
		WinRate:  float64(winCount) / float64(len(clean)),
		LossRate: float64(lossCount) / float64(len(clean)),
	}
	switch {
	case losses != 0:
		out.ProfitFactor = wins / math.Abs(losses)
	case wins > 0:
		out.ProfitFactor = math.Inf(1)
	default:
		out.ProfitFactor = Undefined()
	}
	return out
}

// PriceWide is a wide time-by-ticker price table: Rows[i][j] is the price of
// Tickers[j] at the i-th timestamp, NaN when that ticker has no bar there.
type PriceWide struct {
	Tickers []string
	Rows    [][]float64
}

// Correlate computes the Pearson correlation matrix of percentage-change
// returns (not raw prices) between every ticker pair. Return rows containing
// any missing value are dropped before correlating, mirroring a listwise
// deletion. A ticker whose surviving return series has no variance gets
// undefined cells, including its own diagonal.
func Correlate(wide PriceWide) CorrelationMatrix {
	n := len(wide.Tickers)
	out := CorrelationMatrix{Tickers: append([]string(nil), wide.Tickers...)}
	out.Cells = make([][]float64, n)
	for i := range out.Cells {
		out.Cells[i] = make([]float64, n)
		for j := range out.Cells[i] {
			out.Cells[i][j] = Undefined()
		}
	}
	if n == 0 || len(wide.Rows) < 2 {
		return out
	}

	// Percentage-change returns per column, then listwise-drop rows where
	// any ticker's return is missing.
	var returns [][]float64
	for i := 1; i < len(wide.Rows); i++ {
		row := make([]float64, n)
		complete := true
		for j := 0; j < n; j++ {
			prev, cur := wide.Rows[i-1][j], wide.Rows[i][j]
			if !finite(prev) || !finite(cur) || prev == 0 {
				complete = false
				break
			}
			row[j] = cur/prev - 1
		}
		if complete {
			returns = append(returns, row)
		}
	}
	if len(returns) < 2 {
		return out
	}

	cols := make([][]float64, n)
	for j := 0; j < n; j++ {
		col := make([]float64, len(returns))
		for i, row := range returns {
			col[i] = row[j]
		}
		cols[j] = col
	}
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			r := pearson(cols[i], cols[j])
			out.Cells[i][j] = r
			out.Cells[j][i] = r
		}
	}
	return out
}

// pearson returns the correlation coefficient of two equal-length series,
// undefined when either side has (near-)zero variance.
func pearson(x, y []float64) float64 {
	mx, my := mean(x), mean(y)
	var sxx, syy, sxy float64
	for i := range x {
		dx, dy := x[i]-mx, y[i]-my
		sxx += dx * dx
		syy += dy * dy
		sxy += dx * dy
	}
	if sxx < epsVolatility || syy < epsVolatility {
		return Undefined()
	}
	return sxy / math.Sqrt(sxx*syy)
}

// quantile returns the q-quantile (0..1) of the series with linear
// interpolation between order statistics.
func quantile(values []float64, q float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

func excessReturns(returns []float64, riskFree float64) []float64 {
	clean := dropUndefined(returns)
	if len(clean) == 0 {
		return nil
	}
	daily := riskFree / tradingDaysPerYear
	out := make([]float64, len(clean))
	for i, r := range clean {
		out[i] = r - daily
	}
	return out
}

func mean(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// stdDev is the population standard deviation (ddof=0).
func stdDev(values []float64) float64 {
	m := mean(values)
	var ss float64
	for _, v := range values {
		d := v - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(values)))
}

// dropUndefined filters NaN entries, mirroring dropna on the input series.
func dropUndefined(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}
