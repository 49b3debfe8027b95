package portfolio

import "sort"

const confidenceLevel = 0.95

// ComputeBundle orchestrates the statistics suite over a combined PnL time
// series. The second return is false when the input is too thin to compute
// anything (empty, or a single timestamp after grouping); callers must check
// it instead of probing individual fields for the undefined sentinel.
//
// Portfolio returns are the percentage changes of the summed position-value
// series. MaxDrawdown is fed the value series itself, not its returns:
// drawdown is defined on an equity path, which is a deliberate distinction
// from Calmar's internal use of cumulative returns.
func ComputeBundle(ts PnLTimeSeries) (MetricsBundle, bool) {
	if len(ts) == 0 {
		return MetricsBundle{}, false
	}

	times, values := portfolioValueSeries(ts)
	if len(times) < 2 {
		return MetricsBundle{}, false
	}

	returns := pctChange(values)
	winLoss := WinLossStats(diff(values))

	bundle := MetricsBundle{
		VaR95:        VaR(returns, confidenceLevel),
		CVaR95:       CVaR(returns, confidenceLevel),
		Sharpe:       Sharpe(returns, 0),
		Sortino:      Sortino(returns, 0),
		Calmar:       Calmar(returns),
		MaxDrawdown:  MaxDrawdown(values),
		WinRate:      winLoss.WinRate,
		LossRate:     winLoss.LossRate,
		ProfitFactor: winLoss.ProfitFactor,
		Correlation:  Correlate(pivotPrices(ts)),
	}
	return bundle, true
}

// portfolioValueSeries groups the long-format table by timestamp, summing
// position value across tickers. Timestamps come out ascending.
func portfolioValueSeries(ts PnLTimeSeries) ([]int64, []float64) {
	byTime := make(map[int64]float64)
	for _, row := range ts {
		byTime[row.Time] += row.PositionValue
	}
	times := make([]int64, 0, len(byTime))
	for t := range byTime {
		times = append(times, t)
	}
	sort.Slice(times, func(i, j int) bool { return times[i] < times[j] })
	values := make([]float64, len(times))
	for i, t := range times {
		values[i] = byTime[t]
	}
	return times, values
}

// pctChange computes period-over-period percentage changes, dropping the
// first (undefined) change. A zero previous value makes that change
// undefined rather than infinite; downstream statistics drop it.
func pctChange(values []float64) []float64 {
	if len(values) < 2 {
		return nil
	}
	out := make([]float64, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		prev := values[i-1]
		if prev == 0 {
			out = append(out, Undefined())
			continue
		}
		out = append(out, values[i]/prev-1)
	}
	return out
}

// diff returns absolute period-over-period changes (the per-period dollar
// PnL of the portfolio path).
func diff(values []float64) []float64 {
	if len(values) < 2 {
		return nil
	}
	out := make([]float64, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		out = append(out, values[i]-values[i-1])
	}
	return out
}

// pivotPrices reshapes the long-format table into a wide time-by-ticker
// price grid for correlation. Missing (time, ticker) cells are NaN; the
// correlation step drops incomplete return rows.
func pivotPrices(ts PnLTimeSeries) PriceWide {
	tickerSet := make(map[string]int)
	timeSet := make(map[int64]int)
	for _, row := range ts {
		if _, ok := tickerSet[row.Ticker]; !ok {
			tickerSet[row.Ticker] = 0
		}
		if _, ok := timeSet[row.Time]; !ok {
			timeSet[row.Time] = 0
		}
	}
	tickers := sortedKeys(tickerSet)
	for i, t := range tickers {
		tickerSet[t] = i
	}
	times := make([]int64, 0, len(timeSet))
	for t := range timeSet {
		times = append(times, t)
	}
	sort.Slice(times, func(i, j int) bool { return times[i] < times[j] })
	for i, t := range times {
		timeSet[t] = i
	}

	rows := make([][]float64, len(times))
	for i := range rows {
		row := make([]float64, len(tickers))
		for j := range row {
			row[j] = Undefined()
		}
		rows[i] = row
	}
	for _, r := range ts {
		rows[timeSet[r.Time]][tickerSet[r.Ticker]] = r.Price
	}
	return PriceWide{Tickers: tickers, Rows: rows}
}
