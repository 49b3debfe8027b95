package market

import (
	"fmt"
	"strings"
)

// Period is the historical lookback window requested from the provider.
type Period string

// Interval is the bar width within a period.
type Interval string

const (
	Period1D  Period = "1d"
	Period5D  Period = "5d"
	Period1M  Period = "1mo"
	Period3M  Period = "3mo"
	Period6M  Period = "6mo"
	Period1Y  Period = "1y"
	PeriodYTD Period = "ytd"
	PeriodMax Period = "max"
)

// intervalsByPeriod encodes which bar widths the provider accepts for each
// lookback window. Intraday intervals are only valid for short periods.
var intervalsByPeriod = map[Period][]Interval{
	Period1D:  {"1m", "5m", "15m", "30m", "1h"},
	Period5D:  {"5m", "15m", "30m", "1h", "1d"},
	Period1M:  {"15m", "30m", "1h", "1d", "1wk"},
	Period3M:  {"15m", "30m", "1h", "1d", "1wk"},
	Period6M:  {"1d", "1wk", "1mo"},
	Period1Y:  {"1d", "1wk", "1mo"},
	PeriodYTD: {"1d", "1wk", "1mo"},
	PeriodMax: {"1d", "1wk", "1mo"},
}

// Periods lists all recognized periods in display order.
func Periods() []Period {
	return []Period{Period1D, Period5D, Period1M, Period3M, Period6M, Period1Y, PeriodYTD, PeriodMax}
}

// ParsePeriod validates a period string.
func ParsePeriod(s string) (Period, error) {
	p := Period(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := intervalsByPeriod[p]; !ok {
		return "", fmt.Errorf("unknown period %q", s)
	}
	return p, nil
}

// IntervalsFor returns the allowed intervals for a period.
func IntervalsFor(p Period) []Interval {
	allowed := intervalsByPeriod[p]
	out := make([]Interval, len(allowed))
	copy(out, allowed)
	return out
}

// DefaultInterval returns the interval preselected for a period: 30m for the
// intraday 1d window, otherwise 1d when available, else the first option.
func DefaultInterval(p Period) Interval {
	allowed := intervalsByPeriod[p]
	if len(allowed) == 0 {
		return "1d"
	}
	want := Interval("1d")
	if p == Period1D {
		want = "30m"
	}
	for _, iv := range allowed {
		if iv == want {
			return iv
		}
	}
	return allowed[0]
}

// ValidateInterval checks that the interval is legal for the period.
func ValidateInterval(p Period, iv Interval) error {
	allowed, ok := intervalsByPeriod[p]
	if !ok {
		return fmt.Errorf("unknown period %q", p)
	}
	iv = Interval(strings.ToLower(strings.TrimSpace(string(iv))))
	for _, a := range allowed {
		if a == iv {
			return nil
		}
	}
	return fmt.Errorf("interval %q not allowed for period %q", iv, p)
}
