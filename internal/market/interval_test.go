package market

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePeriod(t *testing.T) {
	p, err := ParsePeriod(" 1MO ")
	require.NoError(t, err)
	assert.Equal(t, Period1M, p)

	_, err = ParsePeriod("2w")
	assert.Error(t, err)
}

func TestValidateInterval(t *testing.T) {
	assert.NoError(t, ValidateInterval(Period1D, "30m"))
	assert.NoError(t, ValidateInterval(Period1Y, "1wk"))

	// intraday bars are not available on long windows
	assert.Error(t, ValidateInterval(Period1Y, "5m"))
	assert.Error(t, ValidateInterval(PeriodMax, "1m"))
	assert.Error(t, ValidateInterval(Period("2y"), "1d"))
}

func TestDefaultInterval(t *testing.T) {
	assert.Equal(t, Interval("30m"), DefaultInterval(Period1D))
	for _, p := range []Period{Period5D, Period1M, Period3M, Period6M, Period1Y, PeriodYTD, PeriodMax} {
		assert.Equal(t, Interval("1d"), DefaultInterval(p), "period %s", p)
	}
}

func TestIntervalsForCopies(t *testing.T) {
	a := IntervalsFor(Period1D)
	require.NotEmpty(t, a)
	a[0] = "tampered"
	b := IntervalsFor(Period1D)
	assert.NotEqual(t, a[0], b[0])
}
