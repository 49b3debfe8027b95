package porthttp

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"sentinel/internal/portfolio"
)

var csvHeader = []string{"time", "ticker", "quantity", "price", "position_value", "pnl"}

// writeTimeSeriesCSV is a pure serialization of the long-format PnL table;
// no engine logic lives here.
func writeTimeSeriesCSV(w io.Writer, rows portfolio.PnLTimeSeries) error {
	out := csv.NewWriter(w)
	if err := out.Write(csvHeader); err != nil {
		return err
	}
	for _, row := range rows {
		record := []string{
			time.UnixMilli(row.Time).UTC().Format(time.RFC3339),
			row.Ticker,
			formatFloat(row.Quantity),
			formatFloat(row.Price),
			formatFloat(row.PositionValue),
			formatFloat(row.PnL),
		}
		if err := out.Write(record); err != nil {
			return err
		}
	}
	out.Flush()
	return out.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
