package porthttp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"sentinel/internal/market"
	"sentinel/internal/state"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	tables map[string]market.RawPriceTable
}

func (s *stubSource) FetchHistory(_ context.Context, ticker string, _ market.Period, _ market.Interval) (market.RawPriceTable, error) {
	table, ok := s.tables[ticker]
	if !ok {
		return market.RawPriceTable{}, fmt.Errorf("no data for %s", ticker)
	}
	return table, nil
}

func (s *stubSource) Sector(_ context.Context, ticker string) (string, error) {
	return "Technology", nil
}

func table(ticker string, closes ...float64) market.RawPriceTable {
	bars := make([]market.Bar, len(closes))
	for i, c := range closes {
		bars[i] = market.Bar{Time: int64(i+1) * 86_400_000, Close: c}
	}
	return market.RawPriceTable{Ticker: ticker, Bars: bars, HasClose: true}
}

func newTestServer(t *testing.T, src market.Source, refresh bool) *Server {
	t.Helper()
	sel := state.Selection{
		Positions: []state.Position{
			{Ticker: "NVDA", Quantity: 100},
			{Ticker: "MSFT", Quantity: 30},
			{Ticker: "GOOGL", Quantity: 70},
		},
		Period:   market.Period1M,
		Interval: "1d",
	}
	mgr, err := state.NewManager(src, sel)
	require.NoError(t, err)
	if refresh {
		require.NoError(t, mgr.Refresh(context.Background()))
	}
	srv, err := NewServer(ServerConfig{Addr: ":0", State: mgr})
	require.NoError(t, err)
	return srv
}

func defaultSource() *stubSource {
	return &stubSource{tables: map[string]market.RawPriceTable{
		"NVDA":  table("NVDA", 100, 105, 110),
		"MSFT":  table("MSFT", 50, 48, 45),
		"GOOGL": table("GOOGL", 200, 210, 220),
	}}
}

func doRequest(srv *Server, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, defaultSource(), false)
	w := doRequest(srv, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSnapshotEndpoint(t *testing.T) {
	srv := newTestServer(t, defaultSource(), true)
	w := doRequest(srv, http.MethodGet, "/api/portfolio/snapshot", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Rows []struct {
			Ticker string  `json:"ticker"`
			PnL    float64 `json:"pnl"`
		} `json:"rows"`
		Totals struct {
			PnL           float64 `json:"pnl"`
			PositionValue float64 `json:"position_value"`
		} `json:"totals"`
		Sectors []struct {
			Sector string `json:"sector"`
		} `json:"sectors"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Rows, 3)
	assert.InDelta(t, 2250, resp.Totals.PnL, 1e-6)
	assert.InDelta(t, 27750, resp.Totals.PositionValue, 1e-6)
	require.NotEmpty(t, resp.Sectors)
	assert.Equal(t, "Technology", resp.Sectors[0].Sector)
}

func TestSnapshotNoData(t *testing.T) {
	srv := newTestServer(t, &stubSource{tables: map[string]market.RawPriceTable{}}, true)
	w := doRequest(srv, http.MethodGet, "/api/portfolio/snapshot", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"no_data":true`)
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, defaultSource(), true)
	w := doRequest(srv, http.MethodGet, "/api/portfolio/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, false, resp["empty"])
	// portfolio value grows every bar: all-win, profit factor is infinite
	assert.Equal(t, "inf", resp["profit_factor"])
	// zero drawdown leaves calmar undefined, rendered as null
	assert.Nil(t, resp["calmar"])
	assert.NotNil(t, resp["sharpe"])

	corr, ok := resp["correlation"].(map[string]any)
	require.True(t, ok)
	assert.Len(t, corr["tickers"], 3)
}

func TestUpdateEndpointValidation(t *testing.T) {
	srv := newTestServer(t, defaultSource(), true)

	// schema violation: empty positions
	w := doRequest(srv, http.MethodPut, "/api/portfolio", `{"positions":[]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// schema violation: unknown period
	w = doRequest(srv, http.MethodPut, "/api/portfolio", `{"positions":[{"ticker":"NVDA","quantity":1}],"period":"2y"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// cross-field violation: intraday interval on a 1y window
	w = doRequest(srv, http.MethodPut, "/api/portfolio", `{"positions":[{"ticker":"NVDA","quantity":1}],"period":"1y","interval":"5m"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// valid update
	w = doRequest(srv, http.MethodPut, "/api/portfolio", `{"positions":[{"ticker":"NVDA","quantity":50}],"period":"5d","interval":"1d"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"period":"5d"`)
}

func TestTimeSeriesFilterAndCSV(t *testing.T) {
	srv := newTestServer(t, defaultSource(), true)

	w := doRequest(srv, http.MethodGet, "/api/portfolio/timeseries?tickers=NVDA", "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Rows []struct {
			Ticker string `json:"ticker"`
		} `json:"rows"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Rows, 3)
	for _, row := range resp.Rows {
		assert.Equal(t, "NVDA", row.Ticker)
	}

	w = doRequest(srv, http.MethodGet, "/api/portfolio/timeseries.csv", "")
	require.Equal(t, http.StatusOK, w.Code)
	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	assert.Equal(t, "time,ticker,quantity,price,position_value,pnl", lines[0])
	assert.Len(t, lines, 10, "header plus 3 tickers x 3 bars")
}

func TestTimeSeriesBadTimeParam(t *testing.T) {
	srv := newTestServer(t, defaultSource(), true)
	w := doRequest(srv, http.MethodGet, "/api/portfolio/timeseries?from=yesterday", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestIntervalsEndpoint(t *testing.T) {
	srv := newTestServer(t, defaultSource(), false)
	w := doRequest(srv, http.MethodGet, "/api/portfolio/intervals", "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]struct {
		Intervals []string `json:"intervals"`
		Default   string   `json:"default"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "30m", resp["1d"].Default)
	assert.Contains(t, resp["1y"].Intervals, "1wk")
}
