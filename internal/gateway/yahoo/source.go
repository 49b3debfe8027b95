package yahoo

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"

	"sentinel/internal/logger"
	"sentinel/internal/market"

	"github.com/tidwall/gjson"
)

// Source implements market.Source against the Yahoo Finance chart and
// quoteSummary endpoints. All failures are per-ticker; callers decide how a
// failed ticker affects the batch.
type Source struct {
	cfg    Config
	client *http.Client
}

var _ market.Source = (*Source)(nil)

func New(cfg Config) *Source {
	final := cfg.withDefaults()
	return &Source{
		cfg:    final,
		client: &http.Client{Timeout: final.HTTPTimeout},
	}
}

// SetHTTPClient sets the HTTP client for testing.
func (s *Source) SetHTTPClient(client *http.Client) {
	s.client = client
}

// FetchHistory downloads the historical bars for one ticker. Null entries in
// the provider's close array become NaN bars; the normalizer drops them as
// malformed rows.
func (s *Source) FetchHistory(ctx context.Context, ticker string, period market.Period, interval market.Interval) (market.RawPriceTable, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return market.RawPriceTable{}, fmt.Errorf("ticker is required")
	}
	if err := market.ValidateInterval(period, interval); err != nil {
		return market.RawPriceTable{}, err
	}

	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?range=%s&interval=%s&includeAdjustedClose=true",
		s.cfg.BaseURL, url.PathEscape(ticker), period, interval)
	body, err := s.get(ctx, endpoint)
	if err != nil {
		return market.RawPriceTable{}, fmt.Errorf("fetch %s: %w", ticker, err)
	}
	return parseChart(ticker, body)
}

// Sector resolves the sector label via the quoteSummary assetProfile module.
// Best effort: callers fall back to "Unknown" on error.
func (s *Source) Sector(ctx context.Context, ticker string) (string, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return "", fmt.Errorf("ticker is required")
	}
	endpoint := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?modules=assetProfile",
		s.cfg.BaseURL, url.PathEscape(ticker))
	body, err := s.get(ctx, endpoint)
	if err != nil {
		return "", fmt.Errorf("sector %s: %w", ticker, err)
	}
	sector := gjson.GetBytes(body, "quoteSummary.result.0.assetProfile.sector").String()
	if sector == "" {
		return "", fmt.Errorf("sector %s: no assetProfile in response", ticker)
	}
	return sector, nil
}

func (s *Source) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", s.cfg.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		logger.Debugf("yahoo: %s returned %d", endpoint, resp.StatusCode)
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	return body, nil
}

// parseChart maps the chart JSON payload onto a RawPriceTable. The provider
// nests arrays under indicators.quote / indicators.adjclose; a missing close
// array with a present adjclose array is preserved as-is so the normalizer
// can apply its fallback-with-warning policy.
func parseChart(ticker string, body []byte) (market.RawPriceTable, error) {
	if !gjson.ValidBytes(body) {
		return market.RawPriceTable{}, fmt.Errorf("parse %s: invalid json", ticker)
	}
	root := gjson.GetBytes(body, "chart")
	if desc := root.Get("error.description"); desc.Exists() && desc.String() != "" {
		return market.RawPriceTable{}, fmt.Errorf("provider error for %s: %s", ticker, desc.String())
	}
	result := root.Get("result.0")
	if !result.Exists() {
		return market.RawPriceTable{}, fmt.Errorf("no chart result for %s", ticker)
	}

	timestamps := result.Get("timestamp").Array()
	closes := result.Get("indicators.quote.0.close")
	adjCloses := result.Get("indicators.adjclose.0.adjclose")
	opens := result.Get("indicators.quote.0.open").Array()
	highs := result.Get("indicators.quote.0.high").Array()
	lows := result.Get("indicators.quote.0.low").Array()
	volumes := result.Get("indicators.quote.0.volume").Array()

	table := market.RawPriceTable{
		Ticker:      ticker,
		HasClose:    closes.Exists() && len(closes.Array()) > 0,
		HasAdjClose: adjCloses.Exists() && len(adjCloses.Array()) > 0,
	}
	closeArr := closes.Array()
	adjArr := adjCloses.Array()

	for i, ts := range timestamps {
		bar := market.Bar{
			Time:     ts.Int() * 1000, // chart API uses unix seconds
			Close:    numberAt(closeArr, i),
			AdjClose: numberAt(adjArr, i),
			Open:     numberAt(opens, i),
			High:     numberAt(highs, i),
			Low:      numberAt(lows, i),
			Volume:   numberAt(volumes, i),
		}
		table.Bars = append(table.Bars, bar)
	}
	return table, nil
}

// numberAt reads arr[i] as a float, NaN for nulls and out-of-range indexes.
func numberAt(arr []gjson.Result, i int) float64 {
	if i >= len(arr) {
		return math.NaN()
	}
	v := arr[i]
	if v.Type == gjson.Null || !v.Exists() {
		return math.NaN()
	}
	return v.Float()
}
