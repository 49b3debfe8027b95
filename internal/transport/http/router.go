package porthttp

import (
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"sentinel/internal/market"
	"sentinel/internal/portfolio"
	"sentinel/internal/state"

	"github.com/gin-gonic/gin"
)

// Router exposes the portfolio query and update endpoints.
type Router struct {
	state     *state.Manager
	validator *updateValidator
}

// NewRouter builds the /api/portfolio router.
func NewRouter(st *state.Manager) (*Router, error) {
	validator, err := newUpdateValidator()
	if err != nil {
		return nil, err
	}
	return &Router{state: st, validator: validator}, nil
}

// Register mounts the portfolio routes under the given group.
func (r *Router) Register(group *gin.RouterGroup) {
	if group == nil {
		return
	}
	group.GET("", r.handleSelection)
	group.PUT("", r.handleUpdate)
	group.POST("/refresh", r.handleRefresh)
	group.GET("/snapshot", r.handleSnapshot)
	group.GET("/timeseries", r.handleTimeSeries)
	group.GET("/timeseries.csv", r.handleTimeSeriesCSV)
	group.GET("/metrics", r.handleMetrics)
	group.GET("/intervals", r.handleIntervals)
}

func (r *Router) handleSelection(c *gin.Context) {
	view := r.state.View()
	c.JSON(http.StatusOK, gin.H{
		"selection":    view.Selection,
		"refreshed_at": view.RefreshedAt,
		"run_id":       view.RunID,
	})
}

// handleIntervals publishes the period to allowed-intervals table so UIs can
// constrain their pickers instead of guessing.
func (r *Router) handleIntervals(c *gin.Context) {
	out := make(map[string]any, len(market.Periods()))
	for _, p := range market.Periods() {
		out[string(p)] = gin.H{
			"intervals": market.IntervalsFor(p),
			"default":   market.DefaultInterval(p),
		}
	}
	c.JSON(http.StatusOK, out)
}

func (r *Router) handleUpdate(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sel, err := r.validator.parse(body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := r.state.Update(c.Request.Context(), sel); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	r.handleSelection(c)
}

func (r *Router) handleRefresh(c *gin.Context) {
	if err := r.state.Refresh(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	r.handleSelection(c)
}

func (r *Router) handleSnapshot(c *gin.Context) {
	view := r.state.View()
	if view.Empty() {
		respondNoData(c, view)
		return
	}
	quantities := view.Selection.Quantities()
	rows, warnings := portfolio.SnapshotPnL(view.Data, quantities)
	warnings = append(view.Warnings, warnings...)
	if len(rows) == 0 {
		respondNoData(c, view)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"rows":       rows,
		"totals":     portfolio.Totals(rows),
		"sectors":    portfolio.AllocateBySector(view.Data, quantities),
		"warnings":   warnings,
		"run_id":     view.RunID,
		"refreshed_at": view.RefreshedAt,
	})
}

func (r *Router) handleTimeSeries(c *gin.Context) {
	rows, view, ok := r.filteredTimeSeries(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"rows":     rows,
		"warnings": view.Warnings,
		"run_id":   view.RunID,
	})
}

func (r *Router) handleTimeSeriesCSV(c *gin.Context) {
	rows, _, ok := r.filteredTimeSeries(c)
	if !ok {
		return
	}
	c.Header("Content-Disposition", `attachment; filename="pnl_timeseries.csv"`)
	c.Header("Content-Type", "text/csv")
	if err := writeTimeSeriesCSV(c.Writer, rows); err != nil {
		_ = c.Error(err)
	}
}

// filteredTimeSeries computes the long-format table and applies optional
// tickers/from/to query filters. Writes the error response itself when the
// request is unusable.
func (r *Router) filteredTimeSeries(c *gin.Context) (portfolio.PnLTimeSeries, state.View, bool) {
	view := r.state.View()
	if view.Empty() {
		respondNoData(c, view)
		return nil, view, false
	}
	ts, _ := portfolio.TimeSeriesPnL(view.Data, view.Selection.Quantities())

	tickers := parseTickerFilter(c.Query("tickers"))
	from, err := parseTimeParam(c.Query("from"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from: " + err.Error()})
		return nil, view, false
	}
	to, err := parseTimeParam(c.Query("to"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid to: " + err.Error()})
		return nil, view, false
	}

	if tickers == nil && from == 0 && to == 0 {
		return ts, view, true
	}
	filtered := make(portfolio.PnLTimeSeries, 0, len(ts))
	for _, row := range ts {
		if tickers != nil && !tickers[row.Ticker] {
			continue
		}
		if from != 0 && row.Time < from {
			continue
		}
		if to != 0 && row.Time > to {
			continue
		}
		filtered = append(filtered, row)
	}
	return filtered, view, true
}

func (r *Router) handleMetrics(c *gin.Context) {
	view := r.state.View()
	if view.Empty() {
		respondNoData(c, view)
		return
	}
	ts, _ := portfolio.TimeSeriesPnL(view.Data, view.Selection.Quantities())
	bundle, ok := portfolio.ComputeBundle(ts)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"empty": true, "warnings": view.Warnings})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"empty":         false,
		"var_95":        jsonNumber(bundle.VaR95),
		"cvar_95":       jsonNumber(bundle.CVaR95),
		"sharpe":        jsonNumber(bundle.Sharpe),
		"sortino":       jsonNumber(bundle.Sortino),
		"calmar":        jsonNumber(bundle.Calmar),
		"max_drawdown":  jsonNumber(bundle.MaxDrawdown),
		"win_rate":      jsonNumber(bundle.WinRate),
		"loss_rate":     jsonNumber(bundle.LossRate),
		"profit_factor": jsonNumber(bundle.ProfitFactor),
		"correlation":   correlationPayload(bundle.Correlation),
		"warnings":      view.Warnings,
		"run_id":        view.RunID,
	})
}

func respondNoData(c *gin.Context, view state.View) {
	c.JSON(http.StatusOK, gin.H{
		"no_data":  true,
		"warnings": view.Warnings,
		"run_id":   view.RunID,
	})
}

// jsonNumber maps engine sentinels onto JSON-safe values: the undefined
// sentinel becomes null, an infinite profit factor the string "inf".
func jsonNumber(v float64) any {
	switch {
	case portfolio.IsUndefined(v):
		return nil
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	default:
		return v
	}
}

func correlationPayload(m portfolio.CorrelationMatrix) gin.H {
	cells := make([][]any, len(m.Cells))
	for i, row := range m.Cells {
		cells[i] = make([]any, len(row))
		for j, v := range row {
			cells[i][j] = jsonNumber(v)
		}
	}
	return gin.H{"tickers": m.Tickers, "cells": cells}
}

func parseTickerFilter(raw string) map[string]bool {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	out := make(map[string]bool)
	for _, t := range strings.Split(raw, ",") {
		t = strings.ToUpper(strings.TrimSpace(t))
		if t != "" {
			out[t] = true
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// parseTimeParam accepts RFC3339 or a bare date and returns unix ms, 0 when
// the parameter is absent.
func parseTimeParam(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts.UnixMilli(), nil
		}
	}
	return 0, fmt.Errorf("unrecognized time %q", raw)
}
