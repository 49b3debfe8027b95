// Package state owns the "active selection" of the portfolio monitor: which
// tickers and quantities are being watched, over which period and interval,
// and the normalized price data fetched for them. The computation engine in
// internal/portfolio stays stateless; this package is the explicit,
// externally-owned state object the engine is fed from.
package state

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"sentinel/internal/logger"
	"sentinel/internal/market"
	"sentinel/internal/portfolio"
	"sentinel/internal/store"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Position is one held ticker. Negative quantities are short positions.
type Position struct {
	Ticker   string  `yaml:"ticker" json:"ticker"`
	Quantity float64 `yaml:"quantity" json:"quantity"`
}

// Selection is the user-chosen portfolio and data window.
type Selection struct {
	Positions []Position      `yaml:"positions" json:"positions"`
	Period    market.Period   `yaml:"period" json:"period"`
	Interval  market.Interval `yaml:"interval" json:"interval"`
}

// DefaultSelection mirrors the out-of-the-box demo portfolio.
func DefaultSelection() Selection {
	return Selection{
		Positions: []Position{
			{Ticker: "NVDA", Quantity: 100},
			{Ticker: "MSFT", Quantity: 30},
			{Ticker: "GOOGL", Quantity: 70},
		},
		Period:   market.Period1M,
		Interval: "1d",
	}
}

// Tickers returns the distinct tickers in position order.
func (s Selection) Tickers() []string {
	seen := make(map[string]bool, len(s.Positions))
	out := make([]string, 0, len(s.Positions))
	for _, p := range s.Positions {
		if p.Ticker == "" || seen[p.Ticker] {
			continue
		}
		seen[p.Ticker] = true
		out = append(out, p.Ticker)
	}
	return out
}

// Quantities returns the ticker to quantity map. Later duplicates win.
func (s Selection) Quantities() map[string]float64 {
	out := make(map[string]float64, len(s.Positions))
	for _, p := range s.Positions {
		if p.Ticker != "" {
			out[p.Ticker] = p.Quantity
		}
	}
	return out
}

// Normalize trims and upper-cases tickers and fills a missing interval with
// the period default.
func (s *Selection) Normalize() {
	cleaned := s.Positions[:0]
	for _, p := range s.Positions {
		p.Ticker = strings.ToUpper(strings.TrimSpace(p.Ticker))
		if p.Ticker == "" {
			continue
		}
		cleaned = append(cleaned, p)
	}
	s.Positions = cleaned
	if s.Period == "" {
		s.Period = market.Period1M
	}
	if s.Interval == "" {
		s.Interval = market.DefaultInterval(s.Period)
	}
}

// Validate checks the selection against the period/interval contract.
func (s Selection) Validate() error {
	if len(s.Positions) == 0 {
		return fmt.Errorf("selection has no positions")
	}
	if _, err := market.ParsePeriod(string(s.Period)); err != nil {
		return err
	}
	return market.ValidateInterval(s.Period, s.Interval)
}

// View is an immutable copy of the manager's current data, handed to
// computation callers. Data maps ticker to its normalized series; tickers
// whose fetch failed are absent and explain themselves in Warnings.
type View struct {
	Selection   Selection
	Data        map[string]portfolio.PriceSeries
	Warnings    []portfolio.Warning
	RefreshedAt time.Time
	RunID       string
}

// Empty reports whether no ticker produced usable data.
func (v View) Empty() bool { return len(v.Data) == 0 }

// Manager guards the active selection and its fetched data. Every update
// discards and rebuilds the whole dataset; nothing is patched in place.
type Manager struct {
	source      market.Source
	cache       store.PriceCache
	cacheTTL    time.Duration
	concurrency int

	mu          sync.RWMutex
	sel         Selection
	data        map[string]portfolio.PriceSeries
	warnings    []portfolio.Warning
	refreshedAt time.Time
	runID       string
}

// Option configures a Manager.
type Option func(*Manager)

// WithCache attaches a read-through price cache with the given freshness TTL.
func WithCache(cache store.PriceCache, ttl time.Duration) Option {
	return func(m *Manager) {
		m.cache = cache
		m.cacheTTL = ttl
	}
}

// WithConcurrency bounds how many tickers are fetched in parallel.
func WithConcurrency(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.concurrency = n
		}
	}
}

func NewManager(source market.Source, initial Selection, opts ...Option) (*Manager, error) {
	initial.Normalize()
	if err := initial.Validate(); err != nil {
		return nil, err
	}
	m := &Manager{
		source:      source,
		sel:         initial,
		concurrency: 4,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Selection returns a copy of the active selection.
func (m *Manager) Selection() Selection {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return copySelection(m.sel)
}

// View returns a copy of the current data snapshot.
func (m *Manager) View() View {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data := make(map[string]portfolio.PriceSeries, len(m.data))
	for k, v := range m.data {
		data[k] = v
	}
	warnings := append([]portfolio.Warning(nil), m.warnings...)
	return View{
		Selection:   copySelection(m.sel),
		Data:        data,
		Warnings:    warnings,
		RefreshedAt: m.refreshedAt,
		RunID:       m.runID,
	}
}

// Update replaces the active selection and refetches everything. On a
// validation error the previous selection and data stay untouched.
func (m *Manager) Update(ctx context.Context, sel Selection) error {
	sel.Normalize()
	if err := sel.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	m.sel = sel
	m.mu.Unlock()
	return m.Refresh(ctx)
}

// Refresh refetches and renormalizes price data for the active selection.
// A single ticker's fetch failure becomes a warning; the refresh itself only
// fails on context cancellation.
func (m *Manager) Refresh(ctx context.Context) error {
	sel := m.Selection()
	runID := uuid.NewString()
	logger.Infof("refresh %s: %d tickers period=%s interval=%s", runID, len(sel.Positions), sel.Period, sel.Interval)

	raw, fetchWarnings, err := m.fetchAll(ctx, sel)
	if err != nil {
		return err
	}
	data, warnings := portfolio.Normalize(ctx, raw, m.source)
	warnings = append(fetchWarnings, warnings...)
	for _, w := range warnings {
		logger.Warnf("refresh %s: %s", runID, w)
	}

	m.mu.Lock()
	m.data = data
	m.warnings = warnings
	m.refreshedAt = time.Now()
	m.runID = runID
	m.mu.Unlock()
	return nil
}

// fetchAll retrieves raw tables for every ticker, reading through the cache
// when one is configured. Failures are collected per ticker and never abort
// the batch.
func (m *Manager) fetchAll(ctx context.Context, sel Selection) (map[string]market.RawPriceTable, []portfolio.Warning, error) {
	tickers := sel.Tickers()
	var (
		mu       sync.Mutex
		raw      = make(map[string]market.RawPriceTable, len(tickers))
		warnings []portfolio.Warning
	)

	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(m.concurrency)
	for _, ticker := range tickers {
		ticker := ticker
		group.Go(func() error {
			table, err := m.fetchOne(ctx, ticker, sel.Period, sel.Interval)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				warnings = append(warnings, portfolio.Warning{
					Ticker: ticker,
					Code:   portfolio.WarnFetchFailed,
					Detail: err.Error(),
				})
				return nil
			}
			raw[ticker] = table
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, nil, err
	}
	sortWarnings(warnings)
	return raw, warnings, nil
}

func (m *Manager) fetchOne(ctx context.Context, ticker string, period market.Period, interval market.Interval) (market.RawPriceTable, error) {
	if m.cache != nil {
		if table, ok, err := m.cache.Get(ctx, ticker, period, interval, m.cacheTTL); err == nil && ok {
			logger.Debugf("cache hit for %s@%s/%s", ticker, period, interval)
			return table, nil
		}
	}
	table, err := m.source.FetchHistory(ctx, ticker, period, interval)
	if err != nil {
		return market.RawPriceTable{}, err
	}
	if m.cache != nil && !table.Empty() {
		if err := m.cache.Put(ctx, table, period, interval); err != nil {
			logger.Warnf("cache put failed for %s: %v", ticker, err)
		}
	}
	return table, nil
}

func copySelection(s Selection) Selection {
	out := s
	out.Positions = append([]Position(nil), s.Positions...)
	return out
}

func sortWarnings(ws []portfolio.Warning) {
	sort.Slice(ws, func(i, j int) bool { return ws[i].Ticker < ws[j].Ticker })
}
