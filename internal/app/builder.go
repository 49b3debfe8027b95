package app

import (
	"fmt"
	"os"
	"time"

	sncfg "sentinel/internal/config"
	"sentinel/internal/gateway/yahoo"
	"sentinel/internal/logger"
	"sentinel/internal/market"
	"sentinel/internal/state"
	"sentinel/internal/store"
	porthttp "sentinel/internal/transport/http"
)

// AppBuilder assembles the application from config. The fn fields exist so
// tests can swap the market source or the cache without touching the rest of
// the wiring.
type AppBuilder struct {
	cfg *sncfg.Config

	sourceFn func(sncfg.MarketConfig) (market.Source, error)
	cacheFn  func(sncfg.CacheConfig) (store.PriceCache, error)
}

type AppBuilderOption func(*AppBuilder)

func NewAppBuilder(cfg *sncfg.Config, opts ...AppBuilderOption) *AppBuilder {
	b := &AppBuilder{
		cfg:      cfg,
		sourceFn: buildSource,
		cacheFn:  buildCache,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

// WithSource overrides the market data source.
func WithSource(src market.Source) AppBuilderOption {
	return func(b *AppBuilder) {
		if src != nil {
			b.sourceFn = func(sncfg.MarketConfig) (market.Source, error) { return src, nil }
		}
	}
}

// WithPriceCache overrides the price cache.
func WithPriceCache(cache store.PriceCache) AppBuilderOption {
	return func(b *AppBuilder) {
		if cache != nil {
			b.cacheFn = func(sncfg.CacheConfig) (store.PriceCache, error) { return cache, nil }
		}
	}
}

func (b *AppBuilder) Build() (*App, error) {
	if b.cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	cfg := b.cfg
	logger.SetLevel(cfg.App.LogLevel)

	src, err := b.sourceFn(cfg.Market)
	if err != nil {
		return nil, fmt.Errorf("building market source: %w", err)
	}

	var cache store.PriceCache
	if cfg.Cache.Enabled {
		cache, err = b.cacheFn(cfg.Cache)
		if err != nil {
			return nil, fmt.Errorf("opening price cache: %w", err)
		}
	}

	sel := loadInitialSelection(cfg.Portfolio.File)

	var opts []state.Option
	if cache != nil {
		opts = append(opts, state.WithCache(cache, time.Duration(cfg.Cache.TTLMinutes)*time.Minute))
	}
	opts = append(opts, state.WithConcurrency(cfg.Market.Concurrency))
	mgr, err := state.NewManager(src, sel, opts...)
	if err != nil {
		return nil, fmt.Errorf("building state manager: %w", err)
	}

	httpServer, err := porthttp.NewServer(porthttp.ServerConfig{
		Addr:  cfg.App.HTTPAddr,
		State: mgr,
	})
	if err != nil {
		return nil, fmt.Errorf("building http server: %w", err)
	}

	return &App{
		cfg:   cfg,
		state: mgr,
		http:  httpServer,
		cache: cache,
	}, nil
}

func buildSource(cfg sncfg.MarketConfig) (market.Source, error) {
	switch cfg.Provider {
	case "yahoo":
		return yahoo.New(yahoo.Config{
			BaseURL:     cfg.BaseURL,
			HTTPTimeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		}), nil
	default:
		return nil, fmt.Errorf("unknown market provider %q", cfg.Provider)
	}
}

func buildCache(cfg sncfg.CacheConfig) (store.PriceCache, error) {
	return store.NewSQLitePriceCache(cfg.Path)
}

// loadInitialSelection reads the portfolio file when it exists; a missing or
// broken file falls back to the built-in demo portfolio so the service still
// starts.
func loadInitialSelection(path string) state.Selection {
	if path == "" {
		return state.DefaultSelection()
	}
	if _, err := os.Stat(path); err != nil {
		logger.Infof("portfolio file %s not found, using default selection", path)
		return state.DefaultSelection()
	}
	sel, err := state.LoadPortfolioFile(path)
	if err != nil {
		logger.Warnf("portfolio file unusable, using default selection: %v", err)
		return state.DefaultSelection()
	}
	return sel
}
