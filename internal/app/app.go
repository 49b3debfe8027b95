// Package app wires config, market source, cache, state and transport into a
// runnable service.
package app

import (
	"context"
	"fmt"
	"time"

	sncfg "sentinel/internal/config"
	"sentinel/internal/logger"
	"sentinel/internal/state"
	"sentinel/internal/store"
	porthttp "sentinel/internal/transport/http"

	"golang.org/x/sync/errgroup"
)

type App struct {
	cfg   *sncfg.Config
	state *state.Manager
	http  *porthttp.Server
	cache store.PriceCache
}

// NewApp builds the application from config without starting anything.
func NewApp(cfg *sncfg.Config) (*App, error) {
	return NewAppBuilder(cfg).Build()
}

// State exposes the state manager for tests and replay harnesses.
func (a *App) State() *state.Manager {
	if a == nil {
		return nil
	}
	return a.state
}

// Run performs the initial refresh and then serves until ctx is cancelled:
// the HTTP API, the portfolio file watcher, and the optional periodic
// refresh all run under one errgroup.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.cfg == nil {
		return fmt.Errorf("app not initialized")
	}
	if a.cache != nil {
		defer a.cache.Close()
	}

	if err := a.state.Refresh(ctx); err != nil {
		return fmt.Errorf("initial refresh: %w", err)
	}
	logger.Infof("✓ initial data loaded, serving on %s", a.http.Addr())

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		if err := a.http.Start(ctx); err != nil {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	})

	if file := a.cfg.Portfolio.File; file != "" {
		group.Go(func() error {
			stop := make(chan struct{})
			go func() {
				<-ctx.Done()
				close(stop)
			}()
			return state.WatchPortfolioFile(file, func(sel state.Selection) {
				if err := a.state.Update(ctx, sel); err != nil {
					logger.Warnf("portfolio file update rejected: %v", err)
				}
			}, stop)
		})
	}

	if mins := a.cfg.Portfolio.RefreshMinutes; mins > 0 {
		group.Go(func() error {
			return a.refreshLoop(ctx, time.Duration(mins)*time.Minute)
		})
	}

	return group.Wait()
}

func (a *App) refreshLoop(ctx context.Context, every time.Duration) error {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := a.state.Refresh(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				logger.Errorf("periodic refresh failed: %v", err)
			}
		}
	}
}
