package state

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"sentinel/internal/logger"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// LoadPortfolioFile reads a portfolio selection from a YAML file:
//
//	period: 1mo
//	interval: 1d
//	positions:
//	  - ticker: NVDA
//	    quantity: 100
func LoadPortfolioFile(path string) (Selection, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Selection{}, fmt.Errorf("reading portfolio file: %w", err)
	}
	var sel Selection
	if err := yaml.Unmarshal(raw, &sel); err != nil {
		return Selection{}, fmt.Errorf("parsing portfolio file %s: %w", path, err)
	}
	sel.Normalize()
	if err := sel.Validate(); err != nil {
		return Selection{}, fmt.Errorf("portfolio file %s: %w", path, err)
	}
	return sel, nil
}

const watchDebounce = 500 * time.Millisecond

// WatchPortfolioFile watches the portfolio file and invokes onChange with
// each successfully parsed new selection. Editors often emit bursts of
// write/rename events, so reloads are debounced; a file that fails to parse
// is logged and skipped, keeping the previous selection active. Blocks until
// stop is closed.
func WatchPortfolioFile(path string, onChange func(Selection), stop <-chan struct{}) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// Watch the directory: editors replace the file, which drops a watch
	// placed on the file itself.
	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}
	target := filepath.Clean(path)

	var (
		mu    sync.Mutex
		timer *time.Timer
	)
	reload := func() {
		sel, err := LoadPortfolioFile(path)
		if err != nil {
			logger.Warnf("portfolio reload skipped: %v", err)
			return
		}
		logger.Infof("portfolio file changed, applying %d positions", len(sel.Positions))
		onChange(sel)
	}

	for {
		select {
		case <-stop:
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			mu.Lock()
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(watchDebounce, reload)
			mu.Unlock()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warnf("portfolio watcher: %v", err)
		}
	}
}
