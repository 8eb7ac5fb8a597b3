// Package watcher monitors the backup source tree and triggers a backup
// run when it changes. Bursts of filesystem activity coalesce into a
// single run: the trigger is a one-slot channel, so a run request that
// is already pending absorbs further kicks.
package watcher

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/eatd/backtar/internal/config"
	"github.com/eatd/backtar/internal/fsprobe"
	"github.com/eatd/backtar/internal/logging"
)

// RunFunc performs one backup run. The watcher never runs two at once.
type RunFunc func(ctx context.Context) error

type Watcher struct {
	mu sync.RWMutex

	root     string
	mode     string
	interval time.Duration
	debounce time.Duration

	run RunFunc
	log logging.Logger

	trigger  chan struct{}
	lastSeen time.Time
}

// New creates a watcher over the source root.
func New(cfg config.WatchConfig, root string, run RunFunc, log logging.Logger) *Watcher {
	return &Watcher{
		root:     root,
		mode:     cfg.Mode,
		interval: cfg.PollInterval.Std(),
		debounce: cfg.DebounceWindow.Std(),
		run:      run,
		log:      log,
		trigger:  make(chan struct{}, 1),
		lastSeen: time.Now(),
	}
}

// UpdateConfig hot-reloads the tunable windows. The watch mode itself is
// fixed for the lifetime of the process.
func (w *Watcher) UpdateConfig(cfg config.WatchConfig) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.interval = cfg.PollInterval.Std()
	w.debounce = cfg.DebounceWindow.Std()
}

// Start blocks until ctx is done, watching with the configured strategy.
func (w *Watcher) Start(ctx context.Context) error {
	go w.runLoop(ctx)

	switch w.mode {
	case "fsnotify":
		return w.startFsNotify(ctx)

	case "poll":
		w.startPolling(ctx)
		return nil

	case "auto", "":
		res := fsprobe.Probe(w.root)
		if res.Supported {
			return w.startFsNotify(ctx)
		}
		w.log.Warn("fsnotify disabled, falling back to polling", "reason", res.Reason)
		w.startPolling(ctx)
		return nil

	default:
		return fmt.Errorf("unknown watch mode %q", w.mode)
	}
}

// kick requests a run without blocking. A pending request wins.
func (w *Watcher) kick() {
	select {
	case w.trigger <- struct{}{}:
	default:
	}
}

func (w *Watcher) runLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.trigger:
			if err := w.run(ctx); err != nil {
				w.log.Error("watch: backup run failed", "error", err)
			}
		}
	}
}
