package watcher

import (
	"context"
	"io/fs"
	"path/filepath"
	"time"
)

// startPolling scans the tree on a fixed interval and kicks a run when
// anything was modified since the last scan.
func (w *Watcher) startPolling(ctx context.Context) {
	for {
		w.mu.RLock()
		interval := w.interval
		w.mu.RUnlock()

		select {
		case <-ctx.Done():
			return
		case <-time.After(interval):
			w.detect()
		}
	}
}

// detect walks the source tree looking for files modified after the
// high-water mark.
func (w *Watcher) detect() {
	w.mu.RLock()
	root := w.root
	last := w.lastSeen
	w.mu.RUnlock()

	newest := last
	changed := false

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			w.log.Warn("watch: cannot scan path", "path", path, "error", walkErr)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		if mod := info.ModTime(); mod.After(newest) {
			newest = mod
			changed = true
		}
		return nil
	})
	if err != nil {
		w.log.Error("watch: scan failed", "root", root, "error", err)
		return
	}

	if changed {
		w.mu.Lock()
		w.lastSeen = newest
		w.mu.Unlock()
		w.kick()
	}
}
