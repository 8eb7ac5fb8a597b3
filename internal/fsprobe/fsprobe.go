// Package fsprobe checks whether fsnotify delivers events for a
// directory, so the watcher can fall back to polling on filesystems
// (network mounts, some containers) where it silently does not.
package fsprobe

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Result reports whether fsnotify is usable and, if not, why.
type Result struct {
	Supported bool
	Reason    string
}

// Probe creates and removes a marker file under dir and waits for the
// corresponding events.
func Probe(dir string) Result {
	st, err := os.Stat(dir)
	if err != nil {
		return Result{false, fmt.Sprintf("stat failed: %v", err)}
	}
	if !st.IsDir() {
		return Result{false, "not a directory"}
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return Result{false, fmt.Sprintf("fsnotify unavailable: %v", err)}
	}
	defer w.Close()

	if err := w.Add(dir); err != nil {
		return Result{false, fmt.Sprintf("cannot watch directory: %v", err)}
	}

	marker := filepath.Join(dir, ".backtar-probe")
	f, err := os.Create(marker)
	if err != nil {
		return Result{false, fmt.Sprintf("cannot create probe file: %v", err)}
	}
	f.Close()
	defer os.Remove(marker)

	timeout := time.After(200 * time.Millisecond)
	for {
		select {
		case ev := <-w.Events:
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove) != 0 {
				return Result{true, ""}
			}
		case <-timeout:
			return Result{false, "no events received"}
		}
	}
}
