package watcher

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// startFsNotify watches the whole source tree. fsnotify is not
// recursive, so every directory is added individually and directories
// created later are picked up from their create events. Events reset a
// debounce timer; only when the tree goes quiet does a run start.
func (w *Watcher) startFsNotify(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	w.mu.RLock()
	root := w.root
	debounce := w.debounce
	w.mu.RUnlock()

	if err := addRecursive(fw, root); err != nil {
		return err
	}

	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-timer.C:
			w.kick()

		case ev, ok := <-fw.Events:
			if !ok {
				w.log.Error("watch: events channel closed")
				return nil
			}
			w.log.Debug("watch: event", "name", ev.Name, "op", ev.Op.String())

			if ev.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := addRecursive(fw, ev.Name); err != nil {
						w.log.Warn("watch: cannot watch new directory", "path", ev.Name, "error", err)
					}
				}
			}

			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(debounce)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Error("watch: fsnotify error", "error", err)
		}
	}
}

func addRecursive(fw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return fw.Add(path)
		}
		return nil
	})
}
