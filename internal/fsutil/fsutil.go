// Package fsutil provides the filesystem helpers the engine depends on
// for durability: atomic file replacement and retry of transient errors.
package fsutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// WriteFileAtomic replaces the file at path with data using
// write-to-temp-then-rename semantics. The temp file lives in the same
// directory so the rename cannot cross filesystems, and it is fsynced
// before the rename. On any failure the previous file content is left
// untouched.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	cleanup := func() {
		tmp.Close()
		os.Remove(tmpName)
	}

	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("setting temp file mode: %w", err)
	}

	if err := Rename(context.Background(), tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// Rename wraps os.Rename with retry logic for transient errors.
func Rename(ctx context.Context, oldPath, newPath string) error {
	return Retry(ctx, "rename", func() error {
		return os.Rename(oldPath, newPath)
	})
}
