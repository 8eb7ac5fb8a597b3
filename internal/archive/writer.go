// Package archive creates, verifies and extracts the tar containers that
// hold backed-up files. Entries are always stored with paths relative to
// the source root so archives restore portably.
package archive

import (
	"archive/tar"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/eatd/backtar/internal/logging"
)

// copyBufSize is the streaming chunk size; memory use stays independent
// of the largest file.
const copyBufSize = 64 * 1024

// WriteError wraps the underlying cause of a failed archive write.
type WriteError struct {
	Archive string
	Err     error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("writing archive %s: %v", e.Archive, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// Stats summarizes a completed write.
type Stats struct {
	FileCount     uint64
	OriginalBytes uint64
}

// Writer streams file sets into tar archives. Its counters may be read
// concurrently while a write is in flight to observe progress.
type Writer struct {
	files atomic.Uint64
	bytes atomic.Uint64

	log logging.Logger
}

func NewWriter(log logging.Logger) *Writer {
	return &Writer{log: log}
}

// Progress reports files and original bytes written so far in the
// current (or last) run.
func (w *Writer) Progress() (files, bytes uint64) {
	return w.files.Load(), w.bytes.Load()
}

// Write streams files into a compressed tar archive at destPath. Entry
// names are relative to sourceRoot. On any failure the partial archive
// is removed and a *WriteError is returned; no corrupt archive is ever
// left on disk.
func (w *Writer) Write(ctx context.Context, files []string, sourceRoot, destPath string, comp Compression) (Stats, error) {
	w.files.Store(0)
	w.bytes.Store(0)

	stats, err := w.write(ctx, files, sourceRoot, destPath, comp)
	if err != nil {
		if rmErr := os.Remove(destPath); rmErr != nil && !os.IsNotExist(rmErr) {
			w.log.Error("could not remove partial archive", "path", destPath, "error", rmErr)
		}
		return Stats{}, &WriteError{Archive: destPath, Err: err}
	}
	return stats, nil
}

func (w *Writer) write(ctx context.Context, files []string, sourceRoot, destPath string, comp Compression) (Stats, error) {
	f, err := os.Create(destPath)
	if err != nil {
		return Stats{}, err
	}
	defer f.Close()

	cw, err := newCompressor(f, comp)
	if err != nil {
		return Stats{}, err
	}

	tw := tar.NewWriter(cw)
	buf := make([]byte, copyBufSize)

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return Stats{}, err
		}
		if err := w.addFile(tw, path, sourceRoot, buf); err != nil {
			return Stats{}, err
		}
	}

	if err := tw.Close(); err != nil {
		return Stats{}, err
	}
	if err := cw.Close(); err != nil {
		return Stats{}, err
	}
	if err := f.Sync(); err != nil {
		return Stats{}, err
	}
	if err := f.Close(); err != nil {
		return Stats{}, err
	}

	return Stats{FileCount: w.files.Load(), OriginalBytes: w.bytes.Load()}, nil
}

func (w *Writer) addFile(tw *tar.Writer, path, sourceRoot string, buf []byte) error {
	rel, err := filepath.Rel(sourceRoot, path)
	if err != nil {
		return fmt.Errorf("relativizing %s: %w", path, err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	hdr, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return err
	}
	hdr.Name = filepath.ToSlash(rel)

	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}

	in, err := os.Open(path)
	if err != nil {
		return err
	}
	defer in.Close()

	n, err := io.CopyBuffer(tw, in, buf)
	if err != nil {
		return fmt.Errorf("copying %s: %w", rel, err)
	}

	w.files.Add(1)
	w.bytes.Add(uint64(n))
	return nil
}
