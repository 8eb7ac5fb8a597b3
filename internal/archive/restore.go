package archive

import (
	"archive/tar"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/eatd/backtar/internal/logging"
)

// ErrArchiveNotFound is returned when the archive to restore from does
// not exist.
var ErrArchiveNotFound = errors.New("archive not found")

// Restore extracts every member of the archive into destDir, creating it
// if needed, and returns the number of extracted members. Member paths
// are confined to destDir: any entry whose resolved path would escape it
// aborts the restore.
func Restore(ctx context.Context, archivePath, destDir string, log logging.Logger) (int, error) {
	f, err := os.Open(archivePath)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, fmt.Errorf("%w: %s", ErrArchiveNotFound, archivePath)
		}
		return 0, fmt.Errorf("opening archive: %w", err)
	}
	defer f.Close()

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return 0, fmt.Errorf("creating destination: %w", err)
	}

	dec, err := newDecompressor(f)
	if err != nil {
		return 0, fmt.Errorf("reading archive: %w", err)
	}
	defer dec.Close()

	tr := tar.NewReader(dec)
	count := 0

	for {
		if err := ctx.Err(); err != nil {
			return count, err
		}

		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return count, nil
		}
		if err != nil {
			return count, fmt.Errorf("reading member header: %w", err)
		}

		target, err := securePath(destDir, hdr.Name)
		if err != nil {
			return count, err
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, hdr.FileInfo().Mode().Perm()); err != nil {
				return count, fmt.Errorf("creating directory %s: %w", hdr.Name, err)
			}
		case tar.TypeReg:
			if err := extractFile(tr, target, hdr); err != nil {
				return count, err
			}
		default:
			log.Warn("restore: skipping unsupported member type", "member", hdr.Name, "type", hdr.Typeflag)
			continue
		}

		count++
	}
}

// securePath joins a member name onto destDir and rejects anything that
// resolves outside it.
func securePath(destDir, name string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(name))
	if filepath.IsAbs(clean) {
		return "", fmt.Errorf("member %q has an absolute path", name)
	}

	target := filepath.Join(destDir, clean)

	rel, err := filepath.Rel(destDir, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("member %q escapes destination directory", name)
	}
	return target, nil
}

func extractFile(tr *tar.Reader, target string, hdr *tar.Header) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("creating parent of %s: %w", hdr.Name, err)
	}

	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, hdr.FileInfo().Mode().Perm())
	if err != nil {
		return fmt.Errorf("creating %s: %w", hdr.Name, err)
	}

	if _, err := io.Copy(out, tr); err != nil {
		out.Close()
		return fmt.Errorf("extracting %s: %w", hdr.Name, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", hdr.Name, err)
	}

	if !hdr.ModTime.IsZero() {
		_ = os.Chtimes(target, hdr.ModTime, hdr.ModTime)
	}
	return nil
}
