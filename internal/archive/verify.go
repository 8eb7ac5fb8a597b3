package archive

import (
	"archive/tar"
	"errors"
	"io"
	"os"

	"github.com/eatd/backtar/internal/logging"
)

// Verify opens the archive and walks every member, reading each payload
// to the end. It is a structural readability check only: no checksums
// are compared against the original file set. Any structural error makes
// it return false; the cause goes to the log.
func Verify(path string, log logging.Logger) bool {
	f, err := os.Open(path)
	if err != nil {
		log.Error("verify: cannot open archive", "path", path, "error", err)
		return false
	}
	defer f.Close()

	dec, err := newDecompressor(f)
	if err != nil {
		log.Error("verify: cannot read archive", "path", path, "error", err)
		return false
	}
	defer dec.Close()

	tr := tar.NewReader(dec)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return true
		}
		if err != nil {
			log.Error("verify: corrupt member header", "path", path, "error", err)
			return false
		}

		if _, err := io.Copy(io.Discard, tr); err != nil {
			log.Error("verify: unreadable member", "path", path, "member", hdr.Name, "error", err)
			return false
		}
	}
}
