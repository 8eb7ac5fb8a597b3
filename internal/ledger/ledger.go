// Package ledger persists the ordered history of completed backups as a
// single JSON document. The ledger exclusively owns that document: every
// mutation goes through Append or Replace, and both rewrite the file
// atomically so a crash mid-write can never leave truncated history.
package ledger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/eatd/backtar/internal/fsutil"
	"github.com/eatd/backtar/internal/logging"
)

type Ledger struct {
	path string
	log  logging.Logger
}

// Open returns a ledger backed by the file at path. The file does not
// need to exist yet.
func Open(path string, log logging.Logger) *Ledger {
	return &Ledger{path: path, log: log}
}

// Path returns the location of the backing file.
func (l *Ledger) Path() string {
	return l.path
}

// All returns every record in creation order. A missing file is an empty
// history. A corrupt file is also treated as empty so callers can keep
// operating, but the data loss is surfaced in the log.
func (l *Ledger) All() []Record {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if !os.IsNotExist(err) {
			l.log.Warn("ledger unreadable, treating as empty history", "path", l.path, "error", err)
		}
		return nil
	}

	var recs []Record
	if err := json.Unmarshal(data, &recs); err != nil {
		l.log.Warn("ledger corrupt, treating as empty history", "path", l.path, "error", err)
		return nil
	}
	return recs
}

// Last returns the most recent record, if any.
func (l *Ledger) Last() (Record, bool) {
	recs := l.All()
	if len(recs) == 0 {
		return Record{}, false
	}
	return recs[len(recs)-1], true
}

// Append adds one record to the history. The whole document is reread,
// extended and rewritten atomically.
func (l *Ledger) Append(rec Record) error {
	recs := append(l.All(), rec)
	return l.write(recs)
}

// Replace swaps the entire history for recs. Used by retention to drop
// pruned entries in a single atomic rewrite.
func (l *Ledger) Replace(recs []Record) error {
	return l.write(recs)
}

func (l *Ledger) write(recs []Record) error {
	if recs == nil {
		recs = []Record{}
	}

	data, err := json.MarshalIndent(recs, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding ledger: %w", err)
	}

	if dir := filepath.Dir(l.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating ledger directory: %w", err)
		}
	}

	if err := fsutil.WriteFileAtomic(l.path, data, 0o644); err != nil {
		return fmt.Errorf("writing ledger: %w", err)
	}
	return nil
}
