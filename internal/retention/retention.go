// Package retention prunes old backups. It owns no state of its own:
// the ledger is the source of truth, and archive files are deleted
// before their records are dropped so the ledger never references a
// file that was meant to survive.
package retention

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/eatd/backtar/internal/ledger"
	"github.com/eatd/backtar/internal/logging"
)

// seam for failure injection in tests
var osRemove = os.Remove

// Policy is the retention rule. MaxBackups bounds the record count;
// RetentionDays, when positive, additionally prunes records older than
// the cutoff.
type Policy struct {
	MaxBackups    int
	RetentionDays int
}

// Result reports one prune pass.
type Result struct {
	Removed []string // archive paths deleted (or already gone)
	Failed  int      // deletions that failed; their records were kept
}

type Manager struct {
	led *ledger.Ledger
	log logging.Logger
}

func New(led *ledger.Ledger, log logging.Logger) *Manager {
	return &Manager{led: led, log: log}
}

// Prune removes the oldest records beyond policy.MaxBackups, plus any
// record older than the RetentionDays cutoff. Archive files are deleted
// first; a missing file counts as already removed, while a failed
// deletion keeps its record in the ledger so the operator can retry.
// The ledger is rewritten exactly once, after all deletions.
func (m *Manager) Prune(policy Policy) (Result, error) {
	if policy.MaxBackups < 1 {
		return Result{}, fmt.Errorf("maxBackups must be >= 1, got %d", policy.MaxBackups)
	}

	recs := m.led.All()
	victims := selectVictims(recs, policy, time.Now())
	if len(victims) == 0 {
		return Result{}, nil
	}

	m.log.Info("rotating backups", "total", len(recs), "pruning", len(victims), "keeping", len(recs)-len(victims))

	var res Result
	dropped := make(map[string]bool, len(victims))

	for _, rec := range victims {
		err := osRemove(rec.ArchivePath)
		switch {
		case err == nil:
			m.log.Info("removed old backup", "archive", rec.ArchivePath)
		case os.IsNotExist(err):
			m.log.Warn("archive already gone, dropping its record", "archive", rec.ArchivePath)
		default:
			m.log.Error("could not delete archive, keeping its record", "archive", rec.ArchivePath, "error", err)
			res.Failed++
			continue
		}
		dropped[rec.ArchivePath] = true
		res.Removed = append(res.Removed, rec.ArchivePath)
	}

	if len(dropped) == 0 {
		return res, nil
	}

	kept := recs[:0:0]
	for _, rec := range recs {
		if !dropped[rec.ArchivePath] {
			kept = append(kept, rec)
		}
	}

	if err := m.led.Replace(kept); err != nil {
		return res, fmt.Errorf("rewriting ledger after prune: %w", err)
	}
	return res, nil
}

// selectVictims returns the records to prune, oldest first. Sorting by
// timestamp is stable so records with equal timestamps keep their ledger
// order.
func selectVictims(recs []ledger.Record, policy Policy, now time.Time) []ledger.Record {
	byAge := append([]ledger.Record(nil), recs...)
	sort.SliceStable(byAge, func(i, j int) bool {
		return byAge[i].Timestamp.Before(byAge[j].Timestamp)
	})

	var victims []ledger.Record

	if excess := len(byAge) - policy.MaxBackups; excess > 0 {
		victims = append(victims, byAge[:excess]...)
		byAge = byAge[excess:]
	}

	if policy.RetentionDays > 0 {
		cutoff := now.Add(-time.Duration(policy.RetentionDays) * 24 * time.Hour)
		for _, rec := range byAge {
			if rec.Timestamp.Before(cutoff) {
				victims = append(victims, rec)
			}
		}
	}

	return victims
}
