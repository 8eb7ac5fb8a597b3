// Package backup contains the change-set resolver and the orchestrator
// that drives a backup run end to end.
package backup

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/eatd/backtar/internal/ledger"
	"github.com/eatd/backtar/internal/logging"
)

// TraversalPolicy decides what a walk error does to the run.
type TraversalPolicy string

const (
	// SkipAndLog skips unreadable subtrees, logging and counting each one.
	SkipAndLog TraversalPolicy = "skip"
	// FailFast aborts the resolve on the first walk error.
	FailFast TraversalPolicy = "fail"
)

// ParseTraversalPolicy validates a config string.
func ParseTraversalPolicy(s string) (TraversalPolicy, error) {
	switch TraversalPolicy(s) {
	case SkipAndLog, FailFast:
		return TraversalPolicy(s), nil
	case "":
		return SkipAndLog, nil
	}
	return "", fmt.Errorf("unknown traversal policy %q", s)
}

// Resolver computes the file set for the next backup run.
type Resolver struct {
	exclude func(string) bool
	policy  TraversalPolicy
	log     logging.Logger
}

func NewResolver(excludePatterns []string, policy TraversalPolicy, log logging.Logger) *Resolver {
	return &Resolver{
		exclude: ExcludePredicate(excludePatterns),
		policy:  policy,
		log:     log,
	}
}

// ExcludePredicate builds the boolean predicate consumed by the
// resolver. A path is excluded when any of its elements matches any
// pattern, so naming a directory (".git") excludes its whole subtree.
func ExcludePredicate(patterns []string) func(string) bool {
	return func(path string) bool {
		for _, elem := range strings.Split(filepath.ToSlash(path), "/") {
			if elem == "" {
				continue
			}
			for _, pat := range patterns {
				if ok, err := filepath.Match(pat, elem); err == nil && ok {
					return true
				}
			}
		}
		return false
	}
}

// Resolve returns the regular files to include in the next archive,
// sorted for a deterministic member order, plus the number of subtrees
// skipped under the SkipAndLog policy.
//
// A full run (incremental false, or no prior record) selects everything
// under root minus exclusions. An incremental run selects only files
// modified strictly after the last record's timestamp. An empty result
// is valid and means there is nothing to back up.
func (r *Resolver) Resolve(root string, last *ledger.Record, incremental bool) ([]string, int, error) {
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, 0, fmt.Errorf("%w: %s", ErrSourceNotFound, root)
	}

	cutoff, useCutoff := timeCutoff(last, incremental)

	var files []string
	skipped := 0

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if r.policy == FailFast {
				return walkErr
			}
			skipped++
			r.log.Warn("skipping unreadable path", "path", path, "error", walkErr)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if r.exclude(relOrSelf(root, path)) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() {
			return nil
		}

		if useCutoff {
			fi, err := d.Info()
			if err != nil {
				if r.policy == FailFast {
					return err
				}
				skipped++
				r.log.Warn("skipping unstattable file", "path", path, "error", err)
				return nil
			}
			if !fi.ModTime().After(cutoff) {
				return nil
			}
		}

		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, skipped, fmt.Errorf("walking %s: %w", root, err)
	}

	sort.Strings(files)
	return files, skipped, nil
}

func timeCutoff(last *ledger.Record, incremental bool) (time.Time, bool) {
	if !incremental || last == nil {
		return time.Time{}, false
	}
	return last.Timestamp, true
}

func relOrSelf(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	return rel
}
