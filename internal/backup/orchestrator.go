package backup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/eatd/backtar/internal/archive"
	"github.com/eatd/backtar/internal/config"
	"github.com/eatd/backtar/internal/ledger"
	"github.com/eatd/backtar/internal/logging"
	"github.com/eatd/backtar/internal/retention"
)

// runState tracks where a create run is in its lifecycle. Failures in
// writing or verifying are terminal for the run: the partial archive is
// removed and nothing is recorded.
type runState string

const (
	stateIdle      runState = "idle"
	stateSelecting runState = "selecting-files"
	stateWriting   runState = "writing"
	stateVerifying runState = "verifying"
	stateRecording runState = "recording"
	stateFailed    runState = "failed"
)

// Orchestrator composes resolver, writer, verifier, ledger and retention
// into the operations the CLI layer exposes. It assumes single-writer
// semantics per destination: callers must not run Create or Rotate
// concurrently against the same ledger.
type Orchestrator struct {
	led    *ledger.Ledger
	res    *Resolver
	writer *archive.Writer
	ret    *retention.Manager

	comp        archive.Compression
	incremental bool
	verify      bool

	log logging.Logger
}

// New wires an orchestrator from configuration.
func New(cfg *config.Config, log logging.Logger) (*Orchestrator, error) {
	comp, err := archive.ParseCompression(cfg.Backup.Compression)
	if err != nil {
		return nil, err
	}
	policy, err := ParseTraversalPolicy(cfg.Backup.TraversalErrors)
	if err != nil {
		return nil, err
	}

	led := ledger.Open(cfg.LedgerPath(), log)

	return &Orchestrator{
		led:         led,
		res:         NewResolver(cfg.Source.ExcludePatterns, policy, log),
		writer:      archive.NewWriter(log),
		ret:         retention.New(led, log),
		comp:        comp,
		incremental: cfg.Backup.Incremental,
		verify:      cfg.Backup.Verify,
		log:         log,
	}, nil
}

// CreateResult reports the outcome of one create run. An empty
// ArchivePath means there was nothing to back up, which is a success.
type CreateResult struct {
	ArchivePath  string
	Record       *ledger.Record
	SkippedPaths int
}

// NothingToDo reports whether the run was a no-op.
func (r *CreateResult) NothingToDo() bool {
	return r.ArchivePath == ""
}

// Create runs one backup: resolve the change set, write the archive,
// optionally verify it, and record it in the ledger. forceFull disables
// incremental selection for this run only.
func (o *Orchestrator) Create(ctx context.Context, sourceDir, destDir, name string, forceFull bool) (*CreateResult, error) {
	state := stateSelecting
	o.log.Debug("state transition", "state", state)

	incremental := o.incremental && !forceFull

	last, hasLast := o.led.Last()
	var lastRec *ledger.Record
	if hasLast {
		lastRec = &last
	}

	files, skipped, err := o.res.Resolve(sourceDir, lastRec, incremental)
	if err != nil {
		return nil, err
	}

	if len(files) == 0 {
		o.log.Info("no files to back up", "source", sourceDir, "incremental", incremental)
		return &CreateResult{SkippedPaths: skipped}, nil
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating destination: %w", err)
	}

	backupType := ledger.TypeFull
	if incremental && hasLast {
		backupType = ledger.TypeIncremental
	}

	if name == "" {
		name = defaultName(destDir, backupType, o.comp)
	}
	archivePath := filepath.Join(destDir, name)

	state = stateWriting
	o.log.Debug("state transition", "state", state)
	o.log.Info("creating backup", "archive", name, "files", len(files), "type", backupType)

	stats, err := o.writer.Write(ctx, files, sourceDir, archivePath, o.comp)
	if err != nil {
		o.log.Debug("state transition", "state", stateFailed)
		return nil, err
	}

	if o.verify {
		state = stateVerifying
		o.log.Debug("state transition", "state", state)

		if !archive.Verify(archivePath, o.log) {
			o.log.Debug("state transition", "state", stateFailed)
			if err := os.Remove(archivePath); err != nil && !os.IsNotExist(err) {
				o.log.Error("could not remove unverifiable archive", "path", archivePath, "error", err)
			}
			return nil, fmt.Errorf("%w: %s", ErrVerificationFailed, archivePath)
		}
	}

	state = stateRecording
	o.log.Debug("state transition", "state", state)

	info, err := os.Stat(archivePath)
	if err != nil {
		return nil, fmt.Errorf("sizing archive: %w", err)
	}
	compressedSize := uint64(info.Size())

	checksum, err := archive.ChecksumSHA256(archivePath)
	if err != nil {
		return nil, err
	}

	rec := ledger.Record{
		Timestamp:               time.Now(),
		ArchivePath:             archivePath,
		BackupType:              backupType,
		FileCount:               stats.FileCount,
		OriginalSizeBytes:       stats.OriginalBytes,
		CompressedSizeBytes:     compressedSize,
		CompressionRatioPercent: ledger.RatioPercent(stats.OriginalBytes, compressedSize),
		ContentChecksum:         checksum,
	}

	if err := o.led.Append(rec); err != nil {
		return nil, err
	}

	o.log.Debug("state transition", "state", stateIdle)
	o.log.Info("backup complete",
		"archive", archivePath,
		"files", rec.FileCount,
		"originalBytes", rec.OriginalSizeBytes,
		"compressedBytes", rec.CompressedSizeBytes,
		"ratioPercent", fmt.Sprintf("%.1f", rec.CompressionRatioPercent),
	)

	return &CreateResult{
		ArchivePath:  archivePath,
		Record:       &rec,
		SkippedPaths: skipped,
	}, nil
}

// defaultName builds backup_<YYYYMMDD_HHMMSS>_<type><ext>, suffixing a
// counter when two runs land in the same second so archive paths stay
// unique.
func defaultName(destDir string, backupType ledger.Type, comp archive.Compression) string {
	stem := fmt.Sprintf("backup_%s_%s", time.Now().Format("20060102_150405"), backupType)
	ext := comp.Extension()

	name := stem + ext
	for i := 1; ; i++ {
		if _, err := os.Stat(filepath.Join(destDir, name)); os.IsNotExist(err) {
			return name
		}
		name = fmt.Sprintf("%s_%d%s", stem, i, ext)
	}
}

// Restore extracts an archive into destDir and returns the member count.
func (o *Orchestrator) Restore(ctx context.Context, archivePath, destDir string) (int, error) {
	return archive.Restore(ctx, archivePath, destDir, o.log)
}

// List returns every ledger record in creation order.
func (o *Orchestrator) List() []ledger.Record {
	return o.led.All()
}

// Rotate applies the retention policy and returns what was removed.
func (o *Orchestrator) Rotate(policy retention.Policy) (retention.Result, error) {
	return o.ret.Prune(policy)
}

// Progress exposes the writer's live counters for long-running writes.
func (o *Orchestrator) Progress() (files, bytes uint64) {
	return o.writer.Progress()
}
