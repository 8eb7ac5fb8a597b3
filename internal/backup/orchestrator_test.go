package backup

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eatd/backtar/internal/config"
	"github.com/eatd/backtar/internal/ledger"
	"github.com/eatd/backtar/internal/logging"
	"github.com/eatd/backtar/internal/retention"
)

// testEnv wires an orchestrator against fresh temp dirs.
type testEnv struct {
	orch   *Orchestrator
	cfg    *config.Config
	source string
	dest   string
}

func newTestEnv(t *testing.T, mutate func(*config.Config)) *testEnv {
	t.Helper()

	cfg := config.Default()
	cfg.Source.Path = t.TempDir()
	cfg.Destination.Path = t.TempDir()
	if mutate != nil {
		mutate(cfg)
	}

	orch, err := New(cfg, logging.Discard())
	require.NoError(t, err)

	return &testEnv{orch: orch, cfg: cfg, source: cfg.Source.Path, dest: cfg.Destination.Path}
}

func (e *testEnv) create(t *testing.T, name string, forceFull bool) *CreateResult {
	t.Helper()
	res, err := e.orch.Create(context.Background(), e.source, e.dest, name, forceFull)
	require.NoError(t, err)
	return res
}

func TestCreateFullBackupScenario(t *testing.T) {
	env := newTestEnv(t, nil)
	content := strings.Repeat("compressible line\n", 64) // ~1 KiB
	for _, name := range []string{"one.txt", "two.txt", "three.txt"} {
		mkFile(t, env.source, name, content)
	}

	res := env.create(t, "", true)
	require.False(t, res.NothingToDo())
	require.NotNil(t, res.Record)

	rec := res.Record
	assert.Equal(t, ledger.TypeFull, rec.BackupType)
	assert.Equal(t, uint64(3), rec.FileCount)
	assert.Equal(t, uint64(3*len(content)), rec.OriginalSizeBytes)
	assert.Less(t, rec.CompressedSizeBytes, rec.OriginalSizeBytes, "compressible content must shrink")
	assert.Greater(t, rec.CompressionRatioPercent, 0.0)
	assert.Len(t, rec.ContentChecksum, 64, "hex SHA-256")
	assert.FileExists(t, res.ArchivePath)
	assert.Contains(t, filepath.Base(res.ArchivePath), "_full")
	assert.True(t, strings.HasSuffix(res.ArchivePath, ".tar.gz"))

	recs := env.orch.List()
	require.Len(t, recs, 1)
	assert.Equal(t, res.ArchivePath, recs[0].ArchivePath)
}

// Two immediate incremental runs: the second finds nothing and the
// ledger gains exactly one record total.
func TestCreateIncrementalNoOpIsIdempotent(t *testing.T) {
	env := newTestEnv(t, nil)
	mkFile(t, env.source, "a.txt", "a")

	first := env.create(t, "", false)
	require.False(t, first.NothingToDo())

	second := env.create(t, "", false)
	assert.True(t, second.NothingToDo())
	assert.Nil(t, second.Record)

	assert.Len(t, env.orch.List(), 1)
}

func TestCreateIncrementalPicksOnlyChangedFiles(t *testing.T) {
	env := newTestEnv(t, nil)
	mkFile(t, env.source, "a.txt", "a")
	mkFile(t, env.source, "b.txt", "b")

	first := env.create(t, "", false)
	require.Equal(t, uint64(2), first.Record.FileCount)

	// Touch b.txt past the recorded timestamp.
	future := first.Record.Timestamp.Add(time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(env.source, "b.txt"), future, future))

	second := env.create(t, "", false)
	require.False(t, second.NothingToDo())
	assert.Equal(t, ledger.TypeIncremental, second.Record.BackupType)
	assert.Equal(t, uint64(1), second.Record.FileCount)

	// A forced full run takes everything again.
	third := env.create(t, "forced-full.tar.gz", true)
	assert.Equal(t, ledger.TypeFull, third.Record.BackupType)
	assert.Equal(t, uint64(2), third.Record.FileCount)
}

func TestCreateCustomName(t *testing.T) {
	env := newTestEnv(t, nil)
	mkFile(t, env.source, "a.txt", "a")

	res := env.create(t, "my-backup.tar.gz", true)
	assert.Equal(t, filepath.Join(env.dest, "my-backup.tar.gz"), res.ArchivePath)
}

func TestCreateMissingSource(t *testing.T) {
	env := newTestEnv(t, nil)
	_, err := env.orch.Create(context.Background(), filepath.Join(env.source, "gone"), env.dest, "", false)
	require.ErrorIs(t, err, ErrSourceNotFound)
}

func TestCreateVerificationDisabled(t *testing.T) {
	env := newTestEnv(t, func(cfg *config.Config) {
		cfg.Backup.Verify = false
	})
	mkFile(t, env.source, "a.txt", "a")

	res := env.create(t, "", true)
	assert.FileExists(t, res.ArchivePath)
}

func TestCreateTimestampsAreMonotonic(t *testing.T) {
	env := newTestEnv(t, nil)
	mkFile(t, env.source, "a.txt", "a")
	env.create(t, "first.tar.gz", true)
	env.create(t, "second.tar.gz", true)

	recs := env.orch.List()
	require.Len(t, recs, 2)
	assert.False(t, recs[1].Timestamp.Before(recs[0].Timestamp))
}

func TestRestoreRoundTripThroughOrchestrator(t *testing.T) {
	env := newTestEnv(t, nil)
	mkFile(t, env.source, "dir/f.txt", "round trip")

	res := env.create(t, "", true)

	target := t.TempDir()
	count, err := env.orch.Restore(context.Background(), res.ArchivePath, target)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	got, err := os.ReadFile(filepath.Join(target, "dir", "f.txt"))
	require.NoError(t, err)
	assert.Equal(t, "round trip", string(got))
}

func TestRotateThroughOrchestrator(t *testing.T) {
	env := newTestEnv(t, nil)
	mkFile(t, env.source, "a.txt", "a")

	for _, name := range []string{"b1.tar.gz", "b2.tar.gz", "b3.tar.gz", "b4.tar.gz", "b5.tar.gz"} {
		env.create(t, name, true)
	}

	recs := env.orch.List()
	require.Len(t, recs, 5)

	res, err := env.orch.Rotate(retention.Policy{MaxBackups: 2})
	require.NoError(t, err)
	assert.Len(t, res.Removed, 3)

	kept := env.orch.List()
	require.Len(t, kept, 2)
	assert.Equal(t, recs[3].ArchivePath, kept[0].ArchivePath)
	assert.Equal(t, recs[4].ArchivePath, kept[1].ArchivePath)

	for _, p := range res.Removed {
		assert.NoFileExists(t, p)
	}
}
