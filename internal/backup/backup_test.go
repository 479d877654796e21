package backup

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/casedesk/internal/models"
	"github.com/starford/casedesk/internal/store"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func testManager(t *testing.T, cfg Config) (*Manager, *clock) {
	t.Helper()
	if cfg.Key == "" {
		key, err := GenerateKey()
		require.NoError(t, err)
		cfg.Key = key
	}
	if cfg.DatabaseFile == "" {
		cfg.DatabaseFile = filepath.Join(t.TempDir(), "casedesk.db")
		db := openDB(t, cfg.DatabaseFile)
		insertCase(t, db, "case-1")
	}
	if cfg.LocalDir == "" {
		cfg.LocalDir = filepath.Join(t.TempDir(), "local")
	}
	c := &clock{t: time.Date(2025, 3, 15, 9, 30, 0, 0, time.Local)}
	m, err := New(cfg, slog.New(slog.NewJSONHandler(io.Discard, nil)), WithClock(c.now))
	require.NoError(t, err)
	return m, c
}

// openDB opens a store at path that stays open, with its write-ahead log
// unmerged, until the test ends.
func openDB(t *testing.T, path string) *store.DB {
	t.Helper()
	db, err := store.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func insertCase(t *testing.T, db *store.DB, id string) {
	t.Helper()
	now := time.Date(2025, 3, 15, 9, 0, 0, 0, time.UTC)
	c := models.Case{
		ID: id, CaseNumber: "NWT-2025-" + id, Territory: models.TerritoryNWT,
		Employer: "Diavik", Worker: "Lee", Status: models.StatusOpen, Priority: models.PriorityMedium,
		CreatedAt: now, UpdatedAt: now,
	}
	c.EnsureCollections()
	require.NoError(t, db.InsertCase(context.Background(), &c))
}

func caseIDs(t *testing.T, path string) []string {
	t.Helper()
	db, err := store.Open(path)
	require.NoError(t, err)
	defer db.Close()
	cases, err := db.ListCases(context.Background())
	require.NoError(t, err)
	ids := make([]string, 0, len(cases))
	for _, c := range cases {
		ids = append(ids, c.ID)
	}
	return ids
}

func TestKeyRoundTrip(t *testing.T) {
	s, err := GenerateKey()
	require.NoError(t, err)
	k, err := ParseKey(s)
	require.NoError(t, err)

	sealed, err := seal(k, []byte("evidence"))
	require.NoError(t, err)
	assert.NotContains(t, string(sealed), "evidence")

	out, err := open(k, sealed)
	require.NoError(t, err)
	assert.Equal(t, "evidence", string(out))

	other, err := GenerateKey()
	require.NoError(t, err)
	ok, err := ParseKey(other)
	require.NoError(t, err)
	_, err = open(ok, sealed)
	assert.ErrorIs(t, err, ErrDecrypt)

	_, err = open(k, []byte("short"))
	assert.ErrorIs(t, err, ErrDecrypt)
}

func TestParseKeyRejects(t *testing.T) {
	_, err := ParseKey("not base64!")
	assert.Error(t, err)
	_, err = ParseKey("c2hvcnQ=")
	assert.Error(t, err)
}

func TestCreateWritesBackupAndMetadata(t *testing.T) {
	network := filepath.Join(t.TempDir(), "share")
	m, _ := testManager(t, Config{NetworkDirs: []string{network}})

	res, err := m.Create(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "wscc_backup_20250315_093000.enc", res.Filename)
	require.Len(t, res.Saved, 2)
	assert.Equal(t, "Local", res.Saved[0].Kind)
	assert.Equal(t, "Network", res.Saved[1].Kind)
	assert.False(t, res.Partial())

	for _, loc := range res.Saved {
		_, err := os.Stat(filepath.Join(loc.Dir, res.Filename))
		require.NoError(t, err)
		raw, err := os.ReadFile(filepath.Join(loc.Dir, "wscc_backup_20250315_093000.json"))
		require.NoError(t, err)
		var meta Metadata
		require.NoError(t, json.Unmarshal(raw, &meta))
		assert.True(t, meta.Encrypted)
		assert.Positive(t, meta.FileSize)
		assert.Equal(t, MetadataVersion, meta.Version)
		assert.Len(t, meta.SHA256, 64)
		_, err = os.Stat(filepath.Join(loc.Dir, probeName))
		assert.True(t, os.IsNotExist(err), "probe file should be removed")
	}
}

func TestCreateSkipsUnavailableNetworkDir(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))
	m, _ := testManager(t, Config{NetworkDirs: []string{filepath.Join(blocker, "share")}})

	res, err := m.Create(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Saved, 1)
	assert.Equal(t, "Local", res.Saved[0].Kind)
	assert.Len(t, m.Locations(), 1)
}

func TestCreateErrors(t *testing.T) {
	m, err := New(Config{LocalDir: t.TempDir()}, slog.New(slog.NewJSONHandler(io.Discard, nil)))
	require.NoError(t, err)
	_, err = m.Create(context.Background())
	assert.ErrorIs(t, err, ErrNoKey)

	m, _ = testManager(t, Config{DatabaseFile: filepath.Join(t.TempDir(), "missing.db")})
	_, err = m.Create(context.Background())
	assert.Error(t, err)

	_, err = New(Config{Key: "bad"}, slog.New(slog.NewJSONHandler(io.Discard, nil)))
	assert.Error(t, err)
}

func TestCreatePrunesOldBackups(t *testing.T) {
	m, c := testManager(t, Config{Keep: 2})

	var pruned int
	for range 4 {
		res, err := m.Create(context.Background())
		require.NoError(t, err)
		pruned += res.Pruned
		c.advance(time.Hour)
	}
	assert.Equal(t, 2, pruned)

	names, err := backupNames(m.cfg.LocalDir)
	require.NoError(t, err)
	assert.Equal(t, []string{"wscc_backup_20250315_113000.enc", "wscc_backup_20250315_123000.enc"}, names)
	_, err = os.Stat(filepath.Join(m.cfg.LocalDir, "wscc_backup_20250315_093000.json"))
	assert.True(t, os.IsNotExist(err), "metadata of pruned backup should be removed")
}

func TestListNewestFirst(t *testing.T) {
	m, c := testManager(t, Config{})
	for range 3 {
		_, err := m.Create(context.Background())
		require.NoError(t, err)
		c.advance(24 * time.Hour)
	}

	listings := m.List()
	require.Len(t, listings, 1)
	got := listings[0].Backups
	require.Len(t, got, 3)
	assert.Equal(t, "wscc_backup_20250317_093000.enc", got[0].Name)
	assert.Equal(t, "wscc_backup_20250315_093000.enc", got[2].Name)
	assert.Equal(t, 17, got[0].Date.Day())
	assert.Positive(t, got[0].Size)
}

func TestRestore(t *testing.T) {
	ctx := context.Background()
	dbFile := filepath.Join(t.TempDir(), "casedesk.db")
	db := openDB(t, dbFile)
	insertCase(t, db, "case-1")

	m, c := testManager(t, Config{DatabaseFile: dbFile})
	res, err := m.Create(ctx)
	require.NoError(t, err)
	backupPath := filepath.Join(res.Saved[0].Dir, res.Filename)

	insertCase(t, db, "case-2")
	require.NoError(t, db.Close())
	c.advance(time.Minute)

	rr, err := m.Restore(ctx, backupPath)
	require.NoError(t, err)
	assert.Positive(t, rr.Bytes)
	assert.True(t, strings.HasSuffix(rr.SafetyCopy, "wscc_data_before_restore_20250315_093100.db"))

	assert.Equal(t, []string{"case-1"}, caseIDs(t, dbFile))
	assert.ElementsMatch(t, []string{"case-1", "case-2"}, caseIDs(t, rr.SafetyCopy))
}

func TestBackupIncludesUncheckpointedCommits(t *testing.T) {
	ctx := context.Background()
	m, _ := testManager(t, Config{})
	res, err := m.Create(ctx)
	require.NoError(t, err)

	target, _ := testManager(t, Config{
		Key:          m.cfg.Key,
		DatabaseFile: filepath.Join(t.TempDir(), "restored.db"),
	})
	_, err = target.Restore(ctx, filepath.Join(res.Saved[0].Dir, res.Filename))
	require.NoError(t, err)
	assert.Equal(t, []string{"case-1"}, caseIDs(t, target.cfg.DatabaseFile))
}

func TestRestoreRemovesStaleLogFiles(t *testing.T) {
	ctx := context.Background()
	m, _ := testManager(t, Config{})
	res, err := m.Create(ctx)
	require.NoError(t, err)

	dbFile := filepath.Join(t.TempDir(), "casedesk.db")
	for _, suffix := range []string{"-wal", "-shm"} {
		require.NoError(t, os.WriteFile(dbFile+suffix, []byte("stale"), 0o600))
	}
	target, _ := testManager(t, Config{Key: m.cfg.Key, DatabaseFile: dbFile})
	rr, err := target.Restore(ctx, filepath.Join(res.Saved[0].Dir, res.Filename))
	require.NoError(t, err)
	assert.Empty(t, rr.SafetyCopy)

	for _, suffix := range []string{"-wal", "-shm"} {
		_, err := os.Stat(dbFile + suffix)
		assert.True(t, os.IsNotExist(err), "%s file should be removed", suffix)
	}
	assert.Equal(t, []string{"case-1"}, caseIDs(t, dbFile))
}

func TestRestoreCopiesUnreadableDatabase(t *testing.T) {
	ctx := context.Background()
	m, _ := testManager(t, Config{})
	res, err := m.Create(ctx)
	require.NoError(t, err)

	dbFile := filepath.Join(t.TempDir(), "casedesk.db")
	garbage := strings.Repeat("not a database\n", 1000)
	require.NoError(t, os.WriteFile(dbFile, []byte(garbage), 0o600))
	target, _ := testManager(t, Config{Key: m.cfg.Key, DatabaseFile: dbFile})
	rr, err := target.Restore(ctx, filepath.Join(res.Saved[0].Dir, res.Filename))
	require.NoError(t, err)

	safety, err := os.ReadFile(rr.SafetyCopy)
	require.NoError(t, err)
	assert.Equal(t, garbage, string(safety))
	assert.Equal(t, []string{"case-1"}, caseIDs(t, dbFile))
}

func TestRestoreWrongKeyLeavesDatabase(t *testing.T) {
	ctx := context.Background()
	m, _ := testManager(t, Config{})
	res, err := m.Create(ctx)
	require.NoError(t, err)
	backupPath := filepath.Join(res.Saved[0].Dir, res.Filename)

	other, _ := testManager(t, Config{DatabaseFile: m.cfg.DatabaseFile})
	_, err = other.Restore(ctx, backupPath)
	assert.ErrorIs(t, err, ErrDecrypt)
	assert.Equal(t, []string{"case-1"}, caseIDs(t, m.cfg.DatabaseFile))

	_, err = m.Restore(ctx, filepath.Join(t.TempDir(), "missing.enc"))
	assert.Error(t, err)
}
