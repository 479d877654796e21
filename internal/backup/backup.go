// Package backup creates, lists and restores encrypted copies of the
// casedesk database across a local directory and optional network shares.
package backup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/starford/casedesk/internal/checksum"
	"github.com/starford/casedesk/internal/store"
)

const (
	filePrefix      = "wscc_backup_"
	fileExt         = ".enc"
	timestampLayout = "20060102_150405"
	probeName       = ".wscc_backup_test"
	restorePrefix   = "wscc_data_before_restore_"

	// MetadataVersion is written into every metadata file.
	MetadataVersion = "1.0"
	// DefaultKeep is the number of backups retained per location.
	DefaultKeep = 7
)

// Config describes where backups come from and where they go.
type Config struct {
	Key          string
	LocalDir     string
	NetworkDirs  []string
	Keep         int
	DatabaseFile string
}

// Location is a directory backups are written to.
type Location struct {
	Kind string `json:"kind"` // Local or Network
	Dir  string `json:"dir"`
}

// Metadata is stored next to each backup as <name>.json.
type Metadata struct {
	BackupDate   string `json:"backup_date"`
	DatabaseFile string `json:"database_file"`
	FileSize     int64  `json:"file_size"`
	SHA256       string `json:"sha256"`
	Encrypted    bool   `json:"encrypted"`
	Version      string `json:"version"`
}

// LocationError records a location a backup could not be written to.
type LocationError struct {
	Location Location
	Err      error
}

// CreateResult reports the outcome of Create.
type CreateResult struct {
	Filename string
	Metadata Metadata
	Saved    []Location
	Failed   []LocationError
	Pruned   int
}

// Partial reports whether some locations failed while others succeeded.
func (r CreateResult) Partial() bool {
	return len(r.Saved) > 0 && len(r.Failed) > 0
}

// Entry is one backup file found by List.
type Entry struct {
	Name string    `json:"name"`
	Path string    `json:"path"`
	Date time.Time `json:"date"`
	Size int64     `json:"size"`
}

// Listing holds the backups of one location, newest first.
type Listing struct {
	Location Location `json:"location"`
	Backups  []Entry  `json:"backups"`
	Err      string   `json:"error,omitempty"`
}

// RestoreResult reports what Restore wrote.
type RestoreResult struct {
	SafetyCopy string
	Bytes      int
}

// Manager runs backup operations for one Config.
type Manager struct {
	cfg    Config
	key    *[keySize]byte
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock overrides the time source used for names and metadata.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// New creates a Manager. An empty key is allowed for List; Create and
// Restore then fail with ErrNoKey.
func New(cfg Config, logger *slog.Logger, opts ...Option) (*Manager, error) {
	if cfg.Keep <= 0 {
		cfg.Keep = DefaultKeep
	}
	m := &Manager{cfg: cfg, logger: logger, now: time.Now}
	if cfg.Key != "" {
		k, err := ParseKey(cfg.Key)
		if err != nil {
			return nil, err
		}
		m.key = k
	}
	for _, o := range opts {
		o(m)
	}
	return m, nil
}

// Locations returns the local directory, when it can be created, and every
// network directory that accepts a probe write.
func (m *Manager) Locations() []Location {
	var out []Location
	if m.cfg.LocalDir != "" {
		if err := os.MkdirAll(m.cfg.LocalDir, 0o750); err != nil {
			m.logger.Warn("backup: local dir unavailable", slog.String("dir", m.cfg.LocalDir), slog.String("error", err.Error()))
		} else {
			out = append(out, Location{Kind: "Local", Dir: m.cfg.LocalDir})
		}
	}
	for _, dir := range m.cfg.NetworkDirs {
		if err := probe(dir); err != nil {
			m.logger.Warn("backup: network dir unavailable", slog.String("dir", dir), slog.String("error", err.Error()))
			continue
		}
		out = append(out, Location{Kind: "Network", Dir: dir})
	}
	return out
}

func probe(dir string) error {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}
	p := filepath.Join(dir, probeName)
	if err := os.WriteFile(p, []byte("test"), 0o600); err != nil {
		return err
	}
	return os.Remove(p)
}

// Create encrypts a snapshot of the database into every available location
// and prunes each one to the newest Keep backups. It fails only when no
// location received the backup.
func (m *Manager) Create(ctx context.Context) (CreateResult, error) {
	var res CreateResult
	if m.key == nil {
		return res, ErrNoKey
	}
	data, err := snapshot(ctx, m.cfg.DatabaseFile)
	if err != nil {
		return res, err
	}
	locs := m.Locations()
	if len(locs) == 0 {
		return res, errors.New("backup: no backup locations available")
	}

	sealed, err := seal(m.key, data)
	if err != nil {
		return res, err
	}
	now := m.now()
	res.Filename = filePrefix + now.Format(timestampLayout) + fileExt
	res.Metadata = Metadata{
		BackupDate:   now.Format(time.RFC3339),
		DatabaseFile: m.cfg.DatabaseFile,
		FileSize:     int64(len(data)),
		SHA256:       checksum.Sum(data),
		Encrypted:    true,
		Version:      MetadataVersion,
	}
	meta, err := json.MarshalIndent(res.Metadata, "", "  ")
	if err != nil {
		return res, fmt.Errorf("backup: marshal metadata: %w", err)
	}

	for _, loc := range locs {
		if err := writeBackup(loc.Dir, res.Filename, sealed, meta); err != nil {
			m.logger.Error("backup: write failed", slog.String("dir", loc.Dir), slog.String("error", err.Error()))
			res.Failed = append(res.Failed, LocationError{Location: loc, Err: err})
			continue
		}
		res.Saved = append(res.Saved, loc)
		m.logger.Info("backup: saved",
			slog.String("kind", loc.Kind),
			slog.String("dir", loc.Dir),
			slog.String("file", res.Filename),
			slog.Int("bytes", len(sealed)))

		n, err := prune(loc.Dir, m.cfg.Keep)
		if err != nil {
			m.logger.Warn("backup: prune failed", slog.String("dir", loc.Dir), slog.String("error", err.Error()))
		}
		res.Pruned += n
	}
	if len(res.Saved) == 0 {
		return res, errors.New("backup: no backups were successful")
	}
	return res, nil
}

// snapshot returns a consistent image of the database file, including
// commits that are still in its write-ahead log.
func snapshot(ctx context.Context, dbFile string) ([]byte, error) {
	dir, err := os.MkdirTemp("", "casedesk-snapshot-*")
	if err != nil {
		return nil, fmt.Errorf("backup: snapshot dir: %w", err)
	}
	defer os.RemoveAll(dir)

	tmp := filepath.Join(dir, "snapshot.db")
	if err := store.Snapshot(ctx, dbFile, tmp); err != nil {
		return nil, fmt.Errorf("backup: snapshot database: %w", err)
	}
	data, err := os.ReadFile(tmp)
	if err != nil {
		return nil, fmt.Errorf("backup: read snapshot: %w", err)
	}
	return data, nil
}

func writeBackup(dir, name string, sealed, meta []byte) error {
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, sealed, 0o600); err != nil {
		return err
	}
	info, err := os.Stat(p)
	if err != nil {
		return err
	}
	if info.Size() != int64(len(sealed)) {
		return fmt.Errorf("size mismatch after write: %d != %d", info.Size(), len(sealed))
	}
	return os.WriteFile(metadataPath(p), meta, 0o600)
}

func metadataPath(backupPath string) string {
	return strings.TrimSuffix(backupPath, fileExt) + ".json"
}

// backupNames returns the backup file names in dir, oldest first. The
// timestamp in the name sorts chronologically.
func backupNames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		n := e.Name()
		if !e.IsDir() && strings.HasPrefix(n, filePrefix) && strings.HasSuffix(n, fileExt) {
			names = append(names, n)
		}
	}
	sort.Strings(names)
	return names, nil
}

// prune removes all but the newest keep backups in dir with their metadata.
func prune(dir string, keep int) (int, error) {
	names, err := backupNames(dir)
	if err != nil {
		return 0, err
	}
	if len(names) <= keep {
		return 0, nil
	}
	removed := 0
	for _, n := range names[:len(names)-keep] {
		p := filepath.Join(dir, n)
		if err := os.Remove(p); err != nil {
			return removed, err
		}
		if err := os.Remove(metadataPath(p)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

// List returns the backups in every available location, newest first.
func (m *Manager) List() []Listing {
	locs := m.Locations()
	out := make([]Listing, 0, len(locs))
	for _, loc := range locs {
		l := Listing{Location: loc, Backups: []Entry{}}
		names, err := backupNames(loc.Dir)
		if err != nil {
			l.Err = err.Error()
			out = append(out, l)
			continue
		}
		for i := len(names) - 1; i >= 0; i-- {
			n := names[i]
			e := Entry{Name: n, Path: filepath.Join(loc.Dir, n)}
			if info, err := os.Stat(e.Path); err == nil {
				e.Size = info.Size()
			}
			ts := strings.TrimSuffix(strings.TrimPrefix(n, filePrefix), fileExt)
			if t, err := time.ParseInLocation(timestampLayout, ts, time.Local); err == nil {
				e.Date = t
			}
			l.Backups = append(l.Backups, e)
		}
		out = append(out, l)
	}
	return out
}

// Restore decrypts file over the database. The current database, when
// present, is first copied to wscc_data_before_restore_<ts>.db next to it.
// Its -wal and -shm files are removed so they cannot be replayed onto the
// restored data.
func (m *Manager) Restore(ctx context.Context, file string) (RestoreResult, error) {
	var res RestoreResult
	if m.key == nil {
		return res, ErrNoKey
	}
	sealed, err := os.ReadFile(file)
	if err != nil {
		return res, fmt.Errorf("backup: read backup: %w", err)
	}

	if _, err := os.Stat(m.cfg.DatabaseFile); err == nil {
		res.SafetyCopy = filepath.Join(filepath.Dir(m.cfg.DatabaseFile),
			restorePrefix+m.now().Format(timestampLayout)+".db")
		if err := m.safetyCopy(ctx, res.SafetyCopy); err != nil {
			return res, fmt.Errorf("backup: safety copy: %w", err)
		}
		m.logger.Info("backup: current database copied", slog.String("file", res.SafetyCopy))
	}

	data, err := open(m.key, sealed)
	if err != nil {
		return res, err
	}
	for _, suffix := range []string{"-wal", "-shm"} {
		if err := os.Remove(m.cfg.DatabaseFile + suffix); err != nil && !errors.Is(err, os.ErrNotExist) {
			return res, fmt.Errorf("backup: remove %s file: %w", suffix, err)
		}
	}
	if err := writeAtomic(m.cfg.DatabaseFile, data); err != nil {
		return res, fmt.Errorf("backup: write database: %w", err)
	}
	res.Bytes = len(data)
	m.logger.Info("backup: restored",
		slog.String("from", file),
		slog.String("database", m.cfg.DatabaseFile),
		slog.Int("bytes", len(data)))
	return res, nil
}

// safetyCopy snapshots the current database to dst. A file SQLite cannot
// read is copied byte for byte together with its write-ahead log.
func (m *Manager) safetyCopy(ctx context.Context, dst string) error {
	err := store.Snapshot(ctx, m.cfg.DatabaseFile, dst)
	if err == nil {
		return nil
	}
	m.logger.Warn("backup: snapshot of current database failed, copying files",
		slog.String("error", err.Error()))
	_ = os.Remove(dst)
	if err := copyFile(m.cfg.DatabaseFile, dst); err != nil {
		return err
	}
	if err := copyFile(m.cfg.DatabaseFile+"-wal", dst+"-wal"); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".restore-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}
