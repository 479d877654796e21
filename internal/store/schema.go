// Package store provides the SQLite persistence layer for cases, officers and evidence.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
)

const coreSchemaSQL = `
CREATE TABLE IF NOT EXISTS cases (
	id                TEXT PRIMARY KEY,
	case_number       TEXT UNIQUE NOT NULL,
	territory         TEXT NOT NULL,
	employer          TEXT NOT NULL,
	worker            TEXT NOT NULL,
	incident_date     TEXT NOT NULL DEFAULT '',
	reported_date     TEXT NOT NULL DEFAULT '',
	status            TEXT NOT NULL DEFAULT 'Open',
	priority          TEXT NOT NULL DEFAULT 'Medium',
	description       TEXT NOT NULL DEFAULT '',
	assigned_officers TEXT NOT NULL DEFAULT '[]',
	timelines         TEXT NOT NULL DEFAULT '[]',
	reports           TEXT NOT NULL DEFAULT '[]',
	tasks             TEXT NOT NULL DEFAULT '[]',
	evidence          TEXT NOT NULL DEFAULT '[]',
	photos            TEXT NOT NULL DEFAULT '[]',
	charges           TEXT NOT NULL DEFAULT '[]',
	court             TEXT NOT NULL DEFAULT '{}',
	conclusion        TEXT NOT NULL DEFAULT '{}',
	briefing_note     TEXT NOT NULL DEFAULT '',
	created_at        DATETIME NOT NULL,
	updated_at        DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS officers (
	id             TEXT PRIMARY KEY,
	name           TEXT NOT NULL,
	role           TEXT NOT NULL,
	work_location  TEXT NOT NULL DEFAULT '',
	experience     TEXT NOT NULL DEFAULT '',
	specialization TEXT NOT NULL DEFAULT '',
	contact        TEXT NOT NULL DEFAULT '',
	active         INTEGER NOT NULL DEFAULT 1,
	created_at     DATETIME NOT NULL,
	updated_at     DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS storage_locations (
	storage_id             TEXT PRIMARY KEY,
	location_name          TEXT UNIQUE NOT NULL,
	location_type          TEXT NOT NULL,
	capacity               INTEGER NOT NULL DEFAULT 0,
	current_count          INTEGER NOT NULL DEFAULT 0,
	access_level           TEXT NOT NULL DEFAULT '',
	temperature_controlled INTEGER NOT NULL DEFAULT 0,
	secure_locked          INTEGER NOT NULL DEFAULT 1,
	notes                  TEXT NOT NULL DEFAULT '',
	created_at             DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS exhibits (
	exhibit_id        TEXT PRIMARY KEY,
	case_id           TEXT NOT NULL REFERENCES cases(id) ON DELETE CASCADE,
	exhibit_number    TEXT UNIQUE NOT NULL,
	exhibit_type      TEXT NOT NULL,
	category          TEXT NOT NULL DEFAULT '',
	description       TEXT NOT NULL,
	seized_date       TEXT NOT NULL DEFAULT '',
	seized_by         TEXT NOT NULL DEFAULT '',
	seized_location   TEXT NOT NULL DEFAULT '',
	current_location  TEXT NOT NULL DEFAULT '',
	current_status    TEXT NOT NULL DEFAULT 'CUSTODY',
	barcode           TEXT NOT NULL DEFAULT '',
	quantity          INTEGER NOT NULL DEFAULT 1,
	unit              TEXT NOT NULL DEFAULT 'item',
	weight            REAL,
	dimensions        TEXT NOT NULL DEFAULT '',
	serial_number     TEXT NOT NULL DEFAULT '',
	make_model        TEXT NOT NULL DEFAULT '',
	condition_notes   TEXT NOT NULL DEFAULT '',
	photo_path        TEXT NOT NULL DEFAULT '',
	digital_file_path TEXT NOT NULL DEFAULT '',
	hash_value        TEXT NOT NULL DEFAULT '',
	tags              TEXT NOT NULL DEFAULT '',
	created_at        DATETIME NOT NULL,
	updated_at        DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS custody_log (
	custody_id       TEXT PRIMARY KEY,
	exhibit_id       TEXT NOT NULL REFERENCES exhibits(exhibit_id) ON DELETE CASCADE,
	action           TEXT NOT NULL,
	action_date      TEXT NOT NULL,
	performed_by     TEXT NOT NULL,
	received_by      TEXT NOT NULL DEFAULT '',
	witness          TEXT NOT NULL DEFAULT '',
	from_location    TEXT NOT NULL DEFAULT '',
	to_location      TEXT NOT NULL DEFAULT '',
	authorized_by    TEXT NOT NULL DEFAULT '',
	seal_number      TEXT NOT NULL DEFAULT '',
	reason           TEXT NOT NULL DEFAULT '',
	condition_before TEXT NOT NULL DEFAULT '',
	condition_after  TEXT NOT NULL DEFAULT '',
	notes            TEXT NOT NULL DEFAULT '',
	hash_value       TEXT NOT NULL DEFAULT '',
	created_at       DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_exhibits_case ON exhibits(case_id);
CREATE INDEX IF NOT EXISTS idx_custody_exhibit ON custody_log(exhibit_id);
`

// addedColumns are columns introduced after the first schema. They are added
// in place on databases created by older builds.
var addedColumns = []struct {
	table, column, definition string
}{
	{"cases", "involved_parties", "TEXT NOT NULL DEFAULT '[]'"},
}

// DB wraps a sqlx.DB with case-management operations.
type DB struct {
	conn *sqlx.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sqlx.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}
	// Single writer; the workload is one operator.
	conn.SetMaxOpenConns(1)
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	if _, err := conn.Exec(coreSchemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: apply core schema: %w", err)
	}
	if err := migrate(context.Background(), conn); err != nil {
		conn.Close()
		return nil, err
	}
	return &DB{conn: conn}, nil
}

func migrate(ctx context.Context, conn *sqlx.DB) error {
	for _, c := range addedColumns {
		stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", c.table, c.column, c.definition)
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			if strings.Contains(err.Error(), "duplicate column name") {
				continue
			}
			return fmt.Errorf("store: add column %s.%s: %w", c.table, c.column, err)
		}
	}
	return nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping checks the database connection.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
