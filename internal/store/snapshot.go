package store

import (
	"context"
	"fmt"
	"os"

	"github.com/jmoiron/sqlx"
)

// Snapshot writes a consistent copy of the database at src to dst with
// VACUUM INTO. Commits still held in the write-ahead log are included, and
// src may be open in another process. dst must not exist.
func Snapshot(ctx context.Context, src, dst string) error {
	if _, err := os.Stat(src); err != nil {
		return fmt.Errorf("store: snapshot source: %w", err)
	}
	conn, err := sqlx.Open("sqlite3", src+"?_busy_timeout=5000")
	if err != nil {
		return fmt.Errorf("store: open for snapshot: %w", err)
	}
	defer conn.Close()
	conn.SetMaxOpenConns(1)

	if _, err := conn.ExecContext(ctx, `VACUUM INTO ?`, dst); err != nil {
		return fmt.Errorf("store: vacuum into %s: %w", dst, err)
	}
	return nil
}
