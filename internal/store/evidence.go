package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/starford/casedesk/internal/apperr"
	"github.com/starford/casedesk/internal/models"
)

const exhibitColumns = `exhibit_id, case_id, exhibit_number, exhibit_type, category, description,
	seized_date, seized_by, seized_location, current_location, current_status, barcode, quantity,
	unit, weight, dimensions, serial_number, make_model, condition_notes, photo_path,
	digital_file_path, hash_value, tags, created_at, updated_at`

const custodyColumns = `custody_id, exhibit_id, action, action_date, performed_by, received_by,
	witness, from_location, to_location, authorized_by, seal_number, reason, condition_before,
	condition_after, notes, hash_value, created_at`

const storageColumns = `storage_id, location_name, location_type, capacity, current_count,
	access_level, temperature_controlled, secure_locked, notes, created_at`

// NextExhibitNumber returns the next free exhibit number for the year,
// formatted EX-YYYY-NNNN.
func (db *DB) NextExhibitNumber(ctx context.Context, year int) (string, error) {
	return nextExhibitNumber(ctx, db.conn, year)
}

func nextExhibitNumber(ctx context.Context, q sqlx.QueryerContext, year int) (string, error) {
	prefix := fmt.Sprintf("EX-%04d-", year)
	// Sequences past 9999 grow a digit, so compare them as integers.
	var last sql.NullInt64
	err := sqlx.GetContext(ctx, q, &last,
		`SELECT MAX(CAST(substr(exhibit_number, ?) AS INTEGER)) FROM exhibits WHERE exhibit_number LIKE ?`,
		len(prefix)+1, prefix+"%")
	if err != nil {
		return "", fmt.Errorf("store: next exhibit number: %w", err)
	}
	seq := 1
	if last.Valid {
		seq = int(last.Int64) + 1
	}
	return fmt.Sprintf("%s%04d", prefix, seq), nil
}

// InsertExhibit allocates the exhibit number, stores the exhibit with its
// first custody entry and counts it into its storage location, in one
// transaction. The allocated number is written back to e.
func (db *DB) InsertExhibit(ctx context.Context, e *models.Exhibit, first *models.CustodyEntry) error {
	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	var exists int
	if err := tx.GetContext(ctx, &exists, `SELECT count(*) FROM cases WHERE id = ?`, e.CaseID); err != nil {
		return fmt.Errorf("store: check case: %w", err)
	}
	if exists == 0 {
		return fmt.Errorf("store: case %q: %w", e.CaseID, apperr.ErrNotFound)
	}

	num, err := nextExhibitNumber(ctx, tx, e.CreatedAt.Year())
	if err != nil {
		return err
	}
	e.ExhibitNumber = num
	e.CreatedAt = e.CreatedAt.UTC()
	e.UpdatedAt = e.UpdatedAt.UTC()

	_, err = tx.NamedExecContext(ctx, `
		INSERT INTO exhibits (`+exhibitColumns+`)
		VALUES (:exhibit_id, :case_id, :exhibit_number, :exhibit_type, :category, :description,
			:seized_date, :seized_by, :seized_location, :current_location, :current_status, :barcode, :quantity,
			:unit, :weight, :dimensions, :serial_number, :make_model, :condition_notes, :photo_path,
			:digital_file_path, :hash_value, :tags, :created_at, :updated_at)
	`, e)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("store: exhibit %q: %w", e.ExhibitNumber, apperr.ErrAlreadyExists)
		}
		return fmt.Errorf("store: insert exhibit: %w", err)
	}
	if first != nil {
		first.ExhibitID = e.ID
		if err := insertCustody(ctx, tx, first); err != nil {
			return err
		}
	}
	if err := adjustStorageCount(ctx, tx, e.CurrentLocation, 1); err != nil {
		return err
	}
	return tx.Commit()
}

// GetExhibit returns the exhibit with the given ID.
func (db *DB) GetExhibit(ctx context.Context, id string) (models.Exhibit, error) {
	var e models.Exhibit
	err := db.conn.GetContext(ctx, &e, `SELECT `+exhibitColumns+` FROM exhibits WHERE exhibit_id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Exhibit{}, fmt.Errorf("store: exhibit %q: %w", id, apperr.ErrNotFound)
		}
		return models.Exhibit{}, fmt.Errorf("store: get exhibit: %w", err)
	}
	return e, nil
}

// ListExhibits returns exhibits matching the filter, newest first.
func (db *DB) ListExhibits(ctx context.Context, f models.ExhibitFilter) ([]models.Exhibit, error) {
	var (
		where []string
		args  []any
	)
	if f.CaseID != "" {
		where = append(where, "case_id = ?")
		args = append(args, f.CaseID)
	}
	if f.Status != "" {
		where = append(where, "current_status = ?")
		args = append(args, f.Status)
	}
	if f.Type != "" {
		where = append(where, "exhibit_type = ?")
		args = append(args, f.Type)
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		like := "%" + q + "%"
		where = append(where, "(exhibit_number LIKE ? OR description LIKE ?)")
		args = append(args, like, like)
	}
	q := `SELECT ` + exhibitColumns + ` FROM exhibits`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY created_at DESC, exhibit_number DESC`

	out := []models.Exhibit{}
	if err := db.conn.SelectContext(ctx, &out, q, args...); err != nil {
		return nil, fmt.Errorf("store: list exhibits: %w", err)
	}
	return out, nil
}

// UpdateExhibitFile records where a digital attachment is stored.
func (db *DB) UpdateExhibitFile(ctx context.Context, id, path string) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE exhibits SET digital_file_path = ?, updated_at = ? WHERE exhibit_id = ?`,
		path, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("store: update exhibit file: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("store: exhibit %q: %w", id, apperr.ErrNotFound)
	}
	return nil
}

// AppendCustody adds a custody entry and applies its effect on the exhibit:
// a non-empty location moves it (and its storage counts), a non-empty status
// replaces its current status.
func (db *DB) AppendCustody(ctx context.Context, entry *models.CustodyEntry, location, status string) error {
	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	var cur struct {
		Location string `db:"current_location"`
		Status   string `db:"current_status"`
	}
	err = tx.GetContext(ctx, &cur,
		`SELECT current_location, current_status FROM exhibits WHERE exhibit_id = ?`, entry.ExhibitID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("store: exhibit %q: %w", entry.ExhibitID, apperr.ErrNotFound)
		}
		return fmt.Errorf("store: get exhibit: %w", err)
	}

	if err := insertCustody(ctx, tx, entry); err != nil {
		return err
	}

	newLocation, newStatus := cur.Location, cur.Status
	if location != "" {
		newLocation = location
	}
	if status != "" {
		newStatus = status
	}
	if newLocation == cur.Location && newStatus == cur.Status {
		return tx.Commit()
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE exhibits SET current_location = ?, current_status = ?, updated_at = ? WHERE exhibit_id = ?`,
		newLocation, newStatus, time.Now().UTC(), entry.ExhibitID)
	if err != nil {
		return fmt.Errorf("store: update exhibit: %w", err)
	}

	// Only exhibits in custody occupy storage.
	wasStored := cur.Status == models.ExhibitInCustody
	isStored := newStatus == models.ExhibitInCustody
	if wasStored && (!isStored || newLocation != cur.Location) {
		if err := adjustStorageCount(ctx, tx, cur.Location, -1); err != nil {
			return err
		}
	}
	if isStored && (!wasStored || newLocation != cur.Location) {
		if err := adjustStorageCount(ctx, tx, newLocation, 1); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func insertCustody(ctx context.Context, tx *sqlx.Tx, c *models.CustodyEntry) error {
	c.CreatedAt = c.CreatedAt.UTC()
	_, err := tx.NamedExecContext(ctx, `
		INSERT INTO custody_log (`+custodyColumns+`)
		VALUES (:custody_id, :exhibit_id, :action, :action_date, :performed_by, :received_by,
			:witness, :from_location, :to_location, :authorized_by, :seal_number, :reason, :condition_before,
			:condition_after, :notes, :hash_value, :created_at)
	`, c)
	if err != nil {
		return fmt.Errorf("store: insert custody: %w", err)
	}
	return nil
}

// CustodyChain returns the custody log of an exhibit, oldest first.
func (db *DB) CustodyChain(ctx context.Context, exhibitID string) ([]models.CustodyEntry, error) {
	out := []models.CustodyEntry{}
	err := db.conn.SelectContext(ctx, &out,
		`SELECT `+custodyColumns+` FROM custody_log WHERE exhibit_id = ? ORDER BY created_at ASC, rowid ASC`, exhibitID)
	if err != nil {
		return nil, fmt.Errorf("store: custody chain: %w", err)
	}
	return out, nil
}

// InsertStorageLocation stores a new storage location. Names are unique.
func (db *DB) InsertStorageLocation(ctx context.Context, s *models.StorageLocation) error {
	s.CreatedAt = s.CreatedAt.UTC()
	_, err := db.conn.NamedExecContext(ctx, `
		INSERT INTO storage_locations (`+storageColumns+`)
		VALUES (:storage_id, :location_name, :location_type, :capacity, :current_count,
			:access_level, :temperature_controlled, :secure_locked, :notes, :created_at)
	`, s)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("store: storage location %q: %w", s.Name, apperr.ErrAlreadyExists)
		}
		return fmt.Errorf("store: insert storage location: %w", err)
	}
	return nil
}

// ListStorageLocations returns every storage location ordered by name.
func (db *DB) ListStorageLocations(ctx context.Context) ([]models.StorageLocation, error) {
	out := []models.StorageLocation{}
	err := db.conn.SelectContext(ctx, &out,
		`SELECT `+storageColumns+` FROM storage_locations ORDER BY location_name COLLATE NOCASE`)
	if err != nil {
		return nil, fmt.Errorf("store: list storage locations: %w", err)
	}
	return out, nil
}

// AdjustStorageCount changes the occupancy of the named location by delta.
// Unknown names are ignored; exhibits may sit in unregistered places.
func (db *DB) AdjustStorageCount(ctx context.Context, name string, delta int) error {
	return adjustStorageCount(ctx, db.conn, name, delta)
}

func adjustStorageCount(ctx context.Context, ex sqlx.ExecerContext, name string, delta int) error {
	if name == "" || delta == 0 {
		return nil
	}
	_, err := ex.ExecContext(ctx,
		`UPDATE storage_locations SET current_count = MAX(current_count + ?, 0) WHERE location_name = ?`,
		delta, name)
	if err != nil {
		return fmt.Errorf("store: adjust storage count: %w", err)
	}
	return nil
}
