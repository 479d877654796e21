package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/starford/casedesk/internal/apperr"
	"github.com/starford/casedesk/internal/models"
)

const officerColumns = `id, name, role, work_location, experience, specialization, contact, active, created_at, updated_at`

// ListOfficers returns officers ordered by name.
func (db *DB) ListOfficers(ctx context.Context, activeOnly bool) ([]models.Officer, error) {
	q := `SELECT ` + officerColumns + ` FROM officers`
	if activeOnly {
		q += ` WHERE active = 1`
	}
	q += ` ORDER BY name COLLATE NOCASE, id`

	out := []models.Officer{}
	if err := db.conn.SelectContext(ctx, &out, q); err != nil {
		return nil, fmt.Errorf("store: list officers: %w", err)
	}
	return out, nil
}

// GetOfficer returns the officer with the given ID.
func (db *DB) GetOfficer(ctx context.Context, id string) (models.Officer, error) {
	var o models.Officer
	err := db.conn.GetContext(ctx, &o, `SELECT `+officerColumns+` FROM officers WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Officer{}, fmt.Errorf("store: officer %q: %w", id, apperr.ErrNotFound)
		}
		return models.Officer{}, fmt.Errorf("store: get officer: %w", err)
	}
	return o, nil
}

// InsertOfficer stores a new officer.
func (db *DB) InsertOfficer(ctx context.Context, o *models.Officer) error {
	o.CreatedAt = o.CreatedAt.UTC()
	o.UpdatedAt = o.UpdatedAt.UTC()
	_, err := db.conn.NamedExecContext(ctx, `
		INSERT INTO officers (`+officerColumns+`)
		VALUES (:id, :name, :role, :work_location, :experience, :specialization, :contact, :active, :created_at, :updated_at)
	`, o)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("store: officer %q: %w", o.ID, apperr.ErrAlreadyExists)
		}
		return fmt.Errorf("store: insert officer: %w", err)
	}
	return nil
}

// UpdateOfficer replaces the stored officer record.
func (db *DB) UpdateOfficer(ctx context.Context, o *models.Officer) error {
	o.UpdatedAt = time.Now().UTC()
	res, err := db.conn.NamedExecContext(ctx, `
		UPDATE officers SET
			name           = :name,
			role           = :role,
			work_location  = :work_location,
			experience     = :experience,
			specialization = :specialization,
			contact        = :contact,
			active         = :active,
			updated_at     = :updated_at
		WHERE id = :id
	`, o)
	if err != nil {
		return fmt.Errorf("store: update officer: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("store: officer %q: %w", o.ID, apperr.ErrNotFound)
	}
	return nil
}

// DeactivateOfficer soft-deletes an officer. Cases keep their references.
func (db *DB) DeactivateOfficer(ctx context.Context, id string) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE officers SET active = 0, updated_at = ? WHERE id = ?`, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("store: deactivate officer: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("store: officer %q: %w", id, apperr.ErrNotFound)
	}
	return nil
}
