package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/starford/casedesk/internal/apperr"
	"github.com/starford/casedesk/internal/models"
)

// caseRow is the flat table representation of a case. Nested collections
// are JSON text columns.
type caseRow struct {
	ID               string    `db:"id"`
	CaseNumber       string    `db:"case_number"`
	Territory        string    `db:"territory"`
	Employer         string    `db:"employer"`
	Worker           string    `db:"worker"`
	IncidentDate     string    `db:"incident_date"`
	ReportedDate     string    `db:"reported_date"`
	Status           string    `db:"status"`
	Priority         string    `db:"priority"`
	Description      string    `db:"description"`
	AssignedOfficers string    `db:"assigned_officers"`
	InvolvedParties  string    `db:"involved_parties"`
	Timelines        string    `db:"timelines"`
	Reports          string    `db:"reports"`
	Tasks            string    `db:"tasks"`
	Evidence         string    `db:"evidence"`
	Photos           string    `db:"photos"`
	Charges          string    `db:"charges"`
	Court            string    `db:"court"`
	Conclusion       string    `db:"conclusion"`
	BriefingNote     string    `db:"briefing_note"`
	CreatedAt        time.Time `db:"created_at"`
	UpdatedAt        time.Time `db:"updated_at"`
}

const caseColumns = `id, case_number, territory, employer, worker, incident_date, reported_date,
	status, priority, description, assigned_officers, involved_parties, timelines, reports,
	tasks, evidence, photos, charges, court, conclusion, briefing_note, created_at, updated_at`

func toRow(c *models.Case) (caseRow, error) {
	c.EnsureCollections()
	row := caseRow{
		ID:           c.ID,
		CaseNumber:   c.CaseNumber,
		Territory:    string(c.Territory),
		Employer:     c.Employer,
		Worker:       c.Worker,
		IncidentDate: c.IncidentDate,
		ReportedDate: c.ReportedDate,
		Status:       string(c.Status),
		Priority:     string(c.Priority),
		Description:  c.Description,
		BriefingNote: c.BriefingNote,
		CreatedAt:    c.CreatedAt.UTC(),
		UpdatedAt:    c.UpdatedAt.UTC(),
	}
	fields := []struct {
		dst *string
		v   any
	}{
		{&row.AssignedOfficers, c.AssignedOfficers},
		{&row.InvolvedParties, c.InvolvedParties},
		{&row.Timelines, c.Timelines},
		{&row.Reports, c.Reports},
		{&row.Tasks, c.Tasks},
		{&row.Evidence, c.Evidence},
		{&row.Photos, c.Photos},
		{&row.Charges, c.Charges},
		{&row.Court, c.Court},
		{&row.Conclusion, c.Conclusion},
	}
	for _, f := range fields {
		b, err := json.Marshal(f.v)
		if err != nil {
			return caseRow{}, fmt.Errorf("store: encode case %s: %w", c.ID, err)
		}
		*f.dst = string(b)
	}
	return row, nil
}

func (r caseRow) toCase() (models.Case, error) {
	c := models.Case{
		ID:           r.ID,
		CaseNumber:   r.CaseNumber,
		Territory:    models.Territory(r.Territory),
		Employer:     r.Employer,
		Worker:       r.Worker,
		IncidentDate: r.IncidentDate,
		ReportedDate: r.ReportedDate,
		Status:       models.Status(r.Status),
		Priority:     models.Priority(r.Priority),
		Description:  r.Description,
		BriefingNote: r.BriefingNote,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
	fields := []struct {
		src string
		dst any
	}{
		{r.AssignedOfficers, &c.AssignedOfficers},
		{r.InvolvedParties, &c.InvolvedParties},
		{r.Timelines, &c.Timelines},
		{r.Reports, &c.Reports},
		{r.Tasks, &c.Tasks},
		{r.Evidence, &c.Evidence},
		{r.Photos, &c.Photos},
		{r.Charges, &c.Charges},
		{r.Court, &c.Court},
		{r.Conclusion, &c.Conclusion},
	}
	for _, f := range fields {
		if f.src == "" {
			continue
		}
		if err := json.Unmarshal([]byte(f.src), f.dst); err != nil {
			return models.Case{}, fmt.Errorf("store: decode case %s: %w", r.ID, err)
		}
	}
	c.EnsureCollections()
	return c, nil
}

// ListCases returns every case, most recently updated first.
func (db *DB) ListCases(ctx context.Context) ([]models.Case, error) {
	var rows []caseRow
	q := `SELECT ` + caseColumns + ` FROM cases ORDER BY updated_at DESC, rowid DESC`
	if err := db.conn.SelectContext(ctx, &rows, q); err != nil {
		return nil, fmt.Errorf("store: list cases: %w", err)
	}
	out := make([]models.Case, 0, len(rows))
	for _, r := range rows {
		c, err := r.toCase()
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// GetCase returns the case with the given ID.
func (db *DB) GetCase(ctx context.Context, id string) (models.Case, error) {
	return db.getCase(ctx, `SELECT `+caseColumns+` FROM cases WHERE id = ?`, id)
}

// GetCaseByNumber returns the case with the given case number.
func (db *DB) GetCaseByNumber(ctx context.Context, number string) (models.Case, error) {
	return db.getCase(ctx, `SELECT `+caseColumns+` FROM cases WHERE case_number = ?`, number)
}

func (db *DB) getCase(ctx context.Context, q string, arg string) (models.Case, error) {
	var r caseRow
	if err := db.conn.GetContext(ctx, &r, q, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Case{}, fmt.Errorf("store: case %q: %w", arg, apperr.ErrNotFound)
		}
		return models.Case{}, fmt.Errorf("store: get case: %w", err)
	}
	return r.toCase()
}

// InsertCase stores a new case. A duplicate ID or case number yields
// apperr.ErrAlreadyExists.
func (db *DB) InsertCase(ctx context.Context, c *models.Case) error {
	row, err := toRow(c)
	if err != nil {
		return err
	}
	_, err = db.conn.NamedExecContext(ctx, `
		INSERT INTO cases (`+caseColumns+`)
		VALUES (:id, :case_number, :territory, :employer, :worker, :incident_date, :reported_date,
			:status, :priority, :description, :assigned_officers, :involved_parties, :timelines, :reports,
			:tasks, :evidence, :photos, :charges, :court, :conclusion, :briefing_note, :created_at, :updated_at)
	`, row)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("store: case %q: %w", c.CaseNumber, apperr.ErrAlreadyExists)
		}
		return fmt.Errorf("store: insert case: %w", err)
	}
	return nil
}

// UpdateCase replaces the stored record. UpdatedAt is set to now.
func (db *DB) UpdateCase(ctx context.Context, c *models.Case) error {
	c.UpdatedAt = time.Now().UTC()
	row, err := toRow(c)
	if err != nil {
		return err
	}
	res, err := db.conn.NamedExecContext(ctx, `
		UPDATE cases SET
			case_number       = :case_number,
			territory         = :territory,
			employer          = :employer,
			worker            = :worker,
			incident_date     = :incident_date,
			reported_date     = :reported_date,
			status            = :status,
			priority          = :priority,
			description       = :description,
			assigned_officers = :assigned_officers,
			involved_parties  = :involved_parties,
			timelines         = :timelines,
			reports           = :reports,
			tasks             = :tasks,
			evidence          = :evidence,
			photos            = :photos,
			charges           = :charges,
			court             = :court,
			conclusion        = :conclusion,
			briefing_note     = :briefing_note,
			updated_at        = :updated_at
		WHERE id = :id
	`, row)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("store: case %q: %w", c.CaseNumber, apperr.ErrAlreadyExists)
		}
		return fmt.Errorf("store: update case: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("store: case %q: %w", c.ID, apperr.ErrNotFound)
	}
	return nil
}

// DeleteCase removes a case together with its exhibits and their custody log.
func (db *DB) DeleteCase(ctx context.Context, id string) error {
	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	_, err = tx.ExecContext(ctx, `
		UPDATE storage_locations SET current_count = MAX(current_count - (
			SELECT count(*) FROM exhibits
			WHERE exhibits.case_id = ? AND exhibits.current_location = storage_locations.location_name
				AND exhibits.current_status = ?
		), 0)
	`, id, models.ExhibitInCustody)
	if err != nil {
		return fmt.Errorf("store: release storage: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM custody_log WHERE exhibit_id IN (SELECT exhibit_id FROM exhibits WHERE case_id = ?)`, id); err != nil {
		return fmt.Errorf("store: delete custody: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM exhibits WHERE case_id = ?`, id); err != nil {
		return fmt.Errorf("store: delete exhibits: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM cases WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: delete case: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("store: case %q: %w", id, apperr.ErrNotFound)
	}
	return tx.Commit()
}
