package store

import (
	"context"
	"fmt"

	"github.com/starford/casedesk/internal/models"
)

type groupCount struct {
	Key   string `db:"k"`
	Count int    `db:"n"`
}

func (db *DB) groupCounts(ctx context.Context, table, column string) (map[string]int, error) {
	var rows []groupCount
	q := fmt.Sprintf(`SELECT %s AS k, count(*) AS n FROM %s GROUP BY %s`, column, table, column)
	if err := db.conn.SelectContext(ctx, &rows, q); err != nil {
		return nil, fmt.Errorf("store: count %s by %s: %w", table, column, err)
	}
	out := make(map[string]int, len(rows))
	for _, r := range rows {
		out[r.Key] = r.Count
	}
	return out, nil
}

// Statistics summarises the case load and active officers.
func (db *DB) Statistics(ctx context.Context) (models.Statistics, error) {
	var st models.Statistics
	if err := db.conn.GetContext(ctx, &st.TotalCases, `SELECT count(*) FROM cases`); err != nil {
		return st, fmt.Errorf("store: count cases: %w", err)
	}
	if err := db.conn.GetContext(ctx, &st.ActiveOfficers, `SELECT count(*) FROM officers WHERE active = 1`); err != nil {
		return st, fmt.Errorf("store: count officers: %w", err)
	}
	var err error
	if st.ByStatus, err = db.groupCounts(ctx, "cases", "status"); err != nil {
		return st, err
	}
	if st.ByTerritory, err = db.groupCounts(ctx, "cases", "territory"); err != nil {
		return st, err
	}
	if st.ByPriority, err = db.groupCounts(ctx, "cases", "priority"); err != nil {
		return st, err
	}
	return st, nil
}

// EvidenceStatistics summarises the exhibit inventory.
func (db *DB) EvidenceStatistics(ctx context.Context) (models.EvidenceStatistics, error) {
	var st models.EvidenceStatistics
	if err := db.conn.GetContext(ctx, &st.TotalExhibits, `SELECT count(*) FROM exhibits`); err != nil {
		return st, fmt.Errorf("store: count exhibits: %w", err)
	}
	var err error
	if st.ByStatus, err = db.groupCounts(ctx, "exhibits", "current_status"); err != nil {
		return st, err
	}
	if st.ByType, err = db.groupCounts(ctx, "exhibits", "exhibit_type"); err != nil {
		return st, err
	}
	if st.ByCategory, err = db.groupCounts(ctx, "exhibits", "category"); err != nil {
		return st, err
	}
	return st, nil
}
