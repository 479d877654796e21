package caseservice

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/starford/casedesk/internal/apperr"
	"github.com/starford/casedesk/internal/models"
	"github.com/starford/casedesk/internal/report"
)

// ExportVersion is written into every export bundle.
const ExportVersion = "1.0"

// Bundle is the JSON export format.
type Bundle struct {
	Cases      []models.Case    `json:"cases"`
	Officers   []models.Officer `json:"officers"`
	ExportedAt string           `json:"exported_at"`
	Version    string           `json:"version"`
}

// ImportSummary counts what an import changed.
type ImportSummary struct {
	CasesCreated    int `json:"cases_created"`
	CasesUpdated    int `json:"cases_updated"`
	OfficersCreated int `json:"officers_created"`
	OfficersUpdated int `json:"officers_updated"`
}

// Export returns every case and officer.
func (s *Service) Export(ctx context.Context) (Bundle, error) {
	cases, err := s.db.ListCases(ctx)
	if err != nil {
		return Bundle{}, err
	}
	officers, err := s.db.ListOfficers(ctx, false)
	if err != nil {
		return Bundle{}, err
	}
	return Bundle{
		Cases:      cases,
		Officers:   officers,
		ExportedAt: s.now().UTC().Format(time.RFC3339),
		Version:    ExportVersion,
	}, nil
}

// Import merges a bundle: records whose ID already exists are replaced,
// the rest are inserted. Officers go first so case assignments resolve.
func (s *Service) Import(ctx context.Context, b Bundle) (ImportSummary, error) {
	var sum ImportSummary
	now := s.now().UTC()

	for i := range b.Officers {
		o := b.Officers[i]
		if err := o.Validate(); err != nil {
			return sum, apperr.Invalid(fmt.Errorf("officers[%d]: %w", i, err))
		}
		if o.ID == "" {
			o.ID = newID()
		}
		if o.CreatedAt.IsZero() {
			o.CreatedAt = now
		}
		o.UpdatedAt = now
		_, err := s.db.GetOfficer(ctx, o.ID)
		switch {
		case err == nil:
			if err := s.db.UpdateOfficer(ctx, &o); err != nil {
				return sum, err
			}
			sum.OfficersUpdated++
			s.publish("officer", Updated, o.ID)
		case errors.Is(err, apperr.ErrNotFound):
			if err := s.db.InsertOfficer(ctx, &o); err != nil {
				return sum, err
			}
			sum.OfficersCreated++
			s.publish("officer", Created, o.ID)
		default:
			return sum, err
		}
	}

	for i := range b.Cases {
		c := b.Cases[i]
		if c.Status == "" {
			c.Status = models.StatusOpen
		}
		if c.Priority == "" {
			c.Priority = models.PriorityMedium
		}
		c.EnsureCollections()
		if err := validateCase(&c); err != nil {
			return sum, fmt.Errorf("cases[%d]: %w", i, err)
		}
		if c.ID == "" {
			c.ID = newID()
		}
		if c.CreatedAt.IsZero() {
			c.CreatedAt = now
		}
		if c.UpdatedAt.IsZero() {
			c.UpdatedAt = now
		}
		_, err := s.db.GetCase(ctx, c.ID)
		switch {
		case err == nil:
			if err := s.db.UpdateCase(ctx, &c); err != nil {
				return sum, err
			}
			sum.CasesUpdated++
			s.publish("case", Updated, c.ID)
		case errors.Is(err, apperr.ErrNotFound):
			if err := s.db.InsertCase(ctx, &c); err != nil {
				return sum, err
			}
			sum.CasesCreated++
			s.publish("case", Created, c.ID)
		default:
			return sum, err
		}
	}

	return sum, nil
}

// ExportCSV writes the case table, optionally limited to one territory.
func (s *Service) ExportCSV(ctx context.Context, w io.Writer, territory models.Territory) error {
	cases, err := s.ListCases(ctx, models.CaseFilter{Territory: territory})
	if err != nil {
		return err
	}
	return report.WriteCasesCSV(w, cases)
}
