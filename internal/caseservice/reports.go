package caseservice

import (
	"context"

	"github.com/starford/casedesk/internal/models"
	"github.com/starford/casedesk/internal/report"
)

// TerritoryReport renders the monthly report for territory; empty means all.
func (s *Service) TerritoryReport(ctx context.Context, territory models.Territory) ([]byte, error) {
	cases, err := s.db.ListCases(ctx)
	if err != nil {
		return nil, err
	}
	officers, err := s.db.ListOfficers(ctx, false)
	if err != nil {
		return nil, err
	}
	return report.TerritoryReport(territory, cases, officers, s.now())
}

// DisclosurePackage renders the court-disclosure document for a case,
// including its tracked exhibits.
func (s *Service) DisclosurePackage(ctx context.Context, caseID string) ([]byte, error) {
	c, err := s.db.GetCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	officers, err := s.db.ListOfficers(ctx, false)
	if err != nil {
		return nil, err
	}
	exhibits, err := s.db.ListExhibits(ctx, models.ExhibitFilter{CaseID: caseID})
	if err != nil {
		return nil, err
	}
	return report.DisclosurePackage(c, officers, exhibits, s.now())
}
