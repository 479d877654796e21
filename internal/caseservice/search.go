package caseservice

import (
	"context"
	"errors"
	"strings"

	"github.com/starford/casedesk/internal/apperr"
	"github.com/starford/casedesk/internal/models"
	"github.com/starford/casedesk/internal/search"
)

// Search ranks every stored case against query. The vector space is rebuilt
// from the current store contents on each call.
func (s *Service) Search(ctx context.Context, query string, opts search.Options) ([]search.Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, apperr.Invalid(errors.New("query is required"))
	}
	cases, err := s.db.ListCases(ctx)
	if err != nil {
		return nil, err
	}
	return search.Search(cases, query, opts)
}

// FindSimilar ranks the other cases by similarity to the case with refID.
func (s *Service) FindSimilar(ctx context.Context, refID string, threshold float64, limit int) ([]search.Result, error) {
	ref, err := s.db.GetCase(ctx, refID)
	if err != nil {
		return nil, err
	}
	cases, err := s.db.ListCases(ctx)
	if err != nil {
		return nil, err
	}
	return search.FindSimilar(cases, ref, search.Options{MinRelevance: threshold, MaxResults: limit})
}

// AutoTags suggests up to n tags per case, optionally restricted to one status.
func (s *Service) AutoTags(ctx context.Context, status models.Status, n int) (map[string][]string, error) {
	cases, err := s.ListCases(ctx, models.CaseFilter{Status: status})
	if err != nil {
		return nil, err
	}
	return search.AutoTagCases(cases, n), nil
}

// Statistics summarises the case load.
func (s *Service) Statistics(ctx context.Context) (models.Statistics, error) {
	return s.db.Statistics(ctx)
}
