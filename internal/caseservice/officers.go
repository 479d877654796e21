package caseservice

import (
	"context"
	"strings"

	"github.com/starford/casedesk/internal/apperr"
	"github.com/starford/casedesk/internal/models"
)

// ListOfficers returns officers ordered by name.
func (s *Service) ListOfficers(ctx context.Context, activeOnly bool) ([]models.Officer, error) {
	return s.db.ListOfficers(ctx, activeOnly)
}

// GetOfficer returns one officer.
func (s *Service) GetOfficer(ctx context.Context, id string) (models.Officer, error) {
	return s.db.GetOfficer(ctx, id)
}

// CreateOfficer registers a new, active officer.
func (s *Service) CreateOfficer(ctx context.Context, o models.Officer) (models.Officer, error) {
	o.Name = strings.TrimSpace(o.Name)
	if err := o.Validate(); err != nil {
		return models.Officer{}, apperr.Invalid(err)
	}
	now := s.now().UTC()
	o.ID, o.Active, o.CreatedAt, o.UpdatedAt = newID(), true, now, now
	if err := s.db.InsertOfficer(ctx, &o); err != nil {
		return models.Officer{}, err
	}
	s.publish("officer", Created, o.ID)
	return o, nil
}

// UpdateOfficer replaces the editable officer fields. ID, Active and
// CreatedAt are kept from the stored record.
func (s *Service) UpdateOfficer(ctx context.Context, id string, in models.Officer) (models.Officer, error) {
	o, err := s.db.GetOfficer(ctx, id)
	if err != nil {
		return models.Officer{}, err
	}
	o.Name = strings.TrimSpace(in.Name)
	o.Role = in.Role
	o.WorkLocation = in.WorkLocation
	o.Experience = in.Experience
	o.Specialization = in.Specialization
	o.Contact = in.Contact
	if err := o.Validate(); err != nil {
		return models.Officer{}, apperr.Invalid(err)
	}
	if err := s.db.UpdateOfficer(ctx, &o); err != nil {
		return models.Officer{}, err
	}
	s.publish("officer", Updated, o.ID)
	return o, nil
}

// DeactivateOfficer soft-deletes an officer.
func (s *Service) DeactivateOfficer(ctx context.Context, id string) error {
	if err := s.db.DeactivateOfficer(ctx, id); err != nil {
		return err
	}
	s.publish("officer", Deleted, id)
	return nil
}
