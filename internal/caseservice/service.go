// Package caseservice coordinates the case store, similarity search and
// change notifications.
package caseservice

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/starford/casedesk/internal/apperr"
	"github.com/starford/casedesk/internal/checksum"
	"github.com/starford/casedesk/internal/models"
	"github.com/starford/casedesk/internal/store"
)

// EventPublisher receives change notifications. The SSE broker implements it.
type EventPublisher interface {
	PublishChange(entity, kind, id string)
}

// Change kinds.
const (
	Created = "created"
	Updated = "updated"
	Deleted = "deleted"
)

// Service is the case-management domain service.
type Service struct {
	db     *store.DB
	events EventPublisher
	now    func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithEvents publishes every change to p.
func WithEvents(p EventPublisher) Option {
	return func(s *Service) { s.events = p }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a case service over db.
func NewService(db *store.DB, opts ...Option) *Service {
	s := &Service{db: db, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Service) publish(entity, kind, id string) {
	if s.events != nil {
		s.events.PublishChange(entity, kind, id)
	}
}

func newID() string {
	return uuid.NewString()
}

// Checksum returns the ETag of a case: the digest of its JSON form.
func Checksum(c models.Case) string {
	sum, err := checksum.SumJSON(c)
	if err != nil {
		return ""
	}
	return sum
}

// CaseInput holds the fields accepted when opening a case.
type CaseInput struct {
	CaseNumber       string           `json:"case_number"`
	Territory        models.Territory `json:"territory"`
	Employer         string           `json:"employer"`
	Worker           string           `json:"worker"`
	IncidentDate     string           `json:"incident_date"`
	ReportedDate     string           `json:"reported_date"`
	Status           models.Status    `json:"status"`
	Priority         models.Priority  `json:"priority"`
	Description      string           `json:"description"`
	AssignedOfficers []string         `json:"assigned_officers"`
	InvolvedParties  []models.Party   `json:"involved_parties"`
}

// CasePatch holds a partial update. Nil fields are left unchanged.
type CasePatch struct {
	CaseNumber      *string           `json:"case_number"`
	Territory       *models.Territory `json:"territory"`
	Employer        *string           `json:"employer"`
	Worker          *string           `json:"worker"`
	IncidentDate    *string           `json:"incident_date"`
	ReportedDate    *string           `json:"reported_date"`
	Status          *models.Status    `json:"status"`
	Priority        *models.Priority  `json:"priority"`
	Description     *string           `json:"description"`
	InvolvedParties *[]models.Party   `json:"involved_parties"`
}

func (p CasePatch) apply(c *models.Case) {
	setIf(&c.CaseNumber, p.CaseNumber)
	setIf(&c.Territory, p.Territory)
	setIf(&c.Employer, p.Employer)
	setIf(&c.Worker, p.Worker)
	setIf(&c.IncidentDate, p.IncidentDate)
	setIf(&c.ReportedDate, p.ReportedDate)
	setIf(&c.Status, p.Status)
	setIf(&c.Priority, p.Priority)
	setIf(&c.Description, p.Description)
	setIf(&c.InvolvedParties, p.InvolvedParties)
}

func setIf[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

func validateCase(c *models.Case) error {
	if err := c.Validate(); err != nil {
		return apperr.Invalid(err)
	}
	for i := range c.InvolvedParties {
		p := &c.InvolvedParties[i]
		if err := p.Validate(); err != nil {
			return apperr.Invalid(fmt.Errorf("involved_parties[%d]: %w", i, err))
		}
		if p.ID == "" {
			p.ID = newID()
		}
	}
	return nil
}

// ListCases returns cases matching f, most recently updated first.
func (s *Service) ListCases(ctx context.Context, f models.CaseFilter) ([]models.Case, error) {
	all, err := s.db.ListCases(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.Case, 0, len(all))
	for _, c := range all {
		if f.Match(c) {
			out = append(out, c)
		}
	}
	return out, nil
}

// GetCase returns one case.
func (s *Service) GetCase(ctx context.Context, id string) (models.Case, error) {
	return s.db.GetCase(ctx, id)
}

// GetCaseByNumber returns the case with the given human-assigned number.
func (s *Service) GetCaseByNumber(ctx context.Context, number string) (models.Case, error) {
	return s.db.GetCaseByNumber(ctx, strings.TrimSpace(number))
}

// CreateCase opens a new case with Open/Medium defaults and empty collections.
func (s *Service) CreateCase(ctx context.Context, in CaseInput) (models.Case, error) {
	officers, err := s.knownOfficers(ctx, in.AssignedOfficers)
	if err != nil {
		return models.Case{}, err
	}
	now := s.now().UTC()
	c := models.Case{
		ID:               newID(),
		CaseNumber:       strings.TrimSpace(in.CaseNumber),
		Territory:        in.Territory,
		Employer:         strings.TrimSpace(in.Employer),
		Worker:           strings.TrimSpace(in.Worker),
		IncidentDate:     in.IncidentDate,
		ReportedDate:     in.ReportedDate,
		Status:           in.Status,
		Priority:         in.Priority,
		Description:      in.Description,
		AssignedOfficers: officers,
		InvolvedParties:  in.InvolvedParties,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if c.Status == "" {
		c.Status = models.StatusOpen
	}
	if c.Priority == "" {
		c.Priority = models.PriorityMedium
	}
	c.EnsureCollections()
	if err := validateCase(&c); err != nil {
		return models.Case{}, err
	}
	if err := s.db.InsertCase(ctx, &c); err != nil {
		return models.Case{}, err
	}
	s.publish("case", Created, c.ID)
	return c, nil
}

// UpdateCase applies a partial update. When ifMatch is non-empty it must
// equal the current Checksum of the stored case.
func (s *Service) UpdateCase(ctx context.Context, id string, patch CasePatch, ifMatch string) (models.Case, error) {
	c, err := s.db.GetCase(ctx, id)
	if err != nil {
		return models.Case{}, err
	}
	if ifMatch != "" && ifMatch != Checksum(c) {
		return models.Case{}, apperr.ErrConflict
	}
	patch.apply(&c)
	if err := validateCase(&c); err != nil {
		return models.Case{}, err
	}
	if err := s.db.UpdateCase(ctx, &c); err != nil {
		return models.Case{}, err
	}
	s.publish("case", Updated, c.ID)
	return c, nil
}

// DeleteCase removes a case with its exhibits.
func (s *Service) DeleteCase(ctx context.Context, id string) error {
	if err := s.db.DeleteCase(ctx, id); err != nil {
		return err
	}
	s.publish("case", Deleted, id)
	return nil
}

// mutate loads a case, applies fn and stores the result.
func (s *Service) mutate(ctx context.Context, id string, fn func(c *models.Case) error) (models.Case, error) {
	c, err := s.db.GetCase(ctx, id)
	if err != nil {
		return models.Case{}, err
	}
	if err := fn(&c); err != nil {
		return models.Case{}, err
	}
	if err := s.db.UpdateCase(ctx, &c); err != nil {
		return models.Case{}, err
	}
	s.publish("case", Updated, c.ID)
	return c, nil
}
