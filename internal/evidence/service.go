// Package evidence tracks case exhibits, their chain of custody and the
// storage locations they are kept in.
package evidence

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/starford/casedesk/internal/apperr"
	"github.com/starford/casedesk/internal/models"
	"github.com/starford/casedesk/internal/storage"
	"github.com/starford/casedesk/internal/store"
)

// MaxAttachmentBytes caps a single digital attachment.
const MaxAttachmentBytes = 50 << 20

var safeNameRe = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// EventPublisher receives change notifications.
type EventPublisher interface {
	PublishChange(entity, kind, id string)
}

// Service manages exhibits and custody.
type Service struct {
	db     *store.DB
	files  storage.Provider
	events EventPublisher
	now    func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithEvents publishes exhibit changes to p.
func WithEvents(p EventPublisher) Option {
	return func(s *Service) { s.events = p }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates an evidence service. files may be nil, in which case
// attachments are rejected.
func NewService(db *store.DB, files storage.Provider, opts ...Option) *Service {
	s := &Service{db: db, files: files, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Service) publish(kind, id string) {
	if s.events != nil {
		s.events.PublishChange("exhibit", kind, id)
	}
}

func shortID(prefix string) string {
	return prefix + "-" + uuid.NewString()[:8]
}

// ExhibitInput holds the fields accepted when registering an exhibit.
type ExhibitInput struct {
	CaseID          string   `json:"case_id"`
	Type            string   `json:"exhibit_type"`
	Category        string   `json:"category"`
	Description     string   `json:"description"`
	SeizedDate      string   `json:"seized_date"`
	SeizedBy        string   `json:"seized_by"`
	SeizedLocation  string   `json:"seized_location"`
	CurrentLocation string   `json:"current_location"`
	Barcode         string   `json:"barcode"`
	Quantity        int      `json:"quantity"`
	Unit            string   `json:"unit"`
	Weight          *float64 `json:"weight,omitempty"`
	Dimensions      string   `json:"dimensions"`
	SerialNumber    string   `json:"serial_number"`
	MakeModel       string   `json:"make_model"`
	ConditionNotes  string   `json:"condition_notes"`
	PhotoPath       string   `json:"photo_path"`
	HashValue       string   `json:"hash_value"`
	Tags            string   `json:"tags"`
}

// AddExhibit registers a new exhibit in custody and records its CREATED
// custody entry. The exhibit number is the next free EX-YYYY-NNNN for the
// current year.
func (s *Service) AddExhibit(ctx context.Context, in ExhibitInput) (models.Exhibit, error) {
	now := s.now().UTC()
	e := models.Exhibit{
		ID:              shortID("exhibit"),
		CaseID:          in.CaseID,
		Type:            strings.ToUpper(strings.TrimSpace(in.Type)),
		Category:        in.Category,
		Description:     strings.TrimSpace(in.Description),
		SeizedDate:      in.SeizedDate,
		SeizedBy:        in.SeizedBy,
		SeizedLocation:  in.SeizedLocation,
		CurrentLocation: in.CurrentLocation,
		CurrentStatus:   models.ExhibitInCustody,
		Barcode:         in.Barcode,
		Quantity:        in.Quantity,
		Unit:            in.Unit,
		Weight:          in.Weight,
		Dimensions:      in.Dimensions,
		SerialNumber:    in.SerialNumber,
		MakeModel:       in.MakeModel,
		ConditionNotes:  in.ConditionNotes,
		PhotoPath:       in.PhotoPath,
		HashValue:       in.HashValue,
		Tags:            in.Tags,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if e.Quantity == 0 {
		e.Quantity = 1
	}
	if e.Unit == "" {
		e.Unit = "item"
	}
	if e.SeizedDate == "" {
		e.SeizedDate = now.Format(models.DateLayout)
	}
	if err := e.Validate(); err != nil {
		return models.Exhibit{}, apperr.Invalid(err)
	}

	first := &models.CustodyEntry{
		ID:             shortID("custody"),
		Action:         models.CustodyCreated,
		ActionDate:     e.SeizedDate,
		PerformedBy:    e.SeizedBy,
		ToLocation:     e.CurrentLocation,
		Reason:         "Evidence collected at scene: " + e.SeizedLocation,
		ConditionAfter: e.ConditionNotes,
		Notes:          "Initial collection and documentation of evidence",
		CreatedAt:      now,
	}
	if err := s.db.InsertExhibit(ctx, &e, first); err != nil {
		return models.Exhibit{}, err
	}
	s.publish("created", e.ID)
	return e, nil
}

// GetExhibit returns one exhibit.
func (s *Service) GetExhibit(ctx context.Context, id string) (models.Exhibit, error) {
	return s.db.GetExhibit(ctx, id)
}

// ListExhibits returns exhibits matching f, newest first.
func (s *Service) ListExhibits(ctx context.Context, f models.ExhibitFilter) ([]models.Exhibit, error) {
	return s.db.ListExhibits(ctx, f)
}

// LogCustody appends an entry to the exhibit's chain. A ToLocation moves the
// exhibit; RETURNED and DESTROYED actions also change its status. Actions are
// not checked against the exhibit's current state.
func (s *Service) LogCustody(ctx context.Context, exhibitID string, entry models.CustodyEntry) (models.CustodyEntry, error) {
	now := s.now().UTC()
	entry.ID = shortID("custody")
	entry.ExhibitID = exhibitID
	entry.Action = strings.ToUpper(strings.TrimSpace(entry.Action))
	entry.CreatedAt = now
	if entry.ActionDate == "" {
		entry.ActionDate = now.Format(models.DateLayout)
	}
	if err := entry.Validate(); err != nil {
		return models.CustodyEntry{}, apperr.Invalid(err)
	}

	var status string
	switch entry.Action {
	case models.CustodyReturned:
		status = models.ExhibitReturned
	case models.CustodyDestroyed:
		status = models.ExhibitDestroyed
	}
	if err := s.db.AppendCustody(ctx, &entry, entry.ToLocation, status); err != nil {
		return models.CustodyEntry{}, err
	}
	s.publish("updated", exhibitID)
	return entry, nil
}

// CustodyChain returns the exhibit's custody log, oldest first.
func (s *Service) CustodyChain(ctx context.Context, exhibitID string) ([]models.CustodyEntry, error) {
	if _, err := s.db.GetExhibit(ctx, exhibitID); err != nil {
		return nil, err
	}
	return s.db.CustodyChain(ctx, exhibitID)
}

// CreateStorageLocation registers a place exhibits can be kept.
func (s *Service) CreateStorageLocation(ctx context.Context, loc models.StorageLocation) (models.StorageLocation, error) {
	loc.ID = shortID("storage")
	loc.Name = strings.TrimSpace(loc.Name)
	loc.Type = strings.ToUpper(strings.TrimSpace(loc.Type))
	loc.CurrentCount = 0
	loc.CreatedAt = s.now().UTC()
	if err := loc.Validate(); err != nil {
		return models.StorageLocation{}, apperr.Invalid(err)
	}
	if err := s.db.InsertStorageLocation(ctx, &loc); err != nil {
		return models.StorageLocation{}, err
	}
	return loc, nil
}

// ListStorageLocations returns every storage location.
func (s *Service) ListStorageLocations(ctx context.Context) ([]models.StorageLocation, error) {
	return s.db.ListStorageLocations(ctx)
}

// Statistics summarises the exhibit inventory.
func (s *Service) Statistics(ctx context.Context) (models.EvidenceStatistics, error) {
	return s.db.EvidenceStatistics(ctx)
}

// AttachFile stores a digital attachment under the exhibit's directory and
// records its path on the exhibit. The exhibit's hash value is left as is.
func (s *Service) AttachFile(ctx context.Context, exhibitID, name string, r io.Reader) (models.Exhibit, error) {
	if s.files == nil {
		return models.Exhibit{}, errors.New("evidence: attachment storage is not configured")
	}
	if _, err := s.db.GetExhibit(ctx, exhibitID); err != nil {
		return models.Exhibit{}, err
	}

	data, err := io.ReadAll(io.LimitReader(r, MaxAttachmentBytes+1))
	if err != nil {
		return models.Exhibit{}, fmt.Errorf("evidence: read attachment: %w", err)
	}
	if len(data) > MaxAttachmentBytes {
		return models.Exhibit{}, apperr.Invalid(fmt.Errorf("attachment exceeds %d bytes", MaxAttachmentBytes))
	}
	if len(data) == 0 {
		return models.Exhibit{}, apperr.Invalid(errors.New("attachment is empty"))
	}

	rel := path.Join(exhibitID, SanitizeFilename(name))
	if err := s.files.Write(rel, data); err != nil {
		return models.Exhibit{}, fmt.Errorf("evidence: write attachment: %w", err)
	}
	if err := s.db.UpdateExhibitFile(ctx, exhibitID, rel); err != nil {
		return models.Exhibit{}, err
	}
	s.publish("updated", exhibitID)
	return s.db.GetExhibit(ctx, exhibitID)
}

// AttachmentPath returns the on-disk location of the exhibit's attachment.
func (s *Service) AttachmentPath(ctx context.Context, exhibitID string) (string, error) {
	e, err := s.db.GetExhibit(ctx, exhibitID)
	if err != nil {
		return "", err
	}
	if e.DigitalFilePath == "" || s.files == nil {
		return "", fmt.Errorf("evidence: exhibit %q has no attachment: %w", exhibitID, apperr.ErrNotFound)
	}
	return s.files.Abs(e.DigitalFilePath)
}

// SanitizeFilename keeps the base name and replaces unsafe characters.
func SanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = safeNameRe.ReplaceAllString(name, "_")
	if name == "" || name == "." || name == ".." || name == "/" {
		name = uuid.NewString()
	}
	return name
}
