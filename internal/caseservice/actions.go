package caseservice

import (
	"context"
	"errors"
	"fmt"

	"github.com/starford/casedesk/internal/apperr"
	"github.com/starford/casedesk/internal/models"
)

// AddTimelineEvent appends a dated event to the case timeline.
func (s *Service) AddTimelineEvent(ctx context.Context, caseID string, ev models.TimelineEvent) (models.TimelineEvent, error) {
	if err := ev.Validate(); err != nil {
		return ev, apperr.Invalid(err)
	}
	ev.ID, ev.CreatedAt = newID(), s.now().UTC()
	_, err := s.mutate(ctx, caseID, func(c *models.Case) error {
		c.Timelines = append(c.Timelines, ev)
		return nil
	})
	return ev, err
}

// AddReport files a report against the case.
func (s *Service) AddReport(ctx context.Context, caseID string, r models.Report) (models.Report, error) {
	if err := r.Validate(); err != nil {
		return r, apperr.Invalid(err)
	}
	r.ID, r.CreatedAt = newID(), s.now().UTC()
	_, err := s.mutate(ctx, caseID, func(c *models.Case) error {
		c.Reports = append(c.Reports, r)
		return nil
	})
	return r, err
}

// AddTask adds an action item. New tasks default to Pending.
func (s *Service) AddTask(ctx context.Context, caseID string, t models.Task) (models.Task, error) {
	if t.Status == "" {
		t.Status = models.TaskPending
	}
	if err := t.Validate(); err != nil {
		return t, apperr.Invalid(err)
	}
	t.ID, t.CreatedAt = newID(), s.now().UTC()
	_, err := s.mutate(ctx, caseID, func(c *models.Case) error {
		c.Tasks = append(c.Tasks, t)
		return nil
	})
	return t, err
}

// CompleteTask marks one of the case's tasks Completed.
func (s *Service) CompleteTask(ctx context.Context, caseID, taskID string) (models.Task, error) {
	var done models.Task
	_, err := s.mutate(ctx, caseID, func(c *models.Case) error {
		for i := range c.Tasks {
			if c.Tasks[i].ID == taskID {
				c.Tasks[i].Status = models.TaskCompleted
				done = c.Tasks[i]
				return nil
			}
		}
		return fmt.Errorf("task %q: %w", taskID, apperr.ErrNotFound)
	})
	return done, err
}

// AddEvidence logs an evidence item in the case record.
func (s *Service) AddEvidence(ctx context.Context, caseID string, e models.EvidenceItem) (models.EvidenceItem, error) {
	if err := e.Validate(); err != nil {
		return e, apperr.Invalid(err)
	}
	e.ID, e.CreatedAt = newID(), s.now().UTC()
	_, err := s.mutate(ctx, caseID, func(c *models.Case) error {
		c.Evidence = append(c.Evidence, e)
		return nil
	})
	return e, err
}

// AddPhoto attaches an inline photo.
func (s *Service) AddPhoto(ctx context.Context, caseID string, p models.Photo) (models.Photo, error) {
	if p.Filename == "" || p.Data == "" {
		return p, apperr.Invalid(errors.New("photo filename and data are required"))
	}
	p.ID, p.UploadedAt = newID(), s.now().UTC()
	_, err := s.mutate(ctx, caseID, func(c *models.Case) error {
		c.Photos = append(c.Photos, p)
		return nil
	})
	return p, err
}

// AddCharge lays a charge against the employer.
func (s *Service) AddCharge(ctx context.Context, caseID string, ch models.Charge) (models.Charge, error) {
	if err := ch.Validate(); err != nil {
		return ch, apperr.Invalid(err)
	}
	ch.ID, ch.CreatedAt = newID(), s.now().UTC()
	_, err := s.mutate(ctx, caseID, func(c *models.Case) error {
		c.Charges = append(c.Charges, ch)
		return nil
	})
	return ch, err
}

// SetCourt replaces the court record.
func (s *Service) SetCourt(ctx context.Context, caseID string, court models.CourtRecord) (models.Case, error) {
	court.UpdatedAt = s.now().UTC()
	return s.mutate(ctx, caseID, func(c *models.Case) error {
		c.Court = court
		return nil
	})
}

// SetConclusion records the close-out. A conclusion with status Closed also
// closes the case.
func (s *Service) SetConclusion(ctx context.Context, caseID string, con models.Conclusion) (models.Case, error) {
	con.UpdatedAt = s.now().UTC()
	return s.mutate(ctx, caseID, func(c *models.Case) error {
		c.Conclusion = con
		if con.Status == string(models.StatusClosed) {
			c.Status = models.StatusClosed
		}
		return nil
	})
}

// SetBriefingNote replaces the briefing note. JSON notes are kept as text.
func (s *Service) SetBriefingNote(ctx context.Context, caseID, note string) (models.Case, error) {
	return s.mutate(ctx, caseID, func(c *models.Case) error {
		c.BriefingNote = note
		return nil
	})
}

// AssignOfficers replaces the assigned officer list. Every ID must name a
// known officer; inactive officers may stay assigned.
func (s *Service) AssignOfficers(ctx context.Context, caseID string, officerIDs []string) (models.Case, error) {
	ids, err := s.knownOfficers(ctx, officerIDs)
	if err != nil {
		return models.Case{}, err
	}
	return s.mutate(ctx, caseID, func(c *models.Case) error {
		c.AssignedOfficers = ids
		return nil
	})
}

// knownOfficers drops blanks and repeats from ids and fails with ErrInvalid
// when any of them is not a stored officer.
func (s *Service) knownOfficers(ctx context.Context, ids []string) ([]string, error) {
	out := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		if _, err := s.db.GetOfficer(ctx, id); err != nil {
			return nil, apperr.Invalid(fmt.Errorf("officer %q: %w", id, err))
		}
		seen[id] = true
		out = append(out, id)
	}
	return out, nil
}
