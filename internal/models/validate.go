package models

import (
	"errors"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

var errDateFormat = errors.New("must be a date in YYYY-MM-DD format")

// dateRule accepts empty strings and YYYY-MM-DD dates.
var dateRule = validation.By(func(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if _, err := time.Parse(DateLayout, s); err != nil {
		return errDateFormat
	}
	return nil
})

func territoryValues() []any {
	out := make([]any, len(Territories))
	for i, t := range Territories {
		out[i] = t
	}
	return out
}

func statusValues() []any {
	out := make([]any, len(Statuses))
	for i, s := range Statuses {
		out[i] = s
	}
	return out
}

func priorityValues() []any {
	out := make([]any, len(Priorities))
	for i, p := range Priorities {
		out[i] = p
	}
	return out
}

// Validate checks the top-level case fields.
func (c *Case) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.CaseNumber, validation.Required, validation.Length(1, 64)),
		validation.Field(&c.Territory, validation.Required, validation.In(territoryValues()...)),
		validation.Field(&c.Employer, validation.Required),
		validation.Field(&c.Worker, validation.Required),
		validation.Field(&c.IncidentDate, dateRule),
		validation.Field(&c.ReportedDate, dateRule),
		validation.Field(&c.Status, validation.Required, validation.In(statusValues()...)),
		validation.Field(&c.Priority, validation.Required, validation.In(priorityValues()...)),
	)
}

// Validate checks the required officer fields.
func (o *Officer) Validate() error {
	return validation.ValidateStruct(o,
		validation.Field(&o.Name, validation.Required),
		validation.Field(&o.Role, validation.Required),
	)
}

// Validate checks an involved party.
func (p *Party) Validate() error {
	return validation.ValidateStruct(p,
		validation.Field(&p.Name, validation.Required),
		validation.Field(&p.Type, validation.Required),
	)
}

// Validate checks a timeline event.
func (e *TimelineEvent) Validate() error {
	return validation.ValidateStruct(e,
		validation.Field(&e.Date, validation.Required, dateRule),
		validation.Field(&e.Description, validation.Required),
	)
}

// Validate checks a report.
func (r *Report) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Title, validation.Required),
		validation.Field(&r.Content, validation.Required),
	)
}

// Validate checks a task.
func (t *Task) Validate() error {
	return validation.ValidateStruct(t,
		validation.Field(&t.Description, validation.Required),
		validation.Field(&t.DueDate, dateRule),
		validation.Field(&t.Status, validation.In(TaskPending, TaskInProgress, TaskCompleted)),
	)
}

// Validate checks an evidence log item.
func (e *EvidenceItem) Validate() error {
	return validation.ValidateStruct(e,
		validation.Field(&e.Description, validation.Required),
		validation.Field(&e.CollectionDate, dateRule),
	)
}

// Validate checks a charge.
func (c *Charge) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Description, validation.Required),
		validation.Field(&c.Fine, validation.Min(0.0)),
	)
}

// Validate checks a new exhibit.
func (e *Exhibit) Validate() error {
	return validation.ValidateStruct(e,
		validation.Field(&e.CaseID, validation.Required),
		validation.Field(&e.Type, validation.Required, validation.In(ExhibitPhysical, ExhibitDigital)),
		validation.Field(&e.Description, validation.Required),
		validation.Field(&e.Quantity, validation.Min(0)),
	)
}

// Validate checks a custody entry.
func (c *CustodyEntry) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Action, validation.Required),
		validation.Field(&c.PerformedBy, validation.Required),
	)
}

// Validate checks a storage location.
func (l *StorageLocation) Validate() error {
	types := make([]any, len(StorageTypes))
	for i, t := range StorageTypes {
		types[i] = t
	}
	return validation.ValidateStruct(l,
		validation.Field(&l.Name, validation.Required),
		validation.Field(&l.Type, validation.Required, validation.In(types...)),
		validation.Field(&l.Capacity, validation.Min(0)),
	)
}
