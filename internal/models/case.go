// Package models defines the domain types for casedesk.
package models

import (
	"time"
)

// DateLayout is the calendar-date format used for incident, reported and due dates.
const DateLayout = "2006-01-02"

// Territory is the jurisdiction a case belongs to.
type Territory string

const (
	TerritoryNWT     Territory = "Northwest Territories"
	TerritoryNunavut Territory = "Nunavut"
)

// Territories lists every supported territory in display order.
var Territories = []Territory{TerritoryNWT, TerritoryNunavut}

// Status is the investigation status of a case. Transitions are not enforced.
type Status string

const (
	StatusOpen               Status = "Open"
	StatusUnderInvestigation Status = "Under Investigation"
	StatusClosed             Status = "Closed"
)

// Statuses lists every case status.
var Statuses = []Status{StatusOpen, StatusUnderInvestigation, StatusClosed}

// Active reports whether the status counts as an active caseload.
func (s Status) Active() bool {
	return s == StatusOpen || s == StatusUnderInvestigation
}

// Priority is the triage priority of a case.
type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

// Priorities lists every case priority.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

// Case is an investigation file. Nested collections are owned by the case
// and persisted with it; none of them is addressable on its own.
type Case struct {
	ID               string          `json:"id"`
	CaseNumber       string          `json:"case_number"`
	Territory        Territory       `json:"territory"`
	Employer         string          `json:"employer"`
	Worker           string          `json:"worker"`
	IncidentDate     string          `json:"incident_date"`
	ReportedDate     string          `json:"reported_date"`
	Status           Status          `json:"status"`
	Priority         Priority        `json:"priority"`
	Description      string          `json:"description"`
	AssignedOfficers []string        `json:"assigned_officers"`
	InvolvedParties  []Party         `json:"involved_parties"`
	Timelines        []TimelineEvent `json:"timelines"`
	Reports          []Report        `json:"reports"`
	Tasks            []Task          `json:"tasks"`
	Evidence         []EvidenceItem  `json:"evidence"`
	Photos           []Photo         `json:"photos"`
	Charges          []Charge        `json:"charges"`
	Court            CourtRecord     `json:"court"`
	Conclusion       Conclusion      `json:"conclusion"`
	BriefingNote     string          `json:"briefing_note"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// EnsureCollections replaces nil collections with empty ones so the case
// always serialises with [] rather than null.
func (c *Case) EnsureCollections() {
	if c.AssignedOfficers == nil {
		c.AssignedOfficers = []string{}
	}
	if c.InvolvedParties == nil {
		c.InvolvedParties = []Party{}
	}
	if c.Timelines == nil {
		c.Timelines = []TimelineEvent{}
	}
	if c.Reports == nil {
		c.Reports = []Report{}
	}
	if c.Tasks == nil {
		c.Tasks = []Task{}
	}
	if c.Evidence == nil {
		c.Evidence = []EvidenceItem{}
	}
	if c.Photos == nil {
		c.Photos = []Photo{}
	}
	if c.Charges == nil {
		c.Charges = []Charge{}
	}
}

// Party is a person or organisation involved in the incident other than the
// primary employer and worker (witnesses, contractors, coroner, police).
type Party struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Name    string `json:"name"`
	Role    string `json:"role,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`
	Address string `json:"address,omitempty"`
	Details string `json:"details,omitempty"`
}

// TimelineEvent is one dated entry on the case timeline.
type TimelineEvent struct {
	ID          string    `json:"id"`
	Date        string    `json:"date"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// Report is an investigation report filed against a case.
type Report struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Type      string    `json:"type"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

// Task statuses.
const (
	TaskPending    = "Pending"
	TaskInProgress = "In Progress"
	TaskCompleted  = "Completed"
)

// Task is an action item on a case.
type Task struct {
	ID          string    `json:"id"`
	Description string    `json:"description"`
	DueDate     string    `json:"due_date"`
	Status      string    `json:"status"`
	AssignedTo  string    `json:"assigned_to"`
	CreatedAt   time.Time `json:"created_at"`
}

// EvidenceItem is a lightweight evidence log entry kept inside the case record.
// Tracked exhibits with a chain of custody live in the evidence subsystem.
type EvidenceItem struct {
	ID             string    `json:"id"`
	Type           string    `json:"type"`
	Description    string    `json:"description"`
	Location       string    `json:"location"`
	CollectedBy    string    `json:"collected_by"`
	CollectionDate string    `json:"collection_date"`
	CreatedAt      time.Time `json:"created_at"`
}

// Photo is an inline (base64) photograph attached to a case.
type Photo struct {
	ID          string    `json:"id"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	Filename    string    `json:"filename"`
	Data        string    `json:"data,omitempty"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// Charge is a violation laid against the employer.
type Charge struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
	Severity    string    `json:"severity"`
	Fine        float64   `json:"fine"`
	CreatedAt   time.Time `json:"created_at"`
}

// CourtRecord holds the court proceedings for a case.
type CourtRecord struct {
	CaseNumber  string    `json:"case_number,omitempty"`
	Location    string    `json:"location,omitempty"`
	Judge       string    `json:"judge,omitempty"`
	HearingDate string    `json:"hearing_date,omitempty"`
	Status      string    `json:"status,omitempty"`
	Notes       string    `json:"notes,omitempty"`
	UpdatedAt   time.Time `json:"updated_at,omitzero"`
}

// IsZero reports whether no court information has been recorded.
func (c CourtRecord) IsZero() bool {
	return c.CaseNumber == "" && c.Location == "" && c.Judge == "" &&
		c.HearingDate == "" && c.Status == "" && c.Notes == ""
}

// Conclusion records how an investigation was closed out.
type Conclusion struct {
	Status             string    `json:"status,omitempty"`
	ClosureDate        string    `json:"closure_date,omitempty"`
	RootCause          string    `json:"root_cause,omitempty"`
	PreventiveMeasures string    `json:"preventive_measures,omitempty"`
	FinalFindings      string    `json:"final_findings,omitempty"`
	Recommendations    string    `json:"recommendations,omitempty"`
	CompletedBy        string    `json:"completed_by,omitempty"`
	UpdatedAt          time.Time `json:"updated_at,omitzero"`
}

// IsZero reports whether no conclusion has been recorded.
func (c Conclusion) IsZero() bool {
	return c.Status == "" && c.ClosureDate == "" && c.RootCause == "" &&
		c.PreventiveMeasures == "" && c.FinalFindings == "" && c.Recommendations == ""
}

// CaseFilter narrows a case listing. Empty fields match everything.
type CaseFilter struct {
	Territory Territory
	Status    Status
	Priority  Priority
}

// Match reports whether c passes the filter.
func (f CaseFilter) Match(c Case) bool {
	if f.Territory != "" && c.Territory != f.Territory {
		return false
	}
	if f.Status != "" && c.Status != f.Status {
		return false
	}
	if f.Priority != "" && c.Priority != f.Priority {
		return false
	}
	return true
}

// Statistics summarises the case load for dashboards.
type Statistics struct {
	TotalCases     int            `json:"total_cases"`
	ByStatus       map[string]int `json:"by_status"`
	ByTerritory    map[string]int `json:"by_territory"`
	ByPriority     map[string]int `json:"by_priority"`
	ActiveOfficers int            `json:"active_officers"`
}
