package models

import "time"

// Exhibit types.
const (
	ExhibitPhysical = "PHYSICAL"
	ExhibitDigital  = "DIGITAL"
)

// Exhibit custody statuses.
const (
	ExhibitInCustody = "CUSTODY"
	ExhibitReturned  = "RETURNED"
	ExhibitDestroyed = "DESTROYED"
)

// Common custody actions. The log accepts any action string.
const (
	CustodyCreated     = "CREATED"
	CustodyTransferred = "TRANSFERRED"
	CustodyCheckedOut  = "CHECKED_OUT"
	CustodyCheckedIn   = "CHECKED_IN"
	CustodyReturned    = "RETURNED"
	CustodyDestroyed   = "DESTROYED"
)

// Storage location types.
var StorageTypes = []string{"ROOM", "LOCKER", "FREEZER", "SERVER", "CABINET", "VAULT", "OTHER"}

// Exhibit is a tracked physical or digital evidence item belonging to one case.
type Exhibit struct {
	ID              string    `json:"exhibit_id" db:"exhibit_id"`
	CaseID          string    `json:"case_id" db:"case_id"`
	ExhibitNumber   string    `json:"exhibit_number" db:"exhibit_number"`
	Type            string    `json:"exhibit_type" db:"exhibit_type"`
	Category        string    `json:"category" db:"category"`
	Description     string    `json:"description" db:"description"`
	SeizedDate      string    `json:"seized_date" db:"seized_date"`
	SeizedBy        string    `json:"seized_by" db:"seized_by"`
	SeizedLocation  string    `json:"seized_location" db:"seized_location"`
	CurrentLocation string    `json:"current_location" db:"current_location"`
	CurrentStatus   string    `json:"current_status" db:"current_status"`
	Barcode         string    `json:"barcode" db:"barcode"`
	Quantity        int       `json:"quantity" db:"quantity"`
	Unit            string    `json:"unit" db:"unit"`
	Weight          *float64  `json:"weight,omitempty" db:"weight"`
	Dimensions      string    `json:"dimensions" db:"dimensions"`
	SerialNumber    string    `json:"serial_number" db:"serial_number"`
	MakeModel       string    `json:"make_model" db:"make_model"`
	ConditionNotes  string    `json:"condition_notes" db:"condition_notes"`
	PhotoPath       string    `json:"photo_path" db:"photo_path"`
	DigitalFilePath string    `json:"digital_file_path" db:"digital_file_path"`
	HashValue       string    `json:"hash_value" db:"hash_value"`
	Tags            string    `json:"tags" db:"tags"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

// CustodyEntry is one append-only record in an exhibit's chain of custody.
// HashValue is stored as supplied and never computed.
type CustodyEntry struct {
	ID              string    `json:"custody_id" db:"custody_id"`
	ExhibitID       string    `json:"exhibit_id" db:"exhibit_id"`
	Action          string    `json:"action" db:"action"`
	ActionDate      string    `json:"action_date" db:"action_date"`
	PerformedBy     string    `json:"performed_by" db:"performed_by"`
	ReceivedBy      string    `json:"received_by" db:"received_by"`
	Witness         string    `json:"witness" db:"witness"`
	FromLocation    string    `json:"from_location" db:"from_location"`
	ToLocation      string    `json:"to_location" db:"to_location"`
	AuthorizedBy    string    `json:"authorized_by" db:"authorized_by"`
	SealNumber      string    `json:"seal_number" db:"seal_number"`
	Reason          string    `json:"reason" db:"reason"`
	ConditionBefore string    `json:"condition_before" db:"condition_before"`
	ConditionAfter  string    `json:"condition_after" db:"condition_after"`
	Notes           string    `json:"notes" db:"notes"`
	HashValue       string    `json:"hash_value" db:"hash_value"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}

// StorageLocation is a place exhibits are kept.
type StorageLocation struct {
	ID                    string    `json:"storage_id" db:"storage_id"`
	Name                  string    `json:"location_name" db:"location_name"`
	Type                  string    `json:"location_type" db:"location_type"`
	Capacity              int       `json:"capacity" db:"capacity"`
	CurrentCount          int       `json:"current_count" db:"current_count"`
	AccessLevel           string    `json:"access_level" db:"access_level"`
	TemperatureControlled bool      `json:"temperature_controlled" db:"temperature_controlled"`
	SecureLocked          bool      `json:"secure_locked" db:"secure_locked"`
	Notes                 string    `json:"notes" db:"notes"`
	CreatedAt             time.Time `json:"created_at" db:"created_at"`
}

// ExhibitFilter narrows an exhibit listing. Query matches exhibit number or
// description case-insensitively.
type ExhibitFilter struct {
	CaseID string
	Status string
	Type   string
	Query  string
}

// EvidenceStatistics summarises the exhibit inventory.
type EvidenceStatistics struct {
	TotalExhibits int            `json:"total_exhibits"`
	ByStatus      map[string]int `json:"by_status"`
	ByType        map[string]int `json:"by_type"`
	ByCategory    map[string]int `json:"by_category"`
}
