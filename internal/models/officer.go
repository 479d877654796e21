package models

import "time"

// Officer is an investigator. Cases reference officers by ID only.
type Officer struct {
	ID             string    `json:"id" db:"id"`
	Name           string    `json:"name" db:"name"`
	Role           string    `json:"role" db:"role"`
	WorkLocation   string    `json:"work_location" db:"work_location"`
	Experience     string    `json:"experience" db:"experience"`
	Specialization string    `json:"specialization" db:"specialization"`
	Contact        string    `json:"contact" db:"contact"`
	Active         bool      `json:"active" db:"active"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}
