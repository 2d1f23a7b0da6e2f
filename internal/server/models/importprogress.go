package models

import "time"

// ImportState is the lifecycle state of a bulk import run.
type ImportState string

const (
	ImportIdle      ImportState = "idle"
	ImportRunning   ImportState = "running"
	ImportCompleted ImportState = "completed"
	ImportCancelled ImportState = "cancelled"
	ImportFailed    ImportState = "failed"
)

// ImportProgress is a snapshot of the importer state.
type ImportProgress struct {
	Running      bool        `json:"running"`
	State        ImportState `json:"state"`
	Category     Category    `json:"category,omitempty"`
	CurrentIndex int         `json:"current_index"`
	TotalCount   int         `json:"total_count"`
	CurrentLabel string      `json:"current_label"`
	Inserted     int         `json:"inserted"`
	LastError    string      `json:"last_error,omitempty"`
	StartedAt    *time.Time  `json:"started_at,omitempty"`
	FinishedAt   *time.Time  `json:"finished_at,omitempty"`
}
