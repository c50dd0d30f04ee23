package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Interaction is one answered (or clarified) visitor query, kept for the
// status display and the interactions listing.
type Interaction struct {
	ID            string
	CreatedAt     time.Time
	SessionID     string
	Query         string
	Intent        string
	ResultCount   int
	Clarification bool
}

// Job is a queued ingestion task.
type Job struct {
	ID          string
	Type        string
	PayloadJSON string
	Status      string // "pending", "running", "completed", "failed"
	Attempts    int
	MaxAttempts int
	RunAfter    time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	LastError   string
}
