package types

import (
	"fmt"
	"time"
)

// AttemptStatus tracks one destruction attempt through its lifecycle.
type AttemptStatus string

const (
	StatusPending   AttemptStatus = "pending"
	StatusSucceeded AttemptStatus = "succeeded"
	StatusFailed    AttemptStatus = "failed"
	StatusSkipped   AttemptStatus = "skipped"
	StatusTimedOut  AttemptStatus = "timed_out"
)

// Terminal reports whether the status is final for this run.
// Pending attempts are resumed by a future run.
func (s AttemptStatus) Terminal() bool {
	switch s {
	case StatusSucceeded, StatusFailed, StatusSkipped, StatusTimedOut:
		return true
	}
	return false
}

// Resumable reports whether a re-run should attempt the resource again.
// Succeeded and Skipped entries are settled; Failed and TimedOut re-execute.
func (s AttemptStatus) Resumable() bool {
	return s != StatusSucceeded && s != StatusSkipped
}

// Attempt is one record of trying to delete one resource in one phase.
// Mutated only by the destroyer unit that owns it, immutable once terminal.
type Attempt struct {
	Resource      ResourceRecord `json:"resource"`
	Phase         int            `json:"phase"`
	Status        AttemptStatus  `json:"status"`
	Reason        string         `json:"reason,omitempty"`
	Error         string         `json:"error,omitempty"`
	StartedAt     time.Time      `json:"started_at"`
	EndedAt       time.Time      `json:"ended_at,omitempty"`
	AttemptNumber int            `json:"attempt_number"`
	Simulated     bool           `json:"simulated,omitempty"`
}

// Key identifies the attempt within the run journal.
func (a Attempt) Key() string {
	return AttemptKey(a.Resource, a.Phase)
}

// AttemptKey builds the journal key for a resource in a phase.
func AttemptKey(r ResourceRecord, phase int) string {
	return fmt.Sprintf("%s/%s/%s/%d", r.Type, r.Region, r.ID, phase)
}
