package domain

import (
	"time"
)

// ElectionStatus is the observable lifecycle state of an election.
// It is always derived from the schedule at read time; only the
// cancelled override is stored truth.
type ElectionStatus string

const (
	ElectionUpcoming  ElectionStatus = "upcoming"
	ElectionActive    ElectionStatus = "active"
	ElectionCompleted ElectionStatus = "completed"
	ElectionCancelled ElectionStatus = "cancelled"
)

// Election represents a campus election
type Election struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	Positions   []string  `json:"positions"`
	Cancelled   bool      `json:"cancelled"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// StatusAt resolves the election status from the schedule at the given
// instant. Cancellation is sticky and overrides the time-derived value.
// The status is never persisted.
func (e *Election) StatusAt(now time.Time) ElectionStatus {
	if e.Cancelled {
		return ElectionCancelled
	}
	if now.Before(e.StartDate) {
		return ElectionUpcoming
	}
	if now.Before(e.EndDate) {
		return ElectionActive
	}
	return ElectionCompleted
}

// AcceptsCandidates reports whether candidacy submissions are still open.
// Submissions are allowed any time before completion.
func (e *Election) AcceptsCandidates(now time.Time) bool {
	switch e.StatusAt(now) {
	case ElectionUpcoming, ElectionActive:
		return true
	}
	return false
}

// HasPosition reports whether the named position exists on the ballot
func (e *Election) HasPosition(position string) bool {
	for _, p := range e.Positions {
		if p == position {
			return true
		}
	}
	return false
}

// ElectionView is an election with its status resolved for clients
type ElectionView struct {
	Election
	Status ElectionStatus `json:"status"`
}

// NewElectionView resolves the status of e at now
func NewElectionView(e *Election, now time.Time) *ElectionView {
	return &ElectionView{Election: *e, Status: e.StatusAt(now)}
}

// CreateElectionRequest is the admin payload for creating an election
type CreateElectionRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	Positions   []string  `json:"positions"`
}

// UpdateElectionRequest carries the editable election fields. Nil fields
// are left unchanged.
type UpdateElectionRequest struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	StartDate   *time.Time `json:"start_date,omitempty"`
	EndDate     *time.Time `json:"end_date,omitempty"`
	Positions   []string   `json:"positions,omitempty"`
}
