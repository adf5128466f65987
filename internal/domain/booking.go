package domain

import "time"

// BookingStatus is the approval lifecycle state of a booking request.
// approved, rejected and cancelled are terminal.
type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingApproved  BookingStatus = "approved"
	BookingRejected  BookingStatus = "rejected"
	BookingCancelled BookingStatus = "cancelled"
)

// Terminal reports whether no transition leaves the status
func (s BookingStatus) Terminal() bool {
	switch s {
	case BookingApproved, BookingRejected, BookingCancelled:
		return true
	}
	return false
}

// Window is a half-open [Start, End) time interval
type Window struct {
	Start time.Time `json:"start_time"`
	End   time.Time `json:"end_time"`
}

// Valid reports whether the window is well-formed and not in the past
func (w Window) Valid(now time.Time) bool {
	return w.Start.Before(w.End) && !w.End.Before(now)
}

// Overlaps reports whether two half-open windows intersect. Touching
// windows ([10,11) and [11,12)) do not overlap.
func (w Window) Overlaps(other Window) bool {
	return w.Start.Before(other.End) && other.Start.Before(w.End)
}

// BookingRequest represents a facility booking request
type BookingRequest struct {
	ID            string        `json:"id"`
	FacilityID    string        `json:"facility_id"`
	RequesterID   string        `json:"requester_id"`
	StartTime     time.Time     `json:"start_time"`
	EndTime       time.Time     `json:"end_time"`
	Purpose       string        `json:"purpose"`
	Status        BookingStatus `json:"status"`
	DecisionNotes string        `json:"decision_notes,omitempty"`
	DecidedBy     string        `json:"decided_by,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// Window returns the request's [start, end) interval
func (b *BookingRequest) Window() Window {
	return Window{Start: b.StartTime, End: b.EndTime}
}

// CreateBookingRequest is the submission payload
type CreateBookingRequest struct {
	FacilityID string    `json:"facility_id"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
	Purpose    string    `json:"purpose"`
}

// BookingDecisionRequest carries approver notes or a rejection reason
type BookingDecisionRequest struct {
	Notes string `json:"notes,omitempty"`
}
