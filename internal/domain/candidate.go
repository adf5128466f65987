package domain

import "time"

// CandidateStatus is the review state of a candidacy application
type CandidateStatus string

const (
	CandidatePending  CandidateStatus = "pending"
	CandidateApproved CandidateStatus = "approved"
	CandidateRejected CandidateStatus = "rejected"
)

// ReviewDecision is a reviewer's verdict on a pending candidacy
type ReviewDecision string

const (
	DecisionApprove ReviewDecision = "approve"
	DecisionReject  ReviewDecision = "reject"
)

// Candidate represents a candidacy application within an election
type Candidate struct {
	ID         string          `json:"id"`
	ElectionID string          `json:"election_id"`
	Name       string          `json:"name"`
	Position   string          `json:"position"`
	Department string          `json:"department"`
	ImageRef   string          `json:"image_ref,omitempty"`
	Status     CandidateStatus `json:"status"`
	AppliedBy  string          `json:"applied_by"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// Eligible reports whether the candidate may receive votes given the
// owning election's resolved status. Both conditions are required: an
// approved candidate in a non-active election is not eligible, nor is a
// pending candidate in an active one.
func (c *Candidate) Eligible(electionStatus ElectionStatus) bool {
	return c.Status == CandidateApproved && electionStatus == ElectionActive
}

// SubmitCandidacyRequest is the applicant payload
type SubmitCandidacyRequest struct {
	Name       string `json:"name"`
	Position   string `json:"position"`
	Department string `json:"department"`
	ImageRef   string `json:"image_ref,omitempty"`
}
