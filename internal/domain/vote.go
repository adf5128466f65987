package domain

import (
	"fmt"
	"time"
)

// Vote is an immutable ballot record. At most one vote may exist per
// (election, voter) pair; the store's natural-key uniqueness is the
// enforcement boundary, not an in-process check.
type Vote struct {
	ID          string    `json:"id"`
	ElectionID  string    `json:"election_id"`
	CandidateID string    `json:"candidate_id"`
	VoterID     string    `json:"voter_id"`
	CastAt      time.Time `json:"cast_at"`
}

// NaturalKey returns the uniqueness key enforcing one vote per voter
// per election.
func (v *Vote) NaturalKey() string {
	return VoteNaturalKey(v.ElectionID, v.VoterID)
}

// VoteNaturalKey builds the (electionId, voterId) composite key
func VoteNaturalKey(electionID, voterID string) string {
	return fmt.Sprintf("%s:%s", electionID, voterID)
}

// CastVoteRequest is the ballot submission payload
type CastVoteRequest struct {
	CandidateID string `json:"candidate_id"`
}

// CandidateTally is one row of an election tally
type CandidateTally struct {
	CandidateID string `json:"candidate_id"`
	Name        string `json:"name"`
	Position    string `json:"position"`
	VoteCount   int    `json:"vote_count"`
}

// TallyResult is the aggregated outcome of an election. Rows are sorted
// by descending vote count, ties broken by candidate id ascending, so
// output is deterministic; tied candidates share an effective rank.
type TallyResult struct {
	ElectionID   string           `json:"election_id"`
	TotalVotes   int              `json:"total_votes"`
	PerCandidate []CandidateTally `json:"per_candidate"`
	ComputedAt   time.Time        `json:"computed_at"`
}
