package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"campus-api/internal/domain"
	"campus-api/internal/repository"
	"campus-api/internal/store"
	"campus-api/pkg/errors"
	"campus-api/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var (
	testAdmin   = &domain.User{ID: "admin-1", Email: "admin@campus.edu", Role: domain.RoleAdmin}
	testFaculty = &domain.User{ID: "faculty-1", Email: "faculty@campus.edu", Role: domain.RoleFaculty}
	testStudent = &domain.User{ID: "student-1", Email: "student@campus.edu", Role: domain.RoleStudent}
)

func newTestLogger() *logger.Logger {
	return &logger.Logger{Logger: zap.NewNop()}
}

// electionFixture wires the election workflow over the in-memory store
// with a frozen clock
type electionFixture struct {
	svc *ElectionService
	now time.Time
}

func newElectionFixture(t *testing.T) *electionFixture {
	t.Helper()

	log := newTestLogger()
	repos := repository.New(store.NewMemoryStore())
	cache := NewCacheService(nil, log)
	notifier := NewNotifier(nil, log)

	svc := NewElectionService(repos, cache, notifier, log)
	now := time.Date(2026, 3, 5, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	return &electionFixture{svc: svc, now: now}
}

// createElection makes an election whose window is placed relative to
// the fixture clock
func (f *electionFixture) createElection(t *testing.T, startOffset, endOffset time.Duration) *domain.ElectionView {
	t.Helper()

	view, err := f.svc.CreateElection(context.Background(), testAdmin, &domain.CreateElectionRequest{
		Title:     "Student Council",
		StartDate: f.now.Add(startOffset),
		EndDate:   f.now.Add(endOffset),
		Positions: []string{"President", "Secretary"},
	})
	require.NoError(t, err)
	return view
}

// activeElection returns an election that is currently accepting votes
func (f *electionFixture) activeElection(t *testing.T) *domain.ElectionView {
	return f.createElection(t, -time.Hour, 24*time.Hour)
}

// approvedCandidate submits and approves a candidate in the election
func (f *electionFixture) approvedCandidate(t *testing.T, electionID, name string) *domain.Candidate {
	t.Helper()

	candidate, err := f.svc.SubmitCandidacy(context.Background(), testStudent, electionID,
		&domain.SubmitCandidacyRequest{Name: name, Position: "President"})
	require.NoError(t, err)

	approved, err := f.svc.ReviewCandidate(context.Background(), testFaculty, candidate.ID, domain.DecisionApprove)
	require.NoError(t, err)
	return approved
}

func TestCreateElection(t *testing.T) {
	f := newElectionFixture(t)
	ctx := context.Background()

	t.Run("Admin creates election", func(t *testing.T) {
		view := f.createElection(t, time.Hour, 48*time.Hour)
		assert.NotEmpty(t, view.ID)
		assert.Equal(t, domain.ElectionUpcoming, view.Status)
		assert.Equal(t, testAdmin.ID, view.CreatedBy)
	})

	t.Run("Student is denied", func(t *testing.T) {
		_, err := f.svc.CreateElection(ctx, testStudent, &domain.CreateElectionRequest{
			Title:     "X",
			StartDate: f.now,
			EndDate:   f.now.Add(time.Hour),
		})
		assert.True(t, errors.IsType(err, errors.ErrorTypeForbidden))
	})

	t.Run("Blank title is rejected", func(t *testing.T) {
		_, err := f.svc.CreateElection(ctx, testAdmin, &domain.CreateElectionRequest{
			Title:     "  ",
			StartDate: f.now,
			EndDate:   f.now.Add(time.Hour),
		})
		assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
	})

	t.Run("Start must precede end", func(t *testing.T) {
		_, err := f.svc.CreateElection(ctx, testAdmin, &domain.CreateElectionRequest{
			Title:     "X",
			StartDate: f.now.Add(time.Hour),
			EndDate:   f.now.Add(time.Hour),
		})
		assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
	})

	t.Run("Duplicate positions are rejected", func(t *testing.T) {
		_, err := f.svc.CreateElection(ctx, testAdmin, &domain.CreateElectionRequest{
			Title:     "X",
			StartDate: f.now,
			EndDate:   f.now.Add(time.Hour),
			Positions: []string{"President", "President"},
		})
		assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
	})
}

func TestUpdateElection(t *testing.T) {
	f := newElectionFixture(t)
	ctx := context.Background()

	election := f.createElection(t, time.Hour, 48*time.Hour)

	newTitle := "Revised Council Election"
	updated, err := f.svc.UpdateElection(ctx, testAdmin, election.ID, &domain.UpdateElectionRequest{
		Title: &newTitle,
	})
	require.NoError(t, err)
	assert.Equal(t, newTitle, updated.Title)
	assert.Equal(t, election.Description, updated.Description, "unset fields are left unchanged")

	// A partial update may not invert the schedule
	badEnd := election.StartDate.Add(-time.Hour)
	_, err = f.svc.UpdateElection(ctx, testAdmin, election.ID, &domain.UpdateElectionRequest{
		EndDate: &badEnd,
	})
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))

	_, err = f.svc.UpdateElection(ctx, testFaculty, election.ID, &domain.UpdateElectionRequest{Title: &newTitle})
	assert.True(t, errors.IsType(err, errors.ErrorTypeForbidden))
}

func TestCancelElection(t *testing.T) {
	f := newElectionFixture(t)
	ctx := context.Background()

	election := f.activeElection(t)

	cancelled, err := f.svc.CancelElection(ctx, testAdmin, election.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ElectionCancelled, cancelled.Status)

	// Cancelling again rewrites the same state
	again, err := f.svc.CancelElection(ctx, testAdmin, election.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ElectionCancelled, again.Status)

	_, err = f.svc.CancelElection(ctx, testFaculty, election.ID)
	assert.True(t, errors.IsType(err, errors.ErrorTypeForbidden))
}

func TestDeleteElection(t *testing.T) {
	f := newElectionFixture(t)
	ctx := context.Background()

	election := f.activeElection(t)
	candidate := f.approvedCandidate(t, election.ID, "Alice")
	_, err := f.svc.CastVote(ctx, testStudent, election.ID, candidate.ID)
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteElection(ctx, testAdmin, election.ID))

	_, err = f.svc.GetElection(ctx, election.ID)
	assert.True(t, errors.IsType(err, errors.ErrorTypeNotFound))

	// Cascade removed the ballot record
	choice, err := f.svc.HasVoted(ctx, election.ID, testStudent.ID)
	require.NoError(t, err)
	assert.Empty(t, choice)

	assert.True(t, errors.IsType(
		f.svc.DeleteElection(ctx, testAdmin, election.ID), errors.ErrorTypeNotFound))
}

func TestListElections(t *testing.T) {
	f := newElectionFixture(t)
	ctx := context.Background()

	later := f.createElection(t, 48*time.Hour, 72*time.Hour)
	earlier := f.createElection(t, -time.Hour, 24*time.Hour)

	views, err := f.svc.ListElections(ctx)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, earlier.ID, views[0].ID, "sorted by start date")
	assert.Equal(t, later.ID, views[1].ID)
	assert.Equal(t, domain.ElectionActive, views[0].Status)
	assert.Equal(t, domain.ElectionUpcoming, views[1].Status)
}

func TestSubmitCandidacy(t *testing.T) {
	f := newElectionFixture(t)
	ctx := context.Background()

	election := f.activeElection(t)

	t.Run("Student submission is pending", func(t *testing.T) {
		candidate, err := f.svc.SubmitCandidacy(ctx, testStudent, election.ID,
			&domain.SubmitCandidacyRequest{Name: "Alice", Position: "President"})
		require.NoError(t, err)
		assert.Equal(t, domain.CandidatePending, candidate.Status)
		assert.Equal(t, testStudent.ID, candidate.AppliedBy)
	})

	t.Run("Admin submission is approved directly", func(t *testing.T) {
		candidate, err := f.svc.SubmitCandidacy(ctx, testAdmin, election.ID,
			&domain.SubmitCandidacyRequest{Name: "Bob", Position: "Secretary"})
		require.NoError(t, err)
		assert.Equal(t, domain.CandidateApproved, candidate.Status)
	})

	t.Run("Unknown position is rejected", func(t *testing.T) {
		_, err := f.svc.SubmitCandidacy(ctx, testStudent, election.ID,
			&domain.SubmitCandidacyRequest{Name: "Carol", Position: "Treasurer"})
		assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
	})

	t.Run("Completed election rejects submissions", func(t *testing.T) {
		done := f.createElection(t, -48*time.Hour, -24*time.Hour)
		_, err := f.svc.SubmitCandidacy(ctx, testStudent, done.ID,
			&domain.SubmitCandidacyRequest{Name: "Dave", Position: "President"})
		assert.True(t, errors.IsType(err, errors.ErrorTypeInvalidState))
	})

	t.Run("Unknown election", func(t *testing.T) {
		_, err := f.svc.SubmitCandidacy(ctx, testStudent, "missing",
			&domain.SubmitCandidacyRequest{Name: "Eve", Position: "President"})
		assert.True(t, errors.IsType(err, errors.ErrorTypeNotFound))
	})
}

func TestReviewCandidate(t *testing.T) {
	f := newElectionFixture(t)
	ctx := context.Background()

	election := f.activeElection(t)
	candidate, err := f.svc.SubmitCandidacy(ctx, testStudent, election.ID,
		&domain.SubmitCandidacyRequest{Name: "Alice", Position: "President"})
	require.NoError(t, err)

	t.Run("Student may not review", func(t *testing.T) {
		_, err := f.svc.ReviewCandidate(ctx, testStudent, candidate.ID, domain.DecisionApprove)
		assert.True(t, errors.IsType(err, errors.ErrorTypeForbidden))
	})

	t.Run("Faculty approves", func(t *testing.T) {
		approved, err := f.svc.ReviewCandidate(ctx, testFaculty, candidate.ID, domain.DecisionApprove)
		require.NoError(t, err)
		assert.Equal(t, domain.CandidateApproved, approved.Status)
	})

	t.Run("Re-approving is idempotent", func(t *testing.T) {
		approved, err := f.svc.ReviewCandidate(ctx, testFaculty, candidate.ID, domain.DecisionApprove)
		require.NoError(t, err)
		assert.Equal(t, domain.CandidateApproved, approved.Status)
	})

	t.Run("Unknown decision is rejected", func(t *testing.T) {
		_, err := f.svc.ReviewCandidate(ctx, testFaculty, candidate.ID, domain.ReviewDecision("maybe"))
		assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
	})

	t.Run("Completed election freezes candidates", func(t *testing.T) {
		done := f.createElection(t, -48*time.Hour, -24*time.Hour)

		// File the candidacy while the election is still open, then
		// advance the clock past its end.
		f.svc.now = func() time.Time { return f.now.Add(-36 * time.Hour) }
		frozen, err := f.svc.SubmitCandidacy(ctx, testStudent, done.ID,
			&domain.SubmitCandidacyRequest{Name: "Frank", Position: "President"})
		require.NoError(t, err)
		f.svc.now = func() time.Time { return f.now }

		_, err = f.svc.ReviewCandidate(ctx, testFaculty, frozen.ID, domain.DecisionApprove)
		assert.True(t, errors.IsType(err, errors.ErrorTypeInvalidState))
	})
}

func TestCastVote(t *testing.T) {
	f := newElectionFixture(t)
	ctx := context.Background()

	election := f.activeElection(t)
	candidate := f.approvedCandidate(t, election.ID, "Alice")

	t.Run("Happy path", func(t *testing.T) {
		vote, err := f.svc.CastVote(ctx, testStudent, election.ID, candidate.ID)
		require.NoError(t, err)
		assert.NotEmpty(t, vote.ID)
		assert.Equal(t, candidate.ID, vote.CandidateID)
		assert.Equal(t, testStudent.ID, vote.VoterID)
		assert.Equal(t, f.now, vote.CastAt)
	})

	t.Run("Second vote in the same election is rejected", func(t *testing.T) {
		_, err := f.svc.CastVote(ctx, testStudent, election.ID, candidate.ID)
		assert.True(t, errors.IsType(err, errors.ErrorTypeAlreadyVoted))
	})

	t.Run("Other voters are unaffected", func(t *testing.T) {
		_, err := f.svc.CastVote(ctx, testFaculty, election.ID, candidate.ID)
		assert.NoError(t, err)
	})

	t.Run("Same voter in another election may vote", func(t *testing.T) {
		other := f.activeElection(t)
		otherCandidate := f.approvedCandidate(t, other.ID, "Grace")
		_, err := f.svc.CastVote(ctx, testStudent, other.ID, otherCandidate.ID)
		assert.NoError(t, err)
	})
}

func TestCastVote_ElectionNotActive(t *testing.T) {
	f := newElectionFixture(t)
	ctx := context.Background()

	t.Run("Upcoming election", func(t *testing.T) {
		election := f.createElection(t, time.Hour, 48*time.Hour)
		_, err := f.svc.CastVote(ctx, testStudent, election.ID, "any")
		assert.True(t, errors.IsType(err, errors.ErrorTypeNotActive))
	})

	t.Run("Completed election", func(t *testing.T) {
		election := f.createElection(t, -48*time.Hour, -24*time.Hour)
		_, err := f.svc.CastVote(ctx, testStudent, election.ID, "any")
		assert.True(t, errors.IsType(err, errors.ErrorTypeNotActive))
	})

	t.Run("Cancelled election", func(t *testing.T) {
		election := f.activeElection(t)
		_, err := f.svc.CancelElection(ctx, testAdmin, election.ID)
		require.NoError(t, err)

		_, err = f.svc.CastVote(ctx, testStudent, election.ID, "any")
		assert.True(t, errors.IsType(err, errors.ErrorTypeNotActive))
	})
}

func TestCastVote_CandidateNotEligible(t *testing.T) {
	f := newElectionFixture(t)
	ctx := context.Background()

	election := f.activeElection(t)

	t.Run("Pending candidate", func(t *testing.T) {
		pending, err := f.svc.SubmitCandidacy(ctx, testStudent, election.ID,
			&domain.SubmitCandidacyRequest{Name: "Alice", Position: "President"})
		require.NoError(t, err)

		_, err = f.svc.CastVote(ctx, testStudent, election.ID, pending.ID)
		assert.True(t, errors.IsType(err, errors.ErrorTypeNotEligible))
	})

	t.Run("Rejected candidate", func(t *testing.T) {
		candidate, err := f.svc.SubmitCandidacy(ctx, testStudent, election.ID,
			&domain.SubmitCandidacyRequest{Name: "Bob", Position: "President"})
		require.NoError(t, err)
		_, err = f.svc.ReviewCandidate(ctx, testFaculty, candidate.ID, domain.DecisionReject)
		require.NoError(t, err)

		_, err = f.svc.CastVote(ctx, testStudent, election.ID, candidate.ID)
		assert.True(t, errors.IsType(err, errors.ErrorTypeNotEligible))
	})

	t.Run("Candidate from another election", func(t *testing.T) {
		other := f.activeElection(t)
		foreign := f.approvedCandidate(t, other.ID, "Carol")

		_, err := f.svc.CastVote(ctx, testStudent, election.ID, foreign.ID)
		assert.True(t, errors.IsType(err, errors.ErrorTypeNotEligible))
	})

	t.Run("Unknown candidate", func(t *testing.T) {
		_, err := f.svc.CastVote(ctx, testStudent, election.ID, "missing")
		assert.True(t, errors.IsType(err, errors.ErrorTypeNotEligible))
	})
}

func TestCastVote_ConcurrentSameVoter(t *testing.T) {
	f := newElectionFixture(t)
	ctx := context.Background()

	election := f.activeElection(t)
	candidate := f.approvedCandidate(t, election.ID, "Alice")

	const attempts = 16
	var wg sync.WaitGroup
	results := make(chan error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.CastVote(ctx, testStudent, election.ID, candidate.ID)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var succeeded, rejected int
	for err := range results {
		switch {
		case err == nil:
			succeeded++
		case errors.IsType(err, errors.ErrorTypeAlreadyVoted):
			rejected++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded, "exactly one cast wins")
	assert.Equal(t, attempts-1, rejected)

	tally, err := f.svc.Tally(ctx, election.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, tally.TotalVotes)
}

func TestTally(t *testing.T) {
	f := newElectionFixture(t)
	ctx := context.Background()

	election := f.activeElection(t)
	a := f.approvedCandidate(t, election.ID, "Alice")
	b := f.approvedCandidate(t, election.ID, "Bob")
	c := f.approvedCandidate(t, election.ID, "Carol")
	zero := f.approvedCandidate(t, election.ID, "Dave")

	// A:2, B:1, C:3 across six distinct voters
	ballots := map[string]string{
		"v1": a.ID, "v2": a.ID,
		"v3": b.ID,
		"v4": c.ID, "v5": c.ID, "v6": c.ID,
	}
	for voterID, candidateID := range ballots {
		voter := &domain.User{ID: voterID, Role: domain.RoleStudent}
		_, err := f.svc.CastVote(ctx, voter, election.ID, candidateID)
		require.NoError(t, err)
	}

	tally, err := f.svc.Tally(ctx, election.ID)
	require.NoError(t, err)

	assert.Equal(t, election.ID, tally.ElectionID)
	assert.Equal(t, 6, tally.TotalVotes)
	require.Len(t, tally.PerCandidate, 4, "approved candidates with zero votes are listed")

	assert.Equal(t, c.ID, tally.PerCandidate[0].CandidateID)
	assert.Equal(t, 3, tally.PerCandidate[0].VoteCount)
	assert.Equal(t, a.ID, tally.PerCandidate[1].CandidateID)
	assert.Equal(t, 2, tally.PerCandidate[1].VoteCount)
	assert.Equal(t, b.ID, tally.PerCandidate[2].CandidateID)
	assert.Equal(t, 1, tally.PerCandidate[2].VoteCount)
	assert.Equal(t, zero.ID, tally.PerCandidate[3].CandidateID)
	assert.Equal(t, 0, tally.PerCandidate[3].VoteCount)
}

func TestTally_TiesShareACount(t *testing.T) {
	f := newElectionFixture(t)
	ctx := context.Background()

	election := f.activeElection(t)
	a := f.approvedCandidate(t, election.ID, "Alice")
	b := f.approvedCandidate(t, election.ID, "Bob")

	for i, candidateID := range []string{a.ID, b.ID} {
		voter := &domain.User{ID: fmt.Sprintf("v%d", i), Role: domain.RoleStudent}
		_, err := f.svc.CastVote(ctx, voter, election.ID, candidateID)
		require.NoError(t, err)
	}

	tally, err := f.svc.Tally(ctx, election.ID)
	require.NoError(t, err)
	require.Len(t, tally.PerCandidate, 2)

	assert.Equal(t, tally.PerCandidate[0].VoteCount, tally.PerCandidate[1].VoteCount)
	assert.Less(t, tally.PerCandidate[0].CandidateID, tally.PerCandidate[1].CandidateID,
		"ties are ordered by candidate id")
}

func TestTally_PendingCandidatesExcluded(t *testing.T) {
	f := newElectionFixture(t)
	ctx := context.Background()

	election := f.activeElection(t)
	f.approvedCandidate(t, election.ID, "Alice")
	_, err := f.svc.SubmitCandidacy(ctx, testStudent, election.ID,
		&domain.SubmitCandidacyRequest{Name: "Pending Bob", Position: "President"})
	require.NoError(t, err)

	tally, err := f.svc.Tally(ctx, election.ID)
	require.NoError(t, err)
	assert.Len(t, tally.PerCandidate, 1)
}

func TestHasVoted(t *testing.T) {
	f := newElectionFixture(t)
	ctx := context.Background()

	election := f.activeElection(t)
	candidate := f.approvedCandidate(t, election.ID, "Alice")

	choice, err := f.svc.HasVoted(ctx, election.ID, testStudent.ID)
	require.NoError(t, err)
	assert.Empty(t, choice)

	_, err = f.svc.CastVote(ctx, testStudent, election.ID, candidate.ID)
	require.NoError(t, err)

	choice, err = f.svc.HasVoted(ctx, election.ID, testStudent.ID)
	require.NoError(t, err)
	assert.Equal(t, candidate.ID, choice)
}

func TestVerifyVote(t *testing.T) {
	f := newElectionFixture(t)
	ctx := context.Background()

	election := f.activeElection(t)
	candidate := f.approvedCandidate(t, election.ID, "Alice")
	vote, err := f.svc.CastVote(ctx, testStudent, election.ID, candidate.ID)
	require.NoError(t, err)

	got, err := f.svc.VerifyVote(ctx, vote.ID)
	require.NoError(t, err)
	assert.Equal(t, vote.ID, got.ID)
	assert.Equal(t, vote.CandidateID, got.CandidateID)

	_, err = f.svc.VerifyVote(ctx, "missing")
	assert.True(t, errors.IsType(err, errors.ErrorTypeNotFound))
}

func TestListCandidates(t *testing.T) {
	f := newElectionFixture(t)
	ctx := context.Background()

	election := f.activeElection(t)
	f.approvedCandidate(t, election.ID, "Alice")
	_, err := f.svc.SubmitCandidacy(ctx, testStudent, election.ID,
		&domain.SubmitCandidacyRequest{Name: "Bob", Position: "Secretary"})
	require.NoError(t, err)

	candidates, err := f.svc.ListCandidates(ctx, election.ID)
	require.NoError(t, err)
	assert.Len(t, candidates, 2, "all statuses are listed")

	pending, err := f.svc.ListPendingCandidates(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}
