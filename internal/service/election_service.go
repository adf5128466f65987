package service

import (
	"context"
	stderrors "errors"
	"sort"
	"strings"
	"time"

	"campus-api/internal/domain"
	"campus-api/internal/policy"
	"campus-api/internal/repository"
	"campus-api/internal/store"
	"campus-api/pkg/errors"
	"campus-api/pkg/logger"
)

// ElectionService is the election workflow: the candidacy pipeline, the
// vote-casting protocol and the tally. Election status is recomputed
// from the clock on every read; nothing here schedules background
// transitions.
type ElectionService struct {
	elections  repository.ElectionRepository
	candidates repository.CandidateRepository
	votes      repository.VoteRepository
	cache      *CacheService
	notifier   *Notifier
	log        *logger.Logger
	now        func() time.Time
}

// NewElectionService creates the election workflow service
func NewElectionService(repos *repository.Repositories, cache *CacheService, notifier *Notifier, log *logger.Logger) *ElectionService {
	return &ElectionService{
		elections:  repos.Election,
		candidates: repos.Candidate,
		votes:      repos.Vote,
		cache:      cache,
		notifier:   notifier,
		log:        log,
		now:        time.Now,
	}
}

// CreateElection creates an election. Admin only.
func (s *ElectionService) CreateElection(ctx context.Context, actor *domain.User, req *domain.CreateElectionRequest) (*domain.ElectionView, error) {
	if !policy.CanPerform(actor.Role, policy.ActionCreate, policy.ResourceElection) {
		return nil, errors.NewForbiddenError("role may not create elections")
	}
	if strings.TrimSpace(req.Title) == "" {
		return nil, errors.NewValidationError("title is required", nil)
	}
	if !req.StartDate.Before(req.EndDate) {
		return nil, errors.NewValidationError("start date must precede end date", nil)
	}
	if err := validatePositions(req.Positions); err != nil {
		return nil, err
	}

	election := &domain.Election{
		Title:       req.Title,
		Description: req.Description,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Positions:   req.Positions,
		CreatedBy:   actor.ID,
	}
	if err := s.elections.Create(ctx, election); err != nil {
		return nil, storeFailure("failed to create election", err)
	}

	s.log.WithFields(map[string]interface{}{
		"election_id": election.ID,
		"title":       election.Title,
	}).Info("election created")
	s.notifier.Notify(NotifySuccess, actor.ID, "Election created")

	return domain.NewElectionView(election, s.now()), nil
}

// UpdateElection edits election fields. Admin only.
func (s *ElectionService) UpdateElection(ctx context.Context, actor *domain.User, electionID string, req *domain.UpdateElectionRequest) (*domain.ElectionView, error) {
	if !policy.CanPerform(actor.Role, policy.ActionUpdate, policy.ResourceElection) {
		return nil, errors.NewForbiddenError("role may not update elections")
	}

	election, err := s.getElection(ctx, electionID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		election.Title = *req.Title
	}
	if req.Description != nil {
		election.Description = *req.Description
	}
	if req.StartDate != nil {
		election.StartDate = *req.StartDate
	}
	if req.EndDate != nil {
		election.EndDate = *req.EndDate
	}
	if req.Positions != nil {
		if err := validatePositions(req.Positions); err != nil {
			return nil, err
		}
		election.Positions = req.Positions
	}
	if !election.StartDate.Before(election.EndDate) {
		return nil, errors.NewValidationError("start date must precede end date", nil)
	}

	if err := s.elections.Update(ctx, election); err != nil {
		return nil, storeFailure("failed to update election", err)
	}
	s.cache.InvalidateElection(electionID)

	return domain.NewElectionView(election, s.now()), nil
}

// CancelElection force-sets the sticky cancelled override. Admin only.
// Cancelling an already-cancelled election rewrites the same state.
func (s *ElectionService) CancelElection(ctx context.Context, actor *domain.User, electionID string) (*domain.ElectionView, error) {
	if !policy.CanPerform(actor.Role, policy.ActionCancel, policy.ResourceElection) {
		return nil, errors.NewForbiddenError("role may not cancel elections")
	}

	election, err := s.getElection(ctx, electionID)
	if err != nil {
		return nil, err
	}

	election.Cancelled = true
	if err := s.elections.Update(ctx, election); err != nil {
		return nil, storeFailure("failed to cancel election", err)
	}
	s.cache.InvalidateElection(electionID)
	s.notifier.Notify(NotifySuccess, actor.ID, "Election cancelled")

	return domain.NewElectionView(election, s.now()), nil
}

// DeleteElection removes an election and cascade-invalidates its
// candidates and votes. The election document goes first so the vote
// path sees NotFound before the cascade finishes.
func (s *ElectionService) DeleteElection(ctx context.Context, actor *domain.User, electionID string) error {
	if !policy.CanPerform(actor.Role, policy.ActionDelete, policy.ResourceElection) {
		return errors.NewForbiddenError("role may not delete elections")
	}

	if _, err := s.getElection(ctx, electionID); err != nil {
		return err
	}

	if err := s.elections.Delete(ctx, electionID); err != nil {
		return storeFailure("failed to delete election", err)
	}
	if err := s.candidates.DeleteByElection(ctx, electionID); err != nil {
		s.log.WithError(err).WithField("election_id", electionID).Error("candidate cascade delete failed")
	}
	if err := s.votes.DeleteByElection(ctx, electionID); err != nil {
		s.log.WithError(err).WithField("election_id", electionID).Error("vote cascade delete failed")
	}
	s.cache.InvalidateElection(electionID)

	return nil
}

// GetElection returns the election with its status resolved at now
func (s *ElectionService) GetElection(ctx context.Context, electionID string) (*domain.ElectionView, error) {
	election, err := s.getElection(ctx, electionID)
	if err != nil {
		return nil, err
	}
	return domain.NewElectionView(election, s.now()), nil
}

// ListElections returns all elections with resolved statuses
func (s *ElectionService) ListElections(ctx context.Context) ([]*domain.ElectionView, error) {
	elections, err := s.elections.List(ctx)
	if err != nil {
		return nil, storeFailure("failed to list elections", err)
	}
	now := s.now()
	views := make([]*domain.ElectionView, 0, len(elections))
	for _, e := range elections {
		views = append(views, domain.NewElectionView(e, now))
	}
	sort.Slice(views, func(i, j int) bool {
		return views[i].StartDate.Before(views[j].StartDate)
	})
	return views, nil
}

// SubmitCandidacy files a candidacy application. Students and faculty
// apply with status pending; an admin submission is approved directly.
func (s *ElectionService) SubmitCandidacy(ctx context.Context, actor *domain.User, electionID string, req *domain.SubmitCandidacyRequest) (*domain.Candidate, error) {
	if !policy.CanPerform(actor.Role, policy.ActionCreate, policy.ResourceCandidate) {
		return nil, errors.NewForbiddenError("role may not submit candidacies")
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, errors.NewValidationError("candidate name is required", nil)
	}

	election, err := s.getElection(ctx, electionID)
	if err != nil {
		return nil, err
	}
	if !election.AcceptsCandidates(s.now()) {
		return nil, errors.NewInvalidStateError("election no longer accepts candidacies")
	}
	if len(election.Positions) > 0 && !election.HasPosition(req.Position) {
		return nil, errors.NewValidationError("unknown position for this election",
			map[string]interface{}{"position": req.Position})
	}

	status := domain.CandidatePending
	if actor.Role == domain.RoleAdmin {
		status = domain.CandidateApproved
	}

	candidate := &domain.Candidate{
		ElectionID: electionID,
		Name:       req.Name,
		Position:   req.Position,
		Department: req.Department,
		ImageRef:   req.ImageRef,
		Status:     status,
		AppliedBy:  actor.ID,
	}
	if err := s.candidates.Create(ctx, candidate); err != nil {
		return nil, storeFailure("failed to create candidate", err)
	}
	s.cache.InvalidateElection(electionID)
	s.notifier.Notify(NotifySuccess, actor.ID, "Candidacy submitted")

	return candidate, nil
}

// ReviewCandidate transitions a candidacy to approved or rejected.
// Re-reviewing with the same decision rewrites the same status and is
// not an error. Candidates are immutable once the election completed.
func (s *ElectionService) ReviewCandidate(ctx context.Context, actor *domain.User, candidateID string, decision domain.ReviewDecision) (*domain.Candidate, error) {
	var action policy.Action
	switch decision {
	case domain.DecisionApprove:
		action = policy.ActionApprove
	case domain.DecisionReject:
		action = policy.ActionReject
	default:
		return nil, errors.NewValidationError("unknown review decision",
			map[string]interface{}{"decision": decision})
	}
	if !policy.CanPerform(actor.Role, action, policy.ResourceCandidate) {
		return nil, errors.NewForbiddenError("role may not review candidates")
	}

	candidate, err := s.candidates.GetByID(ctx, candidateID)
	if err != nil {
		if stderrors.Is(err, store.ErrNotFound) {
			return nil, errors.NewNotFoundError("candidate not found")
		}
		return nil, storeFailure("failed to load candidate", err)
	}

	election, err := s.getElection(ctx, candidate.ElectionID)
	if err != nil {
		return nil, err
	}
	if election.StatusAt(s.now()) == domain.ElectionCompleted {
		return nil, errors.NewInvalidStateError("election is completed; candidates are immutable")
	}

	if decision == domain.DecisionApprove {
		candidate.Status = domain.CandidateApproved
	} else {
		candidate.Status = domain.CandidateRejected
	}
	if err := s.candidates.Update(ctx, candidate); err != nil {
		return nil, storeFailure("failed to update candidate", err)
	}
	s.cache.InvalidateElection(candidate.ElectionID)

	return candidate, nil
}

// ListCandidates returns all candidates of an election
func (s *ElectionService) ListCandidates(ctx context.Context, electionID string) ([]*domain.Candidate, error) {
	if _, err := s.getElection(ctx, electionID); err != nil {
		return nil, err
	}
	candidates, err := s.candidates.ListByElection(ctx, electionID)
	if err != nil {
		return nil, storeFailure("failed to list candidates", err)
	}
	return candidates, nil
}

// ListPendingCandidates returns candidacies awaiting review
func (s *ElectionService) ListPendingCandidates(ctx context.Context) ([]*domain.Candidate, error) {
	candidates, err := s.candidates.ListByStatus(ctx, domain.CandidatePending)
	if err != nil {
		return nil, storeFailure("failed to list pending candidates", err)
	}
	return candidates, nil
}

// CastVote is the critical path. The duplicate check is the store's
// natural-key unique insert, not a read: two concurrent casts for the
// same (election, voter) race at the store boundary and exactly one
// wins.
func (s *ElectionService) CastVote(ctx context.Context, voter *domain.User, electionID, candidateID string) (*domain.Vote, error) {
	if !policy.CanPerform(voter.Role, policy.ActionCast, policy.ResourceVote) {
		return nil, errors.NewForbiddenError("role may not vote")
	}

	election, err := s.getElection(ctx, electionID)
	if err != nil {
		return nil, err
	}
	if status := election.StatusAt(s.now()); status != domain.ElectionActive {
		return nil, errors.NewNotActiveError("election is " + string(status))
	}

	candidate, err := s.candidates.GetByID(ctx, candidateID)
	if err != nil && !stderrors.Is(err, store.ErrNotFound) {
		return nil, storeFailure("failed to load candidate", err)
	}
	if candidate == nil || candidate.ElectionID != electionID || candidate.Status != domain.CandidateApproved {
		return nil, errors.NewNotEligibleError("candidate is not eligible for this election")
	}

	vote := &domain.Vote{
		ElectionID:  electionID,
		CandidateID: candidateID,
		VoterID:     voter.ID,
		CastAt:      s.now(),
	}
	if err := s.votes.Create(ctx, vote); err != nil {
		if stderrors.Is(err, store.ErrDuplicateKey) {
			// The store rejected the second write for this natural
			// key; the underlying error stays in the logs only.
			s.log.WithFields(map[string]interface{}{
				"election_id": electionID,
			}).Info("duplicate vote rejected by store")
			return nil, errors.NewAlreadyVotedError("a vote has already been cast in this election")
		}
		return nil, storeFailure("failed to save vote", err)
	}

	s.cache.SetVoterBallot(ctx, electionID, voter.ID, candidateID)
	s.cache.InvalidateElection(electionID)
	s.notifier.Notify(NotifySuccess, voter.ID, "Vote recorded")

	return vote, nil
}

// Tally aggregates votes per approved candidate. Rows are ordered by
// descending count, ties broken by candidate id ascending; tied
// candidates simply share a count and no tie is resolved.
func (s *ElectionService) Tally(ctx context.Context, electionID string) (*domain.TallyResult, error) {
	if cached := s.cache.GetTally(ctx, electionID); cached != nil {
		return cached, nil
	}

	if _, err := s.getElection(ctx, electionID); err != nil {
		return nil, err
	}

	candidates, err := s.candidates.ListByElection(ctx, electionID)
	if err != nil {
		return nil, storeFailure("failed to list candidates", err)
	}
	votes, err := s.votes.ListByElection(ctx, electionID)
	if err != nil {
		return nil, storeFailure("failed to list votes", err)
	}

	counts := make(map[string]int, len(candidates))
	for _, vote := range votes {
		counts[vote.CandidateID]++
	}

	rows := make([]domain.CandidateTally, 0, len(candidates))
	for _, candidate := range candidates {
		if candidate.Status != domain.CandidateApproved {
			continue
		}
		rows = append(rows, domain.CandidateTally{
			CandidateID: candidate.ID,
			Name:        candidate.Name,
			Position:    candidate.Position,
			VoteCount:   counts[candidate.ID],
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].VoteCount != rows[j].VoteCount {
			return rows[i].VoteCount > rows[j].VoteCount
		}
		return rows[i].CandidateID < rows[j].CandidateID
	})

	tally := &domain.TallyResult{
		ElectionID:   electionID,
		TotalVotes:   len(votes),
		PerCandidate: rows,
		ComputedAt:   s.now(),
	}
	s.cache.SetTally(ctx, tally)

	return tally, nil
}

// HasVoted returns the candidate id the voter chose in the election,
// or empty if they have not voted. Used by clients to disable the
// ballot after a vote.
func (s *ElectionService) HasVoted(ctx context.Context, electionID, voterID string) (string, error) {
	if cached := s.cache.GetVoterBallot(ctx, electionID, voterID); cached != "" {
		return cached, nil
	}

	vote, err := s.votes.GetByElectionAndVoter(ctx, electionID, voterID)
	if err != nil {
		if stderrors.Is(err, store.ErrNotFound) {
			return "", nil
		}
		return "", storeFailure("failed to look up vote", err)
	}

	s.cache.SetVoterBallot(ctx, electionID, voterID, vote.CandidateID)
	return vote.CandidateID, nil
}

// VerifyVote returns the immutable vote record for auditing
func (s *ElectionService) VerifyVote(ctx context.Context, voteID string) (*domain.Vote, error) {
	vote, err := s.votes.GetByID(ctx, voteID)
	if err != nil {
		if stderrors.Is(err, store.ErrNotFound) {
			return nil, errors.NewNotFoundError("vote not found")
		}
		return nil, storeFailure("failed to load vote", err)
	}
	return vote, nil
}

func (s *ElectionService) getElection(ctx context.Context, electionID string) (*domain.Election, error) {
	election, err := s.elections.GetByID(ctx, electionID)
	if err != nil {
		if stderrors.Is(err, store.ErrNotFound) {
			return nil, errors.NewNotFoundError("election not found")
		}
		return nil, storeFailure("failed to load election", err)
	}
	return election, nil
}

func validatePositions(positions []string) error {
	seen := make(map[string]bool, len(positions))
	for _, p := range positions {
		if strings.TrimSpace(p) == "" {
			return errors.NewValidationError("positions must not be blank", nil)
		}
		if seen[p] {
			return errors.NewValidationError("positions must be unique",
				map[string]interface{}{"position": p})
		}
		seen[p] = true
	}
	return nil
}

// storeFailure maps a repository failure to the public error taxonomy,
// keeping the raw store error out of client responses
func storeFailure(message string, err error) *errors.AppError {
	if stderrors.Is(err, store.ErrUnavailable) {
		return errors.NewStoreError(message, err)
	}
	return errors.NewInternalError(message, err)
}
