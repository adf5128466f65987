package repository

import (
	"context"

	"campus-api/internal/domain"
	"campus-api/internal/store"
)

// ElectionRepository defines the interface for election data operations
type ElectionRepository interface {
	Create(ctx context.Context, election *domain.Election) error
	GetByID(ctx context.Context, id string) (*domain.Election, error)
	List(ctx context.Context) ([]*domain.Election, error)
	Update(ctx context.Context, election *domain.Election) error
	Delete(ctx context.Context, id string) error
}

// CandidateRepository defines the interface for candidate data operations
type CandidateRepository interface {
	Create(ctx context.Context, candidate *domain.Candidate) error
	GetByID(ctx context.Context, id string) (*domain.Candidate, error)
	ListByElection(ctx context.Context, electionID string) ([]*domain.Candidate, error)
	ListByStatus(ctx context.Context, status domain.CandidateStatus) ([]*domain.Candidate, error)
	Update(ctx context.Context, candidate *domain.Candidate) error
	DeleteByElection(ctx context.Context, electionID string) error
}

// VoteRepository defines the interface for vote data operations.
// Votes are append-only: there is no update method on purpose.
type VoteRepository interface {
	// Create inserts the vote under its (electionId, voterId) natural
	// key. store.ErrDuplicateKey means the voter already voted.
	Create(ctx context.Context, vote *domain.Vote) error
	GetByID(ctx context.Context, id string) (*domain.Vote, error)
	GetByElectionAndVoter(ctx context.Context, electionID, voterID string) (*domain.Vote, error)
	ListByElection(ctx context.Context, electionID string) ([]*domain.Vote, error)
	DeleteByElection(ctx context.Context, electionID string) error
}

// BookingRepository defines the interface for booking data operations
type BookingRepository interface {
	Create(ctx context.Context, booking *domain.BookingRequest) error
	GetByID(ctx context.Context, id string) (*domain.BookingRequest, error)
	ListByStatus(ctx context.Context, status domain.BookingStatus) ([]*domain.BookingRequest, error)
	ListByFacilityAndStatus(ctx context.Context, facilityID string, status domain.BookingStatus) ([]*domain.BookingRequest, error)

	// Transition rewrites the booking while its stored status still
	// matches from; store.ErrPreconditionFailed signals a lost race.
	Transition(ctx context.Context, booking *domain.BookingRequest, from domain.BookingStatus) error
}

// FacilityRepository defines the interface for facility data operations
type FacilityRepository interface {
	Create(ctx context.Context, facility *domain.Facility) error
	GetByID(ctx context.Context, id string) (*domain.Facility, error)
	List(ctx context.Context) ([]*domain.Facility, error)
	Update(ctx context.Context, facility *domain.Facility) error
	Delete(ctx context.Context, id string) error
}

// ProfileRepository defines the interface for profile data operations
type ProfileRepository interface {
	GetByUserID(ctx context.Context, userID string) (*domain.Profile, error)
	Create(ctx context.Context, profile *domain.Profile) error
}

// Repositories aggregates all repository implementations over a single store
type Repositories struct {
	Election  ElectionRepository
	Candidate CandidateRepository
	Vote      VoteRepository
	Booking   BookingRepository
	Facility  FacilityRepository
	Profile   ProfileRepository
}

// New builds the repository set over the given document store
func New(st store.Store) *Repositories {
	return &Repositories{
		Election:  NewElectionRepository(st),
		Candidate: NewCandidateRepository(st),
		Vote:      NewVoteRepository(st),
		Booking:   NewBookingRepository(st),
		Facility:  NewFacilityRepository(st),
		Profile:   NewProfileRepository(st),
	}
}
