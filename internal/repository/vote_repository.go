package repository

import (
	"context"
	"errors"
	"fmt"

	"campus-api/internal/domain"
	"campus-api/internal/store"
)

type voteRepository struct {
	store store.Store
}

// NewVoteRepository creates a vote repository over the store
func NewVoteRepository(st store.Store) VoteRepository {
	return &voteRepository{store: st}
}

// Create inserts the vote under its natural key. A read-then-write
// existence check is explicitly not the safeguard here: the unique
// insert is, so two concurrent casts cannot both succeed.
func (r *voteRepository) Create(ctx context.Context, vote *domain.Vote) error {
	doc, err := r.store.CreateUnique(ctx, store.CollectionVotes, vote.NaturalKey(), vote)
	if err != nil {
		if errors.Is(err, store.ErrDuplicateKey) {
			return err
		}
		return fmt.Errorf("failed to create vote: %w", err)
	}
	vote.ID = doc.ID
	return nil
}

func (r *voteRepository) GetByID(ctx context.Context, id string) (*domain.Vote, error) {
	var vote domain.Vote
	err := withReadRetry(ctx, func() error {
		doc, err := r.store.Get(ctx, store.CollectionVotes, id)
		if err != nil {
			return err
		}
		if err := doc.Decode(&vote); err != nil {
			return fmt.Errorf("failed to decode vote: %w", err)
		}
		vote.ID = doc.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &vote, nil
}

// GetByElectionAndVoter returns the voter's ballot in the election, or
// store.ErrNotFound if none exists
func (r *voteRepository) GetByElectionAndVoter(ctx context.Context, electionID, voterID string) (*domain.Vote, error) {
	var vote *domain.Vote
	err := withReadRetry(ctx, func() error {
		docs, err := r.store.List(ctx, store.CollectionVotes, store.Filter{
			"election_id": electionID,
			"voter_id":    voterID,
		})
		if err != nil {
			return err
		}
		if len(docs) == 0 {
			return store.ErrNotFound
		}
		var v domain.Vote
		if err := docs[0].Decode(&v); err != nil {
			return fmt.Errorf("failed to decode vote: %w", err)
		}
		v.ID = docs[0].ID
		vote = &v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return vote, nil
}

func (r *voteRepository) ListByElection(ctx context.Context, electionID string) ([]*domain.Vote, error) {
	var votes []*domain.Vote
	err := withReadRetry(ctx, func() error {
		docs, err := r.store.List(ctx, store.CollectionVotes, store.Filter{"election_id": electionID})
		if err != nil {
			return err
		}
		votes = votes[:0]
		for _, doc := range docs {
			var vote domain.Vote
			if err := doc.Decode(&vote); err != nil {
				return fmt.Errorf("failed to decode vote: %w", err)
			}
			vote.ID = doc.ID
			votes = append(votes, &vote)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return votes, nil
}

// DeleteByElection removes all votes of a deleted election. Only the
// admin election-delete cascade reaches this; votes are otherwise
// immutable audit records.
func (r *voteRepository) DeleteByElection(ctx context.Context, electionID string) error {
	votes, err := r.ListByElection(ctx, electionID)
	if err != nil {
		return err
	}
	for _, vote := range votes {
		if err := r.store.Delete(ctx, store.CollectionVotes, vote.ID); err != nil {
			return fmt.Errorf("failed to delete vote %s: %w", vote.ID, err)
		}
	}
	return nil
}
