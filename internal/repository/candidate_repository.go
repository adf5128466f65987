package repository

import (
	"context"
	"fmt"

	"campus-api/internal/domain"
	"campus-api/internal/store"
)

type candidateRepository struct {
	store store.Store
}

// NewCandidateRepository creates a candidate repository over the store
func NewCandidateRepository(st store.Store) CandidateRepository {
	return &candidateRepository{store: st}
}

func (r *candidateRepository) Create(ctx context.Context, candidate *domain.Candidate) error {
	doc, err := r.store.Create(ctx, store.CollectionCandidates, candidate)
	if err != nil {
		return fmt.Errorf("failed to create candidate: %w", err)
	}
	candidate.ID = doc.ID
	candidate.CreatedAt = doc.CreatedAt
	candidate.UpdatedAt = doc.UpdatedAt
	return nil
}

func (r *candidateRepository) GetByID(ctx context.Context, id string) (*domain.Candidate, error) {
	var candidate domain.Candidate
	err := withReadRetry(ctx, func() error {
		doc, err := r.store.Get(ctx, store.CollectionCandidates, id)
		if err != nil {
			return err
		}
		if err := doc.Decode(&candidate); err != nil {
			return fmt.Errorf("failed to decode candidate: %w", err)
		}
		candidate.ID = doc.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &candidate, nil
}

func (r *candidateRepository) list(ctx context.Context, filter store.Filter) ([]*domain.Candidate, error) {
	var candidates []*domain.Candidate
	err := withReadRetry(ctx, func() error {
		docs, err := r.store.List(ctx, store.CollectionCandidates, filter)
		if err != nil {
			return err
		}
		candidates = candidates[:0]
		for _, doc := range docs {
			var candidate domain.Candidate
			if err := doc.Decode(&candidate); err != nil {
				return fmt.Errorf("failed to decode candidate: %w", err)
			}
			candidate.ID = doc.ID
			candidates = append(candidates, &candidate)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return candidates, nil
}

func (r *candidateRepository) ListByElection(ctx context.Context, electionID string) ([]*domain.Candidate, error) {
	return r.list(ctx, store.Filter{"election_id": electionID})
}

func (r *candidateRepository) ListByStatus(ctx context.Context, status domain.CandidateStatus) ([]*domain.Candidate, error) {
	return r.list(ctx, store.Filter{"status": status})
}

func (r *candidateRepository) Update(ctx context.Context, candidate *domain.Candidate) error {
	doc, err := r.store.Update(ctx, store.CollectionCandidates, candidate.ID, candidate)
	if err != nil {
		return fmt.Errorf("failed to update candidate: %w", err)
	}
	candidate.UpdatedAt = doc.UpdatedAt
	return nil
}

func (r *candidateRepository) DeleteByElection(ctx context.Context, electionID string) error {
	candidates, err := r.ListByElection(ctx, electionID)
	if err != nil {
		return err
	}
	for _, candidate := range candidates {
		if err := r.store.Delete(ctx, store.CollectionCandidates, candidate.ID); err != nil {
			return fmt.Errorf("failed to delete candidate %s: %w", candidate.ID, err)
		}
	}
	return nil
}
