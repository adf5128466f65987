package repository

import (
	"context"
	"fmt"

	"campus-api/internal/domain"
	"campus-api/internal/store"
)

type electionRepository struct {
	store store.Store
}

// NewElectionRepository creates an election repository over the store
func NewElectionRepository(st store.Store) ElectionRepository {
	return &electionRepository{store: st}
}

func (r *electionRepository) Create(ctx context.Context, election *domain.Election) error {
	doc, err := r.store.Create(ctx, store.CollectionElections, election)
	if err != nil {
		return fmt.Errorf("failed to create election: %w", err)
	}
	election.ID = doc.ID
	election.CreatedAt = doc.CreatedAt
	election.UpdatedAt = doc.UpdatedAt
	return nil
}

func (r *electionRepository) GetByID(ctx context.Context, id string) (*domain.Election, error) {
	var election domain.Election
	err := withReadRetry(ctx, func() error {
		doc, err := r.store.Get(ctx, store.CollectionElections, id)
		if err != nil {
			return err
		}
		if err := doc.Decode(&election); err != nil {
			return fmt.Errorf("failed to decode election: %w", err)
		}
		election.ID = doc.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &election, nil
}

func (r *electionRepository) List(ctx context.Context) ([]*domain.Election, error) {
	var elections []*domain.Election
	err := withReadRetry(ctx, func() error {
		docs, err := r.store.List(ctx, store.CollectionElections, nil)
		if err != nil {
			return err
		}
		elections = elections[:0]
		for _, doc := range docs {
			var election domain.Election
			if err := doc.Decode(&election); err != nil {
				return fmt.Errorf("failed to decode election: %w", err)
			}
			election.ID = doc.ID
			elections = append(elections, &election)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return elections, nil
}

func (r *electionRepository) Update(ctx context.Context, election *domain.Election) error {
	doc, err := r.store.Update(ctx, store.CollectionElections, election.ID, election)
	if err != nil {
		return fmt.Errorf("failed to update election: %w", err)
	}
	election.UpdatedAt = doc.UpdatedAt
	return nil
}

func (r *electionRepository) Delete(ctx context.Context, id string) error {
	if err := r.store.Delete(ctx, store.CollectionElections, id); err != nil {
		return fmt.Errorf("failed to delete election: %w", err)
	}
	return nil
}
