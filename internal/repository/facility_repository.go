package repository

import (
	"context"
	"fmt"

	"campus-api/internal/domain"
	"campus-api/internal/store"
)

type facilityRepository struct {
	store store.Store
}

// NewFacilityRepository creates a facility repository over the store
func NewFacilityRepository(st store.Store) FacilityRepository {
	return &facilityRepository{store: st}
}

func (r *facilityRepository) Create(ctx context.Context, facility *domain.Facility) error {
	doc, err := r.store.Create(ctx, store.CollectionFacilities, facility)
	if err != nil {
		return fmt.Errorf("failed to create facility: %w", err)
	}
	facility.ID = doc.ID
	facility.CreatedAt = doc.CreatedAt
	facility.UpdatedAt = doc.UpdatedAt
	return nil
}

func (r *facilityRepository) GetByID(ctx context.Context, id string) (*domain.Facility, error) {
	var facility domain.Facility
	err := withReadRetry(ctx, func() error {
		doc, err := r.store.Get(ctx, store.CollectionFacilities, id)
		if err != nil {
			return err
		}
		if err := doc.Decode(&facility); err != nil {
			return fmt.Errorf("failed to decode facility: %w", err)
		}
		facility.ID = doc.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &facility, nil
}

func (r *facilityRepository) List(ctx context.Context) ([]*domain.Facility, error) {
	var facilities []*domain.Facility
	err := withReadRetry(ctx, func() error {
		docs, err := r.store.List(ctx, store.CollectionFacilities, nil)
		if err != nil {
			return err
		}
		facilities = facilities[:0]
		for _, doc := range docs {
			var facility domain.Facility
			if err := doc.Decode(&facility); err != nil {
				return fmt.Errorf("failed to decode facility: %w", err)
			}
			facility.ID = doc.ID
			facilities = append(facilities, &facility)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return facilities, nil
}

func (r *facilityRepository) Update(ctx context.Context, facility *domain.Facility) error {
	doc, err := r.store.Update(ctx, store.CollectionFacilities, facility.ID, facility)
	if err != nil {
		return fmt.Errorf("failed to update facility: %w", err)
	}
	facility.UpdatedAt = doc.UpdatedAt
	return nil
}

func (r *facilityRepository) Delete(ctx context.Context, id string) error {
	if err := r.store.Delete(ctx, store.CollectionFacilities, id); err != nil {
		return fmt.Errorf("failed to delete facility: %w", err)
	}
	return nil
}
