package repository

import (
	"context"
	"fmt"

	"campus-api/internal/domain"
	"campus-api/internal/store"
)

type profileRepository struct {
	store store.Store
}

// NewProfileRepository creates a profile repository over the store
func NewProfileRepository(st store.Store) ProfileRepository {
	return &profileRepository{store: st}
}

func (r *profileRepository) GetByUserID(ctx context.Context, userID string) (*domain.Profile, error) {
	var profile *domain.Profile
	err := withReadRetry(ctx, func() error {
		docs, err := r.store.List(ctx, store.CollectionProfiles, store.Filter{"user_id": userID})
		if err != nil {
			return err
		}
		if len(docs) == 0 {
			return store.ErrNotFound
		}
		var p domain.Profile
		if err := docs[0].Decode(&p); err != nil {
			return fmt.Errorf("failed to decode profile: %w", err)
		}
		p.ID = docs[0].ID
		profile = &p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return profile, nil
}

func (r *profileRepository) Create(ctx context.Context, profile *domain.Profile) error {
	// One profile per user, enforced by the store natural key.
	doc, err := r.store.CreateUnique(ctx, store.CollectionProfiles, profile.UserID, profile)
	if err != nil {
		return fmt.Errorf("failed to create profile: %w", err)
	}
	profile.ID = doc.ID
	return nil
}
