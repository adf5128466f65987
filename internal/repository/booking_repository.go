package repository

import (
	"context"
	"errors"
	"fmt"

	"campus-api/internal/domain"
	"campus-api/internal/store"
)

type bookingRepository struct {
	store store.Store
}

// NewBookingRepository creates a booking repository over the store
func NewBookingRepository(st store.Store) BookingRepository {
	return &bookingRepository{store: st}
}

func (r *bookingRepository) Create(ctx context.Context, booking *domain.BookingRequest) error {
	doc, err := r.store.Create(ctx, store.CollectionBookings, booking)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}
	booking.ID = doc.ID
	booking.CreatedAt = doc.CreatedAt
	booking.UpdatedAt = doc.UpdatedAt
	return nil
}

func (r *bookingRepository) GetByID(ctx context.Context, id string) (*domain.BookingRequest, error) {
	var booking domain.BookingRequest
	err := withReadRetry(ctx, func() error {
		doc, err := r.store.Get(ctx, store.CollectionBookings, id)
		if err != nil {
			return err
		}
		if err := doc.Decode(&booking); err != nil {
			return fmt.Errorf("failed to decode booking: %w", err)
		}
		booking.ID = doc.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *bookingRepository) list(ctx context.Context, filter store.Filter) ([]*domain.BookingRequest, error) {
	var bookings []*domain.BookingRequest
	err := withReadRetry(ctx, func() error {
		docs, err := r.store.List(ctx, store.CollectionBookings, filter)
		if err != nil {
			return err
		}
		bookings = bookings[:0]
		for _, doc := range docs {
			var booking domain.BookingRequest
			if err := doc.Decode(&booking); err != nil {
				return fmt.Errorf("failed to decode booking: %w", err)
			}
			booking.ID = doc.ID
			bookings = append(bookings, &booking)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *bookingRepository) ListByStatus(ctx context.Context, status domain.BookingStatus) ([]*domain.BookingRequest, error) {
	return r.list(ctx, store.Filter{"status": status})
}

func (r *bookingRepository) ListByFacilityAndStatus(ctx context.Context, facilityID string, status domain.BookingStatus) ([]*domain.BookingRequest, error) {
	return r.list(ctx, store.Filter{"facility_id": facilityID, "status": status})
}

// Transition commits the booking's new state conditionally on its
// stored status still being from. Losing the race surfaces as
// store.ErrPreconditionFailed with no write performed.
func (r *bookingRepository) Transition(ctx context.Context, booking *domain.BookingRequest, from domain.BookingStatus) error {
	doc, err := r.store.UpdateIf(ctx, store.CollectionBookings, booking.ID,
		store.Filter{"status": from}, booking)
	if err != nil {
		if errors.Is(err, store.ErrPreconditionFailed) || errors.Is(err, store.ErrNotFound) {
			return err
		}
		return fmt.Errorf("failed to transition booking: %w", err)
	}
	booking.UpdatedAt = doc.UpdatedAt
	return nil
}
