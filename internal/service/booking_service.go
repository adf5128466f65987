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

// BookingService is the facility-booking approval workflow. Overlap is
// enforced at approval time only: pending requests may overlap freely
// so approvers see every contender.
type BookingService struct {
	bookings   repository.BookingRepository
	facilities repository.FacilityRepository
	cache      *CacheService
	notifier   *Notifier
	log        *logger.Logger
	now        func() time.Time
}

// NewBookingService creates the booking workflow service
func NewBookingService(repos *repository.Repositories, cache *CacheService, notifier *Notifier, log *logger.Logger) *BookingService {
	return &BookingService{
		bookings:   repos.Booking,
		facilities: repos.Facility,
		cache:      cache,
		notifier:   notifier,
		log:        log,
		now:        time.Now,
	}
}

// CreateBooking files a pending booking request. The window must be
// well-formed and not in the past; overlap with other requests is not
// checked here.
func (s *BookingService) CreateBooking(ctx context.Context, actor *domain.User, req *domain.CreateBookingRequest) (*domain.BookingRequest, error) {
	if !policy.CanPerform(actor.Role, policy.ActionCreate, policy.ResourceBooking) {
		return nil, errors.NewForbiddenError("role may not create bookings")
	}

	window := domain.Window{Start: req.StartTime, End: req.EndTime}
	if !window.Valid(s.now()) {
		return nil, errors.NewInvalidWindowError("booking window must be a future [start, end) interval")
	}

	if _, err := s.getFacility(ctx, req.FacilityID); err != nil {
		return nil, err
	}

	booking := &domain.BookingRequest{
		FacilityID:  req.FacilityID,
		RequesterID: actor.ID,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Purpose:     req.Purpose,
		Status:      domain.BookingPending,
	}
	if err := s.bookings.Create(ctx, booking); err != nil {
		return nil, storeFailure("failed to create booking", err)
	}
	s.cache.InvalidatePendingBookings()
	s.notifier.Notify(NotifySuccess, actor.ID, "Booking request submitted")

	return booking, nil
}

// GetBooking returns a booking request by id
func (s *BookingService) GetBooking(ctx context.Context, bookingID string) (*domain.BookingRequest, error) {
	return s.getBooking(ctx, bookingID)
}

// ApproveBooking transitions pending→approved after verifying no other
// approved booking overlaps the window. The overlap check runs
// immediately before the conditional commit; with a store lacking
// transactions a rare double-approval of two different requests remains
// possible and is a documented best-effort boundary.
func (s *BookingService) ApproveBooking(ctx context.Context, actor *domain.User, bookingID, notes string) (*domain.BookingRequest, error) {
	if !policy.CanPerform(actor.Role, policy.ActionManage, policy.ResourceBooking) {
		return nil, errors.NewForbiddenError("role may not manage bookings")
	}

	booking, err := s.getBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status != domain.BookingPending {
		return nil, errors.NewInvalidStateError("only pending bookings can be approved")
	}

	// Optimistic re-check right before commit.
	conflict, err := s.findApprovedOverlap(ctx, booking)
	if err != nil {
		return nil, err
	}
	if conflict != nil {
		// The conflicting request is left approved and this one stays
		// pending; resolution is manual.
		return nil, errors.NewConflictError("an approved booking overlaps this window",
			map[string]interface{}{"conflicting_booking_id": conflict.ID})
	}

	booking.Status = domain.BookingApproved
	booking.DecisionNotes = notes
	booking.DecidedBy = actor.ID
	if err := s.bookings.Transition(ctx, booking, domain.BookingPending); err != nil {
		if stderrors.Is(err, store.ErrPreconditionFailed) {
			return nil, errors.NewInvalidStateError("booking is no longer pending")
		}
		if stderrors.Is(err, store.ErrNotFound) {
			return nil, errors.NewNotFoundError("booking not found")
		}
		return nil, storeFailure("failed to approve booking", err)
	}
	s.cache.InvalidatePendingBookings()
	s.notifier.Notify(NotifySuccess, booking.RequesterID, "Booking approved")

	return booking, nil
}

// RejectBooking transitions pending→rejected with a mandatory reason
func (s *BookingService) RejectBooking(ctx context.Context, actor *domain.User, bookingID, reason string) (*domain.BookingRequest, error) {
	if !policy.CanPerform(actor.Role, policy.ActionManage, policy.ResourceBooking) {
		return nil, errors.NewForbiddenError("role may not manage bookings")
	}
	if strings.TrimSpace(reason) == "" {
		return nil, errors.NewMissingReasonError("a rejection reason is required")
	}

	booking, err := s.getBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status != domain.BookingPending {
		return nil, errors.NewInvalidStateError("only pending bookings can be rejected")
	}

	booking.Status = domain.BookingRejected
	booking.DecisionNotes = reason
	booking.DecidedBy = actor.ID
	if err := s.bookings.Transition(ctx, booking, domain.BookingPending); err != nil {
		if stderrors.Is(err, store.ErrPreconditionFailed) {
			return nil, errors.NewInvalidStateError("booking is no longer pending")
		}
		if stderrors.Is(err, store.ErrNotFound) {
			return nil, errors.NewNotFoundError("booking not found")
		}
		return nil, storeFailure("failed to reject booking", err)
	}
	s.cache.InvalidatePendingBookings()
	s.notifier.Notify(NotifySuccess, booking.RequesterID, "Booking rejected")

	return booking, nil
}

// CancelBooking transitions pending→cancelled. Only the original
// requester may cancel, regardless of role; an admin wanting a
// request gone uses RejectBooking instead.
func (s *BookingService) CancelBooking(ctx context.Context, actor *domain.User, bookingID string) (*domain.BookingRequest, error) {
	booking, err := s.getBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.RequesterID != actor.ID {
		return nil, errors.NewForbiddenError("only the requester may cancel a booking")
	}
	if booking.Status != domain.BookingPending {
		return nil, errors.NewInvalidStateError("only pending bookings can be cancelled")
	}

	booking.Status = domain.BookingCancelled
	if err := s.bookings.Transition(ctx, booking, domain.BookingPending); err != nil {
		if stderrors.Is(err, store.ErrPreconditionFailed) {
			return nil, errors.NewInvalidStateError("booking is no longer pending")
		}
		if stderrors.Is(err, store.ErrNotFound) {
			return nil, errors.NewNotFoundError("booking not found")
		}
		return nil, storeFailure("failed to cancel booking", err)
	}
	s.cache.InvalidatePendingBookings()

	return booking, nil
}

// ListPendingBookings returns all pending requests, optionally scoped
// to a pre-resolved facility-id set. Scope resolution is the caller's
// concern.
func (s *BookingService) ListPendingBookings(ctx context.Context, facilityScope []string) ([]*domain.BookingRequest, error) {
	pending, err := s.bookings.ListByStatus(ctx, domain.BookingPending)
	if err != nil {
		return nil, storeFailure("failed to list pending bookings", err)
	}
	if len(facilityScope) == 0 {
		return pending, nil
	}

	scope := make(map[string]bool, len(facilityScope))
	for _, id := range facilityScope {
		scope[id] = true
	}
	scoped := make([]*domain.BookingRequest, 0, len(pending))
	for _, booking := range pending {
		if scope[booking.FacilityID] {
			scoped = append(scoped, booking)
		}
	}
	return scoped, nil
}

// CreateFacility registers a bookable facility. Admin only.
func (s *BookingService) CreateFacility(ctx context.Context, actor *domain.User, facility *domain.Facility) (*domain.Facility, error) {
	if !policy.CanPerform(actor.Role, policy.ActionCreate, policy.ResourceFacility) {
		return nil, errors.NewForbiddenError("role may not create facilities")
	}
	if strings.TrimSpace(facility.Name) == "" {
		return nil, errors.NewValidationError("facility name is required", nil)
	}
	if err := s.facilities.Create(ctx, facility); err != nil {
		return nil, storeFailure("failed to create facility", err)
	}
	return facility, nil
}

// UpdateFacility edits a facility, including the maintenance override.
// Admin only.
func (s *BookingService) UpdateFacility(ctx context.Context, actor *domain.User, facility *domain.Facility) (*domain.Facility, error) {
	if !policy.CanPerform(actor.Role, policy.ActionUpdate, policy.ResourceFacility) {
		return nil, errors.NewForbiddenError("role may not update facilities")
	}
	if _, err := s.getFacility(ctx, facility.ID); err != nil {
		return nil, err
	}
	if err := s.facilities.Update(ctx, facility); err != nil {
		return nil, storeFailure("failed to update facility", err)
	}
	return facility, nil
}

// GetFacility returns a facility with its status projected at now
func (s *BookingService) GetFacility(ctx context.Context, facilityID string) (*domain.FacilityView, error) {
	facility, err := s.getFacility(ctx, facilityID)
	if err != nil {
		return nil, err
	}
	approved, err := s.bookings.ListByFacilityAndStatus(ctx, facilityID, domain.BookingApproved)
	if err != nil {
		return nil, storeFailure("failed to list approved bookings", err)
	}
	return &domain.FacilityView{
		Facility: *facility,
		Status:   facility.StatusAt(s.now(), approved),
	}, nil
}

// ListFacilities returns all facilities with projected statuses
func (s *BookingService) ListFacilities(ctx context.Context) ([]*domain.FacilityView, error) {
	facilities, err := s.facilities.List(ctx)
	if err != nil {
		return nil, storeFailure("failed to list facilities", err)
	}
	now := s.now()
	views := make([]*domain.FacilityView, 0, len(facilities))
	for _, facility := range facilities {
		approved, err := s.bookings.ListByFacilityAndStatus(ctx, facility.ID, domain.BookingApproved)
		if err != nil {
			return nil, storeFailure("failed to list approved bookings", err)
		}
		views = append(views, &domain.FacilityView{
			Facility: *facility,
			Status:   facility.StatusAt(now, approved),
		})
	}
	sort.Slice(views, func(i, j int) bool { return views[i].Name < views[j].Name })
	return views, nil
}

func (s *BookingService) findApprovedOverlap(ctx context.Context, booking *domain.BookingRequest) (*domain.BookingRequest, error) {
	approved, err := s.bookings.ListByFacilityAndStatus(ctx, booking.FacilityID, domain.BookingApproved)
	if err != nil {
		return nil, storeFailure("failed to check approved bookings", err)
	}
	for _, other := range approved {
		if other.ID == booking.ID {
			continue
		}
		if booking.Window().Overlaps(other.Window()) {
			return other, nil
		}
	}
	return nil, nil
}

func (s *BookingService) getBooking(ctx context.Context, bookingID string) (*domain.BookingRequest, error) {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		if stderrors.Is(err, store.ErrNotFound) {
			return nil, errors.NewNotFoundError("booking not found")
		}
		return nil, storeFailure("failed to load booking", err)
	}
	return booking, nil
}

func (s *BookingService) getFacility(ctx context.Context, facilityID string) (*domain.Facility, error) {
	facility, err := s.facilities.GetByID(ctx, facilityID)
	if err != nil {
		if stderrors.Is(err, store.ErrNotFound) {
			return nil, errors.NewNotFoundError("facility not found")
		}
		return nil, storeFailure("failed to load facility", err)
	}
	return facility, nil
}
