package handler

import (
	"net/http"
	"strings"

	"campus-api/internal/domain"
	"campus-api/internal/service"
	"campus-api/pkg/logger"

	"github.com/go-chi/chi/v5"
)

type BookingHandler struct {
	bookings *service.BookingService
	log      *logger.Logger
}

func NewBookingHandler(bookings *service.BookingService, log *logger.Logger) *BookingHandler {
	return &BookingHandler{bookings: bookings, log: log}
}

// RegisterRoutes mounts the booking and facility endpoints
func (h *BookingHandler) RegisterRoutes(r chi.Router) {
	r.Route("/bookings", func(r chi.Router) {
		r.Post("/", h.CreateBooking)
		r.Get("/pending", h.ListPendingBookings)

		r.Route("/{bookingId}", func(r chi.Router) {
			r.Get("/", h.GetBooking)
			r.Post("/approve", h.ApproveBooking)
			r.Post("/reject", h.RejectBooking)
			r.Post("/cancel", h.CancelBooking)
		})
	})

	r.Route("/facilities", func(r chi.Router) {
		r.Get("/", h.ListFacilities)
		r.Post("/", h.CreateFacility)
		r.Get("/{facilityId}", h.GetFacility)
		r.Patch("/{facilityId}", h.UpdateFacility)
	})
}

// CreateBooking handles POST /api/v1/bookings
func (h *BookingHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		respondError(w, h.log, err)
		return
	}

	var req domain.CreateBookingRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, h.log, err)
		return
	}

	booking, err := h.bookings.CreateBooking(r.Context(), user, &req)
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusCreated, booking)
}

// GetBooking handles GET /api/v1/bookings/{bookingId}
func (h *BookingHandler) GetBooking(w http.ResponseWriter, r *http.Request) {
	booking, err := h.bookings.GetBooking(r.Context(), chi.URLParam(r, "bookingId"))
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, booking)
}

// ApproveBooking handles POST /api/v1/bookings/{bookingId}/approve
func (h *BookingHandler) ApproveBooking(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		respondError(w, h.log, err)
		return
	}

	var req domain.BookingDecisionRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, h.log, err)
		return
	}

	booking, err := h.bookings.ApproveBooking(r.Context(), user, chi.URLParam(r, "bookingId"), req.Notes)
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, booking)
}

// RejectBooking handles POST /api/v1/bookings/{bookingId}/reject
func (h *BookingHandler) RejectBooking(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		respondError(w, h.log, err)
		return
	}

	var req domain.BookingDecisionRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, h.log, err)
		return
	}

	booking, err := h.bookings.RejectBooking(r.Context(), user, chi.URLParam(r, "bookingId"), req.Notes)
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, booking)
}

// CancelBooking handles POST /api/v1/bookings/{bookingId}/cancel
func (h *BookingHandler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		respondError(w, h.log, err)
		return
	}

	booking, err := h.bookings.CancelBooking(r.Context(), user, chi.URLParam(r, "bookingId"))
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, booking)
}

// ListPendingBookings handles GET /api/v1/bookings/pending. An optional
// facilities query parameter holds a comma-separated pre-resolved
// approver scope.
func (h *BookingHandler) ListPendingBookings(w http.ResponseWriter, r *http.Request) {
	var scope []string
	if raw := r.URL.Query().Get("facilities"); raw != "" {
		for _, id := range strings.Split(raw, ",") {
			if trimmed := strings.TrimSpace(id); trimmed != "" {
				scope = append(scope, trimmed)
			}
		}
	}

	pending, err := h.bookings.ListPendingBookings(r.Context(), scope)
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, pending)
}

// ListFacilities handles GET /api/v1/facilities
func (h *BookingHandler) ListFacilities(w http.ResponseWriter, r *http.Request) {
	facilities, err := h.bookings.ListFacilities(r.Context())
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, facilities)
}

// GetFacility handles GET /api/v1/facilities/{facilityId}
func (h *BookingHandler) GetFacility(w http.ResponseWriter, r *http.Request) {
	facility, err := h.bookings.GetFacility(r.Context(), chi.URLParam(r, "facilityId"))
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, facility)
}

// CreateFacility handles POST /api/v1/facilities
func (h *BookingHandler) CreateFacility(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		respondError(w, h.log, err)
		return
	}

	var facility domain.Facility
	if err := decodeBody(r, &facility); err != nil {
		respondError(w, h.log, err)
		return
	}

	created, err := h.bookings.CreateFacility(r.Context(), user, &facility)
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

// UpdateFacility handles PATCH /api/v1/facilities/{facilityId}
func (h *BookingHandler) UpdateFacility(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		respondError(w, h.log, err)
		return
	}

	var facility domain.Facility
	if err := decodeBody(r, &facility); err != nil {
		respondError(w, h.log, err)
		return
	}
	facility.ID = chi.URLParam(r, "facilityId")

	updated, err := h.bookings.UpdateFacility(r.Context(), user, &facility)
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}
