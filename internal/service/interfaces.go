package service

import (
	"context"

	"campus-api/internal/domain"
)

// AuthService is the identity provider boundary: it turns a bearer
// token into an authenticated (userId, role) pair. Token issuance is
// external.
type AuthService interface {
	// ValidateToken verifies the token and resolves the caller's role
	ValidateToken(ctx context.Context, token string) (*domain.User, error)
}

// Services aggregates the application services
type Services struct {
	Auth     AuthService
	Election *ElectionService
	Booking  *BookingService
}
