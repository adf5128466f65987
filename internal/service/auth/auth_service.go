package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"campus-api/internal/config"
	"campus-api/internal/domain"
	"campus-api/internal/repository"
	"campus-api/internal/service"
	"campus-api/pkg/errors"
	"campus-api/pkg/logger"

	"github.com/golang-jwt/jwt/v5"
	"google.golang.org/api/idtoken"
)

// Service implements the AuthService interface. It accepts Supabase
// session JWTs and Google tokens interchangeably, mirroring the two
// sign-in paths the portal frontend uses, and resolves the role from
// the profiles collection. Unknown users default to student.
type Service struct {
	cfg        *config.Config
	profiles   repository.ProfileRepository
	cache      *service.CacheService
	httpClient *http.Client
	logger     *logger.Logger

	// validateIDToken is swappable in tests
	validateIDToken func(ctx context.Context, token, audience string) (*idtoken.Payload, error)
}

// NewService creates a new auth service
func NewService(cfg *config.Config, profiles repository.ProfileRepository, cache *service.CacheService, logger *logger.Logger) service.AuthService {
	return &Service{
		cfg:      cfg,
		profiles: profiles,
		cache:    cache,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger:          logger,
		validateIDToken: idtoken.Validate,
	}
}

// ValidateToken verifies a bearer token and returns the caller
func (s *Service) ValidateToken(ctx context.Context, token string) (*domain.User, error) {
	var (
		user *domain.User
		err  error
	)

	switch {
	case isGoogleAccessToken(token):
		user, err = s.validateGoogleAccessToken(ctx, token)
	case isJWTToken(token):
		user, err = s.validateJWT(ctx, token)
	default:
		return nil, errors.NewAuthenticationError("unrecognized token format")
	}
	if err != nil {
		return nil, err
	}

	user.Role = s.resolveRole(ctx, user.ID)
	return user, nil
}

// validateJWT handles a 3-segment token: first as a Supabase session
// JWT signed with the shared secret, then as a Google ID token.
func (s *Service) validateJWT(ctx context.Context, token string) (*domain.User, error) {
	if s.cfg.SupabaseJWTSecret != "" {
		if user, err := s.validateSupabaseJWT(token); err == nil {
			return user, nil
		}
	}
	return s.validateGoogleIDToken(ctx, token)
}

func (s *Service) validateSupabaseJWT(token string) (*domain.User, error) {
	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.SupabaseJWTSecret), nil
	})
	if err != nil || !parsed.Valid {
		return nil, errors.NewAuthenticationError("invalid or expired token")
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, errors.NewAuthenticationError("token has no subject")
	}
	email, _ := claims["email"].(string)

	return &domain.User{ID: sub, Email: email}, nil
}

func (s *Service) validateGoogleIDToken(ctx context.Context, token string) (*domain.User, error) {
	payload, err := s.validateIDToken(ctx, token, s.cfg.GoogleClientID)
	if err != nil {
		s.logger.WithError(err).Debug("Google ID token validation failed")
		return nil, errors.NewAuthenticationError("invalid or expired token")
	}

	email, _ := payload.Claims["email"].(string)
	name, _ := payload.Claims["name"].(string)

	return &domain.User{ID: payload.Subject, Email: email, Name: name}, nil
}

// validateGoogleAccessToken validates an opaque Google access token
// against the tokeninfo endpoint.
func (s *Service) validateGoogleAccessToken(ctx context.Context, token string) (*domain.User, error) {
	url := fmt.Sprintf("https://oauth2.googleapis.com/tokeninfo?access_token=%s", token)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.NewInternalError("failed to create validation request", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.logger.WithError(err).Error("failed to call Google tokeninfo endpoint")
		return nil, errors.NewAuthenticationError("failed to validate token")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		s.logger.WithFields(map[string]interface{}{
			"status_code":   resp.StatusCode,
			"response_body": string(body),
		}).Error("Google tokeninfo returned error")
		return nil, errors.NewAuthenticationError("invalid or expired Google token")
	}

	var tokenInfo struct {
		Sub   string `json:"sub"`
		Email string `json:"email"`
		Aud   string `json:"aud"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokenInfo); err != nil {
		return nil, errors.NewInternalError("failed to decode token information", err)
	}
	if tokenInfo.Aud != "" && s.cfg.GoogleClientID != "" && tokenInfo.Aud != s.cfg.GoogleClientID {
		return nil, errors.NewAuthenticationError("token audience mismatch")
	}
	if tokenInfo.Sub == "" {
		return nil, errors.NewAuthenticationError("token has no subject")
	}

	return &domain.User{ID: tokenInfo.Sub, Email: tokenInfo.Email}, nil
}

// resolveRole looks up the caller's role from the profile collection,
// caching the result. Missing profiles default to student.
func (s *Service) resolveRole(ctx context.Context, userID string) domain.Role {
	if cached := s.cache.GetProfileRole(ctx, userID); cached.Valid() {
		return cached
	}

	profile, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil || !profile.Role.Valid() {
		return domain.RoleStudent
	}

	s.cache.SetProfileRole(ctx, userID, profile.Role)
	return profile.Role
}

// isGoogleAccessToken reports whether the token is an opaque Google
// OAuth access token
func isGoogleAccessToken(token string) bool {
	return strings.HasPrefix(token, "ya29.")
}

// isJWTToken reports whether the token has three dot-separated segments
func isJWTToken(token string) bool {
	return strings.Count(token, ".") == 2
}
