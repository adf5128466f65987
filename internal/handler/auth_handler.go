package handler

import (
	"net/http"

	"campus-api/internal/service/auth"
	"campus-api/pkg/errors"
	"campus-api/pkg/logger"

	"github.com/go-chi/chi/v5"
)

// AuthHandler exposes the server-side Google sign-in flow and the
// profile endpoint
type AuthHandler struct {
	flow *auth.OAuthFlow
	log  *logger.Logger
}

func NewAuthHandler(flow *auth.OAuthFlow, log *logger.Logger) *AuthHandler {
	return &AuthHandler{flow: flow, log: log}
}

// RegisterRoutes mounts the sign-in endpoints
func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Get("/auth/google/login", h.Login)
	r.Get("/auth/google/callback", h.Callback)
}

// Login handles GET /auth/google/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, h.flow.AuthCodeURL("state"), http.StatusTemporaryRedirect)
}

// Callback handles GET /auth/google/callback
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		respondError(w, h.log, errors.NewValidationError("missing authorization code", nil))
		return
	}

	user, err := h.flow.Exchange(r.Context(), code)
	if err != nil {
		h.log.WithError(err).Error("Google code exchange failed")
		respondError(w, h.log, errors.NewAuthenticationError("sign-in failed"))
		return
	}

	respondJSON(w, http.StatusOK, user)
}

// Profile handles GET /api/v1/me
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}
