package handler

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"time"

	"campus-api/internal/domain"
	"campus-api/internal/middleware"
	"campus-api/pkg/errors"
	"campus-api/pkg/logger"
)

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// respondError translates any error into the JSON error envelope.
// Non-AppError failures are masked as internal errors so store details
// never reach the client verbatim.
func respondError(w http.ResponseWriter, log *logger.Logger, err error) {
	var appErr *errors.AppError
	if !stderrors.As(err, &appErr) {
		log.WithError(err).Error("unclassified handler error")
		appErr = errors.NewInternalError("internal error", err)
	}
	if appErr.Internal != nil {
		log.WithError(appErr).Error("request failed")
	}

	response := &errors.ErrorResponse{}
	response.Error.Type = appErr.Type
	response.Error.Message = appErr.Message
	response.Error.Details = appErr.Details
	response.Error.Timestamp = time.Now().UTC().Format(time.RFC3339)

	respondJSON(w, appErr.StatusCode, response)
}

// currentUser pulls the authenticated user placed by the auth middleware
func currentUser(r *http.Request) (*domain.User, error) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		return nil, errors.NewAuthenticationError("authentication required")
	}
	return user, nil
}

func decodeBody(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.NewValidationError("invalid request body", nil)
	}
	return nil
}
