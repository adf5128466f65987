package handler

import (
	"net/http"
	"time"

	"campus-api/internal/container"
)

type HealthHandler struct {
	container *container.Container
}

func NewHealthHandler(c *container.Container) *HealthHandler {
	return &HealthHandler{container: c}
}

// Check handles GET /health
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	status := "ok"
	checks := map[string]string{}

	if err := h.container.Store.Health(ctx); err != nil {
		status = "degraded"
		checks["store"] = err.Error()
	} else {
		checks["store"] = "ok"
	}

	if h.container.RedisClient != nil {
		if err := h.container.RedisClient.Health(ctx); err != nil {
			status = "degraded"
			checks["redis"] = err.Error()
		} else {
			checks["redis"] = "ok"
		}
	}

	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}

	respondJSON(w, code, map[string]interface{}{
		"status":    status,
		"checks":    checks,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
