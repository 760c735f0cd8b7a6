package handler

import (
	"context"
	"net/http"
	"time"

	"go-telehealth-booking/pkg/response"
)

// HealthCheck reports whether one dependency is reachable
type HealthCheck func(ctx context.Context) error

type HealthHandler struct {
	checks map[string]HealthCheck
}

func NewHealthHandler(checks map[string]HealthCheck) *HealthHandler {
	return &HealthHandler{checks: checks}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := make(map[string]string, len(h.checks))
	healthy := true
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			status[name] = err.Error()
			healthy = false
			continue
		}
		status[name] = "ok"
	}

	if !healthy {
		response.Error(w, http.StatusServiceUnavailable, "Service unhealthy", status)
		return
	}
	response.Success(w, http.StatusOK, "Service healthy", status)
}
