package handlers

import (
	"context"
	"net/http"
	"time"
)

const healthPingTimeout = 2 * time.Second

// HealthHandler responds with service health information.
type HealthHandler struct {
	DB Pinger
}

// Handle implements GET /healthz.
func (h HealthHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	if h.DB != nil {
		pingCtx, cancel := context.WithTimeout(ctx, healthPingTimeout)
		defer cancel()
		if err := h.DB.Ping(pingCtx); err != nil {
			respondJSON(ctx, w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}

	respondJSON(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}
