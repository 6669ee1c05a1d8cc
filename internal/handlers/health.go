package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Pinger reports whether a backing store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// StatsReporter exposes counters of an optional cache layer
type StatsReporter interface {
	Stats() map[string]interface{}
}

// HealthHandler handles GET /healthz
type HealthHandler struct {
	db     Pinger
	cache  StatsReporter
	logger zerolog.Logger
}

// NewHealthHandler creates a health handler. cache may be nil.
func NewHealthHandler(db Pinger, cache StatsReporter, logger zerolog.Logger) *HealthHandler {
	return &HealthHandler{db: db, cache: cache, logger: logger}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		h.logger.Error().Err(err).Msg("health check failed")
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}

	resp := map[string]interface{}{"status": "ok"}
	if h.cache != nil {
		resp["countCache"] = h.cache.Stats()
	}
	writeJSON(w, http.StatusOK, resp)
}
