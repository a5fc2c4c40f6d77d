package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

const healthCheckTimeout = 2 * time.Second

// Pinger reports whether a dependency is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// SessionCounter reports the number of live sessions
type SessionCounter interface {
	Len() int
}

// HealthHandler provides health check endpoint
type HealthHandler struct {
	store    Pinger
	sessions SessionCounter
	logger   *slog.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(store Pinger, sessions SessionCounter, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		store:    store,
		sessions: sessions,
		logger:   logger,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
	Store     string    `json:"store"`
	Sessions  int       `json:"sessions"`
}

// ServeHTTP handles health check requests
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Version:   "1.0.0",
		Store:     "ok",
		Sessions:  h.sessions.Len(),
	}
	status := http.StatusOK

	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()
	if err := h.store.Ping(ctx); err != nil {
		h.logger.Warn("store health check failed", "error", err)
		response.Status = "degraded"
		response.Store = "unreachable"
		status = http.StatusServiceUnavailable
	}

	WriteJSON(w, status, response, h.logger)
}
