package handlers

import (
	"log/slog"
	"net/http"

	"github.com/Lixing-Zhang/restaurant-pos/internal/middleware"
	"github.com/Lixing-Zhang/restaurant-pos/internal/models"
	"github.com/Lixing-Zhang/restaurant-pos/internal/session"
)

// SeedStats reports what was imported from menu seed sources
type SeedStats interface {
	GetStats() map[string]interface{}
}

// StatsResponse combines live figures with menu seed statistics
type StatsResponse struct {
	Summary  models.Summary         `json:"summary"`
	MenuSeed map[string]interface{} `json:"menuSeed,omitempty"`
}

// StatsHandler provides the admin statistics endpoint
type StatsHandler struct {
	seed   SeedStats
	logger *slog.Logger
}

// NewStatsHandler creates a new stats handler. seed may be nil when no
// menu sources were configured.
func NewStatsHandler(seed SeedStats, logger *slog.Logger) *StatsHandler {
	return &StatsHandler{
		seed:   seed,
		logger: logger,
	}
}

// GetStats handles GET /api/admin/stats
func (h *StatsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := middleware.ControllerFrom(r.Context())
	if !ok {
		writeFailure(w, session.ErrUnknownSession, nil, h.logger)
		return
	}

	summary, err := ctrl.Summary(r.Context())
	if err != nil {
		writeFailure(w, err, nil, h.logger)
		return
	}

	response := StatsResponse{Summary: summary}
	if h.seed != nil {
		response.MenuSeed = h.seed.GetStats()
	}
	WriteJSON(w, http.StatusOK, response, h.logger)
}
