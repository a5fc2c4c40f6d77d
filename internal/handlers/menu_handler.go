package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Lixing-Zhang/restaurant-pos/internal/models"
	"github.com/Lixing-Zhang/restaurant-pos/internal/repository"
	"github.com/go-chi/chi/v5"
)

// MenuReader is the read side of the menu service
type MenuReader interface {
	ListMenu(ctx context.Context) ([]models.MenuItem, error)
	GetMenuItem(ctx context.Context, id int64) (*models.MenuItem, error)
}

// MenuHandler handles menu-related HTTP requests
type MenuHandler struct {
	menu   MenuReader
	logger *slog.Logger
}

// NewMenuHandler creates a new menu handler
func NewMenuHandler(menu MenuReader, logger *slog.Logger) *MenuHandler {
	return &MenuHandler{
		menu:   menu,
		logger: logger,
	}
}

// ListMenu handles GET /api/menu
// Returns the available items grouped by category
func (h *MenuHandler) ListMenu(w http.ResponseWriter, r *http.Request) {
	items, err := h.menu.ListMenu(r.Context())
	if err != nil {
		h.logger.Error("failed to list menu", "error", err)
		WriteError(w, http.StatusBadGateway, msgUnavailable, h.logger)
		return
	}

	WriteJSON(w, http.StatusOK, models.GroupByCategory(items), h.logger)
}

// GetMenuItem handles GET /api/menu/{itemId}
// - 200: successful operation
// - 400: Invalid ID supplied
// - 404: Menu item not found
func (h *MenuHandler) GetMenuItem(w http.ResponseWriter, r *http.Request) {
	id, err := intParam(r, "itemId")
	if err != nil {
		h.logger.Warn("invalid menu item ID", "itemId", chi.URLParam(r, "itemId"))
		WriteError(w, http.StatusBadRequest, "Invalid ID supplied", h.logger)
		return
	}

	item, err := h.menu.GetMenuItem(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrMenuItemNotFound) {
			WriteError(w, http.StatusNotFound, "Menu item not found", h.logger)
			return
		}
		h.logger.Error("failed to get menu item", "itemId", id, "error", err)
		WriteError(w, http.StatusBadGateway, msgUnavailable, h.logger)
		return
	}

	if !item.Available {
		WriteError(w, http.StatusNotFound, "Menu item not found", h.logger)
		return
	}

	WriteJSON(w, http.StatusOK, item, h.logger)
}
