package handlers

import (
	"log/slog"
	"net/http"

	"github.com/Lixing-Zhang/restaurant-pos/internal/middleware"
	"github.com/Lixing-Zhang/restaurant-pos/internal/models"
	"github.com/Lixing-Zhang/restaurant-pos/internal/session"
	"github.com/go-chi/chi/v5"
)

// StatusRequest is the body of PUT /api/admin/orders/{orderId}/status
type StatusRequest struct {
	Status models.OrderStatus `json:"status"`
}

// LinesRequest is the body of PUT /api/admin/orders/{orderId}/lines
type LinesRequest struct {
	Lines []models.LineRequest `json:"lines"`
}

// RoleRequest is the body of PUT /api/admin/users/{userId}/role
type RoleRequest struct {
	Role models.Role `json:"role"`
}

// AdminHandler handles order, table and staff management for admins.
// Authorization is decided by the session's role.
type AdminHandler struct {
	log *slog.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(log *slog.Logger) *AdminHandler {
	return &AdminHandler{log: log}
}

// ReleaseTable handles POST /api/admin/tables/{tableId}/release
func (h *AdminHandler) ReleaseTable(w http.ResponseWriter, r *http.Request) {
	id, err := intParam(r, "tableId")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid ID supplied", h.log)
		return
	}
	runAction(w, r, h.log, func(ctrl *session.Controller) (session.View, error) {
		return ctrl.ReleaseTable(r.Context(), int(id))
	})
}

// UpdateOrderStatus handles PUT /api/admin/orders/{orderId}/status
func (h *AdminHandler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req StatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body", h.log)
		return
	}

	orderID := chi.URLParam(r, "orderId")
	runAction(w, r, h.log, func(ctrl *session.Controller) (session.View, error) {
		return ctrl.AdvanceOrder(r.Context(), orderID, req.Status)
	})
}

// CancelOrder handles POST /api/admin/orders/{orderId}/cancel
func (h *AdminHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")
	runAction(w, r, h.log, func(ctrl *session.Controller) (session.View, error) {
		return ctrl.CancelOrder(r.Context(), orderID)
	})
}

// ReplaceOrderLines handles PUT /api/admin/orders/{orderId}/lines
func (h *AdminHandler) ReplaceOrderLines(w http.ResponseWriter, r *http.Request) {
	var req LinesRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body", h.log)
		return
	}

	orderID := chi.URLParam(r, "orderId")
	runAction(w, r, h.log, func(ctrl *session.Controller) (session.View, error) {
		return ctrl.EditOrderLines(r.Context(), orderID, req.Lines)
	})
}

// ListUsers handles GET /api/admin/users
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := middleware.ControllerFrom(r.Context())
	if !ok {
		writeFailure(w, session.ErrUnknownSession, nil, h.log)
		return
	}

	users, err := ctrl.Users(r.Context())
	if err != nil {
		writeFailure(w, err, nil, h.log)
		return
	}
	WriteJSON(w, http.StatusOK, users, h.log)
}

// ChangeRole handles PUT /api/admin/users/{userId}/role
func (h *AdminHandler) ChangeRole(w http.ResponseWriter, r *http.Request) {
	var req RoleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body", h.log)
		return
	}

	userID := chi.URLParam(r, "userId")
	runAction(w, r, h.log, func(ctrl *session.Controller) (session.View, error) {
		return ctrl.ChangeRole(r.Context(), userID, req.Role)
	})
}
