package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/Lixing-Zhang/restaurant-pos/internal/middleware"
	"github.com/Lixing-Zhang/restaurant-pos/internal/models"
	"github.com/Lixing-Zhang/restaurant-pos/internal/session"
)

// SessionManager starts and ends sessions
type SessionManager interface {
	Login(ctx context.Context, cred models.Credential) (string, session.View, error)
	SignUp(ctx context.Context, cred models.Credential) (string, session.View, error)
	Logout(token string) (session.View, error)
}

// LoginRequest is the body of the login and sign-up endpoints
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse carries the new session token and its first view
type LoginResponse struct {
	Token string       `json:"token"`
	View  session.View `json:"view"`
}

// OrderPlacedResponse is returned after a successful order submission
type OrderPlacedResponse struct {
	Order *models.Order `json:"order"`
	View  session.View  `json:"view"`
}

// SessionHandler handles the navigation and cart endpoints of a session
type SessionHandler struct {
	sessions SessionManager
	log      *slog.Logger
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessions SessionManager, log *slog.Logger) *SessionHandler {
	return &SessionHandler{
		sessions: sessions,
		log:      log,
	}
}

// Login handles POST /api/session
func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	h.start(w, r, h.sessions.Login, http.StatusOK)
}

// SignUp handles POST /api/session/signup
func (h *SessionHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	h.start(w, r, h.sessions.SignUp, http.StatusCreated)
}

func (h *SessionHandler) start(w http.ResponseWriter, r *http.Request, fn func(context.Context, models.Credential) (string, session.View, error), status int) {
	var req LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body", h.log)
		return
	}

	token, view, err := fn(r.Context(), models.Credential{Username: req.Username, Password: req.Password})
	if err != nil {
		writeFailure(w, err, nil, h.log)
		return
	}

	WriteJSON(w, status, LoginResponse{Token: token, View: view}, h.log)
}

// Current handles GET /api/session
func (h *SessionHandler) Current(w http.ResponseWriter, r *http.Request) {
	h.withController(w, r, func(ctrl *session.Controller) (session.View, error) {
		return ctrl.View(), nil
	})
}

// Logout handles DELETE /api/session
func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	view, err := h.sessions.Logout(middleware.BearerToken(r))
	if err != nil {
		writeFailure(w, err, nil, h.log)
		return
	}
	WriteJSON(w, http.StatusOK, view, h.log)
}

// Refresh handles POST /api/session/refresh
func (h *SessionHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	h.withController(w, r, func(ctrl *session.Controller) (session.View, error) {
		return ctrl.Refresh(r.Context())
	})
}

// SelectTable handles POST /api/session/tables/{tableId}/select
func (h *SessionHandler) SelectTable(w http.ResponseWriter, r *http.Request) {
	h.withTable(w, r, func(ctrl *session.Controller, tableID int) (session.View, error) {
		return ctrl.SelectTable(tableID)
	})
}

// ReserveTable handles POST /api/session/tables/{tableId}/reserve
func (h *SessionHandler) ReserveTable(w http.ResponseWriter, r *http.Request) {
	h.withTable(w, r, func(ctrl *session.Controller, tableID int) (session.View, error) {
		return ctrl.ReserveTable(r.Context(), tableID)
	})
}

// UnreserveTable handles DELETE /api/session/tables/{tableId}/reserve
func (h *SessionHandler) UnreserveTable(w http.ResponseWriter, r *http.Request) {
	h.withTable(w, r, func(ctrl *session.Controller, tableID int) (session.View, error) {
		return ctrl.UnreserveTable(r.Context(), tableID)
	})
}

// AddItem handles POST /api/session/cart/{itemId}
func (h *SessionHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	h.withItem(w, r, func(ctrl *session.Controller, itemID int64) (session.View, error) {
		return ctrl.AddItem(itemID)
	})
}

// RemoveItem handles DELETE /api/session/cart/{itemId}
func (h *SessionHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	h.withItem(w, r, func(ctrl *session.Controller, itemID int64) (session.View, error) {
		return ctrl.RemoveItem(itemID)
	})
}

// PlaceOrder handles POST /api/session/order
func (h *SessionHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := middleware.ControllerFrom(r.Context())
	if !ok {
		writeFailure(w, session.ErrUnknownSession, nil, h.log)
		return
	}

	order, view, err := ctrl.PlaceOrder(r.Context())
	if err != nil {
		writeFailure(w, err, &view, h.log)
		return
	}

	WriteJSON(w, http.StatusCreated, OrderPlacedResponse{Order: order, View: view}, h.log)
	h.log.Info("order placed", "order_id", order.ID, "table_id", order.TableID, "lines", len(order.Lines))
}

// Back handles POST /api/session/back
func (h *SessionHandler) Back(w http.ResponseWriter, r *http.Request) {
	h.withController(w, r, func(ctrl *session.Controller) (session.View, error) {
		return ctrl.Back()
	})
}

// ToggleAdmin handles POST /api/session/admin
func (h *SessionHandler) ToggleAdmin(w http.ResponseWriter, r *http.Request) {
	h.withController(w, r, func(ctrl *session.Controller) (session.View, error) {
		return ctrl.ToggleAdmin(r.Context())
	})
}

func (h *SessionHandler) withTable(w http.ResponseWriter, r *http.Request, fn func(*session.Controller, int) (session.View, error)) {
	id, err := intParam(r, "tableId")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid ID supplied", h.log)
		return
	}
	h.withController(w, r, func(ctrl *session.Controller) (session.View, error) {
		return fn(ctrl, int(id))
	})
}

func (h *SessionHandler) withItem(w http.ResponseWriter, r *http.Request, fn func(*session.Controller, int64) (session.View, error)) {
	id, err := intParam(r, "itemId")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid ID supplied", h.log)
		return
	}
	h.withController(w, r, func(ctrl *session.Controller) (session.View, error) {
		return fn(ctrl, id)
	})
}

// withController runs fn on the request's session and writes the resulting view
func (h *SessionHandler) withController(w http.ResponseWriter, r *http.Request, fn func(*session.Controller) (session.View, error)) {
	runAction(w, r, h.log, fn)
}

func runAction(w http.ResponseWriter, r *http.Request, log *slog.Logger, fn func(*session.Controller) (session.View, error)) {
	ctrl, ok := middleware.ControllerFrom(r.Context())
	if !ok {
		writeFailure(w, session.ErrUnknownSession, nil, log)
		return
	}

	view, err := fn(ctrl)
	if err != nil {
		writeFailure(w, err, &view, log)
		return
	}
	WriteJSON(w, http.StatusOK, view, log)
}
