package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Lixing-Zhang/restaurant-pos/internal/auth"
	"github.com/Lixing-Zhang/restaurant-pos/internal/middleware"
	"github.com/Lixing-Zhang/restaurant-pos/internal/models"
	"github.com/Lixing-Zhang/restaurant-pos/internal/repository"
	"github.com/Lixing-Zhang/restaurant-pos/internal/service"
	"github.com/Lixing-Zhang/restaurant-pos/internal/session"
	"github.com/Lixing-Zhang/restaurant-pos/pkg/logger"
	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	waiterLogin = LoginRequest{Username: "sam", Password: "pw-waiter"}
	adminLogin  = LoginRequest{Username: "alex", Password: "pw-admin"}
)

type fakeSeedStats struct{}

func (fakeSeedStats) GetStats() map[string]interface{} {
	return map[string]interface{}{"total_sources": 0}
}

// testAPI serves the session and admin routes over an in-memory store
type testAPI struct {
	router   http.Handler
	store    *repository.MemoryStore
	sessions *session.Manager
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	return newTestAPIWith(t, nil)
}

// newTestAPIWith lets a test swap collaborators before the manager is built
func newTestAPIWith(t *testing.T, override func(*session.Collaborators)) *testAPI {
	t.Helper()
	log := logger.New("error")
	store := repository.NewMemoryStore()
	authSvc := auth.NewService(store.Users(), bcrypt.MinCost, log)

	ctx := context.Background()
	if err := authSvc.EnsureUser(ctx, models.Credential(waiterLogin), models.RoleWaiter); err != nil {
		t.Fatalf("failed to seed waiter: %v", err)
	}
	if err := authSvc.EnsureUser(ctx, models.Credential(adminLogin), models.RoleAdmin); err != nil {
		t.Fatalf("failed to seed admin: %v", err)
	}

	menuSvc := service.NewMenuService(store.Menu(), nil, log)
	deps := session.Collaborators{
		Auth:      authSvc,
		Tables:    service.NewTableService(store.Tables(), nil, log),
		Menu:      menuSvc,
		Orders:    service.NewOrderService(store.Orders(), store.Menu(), nil, log),
		Users:     service.NewUserService(store.Users(), nil, log),
		Analytics: service.NewAnalyticsService(store.Tables(), store.Orders()),
	}
	if override != nil {
		override(&deps)
	}
	manager := session.NewManager(deps, log)

	sessionHandler := NewSessionHandler(manager, log)
	adminHandler := NewAdminHandler(log)
	statsHandler := NewStatsHandler(fakeSeedStats{}, log)
	menuHandler := NewMenuHandler(menuSvc, log)

	r := chi.NewRouter()
	r.Get("/api/menu", menuHandler.ListMenu)
	r.Post("/api/session", sessionHandler.Login)
	r.Post("/api/session/signup", sessionHandler.SignUp)
	r.Group(func(r chi.Router) {
		r.Use(middleware.SessionAuth(manager))
		r.Get("/api/session", sessionHandler.Current)
		r.Delete("/api/session", sessionHandler.Logout)
		r.Post("/api/session/tables/{tableId}/select", sessionHandler.SelectTable)
		r.Post("/api/session/tables/{tableId}/reserve", sessionHandler.ReserveTable)
		r.Delete("/api/session/tables/{tableId}/reserve", sessionHandler.UnreserveTable)
		r.Post("/api/session/cart/{itemId}", sessionHandler.AddItem)
		r.Delete("/api/session/cart/{itemId}", sessionHandler.RemoveItem)
		r.Post("/api/session/order", sessionHandler.PlaceOrder)
		r.Post("/api/session/back", sessionHandler.Back)
		r.Get("/api/admin/users", adminHandler.ListUsers)
		r.Put("/api/admin/users/{userId}/role", adminHandler.ChangeRole)
		r.Put("/api/admin/orders/{orderId}/status", adminHandler.UpdateOrderStatus)
		r.Post("/api/admin/orders/{orderId}/cancel", adminHandler.CancelOrder)
		r.Post("/api/admin/tables/{tableId}/release", adminHandler.ReleaseTable)
		r.Get("/api/admin/stats", statsHandler.GetStats)
	})

	return &testAPI{router: r, store: store, sessions: manager}
}

func (a *testAPI) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func (a *testAPI) login(t *testing.T, body LoginRequest) string {
	t.Helper()
	w := a.do(t, http.MethodPost, "/api/session", "", body)
	if w.Code != http.StatusOK {
		t.Fatalf("login failed with status %d: %s", w.Code, w.Body.String())
	}

	var resp LoginResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode login response: %v", err)
	}
	return resp.Token
}

func decodeView(t *testing.T, w *httptest.ResponseRecorder) session.View {
	t.Helper()
	var view session.View
	if err := json.NewDecoder(w.Body).Decode(&view); err != nil {
		t.Fatalf("failed to decode view: %v", err)
	}
	return view
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	return resp
}
