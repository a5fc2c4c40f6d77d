package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Lixing-Zhang/restaurant-pos/internal/auth"
	"github.com/Lixing-Zhang/restaurant-pos/internal/models"
	"github.com/Lixing-Zhang/restaurant-pos/internal/session"
	"github.com/shopspring/decimal"
)

func TestSessionHandler_Login(t *testing.T) {
	api := newTestAPI(t)

	tests := []struct {
		name           string
		body           interface{}
		expectedStatus int
		expectedScreen session.Screen
	}{
		{
			name:           "waiter lands on dashboard",
			body:           waiterLogin,
			expectedStatus: http.StatusOK,
			expectedScreen: session.ScreenDashboard,
		},
		{
			name:           "admin lands on admin panel",
			body:           adminLogin,
			expectedStatus: http.StatusOK,
			expectedScreen: session.ScreenAdmin,
		},
		{
			name:           "wrong password",
			body:           LoginRequest{Username: "sam", Password: "nope"},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "blank credentials",
			body:           LoginRequest{Username: " ", Password: ""},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sessionsBefore := api.sessions.Len()

			w := api.do(t, http.MethodPost, "/api/session", "", tt.body)

			if w.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d: %s", tt.expectedStatus, w.Code, w.Body.String())
			}

			if tt.expectedStatus != http.StatusOK {
				if api.sessions.Len() != sessionsBefore {
					t.Error("expected no session to be created on failure")
				}
				return
			}

			var resp LoginResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if resp.Token == "" {
				t.Error("expected a session token")
			}
			if resp.View.Screen != tt.expectedScreen {
				t.Errorf("expected screen %s, got %s", tt.expectedScreen, resp.View.Screen)
			}
		})
	}
}

func TestSessionHandler_LoginMalformedBody(t *testing.T) {
	api := newTestAPI(t)

	req := httptest.NewRequest(http.MethodPost, "/api/session", strings.NewReader("{"))
	w := httptest.NewRecorder()
	api.router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}
}

func TestSessionHandler_SignUp(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, http.MethodPost, "/api/session/signup", "", LoginRequest{Username: "jo", Password: "secret"})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	var resp LoginResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.View.Identity == nil || resp.View.Identity.Role != models.RoleWaiter {
		t.Errorf("expected new account to be a waiter, got %+v", resp.View.Identity)
	}

	// Same username again, differently cased
	w = api.do(t, http.MethodPost, "/api/session/signup", "", LoginRequest{Username: "JO", Password: "other"})
	if w.Code != http.StatusConflict {
		t.Errorf("expected status 409, got %d", w.Code)
	}
}

func TestSessionHandler_OrderFlow(t *testing.T) {
	api := newTestAPI(t)
	token := api.login(t, waiterLogin)

	// Select a table and build a cart
	w := api.do(t, http.MethodPost, "/api/session/tables/3/select", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("select table failed with status %d: %s", w.Code, w.Body.String())
	}
	if view := decodeView(t, w); view.Screen != session.ScreenOrderEntry || view.OrderEntry.TableID != 3 {
		t.Fatalf("expected order entry for table 3, got %+v", view)
	}

	for _, path := range []string{"/api/session/cart/1", "/api/session/cart/1", "/api/session/cart/7"} {
		if w := api.do(t, http.MethodPost, path, token, nil); w.Code != http.StatusOK {
			t.Fatalf("add item %s failed with status %d", path, w.Code)
		}
	}

	w = api.do(t, http.MethodDelete, "/api/session/cart/7", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("remove item failed with status %d", w.Code)
	}
	view := decodeView(t, w)
	if view.OrderEntry.Cart.ItemCount != 2 {
		t.Errorf("expected 2 items in cart, got %d", view.OrderEntry.Cart.ItemCount)
	}

	// Place the order
	w = api.do(t, http.MethodPost, "/api/session/order", token, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("place order failed with status %d: %s", w.Code, w.Body.String())
	}

	var placed OrderPlacedResponse
	if err := json.NewDecoder(w.Body).Decode(&placed); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !placed.Order.Total.Equal(decimal.RequireFromString("25.98")) {
		t.Errorf("expected total 25.98, got %s", placed.Order.Total)
	}
	if placed.Order.SubmittedBy == nil || placed.Order.SubmittedBy.Username != "sam" {
		t.Errorf("expected order submitted by sam, got %+v", placed.Order.SubmittedBy)
	}
	if placed.View.Screen != session.ScreenDashboard {
		t.Errorf("expected dashboard after order, got %s", placed.View.Screen)
	}

	table, err := api.store.Tables().Get(context.Background(), 3)
	if err != nil {
		t.Fatalf("failed to get table: %v", err)
	}
	if table.Status != models.TableOccupied {
		t.Errorf("expected table occupied, got %s", table.Status)
	}

	// The occupied table can no longer be selected
	w = api.do(t, http.MethodPost, "/api/session/tables/3/select", token, nil)
	if w.Code != http.StatusConflict {
		t.Errorf("expected status 409, got %d", w.Code)
	}
}

func TestSessionHandler_ActionErrors(t *testing.T) {
	api := newTestAPI(t)
	token := api.login(t, waiterLogin)

	if w := api.do(t, http.MethodPost, "/api/session/tables/4/select", token, nil); w.Code != http.StatusOK {
		t.Fatalf("select table failed with status %d", w.Code)
	}

	tests := []struct {
		name           string
		method         string
		path           string
		expectedStatus int
	}{
		{
			name:           "empty cart",
			method:         http.MethodPost,
			path:           "/api/session/order",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "unknown menu item",
			method:         http.MethodPost,
			path:           "/api/session/cart/999",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "non-numeric item id",
			method:         http.MethodPost,
			path:           "/api/session/cart/abc",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "select table from order entry",
			method:         http.MethodPost,
			path:           "/api/session/tables/5/select",
			expectedStatus: http.StatusConflict,
		},
		{
			name:           "admin endpoint as waiter",
			method:         http.MethodGet,
			path:           "/api/admin/users",
			expectedStatus: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := api.do(t, tt.method, tt.path, token, nil)

			if w.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
			if resp := decodeError(t, w); resp.Error == "" {
				t.Error("expected an error message")
			}
		})
	}

	// Failed actions leave the session where it was
	w := api.do(t, http.MethodGet, "/api/session", token, nil)
	if view := decodeView(t, w); view.Screen != session.ScreenOrderEntry || view.OrderEntry.TableID != 4 {
		t.Errorf("expected to remain on order entry for table 4, got %+v", view)
	}
}

func TestSessionHandler_ReserveAndBack(t *testing.T) {
	api := newTestAPI(t)
	token := api.login(t, waiterLogin)

	w := api.do(t, http.MethodPost, "/api/session/tables/5/reserve", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("reserve failed with status %d: %s", w.Code, w.Body.String())
	}
	if view := decodeView(t, w); view.Dashboard == nil || view.Dashboard.Reserved != 1 {
		t.Errorf("expected one reserved table on the dashboard, got %+v", view.Dashboard)
	}

	// Reserved tables are not selectable
	if w := api.do(t, http.MethodPost, "/api/session/tables/5/select", token, nil); w.Code != http.StatusConflict {
		t.Errorf("expected status 409, got %d", w.Code)
	}

	if w := api.do(t, http.MethodPost, "/api/session/tables/6/select", token, nil); w.Code != http.StatusOK {
		t.Fatalf("select table failed with status %d", w.Code)
	}
	w = api.do(t, http.MethodPost, "/api/session/back", token, nil)
	if view := decodeView(t, w); view.Screen != session.ScreenDashboard {
		t.Errorf("expected dashboard after back, got %s", view.Screen)
	}
}

func TestSessionHandler_Logout(t *testing.T) {
	api := newTestAPI(t)
	token := api.login(t, waiterLogin)

	w := api.do(t, http.MethodDelete, "/api/session", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("logout failed with status %d", w.Code)
	}
	if view := decodeView(t, w); view.Screen != session.ScreenLoggedOut {
		t.Errorf("expected logged out screen, got %s", view.Screen)
	}

	if w := api.do(t, http.MethodGet, "/api/session", token, nil); w.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401 after logout, got %d", w.Code)
	}
}

// unreachableTables fails every write as a dropped database connection would
type unreachableTables struct {
	session.TableStore
}

func (unreachableTables) Reserve(ctx context.Context, id int) error {
	return errors.New("dial tcp 127.0.0.1:5432: connection refused")
}

func (unreachableTables) Unreserve(ctx context.Context, id int) error {
	return errors.New("dial tcp 127.0.0.1:5432: connection refused")
}

func TestSessionHandler_StoreUnavailable(t *testing.T) {
	api := newTestAPIWith(t, func(deps *session.Collaborators) {
		deps.Tables = unreachableTables{TableStore: deps.Tables}
	})
	token := api.login(t, waiterLogin)

	for _, method := range []string{http.MethodPost, http.MethodDelete} {
		w := api.do(t, method, "/api/session/tables/5/reserve", token, nil)
		if w.Code != http.StatusBadGateway {
			t.Fatalf("%s: expected status 502, got %d: %s", method, w.Code, w.Body.String())
		}

		resp := decodeError(t, w)
		if resp.Error != msgUnavailable {
			t.Errorf("%s: expected transient notice, got %q", method, resp.Error)
		}
		if resp.View == nil || resp.View.Screen != session.ScreenDashboard {
			t.Errorf("%s: expected the unchanged dashboard view, got %+v", method, resp.View)
		}
	}

	// The session is still usable afterwards
	if w := api.do(t, http.MethodGet, "/api/session", token, nil); w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}
}

func TestSessionHandler_SignUpPasswordTooLong(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, http.MethodPost, "/api/session/signup", "", LoginRequest{Username: "jo", Password: strings.Repeat("p", 73)})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d: %s", w.Code, w.Body.String())
	}
	if resp := decodeError(t, w); resp.Error != auth.ErrPasswordTooLong.Error() {
		t.Errorf("expected password length message, got %q", resp.Error)
	}
}
