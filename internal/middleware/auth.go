package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/Lixing-Zhang/restaurant-pos/internal/session"
)

type contextKey string

const controllerKey contextKey = "session.controller"

// SessionLookup resolves a bearer token to a live session
type SessionLookup interface {
	Get(token string) (*session.Controller, error)
}

// SessionAuth middleware resolves the bearer token in the Authorization
// header and stores the session controller in the request context
func SessionAuth(sessions SessionLookup) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)
			if token == "" {
				writeUnauthorized(w, "session token required")
				return
			}

			ctrl, err := sessions.Get(token)
			if err != nil {
				writeUnauthorized(w, "session expired or unknown")
				return
			}

			ctx := context.WithValue(r.Context(), controllerKey, ctrl)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BearerToken extracts the token from an "Authorization: Bearer" header
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// ControllerFrom returns the session controller stored by SessionAuth
func ControllerFrom(ctx context.Context) (*session.Controller, bool) {
	ctrl, ok := ctx.Value(controllerKey).(*session.Controller)
	return ctrl, ok && ctrl != nil
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", "Bearer")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"` + message + `"}` + "\n"))
}
