package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Lixing-Zhang/restaurant-pos/internal/auth"
	"github.com/Lixing-Zhang/restaurant-pos/internal/repository"
	"github.com/Lixing-Zhang/restaurant-pos/internal/service"
	"github.com/Lixing-Zhang/restaurant-pos/internal/session"
	"github.com/go-chi/chi/v5"
)

var errInvalidID = errors.New("invalid ID supplied")

// msgUnavailable is the notice for failures of the store or another backend
const msgUnavailable = "Could not reach the data store, please try again"

// statusFor maps domain errors to an HTTP status and a client-safe message
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrProfileMissing),
		errors.Is(err, session.ErrInvalidIdentity),
		errors.Is(err, session.ErrNotLoggedIn),
		errors.Is(err, session.ErrUnknownSession):
		return http.StatusUnauthorized, err.Error()

	case errors.Is(err, session.ErrNotPermitted):
		return http.StatusForbidden, err.Error()

	case errors.Is(err, repository.ErrTableNotFound),
		errors.Is(err, repository.ErrMenuItemNotFound),
		errors.Is(err, repository.ErrOrderNotFound),
		errors.Is(err, repository.ErrUserNotFound):
		return http.StatusNotFound, err.Error()

	case errors.Is(err, auth.ErrUsernameTaken),
		errors.Is(err, session.ErrAlreadyLoggedIn),
		errors.Is(err, session.ErrWrongScreen),
		errors.Is(err, session.ErrTableUnavailable),
		errors.Is(err, repository.ErrTableUnavailable),
		errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrOrderLocked):
		return http.StatusConflict, err.Error()

	case errors.Is(err, errBadBody),
		errors.Is(err, errInvalidID),
		errors.Is(err, auth.ErrBlankCredential),
		errors.Is(err, auth.ErrPasswordTooLong),
		errors.Is(err, session.ErrEmptyCart),
		errors.Is(err, session.ErrUnknownMenuItem),
		errors.Is(err, service.ErrEmptyOrder),
		errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrInvalidItem),
		errors.Is(err, service.ErrInvalidRole),
		errors.Is(err, service.ErrInvalidStatus):
		return http.StatusBadRequest, err.Error()
	}

	return http.StatusBadGateway, msgUnavailable
}

// writeFailure writes the mapped error, attaching the unchanged view when given
func writeFailure(w http.ResponseWriter, err error, view *session.View, logger *slog.Logger) {
	status, message := statusFor(err)
	if status == http.StatusBadGateway {
		logger.Error("request failed", "error", err)
	} else {
		logger.Info("request rejected", "status", status, "error", err)
	}
	WriteJSON(w, status, ErrorResponse{Error: message, View: view}, logger)
}

// intParam parses a positive integer URL parameter
func intParam(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, errInvalidID
	}
	return id, nil
}
