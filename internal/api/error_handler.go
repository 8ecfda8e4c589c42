package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/vetconsult/auth-api/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error   string            `json:"error"`
	Details map[string]string `json:"details,omitempty"`
}

// statusBySentinel maps domain errors to HTTP codes. The sentinel's own text
// is sent to the client, so wrapped context never leaks.
var statusBySentinel = []struct {
	err  error
	code int
}{
	{domain.ErrValidation, http.StatusBadRequest},
	{domain.ErrInvalidCode, http.StatusBadRequest},
	{domain.ErrPasswordMismatch, http.StatusBadRequest},

	{domain.ErrInvalidCredentials, http.StatusUnauthorized},
	{domain.ErrInvalidToken, http.StatusUnauthorized},
	{domain.ErrUserInactive, http.StatusUnauthorized},
	{domain.ErrUnauthenticated, http.StatusUnauthorized},

	{domain.ErrForbidden, http.StatusForbidden},
	{domain.ErrUserNotVerified, http.StatusForbidden},

	{domain.ErrUserNotFound, http.StatusNotFound},
	{domain.ErrAdminNotFound, http.StatusNotFound},
	{domain.ErrCodeNotFound, http.StatusNotFound},

	{domain.ErrUserExists, http.StatusConflict},
	{domain.ErrAdminExists, http.StatusConflict},
	{domain.ErrAlreadyVerified, http.StatusConflict},
	{domain.ErrUserHasPets, http.StatusConflict},

	{domain.ErrTooManyRequests, http.StatusTooManyRequests},
	{domain.ErrTooManyAttempts, http.StatusTooManyRequests},

	{domain.ErrNotificationFailed, http.StatusServiceUnavailable},
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their appropriate HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error": "<message>", "details": {...}}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, body := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, body)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, errorResponse) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, errorResponse{Error: fmt.Sprintf("%v", he.Message)}
	}

	var fe domain.FieldErrors
	if errors.As(err, &fe) {
		return http.StatusBadRequest, errorResponse{Error: domain.ErrValidation.Error(), Details: fe}
	}

	for _, s := range statusBySentinel {
		if errors.Is(err, s.err) {
			return s.code, errorResponse{Error: s.err.Error()}
		}
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
		Msg("unhandled error")

	return http.StatusInternalServerError, errorResponse{Error: "internal server error"}
}
