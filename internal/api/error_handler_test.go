package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/vetconsult/auth-api/internal/core/domain"
)

func runErrorHandler(t *testing.T, err error) (*httptest.ResponseRecorder, errorResponse) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	NewHTTPErrorHandler(zerolog.Nop())(err, c)

	var body errorResponse
	if jerr := json.Unmarshal(rec.Body.Bytes(), &body); jerr != nil {
		t.Fatalf("invalid json: %v", jerr)
	}
	return rec, body
}

func TestErrorHandler_DomainMapping(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{domain.ErrInvalidCode, http.StatusBadRequest},
		{domain.ErrPasswordMismatch, http.StatusBadRequest},
		{domain.ErrInvalidCredentials, http.StatusUnauthorized},
		{domain.ErrInvalidToken, http.StatusUnauthorized},
		{domain.ErrUserInactive, http.StatusUnauthorized},
		{domain.ErrForbidden, http.StatusForbidden},
		{domain.ErrUserNotVerified, http.StatusForbidden},
		{domain.ErrUserNotFound, http.StatusNotFound},
		{domain.ErrCodeNotFound, http.StatusNotFound},
		{domain.ErrUserExists, http.StatusConflict},
		{domain.ErrAlreadyVerified, http.StatusConflict},
		{domain.ErrUserHasPets, http.StatusConflict},
		{domain.ErrTooManyRequests, http.StatusTooManyRequests},
		{domain.ErrTooManyAttempts, http.StatusTooManyRequests},
		{domain.ErrNotificationFailed, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			rec, body := runErrorHandler(t, fmt.Errorf("context: %w", tt.err))
			if rec.Code != tt.code {
				t.Fatalf("expected %d, got %d", tt.code, rec.Code)
			}
			if body.Error != tt.err.Error() {
				t.Fatalf("expected sentinel message %q, got %q", tt.err.Error(), body.Error)
			}
		})
	}
}

func TestErrorHandler_FieldErrors(t *testing.T) {
	rec, body := runErrorHandler(t, domain.FieldErrors{"mobile": "is required"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if body.Details["mobile"] != "is required" {
		t.Fatalf("expected field details, got %+v", body)
	}
}

func TestErrorHandler_EchoAndUnexpected(t *testing.T) {
	rec, body := runErrorHandler(t, echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header"))
	if rec.Code != http.StatusUnauthorized || body.Error != "missing authorization header" {
		t.Fatalf("unexpected echo error rendering: %d %+v", rec.Code, body)
	}

	rec, body = runErrorHandler(t, errors.New("mongo: connection reset"))
	if rec.Code != http.StatusInternalServerError || body.Error != "internal server error" {
		t.Fatalf("internal details must not leak: %d %+v", rec.Code, body)
	}
}
