package domain

import "errors"

// Validation (400)
var (
	ErrValidation       = errors.New("validation failed")
	ErrInvalidCode      = errors.New("invalid verification code")
	ErrPasswordMismatch = errors.New("current password is incorrect")
)

// Authentication (401)
var (
	ErrInvalidCredentials = errors.New("invalid mobile number or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrUserInactive       = errors.New("account is deactivated")
	ErrUnauthenticated    = errors.New("authentication required")
)

// Authorization (403)
var (
	ErrForbidden       = errors.New("access forbidden")
	ErrUserNotVerified = errors.New("mobile number not verified")
)

// Not found (404)
var (
	ErrUserNotFound  = errors.New("user not found")
	ErrAdminNotFound = errors.New("admin not found")
	ErrCodeNotFound  = errors.New("verification code not found or expired")
	ErrTokenNotFound = errors.New("refresh token not found")
)

// Conflict (409)
var (
	ErrUserExists      = errors.New("mobile number already registered")
	ErrAdminExists     = errors.New("admin already exists")
	ErrAlreadyVerified = errors.New("mobile number already verified")
	ErrUserHasPets     = errors.New("user still owns pets")
)

// Rate (429) and dependency (503)
var (
	ErrTooManyRequests    = errors.New("too many requests, try again later")
	ErrTooManyAttempts    = errors.New("too many failed attempts, request a new code")
	ErrNotificationFailed = errors.New("could not deliver verification code")
)

// FieldErrors carries per-field validation detail. It unwraps to ErrValidation.
type FieldErrors map[string]string

func (f FieldErrors) Error() string { return ErrValidation.Error() }

func (f FieldErrors) Unwrap() error { return ErrValidation }
