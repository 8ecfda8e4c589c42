package handler

import (
	"time"

	"github.com/vetconsult/auth-api/internal/core/domain"
)

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error   string            `json:"error"`
	Details map[string]string `json:"details,omitempty"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// --- Request types ---

type petRequest struct {
	Name      string     `json:"name"      validate:"required,max=64"`
	Species   string     `json:"species"   validate:"required,max=32"`
	Breed     string     `json:"breed"     validate:"max=64"`
	BirthDate *time.Time `json:"birthDate"`
}

type registerRequest struct {
	Mobile    string      `json:"mobile"    validate:"required,mobile"`
	Password  string      `json:"password"  validate:"required,min=6,maxbytes=72"`
	FirstName string      `json:"firstName" validate:"max=64"`
	LastName  string      `json:"lastName"  validate:"max=64"`
	Pet       *petRequest `json:"pet"       validate:"omitempty"`
}

type mobileRequest struct {
	Mobile string `json:"mobile" validate:"required,mobile"`
}

type verifyRegistrationRequest struct {
	Mobile string `json:"mobile" validate:"required,mobile"`
	Code   string `json:"code"   validate:"required,numeric,min=4,max=12"`
}

type loginRequest struct {
	Mobile   string `json:"mobile"   validate:"required,mobile"`
	Password string `json:"password" validate:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// logoutRequest allows an empty token: logout always succeeds.
type logoutRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type updateProfileRequest struct {
	FirstName string `json:"firstName" validate:"required,max=64"`
	LastName  string `json:"lastName"  validate:"required,max=64"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword"     validate:"required,min=6,maxbytes=72,nefield=CurrentPassword"`
}

type resetPasswordRequest struct {
	Mobile      string `json:"mobile"      validate:"required,mobile"`
	Code        string `json:"code"        validate:"required,numeric,min=4,max=12"`
	NewPassword string `json:"newPassword" validate:"required,min=6,maxbytes=72"`
}

type adminLoginRequest struct {
	Email    string `json:"email"    validate:"required,max=128"`
	Password string `json:"password" validate:"required"`
}

type userStatusRequest struct {
	IsActive *bool `json:"isActive" validate:"required"`
}

// --- Response types ---

type registerResponse struct {
	User                 *domain.User `json:"user"`
	VerificationRequired bool         `json:"verificationRequired"`
}

type sessionResponse struct {
	User   *domain.User     `json:"user"`
	Tokens domain.TokenPair `json:"tokens"`
}

type tokensResponse struct {
	Tokens domain.TokenPair `json:"tokens"`
}

type userResponse struct {
	User *domain.User `json:"user"`
}

type adminLoginResponse struct {
	Admin           *domain.Admin `json:"admin"`
	AccessToken     string        `json:"accessToken"`
	AccessExpiresAt time.Time     `json:"accessExpiresAt"`
}

type adminResponse struct {
	Admin *domain.Admin `json:"admin"`
}
