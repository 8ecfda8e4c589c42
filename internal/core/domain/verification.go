package domain

import "time"

// VerificationPurpose scopes a code so a registration code cannot reset a
// password.
type VerificationPurpose string

const (
	PurposeRegistration  VerificationPurpose = "REGISTRATION"
	PurposePasswordReset VerificationPurpose = "PASSWORD_RESET"
)

// VerificationCode is a short numeric one-time code bound to a mobile number.
type VerificationCode struct {
	Mobile    string
	Code      string
	Purpose   VerificationPurpose
	ExpiresAt time.Time
	Attempts  int
}
