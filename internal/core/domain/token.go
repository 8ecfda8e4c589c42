package domain

import "time"

// TokenType is carried in the "typ" claim so an access token can never be
// redeemed as a refresh token and vice versa.
type TokenType string

const (
	TokenAccess  TokenType = "access"
	TokenRefresh TokenType = "refresh"
)

// TokenPair is what the client receives after login, verification or refresh.
type TokenPair struct {
	AccessToken      string    `json:"accessToken"`
	RefreshToken     string    `json:"refreshToken,omitempty"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt,omitempty"`
}

// RefreshToken is a ledger row. Only the SHA-256 digest of the signed token is
// persisted.
type RefreshToken struct {
	TokenHash string
	UserID    string
	ExpiresAt time.Time
	IsRevoked bool
	CreatedAt time.Time
}

// Active reports whether the row may still be redeemed at instant now.
func (t *RefreshToken) Active(now time.Time) bool {
	return !t.IsRevoked && t.ExpiresAt.After(now)
}
