package ports

import (
	"context"

	"github.com/vetconsult/auth-api/internal/core/domain"
)

// TokenLedger persists issued refresh tokens by hash.
type TokenLedger interface {
	Store(ctx context.Context, token *domain.RefreshToken) error
	// FindActive returns domain.ErrTokenNotFound for unknown, revoked or
	// expired tokens.
	FindActive(ctx context.Context, tokenHash string) (*domain.RefreshToken, error)
	// Revoke is scoped by user and idempotent.
	Revoke(ctx context.Context, userID, tokenHash string) error
	RevokeAllForUser(ctx context.Context, userID string) error
	// Rotate revokes oldHash (only while still active) and stores next
	// atomically. It returns domain.ErrTokenNotFound and stores nothing when
	// oldHash was already redeemed, revoked or expired.
	Rotate(ctx context.Context, oldHash string, next *domain.RefreshToken) error
}
