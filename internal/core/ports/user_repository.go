package ports

import (
	"context"

	"github.com/vetconsult/auth-api/internal/core/domain"
)

// UserRepository is the user half of the credential store.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByMobile(ctx context.Context, mobile string) (*domain.User, error)
	MarkVerified(ctx context.Context, id string) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	UpdateProfile(ctx context.Context, id, firstName, lastName string) (*domain.User, error)

	// SetActive flips isActive; deactivation revokes every refresh token of
	// the user in the same transaction.
	SetActive(ctx context.Context, id string, active bool) (*domain.User, error)
	// Delete removes the user and its refresh tokens in one transaction.
	Delete(ctx context.Context, id string) error
}

// AdminRepository is the admin half of the credential store.
type AdminRepository interface {
	Create(ctx context.Context, admin *domain.Admin) (*domain.Admin, error)
	FindByID(ctx context.Context, id string) (*domain.Admin, error)
	FindByEmail(ctx context.Context, email string) (*domain.Admin, error)
	TouchLastLogin(ctx context.Context, id string) error
}

// PetRepository covers the pet operations the auth flows touch.
type PetRepository interface {
	Create(ctx context.Context, pet *domain.Pet) (*domain.Pet, error)
	CountByOwner(ctx context.Context, ownerID string) (int64, error)
}
