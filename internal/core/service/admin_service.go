package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/vetconsult/auth-api/internal/core/domain"
	"github.com/vetconsult/auth-api/internal/core/ports"
)

// AdminService implements admin sessions and user moderation. Admin sessions
// carry an access token only and nothing is written to the refresh ledger.
type AdminService struct {
	admins ports.AdminRepository
	users  ports.UserRepository
	pets   ports.PetRepository
	tokens ports.TokenIssuer
	hasher ports.PasswordHasher
	log    zerolog.Logger

	dummyOnce sync.Once
	dummyHash string
}

func NewAdminService(
	admins ports.AdminRepository,
	users ports.UserRepository,
	pets ports.PetRepository,
	tokens ports.TokenIssuer,
	hasher ports.PasswordHasher,
	log zerolog.Logger,
) *AdminService {
	return &AdminService{
		admins: admins,
		users:  users,
		pets:   pets,
		tokens: tokens,
		hasher: hasher,
		log:    log,
	}
}

func (s *AdminService) Login(ctx context.Context, email, password string, client ports.ClientInfo) (*ports.AdminLoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	admin, err := s.admins.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, domain.ErrAdminNotFound) {
			return nil, fmt.Errorf("admin login: %w", err)
		}
		s.dummyOnce.Do(func() { s.dummyHash, _ = s.hasher.Hash("placeholder-password") })
		s.hasher.Compare(s.dummyHash, password)
		s.failed("unknown_email", "", client)
		return nil, domain.ErrInvalidCredentials
	}

	if !s.hasher.Compare(admin.PasswordHash, password) {
		s.failed("bad_password", admin.ID, client)
		return nil, domain.ErrInvalidCredentials
	}
	if !admin.IsActive {
		s.failed("inactive", admin.ID, client)
		return nil, domain.ErrUserInactive
	}

	token, exp, err := s.tokens.IssueAccess(domain.Principal{
		ID:     admin.ID,
		Mobile: admin.Email,
		Role:   admin.Role,
		Type:   domain.PrincipalAdmin,
	})
	if err != nil {
		return nil, fmt.Errorf("admin login: %w", err)
	}

	if err := s.admins.TouchLastLogin(ctx, admin.ID); err != nil {
		s.log.Warn().Err(err).Str("admin_id", admin.ID).Msg("failed to record last login")
	}

	return &ports.AdminLoginResult{
		Admin:  admin,
		Tokens: domain.TokenPair{AccessToken: token, AccessExpiresAt: exp},
	}, nil
}

func (s *AdminService) Me(ctx context.Context, adminID string) (*domain.Admin, error) {
	return s.admins.FindByID(ctx, adminID)
}

// SetUserActive (de)activates a user. Deactivation revokes every refresh token
// of the user atomically with the flag change.
func (s *AdminService) SetUserActive(ctx context.Context, userID string, active bool) (*domain.User, error) {
	user, err := s.users.SetActive(ctx, userID, active)
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("user_id", userID).Bool("active", active).Msg("user activation changed")
	return user, nil
}

// DeleteUser hard-deletes a user that owns no pets, together with its refresh
// tokens. Owners must be deactivated instead.
func (s *AdminService) DeleteUser(ctx context.Context, userID string) error {
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		return err
	}

	n, err := s.pets.CountByOwner(ctx, userID)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if n > 0 {
		return domain.ErrUserHasPets
	}

	if err := s.users.Delete(ctx, userID); err != nil {
		return err
	}
	s.log.Info().Str("user_id", userID).Msg("user deleted")
	return nil
}

func (s *AdminService) failed(reason, adminID string, client ports.ClientInfo) {
	s.log.Warn().
		Str("event", "admin_login_failed").
		Str("reason", reason).
		Str("admin_id", adminID).
		Str("ip", client.IP).
		Str("user_agent", client.UserAgent).
		Msg("security event")
}

// SeedSuperAdmin creates the first SUPER_ADMIN. It reports false when an admin
// with that email already exists.
func SeedSuperAdmin(ctx context.Context, admins ports.AdminRepository, hasher ports.PasswordHasher, email, password string) (bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || len(password) < 6 {
		return false, domain.ErrValidation
	}

	hash, err := hasher.Hash(password)
	if err != nil {
		return false, fmt.Errorf("seed admin: %w", err)
	}
	_, err = admins.Create(ctx, &domain.Admin{
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleSuperAdmin,
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
	})
	if errors.Is(err, domain.ErrAdminExists) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
