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

// AuthConfig holds policy switches for the user flows.
type AuthConfig struct {
	// ConcealUnknownMobile makes forgot-password answer success for unknown
	// numbers instead of 404.
	ConcealUnknownMobile bool
}

// AuthDeps groups the collaborators of AuthService.
type AuthDeps struct {
	Users        ports.UserRepository
	Pets         ports.PetRepository
	Ledger       ports.TokenLedger
	Verification ports.VerificationService
	Tokens       ports.TokenIssuer
	Hasher       ports.PasswordHasher
}

// AuthService implements registration, sessions and password management for
// users.
type AuthService struct {
	users  ports.UserRepository
	pets   ports.PetRepository
	ledger ports.TokenLedger
	codes  ports.VerificationService
	tokens ports.TokenIssuer
	hasher ports.PasswordHasher
	cfg    AuthConfig
	log    zerolog.Logger
	now    func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

func NewAuthService(deps AuthDeps, cfg AuthConfig, log zerolog.Logger) *AuthService {
	return &AuthService{
		users:  deps.Users,
		pets:   deps.Pets,
		ledger: deps.Ledger,
		codes:  deps.Verification,
		tokens: deps.Tokens,
		hasher: deps.Hasher,
		cfg:    cfg,
		log:    log,
		now:    time.Now,
	}
}

// Register creates an unverified user and sends a registration code. The SMS
// is sent synchronously and registration fails closed when it cannot be
// delivered; the account stays pending and ResendVerification can retry.
func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	if in.Mobile == "" || in.Password == "" {
		return nil, domain.ErrValidation
	}

	if _, err := s.users.FindByMobile(ctx, in.Mobile); err == nil {
		return nil, domain.ErrUserExists
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, fmt.Errorf("register: %w", err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("register: hash password: %w", err)
	}

	now := s.now().UTC()
	user, err := s.users.Create(ctx, &domain.User{
		Mobile:       in.Mobile,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Role:         domain.RoleUser,
		IsActive:     true,
		IsVerified:   false,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return nil, err
	}

	if in.Pet != nil {
		pet := &domain.Pet{
			OwnerID:   user.ID,
			Name:      in.Pet.Name,
			Species:   in.Pet.Species,
			Breed:     in.Pet.Breed,
			BirthDate: in.Pet.BirthDate,
			CreatedAt: now,
		}
		if _, err := s.pets.Create(ctx, pet); err != nil {
			s.log.Warn().Err(err).Str("user_id", user.ID).Msg("default pet not created")
		}
	}

	if _, err := s.codes.IssueCode(ctx, user.Mobile, domain.PurposeRegistration, true); err != nil {
		return nil, err
	}

	s.log.Info().Str("user_id", user.ID).Msg("user registered, verification pending")
	return user, nil
}

// ResendVerification issues a new registration code for a pending account.
func (s *AuthService) ResendVerification(ctx context.Context, mobile string) error {
	user, err := s.users.FindByMobile(ctx, mobile)
	if err != nil {
		return err
	}
	if user.IsVerified {
		return domain.ErrAlreadyVerified
	}
	_, err = s.codes.IssueCode(ctx, mobile, domain.PurposeRegistration, true)
	return err
}

// VerifyRegistration confirms mobile ownership and opens the first session.
func (s *AuthService) VerifyRegistration(ctx context.Context, mobile, code string) (*ports.AuthResult, error) {
	user, err := s.users.FindByMobile(ctx, mobile)
	if err != nil {
		return nil, err
	}
	if user.IsVerified {
		return nil, domain.ErrAlreadyVerified
	}

	if err := s.codes.VerifyCode(ctx, mobile, domain.PurposeRegistration, code); err != nil {
		return nil, err
	}

	if err := s.users.MarkVerified(ctx, user.ID); err != nil {
		return nil, fmt.Errorf("verify registration: %w", err)
	}
	user.IsVerified = true

	return s.openSession(ctx, user)
}

// Login authenticates by mobile and password. Unknown mobile and wrong
// password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, mobile, password string, client ports.ClientInfo) (*ports.AuthResult, error) {
	user, err := s.users.FindByMobile(ctx, mobile)
	if err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			return nil, fmt.Errorf("login: %w", err)
		}
		s.hasher.Compare(s.placeholderHash(), password)
		s.securityEvent("login_failed", "unknown_mobile", "", client)
		return nil, domain.ErrInvalidCredentials
	}

	if !s.hasher.Compare(user.PasswordHash, password) {
		s.securityEvent("login_failed", "bad_password", user.ID, client)
		return nil, domain.ErrInvalidCredentials
	}
	if !user.IsActive {
		s.securityEvent("login_failed", "inactive", user.ID, client)
		return nil, domain.ErrUserInactive
	}
	if !user.IsVerified {
		return nil, domain.ErrUserNotVerified
	}

	return s.openSession(ctx, user)
}

// Refresh redeems a refresh token exactly once and returns a new pair.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string, client ports.ClientInfo) (*domain.TokenPair, error) {
	claims, _, err := s.tokens.ParseRefresh(refreshToken)
	if err != nil {
		return nil, domain.ErrInvalidToken
	}

	oldHash := HashToken(refreshToken)
	record, err := s.ledger.FindActive(ctx, oldHash)
	if err != nil {
		if errors.Is(err, domain.ErrTokenNotFound) {
			s.securityEvent("refresh_rejected", "revoked_or_unknown", claims.ID, client)
			return nil, domain.ErrInvalidToken
		}
		return nil, fmt.Errorf("refresh: %w", err)
	}
	if record.UserID != claims.ID {
		s.securityEvent("refresh_rejected", "subject_mismatch", claims.ID, client)
		return nil, domain.ErrInvalidToken
	}

	user, err := s.users.FindByID(ctx, record.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidToken
		}
		return nil, fmt.Errorf("refresh: %w", err)
	}
	if !user.IsActive {
		s.securityEvent("refresh_rejected", "inactive", user.ID, client)
		return nil, domain.ErrUserInactive
	}

	pair, err := s.tokens.IssuePair(userPrincipal(user))
	if err != nil {
		return nil, fmt.Errorf("refresh: %w", err)
	}

	next := &domain.RefreshToken{
		TokenHash: HashToken(pair.RefreshToken),
		UserID:    user.ID,
		ExpiresAt: pair.RefreshExpiresAt,
		CreatedAt: s.now().UTC(),
	}
	if err := s.ledger.Rotate(ctx, oldHash, next); err != nil {
		if errors.Is(err, domain.ErrTokenNotFound) {
			s.securityEvent("refresh_rejected", "concurrent_redeem", user.ID, client)
			return nil, domain.ErrInvalidToken
		}
		return nil, fmt.Errorf("refresh: rotate: %w", err)
	}

	return &pair, nil
}

// Logout revokes one refresh token of userID. Unknown, foreign or already
// revoked tokens are not an error.
func (s *AuthService) Logout(ctx context.Context, userID, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	if err := s.ledger.Revoke(ctx, userID, HashToken(refreshToken)); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

func (s *AuthService) LogoutAll(ctx context.Context, userID string) error {
	if err := s.ledger.RevokeAllForUser(ctx, userID); err != nil {
		return fmt.Errorf("logout all: %w", err)
	}
	s.log.Info().Str("user_id", userID).Msg("all sessions revoked")
	return nil
}

func (s *AuthService) Me(ctx context.Context, userID string) (*domain.User, error) {
	return s.users.FindByID(ctx, userID)
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID, firstName, lastName string) (*domain.User, error) {
	return s.users.UpdateProfile(ctx, userID, strings.TrimSpace(firstName), strings.TrimSpace(lastName))
}

// ChangePassword replaces the password and revokes every refresh token of the
// user, including the one of the calling session.
func (s *AuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if !s.hasher.Compare(user.PasswordHash, currentPassword) {
		return domain.ErrPasswordMismatch
	}
	if err := s.setPassword(ctx, user.ID, newPassword); err != nil {
		return fmt.Errorf("change password: %w", err)
	}
	return s.LogoutAll(ctx, user.ID)
}

// ForgotPassword sends a PASSWORD_RESET code. Delivery is fire-and-forget.
func (s *AuthService) ForgotPassword(ctx context.Context, mobile string) (bool, error) {
	if _, err := s.users.FindByMobile(ctx, mobile); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) && s.cfg.ConcealUnknownMobile {
			return false, nil
		}
		return false, err
	}
	if _, err := s.codes.IssueCode(ctx, mobile, domain.PurposePasswordReset, false); err != nil {
		return false, err
	}
	return true, nil
}

// ResetPassword consumes a PASSWORD_RESET code, replaces the password and
// revokes every session.
func (s *AuthService) ResetPassword(ctx context.Context, mobile, code, newPassword string) error {
	user, err := s.users.FindByMobile(ctx, mobile)
	if err != nil {
		return err
	}
	if err := s.codes.VerifyCode(ctx, mobile, domain.PurposePasswordReset, code); err != nil {
		return err
	}
	if err := s.setPassword(ctx, user.ID, newPassword); err != nil {
		return fmt.Errorf("reset password: %w", err)
	}
	return s.LogoutAll(ctx, user.ID)
}

func (s *AuthService) setPassword(ctx context.Context, userID, password string) error {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(ctx, userID, hash)
}

func (s *AuthService) openSession(ctx context.Context, user *domain.User) (*ports.AuthResult, error) {
	pair, err := s.tokens.IssuePair(userPrincipal(user))
	if err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}

	err = s.ledger.Store(ctx, &domain.RefreshToken{
		TokenHash: HashToken(pair.RefreshToken),
		UserID:    user.ID,
		ExpiresAt: pair.RefreshExpiresAt,
		CreatedAt: s.now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("open session: store refresh token: %w", err)
	}

	return &ports.AuthResult{User: user, Tokens: pair}, nil
}

// placeholderHash keeps the unknown-mobile path as slow as a real compare.
func (s *AuthService) placeholderHash() string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = s.hasher.Hash("placeholder-password")
	})
	return s.dummyHash
}

func (s *AuthService) securityEvent(event, reason, userID string, client ports.ClientInfo) {
	s.log.Warn().
		Str("event", event).
		Str("reason", reason).
		Str("user_id", userID).
		Str("ip", client.IP).
		Str("user_agent", client.UserAgent).
		Msg("security event")
}

func userPrincipal(u *domain.User) domain.Principal {
	return domain.Principal{
		ID:     u.ID,
		Mobile: u.Mobile,
		Role:   u.Role,
		Type:   domain.PrincipalUser,
	}
}
