package ports

import (
	"context"
	"time"

	"github.com/vetconsult/auth-api/internal/core/domain"
)

// PetInput is the optional default pet supplied at registration.
type PetInput struct {
	Name      string
	Species   string
	Breed     string
	BirthDate *time.Time
}

// RegisterInput is the DTO passed from the transport layer to AuthService.
type RegisterInput struct {
	Mobile    string
	Password  string
	FirstName string
	LastName  string
	Pet       *PetInput
}

// ClientInfo identifies the caller for security audit logs.
type ClientInfo struct {
	IP        string
	UserAgent string
}

// AuthResult is returned by every flow that opens a session.
type AuthResult struct {
	User   *domain.User
	Tokens domain.TokenPair
}

// AuthService orchestrates the user session lifecycle.
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	ResendVerification(ctx context.Context, mobile string) error
	VerifyRegistration(ctx context.Context, mobile, code string) (*AuthResult, error)
	Login(ctx context.Context, mobile, password string, client ClientInfo) (*AuthResult, error)
	Refresh(ctx context.Context, refreshToken string, client ClientInfo) (*domain.TokenPair, error)
	Logout(ctx context.Context, userID, refreshToken string) error
	LogoutAll(ctx context.Context, userID string) error
	Me(ctx context.Context, userID string) (*domain.User, error)
	UpdateProfile(ctx context.Context, userID, firstName, lastName string) (*domain.User, error)
	ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error
	// ForgotPassword reports whether a reset code was issued; it is false
	// when an unknown mobile is concealed.
	ForgotPassword(ctx context.Context, mobile string) (bool, error)
	ResetPassword(ctx context.Context, mobile, code, newPassword string) error
}

// AdminLoginResult carries an access token only; admin refresh tokens are
// never issued.
type AdminLoginResult struct {
	Admin  *domain.Admin
	Tokens domain.TokenPair
}

// AdminService covers admin sessions and user moderation.
type AdminService interface {
	Login(ctx context.Context, email, password string, client ClientInfo) (*AdminLoginResult, error)
	Me(ctx context.Context, adminID string) (*domain.Admin, error)
	SetUserActive(ctx context.Context, userID string, active bool) (*domain.User, error)
	DeleteUser(ctx context.Context, userID string) error
}

// TokenIssuer signs and verifies access and refresh tokens.
type TokenIssuer interface {
	IssuePair(p domain.Principal) (domain.TokenPair, error)
	IssueAccess(p domain.Principal) (string, time.Time, error)
	ParseAccess(token string) (*domain.Principal, error)
	ParseRefresh(token string) (*domain.Principal, time.Time, error)
}

// PasswordHasher hides the hashing algorithm and its cost.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) bool
}
