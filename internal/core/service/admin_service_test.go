package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/vetconsult/auth-api/internal/core/domain"
	"github.com/vetconsult/auth-api/internal/core/ports"
)

type adminFixture struct {
	svc    *AdminService
	admins *stubAdminRepo
	users  *stubUserRepo
	pets   *stubPetRepo
	ledger *stubLedger
	issuer *JWTIssuer
}

func newAdminFixture(t *testing.T) *adminFixture {
	t.Helper()
	hasher := NewBcryptHasher(bcrypt.MinCost)
	hash, err := hasher.Hash("rootpass1")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}

	admins := &stubAdminRepo{byEmail: map[string]*domain.Admin{
		"root@vetconsult.io": {ID: "a1", Email: "root@vetconsult.io", PasswordHash: hash, Role: domain.RoleSuperAdmin, IsActive: true},
		"gone@vetconsult.io": {ID: "a2", Email: "gone@vetconsult.io", PasswordHash: hash, Role: domain.RoleAdmin, IsActive: false},
	}}
	ledger := newStubLedger()
	users := newStubUserRepo(ledger)
	pets := &stubPetRepo{}
	issuer := newTestIssuer(t)

	return &adminFixture{
		svc:    NewAdminService(admins, users, pets, issuer, hasher, zerolog.Nop()),
		admins: admins,
		users:  users,
		pets:   pets,
		ledger: ledger,
		issuer: issuer,
	}
}

func TestAdminService_Login_Success(t *testing.T) {
	f := newAdminFixture(t)

	res, err := f.svc.Login(context.Background(), "  ROOT@vetconsult.io ", "rootpass1", client)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if res.Tokens.RefreshToken != "" {
		t.Fatalf("admin sessions must not carry a refresh token")
	}
	if f.ledger.count() != 0 {
		t.Fatalf("admin login must not touch the refresh ledger")
	}

	p, err := f.issuer.ParseAccess(res.Tokens.AccessToken)
	if err != nil {
		t.Fatalf("ParseAccess: %v", err)
	}
	if p.Type != domain.PrincipalAdmin || p.Role != domain.RoleSuperAdmin || p.ID != "a1" {
		t.Fatalf("unexpected principal: %+v", p)
	}
	if len(f.admins.touched) != 1 || f.admins.touched[0] != "a1" {
		t.Fatalf("expected last login to be recorded, got %v", f.admins.touched)
	}
}

func TestAdminService_Login_Failures(t *testing.T) {
	f := newAdminFixture(t)
	ctx := context.Background()

	_, errUnknown := f.svc.Login(ctx, "nobody@vetconsult.io", "rootpass1", client)
	_, errBad := f.svc.Login(ctx, "root@vetconsult.io", "wrong", client)
	if !errors.Is(errUnknown, domain.ErrInvalidCredentials) || !errors.Is(errBad, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v / %v", errUnknown, errBad)
	}

	if _, err := f.svc.Login(ctx, "gone@vetconsult.io", "rootpass1", client); !errors.Is(err, domain.ErrUserInactive) {
		t.Fatalf("expected ErrUserInactive, got %v", err)
	}
	if len(f.admins.touched) != 0 {
		t.Fatalf("failed logins must not record last login")
	}
}

func TestAdminService_Me(t *testing.T) {
	f := newAdminFixture(t)

	a, err := f.svc.Me(context.Background(), "a1")
	if err != nil || a.Email != "root@vetconsult.io" {
		t.Fatalf("unexpected admin %+v, err %v", a, err)
	}
	if _, err := f.svc.Me(context.Background(), "missing"); !errors.Is(err, domain.ErrAdminNotFound) {
		t.Fatalf("expected ErrAdminNotFound, got %v", err)
	}
}

func TestAdminService_DeactivateRevokesSessions(t *testing.T) {
	f := newAdminFixture(t)
	ctx := context.Background()

	u, _ := f.users.Create(ctx, &domain.User{Mobile: "09121234567", IsActive: true, IsVerified: true})
	other, _ := f.users.Create(ctx, &domain.User{Mobile: "09127654321", IsActive: true, IsVerified: true})
	_ = f.ledger.Store(ctx, &domain.RefreshToken{TokenHash: "h1", UserID: u.ID, ExpiresAt: farFuture})
	_ = f.ledger.Store(ctx, &domain.RefreshToken{TokenHash: "h2", UserID: other.ID, ExpiresAt: farFuture})

	updated, err := f.svc.SetUserActive(ctx, u.ID, false)
	if err != nil {
		t.Fatalf("SetUserActive: %v", err)
	}
	if updated.IsActive {
		t.Fatalf("expected user to be inactive")
	}
	if _, err := f.ledger.FindActive(ctx, "h1"); !errors.Is(err, domain.ErrTokenNotFound) {
		t.Fatalf("deactivated user's token must be revoked, got %v", err)
	}
	if _, err := f.ledger.FindActive(ctx, "h2"); err != nil {
		t.Fatalf("other user's token must survive: %v", err)
	}

	if _, err := f.svc.SetUserActive(ctx, "missing", true); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestAdminService_DeleteUser(t *testing.T) {
	f := newAdminFixture(t)
	ctx := context.Background()

	owner, _ := f.users.Create(ctx, &domain.User{Mobile: "09121234567"})
	_, _ = f.pets.Create(ctx, &domain.Pet{OwnerID: owner.ID, Name: "Milo"})
	if err := f.svc.DeleteUser(ctx, owner.ID); !errors.Is(err, domain.ErrUserHasPets) {
		t.Fatalf("expected ErrUserHasPets, got %v", err)
	}

	lone, _ := f.users.Create(ctx, &domain.User{Mobile: "09127654321"})
	_ = f.ledger.Store(ctx, &domain.RefreshToken{TokenHash: "h1", UserID: lone.ID, ExpiresAt: farFuture})
	if err := f.svc.DeleteUser(ctx, lone.ID); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	if f.ledger.count() != 0 {
		t.Fatalf("refresh tokens must be deleted with the user")
	}
	if err := f.svc.DeleteUser(ctx, lone.ID); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

var _ ports.AdminService = (*AdminService)(nil)
var _ ports.AuthService = (*AuthService)(nil)

func TestSeedSuperAdmin(t *testing.T) {
	admins := &stubAdminRepo{byEmail: map[string]*domain.Admin{}}
	hasher := NewBcryptHasher(bcrypt.MinCost)
	ctx := context.Background()

	created, err := SeedSuperAdmin(ctx, admins, hasher, " Owner@VetConsult.io ", "rootpass1")
	if err != nil || !created {
		t.Fatalf("expected admin to be created, got created=%v err=%v", created, err)
	}
	a := admins.byEmail["owner@vetconsult.io"]
	if a == nil || a.Role != domain.RoleSuperAdmin || !a.IsActive {
		t.Fatalf("unexpected seeded admin: %+v", a)
	}
	if !hasher.Compare(a.PasswordHash, "rootpass1") {
		t.Fatalf("stored hash does not match password")
	}

	created, err = SeedSuperAdmin(ctx, admins, hasher, "owner@vetconsult.io", "otherpass")
	if err != nil || created {
		t.Fatalf("second seed must be a no-op, got created=%v err=%v", created, err)
	}

	if _, err := SeedSuperAdmin(ctx, admins, hasher, "", "rootpass1"); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}
