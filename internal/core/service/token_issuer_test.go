package service

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/vetconsult/auth-api/internal/core/domain"
)

func newTestIssuer(t *testing.T) *JWTIssuer {
	t.Helper()
	iss, err := NewTokenIssuer(TokenConfig{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		AccessTTL:     time.Minute,
		RefreshTTL:    time.Hour,
		Issuer:        "vetconsult-test",
	})
	if err != nil {
		t.Fatalf("NewTokenIssuer: %v", err)
	}
	return iss
}

var alice = domain.Principal{ID: "u1", Mobile: "09121234567", Role: domain.RoleUser, Type: domain.PrincipalUser}

func TestTokenIssuer_RejectsBadSecrets(t *testing.T) {
	if _, err := NewTokenIssuer(TokenConfig{AccessSecret: "a"}); err == nil {
		t.Fatalf("expected error for missing refresh secret")
	}
	if _, err := NewTokenIssuer(TokenConfig{AccessSecret: "same", RefreshSecret: "same"}); err == nil {
		t.Fatalf("expected error for shared secret")
	}
}

func TestTokenIssuer_PairRoundTrip(t *testing.T) {
	iss := newTestIssuer(t)

	pair, err := iss.IssuePair(alice)
	if err != nil {
		t.Fatalf("IssuePair: %v", err)
	}

	p, err := iss.ParseAccess(pair.AccessToken)
	if err != nil {
		t.Fatalf("ParseAccess: %v", err)
	}
	if *p != alice {
		t.Fatalf("unexpected principal: %+v", p)
	}

	rp, exp, err := iss.ParseRefresh(pair.RefreshToken)
	if err != nil {
		t.Fatalf("ParseRefresh: %v", err)
	}
	if rp.ID != "u1" || rp.Role != domain.RoleUser {
		t.Fatalf("unexpected refresh principal: %+v", rp)
	}
	if !exp.Equal(pair.RefreshExpiresAt) {
		t.Fatalf("refresh expiry %v != %v", exp, pair.RefreshExpiresAt)
	}
	if !pair.RefreshExpiresAt.After(pair.AccessExpiresAt) {
		t.Fatalf("refresh token should outlive access token")
	}
}

func TestTokenIssuer_TypeConfusionFailsClosed(t *testing.T) {
	iss := newTestIssuer(t)
	pair, _ := iss.IssuePair(alice)

	if _, err := iss.ParseAccess(pair.RefreshToken); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("refresh token accepted as access: %v", err)
	}
	if _, _, err := iss.ParseRefresh(pair.AccessToken); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("access token accepted as refresh: %v", err)
	}
}

func TestTokenIssuer_TypeClaimCheckedEvenWithMatchingKey(t *testing.T) {
	iss := newTestIssuer(t)

	// A refresh-typed token signed with the access secret must still fail.
	forged := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		Type:          domain.TokenRefresh,
		PrincipalType: domain.PrincipalUser,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u1",
			Issuer:    "vetconsult-test",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	})
	signed, err := forged.SignedString([]byte("access-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := iss.ParseAccess(signed); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestTokenIssuer_Expired(t *testing.T) {
	iss := newTestIssuer(t)
	iss.now = func() time.Time { return time.Now().Add(-2 * time.Minute) }
	pair, _ := iss.IssuePair(alice)

	iss.now = time.Now
	if _, err := iss.ParseAccess(pair.AccessToken); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected expired access token to fail, got %v", err)
	}
	if _, _, err := iss.ParseRefresh(pair.RefreshToken); err != nil {
		t.Fatalf("refresh token should still be valid: %v", err)
	}
}

func TestTokenIssuer_WrongSecretAndGarbage(t *testing.T) {
	iss := newTestIssuer(t)
	other, _ := NewTokenIssuer(TokenConfig{AccessSecret: "x", RefreshSecret: "y", Issuer: "vetconsult-test"})
	pair, _ := other.IssuePair(alice)

	if _, err := iss.ParseAccess(pair.AccessToken); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for foreign secret, got %v", err)
	}
	if _, err := iss.ParseAccess("not-a-token"); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for garbage, got %v", err)
	}
}

func TestTokenIssuer_AdminHasNoRefresh(t *testing.T) {
	iss := newTestIssuer(t)
	admin := domain.Principal{ID: "a1", Mobile: "root@vet", Role: domain.RoleSuperAdmin, Type: domain.PrincipalAdmin}

	token, _, err := iss.IssueAccess(admin)
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	p, err := iss.ParseAccess(token)
	if err != nil || p.Type != domain.PrincipalAdmin {
		t.Fatalf("unexpected admin principal %+v, err %v", p, err)
	}

	pair, _ := iss.IssuePair(admin)
	if _, _, err := iss.ParseRefresh(pair.RefreshToken); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("admin refresh token must be rejected, got %v", err)
	}
}

func TestTokenIssuer_RefreshTokensAreUnique(t *testing.T) {
	iss := newTestIssuer(t)
	fixed := time.Now()
	iss.now = func() time.Time { return fixed }

	a, _ := iss.IssuePair(alice)
	b, _ := iss.IssuePair(alice)
	if a.RefreshToken == b.RefreshToken || HashToken(a.RefreshToken) == HashToken(b.RefreshToken) {
		t.Fatalf("refresh tokens issued in the same instant must differ")
	}
}
