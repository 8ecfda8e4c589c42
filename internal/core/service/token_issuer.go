package service

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/vetconsult/auth-api/internal/core/domain"
)

const (
	defaultAccessTTL  = 15 * time.Minute
	defaultRefreshTTL = 30 * 24 * time.Hour
)

// TokenConfig holds the signing material and lifetimes for both token types.
type TokenConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
}

// tokenClaims is the single claim shape for user and admin sessions.
type tokenClaims struct {
	Mobile        string               `json:"mobile"`
	Role          string               `json:"role"`
	Type          domain.TokenType     `json:"typ"`
	PrincipalType domain.PrincipalType `json:"pt"`
	jwt.RegisteredClaims
}

// JWTIssuer signs access and refresh tokens with independent HS256 secrets.
type JWTIssuer struct {
	accessKey  []byte
	refreshKey []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	issuer     string
	now        func() time.Time
}

// NewTokenIssuer validates the signing configuration. A misconfigured key is a
// startup failure, never a per-request one.
func NewTokenIssuer(cfg TokenConfig) (*JWTIssuer, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, errors.New("token issuer: access and refresh secrets are required")
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		return nil, errors.New("token issuer: access and refresh secrets must differ")
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = defaultAccessTTL
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = defaultRefreshTTL
	}
	return &JWTIssuer{
		accessKey:  []byte(cfg.AccessSecret),
		refreshKey: []byte(cfg.RefreshSecret),
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		issuer:     cfg.Issuer,
		now:        time.Now,
	}, nil
}

// IssuePair returns a fresh access + refresh token for p.
func (j *JWTIssuer) IssuePair(p domain.Principal) (domain.TokenPair, error) {
	access, accessExp, err := j.sign(p, domain.TokenAccess)
	if err != nil {
		return domain.TokenPair{}, err
	}
	refresh, refreshExp, err := j.sign(p, domain.TokenRefresh)
	if err != nil {
		return domain.TokenPair{}, err
	}
	return domain.TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// IssueAccess returns an access token only. Used for admin sessions.
func (j *JWTIssuer) IssueAccess(p domain.Principal) (string, time.Time, error) {
	return j.sign(p, domain.TokenAccess)
}

// ParseAccess verifies an access token and returns its principal.
func (j *JWTIssuer) ParseAccess(token string) (*domain.Principal, error) {
	p, _, err := j.parse(token, domain.TokenAccess)
	return p, err
}

// ParseRefresh verifies a refresh token. Only user principals ever hold one.
func (j *JWTIssuer) ParseRefresh(token string) (*domain.Principal, time.Time, error) {
	p, exp, err := j.parse(token, domain.TokenRefresh)
	if err != nil {
		return nil, time.Time{}, err
	}
	if p.Type != domain.PrincipalUser {
		return nil, time.Time{}, domain.ErrInvalidToken
	}
	return p, exp, nil
}

func (j *JWTIssuer) sign(p domain.Principal, typ domain.TokenType) (string, time.Time, error) {
	now := j.now().UTC()
	ttl, key := j.accessTTL, j.accessKey
	if typ == domain.TokenRefresh {
		ttl, key = j.refreshTTL, j.refreshKey
	}
	exp := now.Add(ttl).Truncate(time.Second)

	claims := tokenClaims{
		Mobile:        p.Mobile,
		Role:          p.Role,
		Type:          typ,
		PrincipalType: p.Type,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.ID,
			Issuer:    j.issuer,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign %s token: %w", typ, err)
	}
	return signed, exp, nil
}

func (j *JWTIssuer) parse(token string, want domain.TokenType) (*domain.Principal, time.Time, error) {
	key := j.accessKey
	if want == domain.TokenRefresh {
		key = j.refreshKey
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(j.now),
	}
	if j.issuer != "" {
		opts = append(opts, jwt.WithIssuer(j.issuer))
	}

	var claims tokenClaims
	tkn, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return key, nil
	}, opts...)
	if err != nil || !tkn.Valid {
		return nil, time.Time{}, domain.ErrInvalidToken
	}

	if claims.Type != want || claims.Subject == "" {
		return nil, time.Time{}, domain.ErrInvalidToken
	}
	if claims.PrincipalType != domain.PrincipalUser && claims.PrincipalType != domain.PrincipalAdmin {
		return nil, time.Time{}, domain.ErrInvalidToken
	}

	return &domain.Principal{
		ID:     claims.Subject,
		Mobile: claims.Mobile,
		Role:   claims.Role,
		Type:   claims.PrincipalType,
	}, claims.ExpiresAt.Time, nil
}

// HashToken is the ledger key for a refresh token. Raw tokens are never stored.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
