package config

import (
	"context"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
)

func TestLoadWith_Defaults(t *testing.T) {
	cfg, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{}))
	if err != nil {
		t.Fatalf("LoadWith: %v", err)
	}

	if cfg.Port != "8080" {
		t.Fatalf("expected port 8080, got %q", cfg.Port)
	}
	if cfg.JWT.ExpiresIn != 15*time.Minute || cfg.JWT.RefreshExpires != 720*time.Hour {
		t.Fatalf("unexpected token lifetimes: %s / %s", cfg.JWT.ExpiresIn, cfg.JWT.RefreshExpires)
	}
	if cfg.Auth.BcryptCost != 12 {
		t.Fatalf("expected bcrypt cost 12, got %d", cfg.Auth.BcryptCost)
	}
	if cfg.Verification.MaxAttempts != 5 || cfg.Verification.ResendInterval != time.Minute {
		t.Fatalf("unexpected verification defaults: %+v", cfg.Verification)
	}
	if cfg.Auth.ConcealUnknownMobile {
		t.Fatalf("conceal flag must default to false")
	}
}

func TestLoadWith_Overrides(t *testing.T) {
	cfg, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET":                  "a",
		"JWT_REFRESH_SECRET":          "b",
		"JWT_EXPIRES_IN":              "5m",
		"AUTH_CONCEAL_UNKNOWN_MOBILE": "true",
		"REDIS_PASSWORD":              "pw",
		"RATE_LIMIT_CAPACITY":         "3",
	}))
	if err != nil {
		t.Fatalf("LoadWith: %v", err)
	}
	if cfg.JWT.ExpiresIn != 5*time.Minute || !cfg.Auth.ConcealUnknownMobile || cfg.Redis.Password != "pw" || cfg.RateLimit.Capacity != 3 {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		jwt  JWTConfig
	}{
		{"missing secrets", JWTConfig{ExpiresIn: time.Minute, RefreshExpires: time.Hour}},
		{"shared secret", JWTConfig{Secret: "s", RefreshSecret: "s", ExpiresIn: time.Minute, RefreshExpires: time.Hour}},
		{"refresh shorter than access", JWTConfig{Secret: "a", RefreshSecret: "b", ExpiresIn: time.Hour, RefreshExpires: time.Minute}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{JWT: tt.jwt}
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}
