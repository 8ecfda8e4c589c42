package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	JWT          JWTConfig
	Auth         AuthConfig
	Verification VerificationConfig
	Mongo        MongoConfig
	Redis        RedisConfig
	SMS          SMSConfig
	RateLimit    RateLimitConfig
	Admin        AdminConfig
}

type JWTConfig struct {
	Secret         string        `env:"JWT_SECRET"`
	ExpiresIn      time.Duration `env:"JWT_EXPIRES_IN,         default=15m"`
	RefreshSecret  string        `env:"JWT_REFRESH_SECRET"`
	RefreshExpires time.Duration `env:"JWT_REFRESH_EXPIRES_IN, default=720h"`
	Issuer         string        `env:"JWT_ISSUER,             default=vetconsult"`
}

type AuthConfig struct {
	BcryptCost           int  `env:"BCRYPT_SALT_ROUNDS,          default=12"`
	ConcealUnknownMobile bool `env:"AUTH_CONCEAL_UNKNOWN_MOBILE, default=false"`
}

type VerificationConfig struct {
	CodeLength     int           `env:"VERIFICATION_CODE_LENGTH,     default=6"`
	TTL            time.Duration `env:"VERIFICATION_CODE_TTL,        default=5m"`
	MaxAttempts    int           `env:"VERIFICATION_MAX_ATTEMPTS,    default=5"`
	ResendInterval time.Duration `env:"VERIFICATION_RESEND_INTERVAL, default=60s"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017/?replicaSet=rs0"`
	Database string `env:"MONGO_DB,  default=vetconsult"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

// SMSConfig configures Twilio. With an empty FromNumber messages are only
// logged.
type SMSConfig struct {
	Workers    int    `env:"SMS_WORKERS,        default=4"`
	AccountSID string `env:"TWILIO_ACCOUNT_SID"`
	AuthToken  string `env:"TWILIO_AUTH_TOKEN"`
	FromNumber string `env:"TWILIO_FROM_NUMBER"`
}

type RateLimitConfig struct {
	Enabled        bool          `env:"RATE_LIMIT_ENABLED,         default=true"`
	Capacity       int           `env:"RATE_LIMIT_CAPACITY,        default=10"`
	RefillInterval time.Duration `env:"RATE_LIMIT_REFILL_INTERVAL, default=6s"`
}

// AdminConfig is read by cmd/admin-init only.
type AdminConfig struct {
	Email    string `env:"ADMIN_EMAIL"`
	Password string `env:"ADMIN_PASSWORD"`
}

// IsProduction reports whether ENV is "production".
func (c *Config) IsProduction() bool { return c.Env == "production" }

// Validate rejects configurations the server must not start with.
func (c *Config) Validate() error {
	if c.JWT.Secret == "" || c.JWT.RefreshSecret == "" {
		return errors.New("JWT_SECRET and JWT_REFRESH_SECRET are required")
	}
	if c.JWT.Secret == c.JWT.RefreshSecret {
		return errors.New("JWT_SECRET and JWT_REFRESH_SECRET must differ")
	}
	if c.JWT.ExpiresIn <= 0 || c.JWT.RefreshExpires <= c.JWT.ExpiresIn {
		return fmt.Errorf("invalid token lifetimes: access %s, refresh %s", c.JWT.ExpiresIn, c.JWT.RefreshExpires)
	}
	return nil
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	cfg, err := LoadWith(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

// LoadWith resolves variables through l, which lets tests pass a map.
func LoadWith(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, err
	}
	return &cfg, nil
}
