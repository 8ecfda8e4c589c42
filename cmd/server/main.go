// @title           VetConsult Auth API
// @version         1.0
// @description     Authentication and session management for the veterinary tele-consult platform.
// @BasePath        /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	_ "github.com/vetconsult/auth-api/docs"
	"github.com/vetconsult/auth-api/internal/api"
	"github.com/vetconsult/auth-api/internal/api/metrics"
	"github.com/vetconsult/auth-api/internal/api/middleware"
	"github.com/vetconsult/auth-api/internal/core/service"
	"github.com/vetconsult/auth-api/internal/infrastructure/config"
	mongodb "github.com/vetconsult/auth-api/internal/infrastructure/db/mongo"
	redisdb "github.com/vetconsult/auth-api/internal/infrastructure/db/redis"
	"github.com/vetconsult/auth-api/internal/infrastructure/queue"
	"github.com/vetconsult/auth-api/internal/infrastructure/sms"
	"github.com/vetconsult/auth-api/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "vetconsult-auth",
	})
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		log.Fatal().Err(err).Msg("mongo connection failed")
	}
	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}

	users := mongodb.NewUserRepository(mongoClient, db)
	admins := mongodb.NewAdminRepository(db)
	pets := mongodb.NewPetRepository(db)
	ledger := mongodb.NewTokenRepository(mongoClient, db)
	if err := mongodb.EnsureIndexes(ctx, users, admins, pets, ledger); err != nil {
		log.Fatal().Err(err).Msg("index creation failed")
	}

	issuer, err := service.NewTokenIssuer(service.TokenConfig{
		AccessSecret:  cfg.JWT.Secret,
		RefreshSecret: cfg.JWT.RefreshSecret,
		AccessTTL:     cfg.JWT.ExpiresIn,
		RefreshTTL:    cfg.JWT.RefreshExpires,
		Issuer:        cfg.JWT.Issuer,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("token issuer")
	}
	hasher := service.NewBcryptHasher(cfg.Auth.BcryptCost)

	notifier := sms.NewTwilioNotifier(sms.Config{
		AccountSID: cfg.SMS.AccountSID,
		AuthToken:  cfg.SMS.AuthToken,
		FromNumber: cfg.SMS.FromNumber,
	}, logger.Component("sms"))

	dispatcher := queue.NewDispatcher(cfg.SMS.Workers, notifier, logger.Component("sms_queue"))
	dispatcher.OnResult(metrics.ObserveSMS)
	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	dispatcher.Start(workerCtx)

	codes := service.NewVerificationService(
		redisdb.NewVerificationStore(rdb),
		notifier,
		dispatcher,
		service.VerificationConfig{
			CodeLength:     cfg.Verification.CodeLength,
			TTL:            cfg.Verification.TTL,
			MaxAttempts:    cfg.Verification.MaxAttempts,
			ResendInterval: cfg.Verification.ResendInterval,
		},
		logger.Component("verification"),
	)

	authService := service.NewAuthService(service.AuthDeps{
		Users:        users,
		Pets:         pets,
		Ledger:       ledger,
		Verification: codes,
		Tokens:       issuer,
		Hasher:       hasher,
	}, service.AuthConfig{ConcealUnknownMobile: cfg.Auth.ConcealUnknownMobile}, logger.Component("auth"))

	adminService := service.NewAdminService(admins, users, pets, issuer, hasher, logger.Component("admin"))

	e := api.NewRouter(api.Deps{
		AuthService:  authService,
		AdminService: adminService,
		Tokens:       issuer,
		DB:           db,
		Redis:        rdb,
		Logger:       log,
		RateLimit: middleware.RateLimitConfig{
			Enabled:        cfg.RateLimit.Enabled,
			Capacity:       cfg.RateLimit.Capacity,
			RefillInterval: cfg.RateLimit.RefillInterval,
		},
	})

	go func() {
		addr := ":" + cfg.Port
		log.Info().Str("addr", addr).Str("env", cfg.Env).Msg("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	cancelWorkers()
	if err := mongoClient.Disconnect(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("mongo disconnect")
	}
	if err := rdb.Close(); err != nil {
		log.Error().Err(err).Msg("redis close")
	}
}
