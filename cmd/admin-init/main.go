package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"

	"github.com/vetconsult/auth-api/internal/core/domain"
	"github.com/vetconsult/auth-api/internal/core/service"
	"github.com/vetconsult/auth-api/internal/infrastructure/config"
	mongodb "github.com/vetconsult/auth-api/internal/infrastructure/db/mongo"
	"github.com/vetconsult/auth-api/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: true, Service: "vetconsult-admin-init"})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		log.Fatal().Err(err).Msg("mongo connection failed")
	}
	defer func() { _ = client.Disconnect(context.Background()) }()

	admins := mongodb.NewAdminRepository(db)
	if err := admins.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("index creation failed")
	}

	created, err := service.SeedSuperAdmin(ctx, admins, service.NewBcryptHasher(cfg.Auth.BcryptCost), cfg.Admin.Email, cfg.Admin.Password)
	if errors.Is(err, domain.ErrValidation) {
		log.Fatal().Msg("ADMIN_EMAIL and ADMIN_PASSWORD (6+ chars) are required")
	}
	if err != nil {
		log.Fatal().Err(err).Msg("admin seed failed")
	}
	if !created {
		log.Info().Str("email", cfg.Admin.Email).Msg("admin already exists, nothing to do")
		return
	}

	fmt.Println("admin init completed")
}
