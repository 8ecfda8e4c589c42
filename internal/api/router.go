package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/vetconsult/auth-api/internal/api/handler"
	"github.com/vetconsult/auth-api/internal/api/middleware"
	"github.com/vetconsult/auth-api/internal/core/domain"
	"github.com/vetconsult/auth-api/internal/core/ports"
)

// Deps is everything the HTTP layer needs from main.
type Deps struct {
	AuthService  ports.AuthService
	AdminService ports.AdminService
	Tokens       middleware.AccessVerifier
	DB           *mongo.Database
	Redis        *redis.Client
	Logger       zerolog.Logger
	RateLimit    middleware.RateLimitConfig
	// Registry receives the HTTP request metrics and backs /metrics. Nil
	// means the Prometheus default registry.
	Registry *prometheus.Registry
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Logger))
	e.Use(echoprometheus.NewMiddlewareWithConfig(promConfig(d.Registry)))

	authHandler := handler.NewAuthHandler(d.AuthService)
	adminHandler := handler.NewAdminHandler(d.AdminService)

	limit := middleware.RateLimit(d.RateLimit, d.Redis, d.Logger)
	authn := middleware.Auth(d.Tokens)
	userOnly := middleware.RequirePrincipal(domain.PrincipalUser)
	adminOnly := middleware.RequirePrincipal(domain.PrincipalAdmin)

	// --- Auth routes ---
	auth := e.Group("/auth")
	auth.POST("/register", authHandler.Register, limit)
	auth.POST("/resend-verification", authHandler.ResendVerification, limit)
	auth.POST("/verify-registration", authHandler.VerifyRegistration, limit)
	auth.POST("/login", authHandler.Login, limit)
	auth.POST("/refresh", authHandler.Refresh, limit)
	auth.POST("/forgot-password", authHandler.ForgotPassword, limit)
	auth.POST("/reset-password", authHandler.ResetPassword, limit)

	auth.POST("/logout", authHandler.Logout, authn, userOnly)
	auth.POST("/logout-all", authHandler.LogoutAll, authn, userOnly)
	auth.GET("/me", authHandler.Me, authn, userOnly)
	auth.PATCH("/me", authHandler.UpdateProfile, authn, userOnly)
	auth.PATCH("/change-password", authHandler.ChangePassword, authn, userOnly)

	// --- Admin routes ---
	admin := e.Group("/admin")
	admin.POST("/auth/login", adminHandler.Login, limit)
	admin.GET("/auth/me", adminHandler.Me, authn, adminOnly)

	admin.PATCH("/users/:id/status", adminHandler.SetUserStatus,
		authn, adminOnly, middleware.RBAC(domain.RoleAdmin, domain.RoleSuperAdmin))
	admin.DELETE("/users/:id", adminHandler.DeleteUser,
		authn, adminOnly, middleware.RBAC(domain.RoleSuperAdmin))

	// --- Health checks (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(d.DB, d.Redis)

	e.GET("/health", healthHandler.Liveness)            // liveness: is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness: are Mongo and Redis up?

	e.GET("/metrics", promHandler(d.Registry))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

func promConfig(reg *prometheus.Registry) echoprometheus.MiddlewareConfig {
	cfg := echoprometheus.MiddlewareConfig{Subsystem: "vetconsult"}
	if reg != nil {
		cfg.Registerer = reg
	}
	return cfg
}

func promHandler(reg *prometheus.Registry) echo.HandlerFunc {
	if reg == nil {
		return echoprometheus.NewHandler()
	}
	return echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: reg})
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogMethod:    true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			evt := log.Info()
			if v.Error != nil {
				evt = log.Warn().Err(v.Error)
			}
			evt.
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Str("remote_ip", v.RemoteIP).
				Msg("request")
			return nil
		},
	})
}
