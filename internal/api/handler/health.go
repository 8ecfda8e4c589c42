package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	serviceName      = "vetconsult-auth"
	readinessTimeout = 3 * time.Second
)

var errNotConfigured = errors.New("not configured")

// HealthHandler answers the orchestrator's liveness check. It touches no
// dependency, so a Mongo or Redis outage never restarts the pod.
type HealthHandler struct{}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

type livenessResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// Liveness
//
// @Summary      Process is up
// @Tags         health
// @Produce      json
// @Success      200  {object}  livenessResponse
// @Router       /health [get]
func (h *HealthHandler) Liveness(c echo.Context) error {
	return c.JSON(http.StatusOK, livenessResponse{Status: "ok", Service: serviceName})
}

// Pinger is satisfied by *redis.Client.
type Pinger interface {
	Ping(ctx context.Context) *redis.StatusCmd
}

// HealthDependenciesHandler reports whether the auth API can serve traffic.
// Mongo holds users, pets, admins and the refresh ledger; Redis holds
// verification codes and rate limit buckets. Either one down fails the check.
type HealthDependenciesHandler struct {
	checks []dependencyCheck
}

type dependencyCheck struct {
	name string
	ping func(ctx context.Context) error
}

func NewHealthDependenciesHandler(db *mongo.Database, rdb Pinger) *HealthDependenciesHandler {
	mongoPing := func(context.Context) error { return errNotConfigured }
	if db != nil {
		mongoPing = func(ctx context.Context) error {
			return db.RunCommand(ctx, bson.D{{Key: "ping", Value: 1}}).Err()
		}
	}
	redisPing := func(context.Context) error { return errNotConfigured }
	if rdb != nil {
		redisPing = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}

	return &HealthDependenciesHandler{checks: []dependencyCheck{
		{name: "mongodb", ping: mongoPing},
		{name: "redis", ping: redisPing},
	}}
}

type dependencyStatus struct {
	Status    string `json:"status"`
	LatencyMS int64  `json:"latencyMs"`
	Error     string `json:"error,omitempty"`
}

type readinessResponse struct {
	Status       string                      `json:"status"`
	Dependencies map[string]dependencyStatus `json:"dependencies"`
}

// Readiness
//
// @Summary      Mongo and Redis are reachable
// @Tags         health
// @Produce      json
// @Success      200  {object}  readinessResponse
// @Failure      503  {object}  readinessResponse
// @Router       /health/ready [get]
func (h *HealthDependenciesHandler) Readiness(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), readinessTimeout)
	defer cancel()

	resp := readinessResponse{Status: "ok", Dependencies: make(map[string]dependencyStatus, len(h.checks))}
	code := http.StatusOK

	for _, chk := range h.checks {
		start := time.Now()
		err := chk.ping(ctx)
		st := dependencyStatus{Status: "ok", LatencyMS: time.Since(start).Milliseconds()}
		if err != nil {
			st.Status, st.Error = "unhealthy", err.Error()
			resp.Status, code = "degraded", http.StatusServiceUnavailable
		}
		resp.Dependencies[chk.name] = st
	}

	return c.JSON(code, resp)
}
