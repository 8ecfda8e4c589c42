package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/vetconsult/auth-api/internal/core/domain"
)

func setupLimiter(t *testing.T, capacity int) (*miniredis.Miniredis, echo.HandlerFunc) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	mw := RateLimit(RateLimitConfig{Enabled: true, Capacity: capacity, RefillInterval: time.Minute}, rdb, zerolog.Nop())
	return mr, mw(func(c echo.Context) error { return c.NoContent(http.StatusOK) })
}

func callLimited(h echo.HandlerFunc, ip string) (*httptest.ResponseRecorder, error) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	req.Header.Set(echo.HeaderXRealIP, ip)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/auth/login")
	return rec, h(c)
}

func TestRateLimit_BlocksAfterCapacity(t *testing.T) {
	_, h := setupLimiter(t, 2)

	for i := 0; i < 2; i++ {
		rec, err := callLimited(h, "10.0.0.1")
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec, err := callLimited(h, "10.0.0.1")
	require.True(t, errors.Is(err, domain.ErrTooManyRequests))
	require.NotEmpty(t, rec.Header().Get("Retry-After"))
	require.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))

	rec, err = callLimited(h, "10.0.0.2")
	require.NoError(t, err, "buckets are per client IP")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimit_FailsOpen(t *testing.T) {
	mr, h := setupLimiter(t, 1)
	mr.Close()

	for i := 0; i < 3; i++ {
		rec, err := callLimited(h, "10.0.0.1")
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestRateLimit_Disabled(t *testing.T) {
	h := RateLimit(RateLimitConfig{Enabled: false}, nil, zerolog.Nop())(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	rec, err := callLimited(h, "10.0.0.1")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, rec.Code)
}
