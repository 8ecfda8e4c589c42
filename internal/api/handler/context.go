package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vetconsult/auth-api/internal/api/middleware"
	"github.com/vetconsult/auth-api/internal/core/domain"
	"github.com/vetconsult/auth-api/internal/core/ports"
)

// ctxPrincipal extracts the principal injected by the Auth middleware. Its
// absence means the route was mounted without Auth.
func ctxPrincipal(c echo.Context) (*domain.Principal, error) {
	p := middleware.PrincipalFrom(c)
	if p == nil || p.ID == "" {
		return nil, domain.ErrUnauthenticated
	}
	return p, nil
}

// clientInfo is attached to security audit logs.
func clientInfo(c echo.Context) ports.ClientInfo {
	return ports.ClientInfo{
		IP:        c.RealIP(),
		UserAgent: c.Request().UserAgent(),
	}
}

// bindAndValidate decodes the body into req and runs struct validation.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	return c.Validate(req)
}
