package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/vetconsult/auth-api/internal/core/domain"
)

// PrincipalKey is the echo context key holding the *domain.Principal.
const PrincipalKey = "principal"

// AccessVerifier is the part of the token issuer the middleware needs.
type AccessVerifier interface {
	ParseAccess(token string) (*domain.Principal, error)
}

// Auth validates the bearer access token and attaches the principal to the
// context. Refresh tokens and tokens signed with any other key are rejected.
func Auth(verifier AccessVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			p, err := verifier.ParseAccess(strings.TrimSpace(parts[1]))
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			c.Set(PrincipalKey, p)
			c.Set("user_id", p.ID)
			c.Set("role", p.Role)

			return next(c)
		}
	}
}

// PrincipalFrom returns the principal attached by Auth, or nil.
func PrincipalFrom(c echo.Context) *domain.Principal {
	p, _ := c.Get(PrincipalKey).(*domain.Principal)
	return p
}

// RequirePrincipal restricts a route to the given principal types, so an
// admin token cannot call user routes and vice versa.
func RequirePrincipal(types ...domain.PrincipalType) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p := PrincipalFrom(c)
			if p == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
			}
			for _, t := range types {
				if p.Type == t {
					return next(c)
				}
			}
			return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
		}
	}
}
