package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/haulscale/weighbridge/internal/core/domain"
	"github.com/haulscale/weighbridge/internal/core/policy"
	"github.com/haulscale/weighbridge/internal/pkg/metrics"
)

// Guard enforces a route's precomputed policy. On allow it records whether
// downstream queries must be confined to the caller's company.
func Guard(p policy.Policy, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, err := RequireIdentity(c)
			if err != nil {
				return err
			}
			d := p.Decide(id)
			if !d.Allowed {
				metrics.GuardDenialsTotal.WithLabelValues(string(id.Role)).Inc()
				log.Warn().
					Str("user_id", id.UserID).
					Str("role", string(id.Role)).
					Str("method", c.Request().Method).
					Str("path", c.Request().URL.Path).
					Msg("access denied")
				return echo.NewHTTPError(http.StatusForbidden, d.Message)
			}
			c.Set(companyRestrictedKey, id.CompanyRestricted())
			return next(c)
		}
	}
}

// RequireRoles admits only the listed roles. The super-admin is always admitted.
func RequireRoles(roles ...domain.Role) echo.MiddlewareFunc {
	allowed := make(map[domain.Role]struct{}, len(roles)+1)
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	allowed[domain.RoleSuperAdmin] = struct{}{}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, err := RequireIdentity(c)
			if err != nil {
				return err
			}
			if _, ok := allowed[id.Role]; !ok {
				metrics.GuardDenialsTotal.WithLabelValues(string(id.Role)).Inc()
				return echo.NewHTTPError(http.StatusForbidden, policy.InsufficientPrivileges)
			}
			return next(c)
		}
	}
}
