package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/haulscale/weighbridge/internal/core/domain"
	"github.com/haulscale/weighbridge/internal/core/ports"
	"github.com/haulscale/weighbridge/internal/pkg/metrics"
)

// APIKeyHeader carries the scale integration key.
const APIKeyHeader = "X-API-Key"

// Authenticate resolves the caller of a route of the given family and stores
// the identity on the context. Failures are returned unchanged so the error
// handler renders them.
func Authenticate(authn ports.Authenticator, family domain.TenantKind) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			id, err := authn.Authenticate(c.Request().Context(), header, family)
			if err != nil {
				metrics.AuthFailuresTotal.WithLabelValues(failureReason(err)).Inc()
				return err
			}
			SetIdentity(c, id)
			return next(c)
		}
	}
}

// APIKey authenticates a scale integration by its X-API-Key header.
func APIKey(keys ports.APIKeyAuthenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := c.Request().Header.Get(APIKeyHeader)
			if key == "" {
				metrics.AuthFailuresTotal.WithLabelValues("api_key").Inc()
				return domain.ErrNoToken
			}
			id, err := keys.AuthenticateKey(c.Request().Context(), key)
			if err != nil {
				metrics.AuthFailuresTotal.WithLabelValues("api_key").Inc()
				return err
			}
			SetIdentity(c, id)
			return next(c)
		}
	}
}

// RequireIdentity fails fast when a handler is reached without an identity
// on the context.
func RequireIdentity(c echo.Context) (domain.Identity, error) {
	id, ok := IdentityFrom(c)
	if !ok || id.UserID == "" {
		return domain.Identity{}, echo.NewHTTPError(http.StatusUnauthorized, "Authentication required")
	}
	return id, nil
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrNoToken):
		return "no_token"
	case errors.Is(err, domain.ErrInvalidToken):
		return "invalid_token"
	case errors.Is(err, domain.ErrUserNotFound):
		return "user_not_found"
	case errors.Is(err, domain.ErrInactiveAccount):
		return "inactive"
	default:
		return "error"
	}
}
