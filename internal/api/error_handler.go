package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/haulscale/weighbridge/internal/core/domain"
	"github.com/haulscale/weighbridge/internal/core/policy"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Msg string `json:"msg"`
}

// Client-facing messages. Internal details never reach the response.
const (
	msgAuthRequired    = "Authentication required"
	msgInvalidToken    = "Invalid or expired token"
	msgUserNotFound    = "User not found"
	msgInactiveAccount = "Account is inactive"
	msgNotFound        = "Resource not found"
	msgConflict        = "Resource already exists"
	msgDuplicateTicket = "Weigh ticket already recorded"
	msgInternal        = "Internal server error"
)

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"msg": "<message>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, errorResponse{Msg: msg})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (bind failures, unknown routes, guard refusals).
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if he.Internal != nil {
			log.Debug().Err(he.Internal).Str("path", c.Path()).Msg("request rejected")
		}
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized, authMessage(err)
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, policy.InsufficientPrivileges
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, msgNotFound
	case errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusUnprocessableEntity, clientMessage(err)
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, clientMessage(err)
	case errors.Is(err, domain.ErrDuplicateTicket):
		return http.StatusConflict, msgDuplicateTicket
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, msgConflict
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
		Msg("unhandled error")

	return http.StatusInternalServerError, msgInternal
}

func authMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidToken):
		return msgInvalidToken
	case errors.Is(err, domain.ErrUserNotFound):
		return msgUserNotFound
	case errors.Is(err, domain.ErrInactiveAccount):
		return msgInactiveAccount
	default:
		return msgAuthRequired
	}
}

// clientMessage strips the operation prefixes services add while wrapping,
// keeping the sentinel and its detail: "create driver: invalid input: x" ->
// "invalid input: x".
func clientMessage(err error) string {
	msg := err.Error()
	for _, sentinel := range []error{domain.ErrInvalidInput, domain.ErrInvalidTransition} {
		if i := strings.Index(msg, sentinel.Error()); i >= 0 {
			return msg[i:]
		}
	}
	return msg
}
