package domain

import "errors"

// ErrUnauthenticated is the parent of every authentication failure. Each of
// the specific errors below satisfies errors.Is(err, ErrUnauthenticated).
var ErrUnauthenticated = errors.New("authentication failed")

var (
	ErrNoToken         = authError("authentication required")
	ErrInvalidToken    = authError("invalid or expired token")
	ErrUserNotFound    = authError("user not found")
	ErrInactiveAccount = authError("account is inactive")
)

var (
	ErrForbidden         = errors.New("access forbidden")
	ErrNotFound          = errors.New("resource not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrConflict          = errors.New("resource already exists")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrDuplicateTicket   = errors.New("weigh ticket already recorded")
)

type authenticationError struct {
	msg string
}

func authError(msg string) error { return &authenticationError{msg: msg} }

func (e *authenticationError) Error() string { return e.msg }

func (e *authenticationError) Is(target error) bool { return target == ErrUnauthenticated }
