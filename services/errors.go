package services

import (
	"errors"
	"fmt"

	"flamematch_server/storage"
)

var (
	// ErrUnauthenticated means no resolvable actor (missing/invalid token or no profile).
	// HTTP 401.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrNotFound means target profile or match does not exist. HTTP 404.
	ErrNotFound = errors.New("not found")

	// ErrForbidden means the actor is not a participant of the match. HTTP 403.
	ErrForbidden = errors.New("forbidden")

	// ErrQuotaExceeded means the daily like or super-like counter is exhausted. HTTP 429.
	ErrQuotaExceeded = errors.New("quota exceeded")

	// ErrInvalidArgument means malformed or out-of-range input. HTTP 400.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrTransient means the backing store or broker failed. Reads may be retried,
	// writes are not retried automatically. HTTP 503.
	ErrTransient = errors.New("transient failure")
)

// storeErr translates a storage error into the service taxonomy.
func storeErr(op string, err error) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	case errors.Is(err, storage.ErrQuotaExhausted):
		return fmt.Errorf("%s: %w", op, ErrQuotaExceeded)
	default:
		return fmt.Errorf("%s: %w: %v", op, ErrTransient, err)
	}
}

func invalidArg(op, format string, args ...any) error {
	return fmt.Errorf("%s: %w: %s", op, ErrInvalidArgument, fmt.Sprintf(format, args...))
}
