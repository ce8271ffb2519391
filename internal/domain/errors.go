package domain

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrBadRequest   = errors.New("bad request")

	// Magic-link verification outcomes. AlreadyUsed and Expired are safe to
	// report verbatim: the caller already holds the token, so neither leaks
	// account existence.
	ErrAlreadyUsed   = errors.New("link already used")
	ErrExpired       = errors.New("link expired")
	ErrEmailMismatch = errors.New("email mismatch")

	// ErrRateLimited carries a retry-after hint via the handler layer.
	ErrRateLimited = errors.New("rate limited")

	// ErrQuotaExceeded means the account's plan does not allow another claim.
	ErrQuotaExceeded = errors.New("claim quota exceeded")
)

// RateLimitError carries the window reset time so the transport layer can
// emit a Retry-After header. errors.Is(err, ErrRateLimited) matches it.
type RateLimitError struct {
	ResetAt time.Time
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited until %s", e.ResetAt.UTC().Format(time.RFC3339))
}

func (e *RateLimitError) Unwrap() error { return ErrRateLimited }
