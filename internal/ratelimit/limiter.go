// Package ratelimit enforces the per-identity issuance ceiling for
// sensitive operations (magic-link requests). The backend is selected once
// at startup: the in-memory limiter is correct for a single instance and for
// tests; multi-instance deployments use the DynamoDB-backed limiter so the
// ceiling holds across processes.
package ratelimit

import (
	"context"
	"time"
)

// Limiter answers whether identity may perform one more action in the
// current fixed window. When denied, resetAt says when the window rolls over
// so callers can report a retry-after hint.
type Limiter interface {
	Allow(ctx context.Context, identity string) (allowed bool, resetAt time.Time, err error)
}
