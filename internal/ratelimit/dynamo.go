package ratelimit

import (
	"context"
	"time"
)

// CounterStore is the storage contract the durable limiter needs; satisfied
// by dynamo.RateLimitRepo.
type CounterStore interface {
	Take(ctx context.Context, identity string, ceiling int, window time.Duration) (bool, time.Time, error)
}

// DynamoLimiter delegates the check-and-count to conditional updates on a
// shared table, so the ceiling is enforced across all instances.
type DynamoLimiter struct {
	store   CounterStore
	ceiling int
	period  time.Duration
}

func NewDynamoLimiter(store CounterStore, ceiling int, period time.Duration) *DynamoLimiter {
	return &DynamoLimiter{store: store, ceiling: ceiling, period: period}
}

func (l *DynamoLimiter) Allow(ctx context.Context, identity string) (bool, time.Time, error) {
	return l.store.Take(ctx, identity, l.ceiling, l.period)
}
