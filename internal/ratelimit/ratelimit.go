package ratelimit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// CounterStore is the shared key-value counter the limiter runs on.
// Implemented by the redis cache in production and by an in-memory map
// in tests.
type CounterStore interface {
	GetCount(ctx context.Context, key string) (int64, error)
	IncrCount(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

// Budget is the number of requests allowed per fixed window.
type Budget struct {
	Limit  int
	Window time.Duration
}

// Decision is the outcome of a rate-limit check.
type Decision struct {
	Allowed   bool
	Remaining int
	ResetTime time.Time
}

// Limiter implements fixed-window rate limiting over a shared counter
// store. The check is a read-then-increment pair without a transactional
// guard; a concurrent burst from one identity can over-admit slightly,
// which is acceptable here. A window-boundary burst can likewise reach
// up to twice the budget.
type Limiter struct {
	store CounterStore
	now   func() time.Time
}

// NewLimiter creates a Limiter over the given counter store.
// Parameters:
//   - store: shared counter store.
// Returns:
//   - *Limiter: initialized limiter.
func NewLimiter(store CounterStore) *Limiter {
	return &Limiter{store: store, now: time.Now}
}

// Key composes the window-scoped counter key:
// ratelimit:{scope}:{identity}:{tier}:{window-index}.
func Key(scope, identity, tier string, windowIndex int64) string {
	return fmt.Sprintf("ratelimit:%s:%s:%s:%d", scope, identity, tier, windowIndex)
}

// WindowIndex returns the fixed-window bucket index for t.
func WindowIndex(t time.Time, window time.Duration) int64 {
	return t.UnixMilli() / window.Milliseconds()
}

// Allow checks and charges one request against the budget.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - scope: "anon" or "user".
//   - identity: user ID or hashed client IP.
//   - tier: quality tier the request is charged to.
//   - budget: per-window request budget.
// Returns:
//   - Decision: whether the request is admitted, the remaining budget,
//     and when the current window resets.
//   - error: non-nil if the counter store fails.
func (l *Limiter) Allow(ctx context.Context, scope, identity, tier string, budget Budget) (Decision, error) {
	now := l.now()
	idx := WindowIndex(now, budget.Window)
	key := Key(scope, identity, tier, idx)
	reset := time.UnixMilli((idx + 1) * budget.Window.Milliseconds())

	count, err := l.store.GetCount(ctx, key)
	if err != nil {
		return Decision{}, err
	}
	if count >= int64(budget.Limit) {
		return Decision{Allowed: false, Remaining: 0, ResetTime: reset}, nil
	}

	newCount, err := l.store.IncrCount(ctx, key, reset.Sub(now))
	if err != nil {
		return Decision{}, err
	}

	remaining := budget.Limit - int(newCount)
	if remaining < 0 {
		remaining = 0
	}
	return Decision{Allowed: true, Remaining: remaining, ResetTime: reset}, nil
}

// HashIdentity hashes a raw identity string (typically a client IP) so
// it can be used as a cache key without storing the address itself.
func HashIdentity(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:16])
}
