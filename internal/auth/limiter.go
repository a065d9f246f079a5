package auth

import (
	"context"
	"time"
)

// AttemptStore persists login attempts across restarts.
type AttemptStore interface {
	RecordLoginAttempt(ctx context.Context, identifier string) error
	CountRecentLoginAttempts(ctx context.Context, identifier string, window time.Duration) (int, error)
}

// Limiter rejects logins for an identifier after too many failed attempts
// within a rolling window. The window simply elapses; there is no
// permanent lockout.
type Limiter struct {
	store       AttemptStore
	maxAttempts int
	window      time.Duration
}

// NewLimiter creates a limiter backed by the given attempt store.
func NewLimiter(store AttemptStore, maxAttempts int, window time.Duration) *Limiter {
	return &Limiter{store: store, maxAttempts: maxAttempts, window: window}
}

// IsAllowed reports whether the identifier may attempt a login. Unknown
// identifiers are never limited. A store failure fails open: blocking all
// logins on a database hiccup would lock the single user out entirely.
func (l *Limiter) IsAllowed(ctx context.Context, identifier string) bool {
	if identifier == "" || identifier == "unknown" {
		return true
	}
	count, err := l.store.CountRecentLoginAttempts(ctx, identifier, l.window)
	if err != nil {
		return true
	}
	return count < l.maxAttempts
}

// Remaining returns how many attempts the identifier has left.
func (l *Limiter) Remaining(ctx context.Context, identifier string) int {
	if identifier == "" || identifier == "unknown" {
		return l.maxAttempts
	}
	count, err := l.store.CountRecentLoginAttempts(ctx, identifier, l.window)
	if err != nil {
		return l.maxAttempts
	}
	remaining := l.maxAttempts - count
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}

// RecordAttempt logs a failed login for the identifier.
func (l *Limiter) RecordAttempt(ctx context.Context, identifier string) {
	if identifier == "" || identifier == "unknown" {
		return
	}
	_ = l.store.RecordLoginAttempt(ctx, identifier)
}

// Window returns the rolling window length, for user-facing lockout
// messages.
func (l *Limiter) Window() time.Duration {
	return l.window
}
