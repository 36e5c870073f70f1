// Package ratelimit provides token-bucket admission control for
// external data providers.
package ratelimit

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// Limiter is a token bucket with capacity Burst and refill rate Limit
// tokens/second. Tokens are replenished lazily from elapsed time; there
// is no background timer. Safe for concurrent use. Limiters are plain
// values constructed once and passed into each client rather than held
// as package globals, so tests get isolated instances.
type Limiter struct {
	bucket *rate.Limiter
}

// New creates a limiter admitting limit requests/second with the given
// burst capacity. A burst of 0 is raised to 1 so Acquire can make
// progress.
func New(limit float64, burst int) *Limiter {
	if burst < 1 {
		burst = 1
	}
	return &Limiter{bucket: rate.NewLimiter(rate.Limit(limit), burst)}
}

// Acquire blocks until one admission unit is available, then returns.
// It only fails when ctx is cancelled or the deadline cannot be met.
func (l *Limiter) Acquire(ctx context.Context) error {
	if err := l.bucket.Wait(ctx); err != nil {
		return eris.Wrap(err, "ratelimit: acquire")
	}
	return nil
}

// AllowAt reports whether one admission unit is available at time t,
// consuming it if so. It exists so admission accounting can be tested
// against synthetic clocks without sleeping.
func (l *Limiter) AllowAt(t time.Time) bool {
	return l.bucket.AllowN(t, 1)
}

// Limit returns the configured refill rate in tokens/second.
func (l *Limiter) Limit() float64 {
	return float64(l.bucket.Limit())
}

// Burst returns the bucket capacity.
func (l *Limiter) Burst() int {
	return l.bucket.Burst()
}
