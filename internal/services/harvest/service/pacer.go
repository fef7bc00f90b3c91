package service

import (
	"context"
	"time"

	"verifiedorgs/internal/services/harvest/domain"

	"golang.org/x/time/rate"
)

// DefaultPaceInterval keeps one credential under 5000 authenticated calls an hour
const DefaultPaceInterval = 720 * time.Millisecond

// Pacing policy names accepted in configuration
const (
	PacingFixed   = "fixed"
	PacingLimiter = "limiter"
)

// sleep waits d or until ctx ends; a seam for tests
var sleep = func(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Fixed sleeps a constant delay on every call
type Fixed struct{ Delay time.Duration }

var _ domain.Pacer = Fixed{}

// Pace blocks for Delay or until ctx ends
func (f Fixed) Pace(ctx context.Context) error { return sleep(ctx, f.Delay) }

// Limiter is a token bucket: at most Burst fetches back to back, then one per interval
type Limiter struct{ l *rate.Limiter }

var _ domain.Pacer = (*Limiter)(nil)

// NewLimiter builds a token bucket pacer
func NewLimiter(interval time.Duration, burst int) *Limiter {
	return &Limiter{l: rate.NewLimiter(rate.Every(interval), max(1, burst))}
}

// Pace blocks until a token is available or ctx ends
func (l *Limiter) Pace(ctx context.Context) error { return l.l.Wait(ctx) }

// PacerFactory returns a constructor for per-worker pacers of the named policy
func PacerFactory(kind string, interval time.Duration, burst int) func() domain.Pacer {
	if interval <= 0 {
		interval = DefaultPaceInterval
	}
	if kind == PacingLimiter {
		return func() domain.Pacer { return NewLimiter(interval, burst) }
	}
	return func() domain.Pacer { return Fixed{Delay: interval} }
}
