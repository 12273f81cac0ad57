// Package ratelimit paces calls to third-party quote APIs.
package ratelimit

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/fd1az/swap-router/internal/apperror"
)

// Limiter is a token bucket for one upstream API.
type Limiter struct {
	name string
	lim  *rate.Limiter
}

// PerMinute allows n calls a minute with a burst of a tenth of that, at least
// one. n <= 0 means unlimited.
func PerMinute(name string, n int) *Limiter {
	if n <= 0 {
		return &Limiter{name: name, lim: rate.NewLimiter(rate.Inf, 0)}
	}
	return &Limiter{name: name, lim: rate.NewLimiter(rate.Limit(float64(n)/60), max(n/10, 1))}
}

// New allows rps calls a second with the given burst.
func New(name string, rps float64, burst int) *Limiter {
	return &Limiter{name: name, lim: rate.NewLimiter(rate.Limit(rps), burst)}
}

// Wait blocks for a token. When ctx ends first, or its deadline comes before
// the next token, the call is reported as rate limited.
func (l *Limiter) Wait(ctx context.Context) error {
	if err := l.lim.Wait(ctx); err != nil {
		return apperror.New(apperror.CodeRateLimitExceeded,
			apperror.WithContext(l.name), apperror.WithCause(err))
	}
	return nil
}

// Allow takes a token if one is available now.
func (l *Limiter) Allow() bool {
	return l.lim.Allow()
}
