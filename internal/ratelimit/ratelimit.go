// Package ratelimit implements the per-worker politeness delay.
//
// Every crawl worker owns one Limiter. Before each fetch the worker calls
// WaitTurn, which blocks until a freshly sampled uniform(min, max) delay has
// passed since the worker's previous turn. Limiters are never shared, so
// there is no coordination between workers.
package ratelimit

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"golang.org/x/time/rate"
)

// Default delay bounds, matching a human-paced browsing session.
const (
	DefaultMinDelay = 3 * time.Second
	DefaultMaxDelay = 6 * time.Second
)

// Limiter paces one worker.
// It is backed by a burst-1 token bucket whose refill interval is
// re-sampled after every turn.
type Limiter struct {
	minDelay time.Duration
	maxDelay time.Duration
	limiter  *rate.Limiter
	rng      *rand.Rand
	turns    int
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithRand sets the random source used for jitter.
// Tests use a seeded source for reproducible delays.
func WithRand(rng *rand.Rand) Option {
	return func(l *Limiter) {
		l.rng = rng
	}
}

// New creates a Limiter with delays drawn uniformly from [minDelay, maxDelay].
// If maxDelay is less than minDelay the bounds are swapped. Negative bounds
// are treated as zero; a zero range disables waiting entirely.
func New(minDelay, maxDelay time.Duration, opts ...Option) *Limiter {
	minDelay = max(minDelay, 0)
	maxDelay = max(maxDelay, 0)
	if maxDelay < minDelay {
		minDelay, maxDelay = maxDelay, minDelay
	}

	l := &Limiter{
		minDelay: minDelay,
		maxDelay: maxDelay,
	}
	for _, opt := range opts {
		opt(l)
	}

	// The bucket starts full so the first turn never waits.
	l.limiter = rate.NewLimiter(rate.Every(l.sample()), 1)
	return l
}

// WaitTurn blocks until this worker may fetch again.
// It returns the context error if ctx is cancelled first; in that case the
// turn is not consumed.
func (l *Limiter) WaitTurn(ctx context.Context) error {
	if err := l.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}
	l.turns++
	l.limiter.SetLimit(rate.Every(l.sample()))
	return nil
}

// Turns returns how many turns have been granted.
func (l *Limiter) Turns() int {
	return l.turns
}

// Bounds returns the configured delay range.
func (l *Limiter) Bounds() (minDelay, maxDelay time.Duration) {
	return l.minDelay, l.maxDelay
}

// sample draws the next delay. rate.Every maps zero to an unlimited rate.
func (l *Limiter) sample() time.Duration {
	span := int64(l.maxDelay - l.minDelay)
	if span <= 0 {
		return l.minDelay
	}
	var n int64
	if l.rng != nil {
		n = l.rng.Int64N(span + 1)
	} else {
		n = rand.Int64N(span + 1)
	}
	return l.minDelay + time.Duration(n)
}
