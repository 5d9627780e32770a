// Package guard enforces the per-identity request quota over a trailing
// time window.
package guard

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// CounterStore is the slice of the store the guard needs: one increment and
// one count, both atomic at the store level. No transactional coupling
// between the two is assumed.
type CounterStore interface {
	LogRequest(ctx context.Context, identity string) error
	CountRequests(ctx context.Context, identity string, since time.Time) (int, error)
}

// Guard counts requests per client identity within a sliding window and
// rejects the excess. Every inbound request is counted, whether or not it is
// ultimately served; entries age out as the window slides.
type Guard struct {
	store       CounterStore
	window      time.Duration
	maxRequests int
	devMode     bool
}

// New creates a Guard. In devMode requests are still counted and logged but
// never rejected.
func New(store CounterStore, window time.Duration, maxRequests int, devMode bool) *Guard {
	return &Guard{
		store:       store,
		window:      window,
		maxRequests: maxRequests,
		devMode:     devMode,
	}
}

// Window returns the configured window, used to phrase cooldown messages.
func (g *Guard) Window() time.Duration { return g.window }

// Admit decides whether a request from identity may proceed, and counts it
// either way. Counting failures fail open: an unreachable store must not
// take the whole service down with it.
func (g *Guard) Admit(ctx context.Context, identity string) bool {
	since := time.Now().Add(-g.window)

	count, err := g.store.CountRequests(ctx, identity, since)
	if err != nil {
		zap.L().Warn("guard: count failed, admitting",
			zap.String("identity", identity),
			zap.Error(err),
		)
		count = 0
	}

	if err := g.store.LogRequest(ctx, identity); err != nil {
		zap.L().Warn("guard: request log failed",
			zap.String("identity", identity),
			zap.Error(err),
		)
	}

	if g.devMode {
		return true
	}

	if count >= g.maxRequests {
		zap.L().Info("guard: rate limited",
			zap.String("identity", identity),
			zap.Int("count", count),
			zap.Int("max", g.maxRequests),
		)
		return false
	}
	return true
}
