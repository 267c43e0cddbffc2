package llm

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// quotaGate enforces a rolling per-minute call budget. Once the budget is
// exhausted the caller is suspended until the window resets; requests are
// never rejected. The clock and sleep functions are injectable for tests.
type quotaGate struct {
	now         func() time.Time
	sleep       func(ctx context.Context, d time.Duration) error
	windowStart time.Time
	window      time.Duration
	limit       int
	used        int
	mu          sync.Mutex
}

// newQuotaGate creates a gate allowing perMinute calls per rolling window.
func newQuotaGate(perMinute int) *quotaGate {
	if perMinute <= 0 {
		perMinute = 15
	}
	g := &quotaGate{
		limit:  perMinute,
		window: time.Minute,
		now:    time.Now,
		sleep:  sleepCtx,
	}
	g.windowStart = g.now()
	return g
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// acquire blocks until the current window has budget, then consumes one call.
func (g *quotaGate) acquire(ctx context.Context) error {
	for {
		g.mu.Lock()
		now := g.now()
		if now.Sub(g.windowStart) >= g.window {
			g.windowStart = now
			g.used = 0
		}
		if g.used < g.limit {
			g.used++
			g.mu.Unlock()
			return nil
		}
		wait := g.windowStart.Add(g.window).Sub(now)
		g.mu.Unlock()

		if err := g.sleep(ctx, wait); err != nil {
			return fmt.Errorf("quota wait canceled: %w", err)
		}
	}
}

// remaining reports the unused budget in the current window.
func (g *quotaGate) remaining() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.now().Sub(g.windowStart) >= g.window {
		return g.limit
	}
	return g.limit - g.used
}
