package ratelimit

import (
	"context"
	"sync"
	"time"

	"pricetool/internal/fx"
)

// MinInterval wraps a source and enforces a minimum time between upstream
// calls. Concurrent calls wait until the interval has elapsed since the last
// call, or return early if the context is canceled. Used to stay polite to
// public rate pages when the cache is being explicitly refreshed.
type MinInterval struct {
	S        fx.Source
	Interval time.Duration

	mu   sync.Mutex
	last time.Time
}

func (m *MinInterval) Name() string { return m.S.Name() }

func (m *MinInterval) Fetch(ctx context.Context, currencies []string) ([]fx.Rate, error) {
	if m.Interval > 0 {
		m.mu.Lock()
		wait := time.Until(m.last.Add(m.Interval))
		m.mu.Unlock()
		if wait > 0 {
			t := time.NewTimer(wait)
			defer t.Stop()
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-t.C:
			}
		}
	}
	rates, err := m.S.Fetch(ctx, currencies)
	if m.Interval > 0 {
		m.mu.Lock()
		m.last = time.Now()
		m.mu.Unlock()
	}
	return rates, err
}
