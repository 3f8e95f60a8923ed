package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"pricetool/internal/fx"
)

// Cache events reported through OnEvent.
const (
	EventHit        = "hit"
	EventMiss       = "miss"
	EventStale      = "stale"
	EventInvalidate = "invalidate"
)

// entry stores one cached rate with expiry.
type entry struct {
	expiresAt time.Time
	rate      fx.Rate
}

// Source caches rates per currency for a TTL.
// It requests only missing currencies from the underlying source and combines
// cached + fresh results. When the upstream fails, expired entries are served
// as stale fallback rather than failing the whole call. Concurrent refreshes
// of the same currency set are coalesced.
type Source struct {
	S   fx.Source
	TTL time.Duration

	// OnEvent, when set, receives cache events for metrics.
	OnEvent func(event string)

	mu    sync.RWMutex
	items map[string]entry
	sf    singleflight.Group
}

func (c *Source) Name() string { return c.S.Name() }

func (c *Source) event(e string) {
	if c.OnEvent != nil {
		c.OnEvent(e)
	}
}

// Invalidate drops cached entries for the given currencies so the next Fetch
// goes upstream. An empty list drops everything.
func (c *Source) Invalidate(currencies []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(currencies) == 0 {
		c.items = nil
	} else {
		for _, cur := range currencies {
			delete(c.items, cur)
		}
	}
	c.event(EventInvalidate)
}

// Fetch returns rates for the requested currencies using cache when valid.
func (c *Source) Fetch(ctx context.Context, currencies []string) ([]fx.Rate, error) {
	if c.S == nil || c.TTL <= 0 {
		return c.S.Fetch(ctx, currencies)
	}

	now := time.Now()

	cached := make(map[string]fx.Rate, len(currencies))
	missing := make([]string, 0, len(currencies))

	c.mu.RLock()
	for _, cur := range currencies {
		if e, ok := c.items[cur]; ok && now.Before(e.expiresAt) {
			cached[cur] = e.rate
			continue
		}
		missing = appendUnique(missing, cur)
	}
	c.mu.RUnlock()

	if len(missing) == 0 {
		c.event(EventHit)
		return ordered(currencies, cached), nil
	}
	c.event(EventMiss)

	key := strings.Join(missing, ",")
	v, err, _ := c.sf.Do(key, func() (any, error) {
		return c.S.Fetch(ctx, missing)
	})
	if err != nil {
		// Upstream failed: fall back to expired entries where we have them.
		stale := c.staleFor(missing)
		if len(cached) == 0 && len(stale) == 0 {
			return nil, err
		}
		if len(stale) > 0 {
			c.event(EventStale)
		}
		for cur, r := range stale {
			cached[cur] = r
		}
		return ordered(currencies, cached), nil
	}

	fresh := v.([]fx.Rate)
	expiry := now.Add(c.TTL)
	c.mu.Lock()
	if c.items == nil {
		c.items = make(map[string]entry, len(fresh))
	}
	for _, r := range fresh {
		c.items[r.Currency] = entry{expiresAt: expiry, rate: r}
		cached[r.Currency] = r
	}
	c.mu.Unlock()

	return ordered(currencies, cached), nil
}

// staleFor returns expired entries for the given currencies, if any survive.
func (c *Source) staleFor(currencies []string) map[string]fx.Rate {
	out := make(map[string]fx.Rate)
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, cur := range currencies {
		if e, ok := c.items[cur]; ok {
			out[cur] = e.rate
		}
	}
	return out
}

// ordered flattens the currency->rate map preserving request order, skipping
// currencies we could not resolve.
func ordered(currencies []string, m map[string]fx.Rate) []fx.Rate {
	out := make([]fx.Rate, 0, len(m))
	seen := make(map[string]struct{}, len(currencies))
	for _, cur := range currencies {
		if _, dup := seen[cur]; dup {
			continue
		}
		seen[cur] = struct{}{}
		if r, ok := m[cur]; ok {
			out = append(out, r)
		}
	}
	return out
}

func appendUnique(s []string, v string) []string {
	for _, x := range s {
		if x == v {
			return s
		}
	}
	return append(s, v)
}
