package composite

import (
	"context"
	"fmt"
	"time"

	"pricetool/internal/fx"
	"pricetool/internal/fx/quotes"
)

// ReferenceFeed supplies a EUR-base reference rate table.
type ReferenceFeed interface {
	ReferenceRates(ctx context.Context) (map[string]float64, time.Time, error)
}

// PairQuoter supplies a single cross rate.
type PairQuoter interface {
	PairPrice(ctx context.Context, base, quote string, opts ...quotes.ClientOption) (float64, time.Time, error)
}

type Config struct {
	Name string
}

// Source derives TWD rates by composing the EUR-base reference table with a
// single USD->TWD cross rate:
//
//	TWD/USD = cross quote
//	TWD/EUR = TWD/USD * (USD per EUR)
//	TWD/JPY = TWD/EUR / (JPY per EUR)
//
// Each upstream leg is independently fallible; the source returns whatever
// subset of the requested currencies is still derivable.
type Source struct {
	cfg    Config
	feed   ReferenceFeed
	quoter PairQuoter
}

func New(cfg Config, feed ReferenceFeed, quoter PairQuoter) *Source {
	if cfg.Name == "" {
		cfg.Name = "Composite"
	}
	return &Source{cfg: cfg, feed: feed, quoter: quoter}
}

func (s *Source) Name() string { return s.cfg.Name }

func (s *Source) Fetch(ctx context.Context, currencies []string) ([]fx.Rate, error) {
	want := make(map[string]bool, len(currencies))
	for _, cur := range currencies {
		want[cur] = true
	}

	var firstErr error
	keepErr := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	usdTWD, usdAt, err := s.quoter.PairPrice(ctx, fx.USD, fx.TWD)
	keepErr(err)
	haveCross := err == nil && usdTWD > 0

	var table map[string]float64
	if want[fx.EUR] || want[fx.JPY] {
		var terr error
		table, _, terr = s.feed.ReferenceRates(ctx)
		keepErr(terr)
	}

	out := make([]fx.Rate, 0, 3)
	add := func(cur string, v float64) {
		out = append(out, fx.Rate{
			Currency:   cur,
			TWDPerUnit: v,
			Source:     s.cfg.Name,
			FetchedAt:  usdAt,
		})
	}

	if haveCross {
		if want[fx.USD] {
			add(fx.USD, usdTWD)
		}
		usdPerEUR := table[fx.USD]
		if usdPerEUR > 0 {
			twdPerEUR := usdTWD * usdPerEUR
			if want[fx.EUR] {
				add(fx.EUR, twdPerEUR)
			}
			if jpyPerEUR := table[fx.JPY]; want[fx.JPY] && jpyPerEUR > 0 {
				add(fx.JPY, twdPerEUR/jpyPerEUR)
			}
		}
	}

	if len(out) == 0 {
		if firstErr != nil {
			return nil, firstErr
		}
		return nil, fmt.Errorf("%s: nothing derivable for %v", s.cfg.Name, currencies)
	}
	return out, nil
}
