package fx

import (
	"context"
	"time"
)

// Supported display currencies. TWD is the base and never needs a rate.
const (
	TWD = "TWD"
	USD = "USD"
	EUR = "EUR"
	JPY = "JPY"
)

// Rate is a TWD quote for one unit of a foreign currency.
type Rate struct {
	Currency   string    `json:"currency"`
	TWDPerUnit float64   `json:"rate"`
	Source     string    `json:"source"`
	FetchedAt  time.Time `json:"fetched_at"`
}

// Source fetches TWD rates for the requested currencies.
// A source returns the subset it could determine; missing currencies are
// simply absent from the result. An error is returned only when nothing
// usable was fetched.
type Source interface {
	Name() string
	Fetch(ctx context.Context, currencies []string) ([]Rate, error)
}
