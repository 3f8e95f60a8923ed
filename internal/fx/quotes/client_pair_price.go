package quotes

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"net/http"
	"time"
)

// PairPrice retrieves the latest price of one unit of base in quote currency.
func (c *Client) PairPrice(ctx context.Context, base, quote string, opts ...ClientOption) (float64, time.Time, error) {
	var override = &Client{
		baseURL:    c.baseURL,
		httpClient: c.httpClient,
		header:     c.header.Clone(),
		query:      c.query,
	}
	for _, opt := range opts {
		opt(override)
	}

	query := maps.Clone(override.query)
	query.Add("base", base)
	query.Add("symbols", quote)

	url := fmt.Sprintf("%s/v1/latest?%s", override.baseURL, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header = override.header

	res, err := override.httpClient.Do(req)
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("performing request: %w", err)
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
		break

	case http.StatusBadRequest:
		return 0, time.Time{}, fmt.Errorf("bad request for pair %s/%s", base, quote)

	case http.StatusForbidden:
		return 0, time.Time{}, fmt.Errorf("unauthorized")

	case http.StatusTooManyRequests:
		return 0, time.Time{}, fmt.Errorf("rate limited")

	default:
		return 0, time.Time{}, fmt.Errorf("unexpected status code: %d", res.StatusCode)
	}

	var body map[string]any
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return 0, time.Time{}, fmt.Errorf("decoding quote response: %w", err)
	}

	// The price sits at rates.<quote> in the response document.
	ratesVal, ok := body["rates"]
	if !ok || ratesVal == nil {
		return 0, time.Time{}, fmt.Errorf("response has no rates object")
	}
	rates, ok := ratesVal.(map[string]any)
	if !ok {
		return 0, time.Time{}, fmt.Errorf("unexpected rates type: %T", ratesVal)
	}
	priceVal, ok := rates[quote]
	if !ok || priceVal == nil {
		return 0, time.Time{}, fmt.Errorf("response has no rate for %s", quote)
	}
	price, ok := priceVal.(float64)
	if !ok || price <= 0 {
		return 0, time.Time{}, fmt.Errorf("unusable rate for %s: %v", quote, priceVal)
	}

	ts := time.Now().UTC()
	if dateVal, ok := body["date"].(string); ok {
		if day, err := time.Parse("2006-01-02", dateVal); err == nil {
			ts = day
		}
	}
	return price, ts, nil
}
