package ecb

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"time"

	"pricetool/internal/httpx"
)

// Client fetches the daily EUR-base reference rate table from the public XML
// feed. Values are units of each currency per 1 EUR.
type Client struct {
	cfg    Config
	client *httpx.Client
}

type Config struct {
	URL     string
	Headers map[string]string
}

func New(cfg Config, hc *httpx.Client) *Client {
	if cfg.URL == "" {
		cfg.URL = "https://www.ecb.europa.eu/stats/eurofxref/eurofxref-daily.xml"
	}
	return &Client{cfg: cfg, client: hc}
}

// envelope models just the Cube nesting we need from the feed.
type envelope struct {
	Cube struct {
		Day struct {
			Time  string     `xml:"time,attr"`
			Rates []cubeRate `xml:"Cube"`
		} `xml:"Cube"`
	} `xml:"Cube"`
}

type cubeRate struct {
	Currency string  `xml:"currency,attr"`
	Rate     float64 `xml:"rate,attr"`
}

// ReferenceRates returns the EUR-base table and the feed's publication date.
func (c *Client) ReferenceRates(ctx context.Context) (map[string]float64, time.Time, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.URL, http.NoBody)
	if err != nil {
		return nil, time.Time{}, err
	}
	req.Header.Set("Accept", "application/xml")
	for k, v := range c.cfg.Headers {
		req.Header.Set(k, v)
	}
	resp, err := c.client.Do(ctx, req)
	if err != nil {
		return nil, time.Time{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, time.Time{}, fmt.Errorf("GET %s -> %d", c.cfg.URL, resp.StatusCode)
	}

	var env envelope
	if err := xml.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, time.Time{}, fmt.Errorf("decode reference rates: %w", err)
	}
	if len(env.Cube.Day.Rates) == 0 {
		return nil, time.Time{}, fmt.Errorf("reference feed carried no rates")
	}

	out := make(map[string]float64, len(env.Cube.Day.Rates))
	for _, r := range env.Cube.Day.Rates {
		if r.Currency == "" || r.Rate <= 0 {
			continue
		}
		out[r.Currency] = r.Rate
	}

	day, err := time.Parse("2006-01-02", env.Cube.Day.Time)
	if err != nil {
		day = time.Now().UTC()
	}
	return out, day, nil
}
