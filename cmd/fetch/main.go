package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"pricetool/internal/config"
	"pricetool/internal/fx"
	"pricetool/internal/fx/bot"
	"pricetool/internal/fx/composite"
	"pricetool/internal/fx/ecb"
	"pricetool/internal/fx/quotes"
	"pricetool/internal/httpx"
)

func main() {
	var currenciesCSV string
	var timeoutSec int

	flag.StringVar(&currenciesCSV, "currencies", getenv("CURRENCIES", "USD"), "comma-separated currency codes (USD,EUR,JPY)")
	flag.IntVar(&timeoutSec, "timeout", 0, "request timeout seconds (overrides config)")
	flag.Parse()

	cfg := config.MustLoad()
	if timeoutSec > 0 {
		cfg.Server.RequestTimeoutSec = timeoutSec
	}

	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	currencies := splitCSV(currenciesCSV)
	if len(currencies) == 0 {
		logger.Fatal().Msg("no currencies provided")
	}

	timeout := time.Duration(cfg.Server.RequestTimeoutSec) * time.Second
	httpClient := httpx.New(timeout)

	var sources []fx.Source
	if cfg.Reference.Enabled && cfg.Quotes.Enabled {
		feed := ecb.New(ecb.Config{URL: cfg.Reference.URL}, httpClient)
		qopts := []quotes.ClientOption{quotes.WithHTTPClient(httpClient.HTTP)}
		if cfg.Quotes.BaseURL != "" {
			qopts = append(qopts, quotes.WithBaseURL(cfg.Quotes.BaseURL))
		}
		qc, err := quotes.NewClient(cfg.Quotes.APIKey, qopts...)
		if err != nil {
			logger.Fatal().Err(err).Msg("quotes client")
		}
		sources = append(sources, composite.New(composite.Config{}, feed, qc))
	}
	if cfg.Bank.Enabled {
		sources = append(sources, bot.New(bot.Config{URL: cfg.Bank.URL}, httpClient))
	}
	if len(sources) == 0 {
		logger.Fatal().Msg("no rate sources enabled")
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	type result struct {
		name  string
		rates []fx.Rate
		err   error
	}
	ch := make(chan result, len(sources))
	var wg sync.WaitGroup
	for _, s := range sources {
		wg.Add(1)
		go func(s fx.Source) {
			defer wg.Done()
			rates, err := s.Fetch(ctx, currencies)
			ch <- result{name: s.Name(), rates: rates, err: err}
		}(s)
	}
	wg.Wait()
	close(ch)

	var all []fx.Rate
	for r := range ch {
		if r.err != nil {
			logger.Warn().Err(r.err).Str("source", r.name).Msg("fetch failed")
			continue
		}
		logger.Info().Str("source", r.name).Int("rates", len(r.rates)).Msg("fetched")
		all = append(all, r.rates...)
	}
	if len(all) == 0 {
		logger.Fatal().Msg("no rates received")
	}

	out := struct {
		Rates []fx.Rate `json:"rates"`
	}{Rates: fx.BestByCurrency(all)}
	b, _ := json.MarshalIndent(out, "", "  ")
	fmt.Println(string(b))
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToUpper(strings.TrimSpace(p))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
