package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"pricetool/internal/api"
	"pricetool/internal/config"
	"pricetool/internal/fx"
	"pricetool/internal/fx/bot"
	"pricetool/internal/fx/cache"
	"pricetool/internal/fx/composite"
	"pricetool/internal/fx/ecb"
	"pricetool/internal/fx/quotes"
	"pricetool/internal/fx/ratelimit"
	"pricetool/internal/httpx"
	"pricetool/internal/metrics"
)

func main() {
	cfg := config.MustLoad()

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if lvl, err := zerolog.ParseLevel(cfg.Log.Level); err == nil {
		logger = logger.Level(lvl)
	}

	m := metrics.New()
	timeout := time.Duration(cfg.Server.RequestTimeoutSec) * time.Second
	httpClient := httpx.New(timeout)

	sources := buildSources(cfg, httpClient, m, logger)
	if len(sources) == 0 {
		logger.Fatal().Msg("no rate sources enabled; check bank/reference/quotes config")
	}

	h := api.NewHandler(sources, cfg.Pricing.DefaultUSDRate, timeout, m, logger)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.RequestID())
	e.Use(middleware.Recover())
	e.Use(middleware.Gzip())
	e.Use(middleware.CORS())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:     true,
		LogStatus:  true,
		LogMethod:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger.Info().
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("request")
			return nil
		},
	}))

	h.Register(e)
	h.RegisterWeb(e)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	go func() {
		logger.Info().Str("port", cfg.Server.Port).Msg("server listening")
		if err := e.Start(":" + cfg.Server.Port); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server")
		}
	}()

	// graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = e.Shutdown(shutdownCtx)
}

// buildSources assembles the enabled rate sources, each behind its own TTL
// cache. Order matters: the merge favors later sources on timestamp ties, so
// the bank board goes last.
func buildSources(cfg *config.Config, hc *httpx.Client, m *metrics.Metrics, logger zerolog.Logger) []fx.Source {
	ttl := time.Duration(cfg.Cache.TTLSec) * time.Second
	var sources []fx.Source

	if cfg.Reference.Enabled && cfg.Quotes.Enabled {
		feed := ecb.New(ecb.Config{URL: cfg.Reference.URL}, hc)
		qopts := []quotes.ClientOption{quotes.WithHTTPClient(hc.HTTP)}
		if cfg.Quotes.BaseURL != "" {
			qopts = append(qopts, quotes.WithBaseURL(cfg.Quotes.BaseURL))
		}
		qc, err := quotes.NewClient(cfg.Quotes.APIKey, qopts...)
		if err != nil {
			logger.Fatal().Err(err).Msg("quotes client")
		}
		var s fx.Source = composite.New(composite.Config{}, feed, qc)
		s = &cache.Source{S: s, TTL: ttl, OnEvent: m.RecordCacheEvent}
		sources = append(sources, s)
	} else if cfg.Reference.Enabled || cfg.Quotes.Enabled {
		logger.Warn().Msg("composite source needs both reference feed and quotes API enabled; skipping")
	}

	if cfg.Bank.Enabled {
		var s fx.Source = bot.New(bot.Config{URL: cfg.Bank.URL}, hc)
		// Prefer token bucket with burst if RPM is set, otherwise min-interval.
		if cfg.Bank.MaxRPM > 0 {
			rate := float64(cfg.Bank.MaxRPM) / 60.0
			burst := cfg.Bank.Burst
			if burst <= 0 {
				burst = 1
			}
			s = &ratelimit.TokenBucketSource{S: s, TB: ratelimit.NewTokenBucket(rate, burst)}
		} else if cfg.Bank.MinIntervalSec > 0 {
			s = &ratelimit.MinInterval{S: s, Interval: time.Duration(cfg.Bank.MinIntervalSec) * time.Second}
		}
		s = &cache.Source{S: s, TTL: ttl, OnEvent: m.RecordCacheEvent}
		sources = append(sources, s)
	}

	return sources
}
