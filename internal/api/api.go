package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"pricetool/internal/fx"
	"pricetool/internal/metrics"
	"pricetool/internal/pricing"
)

// defaultTargetRatio drives the headline KPI when the client sends none.
var defaultTargetRatio = decimal.RequireFromString("0.20")

var supported = map[string]bool{fx.TWD: true, fx.USD: true, fx.EUR: true, fx.JPY: true}

// Refresher is implemented by cached sources that support explicit refresh.
type Refresher interface {
	Invalidate(currencies []string)
}

// Handler serves the rates and pricing endpoints.
type Handler struct {
	// sources in priority order: later entries win timestamp ties, so the
	// bank board goes last.
	sources        []fx.Source
	defaultUSDRate float64
	timeout        time.Duration
	metrics        *metrics.Metrics
	log            zerolog.Logger
}

func NewHandler(sources []fx.Source, defaultUSDRate float64, timeout time.Duration, m *metrics.Metrics, log zerolog.Logger) *Handler {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Handler{
		sources:        sources,
		defaultUSDRate: defaultUSDRate,
		timeout:        timeout,
		metrics:        m,
		log:            log,
	}
}

// Register wires the handler's routes onto the echo instance.
func (h *Handler) Register(e *echo.Echo) {
	e.GET("/healthz", h.Health)
	e.GET("/api/rates", h.Rates)
	e.GET("/api/table", h.Table)
	e.POST("/api/table", h.Table)
}

func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "pricetool",
		"time":    time.Now().Format(time.RFC3339),
	})
}

type rateRow struct {
	Currency  string     `json:"currency"`
	Rate      float64    `json:"rate"`
	Source    string     `json:"source,omitempty"`
	FetchedAt *time.Time `json:"fetched_at,omitempty"`
	Fallback  bool       `json:"fallback,omitempty"`
}

type ratesResponse struct {
	Rates    []rateRow `json:"rates"`
	Warnings []string  `json:"warnings,omitempty"`
}

// Rates returns TWD rates for the requested currencies. Source failures are
// never fatal: unresolved currencies come back flagged as fallback values
// with a warning, and the status stays 200.
func (h *Handler) Rates(c echo.Context) error {
	currencies := splitCSV(c.QueryParam("currencies"))
	if len(currencies) == 0 {
		currencies = []string{fx.USD}
	}
	for _, cur := range currencies {
		if !supported[cur] {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("unsupported currency %q", cur)})
		}
	}

	if refresh := c.QueryParam("refresh"); refresh == "1" || strings.EqualFold(refresh, "true") {
		for _, s := range h.sources {
			if r, ok := s.(Refresher); ok {
				r.Invalidate(currencies)
			}
		}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	fetched := h.fetchAll(ctx, currencies)
	best := make(map[string]fx.Rate, len(fetched))
	for _, r := range fx.BestByCurrency(fetched) {
		best[r.Currency] = r
	}

	resp := ratesResponse{Rates: make([]rateRow, 0, len(currencies))}
	for _, cur := range currencies {
		if cur == fx.TWD {
			resp.Rates = append(resp.Rates, rateRow{Currency: fx.TWD, Rate: 1, Source: "base"})
			continue
		}
		if r, ok := best[cur]; ok {
			at := r.FetchedAt
			resp.Rates = append(resp.Rates, rateRow{Currency: cur, Rate: r.TWDPerUnit, Source: r.Source, FetchedAt: &at})
			continue
		}
		row := rateRow{Currency: cur, Fallback: true}
		if cur == fx.USD && h.defaultUSDRate > 0 {
			row.Rate = h.defaultUSDRate
			resp.Warnings = append(resp.Warnings, fmt.Sprintf("%s rate unavailable, using default %.1f", cur, h.defaultUSDRate))
		} else {
			row.Rate = 1
			resp.Warnings = append(resp.Warnings, fmt.Sprintf("%s rate unavailable, displaying TWD amounts 1:1", cur))
		}
		h.log.Warn().Str("currency", cur).Msg("rate unavailable, falling back")
		resp.Rates = append(resp.Rates, row)
	}
	return c.JSON(http.StatusOK, resp)
}

// fetchAll fans out to every source and flattens results preserving source
// priority order. Individual failures are logged and dropped.
func (h *Handler) fetchAll(ctx context.Context, currencies []string) []fx.Rate {
	foreign := make([]string, 0, len(currencies))
	for _, cur := range currencies {
		if cur != fx.TWD {
			foreign = append(foreign, cur)
		}
	}
	if len(foreign) == 0 {
		return nil
	}

	results := make([][]fx.Rate, len(h.sources))
	var wg sync.WaitGroup
	for i, s := range h.sources {
		wg.Add(1)
		go func(i int, s fx.Source) {
			defer wg.Done()
			start := time.Now()
			rates, err := s.Fetch(ctx, foreign)
			if h.metrics != nil {
				h.metrics.RecordFetch(s.Name(), time.Since(start), err)
			}
			if err != nil {
				h.log.Warn().Err(err).Str("source", s.Name()).Msg("rate fetch failed")
				return
			}
			results[i] = rates
		}(i, s)
	}
	wg.Wait()

	var all []fx.Rate
	for _, rs := range results {
		all = append(all, rs...)
	}
	return all
}

type tableRequest struct {
	Cost        float64  `query:"cost" json:"cost"`
	Currency    string   `query:"currency" json:"currency"`
	Rate        float64  `query:"rate" json:"rate"`
	Quantity    int64    `query:"quantity" json:"quantity"`
	TargetRatio *float64 `query:"target_ratio" json:"target_ratio"`
}

type tableResponse struct {
	CostTWD decimal.Decimal `json:"cost_twd"`
	Rows    []pricing.Row   `json:"rows"`
	KPI     pricing.KPI     `json:"kpi"`
}

// Table computes the candidate price table and headline KPI. Invalid inputs
// produce a validation warning instead of a computation.
func (h *Handler) Table(c echo.Context) error {
	var req tableRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request payload"})
	}
	if req.Currency == "" {
		req.Currency = fx.TWD
	}
	if !supported[req.Currency] {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("unsupported currency %q", req.Currency)})
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	target := defaultTargetRatio
	if req.TargetRatio != nil {
		target = decimal.NewFromFloat(*req.TargetRatio)
	}

	in := pricing.Input{
		Cost:     decimal.NewFromFloat(req.Cost),
		Currency: req.Currency,
		Rate:     decimal.NewFromFloat(req.Rate),
		Quantity: req.Quantity,
	}

	table, err := pricing.Compute(in)
	if err != nil {
		if h.metrics != nil {
			h.metrics.RecordPricing("invalid")
		}
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	kpi, err := pricing.KPIFor(in, target)
	if err != nil {
		if h.metrics != nil {
			h.metrics.RecordPricing("invalid")
		}
		if errors.Is(err, pricing.ErrInvalidRatio) {
			return c.JSON(http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	if h.metrics != nil {
		h.metrics.RecordPricing("ok")
	}
	return c.JSON(http.StatusOK, tableResponse{CostTWD: table.CostTWD, Rows: table.Rows, KPI: kpi})
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
