package bot

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"pricetool/internal/fx"
	"pricetool/internal/httpx"
)

// spotSellColumn is the cell index of the "spot sell" rate on the board.
// Brittle by construction: the board exposes no API, only markup.
const spotSellColumn = 4

// nativeLabels maps ISO codes to the native-language labels printed in the
// bank's rate rows.
var nativeLabels = map[string]string{
	fx.USD: "美元",
	fx.EUR: "歐元",
	fx.JPY: "日圓",
}

// Config controls the Bank of Taiwan board scraper.
type Config struct {
	Name    string
	URL     string
	Headers map[string]string
}

// Source scrapes spot-sell TWD rates from the bank's public rate board.
type Source struct {
	cfg    Config
	client *httpx.Client
}

func New(cfg Config, hc *httpx.Client) *Source {
	if cfg.Name == "" {
		cfg.Name = "BankOfTaiwan"
	}
	if cfg.URL == "" {
		cfg.URL = "https://rate.bot.com.tw/xrt?Lang=zh-TW"
	}
	return &Source{cfg: cfg, client: hc}
}

func (s *Source) Name() string { return s.cfg.Name }

func (s *Source) Fetch(ctx context.Context, currencies []string) ([]fx.Rate, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.URL, http.NoBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/html")
	for k, v := range s.cfg.Headers {
		req.Header.Set(k, v)
	}
	resp, err := s.client.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("GET %s -> %d", s.cfg.URL, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse rate board: %w", err)
	}

	wanted := make(map[string]string, len(currencies))
	for _, cur := range currencies {
		if label, ok := nativeLabels[cur]; ok {
			wanted[cur] = label
		}
	}

	now := time.Now().UTC()
	out := make([]fx.Rate, 0, len(wanted))
	doc.Find("table.table tbody tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		text := row.Text()
		for cur, label := range wanted {
			if !strings.Contains(text, label) {
				continue
			}
			delete(wanted, cur)
			v, ok := parseCell(row, spotSellColumn)
			if !ok {
				// Row present but the cell is missing or non-numeric ("-"
				// when the bank suspends a currency). Skip, keep scanning.
				continue
			}
			out = append(out, fx.Rate{
				Currency:   cur,
				TWDPerUnit: v,
				Source:     s.cfg.Name,
				FetchedAt:  now,
			})
		}
		return len(wanted) > 0
	})

	if len(out) == 0 {
		return nil, fmt.Errorf("%s: no requested currencies on the board", s.cfg.Name)
	}
	return out, nil
}

func parseCell(row *goquery.Selection, idx int) (float64, bool) {
	cells := row.Find("td")
	if cells.Length() <= idx {
		return 0, false
	}
	raw := strings.TrimSpace(cells.Eq(idx).Text())
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}
