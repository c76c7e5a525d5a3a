// Package findata reads quotes and daily prices from financialdatasets.ai.
//
// Coverage is limited to US listed companies: ETFs and OTC tickers are usually unknown, which
// is why the state report falls back on another provider.
package findata

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"time"

	"github.com/etnz/research"
	"github.com/etnz/research/date"
	"github.com/etnz/research/remote"
)

// BaseURL is the financialdatasets.ai API root.
const BaseURL = "https://api.financialdatasets.ai"

// Client is a financialdatasets.ai client. It implements research.Provider, without
// dividends.
type Client struct {
	remote *remote.Client
	header http.Header
	base   string
}

// New returns a Client authenticated with key.
func New(key string, cfg remote.Config) *Client {
	cfg.Name = "findata"
	header := make(http.Header)
	header.Set("X-API-KEY", key)
	return &Client{remote: remote.New(cfg), header: header, base: BaseURL}
}

// Snapshot returns the latest price, day change and market cap of ticker.
func (c *Client) Snapshot(ctx context.Context, ticker string) (research.Snapshot, error) {
	// {"snapshot": {"price": 110.2, "ticker": "XOM", "day_change": 1.1, "day_change_percent": 1.01,
	//   "market_cap": 4.5e11, "time": "2025-06-30T20:00:00Z"}}
	addr := fmt.Sprintf("%s/prices/snapshot?ticker=%s", c.base, url.QueryEscape(ticker))
	v, err := c.remote.GetAny(ctx, addr, c.header)
	if err != nil {
		if errors.Is(err, remote.ErrStatus) {
			return research.Snapshot{}, fmt.Errorf("findata %s: %w: %w", ticker, research.ErrNoData, err)
		}
		return research.Snapshot{}, fmt.Errorf("findata %s: %w", ticker, err)
	}
	price, err := remote.Float(v, "$.snapshot.price")
	if err != nil || price <= 0 {
		return research.Snapshot{}, fmt.Errorf("findata %s: no price: %w", ticker, research.ErrNoData)
	}
	return research.Snapshot{
		Price:     price,
		DayChange: remote.FloatOr(v, "$.snapshot.day_change_percent", 0),
		MarketCap: remote.FloatOr(v, "$.snapshot.market_cap", 0),
	}, nil
}

type price struct {
	Close float64 `json:"close"`
	Time  string  `json:"time"`
}

// History returns the daily closes of ticker within r.
func (c *Client) History(ctx context.Context, ticker string, r date.Range) (*research.Bars, error) {
	q := url.Values{}
	q.Set("ticker", ticker)
	q.Set("interval", "day")
	q.Set("interval_multiplier", "1")
	q.Set("start_date", r.From.String())
	q.Set("end_date", r.To.String())
	addr := c.base + "/prices?" + q.Encode()

	var payload struct {
		Prices []price `json:"prices"`
	}
	if err := c.remote.GetJSON(ctx, addr, c.header, &payload); err != nil {
		if errors.Is(err, remote.ErrStatus) {
			return nil, fmt.Errorf("findata %s: %w: %w", ticker, research.ErrNoData, err)
		}
		return nil, fmt.Errorf("findata %s: %w", ticker, err)
	}
	// prices are not guaranteed to be sorted
	slices.SortFunc(payload.Prices, func(a, b price) int {
		switch {
		case a.Time < b.Time:
			return -1
		case a.Time > b.Time:
			return 1
		}
		return 0
	})

	bars := &research.Bars{Ticker: ticker}
	for _, p := range payload.Prices {
		day, err := parseTime(p.Time)
		if err != nil {
			return nil, fmt.Errorf("findata %s: %w", ticker, err)
		}
		bars.Close.Append(day, p.Close)
	}
	if bars.Len() == 0 {
		return nil, fmt.Errorf("findata %s: %w", ticker, research.ErrNoData)
	}
	return bars, nil
}

// parseTime reads the day of an RFC 3339 time or a plain date.
func parseTime(s string) (date.Date, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return date.FromTime(t), nil
	}
	return date.Parse(s)
}
