// Package eodhd reads daily prices, dividends and splits from EOD Historical Data
// (https://eodhd.com).
//
// EODHD tickers are "SYMBOL.EXCHANGE", e.g. MCD.US or NVD.F. Tickers without an exchange are
// looked up on the US virtual exchange.
package eodhd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/etnz/research"
	"github.com/etnz/research/date"
	"github.com/etnz/research/remote"
)

// BaseURL is the EODHD API root.
const BaseURL = "https://eodhd.com/api"

// Client is an EODHD client. It implements research.Provider.
type Client struct {
	key     string
	base    string
	daily   *remote.Client // prices and dividends
	monthly *remote.Client // exchange and ticker lists
}

// New returns a Client for the given API key.
func New(key string, cfg remote.Config) *Client {
	cfg.Name = "eodhd"
	cfg.Period = date.Daily
	daily := remote.New(cfg)
	cfg.Period = date.Monthly
	return &Client{key: key, base: BaseURL, daily: daily, monthly: remote.New(cfg)}
}

// Ticker returns the EODHD ticker of a symbol.
func Ticker(symbol string) string {
	if strings.Contains(symbol, ".") {
		return symbol
	}
	return symbol + ".US"
}

// History returns the daily closes and the dividends of ticker within r.
func (c *Client) History(ctx context.Context, ticker string, r date.Range) (*research.Bars, error) {
	if c.key == "" {
		return nil, errors.New("eodhd: missing API key")
	}
	t := Ticker(ticker)
	bars := &research.Bars{Ticker: ticker}
	prices, err := c.fetchPrices(ctx, t, r)
	if err != nil {
		return nil, fmt.Errorf("eodhd %s: %w", t, err)
	}
	for _, p := range prices {
		bars.Close.Append(p.Date, p.Close.InexactFloat64())
	}
	if bars.Len() == 0 {
		return nil, fmt.Errorf("eodhd %s: %w", t, research.ErrNoData)
	}
	divs, err := c.fetchDividends(ctx, t, r)
	if err != nil {
		return nil, fmt.Errorf("eodhd %s dividends: %w", t, err)
	}
	for _, d := range divs {
		bars.Dividends.AppendAdd(d.Date, d.Value.InexactFloat64())
	}
	return bars, nil
}
