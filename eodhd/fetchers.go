package eodhd

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/etnz/research/date"
	"github.com/shopspring/decimal"
)

// Price is a daily bar.
type Price struct {
	Date  date.Date       `json:"date"`
	Open  decimal.Decimal `json:"open"`
	Close decimal.Decimal `json:"close"`
}

// Dividend is a cash distribution on its ex-date.
type Dividend struct {
	Date     date.Date       `json:"date"` // ex-dividend date, see https://eodhd.com/financial-apis/api-splits-dividends
	Value    decimal.Decimal `json:"value"`
	Currency string          `json:"currency"`
}

// Split is a stock split, Numerator new shares for Denominator old ones.
type Split struct {
	Date        date.Date
	Numerator   int64
	Denominator int64
}

func (c *Client) addr(path string, r *date.Range, extra ...string) string {
	q := url.Values{}
	q.Set("fmt", "json")
	q.Set("api_token", c.key)
	if r != nil {
		q.Set("from", r.From.String())
		q.Set("to", r.To.String())
	}
	for i := 0; i+1 < len(extra); i += 2 {
		q.Set(extra[i], extra[i+1])
	}
	return c.base + path + "?" + q.Encode()
}

// fetchMicToExchangeCode returns a map of MIC to EODHD's internal exchange code.
//
// This is required since EODHD use its own id for exchange places.
func (c *Client) fetchMicToExchangeCode(ctx context.Context) (map[string]string, error) {
	// [{"Name": "Frankfurt Exchange", "Code": "F", "OperatingMIC": "XFRA", "Country": "Germany", ...}]
	type info struct {
		Code         string
		OperatingMIC string // could be a comma separated list of MICs
	}
	var content []info
	if err := c.monthly.GetJSON(ctx, c.addr("/exchanges-list/", nil), nil, &content); err != nil {
		return nil, err
	}
	result := make(map[string]string)
	for _, info := range content {
		for _, mic := range strings.Split(info.OperatingMIC, ",") {
			result[strings.TrimSpace(mic)] = info.Code
		}
	}
	return result, nil
}

// fetchPrices returns the daily prices of an EODHD ticker. Bounds are included.
func (c *Client) fetchPrices(ctx context.Context, ticker string, r date.Range) ([]Price, error) {
	// [{"date": "2024-02-13", "open": 675.066, "high": 684.219, "low": 648.659, "close": 668.445,
	//   "adjusted_close": 67.705, "volume": 0}, ...]
	var content []Price
	if err := c.daily.GetJSON(ctx, c.addr("/eod/"+url.PathEscape(ticker), &r), nil, &content); err != nil {
		return nil, err
	}
	return content, nil
}

// fetchDividends returns the dividends of an EODHD ticker.
func (c *Client) fetchDividends(ctx context.Context, ticker string, r date.Range) ([]Dividend, error) {
	var content []Dividend
	if err := c.daily.GetJSON(ctx, c.addr("/div/"+url.PathEscape(ticker), &r), nil, &content); err != nil {
		return nil, err
	}
	return content, nil
}

// Splits returns the splits of ticker within r.
func (c *Client) Splits(ctx context.Context, ticker string, r date.Range) ([]Split, error) {
	type apiSplit struct {
		Date  date.Date `json:"date"`
		Split string    `json:"split"` // e.g. "4.000000/1.000000"
	}
	var content []apiSplit
	if err := c.daily.GetJSON(ctx, c.addr("/splits/"+url.PathEscape(Ticker(ticker)), &r), nil, &content); err != nil {
		return nil, err
	}
	splits := make([]Split, 0, len(content))
	for _, s := range content {
		num, den, ok := strings.Cut(s.Split, "/")
		if !ok {
			return nil, fmt.Errorf("invalid split format from API: %q", s.Split)
		}
		numDecimal, err := decimal.NewFromString(num)
		if err != nil {
			return nil, fmt.Errorf("invalid numerator in split %q: %w", s.Split, err)
		}
		denDecimal, err := decimal.NewFromString(den)
		if err != nil {
			return nil, fmt.Errorf("invalid denominator in split %q: %w", s.Split, err)
		}
		n, d := simplifyDecimalRatio(numDecimal, denDecimal)
		splits = append(splits, Split{Date: s.Date, Numerator: n, Denominator: d})
	}
	return splits, nil
}

// TickerInfo holds information about a specific ticker on an exchange.
type TickerInfo struct {
	Code     string `json:"Code"`
	Name     string `json:"Name"`
	Country  string `json:"Country"`
	Exchange string `json:"Exchange"`
	Currency string `json:"Currency"`
	Type     string `json:"Type"`
	Isin     string `json:"Isin"`
}

// fetchTickers retrieves the list of all tickers for a given exchange code.
func (c *Client) fetchTickers(ctx context.Context, exchangeCode string, delisted bool) ([]TickerInfo, error) {
	var extra []string
	if delisted {
		extra = []string{"delisted", "1"}
	}
	var content []TickerInfo
	if err := c.monthly.GetJSON(ctx, c.addr("/exchange-symbol-list/"+url.PathEscape(exchangeCode), nil, extra...), nil, &content); err != nil {
		return nil, fmt.Errorf("failed to fetch tickers for exchange %s: %w", exchangeCode, err)
	}
	return content, nil
}

// FindISIN returns the EODHD ticker of an ISIN traded on the exchange identified by its MIC.
// Delisted tickers are searched too.
func (c *Client) FindISIN(ctx context.Context, isin, mic string) (string, error) {
	mic2exchange, err := c.fetchMicToExchangeCode(ctx)
	if err != nil {
		return "", err
	}
	exchange, ok := mic2exchange[mic]
	if !ok {
		return "", fmt.Errorf("unknown exchange MIC %q", mic)
	}
	for _, delisted := range []bool{false, true} {
		tickers, err := c.fetchTickers(ctx, exchange, delisted)
		if err != nil {
			return "", err
		}
		for _, t := range tickers {
			if t.Isin == isin {
				// t.Exchange is the physical exchange (e.g NASDAQ) but the ticker uses the
				// virtual exchange.
				return t.Code + "." + exchange, nil
			}
		}
	}
	return "", fmt.Errorf("asset %s is not traded in eodhd's exchange %s", isin, exchange)
}
