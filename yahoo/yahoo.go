// Package yahoo reads daily prices, dividends and quotes from Yahoo Finance.
//
// There is no official API: the chart and quote endpoints are the ones the web site uses, and
// they reject requests without a browser User-Agent.
package yahoo

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/etnz/research"
	"github.com/etnz/research/date"
	"github.com/etnz/research/remote"
)

// BaseURL is the default Yahoo Finance host.
const BaseURL = "https://query1.finance.yahoo.com"

// UserAgent is sent with every request.
const UserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

// Client is a Yahoo Finance client. It implements research.Provider.
type Client struct {
	remote *remote.Client
	base   string
}

// New returns a Client. The User-Agent and the provider name are set on cfg.
func New(cfg remote.Config) *Client {
	cfg.Name = "yahoo"
	if cfg.Header == nil {
		cfg.Header = make(http.Header)
	}
	cfg.Header.Set("User-Agent", UserAgent)
	return &Client{remote: remote.New(cfg), base: BaseURL}
}

// chart is the payload of /v8/finance/chart.
type chart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Currency  string `json:"currency"`
				Symbol    string `json:"symbol"`
				GMTOffset int    `json:"gmtoffset"`
			} `json:"meta"`
			Timestamp []int64 `json:"timestamp"`
			Events    struct {
				Dividends map[string]struct {
					Amount float64 `json:"amount"`
					Date   int64   `json:"date"`
				} `json:"dividends"`
			} `json:"events"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// History returns the daily closes and the dividends of ticker within r.
//
// Closes are not adjusted, dividends are reported on their ex-date, in the exchange's time
// zone.
func (c *Client) History(ctx context.Context, ticker string, r date.Range) (*research.Bars, error) {
	q := url.Values{}
	q.Set("period1", strconv.FormatInt(r.From.Unix(), 10))
	q.Set("period2", strconv.FormatInt(r.To.Add(1).Unix(), 10))
	q.Set("interval", "1d")
	q.Set("events", "div")
	addr := fmt.Sprintf("%s/v8/finance/chart/%s?%s", c.base, url.PathEscape(ticker), q.Encode())

	var payload chart
	if err := c.remote.GetJSON(ctx, addr, nil, &payload); err != nil {
		if errors.Is(err, remote.ErrStatus) {
			return nil, fmt.Errorf("yahoo %s: %w: %w", ticker, research.ErrNoData, err)
		}
		return nil, fmt.Errorf("yahoo %s: %w", ticker, err)
	}
	if e := payload.Chart.Error; e != nil {
		return nil, fmt.Errorf("yahoo %s: %s: %w", ticker, e.Description, research.ErrNoData)
	}
	if len(payload.Chart.Result) == 0 {
		return nil, fmt.Errorf("yahoo %s: %w", ticker, research.ErrNoData)
	}
	res := payload.Chart.Result[0]
	loc := time.FixedZone(res.Meta.Symbol, res.Meta.GMTOffset)

	bars := &research.Bars{Ticker: ticker}
	var closes []*float64
	if len(res.Indicators.Quote) > 0 {
		closes = res.Indicators.Quote[0].Close
	}
	for i, ts := range res.Timestamp {
		if i >= len(closes) || closes[i] == nil {
			continue // halted or partial session
		}
		day := date.FromUnix(ts, loc)
		if r.Contains(day) {
			bars.Close.Append(day, *closes[i])
		}
	}

	var divs []int64
	amounts := make(map[int64]float64, len(res.Events.Dividends))
	for _, d := range res.Events.Dividends {
		if _, ok := amounts[d.Date]; !ok {
			divs = append(divs, d.Date)
		}
		amounts[d.Date] += d.Amount
	}
	slices.Sort(divs)
	for _, ts := range divs {
		day := date.FromUnix(ts, loc)
		if r.Contains(day) {
			bars.Dividends.AppendAdd(day, amounts[ts])
		}
	}
	if bars.Len() == 0 {
		return nil, fmt.Errorf("yahoo %s: no closes in %s: %w", ticker, r, research.ErrNoData)
	}
	return bars, nil
}

// Quote is the latest market data of a security.
type Quote struct {
	Symbol       string
	Name         string
	Currency     string
	Price        float64
	DayChange    float64 // percent
	MarketCap    float64
	DividendRate float64 // annual cash amount per share
	Yield        float64 // DividendRate / Price, in percent
}

// Quote returns the quotes of tickers, in the order Yahoo returns them.
func (c *Client) Quote(ctx context.Context, tickers ...string) ([]Quote, error) {
	addr := fmt.Sprintf("%s/v7/finance/quote?symbols=%s", c.base, url.QueryEscape(strings.Join(tickers, ",")))
	v, err := c.remote.GetAny(ctx, addr, nil)
	if err != nil {
		return nil, fmt.Errorf("yahoo quote: %w", err)
	}
	list, err := jsonpath.Get("$.quoteResponse.result", v)
	if err != nil {
		return nil, fmt.Errorf("yahoo quote: %w", err)
	}
	items, _ := list.([]any)

	quotes := make([]Quote, 0, len(items))
	for _, item := range items {
		q := Quote{
			Symbol:    remote.String(item, "$.symbol"),
			Name:      remote.String(item, "$.longName"),
			Currency:  remote.String(item, "$.currency"),
			Price:     remote.FloatOr(item, "$.regularMarketPrice", 0),
			DayChange: remote.FloatOr(item, "$.regularMarketChangePercent", 0),
			MarketCap: remote.FloatOr(item, "$.marketCap", 0),
		}
		if q.Name == "" {
			q.Name = remote.String(item, "$.shortName")
		}
		q.DividendRate = remote.FloatOr(item, "$.dividendRate", 0)
		if q.DividendRate == 0 {
			q.DividendRate = remote.FloatOr(item, "$.trailingAnnualDividendRate", 0)
		}
		if q.Price > 0 {
			q.Yield = q.DividendRate / q.Price * 100
		}
		quotes = append(quotes, q)
	}
	return quotes, nil
}

// Snapshot returns the latest price of ticker.
func (c *Client) Snapshot(ctx context.Context, ticker string) (research.Snapshot, error) {
	quotes, err := c.Quote(ctx, ticker)
	if err != nil {
		return research.Snapshot{}, err
	}
	if len(quotes) == 0 || quotes[0].Price == 0 {
		return research.Snapshot{}, fmt.Errorf("yahoo %s: %w", ticker, research.ErrNoData)
	}
	q := quotes[0]
	return research.Snapshot{Price: q.Price, DayChange: q.DayChange, MarketCap: q.MarketCap}, nil
}

// Yields returns the dividend yield, in percent, of every ticker Yahoo knows a price for.
func (c *Client) Yields(ctx context.Context, tickers ...string) (map[string]float64, error) {
	quotes, err := c.Quote(ctx, tickers...)
	if err != nil {
		return nil, err
	}
	yields := make(map[string]float64, len(quotes))
	for _, q := range quotes {
		if q.Price > 0 {
			yields[q.Symbol] = q.Yield
		}
	}
	return yields, nil
}
