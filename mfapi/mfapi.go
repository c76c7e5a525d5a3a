// Package mfapi reads the NAV of Indian mutual funds from https://www.mfapi.in.
package mfapi

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/etnz/research"
	"github.com/etnz/research/date"
	"github.com/etnz/research/remote"
	"github.com/shopspring/decimal"
)

// BaseURL is the mfapi.in root.
const BaseURL = "https://api.mfapi.in/mf"

// Prefix marks mutual fund tickers, e.g. "mf:119551", when a Client is used as a Provider.
const Prefix = "mf:"

// navDate is the dd-mm-yyyy format of mfapi.in dates.
const navDate = "02-01-2006"

// Client is a mfapi.in client.
type Client struct {
	remote *remote.Client
	base   string
}

// New returns a Client.
func New(cfg remote.Config) *Client {
	cfg.Name = "mfapi"
	return &Client{remote: remote.New(cfg), base: BaseURL}
}

// Meta describes a scheme.
type Meta struct {
	FundHouse      string `json:"fund_house"`
	SchemeType     string `json:"scheme_type"`
	SchemeCategory string `json:"scheme_category"`
	SchemeCode     int    `json:"scheme_code"`
	SchemeName     string `json:"scheme_name"`
}

// NAV is the net asset value of a scheme on a day.
type NAV struct {
	Date date.Date
	NAV  decimal.Decimal
}

// Scheme is the description of a scheme and its NAV history, newest first.
type Scheme struct {
	Meta Meta
	Data []NAV
}

// Scheme returns the description and the full NAV history of a scheme.
func (c *Client) Scheme(ctx context.Context, code int) (*Scheme, error) {
	// {"meta": {...}, "data": [{"date": "26-06-2025", "nav": "72.47560"}, ...], "status": "SUCCESS"}
	var payload struct {
		Meta Meta `json:"meta"`
		Data []struct {
			Date string `json:"date"`
			NAV  string `json:"nav"`
		} `json:"data"`
	}
	if err := c.remote.GetJSON(ctx, fmt.Sprintf("%s/%d", c.base, code), nil, &payload); err != nil {
		return nil, fmt.Errorf("mfapi scheme %d: %w", code, err)
	}
	s := &Scheme{Meta: payload.Meta, Data: make([]NAV, 0, len(payload.Data))}
	for _, d := range payload.Data {
		t, err := time.Parse(navDate, d.Date)
		if err != nil {
			return nil, fmt.Errorf("mfapi scheme %d: invalid date %q: %w", code, d.Date, err)
		}
		nav, err := decimal.NewFromString(d.NAV)
		if err != nil {
			return nil, fmt.Errorf("mfapi scheme %d: invalid nav %q: %w", code, d.NAV, err)
		}
		s.Data = append(s.Data, NAV{Date: date.FromTime(t), NAV: nav})
	}
	if s.Meta.SchemeCode == 0 && len(s.Data) == 0 {
		return nil, fmt.Errorf("mfapi scheme %d: %w", code, research.ErrNoData)
	}
	return s, nil
}

// Latest is the last known NAV of a scheme.
type Latest struct {
	SchemeCode int
	SchemeName string
	FundHouse  string
	NAV        decimal.Decimal
	Date       date.Date
}

// Latest returns the last NAV of a scheme. NAV and Date are zero when there is no history.
func (c *Client) Latest(ctx context.Context, code int) (Latest, error) {
	s, err := c.Scheme(ctx, code)
	if err != nil {
		return Latest{}, err
	}
	l := Latest{SchemeCode: code, SchemeName: s.Meta.SchemeName, FundHouse: s.Meta.FundHouse}
	if len(s.Data) > 0 {
		l.NAV, l.Date = s.Data[0].NAV, s.Data[0].Date
	}
	return l, nil
}

// Fund is an entry of the scheme list.
type Fund struct {
	SchemeCode int    `json:"schemeCode"`
	SchemeName string `json:"schemeName"`
}

// Search returns the schemes whose name matches q.
func (c *Client) Search(ctx context.Context, q string) ([]Fund, error) {
	var funds []Fund
	if err := c.remote.GetJSON(ctx, c.base+"/search?q="+url.QueryEscape(q), nil, &funds); err != nil {
		return nil, fmt.Errorf("mfapi search %q: %w", q, err)
	}
	return funds, nil
}

// List returns every scheme.
func (c *Client) List(ctx context.Context) ([]Fund, error) {
	var funds []Fund
	if err := c.remote.GetJSON(ctx, c.base, nil, &funds); err != nil {
		return nil, fmt.Errorf("mfapi list: %w", err)
	}
	return funds, nil
}

// NAVs returns the NAV history of a scheme, oldest first.
func (c *Client) NAVs(ctx context.Context, code int) (*date.History[float64], error) {
	s, err := c.Scheme(ctx, code)
	if err != nil {
		return nil, err
	}
	h := new(date.History[float64])
	for _, d := range s.Data {
		h.Append(d.Date, d.NAV.InexactFloat64())
	}
	return h, nil
}

// ParseTicker returns the scheme code of a "mf:<code>" ticker, or a plain code.
func ParseTicker(ticker string) (int, error) {
	code, err := strconv.Atoi(strings.TrimPrefix(ticker, Prefix))
	if err != nil {
		return 0, fmt.Errorf("invalid scheme code %q", ticker)
	}
	return code, nil
}

// History implements research.Provider for "mf:<code>" tickers. NAVs already include the
// distributions of growth schemes, so there are no dividends.
func (c *Client) History(ctx context.Context, ticker string, r date.Range) (*research.Bars, error) {
	code, err := ParseTicker(ticker)
	if err != nil {
		return nil, err
	}
	navs, err := c.NAVs(ctx, code)
	if err != nil {
		return nil, err
	}
	bars := &research.Bars{Ticker: ticker, Close: *navs.Between(r)}
	if bars.Len() == 0 {
		return nil, fmt.Errorf("mfapi %s: no NAV in %s: %w", ticker, r, research.ErrNoData)
	}
	return bars, nil
}

// Router returns a Provider that sends "mf:" tickers to c and the others to p.
func (c *Client) Router(p research.Provider) research.Provider {
	return research.ProviderFunc(func(ctx context.Context, ticker string, r date.Range) (*research.Bars, error) {
		if strings.HasPrefix(ticker, Prefix) {
			return c.History(ctx, ticker, r)
		}
		return p.History(ctx, ticker, r)
	})
}
