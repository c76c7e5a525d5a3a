// Package ibkr is a read-only client of the Interactive Brokers Client Portal Web API.
//
// The Client Portal gateway must be running and authenticated, see
// https://www.interactivebrokers.com/campus/ibkr-api-page/cpapi-v1/. It serves a self signed
// certificate on https://localhost:5000 by default.
package ibkr

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/PaesslerAG/jsonpath"
	"github.com/etnz/research/remote"
)

// Gateway is the default Client Portal API root.
const Gateway = "https://localhost:5000/v1/api"

// PageSize is the number of positions per page of /portfolio/{account}/positions.
const PageSize = 100

// Client talks to a Client Portal gateway.
type Client struct {
	remote *remote.Client
	base   string
}

// New returns a Client for the gateway API root, Gateway when empty. Responses are never
// cached.
func New(gateway string, cfg remote.Config) *Client {
	if gateway == "" {
		gateway = Gateway
	}
	cfg.Name = "ibkr"
	cfg.NoCache = true
	return &Client{remote: remote.New(cfg), base: strings.TrimSuffix(gateway, "/")}
}

// Account is a brokerage account.
type Account struct {
	ID       string `json:"accountId"`
	Title    string `json:"accountTitle"`
	Currency string `json:"currency"`
	Type     string `json:"type"`
}

// Accounts lists the accounts of the authenticated user.
func (c *Client) Accounts(ctx context.Context) ([]Account, error) {
	var accounts []Account
	if err := c.remote.GetJSON(ctx, c.base+"/portfolio/accounts", nil, &accounts); err != nil {
		return nil, fmt.Errorf("ibkr accounts: %w", err)
	}
	return accounts, nil
}

// Position is a holding of an account.
type Position struct {
	ConID         int64   `json:"conid"`
	Ticker        string  `json:"ticker"`
	Description   string  `json:"contractDesc"`
	AssetClass    string  `json:"assetClass"`
	Currency      string  `json:"currency"`
	Position      float64 `json:"position"`
	MarketPrice   float64 `json:"mktPrice"`
	MarketValue   float64 `json:"mktValue"`
	AvgCost       float64 `json:"avgCost"`
	UnrealizedPnL float64 `json:"unrealizedPnl"`
}

// Symbol returns the ticker, or the contract description when there is none.
func (p Position) Symbol() string {
	if p.Ticker != "" {
		return p.Ticker
	}
	return p.Description
}

// Positions returns every position of account, reading pages until a short one.
func (c *Client) Positions(ctx context.Context, account string) ([]Position, error) {
	var all []Position
	for page := 0; ; page++ {
		var positions []Position
		addr := fmt.Sprintf("%s/portfolio/%s/positions/%d", c.base, url.PathEscape(account), page)
		if err := c.remote.GetJSON(ctx, addr, nil, &positions); err != nil {
			return nil, fmt.Errorf("ibkr positions page %d: %w", page, err)
		}
		all = append(all, positions...)
		if len(positions) < PageSize {
			return all, nil
		}
	}
}

// SummaryTags are the account values reported by Summary.
var SummaryTags = []string{"NetLiquidation", "TotalCashValue", "GrossPositionValue"}

// Value is an account value.
type Value struct {
	Tag      string
	Amount   float64
	Currency string
}

// Summary returns the SummaryTags values of account, in that order. Missing tags are left
// out.
func (c *Client) Summary(ctx context.Context, account string) ([]Value, error) {
	// {"netliquidation": {"amount": 100000.0, "currency": "USD", ...}, ...}
	v, err := c.remote.GetAny(ctx, fmt.Sprintf("%s/portfolio/%s/summary", c.base, url.PathEscape(account)), nil)
	if err != nil {
		return nil, fmt.Errorf("ibkr summary: %w", err)
	}
	var values []Value
	for _, tag := range SummaryTags {
		key := strings.ToLower(tag)
		amount, err := remote.Float(v, "$."+key+".amount")
		if err != nil {
			continue
		}
		values = append(values, Value{Tag: tag, Amount: amount, Currency: remote.String(v, "$."+key+".currency")})
	}
	return values, nil
}

// Quote is a market data snapshot.
type Quote struct {
	Symbol  string
	ConID   string
	Company string
	Last    float64
	Bid     float64
	Ask     float64
	Volume  float64
}

// snapshotFields are last, bid, ask and the raw volume.
const snapshotFields = "31,84,86,87_raw"

// Quote returns the snapshot of the first contract matching symbol.
//
// The first snapshot of a contract can be empty while the gateway subscribes to it, fields
// are 0 in that case.
func (c *Client) Quote(ctx context.Context, symbol string) (Quote, error) {
	v, err := c.remote.GetAny(ctx, c.base+"/iserver/secdef/search?symbol="+url.QueryEscape(symbol), nil)
	if err != nil {
		return Quote{}, fmt.Errorf("ibkr search %s: %w", symbol, err)
	}
	q := Quote{
		Symbol:  symbol,
		ConID:   remote.String(v, "$[0].conid"),
		Company: remote.String(v, "$[0].companyName"),
	}
	if q.ConID == "" {
		return Quote{}, fmt.Errorf("ibkr search %s: no contract", symbol)
	}

	addr := fmt.Sprintf("%s/iserver/marketdata/snapshot?conids=%s&fields=%s", c.base, url.QueryEscape(q.ConID), snapshotFields)
	snap, err := c.remote.GetAny(ctx, addr, nil)
	if err != nil {
		return Quote{}, fmt.Errorf("ibkr snapshot %s: %w", symbol, err)
	}
	q.Last = field(snap, "31")
	q.Bid = field(snap, "84")
	q.Ask = field(snap, "86")
	q.Volume = field(snap, "87_raw")
	return q, nil
}

// field reads a snapshot field. Prices come as strings, prefixed with C when it is the
// previous close or H when trading is halted.
func field(snap any, id string) float64 {
	val, err := jsonpath.Get(fmt.Sprintf(`$[0]["%s"]`, id), snap)
	if err != nil {
		return 0
	}
	switch x := val.(type) {
	case float64:
		return x
	case string:
		f, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimLeft(x, "CH"), ",", ""), 64)
		if err != nil {
			return 0
		}
		return f
	}
	return 0
}

// ErrNoAccount is returned when an account is required but none is configured or found.
var ErrNoAccount = errors.New("no ibkr account")

// DefaultAccount returns account when not empty, or the first account of the user.
func (c *Client) DefaultAccount(ctx context.Context, account string) (string, error) {
	if account != "" {
		return account, nil
	}
	accounts, err := c.Accounts(ctx)
	if err != nil {
		return "", err
	}
	if len(accounts) == 0 {
		return "", ErrNoAccount
	}
	return accounts[0].ID, nil
}
