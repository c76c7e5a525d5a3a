package mfapi

import (
	"context"
	"net/http"
	"testing"

	"github.com/etnz/research"
	"github.com/etnz/research/date"
	"github.com/etnz/research/remote"
	"github.com/jarcoal/httpmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const gold = `{
	"meta": {"fund_house": "Nippon India Mutual Fund", "scheme_type": "Open Ended Schemes",
		"scheme_category": "Other Scheme - Gold ETF", "scheme_code": 119551,
		"scheme_name": "Nippon India ETF Gold BeES"},
	"data": [
		{"date": "03-01-2025", "nav": "62.10000"},
		{"date": "02-01-2025", "nav": "61.50000"},
		{"date": "01-01-2025", "nav": "61.00000"}
	],
	"status": "SUCCESS"
}`

func newTestClient(t *testing.T) *Client {
	t.Helper()
	mock := httpmock.NewMockTransport()
	mock.RegisterResponder(http.MethodGet, BaseURL+"/119551", httpmock.NewStringResponder(200, gold))
	mock.RegisterResponder(http.MethodGet, BaseURL+"/search",
		func(req *http.Request) (*http.Response, error) {
			if req.URL.Query().Get("q") != "gold etf" {
				return httpmock.NewStringResponse(200, `[]`), nil
			}
			return httpmock.NewStringResponse(200, `[{"schemeCode":119551,"schemeName":"Nippon India ETF Gold BeES"}]`), nil
		})
	mock.RegisterResponder(http.MethodGet, BaseURL,
		httpmock.NewStringResponder(200, `[{"schemeCode":119551,"schemeName":"Gold"},{"schemeCode":120503,"schemeName":"Liquid"}]`))
	return New(remote.Config{NoCache: true, Base: mock, RPS: 1000, Burst: 10})
}

func TestScheme(t *testing.T) {
	s, err := newTestClient(t).Scheme(context.Background(), 119551)
	require.NoError(t, err)
	assert.Equal(t, "Nippon India Mutual Fund", s.Meta.FundHouse)
	assert.Equal(t, 119551, s.Meta.SchemeCode)
	require.Len(t, s.Data, 3)
	assert.Equal(t, date.New(2025, 1, 3), s.Data[0].Date, "newest first")
	assert.True(t, s.Data[0].NAV.Equal(decimal.RequireFromString("62.1")))
}

func TestLatest(t *testing.T) {
	l, err := newTestClient(t).Latest(context.Background(), 119551)
	require.NoError(t, err)
	assert.Equal(t, "Nippon India ETF Gold BeES", l.SchemeName)
	assert.Equal(t, date.New(2025, 1, 3), l.Date)
	assert.Equal(t, "62.1", l.NAV.String())
}

func TestSearchAndList(t *testing.T) {
	c := newTestClient(t)
	funds, err := c.Search(context.Background(), "gold etf")
	require.NoError(t, err)
	assert.Equal(t, []Fund{{SchemeCode: 119551, SchemeName: "Nippon India ETF Gold BeES"}}, funds)

	all, err := c.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestHistory(t *testing.T) {
	c := newTestClient(t)
	bars, err := c.History(context.Background(), "mf:119551", date.Range{From: date.New(2025, 1, 2), To: date.New(2025, 1, 31)})
	require.NoError(t, err)
	assert.Equal(t, []float64{61.5, 62.1}, bars.Close.Slice(), "oldest first, within range")

	_, err = c.History(context.Background(), "mf:119551", date.Range{From: date.New(2024, 1, 1), To: date.New(2024, 1, 31)})
	assert.ErrorIs(t, err, research.ErrNoData)

	_, err = c.History(context.Background(), "mf:gold", date.Range{})
	assert.Error(t, err)
}

func TestRouter(t *testing.T) {
	c := newTestClient(t)
	other := research.ProviderFunc(func(_ context.Context, ticker string, _ date.Range) (*research.Bars, error) {
		return &research.Bars{Ticker: "other:" + ticker}, nil
	})
	p := c.Router(other)
	r := date.Range{From: date.New(2025, 1, 1), To: date.New(2025, 1, 31)}

	bars, err := p.History(context.Background(), "XOM", r)
	require.NoError(t, err)
	assert.Equal(t, "other:XOM", bars.Ticker)

	bars, err = p.History(context.Background(), "mf:119551", r)
	require.NoError(t, err)
	assert.Equal(t, 3, bars.Len())
}
