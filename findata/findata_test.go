package findata

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/etnz/research"
	"github.com/etnz/research/date"
	"github.com/etnz/research/remote"
	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*Client, *httpmock.MockTransport) {
	t.Helper()
	mock := httpmock.NewMockTransport()
	return New("KEY", remote.Config{NoCache: true, Base: mock, RPS: 1000, Burst: 10}), mock
}

// authorized wraps a responder so that it answers 401 without the API key.
func authorized(body string) httpmock.Responder {
	return func(req *http.Request) (*http.Response, error) {
		if req.Header.Get("X-API-KEY") != "KEY" {
			return httpmock.NewStringResponse(401, `{"error":"unauthorized"}`), nil
		}
		return httpmock.NewStringResponse(200, body), nil
	}
}

func TestSnapshot(t *testing.T) {
	c, mock := newTestClient(t)
	mock.RegisterResponder(http.MethodGet, BaseURL+"/prices/snapshot",
		authorized(`{"snapshot":{"ticker":"XOM","price":110.2,"day_change_percent":-0.5,"market_cap":450000000000}}`))

	got, err := c.Snapshot(context.Background(), "XOM")
	require.NoError(t, err)
	assert.Equal(t, research.Snapshot{Price: 110.2, DayChange: -0.5, MarketCap: 4.5e11}, got)
}

func TestSnapshot_Unknown(t *testing.T) {
	c, mock := newTestClient(t)
	mock.RegisterResponder(http.MethodGet, BaseURL+"/prices/snapshot", httpmock.NewStringResponder(404, `{}`))

	_, err := c.Snapshot(context.Background(), "AVDV")
	if !errors.Is(err, research.ErrNoData) {
		t.Errorf("Snapshot(unknown) error = %v, want ErrNoData", err)
	}
}

func TestHistory(t *testing.T) {
	c, mock := newTestClient(t)
	mock.RegisterResponder(http.MethodGet, BaseURL+"/prices",
		authorized(`{"prices":[
			{"close":101,"time":"2025-01-03T05:00:00Z"},
			{"close":100,"time":"2025-01-02T05:00:00Z"},
			{"close":102,"time":"2025-01-06"}]}`))

	bars, err := c.History(context.Background(), "XOM", date.Range{From: date.New(2025, 1, 1), To: date.New(2025, 1, 31)})
	require.NoError(t, err)
	assert.Equal(t, []float64{100, 101, 102}, bars.Close.Slice())
	assert.Equal(t, 0, bars.Dividends.Len())

	mock.RegisterResponder(http.MethodGet, BaseURL+"/prices", authorized(`{"prices":[]}`))
	_, err = c.History(context.Background(), "XOM", date.Range{From: date.New(2025, 1, 1), To: date.New(2025, 1, 31)})
	assert.ErrorIs(t, err, research.ErrNoData)
}
