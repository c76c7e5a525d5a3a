// Package remote contains the HTTP plumbing shared by every market data client.
//
// A Client caches successful responses on disk for a period of time, throttles requests
// with a rate limiter, and stops calling a failing server through a circuit breaker.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/etnz/research/date"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// ErrStatus is matched by every StatusError.
var ErrStatus = errors.New("unexpected http status")

// StatusError reports a response whose status is not 200 OK.
type StatusError struct {
	Method string
	Host   string
	Path   string
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("cannot http %s %s%s: %s", e.Method, e.Host, e.Path, e.Status)
}

func (e *StatusError) Is(target error) bool { return target == ErrStatus }

// retryable reports whether the status means the server is in trouble, rather than the request.
func (e *StatusError) retryable() bool {
	return e.Code >= 500 || e.Code == http.StatusTooManyRequests
}

// Config configures a Client. The zero value is a daily cache in os.TempDir(), limited to
// 5 requests per second.
type Config struct {
	Name     string            // used to name the circuit breaker, usually the provider
	CacheDir string            // defaults to os.TempDir()
	Period   date.Period       // cache lifetime
	NoCache  bool              // disable the disk cache
	RPS      float64           // requests per second, defaults to 5
	Burst    int               // defaults to 1
	Header   http.Header       // sent with every request
	Base     http.RoundTripper // defaults to http.DefaultTransport
}

// Client performs throttled, cached and guarded http GET requests.
type Client struct {
	http    *http.Client
	header  http.Header
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
}

// New creates a Client from its Config.
func New(cfg Config) *Client {
	base := cfg.Base
	if base == nil {
		base = http.DefaultTransport
	}
	if cfg.CacheDir == "" {
		cfg.CacheDir = os.TempDir()
	}
	if cfg.RPS <= 0 {
		cfg.RPS = 5
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.Name == "" {
		cfg.Name = "remote"
	}

	transport := base
	if !cfg.NoCache {
		transport = &diskCache{base: base, dir: cfg.CacheDir, period: cfg.Period, today: date.Today}
	}

	return &Client{
		http:    &http.Client{Transport: transport, Timeout: 30 * time.Second},
		header:  cfg.Header.Clone(),
		limiter: rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst),
		breaker: newBreaker(cfg.Name),
	}
}

// newBreaker trips after 3 consecutive failures or more than 5% failures over 20 requests.
func newBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:     name,
		Interval: 60 * time.Second,
		Timeout:  60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.ConsecutiveFailures >= 3 {
				return true
			}
			return counts.Requests >= 20 && float64(counts.TotalFailures)/float64(counts.Requests) > 0.05
		},
		IsSuccessful: func(err error) bool {
			// A 404 or a 401 is the caller's problem, not the server's.
			var serr *StatusError
			if errors.As(err, &serr) {
				return !serr.retryable()
			}
			return err == nil
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Stringer("from", from).Stringer("to", to).Msg("circuit breaker state changed")
		},
	})
}

// Get performs an HTTP GET request and returns the body of a 200 OK response.
func (c *Client) Get(ctx context.Context, addr string, header http.Header) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	body, err := c.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
		if err != nil {
			return nil, err
		}
		for k, vs := range c.header {
			req.Header[k] = vs
		}
		for k, vs := range header {
			req.Header[k] = vs
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, &StatusError{
				Method: req.Method,
				Host:   req.URL.Host,
				Path:   req.URL.Path,
				Code:   resp.StatusCode,
				Status: resp.Status,
			}
		}
		return io.ReadAll(resp.Body)
	})
	if err != nil {
		return nil, err
	}
	return body.([]byte), nil
}

// GetJSON performs an HTTP GET request to the given address and unmarshals the
// JSON response body into the provided data structure.
func (c *Client) GetJSON(ctx context.Context, addr string, header http.Header, data interface{}) error {
	body, err := c.Get(ctx, addr, header)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, data); err != nil {
		return fmt.Errorf("cannot decode json from %s: %w", addr, err)
	}
	return nil
}

// GetAny is like GetJSON but decodes into a generic value, suitable for jsonpath queries.
func (c *Client) GetAny(ctx context.Context, addr string, header http.Header) (interface{}, error) {
	var v interface{}
	if err := c.GetJSON(ctx, addr, header, &v); err != nil {
		return nil, err
	}
	return v, nil
}
