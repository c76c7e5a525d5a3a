package research

import (
	"context"
	"errors"
	"fmt"

	"github.com/etnz/research/date"
	"github.com/rs/zerolog/log"
)

var (
	// ErrNoData is returned when a provider has no history for a ticker.
	ErrNoData = errors.New("no data")
	// ErrNotEnoughData is returned when a history is too short for a computation.
	ErrNotEnoughData = errors.New("not enough data")
)

// Bars holds the daily history of a security, as returned by a Provider.
type Bars struct {
	Ticker    string
	Close     date.History[float64] // closing prices, not adjusted for dividends
	Dividends date.History[float64] // cash amount per share, on the ex-date
}

// Len returns the number of closing prices.
func (b *Bars) Len() int { return b.Close.Len() }

// Provider is a source of daily prices and dividends.
type Provider interface {
	// History returns the bars of ticker within the range r. It returns an error
	// matching ErrNoData when the provider knows nothing of ticker on that range.
	History(ctx context.Context, ticker string, r date.Range) (*Bars, error)
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func(ctx context.Context, ticker string, r date.Range) (*Bars, error)

func (f ProviderFunc) History(ctx context.Context, ticker string, r date.Range) (*Bars, error) {
	return f(ctx, ticker, r)
}

// fallback tries a primary provider, then a secondary one.
type fallback struct{ primary, secondary Provider }

// Fallback returns a Provider that asks primary first, and secondary when primary fails or
// returns an empty history.
func Fallback(primary, secondary Provider) Provider { return &fallback{primary, secondary} }

func (f *fallback) History(ctx context.Context, ticker string, r date.Range) (*Bars, error) {
	bars, err := f.primary.History(ctx, ticker, r)
	if err == nil && bars.Len() > 0 {
		return bars, nil
	}
	log.Debug().Str("ticker", ticker).AnErr("error", err).Msg("primary provider failed, trying fallback")
	bars, err2 := f.secondary.History(ctx, ticker, r)
	if err2 != nil {
		if err == nil {
			err = ErrNoData
		}
		return nil, fmt.Errorf("%s: %w (fallback: %w)", ticker, err, err2)
	}
	return bars, nil
}

// FetchBars fetches the bars of every ticker, one after the other.
//
// Tickers that fail or have no data are logged and returned in skipped, so that a report
// can still be produced with the remaining ones.
func FetchBars(ctx context.Context, p Provider, tickers []string, r date.Range) (bars map[string]*Bars, skipped []string, err error) {
	bars = make(map[string]*Bars, len(tickers))
	for _, ticker := range tickers {
		if err := ctx.Err(); err != nil {
			return bars, skipped, err
		}
		b, err := p.History(ctx, ticker, r)
		if err == nil && b.Len() == 0 {
			err = ErrNoData
		}
		if err != nil {
			log.Warn().Str("ticker", ticker).Err(err).Msg("skipping ticker")
			skipped = append(skipped, ticker)
			continue
		}
		log.Debug().Str("ticker", ticker).Int("bars", b.Len()).Msg("fetched")
		bars[ticker] = b
	}
	return bars, skipped, nil
}
