package cmd

import (
	"context"
	"fmt"

	"github.com/etnz/research"
	"github.com/etnz/research/date"
)

// index turns bars into the series a report is computed on.
type index func(*research.Bars) *date.History[float64]

// fetchFrame fetches the bars of tickers within r and aligns their index. Tickers without
// data are returned in skipped.
func fetchFrame(ctx context.Context, tickers []string, r date.Range, align research.Align, idx index) (f *research.Frame, skipped []string, err error) {
	p, err := newProvider()
	if err != nil {
		return nil, nil, err
	}
	bars, skipped, err := research.FetchBars(ctx, p, tickers, r)
	if err != nil {
		return nil, skipped, err
	}
	series := make(map[string]*date.History[float64], len(bars))
	for t, b := range bars {
		series[t] = idx(b)
	}
	f = research.NewFrame(tickers, series, align)
	if f.Len() == 0 {
		return nil, skipped, fmt.Errorf("no common price history in %s: %w", r, research.ErrNoData)
	}
	return f, skipped, nil
}

// lookback returns the range of the last years.
func lookback(years int) date.Range { return date.Lookback(date.Today(), years) }
