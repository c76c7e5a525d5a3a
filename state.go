package research

import (
	"context"
	"fmt"
	"math"

	"github.com/etnz/research/date"
	"github.com/rs/zerolog/log"
)

// RangeBand is the relative distance to the reference price that raises a price alert.
const RangeBand = 0.2

// StateWindow is the number of calendar days of history used to check the momentum.
const StateWindow = 180

// Snapshot is the latest quote of a security.
type Snapshot struct {
	Price     float64
	DayChange float64 // percent
	MarketCap float64
}

// PriceState is the current state of a holding compared to its reference price.
type PriceState struct {
	Ticker      string
	Price       float64
	Reference   float64
	Change      float64 // percent from Reference, 0 without reference
	WithinRange bool
	Return3M    float64 // percent
	Return6M    float64 // percent, over the whole window
	Positive    bool    // both returns are positive
	DayChange   float64
	MarketCap   float64
	Source      string
}

// windowReturns returns the 3M return, from the last Lookback3M closes, and the return over
// the whole history, in percent. When strict, the 3M return is 0 for shorter histories,
// otherwise it starts at the first close.
func windowReturns(closes []float64, strict bool) (r3, r6 float64) {
	n := len(closes)
	if n == 0 {
		return 0, 0
	}
	last := closes[n-1]
	pct := func(start float64) float64 {
		if start <= 0 {
			return 0
		}
		return (last - start) / start * 100
	}
	if !strict || n >= Lookback3M {
		r3 = pct(closes[max(0, n-Lookback3M)])
	}
	return r3, pct(closes[0])
}

// CheckState compares a price to its reference and computes the momentum of the closes.
//
// The price is within range when it is within RangeBand of the reference, or when there is
// no reference.
func CheckState(ticker string, snap Snapshot, reference float64, closes []float64, strict bool) PriceState {
	s := PriceState{
		Ticker:      ticker,
		Price:       snap.Price,
		Reference:   reference,
		WithinRange: true,
		DayChange:   snap.DayChange,
		MarketCap:   snap.MarketCap,
	}
	if reference > 0 {
		s.Change = (s.Price - reference) / reference * 100
		s.WithinRange = reference*(1-RangeBand) <= s.Price && s.Price <= reference*(1+RangeBand)
	}
	s.Return3M, s.Return6M = windowReturns(closes, strict)
	s.Positive = s.Return3M > 0 && s.Return6M > 0
	return s
}

// Alerts lists a price alert per state outside of its range and a momentum alert per state
// without positive momentum.
func Alerts(states []PriceState) []string {
	var alerts []string
	for _, s := range states {
		if !s.WithinRange {
			alerts = append(alerts, fmt.Sprintf("PRICE ALERT: %s is outside %.0f%% range ($%.2f vs ref $%.2f)",
				s.Ticker, RangeBand*100, s.Price, s.Reference))
		}
		if !s.Positive {
			alerts = append(alerts, fmt.Sprintf("MOMENTUM ALERT: %s has negative momentum (3M: %+.1f%%, 6M: %+.1f%%)",
				s.Ticker, s.Return3M, s.Return6M))
		}
	}
	return alerts
}

// StateSource provides quotes and recent closes.
type StateSource struct {
	Name string
	// Snapshot returns the latest quote. When nil the last close is used.
	Snapshot func(ctx context.Context, ticker string) (Snapshot, error)
	History  Provider
	// Strict3M zeroes the 3M return of histories shorter than 3 months.
	Strict3M bool
}

// check computes the state of ticker from the source.
func (src StateSource) check(ctx context.Context, ticker string, reference float64, r date.Range) (PriceState, error) {
	var snap Snapshot
	if src.Snapshot != nil {
		var err error
		if snap, err = src.Snapshot(ctx, ticker); err != nil {
			return PriceState{}, err
		}
	}
	var closes []float64
	bars, err := src.History.History(ctx, ticker, r)
	switch {
	case err == nil:
		closes = bars.Close.Slice()
	case src.Snapshot == nil:
		return PriceState{}, err
	default:
		log.Debug().Str("ticker", ticker).Err(err).Msg("no history, momentum is 0")
	}
	if src.Snapshot == nil {
		if len(closes) == 0 {
			return PriceState{}, ErrNoData
		}
		snap.Price = closes[len(closes)-1]
	}
	if snap.Price == 0 || math.IsNaN(snap.Price) {
		return PriceState{}, ErrNoData
	}
	s := CheckState(ticker, snap, reference, closes, src.Strict3M)
	s.Source = src.Name
	return s, nil
}

// StateReport is the state of the holdings of a universe.
type StateReport struct {
	Universe      string
	AsOf          date.Date
	ReferenceDate date.Date
	Window        date.Range
	States        []PriceState
	Alerts        []string
	Skipped       []string
}

// CheckStates checks every security of u, trying the sources in order.
func CheckStates(ctx context.Context, u *Universe, today date.Date, sources ...StateSource) (*StateReport, error) {
	r := &StateReport{
		Universe:      u.Name,
		AsOf:          today,
		ReferenceDate: u.ReferenceDate,
		Window:        date.Range{From: today.Add(-StateWindow), To: today},
	}
	for _, sec := range u.Securities {
		if err := ctx.Err(); err != nil {
			return r, err
		}
		var (
			state PriceState
			err   error
		)
		for _, src := range sources {
			state, err = src.check(ctx, sec.Ticker, sec.Reference, r.Window)
			if err == nil {
				break
			}
			log.Warn().Str("ticker", sec.Ticker).Str("source", src.Name).Err(err).Msg("state unavailable")
		}
		if err != nil || len(sources) == 0 {
			r.Skipped = append(r.Skipped, sec.Ticker)
			continue
		}
		r.States = append(r.States, state)
	}
	r.Alerts = Alerts(r.States)
	return r, nil
}
