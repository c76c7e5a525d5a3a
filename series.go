package research

import (
	"math"
	"slices"

	"github.com/etnz/research/date"
)

// alignDividends returns, for each close date, the dividends paid on that date. A dividend
// whose ex-date is not a trading day is attached to the next close. Dividends after the last
// close are ignored.
func alignDividends(b *Bars) []float64 {
	days := b.Close.Days()
	div := make([]float64, len(days))
	for on, amount := range b.Dividends.Values() {
		i, _ := slices.BinarySearchFunc(days, on, date.Date.Compare)
		if i < len(days) {
			div[i] += amount
		}
	}
	return div
}

// TotalReturnIndex returns the closing prices adjusted for reinvested dividends.
//
// Each dividend is reinvested at the previous close, and the reinvestment compounds:
//
//	y[i]   = div[i] / close[i-1]
//	cum[i] = (1+cum[i-1])(1+y[i]) - 1
//	tri[i] = close[i] (1+cum[i])
func TotalReturnIndex(b *Bars) *date.History[float64] {
	days, closes := b.Close.Days(), b.Close.Slice()
	div := alignDividends(b)

	tri := new(date.History[float64])
	cum := 0.0
	for i, on := range days {
		if i > 0 {
			y := 0.0
			if closes[i-1] != 0 {
				y = div[i] / closes[i-1]
			}
			cum = (1+cum)*(1+y) - 1
		}
		tri.Append(on, closes[i]*(1+cum))
	}
	return tri
}

// SimpleTotalReturnIndex is like TotalReturnIndex but dividend yields are summed instead of
// compounded: tri[i] = close[i] (1 + Σ div[k]/close[k-1]).
func SimpleTotalReturnIndex(b *Bars) *date.History[float64] {
	days, closes := b.Close.Days(), b.Close.Slice()
	div := alignDividends(b)

	tri := new(date.History[float64])
	sum := 0.0
	for i, on := range days {
		if i > 0 && closes[i-1] != 0 {
			sum += div[i] / closes[i-1]
		}
		tri.Append(on, closes[i]*(1+sum))
	}
	return tri
}

// Align selects how NewFrame deals with dates missing in some series.
type Align int

const (
	// Intersect keeps only the dates common to every series.
	Intersect Align = iota
	// Fill keeps every date, forward filling then back filling missing values.
	Fill
)

// Frame is a set of daily series sharing the same dates.
type Frame struct {
	Dates   []date.Date
	Tickers []string
	Columns map[string][]float64
}

// NewFrame aligns series on common dates. Tickers are kept in the given order, tickers
// without a series (or with an empty one) are left out.
func NewFrame(tickers []string, series map[string]*date.History[float64], align Align) *Frame {
	f := &Frame{Columns: make(map[string][]float64)}
	var hs []*date.History[float64]
	for _, t := range tickers {
		h, ok := series[t]
		if !ok || h.Len() == 0 || slices.Contains(f.Tickers, t) {
			continue
		}
		f.Tickers = append(f.Tickers, t)
		hs = append(hs, h)
	}

	switch align {
	case Fill:
		f.Dates = date.Union(hs...)
	default:
		f.Dates = date.Intersect(hs...)
	}

	for i, t := range f.Tickers {
		h := hs[i]
		_, first := h.First()
		col := make([]float64, len(f.Dates))
		for j, on := range f.Dates {
			v, ok := h.ValueAsOf(on)
			if !ok {
				v = first // back fill
			}
			col[j] = v
		}
		f.Columns[t] = col
	}
	return f
}

// Len returns the number of dates in the frame.
func (f *Frame) Len() int { return len(f.Dates) }

// Has reports whether the frame has a column for ticker.
func (f *Frame) Has(ticker string) bool {
	_, ok := f.Columns[ticker]
	return ok
}

// Column returns the values for ticker, or nil.
func (f *Frame) Column(ticker string) []float64 { return f.Columns[ticker] }

// Latest returns the last value of ticker, NaN if it's unknown.
func (f *Frame) Latest(ticker string) float64 {
	col := f.Columns[ticker]
	if len(col) == 0 {
		return math.NaN()
	}
	return col[len(col)-1]
}

// First returns the first date of the frame.
func (f *Frame) First() date.Date {
	if len(f.Dates) == 0 {
		return date.Date{}
	}
	return f.Dates[0]
}

// Last returns the last date of the frame.
func (f *Frame) Last() date.Date {
	if len(f.Dates) == 0 {
		return date.Date{}
	}
	return f.Dates[len(f.Dates)-1]
}

// Returns returns the frame of daily returns. The first date has no return and is dropped.
func (f *Frame) Returns() *Frame {
	r := &Frame{Tickers: slices.Clone(f.Tickers), Columns: make(map[string][]float64)}
	if len(f.Dates) > 1 {
		r.Dates = slices.Clone(f.Dates[1:])
	}
	for _, t := range f.Tickers {
		r.Columns[t] = Returns(f.Columns[t])
	}
	return r
}

// Select returns a frame restricted to the given tickers, in that order. Unknown tickers are
// ignored.
func (f *Frame) Select(tickers ...string) *Frame {
	s := &Frame{Dates: f.Dates, Columns: make(map[string][]float64)}
	for _, t := range tickers {
		if col, ok := f.Columns[t]; ok && !slices.Contains(s.Tickers, t) {
			s.Tickers = append(s.Tickers, t)
			s.Columns[t] = col
		}
	}
	return s
}

// Tail returns a frame with the last n dates.
func (f *Frame) Tail(n int) *Frame {
	if n >= len(f.Dates) {
		return f
	}
	n = max(n, 0)
	start := len(f.Dates) - n
	t := &Frame{Dates: f.Dates[start:], Tickers: f.Tickers, Columns: make(map[string][]float64)}
	for k, col := range f.Columns {
		t.Columns[k] = col[start:]
	}
	return t
}
