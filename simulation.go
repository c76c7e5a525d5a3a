package research

import (
	"cmp"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"

	"github.com/etnz/research/date"
	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Simulator draws possible outcomes of a portfolio from its historical daily returns.
type Simulator struct {
	Capital float64
	Days    int // horizon in trading days
	Runs    int
	Block   int // block length of the block bootstrap
	Seed    uint64

	rng *rand.Rand
}

// NewSimulator returns a Simulator with the default settings: $60,000 over 63 days, 10,000
// runs and blocks of 5 days.
func NewSimulator(seed uint64) *Simulator {
	return &Simulator{Capital: 60000, Days: 63, Runs: 10000, Block: 5, Seed: seed}
}

func (s *Simulator) rand() *rand.Rand {
	if s.rng == nil {
		s.rng = rand.New(rand.NewPCG(s.Seed, s.Seed^0x9e3779b97f4a7c15))
	}
	return s.rng
}

// value returns the capital compounded by the returns.
func (s *Simulator) value(r []float64) float64 {
	v := 1.0
	for _, x := range r {
		v *= 1 + x
	}
	return s.Capital * v
}

// Bootstrap samples Days daily returns uniformly with replacement, Runs times, and returns the
// final portfolio values.
func (s *Simulator) Bootstrap(r []float64) ([]float64, error) {
	if len(r) == 0 {
		return nil, ErrNotEnoughData
	}
	rng := s.rand()
	path := make([]float64, s.Days)
	values := make([]float64, s.Runs)
	for i := range values {
		for j := range path {
			path[j] = r[rng.IntN(len(r))]
		}
		values[i] = s.value(path)
	}
	return values, nil
}

// BlockBootstrap is like Bootstrap but samples blocks of consecutive days, which keeps some of
// the volatility clustering.
func (s *Simulator) BlockBootstrap(r []float64) ([]float64, error) {
	n := len(r)
	if s.Block <= 0 || n <= s.Block {
		return nil, fmt.Errorf("%d returns for blocks of %d: %w", n, s.Block, ErrNotEnoughData)
	}
	rng := s.rand()
	path := make([]float64, 0, s.Days+s.Block)
	values := make([]float64, s.Runs)
	for i := range values {
		path = path[:0]
		for len(path) < s.Days {
			start := rng.IntN(n - s.Block)
			path = append(path, r[start:start+s.Block]...)
		}
		values[i] = s.value(path[:s.Days])
	}
	return values, nil
}

// Rolling returns the final value of every historical window of Days consecutive returns.
func (s *Simulator) Rolling(r []float64) ([]float64, error) {
	if len(r) <= s.Days {
		return nil, fmt.Errorf("%d returns for windows of %d: %w", len(r), s.Days, ErrNotEnoughData)
	}
	values := make([]float64, 0, len(r)-s.Days)
	for i := s.Days; i < len(r); i++ {
		values = append(values, s.value(r[i-s.Days:i]))
	}
	return values, nil
}

// Percentiles reported by a Distribution.
var Percentiles = []float64{1, 5, 10, 25, 50, 75, 90, 95, 99}

// Quantile is a percentile of a distribution of values.
type Quantile struct {
	P      float64 // percentile, 0 to 100
	Value  float64
	Return float64 // in percent of capital
}

// Distribution describes the final values of a simulation.
type Distribution struct {
	Name      string
	Capital   float64
	N         int
	Min, Max  Quantile
	Quantiles []Quantile // at Percentiles

	// Probabilities in percent.
	Loss   float64
	Loss10 float64
	Loss20 float64
	Loss30 float64
	Gain10 float64
	Gain20 float64
	Gain30 float64
	Gain50 float64

	// Risk in percent of capital, negative for losses.
	VaR95  float64
	VaR99  float64
	CVaR95 float64
}

// percentile returns the p-th percentile of sorted x, interpolated linearly between the two
// closest ranks at position (n-1)×p/100.
//
// stat.Quantile is not used: its LinInterp places the first value at 1/n instead of 0.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	h := float64(len(sorted)-1) * p / 100
	lo := int(math.Floor(h))
	hi := min(lo+1, len(sorted)-1)
	return sorted[lo] + (h-float64(lo))*(sorted[hi]-sorted[lo])
}

// NewDistribution computes the Distribution of final values.
func NewDistribution(name string, values []float64, capital float64) Distribution {
	d := Distribution{Name: name, Capital: capital, N: len(values)}
	if len(values) == 0 {
		return d
	}
	rets := make([]float64, len(values))
	for i, v := range values {
		rets[i] = (v/capital - 1) * 100
	}
	slices.Sort(rets)
	q := func(p, r float64) Quantile { return Quantile{P: p, Value: capital * (1 + r/100), Return: r} }

	d.Min = q(0, rets[0])
	d.Max = q(100, rets[len(rets)-1])
	for _, p := range Percentiles {
		d.Quantiles = append(d.Quantiles, q(p, percentile(rets, p)))
	}

	share := func(pred func(float64) bool) float64 {
		n := 0
		for _, r := range rets {
			if pred(r) {
				n++
			}
		}
		return float64(n) / float64(len(rets)) * 100
	}
	d.Loss = share(func(r float64) bool { return r < 0 })
	d.Loss10 = share(func(r float64) bool { return r < -10 })
	d.Loss20 = share(func(r float64) bool { return r < -20 })
	d.Loss30 = share(func(r float64) bool { return r < -30 })
	d.Gain10 = share(func(r float64) bool { return r > 10 })
	d.Gain20 = share(func(r float64) bool { return r > 20 })
	d.Gain30 = share(func(r float64) bool { return r > 30 })
	d.Gain50 = share(func(r float64) bool { return r > 50 })

	d.VaR95 = percentile(rets, 5)
	d.VaR99 = percentile(rets, 1)
	var tail []float64
	for _, r := range rets {
		if r <= d.VaR95 {
			tail = append(tail, r)
		}
	}
	d.CVaR95 = stat.Mean(tail, nil)
	return d
}

// Percentile returns the Quantile at p, which must be one of Percentiles.
func (d Distribution) Percentile(p float64) Quantile {
	for _, q := range d.Quantiles {
		if q.P == p {
			return q
		}
	}
	return Quantile{P: p, Value: math.NaN(), Return: math.NaN()}
}

// Median returns the 50th percentile.
func (d Distribution) Median() Quantile { return d.Percentile(50) }

// Dollars converts a percentage of capital to dollars.
func (d Distribution) Dollars(pct float64) float64 { return d.Capital * pct / 100 }

// MonthlyReturns summarizes the compounded returns of calendar months, in percent.
type MonthlyReturns struct {
	N        int
	Worst    float64
	Best     float64
	Median   float64
	Positive float64 // share of positive months
}

// PainAnalysis is what holding the portfolio actually felt like.
type PainAnalysis struct {
	From, To        date.Date
	MaxDrawdown     float64 // in percent
	CurrentDrawdown float64
	Underwater      []int // underwater periods, in trading days
	LongestPeriod   int
	AvgPeriod       float64
	Monthly         MonthlyReturns
	TotalReturn     float64 // in percent
	Annualized      float64
}

// Pain analyzes daily portfolio returns r observed on days.
func Pain(r []float64, days []date.Date) PainAnalysis {
	var p PainAnalysis
	if len(r) == 0 {
		return p
	}
	if len(days) == len(r) {
		p.From, p.To = days[0], days[len(days)-1]
	}
	cum := Compound(r)
	dd := drawdownSeries(cum)
	p.MaxDrawdown = floats.Min(dd) * 100
	p.CurrentDrawdown = dd[len(dd)-1] * 100
	p.Underwater = underwater(dd)
	for _, n := range p.Underwater {
		p.LongestPeriod = max(p.LongestPeriod, n)
		p.AvgPeriod += float64(n)
	}
	if len(p.Underwater) > 0 {
		p.AvgPeriod /= float64(len(p.Underwater))
	}

	if len(days) == len(r) {
		p.Monthly = monthlyReturns(r, days)
	}

	total := cum[len(cum)-1] - 1
	p.TotalReturn = total * 100
	p.Annualized = (math.Pow(1+total, TradingDays/float64(len(r))) - 1) * 100
	return p
}

// monthlyReturns compounds daily returns per calendar month.
func monthlyReturns(r []float64, days []date.Date) MonthlyReturns {
	var months []float64
	cur, v := days[0].StartOf(date.Monthly), 1.0
	for i, x := range r {
		if m := days[i].StartOf(date.Monthly); m != cur {
			months = append(months, v-1)
			cur, v = m, 1.0
		}
		v *= 1 + x
	}
	months = append(months, v-1)

	m := MonthlyReturns{N: len(months)}
	slices.Sort(months)
	m.Worst = months[0] * 100
	m.Best = months[len(months)-1] * 100
	m.Median = median(months) * 100
	pos := 0
	for _, x := range months {
		if x > 0 {
			pos++
		}
	}
	m.Positive = float64(pos) / float64(len(months)) * 100
	return m
}

// median of sorted x, the mean of the two middle values for even lengths.
func median(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// SimulationReport bundles the historical and simulated distributions of a portfolio.
type SimulationReport struct {
	Universe  string
	Simulator Simulator
	Weights   []TickerWeight // by decreasing weight
	From, To  date.Date
	Pain      PainAnalysis
	Methods   []Distribution // historical, bootstrap and block bootstrap
	Skipped   []string
}

// Simulate computes the portfolio daily returns of the frame with raw weights, and the three
// distributions of final values.
func (s *Simulator) Simulate(f *Frame, weights map[string]float64) (*SimulationReport, error) {
	returns := f.Returns()
	if returns.Len() == 0 {
		return nil, ErrNotEnoughData
	}
	r := PortfolioReturns(returns, weights)

	rep := &SimulationReport{Simulator: *s, From: returns.First(), To: returns.Last()}
	rep.Simulator.rng = nil
	for t, w := range weights {
		rep.Weights = append(rep.Weights, TickerWeight{t, w})
	}
	slices.SortFunc(rep.Weights, func(a, b TickerWeight) int {
		if a.Weight != b.Weight {
			return byScore(a.Weight, b.Weight)
		}
		return cmp.Compare(a.Ticker, b.Ticker)
	})
	rep.Pain = Pain(r, returns.Dates)

	methods := []struct {
		name string
		run  func([]float64) ([]float64, error)
	}{
		{"Historical", s.Rolling},
		{"Bootstrap", s.Bootstrap},
		{"Block Bootstrap", s.BlockBootstrap},
	}
	for _, m := range methods {
		values, err := m.run(r)
		if err != nil {
			return nil, fmt.Errorf("%s simulation: %w", m.name, err)
		}
		log.Debug().Str("method", m.name).Int("outcomes", len(values)).Msg("simulated")
		rep.Methods = append(rep.Methods, NewDistribution(m.name, values, s.Capital))
	}
	return rep, nil
}
