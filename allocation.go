package research

import (
	"cmp"
	"math"
	"slices"

	"github.com/etnz/research/date"
	"gonum.org/v1/gonum/floats"
)

// Constraints bound a score weighted allocation.
type Constraints struct {
	Capital   float64
	Min       float64 // positions below Capital×Min are zeroed
	Max       float64 // positions above Capital×Max are capped
	SectorCap float64 // each sector is scaled down to Capital×SectorCap
	Sectors   []Group
}

// DefaultConstraints returns the constraints for capital: 5% minimum, no maximum and 33% per
// sector.
func DefaultConstraints(capital float64) Constraints {
	return Constraints{Capital: capital, Min: 0.05, Max: 1.0, SectorCap: 0.33}
}

// maxIterations bounds the constraint loop, sector caps and rescaling may never settle.
const maxIterations = 100

// ScoreWeights keeps the positive scores and normalizes them to sum to 1. It returns an empty
// map when no score is positive.
func ScoreWeights(scores map[string]float64) map[string]float64 {
	total := 0.0
	for _, s := range scores {
		if s > 0 {
			total += s
		}
	}
	weights := make(map[string]float64)
	if total == 0 {
		return weights
	}
	for t, s := range scores {
		if s > 0 {
			weights[t] = s / total
		}
	}
	return weights
}

// ApplyConstraints turns weights into dollar amounts that respect the constraints.
//
// Each iteration zeroes positions below the minimum, caps positions above the maximum, scales
// down each sector over its cap, and rescales everything back to the capital when more than
// $1 off. It stops when an iteration changes nothing.
func ApplyConstraints(weights map[string]float64, c Constraints) map[string]float64 {
	alloc := make(map[string]float64, len(weights))
	for t, w := range weights {
		alloc[t] = w * c.Capital
	}
	minAmount := c.Capital * c.Min
	maxAmount := c.Capital * c.Max
	sectorCap := c.Capital * c.SectorCap

	for range maxIterations {
		changed := false

		for t, a := range alloc {
			if a > 0 && a < minAmount {
				alloc[t] = 0
				changed = true
			}
		}

		for t, a := range alloc {
			if a > maxAmount {
				alloc[t] = maxAmount
				changed = true
			}
		}

		for _, sector := range c.Sectors {
			total := 0.0
			for _, t := range sector.Tickers {
				total += alloc[t]
			}
			if total > sectorCap {
				scale := sectorCap / total
				for _, t := range sector.Tickers {
					if _, ok := alloc[t]; ok {
						alloc[t] *= scale
					}
				}
				changed = true
			}
		}

		total := 0.0
		for _, a := range alloc {
			total += a
		}
		if total > 0 && math.Abs(total-c.Capital) > 1 {
			for t := range alloc {
				alloc[t] *= c.Capital / total
			}
			changed = true
		}

		if !changed {
			break
		}
	}
	return alloc
}

// Position is a rounded dollar allocation.
type Position struct {
	Ticker string
	Amount float64 // rounded dollars
	Price  float64
	Shares float64 // fractional shares
	Weight float64 // percent of the total amount, rounded to 2 decimals
}

// Positions rounds allocations to the nearest $1000 ($100 below $500) and computes shares at the
// latest price of the frame. Positions are sorted by decreasing amount.
func Positions(alloc map[string]float64, f *Frame) []Position {
	positions := make([]Position, 0, len(alloc))
	total := 0.0
	for t, a := range alloc {
		p := Position{Ticker: t, Amount: RoundToNearest(a, 1000), Price: f.Latest(t)}
		if p.Price > 0 {
			p.Shares = p.Amount / p.Price
		}
		total += p.Amount
		positions = append(positions, p)
	}
	for i := range positions {
		if total > 0 {
			positions[i].Weight = round(positions[i].Amount/total*100, 2)
		}
	}
	slices.SortFunc(positions, func(a, b Position) int {
		if c := cmp.Compare(b.Amount, a.Amount); c != 0 {
			return c
		}
		return cmp.Compare(a.Ticker, b.Ticker)
	})
	return positions
}

// activePositions returns the positions with a positive amount.
func activePositions(positions []Position) []Position {
	return slices.DeleteFunc(slices.Clone(positions), func(p Position) bool { return p.Amount <= 0 })
}

// SpecialDCA describes a security that is bought on a fixed schedule while its momentum is
// negative, instead of competing on score.
type SpecialDCA struct {
	Ticker     string
	MonthlyPct float64 // monthly purchase as a fraction of capital
	CapPct     float64 // target exposure as a fraction of capital
}

// DefaultSpecialDCA returns the default plan for ticker: 0.1% per month up to 7.3%.
func DefaultSpecialDCA(ticker string) SpecialDCA {
	return SpecialDCA{Ticker: ticker, MonthlyPct: 0.001, CapPct: 0.073}
}

// DCAPlan is the schedule of a SpecialDCA for a given capital.
type DCAPlan struct {
	Ticker         string
	Active         bool // the combined momentum is not positive, DCA applies
	Combined       float64
	Price          float64
	Cap            float64
	Monthly        float64
	Weekly         float64
	SharesPerMonth float64
	MonthsToCap    int
}

// Plan computes the DCA plan given the assessment of the special ticker.
func (s SpecialDCA) Plan(capital float64, a Assessment) DCAPlan {
	p := DCAPlan{
		Ticker:   s.Ticker,
		Active:   !(a.Combined > 0),
		Combined: a.Combined,
		Price:    a.Price,
		Cap:      math.Trunc(capital * s.CapPct),
		Monthly:  capital * s.MonthlyPct,
	}
	if !p.Active {
		return p
	}
	p.Weekly = math.Max(100, RoundToNearest(p.Monthly/4, 100))
	if p.Price > 0 {
		p.SharesPerMonth = p.Monthly / p.Price
	}
	if p.Monthly > 0 {
		p.MonthsToCap = int(p.Cap / p.Monthly)
	}
	return p
}

// WeeklyLine is one line of a weekly DCA plan.
type WeeklyLine struct {
	Ticker string
	Target float64
	Weekly float64
	Total  float64 // Weekly × weeks
	DCA    bool    // line of the special DCA
}

// WeeklyPlan spreads the positions over a number of weeks.
type WeeklyPlan struct {
	Weeks  int
	Lines  []WeeklyLine
	Weekly float64 // sum of weekly amounts
	Total  float64 // Weekly × weeks
}

// NewWeeklyPlan splits each position in weekly purchases rounded to $100. The special DCA, when
// active, adds its own weekly line.
func NewWeeklyPlan(positions []Position, weeks int, dca *DCAPlan) WeeklyPlan {
	plan := WeeklyPlan{Weeks: weeks}
	for _, p := range activePositions(positions) {
		w := RoundToNearest(p.Amount/float64(weeks), 100)
		plan.Lines = append(plan.Lines, WeeklyLine{Ticker: p.Ticker, Target: p.Amount, Weekly: w, Total: w * float64(weeks)})
	}
	if dca != nil && dca.Active {
		plan.Lines = append(plan.Lines, WeeklyLine{Ticker: dca.Ticker, Weekly: dca.Weekly, Total: dca.Weekly * float64(weeks), DCA: true})
	}
	for _, l := range plan.Lines {
		plan.Weekly += l.Weekly
	}
	plan.Total = plan.Weekly * float64(weeks)
	return plan
}

// PortfolioMetrics are the risk and return figures of a set of positions.
type PortfolioMetrics struct {
	Positions       int
	MaxWeight       float64
	Top3            float64 // weight of the 3 largest positions
	Momentum3M      float64 // weighted
	Momentum6M      float64
	DownsideVol     float64 // weighted average of the positions downside vol
	Score           float64
	Volatility      float64 // of the portfolio daily returns
	PortfolioDVol   float64 // downside vol of the portfolio daily returns
	RiskReward      float64 // average momentum / PortfolioDVol
	MaxDrawdown     float64 // weighted
	MaxDDDuration   float64 // weighted, in trading days
	WorstRolling    float64 // weighted
	CurrentDrawdown float64 // weighted
	PainRatio       float64 // average momentum / |MaxDrawdown|
}

// NewPortfolioMetrics computes the metrics of positions, using the assessments and the daily
// returns of the underlying securities.
func NewPortfolioMetrics(positions []Position, returns *Frame, assessments map[string]Assessment) PortfolioMetrics {
	active := activePositions(positions)
	m := PortfolioMetrics{Positions: len(active)}
	if len(active) == 0 {
		return m
	}

	weights := make(map[string]float64, len(active))
	ws := make([]float64, 0, len(active))
	for _, p := range active {
		w := p.Weight / 100
		weights[p.Ticker] = w
		ws = append(ws, w)

		a := assessments[p.Ticker]
		m.Momentum3M += w * a.Momentum3M
		m.Momentum6M += w * a.Momentum6M
		m.DownsideVol += w * a.DownsideVol
		m.Score += w * a.Score
		m.MaxDrawdown += w * a.Drawdown.Max
		m.MaxDDDuration += w * float64(a.Drawdown.MaxDuration)
		m.WorstRolling += w * a.Drawdown.WorstRolling
		m.CurrentDrawdown += w * a.Drawdown.Current
	}
	m.MaxWeight = floats.Max(ws)
	slices.Sort(ws)
	slices.Reverse(ws)
	m.Top3 = floats.Sum(ws[:min(3, len(ws))])

	daily := PortfolioReturns(returns, weights)
	m.Volatility = Volatility(daily)
	m.PortfolioDVol = stddev(negatives(daily)) * math.Sqrt(TradingDays)

	avg := (m.Momentum3M + m.Momentum6M) / 2
	if m.PortfolioDVol > 0 {
		m.RiskReward = avg / m.PortfolioDVol
	}
	if m.MaxDrawdown != 0 {
		m.PainRatio = avg / math.Abs(m.MaxDrawdown)
	}
	return m
}

// Exposure is the amount allocated to a reporting group.
type Exposure struct {
	Name    string
	Tickers []string // active tickers of the group
	Amount  float64
	Percent float64 // of capital
}

// Exposures sums the positions per reporting group.
func Exposures(positions []Position, groups []Group, capital float64) []Exposure {
	amounts := make(map[string]float64)
	for _, p := range activePositions(positions) {
		amounts[p.Ticker] = p.Amount
	}
	out := make([]Exposure, 0, len(groups))
	for _, g := range groups {
		e := Exposure{Name: g.Name}
		for _, t := range g.Tickers {
			if a, ok := amounts[t]; ok {
				e.Tickers = append(e.Tickers, t)
				e.Amount += a
			}
		}
		if capital > 0 {
			e.Percent = e.Amount / capital * 100
		}
		out = append(out, e)
	}
	return out
}

// TickerWeight is a weight attached to a ticker, for ordered listings.
type TickerWeight struct {
	Ticker string
	Weight float64
}

// AllocationReport is the outcome of the score weighted allocation.
type AllocationReport struct {
	Universe    string
	Constraints Constraints
	From, To    date.Date
	Assessments []Assessment // in universe order
	Passing     []string     // tickers with a positive combined momentum
	RawWeights  []TickerWeight
	Positions   []Position
	Exposures   []Exposure
	DCA         *DCAPlan
	Plan        WeeklyPlan
	Metrics     PortfolioMetrics
	Skipped     []string // tickers without data
	Quiet       bool     // hide the detailed sections
}

// DCAWeeks is the number of weeks over which an allocation is deployed.
const DCAWeeks = 12

// Allocate runs the score weighted allocation of the securities of a total return frame.
//
// Only tickers with a positive combined momentum compete, weighted by their score and bound
// by the constraints. The special DCA ticker, if any, gets a fixed schedule while its
// momentum is negative.
func Allocate(f *Frame, u *Universe, c Constraints, special SpecialDCA) *AllocationReport {
	if len(c.Sectors) == 0 {
		c.Sectors = u.Sectors
	}
	r := &AllocationReport{Universe: u.Name, Constraints: c, From: f.First(), To: f.Last()}
	assessments := AssessAll(f)

	scores := make(map[string]float64)
	for _, t := range f.Tickers {
		a := assessments[t]
		r.Assessments = append(r.Assessments, a)
		if a.Passes() {
			r.Passing = append(r.Passing, t)
			scores[t] = a.Score
		}
	}

	weights := ScoreWeights(scores)
	for _, t := range r.Passing {
		if w, ok := weights[t]; ok {
			r.RawWeights = append(r.RawWeights, TickerWeight{t, w})
		}
	}

	alloc := ApplyConstraints(weights, c)
	r.Positions = Positions(alloc, f)
	r.Exposures = Exposures(r.Positions, u.Groups, c.Capital)

	if special.Ticker != "" && f.Has(special.Ticker) {
		plan := special.Plan(c.Capital, assessments[special.Ticker])
		r.DCA = &plan
	}
	r.Plan = NewWeeklyPlan(r.Positions, DCAWeeks, r.DCA)
	r.Metrics = NewPortfolioMetrics(r.Positions, f.Returns(), assessments)
	return r
}
