package research

import (
	"cmp"
	"math"
	"slices"

	"github.com/etnz/research/date"
)

// Skip-momentum lookbacks, as (recent, past) trading days.
var (
	Momentum12_1  = [2]int{21, 252}
	Momentum6_1   = [2]int{21, 126}
	Momentum12w2w = [2]int{10, 60}
)

// TopNScore is the skip-momentum assessment of one security, momenta in percent.
type TopNScore struct {
	Ticker   string
	Mom12_1  float64
	Mom6_1   float64
	Mom12w2w float64
	Avg      float64
	Score    float64 // average momentum / downside vol, both as fractions
}

// TopNRow is a selected security with its allocation.
type TopNRow struct {
	TopNScore
	Category string
	Thesis   string
	Amount   float64
	Percent  float64 // of capital
	Weekly   float64 // weekly purchase over DCAWeeks
}

// TopNReport is the outcome of the top-N skip-momentum allocation.
type TopNReport struct {
	Universe string
	Capital  float64
	N        int
	Min, Max float64
	From, To date.Date
	Scores   []TopNScore // every ticker, by decreasing score
	Rows     []TopNRow   // positive allocations, by decreasing amount
	Total    float64
	Skipped  []string
}

// topNPasses is the number of floor, cap and rescale passes.
const topNPasses = 10

// scoreTopN computes the skip-momentum score of a ticker.
func scoreTopN(f *Frame, ticker string) TopNScore {
	p := f.Column(ticker)
	s := TopNScore{
		Ticker:   ticker,
		Mom12_1:  SkipMomentum(p, Momentum12_1[0], Momentum12_1[1]),
		Mom6_1:   SkipMomentum(p, Momentum6_1[0], Momentum6_1[1]),
		Mom12w2w: SkipMomentum(p, Momentum12w2w[0], Momentum12w2w[1]),
	}
	s.Avg = (s.Mom12_1 + s.Mom6_1 + s.Mom12w2w) / 3
	// no floor here, a series that never declined has a NaN score and ranks last
	dvol := stddev(negatives(Returns(p))) * math.Sqrt(TradingDays)
	s.Score = s.Avg / dvol
	if math.IsInf(s.Score, 0) {
		s.Score = math.NaN()
	}
	s.Mom12_1 *= 100
	s.Mom6_1 *= 100
	s.Mom12w2w *= 100
	s.Avg *= 100
	return s
}

// byScore orders scores by decreasing value, NaN last.
func byScore(a, b float64) int {
	switch an, bn := math.IsNaN(a), math.IsNaN(b); {
	case an && bn:
		return 0
	case an:
		return 1
	case bn:
		return -1
	}
	return cmp.Compare(b, a)
}

// TopN selects the n best scores of the frame and allocates capital by their positive 12w-2w
// momentum. Tickers without a score are never selected, and nothing is allocated when no
// selected ticker has a positive 12w-2w momentum. Allocations are floored at capital×min, capped at capital×max, and rescaled, ten
// times, then rounded to the nearest $1000.
func TopN(f *Frame, u *Universe, n int, capital, minW, maxW float64) *TopNReport {
	r := &TopNReport{Capital: capital, N: n, Min: minW, Max: maxW, From: f.First(), To: f.Last()}
	if u != nil {
		r.Universe = u.Name
	}
	for _, t := range f.Tickers {
		r.Scores = append(r.Scores, scoreTopN(f, t))
	}
	slices.SortStableFunc(r.Scores, func(a, b TopNScore) int { return byScore(a.Score, b.Score) })

	// only scored tickers are candidates, NaN scores sort last
	ranked := slices.IndexFunc(r.Scores, func(s TopNScore) bool { return math.IsNaN(s.Score) })
	if ranked < 0 {
		ranked = len(r.Scores)
	}
	top := r.Scores[:min(n, ranked)]
	alloc := make([]float64, len(top))
	sum := 0.0
	for i, s := range top {
		if s.Mom12w2w > 0 {
			alloc[i] = s.Mom12w2w
			sum += alloc[i]
		}
	}
	if sum == 0 {
		// no positive momentum, nothing to allocate
		return r
	}
	for i := range alloc {
		alloc[i] = alloc[i] / sum * capital
	}

	for range topNPasses {
		total := 0.0
		for i, a := range alloc {
			alloc[i] = math.Min(math.Max(a, capital*minW), capital*maxW)
			total += alloc[i]
		}
		if total == 0 {
			break
		}
		for i := range alloc {
			alloc[i] *= capital / total
		}
	}

	for i, s := range top {
		a := roundBank(alloc[i], 1000)
		if !(a > 0) {
			continue
		}
		row := TopNRow{
			TopNScore: s,
			Amount:    a,
			Percent:   a / capital * 100,
			Weekly:    math.Max(100, math.Trunc(a/DCAWeeks/100)*100),
		}
		if u != nil {
			if sec, ok := u.Get(s.Ticker); ok {
				row.Category, row.Thesis = sec.Category, sec.Thesis
			}
		}
		r.Rows = append(r.Rows, row)
		r.Total += a
	}
	slices.SortStableFunc(r.Rows, func(a, b TopNRow) int { return cmp.Compare(b.Amount, a.Amount) })
	return r
}
