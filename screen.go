package research

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/etnz/research/date"
	"gonum.org/v1/gonum/stat"
)

// Yield buckets of a screen, in percent.
const (
	HighYield   = 7.0
	MediumYield = 5.0
)

// ScreenRow is the yield and momentum assessment of a security.
type ScreenRow struct {
	Security
	Exchange    string
	Mom3M       float64 // percent, NaN when the history is too short
	Mom6M       float64
	Avg         float64
	DownsideVol float64 // annualized, as a fraction
	MaxDrawdown float64 // percent
	DDDays      int     // longest underwater period, in trading days
	Score       float64 // Avg in percent / DownsideVol
}

// Exchange returns where a US listed ticker trades: OTC for foreign ordinaries ending in F,
// NYSE otherwise.
func Exchange(ticker string) string {
	if len(ticker) > 3 && strings.HasSuffix(ticker, "F") {
		return "OTC"
	}
	return "NYSE"
}

// NewScreenRow assesses a security in a frame of total return prices.
func NewScreenRow(f *Frame, s Security) ScreenRow {
	p := f.Column(s.Ticker)
	dd := Drawdowns(p)
	r := ScreenRow{
		Security:    s,
		Exchange:    Exchange(s.Ticker),
		Mom3M:       MomentumStrict(p, Lookback3M) * 100,
		Mom6M:       MomentumStrict(p, Lookback6M) * 100,
		DownsideVol: stddev(negatives(Returns(p))) * math.Sqrt(TradingDays),
		MaxDrawdown: dd.Max * 100,
		DDDays:      dd.MaxDuration,
	}
	r.Avg = (r.Mom3M + r.Mom6M) / 2
	r.Score = r.Avg / r.DownsideVol
	if math.IsInf(r.Score, 0) {
		r.Score = math.NaN()
	}
	return r
}

// GroupStats averages the rows of a group.
type GroupStats struct {
	Name        string
	N           int
	Yield       float64
	MinYield    float64
	MaxYield    float64
	Mom3M       float64
	Mom6M       float64
	DownsideVol float64
	MaxDrawdown float64
	Score       float64
}

// nanMean is the mean of the non NaN values, NaN if there is none.
func nanMean(x []float64) float64 {
	x = slices.DeleteFunc(slices.Clone(x), math.IsNaN)
	if len(x) == 0 {
		return math.NaN()
	}
	return stat.Mean(x, nil)
}

// NewGroupStats computes the averages of rows.
func NewGroupStats(name string, rows []ScreenRow) GroupStats {
	g := GroupStats{Name: name, N: len(rows)}
	if len(rows) == 0 {
		return g
	}
	col := func(f func(ScreenRow) float64) []float64 {
		out := make([]float64, len(rows))
		for i, r := range rows {
			out[i] = f(r)
		}
		return out
	}
	yields := col(func(r ScreenRow) float64 { return r.Yield })
	g.Yield = nanMean(yields)
	g.MinYield, g.MaxYield = slices.Min(yields), slices.Max(yields)
	g.Mom3M = nanMean(col(func(r ScreenRow) float64 { return r.Mom3M }))
	g.Mom6M = nanMean(col(func(r ScreenRow) float64 { return r.Mom6M }))
	g.DownsideVol = nanMean(col(func(r ScreenRow) float64 { return r.DownsideVol }))
	g.MaxDrawdown = nanMean(col(func(r ScreenRow) float64 { return r.MaxDrawdown }))
	g.Score = nanMean(col(func(r ScreenRow) float64 { return r.Score }))
	return g
}

// YieldBucket gathers the rows within a yield range.
type YieldBucket struct {
	Name  string
	Rows  []ScreenRow // by decreasing score
	Stats GroupStats
}

// ScenarioLine is one position of a Scenario.
type ScenarioLine struct {
	Ticker string
	Score  float64
	Weight float64 // percent
	Amount float64
	Yield  float64 // percent
	Income float64 // annual dividends
}

// Scenario is a hypothetical dividend portfolio.
type Scenario struct {
	Name    string
	Capital float64
	Lines   []ScenarioLine
	Income  float64
	Yield   float64 // weighted, Income/Capital in percent
}

func newScenario(name string, capital float64, rows []ScreenRow, weight func(ScreenRow) float64) Scenario {
	s := Scenario{Name: name, Capital: capital}
	total := 0.0
	for _, r := range rows {
		total += weight(r)
	}
	for _, r := range rows {
		l := ScenarioLine{Ticker: r.Ticker, Score: r.Score, Yield: r.Yield}
		if total != 0 {
			l.Weight = weight(r) / total * 100
		}
		l.Amount = capital * l.Weight / 100
		l.Income = l.Amount * r.Yield / 100
		s.Income += l.Income
		s.Lines = append(s.Lines, l)
	}
	if capital > 0 {
		s.Yield = s.Income / capital * 100
	}
	return s
}

// EqualWeight splits capital equally among rows.
func EqualWeight(name string, capital float64, rows []ScreenRow) Scenario {
	return newScenario(name, capital, rows, func(ScreenRow) float64 { return 1 })
}

// ScoreWeighted splits capital among rows in proportion of their score.
func ScoreWeighted(name string, capital float64, rows []ScreenRow) Scenario {
	return newScenario(name, capital, rows, func(r ScreenRow) float64 { return r.Score })
}

// ScreenReport is the yield and momentum screen of a universe.
type ScreenReport struct {
	Universe    string
	Description string
	From, To    date.Date
	Capital     float64
	LiveYield   bool
	Rows        []ScreenRow // screened securities, by decreasing score
	Comparison  []ScreenRow // securities with the comparison role
	Buckets     []YieldBucket
	Segments    []GroupStats
	Groups      []GroupStats // screened versus comparison
	TopScore    []ScreenRow
	TopYield    []ScreenRow // positive average momentum, by decreasing yield
	Scenarios   []Scenario
	Insights    []string
	Holdings    []string // tickers with the holding role
	Index       *IndexComparison
	Skipped     []string
}

func sortByScore(rows []ScreenRow) []ScreenRow {
	rows = slices.Clone(rows)
	slices.SortStableFunc(rows, func(a, b ScreenRow) int { return byScore(a.Score, b.Score) })
	return rows
}

func head[T any](x []T, n int) []T { return x[:min(n, len(x))] }

// largest returns the n rows of best score. Rows without a score are never selected.
func largest(rows []ScreenRow, n int) []ScreenRow {
	rows = slices.DeleteFunc(sortByScore(rows), func(r ScreenRow) bool { return math.IsNaN(r.Score) })
	return head(rows, n)
}

// Screen assesses the securities of u present in the frame. Yields, when not nil, replace the
// yields of the universe.
func Screen(f *Frame, u *Universe, yields map[string]float64, capital float64) *ScreenReport {
	r := &ScreenReport{
		Universe:    u.Name,
		Description: u.Description,
		From:        f.First(),
		To:          f.Last(),
		Capital:     capital,
		LiveYield:   yields != nil,
		Holdings:    u.TickersWithRole(RoleHolding),
	}
	var rows []ScreenRow
	for _, s := range u.Securities {
		if !f.Has(s.Ticker) {
			continue
		}
		if y, ok := yields[s.Ticker]; ok {
			s.Yield = y
		}
		row := NewScreenRow(f, s)
		if s.Role == RoleComparison {
			r.Comparison = append(r.Comparison, row)
		} else {
			rows = append(rows, row)
		}
	}
	r.Rows = sortByScore(rows)

	buckets := []struct {
		name     string
		min, max float64
	}{
		{fmt.Sprintf("High yield (%.0f%%+)", HighYield), HighYield, math.Inf(1)},
		{fmt.Sprintf("Medium yield (%.0f-%.0f%%)", MediumYield, HighYield), MediumYield, HighYield},
		{fmt.Sprintf("Lower yield (<%.0f%%)", MediumYield), math.Inf(-1), MediumYield},
	}
	for _, b := range buckets {
		var in []ScreenRow
		for _, row := range r.Rows {
			if row.Yield >= b.min && row.Yield < b.max {
				in = append(in, row)
			}
		}
		if len(in) > 0 {
			r.Buckets = append(r.Buckets, YieldBucket{Name: b.name, Rows: in, Stats: NewGroupStats(b.name, in)})
		}
	}

	bySegment := make(map[string][]ScreenRow)
	for _, row := range r.Rows {
		bySegment[row.Segment] = append(bySegment[row.Segment], row)
	}
	var best []ScreenRow
	for _, seg := range u.Segments() {
		if in := bySegment[seg]; len(in) > 0 {
			r.Segments = append(r.Segments, NewGroupStats(seg, in))
			best = append(best, largest(in, 1)...)
		}
	}

	if len(r.Comparison) > 0 {
		r.Groups = []GroupStats{NewGroupStats(u.Name, r.Rows), NewGroupStats(RoleComparison, r.Comparison)}
	}

	r.TopScore = largest(r.Rows, 10)
	var positive []ScreenRow
	for _, row := range r.Rows {
		if row.Avg > 0 {
			positive = append(positive, row)
		}
	}
	slices.SortStableFunc(positive, func(a, b ScreenRow) int { return cmp.Compare(b.Yield, a.Yield) })
	r.TopYield = head(positive, 10)

	if capital > 0 {
		r.Scenarios = append(r.Scenarios,
			EqualWeight("Top 3 yields with positive momentum, equal weight", capital, head(r.TopYield, 3)),
			ScoreWeighted("Top 5 by score, score weighted", capital, largest(r.Rows, 5)),
			ScoreWeighted("Best score per segment, score weighted", capital, best),
		)
		if len(r.Comparison) > 0 {
			r.Scenarios = append(r.Scenarios, ScoreWeighted("Whole universe, score weighted", capital, r.Rows))
		}
	}
	r.Insights = r.insights()
	return r
}

// Rank returns the 1 based rank of ticker by score among the screened rows, 0 if absent or
// without a score.
func (r *ScreenReport) Rank(ticker string) int {
	i := slices.IndexFunc(r.Rows, func(row ScreenRow) bool { return row.Ticker == ticker })
	if i < 0 || math.IsNaN(r.Rows[i].Score) {
		return 0
	}
	return i + 1
}

func (r *ScreenReport) insights() []string {
	if len(r.Rows) == 0 {
		return nil
	}
	var out []string
	top := slices.MaxFunc(r.Rows, func(a, b ScreenRow) int { return cmp.Compare(a.Yield, b.Yield) })
	out = append(out, fmt.Sprintf("Highest yield: %.2f%% (%s)", top.Yield, top.Ticker))

	var high []ScreenRow
	for _, row := range r.Rows {
		if row.Yield >= HighYield {
			high = append(high, row)
		}
	}
	if best := largest(high, 1); len(best) > 0 {
		out = append(out, fmt.Sprintf("Best %.0f%%+ yield by score: %s (%.2f)", HighYield, best[0].Ticker, best[0].Score))
	}
	out = append(out, fmt.Sprintf("Securities with %.0f%%+ yield: %d", HighYield, len(high)))

	if len(r.Segments) > 1 {
		bestScore := slices.MaxFunc(r.Segments, func(a, b GroupStats) int { return -byScore(a.Score, b.Score) })
		bestYield := slices.MaxFunc(r.Segments, func(a, b GroupStats) int { return cmp.Compare(a.Yield, b.Yield) })
		out = append(out,
			fmt.Sprintf("Best segment by average score: %s", bestScore.Name),
			fmt.Sprintf("Highest yielding segment: %s", bestYield.Name))
	}

	var tickers []string
	for _, row := range largest(r.Rows, 3) {
		tickers = append(tickers, row.Ticker)
	}
	out = append(out, "Top 3 by score: "+strings.Join(tickers, ", "))
	for _, t := range r.Holdings {
		if rank := r.Rank(t); rank > 0 {
			out = append(out, fmt.Sprintf("%s (current holding) rank: #%d of %d", t, rank, len(r.Rows)))
		}
	}

	for _, c := range r.Comparison {
		out = append(out, fmt.Sprintf("%s scores %.2f versus a universe average of %.2f", c.Ticker, c.Score, NewGroupStats("", r.Rows).Score))
	}
	return out
}

// IndexComparison compares an ETF with the weighted average of its top constituents.
type IndexComparison struct {
	Index    string
	ETF      ScreenRow
	Weighted ScreenRow   // sums of the constituent values × index weight
	Rows     []ScreenRow // by decreasing index weight
	Top      []ScreenRow // top 5 by score
}

// CompareIndex computes the IndexComparison of rows, whose Weight is the index weight.
//
// Weights are used as is and do not sum to 1 when only the top constituents are listed. NaN
// values are skipped.
func CompareIndex(rows []ScreenRow, etf ScreenRow) *IndexComparison {
	c := &IndexComparison{Index: etf.Ticker, ETF: etf, Weighted: ScreenRow{Security: Security{Ticker: "Weighted"}}}
	c.Rows = slices.Clone(rows)
	slices.SortStableFunc(c.Rows, func(a, b ScreenRow) int { return cmp.Compare(b.Weight, a.Weight) })

	w := &c.Weighted
	add := func(dst *float64, v, weight float64) {
		if !math.IsNaN(v) {
			*dst += v * weight
		}
	}
	for _, r := range c.Rows {
		w.Weight += r.Weight
		add(&w.Mom3M, r.Mom3M, r.Weight)
		add(&w.Mom6M, r.Mom6M, r.Weight)
		add(&w.Avg, r.Avg, r.Weight)
		add(&w.DownsideVol, r.DownsideVol, r.Weight)
		add(&w.Score, r.Score, r.Weight)
		add(&w.Yield, r.Yield, r.Weight)
	}
	c.Top = largest(c.Rows, 5)
	return c
}
