package research

import (
	"cmp"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"slices"
	"strconv"

	"github.com/etnz/research/date"
)

// DefaultBenchmark is the index correlations are reported against.
const DefaultBenchmark = "^NSEI"

// HedgeThreshold is the correlation below which an asset hedges the benchmark.
const HedgeThreshold = 0.3

// Finding is a notable fact of a correlation analysis.
type Finding struct {
	Title      string
	Lines      []string
	Conclusion string
}

// CorrelationReport compares the current and proposed portfolios and their correlations.
type CorrelationReport struct {
	Universe      string
	From, To      date.Date
	Matrix        *CorrelationMatrix
	Benchmark     string
	BenchmarkCorr []TickerWeight // correlation with the benchmark, ascending
	Current       map[string]float64
	Proposed      map[string]float64 // normalized
	CurrentPerf   Performance
	ProposedPerf  Performance
	Findings      []Finding
	Skipped       []string
}

// ProposedWeights overrides the current weights with the proposed ones and normalizes the
// result.
func ProposedWeights(current, changes map[string]float64) map[string]float64 {
	w := make(map[string]float64, len(current)+len(changes))
	for t, v := range current {
		w[t] = v
	}
	for t, v := range changes {
		w[t] = v
	}
	total := 0.0
	for _, v := range w {
		total += v
	}
	if total == 0 {
		return w
	}
	for t := range w {
		w[t] /= total
	}
	return w
}

// performanceOf returns the Performance of a portfolio, weights normalized over the tickers
// present in returns.
func performanceOf(returns *Frame, weights map[string]float64) Performance {
	var tickers []string
	for _, t := range returns.Tickers {
		if _, ok := weights[t]; ok {
			tickers = append(tickers, t)
		}
	}
	if len(tickers) == 0 {
		return Performance{}
	}
	return NewPerformance(WeightedReturns(returns.Select(tickers...), weights))
}

// Correlate analyzes a frame of prices aligned with Fill.
func Correlate(f *Frame, current, proposed map[string]float64, benchmark string) (*CorrelationReport, error) {
	returns := f.Returns()
	m, err := Correlation(returns)
	if err != nil {
		return nil, fmt.Errorf("cannot compute correlations: %w", err)
	}
	if benchmark == "" {
		benchmark = DefaultBenchmark
	}
	r := &CorrelationReport{
		From:      f.First(),
		To:        f.Last(),
		Matrix:    m,
		Benchmark: benchmark,
		Current:   current,
		Proposed:  proposed,
	}
	if m.Has(benchmark) {
		for _, t := range m.Tickers {
			if t == benchmark {
				continue
			}
			c, _ := m.At(t, benchmark)
			r.BenchmarkCorr = append(r.BenchmarkCorr, TickerWeight{t, c})
		}
		slices.SortStableFunc(r.BenchmarkCorr, func(a, b TickerWeight) int { return cmp.Compare(a.Weight, b.Weight) })
	}
	r.CurrentPerf = performanceOf(returns, current)
	r.ProposedPerf = performanceOf(returns, proposed)
	r.Findings = r.findings()
	return r, nil
}

func (r *CorrelationReport) findings() []Finding {
	var out []Finding
	m := r.Matrix
	if c, ok := m.At("GLD", "SLV"); ok {
		out = append(out, Finding{
			Title:      fmt.Sprintf("Gold-Silver correlation: %.2f", c),
			Conclusion: "High correlation confirms diversification benefit is limited",
		})
	}
	if m.Has("VNQ") {
		f := Finding{Title: "VNQ (REITs) correlations", Conclusion: "REITs provide meaningful diversification"}
		for _, vs := range []struct{ ticker, label string }{{"GLD", "Gold"}, {"SLV", "Silver"}, {"XOM", "Oil (XOM)"}} {
			if c, ok := m.At("VNQ", vs.ticker); ok {
				f.Lines = append(f.Lines, fmt.Sprintf("vs %s: %.2f", vs.label, c))
			}
		}
		out = append(out, f)
	}
	if c, ok := m.At("XOM", r.Benchmark); ok {
		f := Finding{Title: fmt.Sprintf("Oil (XOM) vs %s correlation: %.2f", r.Benchmark, c)}
		if c < HedgeThreshold {
			f.Conclusion = "Low/negative correlation confirms the hedge thesis"
		}
		out = append(out, f)
	}
	if len(r.Current) > 0 && len(r.Proposed) > 0 {
		cur, prop := r.CurrentPerf.rounded(), r.ProposedPerf.rounded()
		out = append(out, Finding{
			Title: "Portfolio metrics comparison",
			Lines: []string{
				fmt.Sprintf("Sharpe change: %+.3f", prop.Sharpe-cur.Sharpe),
				fmt.Sprintf("Sortino change: %+.3f", prop.Sortino-cur.Sortino),
				fmt.Sprintf("Max drawdown change: %+.2f%%", prop.MaxDrawdown-cur.MaxDrawdown),
			},
		})
	}
	return out
}

// performanceJSON is the exported form of a Performance, percentages rounded to 2 decimals and
// ratios to 3.
type performanceJSON struct {
	AnnualReturn     float64 `json:"annual_return"`
	AnnualVolatility float64 `json:"annual_volatility"`
	Sharpe           float64 `json:"sharpe_ratio"`
	Sortino          float64 `json:"sortino_ratio"`
	MaxDrawdown      float64 `json:"max_drawdown"`
}

func round(x float64, decimals int) float64 {
	p := math.Pow10(decimals)
	return roundBank(x*p, 1) / p
}

func (p Performance) rounded() performanceJSON {
	return performanceJSON{
		AnnualReturn:     round(p.AnnualReturn*100, 2),
		AnnualVolatility: round(p.AnnualVolatility*100, 2),
		Sharpe:           round(p.Sharpe, 3),
		Sortino:          round(p.Sortino, 3),
		MaxDrawdown:      round(p.MaxDrawdown*100, 2),
	}
}

type portfolioJSON struct {
	Weights map[string]float64 `json:"weights"`
	Metrics performanceJSON    `json:"metrics"`
}

func newPortfolioJSON(weights map[string]float64, p Performance) portfolioJSON {
	w := make(map[string]float64, len(weights))
	for t, v := range weights {
		w[t] = round(v*100, 2)
	}
	return portfolioJSON{Weights: w, Metrics: p.rounded()}
}

// WriteComparison writes the current and proposed portfolios, weights in percent and their
// metrics, as indented JSON.
func (r *CorrelationReport) WriteComparison(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		Current  portfolioJSON `json:"current"`
		Proposed portfolioJSON `json:"proposed"`
	}{
		newPortfolioJSON(r.Current, r.CurrentPerf),
		newPortfolioJSON(r.Proposed, r.ProposedPerf),
	})
}

// WriteCSV writes the correlation matrix with a header row and a ticker column.
func (c *CorrelationMatrix) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(append([]string{""}, c.Tickers...)); err != nil {
		return err
	}
	for i, t := range c.Tickers {
		row := make([]string, 0, len(c.Tickers)+1)
		row = append(row, t)
		for j := range c.Tickers {
			row = append(row, strconv.FormatFloat(c.m.At(i, j), 'g', -1, 64))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Row returns the correlations of ticker with every ticker of the matrix, in order.
func (c *CorrelationMatrix) Row(ticker string) []float64 {
	i, ok := c.index[ticker]
	if !ok {
		return nil
	}
	row := make([]float64, len(c.Tickers))
	for j := range c.Tickers {
		row[j] = c.m.At(i, j)
	}
	return row
}
