package research

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

const (
	// TradingDays is the number of trading days in a year, used to annualize.
	TradingDays = 252
	// Lookback3M and Lookback6M are the momentum lookbacks in trading days.
	Lookback3M = 63
	Lookback6M = 126
	// MinDownsideVol replaces the downside volatility of a series that never went down.
	MinDownsideVol = 0.0001
)

// Returns returns the daily returns p[i]/p[i-1]-1 of a price series.
func Returns(p []float64) []float64 {
	if len(p) < 2 {
		return nil
	}
	r := make([]float64, len(p)-1)
	for i := 1; i < len(p); i++ {
		r[i-1] = p[i]/p[i-1] - 1
	}
	return r
}

// Momentum returns the total return over the last lookback prices. The lookback is shortened
// to the length of the series when needed.
func Momentum(p []float64, lookback int) float64 {
	if len(p) == 0 || lookback <= 0 {
		return math.NaN()
	}
	lookback = min(lookback, len(p))
	return p[len(p)-1]/p[len(p)-lookback] - 1
}

// MomentumStrict is like Momentum but returns NaN when the series is shorter than lookback.
func MomentumStrict(p []float64, lookback int) float64 {
	if len(p) < lookback {
		return math.NaN()
	}
	return Momentum(p, lookback)
}

// SkipMomentum returns the return from 'past' days ago to 'recent' days ago, skipping the most
// recent days. SkipMomentum(p, 21, 252) is the classic 12-1 momentum.
func SkipMomentum(p []float64, recent, past int) float64 {
	if recent <= 0 || past < recent || len(p) < past {
		return math.NaN()
	}
	return p[len(p)-recent]/p[len(p)-past] - 1
}

// stddev returns the sample standard deviation, NaN with fewer than 2 values.
func stddev(x []float64) float64 {
	if len(x) < 2 {
		return math.NaN()
	}
	return stat.StdDev(x, nil)
}

// negatives returns the strictly negative values of r.
func negatives(r []float64) []float64 {
	var neg []float64
	for _, x := range r {
		if x < 0 {
			neg = append(neg, x)
		}
	}
	return neg
}

// DownsideVol returns the annualized standard deviation of the negative returns.
//
// It returns MinDownsideVol when no return is negative, and NaN when a single one is.
func DownsideVol(r []float64) float64 {
	neg := negatives(r)
	if len(neg) == 0 {
		return MinDownsideVol
	}
	return stddev(neg) * math.Sqrt(TradingDays)
}

// Volatility returns the annualized standard deviation of the returns.
func Volatility(r []float64) float64 { return stddev(r) * math.Sqrt(TradingDays) }

// Score returns the equally weighted 3M and 6M momentum per unit of downside volatility.
func Score(m3, m6, dvol float64) float64 { return (0.5*m3 + 0.5*m6) / dvol }

// Assessment gathers the momentum and risk figures of one security.
type Assessment struct {
	Ticker      string
	Price       float64 // latest total return index value
	Momentum3M  float64
	Momentum6M  float64
	Combined    float64 // average of the 3M and 6M momentum
	DownsideVol float64
	Score       float64
	Drawdown    DrawdownMetrics
}

// Passes reports whether the security has a positive combined momentum.
func (a Assessment) Passes() bool { return a.Combined > 0 }

// Assess computes the Assessment of a ticker in a price frame.
func Assess(f *Frame, ticker string) Assessment {
	p := f.Column(ticker)
	a := Assessment{
		Ticker:      ticker,
		Price:       f.Latest(ticker),
		Momentum3M:  Momentum(p, Lookback3M),
		Momentum6M:  Momentum(p, Lookback6M),
		DownsideVol: DownsideVol(Returns(p)),
		Drawdown:    Drawdowns(p),
	}
	a.Combined = 0.5*a.Momentum3M + 0.5*a.Momentum6M
	a.Score = Score(a.Momentum3M, a.Momentum6M, a.DownsideVol)
	return a
}

// AssessAll assesses every ticker of the frame.
func AssessAll(f *Frame) map[string]Assessment {
	out := make(map[string]Assessment, len(f.Tickers))
	for _, t := range f.Tickers {
		out[t] = Assess(f, t)
	}
	return out
}

// Performance summarizes a series of daily portfolio returns.
type Performance struct {
	AnnualReturn     float64 // mean daily return × 252
	AnnualVolatility float64
	Sharpe           float64
	Sortino          float64
	MaxDrawdown      float64 // of the compounded returns
}

// NewPerformance computes the Performance of daily returns r.
func NewPerformance(r []float64) Performance {
	if len(r) == 0 {
		return Performance{}
	}
	p := Performance{
		AnnualReturn:     stat.Mean(r, nil) * TradingDays,
		AnnualVolatility: Volatility(r),
	}
	if p.AnnualVolatility > 0 {
		p.Sharpe = p.AnnualReturn / p.AnnualVolatility
	}
	dvol := p.AnnualVolatility
	if neg := negatives(r); len(neg) > 0 {
		dvol = stddev(neg) * math.Sqrt(TradingDays)
	}
	if dvol > 0 {
		p.Sortino = p.AnnualReturn / dvol
	}
	p.MaxDrawdown = MaxDrawdown(Compound(r))
	return p
}

// Compound returns the cumulative product of (1+r).
func Compound(r []float64) []float64 {
	c := make([]float64, len(r))
	v := 1.0
	for i, x := range r {
		v *= 1 + x
		c[i] = v
	}
	return c
}

// WeightedReturns returns the daily returns of a portfolio. Weights are normalized over the
// tickers present in the frame of returns, and absent tickers are ignored.
func WeightedReturns(returns *Frame, weights map[string]float64) []float64 {
	total := 0.0
	for _, t := range returns.Tickers {
		total += weights[t]
	}
	if total == 0 {
		return nil
	}
	norm := make(map[string]float64, len(weights))
	for _, t := range returns.Tickers {
		norm[t] = weights[t] / total
	}
	return PortfolioReturns(returns, norm)
}

// PortfolioReturns returns the weighted sum of the daily returns of the tickers present in the
// frame. Weights are used as is.
func PortfolioReturns(returns *Frame, weights map[string]float64) []float64 {
	out := make([]float64, returns.Len())
	for _, t := range returns.Tickers {
		w, ok := weights[t]
		if !ok || w == 0 {
			continue
		}
		floats.AddScaled(out, w, returns.Columns[t])
	}
	return out
}

// CorrelationMatrix holds the Pearson correlations of the columns of a frame.
type CorrelationMatrix struct {
	Tickers []string
	m       *mat.SymDense
	index   map[string]int
}

// Correlation computes the correlation matrix of the columns of a frame of returns.
func Correlation(returns *Frame) (*CorrelationMatrix, error) {
	n, k := returns.Len(), len(returns.Tickers)
	if n < 2 || k == 0 {
		return nil, ErrNotEnoughData
	}
	x := mat.NewDense(n, k, nil)
	for j, t := range returns.Tickers {
		x.SetCol(j, returns.Columns[t])
	}
	var corr mat.SymDense
	stat.CorrelationMatrix(&corr, x, nil)

	c := &CorrelationMatrix{Tickers: returns.Tickers, m: &corr, index: make(map[string]int, k)}
	for j, t := range returns.Tickers {
		c.index[t] = j
	}
	return c, nil
}

// At returns the correlation between a and b, and false if one is unknown.
func (c *CorrelationMatrix) At(a, b string) (float64, bool) {
	i, ok1 := c.index[a]
	j, ok2 := c.index[b]
	if !ok1 || !ok2 {
		return math.NaN(), false
	}
	return c.m.At(i, j), true
}

// Has reports whether the matrix has a row for ticker.
func (c *CorrelationMatrix) Has(ticker string) bool {
	_, ok := c.index[ticker]
	return ok
}
