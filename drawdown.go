package research

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// RollingWindow is the length, in trading days, of the rolling drawdown window.
const RollingWindow = 63

// DrawdownMetrics describes the declines of a price series from its running peak.
type DrawdownMetrics struct {
	Max          float64 // worst decline, negative or zero
	Current      float64 // decline of the last price
	Periods      []int   // length of every underwater period, in trading days
	MaxDuration  int
	AvgDuration  float64
	WorstRolling float64 // worst max drawdown over any RollingWindow
}

// drawdownSeries returns (p-peak)/peak where peak is the running maximum.
func drawdownSeries(p []float64) []float64 {
	dd := make([]float64, len(p))
	peak := math.Inf(-1)
	for i, x := range p {
		peak = math.Max(peak, x)
		dd[i] = (x - peak) / peak
	}
	return dd
}

// MaxDrawdown returns the worst decline of p from its running peak.
func MaxDrawdown(p []float64) float64 {
	if len(p) == 0 {
		return 0
	}
	return floats.Min(drawdownSeries(p))
}

// underwater returns the lengths of the consecutive runs where dd < 0. A run still open at
// the end is counted to the end.
func underwater(dd []float64) []int {
	var periods []int
	start := -1
	for i, x := range dd {
		switch {
		case x < 0 && start < 0:
			start = i
		case x >= 0 && start >= 0:
			periods = append(periods, i-start)
			start = -1
		}
	}
	if start >= 0 {
		periods = append(periods, len(dd)-start)
	}
	return periods
}

// Drawdowns computes the DrawdownMetrics of a price series.
func Drawdowns(p []float64) DrawdownMetrics {
	if len(p) == 0 {
		return DrawdownMetrics{}
	}
	dd := drawdownSeries(p)
	m := DrawdownMetrics{
		Max:     floats.Min(dd),
		Current: dd[len(dd)-1],
		Periods: underwater(dd),
	}
	if len(m.Periods) > 0 {
		durations := make([]float64, len(m.Periods))
		for i, d := range m.Periods {
			m.MaxDuration = max(m.MaxDuration, d)
			durations[i] = float64(d)
		}
		m.AvgDuration = stat.Mean(durations, nil)
	}
	m.WorstRolling = WorstRollingDrawdown(p, RollingWindow)
	return m
}

// WorstRollingDrawdown returns the worst max drawdown of p[i-window:i] for i in [window, len).
// It falls back to the max drawdown of p when the series is not longer than the window.
func WorstRollingDrawdown(p []float64, window int) float64 {
	if window <= 0 || len(p) <= window {
		return MaxDrawdown(p)
	}
	worst := 0.0
	for i := window; i < len(p); i++ {
		worst = math.Min(worst, MaxDrawdown(p[i-window:i]))
	}
	return worst
}
