package research

import (
	"errors"
	"math"
	"testing"

	"github.com/etnz/research/date"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimulator_Rolling(t *testing.T) {
	s := &Simulator{Capital: 100, Days: 2}
	values, err := s.Rolling([]float64{0.01, 0.01, 0.01, 0.01})
	require.NoError(t, err)
	assert.Len(t, values, 2)
	for _, v := range values {
		assert.InDelta(t, 102.01, v, 1e-9)
	}

	_, err = s.Rolling([]float64{0.01, 0.01})
	if !errors.Is(err, ErrNotEnoughData) {
		t.Errorf("Rolling(short) error = %v, want ErrNotEnoughData", err)
	}
}

func TestSimulator_Bootstrap(t *testing.T) {
	r := trend(100, 1, 0, 0.01) // any returns will do
	r = Returns(r)

	a, err := (&Simulator{Capital: 1000, Days: 10, Runs: 50, Seed: 42}).Bootstrap(r)
	require.NoError(t, err)
	b, _ := (&Simulator{Capital: 1000, Days: 10, Runs: 50, Seed: 42}).Bootstrap(r)
	if !cmp.Equal(a, b) {
		t.Errorf("Bootstrap() with the same seed should be reproducible")
	}
	c, _ := (&Simulator{Capital: 1000, Days: 10, Runs: 50, Seed: 7}).Bootstrap(r)
	if cmp.Equal(a, c) {
		t.Errorf("Bootstrap() with another seed should differ")
	}

	constant, _ := (&Simulator{Capital: 1000, Days: 3, Runs: 5}).Bootstrap([]float64{0.1})
	for _, v := range constant {
		assert.InDelta(t, 1331, v, 1e-9)
	}
}

func TestSimulator_BlockBootstrap(t *testing.T) {
	s := &Simulator{Capital: 1000, Days: 7, Runs: 20, Block: 5, Seed: 1}
	values, err := s.BlockBootstrap([]float64{0.01, 0.01, 0.01, 0.01, 0.01, 0.01})
	require.NoError(t, err)
	assert.Len(t, values, 20)
	for _, v := range values {
		// paths are truncated to Days returns
		assert.InDelta(t, 1000*math.Pow(1.01, 7), v, 1e-9)
	}

	_, err = s.BlockBootstrap([]float64{0.01, 0.01})
	if !errors.Is(err, ErrNotEnoughData) {
		t.Errorf("BlockBootstrap(short) error = %v, want ErrNotEnoughData", err)
	}
}

func TestNewDistribution(t *testing.T) {
	// returns from -50% to +49%
	var values []float64
	for k := -50; k < 50; k++ {
		values = append(values, 100*(1+float64(k)/100))
	}
	d := NewDistribution("test", values, 100)

	assert.InDelta(t, -50, d.Min.Return, 1e-9)
	assert.InDelta(t, 49, d.Max.Return, 1e-9)
	assert.InDelta(t, 50, d.Loss, 1e-9)
	assert.InDelta(t, 40, d.Loss10, 1e-9)
	assert.InDelta(t, 30, d.Loss20, 1e-9)
	assert.InDelta(t, 0, d.Gain50, 1e-9)
	assert.InDelta(t, -45.05, d.VaR95, 1e-9)
	assert.InDelta(t, -49.01, d.VaR99, 1e-9)
	assert.InDelta(t, -48, d.CVaR95, 1e-9)
	assert.InDelta(t, -0.5, d.Median().Return, 1e-9)
	assert.InDelta(t, -45.05, d.Dollars(d.VaR95), 1e-9)
	assert.Len(t, d.Quantiles, len(Percentiles))

	if q := d.Percentile(42); !math.IsNaN(q.Return) {
		t.Errorf("Percentile(42) = %v, want NaN", q)
	}
}

func TestPercentile(t *testing.T) {
	// linear interpolation between the closest ranks, the first rank at 0 and the last at 100
	tests := []struct {
		sorted []float64
		p      float64
		want   float64
	}{
		{[]float64{-10, 0, 10, 20}, 50, 5},
		{[]float64{-10, 0, 10, 20}, 5, -8.5},
		{[]float64{-10, 0, 10, 20}, 1, -9.7},
		{[]float64{-10, 0, 10, 20}, 95, 18.5},
		{[]float64{-10, 0, 10, 20}, 0, -10},
		{[]float64{-10, 0, 10, 20}, 100, 20},
		{[]float64{1, 2, 3, 4, 5}, 25, 2},
		{[]float64{1, 2, 3, 4, 5}, 90, 4.6},
		{[]float64{7}, 5, 7},
	}
	for _, tt := range tests {
		if got := percentile(tt.sorted, tt.p); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("percentile(%v, %v) = %v, want %v", tt.sorted, tt.p, got, tt.want)
		}
	}
	if got := percentile(nil, 50); !math.IsNaN(got) {
		t.Errorf("percentile(nil, 50) = %v, want NaN", got)
	}

	d := NewDistribution("small", []float64{110, 90, 120, 100}, 100)
	assert.InDelta(t, 5, d.Median().Return, 1e-9)
	assert.InDelta(t, 105, d.Median().Value, 1e-9)
	assert.InDelta(t, -8.5, d.VaR95, 1e-9)
	assert.InDelta(t, -10, d.CVaR95, 1e-9)
}

func TestPain(t *testing.T) {
	// two returns in January, two in February
	days := []date.Date{date.New(2024, 1, 30), date.New(2024, 1, 31), date.New(2024, 2, 1), date.New(2024, 2, 2)}
	r := []float64{0.1, -0.1, -0.1, 0.2}
	p := Pain(r, days)

	assert.InDelta(t, -19, p.MaxDrawdown, 1e-9)
	assert.InDelta(t, (1.1*0.9*0.9*1.2/1.1-1)*100, p.CurrentDrawdown, 1e-9)
	if want := []int{3}; !cmp.Equal(p.Underwater, want) {
		t.Errorf("Pain().Underwater = %v, want %v", p.Underwater, want)
	}
	assert.Equal(t, 2, p.Monthly.N)
	assert.InDelta(t, -1, p.Monthly.Worst, 1e-9)
	assert.InDelta(t, 8, p.Monthly.Best, 1e-9)
	assert.InDelta(t, 50, p.Monthly.Positive, 1e-9)
	assert.InDelta(t, (1.1*0.9*0.9*1.2-1)*100, p.TotalReturn, 1e-9)
	assert.Equal(t, days[0], p.From)
}

func TestSimulate(t *testing.T) {
	f := testFrame(map[string][]float64{
		"A": trend(200, 100, 0.001, 0.01),
		"B": trend(200, 50, 0.0005, 0.02),
	})
	s := &Simulator{Capital: 60000, Days: 63, Runs: 200, Block: 5, Seed: 3}
	r, err := s.Simulate(f, map[string]float64{"A": 0.3, "B": 0.7, "Z": 0.1})
	require.NoError(t, err)

	if len(r.Methods) != 3 || r.Methods[0].Name != "Historical" {
		t.Fatalf("Simulate().Methods = %v", r.Methods)
	}
	assert.Equal(t, 199-63, r.Methods[0].N)
	assert.Equal(t, 200, r.Methods[1].N)
	if r.Weights[0].Ticker != "B" {
		t.Errorf("Simulate().Weights = %v, want B first", r.Weights)
	}

	_, err = s.Simulate(testFrame(map[string][]float64{"A": {1}}), map[string]float64{"A": 1})
	if !errors.Is(err, ErrNotEnoughData) {
		t.Errorf("Simulate(1 price) error = %v, want ErrNotEnoughData", err)
	}
}
