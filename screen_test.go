package research

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExchange(t *testing.T) {
	tests := []struct {
		ticker string
		want   string
	}{
		{"IPOOF", "OTC"},
		{"CRLFF", "OTC"},
		{"ENB", "NYSE"},
		{"DMLP", "NYSE"},
		{"F", "NYSE"},
		{"ARF", "NYSE"},
	}
	for _, tt := range tests {
		if got := Exchange(tt.ticker); got != tt.want {
			t.Errorf("Exchange(%q) = %q, want %q", tt.ticker, got, tt.want)
		}
	}
}

func TestNewScreenRow(t *testing.T) {
	p := trend(200, 100, 0.002, 0.01)
	row := NewScreenRow(testFrame(map[string][]float64{"A": p}), Security{Ticker: "A", Yield: 5})
	assert.InDelta(t, (p[199]/p[199-62]-1)*100, row.Mom3M, 1e-9)
	assert.InDelta(t, row.Avg/row.DownsideVol, row.Score, 1e-9)
	assert.Equal(t, "NYSE", row.Exchange)

	short := NewScreenRow(testFrame(map[string][]float64{"S": p[:100]}), Security{Ticker: "S"})
	if !math.IsNaN(short.Mom6M) || !math.IsNaN(short.Score) {
		t.Errorf("NewScreenRow(short) = %+v, want NaN 6M momentum and score", short)
	}
}

func screenUniverse() *Universe {
	return &Universe{
		Name: "oil",
		Securities: []Security{
			{Ticker: "R1", Segment: "Royalty", Yield: 12},
			{Ticker: "R2", Segment: "Royalty", Yield: 8},
			{Ticker: "M1", Segment: "Midstream", Yield: 6},
			{Ticker: "M2", Segment: "Midstream", Yield: 4},
			{Ticker: "X", Segment: "Major", Yield: 3, Role: RoleComparison},
		},
	}
}

func screenFrame() *Frame {
	return testFrame(map[string][]float64{
		"R1": trend(200, 100, 0.001, 0.01),
		"R2": trend(200, 100, -0.002, 0.01),
		"M1": trend(200, 100, 0.003, 0.01),
		"M2": trend(200, 100, 0.002, 0.01),
		"X":  trend(200, 100, 0.001, 0.01),
	})
}

func TestScreen(t *testing.T) {
	r := Screen(screenFrame(), screenUniverse(), nil, 4000)

	require.Len(t, r.Rows, 4)
	assert.Len(t, r.Comparison, 1)
	assert.Equal(t, "M1", r.Rows[0].Ticker, "best score first")
	assert.Equal(t, 1, r.Rank("M1"))
	assert.Equal(t, 0, r.Rank("X"))

	require.Len(t, r.Buckets, 3)
	assert.True(t, strings.HasPrefix(r.Buckets[0].Name, "High yield"))
	assert.Len(t, r.Buckets[0].Rows, 2)
	assert.InDelta(t, 10, r.Buckets[0].Stats.Yield, 1e-9)

	require.Len(t, r.Segments, 2)
	assert.Equal(t, "Royalty", r.Segments[0].Name)
	assert.Equal(t, 8.0, r.Segments[0].MinYield)
	assert.Equal(t, 12.0, r.Segments[0].MaxYield)

	for _, row := range r.TopYield {
		if row.Avg <= 0 {
			t.Errorf("TopYield has %s with a negative momentum", row.Ticker)
		}
	}
	assert.Equal(t, "R1", r.TopYield[0].Ticker)

	require.Len(t, r.Scenarios, 4)
	s := r.Scenarios[0]
	assert.Len(t, s.Lines, 3)
	income := 0.0
	for _, l := range s.Lines {
		assert.InDelta(t, 4000.0/3, l.Amount, 1e-9)
		income += l.Amount * l.Yield / 100
	}
	assert.InDelta(t, income, s.Income, 1e-9)
	assert.InDelta(t, income/4000*100, s.Yield, 1e-9)
	assert.NotEmpty(t, r.Insights)
	assert.Len(t, r.Groups, 2)
}

func TestScreen_Unscored(t *testing.T) {
	u := &Universe{
		Name: "royalty",
		Securities: []Security{
			{Ticker: "R1", Segment: "Royalty", Yield: 12},
			{Ticker: "R2", Segment: "Royalty", Yield: 8, Role: RoleHolding},
			{Ticker: "N", Segment: "Royalty", Yield: 10},
		},
	}
	// N never declines: no downside vol, no score
	f := testFrame(map[string][]float64{
		"R1": trend(200, 100, 0.003, 0.01),
		"R2": trend(200, 100, 0.001, 0.01),
		"N":  trend(200, 100, 0.002, 0),
	})
	r := Screen(f, u, nil, 4000)

	require.Len(t, r.Rows, 3)
	require.True(t, math.IsNaN(r.Rows[2].Score))
	assert.Equal(t, "N", r.Rows[2].Ticker, "unscored rows are listed last")

	tickers := func(rows []ScreenRow) []string {
		var out []string
		for _, row := range rows {
			out = append(out, row.Ticker)
		}
		return out
	}
	assert.Equal(t, []string{"R1", "R2"}, tickers(r.TopScore))

	require.Len(t, r.Scenarios, 3, "the segment scenario is there even with a single segment")
	var lines []string
	for _, l := range r.Scenarios[1].Lines {
		lines = append(lines, l.Ticker)
	}
	assert.Equal(t, []string{"R1", "R2"}, lines)
	require.Len(t, r.Scenarios[2].Lines, 1)
	assert.Equal(t, "R1", r.Scenarios[2].Lines[0].Ticker)
	assert.InDelta(t, 100, r.Scenarios[2].Lines[0].Weight, 1e-9)
	assert.False(t, math.IsNaN(r.Scenarios[1].Income))

	assert.Equal(t, []string{"R2"}, r.Holdings)
	assert.Equal(t, 2, r.Rank("R2"))
	assert.Equal(t, 0, r.Rank("N"))
	assert.Contains(t, r.Insights, "R2 (current holding) rank: #2 of 3")
	assert.Contains(t, r.Insights, "Top 3 by score: R1, R2")
}

func TestScreen_LiveYields(t *testing.T) {
	r := Screen(screenFrame(), screenUniverse(), map[string]float64{"M2": 9}, 0)
	assert.True(t, r.LiveYield)
	assert.Empty(t, r.Scenarios)
	for _, row := range r.Rows {
		if row.Ticker == "M2" && row.Yield != 9 {
			t.Errorf("M2 yield = %v, want the live yield 9", row.Yield)
		}
	}
}

func TestScoreWeighted(t *testing.T) {
	rows := []ScreenRow{
		{Security: Security{Ticker: "A", Yield: 10}, Score: 3},
		{Security: Security{Ticker: "B", Yield: 5}, Score: 1},
	}
	s := ScoreWeighted("test", 4000, rows)
	assert.InDelta(t, 3000, s.Lines[0].Amount, 1e-9)
	assert.InDelta(t, 75, s.Lines[0].Weight, 1e-9)
	assert.InDelta(t, 350, s.Income, 1e-9)
	assert.InDelta(t, 8.75, s.Yield, 1e-9)
}

func TestCompareIndex(t *testing.T) {
	rows := []ScreenRow{
		{Security: Security{Ticker: "B", Weight: 0.2, Yield: 4}, Mom3M: 10, Mom6M: 20, Avg: 15, DownsideVol: 0.2, Score: 75},
		{Security: Security{Ticker: "A", Weight: 0.3, Yield: 2}, Mom3M: -10, Mom6M: math.NaN(), Avg: math.NaN(), DownsideVol: 0.1, Score: math.NaN()},
	}
	etf := ScreenRow{Security: Security{Ticker: "XLE"}, Mom3M: 5}
	c := CompareIndex(rows, etf)

	assert.Equal(t, "XLE", c.Index)
	assert.Equal(t, "A", c.Rows[0].Ticker, "by decreasing weight")
	assert.InDelta(t, 0.5, c.Weighted.Weight, 1e-12)
	assert.InDelta(t, 2-3, c.Weighted.Mom3M, 1e-12)
	assert.InDelta(t, 4, c.Weighted.Mom6M, 1e-12, "NaN skipped")
	assert.InDelta(t, 0.07, c.Weighted.DownsideVol, 1e-12)
	assert.InDelta(t, 1.4, c.Weighted.Yield, 1e-12)
	assert.Equal(t, "B", c.Top[0].Ticker)
}
