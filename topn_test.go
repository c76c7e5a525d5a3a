package research

import (
	"math"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestByScore(t *testing.T) {
	scores := []float64{1, math.NaN(), 3, -2, 2}
	slices.SortStableFunc(scores, byScore)
	want := []float64{3, 2, 1, -2}
	for i, w := range want {
		if scores[i] != w {
			t.Errorf("sorted scores = %v, want %v then NaN", scores, want)
			break
		}
	}
	if !math.IsNaN(scores[4]) {
		t.Errorf("NaN should sort last, got %v", scores)
	}
}

func TestScoreTopN(t *testing.T) {
	p := trend(300, 100, 0.002, 0.01)
	f := testFrame(map[string][]float64{"A": p})
	s := scoreTopN(f, "A")

	assert.InDelta(t, (p[len(p)-21]/p[len(p)-252]-1)*100, s.Mom12_1, 1e-9)
	assert.InDelta(t, (p[len(p)-21]/p[len(p)-126]-1)*100, s.Mom6_1, 1e-9)
	assert.InDelta(t, (p[len(p)-10]/p[len(p)-60]-1)*100, s.Mom12w2w, 1e-9)
	assert.InDelta(t, (s.Mom12_1+s.Mom6_1+s.Mom12w2w)/3, s.Avg, 1e-9)
	assert.Greater(t, s.Score, 0.0)

	// too short for the 12-1 momentum
	short := scoreTopN(testFrame(map[string][]float64{"A": p[:200]}), "A")
	if !math.IsNaN(short.Score) {
		t.Errorf("scoreTopN(200 days).Score = %v, want NaN", short.Score)
	}
}

func TestTopN(t *testing.T) {
	f := testFrame(map[string][]float64{
		"A": trend(300, 100, 0.003, 0.01),
		"B": trend(300, 100, 0.002, 0.01),
		"C": trend(300, 100, 0.001, 0.01),
		"D": trend(300, 100, -0.002, 0.01),
	})
	u := &Universe{Securities: []Security{{Ticker: "A", Category: "Gold", Thesis: "Shiny"}}}

	r := TopN(f, u, 3, 73296, 0.05, 0.30)

	if len(r.Scores) != 4 || r.Scores[0].Ticker != "A" || r.Scores[3].Ticker != "D" {
		t.Errorf("TopN().Scores order = %v", r.Scores)
	}
	if len(r.Rows) == 0 || len(r.Rows) > 3 {
		t.Fatalf("TopN() has %d rows, want 1 to 3", len(r.Rows))
	}
	total := 0.0
	for i, row := range r.Rows {
		if math.Mod(row.Amount, 1000) != 0 {
			t.Errorf("%s amount %v is not a multiple of 1000", row.Ticker, row.Amount)
		}
		if i > 0 && row.Amount > r.Rows[i-1].Amount {
			t.Errorf("rows are not sorted by amount: %v", r.Rows)
		}
		if want := math.Max(100, math.Trunc(row.Amount/12/100)*100); row.Weekly != want {
			t.Errorf("%s weekly = %v, want %v", row.Ticker, row.Weekly, want)
		}
		if row.Ticker == "D" {
			t.Errorf("TopN() selected D")
		}
		total += row.Amount
	}
	assert.Equal(t, total, r.Total)
	assert.InDelta(t, 73296, total, 2000)

	a := r.Rows[slices.IndexFunc(r.Rows, func(row TopNRow) bool { return row.Ticker == "A" })]
	if a.Category != "Gold" || a.Thesis != "Shiny" {
		t.Errorf("row A = %+v, want the universe category and thesis", a)
	}
}

func TestTopNEdgeCases(t *testing.T) {
	tests := []struct {
		name    string
		columns map[string][]float64
		n       int
		want    []string // allocated tickers, any order
	}{
		{
			name: "no positive momentum",
			columns: map[string][]float64{
				"A": trend(300, 100, -0.001, 0.01),
				"B": trend(300, 100, -0.002, 0.01),
				"C": trend(300, 100, -0.003, 0.01),
			},
			n:    3,
			want: nil,
		},
		{
			// a series that never declines has no downside vol, hence no score
			name: "unscored ticker",
			columns: map[string][]float64{
				"A": trend(300, 100, 0.003, 0.01),
				"B": trend(300, 100, 0.002, 0.01),
				"N": trend(300, 100, 0.004, 0),
			},
			n:    3,
			want: []string{"A", "B"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := TopN(testFrame(tt.columns), nil, tt.n, 73296, 0.05, 0.30)

			var got []string
			for _, row := range r.Rows {
				got = append(got, row.Ticker)
			}
			slices.Sort(got)
			assert.Equal(t, tt.want, got)
			if tt.want == nil {
				assert.Zero(t, r.Total)
			}
			assert.Len(t, r.Scores, len(tt.columns), "every ticker is scored")
		})
	}
}
