package research

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strconv"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProposedWeights(t *testing.T) {
	current := map[string]float64{"A": 0.5, "B": 0.5}
	got := ProposedWeights(current, map[string]float64{"B": 0.25, "C": 0.25})
	want := map[string]float64{"A": 0.5, "B": 0.25, "C": 0.25}
	if !cmp.Equal(got, want, cmpopts.EquateApprox(0, 1e-12)) {
		t.Errorf("ProposedWeights() = %v, want %v", got, want)
	}
	if current["B"] != 0.5 {
		t.Errorf("ProposedWeights() modified the current weights")
	}
}

func correlationFrame() *Frame {
	return testFrame(map[string][]float64{
		"GLD":   {100, 101, 99, 102, 104, 103},
		"SLV":   {20, 20.2, 19.8, 20.4, 20.8, 20.6}, // GLD/5
		"XOM":   {50, 49, 51, 50, 49, 52},
		"^NSEI": {1000, 990, 1010, 1000, 995, 1020},
		"VNQ":   {80, 81, 80, 79, 81, 82},
	})
}

func TestCorrelate(t *testing.T) {
	current := map[string]float64{"GLD": 0.5, "XOM": 0.5}
	proposed := ProposedWeights(current, map[string]float64{"VNQ": 0.5})

	r, err := Correlate(correlationFrame(), current, proposed, "")
	require.NoError(t, err)

	assert.Equal(t, DefaultBenchmark, r.Benchmark)
	assert.Len(t, r.BenchmarkCorr, 4, "every ticker but the benchmark")
	for i := 1; i < len(r.BenchmarkCorr); i++ {
		assert.LessOrEqual(t, r.BenchmarkCorr[i-1].Weight, r.BenchmarkCorr[i].Weight, "ascending")
	}

	titles := make([]string, 0, len(r.Findings))
	for _, f := range r.Findings {
		titles = append(titles, f.Title)
	}
	if want := []string{
		"Gold-Silver correlation: 1.00",
		"VNQ (REITs) correlations",
		"Oil (XOM) vs ^NSEI correlation: ",
		"Portfolio metrics comparison",
	}; len(titles) != len(want) {
		t.Fatalf("Correlate().Findings = %v, want %d findings", titles, len(want))
	} else {
		for i := range want {
			assert.True(t, strings.HasPrefix(titles[i], want[i]), "finding %d = %q, want prefix %q", i, titles[i], want[i])
		}
	}
	assert.Len(t, r.Findings[1].Lines, 3)
	assert.NotEqual(t, r.CurrentPerf, r.ProposedPerf)
}

func TestCorrelationReport_WriteComparison(t *testing.T) {
	current := map[string]float64{"GLD": 0.5, "XOM": 0.5}
	r, err := Correlate(correlationFrame(), current, ProposedWeights(current, map[string]float64{"VNQ": 1}), "^NSEI")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, r.WriteComparison(&buf))

	var got map[string]struct {
		Weights map[string]float64 `json:"weights"`
		Metrics map[string]float64 `json:"metrics"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, map[string]float64{"GLD": 50, "XOM": 50}, got["current"].Weights)
	assert.Equal(t, map[string]float64{"GLD": 25, "XOM": 25, "VNQ": 50}, got["proposed"].Weights)
	for _, key := range []string{"annual_return", "annual_volatility", "sharpe_ratio", "sortino_ratio", "max_drawdown"} {
		if _, ok := got["proposed"].Metrics[key]; !ok {
			t.Errorf("proposed metrics has no %q", key)
		}
	}
}

func TestCorrelationMatrix_WriteCSV(t *testing.T) {
	m, err := Correlation(correlationFrame().Returns())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, m.WriteCSV(&buf))
	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)

	if len(records) != 6 {
		t.Fatalf("WriteCSV() wrote %d records, want 6", len(records))
	}
	if want := []string{"", "GLD", "SLV", "VNQ", "XOM", "^NSEI"}; !cmp.Equal(records[0], want) {
		t.Errorf("WriteCSV() header = %v, want %v", records[0], want)
	}
	if records[1][0] != "GLD" {
		t.Errorf("WriteCSV() first row = %v, want GLD first", records[1])
	}
	diag, err := strconv.ParseFloat(records[1][1], 64)
	require.NoError(t, err)
	assert.InDelta(t, 1, diag, 1e-9)
	assert.Len(t, m.Row("XOM"), 5)
	assert.Nil(t, m.Row("Z"))
}
