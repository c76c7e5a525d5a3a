package renderer

import (
	"io/fs"
	"math"
	"path"
	"strings"
	"testing"

	"github.com/etnz/research"
	"github.com/etnz/research/date"
	"github.com/etnz/research/eodhd"
	"github.com/etnz/research/ibkr"
	"github.com/etnz/research/mfapi"
	"github.com/etnz/research/yahoo"
	"github.com/shopspring/decimal"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// countTables parses markdown with the GFM table extension and counts the tables.
func countTables(t *testing.T, src string) int {
	t.Helper()
	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	doc := md.Parser().Parse(text.NewReader([]byte(src)))
	n := 0
	err := ast.Walk(doc, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering && node.Kind() == extast.KindTable {
			n++
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		t.Fatalf("walking the markdown: %v", err)
	}
	return n
}

func TestTemplateCoverage(t *testing.T) {
	used := make(map[string]bool)
	for _, s := range sets {
		used[s.main] = true
		for _, file := range s.partials {
			if file != "" {
				used[file] = true
			}
		}
	}
	files, err := fs.Glob(templates, "templates/*.md")
	if err != nil {
		t.Fatal(err)
	}
	for _, f := range files {
		name := path.Base(f)
		if !used[name] {
			t.Errorf("template %s is not used by any template set", name)
		}
		delete(used, name)
	}
	for name := range used {
		t.Errorf("template %s is used but does not exist", name)
	}
}

func allocationReport() *research.AllocationReport {
	a := func(t string, m3, m6, dvol float64) research.Assessment {
		return research.Assessment{
			Ticker: t, Price: 100, Momentum3M: m3, Momentum6M: m6, Combined: (m3 + m6) / 2,
			DownsideVol: dvol, Score: (m3 + m6) / 2 / dvol,
			Drawdown: research.DrawdownMetrics{Max: -0.2, Current: -0.05, MaxDuration: 40, AvgDuration: 12.5, WorstRolling: -0.12},
		}
	}
	dca := research.DCAPlan{Ticker: "MSTR", Active: true, Combined: -0.1, Price: 250, Cap: 4380, Monthly: 60, Weekly: 100, SharesPerMonth: 0.24, MonthsToCap: 73}
	return &research.AllocationReport{
		Universe:    "us",
		Constraints: research.DefaultConstraints(60000),
		From:        date.New(2023, 1, 3),
		To:          date.New(2025, 12, 31),
		Assessments: []research.Assessment{a("GLD", 0.1, 0.2, 0.1), a("XOM", 0.05, 0.01, 0.2), a("MSTR", -0.2, 0, 0.5)},
		Passing:     []string{"GLD", "XOM"},
		RawWeights:  []research.TickerWeight{{Ticker: "GLD", Weight: 0.9}, {Ticker: "XOM", Weight: 0.1}},
		Positions: []research.Position{
			{Ticker: "GLD", Amount: 54000, Price: 100, Shares: 540, Weight: 90},
			{Ticker: "XOM", Amount: 6000, Price: 100, Shares: 60, Weight: 10},
		},
		Exposures: []research.Exposure{{Name: "Precious Metals", Tickers: []string{"GLD"}, Amount: 54000, Percent: 90}},
		DCA:       &dca,
		Plan: research.WeeklyPlan{Weeks: 12, Weekly: 5100, Total: 61200, Lines: []research.WeeklyLine{
			{Ticker: "GLD", Target: 54000, Weekly: 4500, Total: 54000},
			{Ticker: "XOM", Target: 6000, Weekly: 500, Total: 6000},
			{Ticker: "MSTR", Weekly: 100, Total: 1200, DCA: true},
		}},
		Metrics: research.PortfolioMetrics{Positions: 2, MaxWeight: 0.9, Top3: 1, Momentum3M: 0.095, MaxDrawdown: -0.2, PainRatio: 0.6},
		Skipped: []string{"ZZZ"},
	}
}

func screenReport() *research.ScreenReport {
	row := func(t, seg string, yield, score float64) research.ScreenRow {
		return research.ScreenRow{
			Security: research.Security{Ticker: t, Name: t + " Corp", Segment: seg, Yield: yield, Frequency: "Monthly", Weight: 0.2},
			Exchange: research.Exchange(t), Mom3M: 5, Mom6M: math.NaN(), Avg: 5, DownsideVol: 0.2, MaxDrawdown: -15, Score: score,
		}
	}
	rows := []research.ScreenRow{row("CRLFF", "E&P", 9, 40), row("ENB", "Midstream", 6, 20)}
	return &research.ScreenReport{
		Universe:   "oil-gas",
		From:       date.New(2025, 1, 2),
		To:         date.New(2025, 12, 31),
		Capital:    4000,
		Rows:       rows,
		Comparison: []research.ScreenRow{row("XOM", "Major", 3.5, 10)},
		Buckets: []research.YieldBucket{
			{Name: "7%+", Rows: rows[:1], Stats: research.NewGroupStats("7%+", rows[:1])},
			{Name: "<5%", Stats: research.NewGroupStats("<5%", nil)},
		},
		Segments:  []research.GroupStats{research.NewGroupStats("E&P", rows[:1]), research.NewGroupStats("Midstream", rows[1:])},
		TopScore:  rows,
		TopYield:  rows,
		Scenarios: []research.Scenario{research.ScoreWeighted("Top 5 by score", 4000, rows), research.EqualWeight("Empty", 4000, nil)},
		Insights:  []string{"CRLFF ranks first"},
		Index:     research.CompareIndex(rows, row("XLE", "ETF", 3, 12)),
	}
}

func TestRender(t *testing.T) {
	quiet := allocationReport()
	quiet.Quiet = true

	tests := []struct {
		name     string
		render   func() string
		tables   int
		contains []string
	}{
		{
			name:   "allocation",
			render: func() string { return RenderAllocation(allocationReport()) },
			tables: 7,
			contains: []string{
				"# Allocation: us",
				"| GLD | +10.00% | +20.00% | +15.00% | 10.00% | 1.50 | PASS |",
				"| GLD | $54,000 | 90.00% | $100.00 | 540.00 |",
				"MSTR combined momentum is **negative** (-10.00%)",
				"| MSTR | (DCA) | $100 | $1,200 |",
				"| **Total** | | **$5,100** | **$61,200** |",
				"Skipped, no usable data: ZZZ.",
			},
		},
		{
			name:     "allocation quiet",
			render:   func() string { return RenderAllocation(quiet) },
			tables:   5,
			contains: []string{"## Final Allocation", "## Portfolio Risk Metrics"},
		},
		{
			name: "topn",
			render: func() string {
				return RenderTopN(&research.TopNReport{
					Universe: "topn", Capital: 73296, N: 9, Min: 0.05, Max: 0.3,
					Scores: []research.TopNScore{{Ticker: "GLD", Mom12_1: 40, Mom6_1: 20, Mom12w2w: 10, Avg: 23.3, Score: 2.1}, {Ticker: "BAD", Score: math.NaN()}},
					Rows:   []research.TopNRow{{TopNScore: research.TopNScore{Ticker: "GLD", Mom12_1: 40, Mom6_1: 20, Mom12w2w: 10, Score: 2.1}, Amount: 22000, Percent: 30, Weekly: 1800, Thesis: "gold | hedge"}},
					Total:  22000,
				})
			},
			tables:   2,
			contains: []string{"| GLD | $22,000 | 30% | 40% | 20% | 10% | 2.10 | $1,800 |", `gold \| hedge`, "* GLD: $1,800/wk", "| 2 | BAD |", "n/a"},
		},
		{
			name: "simulation",
			render: func() string {
				values := []float64{50000, 55000, 60000, 62000, 70000}
				return RenderSimulation(&research.SimulationReport{
					Universe:  "simulation",
					Simulator: *research.NewSimulator(1),
					Weights:   []research.TickerWeight{{Ticker: "GLD", Weight: 0.6}, {Ticker: "XOM", Weight: 0.4}},
					Pain: research.PainAnalysis{
						MaxDrawdown: -12, Underwater: []int{3, 10}, LongestPeriod: 10, AvgPeriod: 6.5,
						Monthly:     research.MonthlyReturns{N: 12, Worst: -4, Best: 6, Median: 1, Positive: 58.3},
						TotalReturn: 30, Annualized: 9.1,
					},
					Methods: []research.Distribution{
						research.NewDistribution("Historical", values, 60000),
						research.NewDistribution("Bootstrap", values, 60000),
						research.NewDistribution("Block Bootstrap", values, 60000),
					},
				})
			},
			tables: 10,
			contains: []string{
				"| GLD | 60.00% | $36,000 |",
				"## Block Bootstrap (5 outcomes)",
				"| Minimum | $50,000 | -16.67% |",
				"| Median | $60,000 | +0.00% |",
				"| Percentile | Historical | Bootstrap | Block Bootstrap |",
				"| Longest underwater | 10 days |",
			},
		},
		{
			name: "correlation",
			render: func() string {
				frame := research.NewFrame([]string{"GLD", "XOM", "^NSEI"}, map[string]*date.History[float64]{
					"GLD":   series(100, 101, 103, 102, 105),
					"XOM":   series(50, 49, 51, 50, 48),
					"^NSEI": series(10, 11, 11.5, 11, 12),
				}, research.Fill)
				r, err := research.Correlate(frame, map[string]float64{"GLD": 0.5, "XOM": 0.5}, map[string]float64{"GLD": 0.7, "XOM": 0.3}, "^NSEI")
				if err != nil {
					t.Fatalf("Correlate() error = %v", err)
				}
				return RenderCorrelation(r)
			},
			tables:   4,
			contains: []string{"| | GLD | XOM | ^NSEI |", "| **GLD** | 1.00 |", "## Correlation with ^NSEI", "| GLD | 50.00% | 70.00% |", "Oil (XOM) vs ^NSEI correlation"},
		},
		{
			name:   "screen",
			render: func() string { return RenderScreen(screenReport()) },
			// ranking, comparison, segments, one bucket with rows, top score, top yield, one scenario, index
			tables: 8,
			contains: []string{
				"| 1 | CRLFF | CRLFF Corp | E&P | OTC | 9.00% | +5.00% | n/a |",
				"## Yield <5%: 0 securities",
				"No security qualifies.",
				"## XLE versus its Constituents",
				"Top constituents by score: CRLFF (40.00), ENB (20.00).",
			},
		},
		{
			name: "state",
			render: func() string {
				return RenderState(&research.StateReport{
					Universe: "state", AsOf: date.New(2026, 1, 15), ReferenceDate: date.New(2025, 12, 31),
					States: []research.PriceState{
						{Ticker: "GLD", Price: 130, Reference: 100, Change: 30, Return3M: 5, Return6M: 10, Positive: true, Source: "findata"},
						research.CheckState("IPOOF", research.Snapshot{Price: 5}, 0, nil, false),
					},
					Alerts: []string{"PRICE ALERT: GLD is outside 20% range ($130.00 vs ref $100.00)"},
				})
			},
			tables: 2,
			contains: []string{
				"## Price Comparison vs 2025-12-31 Reference",
				"| GLD | $130.00 | $100.00 | +30.0% | **NO** |",
				"| IPOOF | $5.00 | - | - | Yes |",
				"| GLD | +5.0% | +10.0% | Positive |",
				"- PRICE ALERT: GLD is outside 20% range",
			},
		},
		{
			name: "state without alert",
			render: func() string {
				return RenderState(&research.StateReport{Universe: "state", AsOf: date.New(2026, 1, 15)})
			},
			tables:   2,
			contains: []string{"DCA can proceed as planned."},
		},
		{
			name: "bars",
			render: func() string {
				b := &research.Bars{Ticker: "XOM.US"}
				b.Close.Append(date.New(2024, 1, 2), 100).Append(date.New(2024, 1, 3), 101).Append(date.New(2024, 1, 4), 102)
				b.Dividends.Append(date.New(2024, 1, 3), 0.95)
				return RenderBars(b, 2, eodhd.Split{Date: date.New(2024, 1, 5), Numerator: 2, Denominator: 1})
			},
			tables:   3,
			contains: []string{"2 closes from 2024-01-03 to 2024-01-04, last of 3.", "| 2024-01-03 | 101.0000 | 0.9500 |", "| 2024-01-05 | 2:1 |"},
		},
		{
			name: "scheme",
			render: func() string {
				return RenderScheme(&mfapi.Scheme{
					Meta: mfapi.Meta{SchemeCode: 122639, SchemeName: "Parag Parikh Flexi Cap Fund", FundHouse: "PPFAS Mutual Fund"},
					Data: []mfapi.NAV{{Date: date.New(2025, 6, 26), NAV: decimal.RequireFromString("1234.5")}, {Date: date.New(2025, 6, 25), NAV: decimal.RequireFromString("1230")}},
				}, 5)
			},
			tables:   2,
			contains: []string{"# Parag Parikh Flexi Cap Fund", "| NAV | ₹1,234.50 as of 2025-06-26 |"},
		},
		{
			name: "funds",
			render: func() string {
				return RenderFunds("Search: gold", []mfapi.Fund{{SchemeCode: 1, SchemeName: "Gold ETF"}, {SchemeCode: 2, SchemeName: "Gold FoF"}}, 1)
			},
			tables:   1,
			contains: []string{"| 1 | Gold ETF |", "1 more schemes not shown."},
		},
		{
			name: "search",
			render: func() string {
				return RenderSearch("apple", []eodhd.SearchResult{{Code: "AAPL", Exchange: "US", Name: "Apple Inc", MIC: "XNAS", PreviousClose: 201.5}})
			},
			tables:   1,
			contains: []string{"| AAPL.US | Apple Inc |", "| XNAS | 201.50 |"},
		},
		{
			name: "quotes",
			render: func() string {
				return RenderQuotes([]yahoo.Quote{{Symbol: "XOM", Name: "Exxon", Currency: "USD", Price: 110, DayChange: -1.2, MarketCap: 4.5e11, DividendRate: 3.96, Yield: 3.6}})
			},
			tables:   1,
			contains: []string{"| XOM | Exxon | 110.00 USD | -1.20% | $450,000,000,000 | 3.96 | 3.60% |"},
		},
		{
			name: "account",
			render: func() string {
				return RenderAccount("U123",
					[]ibkr.Value{{Tag: "NetLiquidation", Amount: 100000, Currency: "USD"}},
					[]ibkr.Position{{Ticker: "XOM", Position: 10, MarketValue: 1100, UnrealizedPnL: 50, Currency: "USD"}, {Description: "GOLD ETF", MarketValue: 900}})
			},
			tables:   2,
			contains: []string{"| NetLiquidation | 100000.00 USD |", "| GOLD ETF |", "| **Total** | | | | **2000.00** | | **50.00** | |", "| +$50.00 | USD |", "| +0.00 |"},
		},
		{
			name:     "broker quote",
			render:   func() string { return RenderBrokerQuote(ibkr.Quote{Symbol: "XOM", ConID: "13977", Company: "EXXON MOBIL", Last: 110.5, Volume: 12345}) },
			tables:   1,
			contains: []string{"# XOM: EXXON MOBIL", "| 13977 | 110.50 | 0.00 | 0.00 | 12345 |"},
		},
		{
			name: "universe",
			render: func() string {
				u, err := research.LoadUniverse("us", "")
				if err != nil {
					t.Fatalf("LoadUniverse(us) error = %v", err)
				}
				return RenderUniverse(u) + "\n" + RenderUniverses([]*research.Universe{u})
			},
			tables:   2,
			contains: []string{"# Universe us", "Special DCA: MSTR", "| us |"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.render()
			if strings.HasPrefix(got, "error ") {
				t.Fatalf("render failed: %s", got)
			}
			if n := countTables(t, got); n != tt.tables {
				t.Errorf("rendered %d tables, want %d\n%s", n, tt.tables, got)
			}
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("output does not contain %q\n%s", want, got)
				}
			}
		})
	}
}

func series(values ...float64) *date.History[float64] {
	h := new(date.History[float64])
	for i, v := range values {
		h.Append(date.New(2025, 1, 6+i), v)
	}
	return h
}

func TestFormatters(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"money", dollars(60000), "$60,000"},
		{"money rounds", dollars(1234.56), "$1,235"},
		{"money NaN", dollars(math.NaN()), "n/a"},
		{"price", price(1234.567), "$1,234.57"},
		{"signed zero", signed(0), "+0.00%"},
		{"signed", signed(-2.5), "-2.50%"},
		{"days int", days(12), "12d"},
		{"days float", days(12.4), "12d"},
		{"cell", cell("a|b"), `a\|b`},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %q, want %q", tt.name, tt.got, tt.want)
		}
	}
}
