package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/etnz/research"
	"github.com/etnz/research/date"
	"github.com/etnz/research/renderer"
	"github.com/google/subcommands"
)

type correlateCmd struct {
	universe   string
	start, end string
	out        string
	output     string
}

func (*correlateCmd) Name() string     { return "correlate" }
func (*correlateCmd) Synopsis() string { return "correlations of the current and proposed portfolios" }
func (*correlateCmd) Usage() string {
	return `prs correlate [-u <universe>] [-start <date>] [-end <date>] [-out <dir>] [-o <file>]

  Computes the correlation matrix of the daily returns of a universe, the correlation of
  each security with the benchmark, and compares the performance of the current portfolio
  with the proposed one.

  Writes correlation_matrix.csv and portfolio_comparison.json in the -out directory.
`
}

func (c *correlateCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.universe, "u", "correlation", "universe with the current weights and the proposed changes")
	f.StringVar(&c.start, "start", "", "first day, the universe start or 3 years ago by default")
	f.StringVar(&c.end, "end", "", "last day, the universe end or today by default")
	f.StringVar(&c.out, "out", "data", "directory of the CSV and JSON exports")
	f.StringVar(&c.output, "o", "", "also save the report to this file")
}

// period returns the analyzed range: flags first, then the universe, then the last 3 years.
func (c *correlateCmd) period(u *research.Universe) (date.Range, error) {
	r := lookback(3)
	if !u.Start.IsZero() {
		r.From = u.Start
	}
	if !u.End.IsZero() {
		r.To = u.End
	}
	for _, f := range []struct {
		value string
		dst   *date.Date
	}{{c.start, &r.From}, {c.end, &r.To}} {
		if f.value == "" {
			continue
		}
		d, err := date.Parse(f.value)
		if err != nil {
			return r, err
		}
		*f.dst = d
	}
	if r.To.Before(r.From) {
		return r, fmt.Errorf("empty period %s", r)
	}
	return r, nil
}

// index reinvests the dividends, so that performance and correlations include them.
func (*correlateCmd) index(b *research.Bars) *date.History[float64] {
	return research.TotalReturnIndex(b)
}

func (c *correlateCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	u, err := loadUniverse(c.universe)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading universe: %v\n", err)
		return subcommands.ExitFailure
	}
	r, err := c.period(u)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing period: %v\n", err)
		return subcommands.ExitUsageError
	}

	tickers := u.Tickers()
	benchmark := u.Benchmark
	if benchmark == "" {
		benchmark = research.DefaultBenchmark
	}
	if _, ok := u.Get(benchmark); !ok {
		tickers = append(tickers, benchmark)
	}

	frame, skipped, err := fetchFrame(ctx, tickers, r, research.Fill, c.index)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error fetching prices: %v\n", err)
		return subcommands.ExitFailure
	}

	current := u.Weights()
	rep, err := research.Correlate(frame, current, research.ProposedWeights(current, u.Proposed), benchmark)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error computing correlations: %v\n", err)
		return subcommands.ExitFailure
	}
	rep.Universe, rep.Skipped = u.Name, skipped

	if err := c.export(rep); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing exports: %v\n", err)
		return subcommands.ExitFailure
	}
	if err := report(renderer.RenderCorrelation(rep), c.output); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving report: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// export writes the correlation matrix and the portfolio comparison.
func (c *correlateCmd) export(rep *research.CorrelationReport) error {
	if err := os.MkdirAll(c.out, 0o755); err != nil {
		return err
	}
	for name, write := range map[string]func(*os.File) error{
		"correlation_matrix.csv":    func(f *os.File) error { return rep.Matrix.WriteCSV(f) },
		"portfolio_comparison.json": func(f *os.File) error { return rep.WriteComparison(f) },
	} {
		file, err := os.Create(filepath.Join(c.out, name))
		if err != nil {
			return err
		}
		if err := write(file); err != nil {
			file.Close()
			return fmt.Errorf("%s: %w", file.Name(), err)
		}
		if err := file.Close(); err != nil {
			return err
		}
	}
	return nil
}
