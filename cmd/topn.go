package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/research"
	"github.com/etnz/research/renderer"
	"github.com/google/subcommands"
)

type topNCmd struct {
	universe string
	capital  float64
	n        int
	min, max float64
	years    int
	output   string
}

func (*topNCmd) Name() string     { return "topn" }
func (*topNCmd) Synopsis() string { return "top-N skip momentum allocation" }
func (*topNCmd) Usage() string {
	return `prs topn [-u <universe>] [-n <count>] [-c <capital>] [-m <min>] [-M <max>] [-o <file>]

  Ranks the securities of a universe by 12-1, 6-1 and 12w-2w momentum, keeps the best n,
  and allocates the capital by their 12w-2w momentum.
`
}

func (c *topNCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.universe, "u", "topn", "universe to rank")
	f.Float64Var(&c.capital, "c", 73296, "capital to allocate, in dollars")
	f.IntVar(&c.n, "n", 9, "number of positions")
	f.Float64Var(&c.min, "m", 0.05, "minimum position, as a fraction of capital")
	f.Float64Var(&c.max, "M", 0.30, "maximum position, as a fraction of capital")
	f.IntVar(&c.years, "years", 3, "years of price history")
	f.StringVar(&c.output, "o", "", "also save the report to this file")
}

func (c *topNCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.n <= 0 || c.capital <= 0 || c.min > c.max {
		fmt.Fprintln(os.Stderr, "Error: n and capital must be positive and min <= max")
		return subcommands.ExitUsageError
	}
	u, err := loadUniverse(c.universe)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading universe: %v\n", err)
		return subcommands.ExitFailure
	}

	frame, skipped, err := fetchFrame(ctx, u.Tickers(), lookback(c.years), research.Intersect, research.SimpleTotalReturnIndex)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error fetching prices: %v\n", err)
		return subcommands.ExitFailure
	}

	r := research.TopN(frame, u, c.n, c.capital, c.min, c.max)
	r.Skipped = skipped
	if err := report(renderer.RenderTopN(r), c.output); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving report: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
