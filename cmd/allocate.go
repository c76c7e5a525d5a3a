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

type allocateCmd struct {
	universe  string
	capital   float64
	min, max  float64
	sectorCap float64
	years     int
	quiet     bool
	output    string
}

func (*allocateCmd) Name() string     { return "allocate" }
func (*allocateCmd) Synopsis() string { return "score weighted allocation of a universe" }
func (*allocateCmd) Usage() string {
	return `prs allocate [-u <universe>] [-c <capital>] [-m <min>] [-M <max>] [-q] [-o <file>]

  Ranks the securities of a universe by momentum over downside volatility, and allocates
  the capital to the ones with a positive momentum, within position and sector constraints.
  Allocations are rounded and spread over a 12 weeks DCA plan.

  See 'prs topic momentum' and 'prs topic constraints'.
`
}

func (c *allocateCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.universe, "u", "us", "universe to allocate")
	f.Float64Var(&c.capital, "c", 60000, "capital to allocate, in dollars")
	f.Float64Var(&c.min, "m", 0.05, "minimum position, as a fraction of capital")
	f.Float64Var(&c.max, "M", 1.0, "maximum position, as a fraction of capital")
	f.Float64Var(&c.sectorCap, "sector-cap", 0.33, "maximum sector exposure, as a fraction of capital")
	f.IntVar(&c.years, "years", 3, "years of price history")
	f.BoolVar(&c.quiet, "q", false, "hide the momentum and drawdown tables")
	f.StringVar(&c.output, "o", "", "also save the report to this file")
}

func (c *allocateCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.capital <= 0 || c.min < 0 || c.max <= 0 || c.min > c.max {
		fmt.Fprintln(os.Stderr, "Error: capital must be positive and 0 <= min <= max")
		return subcommands.ExitUsageError
	}
	u, err := loadUniverse(c.universe)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading universe: %v\n", err)
		return subcommands.ExitFailure
	}

	frame, skipped, err := fetchFrame(ctx, u.Tickers(), lookback(c.years), research.Intersect, research.TotalReturnIndex)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error fetching prices: %v\n", err)
		return subcommands.ExitFailure
	}

	constraints := research.DefaultConstraints(c.capital)
	constraints.Min, constraints.Max, constraints.SectorCap = c.min, c.max, c.sectorCap
	var special research.SpecialDCA
	if u.Special != "" {
		special = research.DefaultSpecialDCA(u.Special)
	}

	r := research.Allocate(frame, u, constraints, special)
	r.Skipped, r.Quiet = skipped, c.quiet
	if err := report(renderer.RenderAllocation(r), c.output); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving report: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
