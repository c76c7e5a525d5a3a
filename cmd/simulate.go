package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/etnz/research"
	"github.com/etnz/research/renderer"
	"github.com/google/subcommands"
	"github.com/rs/zerolog/log"
)

type simulateCmd struct {
	universe string
	capital  float64
	days     int
	runs     int
	block    int
	seed     uint64
	years    int
	output   string
}

func (*simulateCmd) Name() string     { return "simulate" }
func (*simulateCmd) Synopsis() string { return "Monte Carlo simulation of a weighted portfolio" }
func (*simulateCmd) Usage() string {
	return `prs simulate [-u <universe>] [-c <capital>] [-days <n>] [-runs <n>] [-block <n>] [-seed <n>] [-o <file>]

  Simulates the value of the portfolio weighted as in the universe after a number of
  trading days, from historical windows and bootstraps of the daily returns.

  See 'prs topic simulation'.
`
}

func (c *simulateCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.universe, "u", "simulation", "universe with the portfolio weights")
	f.Float64Var(&c.capital, "c", 60000, "initial capital, in dollars")
	f.IntVar(&c.days, "days", 63, "horizon, in trading days")
	f.IntVar(&c.runs, "runs", 10000, "number of bootstrap paths")
	f.IntVar(&c.block, "block", 5, "block length of the block bootstrap, in trading days")
	f.Uint64Var(&c.seed, "seed", 0, "random seed, a random one when 0")
	f.IntVar(&c.years, "years", 3, "years of price history")
	f.StringVar(&c.output, "o", "", "also save the report to this file")
}

func (c *simulateCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.capital <= 0 || c.days <= 0 || c.runs <= 0 || c.block <= 0 {
		fmt.Fprintln(os.Stderr, "Error: capital, days, runs and block must be positive")
		return subcommands.ExitUsageError
	}
	u, err := loadUniverse(c.universe)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading universe: %v\n", err)
		return subcommands.ExitFailure
	}
	if !u.HasWeights() {
		fmt.Fprintf(os.Stderr, "Error: universe %q has no weights\n", u.Name)
		return subcommands.ExitFailure
	}

	frame, skipped, err := fetchFrame(ctx, u.Tickers(), lookback(c.years), research.Intersect, research.TotalReturnIndex)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error fetching prices: %v\n", err)
		return subcommands.ExitFailure
	}

	seed := c.seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
		log.Info().Uint64("seed", seed).Msg("random seed, use -seed to reproduce")
	}
	sim := research.NewSimulator(seed)
	sim.Capital, sim.Days, sim.Runs, sim.Block = c.capital, c.days, c.runs, c.block

	weights := u.Weights()
	for _, t := range skipped {
		delete(weights, t)
	}
	r, err := sim.Simulate(frame, weights)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error simulating: %v\n", err)
		return subcommands.ExitFailure
	}
	r.Universe, r.Skipped = u.Name, skipped
	if err := report(renderer.RenderSimulation(r), c.output); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving report: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
