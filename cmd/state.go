package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/research"
	"github.com/etnz/research/date"
	"github.com/etnz/research/renderer"
	"github.com/google/subcommands"
	"github.com/rs/zerolog/log"
)

type stateCmd struct {
	universe string
	output   string
}

func (*stateCmd) Name() string     { return "state" }
func (*stateCmd) Synopsis() string { return "holdings versus their reference prices" }
func (*stateCmd) Usage() string {
	return `prs state [-u <universe>] [-o <file>]

  Compares the price of each holding with its reference price, checks its 3 and 6 months
  momentum, and lists the alerts.

  Prices come from financialdatasets.ai when FINANCIAL_DATASETS_API_KEY is set, and from
  Yahoo otherwise or for the tickers it does not know.
`
}

func (c *stateCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.universe, "u", "state", "universe with the holdings and their reference prices")
	f.StringVar(&c.output, "o", "", "also save the report to this file")
}

func (c *stateCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	u, err := loadUniverse(c.universe)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading universe: %v\n", err)
		return subcommands.ExitFailure
	}

	var sources []research.StateSource
	if fd, err := newFindata(); err == nil {
		sources = append(sources, research.StateSource{Name: "financialdatasets.ai", Snapshot: fd.Snapshot, History: fd})
	} else {
		log.Debug().Err(err).Msg("using yahoo only")
	}
	y := newYahoo()
	sources = append(sources, research.StateSource{Name: "yahoo", History: y, Strict3M: true})

	r, err := research.CheckStates(ctx, u, date.Today(), sources...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error checking states: %v\n", err)
		return subcommands.ExitFailure
	}
	if err := report(renderer.RenderState(r), c.output); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving report: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
