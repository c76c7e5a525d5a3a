package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"slices"

	"github.com/etnz/research"
	"github.com/etnz/research/renderer"
	"github.com/google/subcommands"
	"github.com/rs/zerolog/log"
)

type screenCmd struct {
	universe  string
	capital   float64
	liveYield bool
	index     string
	years     int
	output    string
}

func (*screenCmd) Name() string     { return "screen" }
func (*screenCmd) Synopsis() string { return "dividend yield and momentum screen" }
func (*screenCmd) Usage() string {
	return `prs screen [-u <universe>] [-c <capital>] [-live-yield] [-index <etf>] [-o <file>]

  Assesses the yield, momentum, downside volatility and drawdown of dividend payers, groups
  them by yield and segment, and proposes allocation scenarios for the capital.

  When the universe lists the constituents of an ETF, or with -index, the ETF is compared
  with the weighted average of its constituents.

  See 'prs topic screens'.
`
}

func (c *screenCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.universe, "u", "oil-gas", "universe to screen")
	f.Float64Var(&c.capital, "c", 4000, "capital of the scenarios, in dollars")
	f.BoolVar(&c.liveYield, "live-yield", false, "replace the yields of the universe by the latest quotes")
	f.StringVar(&c.index, "index", "", "ETF to compare with its constituents, the universe index by default")
	f.IntVar(&c.years, "years", 3, "years of price history")
	f.StringVar(&c.output, "o", "", "also save the report to this file")
}

func (c *screenCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	u, err := loadUniverse(c.universe)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading universe: %v\n", err)
		return subcommands.ExitFailure
	}
	index := c.index
	if index == "" {
		index = u.Index
	}
	tickers := u.Tickers()
	if index != "" && !slices.Contains(tickers, index) {
		tickers = append(tickers, index)
	}

	var yields map[string]float64
	if c.liveYield {
		if yields, err = newYahoo().Yields(ctx, u.Tickers()...); err != nil {
			fmt.Fprintf(os.Stderr, "Error fetching yields: %v\n", err)
			return subcommands.ExitFailure
		}
		log.Debug().Int("yields", len(yields)).Msg("live yields")
	}

	frame, skipped, err := fetchFrame(ctx, tickers, lookback(c.years), research.Intersect, research.TotalReturnIndex)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error fetching prices: %v\n", err)
		return subcommands.ExitFailure
	}

	r := research.Screen(frame, u, yields, c.capital)
	r.Skipped = skipped
	if index != "" && frame.Has(index) {
		var constituents []research.ScreenRow
		for _, row := range r.Rows {
			if row.Weight > 0 {
				constituents = append(constituents, row)
			}
		}
		r.Index = research.CompareIndex(constituents, research.NewScreenRow(frame, research.Security{Ticker: index, Name: index}))
	}
	if err := report(renderer.RenderScreen(r), c.output); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving report: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
