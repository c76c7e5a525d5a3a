package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/etnz/research/date"
	"github.com/etnz/research/eodhd"
	"github.com/etnz/research/renderer"
	"github.com/google/subcommands"
)

// eodhdCmd is the top-level command for EODHD-related operations.
type eodhdCmd struct{}

func (*eodhdCmd) Name() string     { return "eodhd" }
func (*eodhdCmd) Synopsis() string { return "EODHD provider specific commands" }
func (*eodhdCmd) Usage() string {
	return `eodhd <subcommand> <options>

EODHD provider specific commands. They require the EODHD_API_KEY setting.

Commands:
  fetch  - print the closes, dividends and splits of a ticker.
  search - search securities by name, ticker or ISIN.
  isin   - find the ticker of an ISIN on an exchange.
`
}
func (c *eodhdCmd) SetFlags(f *flag.FlagSet) {}

func (c *eodhdCmd) subcommands() []subcommands.Command {
	return []subcommands.Command{&eodhdFetchCmd{}, &eodhdSearchCmd{}, &eodhdISINCmd{}}
}

func (c *eodhdCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	return nest(ctx, f, c.Name(), c.subcommands(), args...)
}

// eodhdFetchCmd implements the "eodhd fetch" command.
type eodhdFetchCmd struct {
	from, to string
	last     int
}

func (*eodhdFetchCmd) Name() string     { return "fetch" }
func (*eodhdFetchCmd) Synopsis() string { return "prints the price history of a ticker" }
func (*eodhdFetchCmd) Usage() string {
	return `prs eodhd fetch [-from <date>] [-to <date>] [-n <count>] <ticker>

  Prints the last closes of a ticker, its dividends and its splits. Tickers without an
  exchange suffix are US tickers.
`
}

func (c *eodhdFetchCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.from, "from", "", "first day, one year ago by default")
	f.StringVar(&c.to, "to", "", "last day, today by default")
	f.IntVar(&c.last, "n", 20, "number of closes to print, 0 prints them all")
}

func (c *eodhdFetchCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: a single ticker is required.")
		return subcommands.ExitUsageError
	}
	r := lookback(1)
	for _, p := range []struct {
		value string
		dst   *date.Date
	}{{c.from, &r.From}, {c.to, &r.To}} {
		if p.value == "" {
			continue
		}
		d, err := date.Parse(p.value)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing date: %v\n", err)
			return subcommands.ExitUsageError
		}
		*p.dst = d
	}

	client, err := newEODHD()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	ticker := f.Arg(0)
	bars, err := client.History(ctx, ticker, r)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error fetching %s: %v\n", ticker, err)
		return subcommands.ExitFailure
	}
	splits, err := client.Splits(ctx, eodhd.Ticker(ticker), r)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error fetching the splits of %s: %v\n", ticker, err)
		return subcommands.ExitFailure
	}
	printMarkdown(renderer.RenderBars(bars, c.last, splits...))
	return subcommands.ExitSuccess
}

// eodhdSearchCmd implements the "eodhd search" command.
type eodhdSearchCmd struct{}

func (*eodhdSearchCmd) Name() string     { return "search" }
func (*eodhdSearchCmd) Synopsis() string { return "searches for securities on EODHD" }
func (*eodhdSearchCmd) Usage() string {
	return `prs eodhd search <search term>

  Searches for securities via EOD Historical Data API and prints their ticker, ready to be
  used in a universe with -provider eodhd.
`
}

func (*eodhdSearchCmd) SetFlags(*flag.FlagSet) {}

func (*eodhdSearchCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: a search term is required.")
		return subcommands.ExitUsageError
	}
	term := strings.Join(f.Args(), " ")

	client, err := newEODHD()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	results, err := client.Search(ctx, term)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error searching securities: %v\n", err)
		return subcommands.ExitFailure
	}
	printMarkdown(renderer.RenderSearch(term, results))
	return subcommands.ExitSuccess
}

// eodhdISINCmd implements the "eodhd isin" command.
type eodhdISINCmd struct {
	mic string
}

func (*eodhdISINCmd) Name() string     { return "isin" }
func (*eodhdISINCmd) Synopsis() string { return "finds the EODHD ticker of an ISIN" }
func (*eodhdISINCmd) Usage() string {
	return `prs eodhd isin [-mic <MIC>] <ISIN>

  Prints the EODHD ticker of a security identified by its ISIN and the market identifier
  code (MIC) of its exchange. Delisted securities are found too.
`
}

func (c *eodhdISINCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.mic, "mic", "XNYS", "market identifier code of the exchange")
}

func (c *eodhdISINCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: a single ISIN is required.")
		return subcommands.ExitUsageError
	}
	client, err := newEODHD()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	ticker, err := client.FindISIN(ctx, f.Arg(0), c.mic)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error finding %s: %v\n", f.Arg(0), err)
		return subcommands.ExitFailure
	}
	fmt.Println(ticker)
	return subcommands.ExitSuccess
}
