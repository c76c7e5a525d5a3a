package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/research/renderer"
	"github.com/google/subcommands"
)

type quoteCmd struct{}

func (*quoteCmd) Name() string     { return "quote" }
func (*quoteCmd) Synopsis() string { return "latest Yahoo quotes" }
func (*quoteCmd) Usage() string {
	return `prs quote <ticker>...

  Prints the latest price, day change, market cap and dividend yield of tickers.
`
}

func (*quoteCmd) SetFlags(*flag.FlagSet) {}

func (*quoteCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: at least one ticker is required.")
		return subcommands.ExitUsageError
	}
	quotes, err := newYahoo().Quote(ctx, f.Args()...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error fetching quotes: %v\n", err)
		return subcommands.ExitFailure
	}
	printMarkdown(renderer.RenderQuotes(quotes))
	return subcommands.ExitSuccess
}
