package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/research/ibkr"
	"github.com/etnz/research/renderer"
	"github.com/google/subcommands"
)

// ibkrCmd groups the read-only Interactive Brokers commands.
type ibkrCmd struct{}

func (*ibkrCmd) Name() string     { return "ibkr" }
func (*ibkrCmd) Synopsis() string { return "Interactive Brokers account and quotes" }
func (*ibkrCmd) Usage() string {
	return `ibkr <subcommand> [args]

Reads accounts and quotes from a running Client Portal gateway (IBKR_GATEWAY, by default
https://localhost:5000/v1/api). The session must be authenticated in the gateway first.

Commands:
  positions - positions of the account.
  summary   - net liquidation, cash and positions values, plus the positions.
  quote     - market data snapshot of a symbol.
`
}

func (*ibkrCmd) SetFlags(*flag.FlagSet) {}

func (c *ibkrCmd) subcommands() []subcommands.Command {
	return []subcommands.Command{&ibkrAccountCmd{name: "positions"}, &ibkrAccountCmd{name: "summary", summary: true}, &ibkrQuoteCmd{}}
}

func (c *ibkrCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	return nest(ctx, f, c.Name(), c.subcommands(), args...)
}

// ibkrAccountCmd prints the positions of an account, and its summary values when summary is
// set.
type ibkrAccountCmd struct {
	name    string
	summary bool
	account string
}

func (c *ibkrAccountCmd) Name() string { return c.name }
func (c *ibkrAccountCmd) Synopsis() string {
	if c.summary {
		return "account values and positions"
	}
	return "account positions"
}
func (c *ibkrAccountCmd) Usage() string {
	return fmt.Sprintf(`prs ibkr %s [-account <id>]

  %s, of the IBKR_ACCOUNT account or the first account of the session.
`, c.name, c.Synopsis())
}

func (c *ibkrAccountCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.account, "account", "", "account id (IBKR_ACCOUNT)")
}

func (c *ibkrAccountCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	client := newIBKR()
	account, err := client.DefaultAccount(ctx, setting(keyAccount, c.account))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error finding the account: %v\n", err)
		return subcommands.ExitFailure
	}

	var values []ibkr.Value
	if c.summary {
		if values, err = client.Summary(ctx, account); err != nil {
			fmt.Fprintf(os.Stderr, "Error reading the account summary: %v\n", err)
			return subcommands.ExitFailure
		}
	}
	positions, err := client.Positions(ctx, account)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading the positions: %v\n", err)
		return subcommands.ExitFailure
	}
	printMarkdown(renderer.RenderAccount(account, values, positions))
	return subcommands.ExitSuccess
}

type ibkrQuoteCmd struct{}

func (*ibkrQuoteCmd) Name() string     { return "quote" }
func (*ibkrQuoteCmd) Synopsis() string { return "market data snapshot of a symbol" }
func (*ibkrQuoteCmd) Usage() string {
	return `prs ibkr quote <symbol>

  Prints the last, bid and ask prices and the volume of a US stock.
`
}
func (*ibkrQuoteCmd) SetFlags(*flag.FlagSet) {}

func (*ibkrQuoteCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: a single symbol is required.")
		return subcommands.ExitUsageError
	}
	q, err := newIBKR().Quote(ctx, f.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error fetching the quote of %s: %v\n", f.Arg(0), err)
		return subcommands.ExitFailure
	}
	printMarkdown(renderer.RenderBrokerQuote(q))
	return subcommands.ExitSuccess
}
