package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/etnz/research/mfapi"
	"github.com/etnz/research/renderer"
	"github.com/google/subcommands"
)

// mfCmd groups the Indian mutual fund commands.
type mfCmd struct{}

func (*mfCmd) Name() string     { return "mf" }
func (*mfCmd) Synopsis() string { return "Indian mutual fund NAVs from mfapi.in" }
func (*mfCmd) Usage() string {
	return `mf <subcommand> [args]

Indian mutual fund commands. Schemes are identified by their AMFI scheme code, that can
also be used as a "mf:<code>" ticker in universes.

Commands:
  nav     - latest NAV of schemes.
  history - NAV history of a scheme.
  search  - search schemes by name.
  list    - list every scheme.
`
}

func (*mfCmd) SetFlags(*flag.FlagSet) {}

func (c *mfCmd) subcommands() []subcommands.Command {
	return []subcommands.Command{&mfNAVCmd{}, &mfHistoryCmd{}, &mfSearchCmd{}, &mfListCmd{}}
}

func (c *mfCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	return nest(ctx, f, c.Name(), c.subcommands(), args...)
}

type mfNAVCmd struct{}

func (*mfNAVCmd) Name() string     { return "nav" }
func (*mfNAVCmd) Synopsis() string { return "latest NAV of schemes" }
func (*mfNAVCmd) Usage() string {
	return `prs mf nav <scheme code>...

  Prints the scheme details and the latest NAV of each scheme.
`
}
func (*mfNAVCmd) SetFlags(*flag.FlagSet) {}

func (*mfNAVCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: at least one scheme code is required.")
		return subcommands.ExitUsageError
	}
	client := newMFAPI()
	var md strings.Builder
	for _, arg := range f.Args() {
		code, err := mfapi.ParseTicker(arg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitUsageError
		}
		s, err := client.Scheme(ctx, code)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error fetching scheme %d: %v\n", code, err)
			return subcommands.ExitFailure
		}
		md.WriteString(renderer.RenderScheme(s, 0))
		md.WriteString("\n")
	}
	printMarkdown(md.String())
	return subcommands.ExitSuccess
}

type mfHistoryCmd struct {
	last int
}

func (*mfHistoryCmd) Name() string     { return "history" }
func (*mfHistoryCmd) Synopsis() string { return "NAV history of a scheme" }
func (*mfHistoryCmd) Usage() string {
	return `prs mf history [-n <count>] <scheme code>

  Prints the last NAVs of a scheme, newest first.
`
}

func (c *mfHistoryCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.last, "n", 30, "number of NAVs to print")
}

func (c *mfHistoryCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 || c.last <= 0 {
		fmt.Fprintln(os.Stderr, "Error: a single scheme code and a positive -n are required.")
		return subcommands.ExitUsageError
	}
	code, err := mfapi.ParseTicker(f.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	s, err := newMFAPI().Scheme(ctx, code)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error fetching scheme %d: %v\n", code, err)
		return subcommands.ExitFailure
	}
	printMarkdown(renderer.RenderScheme(s, c.last))
	return subcommands.ExitSuccess
}

type mfSearchCmd struct{}

func (*mfSearchCmd) Name() string     { return "search" }
func (*mfSearchCmd) Synopsis() string { return "search schemes by name" }
func (*mfSearchCmd) Usage() string {
	return `prs mf search <terms>

  Prints the schemes whose name matches the terms.
`
}
func (*mfSearchCmd) SetFlags(*flag.FlagSet) {}

func (*mfSearchCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: a search term is required.")
		return subcommands.ExitUsageError
	}
	q := strings.Join(f.Args(), " ")
	funds, err := newMFAPI().Search(ctx, q)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error searching schemes: %v\n", err)
		return subcommands.ExitFailure
	}
	printMarkdown(renderer.RenderFunds(fmt.Sprintf("Schemes matching %q", q), funds, 0))
	return subcommands.ExitSuccess
}

type mfListCmd struct {
	filter string
	limit  int
}

func (*mfListCmd) Name() string     { return "list" }
func (*mfListCmd) Synopsis() string { return "list every scheme" }
func (*mfListCmd) Usage() string {
	return `prs mf list [-filter <text>] [-limit <count>]

  Prints the schemes known to mfapi.in, optionally only the ones whose name contains the
  filter, ignoring case.
`
}

func (c *mfListCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.filter, "filter", "", "keep the schemes whose name contains this text")
	f.IntVar(&c.limit, "limit", 100, "maximum number of schemes to print, 0 prints them all")
}

func (c *mfListCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	funds, err := newMFAPI().List(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error listing schemes: %v\n", err)
		return subcommands.ExitFailure
	}
	title := "Schemes"
	if c.filter != "" {
		filter := strings.ToLower(c.filter)
		kept := funds[:0]
		for _, fund := range funds {
			if strings.Contains(strings.ToLower(fund.SchemeName), filter) {
				kept = append(kept, fund)
			}
		}
		funds = kept
		title = fmt.Sprintf("Schemes containing %q", c.filter)
	}
	printMarkdown(renderer.RenderFunds(title, funds, c.limit))
	return subcommands.ExitSuccess
}
