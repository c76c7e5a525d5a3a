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

// universeCmd groups the universe commands.
type universeCmd struct{}

func (*universeCmd) Name() string     { return "universe" }
func (*universeCmd) Synopsis() string { return "list and show universes" }
func (*universeCmd) Usage() string {
	return `universe <subcommand> [args]

A universe is the list of securities a report works on, with its parameters. Files of the
PRS_UNIVERSE_DIR directory override the embedded universes of the same name.

Commands:
  list - list the universes.
  show - show the securities of a universe.
`
}

func (*universeCmd) SetFlags(*flag.FlagSet) {}

func (c *universeCmd) subcommands() []subcommands.Command {
	return []subcommands.Command{&universeListCmd{}, &universeShowCmd{}}
}

func (c *universeCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	return nest(ctx, f, c.Name(), c.subcommands(), args...)
}

type universeListCmd struct{}

func (*universeListCmd) Name() string           { return "list" }
func (*universeListCmd) Synopsis() string       { return "list the universes" }
func (*universeListCmd) Usage() string          { return "prs universe list\n" }
func (*universeListCmd) SetFlags(*flag.FlagSet) {}

func (*universeListCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	var universes []*research.Universe
	for _, name := range research.UniverseNames(config.GetString(keyUniverseDir)) {
		u, err := loadUniverse(name)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading universe %s: %v\n", name, err)
			return subcommands.ExitFailure
		}
		universes = append(universes, u)
	}
	printMarkdown(renderer.RenderUniverses(universes))
	return subcommands.ExitSuccess
}

type universeShowCmd struct{}

func (*universeShowCmd) Name() string           { return "show" }
func (*universeShowCmd) Synopsis() string       { return "show the securities of a universe" }
func (*universeShowCmd) Usage() string          { return "prs universe show <name>...\n" }
func (*universeShowCmd) SetFlags(*flag.FlagSet) {}

func (*universeShowCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: a universe name is required, see 'prs universe list'.")
		return subcommands.ExitUsageError
	}
	for _, name := range f.Args() {
		u, err := loadUniverse(name)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading universe: %v\n", err)
			return subcommands.ExitFailure
		}
		printMarkdown(renderer.RenderUniverse(u))
	}
	return subcommands.ExitSuccess
}
