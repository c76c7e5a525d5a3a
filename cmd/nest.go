package cmd

import (
	"context"
	"flag"

	"github.com/google/subcommands"
)

// nested is a command grouping subcommands.
type nested interface {
	subcommands() []subcommands.Command
}

// nest executes the subcommand named by the arguments of f.
func nest(ctx context.Context, f *flag.FlagSet, name string, commands []subcommands.Command, args ...interface{}) subcommands.ExitStatus {
	commander := subcommands.NewCommander(f, name)
	for _, c := range commands {
		commander.Register(c, "")
	}
	return commander.Execute(ctx, args...)
}
