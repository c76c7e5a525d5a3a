package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/etnz/research"
	"github.com/etnz/research/docs"
	"github.com/google/subcommands"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

// Complete answers the shell completion requests of bash, zsh or fish, and exits. It returns
// when the process was not started by the shell to complete a command line.
func Complete(name string) {
	config.AutomaticEnv()
	completion().Complete(name)
}

// completion describes the command line of prs: every command, with its flags, subcommands
// and arguments.
func completion() *complete.Command {
	root := &complete.Command{Sub: map[string]*complete.Command{}, Flags: flags(flag.CommandLine)}
	root.Flags["provider"] = predict.Set(providerNames)
	root.Flags["config"] = predict.Files("*.yaml")
	root.Flags["cache-dir"] = predict.Files("*")
	root.Flags["universe-dir"] = predict.Files("*")
	for _, c := range Commands {
		root.Sub[c.Command.Name()] = commandCompletion(c.Command)
	}
	return root
}

func commandCompletion(c subcommands.Command) *complete.Command {
	fs := flag.NewFlagSet(c.Name(), flag.ContinueOnError)
	c.SetFlags(fs)
	cc := &complete.Command{Flags: flags(fs)}
	if _, ok := cc.Flags["u"]; ok {
		cc.Flags["u"] = complete.PredictFunc(universes)
	}
	if _, ok := cc.Flags["o"]; ok {
		cc.Flags["o"] = predict.Files("*.md")
	}
	switch c := c.(type) {
	case nested:
		cc.Sub = map[string]*complete.Command{}
		for _, sub := range c.subcommands() {
			cc.Sub[sub.Name()] = commandCompletion(sub)
		}
		if _, ok := c.(*universeCmd); ok {
			cc.Sub["show"].Args = complete.PredictFunc(universes)
		}
	case *topicCmd:
		cc.Args = complete.PredictFunc(topics)
	}
	return cc
}

// flags predicts the values of the flags of fs: nothing for booleans, something otherwise.
func flags(fs *flag.FlagSet) map[string]complete.Predictor {
	m := make(map[string]complete.Predictor)
	fs.VisitAll(func(f *flag.Flag) {
		if b, ok := f.Value.(interface{ IsBoolFlag() bool }); ok && b.IsBoolFlag() {
			m[f.Name] = predict.Nothing
			return
		}
		m[f.Name] = predict.Something
	})
	return m
}

func universes(string) []string { return research.UniverseNames(config.GetString(keyUniverseDir)) }

func topics(string) []string {
	index, err := docs.Index()
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(index))
	for _, t := range index {
		names = append(names, t.Name)
	}
	return names
}

// completeCmd explains how to install the completion.
type completeCmd struct{}

func (*completeCmd) Name() string     { return "complete" }
func (*completeCmd) Synopsis() string { return "shell completion" }
func (*completeCmd) Usage() string {
	return `complete

  Prints the command installing the shell completion of prs in bash.
  With zsh or fish, run 'COMP_INSTALL=1 prs' instead.
`
}
func (*completeCmd) SetFlags(*flag.FlagSet) {}

func (*completeCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	exe, err := os.Executable()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error locating prs: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("complete -C %s %s\n", exe, filepath.Base(exe))
	return subcommands.ExitSuccess
}
