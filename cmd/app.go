// Package cmd implements the prs command line: one subcommand per research report, plus the
// data provider and documentation commands.
package cmd

import (
	"flag"

	"github.com/google/subcommands"
)

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var (
	verbose     = flag.Bool("v", false, "enable debug logs")
	configFile  = flag.String("config", "", "configuration file, prs.yaml in . or ~/.config/prs by default")
	providerArg = flag.String("provider", "", "price provider: yahoo, eodhd or findata (PRS_PROVIDER, default yahoo)")
	cacheDir    = flag.String("cache-dir", "", "http cache directory (PRS_CACHE_DIR, default the temporary directory)")
	universeDir = flag.String("universe-dir", "", "directory of YAML universes overriding the embedded ones (PRS_UNIVERSE_DIR)")
	noCache     = flag.Bool("no-cache", false, "bypass the http cache")
	raw         = flag.Bool("raw", false, "print markdown as is, without terminal rendering")
)

// Commands are the subcommands of prs, by group.
var Commands = []struct {
	Group   string
	Command subcommands.Command
}{
	{"reports", &allocateCmd{}},
	{"reports", &topNCmd{}},
	{"reports", &simulateCmd{}},
	{"reports", &correlateCmd{}},
	{"reports", &screenCmd{}},
	{"reports", &stateCmd{}},

	{"data", &quoteCmd{}},
	{"data", &mfCmd{}},
	{"data", &eodhdCmd{}},
	{"data", &ibkrCmd{}},
	{"data", &universeCmd{}},

	{"help", &topicCmd{}},
	{"help", &assistCmd{}},
	{"help", &completeCmd{}},
}

// Init loads the configuration and sets up logging. It must be called after the flags are
// parsed.
func Init() error {
	setupLogging(*verbose)
	return loadConfig(*configFile)
}
