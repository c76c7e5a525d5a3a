package cmd

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Configuration keys, also read from the environment.
const (
	keyEODHD       = "EODHD_API_KEY"
	keyFindata     = "FINANCIAL_DATASETS_API_KEY"
	keyGateway     = "IBKR_GATEWAY"
	keyAccount     = "IBKR_ACCOUNT"
	keyProvider    = "PRS_PROVIDER"
	keyCacheDir    = "PRS_CACHE_DIR"
	keyUniverseDir = "PRS_UNIVERSE_DIR"
	keyGemini      = "GEMINI_API_KEY"
)

var config = viper.New()

// loadConfig reads, by increasing precedence, the .env file of the current directory, the
// configuration file and the environment. Global flags that are set override them all.
func loadConfig(file string) error {
	config.SetDefault(keyProvider, "yahoo")

	dotenv := viper.New()
	dotenv.SetConfigFile(".env")
	dotenv.SetConfigType("env")
	if err := dotenv.ReadInConfig(); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("reading .env: %w", err)
		}
	} else {
		if err := config.MergeConfigMap(dotenv.AllSettings()); err != nil {
			return fmt.Errorf("reading .env: %w", err)
		}
		log.Debug().Msg("loaded .env")
	}

	yaml := viper.New()
	if file != "" {
		yaml.SetConfigFile(file)
	} else {
		yaml.SetConfigName("prs")
		yaml.SetConfigType("yaml")
		yaml.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			yaml.AddConfigPath(filepath.Join(home, ".config", "prs"))
		}
	}
	if err := yaml.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("reading configuration: %w", err)
		}
	} else {
		if err := config.MergeConfigMap(yaml.AllSettings()); err != nil {
			return fmt.Errorf("reading %s: %w", yaml.ConfigFileUsed(), err)
		}
		log.Debug().Str("file", yaml.ConfigFileUsed()).Msg("loaded configuration")
	}

	config.AutomaticEnv()

	overrides := map[string]string{
		"provider":     keyProvider,
		"cache-dir":    keyCacheDir,
		"universe-dir": keyUniverseDir,
	}
	flag.Visit(func(f *flag.Flag) {
		if key, ok := overrides[f.Name]; ok {
			config.Set(key, f.Value.String())
		}
	})
	return nil
}

// setting returns the value of a configuration key, the flag value when it is set.
func setting(key, flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return config.GetString(key)
}
