package cmd

import (
	"crypto/tls"
	"fmt"
	"net/http"
	"strings"

	"github.com/etnz/research"
	"github.com/etnz/research/date"
	"github.com/etnz/research/eodhd"
	"github.com/etnz/research/findata"
	"github.com/etnz/research/ibkr"
	"github.com/etnz/research/mfapi"
	"github.com/etnz/research/remote"
	"github.com/etnz/research/yahoo"
)

// remoteConfig returns the http configuration shared by the providers. Histories change
// daily.
func remoteConfig() remote.Config {
	return remote.Config{
		CacheDir: config.GetString(keyCacheDir),
		NoCache:  *noCache,
		Period:   date.Daily,
	}
}

func newYahoo() *yahoo.Client { return yahoo.New(remoteConfig()) }

func newMFAPI() *mfapi.Client { return mfapi.New(remoteConfig()) }

func newEODHD() (*eodhd.Client, error) {
	key := config.GetString(keyEODHD)
	if key == "" {
		return nil, fmt.Errorf("EODHD API key is not set, use the %s environment variable or configuration key. You can get one at https://eodhd.com/", keyEODHD)
	}
	return eodhd.New(key, remoteConfig()), nil
}

func newFindata() (*findata.Client, error) {
	key := config.GetString(keyFindata)
	if key == "" {
		return nil, fmt.Errorf("financialdatasets.ai API key is not set, use the %s environment variable or configuration key", keyFindata)
	}
	return findata.New(key, remoteConfig()), nil
}

// newIBKR returns a client of the Client Portal gateway. The gateway serves a self signed
// certificate on localhost.
func newIBKR() *ibkr.Client {
	cfg := remoteConfig()
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	cfg.Base = transport
	return ibkr.New(config.GetString(keyGateway), cfg)
}

// providerNames are the values of -provider.
var providerNames = []string{"yahoo", "eodhd", "findata"}

// newProvider returns the configured price provider. Paid providers fall back on yahoo for
// the tickers they do not cover, mf: tickers are always read from mfapi.in.
func newProvider() (research.Provider, error) {
	var p research.Provider
	switch name := strings.ToLower(config.GetString(keyProvider)); name {
	case "yahoo", "":
		p = newYahoo()
	case "eodhd":
		c, err := newEODHD()
		if err != nil {
			return nil, err
		}
		p = research.Fallback(c, newYahoo())
	case "findata":
		c, err := newFindata()
		if err != nil {
			return nil, err
		}
		p = research.Fallback(c, newYahoo())
	default:
		return nil, fmt.Errorf("unknown provider %q, use one of %s", name, strings.Join(providerNames, ", "))
	}
	return newMFAPI().Router(p), nil
}

// loadUniverse loads a universe, embedded or from the universe directory.
func loadUniverse(name string) (*research.Universe, error) {
	u, err := research.LoadUniverse(name, config.GetString(keyUniverseDir))
	if err != nil {
		return nil, err
	}
	return u, u.Validate()
}
