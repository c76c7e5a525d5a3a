package research

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/etnz/research/date"
	"gopkg.in/yaml.v3"
)

//go:embed universes/*.yaml
var universes embed.FS

// Roles of the securities of a universe.
const (
	RoleHolding    = "holding"    // currently held
	RoleComparison = "comparison" // screened for comparison only
)

// Security is one entry of a Universe. Fields are optional, and their meaning depends on the
// report using the universe.
type Security struct {
	Ticker    string  `yaml:"ticker"`
	Name      string  `yaml:"name,omitempty"`
	Category  string  `yaml:"category,omitempty"`
	Thesis    string  `yaml:"thesis,omitempty"`
	Segment   string  `yaml:"segment,omitempty"`
	Yield     float64 `yaml:"yield,omitempty"`     // dividend yield in percent
	Frequency string  `yaml:"frequency,omitempty"` // dividend frequency
	Ops       string  `yaml:"ops,omitempty"`       // where the company operates
	Weight    float64 `yaml:"weight,omitempty"`    // portfolio or index weight, as a fraction
	Role      string  `yaml:"role,omitempty"`      // holding, proposal, benchmark or comparison
	Reference float64 `yaml:"reference,omitempty"` // reference price
}

// Group is a named list of tickers: a constrained sector or a reporting group.
type Group struct {
	Name    string   `yaml:"name"`
	Tickers []string `yaml:"tickers"`
}

// Universe is a list of securities plus the parameters of the report that analyzes them.
type Universe struct {
	Name          string             `yaml:"name"`
	Description   string             `yaml:"description,omitempty"`
	Securities    []Security         `yaml:"securities"`
	Sectors       []Group            `yaml:"sectors,omitempty"`   // capped by the allocation constraints
	Groups        []Group            `yaml:"groups,omitempty"`    // category exposure, reporting only
	Special       string             `yaml:"special,omitempty"`   // ticker with a special DCA plan
	Benchmark     string             `yaml:"benchmark,omitempty"` // correlation benchmark
	Index         string             `yaml:"index,omitempty"`     // ETF whose constituents are listed
	Proposed      map[string]float64 `yaml:"proposed,omitempty"`  // proposed portfolio weights
	Start         date.Date          `yaml:"start,omitempty"`
	End           date.Date          `yaml:"end,omitempty"`
	ReferenceDate date.Date          `yaml:"reference_date,omitempty"`
}

// Tickers returns the tickers in universe order.
func (u *Universe) Tickers() []string {
	tickers := make([]string, 0, len(u.Securities))
	for _, s := range u.Securities {
		tickers = append(tickers, s.Ticker)
	}
	return tickers
}

// TickersWithRole returns the tickers having the given role.
func (u *Universe) TickersWithRole(role string) []string {
	var tickers []string
	for _, s := range u.Securities {
		if s.Role == role {
			tickers = append(tickers, s.Ticker)
		}
	}
	return tickers
}

// Get returns the security with ticker.
func (u *Universe) Get(ticker string) (Security, bool) {
	i := slices.IndexFunc(u.Securities, func(s Security) bool { return s.Ticker == ticker })
	if i < 0 {
		return Security{}, false
	}
	return u.Securities[i], true
}

// Weights returns the non zero weights of the universe.
func (u *Universe) Weights() map[string]float64 {
	w := make(map[string]float64)
	for _, s := range u.Securities {
		if s.Weight != 0 {
			w[s.Ticker] = s.Weight
		}
	}
	return w
}

// HasWeights reports whether any security carries a weight.
func (u *Universe) HasWeights() bool { return len(u.Weights()) > 0 }

// Segments returns the segments in order of first appearance.
func (u *Universe) Segments() []string {
	var segs []string
	for _, s := range u.Securities {
		if s.Segment != "" && !slices.Contains(segs, s.Segment) {
			segs = append(segs, s.Segment)
		}
	}
	return segs
}

// Validate checks that the universe is usable.
func (u *Universe) Validate() error {
	if len(u.Securities) == 0 {
		return fmt.Errorf("universe %q has no securities", u.Name)
	}
	seen := make(map[string]bool)
	for _, s := range u.Securities {
		if s.Ticker == "" {
			return fmt.Errorf("universe %q has a security without ticker", u.Name)
		}
		if seen[s.Ticker] {
			return fmt.Errorf("universe %q lists %s twice", u.Name, s.Ticker)
		}
		seen[s.Ticker] = true
	}
	return nil
}

// ParseUniverse decodes a YAML universe.
func ParseUniverse(data []byte) (*Universe, error) {
	u := new(Universe)
	if err := yaml.Unmarshal(data, u); err != nil {
		return nil, fmt.Errorf("cannot decode universe: %w", err)
	}
	if err := u.Validate(); err != nil {
		return nil, err
	}
	return u, nil
}

// LoadUniverse loads a universe by name. A file <name>.yaml in dir, when dir is not empty,
// overrides the embedded universe of the same name.
func LoadUniverse(name, dir string) (*Universe, error) {
	file := name + ".yaml"
	if dir != "" {
		data, err := os.ReadFile(filepath.Join(dir, file))
		if err == nil {
			u, err := ParseUniverse(data)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", filepath.Join(dir, file), err)
			}
			if u.Name == "" {
				u.Name = name
			}
			return u, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	data, err := universes.ReadFile("universes/" + file)
	if err != nil {
		return nil, fmt.Errorf("unknown universe %q", name)
	}
	u, err := ParseUniverse(data)
	if err != nil {
		return nil, fmt.Errorf("universe %s: %w", name, err)
	}
	if u.Name == "" {
		u.Name = name
	}
	return u, nil
}

// UniverseNames returns the sorted names of the embedded universes and the ones in dir.
func UniverseNames(dir string) []string {
	var names []string
	add := func(file string) {
		if name, ok := strings.CutSuffix(file, ".yaml"); ok && !slices.Contains(names, name) {
			names = append(names, name)
		}
	}
	if entries, err := universes.ReadDir("universes"); err == nil {
		for _, e := range entries {
			add(e.Name())
		}
	}
	if dir != "" {
		if entries, err := os.ReadDir(dir); err == nil {
			for _, e := range entries {
				if !e.IsDir() {
					add(e.Name())
				}
			}
		}
	}
	slices.Sort(names)
	return names
}
