// Package renderer turns research reports into markdown documents.
//
// Each report is a main template plus named partials, all embedded from templates/. The
// markdown is meant to be displayed with glamour and saved as is.
package renderer

import (
	"embed"
	"fmt"
	"io/fs"
	"strings"
	"text/template"

	"github.com/etnz/research"
)

//go:embed templates/*.md
var templates embed.FS

// templateSet is a main template and the partials it depends on, aliased by name.
type templateSet struct {
	name     string
	main     string
	partials map[string]string
}

// with returns a copy of the set with a partial replaced. An empty file name results in an
// empty template.
func (s templateSet) with(name, file string) templateSet {
	partials := make(map[string]string, len(s.partials))
	for k, v := range s.partials {
		partials[k] = v
	}
	partials[name] = file
	s.partials = partials
	return s
}

var (
	allocationSet = templateSet{"allocation", "allocation.md", map[string]string{
		"allocation_momentum":  "allocation_momentum.md",
		"allocation_drawdown":  "allocation_drawdown.md",
		"allocation_positions": "allocation_positions.md",
		"allocation_dca":       "allocation_dca.md",
		"allocation_metrics":   "allocation_metrics.md",
		"skipped":              "skipped.md",
	}}
	topNSet = templateSet{"topn", "topn.md", map[string]string{
		"skipped": "skipped.md",
	}}
	simulationSet = templateSet{"simulation", "simulation.md", map[string]string{
		"simulation_pain":         "simulation_pain.md",
		"simulation_distribution": "simulation_distribution.md",
		"simulation_summary":      "simulation_summary.md",
		"skipped":                 "skipped.md",
	}}
	correlationSet = templateSet{"correlation", "correlation.md", map[string]string{
		"correlation_matrix": "correlation_matrix.md",
		"skipped":            "skipped.md",
	}}
	screenSet = templateSet{"screen", "screen.md", map[string]string{
		"screen_rows":      "screen_rows.md",
		"screen_buckets":   "screen_buckets.md",
		"screen_scenarios": "screen_scenarios.md",
		"screen_index":     "",
		"skipped":          "skipped.md",
	}}
	stateSet = templateSet{"state", "state.md", map[string]string{
		"skipped": "skipped.md",
	}}
	historySet     = templateSet{"history", "history.md", nil}
	schemeSet      = templateSet{"scheme", "scheme.md", nil}
	fundsSet       = templateSet{"funds", "funds.md", nil}
	searchSet      = templateSet{"search", "search.md", nil}
	quotesSet      = templateSet{"quotes", "quotes.md", nil}
	accountSet     = templateSet{"account", "account.md", nil}
	brokerQuoteSet = templateSet{"broker_quote", "broker_quote.md", nil}
	universeSet    = templateSet{"universe", "universe.md", nil}
	universesSet   = templateSet{"universes", "universes.md", nil}
)

// sets lists every template set, for tests.
var sets = []templateSet{
	allocationSet, topNSet, simulationSet, correlationSet, screenSet.with("screen_index", "screen_index.md"), stateSet,
	historySet, schemeSet, fundsSet, searchSet, quotesSet, accountSet, brokerQuoteSet, universeSet, universesSet,
}

// RenderAllocation renders the score weighted allocation. Quiet reports skip the momentum and
// drawdown tables.
func RenderAllocation(r *research.AllocationReport) string {
	set := allocationSet
	if r.Quiet {
		set = set.with("allocation_momentum", "").with("allocation_drawdown", "")
	}
	return render(set, r)
}

// RenderTopN renders the top-N skip-momentum allocation.
func RenderTopN(r *research.TopNReport) string { return render(topNSet, r) }

// RenderSimulation renders the Monte Carlo simulation of a portfolio.
func RenderSimulation(r *research.SimulationReport) string { return render(simulationSet, r) }

// RenderCorrelation renders the correlation analysis.
func RenderCorrelation(r *research.CorrelationReport) string {
	return render(correlationSet, newCorrelationView(r))
}

// RenderScreen renders a yield and momentum screen, with the index comparison when there is
// one.
func RenderScreen(r *research.ScreenReport) string {
	set := screenSet
	if r.Index != nil {
		set = set.with("screen_index", "screen_index.md")
	}
	return render(set, r)
}

// RenderState renders the state of holdings and the alerts.
func RenderState(r *research.StateReport) string { return render(stateSet, r) }

// render executes a template set and returns the markdown, or the error message in its place.
func render(set templateSet, data any) string {
	out, err := renderTemplate(set.name, set.main, set.partials, data)
	if err != nil {
		return err.Error()
	}
	return out
}

// renderTemplate is a generic utility to render a main template that depends on several partials.
func renderTemplate(templateName, mainFile string, partials map[string]string, data any) (string, error) {
	mainContent, err := fs.ReadFile(templates, "templates/"+mainFile)
	if err != nil {
		return "", fmt.Errorf("error reading main template %q: %w", mainFile, err)
	}

	tmpl, err := template.New(templateName).Funcs(funcs).Parse(string(mainContent))
	if err != nil {
		return "", fmt.Errorf("error parsing main template %q: %w", mainFile, err)
	}

	for name, file := range partials {
		var content []byte
		// An empty file name is a valid case, resulting in an empty template.
		if file != "" {
			content, err = fs.ReadFile(templates, "templates/"+file)
			if err != nil {
				return "", fmt.Errorf("error reading partial template %q: %w", file, err)
			}
		}
		if _, err := tmpl.New(name).Parse(string(content)); err != nil {
			return "", fmt.Errorf("error parsing partial template %q for %q: %w", file, name, err)
		}
	}

	var b strings.Builder
	if err := tmpl.ExecuteTemplate(&b, templateName, data); err != nil {
		return "", fmt.Errorf("error executing template %q: %w", templateName, err)
	}
	return b.String(), nil
}
