package renderer

import (
	"fmt"
	"math"
	"slices"
	"strings"
	"text/template"

	"github.com/etnz/research"
	"github.com/shopspring/decimal"
)

// funcs are the formatting helpers available to every template.
//
// pct and spct take fractions (0.05 is 5%), pp and spp take values already in percent.
var funcs = template.FuncMap{
	"pct":    func(x float64) string { return research.Percent(x * 100).String() },
	"spct":   func(x float64) string { return signed(x * 100) },
	"pp":     func(x float64) string { return research.Percent(x).String() },
	"spp":    signed,
	"money":  dollars,
	"smoney": signedMoney,
	"price":  price,
	"inr":    func(d decimal.Decimal) string { return research.M(d, "INR").String() },
	"f2":     func(x float64) string { return number("%.2f", x) },
	"f4":     func(x float64) string { return number("%.4f", x) },
	"days":   days,
	"join":   strings.Join,
	"inc":    func(i int) int { return i + 1 },
	"mul":    func(a, b float64) float64 { return a * b },
	"cell":   cell,
}

// signed formats a percentage with its sign. Unlike Percent.SignedString, 0 is "+0.00%".
func signed(x float64) string { return number("%+.2f%%", x) }

// number formats x, NaN are rendered as "n/a".
func number(format string, x float64) string {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return "n/a"
	}
	return fmt.Sprintf(format, x)
}

// dollars formats whole dollars, like $60,000.
func dollars(x float64) string {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return "n/a"
	}
	return strings.TrimSuffix(research.USD(math.Round(x)).String(), ".00")
}

// price formats dollars and cents.
func price(x float64) string {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return "n/a"
	}
	return research.USD(x).String()
}

// signedMoney formats an amount with its sign and currency, 0 is "-". Amounts without a
// currency keep two decimals.
func signedMoney(x float64, currency string) string {
	if currency == "" {
		return number("%+.2f", x)
	}
	return research.M(x, currency).SignedString()
}

// days formats a duration in trading days.
func days(v any) string {
	switch x := v.(type) {
	case int:
		return fmt.Sprintf("%dd", x)
	case float64:
		return number("%.0fd", x)
	default:
		return fmt.Sprint(v)
	}
}

// cell escapes the pipes of free text written in a table cell.
func cell(s string) string { return strings.ReplaceAll(s, "|", `\|`) }

// matrixRow is a line of the correlation matrix table.
type matrixRow struct {
	Ticker string
	Values []float64
}

// weightRow compares the weight of a ticker in two portfolios, as fractions.
type weightRow struct {
	Ticker   string
	Current  float64
	Proposed float64
}

// correlationView flattens the maps and the matrix of a CorrelationReport for the template.
type correlationView struct {
	*research.CorrelationReport
	Rows    []matrixRow
	Weights []weightRow
}

func newCorrelationView(r *research.CorrelationReport) correlationView {
	v := correlationView{CorrelationReport: r}
	if r.Matrix != nil {
		for _, t := range r.Matrix.Tickers {
			v.Rows = append(v.Rows, matrixRow{Ticker: t, Values: r.Matrix.Row(t)})
		}
	}
	var tickers []string
	for t := range r.Current {
		tickers = append(tickers, t)
	}
	for t := range r.Proposed {
		if _, ok := r.Current[t]; !ok {
			tickers = append(tickers, t)
		}
	}
	slices.Sort(tickers)
	for _, t := range tickers {
		v.Weights = append(v.Weights, weightRow{Ticker: t, Current: r.Current[t], Proposed: r.Proposed[t]})
	}
	return v
}
