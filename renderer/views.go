package renderer

import (
	"github.com/etnz/research"
	"github.com/etnz/research/date"
	"github.com/etnz/research/eodhd"
	"github.com/etnz/research/ibkr"
	"github.com/etnz/research/mfapi"
	"github.com/etnz/research/yahoo"
)

type historyRow struct {
	Date     date.Date
	Close    float64
	Dividend float64
}

type dividendRow struct {
	Date   date.Date
	Amount float64
}

type historyView struct {
	Ticker    string
	From, To  date.Date
	Total     int
	Rows      []historyRow
	Dividends []dividendRow
	Splits    []eodhd.Split
}

// RenderBars renders the last closes of b, with every dividend and the optional splits. last <= 0
// renders every close.
func RenderBars(b *research.Bars, last int, splits ...eodhd.Split) string {
	v := historyView{Ticker: b.Ticker, Total: b.Close.Len(), Splits: splits}
	for day, c := range b.Close.Values() {
		d, _ := b.Dividends.Get(day)
		v.Rows = append(v.Rows, historyRow{Date: day, Close: c, Dividend: d})
	}
	if last > 0 && len(v.Rows) > last {
		v.Rows = v.Rows[len(v.Rows)-last:]
	}
	if len(v.Rows) > 0 {
		v.From, v.To = v.Rows[0].Date, v.Rows[len(v.Rows)-1].Date
	}
	for day, d := range b.Dividends.Values() {
		v.Dividends = append(v.Dividends, dividendRow{day, d})
	}
	return render(historySet, v)
}

type schemeView struct {
	Meta   mfapi.Meta
	Latest *mfapi.NAV
	Data   []mfapi.NAV
}

// RenderScheme renders a mutual fund scheme with its latest NAV and the last NAVs of its
// history, newest first. last <= 0 renders the latest NAV only.
func RenderScheme(s *mfapi.Scheme, last int) string {
	v := schemeView{Meta: s.Meta}
	if len(s.Data) > 0 {
		v.Latest = &s.Data[0]
	}
	if last > 0 {
		v.Data = s.Data[:min(last, len(s.Data))]
	}
	return render(schemeSet, v)
}

// RenderFunds renders a list of schemes, truncated to limit entries when limit > 0.
func RenderFunds(title string, funds []mfapi.Fund, limit int) string {
	v := struct {
		Title string
		Funds []mfapi.Fund
		More  int
	}{Title: title, Funds: funds}
	if limit > 0 && len(funds) > limit {
		v.Funds, v.More = funds[:limit], len(funds)-limit
	}
	return render(fundsSet, v)
}

// RenderSearch renders EODHD search results.
func RenderSearch(term string, results []eodhd.SearchResult) string {
	return render(searchSet, struct {
		Term    string
		Results []eodhd.SearchResult
	}{term, results})
}

// RenderQuotes renders Yahoo quotes.
func RenderQuotes(quotes []yahoo.Quote) string { return render(quotesSet, quotes) }

// RenderAccount renders the summary values and the positions of a brokerage account, either
// can be empty.
func RenderAccount(account string, values []ibkr.Value, positions []ibkr.Position) string {
	v := struct {
		Account       string
		Values        []ibkr.Value
		Positions     []ibkr.Position
		MarketValue   float64
		UnrealizedPnL float64
	}{Account: account, Values: values, Positions: positions}
	for _, p := range positions {
		v.MarketValue += p.MarketValue
		v.UnrealizedPnL += p.UnrealizedPnL
	}
	return render(accountSet, v)
}

// RenderBrokerQuote renders a market data snapshot from the broker.
func RenderBrokerQuote(q ibkr.Quote) string { return render(brokerQuoteSet, q) }

// RenderUniverse renders the securities and the parameters of a universe.
func RenderUniverse(u *research.Universe) string { return render(universeSet, u) }

// RenderUniverses renders a one line summary per universe.
func RenderUniverses(universes []*research.Universe) string { return render(universesSet, universes) }
