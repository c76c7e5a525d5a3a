// Package research provides the building blocks of momentum and dividend research on a
// personal portfolio.
//
// The core functionalities include:
//   - Series: total return indexes built from closing prices and reinvested dividends, and
//     frames of aligned daily series.
//   - Statistics: momentum, downside volatility, drawdowns, correlations and portfolio
//     performance.
//   - Allocation: score weighted allocations under position and sector constraints, top-N
//     skip-momentum allocations, and weekly DCA plans.
//   - Risk: Monte Carlo simulations of a portfolio over a short horizon.
//   - Screens: yield and momentum screens of dividend payers, and ETF versus constituents
//     comparisons.
//   - State: current prices of holdings against reference prices, with alerts.
//
// Market data comes from a Provider. The universes of securities ship embedded as YAML
// documents and can be overridden from a directory.
//
// This package serves as the foundational logic for the `prs` command-line tool.
package research
