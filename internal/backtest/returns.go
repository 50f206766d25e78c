package backtest

import (
	"math"
	"time"

	"github.com/newthinker/rotation/internal/core"
	"github.com/newthinker/rotation/internal/panel"
	"gonum.org/v1/gonum/stat"
)

// basketReturn averages the single-period price change of symbols on row i,
// skipping symbols without a change. The second value is the number of
// symbols that contributed; zero means the result is NaN.
func basketReturn(prices *panel.Panel, i int, symbols []string) (float64, int) {
	changes := make([]float64, 0, len(symbols))
	for _, s := range symbols {
		if c := prices.PctChange(i, s); !math.IsNaN(c) {
			changes = append(changes, c)
		}
	}
	if len(changes) == 0 {
		return math.NaN(), 0
	}
	return stat.Mean(changes, nil), len(changes)
}

// benchmarkReturns computes the benchmark column for the given rebalance
// dates. In rebalance mode each value is the change since the previous
// rebalance date; in daily mode it is the change since the previous row of
// the date-filtered prices. Missing values and the first date default to 0.
func benchmarkReturns(a *Aligned, symbol string, mode core.BenchmarkMode, dates []time.Time) []float64 {
	out := make([]float64, len(dates))
	if mode == core.BenchmarkDaily {
		for k, d := range dates {
			if i, ok := a.Prices.DateIndex(d); ok {
				out[k] = zeroIfNaN(a.Prices.PctChange(i, symbol))
			}
		}
		return out
	}

	for k := 1; k < len(dates); k++ {
		prev, okPrev := a.FullPrices.DateIndex(dates[k-1])
		cur, okCur := a.FullPrices.DateIndex(dates[k])
		if !okPrev || !okCur {
			continue
		}
		out[k] = zeroIfNaN(a.FullPrices.At(cur, symbol)/a.FullPrices.At(prev, symbol) - 1)
	}
	return out
}

func zeroIfNaN(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// Compound turns per-period returns into an index based at 100. The first
// return multiplies into the product; NaN propagates to every later row.
func Compound(returns []Row) []Row {
	out := make([]Row, len(returns))
	port, bench := 100.0, 100.0
	for k, r := range returns {
		port *= 1 + r.Portfolio
		bench *= 1 + r.Benchmark
		out[k] = Row{Date: r.Date, Portfolio: port, Benchmark: bench}
	}
	return out
}
