package backtest

import (
	"cmp"
	"math"
	"slices"
	"time"

	"github.com/newthinker/rotation/internal/panel"
)

// RebalanceDates returns every freq-th date of dates starting with the first.
func RebalanceDates(dates []time.Time, freq int) []time.Time {
	if freq < 1 {
		freq = 1
	}
	out := make([]time.Time, 0, (len(dates)+freq-1)/freq)
	for i := 0; i < len(dates); i += freq {
		out = append(out, dates[i])
	}
	return out
}

// topN returns up to n of the candidate columns with the largest values in
// row, largest first. NaN values never rank. Equal values keep candidate
// order, so the column appearing first in the panel header wins a tie.
func topN(row []float64, candidates []int, n int) []int {
	if n <= 0 {
		return nil
	}
	ranked := make([]int, 0, len(candidates))
	for _, j := range candidates {
		if !math.IsNaN(row[j]) {
			ranked = append(ranked, j)
		}
	}
	slices.SortStableFunc(ranked, func(a, b int) int {
		return cmp.Compare(row[b], row[a])
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// without returns the columns of from not present in drop, preserving order.
func without(from, drop []int) []int {
	skip := make(map[int]struct{}, len(drop))
	for _, j := range drop {
		skip[j] = struct{}{}
	}
	out := make([]int, 0, len(from))
	for _, j := range from {
		if _, ok := skip[j]; !ok {
			out = append(out, j)
		}
	}
	return out
}

func names(symbols []string, cols []int) []string {
	out := make([]string, len(cols))
	for i, j := range cols {
		out[i] = symbols[j]
	}
	return out
}

// SelectBasket applies the exclusion and momentum rules on date d. Both
// panels must share the same columns. It reports false when d is not in the
// alpha index; a date missing from momentum ranks nothing long.
func SelectBasket(alpha, momentum *panel.Panel, d time.Time, cfg StrategyConfig) (Basket, bool) {
	i, ok := alpha.DateIndex(d)
	if !ok {
		return Basket{}, false
	}

	all := make([]int, len(alpha.Symbols))
	for j := range all {
		all[j] = j
	}

	universe := all
	if cfg.UseAlphaFilter {
		excluded := topN(alpha.Values[i], all, cfg.TopNAlphaExclude)
		universe = without(all, excluded)
	}

	var long []int
	if k, ok := momentum.DateIndex(d); ok {
		long = topN(momentum.Values[k], universe, cfg.TopNMomentum)
	}
	short := without(universe, long)

	return Basket{
		Date:     alpha.Dates[i],
		Universe: names(alpha.Symbols, universe),
		Long:     names(alpha.Symbols, long),
		Short:    names(alpha.Symbols, short),
	}, true
}
