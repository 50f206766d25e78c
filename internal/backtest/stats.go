package backtest

import (
	"fmt"
	"math"
)

// TotalReturns reads the final portfolio and benchmark returns off a
// cumulative series. An empty series has zero return.
func TotalReturns(cumulative []Row) (portfolio, benchmark float64) {
	if len(cumulative) == 0 {
		return 0, 0
	}
	last := cumulative[len(cumulative)-1]
	return last.Portfolio/100 - 1, last.Benchmark/100 - 1
}

// FormatPercent renders a fractional return as "12.34%".
func FormatPercent(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return fmt.Sprintf("%.2f%%", v*100)
}
