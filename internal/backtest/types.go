package backtest

import (
	"encoding/json"
	"math"
	"time"

	"github.com/newthinker/rotation/internal/core"
)

// DefaultBenchmark is the price column used as the passive comparator.
const DefaultBenchmark = "NIFTY 500"

// StrategyConfig is the parameter bundle of a single run. Zero StartDate or
// EndDate fall back to the first or last alpha date.
type StrategyConfig struct {
	StartDate        time.Time          `json:"start_date"`
	EndDate          time.Time          `json:"end_date"`
	TradeFreq        int                `json:"trade_freq" validate:"min=1"`
	TopNAlphaExclude int                `json:"top_n_alpha_exclude" validate:"min=0"`
	UseAlphaFilter   bool               `json:"use_alpha_filter"`
	TopNMomentum     int                `json:"top_n_momentum" validate:"min=1"`
	Direction        core.Direction     `json:"direction" validate:"oneof=long short"`
	BenchmarkMode    core.BenchmarkMode `json:"benchmark_mode" validate:"oneof=rebalance daily"`
	BenchmarkSymbol  string             `json:"benchmark_symbol" validate:"required"`
}

// Basket is the selection made on one rebalance date. Long is ordered by
// descending momentum; Universe and Short follow the panel column order.
type Basket struct {
	Date     time.Time `json:"date"`
	Universe []string  `json:"universe"`
	Long     []string  `json:"long"`
	Short    []string  `json:"short"`
}

// Held returns the basket tracked for the given direction.
func (b Basket) Held(d core.Direction) []string {
	if d == core.DirectionShort {
		return b.Short
	}
	return b.Long
}

// Row is one rebalance date of a return or cumulative series. Portfolio may
// be NaN when the held basket was empty.
type Row struct {
	Date      time.Time
	Portfolio float64
	Benchmark float64
}

// MarshalJSON encodes NaN values as null.
func (r Row) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Date      string   `json:"date"`
		Portfolio *float64 `json:"portfolio"`
		Benchmark *float64 `json:"benchmark"`
	}{
		Date:      r.Date.Format(time.DateOnly),
		Portfolio: finite(r.Portfolio),
		Benchmark: finite(r.Benchmark),
	})
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// Warning records a per-date anomaly that degraded a single row.
type Warning struct {
	Date    time.Time `json:"date"`
	Code    string    `json:"code"`
	Message string    `json:"message"`
}

// Result holds the complete backtest output
type Result struct {
	Config         StrategyConfig `json:"config"`
	RebalanceDates []time.Time    `json:"rebalance_dates"`
	Baskets        []Basket       `json:"baskets"`
	Returns        []Row          `json:"returns"`
	Cumulative     []Row          `json:"cumulative"`
	Warnings       []Warning      `json:"warnings,omitempty"`

	PortfolioReturn float64 `json:"-"`
	BenchmarkReturn float64 `json:"-"`
}

// Basket returns the basket selected on date d.
func (r *Result) Basket(d time.Time) (Basket, bool) {
	for _, b := range r.Baskets {
		if b.Date.Equal(d) {
			return b, true
		}
	}
	return Basket{}, false
}

// MarshalJSON adds the formatted total returns.
func (r *Result) MarshalJSON() ([]byte, error) {
	type plain Result
	return json.Marshal(struct {
		*plain
		PortfolioReturn *float64 `json:"portfolio_return"`
		BenchmarkReturn *float64 `json:"benchmark_return"`
		Portfolio       string   `json:"portfolio_return_pct"`
		Benchmark       string   `json:"benchmark_return_pct"`
	}{
		plain:           (*plain)(r),
		PortfolioReturn: finite(r.PortfolioReturn),
		BenchmarkReturn: finite(r.BenchmarkReturn),
		Portfolio:       FormatPercent(r.PortfolioReturn),
		Benchmark:       FormatPercent(r.BenchmarkReturn),
	})
}
