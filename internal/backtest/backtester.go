package backtest

import (
	"context"
	"fmt"
	"math"

	"github.com/newthinker/rotation/internal/core"
	"github.com/newthinker/rotation/internal/panel"
	"go.uber.org/zap"
)

// Backtester runs basket-rotation backtests. It holds no state between runs,
// so a single instance can serve concurrent callers.
type Backtester struct {
	logger *zap.Logger
}

// New creates a new Backtester. A nil logger discards output.
func New(logger *zap.Logger) *Backtester {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Backtester{logger: logger}
}

// Run aligns the panels, selects a basket on every rebalance date and
// aggregates the held basket's returns against the benchmark.
func (b *Backtester) Run(ctx context.Context, set panel.Set, cfg StrategyConfig) (*Result, error) {
	if set.Alpha == nil {
		return nil, core.WrapError(core.ErrDataLoad, fmt.Errorf("alpha panel is required"))
	}

	cfg = cfg.withDefaults(set.Alpha)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if set.Prices == nil || !set.Prices.Has(cfg.BenchmarkSymbol) {
		return nil, core.WrapError(core.ErrBenchmarkNotFound, fmt.Errorf("column %q", cfg.BenchmarkSymbol))
	}

	aligned, err := Align(set, cfg.BenchmarkSymbol, cfg.StartDate, cfg.EndDate)
	if err != nil {
		return nil, err
	}

	result := &Result{Config: cfg}
	dates := RebalanceDates(aligned.Alpha.Dates, cfg.TradeFreq)

	for _, d := range dates {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		basket, ok := SelectBasket(aligned.Alpha, aligned.Momentum, d, cfg)
		if !ok {
			b.logger.Warn("rebalance date missing from alpha index, skipping", zap.Time("date", d))
			continue
		}

		held := basket.Held(cfg.Direction)
		ret := math.NaN()
		switch i, found := aligned.FullPrices.DateIndex(d); {
		case len(held) == 0:
			result.Warnings = append(result.Warnings, Warning{
				Date:    d,
				Code:    core.ErrEmptyUniverse.Code,
				Message: fmt.Sprintf("%s basket is empty", cfg.Direction),
			})
			b.logger.Warn("empty basket",
				zap.Time("date", d),
				zap.String("direction", string(cfg.Direction)),
				zap.Int("universe", len(basket.Universe)),
			)
		case !found:
			// FullPrices shares the alpha dates, so this only trips on a
			// malformed Aligned value.
			b.logger.Warn("rebalance date missing from prices", zap.Time("date", d))
		default:
			mean, n := basketReturn(aligned.FullPrices, i, held)
			if n == 0 {
				// No prior observation for any held symbol, as on the first
				// date of the price history. The return stays NaN.
				result.Warnings = append(result.Warnings, Warning{
					Date:    d,
					Code:    core.ErrEmptyUniverse.Code,
					Message: fmt.Sprintf("no price change for any of %d held symbols", len(held)),
				})
				b.logger.Warn("no price change for held basket",
					zap.Time("date", d),
					zap.Int("held", len(held)),
				)
				break
			}
			ret = cfg.Direction.Sign() * mean
		}

		b.logger.Debug("basket selected",
			zap.Time("date", d),
			zap.Strings("long", basket.Long),
			zap.Int("short", len(basket.Short)),
			zap.Float64("return", ret),
		)

		result.RebalanceDates = append(result.RebalanceDates, d)
		result.Baskets = append(result.Baskets, basket)
		result.Returns = append(result.Returns, Row{Date: d, Portfolio: ret})
	}

	bench := benchmarkReturns(aligned, cfg.BenchmarkSymbol, cfg.BenchmarkMode, result.RebalanceDates)
	for k := range result.Returns {
		result.Returns[k].Benchmark = bench[k]
	}

	result.Cumulative = Compound(result.Returns)
	result.PortfolioReturn, result.BenchmarkReturn = TotalReturns(result.Cumulative)

	b.logger.Info("backtest complete",
		zap.Time("start", cfg.StartDate),
		zap.Time("end", cfg.EndDate),
		zap.Int("rebalances", len(result.RebalanceDates)),
		zap.Int("warnings", len(result.Warnings)),
		zap.String("portfolio_return", FormatPercent(result.PortfolioReturn)),
		zap.String("benchmark_return", FormatPercent(result.BenchmarkReturn)),
	)

	return result, nil
}
