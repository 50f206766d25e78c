package main

import (
	"fmt"

	"github.com/newthinker/rotation/internal/backtest"
	"github.com/newthinker/rotation/internal/config"
	"github.com/newthinker/rotation/internal/core"
	"github.com/newthinker/rotation/internal/dataload"
	"github.com/spf13/cobra"
)

// strategyFlags mirror the strategy parameters; only flags set on the
// command line override the config file.
type strategyFlags struct {
	from          string
	to            string
	tradeFreq     int
	exclude       int
	alphaFilter   bool
	top           int
	direction     string
	benchmark     string
	benchmarkMode string
	dataDir       string
}

func (f *strategyFlags) bind(cmd *cobra.Command) {
	defaults := backtest.DefaultStrategyConfig()

	fs := cmd.Flags()
	fs.StringVar(&f.from, "from", "", "start date (default: first alpha date)")
	fs.StringVar(&f.to, "to", "", "end date (default: last alpha date)")
	fs.IntVar(&f.tradeFreq, "trade-freq", defaults.TradeFreq, "rebalance every N trading days")
	fs.IntVar(&f.exclude, "exclude", defaults.TopNAlphaExclude, "top N alpha stocks to exclude")
	fs.BoolVar(&f.alphaFilter, "alpha-filter", defaults.UseAlphaFilter, "apply the alpha exclusion")
	fs.IntVar(&f.top, "top", defaults.TopNMomentum, "top N momentum stocks held long")
	fs.StringVar(&f.direction, "direction", string(defaults.Direction), "performance to report: long or short")
	fs.StringVar(&f.benchmark, "benchmark", defaults.BenchmarkSymbol, "benchmark price column")
	fs.StringVar(&f.benchmarkMode, "benchmark-mode", string(defaults.BenchmarkMode), "benchmark granularity: rebalance or daily")
	fs.StringVar(&f.dataDir, "data-dir", "", "read panels from this local directory")
}

// apply overlays the changed flags onto the config file.
func (f *strategyFlags) apply(cmd *cobra.Command, cfg *config.Config) (backtest.StrategyConfig, error) {
	fs := cmd.Flags()
	if fs.Changed("data-dir") {
		cfg.Data.Source = "localfs"
		cfg.Data.Dir = f.dataDir
	}

	strategy, err := cfg.Strategy.Backtest()
	if err != nil {
		return strategy, err
	}

	if fs.Changed("from") {
		if strategy.StartDate, err = dataload.ParseDate(f.from); err != nil {
			return strategy, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("--from: %w", err))
		}
	}
	if fs.Changed("to") {
		if strategy.EndDate, err = dataload.ParseDate(f.to); err != nil {
			return strategy, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("--to: %w", err))
		}
	}
	if fs.Changed("trade-freq") {
		strategy.TradeFreq = f.tradeFreq
	}
	if fs.Changed("exclude") {
		strategy.TopNAlphaExclude = f.exclude
	}
	if fs.Changed("alpha-filter") {
		strategy.UseAlphaFilter = f.alphaFilter
	}
	if fs.Changed("top") {
		strategy.TopNMomentum = f.top
	}
	if fs.Changed("direction") {
		if strategy.Direction, err = core.ParseDirection(f.direction); err != nil {
			return strategy, err
		}
	}
	if fs.Changed("benchmark") {
		strategy.BenchmarkSymbol = f.benchmark
	}
	if fs.Changed("benchmark-mode") {
		if strategy.BenchmarkMode, err = core.ParseBenchmarkMode(f.benchmarkMode); err != nil {
			return strategy, err
		}
	}
	return strategy, nil
}
