// Package api holds the JSON handlers of the /api/v1 routes.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/newthinker/rotation/internal/api/response"
	"github.com/newthinker/rotation/internal/backtest"
	"github.com/newthinker/rotation/internal/core"
	"github.com/newthinker/rotation/internal/panel"
	"go.uber.org/zap"
)

const backtestTimeout = 2 * time.Minute

// PanelLoader supplies the input panels of a run.
type PanelLoader interface {
	Load(ctx context.Context) (panel.Set, error)
}

// RunObserver is notified of finished runs, e.g. to export metrics.
type RunObserver interface {
	RecordBacktest(status, direction string, duration float64)
	RecordRebalances(n int)
	RecordWarning(code string)
}

// BacktestRequest is the request body for running a backtest. Omitted fields
// take the server's configured defaults.
type BacktestRequest struct {
	Start            string `json:"start,omitempty"`
	End              string `json:"end,omitempty"`
	TradeFreq        *int   `json:"trade_freq,omitempty"`
	TopNAlphaExclude *int   `json:"top_n_alpha_exclude,omitempty"`
	UseAlphaFilter   *bool  `json:"use_alpha_filter,omitempty"`
	TopNMomentum     *int   `json:"top_n_momentum,omitempty"`
	Direction        string `json:"direction,omitempty"`
	BenchmarkMode    string `json:"benchmark_mode,omitempty"`
	Benchmark        string `json:"benchmark,omitempty"`
}

// Apply overlays the request onto base.
func (req BacktestRequest) Apply(base backtest.StrategyConfig) (backtest.StrategyConfig, error) {
	cfg := base
	var err error

	if req.Start != "" {
		if cfg.StartDate, err = time.Parse(time.DateOnly, req.Start); err != nil {
			return cfg, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("start: %w", err))
		}
	}
	if req.End != "" {
		if cfg.EndDate, err = time.Parse(time.DateOnly, req.End); err != nil {
			return cfg, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("end: %w", err))
		}
	}
	if req.TradeFreq != nil {
		cfg.TradeFreq = *req.TradeFreq
	}
	if req.TopNAlphaExclude != nil {
		cfg.TopNAlphaExclude = *req.TopNAlphaExclude
	}
	if req.UseAlphaFilter != nil {
		cfg.UseAlphaFilter = *req.UseAlphaFilter
	}
	if req.TopNMomentum != nil {
		cfg.TopNMomentum = *req.TopNMomentum
	}
	if req.Direction != "" {
		if cfg.Direction, err = core.ParseDirection(req.Direction); err != nil {
			return cfg, err
		}
	}
	if req.BenchmarkMode != "" {
		if cfg.BenchmarkMode, err = core.ParseBenchmarkMode(req.BenchmarkMode); err != nil {
			return cfg, err
		}
	}
	if req.Benchmark != "" {
		cfg.BenchmarkSymbol = req.Benchmark
	}
	return cfg, nil
}

// BacktestHandler runs backtests synchronously and returns the full result.
type BacktestHandler struct {
	loader     PanelLoader
	backtester *backtest.Backtester
	defaults   backtest.StrategyConfig
	observer   RunObserver
	logger     *zap.Logger
}

// NewBacktestHandler creates a new backtest handler. observer may be nil.
func NewBacktestHandler(
	loader PanelLoader,
	backtester *backtest.Backtester,
	defaults backtest.StrategyConfig,
	observer RunObserver,
	logger *zap.Logger,
) *BacktestHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BacktestHandler{
		loader:     loader,
		backtester: backtester,
		defaults:   defaults,
		observer:   observer,
		logger:     logger,
	}
}

// Create runs a backtest for the posted parameters.
func (h *BacktestHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req BacktestRequest
	if r.ContentLength != 0 {
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, core.WrapError(core.ErrConfigInvalid, err))
			return
		}
	}

	cfg, err := req.Apply(h.defaults)
	if err != nil {
		response.Fail(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), backtestTimeout)
	defer cancel()

	set, err := h.loader.Load(ctx)
	if err != nil {
		h.logger.Error("loading panels", zap.Error(err))
		h.record("error", cfg, 0, nil)
		response.Fail(w, err)
		return
	}

	start := time.Now()
	result, err := h.backtester.Run(ctx, set, cfg)
	elapsed := time.Since(start).Seconds()
	if err != nil {
		h.logger.Warn("backtest failed", zap.Error(err))
		h.record("error", cfg, elapsed, nil)
		response.Fail(w, err)
		return
	}

	h.record("ok", cfg, elapsed, result)
	response.JSON(w, http.StatusOK, result)
}

func (h *BacktestHandler) record(status string, cfg backtest.StrategyConfig, elapsed float64, result *backtest.Result) {
	if h.observer == nil {
		return
	}
	h.observer.RecordBacktest(status, string(cfg.Direction), elapsed)
	if result == nil {
		return
	}
	h.observer.RecordRebalances(len(result.RebalanceDates))
	for _, w := range result.Warnings {
		h.observer.RecordWarning(w.Code)
	}
}
