package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/newthinker/rotation/internal/api/response"
	"github.com/newthinker/rotation/internal/backtest"
	"github.com/newthinker/rotation/internal/core"
	"github.com/newthinker/rotation/internal/dataload"
	"github.com/newthinker/rotation/internal/panel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLoader struct {
	set panel.Set
	err error
}

func (l *stubLoader) Load(ctx context.Context) (panel.Set, error) {
	return l.set, l.err
}

type inventoryLoader struct {
	stubLoader
	inv dataload.Inventory
	err error
}

func (l *inventoryLoader) Inventory(ctx context.Context) (dataload.Inventory, error) {
	return l.inv, l.err
}

type recordingObserver struct {
	runs       map[string]int
	rebalances int
	warnings   map[string]int
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{runs: map[string]int{}, warnings: map[string]int{}}
}

func (o *recordingObserver) RecordBacktest(status, direction string, duration float64) {
	o.runs[status+"/"+direction]++
}
func (o *recordingObserver) RecordRebalances(n int) { o.rebalances += n }
func (o *recordingObserver) RecordWarning(code string) {
	o.warnings[code]++
}

// fixtureSet: A gains 10% a day, B is flat, C loses 10% a day, the
// benchmark gains 1% a day. Momentum and alpha both rank A>B>C.
func fixtureSet(t *testing.T, n int) panel.Set {
	t.Helper()
	dates := make([]time.Time, n)
	mom := make([][]float64, n)
	alpha := make([][]float64, n)
	prices := make([][]float64, n)
	a, c, bench := 100.0, 100.0, 1000.0
	for i := range dates {
		dates[i] = time.Date(2024, 1, 1+i, 0, 0, 0, 0, time.UTC)
		mom[i] = []float64{3, 2, 1}
		alpha[i] = []float64{0.9, 0.5, 0.1}
		prices[i] = []float64{a, 100, c, bench}
		a *= 1.10
		c *= 0.90
		bench *= 1.01
	}
	symbols := []string{"A", "B", "C"}

	m, err := panel.New("momentum", dates, symbols, mom)
	require.NoError(t, err)
	al, err := panel.New("alpha", dates, symbols, alpha)
	require.NoError(t, err)
	p, err := panel.New("prices", dates, append(symbols, backtest.DefaultBenchmark), prices)
	require.NoError(t, err)
	return panel.Set{Momentum: m, Alpha: al, Prices: p}
}

func newHandler(t *testing.T, loader PanelLoader, obs RunObserver) *BacktestHandler {
	t.Helper()
	defaults := backtest.DefaultStrategyConfig()
	defaults.TradeFreq = 1
	defaults.TopNMomentum = 1
	return NewBacktestHandler(loader, backtest.New(nil), defaults, obs, nil)
}

func post(h *BacktestHandler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", "/api/v1/backtest", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.Create(w, req)
	return w
}

func TestBacktestHandler_Create(t *testing.T) {
	obs := newRecordingObserver()
	h := newHandler(t, &stubLoader{set: fixtureSet(t, 5)}, obs)

	w := post(h, `{}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Data struct {
			RebalanceDates []string `json:"rebalance_dates"`
			Baskets        []struct {
				Date string   `json:"date"`
				Long []string `json:"long"`
			} `json:"baskets"`
			Portfolio       string   `json:"portfolio_return_pct"`
			PortfolioReturn *float64 `json:"portfolio_return"`
			Benchmark       string   `json:"benchmark_return_pct"`
			Warnings        []struct {
				Code string `json:"code"`
			} `json:"warnings"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.Len(t, resp.Data.RebalanceDates, 5)
	require.Len(t, resp.Data.Baskets, 5)
	assert.Equal(t, []string{"A"}, resp.Data.Baskets[2].Long)
	// the first price row has no prior observation, so the total is NaN
	assert.Equal(t, "n/a", resp.Data.Portfolio)
	assert.Nil(t, resp.Data.PortfolioReturn)
	assert.Equal(t, "4.06%", resp.Data.Benchmark)
	require.Len(t, resp.Data.Warnings, 1)
	assert.Equal(t, "EMPTY_UNIVERSE", resp.Data.Warnings[0].Code)

	assert.Equal(t, 1, obs.runs["ok/long"])
	assert.Equal(t, 5, obs.rebalances)
	assert.Equal(t, 1, obs.warnings["EMPTY_UNIVERSE"])
}

func TestBacktestHandler_CreateFromSecondDate(t *testing.T) {
	h := newHandler(t, &stubLoader{set: fixtureSet(t, 5)}, nil)

	w := post(h, `{"start":"2024-01-02"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Data struct {
			Portfolio string `json:"portfolio_return_pct"`
			Benchmark string `json:"benchmark_return_pct"`
			Warnings  []any  `json:"warnings"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "46.41%", resp.Data.Portfolio)
	assert.Equal(t, "3.03%", resp.Data.Benchmark)
	assert.Empty(t, resp.Data.Warnings)
}

func TestBacktestHandler_CreateShort(t *testing.T) {
	h := newHandler(t, &stubLoader{set: fixtureSet(t, 3)}, nil)

	w := post(h, `{"direction":"Short","start":"2024-01-02","end":"2024-01-03","top_n_momentum":2}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Data struct {
			Config struct {
				Direction string `json:"direction"`
			} `json:"config"`
			Baskets []struct {
				Short []string `json:"short"`
			} `json:"baskets"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "short", resp.Data.Config.Direction)
	require.Len(t, resp.Data.Baskets, 2)
	assert.Equal(t, []string{"C"}, resp.Data.Baskets[0].Short)
}

func TestBacktestHandler_Errors(t *testing.T) {
	tests := []struct {
		name   string
		loader *stubLoader
		body   string
		status int
		code   string
	}{
		{"malformed json", nil, `{"trade_freq":`, http.StatusBadRequest, "CONFIG_INVALID"},
		{"unknown field", nil, `{"tradefreq":3}`, http.StatusBadRequest, "CONFIG_INVALID"},
		{"bad date", nil, `{"start":"02-01-2024"}`, http.StatusBadRequest, "CONFIG_INVALID"},
		{"bad direction", nil, `{"direction":"sideways"}`, http.StatusBadRequest, "CONFIG_INVALID"},
		{"zero trade freq", nil, `{"trade_freq":0}`, http.StatusBadRequest, "CONFIG_INVALID"},
		{"start after end", nil, `{"start":"2024-01-05","end":"2024-01-01"}`, http.StatusBadRequest, "CONFIG_INVALID"},
		{"missing benchmark", nil, `{"benchmark":"SPX"}`, http.StatusUnprocessableEntity, "BENCHMARK_NOT_FOUND"},
		{
			"load failure",
			&stubLoader{err: core.WrapError(core.ErrDataLoad, errors.New("N500_Alpha.csv: no such file"))},
			`{}`, http.StatusInternalServerError, "DATA_LOAD_FAILED",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loader := tt.loader
			if loader == nil {
				loader = &stubLoader{set: fixtureSet(t, 5)}
			}
			obs := newRecordingObserver()
			w := post(newHandler(t, loader, obs), tt.body)

			assert.Equal(t, tt.status, w.Code)
			var resp response.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.code, resp.Error.Code)
		})
	}
}

func TestBacktestRequest_Apply(t *testing.T) {
	freq, top, exclude, filter := 7, 3, 2, true
	req := BacktestRequest{
		Start:            "2024-02-01",
		TradeFreq:        &freq,
		TopNMomentum:     &top,
		TopNAlphaExclude: &exclude,
		UseAlphaFilter:   &filter,
		BenchmarkMode:    "daily",
		Benchmark:        "NIFTY 50",
	}

	cfg, err := req.Apply(backtest.DefaultStrategyConfig())
	require.NoError(t, err)

	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), cfg.StartDate)
	assert.True(t, cfg.EndDate.IsZero())
	assert.Equal(t, 7, cfg.TradeFreq)
	assert.Equal(t, 3, cfg.TopNMomentum)
	assert.Equal(t, 2, cfg.TopNAlphaExclude)
	assert.True(t, cfg.UseAlphaFilter)
	assert.Equal(t, core.DirectionLong, cfg.Direction)
	assert.Equal(t, core.BenchmarkDaily, cfg.BenchmarkMode)
	assert.Equal(t, "NIFTY 50", cfg.BenchmarkSymbol)
}

func TestUniverseHandler_Get(t *testing.T) {
	h := NewUniverseHandler(&stubLoader{set: fixtureSet(t, 4)}, backtest.DefaultBenchmark)

	w := httptest.NewRecorder()
	h.Get(w, httptest.NewRequest("GET", "/api/v1/universe", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data UniverseResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []string{"A", "B", "C"}, resp.Data.Symbols)
	assert.Equal(t, "2024-01-01", resp.Data.Alpha.First)
	assert.Equal(t, "2024-01-04", resp.Data.Alpha.Last)
	assert.Equal(t, 4, resp.Data.Prices.Symbols)
	assert.True(t, resp.Data.BenchmarkLoaded)
	assert.Nil(t, resp.Data.Files, "plain loaders report no file inventory")
}

func TestUniverseHandler_LoadError(t *testing.T) {
	h := NewUniverseHandler(&stubLoader{err: core.WrapError(core.ErrDataLoad, nil)}, backtest.DefaultBenchmark)

	w := httptest.NewRecorder()
	h.Get(w, httptest.NewRequest("GET", "/api/v1/universe", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestUniverseHandler_GetReportsFiles(t *testing.T) {
	loader := &inventoryLoader{
		stubLoader: stubLoader{set: fixtureSet(t, 4)},
		inv: dataload.Inventory{
			Storage: "file:///data",
			Configured: []dataload.FileStatus{
				{Panel: "momentum", Path: "N500_Momentum.csv", Exists: true},
			},
			Available: []string{"N500_Momentum.csv", "old/N500_Prices.parquet"},
		},
	}
	h := NewUniverseHandler(loader, backtest.DefaultBenchmark)

	w := httptest.NewRecorder()
	h.Get(w, httptest.NewRequest("GET", "/api/v1/universe", nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Data UniverseResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Data.Files)
	assert.Equal(t, "file:///data", resp.Data.Files.Storage)
	assert.Equal(t, []string{"N500_Momentum.csv", "old/N500_Prices.parquet"}, resp.Data.Files.Available)
	assert.True(t, resp.Data.Files.Configured[0].Exists)
}

func TestUniverseHandler_InventoryError(t *testing.T) {
	loader := &inventoryLoader{
		stubLoader: stubLoader{set: fixtureSet(t, 4)},
		err:        core.WrapError(core.ErrDataLoad, errors.New("access denied")),
	}
	h := NewUniverseHandler(loader, backtest.DefaultBenchmark)

	w := httptest.NewRecorder()
	h.Get(w, httptest.NewRequest("GET", "/api/v1/universe", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
