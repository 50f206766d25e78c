package api

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/newthinker/rotation/internal/backtest"
	"github.com/newthinker/rotation/internal/metrics"
	"github.com/newthinker/rotation/internal/panel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixedLoader struct{ set panel.Set }

func (l fixedLoader) Load(ctx context.Context) (panel.Set, error) { return l.set, nil }

func fixtureSet(t *testing.T) panel.Set {
	t.Helper()
	dates := []time.Time{
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC),
	}
	m, err := panel.New("momentum", dates, []string{"A", "B"}, [][]float64{{2, 1}, {2, 1}, {1, 2}})
	require.NoError(t, err)
	a, err := panel.New("alpha", dates, []string{"A", "B"}, [][]float64{{1, 1}, {1, 1}, {1, 1}})
	require.NoError(t, err)
	p, err := panel.New("prices", dates, []string{"A", "B", backtest.DefaultBenchmark},
		[][]float64{{10, 20, 100}, {11, 19, 101}, {12, 18, 102}})
	require.NoError(t, err)
	return panel.Set{Momentum: m, Alpha: a, Prices: p}
}

func newTestServer(t *testing.T, cfg Config, reg *metrics.Registry) *Server {
	t.Helper()
	defaults := backtest.DefaultStrategyConfig()
	defaults.TradeFreq = 1
	defaults.TopNMomentum = 1

	srv, err := NewServer(cfg, Dependencies{
		Loader:     fixedLoader{set: fixtureSet(t)},
		Backtester: backtest.New(nil),
		Defaults:   defaults,
		Metrics:    reg,
	}, zap.NewNop())
	require.NoError(t, err)
	return srv
}

func TestNewServer_RequiresDependencies(t *testing.T) {
	_, err := NewServer(Config{}, Dependencies{}, nil)
	assert.Error(t, err)
}

func TestServer_Health(t *testing.T) {
	srv := newTestServer(t, Config{Host: "localhost", APIKey: "test-key"}, nil)

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/api/health", nil))

	assert.Equal(t, http.StatusOK, w.Code, "health must not require a key")
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestServer_APIAuth(t *testing.T) {
	srv := newTestServer(t, Config{Host: "localhost", APIKey: "test-key"}, nil)

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest("POST", "/api/v1/backtest", bytes.NewBufferString(`{}`)))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest("POST", "/api/v1/backtest", bytes.NewBufferString(`{}`))
	req.Header.Set("X-API-Key", "test-key")
	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestServer_MethodNotAllowed(t *testing.T) {
	srv := newTestServer(t, Config{}, nil)

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/backtest", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestServer_Metrics(t *testing.T) {
	reg := metrics.NewRegistry()
	srv := newTestServer(t, Config{MetricsPath: "/metrics"}, reg)

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest("POST", "/api/v1/backtest", bytes.NewBufferString(`{}`)))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.True(t, strings.Contains(body, `rotation_backtests_total{direction="long",status="ok"} 1`), body)
	assert.Contains(t, body, "rotation_rebalances_total 3")
	assert.Contains(t, body, "http_requests_total")
}

func TestServer_MetricsDisabled(t *testing.T) {
	srv := newTestServer(t, Config{}, nil)

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
