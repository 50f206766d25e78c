package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

// gather returns the metric family called name, or nil.
func gather(t *testing.T, reg *Registry, name string) *dto.MetricFamily {
	t.Helper()
	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func labelValue(m *dto.Metric, name string) string {
	for _, l := range m.GetLabel() {
		if l.GetName() == name {
			return l.GetValue()
		}
	}
	return ""
}

func TestNewRegistry(t *testing.T) {
	reg := NewRegistry()
	if reg == nil {
		t.Fatal("expected non-nil registry")
	}

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}
	// Go runtime metrics at minimum
	if len(mfs) == 0 {
		t.Error("expected some metrics to be registered")
	}
}

func TestRegistry_RecordRequest_StatusCodes(t *testing.T) {
	tests := []struct {
		status   int
		expected string
	}{
		{100, "1xx"},
		{200, "2xx"},
		{201, "2xx"},
		{301, "3xx"},
		{400, "4xx"},
		{422, "4xx"},
		{500, "5xx"},
		{503, "5xx"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			reg := NewRegistry()
			reg.RecordRequest("POST", "/api/v1/backtest", tt.status, 0.01)

			mf := gather(t, reg, "http_requests_total")
			if mf == nil {
				t.Fatal("expected http_requests_total metric")
			}
			if got := labelValue(mf.GetMetric()[0], "status"); got != tt.expected {
				t.Errorf("status %d: expected label %s, got %s", tt.status, tt.expected, got)
			}
		})
	}
}

func TestRegistry_InFlight(t *testing.T) {
	reg := NewRegistry()

	reg.InFlightInc()
	reg.InFlightInc()
	reg.InFlightDec()

	mf := gather(t, reg, "http_requests_in_flight")
	if mf == nil {
		t.Fatal("expected http_requests_in_flight metric")
	}
	if v := mf.GetMetric()[0].GetGauge().GetValue(); v != 1 {
		t.Errorf("expected in-flight gauge to be 1, got %v", v)
	}
}

func TestRegistry_DurationHistogram(t *testing.T) {
	reg := NewRegistry()

	reg.RecordRequest("POST", "/api/v1/backtest", 200, 0.123)

	mf := gather(t, reg, "http_request_duration_seconds")
	if mf == nil {
		t.Fatal("expected http_request_duration_seconds metric")
	}
	hist := mf.GetMetric()[0].GetHistogram()
	if hist.GetSampleCount() != 1 {
		t.Errorf("expected sample count 1, got %d", hist.GetSampleCount())
	}
	if hist.GetSampleSum() < 0.12 || hist.GetSampleSum() > 0.13 {
		t.Errorf("expected sample sum ~0.123, got %v", hist.GetSampleSum())
	}
}

func TestRegistry_RecordBacktest(t *testing.T) {
	reg := NewRegistry()

	reg.RecordBacktest("ok", "long", 0.02)
	reg.RecordBacktest("ok", "long", 0.03)
	reg.RecordBacktest("error", "short", 0.01)

	mf := gather(t, reg, "rotation_backtests_total")
	if mf == nil {
		t.Fatal("expected rotation_backtests_total metric")
	}
	counts := map[string]float64{}
	for _, m := range mf.GetMetric() {
		counts[labelValue(m, "status")+"/"+labelValue(m, "direction")] = m.GetCounter().GetValue()
	}
	if counts["ok/long"] != 2 || counts["error/short"] != 1 {
		t.Errorf("unexpected counts: %v", counts)
	}

	dur := gather(t, reg, "rotation_backtest_duration_seconds")
	if dur == nil {
		t.Fatal("expected rotation_backtest_duration_seconds metric")
	}
	if n := dur.GetMetric()[0].GetHistogram().GetSampleCount(); n != 3 {
		t.Errorf("expected 3 samples, got %d", n)
	}
}

func TestRegistry_RebalancesAndWarnings(t *testing.T) {
	reg := NewRegistry()

	reg.RecordRebalances(12)
	reg.RecordWarning("EMPTY_UNIVERSE")
	reg.RecordWarning("EMPTY_UNIVERSE")

	mf := gather(t, reg, "rotation_rebalances_total")
	if mf == nil || mf.GetMetric()[0].GetCounter().GetValue() != 12 {
		t.Errorf("expected 12 rebalances, got %v", mf)
	}

	warn := gather(t, reg, "rotation_rebalance_warnings_total")
	if warn == nil {
		t.Fatal("expected rotation_rebalance_warnings_total metric")
	}
	byCode := map[string]float64{}
	for _, m := range warn.GetMetric() {
		byCode[labelValue(m, "code")] = m.GetCounter().GetValue()
	}
	if len(byCode) != 1 || byCode["EMPTY_UNIVERSE"] != 2 {
		t.Errorf("unexpected warning counts: %v", byCode)
	}
}

func TestRegistry_PanelCache(t *testing.T) {
	reg := NewRegistry()

	reg.CacheMiss("alpha")
	reg.CacheHit("alpha")
	reg.CacheHit("alpha")

	if v := testutil.ToFloat64(reg.panelCacheTotal.WithLabelValues("alpha", "hit")); v != 2 {
		t.Errorf("expected 2 hits, got %v", v)
	}
	if v := testutil.ToFloat64(reg.panelCacheTotal.WithLabelValues("alpha", "miss")); v != 1 {
		t.Errorf("expected 1 miss, got %v", v)
	}
	if n := testutil.CollectAndCount(reg.panelCacheTotal); n != 2 {
		t.Errorf("expected 2 series, got %d", n)
	}
}

func TestRegistry_ImplementsGatherer(t *testing.T) {
	reg := NewRegistry()
	var _ prometheus.Gatherer = reg
}
