package telemetry

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_Counters(t *testing.T) {
	t.Parallel()

	m := New()
	m.ObserveTab("revenue", "ok")
	m.ObserveTab("revenue", "ok")
	m.ObserveTab("rfm", "empty")
	m.ObserveLoad(LoadSourceFile, 120, nil)
	m.ObserveLoad(LoadSourceCache, 0, errors.New("boom"))
	m.ObserveExport("xlsx")

	if got := testutil.ToFloat64(m.TabBuilds.WithLabelValues("revenue", "ok")); got != 2 {
		t.Fatalf("tab builds want=2 got=%v", got)
	}
	if got := testutil.ToFloat64(m.DatasetRows); got != 120 {
		t.Fatalf("dataset rows want=120 got=%v", got)
	}
	if got := testutil.ToFloat64(m.DatasetLoads.WithLabelValues(LoadSourceCache, "error")); got != 1 {
		t.Fatalf("cache load errors want=1 got=%v", got)
	}
}

func TestMetrics_IndependentRegistries(t *testing.T) {
	t.Parallel()

	// 每个实例使用私有 Registry，重复创建不会 panic
	a, b := New(), New()
	a.ObserveExport("pdf")
	if got := testutil.ToFloat64(b.Exports.WithLabelValues("pdf")); got != 0 {
		t.Fatalf("registries leaked: %v", got)
	}
}

func TestMetrics_Handler(t *testing.T) {
	t.Parallel()

	m := New()
	m.ObserveHTTP(http.MethodGet, "/api/status", 200, 15*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status: %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `dasboard_http_requests_total{method="GET",route="/api/status",status="200"} 1`) {
		t.Fatalf("missing http counter in output")
	}
}

func TestMetrics_NilSafe(t *testing.T) {
	t.Parallel()

	var m *Metrics
	m.ObserveTab("x", "ok")
	m.ObserveBuild(time.Second)
	m.ObserveLoad(LoadSourceFile, 1, nil)
	m.ObserveExport("xlsx")
	m.ObserveHTTP("GET", "/", 200, time.Millisecond)
}
