package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCollector_RecordUpstreamRequest(t *testing.T) {
	registry := prometheus.NewRegistry()
	c := NewCollector(registry)

	c.RecordUpstreamRequest("courses", 200, 120*time.Millisecond)
	c.RecordUpstreamRequest("courses", 200, 80*time.Millisecond)
	c.RecordUpstreamRequest("enrollments", 503, 10*time.Millisecond)

	if got := testutil.ToFloat64(c.upstreamRequests.WithLabelValues("courses", "200")); got != 2 {
		t.Errorf("courses/200 = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.upstreamRequests.WithLabelValues("enrollments", "503")); got != 1 {
		t.Errorf("enrollments/503 = %v, want 1", got)
	}
}

func TestCollector_RecordSourceFailure(t *testing.T) {
	registry := prometheus.NewRegistry()
	c := NewCollector(registry)

	c.RecordSourceFailure("history")
	c.RecordSourceFailure("history")

	if got := testutil.ToFloat64(c.sourceFailures.WithLabelValues("history")); got != 2 {
		t.Errorf("history失敗数 = %v, want 2", got)
	}
}

func TestCollector_RecordReport(t *testing.T) {
	registry := prometheus.NewRegistry()
	c := NewCollector(registry)

	c.RecordReport("ok", 5, 300*time.Millisecond)
	c.RecordReport("upstream_unavailable", 0, 10*time.Millisecond)

	if got := testutil.ToFloat64(c.reportTotal.WithLabelValues("ok")); got != 1 {
		t.Errorf("ok件数 = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.reportCourses); got != 5 {
		t.Errorf("コース合計 = %v, want 5", got)
	}
}

func TestHandler_ExposesRegisteredMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	c := NewCollector(registry)
	c.RecordUpstreamFailure("courses")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	Handler(registry).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("ステータス = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "gradeport_upstream_failures_total") {
		t.Error("スクレイプ出力に gradeport_upstream_failures_total が含まれるべき")
	}
}
