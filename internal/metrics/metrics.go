// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// 上流クライアント、成績ソースチェーン、アグリゲータから利用する。
type MetricsCollector interface {
	RecordUpstreamRequest(endpoint string, statusCode int, duration time.Duration)
	RecordUpstreamFailure(endpoint string)
	RecordSourceFailure(source string)
	RecordReport(result string, courseCount int, duration time.Duration)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	upstreamRequests *prometheus.CounterVec
	upstreamLatency  prometheus.Histogram
	upstreamFailures *prometheus.CounterVec
	sourceFailures   *prometheus.CounterVec
	reportTotal      *prometheus.CounterVec
	reportCourses    prometheus.Counter
	reportLatency    prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		upstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gradeport_upstream_requests_total",
			Help: "LMS API呼び出しのエンドポイント・ステータスコード別の合計数",
		}, []string{"endpoint", "status_code"}),
		upstreamLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "gradeport_upstream_latency_seconds",
			Help:    "LMS API呼び出しのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		upstreamFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gradeport_upstream_failures_total",
			Help: "LMS API呼び出しのネットワークレベル失敗の合計数",
		}, []string{"endpoint"}),
		sourceFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gradeport_source_failures_total",
			Help: "成績ソース別のコース単位解決失敗の合計数",
		}, []string{"source"}),
		reportTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gradeport_report_total",
			Help: "レポート生成の結果別の合計数",
		}, []string{"result"}),
		reportCourses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gradeport_report_courses_total",
			Help: "レポートに含まれたコースの合計数",
		}),
		reportLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "gradeport_report_latency_seconds",
			Help:    "レポート生成全体のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.upstreamRequests,
		c.upstreamLatency,
		c.upstreamFailures,
		c.sourceFailures,
		c.reportTotal,
		c.reportCourses,
		c.reportLatency,
	)

	return c
}

// RecordUpstreamRequest は上流呼び出しの結果を記録する。
func (c *Collector) RecordUpstreamRequest(endpoint string, statusCode int, duration time.Duration) {
	c.upstreamRequests.WithLabelValues(endpoint, strconv.Itoa(statusCode)).Inc()
	c.upstreamLatency.Observe(duration.Seconds())
}

// RecordUpstreamFailure は上流呼び出しのネットワークレベル失敗を記録する。
func (c *Collector) RecordUpstreamFailure(endpoint string) {
	c.upstreamFailures.WithLabelValues(endpoint).Inc()
}

// RecordSourceFailure は成績ソースのコース単位失敗を記録する。
func (c *Collector) RecordSourceFailure(source string) {
	c.sourceFailures.WithLabelValues(source).Inc()
}

// RecordReport はレポート生成の完了を記録する。
func (c *Collector) RecordReport(result string, courseCount int, duration time.Duration) {
	c.reportTotal.WithLabelValues(result).Inc()
	c.reportCourses.Add(float64(courseCount))
	c.reportLatency.Observe(duration.Seconds())
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
