package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics Prometheus 指標，nil 接收者可安全呼叫
type Metrics struct {
	registry *prometheus.Registry

	inferenceCalls    *prometheus.CounterVec
	inferenceDuration *prometheus.HistogramVec
	pipelineFailures  *prometheus.CounterVec
	cacheLookups      *prometheus.CounterVec
	httpRequests      *prometheus.CounterVec
}

// New 建立使用獨立 registry 的指標集合
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		inferenceCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "inference_calls_total",
			Help: "Inference service calls by intent and outcome",
		}, []string{"intent", "outcome"}),
		inferenceDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "inference_call_duration_seconds",
			Help:    "Inference service call latency including retries",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30},
		}, []string{"intent"}),
		pipelineFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pipeline_failures_total",
			Help: "Pipeline failures by stage and error kind",
		}, []string{"stage", "kind"}),
		cacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ai_cache_lookups_total",
			Help: "AI response cache lookups by result",
		}, []string{"result"}),
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by route and status class",
		}, []string{"method", "route", "status"}),
	}
}

// ObserveInference 記錄一次推論呼叫
func (m *Metrics) ObserveInference(intent string, d time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.inferenceCalls.WithLabelValues(intent, outcome).Inc()
	m.inferenceDuration.WithLabelValues(intent).Observe(d.Seconds())
}

// PipelineFailure 記錄管線某階段的失敗
func (m *Metrics) PipelineFailure(stage, kind string) {
	if m == nil {
		return
	}
	m.pipelineFailures.WithLabelValues(stage, kind).Inc()
}

// CacheLookup 記錄快取查詢結果
func (m *Metrics) CacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

// HTTPRequest 記錄一次 HTTP 請求
func (m *Metrics) HTTPRequest(method, route, status string) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, status).Inc()
}

// Handler 輸出 /metrics
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
