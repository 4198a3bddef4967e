// Package telemetry Prometheus 指标（私有 Registry，避免测试中重复注册）
package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "dasboard"

// 数据集加载来源
const (
	LoadSourceFile  = "file"
	LoadSourceCache = "cache"
)

// Metrics 全部指标；nil 接收者上的方法均为空操作
type Metrics struct {
	registry *prometheus.Registry

	TabBuilds     *prometheus.CounterVec
	BuildDuration prometheus.Histogram
	DatasetRows   prometheus.Gauge
	DatasetLoads  *prometheus.CounterVec
	Exports       *prometheus.CounterVec
	HTTPRequests  *prometheus.CounterVec
	HTTPDurations *prometheus.HistogramVec
}

// New 创建并注册全部指标
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	factory := promauto.With(reg)
	m := &Metrics{registry: reg}

	m.TabBuilds = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tab_builds_total",
		Help:      "Dashboard tab builds by outcome (ok, empty, error)",
	}, []string{"tab", "outcome"})

	m.BuildDuration = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "dashboard_build_seconds",
		Help:      "Time to recompute every tab for a date range",
		Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	})

	m.DatasetRows = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "dataset_rows",
		Help:      "Rows in the currently loaded dataset",
	})

	m.DatasetLoads = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "dataset_loads_total",
		Help:      "Dataset loads by source (file, cache) and result",
	}, []string{"source", "result"})

	m.Exports = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "exports_total",
		Help:      "Report exports by format",
	}, []string{"format"})

	m.HTTPRequests = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by route and status",
	}, []string{"method", "route", "status"})

	m.HTTPDurations = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	return m
}

// Registry 底层 Registry（测试用）
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler /metrics 处理器
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveTab 记录一次分页构建结果
func (m *Metrics) ObserveTab(tab, outcome string) {
	if m == nil {
		return
	}
	m.TabBuilds.WithLabelValues(tab, outcome).Inc()
}

// ObserveBuild 记录一次整体构建耗时
func (m *Metrics) ObserveBuild(d time.Duration) {
	if m == nil {
		return
	}
	m.BuildDuration.Observe(d.Seconds())
}

// ObserveLoad 记录一次数据集加载
func (m *Metrics) ObserveLoad(source string, rows int, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	} else {
		m.DatasetRows.Set(float64(rows))
	}
	m.DatasetLoads.WithLabelValues(source, result).Inc()
}

// ObserveExport 记录一次导出
func (m *Metrics) ObserveExport(format string) {
	if m == nil {
		return
	}
	m.Exports.WithLabelValues(format).Inc()
}

// ObserveHTTP 记录一次 HTTP 请求
func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDurations.WithLabelValues(method, route).Observe(d.Seconds())
}
