package observability

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "composeviz"

// Metrics records pipeline, cache and HTTP events as Prometheus metrics.
// It implements PipelineHooks, CacheHooks and HTTPHooks.
type Metrics struct {
	stageDuration   *prometheus.HistogramVec
	graphSize       *prometheus.HistogramVec
	artifactBytes   *prometheus.HistogramVec
	cacheEvents     *prometheus.CounterVec
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	requestsRunning prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "pipeline",
			Name:      "stage_duration_seconds",
			Help:      "Duration of pipeline stages in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"stage", "status"}),
		graphSize: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "pipeline",
			Name:      "graph_size",
			Help:      "Number of nodes and edges of built graphs",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}, []string{"element"}),
		artifactBytes: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "pipeline",
			Name:      "artifact_bytes",
			Help:      "Size of rendered artifacts in bytes",
			Buckets:   prometheus.ExponentialBuckets(1024, 4, 8),
		}, []string{"format"}),
		cacheEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "cache",
			Name:      "events_total",
			Help:      "Artifact cache hits, misses and writes",
		}, []string{"key_type", "event"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, path and status",
		}, []string{"method", "path", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
		requestsRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "HTTP requests currently being served",
		}),
	}

	for _, c := range []prometheus.Collector{
		m.stageDuration, m.graphSize, m.artifactBytes, m.cacheEvents,
		m.httpRequests, m.httpDuration, m.requestsRunning,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (m *Metrics) OnLoadStart(context.Context, []string) {}

func (m *Metrics) OnLoadComplete(_ context.Context, _ []string, d time.Duration, err error) {
	m.stageDuration.WithLabelValues("load", status(err)).Observe(d.Seconds())
}

func (m *Metrics) OnBuildStart(context.Context, string) {}

func (m *Metrics) OnBuildComplete(_ context.Context, _ string, nodes, edges int, d time.Duration, err error) {
	m.stageDuration.WithLabelValues("build", status(err)).Observe(d.Seconds())
	if err == nil {
		m.graphSize.WithLabelValues("nodes").Observe(float64(nodes))
		m.graphSize.WithLabelValues("edges").Observe(float64(edges))
	}
}

func (m *Metrics) OnRenderStart(context.Context, string) {}

func (m *Metrics) OnRenderComplete(_ context.Context, format string, size int, d time.Duration, err error) {
	m.stageDuration.WithLabelValues("render", status(err)).Observe(d.Seconds())
	if err == nil {
		m.artifactBytes.WithLabelValues(format).Observe(float64(size))
	}
}

func (m *Metrics) OnCacheHit(_ context.Context, keyType string) {
	m.cacheEvents.WithLabelValues(keyType, "hit").Inc()
}

func (m *Metrics) OnCacheMiss(_ context.Context, keyType string) {
	m.cacheEvents.WithLabelValues(keyType, "miss").Inc()
}

func (m *Metrics) OnCacheSet(_ context.Context, keyType string, _ int) {
	m.cacheEvents.WithLabelValues(keyType, "set").Inc()
}

func (m *Metrics) OnRequest(context.Context, string, string, string) {
	m.requestsRunning.Inc()
}

func (m *Metrics) OnResponse(_ context.Context, _, method, path string, code int, d time.Duration) {
	m.requestsRunning.Dec()
	m.httpRequests.WithLabelValues(method, path, strconv.Itoa(code)).Inc()
	m.httpDuration.WithLabelValues(method, path).Observe(d.Seconds())
}

var (
	_ PipelineHooks = (*Metrics)(nil)
	_ CacheHooks    = (*Metrics)(nil)
	_ HTTPHooks     = (*Metrics)(nil)
)
