package observability

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Prometheus implements every hook interface on a private registry.
type Prometheus struct {
	registry *prometheus.Registry

	inputShapes  *prometheus.CounterVec
	runs         *prometheus.CounterVec
	runDuration  *prometheus.HistogramVec
	modelNodes   prometheus.Histogram
	droppedEdges prometheus.Counter
	prunedNodes  prometheus.Counter

	cacheHits   *prometheus.CounterVec
	cacheMisses *prometheus.CounterVec
	cacheBytes  *prometheus.CounterVec

	backendRequests *prometheus.CounterVec
	backendDuration *prometheus.HistogramVec
	backendErrors   *prometheus.CounterVec

	serverRequests *prometheus.CounterVec
	serverDuration *prometheus.HistogramVec
}

// NewPrometheus creates the collector set under namespace.
func NewPrometheus(namespace string) *Prometheus {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Prometheus{
		registry: reg,
		inputShapes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "input_shapes_total",
			Help: "Payloads normalized, by detected shape",
		}, []string{"shape"}),
		runs: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "pipeline_runs_total",
			Help: "Pipeline runs by layout and outcome",
		}, []string{"layout", "outcome"}),
		runDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "pipeline_duration_seconds",
			Help:    "Pipeline run duration",
			Buckets: prometheus.DefBuckets,
		}, []string{"layout"}),
		modelNodes: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "model_nodes",
			Help:    "Nodes per render model",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		}),
		droppedEdges: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "dropped_relationships_total",
			Help: "Relationships dropped for a missing endpoint",
		}),
		prunedNodes: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "pruned_nodes_total",
			Help: "Owner nodes removed by pruning",
		}),
		cacheHits: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "cache_hits_total",
			Help: "Cache hits by key type",
		}, []string{"key_type"}),
		cacheMisses: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "cache_misses_total",
			Help: "Cache misses by key type",
		}, []string{"key_type"}),
		cacheBytes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "cache_written_bytes_total",
			Help: "Bytes written to the cache by key type",
		}, []string{"key_type"}),
		backendRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "backend_requests_total",
			Help: "Backend requests by path and status",
		}, []string{"path", "status"}),
		backendDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "backend_request_duration_seconds",
			Help:    "Backend request duration",
			Buckets: prometheus.DefBuckets,
		}, []string{"path"}),
		backendErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "backend_errors_total",
			Help: "Backend requests that failed without a response",
		}, []string{"path"}),
		serverRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "http_requests_total",
			Help: "API requests by method, route and status",
		}, []string{"method", "route", "status"}),
		serverDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "http_request_duration_seconds",
			Help:    "API request duration",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// Registry returns the underlying registry.
func (p *Prometheus) Registry() *prometheus.Registry { return p.registry }

// Handler serves the registry in the Prometheus exposition format.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// ObserveRequest records one served API request.
func (p *Prometheus) ObserveRequest(method, route string, status int, d time.Duration) {
	p.serverRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	p.serverDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func (p *Prometheus) OnNormalize(_ context.Context, shape string, _, _ int) {
	p.inputShapes.WithLabelValues(shape).Inc()
}

func (p *Prometheus) OnRunStart(context.Context, string, int) {}

func (p *Prometheus) OnRunComplete(_ context.Context, layout string, c RunCounts, d time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	p.runs.WithLabelValues(layout, outcome).Inc()
	p.runDuration.WithLabelValues(layout).Observe(d.Seconds())
	if err != nil {
		return
	}
	p.modelNodes.Observe(float64(c.Nodes))
	p.droppedEdges.Add(float64(c.Dropped))
	p.prunedNodes.Add(float64(c.Pruned))
}

func (p *Prometheus) OnCacheHit(_ context.Context, keyType string) {
	p.cacheHits.WithLabelValues(keyType).Inc()
}

func (p *Prometheus) OnCacheMiss(_ context.Context, keyType string) {
	p.cacheMisses.WithLabelValues(keyType).Inc()
}

func (p *Prometheus) OnCacheSet(_ context.Context, keyType string, size int) {
	p.cacheBytes.WithLabelValues(keyType).Add(float64(size))
}

func (p *Prometheus) OnRequest(context.Context, string, string, string) {}

func (p *Prometheus) OnResponse(_ context.Context, _, _, path string, status int, d time.Duration) {
	p.backendRequests.WithLabelValues(path, strconv.Itoa(status)).Inc()
	p.backendDuration.WithLabelValues(path).Observe(d.Seconds())
}

func (p *Prometheus) OnError(_ context.Context, _, _, path string, _ error) {
	p.backendErrors.WithLabelValues(path).Inc()
}

var (
	_ PipelineHooks = (*Prometheus)(nil)
	_ CacheHooks    = (*Prometheus)(nil)
	_ HTTPHooks     = (*Prometheus)(nil)
)
