// Package prom implements the observability hooks with Prometheus metrics.
package prom

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/depsync/pkg/observability"
)

// Hooks records resolution, sync, cache and HTTP events as Prometheus
// metrics. It implements every hook interface of package observability.
type Hooks struct {
	resolveTotal    *prometheus.CounterVec
	resolveErrors   *prometheus.CounterVec
	resolveDuration *prometheus.HistogramVec
	resolvedDeps    *prometheus.GaugeVec

	syncTotal    *prometheus.CounterVec
	syncErrors   *prometheus.CounterVec
	syncFiles    *prometheus.CounterVec
	syncDuration *prometheus.HistogramVec

	cacheEvents *prometheus.CounterVec

	httpRequests *prometheus.CounterVec
	httpErrors   *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// New creates Hooks and registers their collectors with reg.
func New(reg prometheus.Registerer) *Hooks {
	h := &Hooks{
		resolveTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "depsync_resolve_total",
				Help: "Number of scope resolutions.",
			},
			[]string{"scope"},
		),
		resolveErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "depsync_resolve_error_total",
				Help: "Number of failed scope resolutions.",
			},
			[]string{"scope"},
		),
		resolveDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "depsync_resolve_duration_seconds",
				Help:    "Time taken to resolve a scope.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"scope"},
		),
		resolvedDeps: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "depsync_resolved_dependencies",
				Help: "Number of dependencies in the last resolution of a scope.",
			},
			[]string{"scope"},
		),
		syncTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "depsync_sync_total",
				Help: "Number of reconciliations by scope and path taken.",
			},
			[]string{"scope", "path"},
		),
		syncErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "depsync_sync_error_total",
				Help: "Number of failed reconciliations.",
			},
			[]string{"scope"},
		),
		syncFiles: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "depsync_sync_files_total",
				Help: "Files fetched or deleted by reconciliations.",
			},
			[]string{"scope", "op"},
		),
		syncDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "depsync_sync_duration_seconds",
				Help:    "Time taken to reconcile a managed directory.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"scope"},
		),
		cacheEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "depsync_cache_events_total",
				Help: "Response cache hits, misses and writes.",
			},
			[]string{"namespace", "event"},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "depsync_http_requests_total",
				Help: "HTTP responses by host and status code.",
			},
			[]string{"host", "code"},
		),
		httpErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "depsync_http_errors_total",
				Help: "HTTP requests that failed without a response.",
			},
			[]string{"host"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "depsync_http_request_duration_seconds",
				Help:    "HTTP request latency.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"host"},
		),
	}
	reg.MustRegister(
		h.resolveTotal, h.resolveErrors, h.resolveDuration, h.resolvedDeps,
		h.syncTotal, h.syncErrors, h.syncFiles, h.syncDuration,
		h.cacheEvents,
		h.httpRequests, h.httpErrors, h.httpDuration,
	)
	return h
}

// Register installs h as the global hooks of package observability.
func (h *Hooks) Register() {
	observability.SetResolveHooks(h)
	observability.SetSyncHooks(h)
	observability.SetCacheHooks(h)
	observability.SetHTTPHooks(h)
}

func (h *Hooks) OnResolveStart(context.Context, string, int) {}

func (h *Hooks) OnResolveComplete(_ context.Context, scope string, resolved int, d time.Duration, err error) {
	h.resolveTotal.WithLabelValues(scope).Inc()
	h.resolveDuration.WithLabelValues(scope).Observe(d.Seconds())
	if err != nil {
		h.resolveErrors.WithLabelValues(scope).Inc()
		return
	}
	h.resolvedDeps.WithLabelValues(scope).Set(float64(resolved))
}

func (h *Hooks) OnSyncComplete(_ context.Context, scope string, s observability.SyncStats, d time.Duration, err error) {
	path := "slow"
	if s.FastPath {
		path = "fast"
	}
	h.syncTotal.WithLabelValues(scope, path).Inc()
	h.syncDuration.WithLabelValues(scope).Observe(d.Seconds())
	h.syncFiles.WithLabelValues(scope, "fetch").Add(float64(s.Fetched))
	h.syncFiles.WithLabelValues(scope, "delete").Add(float64(s.Deleted))
	if err != nil {
		h.syncErrors.WithLabelValues(scope).Inc()
	}
}

func (h *Hooks) OnCacheHit(_ context.Context, ns string) {
	h.cacheEvents.WithLabelValues(ns, "hit").Inc()
}

func (h *Hooks) OnCacheMiss(_ context.Context, ns string) {
	h.cacheEvents.WithLabelValues(ns, "miss").Inc()
}

func (h *Hooks) OnCacheSet(_ context.Context, ns string, _ int) {
	h.cacheEvents.WithLabelValues(ns, "set").Inc()
}

func (h *Hooks) OnRequest(context.Context, string, string, string) {}

func (h *Hooks) OnResponse(_ context.Context, _, host, _ string, code int, d time.Duration) {
	h.httpRequests.WithLabelValues(host, strconv.Itoa(code)).Inc()
	h.httpDuration.WithLabelValues(host).Observe(d.Seconds())
}

func (h *Hooks) OnError(_ context.Context, _, host, _ string, _ error) {
	h.httpErrors.WithLabelValues(host).Inc()
}

// WriteTextfile writes every metric gathered by g to path in the text
// exposition format, for node_exporter's textfile collector.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	return prometheus.WriteToTextfile(path, g)
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

var (
	_ observability.ResolveHooks = (*Hooks)(nil)
	_ observability.SyncHooks    = (*Hooks)(nil)
	_ observability.CacheHooks   = (*Hooks)(nil)
	_ observability.HTTPHooks    = (*Hooks)(nil)
)
