// Package metrics provides Prometheus collectors for daybook.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "daybook"

// Metrics contains the journal, cache, retention and HTTP collectors.
type Metrics struct {
	registry *prometheus.Registry

	searchesTotal      *prometheus.CounterVec
	searchDuration     *prometheus.HistogramVec
	searchResultsHist  *prometheus.HistogramVec
	mutationsTotal     *prometheus.CounterVec
	cacheLookupsTotal  *prometheus.CounterVec
	purgedEntriesTotal prometheus.Counter
	purgeRunsTotal     *prometheus.CounterVec
	httpRequestsTotal  *prometheus.CounterVec
	httpDuration       *prometheus.HistogramVec

	collectors []prometheus.Collector
}

// New creates the collectors and registers them, together with the Go and
// process collectors, on a fresh registry.
func New() (*Metrics, error) {
	registry := prometheus.NewRegistry()
	if err := registry.Register(collectors.NewGoCollector()); err != nil {
		return nil, err
	}
	if err := registry.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
		return nil, err
	}
	return NewWithRegistry(registry)
}

// NewWithRegistry creates the collectors and registers them on registry.
func NewWithRegistry(registry *prometheus.Registry) (*Metrics, error) {
	m := &Metrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Metrics) initMetrics() {
	m.searchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_total",
			Help:      "Total number of searches by kind and execution path",
		},
		[]string{"kind", "path"}, // kind: entries, snippets, filters; path: fts, fallback
	)

	m.searchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "Time taken to run a search",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12), // 0.5ms to ~1s
		},
		[]string{"kind"},
	)

	m.searchResultsHist = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_results",
			Help:      "Number of entries returned per search",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100},
		},
		[]string{"kind"},
	)

	m.mutationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mutations_total",
			Help:      "Total number of successful writes by entity and operation",
		},
		[]string{"entity", "operation"},
	)

	m.cacheLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_cache_lookups_total",
			Help:      "Application store cache lookups",
		},
		[]string{"store", "result"}, // result: hit, miss
	)

	m.purgedEntriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retention_purged_entries_total",
			Help:      "Entries permanently removed by the trash janitor",
		},
	)

	m.purgeRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retention_runs_total",
			Help:      "Trash janitor runs by outcome",
		},
		[]string{"status"},
	)

	m.httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP API requests by route, method and status code",
		},
		[]string{"route", "method", "code"},
	)

	m.httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP API request latency",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	m.collectors = []prometheus.Collector{
		m.searchesTotal,
		m.searchDuration,
		m.searchResultsHist,
		m.mutationsTotal,
		m.cacheLookupsTotal,
		m.purgedEntriesTotal,
		m.purgeRunsTotal,
		m.httpRequestsTotal,
		m.httpDuration,
	}
}

// Describe implements the Collector interface
func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	for _, collector := range m.collectors {
		collector.Describe(ch)
	}
}

// Collect implements the Collector interface
func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	for _, collector := range m.collectors {
		collector.Collect(ch)
	}
}

// ObserveSearch records one search. fallback is true when the substring path answered it.
func (m *Metrics) ObserveSearch(kind string, fallback bool, results int, elapsed time.Duration) {
	path := "fts"
	if fallback {
		path = "fallback"
	}
	m.searchesTotal.WithLabelValues(kind, path).Inc()
	m.searchDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
	m.searchResultsHist.WithLabelValues(kind).Observe(float64(results))
}

func (m *Metrics) ObserveMutation(entity, op string) {
	m.mutationsTotal.WithLabelValues(entity, op).Inc()
}

// ObserveCacheLookup records a store cache hit or miss.
func (m *Metrics) ObserveCacheLookup(store string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookupsTotal.WithLabelValues(store, result).Inc()
}

// ObservePurge records a janitor run.
func (m *Metrics) ObservePurge(purged int64, err error) {
	if err != nil {
		m.purgeRunsTotal.WithLabelValues("error").Inc()
		return
	}
	m.purgeRunsTotal.WithLabelValues("success").Inc()
	m.purgedEntriesTotal.Add(float64(purged))
}

// ObserveHTTPRequest records one API request. route is the matched route pattern.
func (m *Metrics) ObserveHTTPRequest(route, method string, code int, elapsed time.Duration) {
	m.httpRequestsTotal.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
	m.httpDuration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
