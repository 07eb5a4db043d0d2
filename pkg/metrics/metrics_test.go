package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMetrics(t *testing.T) *Metrics {
	t.Helper()
	m, err := NewWithRegistry(prometheus.NewRegistry())
	require.NoError(t, err)
	return m
}

func TestObserveSearch(t *testing.T) {
	m := newTestMetrics(t)

	m.ObserveSearch("entries", false, 3, 2*time.Millisecond)
	m.ObserveSearch("entries", true, 0, time.Millisecond)
	m.ObserveSearch("entries", true, 1, time.Millisecond)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.searchesTotal.WithLabelValues("entries", "fts")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.searchesTotal.WithLabelValues("entries", "fallback")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.searchDuration))
}

func TestObserveMutationAndCache(t *testing.T) {
	m := newTestMetrics(t)

	m.ObserveMutation("entry", "create")
	m.ObserveMutation("entry", "create")
	m.ObserveCacheLookup("entries", true)
	m.ObserveCacheLookup("entries", false)
	m.ObserveCacheLookup("entries", false)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.mutationsTotal.WithLabelValues("entry", "create")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.cacheLookupsTotal.WithLabelValues("entries", "hit")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.cacheLookupsTotal.WithLabelValues("entries", "miss")))
}

func TestObservePurge(t *testing.T) {
	m := newTestMetrics(t)

	m.ObservePurge(4, nil)
	m.ObservePurge(0, errors.New("disk full"))

	assert.Equal(t, float64(4), testutil.ToFloat64(m.purgedEntriesTotal))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.purgeRunsTotal.WithLabelValues("success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.purgeRunsTotal.WithLabelValues("error")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := newTestMetrics(t)
	m.ObserveHTTPRequest("/api/entries", http.MethodGet, http.StatusOK, time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), `daybook_http_requests_total{code="200",method="GET",route="/api/entries"} 1`))
}

func TestNewRegistersRuntimeCollectors(t *testing.T) {
	m, err := New()
	require.NoError(t, err)

	families, err := m.registry.Gather()
	require.NoError(t, err)

	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["go_goroutines"])
}
