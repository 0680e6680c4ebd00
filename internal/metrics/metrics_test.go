package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.RecordDocumentOp("save", nil)
	m.RecordCache(true)
	m.RecordUpload("fs", errors.New("x"))
	m.ObserveRender(0)
	m.ObserveReadingTime(3)
	m.GaugeFunc("x", "x", func() float64 { return 1 })

	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestIndependentRegistries(t *testing.T) {
	a, b := New(), New()
	a.RecordDocumentOp("save", nil)
	assert.Equal(t, 1.0, testutil.ToFloat64(a.DocumentOpsTotal.WithLabelValues("save", "ok")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.DocumentOpsTotal.WithLabelValues("save", "ok")))
}

func TestMiddlewareUsesRoutePattern(t *testing.T) {
	m := New()
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/api/projects/{slug}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Handle("/metrics", m.Handler())

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/projects/lumen", nil))
	got := testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/api/projects/{slug}", "404"))
	assert.Equal(t, 1.0, got)

	m.GaugeFunc("folio_test_gauge", "test", func() float64 { return 7 })
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), "folio_http_requests_total")
	assert.Contains(t, string(body), "folio_test_gauge 7")
}
