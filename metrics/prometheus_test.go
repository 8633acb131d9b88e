package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveRequest(t *testing.T) {
	r := NewRegistry()
	r.ObserveRequest(http.MethodGet, "/api/v1/tours", 200, 15*time.Millisecond)
	r.ObserveRequest(http.MethodGet, "/api/v1/tours", 200, 5*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.RequestsTotal.WithLabelValues("GET", "/api/v1/tours", "200")))

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "tours_http_request_duration_seconds")
}

func TestResult(t *testing.T) {
	assert.Equal(t, "ok", Result(nil))
	assert.Equal(t, "error", Result(errors.New("x")))
}
