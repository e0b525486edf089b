package http

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/CaseIntel/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/CaseIntel/internal/interfaces/http/handlers"
	"github.com/turtacn/CaseIntel/internal/testutil"
	"github.com/turtacn/CaseIntel/pkg/errors"
)

func newOpsServer(t *testing.T, addr string) (*Server, *prometheus.PipelineMetrics) {
	t.Helper()
	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{Namespace: "caseintel"}, nil)
	require.NoError(t, err)
	metrics := prometheus.NewPipelineMetrics(collector)
	health := handlers.NewHealthHandler("test",
		handlers.NamedCheck("postgres", func(context.Context) error { return nil }))
	return NewServer(addr, health, collector.Handler(), testutil.NewMockLogger()), metrics
}

func TestServer_Routes(t *testing.T) {
	srv, metrics := newOpsServer(t, ":0")
	metrics.RetriesTotal.WithLabelValues("aggregate").Inc()

	for path, want := range map[string]int{
		"/healthz":        http.StatusOK,
		"/readyz":         http.StatusOK,
		"/healthz/detail": http.StatusOK,
		"/metrics":        http.StatusOK,
		"/unknown":        http.StatusNotFound,
	} {
		w := httptest.NewRecorder()
		srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, want, w.Code, path)
	}

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, w.Body.String(), `caseintel_retries_total{stage="aggregate"} 1`)
}

func TestServer_WithoutMetrics(t *testing.T) {
	srv := NewServer(":0", handlers.NewHealthHandler("test"), nil, nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_StartStop(t *testing.T) {
	srv, _ := newOpsServer(t, "127.0.0.1:0")
	require.NoError(t, srv.Start())
	addr := srv.Addr()

	resp, err := http.Get("http://" + addr + "/readyz")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"ready"`)

	require.NoError(t, srv.Stop(context.Background()))
	require.NoError(t, srv.Stop(context.Background()))

	_, err = http.Get("http://" + addr + "/healthz")
	assert.Error(t, err)
}

func TestServer_BindFailure(t *testing.T) {
	first, _ := newOpsServer(t, "127.0.0.1:0")
	require.NoError(t, first.Start())
	defer first.Stop(context.Background())

	second, _ := newOpsServer(t, first.Addr())
	err := second.Start()
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeServiceUnavailable))
}

//Personal.AI order the ending
