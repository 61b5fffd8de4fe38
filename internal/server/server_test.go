package server

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tmzhouw/employment-time-machine-sub001/internal/api"
	"github.com/tmzhouw/employment-time-machine-sub001/internal/config"
	"github.com/tmzhouw/employment-time-machine-sub001/internal/dashboard"
	"github.com/tmzhouw/employment-time-machine-sub001/internal/loader"
	"github.com/tmzhouw/employment-time-machine-sub001/internal/store"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	st, err := store.New(filepath.Join(t.TempDir(), "employment.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	reg := prometheus.NewRegistry()
	ld := loader.New(st, loader.Options{Retries: 0, Backoff: time.Millisecond}, zap.NewNop(), loader.NewMetrics(reg))
	svc := dashboard.NewService(st, ld, dashboard.Options{}, zap.NewNop(), dashboard.NewMetrics(reg))
	h := api.NewHandler(api.Deps{Store: st, Dashboard: svc})

	cfg := config.DefaultConfig()
	cfg.Server.DevMode = true
	return NewServer(cfg, h, reg, zap.NewNop())
}

func TestServer_RoutesAndMetrics(t *testing.T) {
	s := newTestServer(t)

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/trend", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "employment_dashboard_compute_seconds")

	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/api/trend", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
