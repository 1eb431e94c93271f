package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func doRequest(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()
	server := NewServer(":0", zap.NewNop())
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoints(t *testing.T) {
	t.Parallel()

	for path, status := range map[string]string{
		"/healthz": "ok",
		"/readyz":  "ready",
	} {
		rec := doRequest(t, path)
		require.Equal(t, http.StatusOK, rec.Code, path)
		require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Equal(t, status, body["status"], path)
	}
}

func TestRequestIDHeader(t *testing.T) {
	t.Parallel()

	first := doRequest(t, "/healthz").Header().Get("X-Request-ID")
	second := doRequest(t, "/healthz").Header().Get("X-Request-ID")
	require.NotEmpty(t, first)
	require.NotEqual(t, first, second)
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	rec := doRequest(t, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestUnknownRoute(t *testing.T) {
	t.Parallel()

	rec := doRequest(t, "/nope")
	require.Equal(t, http.StatusNotFound, rec.Code)
}
