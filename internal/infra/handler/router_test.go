package handler

import (
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"labsite/internal/platform/metrics"
	"labsite/internal/platform/server"
)

func TestRouter_PreflightOnAnyPath(t *testing.T) {
	ts := newTestServer(t, RouterConfig{
		HealthHandler: &HealthHandler{},
		Middlewares:   []func(http.Handler) http.Handler{server.CORS()},
	})

	for _, path := range []string{apiPath("/health"), apiPath("/posts"), "/not-routed"} {
		resp := ts.do(t, http.MethodOptions, path)
		resp.Body.Close()
		assert.Equal(t, http.StatusNoContent, resp.StatusCode, path)
		assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"), path)
		assert.Equal(t, "GET, POST, OPTIONS", resp.Header.Get("Access-Control-Allow-Methods"), path)
		assert.Equal(t, "Content-Type, Authorization", resp.Header.Get("Access-Control-Allow-Headers"), path)
	}

	resp := ts.get(t, apiPath("/health"))
	resp.Body.Close()
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestRouter_JSONErrors(t *testing.T) {
	ts := newTestServer(t, RouterConfig{
		HealthHandler: &HealthHandler{},
		AccessHandler: NewAccessHandler(&stubAccessValidator{}),
	})

	tests := []struct {
		name   string
		method string
		path   string
		want   int
	}{
		{name: "wrong method on known path", method: http.MethodDelete, path: apiPath("/health"), want: http.StatusMethodNotAllowed},
		{name: "put on post route", method: http.MethodPut, path: apiPath("/course/access"), want: http.StatusMethodNotAllowed},
		{name: "unknown api path", method: http.MethodGet, path: apiPath("/nope"), want: http.StatusNotFound},
		{name: "outside base path", method: http.MethodGet, path: "/nope", want: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.do(t, tt.method, tt.path)
			assertErrorResponse(t, resp, tt.want)
		})
	}
}

func TestRouter_Metrics(t *testing.T) {
	m := metrics.NewHTTPMetrics()
	ts := newTestServer(t, RouterConfig{
		HealthHandler:     &HealthHandler{},
		Middlewares:       []func(http.Handler) http.Handler{m.Middleware},
		PrometheusHandler: m.Handler(),
	})

	resp := ts.get(t, apiPath("/health"))
	resp.Body.Close()

	resp = ts.get(t, apiPath("/metrics"))
	defer resp.Body.Close()
	assertStatus(t, resp, http.StatusOK)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `http_requests_total{method="GET",path="/api/health",status="200"} 1`)
}

func TestRouter_MetricsDisabled(t *testing.T) {
	ts := newTestServer(t, RouterConfig{HealthHandler: &HealthHandler{}})

	resp := ts.get(t, apiPath("/metrics"))
	assertErrorResponse(t, resp, http.StatusNotFound)
}

func TestRouter_CustomBasePath(t *testing.T) {
	ts := newTestServer(t, RouterConfig{
		HealthHandler: &HealthHandler{},
		APIBasePath:   "v1/",
	})

	resp := ts.get(t, joinAPIPath("v1/", "health"))
	resp.Body.Close()
	assertStatus(t, resp, http.StatusOK)

	resp = ts.get(t, apiPath("/health"))
	assertErrorResponse(t, resp, http.StatusNotFound)
}

func TestAPIPathHelpers(t *testing.T) {
	assert.Equal(t, "", normalizeAPIBasePath("  "))
	assert.Equal(t, "/", normalizeAPIBasePath("/"))
	assert.Equal(t, "/api", normalizeAPIBasePath("api/"))
	assert.Equal(t, "/posts", joinAPIPath("", "posts"))
	assert.Equal(t, "/posts", joinAPIPath("/", "/posts"))
	assert.Equal(t, "/api/posts", joinAPIPath("/api/", "posts"))
}
