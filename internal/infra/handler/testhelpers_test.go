package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"labsite/internal/platform/config"
	"labsite/internal/usecase/access"
)

// testServer is the full router behind a real listener, closed on cleanup.
type testServer struct {
	*httptest.Server
}

// newTestServer mounts the API under the default base path unless cfg sets one.
func newTestServer(t *testing.T, cfg RouterConfig) *testServer {
	t.Helper()
	if cfg.APIBasePath == "" {
		cfg.APIBasePath = config.DefaultAPIBasePath
	}
	srv := httptest.NewServer(NewRouter(cfg))
	t.Cleanup(srv.Close)
	return &testServer{Server: srv}
}

func (ts *testServer) get(t *testing.T, path string) *http.Response {
	return ts.send(t, http.MethodGet, path, nil)
}

func (ts *testServer) post(t *testing.T, path, body string) *http.Response {
	return ts.send(t, http.MethodPost, path, strings.NewReader(body))
}

func (ts *testServer) do(t *testing.T, method, path string) *http.Response {
	return ts.send(t, method, path, nil)
}

func (ts *testServer) send(t *testing.T, method, path string, body io.Reader) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, ts.URL+path, body)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := ts.Client().Do(req)
	require.NoError(t, err, "%s %s", method, path)
	return resp
}

func apiPath(route string) string {
	return joinAPIPath(config.DefaultAPIBasePath, route)
}

// decodeJSON reads and closes the body.
func decodeJSON(t *testing.T, resp *http.Response, dest any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dest))
}

func assertStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	assert.Equal(t, want, resp.StatusCode, "status for %s %s", resp.Request.Method, resp.Request.URL.Path)
}

func assertContentType(t *testing.T, resp *http.Response, want string) {
	t.Helper()
	got := resp.Header.Get("Content-Type")
	assert.True(t, strings.HasPrefix(got, want), "Content-Type = %q, want %q", got, want)
}

// assertErrorResponse checks the JSON error envelope and returns its message.
func assertErrorResponse(t *testing.T, resp *http.Response, wantStatus int) string {
	t.Helper()
	assertStatus(t, resp, wantStatus)
	assertContentType(t, resp, "application/json")

	var body errorResponse
	decodeJSON(t, resp, &body)
	assert.NotEmpty(t, body.Error, "error envelope without message")
	return body.Error
}

// stubHealthChecker returns err from HealthCheck.
type stubHealthChecker struct {
	err error
}

func (s *stubHealthChecker) HealthCheck(context.Context) error {
	return s.err
}

// stubAccessValidator accepts a single code.
type stubAccessValidator struct {
	code   string
	course string
	calls  int
}

func (s *stubAccessValidator) Validate(code string) access.Grant {
	s.calls++
	if strings.EqualFold(strings.TrimSpace(code), s.code) {
		return access.Grant{Valid: true, Course: s.course}
	}
	return access.Grant{}
}
