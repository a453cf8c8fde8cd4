package handler

import (
	"context"
	"net/http"
	"time"
)

// HealthChecker defines dependencies that can be health-checked.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// HealthHandler handles /health endpoint. Nil dependencies are not reported.
type HealthHandler struct {
	DB    HealthChecker
	Cache HealthChecker

	// Posts reports the number of loaded posts.
	Posts func() int
	// RepoCache reports whether the repository cache is warm. Informational.
	RepoCache func() bool
}

type healthComponent struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// ServeHTTP responds with dependency status.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	status := http.StatusOK
	components := []healthComponent{}

	check := func(name string, checker HealthChecker) {
		if checker == nil {
			return
		}
		if err := checker.HealthCheck(ctx); err != nil {
			status = http.StatusServiceUnavailable
			components = append(components, healthComponent{Name: name, Status: "unhealthy", Error: err.Error()})
			return
		}
		components = append(components, healthComponent{Name: name, Status: "healthy"})
	}
	check("database", h.DB)
	check("redis", h.Cache)

	body := map[string]any{
		"status":     statusLabel(status),
		"components": components,
		"checked_at": time.Now().UTC(),
	}
	if h.Posts != nil {
		body["posts"] = h.Posts()
	}
	if h.RepoCache != nil {
		if h.RepoCache() {
			body["repo_cache"] = "warm"
		} else {
			body["repo_cache"] = "cold"
		}
	}
	writeJSON(w, status, body)
}

func statusLabel(code int) string {
	if code == http.StatusOK {
		return "healthy"
	}
	return "unhealthy"
}
