package github

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const repoJSON = `[
  {"name":"carebridge","full_name":"lab/carebridge","description":"Care coordination","html_url":"https://github.com/lab/carebridge",
   "homepage":null,"language":"Go","stargazers_count":12,"forks_count":3,"topics":["fhir","go"],
   "updated_at":"2025-03-01T10:00:00Z","pushed_at":"2025-03-02T10:00:00Z","archived":false},
  {"name":"legacy-hl7-bridge","full_name":"lab/legacy-hl7-bridge","description":null,"html_url":"https://github.com/lab/legacy-hl7-bridge",
   "language":null,"stargazers_count":0,"forks_count":0,"topics":[],"updated_at":"2023-01-01T00:00:00Z","archived":true}
]`

func TestListRepositoriesOrg(t *testing.T) {
	t.Parallel()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/orgs/health-lab/repos", r.URL.Path)
		require.Equal(t, "100", r.URL.Query().Get("per_page"))
		require.Equal(t, "1", r.URL.Query().Get("page"))
		require.Equal(t, "application/vnd.github+json", r.Header.Get("Accept"))
		require.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		require.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(repoJSON))
	}))
	defer server.Close()

	client, err := NewClient(Config{
		HTTPClient: server.Client(),
		BaseURL:    server.URL + "/",
		Org:        "health-lab",
		Token:      "secret",
		UserAgent:  "test-agent",
	})
	require.NoError(t, err)

	entries, err := client.ListRepositories(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 2)

	require.Equal(t, "carebridge", entries[0].Name)
	require.Equal(t, "lab/carebridge", entries[0].FullName)
	require.Equal(t, "https://github.com/lab/carebridge", entries[0].URL)
	require.Equal(t, "Go", entries[0].Language)
	require.Equal(t, 12, entries[0].Stars)
	require.Equal(t, []string{"fhir", "go"}, entries[0].Topics)
	require.Equal(t, "2025-03-02T10:00:00Z", entries[0].UpdatedAt)

	require.Equal(t, "", entries[1].Description)
	require.Equal(t, "archived", entries[1].Status)
	require.Equal(t, "2023-01-01T00:00:00Z", entries[1].UpdatedAt)
}

func TestListRepositoriesUserPaginates(t *testing.T) {
	t.Parallel()
	var pages []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/users/octo/repos", r.URL.Path)
		require.Empty(t, r.Header.Get("Authorization"))
		page := r.URL.Query().Get("page")
		pages = append(pages, page)
		if page == "1" {
			_, _ = fmt.Fprint(w, `[{"name":"a"},{"name":"b"}]`)
			return
		}
		_, _ = fmt.Fprint(w, `[{"name":"c"}]`)
	}))
	defer server.Close()

	client, err := NewClient(Config{HTTPClient: server.Client(), BaseURL: server.URL, User: "octo", PerPage: 2})
	require.NoError(t, err)

	entries, err := client.ListRepositories(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 3)
	require.Equal(t, []string{"1", "2"}, pages)
}

func TestListRepositoriesBadStatus(t *testing.T) {
	t.Parallel()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"API rate limit exceeded"}`, http.StatusForbidden)
	}))
	defer server.Close()

	client, err := NewClient(Config{HTTPClient: server.Client(), BaseURL: server.URL, Org: "lab"})
	require.NoError(t, err)

	_, err = client.ListRepositories(context.Background())
	require.Error(t, err)
	require.True(t, strings.Contains(err.Error(), "unexpected status 403"))
	require.Contains(t, err.Error(), "rate limit")
}

func TestListRepositoriesEmpty(t *testing.T) {
	t.Parallel()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client, err := NewClient(Config{HTTPClient: server.Client(), BaseURL: server.URL, Org: "lab"})
	require.NoError(t, err)

	entries, err := client.ListRepositories(context.Background())
	require.NoError(t, err)
	require.NotNil(t, entries)
	require.Empty(t, entries)
}

func TestNewClientOwnerValidation(t *testing.T) {
	_, err := NewClient(Config{})
	require.Error(t, err)
	_, err = NewClient(Config{Org: "a", User: "b"})
	require.Error(t, err)
}
