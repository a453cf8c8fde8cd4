package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainRepo "labsite/internal/domain/repo"
	usecaseRepo "labsite/internal/usecase/repo"
)

type stubRepoService struct {
	result    usecaseRepo.ListResult
	hit       bool
	err       error
	lastQuery domainRepo.ListQuery
}

func (s *stubRepoService) List(_ context.Context, query domainRepo.ListQuery) (usecaseRepo.ListResult, bool, error) {
	s.lastQuery = query
	return s.result, s.hit, s.err
}

type stubRepoFetcher struct {
	entries []domainRepo.Entry
	calls   int
}

func (f *stubRepoFetcher) ListRepositories(context.Context) ([]domainRepo.Entry, error) {
	f.calls++
	return f.entries, nil
}

func TestRepoHandler_CacheHeader(t *testing.T) {
	fetcher := &stubRepoFetcher{entries: []domainRepo.Entry{
		{Name: "triage-bot", UpdatedAt: "2024-05-01T00:00:00Z", Topics: []string{"nlp"}},
		{Name: "ecg-viewer", UpdatedAt: "2024-06-01T00:00:00Z"},
	}}
	metadata := domainRepo.MetadataTable{"triage-bot": {AppType: "chatbot", Featured: true}}
	svc := usecaseRepo.NewService(fetcher, metadata, nil)

	ts := newTestServer(t, RouterConfig{RepoHandler: NewRepoHandler(svc)})

	resp := ts.get(t, apiPath("/repos"))
	assertStatus(t, resp, http.StatusOK)
	assert.Equal(t, "MISS", resp.Header.Get("X-Cache"))

	var body repoListResponse
	decodeJSON(t, resp, &body)
	require.Len(t, body.Repos, 2)
	assert.Equal(t, "ecg-viewer", body.Repos[0].Name)
	assert.Equal(t, 2, body.Total)

	resp = ts.get(t, apiPath("/repos?featured=true"))
	assertStatus(t, resp, http.StatusOK)
	assert.Equal(t, "HIT", resp.Header.Get("X-Cache"))
	decodeJSON(t, resp, &body)
	require.Len(t, body.Repos, 1)
	assert.Equal(t, "triage-bot", body.Repos[0].Name)
	assert.Equal(t, "chatbot", body.Repos[0].AppType)

	assert.Equal(t, 1, fetcher.calls)
}

func TestRepoHandler_QueryParsing(t *testing.T) {
	stub := &stubRepoService{result: usecaseRepo.ListResult{Total: 0}}
	ts := newTestServer(t, RouterConfig{RepoHandler: NewRepoHandler(stub)})

	resp := ts.get(t, apiPath("/repos?status=active&category=clinical&app_type=dashboard&tag=vision&featured=false&limit=5&offset=2"))
	assertStatus(t, resp, http.StatusOK)

	var body repoListResponse
	decodeJSON(t, resp, &body)
	assert.Equal(t, []domainRepo.Entry{}, body.Repos)
	require.NotNil(t, body.Limit)
	assert.Equal(t, 5, *body.Limit)
	assert.Equal(t, 2, body.Offset)

	q := stub.lastQuery
	assert.Equal(t, "active", q.Status.OrElse(""))
	assert.Equal(t, "clinical", q.Category.OrElse(""))
	assert.Equal(t, "dashboard", q.AppType.OrElse(""))
	assert.Equal(t, "vision", q.Topic.OrElse(""))
	featured, ok := q.Featured.Get()
	assert.True(t, ok)
	assert.False(t, featured)

	resp = ts.get(t, apiPath("/repos?status=all&topic=ml&limit=x"))
	resp.Body.Close()
	q = stub.lastQuery
	assert.False(t, q.Status.IsSet())
	assert.Equal(t, "ml", q.Topic.OrElse(""))
	assert.False(t, q.Page.Limit.IsSet())
	assert.False(t, q.Featured.IsSet())
}

func TestRepoHandler_UpstreamFailure(t *testing.T) {
	upstreamErr := errors.New("github: unexpected status 502")
	stub := &stubRepoService{err: errors.Join(domainRepo.ErrUpstream, upstreamErr)}
	ts := newTestServer(t, RouterConfig{RepoHandler: NewRepoHandler(stub)})

	resp := ts.get(t, apiPath("/repos"))
	assert.Empty(t, resp.Header.Get("X-Cache"))
	msg := assertErrorResponse(t, resp, http.StatusInternalServerError)
	assert.Contains(t, msg, "unexpected status 502")
}

func TestRepoHandler_InternalFailureHidesCause(t *testing.T) {
	stub := &stubRepoService{err: errors.New("boom")}
	ts := newTestServer(t, RouterConfig{RepoHandler: NewRepoHandler(stub)})

	resp := ts.get(t, apiPath("/repos"))
	msg := assertErrorResponse(t, resp, http.StatusInternalServerError)
	assert.Equal(t, errInternal.Error(), msg)
}
