package handler

import (
	"context"
	"errors"
	"net/http"

	domainRepo "labsite/internal/domain/repo"
	usecaseRepo "labsite/internal/usecase/repo"
)

// cacheHeader tells clients whether /repos was answered without going
// upstream.
const cacheHeader = "X-Cache"

// RepoService lists annotated repositories. The bool reports a cache hit.
type RepoService interface {
	List(ctx context.Context, query domainRepo.ListQuery) (usecaseRepo.ListResult, bool, error)
}

// RepoHandler serves the project showcase.
type RepoHandler struct {
	service RepoService
}

// NewRepoHandler creates a RepoHandler.
func NewRepoHandler(service RepoService) *RepoHandler {
	return &RepoHandler{service: service}
}

// RegisterRoutes attaches routes to the router.
func (h *RepoHandler) RegisterRoutes(r chiRouter) {
	r.Get("/repos", h.handleList)
}

type repoListResponse struct {
	Repos  []domainRepo.Entry `json:"repos"`
	Total  int                `json:"total"`
	Limit  *int               `json:"limit,omitempty"`
	Offset int                `json:"offset"`
}

func (h *RepoHandler) handleList(w http.ResponseWriter, r *http.Request) {
	query := domainRepo.ListQuery{
		Status:   readStatus(r),
		Category: readOptionalString(r, "category"),
		AppType:  readOptionalString(r, "app_type", "type"),
		Topic:    readTag(r),
		Featured: readOptionalBool(r, "featured"),
		Page:     readPage(r),
	}

	result, hit, err := h.service.List(r.Context(), query)
	if err != nil {
		if errors.Is(err, domainRepo.ErrUpstream) {
			writeUpstreamError(w, r, err)
			return
		}
		writeInternalError(w, r, err)
		return
	}
	if hit {
		w.Header().Set(cacheHeader, "HIT")
	} else {
		w.Header().Set(cacheHeader, "MISS")
	}

	repos := result.Repos
	if repos == nil {
		repos = []domainRepo.Entry{}
	}
	writeJSON(w, http.StatusOK, repoListResponse{
		Repos:  repos,
		Total:  result.Total,
		Limit:  query.Page.Limit.Ptr(),
		Offset: query.Page.Offset,
	})
}
