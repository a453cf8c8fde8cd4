package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	domainPost "labsite/internal/domain/post"
	"labsite/internal/pkg/collection"
	usecasePost "labsite/internal/usecase/post"
)

// PostService is the subset of the post use case served over HTTP.
type PostService interface {
	List(ctx context.Context, query domainPost.ListQuery) (usecasePost.ListResult, error)
	Get(ctx context.Context, slug string) (*domainPost.Post, error)
	Facets(ctx context.Context, status collection.Optional[string]) usecasePost.Facets
}

// PostHandler serves blog post endpoints.
type PostHandler struct {
	service PostService
}

// NewPostHandler creates a PostHandler.
func NewPostHandler(service PostService) *PostHandler {
	return &PostHandler{service: service}
}

// RegisterRoutes attaches routes to the router.
func (h *PostHandler) RegisterRoutes(r chiRouter) {
	r.Get("/posts", h.handleList)
	r.Get("/posts/facets", h.handleFacets)
	r.Get("/posts/{slug}", h.handleGet)
}

type postListResponse struct {
	Posts  []*domainPost.Post `json:"posts"`
	Total  int                `json:"total"`
	Limit  *int               `json:"limit,omitempty"`
	Offset int                `json:"offset"`
}

func (h *PostHandler) handleList(w http.ResponseWriter, r *http.Request) {
	query := domainPost.ListQuery{
		Status:   readStatus(r),
		Category: readOptionalString(r, "category"),
		Tag:      readTag(r),
		Featured: readOptionalBool(r, "featured"),
		Search:   readOptionalString(r, "q"),
		Page:     readPage(r),
	}

	result, err := h.service.List(r.Context(), query)
	if err != nil {
		writeInternalError(w, r, err)
		return
	}
	posts := result.Posts
	if posts == nil {
		posts = []*domainPost.Post{}
	}
	writeJSON(w, http.StatusOK, postListResponse{
		Posts:  posts,
		Total:  result.Total,
		Limit:  query.Page.Limit.Ptr(),
		Offset: query.Page.Offset,
	})
}

func (h *PostHandler) handleFacets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Facets(r.Context(), readStatus(r)))
}

func (h *PostHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.Get(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		if errors.Is(err, domainPost.ErrNotFound) {
			writeError(w, http.StatusNotFound, domainPost.ErrNotFound)
			return
		}
		writeInternalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
