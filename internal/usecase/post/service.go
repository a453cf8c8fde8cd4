package post

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	domainPost "labsite/internal/domain/post"
	"labsite/internal/domain/tag"
	"labsite/internal/pkg/collection"
)

// Source provides the full post list. It is read once when the service is
// built.
type Source interface {
	ListAll(ctx context.Context) ([]*domainPost.Post, error)
}

// ListResult represents query outcome.
type ListResult struct {
	Posts []*domainPost.Post `json:"posts"`
	Total int                `json:"total"`
}

// Facets lists distinct categories and tags with their post counts.
type Facets struct {
	Categories []tag.Facet `json:"categories"`
	Tags       []tag.Facet `json:"tags"`
}

// Service answers post queries over an immutable in-memory snapshot.
type Service struct {
	posts  []*domainPost.Post
	bySlug map[string]*domainPost.Post
	logger *slog.Logger
}

// NewService loads all posts from source.
func NewService(ctx context.Context, source Source, logger *slog.Logger) (*Service, error) {
	if source == nil {
		return nil, fmt.Errorf("post source is required")
	}
	posts, err := source.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load posts: %w", err)
	}

	snapshot := make([]*domainPost.Post, 0, len(posts))
	bySlug := make(map[string]*domainPost.Post, len(posts))
	for _, p := range posts {
		if p == nil {
			continue
		}
		if _, dup := bySlug[p.Slug]; dup {
			return nil, fmt.Errorf("duplicate post slug %q", p.Slug)
		}
		bySlug[p.Slug] = p
		snapshot = append(snapshot, p)
	}

	if logger != nil {
		logger.Info("posts loaded", "count", len(snapshot))
	}
	return &Service{posts: snapshot, bySlug: bySlug, logger: logger}, nil
}

// List returns the page of posts matching query, newest first.
func (s *Service) List(_ context.Context, query domainPost.ListQuery) (ListResult, error) {
	result := collection.Run(s.posts, query.Spec())
	return ListResult{Posts: result.Items, Total: result.Total}, nil
}

// Get returns the post with the given slug.
func (s *Service) Get(_ context.Context, slug string) (*domainPost.Post, error) {
	key := strings.TrimSpace(slug)
	if key == "" {
		return nil, fmt.Errorf("%w: slug is required", domainPost.ErrNotFound)
	}
	p, ok := s.bySlug[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domainPost.ErrNotFound, key)
	}
	return p, nil
}

// Facets counts categories and tags across posts matching status. An absent
// status counts every post.
func (s *Service) Facets(_ context.Context, status collection.Optional[string]) Facets {
	matched := collection.Filter(s.posts,
		collection.Equals(status, func(p *domainPost.Post) string { return string(p.Status) }),
	)
	categories := tag.NewCounter()
	tags := tag.NewCounter()
	for _, p := range matched {
		categories.Add(p.Category)
		tags.Add(p.Tags...)
	}
	return Facets{
		Categories: categories.Facets(),
		Tags:       tags.Facets(),
	}
}

// Count returns the number of loaded posts.
func (s *Service) Count() int {
	return len(s.posts)
}
