package post

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"labsite/internal/domain/tag"
	"labsite/internal/pkg/collection"
)

// ErrInvalidPost signals invalid post parameters.
var ErrInvalidPost = errors.New("invalid post")

// ErrNotFound is returned when no post matches the requested slug.
var ErrNotFound = errors.New("post not found")

// ID represents Post identifier.
type ID = uuid.UUID

// idNamespace derives stable post IDs from slugs when content omits them.
var idNamespace = uuid.MustParse("6f1c7a52-3d0e-4b8a-9f57-0c9a8e2d41b3")

// Status is the editorial state of a post.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
	StatusArchived  Status = "archived"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusPublished, StatusArchived:
		return true
	}
	return false
}

// Post is a blog article. Posts are loaded once and never mutated.
type Post struct {
	ID          ID       `json:"id" yaml:"id"`
	Slug        string   `json:"slug" yaml:"slug"`
	Title       string   `json:"title" yaml:"title"`
	Excerpt     string   `json:"excerpt" yaml:"excerpt"`
	Author      string   `json:"author" yaml:"author"`
	Category    string   `json:"category" yaml:"category"`
	Status      Status   `json:"status" yaml:"status"`
	Tags        []string `json:"tags" yaml:"tags"`
	PublishedAt string   `json:"published_at" yaml:"published_at"`
	ReadTime    int      `json:"read_time_minutes" yaml:"read_time_minutes"`
	Image       string   `json:"image,omitempty" yaml:"image"`
}

// Params represents the input values required to create a Post.
type Params struct {
	ID          ID
	Slug        string
	Title       string
	Excerpt     string
	Author      string
	Category    string
	Status      Status
	Tags        []string
	PublishedAt string
	ReadTime    int
	Image       string
}

// New creates a new Post after validating params.
func New(params Params) (*Post, error) {
	if err := validateParams(params); err != nil {
		return nil, err
	}

	slug := strings.TrimSpace(params.Slug)
	id := params.ID
	if id == uuid.Nil {
		id = uuid.NewSHA1(idNamespace, []byte(slug))
	}
	status := params.Status
	if status == "" {
		status = StatusPublished
	}

	return &Post{
		ID:          id,
		Slug:        slug,
		Title:       strings.TrimSpace(params.Title),
		Excerpt:     strings.TrimSpace(params.Excerpt),
		Author:      strings.TrimSpace(params.Author),
		Category:    strings.TrimSpace(params.Category),
		Status:      status,
		Tags:        tag.Normalize(params.Tags),
		PublishedAt: strings.TrimSpace(params.PublishedAt),
		ReadTime:    params.ReadTime,
		Image:       strings.TrimSpace(params.Image),
	}, nil
}

func validateParams(params Params) error {
	slug := strings.TrimSpace(params.Slug)
	if slug == "" {
		return fmt.Errorf("%w: slug is required", ErrInvalidPost)
	}
	if strings.ContainsAny(slug, " /?#") {
		return fmt.Errorf("%w: slug %q contains reserved characters", ErrInvalidPost, slug)
	}
	if strings.TrimSpace(params.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidPost)
	}
	if params.Status != "" && !params.Status.Valid() {
		return fmt.Errorf("%w: unsupported status %q", ErrInvalidPost, params.Status)
	}
	if params.ReadTime < 0 {
		return fmt.Errorf("%w: read time must be >= 0", ErrInvalidPost)
	}
	return nil
}

// IsFeatured reports whether the post carries the featured tag.
func (p *Post) IsFeatured() bool {
	for _, t := range p.Tags {
		if t == tag.Featured {
			return true
		}
	}
	return false
}

// ListQuery represents filters applied when listing posts.
type ListQuery struct {
	Status   collection.Optional[string]
	Category collection.Optional[string]
	Tag      collection.Optional[string]
	Featured collection.Optional[bool]
	Search   collection.Optional[string]
	Page     collection.Page
}

// Spec builds the collection pipeline for the query. Posts are ordered by
// PublishedAt, newest first.
func (q ListQuery) Spec() collection.Spec[*Post] {
	return collection.Spec[*Post]{
		Predicates: []collection.Predicate[*Post]{
			collection.Equals(q.Status, func(p *Post) string { return string(p.Status) }),
			collection.Equals(q.Category, func(p *Post) string { return p.Category }),
			collection.HasTag(q.Tag, func(p *Post) []string { return p.Tags }),
			collection.Flag(q.Featured, tag.Featured, func(p *Post) []string { return p.Tags }),
			collection.Contains(q.Search, func(p *Post) []string {
				return append([]string{p.Title, p.Excerpt, p.Author, p.Category}, p.Tags...)
			}),
		},
		DateKey: func(p *Post) string { return p.PublishedAt },
		Page:    q.Page,
	}
}
