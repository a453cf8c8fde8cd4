// Package content loads the site's static records: blog posts and the local
// repository metadata table. Both ship embedded in the binary as YAML and can
// be overridden by files on disk.
package content

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"labsite/internal/domain/post"
	"labsite/internal/domain/repo"
)

//go:embed data/*.yaml
var embedded embed.FS

const (
	postsFile        = "data/posts.yaml"
	repoMetadataFile = "data/repo_metadata.yaml"
)

type postDocument struct {
	Posts []postRecord `yaml:"posts"`
}

type postRecord struct {
	ID          string   `yaml:"id"`
	Slug        string   `yaml:"slug"`
	Title       string   `yaml:"title"`
	Excerpt     string   `yaml:"excerpt"`
	Author      string   `yaml:"author"`
	Category    string   `yaml:"category"`
	Status      string   `yaml:"status"`
	Tags        []string `yaml:"tags"`
	PublishedAt string   `yaml:"published_at"`
	ReadTime    int      `yaml:"read_time_minutes"`
	Image       string   `yaml:"image"`
}

type repoMetadataDocument struct {
	Repositories map[string]repo.Metadata `yaml:"repositories"`
}

// ParsePosts decodes and validates a posts document. Slugs must be unique.
func ParsePosts(data []byte) ([]*post.Post, error) {
	var doc postDocument
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return []*post.Post{}, nil
		}
		return nil, fmt.Errorf("decode posts: %w", err)
	}

	posts := make([]*post.Post, 0, len(doc.Posts))
	seen := make(map[string]int, len(doc.Posts))
	for i, rec := range doc.Posts {
		var id post.ID
		if rec.ID != "" {
			parsed, err := uuid.Parse(rec.ID)
			if err != nil {
				return nil, fmt.Errorf("post #%d: invalid id %q: %w", i+1, rec.ID, err)
			}
			id = parsed
		}
		p, err := post.New(post.Params{
			ID:          id,
			Slug:        rec.Slug,
			Title:       rec.Title,
			Excerpt:     rec.Excerpt,
			Author:      rec.Author,
			Category:    rec.Category,
			Status:      post.Status(rec.Status),
			Tags:        rec.Tags,
			PublishedAt: rec.PublishedAt,
			ReadTime:    rec.ReadTime,
			Image:       rec.Image,
		})
		if err != nil {
			return nil, fmt.Errorf("post #%d: %w", i+1, err)
		}
		if prev, dup := seen[p.Slug]; dup {
			return nil, fmt.Errorf("post #%d: duplicate slug %q (first seen at #%d)", i+1, p.Slug, prev)
		}
		seen[p.Slug] = i + 1
		posts = append(posts, p)
	}
	return posts, nil
}

// ParseRepoMetadata decodes a repository metadata document.
func ParseRepoMetadata(data []byte) (repo.MetadataTable, error) {
	var doc repoMetadataDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode repo metadata: %w", err)
	}
	if doc.Repositories == nil {
		return repo.MetadataTable{}, nil
	}
	return repo.MetadataTable(doc.Repositories), nil
}

// LoadPosts reads posts from path, or from the embedded content when path
// is empty.
func LoadPosts(path string) ([]*post.Post, error) {
	data, err := read(path, postsFile)
	if err != nil {
		return nil, err
	}
	return ParsePosts(data)
}

// LoadRepoMetadata reads the metadata table from path, or from the embedded
// content when path is empty.
func LoadRepoMetadata(path string) (repo.MetadataTable, error) {
	data, err := read(path, repoMetadataFile)
	if err != nil {
		return nil, err
	}
	return ParseRepoMetadata(data)
}

func read(path, fallback string) ([]byte, error) {
	if path == "" {
		data, err := embedded.ReadFile(fallback)
		if err != nil {
			return nil, fmt.Errorf("read embedded %s: %w", fallback, err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path) // #nosec G304 -- operator supplied content path
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

// StaticPostSource serves a fixed post list.
type StaticPostSource struct {
	posts []*post.Post
}

// NewStaticPostSource wraps posts. The slice is copied.
func NewStaticPostSource(posts []*post.Post) *StaticPostSource {
	cp := make([]*post.Post, len(posts))
	copy(cp, posts)
	return &StaticPostSource{posts: cp}
}

// ListAll returns every post in content order.
func (s *StaticPostSource) ListAll(context.Context) ([]*post.Post, error) {
	return s.posts, nil
}
