package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"labsite/internal/domain/post"
)

// PostRepository reads and writes posts in PostgreSQL.
type PostRepository struct {
	pool *pgxpool.Pool
}

// NewPostRepository creates a new PostRepository.
func NewPostRepository(pool *pgxpool.Pool) *PostRepository {
	return &PostRepository{pool: pool}
}

// ListAll returns every stored post. Ordering is left to the query engine.
func (r *PostRepository) ListAll(ctx context.Context) ([]*post.Post, error) {
	const query = `
SELECT id, slug, title, COALESCE(excerpt, ''), COALESCE(author, ''), COALESCE(category, ''),
       status, tags, COALESCE(published_at, ''), read_time_minutes, COALESCE(image, '')
FROM posts
ORDER BY slug`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	posts := []*post.Post{}
	for rows.Next() {
		var (
			params post.Params
			status string
		)
		if err := rows.Scan(
			&params.ID,
			&params.Slug,
			&params.Title,
			&params.Excerpt,
			&params.Author,
			&params.Category,
			&status,
			&params.Tags,
			&params.PublishedAt,
			&params.ReadTime,
			&params.Image,
		); err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		params.Status = post.Status(status)
		p, err := post.New(params)
		if err != nil {
			return nil, fmt.Errorf("post %q: %w", params.Slug, err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate posts: %w", err)
	}
	return posts, nil
}

// Upsert inserts posts or updates them by slug in one transaction.
func (r *PostRepository) Upsert(ctx context.Context, posts []*post.Post) (int, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	const query = `
INSERT INTO posts (id, slug, title, excerpt, author, category, status, tags, published_at, read_time_minutes, image)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (slug) DO UPDATE SET
    title = EXCLUDED.title,
    excerpt = EXCLUDED.excerpt,
    author = EXCLUDED.author,
    category = EXCLUDED.category,
    status = EXCLUDED.status,
    tags = EXCLUDED.tags,
    published_at = EXCLUDED.published_at,
    read_time_minutes = EXCLUDED.read_time_minutes,
    image = EXCLUDED.image,
    updated_at = NOW()`

	written := 0
	for _, p := range posts {
		if p == nil {
			continue
		}
		tags := p.Tags
		if tags == nil {
			tags = []string{}
		}
		if _, err := tx.Exec(ctx, query,
			p.ID,
			p.Slug,
			p.Title,
			nullableString(p.Excerpt),
			nullableString(p.Author),
			nullableString(p.Category),
			string(p.Status),
			tags,
			nullableString(p.PublishedAt),
			p.ReadTime,
			nullableString(p.Image),
		); err != nil {
			return written, fmt.Errorf("upsert post %q: %w", p.Slug, err)
		}
		written++
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit tx: %w", err)
	}
	return written, nil
}

func nullableString(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}
