package repo

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	domainRepo "labsite/internal/domain/repo"
	"labsite/internal/pkg/collection"
)

const cacheName = "repos"

// Fetcher lists repositories from the upstream host.
type Fetcher interface {
	ListRepositories(ctx context.Context) ([]domainRepo.Entry, error)
}

// Snapshot is a fetched, annotated repository list and when it was fetched.
type Snapshot struct {
	Entries   []domainRepo.Entry `json:"entries"`
	FetchedAt time.Time          `json:"fetched_at"`
}

// SnapshotStore shares snapshots between processes.
type SnapshotStore interface {
	Get(ctx context.Context) (Snapshot, bool, error)
	Set(ctx context.Context, snapshot Snapshot) error
}

// CacheObserver records cache lookups ("hit", "shared", "miss", "error").
type CacheObserver interface {
	ObserveCacheLookup(cache, result string)
}

// ListResult represents query outcome.
type ListResult struct {
	Repos     []domainRepo.Entry `json:"repos"`
	Total     int                `json:"total"`
	FetchedAt time.Time          `json:"fetched_at"`
}

// Service lists annotated repositories through the source cache.
type Service struct {
	fetcher  Fetcher
	metadata domainRepo.MetadataTable
	cache    *SourceCache
	shared   SnapshotStore
	observer CacheObserver
	logger   *slog.Logger
}

// Option customizes a Service.
type Option func(*Service)

// WithSnapshotStore consults store before going upstream on a cold cache.
func WithSnapshotStore(store SnapshotStore) Option {
	return func(s *Service) { s.shared = store }
}

// WithObserver reports cache lookups to observer.
func WithObserver(observer CacheObserver) Option {
	return func(s *Service) { s.observer = observer }
}

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// NewService instantiates the service. A nil cache gets a fresh one with the
// default TTL.
func NewService(fetcher Fetcher, metadata domainRepo.MetadataTable, cache *SourceCache, opts ...Option) *Service {
	if cache == nil {
		cache = NewSourceCache(DefaultTTL, nil)
	}
	s := &Service{
		fetcher:  fetcher,
		metadata: metadata,
		cache:    cache,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns the page of repositories matching query, most recently
// updated first, and whether the data came from a cache.
func (s *Service) List(ctx context.Context, query domainRepo.ListQuery) (ListResult, bool, error) {
	snapshot, hit, err := s.load(ctx)
	if err != nil {
		return ListResult{}, false, err
	}
	result := collection.Run(snapshot.Entries, query.Spec())
	return ListResult{
		Repos:     result.Items,
		Total:     result.Total,
		FetchedAt: snapshot.FetchedAt,
	}, hit, nil
}

func (s *Service) load(ctx context.Context) (Snapshot, bool, error) {
	if entries, fetchedAt, ok := s.cache.Get(); ok {
		s.observe("hit")
		return Snapshot{Entries: entries, FetchedAt: fetchedAt}, true, nil
	}

	if s.shared != nil {
		snap, ok, err := s.shared.Get(ctx)
		switch {
		case err != nil:
			s.logDebug("shared repo snapshot lookup failed", err)
		case ok && s.cache.Fresh(snap.FetchedAt):
			s.cache.Replace(snap.Entries, snap.FetchedAt)
			s.observe("shared")
			return snap, true, nil
		}
	}

	s.observe("miss")
	snap, err := s.fetch(ctx)
	if err != nil {
		s.observe("error")
		return Snapshot{}, false, err
	}
	s.cache.Replace(snap.Entries, snap.FetchedAt)

	if s.shared != nil {
		if err := s.shared.Set(ctx, snap); err != nil {
			s.logDebug("shared repo snapshot store failed", err)
		}
	}
	return snap, false, nil
}

func (s *Service) fetch(ctx context.Context) (Snapshot, error) {
	if s.fetcher == nil {
		return Snapshot{}, fmt.Errorf("%w: no fetcher configured", domainRepo.ErrUpstream)
	}
	upstream, err := s.fetcher.ListRepositories(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: %w", domainRepo.ErrUpstream, err)
	}
	entries := make([]domainRepo.Entry, 0, len(upstream))
	for _, e := range upstream {
		entries = append(entries, s.metadata.Annotate(e))
	}
	if s.logger != nil {
		s.logger.Info("repositories fetched", "count", len(entries))
	}
	return Snapshot{Entries: entries, FetchedAt: s.cache.Now()}, nil
}

func (s *Service) observe(result string) {
	if s.observer != nil {
		s.observer.ObserveCacheLookup(cacheName, result)
	}
}

func (s *Service) logDebug(msg string, err error) {
	if s.logger == nil || err == nil {
		return
	}
	s.logger.Debug(msg, "error", err)
}
