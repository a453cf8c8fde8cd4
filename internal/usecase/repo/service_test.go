package repo

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	domainRepo "labsite/internal/domain/repo"
	"labsite/internal/pkg/collection"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type stubFetcher struct {
	entries []domainRepo.Entry
	err     error
	calls   int
}

func (f *stubFetcher) ListRepositories(ctx context.Context) ([]domainRepo.Entry, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.entries, nil
}

type stubSnapshotStore struct {
	snapshot Snapshot
	ok       bool
	getErr   error
	setErr   error
	getCalls int
	setCalls int
}

func (s *stubSnapshotStore) Get(ctx context.Context) (Snapshot, bool, error) {
	s.getCalls++
	return s.snapshot, s.ok, s.getErr
}

func (s *stubSnapshotStore) Set(ctx context.Context, snapshot Snapshot) error {
	s.setCalls++
	if s.setErr != nil {
		return s.setErr
	}
	s.snapshot = snapshot
	s.ok = true
	return nil
}

type recordingObserver struct {
	results []string
}

func (o *recordingObserver) ObserveCacheLookup(cache, result string) {
	o.results = append(o.results, cache+":"+result)
}

func upstreamEntries() []domainRepo.Entry {
	return []domainRepo.Entry{
		{Name: "vitals-watch", UpdatedAt: "2025-02-01T00:00:00Z", Topics: []string{"ios"}},
		{Name: "carebridge", UpdatedAt: "2025-03-01T00:00:00Z"},
		{Name: "scratch", UpdatedAt: "2024-01-01T00:00:00Z"},
	}
}

func testMetadata() domainRepo.MetadataTable {
	return domainRepo.MetadataTable{
		"carebridge":   {AppType: "web", Featured: true},
		"vitals-watch": {AppType: "mobile", Status: "beta"},
	}
}

func names(entries []domainRepo.Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Name)
	}
	return out
}

func TestListAnnotatesAndSorts(t *testing.T) {
	fetcher := &stubFetcher{entries: upstreamEntries()}
	svc := NewService(fetcher, testMetadata(), nil)

	out, hit, err := svc.List(context.Background(), domainRepo.ListQuery{})
	require.NoError(t, err)
	require.False(t, hit)
	require.Equal(t, []string{"carebridge", "vitals-watch", "scratch"}, names(out.Repos))
	require.Equal(t, 3, out.Total)
	require.True(t, out.Repos[0].Featured)
	require.Equal(t, "beta", out.Repos[1].Status)
	require.Equal(t, domainRepo.DefaultStatus, out.Repos[2].Status)

	out, hit, err = svc.List(context.Background(), domainRepo.ListQuery{
		AppType: collection.Some("mobile"),
	})
	require.NoError(t, err)
	require.True(t, hit)
	require.Equal(t, []string{"vitals-watch"}, names(out.Repos))
	require.Equal(t, 1, fetcher.calls)
}

func TestCacheTTLScenario(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	fetcher := &stubFetcher{entries: upstreamEntries()}
	cache := NewSourceCache(5*time.Minute, clock.Now)
	observer := &recordingObserver{}
	svc := NewService(fetcher, testMetadata(), cache, WithObserver(observer))
	ctx := context.Background()

	_, hit, err := svc.List(ctx, domainRepo.ListQuery{})
	require.NoError(t, err)
	require.False(t, hit)
	require.Equal(t, 1, fetcher.calls)
	warmAt := cache.FetchedAt()
	require.Equal(t, clock.Now(), warmAt)

	clock.Advance(4 * time.Minute)
	_, hit, err = svc.List(ctx, domainRepo.ListQuery{})
	require.NoError(t, err)
	require.True(t, hit)
	require.Equal(t, 1, fetcher.calls)
	require.Equal(t, warmAt, cache.FetchedAt())

	clock.Advance(2 * time.Minute)
	out, hit, err := svc.List(ctx, domainRepo.ListQuery{})
	require.NoError(t, err)
	require.False(t, hit)
	require.Equal(t, 2, fetcher.calls)
	require.Equal(t, clock.Now(), cache.FetchedAt())
	require.Equal(t, clock.Now(), out.FetchedAt)

	require.Equal(t, []string{"repos:miss", "repos:hit", "repos:miss"}, observer.results)
}

func TestFailedRefreshKeepsPreviousState(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	fetcher := &stubFetcher{err: errors.New("github: unexpected status 502")}
	cache := NewSourceCache(time.Minute, clock.Now)
	svc := NewService(fetcher, testMetadata(), cache)
	ctx := context.Background()

	_, _, err := svc.List(ctx, domainRepo.ListQuery{})
	require.Error(t, err)
	require.ErrorIs(t, err, domainRepo.ErrUpstream)
	require.ErrorContains(t, err, "unexpected status 502")
	require.False(t, cache.Warm())
	require.True(t, cache.FetchedAt().IsZero())

	fetcher.err = nil
	fetcher.entries = upstreamEntries()
	_, _, err = svc.List(ctx, domainRepo.ListQuery{})
	require.NoError(t, err)
	firstFill := cache.FetchedAt()

	clock.Advance(2 * time.Minute)
	fetcher.err = errors.New("network down")
	_, _, err = svc.List(ctx, domainRepo.ListQuery{})
	require.Error(t, err)
	require.Equal(t, firstFill, cache.FetchedAt())
	require.False(t, cache.Warm())
}

func TestSharedSnapshotStore(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	ctx := context.Background()

	t.Run("fresh shared snapshot avoids upstream", func(t *testing.T) {
		fetcher := &stubFetcher{entries: upstreamEntries()}
		store := &stubSnapshotStore{
			ok: true,
			snapshot: Snapshot{
				Entries:   []domainRepo.Entry{{Name: "from-redis", Status: "active"}},
				FetchedAt: clock.Now().Add(-time.Minute),
			},
		}
		cache := NewSourceCache(5*time.Minute, clock.Now)
		svc := NewService(fetcher, testMetadata(), cache, WithSnapshotStore(store))

		out, hit, err := svc.List(ctx, domainRepo.ListQuery{})
		require.NoError(t, err)
		require.True(t, hit)
		require.Equal(t, []string{"from-redis"}, names(out.Repos))
		require.Equal(t, 0, fetcher.calls)
		require.True(t, cache.Warm())
	})

	t.Run("stale shared snapshot is refreshed and written back", func(t *testing.T) {
		fetcher := &stubFetcher{entries: upstreamEntries()}
		store := &stubSnapshotStore{
			ok:       true,
			snapshot: Snapshot{FetchedAt: clock.Now().Add(-time.Hour)},
		}
		svc := NewService(fetcher, testMetadata(), NewSourceCache(5*time.Minute, clock.Now), WithSnapshotStore(store))

		_, hit, err := svc.List(ctx, domainRepo.ListQuery{})
		require.NoError(t, err)
		require.False(t, hit)
		require.Equal(t, 1, fetcher.calls)
		require.Equal(t, 1, store.setCalls)
		require.Len(t, store.snapshot.Entries, 3)
	})

	t.Run("store errors never fail the request", func(t *testing.T) {
		fetcher := &stubFetcher{entries: upstreamEntries()}
		store := &stubSnapshotStore{getErr: errors.New("redis down"), setErr: errors.New("redis down")}
		svc := NewService(fetcher, testMetadata(), NewSourceCache(5*time.Minute, clock.Now), WithSnapshotStore(store))

		out, _, err := svc.List(ctx, domainRepo.ListQuery{})
		require.NoError(t, err)
		require.Equal(t, 3, out.Total)
	})
}

func TestListWithoutFetcher(t *testing.T) {
	svc := NewService(nil, nil, nil)
	_, _, err := svc.List(context.Background(), domainRepo.ListQuery{})
	require.ErrorIs(t, err, domainRepo.ErrUpstream)
}

func TestSourceCacheReplaceCopies(t *testing.T) {
	cache := NewSourceCache(0, nil)
	require.Equal(t, DefaultTTL, cache.TTL())

	in := []domainRepo.Entry{{Name: "a"}}
	cache.Replace(in, time.Now())
	in[0].Name = "mutated"

	got, _, ok := cache.Get()
	require.True(t, ok)
	require.Equal(t, "a", got[0].Name)
}
