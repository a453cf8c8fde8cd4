package redis

import (
	"context"
	"strings"
	"time"

	"labsite/internal/platform/cache"
	usecaseRepo "labsite/internal/usecase/repo"
)

const repoSnapshotKeyPrefix = "repos:snapshot:v1:"

// RepoSnapshotKeyPattern matches every stored repository snapshot.
const RepoSnapshotKeyPattern = repoSnapshotKeyPrefix + "*"

// RepoSnapshotStore shares the fetched repository list between API
// instances as snappy-compressed JSON.
type RepoSnapshotStore struct {
	codec *snappyJSON[usecaseRepo.Snapshot]
	key   string
}

// NewRepoSnapshotStore builds a store for one repository owner. Entries
// expire after ttl (default usecase TTL when ttl<=0).
func NewRepoSnapshotStore(client *cache.Cache, owner string, ttl time.Duration) *RepoSnapshotStore {
	return newRepoSnapshotStore(client, owner, ttl)
}

func newRepoSnapshotStore(client bytesCacheClient, owner string, ttl time.Duration) *RepoSnapshotStore {
	if ttl <= 0 {
		ttl = usecaseRepo.DefaultTTL
	}
	return &RepoSnapshotStore{
		codec: newSnappyJSON[usecaseRepo.Snapshot](client, ttl),
		key:   repoSnapshotKeyPrefix + sha256Hex(strings.ToLower(strings.TrimSpace(owner))),
	}
}

// Get loads the shared snapshot. A missing key is not an error.
func (s *RepoSnapshotStore) Get(ctx context.Context) (usecaseRepo.Snapshot, bool, error) {
	return s.codec.Get(ctx, s.key)
}

// Set replaces the shared snapshot.
func (s *RepoSnapshotStore) Set(ctx context.Context, snapshot usecaseRepo.Snapshot) error {
	return s.codec.Set(ctx, s.key, snapshot)
}

// Purge drops the shared snapshot so the next cold instance goes upstream.
func (s *RepoSnapshotStore) Purge(ctx context.Context) error {
	return s.codec.Delete(ctx, s.key)
}
