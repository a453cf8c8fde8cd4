package main

import (
	"fmt"
	"log/slog"
	"net/http"

	"labsite/internal/infra/content"
	"labsite/internal/infra/external/github"
	"labsite/internal/platform/config"
	usecaseRepo "labsite/internal/usecase/repo"
)

// newWarmupService builds a repo service with a cold local cache so List
// either reuses a fresh shared snapshot or fetches and publishes a new one.
func newWarmupService(cfg *config.Config, store usecaseRepo.SnapshotStore, log *slog.Logger) (*usecaseRepo.Service, error) {
	if cfg.GitHub.Owner() == "" {
		return nil, fmt.Errorf("GITHUB_ORG or GITHUB_USER is required")
	}
	metadata, err := content.LoadRepoMetadata(cfg.Content.RepoMetadataPath)
	if err != nil {
		return nil, fmt.Errorf("load repo metadata: %w", err)
	}
	client, err := github.NewClient(github.Config{
		HTTPClient: &http.Client{Timeout: cfg.GitHub.Timeout},
		BaseURL:    cfg.GitHub.BaseURL,
		Org:        cfg.GitHub.Org,
		User:       cfg.GitHub.User,
		Token:      cfg.GitHub.Token,
		UserAgent:  cfg.GitHub.UserAgent,
		MaxPages:   cfg.GitHub.MaxPages,
	})
	if err != nil {
		return nil, fmt.Errorf("build github client: %w", err)
	}
	return usecaseRepo.NewService(client, metadata,
		usecaseRepo.NewSourceCache(cfg.GitHub.CacheTTL, nil),
		usecaseRepo.WithSnapshotStore(store),
		usecaseRepo.WithLogger(log),
	), nil
}
