package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"labsite/internal/platform/config"
)

func TestRun_UnknownCommand(t *testing.T) {
	require.Error(t, run(context.Background(), []string{"admin"}))
	require.Error(t, run(context.Background(), []string{"admin", "archive"}))
	require.Error(t, run(context.Background(), []string{"admin", "cache"}))
	require.Error(t, run(context.Background(), []string{"admin", "cache", "flush"}))
}

func TestParsePurgeFlags(t *testing.T) {
	_, err := parsePurgeFlags([]string{"--all"})
	require.EqualError(t, err, "--yes is required")

	opts, err := parsePurgeFlags([]string{"--yes"})
	require.NoError(t, err)
	assert.False(t, opts.all)
	assert.Equal(t, int64(500), opts.batchSize)

	opts, err = parsePurgeFlags([]string{"--yes", "--all", "--batch-size", "50"})
	require.NoError(t, err)
	assert.True(t, opts.all)
	assert.Equal(t, int64(50), opts.batchSize)

	_, err = parsePurgeFlags([]string{"--yes", "--batch-size", "0"})
	require.Error(t, err)
}

func TestPrintUsage(t *testing.T) {
	var buf bytes.Buffer
	printUsage(&buf)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[1], "admin cache purge")
	assert.Contains(t, lines[2], "admin cache warmup")
}

func TestRunCacheWarmup_RequiresConfirmation(t *testing.T) {
	err := runCacheWarmup(context.Background(), nil)
	require.EqualError(t, err, "--yes is required")
}

func TestNewWarmupService_RequiresOwner(t *testing.T) {
	cfg := &config.Config{GitHub: config.GitHubConfig{CacheTTL: time.Minute, Timeout: time.Second}}
	_, err := newWarmupService(cfg, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.Error(t, err)

	cfg.GitHub.Org = "health-lab"
	svc, err := newWarmupService(cfg, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	assert.NotNil(t, svc)
}
