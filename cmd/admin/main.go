package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"time"

	domainRepo "labsite/internal/domain/repo"
	infraRedis "labsite/internal/infra/redis"
	"labsite/internal/platform/cache"
	"labsite/internal/platform/config"
	"labsite/internal/platform/logger"
	"labsite/internal/platform/telemetry"
)

func main() {
	if err := run(context.Background(), os.Args); err != nil {
		slog.Error("admin command failed", "error", err)
		os.Exit(1)
	}
}

type command struct {
	usage string
	run   func(ctx context.Context, args []string) error
}

// commands is keyed by "<group> <name>".
var commands = map[string]command{
	"cache purge":  {usage: "cache purge --yes [--all] [--batch-size N]", run: runCachePurge},
	"cache warmup": {usage: "cache warmup --yes", run: runCacheWarmup},
}

func run(ctx context.Context, args []string) error {
	if len(args) < 3 {
		printUsage(os.Stderr)
		return fmt.Errorf("missing command")
	}
	name := args[1] + " " + args[2]
	cmd, ok := commands[name]
	if !ok {
		printUsage(os.Stderr)
		return fmt.Errorf("unknown command: %s", name)
	}
	return cmd.run(ctx, args[3:])
}

func printUsage(w io.Writer) {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Fprintln(w, "usage:")
	for _, name := range names {
		fmt.Fprintf(w, "  admin %s\n", commands[name].usage)
	}
}

// newFlagSet returns a quiet flag set with the shared --yes guard.
func newFlagSet(name string) (*flag.FlagSet, *bool) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs, fs.Bool("yes", false, "required confirmation")
}

func parseConfirmed(fs *flag.FlagSet, yes *bool, args []string) error {
	if err := fs.Parse(args); err != nil {
		return err
	}
	if !*yes {
		return fmt.Errorf("--yes is required")
	}
	return nil
}

type purgeOptions struct {
	all       bool
	batchSize int64
}

func parsePurgeFlags(args []string) (purgeOptions, error) {
	fs, yes := newFlagSet("cache purge")
	var opts purgeOptions
	fs.BoolVar(&opts.all, "all", false, "purge snapshots of every owner, not just the configured one")
	fs.Int64Var(&opts.batchSize, "batch-size", 500, "SCAN batch size")
	if err := parseConfirmed(fs, yes, args); err != nil {
		return purgeOptions{}, err
	}
	if opts.batchSize <= 0 {
		return purgeOptions{}, fmt.Errorf("--batch-size must be positive")
	}
	return opts, nil
}

func runCachePurge(ctx context.Context, args []string) error {
	opts, err := parsePurgeFlags(args)
	if err != nil {
		return err
	}

	cfg, log, redisClient, closeAll, err := connect(ctx)
	if err != nil {
		return err
	}
	defer closeAll()

	if opts.all {
		deleted, err := redisClient.DeleteByPattern(ctx, infraRedis.RepoSnapshotKeyPattern, opts.batchSize)
		if err != nil {
			return err
		}
		log.Info("repo snapshots purged", "pattern", infraRedis.RepoSnapshotKeyPattern, "deleted", deleted)
		return nil
	}

	owner := cfg.GitHub.Owner()
	if owner == "" {
		return fmt.Errorf("GITHUB_ORG or GITHUB_USER is required without --all")
	}
	store := infraRedis.NewRepoSnapshotStore(redisClient, owner, cfg.GitHub.CacheTTL)
	if err := store.Purge(ctx); err != nil {
		return fmt.Errorf("purge snapshot: %w", err)
	}
	log.Info("repo snapshot purged", "owner", owner)
	return nil
}

func runCacheWarmup(ctx context.Context, args []string) error {
	fs, yes := newFlagSet("cache warmup")
	if err := parseConfirmed(fs, yes, args); err != nil {
		return err
	}

	cfg, log, redisClient, closeAll, err := connect(ctx)
	if err != nil {
		return err
	}
	defer closeAll()

	store := infraRedis.NewRepoSnapshotStore(redisClient, cfg.GitHub.Owner(), cfg.GitHub.CacheTTL)
	svc, err := newWarmupService(cfg, store, log)
	if err != nil {
		return err
	}
	result, hit, err := svc.List(ctx, domainRepo.ListQuery{})
	if err != nil {
		return fmt.Errorf("warm repo snapshot: %w", err)
	}
	log.Info("repo snapshot warmed", "repos", result.Total, "fetched_at", result.FetchedAt, "already_shared", hit)
	return nil
}

func connect(ctx context.Context) (*config.Config, *slog.Logger, *cache.Cache, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("load config: %w", err)
	}
	if !cfg.Redis.Enabled {
		return nil, nil, nil, nil, fmt.Errorf("redis is disabled (REDIS_ENABLED=false)")
	}

	sentryEnabled, err := telemetry.InitSentry(cfg.Sentry, "labsite-admin")
	if err != nil {
		return nil, nil, nil, nil, err
	}

	log := logger.New(logger.FromConfig(cfg.App, "labsite-admin"))
	if sentryEnabled {
		log = logger.WrapWithSentry(log)
	}
	logger.SetDefault(log)

	redisClient, err := cache.New(ctx, cache.FromConfig(cfg.Redis), log)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("connect redis: %w", err)
	}

	closeAll := func() {
		if err := redisClient.Close(); err != nil {
			log.Error("failed to close redis", "error", err)
		}
		if sentryEnabled {
			telemetry.Flush(2 * time.Second)
		}
	}
	return cfg, log, redisClient, closeAll, nil
}
