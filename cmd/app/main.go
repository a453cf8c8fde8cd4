package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"labsite/internal/infra/content"
	"labsite/internal/infra/external/github"
	"labsite/internal/infra/handler"
	infraPostgres "labsite/internal/infra/postgres"
	infraRedis "labsite/internal/infra/redis"
	"labsite/internal/pkg/timeutil"
	"labsite/internal/platform/cache"
	"labsite/internal/platform/config"
	"labsite/internal/platform/database"
	"labsite/internal/platform/logger"
	"labsite/internal/platform/metrics"
	"labsite/internal/platform/server"
	"labsite/internal/platform/telemetry"
	"labsite/internal/usecase/access"
	usecasePost "labsite/internal/usecase/post"
	usecaseRepo "labsite/internal/usecase/repo"
)

const serviceName = "labsite-api"

func main() {
	if err := run(context.Background()); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(logger.FromConfig(cfg.App, serviceName))
	sentryEnabled, err := telemetry.InitSentry(cfg.Sentry, serviceName)
	if err != nil {
		return err
	}
	if sentryEnabled {
		defer telemetry.Flush(2 * time.Second)
		defer telemetry.Recover()
		log = logger.WrapWithSentry(log)
	}
	logger.SetDefault(log)

	if err := timeutil.SetLocation(cfg.App.TimeZone); err != nil {
		return fmt.Errorf("set timezone: %w", err)
	}

	health := &handler.HealthHandler{}

	source, db, err := buildPostSource(ctx, cfg, log)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
		health.DB = db
	}

	postService, err := usecasePost.NewService(ctx, source, log)
	if err != nil {
		return fmt.Errorf("build post service: %w", err)
	}
	health.Posts = postService.Count

	var redisClient *cache.Cache
	if cfg.Redis.Enabled {
		redisClient, err = cache.New(ctx, cache.FromConfig(cfg.Redis), log)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Error("failed to close redis", "error", err)
			}
		}()
		health.Cache = redisClient
	}

	var httpMetrics *metrics.HTTPMetrics
	if cfg.App.EnableMetrics {
		httpMetrics = metrics.NewHTTPMetrics()
	}

	repoService, repoCache, err := buildRepoService(cfg, redisClient, httpMetrics, log)
	if err != nil {
		return err
	}
	health.RepoCache = repoCache.Warm
	if httpMetrics != nil {
		httpMetrics.WatchRecords("posts", postService.Count)
		httpMetrics.WatchSnapshotAge("repos", repoCache.FetchedAt, repoCache.Now)
	}

	accessService, err := access.NewService(cfg.Course.AccessCodes, cfg.Course.Name, log)
	if err != nil {
		return fmt.Errorf("build access service: %w", err)
	}
	if accessService.Len() == 0 {
		log.Warn("no course access codes configured; every code will be rejected")
	}

	routerCfg := handler.RouterConfig{
		PostHandler:   handler.NewPostHandler(postService),
		RepoHandler:   handler.NewRepoHandler(repoService),
		AccessHandler: handler.NewAccessHandler(accessService),
		HealthHandler: health,
		APIBasePath:   cfg.App.APIBasePath,
		Middlewares:   buildMiddlewares(cfg, redisClient, httpMetrics, log),
	}
	if httpMetrics != nil {
		routerCfg.PrometheusHandler = httpMetrics.Handler()
	}

	srv := server.New(server.FromConfig(cfg.Server), handler.NewRouter(routerCfg), log)

	return srv.ListenAndServeWithGracefulShutdown(ctx)
}

// buildPostSource selects the configured post source. The database is nil
// unless posts come from PostgreSQL.
func buildPostSource(ctx context.Context, cfg *config.Config, log *slog.Logger) (usecasePost.Source, *database.DB, error) {
	if cfg.Content.Source == config.ContentSourcePostgres {
		dbCfg := database.FromConfig(cfg.Database, cfg.App.TimeZone)
		dbCfg.ApplicationName = serviceName
		dbCfg.ReadOnly = true
		db, err := database.New(ctx, dbCfg, log)
		if err != nil {
			return nil, nil, fmt.Errorf("connect database: %w", err)
		}
		return infraPostgres.NewPostRepository(db.Pool), db, nil
	}
	posts, err := content.LoadPosts(cfg.Content.PostsPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load posts: %w", err)
	}
	return content.NewStaticPostSource(posts), nil, nil
}

func buildRepoService(cfg *config.Config, redisClient *cache.Cache, observer *metrics.HTTPMetrics, log *slog.Logger) (*usecaseRepo.Service, *usecaseRepo.SourceCache, error) {
	metadata, err := content.LoadRepoMetadata(cfg.Content.RepoMetadataPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load repo metadata: %w", err)
	}

	var fetcher usecaseRepo.Fetcher
	if cfg.GitHub.Owner() == "" {
		log.Warn("no GITHUB_ORG or GITHUB_USER configured; /repos will report upstream errors")
	} else {
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
			return nil, nil, fmt.Errorf("build github client: %w", err)
		}
		fetcher = client
	}

	sourceCache := usecaseRepo.NewSourceCache(cfg.GitHub.CacheTTL, nil)
	opts := []usecaseRepo.Option{usecaseRepo.WithLogger(log)}
	if redisClient != nil {
		opts = append(opts, usecaseRepo.WithSnapshotStore(
			infraRedis.NewRepoSnapshotStore(redisClient, cfg.GitHub.Owner(), cfg.GitHub.CacheTTL),
		))
	}
	if observer != nil {
		opts = append(opts, usecaseRepo.WithObserver(observer))
	}
	return usecaseRepo.NewService(fetcher, metadata, sourceCache, opts...), sourceCache, nil
}

func buildMiddlewares(cfg *config.Config, redisClient *cache.Cache, httpMetrics *metrics.HTTPMetrics, log *slog.Logger) []func(http.Handler) http.Handler {
	mws := []func(http.Handler) http.Handler{
		server.RequestLogger(log),
		server.Recoverer(log),
		server.CORS(),
		server.SecurityHeaders(),
	}
	if cfg.App.RateLimitEnabled && redisClient != nil {
		base := strings.TrimSuffix(cfg.App.APIBasePath, "/")
		mws = append(mws, server.RateLimit(server.RateLimitConfig{
			Counter: redisClient,
			Limit:   cfg.App.RateLimitMaxRequests,
			Window:  cfg.App.RateLimitWindow,
			Logger:  log,
			Skip:    server.SkipPaths(base+"/health", base+"/metrics"),
		}))
	}
	if httpMetrics != nil {
		mws = append(mws, httpMetrics.Middleware)
	}
	return mws
}
