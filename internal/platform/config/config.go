package config

import (
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// DefaultAPIBasePath is the fallback base path for the HTTP API.
const DefaultAPIBasePath = "/api"

// Content sources.
const (
	ContentSourceEmbedded = "embedded"
	ContentSourcePostgres = "postgres"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Server ServerConfig

	// Content source configuration
	Content ContentConfig

	// Database configuration, used when Content.Source is postgres
	Database DatabaseConfig

	// Redis configuration
	Redis RedisConfig

	// GitHub repository showcase configuration
	GitHub GitHubConfig

	// Training course configuration
	Course CourseConfig

	// Application configuration
	App AppConfig

	// Sentry configuration
	Sentry SentryConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `env:"SERVER_HOST" envDefault:"0.0.0.0"`
	Port            int           `env:"SERVER_PORT" envDefault:"8080"`
	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"10s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"15s"`
	IdleTimeout     time.Duration `env:"SERVER_IDLE_TIMEOUT" envDefault:"60s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"20s"`
}

// Address returns the server address in host:port format
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// ContentConfig selects where posts and repository metadata come from.
// Empty paths use the copies embedded in the binary.
type ContentConfig struct {
	Source           string `env:"CONTENT_SOURCE" envDefault:"embedded"` // embedded or postgres
	PostsPath        string `env:"CONTENT_POSTS_PATH" envDefault:""`
	RepoMetadataPath string `env:"CONTENT_REPO_METADATA_PATH" envDefault:""`
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host            string        `env:"POSTGRES_HOST" envDefault:"localhost"`
	Port            int           `env:"POSTGRES_PORT" envDefault:"5432"`
	User            string        `env:"POSTGRES_USER" envDefault:"labsite"`
	Password        string        `env:"POSTGRES_PASSWORD" envDefault:"labsite"`
	Database        string        `env:"POSTGRES_DB" envDefault:"labsite"`
	SSLMode         string        `env:"POSTGRES_SSLMODE" envDefault:"disable"`
	MaxConns        int32         `env:"POSTGRES_MAX_CONNS" envDefault:"5"`
	MinConns        int32         `env:"POSTGRES_MIN_CONNS" envDefault:"1"`
	MaxConnLifetime time.Duration `env:"POSTGRES_MAX_CONN_LIFETIME" envDefault:"1h"`
	MaxConnIdleTime time.Duration `env:"POSTGRES_MAX_CONN_IDLE_TIME" envDefault:"30m"`
	ConnectTimeout  time.Duration `env:"POSTGRES_CONNECT_TIMEOUT" envDefault:"10s"`
}

// ConnectionString returns the PostgreSQL connection string in URL format.
// Credentials are escaped.
func (d DatabaseConfig) ConnectionString() string {
	u := url.URL{
		Scheme:   "postgresql",
		User:     url.UserPassword(d.User, d.Password),
		Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:     "/" + d.Database,
		RawQuery: "sslmode=" + url.QueryEscape(d.SSLMode) + "&connect_timeout=" + strconv.Itoa(int(d.ConnectTimeout.Seconds())),
	}
	return u.String()
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Enabled      bool          `env:"REDIS_ENABLED" envDefault:"false"`
	Host         string        `env:"REDIS_HOST" envDefault:"localhost"`
	Port         int           `env:"REDIS_PORT" envDefault:"6379"`
	Password     string        `env:"REDIS_PASSWORD" envDefault:""`
	DB           int           `env:"REDIS_DB" envDefault:"0"`
	KeyPrefix    string        `env:"REDIS_KEY_PREFIX" envDefault:"labsite:"`
	MaxRetries   int           `env:"REDIS_MAX_RETRIES" envDefault:"3"`
	DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT" envDefault:"3s"`
	PoolSize     int           `env:"REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`
}

// Address returns the Redis address in host:port format
func (r RedisConfig) Address() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// GitHubConfig configures the upstream repository listing.
type GitHubConfig struct {
	Org       string        `env:"GITHUB_ORG" envDefault:""`
	User      string        `env:"GITHUB_USER" envDefault:""`
	Token     string        `env:"GITHUB_TOKEN" envDefault:""` // #nosec G117
	BaseURL   string        `env:"GITHUB_API_BASE_URL" envDefault:"https://api.github.com"`
	Timeout   time.Duration `env:"GITHUB_API_TIMEOUT" envDefault:"10s"`
	UserAgent string        `env:"GITHUB_USER_AGENT" envDefault:"labsite-bot/1.0"`
	MaxPages  int           `env:"GITHUB_MAX_PAGES" envDefault:"5"`
	CacheTTL  time.Duration `env:"GITHUB_CACHE_TTL" envDefault:"5m"`
}

// Owner returns the configured org or user.
func (g GitHubConfig) Owner() string {
	if g.Org != "" {
		return g.Org
	}
	return g.User
}

// CourseConfig holds the training course access codes.
type CourseConfig struct {
	Name        string   `env:"COURSE_NAME" envDefault:"healthcare-ai-foundations"`
	AccessCodes []string `env:"COURSE_ACCESS_CODES" envSeparator:"," envDefault:""`
}

// AppConfig holds application-specific configuration
type AppConfig struct {
	LogLevel      string `env:"APP_LOG_LEVEL" envDefault:"info"`
	LogFormat     string `env:"APP_LOG_FORMAT" envDefault:"text"` // text or json
	TimeZone      string `env:"APP_TIMEZONE" envDefault:"UTC"`
	EnableMetrics bool   `env:"APP_ENABLE_METRICS" envDefault:"true"`
	APIBasePath   string `env:"APP_API_BASE_PATH" envDefault:"/api"`

	RateLimitEnabled     bool          `env:"APP_RATE_LIMIT_ENABLED" envDefault:"false"`
	RateLimitWindow      time.Duration `env:"APP_RATE_LIMIT_WINDOW" envDefault:"1m"`
	RateLimitMaxRequests int           `env:"APP_RATE_LIMIT_MAX_REQUESTS" envDefault:"120"`
}

// SentryConfig holds Sentry configuration
type SentryConfig struct {
	DSN         string `env:"SENTRY_DSN" envDefault:""`
	Environment string `env:"SENTRY_ENVIRONMENT" envDefault:""`
	Release     string `env:"SENTRY_RELEASE" envDefault:""`
}

// Load parses the environment and validates the result.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate checks every section and reports the first problem found.
func (c *Config) Validate() error {
	checks := []func() error{
		c.Server.validate,
		func() error { return c.Content.validate(c.Database) },
		c.Redis.validate,
		c.GitHub.validate,
		func() error { return c.App.validate(c.Redis) },
	}
	for _, check := range checks {
		if err := check(); err != nil {
			return err
		}
	}
	return nil
}

func (s ServerConfig) validate() error {
	if s.Port < 1 || s.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", s.Port)
	}
	return nil
}

func (c ContentConfig) validate(db DatabaseConfig) error {
	switch c.Source {
	case ContentSourceEmbedded:
		return nil
	case ContentSourcePostgres:
		return db.validate()
	default:
		return fmt.Errorf("invalid content source: %s (must be %s or %s)", c.Source, ContentSourceEmbedded, ContentSourcePostgres)
	}
}

func (d DatabaseConfig) validate() error {
	switch {
	case d.Host == "":
		return fmt.Errorf("database host is required")
	case d.User == "":
		return fmt.Errorf("database user is required")
	case d.Database == "":
		return fmt.Errorf("database name is required")
	case d.MaxConns < d.MinConns:
		return fmt.Errorf("database max connections (%d) must be >= min connections (%d)", d.MaxConns, d.MinConns)
	}
	return nil
}

func (r RedisConfig) validate() error {
	if !r.Enabled {
		return nil
	}
	if r.Host == "" {
		return fmt.Errorf("redis host is required")
	}
	if r.DB < 0 || r.DB > 15 {
		return fmt.Errorf("invalid redis database: %d (must be 0-15)", r.DB)
	}
	return nil
}

func (g GitHubConfig) validate() error {
	switch {
	case g.Org != "" && g.User != "":
		return fmt.Errorf("set either GITHUB_ORG or GITHUB_USER, not both")
	case g.CacheTTL <= 0:
		return fmt.Errorf("github cache ttl must be positive")
	case g.Timeout <= 0:
		return fmt.Errorf("github api timeout must be positive")
	}
	return nil
}

var (
	validLogLevels  = []string{"debug", "info", "warn", "error"}
	validLogFormats = []string{"text", "json"}
)

func (a AppConfig) validate(redis RedisConfig) error {
	if !slices.Contains(validLogLevels, a.LogLevel) {
		return fmt.Errorf("invalid log level: %s (must be one of %s)", a.LogLevel, strings.Join(validLogLevels, ", "))
	}
	if !slices.Contains(validLogFormats, a.LogFormat) {
		return fmt.Errorf("invalid log format: %s (must be text or json)", a.LogFormat)
	}
	if !strings.HasPrefix(a.APIBasePath, "/") {
		return fmt.Errorf("api base path must start with '/': %q", a.APIBasePath)
	}
	if !a.RateLimitEnabled {
		return nil
	}
	switch {
	case !redis.Enabled:
		return fmt.Errorf("rate limiting requires redis")
	case a.RateLimitWindow <= 0:
		return fmt.Errorf("rate limit window must be positive")
	case a.RateLimitMaxRequests <= 0:
		return fmt.Errorf("rate limit max requests must be positive")
	}
	return nil
}
