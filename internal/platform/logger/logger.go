// Package logger builds the process-wide slog logger: tint for terminals,
// JSON for log shippers, plus an optional Sentry forwarder for errors.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/lmittmann/tint"

	"labsite/internal/platform/config"
)

// Level represents log level
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Format represents log output format
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

const consoleTimeFormat = "15:04:05"

// Config holds logger configuration
type Config struct {
	Level  Level
	Format Format
	// Service is attached to every record when set.
	Service string
	// Output defaults to stdout.
	Output io.Writer
}

// FromConfig maps APP_LOG_LEVEL and APP_LOG_FORMAT onto a logger Config.
func FromConfig(app config.AppConfig, service string) Config {
	return Config{
		Level:   Level(app.LogLevel),
		Format:  Format(app.LogFormat),
		Service: service,
	}
}

// New creates a structured logger.
func New(cfg Config) *slog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	l := slog.New(newHandler(out, cfg.Format, parseLevel(cfg.Level)))
	if cfg.Service != "" {
		l = l.With("service", cfg.Service)
	}
	return l
}

func parseLevel(level Level) slog.Level {
	switch Level(strings.ToLower(string(level))) {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// newHandler picks JSON for FormatJSON and tint otherwise. Source locations
// are only recorded at debug level.
func newHandler(out io.Writer, format Format, level slog.Level) slog.Handler {
	withSource := level <= slog.LevelDebug
	if format == FormatJSON {
		return slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level, AddSource: withSource})
	}
	return tint.NewHandler(out, &tint.Options{
		Level:      level,
		TimeFormat: consoleTimeFormat,
		AddSource:  withSource,
	})
}

// SetDefault sets the default logger for the application
func SetDefault(l *slog.Logger) {
	slog.SetDefault(l)
}

type ctxKey struct{}

// IntoContext returns a copy of ctx carrying l.
func IntoContext(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// Lookup returns the logger stored by IntoContext.
func Lookup(ctx context.Context) (*slog.Logger, bool) {
	l, ok := ctx.Value(ctxKey{}).(*slog.Logger)
	return l, ok && l != nil
}

// FromContext returns the logger stored by IntoContext, or slog.Default.
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := Lookup(ctx); ok {
		return l
	}
	return slog.Default()
}
