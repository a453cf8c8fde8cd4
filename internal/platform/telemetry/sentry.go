package telemetry

import (
	"fmt"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"

	"labsite/internal/platform/config"
)

const defaultSentryEnvironment = "production"

// InitSentry initializes Sentry and returns whether it is enabled. Events are
// tagged with service.
func InitSentry(cfg config.SentryConfig, service string) (bool, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return false, nil
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = defaultSentryEnvironment
	}

	if err := sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		Environment:      environment,
		Release:          strings.TrimSpace(cfg.Release),
		AttachStacktrace: true,
	}); err != nil {
		return false, fmt.Errorf("init sentry: %w", err)
	}
	if service != "" {
		sentry.ConfigureScope(func(scope *sentry.Scope) {
			scope.SetTag("service", service)
		})
	}
	return true, nil
}

// Flush waits for buffered events to be delivered.
func Flush(timeout time.Duration) {
	sentry.Flush(timeout)
}

// Recover captures a panic and reports it to Sentry.
func Recover() {
	sentry.Recover()
}
