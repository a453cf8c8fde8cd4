// Package migration applies the SQL files under migrations/ to the
// PostgreSQL post store with golang-migrate.
package migration

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// Config holds migration configuration.
type Config struct {
	DatabaseURL string
	// MigrationsPath is a source URL such as "file://migrations".
	MigrationsPath string
	Logger         *slog.Logger
	// Verbose forwards golang-migrate's per-file progress at debug level.
	Verbose bool
}

// Runner applies migrations.
type Runner struct {
	migrate *migrate.Migrate
	logger  *slog.Logger
}

// New opens the migration source and database.
func New(cfg Config) (*Runner, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	m, err := migrate.New(cfg.MigrationsPath, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open migrations %s: %w", cfg.MigrationsPath, err)
	}
	m.Log = migrateLogger{logger: logger, verbose: cfg.Verbose}
	return &Runner{migrate: m, logger: logger}, nil
}

// Up applies every pending migration.
func (r *Runner) Up() error {
	if err := r.migrate.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}
	return r.logVersion("migrations applied")
}

// Down rolls back one migration.
func (r *Runner) Down() error {
	return r.Steps(-1)
}

// Steps applies n migrations, rolling back when n is negative.
func (r *Runner) Steps(n int) error {
	if n == 0 {
		return nil
	}
	if err := r.migrate.Steps(n); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate steps %d: %w", n, err)
	}
	return r.logVersion("migration steps applied", "steps", n)
}

// Force records version as applied and clears the dirty flag without
// running any SQL.
func (r *Runner) Force(version int) error {
	if err := r.migrate.Force(version); err != nil {
		return fmt.Errorf("migrate force %d: %w", version, err)
	}
	return r.logVersion("migration version forced")
}

// Version returns the applied version, zero when nothing has been applied.
func (r *Runner) Version() (version uint, dirty bool, err error) {
	version, dirty, err = r.migrate.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("read migration version: %w", err)
	}
	return version, dirty, nil
}

// Close releases the source and database handles.
func (r *Runner) Close() error {
	srcErr, dbErr := r.migrate.Close()
	return errors.Join(srcErr, dbErr)
}

func (r *Runner) logVersion(msg string, args ...any) error {
	version, dirty, err := r.Version()
	if err != nil {
		return err
	}
	r.logger.Info(msg, append(args, "version", version, "dirty", dirty)...)
	return nil
}

// migrateLogger adapts slog to migrate.Logger.
type migrateLogger struct {
	logger  *slog.Logger
	verbose bool
}

func (l migrateLogger) Printf(format string, v ...interface{}) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, v...)), "component", "migrate")
}

func (l migrateLogger) Verbose() bool {
	return l.verbose
}
