package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/caarlos0/env/v10"

	"labsite/internal/platform/config"
	"labsite/internal/platform/logger"
	"labsite/internal/platform/migration"
)

// Config stores migration configuration values.
type Config struct {
	Database       config.DatabaseConfig
	MigrationsPath string `env:"MIGRATIONS_PATH" envDefault:"file://migrations"`
	LogLevel       string `env:"APP_LOG_LEVEL" envDefault:"info"`
}

func main() {
	if err := run(os.Args[1:], os.Stderr); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}
}

func run(args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("migrator", flag.ContinueOnError)
	fs.SetOutput(stderr)
	path := fs.String("path", "", "migrations source URL (overrides MIGRATIONS_PATH)")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: migrator [-path file://migrations] up|down|version|steps N|force N")
	}
	if err := fs.Parse(args); err != nil {
		return err
	}

	cmd, err := parseCommand(fs.Args())
	if err != nil {
		fs.Usage()
		return err
	}

	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	if *path != "" {
		cfg.MigrationsPath = *path
	}

	log := logger.New(logger.Config{
		Level:   logger.Level(cfg.LogLevel),
		Format:  logger.FormatText,
		Service: "labsite-migrator",
		Output:  stderr,
	})
	logger.SetDefault(log)

	runner, err := migration.New(migration.Config{
		DatabaseURL:    cfg.Database.ConnectionString(),
		MigrationsPath: cfg.MigrationsPath,
		Logger:         log,
		Verbose:        logger.Level(cfg.LogLevel) == logger.LevelDebug,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := runner.Close(); err != nil {
			log.Warn("close migration runner", "error", err)
		}
	}()

	return cmd.apply(runner, log)
}

type command struct {
	name string
	n    int
}

func parseCommand(args []string) (command, error) {
	if len(args) == 0 {
		return command{}, fmt.Errorf("missing command")
	}
	cmd := command{name: args[0]}
	switch cmd.name {
	case "up", "down", "version":
		if len(args) != 1 {
			return command{}, fmt.Errorf("%s takes no arguments", cmd.name)
		}
	case "steps", "force":
		if len(args) != 2 {
			return command{}, fmt.Errorf("%s requires a number", cmd.name)
		}
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return command{}, fmt.Errorf("%s: invalid number %q", cmd.name, args[1])
		}
		cmd.n = n
	default:
		return command{}, fmt.Errorf("unknown command: %s", cmd.name)
	}
	return cmd, nil
}

func (c command) apply(runner *migration.Runner, log *slog.Logger) error {
	switch c.name {
	case "up":
		return runner.Up()
	case "down":
		return runner.Down()
	case "steps":
		return runner.Steps(c.n)
	case "force":
		return runner.Force(c.n)
	default:
		version, dirty, err := runner.Version()
		if err != nil {
			return err
		}
		log.Info("migration version", "version", version, "dirty", dirty)
		return nil
	}
}
