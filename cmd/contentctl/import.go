package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/caarlos0/env/v10"
	"github.com/spf13/cobra"

	infraPostgres "labsite/internal/infra/postgres"
	"labsite/internal/platform/config"
	"labsite/internal/platform/database"
)

func newImportCmd(opts *rootOptions) *cobra.Command {
	var yes bool
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Upsert posts into PostgreSQL",
		Long: `Validate the posts file and upsert every post into the posts table,
keyed by slug. Connection settings come from the POSTGRES_* environment
variables used by the API.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			posts, _, err := opts.loadPosts(cmd.Context())
			if err != nil {
				return err
			}
			if dryRun {
				fmt.Fprintf(cmd.OutOrStdout(), "dry run: %d posts would be imported\n", len(posts))
				return nil
			}
			if !yes {
				return fmt.Errorf("--yes is required")
			}

			var dbCfg config.DatabaseConfig
			if err := env.Parse(&dbCfg); err != nil {
				return fmt.Errorf("parse database config: %w", err)
			}
			poolCfg := database.FromConfig(dbCfg, "")
			poolCfg.ApplicationName = "contentctl"
			log := slog.New(slog.NewTextHandler(io.Discard, nil))
			db, err := database.New(cmd.Context(), poolCfg, log)
			if err != nil {
				return fmt.Errorf("connect database: %w", err)
			}
			defer db.Close()

			locked, unlock, err := infraPostgres.TryAdvisoryLock(cmd.Context(), db.Pool, infraPostgres.ImportLockName)
			if err != nil {
				return err
			}
			if !locked {
				return fmt.Errorf("another import is running")
			}
			defer func() { _ = unlock(context.Background()) }()

			n, err := infraPostgres.NewPostRepository(db.Pool).Upsert(cmd.Context(), posts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d posts\n", n)
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "required confirmation")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "validate only")
	return cmd
}
