// Package cmd provides the pricingctl commands.
package cmd

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Simplici0/estimator/internal/config"
	"github.com/Simplici0/estimator/internal/db"
	"github.com/Simplici0/estimator/internal/logging"
	"github.com/Simplici0/estimator/internal/migrations"
)

type rootOptions struct {
	dbPath  string
	verbose bool
}

// Execute runs the CLI.
func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "pricingctl",
		Short: "Operate the project estimator's pricing database",
		Long: `pricingctl migrates and seeds the pricing database, exports the
pricing model and computes estimates from the command line.

Examples:
  pricingctl migrate
  pricingctl seed --file pricing.yaml
  pricingctl model --include-inactive > pricing.yaml
  pricingctl estimate --project-type WEBSITE --pages 5 --feature blog`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&opts.dbPath, "db", "", "SQLite database path (default DB_PATH or ./dev.db)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newMigrateCmd(opts))
	root.AddCommand(newSeedCmd(opts))
	root.AddCommand(newModelCmd(opts))
	root.AddCommand(newEstimateCmd(opts))
	return root
}

func (o *rootOptions) logger() *zap.Logger {
	level := "warn"
	if o.verbose {
		level = "debug"
	}
	logger, err := logging.New(logging.Config{Level: level, Format: "console"})
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// openDB opens and migrates the database named by --db or the environment.
func (o *rootOptions) openDB(ctx context.Context) (*sql.DB, *zap.Logger, error) {
	path := o.dbPath
	if path == "" {
		cfg, _ := config.Load()
		path = cfg.DBPath
	}

	logger := o.logger()
	logger.Debug("opening database", zap.String("path", path))

	database, err := db.Open(ctx, path)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	if err := migrations.Up(ctx, database, logging.NewPrintfAdapter(logger)); err != nil {
		_ = database.Close()
		return nil, nil, fmt.Errorf("run migrations: %w", err)
	}
	return database, logger, nil
}
