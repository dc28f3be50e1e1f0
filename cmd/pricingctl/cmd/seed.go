package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Simplici0/estimator/internal/config"
	"github.com/Simplici0/estimator/internal/seed"
)

func newSeedCmd(opts *rootOptions) *cobra.Command {
	var file string

	c := &cobra.Command{
		Use:   "seed",
		Short: "Insert the pricing model and admin user where missing",
		Long: `Seed inserts project types, features, multiplier groups, meta settings
and discount codes that do not exist yet. Existing rows are left untouched.
Without --file the built-in default model is used. The admin user comes from
ADMIN_EMAIL and ADMIN_PASSWORD.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, _ := config.Load()
			seedCfg := seed.Config{AdminEmail: cfg.AdminEmail, AdminPassword: cfg.AdminPassword}
			if file != "" {
				model, err := seed.LoadFile(file)
				if err != nil {
					return err
				}
				seedCfg.Model = model
			}

			database, logger, err := opts.openDB(ctx)
			if err != nil {
				return err
			}
			defer database.Close()

			stats, err := seed.Run(ctx, database, seedCfg)
			if err != nil {
				return err
			}
			logger.Debug("seed completed", zap.Int("inserts", stats.Inserts))
			fmt.Fprintf(cmd.OutOrStdout(), "inserted %d rows\n", stats.Inserts)
			return nil
		},
	}

	c.Flags().StringVarP(&file, "file", "f", "", "YAML pricing model to seed")
	return c
}
