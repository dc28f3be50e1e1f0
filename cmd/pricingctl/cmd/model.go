package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Simplici0/estimator/internal/seed"
	"github.com/Simplici0/estimator/internal/store"
)

func newModelCmd(opts *rootOptions) *cobra.Command {
	var includeInactive bool

	c := &cobra.Command{
		Use:   "model",
		Short: "Print the pricing model as seed YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			database, _, err := opts.openDB(ctx)
			if err != nil {
				return err
			}
			defer database.Close()

			st := store.New(database)
			model, err := st.GetModel(ctx, includeInactive)
			if err != nil {
				return err
			}
			records, err := st.ListDiscounts(ctx)
			if err != nil {
				return err
			}
			discounts := make([]seed.Discount, 0, len(records))
			for _, r := range records {
				if !r.Active && !includeInactive {
					continue
				}
				active := r.Active
				discounts = append(discounts, seed.Discount{Discount: r.Discount, Active: &active})
			}

			out, err := seed.FromModel(model, discounts).Marshal()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}

	c.Flags().BoolVar(&includeInactive, "include-inactive", false, "include inactive entries")
	return c
}
