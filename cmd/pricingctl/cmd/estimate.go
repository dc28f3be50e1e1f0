package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/Simplici0/estimator/internal/pricing"
	"github.com/Simplici0/estimator/internal/store"
)

type estimateOptions struct {
	inputs   pricing.Inputs
	discount string
	strict   bool
	format   string
}

func newEstimateCmd(opts *rootOptions) *cobra.Command {
	eo := &estimateOptions{}

	c := &cobra.Command{
		Use:   "estimate",
		Short: "Compute an estimate against the stored pricing model",
		Long: `Estimate runs the calculator with the current active pricing model.
Multiplier keys left empty use their group's default option.

Examples:
  pricingctl estimate --project-type WEBSITE --pages 5
  pricingctl estimate --project-type ECOMMERCE --feature payments --feature i18n --timeline rush --discount WELCOME10
  pricingctl estimate --project-type WEBSITE --format json --strict`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch eo.format {
			case "table", "json":
			default:
				return fmt.Errorf("unsupported format %q (want table or json)", eo.format)
			}
			if eo.inputs.NumPages < 0 {
				return fmt.Errorf("--pages must be greater than or equal to 0")
			}

			ctx := cmd.Context()
			database, _, err := opts.openDB(ctx)
			if err != nil {
				return err
			}
			defer database.Close()

			breakdown, err := store.New(database).Estimate(ctx, eo.inputs, eo.discount, pricing.Options{Strict: eo.strict})
			if err != nil {
				return err
			}

			if eo.format == "json" {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(breakdown)
			}
			return printBreakdown(cmd.OutOrStdout(), breakdown)
		},
	}

	f := c.Flags()
	f.StringVarP(&eo.inputs.ProjectTypeKey, "project-type", "p", "", "project type key")
	f.IntVar(&eo.inputs.NumPages, "pages", 0, "number of pages")
	f.StringSliceVar(&eo.inputs.SelectedFeatureKeys, "feature", nil, "feature key (repeatable)")
	f.StringVar(&eo.inputs.ComplexityKey, "complexity", "", "complexity option key")
	f.StringVar(&eo.inputs.TimelineKey, "timeline", "", "timeline option key")
	f.StringVar(&eo.inputs.TechKey, "tech", "", "tech stack option key")
	f.StringVar(&eo.inputs.ClientTypeKey, "client-type", "", "client type option key")
	f.StringVar(&eo.discount, "discount", "", "discount code")
	f.BoolVar(&eo.strict, "strict", false, "fail on unknown feature or option keys")
	f.StringVarP(&eo.format, "format", "f", "table", "output format (table, json)")
	_ = c.MarkFlagRequired("project-type")
	return c
}

func money(v float64, currency string) string {
	return decimal.NewFromFloat(v).StringFixed(2) + " " + currency
}

func multiplier(v float64) string {
	return "x" + decimal.NewFromFloat(v).String()
}

func printBreakdown(w io.Writer, b pricing.Breakdown) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	row := func(label, value string) {
		fmt.Fprintf(tw, "%s\t%s\t\n", label, value)
	}

	row("Base", money(b.BaseCost, b.Currency))
	row("Pages", money(b.PageCost, b.Currency))
	row("Features", money(b.TotalFeatureCost, b.Currency))
	row("Complexity", multiplier(b.ComplexityMultiplier))
	row("Timeline", multiplier(b.TimelineMultiplier))
	row("Tech stack", multiplier(b.TechStackMultiplier))
	row("Client type", multiplier(b.ClientTypeMultiplier))
	row("Subtotal", money(b.Subtotal, b.Currency))
	if d := b.DiscountApplied; d != nil {
		row("Discount "+d.Code, "-"+money(d.Deducted, b.Currency))
	}
	if b.MinimumApplied {
		row("Project minimum", "applied")
	}
	row("Total", money(b.Total, b.Currency))
	row("Range", money(b.Range.Min, b.Currency)+" - "+money(b.Range.Max, b.Currency))
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(b.Warnings) > 0 {
		fmt.Fprintf(w, "\nwarnings:\n  %s\n", strings.Join(b.Warnings, "\n  "))
	}
	return nil
}
