package store

import (
	"context"
	"fmt"

	"github.com/Simplici0/estimator/internal/pricing"
)

// Estimate prices a selection against a fresh model snapshot. An unknown or
// inactive discount code is reported in the breakdown's warnings.
func (s *Store) Estimate(ctx context.Context, in pricing.Inputs, discountCode string, opts pricing.Options) (pricing.Breakdown, error) {
	if in.NumPages < 0 {
		return pricing.Breakdown{}, invalidf("numPages must be greater than or equal to 0")
	}

	model, err := s.GetModel(ctx, false)
	if err != nil {
		return pricing.Breakdown{}, err
	}

	code := pricing.NormalizeCode(discountCode)
	var discount *pricing.Discount
	if code != "" {
		if discount, err = s.LookupDiscount(ctx, code); err != nil {
			return pricing.Breakdown{}, err
		}
	}

	breakdown, err := pricing.Calculate(model, in, discount, opts)
	if err != nil {
		return pricing.Breakdown{}, err
	}
	if code != "" && discount == nil {
		breakdown.Warnings = append(breakdown.Warnings, fmt.Sprintf("discount code %q not found", code))
	}
	return breakdown, nil
}
