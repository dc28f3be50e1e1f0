package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Inputs represents the selection a client makes in the estimator.
type Inputs struct {
	ProjectTypeKey      string   `json:"projectTypeKey"`
	NumPages            int      `json:"numPages"`
	SelectedFeatureKeys []string `json:"selectedFeatureKeys"`
	ComplexityKey       string   `json:"complexityKey"`
	TimelineKey         string   `json:"timelineKey"`
	TechKey             string   `json:"techKey"`
	ClientTypeKey       string   `json:"clientTypeKey"`
}

// Options tunes how Calculate treats keys it cannot resolve.
type Options struct {
	// Strict turns ignored feature keys and unresolved multiplier keys into
	// ConfigurationErrors.
	Strict bool
}

// AppliedDiscount records a discount that passed its scope check.
type AppliedDiscount struct {
	Code     string       `json:"code"`
	Type     DiscountType `json:"discountType"`
	Amount   float64      `json:"amount"`
	Deducted float64      `json:"deducted"`
}

// Range is the confidence interval around the total.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Breakdown contains all intermediate and line-item values of an estimate.
type Breakdown struct {
	BaseCost             float64          `json:"baseCost"`
	PageCost             float64          `json:"pageCost"`
	TotalFeatureCost     float64          `json:"totalFeatureCost"`
	ComplexityMultiplier float64          `json:"complexityMultiplier"`
	TimelineMultiplier   float64          `json:"timelineMultiplier"`
	TechStackMultiplier  float64          `json:"techStackMultiplier"`
	ClientTypeMultiplier float64          `json:"clientTypeMultiplier"`
	Subtotal             float64          `json:"subtotal"`
	DiscountApplied      *AppliedDiscount `json:"discountApplied,omitempty"`
	MinimumApplied       bool             `json:"minimumApplied"`
	Total                float64          `json:"total"`
	Range                Range            `json:"range"`
	Currency             string           `json:"currency"`

	// Warnings lists keys that were ignored or defaulted.
	Warnings []string `json:"warnings,omitempty"`
}

// Calculate computes an estimate from the model, the client's selection and
// an optional discount. It has no side effects.
func Calculate(model *Model, in Inputs, discount *Discount, opts Options) (Breakdown, error) {
	if model == nil {
		return Breakdown{}, &ConfigurationError{Field: "model", Reason: "pricing model is not loaded"}
	}

	pt, ok := model.ProjectType(in.ProjectTypeKey)
	if !ok || !pt.Active {
		return Breakdown{}, &ConfigurationError{Field: "projectTypeKey", Key: in.ProjectTypeKey, Reason: "unknown project type"}
	}

	b := Breakdown{Currency: model.Meta.DefaultCurrency}

	numPages := in.NumPages
	if numPages < 0 {
		numPages = 0
	}
	b.BaseCost = pt.BaseRateILS
	b.PageCost = model.Meta.PageCostPerPage * float64(numPages)

	features := dedupe(in.SelectedFeatureKeys)
	for _, key := range features {
		f, ok := model.Feature(key)
		if !ok || !f.Active {
			if opts.Strict {
				return Breakdown{}, &ConfigurationError{Field: "selectedFeatureKeys", Key: key, Reason: "unknown feature"}
			}
			b.Warnings = append(b.Warnings, fmt.Sprintf("feature %q ignored", key))
			continue
		}
		b.TotalFeatureCost += f.DefaultCostILS
	}

	var err error
	if b.ComplexityMultiplier, err = resolveMultiplier(model, GroupComplexity, in.ComplexityKey, opts, &b); err != nil {
		return Breakdown{}, err
	}
	if b.TimelineMultiplier, err = resolveMultiplier(model, GroupTimeline, in.TimelineKey, opts, &b); err != nil {
		return Breakdown{}, err
	}
	if b.TechStackMultiplier, err = resolveMultiplier(model, GroupTech, in.TechKey, opts, &b); err != nil {
		return Breakdown{}, err
	}
	if b.ClientTypeMultiplier, err = resolveMultiplier(model, GroupClientType, in.ClientTypeKey, opts, &b); err != nil {
		return Breakdown{}, err
	}

	b.Subtotal = (b.BaseCost + b.PageCost + b.TotalFeatureCost) *
		b.ComplexityMultiplier * b.TimelineMultiplier * b.TechStackMultiplier * b.ClientTypeMultiplier

	discounted := b.Subtotal
	if discount != nil && discount.Validate() == nil {
		candidate := ScopeCandidate{
			ProjectTypeKey:      pt.Key,
			SelectedFeatureKeys: features,
			ClientTypeKey:       clientTypeKey(model, in.ClientTypeKey),
		}
		if MatchesScope(discount.AppliesTo, candidate) {
			discounted = discount.apply(b.Subtotal)
			b.DiscountApplied = &AppliedDiscount{
				Code:     discount.Code,
				Type:     discount.Type,
				Amount:   discount.Amount,
				Deducted: b.Subtotal - discounted,
			}
		}
	}

	total := discounted
	if min, ok := model.Meta.ProjectMinimums[pt.Key]; ok && min > total {
		total = min
		b.MinimumApplied = true
	}

	b.Total = roundCurrency(total)
	rp := model.Meta.RangePercent
	b.Range = Range{
		Min: roundCurrency(b.Total * (1 - rp)),
		Max: roundCurrency(b.Total * (1 + rp)),
	}

	return b, nil
}

func resolveMultiplier(model *Model, groupKey, optionKey string, opts Options, b *Breakdown) (float64, error) {
	g, ok := model.Group(groupKey)
	if !ok || !g.Active {
		if opts.Strict && optionKey != "" {
			return 0, &ConfigurationError{Field: groupKey, Key: optionKey, Reason: "unknown multiplier group"}
		}
		return 1, nil
	}

	if optionKey != "" {
		if opt, ok := g.Option(optionKey); ok {
			return opt.Value, nil
		}
		if opts.Strict {
			return 0, &ConfigurationError{Field: groupKey, Key: optionKey, Reason: "unknown multiplier option"}
		}
		b.Warnings = append(b.Warnings, fmt.Sprintf("%s option %q replaced by default", groupKey, optionKey))
	}

	if opt, ok := g.Option(g.DefaultOptionKey); ok {
		return opt.Value, nil
	}
	return 1, nil
}

// clientTypeKey is the option the client-type multiplier actually used, so
// scope rules see the defaulted key when the selection left it unset.
func clientTypeKey(model *Model, requested string) string {
	g, ok := model.Group(GroupClientType)
	if !ok || !g.Active {
		return requested
	}
	if _, ok := g.Option(requested); ok {
		return requested
	}
	return g.DefaultOptionKey
}

func dedupe(keys []string) []string {
	if len(keys) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}

// roundCurrency rounds to a whole currency unit, halves up.
func roundCurrency(v float64) float64 {
	rounded, _ := decimal.NewFromFloat(v).Round(0).Float64()
	return rounded
}
