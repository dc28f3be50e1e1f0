package store

import (
	"context"
	"fmt"

	"github.com/Simplici0/estimator/internal/pricing"
)

// GetModel loads a validated pricing snapshot. Inactive rows are only
// included for admin tooling.
func (s *Store) GetModel(ctx context.Context, includeInactive bool) (*pricing.Model, error) {
	ptRecs, err := s.ListProjectTypes(ctx, includeInactive)
	if err != nil {
		return nil, err
	}
	featRecs, err := s.ListFeatures(ctx, includeInactive)
	if err != nil {
		return nil, err
	}
	groupRecs, err := s.ListMultiplierGroups(ctx, includeInactive)
	if err != nil {
		return nil, err
	}
	meta, err := s.GetMeta(ctx)
	if err != nil {
		return nil, err
	}

	projectTypes := make([]pricing.ProjectType, 0, len(ptRecs))
	for _, r := range ptRecs {
		projectTypes = append(projectTypes, r.ProjectType)
	}
	features := make([]pricing.Feature, 0, len(featRecs))
	for _, r := range featRecs {
		features = append(features, r.Feature)
	}
	groups := make([]pricing.MultiplierGroup, 0, len(groupRecs))
	for _, r := range groupRecs {
		groups = append(groups, r.Group())
	}

	model, err := pricing.NewModel(projectTypes, features, groups, meta)
	if err != nil {
		return nil, fmt.Errorf("build pricing model: %w", err)
	}
	return model, nil
}
