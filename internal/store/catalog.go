package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/Simplici0/estimator/internal/pricing"
)

// ProjectTypeRecord is a stored project type.
type ProjectTypeRecord struct {
	ID int64 `json:"id"`
	pricing.ProjectType
}

// FeatureRecord is a stored feature.
type FeatureRecord struct {
	ID int64 `json:"id"`
	pricing.Feature
}

func validateProjectType(pt pricing.ProjectType) error {
	if err := requireKey("key", pt.Key); err != nil {
		return err
	}
	return requireNonNegative("baseRateIls", pt.BaseRateILS)
}

func validateFeature(f pricing.Feature) error {
	if err := requireKey("key", f.Key); err != nil {
		return err
	}
	return requireNonNegative("defaultCostIls", f.DefaultCostILS)
}

// ListProjectTypes returns project types by configured order.
func (s *Store) ListProjectTypes(ctx context.Context, includeInactive bool) ([]ProjectTypeRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, key, display_name, base_rate_ils, sort_order, active
		FROM project_types
		WHERE (? OR active = 1)
		ORDER BY sort_order, id
	`, includeInactive)
	if err != nil {
		return nil, fmt.Errorf("query project types: %w", err)
	}
	defer rows.Close()

	out := make([]ProjectTypeRecord, 0)
	for rows.Next() {
		var r ProjectTypeRecord
		if err := rows.Scan(&r.ID, &r.Key, &r.DisplayName, &r.BaseRateILS, &r.Order, &r.Active); err != nil {
			return nil, fmt.Errorf("scan project type: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate project types: %w", err)
	}
	return out, nil
}

// CreateProjectType inserts a project type.
func (s *Store) CreateProjectType(ctx context.Context, pt pricing.ProjectType) (ProjectTypeRecord, error) {
	pt.Key = strings.TrimSpace(pt.Key)
	if err := validateProjectType(pt); err != nil {
		return ProjectTypeRecord{}, err
	}
	pt.DisplayName = displayNameOr(pt.DisplayName, pt.Key)

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO project_types (key, display_name, base_rate_ils, sort_order, active)
		VALUES (?, ?, ?, ?, ?)
	`, pt.Key, pt.DisplayName, pt.BaseRateILS, pt.Order, pt.Active)
	if err != nil {
		return ProjectTypeRecord{}, mapWriteError(err, "create project type")
	}
	id, err := result.LastInsertId()
	if err != nil {
		return ProjectTypeRecord{}, fmt.Errorf("create project type: %w", err)
	}
	return ProjectTypeRecord{ID: id, ProjectType: pt}, nil
}

// UpdateProjectType replaces every field of a project type.
func (s *Store) UpdateProjectType(ctx context.Context, id int64, pt pricing.ProjectType) error {
	pt.Key = strings.TrimSpace(pt.Key)
	if err := validateProjectType(pt); err != nil {
		return err
	}
	result, err := s.db.ExecContext(ctx, `
		UPDATE project_types
		SET
			key = ?,
			display_name = ?,
			base_rate_ils = ?,
			sort_order = ?,
			active = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, pt.Key, displayNameOr(pt.DisplayName, pt.Key), pt.BaseRateILS, pt.Order, pt.Active, id)
	return checkAffected(result, err, "update project type")
}

// DeleteProjectType removes a project type.
func (s *Store) DeleteProjectType(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, "project type", id)
}

// SetProjectTypeActive toggles a project type.
func (s *Store) SetProjectTypeActive(ctx context.Context, id int64, active bool) error {
	return s.setActive(ctx, "project type", id, active)
}

// ListFeatures returns features by configured order.
func (s *Store) ListFeatures(ctx context.Context, includeInactive bool) ([]FeatureRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, key, display_name, default_cost_ils, sort_order, active
		FROM features
		WHERE (? OR active = 1)
		ORDER BY sort_order, id
	`, includeInactive)
	if err != nil {
		return nil, fmt.Errorf("query features: %w", err)
	}
	defer rows.Close()

	out := make([]FeatureRecord, 0)
	for rows.Next() {
		var r FeatureRecord
		if err := rows.Scan(&r.ID, &r.Key, &r.DisplayName, &r.DefaultCostILS, &r.Order, &r.Active); err != nil {
			return nil, fmt.Errorf("scan feature: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate features: %w", err)
	}
	return out, nil
}

// CreateFeature inserts a feature.
func (s *Store) CreateFeature(ctx context.Context, f pricing.Feature) (FeatureRecord, error) {
	f.Key = strings.TrimSpace(f.Key)
	if err := validateFeature(f); err != nil {
		return FeatureRecord{}, err
	}
	f.DisplayName = displayNameOr(f.DisplayName, f.Key)

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO features (key, display_name, default_cost_ils, sort_order, active)
		VALUES (?, ?, ?, ?, ?)
	`, f.Key, f.DisplayName, f.DefaultCostILS, f.Order, f.Active)
	if err != nil {
		return FeatureRecord{}, mapWriteError(err, "create feature")
	}
	id, err := result.LastInsertId()
	if err != nil {
		return FeatureRecord{}, fmt.Errorf("create feature: %w", err)
	}
	return FeatureRecord{ID: id, Feature: f}, nil
}

// UpdateFeature replaces every field of a feature.
func (s *Store) UpdateFeature(ctx context.Context, id int64, f pricing.Feature) error {
	f.Key = strings.TrimSpace(f.Key)
	if err := validateFeature(f); err != nil {
		return err
	}
	result, err := s.db.ExecContext(ctx, `
		UPDATE features
		SET
			key = ?,
			display_name = ?,
			default_cost_ils = ?,
			sort_order = ?,
			active = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, f.Key, displayNameOr(f.DisplayName, f.Key), f.DefaultCostILS, f.Order, f.Active, id)
	return checkAffected(result, err, "update feature")
}

// DeleteFeature removes a feature.
func (s *Store) DeleteFeature(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, "feature", id)
}

// SetFeatureActive toggles a feature.
func (s *Store) SetFeatureActive(ctx context.Context, id int64, active bool) error {
	return s.setActive(ctx, "feature", id, active)
}
