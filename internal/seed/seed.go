// Package seed loads an initial pricing model and admin user into a freshly
// migrated database.
package seed

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Simplici0/estimator/internal/auth"
	"github.com/Simplici0/estimator/internal/pricing"
)

// Config contains the values required by the seed.
type Config struct {
	AdminEmail    string
	AdminPassword string
	// Model is the pricing model to seed; nil seeds the embedded default.
	Model *File
}

// Stats contains seed operation counters.
type Stats struct {
	Inserts int
}

// Run executes the seed in one transaction. Rows are matched by key and never
// overwritten, so running it again only adds what is missing.
func Run(ctx context.Context, db *sql.DB, cfg Config) (Stats, error) {
	model := cfg.Model
	if model == nil {
		var err error
		if model, err = Default(); err != nil {
			return Stats{}, fmt.Errorf("load default pricing model: %w", err)
		}
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return Stats{}, fmt.Errorf("begin seed transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stats := Stats{}
	steps := []func(context.Context, *sql.Tx, *File, *Stats) error{
		seedProjectTypes,
		seedFeatures,
		seedMultiplierGroups,
		seedMeta,
		seedDiscounts,
	}
	if err := seedAdmin(ctx, tx, cfg.AdminEmail, cfg.AdminPassword, &stats); err != nil {
		return Stats{}, err
	}
	for _, step := range steps {
		if err := step(ctx, tx, model, &stats); err != nil {
			return Stats{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return Stats{}, fmt.Errorf("commit seed transaction: %w", err)
	}
	return stats, nil
}

func (s *Stats) count(result sql.Result, err error, action string) error {
	if err != nil {
		return fmt.Errorf("%s: %w", action, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", action, err)
	}
	s.Inserts += int(affected)
	return nil
}

func seedAdmin(ctx context.Context, tx *sql.Tx, email, password string, stats *Stats) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil
	}

	var exists bool
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE email = ? LIMIT 1)`, email).Scan(&exists); err != nil {
		return fmt.Errorf("check admin user existence: %w", err)
	}
	if exists {
		return nil
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	result, err := tx.ExecContext(ctx, `INSERT INTO users (email, password_hash) VALUES (?, ?)`, email, hash)
	return stats.count(result, err, "insert admin user")
}

func displayName(name, key string) string {
	if name = strings.TrimSpace(name); name != "" {
		return name
	}
	return key
}

func seedProjectTypes(ctx context.Context, tx *sql.Tx, f *File, stats *Stats) error {
	for _, pt := range f.ProjectTypes {
		result, err := tx.ExecContext(ctx, `
			INSERT INTO project_types (key, display_name, base_rate_ils, sort_order, active)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(key) DO NOTHING
		`, pt.Key, displayName(pt.DisplayName, pt.Key), pt.BaseRateILS, pt.Order, pt.Active)
		if err := stats.count(result, err, "insert project type "+pt.Key); err != nil {
			return err
		}
	}
	return nil
}

func seedFeatures(ctx context.Context, tx *sql.Tx, f *File, stats *Stats) error {
	for _, feat := range f.Features {
		result, err := tx.ExecContext(ctx, `
			INSERT INTO features (key, display_name, default_cost_ils, sort_order, active)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(key) DO NOTHING
		`, feat.Key, displayName(feat.DisplayName, feat.Key), feat.DefaultCostILS, feat.Order, feat.Active)
		if err := stats.count(result, err, "insert feature "+feat.Key); err != nil {
			return err
		}
	}
	return nil
}

func seedMultiplierGroups(ctx context.Context, tx *sql.Tx, f *File, stats *Stats) error {
	for _, g := range f.MultiplierGroups {
		result, err := tx.ExecContext(ctx, `
			INSERT INTO multiplier_groups (key, display_name, sort_order, active)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(key) DO NOTHING
		`, g.Key, displayName(g.DisplayName, g.Key), g.Order, g.Active)
		if err := stats.count(result, err, "insert multiplier group "+g.Key); err != nil {
			return err
		}

		var groupID int64
		if err := tx.QueryRowContext(ctx, `SELECT id FROM multiplier_groups WHERE key = ?`, g.Key).Scan(&groupID); err != nil {
			return fmt.Errorf("query multiplier group %s: %w", g.Key, err)
		}

		for _, opt := range g.Options {
			result, err := tx.ExecContext(ctx, `
				INSERT INTO multiplier_options (group_id, option_key, display_name, value, is_fixed, sort_order, active)
				VALUES (?, ?, ?, ?, ?, ?, ?)
				ON CONFLICT(group_id, option_key) DO NOTHING
			`, groupID, opt.Key, displayName(opt.DisplayName, opt.Key), opt.Value, opt.IsFixed, opt.Order, opt.Active)
			if err := stats.count(result, err, "insert multiplier option "+g.Key+"."+opt.Key); err != nil {
				return err
			}
		}
	}
	return nil
}

func seedMeta(ctx context.Context, tx *sql.Tx, f *File, stats *Stats) error {
	for _, setting := range f.Meta.Settings() {
		raw, err := pricing.EncodeMetaSetting(setting)
		if err != nil {
			return fmt.Errorf("encode meta %s: %w", setting.Key(), err)
		}
		result, err := tx.ExecContext(ctx, `
			INSERT INTO meta_settings (key, value_json)
			VALUES (?, ?)
			ON CONFLICT(key) DO NOTHING
		`, setting.Key(), string(raw))
		if err := stats.count(result, err, "insert meta "+setting.Key()); err != nil {
			return err
		}
	}
	return nil
}

func seedDiscounts(ctx context.Context, tx *sql.Tx, f *File, stats *Stats) error {
	for _, d := range f.Discounts {
		code := pricing.NormalizeCode(d.Code)
		scope, err := json.Marshal(d.AppliesTo)
		if err != nil {
			return fmt.Errorf("encode discount scope %s: %w", code, err)
		}
		result, err := tx.ExecContext(ctx, `
			INSERT INTO discount_codes (code, discount_type, amount, currency, applies_to_json, active)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(code) DO NOTHING
		`, code, string(d.Type), d.Amount, strings.ToUpper(strings.TrimSpace(d.Currency)), string(scope), d.IsActive())
		if err := stats.count(result, err, "insert discount "+code); err != nil {
			return err
		}
	}
	return nil
}
