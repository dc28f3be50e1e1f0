package store

import (
	"context"
	"fmt"

	"github.com/Simplici0/estimator/internal/pricing"
)

// GetMeta folds every stored meta setting over the defaults.
func (s *Store) GetMeta(ctx context.Context) (pricing.Meta, error) {
	meta := pricing.DefaultMeta()

	rows, err := s.db.QueryContext(ctx, `SELECT key, value_json FROM meta_settings ORDER BY key`)
	if err != nil {
		return meta, fmt.Errorf("query meta settings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key, raw string
		if err := rows.Scan(&key, &raw); err != nil {
			return meta, fmt.Errorf("scan meta setting: %w", err)
		}
		setting, err := pricing.ParseMetaSetting(key, []byte(raw))
		if err != nil {
			return meta, fmt.Errorf("meta setting %s: %w", key, err)
		}
		meta.Apply(setting)
	}
	if err := rows.Err(); err != nil {
		return meta, fmt.Errorf("iterate meta settings: %w", err)
	}
	return meta, nil
}

// SetMetaSetting validates and upserts one meta setting.
func (s *Store) SetMetaSetting(ctx context.Context, setting pricing.MetaSetting) error {
	raw, err := pricing.EncodeMetaSetting(setting)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO meta_settings (key, value_json)
		VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value_json = excluded.value_json,
			updated_at = CURRENT_TIMESTAMP
	`, setting.Key(), string(raw))
	if err != nil {
		return fmt.Errorf("upsert meta setting %s: %w", setting.Key(), err)
	}
	return nil
}

// SetMetaRaw parses a JSON value for key before storing it.
func (s *Store) SetMetaRaw(ctx context.Context, key string, raw []byte) (pricing.MetaSetting, error) {
	setting, err := pricing.ParseMetaSetting(key, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := s.SetMetaSetting(ctx, setting); err != nil {
		return nil, err
	}
	return setting, nil
}
