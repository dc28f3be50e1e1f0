package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Simplici0/estimator/internal/pricing"
)

// MultiplierGroupRecord is a stored multiplier group with its options.
type MultiplierGroupRecord struct {
	ID          int64                    `json:"id"`
	Key         string                   `json:"key"`
	DisplayName string                   `json:"displayName"`
	Order       int                      `json:"order"`
	Active      bool                     `json:"active"`
	Options     []MultiplierOptionRecord `json:"options"`
}

// MultiplierOptionRecord is a stored multiplier option.
type MultiplierOptionRecord struct {
	ID      int64 `json:"id"`
	GroupID int64 `json:"groupId"`
	pricing.MultiplierOption
}

// Group converts the record into the calculator's shape.
func (r MultiplierGroupRecord) Group() pricing.MultiplierGroup {
	g := pricing.MultiplierGroup{
		Key:         r.Key,
		DisplayName: r.DisplayName,
		Order:       r.Order,
		Active:      r.Active,
		Options:     make([]pricing.MultiplierOption, 0, len(r.Options)),
	}
	for _, opt := range r.Options {
		g.Options = append(g.Options, opt.MultiplierOption)
	}
	return g
}

func validateOption(opt pricing.MultiplierOption) error {
	if err := requireKey("optionKey", opt.Key); err != nil {
		return err
	}
	if !(opt.Value > 0) {
		return invalidf("value must be greater than 0")
	}
	return nil
}

// ListMultiplierGroups returns groups and their options by configured order.
func (s *Store) ListMultiplierGroups(ctx context.Context, includeInactive bool) ([]MultiplierGroupRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, key, display_name, sort_order, active
		FROM multiplier_groups
		WHERE (? OR active = 1)
		ORDER BY sort_order, id
	`, includeInactive)
	if err != nil {
		return nil, fmt.Errorf("query multiplier groups: %w", err)
	}
	defer rows.Close()

	groups := make([]MultiplierGroupRecord, 0)
	index := make(map[int64]int)
	for rows.Next() {
		var g MultiplierGroupRecord
		if err := rows.Scan(&g.ID, &g.Key, &g.DisplayName, &g.Order, &g.Active); err != nil {
			return nil, fmt.Errorf("scan multiplier group: %w", err)
		}
		g.Options = make([]MultiplierOptionRecord, 0)
		index[g.ID] = len(groups)
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate multiplier groups: %w", err)
	}

	optRows, err := s.db.QueryContext(ctx, `
		SELECT id, group_id, option_key, display_name, value, is_fixed, sort_order, active
		FROM multiplier_options
		WHERE (? OR active = 1)
		ORDER BY sort_order, id
	`, includeInactive)
	if err != nil {
		return nil, fmt.Errorf("query multiplier options: %w", err)
	}
	defer optRows.Close()

	for optRows.Next() {
		var o MultiplierOptionRecord
		if err := optRows.Scan(&o.ID, &o.GroupID, &o.Key, &o.DisplayName, &o.Value, &o.IsFixed, &o.Order, &o.Active); err != nil {
			return nil, fmt.Errorf("scan multiplier option: %w", err)
		}
		if i, ok := index[o.GroupID]; ok {
			groups[i].Options = append(groups[i].Options, o)
		}
	}
	if err := optRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate multiplier options: %w", err)
	}

	return groups, nil
}

// CreateMultiplierGroup inserts a group together with the options it carries.
func (s *Store) CreateMultiplierGroup(ctx context.Context, g pricing.MultiplierGroup) (MultiplierGroupRecord, error) {
	g.Key = strings.TrimSpace(g.Key)
	if err := requireKey("key", g.Key); err != nil {
		return MultiplierGroupRecord{}, err
	}
	for _, opt := range g.Options {
		if err := validateOption(opt); err != nil {
			return MultiplierGroupRecord{}, err
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return MultiplierGroupRecord{}, fmt.Errorf("begin create multiplier group: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	rec, err := insertGroup(ctx, tx, g)
	if err != nil {
		return MultiplierGroupRecord{}, err
	}

	if err := tx.Commit(); err != nil {
		return MultiplierGroupRecord{}, fmt.Errorf("commit create multiplier group: %w", err)
	}
	return rec, nil
}

func insertGroup(ctx context.Context, tx *sql.Tx, g pricing.MultiplierGroup) (MultiplierGroupRecord, error) {
	rec := MultiplierGroupRecord{
		Key:         g.Key,
		DisplayName: displayNameOr(g.DisplayName, g.Key),
		Order:       g.Order,
		Active:      g.Active,
		Options:     make([]MultiplierOptionRecord, 0, len(g.Options)),
	}

	result, err := tx.ExecContext(ctx, `
		INSERT INTO multiplier_groups (key, display_name, sort_order, active)
		VALUES (?, ?, ?, ?)
	`, rec.Key, rec.DisplayName, rec.Order, rec.Active)
	if err != nil {
		return MultiplierGroupRecord{}, mapWriteError(err, "create multiplier group")
	}
	if rec.ID, err = result.LastInsertId(); err != nil {
		return MultiplierGroupRecord{}, fmt.Errorf("create multiplier group: %w", err)
	}

	for _, opt := range g.Options {
		o, err := insertOption(ctx, tx, rec.ID, opt)
		if err != nil {
			return MultiplierGroupRecord{}, err
		}
		rec.Options = append(rec.Options, o)
	}
	return rec, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertOption(ctx context.Context, db execer, groupID int64, opt pricing.MultiplierOption) (MultiplierOptionRecord, error) {
	opt.Key = strings.TrimSpace(opt.Key)
	opt.DisplayName = displayNameOr(opt.DisplayName, opt.Key)

	result, err := db.ExecContext(ctx, `
		INSERT INTO multiplier_options (group_id, option_key, display_name, value, is_fixed, sort_order, active)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, groupID, opt.Key, opt.DisplayName, opt.Value, opt.IsFixed, opt.Order, opt.Active)
	if err != nil {
		return MultiplierOptionRecord{}, mapWriteError(err, "create multiplier option")
	}
	id, err := result.LastInsertId()
	if err != nil {
		return MultiplierOptionRecord{}, fmt.Errorf("create multiplier option: %w", err)
	}
	return MultiplierOptionRecord{ID: id, GroupID: groupID, MultiplierOption: opt}, nil
}

// UpdateMultiplierGroup replaces the group's own fields; options are untouched.
func (s *Store) UpdateMultiplierGroup(ctx context.Context, id int64, g pricing.MultiplierGroup) error {
	g.Key = strings.TrimSpace(g.Key)
	if err := requireKey("key", g.Key); err != nil {
		return err
	}
	result, err := s.db.ExecContext(ctx, `
		UPDATE multiplier_groups
		SET
			key = ?,
			display_name = ?,
			sort_order = ?,
			active = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, g.Key, displayNameOr(g.DisplayName, g.Key), g.Order, g.Active, id)
	return checkAffected(result, err, "update multiplier group")
}

// DeleteMultiplierGroup removes a group and, by cascade, its options.
func (s *Store) DeleteMultiplierGroup(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, "multiplier group", id)
}

// SetMultiplierGroupActive toggles a group.
func (s *Store) SetMultiplierGroupActive(ctx context.Context, id int64, active bool) error {
	return s.setActive(ctx, "multiplier group", id, active)
}

// CreateMultiplierOption adds an option to the group with the given key.
func (s *Store) CreateMultiplierOption(ctx context.Context, groupKey string, opt pricing.MultiplierOption) (MultiplierOptionRecord, error) {
	if err := validateOption(opt); err != nil {
		return MultiplierOptionRecord{}, err
	}

	var groupID int64
	err := s.db.QueryRowContext(ctx, `SELECT id FROM multiplier_groups WHERE key = ?`, strings.TrimSpace(groupKey)).Scan(&groupID)
	if errors.Is(err, sql.ErrNoRows) {
		return MultiplierOptionRecord{}, fmt.Errorf("multiplier group %q: %w", groupKey, ErrNotFound)
	}
	if err != nil {
		return MultiplierOptionRecord{}, fmt.Errorf("query multiplier group: %w", err)
	}

	return insertOption(ctx, s.db, groupID, opt)
}

// UpdateMultiplierOption replaces every field of an option.
func (s *Store) UpdateMultiplierOption(ctx context.Context, id int64, opt pricing.MultiplierOption) error {
	opt.Key = strings.TrimSpace(opt.Key)
	if err := validateOption(opt); err != nil {
		return err
	}
	result, err := s.db.ExecContext(ctx, `
		UPDATE multiplier_options
		SET
			option_key = ?,
			display_name = ?,
			value = ?,
			is_fixed = ?,
			sort_order = ?,
			active = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, opt.Key, displayNameOr(opt.DisplayName, opt.Key), opt.Value, opt.IsFixed, opt.Order, opt.Active, id)
	return checkAffected(result, err, "update multiplier option")
}

// DeleteMultiplierOption removes an option.
func (s *Store) DeleteMultiplierOption(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, "multiplier option", id)
}

// SetMultiplierOptionActive toggles an option.
func (s *Store) SetMultiplierOptionActive(ctx context.Context, id int64, active bool) error {
	return s.setActive(ctx, "multiplier option", id, active)
}
