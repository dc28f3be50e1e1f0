// Package store persists the pricing model, discount codes and intake
// requests in SQLite and serves model snapshots to the calculator.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned when an update, delete or lookup hits no row.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a unique key is already taken.
	ErrConflict = errors.New("already exists")
	// ErrInvalid wraps validation failures of admin input.
	ErrInvalid = errors.New("invalid input")
)

// Store is the SQLite-backed pricing model store.
type Store struct {
	db    *sql.DB
	clock func() time.Time
}

// New wraps an open database whose schema is migrated.
func New(db *sql.DB) *Store {
	return &Store{db: db, clock: time.Now}
}

// WithClock replaces the clock used for intake timestamps.
func (s *Store) WithClock(clock func() time.Time) *Store {
	if clock != nil {
		s.clock = clock
	}
	return s
}

// DB exposes the underlying handle for health checks.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping store: %w", err)
	}
	return nil
}

// toggleable lists the tables that carry an active flag.
var toggleable = map[string]string{
	"project type":      "project_types",
	"feature":           "features",
	"multiplier group":  "multiplier_groups",
	"multiplier option": "multiplier_options",
	"discount":          "discount_codes",
}

func (s *Store) setActive(ctx context.Context, kind string, id int64, active bool) error {
	table, ok := toggleable[kind]
	if !ok {
		return fmt.Errorf("toggle %s: unsupported", kind)
	}
	result, err := s.db.ExecContext(ctx, `
		UPDATE `+table+`
		SET active = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, active, id)
	return checkAffected(result, err, "toggle "+kind)
}

func (s *Store) deleteByID(ctx context.Context, kind string, id int64) error {
	table, ok := toggleable[kind]
	if !ok {
		return fmt.Errorf("delete %s: unsupported", kind)
	}
	result, err := s.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = ?`, id)
	return checkAffected(result, err, "delete "+kind)
}

// checkAffected maps write errors and zero-row results to store errors.
func checkAffected(result sql.Result, err error, action string) error {
	if err != nil {
		return mapWriteError(err, action)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", action, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s: %w", action, ErrNotFound)
	}
	return nil
}

func mapWriteError(err error, action string) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return fmt.Errorf("%s: %w", action, ErrConflict)
	case strings.Contains(msg, "CHECK constraint failed"):
		return fmt.Errorf("%s: %w: %v", action, ErrInvalid, err)
	default:
		return fmt.Errorf("%s: %w", action, err)
	}
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

func requireKey(field, key string) error {
	if strings.TrimSpace(key) == "" {
		return invalidf("%s is required", field)
	}
	return nil
}

func requireNonNegative(field string, v float64) error {
	if v < 0 || v != v {
		return invalidf("%s must be greater than or equal to 0", field)
	}
	return nil
}

func displayNameOr(name, key string) string {
	if name = strings.TrimSpace(name); name != "" {
		return name
	}
	return key
}
