package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Simplici0/estimator/internal/pricing"
)

// DiscountRecord is a stored discount code.
type DiscountRecord struct {
	ID     int64 `json:"id"`
	Active bool  `json:"active"`
	pricing.Discount
}

func prepareDiscount(d pricing.Discount) (pricing.Discount, string, error) {
	d.Code = pricing.NormalizeCode(d.Code)
	d.Currency = strings.ToUpper(strings.TrimSpace(d.Currency))
	if d.Code == "" {
		return d, "", invalidf("code is required")
	}
	if err := d.Validate(); err != nil {
		return d, "", fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	scope, err := json.Marshal(d.AppliesTo)
	if err != nil {
		return d, "", fmt.Errorf("encode discount scope: %w", err)
	}
	return d, string(scope), nil
}

func scanDiscount(scan func(dest ...any) error) (DiscountRecord, error) {
	var (
		r     DiscountRecord
		dtype string
		scope string
	)
	if err := scan(&r.ID, &r.Code, &dtype, &r.Amount, &r.Currency, &scope, &r.Active); err != nil {
		return DiscountRecord{}, err
	}
	r.Type = pricing.DiscountType(dtype)
	r.AppliesTo = pricing.ParseScope([]byte(scope))
	return r, nil
}

const discountColumns = `id, code, discount_type, amount, currency, applies_to_json, active`

// ListDiscounts returns every discount code, newest first.
func (s *Store) ListDiscounts(ctx context.Context) ([]DiscountRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+discountColumns+` FROM discount_codes ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("query discounts: %w", err)
	}
	defer rows.Close()

	out := make([]DiscountRecord, 0)
	for rows.Next() {
		r, err := scanDiscount(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan discount: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate discounts: %w", err)
	}
	return out, nil
}

// CreateDiscount inserts an active discount code.
func (s *Store) CreateDiscount(ctx context.Context, d pricing.Discount) (DiscountRecord, error) {
	d, scope, err := prepareDiscount(d)
	if err != nil {
		return DiscountRecord{}, err
	}
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO discount_codes (code, discount_type, amount, currency, applies_to_json, active)
		VALUES (?, ?, ?, ?, ?, 1)
	`, d.Code, string(d.Type), d.Amount, d.Currency, scope)
	if err != nil {
		return DiscountRecord{}, mapWriteError(err, "create discount")
	}
	id, err := result.LastInsertId()
	if err != nil {
		return DiscountRecord{}, fmt.Errorf("create discount: %w", err)
	}
	return DiscountRecord{ID: id, Active: true, Discount: d}, nil
}

// UpdateDiscount replaces a discount's code, amount and scope.
func (s *Store) UpdateDiscount(ctx context.Context, id int64, d pricing.Discount) error {
	d, scope, err := prepareDiscount(d)
	if err != nil {
		return err
	}
	result, err := s.db.ExecContext(ctx, `
		UPDATE discount_codes
		SET
			code = ?,
			discount_type = ?,
			amount = ?,
			currency = ?,
			applies_to_json = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, d.Code, string(d.Type), d.Amount, d.Currency, scope, id)
	return checkAffected(result, err, "update discount")
}

// DeleteDiscount removes a discount code.
func (s *Store) DeleteDiscount(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, "discount", id)
}

// SetDiscountActive toggles a discount code.
func (s *Store) SetDiscountActive(ctx context.Context, id int64, active bool) error {
	return s.setActive(ctx, "discount", id, active)
}

// LookupDiscount resolves an active discount by code. Unknown and inactive
// codes return nil without error.
func (s *Store) LookupDiscount(ctx context.Context, code string) (*pricing.Discount, error) {
	normalized := pricing.NormalizeCode(code)
	if normalized == "" {
		return nil, nil
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT `+discountColumns+`
		FROM discount_codes
		WHERE code = ? AND active = 1
	`, normalized)
	r, err := scanDiscount(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup discount: %w", err)
	}
	if r.Validate() != nil {
		return nil, nil
	}
	d := r.Discount
	return &d, nil
}
