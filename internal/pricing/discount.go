package pricing

import (
	"fmt"
	"strings"
)

// DiscountType selects how a discount amount is interpreted.
type DiscountType string

const (
	// DiscountPercent reduces the subtotal by Amount percent.
	DiscountPercent DiscountType = "percent"
	// DiscountFixed subtracts Amount currency units from the subtotal.
	DiscountFixed DiscountType = "fixed"
)

// Discount is a resolved discount code.
type Discount struct {
	Code      string       `json:"code" yaml:"code"`
	Type      DiscountType `json:"discountType" yaml:"discountType"`
	Amount    float64      `json:"amount" yaml:"amount"`
	Currency  string       `json:"currency,omitempty" yaml:"currency,omitempty"`
	AppliesTo ScopeRule    `json:"appliesTo" yaml:"appliesTo"`
}

// Validate checks the discount type and amount.
func (d Discount) Validate() error {
	switch d.Type {
	case DiscountPercent, DiscountFixed:
	default:
		return fmt.Errorf("discount type must be %q or %q", DiscountPercent, DiscountFixed)
	}
	if !finite(d.Amount) || d.Amount < 0 {
		return fmt.Errorf("discount amount must be a non-negative number")
	}
	return nil
}

// NormalizeCode upper-cases and trims a discount code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// apply returns the discounted subtotal.
func (d Discount) apply(subtotal float64) float64 {
	var out float64
	switch d.Type {
	case DiscountPercent:
		out = subtotal * (1 - d.Amount/100)
	case DiscountFixed:
		out = subtotal - d.Amount
	default:
		return subtotal
	}
	if out < 0 {
		return 0
	}
	return out
}
