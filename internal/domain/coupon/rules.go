package coupon

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// NormalizeCode trims and uppercases a coupon code so lookups are
// case-insensitive.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Check reports whether c may be applied at instant now. Both the preview
// endpoint and order placement go through here so they cannot disagree.
func Check(c *Coupon, now time.Time) error {
	if !c.Active {
		return ErrInactive
	}
	if c.ExpiresAt != nil && now.After(*c.ExpiresAt) {
		return ErrExpired
	}
	return nil
}

// Discount computes the amount c takes off subtotal, rounded to cents.
// A fixed discount is not capped here; callers clamp the final total.
func Discount(c *Coupon, subtotal decimal.Decimal) decimal.Decimal {
	var amount decimal.Decimal
	switch c.Kind {
	case KindPercentage:
		amount = subtotal.Mul(c.Value).Div(hundred)
	case KindFixed:
		amount = c.Value
	default:
		return decimal.Zero
	}
	if amount.IsNegative() {
		return decimal.Zero
	}
	return amount.Round(2)
}

// validateRule enforces the admin-side invariants on kind and value.
func validateRule(kind Kind, value decimal.Decimal) error {
	if !kind.Valid() {
		return errorf("unsupported discount type %q", kind)
	}
	if value.IsNegative() {
		return errorf("value must not be negative")
	}
	if kind == KindPercentage && value.GreaterThan(hundred) {
		return errorf("percentage must be at most 100")
	}
	return nil
}
