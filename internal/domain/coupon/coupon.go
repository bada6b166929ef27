package coupon

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Kind enumerates the supported coupon discount strategies.
type Kind string

const (
	// KindPercentage takes Value percentage points off the subtotal.
	KindPercentage Kind = "percentage"
	// KindFixed takes Value currency units off the subtotal.
	KindFixed Kind = "fixed"
)

// Valid reports whether k is a known discount kind.
func (k Kind) Valid() bool {
	return k == KindPercentage || k == KindFixed
}

var (
	// ErrNotFound is returned when no coupon exists for a code or ID.
	ErrNotFound = errors.New("coupon not found")
	// ErrInactive is returned when a coupon has been switched off.
	ErrInactive = errors.New("coupon inactive")
	// ErrExpired is returned when a coupon's expiry is in the past.
	ErrExpired = errors.New("coupon expired")
	// ErrAlreadyExists is returned when creating a coupon whose code is taken.
	ErrAlreadyExists = errors.New("coupon already exists")
	// ErrInvalidRule is returned when an admin command carries a malformed rule.
	ErrInvalidRule = errors.New("invalid coupon rule")
)

// Coupon is a named discount rule keyed by its uppercased code.
type Coupon struct {
	ID          string
	Code        string
	Kind        Kind
	Value       decimal.Decimal
	Active      bool
	ExpiresAt   *time.Time
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Repository provides coupon lookup by code. Implementations must treat the
// code as already normalized.
type Repository interface {
	FindByCode(ctx context.Context, code string) (*Coupon, error)
}

// AdminRepository provides coupon mutations for administrators.
type AdminRepository interface {
	Repository
	List(ctx context.Context) ([]Coupon, error)
	Get(ctx context.Context, id string) (*Coupon, error)
	Create(ctx context.Context, c *Coupon) error
	Update(ctx context.Context, c *Coupon) error
	Delete(ctx context.Context, id string) error
}
