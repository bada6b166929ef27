package coupon

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrCodeRequired is returned by Preview when the code is blank.
var ErrCodeRequired = errors.New("coupon code required")

// Resolution is the outcome of resolving a coupon during checkout.
// When Rejected is non-nil the coupon was not applied and Amount is zero.
type Resolution struct {
	Code     string
	Coupon   *Coupon
	Amount   decimal.Decimal
	Rejected error
}

// Applied reports whether the coupon contributed a discount.
func (r Resolution) Applied() bool {
	return r.Coupon != nil && r.Rejected == nil
}

// Resolver looks up coupons and applies the eligibility rule from Check.
type Resolver struct {
	repo Repository
	now  func() time.Time
}

// NewResolver creates a Resolver backed by the given Repository.
func NewResolver(repo Repository) *Resolver {
	return &Resolver{repo: repo, now: time.Now}
}

// Preview returns the coupon for code if it is currently applicable.
// It returns ErrNotFound, ErrInactive or ErrExpired so callers can tell the
// user why a code was refused. For ErrInactive and ErrExpired the coupon is
// returned alongside the error.
func (r *Resolver) Preview(ctx context.Context, code string) (*Coupon, error) {
	code = NormalizeCode(code)
	if code == "" {
		return nil, ErrCodeRequired
	}

	c, err := r.lookup(ctx, code)
	if err != nil {
		return nil, err
	}
	if err := Check(c, r.now()); err != nil {
		return c, err
	}
	return c, nil
}

// Resolve computes the discount for code against subtotal. It never fails:
// an unknown, inactive or expired coupon, or a lookup failure, yields a
// Resolution with zero Amount and the reason in Rejected.
func (r *Resolver) Resolve(ctx context.Context, code string, subtotal decimal.Decimal) Resolution {
	res := Resolution{Code: NormalizeCode(code), Amount: decimal.Zero}
	if res.Code == "" {
		res.Rejected = ErrCodeRequired
		return res
	}

	c, err := r.lookup(ctx, res.Code)
	if err != nil {
		res.Rejected = err
		return res
	}
	res.Coupon = c

	if err := Check(c, r.now()); err != nil {
		res.Rejected = err
		return res
	}

	res.Amount = Discount(c, subtotal)
	return res
}

func (r *Resolver) lookup(ctx context.Context, code string) (*Coupon, error) {
	c, err := r.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "lookup coupon")
	}
	return c, nil
}
