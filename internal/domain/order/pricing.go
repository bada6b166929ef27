package order

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/modelado-pao/internal/domain/coupon"
	"github.com/xenking/modelado-pao/internal/domain/product"
)

// MaxQuantity caps a single line so line and order totals stay within the
// NUMERIC(12,2) order columns.
const MaxQuantity = 10000

// CouponResolver resolves a coupon code to a discount for a subtotal.
// Resolution problems are reported in the result, never as an error.
type CouponResolver interface {
	Resolve(ctx context.Context, code string, subtotal decimal.Decimal) coupon.Resolution
}

// Quote is a fully priced cart.
type Quote struct {
	Items          []LineItem
	Subtotal       decimal.Decimal
	Coupon         coupon.Resolution
	DiscountAmount decimal.Decimal
	TotalAmount    decimal.Decimal
}

// DiscountCode returns the applied coupon code, or "" when none applied.
func (q *Quote) DiscountCode() string {
	if !q.Coupon.Applied() {
		return ""
	}
	return q.Coupon.Code
}

// Pricer prices carts against the authoritative catalog.
type Pricer struct {
	products product.Repository
	coupons  CouponResolver
}

// NewPricer creates a Pricer reading prices from products and discounts from
// coupons.
func NewPricer(products product.Repository, coupons CouponResolver) *Pricer {
	return &Pricer{products: products, coupons: coupons}
}

// Price validates reqs, snapshots each line's unit price from the catalog,
// applies the coupon if one is given and valid, and clamps the total at zero.
//
// Catalog rows are read independently of each other and without a
// transaction; a concurrent price change may be observed mid-cart.
func (p *Pricer) Price(ctx context.Context, reqs []LineItemRequest, couponCode string) (*Quote, error) {
	if len(reqs) == 0 {
		return nil, ErrEmptyItems
	}

	ids := make([]string, 0, len(reqs))
	seen := make(map[string]struct{}, len(reqs))
	for i, item := range reqs {
		if item.ProductID == "" {
			return nil, &InvalidItemError{Index: i, Reason: "productId is required"}
		}
		if item.Quantity <= 0 || item.Quantity > MaxQuantity {
			return nil, &InvalidQuantityError{ProductID: item.ProductID, Quantity: item.Quantity}
		}
		if _, ok := seen[item.ProductID]; !ok {
			seen[item.ProductID] = struct{}{}
			ids = append(ids, item.ProductID)
		}
	}

	fetched, err := p.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "get products")
	}
	catalog := make(map[string]product.Product, len(fetched))
	for _, pr := range fetched {
		catalog[pr.ID] = pr
	}

	lg := zctx.From(ctx)
	q := &Quote{
		Items:    make([]LineItem, len(reqs)),
		Subtotal: decimal.Zero,
	}
	for i, item := range reqs {
		pr, ok := catalog[item.ProductID]
		if !ok {
			return nil, &ProductNotFoundError{ProductID: item.ProductID}
		}

		price, ok := pr.UnitPrice()
		if !ok {
			lg.Warn("Catalog entry has no price, pricing line at zero",
				zap.String("product_id", pr.ID),
			)
		}

		q.Items[i] = LineItem{
			ProductID: pr.ID,
			Name:      pr.Name,
			Quantity:  item.Quantity,
			UnitPrice: price,
		}
		q.Subtotal = q.Subtotal.Add(q.Items[i].Total())
	}
	q.Subtotal = q.Subtotal.Round(2)

	q.DiscountAmount = decimal.Zero
	if couponCode != "" {
		q.Coupon = p.coupons.Resolve(ctx, couponCode, q.Subtotal)
		if q.Coupon.Applied() {
			q.DiscountAmount = q.Coupon.Amount
		} else {
			lg.Info("Coupon not applied",
				zap.String("code", q.Coupon.Code),
				zap.NamedError("reason", q.Coupon.Rejected),
			)
		}
	}

	// Total = subtotal - discount, floored at zero.
	total := q.Subtotal.Sub(q.DiscountAmount)
	if total.IsNegative() {
		total = decimal.Zero
	}
	q.TotalAmount = total.Round(2)

	return q, nil
}
