package order

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/modelado-pao/internal/domain/coupon"
)

func TestPrice_Scenarios(t *testing.T) {
	products := newProductRepo(newTestProduct("P1", "Conejito", "10.00"))
	cart := []LineItemRequest{{ProductID: "P1", Quantity: 2}}

	tests := []struct {
		name         string
		code         string
		wantSubtotal string
		wantDiscount string
		wantTotal    string
		wantCode     string
	}{
		{name: "no coupon", wantSubtotal: "20.00", wantDiscount: "0", wantTotal: "20.00"},
		{name: "percentage coupon", code: "SAVE20", wantSubtotal: "20.00", wantDiscount: "4.00", wantTotal: "16.00", wantCode: "SAVE20"},
		{name: "fixed coupon above subtotal clamps", code: "FLAT50", wantSubtotal: "20.00", wantDiscount: "50.00", wantTotal: "0", wantCode: "FLAT50"},
		{name: "fixed coupon below subtotal", code: "FLAT5", wantSubtotal: "20.00", wantDiscount: "5", wantTotal: "15.00", wantCode: "FLAT5"},
		{name: "expired coupon ignored", code: "EXPIRED", wantSubtotal: "20.00", wantDiscount: "0", wantTotal: "20.00"},
		{name: "inactive coupon ignored", code: "PAUSED", wantSubtotal: "20.00", wantDiscount: "0", wantTotal: "20.00"},
		{name: "unknown coupon ignored", code: "NOPE", wantSubtotal: "20.00", wantDiscount: "0", wantTotal: "20.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestPricer(products, scenarioCoupons())

			q, err := p.Price(context.Background(), cart, tt.code)
			require.NoError(t, err)

			assert.True(t, d(tt.wantSubtotal).Equal(q.Subtotal), "subtotal %s", q.Subtotal)
			assert.True(t, d(tt.wantDiscount).Equal(q.DiscountAmount), "discount %s", q.DiscountAmount)
			assert.True(t, d(tt.wantTotal).Equal(q.TotalAmount), "total %s", q.TotalAmount)
			assert.Equal(t, tt.wantCode, q.DiscountCode())
		})
	}
}

func TestPrice_CaseInsensitiveCoupon(t *testing.T) {
	products := newProductRepo(
		newTestProduct("P1", "Conejito", "12.40"),
		newTestProduct("P2", "Gatito", "7.15"),
	)
	cart := []LineItemRequest{{ProductID: "P1", Quantity: 3}, {ProductID: "P2", Quantity: 1}}
	p := newTestPricer(products, scenarioCoupons())

	lower, err := p.Price(context.Background(), cart, "sale10")
	require.NoError(t, err)
	upper, err := p.Price(context.Background(), cart, "SALE10")
	require.NoError(t, err)

	assert.True(t, lower.TotalAmount.Equal(upper.TotalAmount))
	assert.True(t, lower.DiscountAmount.Equal(upper.DiscountAmount))
	assert.Equal(t, "SALE10", lower.DiscountCode())
}

func TestPrice_SumsLinesWithoutCoupon(t *testing.T) {
	products := newProductRepo(
		newTestProduct("P1", "Conejito", "12.40"),
		newTestProduct("P2", "Gatito", "7.15"),
		newTestProduct("P3", "Llavero", "0.99"),
	)
	cart := []LineItemRequest{
		{ProductID: "P1", Quantity: 3},
		{ProductID: "P2", Quantity: 1},
		{ProductID: "P3", Quantity: 10},
		{ProductID: "P1", Quantity: 1},
	}
	p := newTestPricer(products, scenarioCoupons())

	q, err := p.Price(context.Background(), cart, "")
	require.NoError(t, err)

	// 3*12.40 + 7.15 + 10*0.99 + 12.40
	want := d("66.65")
	assert.True(t, want.Equal(q.Subtotal), "subtotal %s", q.Subtotal)
	assert.True(t, want.Equal(q.TotalAmount))
	assert.True(t, q.DiscountAmount.IsZero())
	require.Len(t, q.Items, 4)
	assert.Equal(t, "Llavero", q.Items[2].Name)
	assert.True(t, d("0.99").Equal(q.Items[2].UnitPrice))
}

func TestPrice_PercentageProperty(t *testing.T) {
	products := newProductRepo(
		newTestProduct("P1", "Conejito", "13.33"),
		newTestProduct("P2", "Gatito", "4.01"),
	)
	for _, pct := range []int64{0, 1, 15, 33, 50, 99, 100} {
		c := coupon.Coupon{Code: "PCT", Kind: coupon.KindPercentage, Value: decimal.NewFromInt(pct), Active: true}
		p := newTestPricer(products, newCouponRepo(c))

		q, err := p.Price(context.Background(), []LineItemRequest{
			{ProductID: "P1", Quantity: 2},
			{ProductID: "P2", Quantity: 5},
		}, "pct")
		require.NoError(t, err)

		wantDiscount := q.Subtotal.Mul(decimal.NewFromInt(pct)).Div(decimal.NewFromInt(100)).Round(2)
		assert.True(t, wantDiscount.Equal(q.DiscountAmount), "pct %d: discount %s", pct, q.DiscountAmount)
		wantTotal := decimal.Max(decimal.Zero, q.Subtotal.Sub(q.DiscountAmount))
		assert.True(t, wantTotal.Equal(q.TotalAmount), "pct %d: total %s", pct, q.TotalAmount)
		assert.False(t, q.TotalAmount.IsNegative())
	}
}

func TestPrice_MissingCatalogPriceDefaultsToZero(t *testing.T) {
	products := newProductRepo(
		newTestProduct("P1", "Conejito", "10.00"),
		newTestProduct("BROKEN", "Sin precio", ""),
	)
	p := newTestPricer(products, scenarioCoupons())

	q, err := p.Price(context.Background(), []LineItemRequest{
		{ProductID: "P1", Quantity: 1},
		{ProductID: "BROKEN", Quantity: 4},
	}, "")
	require.NoError(t, err)

	assert.True(t, d("10.00").Equal(q.Subtotal))
	assert.True(t, q.Items[1].UnitPrice.IsZero())
}

func TestPrice_ValidationErrors(t *testing.T) {
	products := newProductRepo(newTestProduct("P1", "Conejito", "10.00"))
	p := newTestPricer(products, scenarioCoupons())
	ctx := context.Background()

	t.Run("empty cart", func(t *testing.T) {
		_, err := p.Price(ctx, nil, "")
		require.ErrorIs(t, err, ErrEmptyItems)
	})

	t.Run("missing product id", func(t *testing.T) {
		_, err := p.Price(ctx, []LineItemRequest{{Quantity: 1}}, "")
		var itemErr *InvalidItemError
		require.ErrorAs(t, err, &itemErr)
		assert.Equal(t, 0, itemErr.Index)
	})

	t.Run("zero quantity", func(t *testing.T) {
		_, err := p.Price(ctx, []LineItemRequest{{ProductID: "P1", Quantity: 0}}, "")
		var qtyErr *InvalidQuantityError
		require.ErrorAs(t, err, &qtyErr)
		assert.Equal(t, "P1", qtyErr.ProductID)
	})

	t.Run("quantity above cap", func(t *testing.T) {
		_, err := p.Price(ctx, []LineItemRequest{
			{ProductID: "P1", Quantity: MaxQuantity},
			{ProductID: "P1", Quantity: 1_000_000_000},
		}, "")
		var qtyErr *InvalidQuantityError
		require.ErrorAs(t, err, &qtyErr)
		assert.Equal(t, 1_000_000_000, qtyErr.Quantity)
		assert.Equal(t, "quantity must not exceed 10000 for product P1", qtyErr.Error())
	})

	t.Run("quantity at cap", func(t *testing.T) {
		q, err := p.Price(ctx, []LineItemRequest{{ProductID: "P1", Quantity: MaxQuantity}}, "")
		require.NoError(t, err)
		assert.True(t, d("100000.00").Equal(q.Subtotal))
	})

	t.Run("unknown product aborts whole cart", func(t *testing.T) {
		_, err := p.Price(ctx, []LineItemRequest{
			{ProductID: "P1", Quantity: 1},
			{ProductID: "GHOST", Quantity: 1},
		}, "SAVE20")
		var pnfErr *ProductNotFoundError
		require.ErrorAs(t, err, &pnfErr)
		assert.Equal(t, "GHOST", pnfErr.ProductID)
	})
}

func TestPrice_CatalogFailure(t *testing.T) {
	products := &mockProductRepo{getErr: errors.New("connection refused")}
	p := newTestPricer(products, scenarioCoupons())

	_, err := p.Price(context.Background(), []LineItemRequest{{ProductID: "P1", Quantity: 1}}, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "get products")

	var pnfErr *ProductNotFoundError
	assert.False(t, errors.As(err, &pnfErr))
}

func TestPrice_CouponStoreFailureDegrades(t *testing.T) {
	products := newProductRepo(newTestProduct("P1", "Conejito", "10.00"))
	coupons := &mockCouponRepo{err: errors.New("timeout")}
	p := newTestPricer(products, coupons)

	q, err := p.Price(context.Background(), []LineItemRequest{{ProductID: "P1", Quantity: 2}}, "SAVE20")
	require.NoError(t, err)
	assert.True(t, d("20.00").Equal(q.TotalAmount))
	assert.Equal(t, "", q.DiscountCode())
}
