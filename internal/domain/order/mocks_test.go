package order

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/modelado-pao/internal/domain/coupon"
	"github.com/xenking/modelado-pao/internal/domain/product"
)

// --- Mock implementations ---

type mockProductRepo struct {
	byID   map[string]*product.Product
	getErr error
}

func (m *mockProductRepo) List(_ context.Context) ([]product.Product, error) {
	return nil, nil
}

func (m *mockProductRepo) GetByID(_ context.Context, id string) (*product.Product, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	p, ok := m.byID[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	return p, nil
}

func (m *mockProductRepo) GetByIDs(_ context.Context, ids []string) ([]product.Product, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	var out []product.Product
	for _, id := range ids {
		if p, ok := m.byID[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

type mockCouponRepo struct {
	byCode map[string]*coupon.Coupon
	err    error
}

func (m *mockCouponRepo) FindByCode(_ context.Context, code string) (*coupon.Coupon, error) {
	if m.err != nil {
		return nil, m.err
	}
	c, ok := m.byCode[code]
	if !ok {
		return nil, coupon.ErrNotFound
	}
	return c, nil
}

type mockOrderRepo struct {
	mu        sync.Mutex
	byID      map[string]*Order
	created   int
	createErr error
	updateErr error
}

func newOrderRepo() *mockOrderRepo {
	return &mockOrderRepo{byID: make(map[string]*Order)}
}

func (m *mockOrderRepo) Create(_ context.Context, o *Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	cp := *o
	m.byID[o.ID] = &cp
	m.created++
	return nil
}

func (m *mockOrderRepo) Get(_ context.Context, id string) (*Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *mockOrderRepo) List(_ context.Context, f Filter) ([]Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Order
	for _, o := range m.byID {
		if len(f.Statuses) == 0 {
			out = append(out, *o)
			continue
		}
		for _, st := range f.Statuses {
			if o.Status == st {
				out = append(out, *o)
				break
			}
		}
	}
	return out, nil
}

func (m *mockOrderRepo) UpdateStatus(_ context.Context, id string, from, to Status, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	o, ok := m.byID[id]
	if !ok {
		return ErrNotFound
	}
	if o.Status != from {
		return ErrStatusConflict
	}
	o.Status = to
	o.UpdatedAt = at
	return nil
}

type mockPublisher struct {
	events []Event
	err    error
}

func (m *mockPublisher) Publish(_ context.Context, e Event) error {
	m.events = append(m.events, e)
	return m.err
}

// --- Helpers ---

var fixedNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func newTestProduct(id, name string, price string) product.Product {
	p := product.Product{
		ID:       id,
		Name:     name,
		Category: "figuras",
		Image: product.Image{
			Thumbnail: "thumb.jpg",
			Mobile:    "mobile.jpg",
			Tablet:    "tablet.jpg",
			Desktop:   "desktop.jpg",
		},
	}
	if price != "" {
		p.Price = decimal.NewNullDecimal(d(price))
	}
	return p
}

func newProductRepo(products ...product.Product) *mockProductRepo {
	byID := make(map[string]*product.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}
	return &mockProductRepo{byID: byID}
}

func newCouponRepo(coupons ...coupon.Coupon) *mockCouponRepo {
	byCode := make(map[string]*coupon.Coupon, len(coupons))
	for i := range coupons {
		byCode[coupons[i].Code] = &coupons[i]
	}
	return &mockCouponRepo{byCode: byCode}
}

// scenarioCoupons are the coupons used across pricing scenarios. EXPIRED
// lies in the past relative to the real clock the resolver uses.
func scenarioCoupons() *mockCouponRepo {
	past := fixedNow.Add(-24 * time.Hour)
	return newCouponRepo(
		coupon.Coupon{Code: "SAVE20", Kind: coupon.KindPercentage, Value: d("20"), Active: true},
		coupon.Coupon{Code: "SALE10", Kind: coupon.KindPercentage, Value: d("10"), Active: true},
		coupon.Coupon{Code: "FLAT50", Kind: coupon.KindFixed, Value: d("50"), Active: true},
		coupon.Coupon{Code: "FLAT5", Kind: coupon.KindFixed, Value: d("5"), Active: true},
		coupon.Coupon{Code: "EXPIRED", Kind: coupon.KindPercentage, Value: d("20"), Active: true, ExpiresAt: &past},
		coupon.Coupon{Code: "PAUSED", Kind: coupon.KindPercentage, Value: d("20"), Active: false},
	)
}

func newTestPricer(products *mockProductRepo, coupons *mockCouponRepo) *Pricer {
	return NewPricer(products, coupon.NewResolver(coupons))
}

func validRequest(items ...LineItemRequest) PlaceOrderRequest {
	return PlaceOrderRequest{
		Items: items,
		Guest: Guest{
			Name:  "Ana Pérez",
			Email: "ana@example.com",
			Phone: "+52 55 1234 5678",
		},
		Delivery:      Delivery{Type: DeliveryPickup},
		PaymentMethod: "transfer",
	}
}
