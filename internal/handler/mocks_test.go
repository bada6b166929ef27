package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/xenking/modelado-pao/internal/domain/auth"
	"github.com/xenking/modelado-pao/internal/domain/coupon"
	"github.com/xenking/modelado-pao/internal/domain/order"
	"github.com/xenking/modelado-pao/internal/domain/product"
)

// --- Mock implementations ---

type mockProducts struct {
	products []product.Product
	err      error
}

func (m *mockProducts) List(context.Context) ([]product.Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	return append([]product.Product(nil), m.products...), nil
}

func (m *mockProducts) GetByID(_ context.Context, id string) (*product.Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, p := range m.products {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, product.ErrNotFound
}

func (m *mockProducts) GetByIDs(context.Context, []string) ([]product.Product, error) {
	return nil, nil
}

type mockProductAdmin struct {
	created, updated *product.Product
	deleted          string
	err              error
}

func (m *mockProductAdmin) Create(_ context.Context, p *product.Product) error {
	m.created = p
	return m.err
}

func (m *mockProductAdmin) Update(_ context.Context, p *product.Product) error {
	m.updated = p
	return m.err
}

func (m *mockProductAdmin) Delete(_ context.Context, id string) error {
	m.deleted = id
	return m.err
}

type mockOrders struct {
	placed order.PlaceOrderRequest
	order  *order.Order
	orders []order.Order
	filter order.Filter
	change *order.StatusChange
	setTo  order.Status
	err    error
}

func (m *mockOrders) PlaceOrder(_ context.Context, req order.PlaceOrderRequest) (*order.Order, error) {
	m.placed = req
	return m.order, m.err
}

func (m *mockOrders) Get(context.Context, string) (*order.Order, error) {
	return m.order, m.err
}

func (m *mockOrders) List(_ context.Context, f order.Filter) ([]order.Order, error) {
	m.filter = f
	return m.orders, m.err
}

func (m *mockOrders) SetStatus(_ context.Context, _ string, to order.Status) (*order.StatusChange, error) {
	m.setTo = to
	return m.change, m.err
}

type mockPreviewer struct {
	coupon *coupon.Coupon
	err    error
	code   string
}

func (m *mockPreviewer) Preview(_ context.Context, code string) (*coupon.Coupon, error) {
	m.code = code
	return m.coupon, m.err
}

type mockCouponAdmin struct {
	cmd    coupon.Command
	result *coupon.Result
	err    error
}

func (m *mockCouponAdmin) Execute(_ context.Context, cmd coupon.Command) (*coupon.Result, error) {
	m.cmd = cmd
	if m.err != nil {
		return nil, m.err
	}
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	return m.result, nil
}

type mockAuth map[string]*auth.Principal

func (m mockAuth) Authenticate(_ context.Context, key string) (*auth.Principal, error) {
	p, ok := m[key]
	if !ok {
		return nil, auth.ErrUnauthenticated
	}
	return p, nil
}

// --- Helpers ---

const (
	adminKey  = "admin-key"
	viewerKey = "viewer-key"
)

type fixture struct {
	products     *mockProducts
	productAdmin *mockProductAdmin
	orders       *mockOrders
	coupons      *mockPreviewer
	couponAdmin  *mockCouponAdmin
	router       *chi.Mux
}

func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()

	f := &fixture{
		products:     &mockProducts{},
		productAdmin: &mockProductAdmin{},
		orders:       &mockOrders{},
		coupons:      &mockPreviewer{},
		couponAdmin:  &mockCouponAdmin{result: &coupon.Result{Message: "ok"}},
	}
	h := New(cfg, Deps{
		Products:     f.products,
		ProductAdmin: f.productAdmin,
		Orders:       f.orders,
		Coupons:      f.coupons,
		CouponAdmin:  f.couponAdmin,
		Auth: mockAuth{
			adminKey:  {KeyID: "k1", Name: "ops", Scopes: []string{auth.ScopeAdmin}},
			viewerKey: {KeyID: "k2", Name: "viewer", Scopes: []string{"read"}},
		},
	})

	f.router = chi.NewRouter()
	f.router.NotFound(NotFound)
	f.router.MethodNotAllowed(MethodNotAllowed)
	h.Register(f.router)
	return f
}

func (f *fixture) do(t *testing.T, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()

	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, path, http.NoBody)
	} else {
		r = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		r.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		r.Header.Set(headers[i], headers[i+1])
	}

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, r)
	return rec
}

func (f *fixture) admin(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	return f.do(t, method, path, body, HeaderAPIKey, adminKey)
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var v map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func testProduct(id, name, price string) product.Product {
	return product.Product{
		ID:       id,
		Name:     name,
		Price:    decimal.NewNullDecimal(d(price)),
		Category: "figuras",
		Image: product.Image{
			Thumbnail: "images/thumb.jpg",
			Mobile:    "/images/mobile.jpg",
			Tablet:    "images/tablet.jpg",
			Desktop:   "https://cdn.example.com/desktop.jpg",
		},
	}
}
