// Package handler exposes the storefront over HTTP JSON.
package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/xenking/modelado-pao/internal/domain/auth"
	"github.com/xenking/modelado-pao/internal/domain/coupon"
	"github.com/xenking/modelado-pao/internal/domain/order"
	"github.com/xenking/modelado-pao/internal/domain/product"
)

// OrderService is the order behaviour the HTTP layer needs.
type OrderService interface {
	PlaceOrder(ctx context.Context, req order.PlaceOrderRequest) (*order.Order, error)
	Get(ctx context.Context, id string) (*order.Order, error)
	List(ctx context.Context, f order.Filter) ([]order.Order, error)
	SetStatus(ctx context.Context, id string, to order.Status) (*order.StatusChange, error)
}

// CouponPreviewer checks a code without applying it.
type CouponPreviewer interface {
	Preview(ctx context.Context, code string) (*coupon.Coupon, error)
}

// CouponAdmin runs administrative coupon commands.
type CouponAdmin interface {
	Execute(ctx context.Context, cmd coupon.Command) (*coupon.Result, error)
}

// ProductAdmin mutates the catalog.
type ProductAdmin interface {
	Create(ctx context.Context, p *product.Product) error
	Update(ctx context.Context, p *product.Product) error
	Delete(ctx context.Context, id string) error
}

// Authenticator resolves an API key to a Principal.
type Authenticator interface {
	Authenticate(ctx context.Context, key string) (*auth.Principal, error)
}

// Config holds non-dependency configuration for the Handler.
type Config struct {
	// ImageBaseURL is prepended to relative image paths in product responses.
	// When empty, image paths are returned as stored in the database.
	ImageBaseURL string
}

// Deps are the domain services behind the HTTP surface.
type Deps struct {
	Products     product.Repository
	ProductAdmin ProductAdmin
	Orders       OrderService
	Coupons      CouponPreviewer
	CouponAdmin  CouponAdmin
	Auth         Authenticator
}

// Handler serves the public storefront API and the admin API.
type Handler struct {
	Deps
	imageBaseURL string
}

// New constructs a Handler.
func New(cfg Config, deps Deps) *Handler {
	return &Handler{
		Deps:         deps,
		imageBaseURL: cfg.ImageBaseURL,
	}
}

// Register mounts every route on r.
func (h *Handler) Register(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/products", h.listProducts)
		r.Get("/products/{id}", h.getProduct)
		r.Post("/orders", h.placeOrder)
		r.Get("/orders/{id}", h.getOrder)
		r.Post("/coupons/validate", h.previewCoupon)

		r.Route("/admin", func(r chi.Router) {
			r.Use(RequireAdmin(h.Auth))

			r.Post("/coupons", h.adminCoupons)
			r.Post("/orders/status", h.setOrderStatus)
			r.Get("/orders", h.listOrders)
			r.Post("/products", h.createProduct)
			r.Put("/products/{id}", h.updateProduct)
			r.Delete("/products/{id}", h.deleteProduct)
		})
	})
}

// NotFound answers unknown routes with the JSON error body.
func NotFound(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusNotFound, kindNotFound, "route not found")
}

// MethodNotAllowed answers known routes hit with the wrong method.
func MethodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, kindInvalidArgument, "method not allowed")
}
