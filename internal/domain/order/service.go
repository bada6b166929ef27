package order

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/xenking/modelado-pao/internal/domain/coupon"
)

// Sentinel errors for order validation and lifecycle.
var (
	ErrEmptyItems        = errors.New("items required")
	ErrNotFound          = errors.New("order not found")
	ErrInvalidTransition = errors.New("status transition not allowed")
	ErrStatusConflict    = errors.New("order status changed concurrently")
)

// ProductNotFoundError indicates a requested product does not exist.
type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %s not found", e.ProductID)
}

// InvalidQuantityError indicates a line item quantity outside 1..MaxQuantity.
type InvalidQuantityError struct {
	ProductID string
	Quantity  int
}

func (e *InvalidQuantityError) Error() string {
	if e.Quantity > MaxQuantity {
		return fmt.Sprintf("quantity must not exceed %d for product %s", MaxQuantity, e.ProductID)
	}
	return fmt.Sprintf("quantity must be greater than 0 for product %s", e.ProductID)
}

// InvalidItemError indicates a malformed cart line.
type InvalidItemError struct {
	Index  int
	Reason string
}

func (e *InvalidItemError) Error() string {
	return fmt.Sprintf("item %d: %s", e.Index, e.Reason)
}

// InvalidFieldError indicates a missing or malformed checkout field.
type InvalidFieldError struct {
	Field  string
	Reason string
}

func (e *InvalidFieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// PlaceOrderRequest holds the input for placing an order.
type PlaceOrderRequest struct {
	Items         []LineItemRequest
	CouponCode    string
	Guest         Guest
	Delivery      Delivery
	PaymentMethod string
	Notes         string
}

// Validate checks the checkout fields that do not depend on the catalog.
func (r PlaceOrderRequest) Validate() error {
	if strings.TrimSpace(r.Guest.Name) == "" {
		return &InvalidFieldError{Field: "guestName", Reason: "required"}
	}
	if strings.TrimSpace(r.Guest.Email) == "" {
		return &InvalidFieldError{Field: "guestEmail", Reason: "required"}
	}
	if _, err := mail.ParseAddress(r.Guest.Email); err != nil {
		return &InvalidFieldError{Field: "guestEmail", Reason: "not a valid email address"}
	}
	if strings.TrimSpace(r.Guest.Phone) == "" {
		return &InvalidFieldError{Field: "guestPhone", Reason: "required"}
	}
	switch r.Delivery.Type {
	case DeliveryPickup:
	case DeliveryShipping:
		if strings.TrimSpace(r.Delivery.ShippingAddress) == "" {
			return &InvalidFieldError{Field: "shippingAddress", Reason: "required for delivery"}
		}
	default:
		return &InvalidFieldError{Field: "deliveryType", Reason: `must be "pickup" or "delivery"`}
	}
	if strings.TrimSpace(r.PaymentMethod) == "" {
		return &InvalidFieldError{Field: "paymentMethod", Reason: "required"}
	}
	return nil
}

// StatusChange describes the outcome of SetStatus.
type StatusChange struct {
	OrderID   string
	From      Status
	To        Status
	Unchanged bool
}

// Option configures a Service.
type Option func(*Service)

// WithPublisher sets the publisher for order events.
func WithPublisher(p EventPublisher) Option {
	return func(s *Service) { s.events = p }
}

// WithTracerProvider sets the tracer provider used for order spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Service) { s.tracer = tp.Tracer("pao/order") }
}

// WithMeterProvider sets the meter provider used for order metrics.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(s *Service) { s.meter = mp.Meter("pao/order") }
}

// Service encapsulates order placement and lifecycle business logic.
type Service struct {
	pricer *Pricer
	orders Repository
	events EventPublisher
	now    func() time.Time
	newID  func() string

	tracer         trace.Tracer
	meter          metric.Meter
	placed         metric.Int64Counter
	couponOutcomes metric.Int64Counter
}

// NewService creates an order Service with the required domain dependencies.
func NewService(pricer *Pricer, orders Repository, opts ...Option) (*Service, error) {
	s := &Service{
		pricer: pricer,
		orders: orders,
		now:    time.Now,
		newID:  func() string { return uuid.New().String() },
		tracer: tracenoop.NewTracerProvider().Tracer("pao/order"),
		meter:  metricnoop.NewMeterProvider().Meter("pao/order"),
	}
	for _, o := range opts {
		o(s)
	}

	var err error
	if s.placed, err = s.meter.Int64Counter("orders.placed",
		metric.WithDescription("Orders successfully placed"),
	); err != nil {
		return nil, errors.Wrap(err, "orders.placed counter")
	}
	if s.couponOutcomes, err = s.meter.Int64Counter("orders.coupon_outcomes",
		metric.WithDescription("Coupon codes submitted at checkout, by outcome"),
	); err != nil {
		return nil, errors.Wrap(err, "orders.coupon_outcomes counter")
	}
	return s, nil
}

// PlaceOrder validates the request, prices the cart against the catalog,
// persists the order as pending and publishes an order.created event.
func (s *Service) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*Order, error) {
	ctx, span := s.tracer.Start(ctx, "order.PlaceOrder")
	defer span.End()

	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	q, err := s.pricer.Price(ctx, req.Items, req.CouponCode)
	if err != nil {
		return nil, err
	}
	s.recordCoupon(ctx, req.CouponCode, q)

	now := s.now().UTC()
	o := &Order{
		ID:             s.newID(),
		Items:          q.Items,
		Subtotal:       q.Subtotal,
		DiscountCode:   q.DiscountCode(),
		DiscountAmount: q.DiscountAmount,
		TotalAmount:    q.TotalAmount,
		Status:         StatusPending,
		Guest:          req.Guest,
		Delivery:       req.Delivery,
		PaymentMethod:  req.PaymentMethod,
		Notes:          req.Notes,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.orders.Create(ctx, o); err != nil {
		return nil, errors.Wrap(err, "create order")
	}

	span.SetAttributes(
		attribute.String("order.id", o.ID),
		attribute.Int("order.lines", len(o.Items)),
	)
	s.placed.Add(ctx, 1)
	s.publish(ctx, Event{
		Type:        EventCreated,
		OrderID:     o.ID,
		Status:      o.Status,
		TotalAmount: o.TotalAmount,
		OccurredAt:  now,
	})

	zctx.From(ctx).Info("Order placed",
		zap.String("order_id", o.ID),
		zap.Stringer("total", o.TotalAmount),
		zap.String("discount_code", o.DiscountCode),
	)
	return o, nil
}

// Get returns the order with the given ID.
func (s *Service) Get(ctx context.Context, id string) (*Order, error) {
	o, err := s.orders.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "get order")
	}
	return o, nil
}

// List returns orders matching f, newest first.
func (s *Service) List(ctx context.Context, f Filter) ([]Order, error) {
	orders, err := s.orders.List(ctx, f)
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	return orders, nil
}

// SetStatus moves an order to status to. Setting the current status again is
// reported through StatusChange.Unchanged rather than as an error.
func (s *Service) SetStatus(ctx context.Context, id string, to Status) (*StatusChange, error) {
	ctx, span := s.tracer.Start(ctx, "order.SetStatus")
	defer span.End()

	o, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	change := &StatusChange{OrderID: id, From: o.Status, To: to}
	if o.Status == to {
		change.Unchanged = true
		return change, nil
	}
	if !CanTransition(o.Status, to) {
		return nil, errors.Wrapf(ErrInvalidTransition, "%s to %s", o.Status, to)
	}

	now := s.now().UTC()
	if err := s.orders.UpdateStatus(ctx, id, o.Status, to, now); err != nil {
		if errors.Is(err, ErrStatusConflict) || errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, errors.Wrap(err, "update order status")
	}

	s.publish(ctx, Event{
		Type:           EventStatusChanged,
		OrderID:        id,
		Status:         to,
		PreviousStatus: o.Status,
		TotalAmount:    o.TotalAmount,
		OccurredAt:     now,
	})
	zctx.From(ctx).Info("Order status changed",
		zap.String("order_id", id),
		zap.String("from", string(o.Status)),
		zap.String("to", string(to)),
	)
	return change, nil
}

func (s *Service) recordCoupon(ctx context.Context, code string, q *Quote) {
	if code == "" {
		return
	}
	outcome := "applied"
	switch {
	case q.Coupon.Applied():
	case errors.Is(q.Coupon.Rejected, coupon.ErrNotFound):
		outcome = "not_found"
	case errors.Is(q.Coupon.Rejected, coupon.ErrInactive):
		outcome = "inactive"
	case errors.Is(q.Coupon.Rejected, coupon.ErrExpired):
		outcome = "expired"
	default:
		outcome = "error"
	}
	s.couponOutcomes.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// publish delivers e best-effort; the order is already committed.
func (s *Service) publish(ctx context.Context, e Event) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, e); err != nil {
		zctx.From(ctx).Warn("Publish order event",
			zap.String("order_id", e.OrderID),
			zap.String("type", string(e.Type)),
			zap.Error(err),
		)
	}
}
