package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Order is a priced customer order. Everything except Status is fixed at
// creation time.
type Order struct {
	ID             string
	Items          []LineItem
	Subtotal       decimal.Decimal
	DiscountCode   string
	DiscountAmount decimal.Decimal
	TotalAmount    decimal.Decimal
	Status         Status
	Guest          Guest
	Delivery       Delivery
	PaymentMethod  string
	Notes          string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// LineItemRequest is one cart line as submitted by a client. It carries no
// price; prices always come from the catalog.
type LineItemRequest struct {
	ProductID string
	Quantity  int
}

// LineItem is a priced order line. UnitPrice is the catalog price at the
// moment the order was placed.
type LineItem struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

// Total returns UnitPrice * Quantity.
func (li LineItem) Total() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// Guest holds the contact details of a customer checking out without an account.
type Guest struct {
	Name  string
	Email string
	Phone string
}

// DeliveryType is how the order reaches the customer.
type DeliveryType string

const (
	DeliveryPickup   DeliveryType = "pickup"
	DeliveryShipping DeliveryType = "delivery"
)

// Delivery holds fulfilment details. ShippingAddress is only required for
// DeliveryShipping.
type Delivery struct {
	Type            DeliveryType
	ShippingAddress string
}

// Filter narrows an order listing. Empty Statuses matches every status.
type Filter struct {
	Statuses []Status
	Limit    int
}

// Repository defines persistence operations for orders.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	Get(ctx context.Context, id string) (*Order, error)
	List(ctx context.Context, f Filter) ([]Order, error)
	// UpdateStatus moves the order from status from to status to. It returns
	// ErrStatusConflict when the stored status is no longer from.
	UpdateStatus(ctx context.Context, id string, from, to Status, at time.Time) error
}

// EventType names an order lifecycle event.
type EventType string

const (
	EventCreated       EventType = "order.created"
	EventStatusChanged EventType = "order.status_changed"
)

// Event is published after an order is created or changes status.
type Event struct {
	Type           EventType
	OrderID        string
	Status         Status
	PreviousStatus Status
	TotalAmount    decimal.Decimal
	OccurredAt     time.Time
}

// EventPublisher delivers order events to downstream consumers.
type EventPublisher interface {
	Publish(ctx context.Context, e Event) error
}
