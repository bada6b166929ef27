package product

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned when a requested product does not exist.
	ErrNotFound = errors.New("product not found")
	// ErrAlreadyExists is returned when creating a product whose ID is taken.
	ErrAlreadyExists = errors.New("product already exists")
	// ErrInvalidProduct is returned when a product fails admin validation.
	ErrInvalidProduct = errors.New("invalid product")
)

// Product represents a catalog item available for purchase.
//
// Price is nullable: catalog rows written by older tooling may lack a price,
// and readers must decide how to treat that.
type Product struct {
	ID          string
	Name        string
	Price       decimal.NullDecimal
	Category    string
	Description string
	Image       Image
}

// Image holds responsive image URLs for a product.
type Image struct {
	Thumbnail string
	Mobile    string
	Tablet    string
	Desktop   string
}

// UnitPrice returns the catalog price, or zero when the row carries none.
// The second value reports whether a price was present.
func (p Product) UnitPrice() (decimal.Decimal, bool) {
	if !p.Price.Valid {
		return decimal.Zero, false
	}
	return p.Price.Decimal, true
}

// Validate checks the fields an administrator must supply.
func (p Product) Validate() error {
	if p.ID == "" {
		return errors.Wrap(ErrInvalidProduct, "id is required")
	}
	if p.Name == "" {
		return errors.Wrap(ErrInvalidProduct, "name is required")
	}
	if p.Price.Valid && p.Price.Decimal.IsNegative() {
		return errors.Wrap(ErrInvalidProduct, "price must not be negative")
	}
	return nil
}

// Repository defines read operations for the product catalog.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	GetByIDs(ctx context.Context, ids []string) ([]Product, error)
}

// AdminRepository defines catalog mutations available to administrators.
type AdminRepository interface {
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id string) error
}
