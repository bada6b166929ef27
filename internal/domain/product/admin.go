package product

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
)

// Invalidator drops cached catalog entries after a mutation.
type Invalidator interface {
	Invalidate(ctx context.Context, ids ...string) error
}

// Admin applies administrator catalog changes and keeps caches coherent.
type Admin struct {
	repo  AdminRepository
	cache Invalidator
}

// NewAdmin creates an Admin. cache may be nil when no cache is configured.
func NewAdmin(repo AdminRepository, cache Invalidator) *Admin {
	return &Admin{repo: repo, cache: cache}
}

// Create validates and inserts p.
func (a *Admin) Create(ctx context.Context, p *Product) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if err := a.repo.Create(ctx, p); err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			return ErrAlreadyExists
		}
		return errors.Wrap(err, "create product")
	}
	a.invalidate(ctx, p.ID)
	return nil
}

// Update validates p and replaces the stored product with the same ID.
func (a *Admin) Update(ctx context.Context, p *Product) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if err := a.repo.Update(ctx, p); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return errors.Wrap(err, "update product")
	}
	a.invalidate(ctx, p.ID)
	return nil
}

// Delete removes the product with the given ID.
func (a *Admin) Delete(ctx context.Context, id string) error {
	if err := a.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return errors.Wrap(err, "delete product")
	}
	a.invalidate(ctx, id)
	return nil
}

// invalidate never fails the mutation: stale entries expire with their TTL.
func (a *Admin) invalidate(ctx context.Context, id string) {
	if a.cache == nil {
		return
	}
	if err := a.cache.Invalidate(ctx, id); err != nil {
		zctx.From(ctx).Warn("Invalidate product cache",
			zap.String("product_id", id),
			zap.Error(err),
		)
	}
}
