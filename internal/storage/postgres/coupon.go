package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/modelado-pao/internal/domain/coupon"
)

const (
	couponColumns = `id, code, kind, value, active, expires_at, description, created_at, updated_at`

	getCouponByCodeSQL = `SELECT ` + couponColumns + ` FROM coupons WHERE code = $1`

	getCouponByIDSQL = `SELECT ` + couponColumns + ` FROM coupons WHERE id = $1`

	listCouponsSQL = `SELECT ` + couponColumns + ` FROM coupons ORDER BY created_at DESC, code`

	createCouponSQL = `INSERT INTO coupons (` + couponColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	updateCouponSQL = `UPDATE coupons SET code = $2, kind = $3, value = $4, active = $5,
		expires_at = $6, description = $7, updated_at = $9
		WHERE id = $1`

	upsertCouponSQL = `INSERT INTO coupons (` + couponColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (code) DO UPDATE SET kind = EXCLUDED.kind, value = EXCLUDED.value,
			active = EXCLUDED.active, expires_at = EXCLUDED.expires_at,
			description = EXCLUDED.description, updated_at = EXCLUDED.updated_at`

	deleteCouponSQL = `DELETE FROM coupons WHERE id = $1`
)

var _ coupon.AdminRepository = (*CouponRepository)(nil)

// CouponRepository implements the coupon repositories backed by PostgreSQL.
// Codes are stored uppercased, so lookups compare them directly.
type CouponRepository struct {
	pool *pgxpool.Pool
}

// NewCouponRepository returns a CouponRepository that uses the given pool.
func NewCouponRepository(pool *pgxpool.Pool) *CouponRepository {
	return &CouponRepository{pool: pool}
}

// FindByCode looks up a coupon by its normalized code regardless of whether
// it is active; eligibility is decided by the caller.
func (r *CouponRepository) FindByCode(ctx context.Context, code string) (*coupon.Coupon, error) {
	return r.one(ctx, getCouponByCodeSQL, code)
}

// Get looks up a coupon by ID.
func (r *CouponRepository) Get(ctx context.Context, id string) (*coupon.Coupon, error) {
	return r.one(ctx, getCouponByIDSQL, id)
}

// List returns every coupon, newest first.
func (r *CouponRepository) List(ctx context.Context) ([]coupon.Coupon, error) {
	rows, err := r.pool.Query(ctx, listCouponsSQL)
	if err != nil {
		return nil, errors.Wrap(err, "list coupons")
	}
	return pgx.CollectRows(rows, scanCoupon)
}

// Create inserts c, returning coupon.ErrAlreadyExists when the code is taken.
func (r *CouponRepository) Create(ctx context.Context, c *coupon.Coupon) error {
	if _, err := r.pool.Exec(ctx, createCouponSQL, couponArgs(c)...); err != nil {
		if isUniqueViolation(err) {
			return coupon.ErrAlreadyExists
		}
		return errors.Wrapf(err, "create coupon %q", c.Code)
	}
	return nil
}

// Update overwrites the mutable fields of c.
func (r *CouponRepository) Update(ctx context.Context, c *coupon.Coupon) error {
	tag, err := r.pool.Exec(ctx, updateCouponSQL, couponArgs(c)...)
	if err != nil {
		if isUniqueViolation(err) {
			return coupon.ErrAlreadyExists
		}
		return errors.Wrapf(err, "update coupon %q", c.ID)
	}
	if tag.RowsAffected() == 0 {
		return coupon.ErrNotFound
	}
	return nil
}

// Upsert inserts c or overwrites the rule of the coupon with the same code.
func (r *CouponRepository) Upsert(ctx context.Context, c *coupon.Coupon) error {
	if _, err := r.pool.Exec(ctx, upsertCouponSQL, couponArgs(c)...); err != nil {
		return errors.Wrapf(err, "upsert coupon %q", c.Code)
	}
	return nil
}

// Delete removes the coupon with the given ID.
func (r *CouponRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, deleteCouponSQL, id)
	if err != nil {
		return errors.Wrapf(err, "delete coupon %q", id)
	}
	if tag.RowsAffected() == 0 {
		return coupon.ErrNotFound
	}
	return nil
}

func (r *CouponRepository) one(ctx context.Context, sql, arg string) (*coupon.Coupon, error) {
	rows, err := r.pool.Query(ctx, sql, arg)
	if err != nil {
		return nil, errors.Wrapf(err, "find coupon %q", arg)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanCoupon)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, coupon.ErrNotFound
		}
		return nil, errors.Wrapf(err, "find coupon %q", arg)
	}
	return &c, nil
}

func couponArgs(c *coupon.Coupon) []any {
	return []any{
		c.ID, c.Code, string(c.Kind), c.Value, c.Active, c.ExpiresAt,
		c.Description, c.CreatedAt, c.UpdatedAt,
	}
}

func scanCoupon(row pgx.CollectableRow) (coupon.Coupon, error) {
	var (
		c    coupon.Coupon
		kind string
	)
	err := row.Scan(
		&c.ID, &c.Code, &kind, &c.Value, &c.Active, &c.ExpiresAt,
		&c.Description, &c.CreatedAt, &c.UpdatedAt,
	)
	c.Kind = coupon.Kind(kind)
	return c, err
}
