package coupon

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func errorf(format string, args ...any) error {
	return errors.Wrapf(ErrInvalidRule, format, args...)
}

// Command is one administrative coupon operation. The concrete types are
// ListCommand, CreateCommand, UpdateCommand and DeleteCommand.
type Command interface {
	Validate() error
	command()
}

// ListCommand lists every coupon.
type ListCommand struct{}

// CreateCommand creates a coupon. Active defaults to true when nil.
type CreateCommand struct {
	Code        string
	Kind        Kind
	Value       decimal.Decimal
	Description string
	ExpiresAt   *time.Time
	Active      *bool
}

// Patch lists the coupon fields an update may change. Nil fields are left
// untouched. Code may be echoed back by clients but must not differ from
// the stored code.
type Patch struct {
	Code        *string
	Kind        *Kind
	Value       *decimal.Decimal
	Active      *bool
	Description *string
	ExpiresAt   *time.Time
	ClearExpiry bool
}

// UpdateCommand applies Patch to the coupon with the given ID.
type UpdateCommand struct {
	ID    string
	Patch Patch
}

// DeleteCommand removes the coupon with the given ID.
type DeleteCommand struct {
	ID string
}

func (ListCommand) command()   {}
func (CreateCommand) command() {}
func (UpdateCommand) command() {}
func (DeleteCommand) command() {}

// Validate implements Command.
func (ListCommand) Validate() error { return nil }

// Validate implements Command.
func (c CreateCommand) Validate() error {
	if NormalizeCode(c.Code) == "" {
		return errorf("code is required")
	}
	return validateRule(c.Kind, c.Value)
}

// Validate implements Command.
func (c UpdateCommand) Validate() error {
	if c.ID == "" {
		return errorf("discount id is required")
	}
	if c.Patch.Kind != nil && !c.Patch.Kind.Valid() {
		return errorf("unsupported discount type %q", *c.Patch.Kind)
	}
	if c.Patch.Value != nil && c.Patch.Value.IsNegative() {
		return errorf("value must not be negative")
	}
	if c.Patch.ClearExpiry && c.Patch.ExpiresAt != nil {
		return errorf("expiry cannot be both set and cleared")
	}
	return nil
}

// Validate implements Command.
func (c DeleteCommand) Validate() error {
	if c.ID == "" {
		return errorf("discount id is required")
	}
	return nil
}

// Result is the outcome of an administrative command.
type Result struct {
	Message string
	Coupon  *Coupon
	Coupons []Coupon
}

// Admin executes administrative coupon commands.
type Admin struct {
	repo  AdminRepository
	now   func() time.Time
	newID func() string
}

// NewAdmin creates an Admin backed by repo.
func NewAdmin(repo AdminRepository) *Admin {
	return &Admin{
		repo:  repo,
		now:   time.Now,
		newID: func() string { return uuid.New().String() },
	}
}

// Execute validates cmd and runs it.
func (a *Admin) Execute(ctx context.Context, cmd Command) (*Result, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	switch c := cmd.(type) {
	case ListCommand:
		return a.list(ctx)
	case CreateCommand:
		return a.create(ctx, c)
	case UpdateCommand:
		return a.update(ctx, c)
	case DeleteCommand:
		return a.delete(ctx, c)
	default:
		return nil, errorf("unsupported command %T", cmd)
	}
}

func (a *Admin) list(ctx context.Context) (*Result, error) {
	coupons, err := a.repo.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list coupons")
	}
	return &Result{Message: "coupons listed", Coupons: coupons}, nil
}

func (a *Admin) create(ctx context.Context, cmd CreateCommand) (*Result, error) {
	code := NormalizeCode(cmd.Code)

	existing, err := a.repo.FindByCode(ctx, code)
	switch {
	case err == nil && existing != nil:
		return nil, ErrAlreadyExists
	case err != nil && !errors.Is(err, ErrNotFound):
		return nil, errors.Wrap(err, "check existing coupon")
	}

	active := true
	if cmd.Active != nil {
		active = *cmd.Active
	}

	now := a.now().UTC()
	c := &Coupon{
		ID:          a.newID(),
		Code:        code,
		Kind:        cmd.Kind,
		Value:       cmd.Value,
		Active:      active,
		ExpiresAt:   cmd.ExpiresAt,
		Description: cmd.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := a.repo.Create(ctx, c); err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			return nil, ErrAlreadyExists
		}
		return nil, errors.Wrap(err, "create coupon")
	}
	return &Result{Message: "coupon created", Coupon: c}, nil
}

func (a *Admin) update(ctx context.Context, cmd UpdateCommand) (*Result, error) {
	c, err := a.repo.Get(ctx, cmd.ID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "get coupon")
	}

	p := cmd.Patch
	if p.Code != nil && NormalizeCode(*p.Code) != c.Code {
		return nil, errorf("code cannot be changed")
	}
	if p.Kind != nil {
		c.Kind = *p.Kind
	}
	if p.Value != nil {
		c.Value = *p.Value
	}
	if p.Active != nil {
		c.Active = *p.Active
	}
	if p.Description != nil {
		c.Description = *p.Description
	}
	switch {
	case p.ClearExpiry:
		c.ExpiresAt = nil
	case p.ExpiresAt != nil:
		c.ExpiresAt = p.ExpiresAt
	}

	// Kind and value may change independently, so re-check the combination.
	if err := validateRule(c.Kind, c.Value); err != nil {
		return nil, err
	}

	c.UpdatedAt = a.now().UTC()
	if err := a.repo.Update(ctx, c); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "update coupon")
	}
	return &Result{Message: "coupon updated", Coupon: c}, nil
}

func (a *Admin) delete(ctx context.Context, cmd DeleteCommand) (*Result, error) {
	if err := a.repo.Delete(ctx, cmd.ID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "delete coupon")
	}
	return &Result{Message: "coupon deleted"}, nil
}
