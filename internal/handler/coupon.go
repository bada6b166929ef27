package handler

import (
	"context"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/modelado-pao/internal/domain/coupon"
)

// previewCoupon answers whether a code would currently apply. The discount
// charged at checkout is always recomputed by the order service.
func (h *Handler) previewCoupon(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var code string
	err := decodeObj(w, r, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "couponCode", "code":
			code, err = decodeOptStr(d)
		default:
			err = d.Skip()
		}
		return err
	})
	if err != nil {
		fail(ctx, w, err)
		return
	}

	c, err := h.Coupons.Preview(ctx, code)
	if err != nil {
		failPreview(ctx, w, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("valid")
		e.Bool(true)
		e.FieldStart("code")
		e.Str(c.Code)
		e.FieldStart("type")
		e.Str(string(c.Kind))
		e.FieldStart("value")
		e.Num(jx.Num(c.Value.String()))
		e.FieldStart("message")
		e.Str(previewMessage(c))
		e.ObjEnd()
	})
}

func previewMessage(c *coupon.Coupon) string {
	if c.Kind == coupon.KindPercentage {
		return c.Value.String() + "% discount applied"
	}
	return "$" + c.Value.StringFixed(2) + " discount applied"
}

// failPreview maps refusals to 404 or 403 and adds "valid": false and a
// machine-readable reason alongside the usual error fields.
func failPreview(ctx context.Context, w http.ResponseWriter, err error) {
	var (
		status       int
		kind, reason string
		msg          string
	)
	switch {
	case errors.Is(err, coupon.ErrNotFound):
		status, kind, reason, msg = http.StatusNotFound, kindNotFound, "not-found", "Coupon not found"
	case errors.Is(err, coupon.ErrInactive):
		status, kind, reason, msg = http.StatusForbidden, kindFailedPrecondition, "inactive", "Coupon is not active"
	case errors.Is(err, coupon.ErrExpired):
		status, kind, reason, msg = http.StatusForbidden, kindFailedPrecondition, "expired", "Coupon has expired"
	default:
		fail(ctx, w, err)
		return
	}

	writeJSON(w, status, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("error")
		e.Str(kind)
		e.FieldStart("message")
		e.Str(msg)
		e.FieldStart("valid")
		e.Bool(false)
		e.FieldStart("reason")
		e.Str(reason)
		e.ObjEnd()
	})
}

// couponData is the "data" payload of an admin coupon command. Pointer
// fields distinguish absent from zero.
type couponData struct {
	patch coupon.Patch
}

func (c *couponData) decode(d *jx.Decoder) error {
	p := &c.patch
	return d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "code":
			v, err := d.Str()
			p.Code = &v
			return err
		case "type", "kind":
			v, err := d.Str()
			k := coupon.Kind(v)
			p.Kind = &k
			return err
		case "value":
			v, err := decodeDecimal(d)
			p.Value = &v
			return err
		case "isActive", "active":
			v, err := d.Bool()
			p.Active = &v
			return err
		case "description":
			v, err := decodeOptStr(d)
			p.Description = &v
			return err
		case "expiresAt":
			if d.Next() == jx.Null {
				p.ClearExpiry = true
				return d.Null()
			}
			v, err := decodeTime(d)
			p.ExpiresAt = &v
			return err
		default:
			return d.Skip()
		}
	})
}

func (c *couponData) create() (coupon.CreateCommand, error) {
	p := c.patch
	cmd := coupon.CreateCommand{
		Active:    p.Active,
		ExpiresAt: p.ExpiresAt,
	}
	if p.Code != nil {
		cmd.Code = *p.Code
	}
	if p.Kind != nil {
		cmd.Kind = *p.Kind
	}
	if p.Value == nil {
		return cmd, errors.Wrap(coupon.ErrInvalidRule, "value is required")
	}
	cmd.Value = *p.Value
	if p.Description != nil {
		cmd.Description = *p.Description
	}
	return cmd, nil
}

// adminCoupons runs {action, data?, discountId?} against the coupon admin.
func (h *Handler) adminCoupons(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var (
		action string
		id     string
		data   couponData
	)
	err := decodeObj(w, r, func(d *jx.Decoder, key string) error {
		switch key {
		case "action":
			v, err := d.Str()
			action = v
			return err
		case "discountId", "id":
			v, err := decodeOptStr(d)
			id = v
			return err
		case "data":
			if d.Next() == jx.Null {
				return d.Null()
			}
			return data.decode(d)
		default:
			return d.Skip()
		}
	})
	if err != nil {
		fail(ctx, w, err)
		return
	}

	var cmd coupon.Command
	status := http.StatusOK
	switch action {
	case "list":
		cmd = coupon.ListCommand{}
	case "create":
		c, err := data.create()
		if err != nil {
			fail(ctx, w, err)
			return
		}
		cmd, status = c, http.StatusCreated
	case "update":
		cmd = coupon.UpdateCommand{ID: id, Patch: data.patch}
	case "delete":
		cmd = coupon.DeleteCommand{ID: id}
	default:
		fail(ctx, w, badRequest("unsupported action %q", action))
		return
	}

	res, err := h.CouponAdmin.Execute(ctx, cmd)
	if err != nil {
		fail(ctx, w, err)
		return
	}

	writeJSON(w, status, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("message")
		e.Str(res.Message)
		if res.Coupon != nil {
			e.FieldStart("coupon")
			encodeCoupon(e, res.Coupon)
		}
		if action == "list" {
			e.FieldStart("coupons")
			e.ArrStart()
			for i := range res.Coupons {
				encodeCoupon(e, &res.Coupons[i])
			}
			e.ArrEnd()
		}
		e.ObjEnd()
	})
}

func encodeCoupon(e *jx.Encoder, c *coupon.Coupon) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(c.ID)
	e.FieldStart("code")
	e.Str(c.Code)
	e.FieldStart("type")
	e.Str(string(c.Kind))
	e.FieldStart("value")
	e.Num(jx.Num(c.Value.String()))
	e.FieldStart("isActive")
	e.Bool(c.Active)
	e.FieldStart("description")
	e.Str(c.Description)
	e.FieldStart("expiresAt")
	if c.ExpiresAt != nil {
		encodeTime(e, *c.ExpiresAt)
	} else {
		e.Null()
	}
	e.FieldStart("createdAt")
	encodeTime(e, c.CreatedAt)
	e.FieldStart("updatedAt")
	encodeTime(e, c.UpdatedAt)
	e.ObjEnd()
}
