package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/modelado-pao/internal/domain/order"
)

// decodePlaceOrder reads the checkout body. Cart lines accept both
// "idProducto" and "productId", under either "products" or "items".
func decodePlaceOrder(w http.ResponseWriter, r *http.Request) (order.PlaceOrderRequest, error) {
	var req order.PlaceOrderRequest
	err := decodeObj(w, r, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "products", "items":
			err = d.Arr(func(d *jx.Decoder) error {
				line, err := decodeLine(d)
				req.Items = append(req.Items, line)
				return err
			})
		case "guestName":
			req.Guest.Name, err = decodeOptStr(d)
		case "guestEmail":
			req.Guest.Email, err = decodeOptStr(d)
		case "guestPhone":
			req.Guest.Phone, err = decodeOptStr(d)
		case "deliveryType":
			var v string
			v, err = decodeOptStr(d)
			req.Delivery.Type = order.DeliveryType(v)
		case "shippingAddress":
			req.Delivery.ShippingAddress, err = decodeOptStr(d)
		case "paymentMethod":
			req.PaymentMethod, err = decodeOptStr(d)
		case "notes":
			req.Notes, err = decodeOptStr(d)
		case "discountCode", "couponCode":
			req.CouponCode, err = decodeOptStr(d)
		default:
			err = d.Skip()
		}
		if err != nil {
			return errors.Wrapf(err, "decode field %q", key)
		}
		return nil
	})
	return req, err
}

func decodeLine(d *jx.Decoder) (order.LineItemRequest, error) {
	var line order.LineItemRequest
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "idProducto", "productId":
			line.ProductID, err = decodeOptStr(d)
		case "quantity":
			if d.Next() == jx.Null {
				return d.Null()
			}
			line.Quantity, err = d.Int()
			if err != nil {
				return badRequest("quantity must be an integer")
			}
		default:
			err = d.Skip()
		}
		return err
	})
	return line, err
}

func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, err := decodePlaceOrder(w, r)
	if err != nil {
		fail(ctx, w, err)
		return
	}

	o, err := h.Orders.PlaceOrder(ctx, req)
	if err != nil {
		fail(ctx, w, err)
		return
	}

	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("message")
		e.Str("Order created")
		e.FieldStart("id")
		e.Str(o.ID)
		e.FieldStart("status")
		e.Str(string(o.Status))
		e.FieldStart("subtotal")
		encodeMoney(e, o.Subtotal)
		e.FieldStart("discountAmount")
		encodeMoney(e, o.DiscountAmount)
		if o.DiscountCode != "" {
			e.FieldStart("discountCode")
			e.Str(o.DiscountCode)
		}
		e.FieldStart("totalAmount")
		encodeMoney(e, o.TotalAmount)
		e.ObjEnd()
	})
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.Orders.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		fail(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		encodeOrder(e, o, false)
	})
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	statuses, err := order.ExpandFilter(q.Get("status"))
	if err != nil {
		fail(ctx, w, err)
		return
	}
	f := order.Filter{Statuses: statuses}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			fail(ctx, w, badRequest("limit must be a positive integer"))
			return
		}
		f.Limit = n
	}

	orders, err := h.Orders.List(ctx, f)
	if err != nil {
		fail(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("count")
		e.Int(len(orders))
		e.FieldStart("orders")
		e.ArrStart()
		for i := range orders {
			encodeOrder(e, &orders[i], true)
		}
		e.ArrEnd()
		e.ObjEnd()
	})
}

func (h *Handler) setOrderStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var id, raw string
	err := decodeObj(w, r, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "orderId":
			id, err = d.Str()
		case "newStatus":
			raw, err = d.Str()
		default:
			err = d.Skip()
		}
		return err
	})
	if err != nil {
		fail(ctx, w, err)
		return
	}
	if id == "" {
		fail(ctx, w, badRequest("orderId is required"))
		return
	}
	to, err := order.ParseStatus(raw)
	if err != nil {
		fail(ctx, w, err)
		return
	}

	change, err := h.Orders.SetStatus(ctx, id, to)
	if err != nil {
		fail(ctx, w, err)
		return
	}

	msg := "Order status updated"
	if change.Unchanged {
		msg = "Order already has status " + string(change.To) + "; nothing changed"
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("message")
		e.Str(msg)
		e.FieldStart("orderId")
		e.Str(change.OrderID)
		e.FieldStart("changed")
		e.Bool(!change.Unchanged)
		e.FieldStart("previousStatus")
		e.Str(string(change.From))
		e.FieldStart("status")
		e.Str(string(change.To))
		e.ObjEnd()
	})
}

// encodeOrder writes o. Guest contact details are only included for admins.
func encodeOrder(e *jx.Encoder, o *order.Order, withGuest bool) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(o.ID)
	e.FieldStart("status")
	e.Str(string(o.Status))
	e.FieldStart("items")
	e.ArrStart()
	for _, li := range o.Items {
		e.ObjStart()
		e.FieldStart("productId")
		e.Str(li.ProductID)
		e.FieldStart("name")
		e.Str(li.Name)
		e.FieldStart("quantity")
		e.Int(li.Quantity)
		e.FieldStart("unitPrice")
		encodeMoney(e, li.UnitPrice)
		e.ObjEnd()
	}
	e.ArrEnd()
	e.FieldStart("subtotal")
	encodeMoney(e, o.Subtotal)
	if o.DiscountCode != "" {
		e.FieldStart("discountCode")
		e.Str(o.DiscountCode)
	}
	e.FieldStart("discountAmount")
	encodeMoney(e, o.DiscountAmount)
	e.FieldStart("totalAmount")
	encodeMoney(e, o.TotalAmount)
	e.FieldStart("deliveryType")
	e.Str(string(o.Delivery.Type))
	if withGuest {
		e.FieldStart("guestName")
		e.Str(o.Guest.Name)
		e.FieldStart("guestEmail")
		e.Str(o.Guest.Email)
		e.FieldStart("guestPhone")
		e.Str(o.Guest.Phone)
		if o.Delivery.ShippingAddress != "" {
			e.FieldStart("shippingAddress")
			e.Str(o.Delivery.ShippingAddress)
		}
		e.FieldStart("paymentMethod")
		e.Str(o.PaymentMethod)
		if o.Notes != "" {
			e.FieldStart("notes")
			e.Str(o.Notes)
		}
	}
	e.FieldStart("createdAt")
	encodeTime(e, o.CreatedAt)
	e.FieldStart("updatedAt")
	encodeTime(e, o.UpdatedAt)
	e.ObjEnd()
}
