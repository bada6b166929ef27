package events

import (
	"time"

	"github.com/go-faster/jx"

	"github.com/xenking/modelado-pao/internal/domain/order"
)

// Encode renders e as the JSON message value.
func Encode(e order.Event) []byte {
	var enc jx.Encoder
	enc.ObjStart()
	enc.FieldStart("type")
	enc.Str(string(e.Type))
	enc.FieldStart("orderId")
	enc.Str(e.OrderID)
	enc.FieldStart("status")
	enc.Str(string(e.Status))
	if e.PreviousStatus != "" {
		enc.FieldStart("previousStatus")
		enc.Str(string(e.PreviousStatus))
	}
	enc.FieldStart("totalAmount")
	enc.Num(jx.Num(e.TotalAmount.StringFixed(2)))
	enc.FieldStart("occurredAt")
	enc.Str(e.OccurredAt.UTC().Format(time.RFC3339Nano))
	enc.ObjEnd()
	return enc.Bytes()
}
