package handler

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/xenking/storefront/internal/domain/order"
)

// Checkout finalizes the user's cart into an order. A refused discount code
// does not fail the request: the order completes at full price and the
// discount_status object explains why.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	var (
		userID string
		code   string
	)
	err := decodeBody(r, func(d *jx.Decoder, key string) error {
		switch key {
		case "user_id":
			v, err := d.Str()
			userID = v
			return err
		case "discount_code":
			v, err := d.Str()
			code = v
			return err
		default:
			return d.Skip()
		}
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if userID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	o, err := h.finalizer.Checkout(r.Context(), userID, code)
	if err != nil {
		respondError(w, r, err, "checkout")
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		encodeOrder(e, o)
	})
}

func encodeOrder(e *jx.Encoder, o *order.Order) {
	e.ObjStart()
	e.FieldStart("order_id")
	e.Str(o.ID)
	e.FieldStart("user_id")
	e.Str(o.UserID)
	e.FieldStart("items")
	e.ArrStart()
	for _, line := range o.Lines {
		e.ObjStart()
		e.FieldStart("item_id")
		e.Str(line.ItemID)
		e.FieldStart("name")
		e.Str(line.Name)
		e.FieldStart("price")
		encodeDecimal(e, line.Price)
		e.FieldStart("quantity")
		e.Int(line.Quantity)
		e.ObjEnd()
	}
	e.ArrEnd()
	e.FieldStart("subtotal")
	encodeDecimal(e, o.Subtotal)
	if o.DiscountCode != "" {
		e.FieldStart("discount_code")
		e.Str(o.DiscountCode)
	}
	e.FieldStart("discount_amount")
	encodeDecimal(e, o.DiscountAmount)
	e.FieldStart("total")
	encodeDecimal(e, o.Total)
	e.FieldStart("discount_status")
	e.ObjStart()
	e.FieldStart("applied")
	e.Bool(o.Discount.Applied)
	e.FieldStart("message")
	e.Str(o.Discount.Message)
	e.ObjEnd()
	e.ObjEnd()
}
