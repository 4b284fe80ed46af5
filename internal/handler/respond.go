package handler

import (
	"io"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/domain/catalog"
	"github.com/xenking/storefront/internal/domain/order"
)

const maxBodyBytes = 1 << 20

// writeJSON encodes a JSON body with the given encode function and writes it
// with the status code.
func writeJSON(w http.ResponseWriter, status int, encode func(e *jx.Encoder)) {
	var e jx.Encoder
	encode(&e)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

// writeError writes the {code, message} error body.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("code")
		e.Int(status)
		e.FieldStart("message")
		e.Str(message)
		e.ObjEnd()
	})
}

// respondError maps domain errors onto the HTTP error taxonomy. Validation
// failures and empty carts are 400, unknown items 404, everything else is an
// internal error that gets logged with the request context.
func respondError(w http.ResponseWriter, r *http.Request, err error, op string) {
	switch {
	case errors.Is(err, cart.ErrInvalidQuantity):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, order.ErrEmptyCart):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, catalog.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		zctx.From(r.Context()).Error(op, zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// decodeBody reads at most maxBodyBytes of the request body and decodes the
// top-level object, dispatching each field to the given function. Unknown
// fields are skipped by the caller.
func decodeBody(r *http.Request, field func(d *jx.Decoder, key string) error) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return errors.Wrap(err, "read body")
	}
	d := jx.DecodeBytes(body)
	return d.Obj(field)
}

// encodeDecimal writes a decimal as a JSON number with exact digits.
func encodeDecimal(e *jx.Encoder, d decimal.Decimal) {
	e.Num(jx.Num(d.String()))
}

// encodeCartView writes the cart response body: priced lines plus the running
// total.
func encodeCartView(e *jx.Encoder, v *cart.View) {
	e.ObjStart()
	e.FieldStart("user_id")
	e.Str(v.UserID)
	e.FieldStart("items")
	e.ArrStart()
	for _, line := range v.Lines {
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
	e.FieldStart("total")
	encodeDecimal(e, v.Total)
	e.ObjEnd()
}
