package handler

import (
	"net/http"
	"time"

	"github.com/go-faster/jx"
)

// GenerateDiscount mints a fresh single-use discount code.
func (h *Handler) GenerateDiscount(w http.ResponseWriter, r *http.Request) {
	code, err := h.registry.Generate(r.Context())
	if err != nil {
		respondError(w, r, err, "generate discount")
		return
	}

	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("code")
		e.Str(code.Value)
		e.FieldStart("created_at")
		e.Str(code.CreatedAt.Format(time.RFC3339))
		e.ObjEnd()
	})
}

// Stats returns aggregate purchase and discount counters.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	snap, err := h.stats.Snapshot(r.Context())
	if err != nil {
		respondError(w, r, err, "stats snapshot")
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("total_items")
		e.Int64(snap.TotalItemsSold)
		e.FieldStart("total_amount")
		encodeDecimal(e, snap.TotalAmount)
		e.FieldStart("total_discount")
		encodeDecimal(e, snap.TotalDiscount)
		e.FieldStart("order_count")
		e.Int64(snap.OrderCount)
		e.FieldStart("discount_codes")
		e.ArrStart()
		for _, c := range snap.IssuedCodes {
			e.Str(c)
		}
		e.ArrEnd()
		e.ObjEnd()
	})
}
