package handler

import (
	"net/http"

	"github.com/go-faster/jx"
)

// GetCart returns the user's cart priced at current catalog prices, creating
// an empty cart on first access.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	view, err := h.ledger.Get(r.Context(), userID)
	if err != nil {
		respondError(w, r, err, "get cart")
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		encodeCartView(e, view)
	})
}

// AddToCart puts quantity of an item into the user's cart, merging with an
// existing line for the same item.
func (h *Handler) AddToCart(w http.ResponseWriter, r *http.Request) {
	var (
		userID   string
		itemID   string
		quantity int
	)
	err := decodeBody(r, func(d *jx.Decoder, key string) error {
		switch key {
		case "user_id":
			v, err := d.Str()
			userID = v
			return err
		case "item_id":
			v, err := d.Str()
			itemID = v
			return err
		case "quantity":
			v, err := d.Int()
			quantity = v
			return err
		default:
			return d.Skip()
		}
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if userID == "" || itemID == "" {
		writeError(w, http.StatusBadRequest, "user_id and item_id are required")
		return
	}

	view, err := h.ledger.Add(r.Context(), userID, itemID, quantity)
	if err != nil {
		respondError(w, r, err, "add to cart")
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		encodeCartView(e, view)
	})
}

// RemoveFromCart deletes an item's line from the user's cart. Removing an
// absent item is a no-op and still returns the current cart.
func (h *Handler) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	var (
		userID string
		itemID string
	)
	err := decodeBody(r, func(d *jx.Decoder, key string) error {
		switch key {
		case "user_id":
			v, err := d.Str()
			userID = v
			return err
		case "item_id":
			v, err := d.Str()
			itemID = v
			return err
		default:
			return d.Skip()
		}
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if userID == "" || itemID == "" {
		writeError(w, http.StatusBadRequest, "user_id and item_id are required")
		return
	}

	view, err := h.ledger.Remove(r.Context(), userID, itemID)
	if err != nil {
		respondError(w, r, err, "remove from cart")
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		encodeCartView(e, view)
	})
}
