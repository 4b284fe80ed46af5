package handler

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/xenking/storefront/internal/domain/catalog"
)

// ListItems returns all catalog items, optionally filtered by the category
// query parameter (case-sensitive exact match). An empty filter result is a
// valid empty array.
func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")

	items, err := h.catalog.List(r.Context(), category)
	if err != nil {
		respondError(w, r, err, "list items")
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ArrStart()
		for _, it := range items {
			encodeItem(e, it)
		}
		e.ArrEnd()
	})
}

// ListCategories returns the distinct categories present in the catalog.
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.Categories(r.Context())
	if err != nil {
		respondError(w, r, err, "list categories")
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ArrStart()
		for _, c := range categories {
			e.Str(c)
		}
		e.ArrEnd()
	})
}

func encodeItem(e *jx.Encoder, it catalog.Item) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(it.ID)
	e.FieldStart("name")
	e.Str(it.Name)
	e.FieldStart("price")
	encodeDecimal(e, it.Price)
	e.FieldStart("description")
	e.Str(it.Description)
	e.FieldStart("category")
	e.Str(it.Category)
	e.ObjEnd()
}
