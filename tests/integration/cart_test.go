//go:build integration

package integration

import (
	"net/http"
	"testing"
)

func TestCart_AddAndGet(t *testing.T) {
	c := addToCart(t, "cart-user-1", "8", 2) // 2x Novel $14.99

	if len(c.Items) != 1 {
		t.Fatalf("lines: got %d, want 1", len(c.Items))
	}
	if c.Items[0].Quantity != 2 {
		t.Errorf("quantity: got %d, want 2", c.Items[0].Quantity)
	}
	if c.Total != "29.98" {
		t.Errorf("total: got %s, want 29.98", c.Total)
	}

	resp := doGet(t, "/api/cart?user_id=cart-user-1")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	got := decodeJSON[cartResponse](t, resp)
	if got.Total != "29.98" {
		t.Errorf("get total: got %s, want 29.98", got.Total)
	}
}

func TestCart_AddMergesLines(t *testing.T) {
	addToCart(t, "cart-user-2", "5", 1)
	c := addToCart(t, "cart-user-2", "5", 3)

	if len(c.Items) != 1 {
		t.Fatalf("lines: got %d, want 1", len(c.Items))
	}
	if c.Items[0].Quantity != 4 {
		t.Errorf("quantity: got %d, want 4", c.Items[0].Quantity)
	}
}

func TestCart_RemoveIsIdempotent(t *testing.T) {
	addToCart(t, "cart-user-3", "4", 1)

	resp := doPost(t, "/api/cart/remove", map[string]any{
		"user_id": "cart-user-3", "item_id": "4",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	c := decodeJSON[cartResponse](t, resp)
	if len(c.Items) != 0 {
		t.Fatalf("lines after remove: got %d, want 0", len(c.Items))
	}

	// Removing again is a no-op, still 200.
	resp = doPost(t, "/api/cart/remove", map[string]any{
		"user_id": "cart-user-3", "item_id": "4",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("second remove: expected 200, got %d", resp.StatusCode)
	}
}

func TestCart_InvalidQuantity(t *testing.T) {
	resp := doPost(t, "/api/cart/add", map[string]any{
		"user_id": "cart-user-4", "item_id": "1", "quantity": 0,
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	errResp := decodeJSON[errorResponse](t, resp)
	if errResp.Code != http.StatusBadRequest {
		t.Errorf("error code: got %d, want 400", errResp.Code)
	}
}

func TestCart_UnknownItem(t *testing.T) {
	resp := doPost(t, "/api/cart/add", map[string]any{
		"user_id": "cart-user-5", "item_id": "999", "quantity": 1,
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestCart_MissingUserID(t *testing.T) {
	resp := doGet(t, "/api/cart")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}
