package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/domain/catalog"
	"github.com/xenking/storefront/internal/domain/discount"
	"github.com/xenking/storefront/internal/domain/order"
	"github.com/xenking/storefront/internal/domain/stats"
	"github.com/xenking/storefront/internal/storage/memory"
)

// testEnv is a full API stack over the in-memory backend.
type testEnv struct {
	server  *httptest.Server
	catalog *memory.Catalog
}

func newTestEnv(t *testing.T, items ...catalog.Item) *testEnv {
	t.Helper()

	cat := memory.NewCatalog(items...)
	carts := memory.NewCarts()
	codes := memory.NewCodes()
	orders := memory.NewOrders()
	agg := stats.NewAggregator()

	registry := discount.NewRegistry(codes, agg, discount.Config{
		Rate: decimal.RequireFromString("0.1"),
	})
	ledger := cart.NewLedger(carts, cat)
	finalizer := order.NewFinalizer(carts, cat, registry, orders, agg)

	mux := http.NewServeMux()
	New(cat, ledger, finalizer, registry, agg).Routes(mux)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return &testEnv{server: srv, catalog: cat}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) (int, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, e.server.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	var out map[string]any
	require.NoError(t, dec.Decode(&out))
	return resp.StatusCode, out
}

func (e *testEnv) doList(t *testing.T, path string) (int, []any) {
	t.Helper()

	resp, err := http.Get(e.server.URL + path)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	var out []any
	require.NoError(t, dec.Decode(&out))
	return resp.StatusCode, out
}

func testItem(id, name, category, price string) catalog.Item {
	return catalog.Item{
		ID:          id,
		Name:        name,
		Price:       decimal.RequireFromString(price),
		Description: "A " + name,
		Category:    category,
	}
}

func num(t *testing.T, v any) decimal.Decimal {
	t.Helper()
	n, ok := v.(json.Number)
	require.True(t, ok, "expected JSON number, got %T (%v)", v, v)
	return decimal.RequireFromString(n.String())
}

// --- Catalog endpoints ---

func TestListItems(t *testing.T) {
	env := newTestEnv(t,
		testItem("1", "Waffle", "waffle", "6.50"),
		testItem("2", "Cake", "cake", "4.00"),
	)

	status, items := env.doList(t, "/api/items")
	require.Equal(t, http.StatusOK, status)
	require.Len(t, items, 2)

	first := items[0].(map[string]any)
	assert.Equal(t, "1", first["id"])
	assert.Equal(t, "Waffle", first["name"])
	assert.True(t, decimal.RequireFromString("6.50").Equal(num(t, first["price"])))
	assert.Equal(t, "waffle", first["category"])

	status, items = env.doList(t, "/api/items?category=cake")
	require.Equal(t, http.StatusOK, status)
	require.Len(t, items, 1)
	assert.Equal(t, "2", items[0].(map[string]any)["id"])

	// Unknown category is an empty list, not an error.
	status, items = env.doList(t, "/api/items?category=nope")
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, items)
}

func TestListCategories(t *testing.T) {
	env := newTestEnv(t,
		testItem("1", "Waffle", "waffle", "6.50"),
		testItem("2", "Cake", "cake", "4.00"),
		testItem("3", "Brownie", "cake", "5.00"),
	)

	status, cats := env.doList(t, "/api/categories")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, []any{"waffle", "cake"}, cats)
}

// --- Cart endpoints ---

func TestCartFlow(t *testing.T) {
	env := newTestEnv(t, testItem("1", "Waffle", "waffle", "6.50"))

	status, body := env.do(t, "GET", "/api/cart?user_id=u1", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "u1", body["user_id"])
	assert.Empty(t, body["items"])

	status, body = env.do(t, "POST", "/api/cart/add", map[string]any{
		"user_id": "u1", "item_id": "1", "quantity": 2,
	})
	require.Equal(t, http.StatusOK, status)
	items := body["items"].([]any)
	require.Len(t, items, 1)
	line := items[0].(map[string]any)
	assert.Equal(t, "1", line["item_id"])
	assert.Equal(t, json.Number("2"), line["quantity"])
	assert.True(t, decimal.RequireFromString("13.00").Equal(num(t, body["total"])))

	status, body = env.do(t, "POST", "/api/cart/remove", map[string]any{
		"user_id": "u1", "item_id": "1",
	})
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, body["items"])
	assert.True(t, decimal.Zero.Equal(num(t, body["total"])))
}

func TestCartValidation(t *testing.T) {
	env := newTestEnv(t, testItem("1", "Waffle", "waffle", "6.50"))

	status, _ := env.do(t, "POST", "/api/cart/add", map[string]any{
		"user_id": "u1", "item_id": "1", "quantity": 0,
	})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = env.do(t, "POST", "/api/cart/add", map[string]any{
		"user_id": "u1", "item_id": "missing", "quantity": 1,
	})
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = env.do(t, "POST", "/api/cart/add", map[string]any{
		"item_id": "1", "quantity": 1,
	})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = env.do(t, "GET", "/api/cart", nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

// --- Checkout ---

func TestCheckoutWithDiscount(t *testing.T) {
	env := newTestEnv(t, testItem("1", "Waffle", "waffle", "10.00"))

	status, gen := env.do(t, "POST", "/api/admin/generate-discount", nil)
	require.Equal(t, http.StatusCreated, status)
	code := gen["code"].(string)
	require.NotEmpty(t, code)

	status, _ = env.do(t, "POST", "/api/cart/add", map[string]any{
		"user_id": "u1", "item_id": "1", "quantity": 2,
	})
	require.Equal(t, http.StatusOK, status)

	status, ord := env.do(t, "POST", "/api/checkout", map[string]any{
		"user_id": "u1", "discount_code": code,
	})
	require.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, ord["order_id"])
	assert.True(t, decimal.RequireFromString("20.00").Equal(num(t, ord["subtotal"])))
	assert.True(t, decimal.RequireFromString("2.00").Equal(num(t, ord["discount_amount"])))
	assert.True(t, decimal.RequireFromString("18.00").Equal(num(t, ord["total"])))
	ds := ord["discount_status"].(map[string]any)
	assert.Equal(t, true, ds["applied"])
	assert.Equal(t, "discount applied", ds["message"])

	// Checkout cleared the cart.
	status, cartBody := env.do(t, "GET", "/api/cart?user_id=u1", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, cartBody["items"])

	// The code is single-use: a second order at full price.
	status, _ = env.do(t, "POST", "/api/cart/add", map[string]any{
		"user_id": "u1", "item_id": "1", "quantity": 1,
	})
	require.Equal(t, http.StatusOK, status)

	status, ord = env.do(t, "POST", "/api/checkout", map[string]any{
		"user_id": "u1", "discount_code": code,
	})
	require.Equal(t, http.StatusOK, status)
	assert.True(t, decimal.RequireFromString("10.00").Equal(num(t, ord["total"])))
	ds = ord["discount_status"].(map[string]any)
	assert.Equal(t, false, ds["applied"])
	assert.Equal(t, "code already used", ds["message"])
}

func TestCheckoutWithoutCode(t *testing.T) {
	env := newTestEnv(t, testItem("1", "Waffle", "waffle", "6.50"))

	status, _ := env.do(t, "POST", "/api/cart/add", map[string]any{
		"user_id": "u1", "item_id": "1", "quantity": 1,
	})
	require.Equal(t, http.StatusOK, status)

	status, ord := env.do(t, "POST", "/api/checkout", map[string]any{"user_id": "u1"})
	require.Equal(t, http.StatusOK, status)
	assert.True(t, decimal.RequireFromString("6.50").Equal(num(t, ord["total"])))
	ds := ord["discount_status"].(map[string]any)
	assert.Equal(t, false, ds["applied"])
	assert.Equal(t, "no code provided", ds["message"])
}

func TestCheckoutInvalidCode(t *testing.T) {
	env := newTestEnv(t, testItem("1", "Waffle", "waffle", "6.50"))

	status, _ := env.do(t, "POST", "/api/cart/add", map[string]any{
		"user_id": "u1", "item_id": "1", "quantity": 1,
	})
	require.Equal(t, http.StatusOK, status)

	status, ord := env.do(t, "POST", "/api/checkout", map[string]any{
		"user_id": "u1", "discount_code": "BOGUS999",
	})
	require.Equal(t, http.StatusOK, status)
	assert.True(t, decimal.RequireFromString("6.50").Equal(num(t, ord["total"])))
	ds := ord["discount_status"].(map[string]any)
	assert.Equal(t, false, ds["applied"])
	assert.Equal(t, "invalid code", ds["message"])
}

func TestCheckoutEmptyCart(t *testing.T) {
	env := newTestEnv(t, testItem("1", "Waffle", "waffle", "6.50"))

	status, body := env.do(t, "POST", "/api/checkout", map[string]any{"user_id": "u1"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body["message"], "empty")
}

func TestCheckoutDeletedItem(t *testing.T) {
	env := newTestEnv(t, testItem("1", "Waffle", "waffle", "6.50"))

	status, _ := env.do(t, "POST", "/api/cart/add", map[string]any{
		"user_id": "u1", "item_id": "1", "quantity": 1,
	})
	require.Equal(t, http.StatusOK, status)

	env.catalog.Delete("1")

	status, _ = env.do(t, "POST", "/api/checkout", map[string]any{"user_id": "u1"})
	assert.Equal(t, http.StatusNotFound, status)
}

// --- Stats ---

func TestStatsEndpoint(t *testing.T) {
	env := newTestEnv(t, testItem("1", "Waffle", "waffle", "10.00"))

	status, gen := env.do(t, "POST", "/api/admin/generate-discount", nil)
	require.Equal(t, http.StatusCreated, status)
	code := gen["code"].(string)

	status, _ = env.do(t, "POST", "/api/cart/add", map[string]any{
		"user_id": "u1", "item_id": "1", "quantity": 2,
	})
	require.Equal(t, http.StatusOK, status)
	status, _ = env.do(t, "POST", "/api/checkout", map[string]any{
		"user_id": "u1", "discount_code": code,
	})
	require.Equal(t, http.StatusOK, status)

	status, st := env.do(t, "GET", "/api/admin/stats", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, json.Number("2"), st["total_items"])
	assert.Equal(t, json.Number("1"), st["order_count"])
	assert.True(t, decimal.RequireFromString("18.00").Equal(num(t, st["total_amount"])))
	assert.True(t, decimal.RequireFromString("2.00").Equal(num(t, st["total_discount"])))
	codes := st["discount_codes"].([]any)
	require.Len(t, codes, 1)
	assert.Equal(t, code, codes[0])
}
