package handler

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cartwheel/storefront/internal/domain/auth"
	"github.com/cartwheel/storefront/internal/domain/cart"
	"github.com/cartwheel/storefront/internal/domain/order"
	"github.com/cartwheel/storefront/internal/domain/product"
	"github.com/cartwheel/storefront/internal/token"
)

// --- Mock implementations ---

type mockProductRepo struct {
	byID map[string]*product.Product
}

func (m *mockProductRepo) List(_ context.Context) ([]product.Product, error) {
	var out []product.Product
	for _, p := range m.byID {
		if p.Active {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *mockProductRepo) GetByID(_ context.Context, id string) (*product.Product, error) {
	p, ok := m.byID[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	return p, nil
}

type memCartRepo struct {
	lines map[string][]cart.Line
}

func (m *memCartRepo) Get(_ context.Context, customerID string) (*cart.Cart, error) {
	lines := make([]cart.Line, len(m.lines[customerID]))
	copy(lines, m.lines[customerID])
	return &cart.Cart{CustomerID: customerID, Lines: lines}, nil
}

func (m *memCartRepo) AddLine(_ context.Context, customerID string, line cart.Line) error {
	for i, l := range m.lines[customerID] {
		if l.SKU == line.SKU {
			m.lines[customerID][i].Quantity += line.Quantity
			return nil
		}
	}
	m.lines[customerID] = append(m.lines[customerID], line)
	return nil
}

func (m *memCartRepo) RemoveLine(_ context.Context, customerID, sku string) error {
	lines := m.lines[customerID]
	for i, l := range lines {
		if l.SKU == sku {
			m.lines[customerID] = append(lines[:i], lines[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *memCartRepo) Clear(_ context.Context, customerID string) error {
	delete(m.lines, customerID)
	return nil
}

// memOrderRepo honors the transactional Create contract by clearing the cart
// repo alongside the insert.
type memOrderRepo struct {
	carts  *memCartRepo
	stored []*order.Order
	nextID int64
}

func (m *memOrderRepo) Create(_ context.Context, o *order.Order) error {
	m.nextID++
	o.ID = m.nextID
	o.CreatedAt = time.Now()
	m.stored = append(m.stored, o)
	delete(m.carts.lines, o.CustomerID)
	return nil
}

func (m *memOrderRepo) GetByID(_ context.Context, id int64) (*order.Order, error) {
	for _, o := range m.stored {
		if o.ID == id {
			return o, nil
		}
	}
	return nil, order.ErrNotFound
}

func (m *memOrderRepo) ListByCustomer(_ context.Context, customerID string) ([]order.Order, error) {
	var out []order.Order
	for i := len(m.stored) - 1; i >= 0; i-- {
		if m.stored[i].CustomerID == customerID {
			out = append(out, *m.stored[i])
		}
	}
	return out, nil
}

func (m *memOrderRepo) ListAll(_ context.Context) ([]order.Order, error) {
	var out []order.Order
	for i := len(m.stored) - 1; i >= 0; i-- {
		out = append(out, *m.stored[i])
	}
	return out, nil
}

type mockAPIKeyRepo struct {
	byHash map[string]*auth.APIKeyInfo
}

func (m *mockAPIKeyRepo) FindByHash(_ context.Context, hash string) (*auth.APIKeyInfo, error) {
	info, ok := m.byHash[hash]
	if !ok {
		return nil, errors.New("api key not found")
	}
	return info, nil
}

// --- Test harness ---

const (
	testPepper = "test-pepper"
	aliceKey   = "alice-api-key"
)

type testServer struct {
	srv    *httptest.Server
	tokens *token.Service
	carts  *memCartRepo
	orders *memOrderRepo
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	products := &mockProductRepo{byID: map[string]*product.Product{
		"p1": {ID: "p1", SKU: "TEST-001", Name: "Espresso Cup", Price: decimal.RequireFromString("10.99"), Active: true},
		"p2": {ID: "p2", SKU: "TEST-002", Name: "Pour-Over", Price: decimal.RequireFromString("20.99"), Active: true},
		"p3": {ID: "p3", SKU: "TEST-090", Name: "French Press", Price: decimal.RequireFromString("18.00"), Active: false},
	}}
	carts := &memCartRepo{lines: make(map[string][]cart.Line)}
	orders := &memOrderRepo{carts: carts}

	tokens := token.NewService([]byte("test-secret"), "storefront", time.Hour)

	mac := hmac.New(sha256.New, []byte(testPepper))
	mac.Write([]byte(aliceKey))
	aliceHash := hex.EncodeToString(mac.Sum(nil))
	apikeys := &mockAPIKeyRepo{byHash: map[string]*auth.APIKeyInfo{
		aliceHash: {ID: "k1", KeyHash: aliceHash, CustomerID: "alice", Name: "alice key"},
	}}

	h := NewHandler(
		cart.NewManager(carts, products),
		order.NewService(carts, orders),
		products,
		NewSecurity(tokens, apikeys, []byte(testPepper)),
	)

	srv := httptest.NewServer(h.Routes())
	t.Cleanup(srv.Close)

	return &testServer{srv: srv, tokens: tokens, carts: carts, orders: orders}
}

// do performs a request with optional bearer identity and decodes the body.
func (ts *testServer) do(t *testing.T, method, path string, body any, as *auth.Principal, out any) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req, err := http.NewRequest(method, ts.srv.URL+path, &buf)
	require.NoError(t, err)
	if as != nil {
		signed, err := ts.tokens.Issue(as.ID, as.Roles)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+signed)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	if out != nil && resp.StatusCode < 300 {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

var (
	asAlice = &auth.Principal{ID: "alice"}
	asBob   = &auth.Principal{ID: "bob"}
	asAdmin = &auth.Principal{ID: "ops", Roles: []string{auth.RoleAdmin}}
)

// --- Tests ---

func TestGetCart_EmptyForNewCustomer(t *testing.T) {
	ts := newTestServer(t)

	var c cartResponse
	resp := ts.do(t, http.MethodGet, "/carts/alice", nil, asAlice, &c)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "alice", c.CustomerID)
	assert.Empty(t, c.Lines)
}

func TestAddItem_Flow(t *testing.T) {
	ts := newTestServer(t)

	var c cartResponse
	resp := ts.do(t, http.MethodPost, "/carts/alice/items",
		addItemRequest{ProductID: "p1", Quantity: 2}, asAlice, &c)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, c.Lines, 1)
	assert.Equal(t, "TEST-001", c.Lines[0].SKU)
	assert.Equal(t, 2, c.Lines[0].Quantity)

	// Same product again merges into one line.
	resp = ts.do(t, http.MethodPost, "/carts/alice/items",
		addItemRequest{ProductID: "p1", Quantity: 3}, asAlice, &c)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, c.Lines, 1)
	assert.Equal(t, 5, c.Lines[0].Quantity)
}

func TestAddItem_Validation(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(t, http.MethodPost, "/carts/alice/items",
		addItemRequest{ProductID: "p1", Quantity: 0}, asAlice, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp = ts.do(t, http.MethodPost, "/carts/alice/items",
		addItemRequest{ProductID: "missing", Quantity: 1}, asAlice, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	// Inactive products are rejected the same as unknown ones.
	resp = ts.do(t, http.MethodPost, "/carts/alice/items",
		addItemRequest{ProductID: "p3", Quantity: 1}, asAlice, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestRemoveAndClear_Idempotent(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(t, http.MethodDelete, "/carts/alice/items/TEST-999", nil, asAlice, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = ts.do(t, http.MethodDelete, "/carts/alice", nil, asAlice, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestCheckout_RoundTrip(t *testing.T) {
	ts := newTestServer(t)

	ts.do(t, http.MethodPost, "/carts/alice/items", addItemRequest{ProductID: "p1", Quantity: 2}, asAlice, nil)

	var o orderResponse
	resp := ts.do(t, http.MethodPost, "/carts/alice/checkout",
		checkoutRequest{PaymentToken: "tok-123"}, asAlice, &o)

	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "Paid", o.Status)
	assert.True(t, o.Total.Equal(decimal.RequireFromString("21.98")), "total was %s", o.Total)
	require.Len(t, o.Lines, 1)
	assert.Equal(t, "TEST-001", o.Lines[0].SKU)

	// The cart is empty afterwards.
	var c cartResponse
	ts.do(t, http.MethodGet, "/carts/alice", nil, asAlice, &c)
	assert.Empty(t, c.Lines)
}

func TestCheckout_Failures(t *testing.T) {
	ts := newTestServer(t)

	// Empty cart.
	resp := ts.do(t, http.MethodPost, "/carts/alice/checkout",
		checkoutRequest{PaymentToken: "tok-123"}, asAlice, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Empty payment token: no order, cart untouched.
	ts.do(t, http.MethodPost, "/carts/alice/items", addItemRequest{ProductID: "p1", Quantity: 1}, asAlice, nil)
	resp = ts.do(t, http.MethodPost, "/carts/alice/checkout", checkoutRequest{}, asAlice, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Empty(t, ts.orders.stored)
	assert.Len(t, ts.carts.lines["alice"], 1)
}

func TestAuthorization_ThreeShapes(t *testing.T) {
	ts := newTestServer(t)

	// No credentials: 401.
	resp := ts.do(t, http.MethodGet, "/carts/alice", nil, nil, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Wrong owner: 403.
	resp = ts.do(t, http.MethodGet, "/carts/alice", nil, asBob, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Admin cannot touch carts either.
	resp = ts.do(t, http.MethodPost, "/carts/alice/checkout",
		checkoutRequest{PaymentToken: "tok"}, asAdmin, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestAPIKeyAuthentication(t *testing.T) {
	ts := newTestServer(t)

	req, err := http.NewRequest(http.MethodGet, ts.srv.URL+"/carts/alice", nil)
	require.NoError(t, err)
	req.Header.Set("api_key", aliceKey)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// A wrong key resolves to no principal, which reads as unauthenticated.
	req.Header.Set("api_key", "wrong-key")
	resp2, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp2.StatusCode)
}

func TestOrders_VisibilityAndNotFound(t *testing.T) {
	ts := newTestServer(t)

	ts.do(t, http.MethodPost, "/carts/alice/items", addItemRequest{ProductID: "p1", Quantity: 1}, asAlice, nil)
	var aliceOrder orderResponse
	ts.do(t, http.MethodPost, "/carts/alice/checkout", checkoutRequest{PaymentToken: "t1"}, asAlice, &aliceOrder)

	ts.do(t, http.MethodPost, "/carts/bob/items", addItemRequest{ProductID: "p2", Quantity: 1}, asBob, nil)
	ts.do(t, http.MethodPost, "/carts/bob/checkout", checkoutRequest{PaymentToken: "t2"}, asBob, nil)

	// Admin sees both, newest first.
	var all []orderResponse
	resp := ts.do(t, http.MethodGet, "/orders", nil, asAdmin, &all)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, all, 2)
	assert.Equal(t, "bob", all[0].CustomerID)
	assert.Equal(t, "alice", all[1].CustomerID)

	// Customers see their own.
	var mine []orderResponse
	ts.do(t, http.MethodGet, "/orders", nil, asAlice, &mine)
	require.Len(t, mine, 1)
	assert.Equal(t, "alice", mine[0].CustomerID)

	// Owner and admin can fetch by id; another customer gets the same 404 as
	// a nonexistent id.
	resp = ts.do(t, http.MethodGet, "/orders/1", nil, asAlice, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp = ts.do(t, http.MethodGet, "/orders/1", nil, asAdmin, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp = ts.do(t, http.MethodGet, "/orders/2", nil, asAlice, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp = ts.do(t, http.MethodGet, "/orders/999", nil, asAlice, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp = ts.do(t, http.MethodGet, "/orders/not-a-number", nil, asAlice, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestProducts_PublicCatalog(t *testing.T) {
	ts := newTestServer(t)

	var products []productResponse
	resp := ts.do(t, http.MethodGet, "/products", nil, nil, &products)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, products, 2, "inactive products are hidden")

	var p productResponse
	resp = ts.do(t, http.MethodGet, "/products/p1", nil, nil, &p)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "TEST-001", p.SKU)

	resp = ts.do(t, http.MethodGet, "/products/p3", nil, nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
