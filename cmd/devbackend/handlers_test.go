package main

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"storefront/models"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	s := &server{shop: newShop(), logger: zap.NewNop()}
	srv := httptest.NewServer(s.routes())
	t.Cleanup(srv.Close)
	return srv
}

func call(t *testing.T, srv *httptest.Server, method, path, body, token string) (int, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, srv.URL+path, r)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Token "+token)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, b
}

func TestRegisterAndLogin(t *testing.T) {
	srv := newTestServer(t)

	status, body := call(t, srv, http.MethodPost, "/users/register/",
		`{"username":"jane","email":"jane@example.com","password":"Secret1!","first_name":"Jane"}`, "")
	require.Equal(t, http.StatusCreated, status)
	assert.Contains(t, string(body), `"username":"jane"`)

	status, body = call(t, srv, http.MethodPost, "/users/register/",
		`{"username":"jane","email":"nope","password":"short"}`, "")
	require.Equal(t, http.StatusBadRequest, status)
	var fe map[string][]string
	require.NoError(t, json.Unmarshal(body, &fe))
	assert.Contains(t, fe["username"], "A user with that username already exists.")
	assert.NotEmpty(t, fe["email"])
	assert.NotEmpty(t, fe["password"])

	status, body = call(t, srv, http.MethodPost, "/users/login/", `{"username":"jane","password":"wrong"}`, "")
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"error":"Invalid credentials"}`, string(body))

	status, body = call(t, srv, http.MethodPost, "/users/login/", `{"username":"jane","password":"Secret1!"}`, "")
	require.Equal(t, http.StatusOK, status)
	var res models.LoginResult
	require.NoError(t, json.Unmarshal(body, &res))
	assert.NotEmpty(t, res.Token)
	require.NotNil(t, res.User)
	assert.Equal(t, "Jane", res.User.FirstName)

	status, _ = call(t, srv, http.MethodGet, "/wishlist/list/", "", res.Token)
	assert.Equal(t, http.StatusOK, status)

	status, _ = call(t, srv, http.MethodGet, "/users/logout/", "", res.Token)
	assert.Equal(t, http.StatusOK, status)

	status, _ = call(t, srv, http.MethodGet, "/wishlist/list/", "", res.Token)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestCartFlow(t *testing.T) {
	srv := newTestServer(t)

	status, _ := call(t, srv, http.MethodGet, "/cart/get/CART_1_abc/", "", "")
	assert.Equal(t, http.StatusNotFound, status)

	status, body := call(t, srv, http.MethodPost, "/cart/add/", `{"cart_code":"CART_1_abc","product_id":2,"quantity":2}`, "")
	require.Equal(t, http.StatusCreated, status)
	var cart models.Cart
	require.NoError(t, json.Unmarshal(body, &cart))
	require.Len(t, cart.CartItems, 1)
	assert.Equal(t, 2, cart.TotalItems)
	assert.InDelta(t, 79.8, cart.CartTotal, 0.001)

	itemID := cart.CartItems[0].ID
	status, body = call(t, srv, http.MethodPatch, "/cart/update/"+jsonInt(itemID)+"/", `{"quantity":1}`, "")
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(body, &cart))
	assert.Equal(t, 1, cart.TotalItems)

	status, _ = call(t, srv, http.MethodDelete, "/cart/remove/"+jsonInt(itemID)+"/", "", "")
	assert.Equal(t, http.StatusOK, status)
	status, _ = call(t, srv, http.MethodDelete, "/cart/remove/"+jsonInt(itemID)+"/", "", "")
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = call(t, srv, http.MethodDelete, "/cart/clear/CART_1_abc/", "", "")
	assert.Equal(t, http.StatusOK, status)
	status, body = call(t, srv, http.MethodGet, "/cart/get/CART_1_abc/", "", "")
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(body, &cart))
	assert.Zero(t, cart.TotalItems)
}

func TestWishlistFlow(t *testing.T) {
	srv := newTestServer(t)
	call(t, srv, http.MethodPost, "/users/register/", `{"username":"sam","email":"sam@example.com","password":"Secret1!"}`, "")
	_, body := call(t, srv, http.MethodPost, "/users/login/", `{"username":"sam","password":"Secret1!"}`, "")
	var res models.LoginResult
	require.NoError(t, json.Unmarshal(body, &res))

	status, _ := call(t, srv, http.MethodPost, "/wishlist/add/", `{"product_id":3}`, "")
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = call(t, srv, http.MethodPost, "/wishlist/add/", `{"product_id":3}`, res.Token)
	assert.Equal(t, http.StatusCreated, status)

	_, body = call(t, srv, http.MethodGet, "/wishlist/check/3/", "", res.Token)
	assert.JSONEq(t, `{"in_wishlist":true}`, string(body))

	call(t, srv, http.MethodDelete, "/wishlist/remove/3/", "", res.Token)
	_, body = call(t, srv, http.MethodGet, "/wishlist/check/3/", "", res.Token)
	assert.JSONEq(t, `{"in_wishlist":false}`, string(body))
}

func TestCatalog(t *testing.T) {
	srv := newTestServer(t)

	status, body := call(t, srv, http.MethodGet, "/products/list/", "", "")
	require.Equal(t, http.StatusOK, status)
	var products []models.Product
	require.NoError(t, json.Unmarshal(body, &products))
	assert.Len(t, products, 3)

	status, _ = call(t, srv, http.MethodGet, "/products/list/99/", "", "")
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = call(t, srv, http.MethodGet, "/products/category/", "", "")
	assert.Equal(t, http.StatusOK, status)
}

func jsonInt(v int64) string {
	b, _ := json.Marshal(v)
	return string(b)
}
