package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddToCart(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantStatus  int
		wantForward string
	}{
		{
			name:        "quantity defaults to one",
			body:        `{"cart_code":"CART_1_abc","product_id":4}`,
			wantStatus:  http.StatusOK,
			wantForward: `{"cart_code":"CART_1_abc","product_id":4,"quantity":1}`,
		},
		{
			name:        "explicit quantity",
			body:        `{"cart_code":"CART_1_abc","product_id":4,"quantity":3}`,
			wantStatus:  http.StatusOK,
			wantForward: `{"cart_code":"CART_1_abc","product_id":4,"quantity":3}`,
		},
		{
			name:       "missing cart code",
			body:       `{"product_id":4}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing product",
			body:       `{"cart_code":"CART_1_abc"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "invalid json",
			body:       `cart please`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rc := &recorded{}
			h := newHarness(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				rc.capture(r)
				writeJSON(w, http.StatusCreated, `{"message":"added"}`)
			}))

			rec := h.do(http.MethodPost, "/api/cart", tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantForward == "" {
				assert.Zero(t, rc.counter)
				return
			}
			assert.Equal(t, "/cart/add/", rc.path)
			assert.JSONEq(t, tt.wantForward, rc.body)
			assert.JSONEq(t, `{"message":"added"}`, rec.Body.String())
		})
	}
}

func TestGetCart(t *testing.T) {
	t.Run("unknown cart is empty", func(t *testing.T) {
		h := newHarness(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusNotFound, `{"detail":"Not found."}`)
		}))

		rec := h.do(http.MethodGet, "/api/cart?cart_code=CART_1_abc", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"cart_code":"CART_1_abc","cartitems":[],"cart_total":0,"total_items":0}`, rec.Body.String())
	})

	t.Run("existing cart relayed", func(t *testing.T) {
		rc := &recorded{}
		cart := `{"cart_code":"CART_1_abc","cartitems":[{"id":1,"quantity":2}],"cart_total":9,"total_items":2}`
		h := newHarness(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rc.capture(r)
			writeJSON(w, http.StatusOK, cart)
		}))

		rec := h.do(http.MethodGet, "/api/cart?cart_code=CART_1_abc", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, cart, rec.Body.String())
		assert.Equal(t, "/cart/get/CART_1_abc/", rc.path)
	})

	t.Run("missing code", func(t *testing.T) {
		h := newHarness(t, http.NotFoundHandler())
		rec := h.do(http.MethodGet, "/api/cart", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"error":"cart_code is required"}`, rec.Body.String())
	})

	t.Run("backend error relayed", func(t *testing.T) {
		h := newHarness(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusInternalServerError, `{"detail":"db down"}`)
		}))
		rec := h.do(http.MethodGet, "/api/cart?cart_code=CART_1_abc", "")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.JSONEq(t, `{"detail":"db down"}`, rec.Body.String())
	})

	t.Run("backend unreachable", func(t *testing.T) {
		h := newHarness(t, http.NotFoundHandler())
		h.backend.Close()
		rec := h.do(http.MethodGet, "/api/cart?cart_code=CART_1_abc", "")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Contains(t, rec.Body.String(), `"error":"Failed to get cart"`)
	})
}

func TestCartItemCommands(t *testing.T) {
	tests := []struct {
		name        string
		method      string
		path        string
		body        string
		backendPath string
		wantForward string
	}{
		{
			name:        "update quantity",
			method:      http.MethodPatch,
			path:        "/api/cart/12",
			body:        `{"quantity":5}`,
			backendPath: "/cart/update/12/",
			wantForward: `{"quantity":5}`,
		},
		{
			name:        "remove item",
			method:      http.MethodDelete,
			path:        "/api/cart/12",
			backendPath: "/cart/remove/12/",
		},
		{
			name:        "clear cart",
			method:      http.MethodDelete,
			path:        "/api/cart/clear/CART_1_abc",
			backendPath: "/cart/clear/CART_1_abc/",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rc := &recorded{}
			h := newHarness(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				rc.capture(r)
				writeJSON(w, http.StatusOK, `{"message":"ok"}`)
			}))

			rec := h.do(tt.method, tt.path, tt.body)
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.method, rc.method)
			assert.Equal(t, tt.backendPath, rc.path)
			if tt.wantForward != "" {
				assert.JSONEq(t, tt.wantForward, rc.body)
			}
		})
	}
}

func TestUpdateCartItemRequiresQuantity(t *testing.T) {
	h := newHarness(t, http.NotFoundHandler())
	rec := h.do(http.MethodPatch, "/api/cart/12", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"quantity is required"}`, rec.Body.String())
}

func TestCartCommandFailureMessages(t *testing.T) {
	tests := []struct {
		method string
		path   string
		body   string
		want   string
	}{
		{http.MethodPost, "/api/cart", `{"cart_code":"c","product_id":1}`, "Failed to add to cart"},
		{http.MethodPatch, "/api/cart/1", `{"quantity":1}`, "Failed to update cart item"},
		{http.MethodDelete, "/api/cart/1", "", "Failed to remove cart item"},
		{http.MethodDelete, "/api/cart/clear/c", "", "Failed to clear cart"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			h := newHarness(t, http.NotFoundHandler())
			h.backend.Close()

			rec := h.do(tt.method, tt.path, tt.body)
			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			assert.Contains(t, rec.Body.String(), `"error":"`+tt.want+`"`)
		})
	}
}
