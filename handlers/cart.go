package handlers

import (
	"encoding/json"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"storefront/models"
	"storefront/proxy"
)

type addToCartRequest struct {
	CartCode  string          `json:"cart_code"`
	ProductID json.RawMessage `json:"product_id"`
	Quantity  json.RawMessage `json:"quantity"`
}

// present reports whether a JSON value was supplied and is not a falsy
// placeholder such as null, "", 0 or false.
func present(raw json.RawMessage) bool {
	switch string(raw) {
	case "", "null", `""`, "0", "false":
		return false
	}
	return true
}

func AddToCartHandler(w http.ResponseWriter, r *http.Request, d *Deps) {
	var req addToCartRequest
	if err := decodeJSON(r, &req); err != nil {
		proxy.WriteError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.CartCode == "" || !present(req.ProductID) {
		proxy.WriteJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "cart_code and product_id are required"})
		return
	}
	quantity := req.Quantity
	if !present(quantity) {
		quantity = json.RawMessage("1")
	}

	body, err := json.Marshal(map[string]json.RawMessage{
		"cart_code":  mustString(req.CartCode),
		"product_id": req.ProductID,
		"quantity":   quantity,
	})
	if err != nil {
		proxy.WriteError(w, http.StatusInternalServerError, "Failed to add to cart", err)
		return
	}
	forwardCart(w, r, d, http.MethodPost, "/cart/add/", body, "Failed to add to cart")
}

func GetCartHandler(w http.ResponseWriter, r *http.Request, d *Deps) {
	code := r.URL.Query().Get("cart_code")
	if code == "" {
		proxy.WriteJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "cart_code is required"})
		return
	}

	resp, err := d.Backend.Do(r.Context(), proxy.Call{
		Method: http.MethodGet,
		Path:   "/cart/get/" + url.PathEscape(code) + "/",
		Header: jsonHeader(),
	})
	if err != nil {
		d.log(r).Error("get cart failed", zap.Error(err))
		proxy.WriteError(w, http.StatusInternalServerError, "Failed to get cart", err)
		return
	}
	// a cart the backend has never seen is simply empty
	if resp.Status == http.StatusNotFound {
		proxy.WriteJSON(w, http.StatusOK, models.EmptyCart(code))
		return
	}
	relayOK(w, resp)
}

type updateCartRequest struct {
	Quantity json.RawMessage `json:"quantity"`
}

func UpdateCartItemHandler(w http.ResponseWriter, r *http.Request, d *Deps) {
	var req updateCartRequest
	if err := decodeJSON(r, &req); err != nil {
		proxy.WriteError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if len(req.Quantity) == 0 {
		proxy.WriteJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "quantity is required"})
		return
	}

	body, err := json.Marshal(map[string]json.RawMessage{"quantity": req.Quantity})
	if err != nil {
		proxy.WriteError(w, http.StatusInternalServerError, "Failed to update cart item", err)
		return
	}
	path := "/cart/update/" + url.PathEscape(r.PathValue("item_id")) + "/"
	forwardCart(w, r, d, http.MethodPatch, path, body, "Failed to update cart item")
}

func RemoveCartItemHandler(w http.ResponseWriter, r *http.Request, d *Deps) {
	path := "/cart/remove/" + url.PathEscape(r.PathValue("item_id")) + "/"
	forwardCart(w, r, d, http.MethodDelete, path, nil, "Failed to remove cart item")
}

func ClearCartHandler(w http.ResponseWriter, r *http.Request, d *Deps) {
	path := "/cart/clear/" + url.PathEscape(r.PathValue("cart_code")) + "/"
	forwardCart(w, r, d, http.MethodDelete, path, nil, "Failed to clear cart")
}

// forwardCart sends one cart command and relays the outcome. failMsg is the
// error reported when the backend cannot be reached.
func forwardCart(w http.ResponseWriter, r *http.Request, d *Deps, method, path string, body []byte, failMsg string) {
	resp, err := d.Backend.Do(r.Context(), proxy.Call{
		Method: method,
		Path:   path,
		Header: jsonHeader(),
		Body:   body,
	})
	if err != nil {
		d.log(r).Error("cart command failed", zap.String("backend_path", path), zap.Error(err))
		proxy.WriteError(w, http.StatusInternalServerError, failMsg, err)
		return
	}
	relayOK(w, resp)
}

// relayOK passes backend errors through with their status and reports
// every success as 200.
func relayOK(w http.ResponseWriter, resp *proxy.Response) {
	if !resp.OK() {
		proxy.Relay(w, resp)
		return
	}
	proxy.WriteRaw(w, http.StatusOK, resp.Payload())
}

func mustString(s string) json.RawMessage {
	b, _ := json.Marshal(s)
	return b
}
