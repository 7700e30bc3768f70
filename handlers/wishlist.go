package handlers

import (
	"encoding/json"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"storefront/models"
	"storefront/proxy"
)

var errAuthRequired = models.ErrorResponse{Error: "Authentication required"}

func wishlistHeader(token string) http.Header {
	h := jsonHeader()
	h.Set("Authorization", "Token "+token)
	return h
}

func AddToWishlistHandler(w http.ResponseWriter, r *http.Request, d *Deps) {
	var req struct {
		ProductID json.RawMessage `json:"product_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		proxy.WriteError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if !present(req.ProductID) {
		proxy.WriteJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "product_id is required"})
		return
	}
	token := d.tokenFor(r)
	if token == "" {
		proxy.WriteJSON(w, http.StatusUnauthorized, errAuthRequired)
		return
	}

	body, err := json.Marshal(map[string]json.RawMessage{"product_id": req.ProductID})
	if err != nil {
		proxy.WriteError(w, http.StatusInternalServerError, "Failed to add to wishlist", err)
		return
	}
	resp, err := d.Backend.Do(r.Context(), proxy.Call{
		Method: http.MethodPost,
		Path:   "/wishlist/add/",
		Header: wishlistHeader(token),
		Body:   body,
	})
	if err != nil {
		d.log(r).Error("wishlist add failed", zap.Error(err))
		proxy.WriteError(w, http.StatusInternalServerError, "Failed to add to wishlist", err)
		return
	}
	// success keeps the backend's status, 201 included
	proxy.Relay(w, resp)
}

func WishlistHandler(w http.ResponseWriter, r *http.Request, d *Deps) {
	token := d.tokenFor(r)
	if token == "" {
		proxy.WriteJSON(w, http.StatusUnauthorized, errAuthRequired)
		return
	}
	resp, err := d.Backend.Do(r.Context(), proxy.Call{
		Method: http.MethodGet,
		Path:   "/wishlist/list/",
		Header: wishlistHeader(token),
	})
	if err != nil {
		d.log(r).Error("wishlist list failed", zap.Error(err))
		proxy.WriteError(w, http.StatusInternalServerError, "Failed to get wishlist", err)
		return
	}
	relayOK(w, resp)
}

func RemoveFromWishlistHandler(w http.ResponseWriter, r *http.Request, d *Deps) {
	token := d.tokenFor(r)
	if token == "" {
		proxy.WriteJSON(w, http.StatusUnauthorized, errAuthRequired)
		return
	}
	resp, err := d.Backend.Do(r.Context(), proxy.Call{
		Method: http.MethodDelete,
		Path:   "/wishlist/remove/" + url.PathEscape(r.PathValue("product_id")) + "/",
		Header: wishlistHeader(token),
	})
	if err != nil {
		d.log(r).Error("wishlist remove failed", zap.Error(err))
		proxy.WriteError(w, http.StatusInternalServerError, "Failed to remove from wishlist", err)
		return
	}
	relayOK(w, resp)
}

// CheckWishlistHandler never fails: anything short of a clear answer from
// the backend reads as "not in wishlist".
func CheckWishlistHandler(w http.ResponseWriter, r *http.Request, d *Deps) {
	notIn := models.WishlistStatus{InWishlist: false}

	token := d.tokenFor(r)
	if token == "" {
		proxy.WriteJSON(w, http.StatusOK, notIn)
		return
	}
	resp, err := d.Backend.Do(r.Context(), proxy.Call{
		Method: http.MethodGet,
		Path:   "/wishlist/check/" + url.PathEscape(r.PathValue("product_id")) + "/",
		Header: wishlistHeader(token),
	})
	if err != nil {
		d.log(r).Warn("wishlist check failed", zap.Error(err))
		proxy.WriteJSON(w, http.StatusOK, notIn)
		return
	}
	if !resp.OK() || !resp.IsJSON() {
		proxy.WriteJSON(w, http.StatusOK, notIn)
		return
	}
	proxy.WriteRaw(w, http.StatusOK, resp.Payload())
}
