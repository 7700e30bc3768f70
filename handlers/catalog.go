package handlers

import (
	"fmt"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"storefront/models"
	"storefront/proxy"
)

func ProductsHandler(w http.ResponseWriter, r *http.Request, d *Deps) {
	fetchCatalog(w, r, d, "/products/list/", "products")
}

func ProductDetailHandler(w http.ResponseWriter, r *http.Request, d *Deps) {
	id := r.PathValue("id")
	fetchCatalog(w, r, d, "/products/list/"+url.PathEscape(id)+"/", "product")
}

func CategoriesHandler(w http.ResponseWriter, r *http.Request, d *Deps) {
	fetchCatalog(w, r, d, "/products/category/", "categories")
}

// fetchCatalog relays a public catalog read. what names the resource in
// error messages.
func fetchCatalog(w http.ResponseWriter, r *http.Request, d *Deps, path, what string) {
	resp, err := d.Backend.Do(r.Context(), proxy.Call{
		Method: http.MethodGet,
		Path:   path,
		Header: jsonHeader(),
	})
	if err != nil {
		d.log(r).Error("catalog fetch failed", zap.String("resource", what), zap.Error(err))
		proxy.WriteError(w, http.StatusInternalServerError, "Internal server error while fetching "+what, err)
		return
	}

	if !resp.OK() {
		d.log(r).Warn("catalog fetch rejected",
			zap.String("resource", what),
			zap.Int("status", resp.Status),
		)
		proxy.WriteJSON(w, resp.Status, models.ErrorResponse{
			Error:   fmt.Sprintf("Failed to fetch %s: %d %s", what, resp.Status, resp.StatusText()),
			Details: string(resp.Body),
		})
		return
	}

	proxy.WriteRaw(w, http.StatusOK, resp.Payload())
}
