package handlers

import (
	"net/http"
	"strings"

	"storefront/proxy"
)

type handlerFunc func(w http.ResponseWriter, r *http.Request, d *Deps)

// route is one path with its CORS policy and a handler per method.
type route struct {
	pattern string
	cors    proxy.CORS
	methods map[string]handlerFunc
}

// routes lists every endpoint. CORS method lists are derived from methods.
func (d *Deps) routes() []route {
	auth := func(headers string) func(methods ...string) proxy.CORS {
		return func(methods ...string) proxy.CORS {
			return proxy.Credentialed(d.Origin, headers, methods...)
		}
	}
	loginCORS := auth(proxy.HeadersContentType)
	sessionCORS := auth(proxy.HeadersWithAuth)
	registerCORS := func(methods ...string) proxy.CORS {
		return proxy.CORS{Origin: "*", Methods: methods, Headers: proxy.HeadersContentType}
	}

	routes := []route{
		{pattern: "/api/auth/login", cors: loginCORS(), methods: map[string]handlerFunc{
			http.MethodPost: LoginHandler,
		}},
		{pattern: "/api/auth/logout", cors: loginCORS(), methods: map[string]handlerFunc{
			http.MethodGet: LogoutHandler,
		}},
		{pattern: "/api/auth/register", cors: registerCORS(), methods: map[string]handlerFunc{
			http.MethodPost: RegisterHandler,
		}},

		{pattern: "/api/products", cors: proxy.Public(), methods: map[string]handlerFunc{
			http.MethodGet: ProductsHandler,
		}},
		{pattern: "/api/products/{id}", cors: proxy.Public(), methods: map[string]handlerFunc{
			http.MethodGet: ProductDetailHandler,
		}},
		{pattern: "/api/categories", cors: proxy.Public(), methods: map[string]handlerFunc{
			http.MethodGet: CategoriesHandler,
		}},

		{pattern: "/api/cart", cors: proxy.Public(), methods: map[string]handlerFunc{
			http.MethodPost: AddToCartHandler,
			http.MethodGet:  GetCartHandler,
		}},
		{pattern: "/api/cart/{item_id}", cors: proxy.Public(), methods: map[string]handlerFunc{
			http.MethodPatch:  UpdateCartItemHandler,
			http.MethodDelete: RemoveCartItemHandler,
		}},
		{pattern: "/api/cart/clear/{cart_code}", cors: proxy.Public(), methods: map[string]handlerFunc{
			http.MethodDelete: ClearCartHandler,
		}},

		{pattern: "/api/wishlist", cors: proxy.Public(), methods: map[string]handlerFunc{
			http.MethodPost: AddToWishlistHandler,
			http.MethodGet:  WishlistHandler,
		}},
		{pattern: "/api/wishlist/{product_id}", cors: proxy.Public(), methods: map[string]handlerFunc{
			http.MethodDelete: RemoveFromWishlistHandler,
			http.MethodGet:    CheckWishlistHandler,
		}},

		{pattern: "/api/session", cors: sessionCORS(), methods: map[string]handlerFunc{
			http.MethodGet:    SessionHandler,
			http.MethodPost:   StartSessionHandler,
			http.MethodDelete: EndSessionHandler,
		}},
		{pattern: "/api/session/profile", cors: sessionCORS(), methods: map[string]handlerFunc{
			http.MethodPatch: UpdateProfileHandler,
		}},
		{pattern: "/api/session/cart", cors: sessionCORS(), methods: map[string]handlerFunc{
			http.MethodGet: SessionCartHandler,
		}},
		{pattern: "/api/session/preferences", cors: sessionCORS(), methods: map[string]handlerFunc{
			http.MethodGet: PreferencesHandler,
			http.MethodPut: UpdatePreferencesHandler,
		}},
	}

	for i := range routes {
		routes[i].cors.Methods = methodList(routes[i].methods)
	}
	return routes
}

// methodList keeps a stable order for the Allow-Methods header.
func methodList(m map[string]handlerFunc) []string {
	var out []string
	for _, method := range []string{
		http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete,
	} {
		if _, ok := m[method]; ok {
			out = append(out, method)
		}
	}
	return out
}

// Register mounts every route on mux. wrap, when non-nil, decorates each
// route's handler, e.g. with metrics.
func (d *Deps) Register(mux *http.ServeMux, wrap func(pattern string, h http.Handler) http.Handler) {
	for _, rt := range d.routes() {
		var h http.Handler = d.serve(rt)
		if wrap != nil {
			h = wrap(rt.pattern, h)
		}
		mux.Handle(rt.pattern, h)
	}
}

func (d *Deps) serve(rt route) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rt.cors.Apply(w.Header())

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		h, ok := rt.methods[r.Method]
		if !ok {
			allow := append(append([]string{}, rt.cors.Methods...), http.MethodOptions)
			w.Header().Set("Allow", strings.Join(allow, ", "))
			proxy.WriteJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "Method not allowed"})
			return
		}
		h(w, r, d)
	})
}
