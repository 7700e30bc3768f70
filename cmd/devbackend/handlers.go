package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"storefront/models"
	"storefront/utils"
)

type server struct {
	shop   *shop
	logger *zap.Logger
}

func (s *server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /users/login/", s.login)
	mux.HandleFunc("GET /users/logout/", s.logout)
	mux.HandleFunc("POST /users/register/", s.register)

	mux.HandleFunc("GET /products/list/", s.products)
	mux.HandleFunc("GET /products/list/{id}/", s.productDetail)
	mux.HandleFunc("GET /products/category/", s.categories)

	mux.HandleFunc("POST /cart/add/", s.addToCart)
	mux.HandleFunc("GET /cart/get/{code}/", s.getCart)
	mux.HandleFunc("PATCH /cart/update/{id}/", s.updateCartItem)
	mux.HandleFunc("DELETE /cart/remove/{id}/", s.removeCartItem)
	mux.HandleFunc("DELETE /cart/clear/{code}/", s.clearCart)

	mux.HandleFunc("POST /wishlist/add/", s.authed(s.addToWishlist))
	mux.HandleFunc("GET /wishlist/list/", s.authed(s.listWishlist))
	mux.HandleFunc("DELETE /wishlist/remove/{id}/", s.authed(s.removeFromWishlist))
	mux.HandleFunc("GET /wishlist/check/{id}/", s.authed(s.checkWishlist))
	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func detail(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"detail": msg})
}

func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	return id, err == nil
}

// login answers bad credentials with 200 and an error field, the way the
// production backend does.
func (s *server) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		detail(w, http.StatusBadRequest, "Malformed request.")
		return
	}

	token, profile, err := s.shop.login(req.Username, req.Password)
	if errors.Is(err, errBadCredentials) {
		writeJSON(w, http.StatusOK, models.ErrorResponse{Error: "Invalid credentials"})
		return
	}
	if err != nil {
		s.logger.Error("login failed", zap.Error(err))
		detail(w, http.StatusInternalServerError, "Login failed.")
		return
	}

	s.logger.Info("user logged in", zap.String("username", profile.Username), zap.String("token", utils.Fingerprint(token)))
	http.SetCookie(w, &http.Cookie{Name: "sessionid", Value: token, Path: "/", HttpOnly: true})
	http.SetCookie(w, &http.Cookie{Name: "csrftoken", Value: utils.Fingerprint(token), Path: "/"})
	writeJSON(w, http.StatusOK, models.LoginResult{Token: token, User: &profile})
}

func (s *server) logout(w http.ResponseWriter, r *http.Request) {
	token := utils.CredentialFromHeader(r.Header.Get("Authorization"))
	if token == "" {
		token = utils.CookieValue(r, "sessionid")
	}
	if token != "" {
		s.shop.logout(token)
	}
	http.SetCookie(w, &http.Cookie{Name: "sessionid", Value: "", Path: "/", MaxAge: -1})
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
}

func (s *server) register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		models.UserProfile
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		detail(w, http.StatusBadRequest, "Malformed request.")
		return
	}

	user, fieldErrs, err := s.shop.register(req.UserProfile, req.Password)
	if err != nil {
		s.logger.Error("register failed", zap.Error(err))
		detail(w, http.StatusInternalServerError, "Registration failed.")
		return
	}
	if fieldErrs != nil {
		writeJSON(w, http.StatusBadRequest, fieldErrs)
		return
	}
	s.logger.Info("user registered", zap.Int64("id", user.ID), zap.String("username", user.Username))
	writeJSON(w, http.StatusCreated, user)
}

func (s *server) products(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.shop.products)
}

func (s *server) productDetail(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		detail(w, http.StatusNotFound, "Not found.")
		return
	}
	p, ok := s.shop.product(id)
	if !ok {
		detail(w, http.StatusNotFound, "Not found.")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *server) categories(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.shop.category)
}

func (s *server) addToCart(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CartCode  string `json:"cart_code"`
		ProductID int64  `json:"product_id"`
		Quantity  int    `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.CartCode == "" {
		detail(w, http.StatusBadRequest, "cart_code and product_id are required.")
		return
	}
	if req.Quantity <= 0 {
		req.Quantity = 1
	}

	cart, err := s.shop.addToCart(req.CartCode, req.ProductID, req.Quantity)
	if err != nil {
		detail(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, cart)
}

func (s *server) getCart(w http.ResponseWriter, r *http.Request) {
	cart, err := s.shop.cart(r.PathValue("code"))
	if err != nil {
		detail(w, http.StatusNotFound, "Not found.")
		return
	}
	writeJSON(w, http.StatusOK, cart)
}

func (s *server) updateCartItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); !ok || err != nil {
		detail(w, http.StatusBadRequest, "quantity is required.")
		return
	}
	cart, err := s.shop.updateItem(id, req.Quantity)
	if err != nil {
		detail(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, cart)
}

func (s *server) removeCartItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		detail(w, http.StatusNotFound, "Not found.")
		return
	}
	cart, err := s.shop.removeItem(id)
	if err != nil {
		detail(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, cart)
}

func (s *server) clearCart(w http.ResponseWriter, r *http.Request) {
	if err := s.shop.clearCart(r.PathValue("code")); err != nil {
		detail(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Cart cleared"})
}

type authedHandler func(w http.ResponseWriter, r *http.Request, user string)

// authed requires an "Authorization: Token <t>" header naming a live token.
func (s *server) authed(next authedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := s.shop.userFor(r.Header.Get("Authorization"))
		if !ok {
			detail(w, http.StatusUnauthorized, "Authentication credentials were not provided.")
			return
		}
		next(w, r, user)
	}
}

func (s *server) addToWishlist(w http.ResponseWriter, r *http.Request, user string) {
	var req struct {
		ProductID int64 `json:"product_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		detail(w, http.StatusBadRequest, "product_id is required.")
		return
	}
	if err := s.shop.wishlistAdd(user, req.ProductID); err != nil {
		detail(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"message": "Added to wishlist"})
}

func (s *server) listWishlist(w http.ResponseWriter, _ *http.Request, user string) {
	writeJSON(w, http.StatusOK, s.shop.wishlist(user))
}

func (s *server) removeFromWishlist(w http.ResponseWriter, r *http.Request, user string) {
	id, ok := pathID(r, "id")
	if !ok {
		detail(w, http.StatusNotFound, "Not found.")
		return
	}
	s.shop.wishlistRemove(user, id)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Removed from wishlist"})
}

func (s *server) checkWishlist(w http.ResponseWriter, r *http.Request, user string) {
	id, _ := pathID(r, "id")
	writeJSON(w, http.StatusOK, models.WishlistStatus{InWishlist: s.shop.wishlistHas(user, id)})
}
