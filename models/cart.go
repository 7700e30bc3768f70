package models

// Cart mirrors the backend cart document.
type Cart struct {
	CartCode   string     `json:"cart_code"`
	CartItems  []CartItem `json:"cartitems"`
	CartTotal  float64    `json:"cart_total"`
	TotalItems int        `json:"total_items"`
}

type CartItem struct {
	ID       int64   `json:"id"`
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
	SubTotal float64 `json:"sub_total"`
}

// EmptyCart is served when the backend has no cart for code yet.
func EmptyCart(code string) Cart {
	return Cart{CartCode: code, CartItems: []CartItem{}}
}

type WishlistStatus struct {
	InWishlist bool `json:"in_wishlist"`
}
