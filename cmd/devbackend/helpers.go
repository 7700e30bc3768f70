package main

import (
	"errors"
	"strings"
	"sync"

	"storefront/models"
	"storefront/utils"
)

var (
	errBadCredentials = errors.New("invalid credentials")
	errUnknownProduct = errors.New("product not found")
	errUnknownItem    = errors.New("cart item not found")
	errUnknownCart    = errors.New("cart not found")
)

type account struct {
	profile models.UserProfile
	hash    string
}

// shop is the whole fake commerce backend: users, tokens, catalog, carts and
// wishlists, all in memory.
type shop struct {
	mu sync.Mutex

	nextUserID int64
	nextItemID int64

	accounts  map[string]*account // by username
	tokens    map[string]string   // token -> username
	products  []models.Product
	category  []models.Category
	carts     map[string]*models.Cart
	itemCart  map[int64]string           // cart item id -> cart code
	wishlists map[string]map[int64]bool // username -> product ids
}

func newShop() *shop {
	return &shop{
		nextUserID: 1,
		nextItemID: 1,
		accounts:   make(map[string]*account),
		tokens:     make(map[string]string),
		carts:      make(map[string]*models.Cart),
		itemCart:   make(map[int64]string),
		wishlists:  make(map[string]map[int64]bool),
		category: []models.Category{
			{ID: 1, Name: "Kitchen", Slug: "kitchen"},
			{ID: 2, Name: "Garden", Slug: "garden"},
		},
		products: []models.Product{
			{ID: 1, Name: "Bamboo brush", Slug: "bamboo-brush", Price: 4.5, Category: "kitchen"},
			{ID: 2, Name: "Cast iron pan", Slug: "cast-iron-pan", Price: 39.9, Category: "kitchen"},
			{ID: 3, Name: "Watering can", Slug: "watering-can", Price: 17.25, Category: "garden"},
		},
	}
}

func (s *shop) register(p models.UserProfile, password string) (models.UserProfile, utils.FieldErrors, error) {
	fe := utils.FieldErrors{}
	if err := utils.ValidateUsername(p.Username); err != nil {
		fe.Add("username", err.Error())
	}
	if err := utils.ValidateEmail(p.Email); err != nil {
		fe.Add("email", "Enter a valid email address.")
	}
	for _, problem := range utils.PasswordProblems(password) {
		fe.Add("password", problem)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.accounts[p.Username]; taken {
		fe.Add("username", "A user with that username already exists.")
	}
	if !fe.Empty() {
		return models.UserProfile{}, fe, nil
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return models.UserProfile{}, nil, err
	}
	p.ID = s.nextUserID
	p.IsActive = true
	s.nextUserID++
	s.accounts[p.Username] = &account{profile: p, hash: hash}
	return p, nil, nil
}

func (s *shop) login(username, password string) (string, models.UserProfile, error) {
	s.mu.Lock()
	acc, ok := s.accounts[username]
	s.mu.Unlock()
	if !ok || !utils.CheckPasswordHash(password, acc.hash) {
		return "", models.UserProfile{}, errBadCredentials
	}

	token, err := utils.GenerateToken(20)
	if err != nil {
		return "", models.UserProfile{}, err
	}
	s.mu.Lock()
	s.tokens[token] = username
	s.mu.Unlock()
	return token, acc.profile, nil
}

func (s *shop) logout(token string) {
	s.mu.Lock()
	delete(s.tokens, token)
	s.mu.Unlock()
}

// userFor resolves an "Authorization: Token <t>" header.
func (s *shop) userFor(header string) (string, bool) {
	token := utils.CredentialFromHeader(header)
	if token == "" {
		return "", false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	name, ok := s.tokens[token]
	return name, ok
}

func (s *shop) product(id int64) (models.Product, bool) {
	for _, p := range s.products {
		if p.ID == id {
			return p, true
		}
	}
	return models.Product{}, false
}

func (s *shop) cart(code string) (models.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.carts[strings.TrimSpace(code)]
	if !ok {
		return models.Cart{}, errUnknownCart
	}
	return snapshot(c), nil
}

func (s *shop) addToCart(code string, productID int64, quantity int) (models.Cart, error) {
	p, ok := s.product(productID)
	if !ok {
		return models.Cart{}, errUnknownProduct
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.carts[code]
	if !ok {
		c = &models.Cart{CartCode: code}
		s.carts[code] = c
	}
	for i := range c.CartItems {
		if c.CartItems[i].Product.ID == productID {
			c.CartItems[i].Quantity += quantity
			recount(c)
			return snapshot(c), nil
		}
	}
	c.CartItems = append(c.CartItems, models.CartItem{ID: s.nextItemID, Product: p, Quantity: quantity})
	s.itemCart[s.nextItemID] = code
	s.nextItemID++
	recount(c)
	return snapshot(c), nil
}

func (s *shop) updateItem(itemID int64, quantity int) (models.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, i, ok := s.findItem(itemID)
	if !ok {
		return models.Cart{}, errUnknownItem
	}
	if quantity <= 0 {
		s.dropItem(c, i)
	} else {
		c.CartItems[i].Quantity = quantity
	}
	recount(c)
	return snapshot(c), nil
}

func (s *shop) removeItem(itemID int64) (models.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, i, ok := s.findItem(itemID)
	if !ok {
		return models.Cart{}, errUnknownItem
	}
	s.dropItem(c, i)
	recount(c)
	return snapshot(c), nil
}

func (s *shop) clearCart(code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.carts[code]
	if !ok {
		return errUnknownCart
	}
	for _, item := range c.CartItems {
		delete(s.itemCart, item.ID)
	}
	c.CartItems = nil
	recount(c)
	return nil
}

func (s *shop) findItem(itemID int64) (*models.Cart, int, bool) {
	c, ok := s.carts[s.itemCart[itemID]]
	if !ok {
		return nil, 0, false
	}
	for i := range c.CartItems {
		if c.CartItems[i].ID == itemID {
			return c, i, true
		}
	}
	return nil, 0, false
}

func (s *shop) dropItem(c *models.Cart, i int) {
	delete(s.itemCart, c.CartItems[i].ID)
	c.CartItems = append(c.CartItems[:i], c.CartItems[i+1:]...)
}

func recount(c *models.Cart) {
	c.CartTotal, c.TotalItems = 0, 0
	for i := range c.CartItems {
		item := &c.CartItems[i]
		item.SubTotal = item.Product.Price * float64(item.Quantity)
		c.CartTotal += item.SubTotal
		c.TotalItems += item.Quantity
	}
}

func snapshot(c *models.Cart) models.Cart {
	out := *c
	out.CartItems = append([]models.CartItem{}, c.CartItems...)
	return out
}

func (s *shop) wishlistAdd(user string, productID int64) error {
	if _, ok := s.product(productID); !ok {
		return errUnknownProduct
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.wishlists[user] == nil {
		s.wishlists[user] = make(map[int64]bool)
	}
	s.wishlists[user][productID] = true
	return nil
}

func (s *shop) wishlistRemove(user string, productID int64) {
	s.mu.Lock()
	delete(s.wishlists[user], productID)
	s.mu.Unlock()
}

func (s *shop) wishlistHas(user string, productID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wishlists[user][productID]
}

func (s *shop) wishlist(user string) []models.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Product{}
	for _, p := range s.products {
		if s.wishlists[user][p.ID] {
			out = append(out, p)
		}
	}
	return out
}
