// Package session holds the per-shopper storefront state: cart, wishlist and
// the transient newsletter confirmation. A Session is a plain value; the
// Manager is the only writer and persists it through a Store.
package session

import (
	"errors"
	"slices"
	"time"

	"github.com/joao-fontenele/storefront/internal/domain"
)

// MaxQuantity caps a single cart line.
const MaxQuantity = 99

var (
	ErrNotFound      = errors.New("session not found")
	ErrItemNotFound  = errors.New("item not found")
	ErrInvalidItem   = errors.New("invalid item")
	ErrQuantityLimit = errors.New("quantity limit exceeded")
)

type Session struct {
	ID              string            `json:"id"`
	Cart            []domain.CartItem `json:"cart"`
	Wishlist        []domain.Product  `json:"wishlist"`
	NewsletterUntil time.Time         `json:"newsletter_until,omitzero"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

func New(id string) *Session {
	return &Session{
		ID:       id,
		Cart:     []domain.CartItem{},
		Wishlist: []domain.Product{},
	}
}

// Clone returns a deep copy so stores never share slices with callers.
func (s *Session) Clone() *Session {
	c := *s
	c.Cart = slices.Clone(s.Cart)
	c.Wishlist = slices.Clone(s.Wishlist)
	if c.Cart == nil {
		c.Cart = []domain.CartItem{}
	}
	if c.Wishlist == nil {
		c.Wishlist = []domain.Product{}
	}
	return &c
}

// AddToCart increments the quantity when the product is already in the cart.
// The cart is left untouched when the line would exceed MaxQuantity.
func (s *Session) AddToCart(p domain.Product, quantity int) error {
	if p.ID == "" || quantity <= 0 || p.Price.IsNegative() {
		return ErrInvalidItem
	}
	for i := range s.Cart {
		if s.Cart[i].Product.ID == p.ID {
			if s.Cart[i].Quantity+quantity > MaxQuantity {
				return ErrQuantityLimit
			}
			s.Cart[i].Quantity += quantity
			s.Cart[i].Product = p
			return nil
		}
	}
	if quantity > MaxQuantity {
		return ErrQuantityLimit
	}
	s.Cart = append(s.Cart, domain.CartItem{Product: p, Quantity: quantity})
	return nil
}

// SetQuantity removes the line when quantity drops to zero or below.
func (s *Session) SetQuantity(productID string, quantity int) error {
	i := s.cartIndex(productID)
	if i < 0 {
		return ErrItemNotFound
	}
	if quantity <= 0 {
		s.Cart = slices.Delete(s.Cart, i, i+1)
		return nil
	}
	if quantity > MaxQuantity {
		return ErrQuantityLimit
	}
	s.Cart[i].Quantity = quantity
	return nil
}

func (s *Session) RemoveFromCart(productID string) error {
	i := s.cartIndex(productID)
	if i < 0 {
		return ErrItemNotFound
	}
	s.Cart = slices.Delete(s.Cart, i, i+1)
	return nil
}

// RemoveOrdered subtracts an order's lines from the cart. Products added
// after the order was taken, or extra units of an ordered product, stay.
func (s *Session) RemoveOrdered(items []domain.CartItem) {
	for _, ordered := range items {
		i := s.cartIndex(ordered.Product.ID)
		if i < 0 {
			continue
		}
		s.Cart[i].Quantity -= ordered.Quantity
		if s.Cart[i].Quantity <= 0 {
			s.Cart = slices.Delete(s.Cart, i, i+1)
		}
	}
	if s.Cart == nil {
		s.Cart = []domain.CartItem{}
	}
}

func (s *Session) ClearCart() {
	s.Cart = []domain.CartItem{}
}

func (s *Session) CartEmpty() bool {
	return len(s.Cart) == 0
}

func (s *Session) cartIndex(productID string) int {
	return slices.IndexFunc(s.Cart, func(item domain.CartItem) bool {
		return item.Product.ID == productID
	})
}

// AddToWishlist reports false when the product was already saved.
func (s *Session) AddToWishlist(p domain.Product) (bool, error) {
	if p.ID == "" {
		return false, ErrInvalidItem
	}
	if slices.ContainsFunc(s.Wishlist, func(w domain.Product) bool { return w.ID == p.ID }) {
		return false, nil
	}
	s.Wishlist = append(s.Wishlist, p)
	return true, nil
}

func (s *Session) RemoveFromWishlist(productID string) error {
	i := slices.IndexFunc(s.Wishlist, func(w domain.Product) bool { return w.ID == productID })
	if i < 0 {
		return ErrItemNotFound
	}
	s.Wishlist = slices.Delete(s.Wishlist, i, i+1)
	return nil
}

// SubscribeNewsletter shows the confirmation for window starting at now.
func (s *Session) SubscribeNewsletter(now time.Time, window time.Duration) {
	s.NewsletterUntil = now.Add(window)
}

func (s *Session) NewsletterSubscribed(now time.Time) bool {
	return now.Before(s.NewsletterUntil)
}
