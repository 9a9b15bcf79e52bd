package session

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joao-fontenele/storefront/internal/domain"
)

func product(id string, price int64) domain.Product {
	return domain.Product{ID: id, Name: "Product " + id, Price: decimal.NewFromInt(price)}
}

func TestSession_AddToCart(t *testing.T) {
	t.Run("merges quantity for the same product", func(t *testing.T) {
		s := New("s1")
		require.NoError(t, s.AddToCart(product("p1", 100), 1))
		require.NoError(t, s.AddToCart(product("p1", 100), 2))
		require.NoError(t, s.AddToCart(product("p2", 50), 1))

		require.Len(t, s.Cart, 2)
		assert.Equal(t, 3, s.Cart[0].Quantity)
		assert.Equal(t, 1, s.Cart[1].Quantity)
	})

	t.Run("rejects invalid items", func(t *testing.T) {
		s := New("s1")
		assert.ErrorIs(t, s.AddToCart(product("", 100), 1), ErrInvalidItem)
		assert.ErrorIs(t, s.AddToCart(product("p1", 100), 0), ErrInvalidItem)
		assert.ErrorIs(t, s.AddToCart(product("p1", -1), 1), ErrInvalidItem)
		assert.True(t, s.CartEmpty())
	})

	t.Run("caps a line at the maximum quantity", func(t *testing.T) {
		s := New("s1")
		require.NoError(t, s.AddToCart(product("p1", 100), 90))
		assert.ErrorIs(t, s.AddToCart(product("p1", 100), 10), ErrQuantityLimit)
		assert.Equal(t, 90, s.Cart[0].Quantity)

		require.NoError(t, s.AddToCart(product("p1", 100), 9))
		assert.Equal(t, MaxQuantity, s.Cart[0].Quantity)
		assert.ErrorIs(t, s.AddToCart(product("p1", 100), 1), ErrQuantityLimit)
		assert.ErrorIs(t, s.AddToCart(product("p2", 100), 100), ErrQuantityLimit)
		assert.Len(t, s.Cart, 1)
	})
}

func TestSession_SetQuantity(t *testing.T) {
	s := New("s1")
	require.NoError(t, s.AddToCart(product("p1", 100), 1))

	require.NoError(t, s.SetQuantity("p1", 5))
	assert.Equal(t, 5, s.Cart[0].Quantity)

	assert.ErrorIs(t, s.SetQuantity("p1", MaxQuantity+1), ErrQuantityLimit)
	assert.Equal(t, 5, s.Cart[0].Quantity)

	require.NoError(t, s.SetQuantity("p1", 0))
	assert.True(t, s.CartEmpty())

	assert.ErrorIs(t, s.SetQuantity("missing", 1), ErrItemNotFound)
}

func TestSession_RemoveAndClear(t *testing.T) {
	s := New("s1")
	require.NoError(t, s.AddToCart(product("p1", 100), 1))
	require.NoError(t, s.AddToCart(product("p2", 100), 1))

	require.NoError(t, s.RemoveFromCart("p1"))
	assert.ErrorIs(t, s.RemoveFromCart("p1"), ErrItemNotFound)
	require.Len(t, s.Cart, 1)

	s.ClearCart()
	assert.True(t, s.CartEmpty())
	assert.NotNil(t, s.Cart)
}

func TestSession_RemoveOrdered(t *testing.T) {
	s := New("s1")
	require.NoError(t, s.AddToCart(product("p1", 100), 3))
	require.NoError(t, s.AddToCart(product("p2", 50), 1))
	require.NoError(t, s.AddToCart(product("p3", 10), 2))

	s.RemoveOrdered([]domain.CartItem{
		{Product: product("p1", 100), Quantity: 2},
		{Product: product("p2", 50), Quantity: 1},
		{Product: product("gone", 1), Quantity: 1},
	})

	require.Len(t, s.Cart, 2)
	assert.Equal(t, "p1", s.Cart[0].Product.ID)
	assert.Equal(t, 1, s.Cart[0].Quantity)
	assert.Equal(t, "p3", s.Cart[1].Product.ID)

	s.RemoveOrdered([]domain.CartItem{
		{Product: product("p1", 100), Quantity: 1},
		{Product: product("p3", 10), Quantity: 2},
	})
	assert.True(t, s.CartEmpty())
	assert.NotNil(t, s.Cart)
}

func TestSession_Wishlist(t *testing.T) {
	s := New("s1")

	added, err := s.AddToWishlist(product("p1", 100))
	require.NoError(t, err)
	assert.True(t, added)

	added, err = s.AddToWishlist(product("p1", 100))
	require.NoError(t, err)
	assert.False(t, added)
	assert.Len(t, s.Wishlist, 1)

	require.NoError(t, s.RemoveFromWishlist("p1"))
	assert.ErrorIs(t, s.RemoveFromWishlist("p1"), ErrItemNotFound)

	_, err = s.AddToWishlist(domain.Product{})
	assert.ErrorIs(t, err, ErrInvalidItem)
}

func TestSession_Newsletter(t *testing.T) {
	s := New("s1")
	now := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)

	assert.False(t, s.NewsletterSubscribed(now))

	s.SubscribeNewsletter(now, 3*time.Second)
	assert.True(t, s.NewsletterSubscribed(now))
	assert.True(t, s.NewsletterSubscribed(now.Add(2999*time.Millisecond)))
	assert.False(t, s.NewsletterSubscribed(now.Add(3*time.Second)))
}

func TestSession_CloneIsDeep(t *testing.T) {
	s := New("s1")
	require.NoError(t, s.AddToCart(product("p1", 100), 1))

	c := s.Clone()
	c.Cart[0].Quantity = 10

	assert.Equal(t, 1, s.Cart[0].Quantity)
}
