package navigation

import (
	"net/url"
	"strings"
)

const (
	Home         = "/"
	Products     = "/products"
	About        = "/about"
	Contact      = "/contact"
	FAQ          = "/faq"
	Cart         = "/cart"
	Wishlist     = "/wishlist"
	Orders       = "/orders"
	Login        = "/login"
	Terms        = "/terms"
	Privacy      = "/privacy"
	Returns      = "/returns"
	OrderSuccess = "/order-success"
)

// Redirect is the navigation instruction returned to the page.
type Redirect struct {
	Redirect string `json:"redirect"`
}

type Link struct {
	Label string `json:"label"`
	Path  string `json:"path"`
}

// Search builds the product listing route for a query. The query is escaped,
// so it can't add parameters or change the path.
func Search(query string) string {
	return withQuery(Products, "search", query)
}

func Category(id string) string {
	return withQuery(Products, "category", id)
}

func OrderConfirmation(orderID string) string {
	return withQuery(OrderSuccess, "orderId", orderID)
}

func withQuery(path, key, value string) string {
	v := url.Values{}
	v.Set(key, value)
	return path + "?" + v.Encode()
}

// Internal reports whether target is a same-site path.
func Internal(target string) bool {
	return strings.HasPrefix(target, "/") && !strings.HasPrefix(target, "//")
}
