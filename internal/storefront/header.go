package storefront

import (
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/joao-fontenele/storefront/internal/auth"
	"github.com/joao-fontenele/storefront/internal/navigation"
	"github.com/joao-fontenele/storefront/internal/pricing"
)

const (
	OfferText         = "FLAT 10% OFF + FREE GIFT on orders above ₹1499"
	BrandName         = "Birdcarts"
	SearchPlaceholder = "Search for socks, orthopedic products..."

	maxQueryLength = 200
)

type badge struct {
	Path    string `json:"path"`
	Count   int    `json:"count"`
	Visible bool   `json:"visible"`
}

type menuItem struct {
	Label  string `json:"label"`
	Path   string `json:"path,omitempty"`
	Action string `json:"action,omitempty"`
}

type userMenu struct {
	Name  string     `json:"name"`
	Items []menuItem `json:"items"`
}

type headerView struct {
	Offer             string            `json:"offer"`
	Logo              navigation.Link   `json:"logo"`
	SearchPlaceholder string            `json:"search_placeholder"`
	Wishlist          badge             `json:"wishlist"`
	Cart              badge             `json:"cart"`
	Authenticated     bool              `json:"authenticated"`
	User              *userMenu         `json:"user,omitempty"`
	Login             *navigation.Link  `json:"login,omitempty"`
	Nav               []navigation.Link `json:"nav"`
}

func newBadge(path string, count int) badge {
	return badge{Path: path, Count: count, Visible: count > 0}
}

func (h *Handler) HandleHeader(w http.ResponseWriter, r *http.Request) {
	s, ok := h.loadSession(w, r)
	if !ok {
		return
	}

	view := headerView{
		Offer:             OfferText,
		Logo:              navigation.Link{Label: BrandName, Path: navigation.Home},
		SearchPlaceholder: SearchPlaceholder,
		Wishlist:          newBadge(navigation.Wishlist, len(s.Wishlist)),
		Cart:              newBadge(navigation.Cart, pricing.Count(s.Cart)),
		Nav:               h.navLinks(),
	}

	if u, ok := currentUser(r); ok {
		view.Authenticated = true
		view.User = &userMenu{
			Name: u.Name,
			Items: []menuItem{
				{Label: "My Orders", Path: navigation.Orders},
				{Label: "Wishlist", Path: navigation.Wishlist},
				{Label: "Logout", Action: "POST /session/logout"},
			},
		}
	} else {
		view.Login = &navigation.Link{Label: "Login", Path: navigation.Login}
	}

	h.writeJSON(w, http.StatusOK, view)
}

func (h *Handler) navLinks() []navigation.Link {
	links := make([]navigation.Link, 0, len(h.categories)+3)
	links = append(links, navigation.Link{Label: "All Products", Path: navigation.Products})
	for _, c := range h.categories {
		links = append(links, navigation.Link{Label: c.Name, Path: navigation.Category(c.ID)})
	}
	return append(links,
		navigation.Link{Label: "About Us", Path: navigation.About},
		navigation.Link{Label: "Contact", Path: navigation.Contact},
	)
}

type searchRequest struct {
	Query string `json:"query"`
}

// HandleSearch answers with the listing route for the query. A blank query
// is a no-op and yields an empty redirect.
func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if !h.decode(w, r, &req) {
		return
	}

	// Blank queries are ignored; anything else is carried verbatim.
	if strings.TrimSpace(req.Query) == "" {
		h.writeJSON(w, http.StatusOK, navigation.Redirect{})
		return
	}
	if utf8.RuneCountInString(req.Query) > maxQueryLength {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:  "validation failed",
			Fields: map[string]string{"query": "must be at most 200 characters"},
		})
		return
	}

	h.searches.Add(r.Context(), 1)
	h.writeJSON(w, http.StatusOK, navigation.Redirect{Redirect: navigation.Search(req.Query)})
}

// HandleLogout drops the access token. Calling it without a token is fine.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	auth.ClearCookie(w)
	if u, ok := currentUser(r); ok {
		h.logger.Info("user logged out", "user_id", u.ID)
	}
	h.writeJSON(w, http.StatusOK, navigation.Redirect{Redirect: navigation.Home})
}
