package storefront

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/pricing"
	"github.com/joao-fontenele/storefront/internal/session"
)

type lineView struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Image     string `json:"image,omitempty"`
	Price     string `json:"price"`
	Quantity  int    `json:"quantity"`
	LineTotal string `json:"line_total"`
}

type totalsView struct {
	Subtotal      string `json:"subtotal"`
	Shipping      string `json:"shipping"`
	ShippingLabel string `json:"shipping_label"`
	Discount      string `json:"discount"`
	ShowDiscount  bool   `json:"show_discount"`
	Total         string `json:"total"`
}

type cartView struct {
	Items  []lineView `json:"items"`
	Count  int        `json:"count"`
	Totals totalsView `json:"totals"`
}

type wishlistView struct {
	Items []domain.Product `json:"items"`
	Count int              `json:"count"`
}

func linesFor(items []domain.CartItem) []lineView {
	lines := make([]lineView, 0, len(items))
	for _, it := range items {
		lines = append(lines, lineView{
			ProductID: it.Product.ID,
			Name:      it.Product.Name,
			Image:     it.Product.Image,
			Price:     pricing.Format(it.Product.Price),
			Quantity:  it.Quantity,
			LineTotal: pricing.Format(it.LineTotal()),
		})
	}
	return lines
}

func totalsFor(t domain.Totals) totalsView {
	label := "FREE"
	if !t.Shipping.IsZero() {
		label = "₹" + pricing.Format(t.Shipping)
	}
	return totalsView{
		Subtotal:      pricing.Format(t.Subtotal),
		Shipping:      pricing.Format(t.Shipping),
		ShippingLabel: label,
		Discount:      pricing.Format(t.Discount),
		ShowDiscount:  t.Discount.IsPositive(),
		Total:         pricing.Format(t.Total),
	}
}

func newCartView(s *session.Session) cartView {
	return cartView{
		Items:  linesFor(s.Cart),
		Count:  pricing.Count(s.Cart),
		Totals: totalsFor(pricing.Compute(s.Cart)),
	}
}

func newWishlistView(s *session.Session) wishlistView {
	items := s.Wishlist
	if items == nil {
		items = []domain.Product{}
	}
	return wishlistView{Items: items, Count: len(items)}
}

type productInput struct {
	ID    string      `json:"id" validate:"required,max=64"`
	Name  string      `json:"name" validate:"required,max=200"`
	Price json.Number `json:"price" validate:"required"`
	Image string      `json:"image" validate:"max=2048"`
}

func (p productInput) product() (domain.Product, error) {
	price, err := decimal.NewFromString(p.Price.String())
	if err != nil || price.IsNegative() {
		return domain.Product{}, session.ErrInvalidItem
	}
	return domain.Product{ID: p.ID, Name: p.Name, Price: price, Image: p.Image}, nil
}

type addItemRequest struct {
	Product  productInput `json:"product"`
	Quantity int          `json:"quantity" validate:"gte=0,lte=99"`
}

type quantityRequest struct {
	Quantity int `json:"quantity" validate:"gte=0,lte=99"`
}

type wishlistRequest struct {
	Product productInput `json:"product"`
}

func (h *Handler) HandleGetCart(w http.ResponseWriter, r *http.Request) {
	s, ok := h.loadSession(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, newCartView(s))
}

// HandleAddToCart adds one unit unless a quantity is given.
func (h *Handler) HandleAddToCart(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if !h.decode(w, r, &req) || !h.check(w, req) {
		return
	}
	p, err := req.Product.product()
	if err != nil {
		h.writeInvalidPrice(w)
		return
	}
	qty := req.Quantity
	if qty == 0 {
		qty = 1
	}

	s, ok := h.mutate(w, r, func(s *session.Session) error {
		return s.AddToCart(p, qty)
	})
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusCreated, newCartView(s))
}

// HandleUpdateQuantity sets a line's quantity. Zero removes the line.
func (h *Handler) HandleUpdateQuantity(w http.ResponseWriter, r *http.Request) {
	productID := r.PathValue("productId")
	var req quantityRequest
	if !h.decode(w, r, &req) || !h.check(w, req) {
		return
	}

	s, ok := h.mutate(w, r, func(s *session.Session) error {
		return s.SetQuantity(productID, req.Quantity)
	})
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, newCartView(s))
}

func (h *Handler) HandleRemoveFromCart(w http.ResponseWriter, r *http.Request) {
	productID := r.PathValue("productId")
	s, ok := h.mutate(w, r, func(s *session.Session) error {
		return s.RemoveFromCart(productID)
	})
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, newCartView(s))
}

func (h *Handler) HandleClearCart(w http.ResponseWriter, r *http.Request) {
	s, ok := h.mutate(w, r, func(s *session.Session) error {
		s.ClearCart()
		return nil
	})
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, newCartView(s))
}

func (h *Handler) HandleGetWishlist(w http.ResponseWriter, r *http.Request) {
	s, ok := h.loadSession(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, newWishlistView(s))
}

// HandleAddToWishlist answers 201 for a new entry and 200 when the product
// was already listed.
func (h *Handler) HandleAddToWishlist(w http.ResponseWriter, r *http.Request) {
	var req wishlistRequest
	if !h.decode(w, r, &req) || !h.check(w, req) {
		return
	}
	p, err := req.Product.product()
	if err != nil {
		h.writeInvalidPrice(w)
		return
	}

	var added bool
	s, ok := h.mutate(w, r, func(s *session.Session) error {
		var err error
		added, err = s.AddToWishlist(p)
		return err
	})
	if !ok {
		return
	}

	status := http.StatusOK
	if added {
		status = http.StatusCreated
	}
	h.writeJSON(w, status, newWishlistView(s))
}

func (h *Handler) HandleRemoveFromWishlist(w http.ResponseWriter, r *http.Request) {
	productID := r.PathValue("productId")
	s, ok := h.mutate(w, r, func(s *session.Session) error {
		return s.RemoveFromWishlist(productID)
	})
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, newWishlistView(s))
}

// mutate applies fn to the caller's session and maps session errors to
// responses.
func (h *Handler) mutate(w http.ResponseWriter, r *http.Request, fn func(*session.Session) error) (*session.Session, bool) {
	id := session.IDFromContext(r.Context())
	s, err := h.sessions.Update(r.Context(), id, fn)
	switch {
	case err == nil:
		return s, true
	case errors.Is(err, session.ErrItemNotFound):
		h.writeError(w, http.StatusNotFound, "item not found")
	case errors.Is(err, session.ErrInvalidItem):
		h.writeError(w, http.StatusBadRequest, "invalid item")
	case errors.Is(err, session.ErrQuantityLimit):
		h.writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:  "validation failed",
			Fields: map[string]string{"quantity": "line would exceed 99 items"},
		})
	default:
		h.logger.Error("failed to update session", "error", err, "session_id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
	}
	return nil, false
}

func (h *Handler) writeInvalidPrice(w http.ResponseWriter) {
	h.writeJSON(w, http.StatusBadRequest, errorResponse{
		Error:  "validation failed",
		Fields: map[string]string{"product.price": "must be a non-negative amount"},
	})
}
