package storefront

import (
	"errors"
	"net/http"
	"strings"

	"github.com/joao-fontenele/storefront/internal/checkout"
	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/navigation"
	"github.com/joao-fontenele/storefront/internal/pricing"
	"github.com/joao-fontenele/storefront/internal/session"
)

const processingLabel = "Processing..."

type paymentOption struct {
	Value       domain.PaymentMethod `json:"value"`
	Label       string               `json:"label"`
	Description string               `json:"description"`
}

var (
	paymentOptions = []paymentOption{
		{Value: domain.PaymentMethodRazorpay, Label: "Razorpay", Description: "UPI, Cards, Wallets"},
		{Value: domain.PaymentMethodCOD, Label: "Cash on Delivery", Description: "Pay when you receive"},
	}
	trustBadges = []string{"100% Secure Payment", "7 Days Easy Returns", "Fast Delivery"}
)

type checkoutView struct {
	Form           domain.ShippingDetails `json:"form"`
	PaymentOptions []paymentOption        `json:"payment_options"`
	Items          []lineView             `json:"items"`
	Totals         totalsView             `json:"totals"`
	Processing     bool                   `json:"processing"`
	PlacementID    string                 `json:"placement_id,omitempty"`
	SubmitLabel    string                 `json:"submit_label"`
	TrustBadges    []string               `json:"trust_badges"`
}

func submitLabel(total string, processing bool) string {
	if processing {
		return processingLabel
	}
	return "Place Order – ₹" + total
}

// HandleCheckoutPage renders the form, or sends an empty cart back to /cart.
func (h *Handler) HandleCheckoutPage(w http.ResponseWriter, r *http.Request) {
	s, ok := h.loadSession(w, r)
	if !ok {
		return
	}
	if s.CartEmpty() {
		h.writeRedirect(w, navigation.Cart)
		return
	}

	form := domain.ShippingDetails{PaymentMethod: domain.PaymentMethodRazorpay}
	if u, ok := currentUser(r); ok {
		form.Name = u.Name
		form.Email = u.Email
		form.Phone = u.Phone
	}

	totals := totalsFor(pricing.Compute(s.Cart))
	view := checkoutView{
		Form:           form,
		PaymentOptions: paymentOptions,
		Items:          linesFor(s.Cart),
		Totals:         totals,
		TrustBadges:    trustBadges,
	}
	if pl, ok := h.checkout.Active(s.ID); ok {
		view.Processing = true
		view.PlacementID = pl.ID
	}
	view.SubmitLabel = submitLabel(totals.Total, view.Processing)

	h.writeJSON(w, http.StatusOK, view)
}

// HandlePlaceOrder starts an asynchronous placement and answers 202 with
// its location.
func (h *Handler) HandlePlaceOrder(w http.ResponseWriter, r *http.Request) {
	s, ok := h.loadSession(w, r)
	if !ok {
		return
	}
	if s.CartEmpty() {
		h.writeRedirect(w, navigation.Cart)
		return
	}

	var details domain.ShippingDetails
	if !h.decode(w, r, &details) {
		return
	}
	details = trimDetails(details)
	if !h.check(w, details) {
		return
	}

	pl, err := h.checkout.Submit(r.Context(), s.ID, details)
	switch {
	case err == nil:
	case errors.Is(err, checkout.ErrCheckoutInProgress):
		h.writeJSON(w, http.StatusConflict, pl)
		return
	case errors.Is(err, checkout.ErrEmptyCart):
		h.writeRedirect(w, navigation.Cart)
		return
	default:
		h.logger.Error("failed to submit checkout", "error", err, "session_id", s.ID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.Header().Set("Location", "/checkout/placements/"+pl.ID)
	h.writeJSON(w, http.StatusAccepted, pl)
}

func (h *Handler) HandleGetPlacement(w http.ResponseWriter, r *http.Request) {
	id := session.IDFromContext(r.Context())
	pl, err := h.checkout.Get(id, r.PathValue("id"))
	if err != nil {
		h.writeError(w, http.StatusNotFound, "placement not found")
		return
	}
	h.writeJSON(w, http.StatusOK, pl)
}

// HandleCancelPlacement cancels a processing placement. A placement that
// already finished answers 409 with its final state.
func (h *Handler) HandleCancelPlacement(w http.ResponseWriter, r *http.Request) {
	id := session.IDFromContext(r.Context())
	pl, err := h.checkout.Cancel(r.Context(), id, r.PathValue("id"))
	switch {
	case err == nil:
		h.writeJSON(w, http.StatusOK, pl)
	case errors.Is(err, checkout.ErrPlacementNotFound):
		h.writeError(w, http.StatusNotFound, "placement not found")
	case errors.Is(err, checkout.ErrPlacementFinished):
		h.writeJSON(w, http.StatusConflict, pl)
	default:
		h.logger.Error("failed to cancel placement", "error", err, "session_id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func trimDetails(d domain.ShippingDetails) domain.ShippingDetails {
	d.Name = strings.TrimSpace(d.Name)
	d.Email = strings.TrimSpace(d.Email)
	d.Phone = strings.TrimSpace(d.Phone)
	d.Address = strings.TrimSpace(d.Address)
	d.City = strings.TrimSpace(d.City)
	d.State = strings.TrimSpace(d.State)
	d.Pincode = strings.TrimSpace(d.Pincode)
	return d
}
