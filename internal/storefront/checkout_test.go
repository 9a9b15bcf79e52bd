package storefront

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joao-fontenele/storefront/internal/domain"
)

var validDetails = map[string]string{
	"name":          "Asha Verma",
	"email":         "asha@example.com",
	"phone":         "9876543210",
	"address":       "12 Lake Road",
	"city":          "New Delhi",
	"state":         "Delhi",
	"pincode":       "110043",
	"paymentMethod": "cod",
}

func TestCheckoutEmptyCartRedirects(t *testing.T) {
	ts := newTestServer(t)

	for _, method := range []string{http.MethodGet, http.MethodPost} {
		t.Run(method, func(t *testing.T) {
			rec := ts.do(t, method, "/checkout", validDetails)
			assert.Equal(t, http.StatusSeeOther, rec.Code)
			assert.Equal(t, "/cart", rec.Header().Get("Location"))
			assert.JSONEq(t, `{"redirect":"/cart"}`, rec.Body.String())
		})
	}
	_, active := ts.processor.Active(ts.sid)
	assert.False(t, active)
}

func TestCheckoutPage(t *testing.T) {
	ts := newTestServer(t)
	ts.addToCart(t, "p1", "1000", 2)

	rec := ts.do(t, http.MethodGet, "/checkout", nil, asUser(t, "Asha", "asha@example.com", "9876543210"))
	require.Equal(t, http.StatusOK, rec.Code)
	view := decodeBody[checkoutView](t, rec)

	assert.Equal(t, domain.ShippingDetails{
		Name:          "Asha",
		Email:         "asha@example.com",
		Phone:         "9876543210",
		PaymentMethod: domain.PaymentMethodRazorpay,
	}, view.Form)
	assert.Equal(t, totalsView{
		Subtotal:      "2000.00",
		Shipping:      "0.00",
		ShippingLabel: "FREE",
		Discount:      "200.00",
		ShowDiscount:  true,
		Total:         "1800.00",
	}, view.Totals)
	assert.Equal(t, "Place Order – ₹1800.00", view.SubmitLabel)
	assert.False(t, view.Processing)
	require.Len(t, view.Items, 1)
	assert.Equal(t, "2000.00", view.Items[0].LineTotal)
	require.Len(t, view.PaymentOptions, 2)
	assert.Equal(t, "UPI, Cards, Wallets", view.PaymentOptions[0].Description)
	assert.Equal(t, domain.PaymentMethodCOD, view.PaymentOptions[1].Value)
	assert.Equal(t, []string{"100% Secure Payment", "7 Days Easy Returns", "Fast Delivery"}, view.TrustBadges)
}

func TestCheckoutPageSmallCart(t *testing.T) {
	ts := newTestServer(t)
	ts.addToCart(t, "p1", "500", 1)

	rec := ts.do(t, http.MethodGet, "/checkout", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	view := decodeBody[checkoutView](t, rec)

	assert.Equal(t, domain.PaymentMethodRazorpay, view.Form.PaymentMethod)
	assert.Empty(t, view.Form.Name)
	assert.Equal(t, "₹50.00", view.Totals.ShippingLabel)
	assert.False(t, view.Totals.ShowDiscount)
	assert.Equal(t, "Place Order – ₹550.00", view.SubmitLabel)
}

func TestPlaceOrderValidation(t *testing.T) {
	ts := newTestServer(t)
	ts.addToCart(t, "p1", "1000", 1)

	rec := ts.do(t, http.MethodPost, "/checkout", map[string]string{
		"name":          "  ",
		"email":         "nope",
		"paymentMethod": "paypal",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody[errorResponse](t, rec)

	assert.Equal(t, map[string]string{
		"name":          "is required",
		"email":         "must be a valid email address",
		"phone":         "is required",
		"address":       "is required",
		"city":          "is required",
		"state":         "is required",
		"pincode":       "is required",
		"paymentMethod": "must be one of: razorpay, cod",
	}, body.Fields)

	_, active := ts.processor.Active(ts.sid)
	assert.False(t, active)
}

func TestPlaceOrderSucceeds(t *testing.T) {
	ts := newTestServer(t)
	ts.addToCart(t, "p1", "1000", 2)

	rec := ts.do(t, http.MethodPost, "/checkout", validDetails)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	pl := decodeBody[domain.Placement](t, rec)
	assert.Equal(t, domain.PlacementStatusProcessing, pl.Status)
	assert.Equal(t, "/checkout/placements/"+pl.ID, rec.Header().Get("Location"))

	close(ts.placer.release)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := ts.processor.Wait(ctx, ts.sid, pl.ID)
	require.NoError(t, err)

	rec = ts.do(t, http.MethodGet, "/checkout/placements/"+pl.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	done := decodeBody[domain.Placement](t, rec)
	assert.Equal(t, domain.PlacementStatusSucceeded, done.Status)
	assert.Equal(t, "ORDER1700000000000", done.OrderID)
	assert.Equal(t, "/order-success?orderId=ORDER1700000000000", done.Redirect)
	assert.Equal(t, "Order placed successfully!", done.Message)

	rec = ts.do(t, http.MethodGet, "/cart", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeBody[cartView](t, rec).Items)

	var placed bool
	for _, e := range ts.publisher.all() {
		if e.eventType == domain.EventOrderPlaced {
			placed = true
		}
	}
	assert.True(t, placed, "expected an order.placed event")

	// The emptied cart sends the shopper back again.
	rec = ts.do(t, http.MethodGet, "/checkout", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
}

func TestPlaceOrderWhileProcessingThenCancel(t *testing.T) {
	ts := newTestServer(t)
	ts.addToCart(t, "p1", "1000", 2)

	rec := ts.do(t, http.MethodPost, "/checkout", validDetails)
	require.Equal(t, http.StatusAccepted, rec.Code)
	pl := decodeBody[domain.Placement](t, rec)

	rec = ts.do(t, http.MethodGet, "/checkout", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	view := decodeBody[checkoutView](t, rec)
	assert.True(t, view.Processing)
	assert.Equal(t, pl.ID, view.PlacementID)
	assert.Equal(t, "Processing...", view.SubmitLabel)

	rec = ts.do(t, http.MethodPost, "/checkout", validDetails)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, pl.ID, decodeBody[domain.Placement](t, rec).ID)

	rec = ts.do(t, http.MethodDelete, "/checkout/placements/"+pl.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.PlacementStatusCancelled, decodeBody[domain.Placement](t, rec).Status)

	rec = ts.do(t, http.MethodDelete, "/checkout/placements/"+pl.ID, nil)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, domain.PlacementStatusCancelled, decodeBody[domain.Placement](t, rec).Status)

	rec = ts.do(t, http.MethodGet, "/cart", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, decodeBody[cartView](t, rec).Count)
}

func TestPlacementScopedToSession(t *testing.T) {
	ts := newTestServer(t)
	ts.addToCart(t, "p1", "1000", 1)

	rec := ts.do(t, http.MethodPost, "/checkout", validDetails)
	require.Equal(t, http.StatusAccepted, rec.Code)
	pl := decodeBody[domain.Placement](t, rec)

	owner := ts.sid
	ts.sid = uuid.NewString()
	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodGet, "/checkout/placements/"+pl.ID, nil).Code)
	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodDelete, "/checkout/placements/"+pl.ID, nil).Code)

	ts.sid = owner
	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/checkout/placements/"+pl.ID, nil).Code)
}
