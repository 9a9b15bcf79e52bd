package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	PaymentMethodRazorpay PaymentMethod = "razorpay"
	PaymentMethodCOD      PaymentMethod = "cod"
)

type PlacementStatus string

const (
	PlacementStatusProcessing PlacementStatus = "processing"
	PlacementStatusSucceeded  PlacementStatus = "succeeded"
	PlacementStatusFailed     PlacementStatus = "failed"
	PlacementStatusCancelled  PlacementStatus = "cancelled"
)

// Terminal reports whether no further transition can happen.
func (s PlacementStatus) Terminal() bool {
	return s != PlacementStatusProcessing
}

// ShippingDetails is the checkout form as submitted by the shopper.
type ShippingDetails struct {
	Name          string        `json:"name" validate:"required"`
	Email         string        `json:"email" validate:"required,email"`
	Phone         string        `json:"phone" validate:"required"`
	Address       string        `json:"address" validate:"required"`
	City          string        `json:"city" validate:"required"`
	State         string        `json:"state" validate:"required"`
	Pincode       string        `json:"pincode" validate:"required"`
	PaymentMethod PaymentMethod `json:"paymentMethod" validate:"required,oneof=razorpay cod"`
}

type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Shipping decimal.Decimal `json:"shipping"`
	Discount decimal.Decimal `json:"discount"`
	Total    decimal.Decimal `json:"total"`
}

// OrderRequest is what gets handed to an order placer.
type OrderRequest struct {
	SessionID string          `json:"session_id"`
	Customer  ShippingDetails `json:"customer"`
	Items     []CartItem      `json:"items"`
	Totals    Totals          `json:"totals"`
}

type Placement struct {
	ID        string          `json:"id"`
	SessionID string          `json:"-"`
	Status    PlacementStatus `json:"status"`
	OrderID   string          `json:"order_id,omitempty"`
	Redirect  string          `json:"redirect,omitempty"`
	Message   string          `json:"message,omitempty"`
	Error     string          `json:"error,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
