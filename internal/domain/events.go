package domain

import "time"

const (
	EventOrderPlaced          = "order.placed"
	EventNewsletterSubscribed = "newsletter.subscribed"
)

type OrderPlacedEvent struct {
	Type          string        `json:"type"`
	OrderID       string        `json:"order_id"`
	SessionID     string        `json:"session_id"`
	Email         string        `json:"email"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	Items         []CartItem    `json:"items"`
	Totals        Totals        `json:"totals"`
	Timestamp     time.Time     `json:"timestamp"`
}

type NewsletterSubscribedEvent struct {
	Type      string    `json:"type"`
	Email     string    `json:"email"`
	Timestamp time.Time `json:"timestamp"`
}
