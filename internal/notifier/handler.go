// Package notifier turns storefront events into customer emails.
package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/messaging"
	"github.com/joao-fontenele/storefront/internal/pricing"
)

type Handler struct {
	emailServiceURL string
	httpClient      *http.Client
	logger          *slog.Logger
}

func NewHandler(emailServiceURL string, client *http.Client, logger *slog.Logger) *Handler {
	return &Handler{
		emailServiceURL: strings.TrimRight(emailServiceURL, "/"),
		httpClient:      client,
		logger:          logger,
	}
}

// Email is the body accepted by the email service's /send endpoint.
type Email struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Handle sends the email for d. Unknown event types are skipped so they
// don't block the partition.
func (h *Handler) Handle(ctx context.Context, d messaging.Delivery) error {
	eventType := d.EventType
	if eventType == "" {
		var probe struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(d.Payload, &probe); err != nil {
			return fmt.Errorf("unmarshal event envelope: %w", err)
		}
		eventType = probe.Type
	}

	switch eventType {
	case domain.EventOrderPlaced:
		var event domain.OrderPlacedEvent
		if err := json.Unmarshal(d.Payload, &event); err != nil {
			return fmt.Errorf("unmarshal order placed event: %w", err)
		}
		return h.orderPlaced(ctx, event)

	case domain.EventNewsletterSubscribed:
		var event domain.NewsletterSubscribedEvent
		if err := json.Unmarshal(d.Payload, &event); err != nil {
			return fmt.Errorf("unmarshal newsletter event: %w", err)
		}
		return h.newsletterSubscribed(ctx, event)

	default:
		h.logger.Warn("skipping unknown event", "event_type", eventType, "topic", d.Topic)
		return nil
	}
}

func (h *Handler) orderPlaced(ctx context.Context, event domain.OrderPlacedEvent) error {
	h.logger.Info("processing order placed event", "order_id", event.OrderID, "session_id", event.SessionID)

	if event.Email == "" {
		h.logger.Warn("order has no email address", "order_id", event.OrderID)
		return nil
	}
	if err := h.send(ctx, ConfirmationEmail(event)); err != nil {
		h.logger.Error("failed to send confirmation email", "error", err, "order_id", event.OrderID)
		return fmt.Errorf("send confirmation email: %w", err)
	}

	h.logger.Info("order confirmation sent", "order_id", event.OrderID)
	return nil
}

func (h *Handler) newsletterSubscribed(ctx context.Context, event domain.NewsletterSubscribedEvent) error {
	if err := h.send(ctx, WelcomeEmail(event)); err != nil {
		h.logger.Error("failed to send welcome email", "error", err)
		return fmt.Errorf("send welcome email: %w", err)
	}
	h.logger.Info("newsletter welcome sent")
	return nil
}

func ConfirmationEmail(event domain.OrderPlacedEvent) Email {
	var b strings.Builder
	fmt.Fprintf(&b, "Thank you for shopping with Birdcarts!\n\nOrder %s\n\n", event.OrderID)
	for _, it := range event.Items {
		fmt.Fprintf(&b, "%d x %s  ₹%s\n", it.Quantity, it.Product.Name, pricing.Format(it.LineTotal()))
	}
	t := event.Totals
	fmt.Fprintf(&b, "\nSubtotal: ₹%s\nShipping: ₹%s\n", pricing.Format(t.Subtotal), pricing.Format(t.Shipping))
	if t.Discount.IsPositive() {
		fmt.Fprintf(&b, "Discount: -₹%s\n", pricing.Format(t.Discount))
	}
	fmt.Fprintf(&b, "Total: ₹%s\nPayment: %s\n", pricing.Format(t.Total), paymentLabel(event.PaymentMethod))

	return Email{
		To:      event.Email,
		Subject: "Order Confirmation: " + event.OrderID,
		Body:    b.String(),
	}
}

func WelcomeEmail(event domain.NewsletterSubscribedEvent) Email {
	return Email{
		To:      event.Email,
		Subject: "Welcome to the Birdcarts newsletter",
		Body:    "Thank you for subscribing! Watch your inbox for new arrivals and offers like FLAT 10% OFF on orders above ₹1499.",
	}
}

func paymentLabel(m domain.PaymentMethod) string {
	switch m {
	case domain.PaymentMethodCOD:
		return "Cash on Delivery"
	case domain.PaymentMethodRazorpay:
		return "Razorpay"
	default:
		return string(m)
	}
}

func (h *Handler) send(ctx context.Context, email Email) error {
	data, err := json.Marshal(email)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.emailServiceURL+"/send", bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("email service returned status %d", resp.StatusCode)
	}

	return nil
}
