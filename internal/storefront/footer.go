package storefront

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/navigation"
	"github.com/joao-fontenele/storefront/internal/session"
)

const (
	NewsletterMessage = "Thank you for subscribing!"

	// NewsletterWindow is how long the confirmation stays visible.
	NewsletterWindow = 3 * time.Second

	aboutText = "Premium socks and orthopedic care products designed for comfort, support and everyday wellness."
)

var (
	quickLinks = []navigation.Link{
		{Label: "About Us", Path: navigation.About},
		{Label: "Shop All", Path: navigation.Products},
		{Label: "FAQs", Path: navigation.FAQ},
		{Label: "Contact Us", Path: navigation.Contact},
	}
	serviceLinks = []navigation.Link{
		{Label: "Track Order", Path: navigation.Orders},
		{Label: "Terms & Conditions", Path: navigation.Terms},
		{Label: "Privacy Policy", Path: navigation.Privacy},
		{Label: "Returns & Refunds", Path: navigation.Returns},
	}
	socialLinks = []navigation.Link{
		{Label: "Facebook", Path: "https://facebook.com/birdcarts"},
		{Label: "Instagram", Path: "https://instagram.com/birdcarts"},
		{Label: "Twitter", Path: "https://twitter.com/birdcarts"},
	}
	contact = contactInfo{
		Address: "Najafgarh, New Delhi-110043",
		Phone:   "+91 9546620662",
		Email:   "support@birdcarts.com",
	}
)

type contactInfo struct {
	Address string `json:"address"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
}

type newsletterState struct {
	Subscribed bool   `json:"subscribed"`
	Email      string `json:"email"`
	Message    string `json:"message,omitempty"`
}

type footerView struct {
	About        string            `json:"about"`
	Social       []navigation.Link `json:"social"`
	QuickLinks   []navigation.Link `json:"quick_links"`
	ServiceLinks []navigation.Link `json:"customer_service"`
	Contact      contactInfo       `json:"contact"`
	Newsletter   newsletterState   `json:"newsletter"`
	Copyright    string            `json:"copyright"`
}

func copyright(now time.Time) string {
	return fmt.Sprintf("© %d %s. All rights reserved.", now.Year(), BrandName)
}

func newsletterFor(s *session.Session, now time.Time) newsletterState {
	if s.NewsletterSubscribed(now) {
		return newsletterState{Subscribed: true, Message: NewsletterMessage}
	}
	return newsletterState{}
}

func (h *Handler) HandleFooter(w http.ResponseWriter, r *http.Request) {
	s, ok := h.loadSession(w, r)
	if !ok {
		return
	}

	now := h.now()
	h.writeJSON(w, http.StatusOK, footerView{
		About:        aboutText,
		Social:       socialLinks,
		QuickLinks:   quickLinks,
		ServiceLinks: serviceLinks,
		Contact:      contact,
		Newsletter:   newsletterFor(s, now),
		Copyright:    copyright(now),
	})
}

type newsletterRequest struct {
	Email string `json:"email" validate:"required,email"`
}

func (h *Handler) HandleSubscribe(w http.ResponseWriter, r *http.Request) {
	var req newsletterRequest
	if !h.decode(w, r, &req) {
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if !h.check(w, req) {
		return
	}

	ctx := r.Context()
	id := session.IDFromContext(ctx)
	now := h.now()
	if _, err := h.sessions.Update(ctx, id, func(s *session.Session) error {
		s.SubscribeNewsletter(now, NewsletterWindow)
		return nil
	}); err != nil {
		h.logger.Error("failed to record newsletter signup", "error", err, "session_id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.subscriptions.Add(ctx, 1)
	if h.publisher != nil {
		event := domain.NewsletterSubscribedEvent{
			Type:      domain.EventNewsletterSubscribed,
			Email:     req.Email,
			Timestamp: now.UTC(),
		}
		if err := h.publisher.Publish(ctx, req.Email, domain.EventNewsletterSubscribed, event); err != nil {
			h.logger.Error("failed to publish newsletter event", "error", err)
		}
	}

	h.logger.Info("newsletter subscription", "session_id", id)
	h.writeJSON(w, http.StatusOK, newsletterState{Subscribed: true, Message: NewsletterMessage})
}
