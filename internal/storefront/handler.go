// Package storefront serves the shopper-facing API: the header and footer
// view models, the cart and wishlist, newsletter signup and checkout. Every
// action that moves the shopper elsewhere answers with a redirect target.
package storefront

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/joao-fontenele/storefront/internal/auth"
	"github.com/joao-fontenele/storefront/internal/checkout"
	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/messaging"
	"github.com/joao-fontenele/storefront/internal/navigation"
	"github.com/joao-fontenele/storefront/internal/session"
)

const maxBodyBytes = 64 << 10

type Handler struct {
	sessions   *session.Manager
	checkout   *checkout.Processor
	categories []domain.Category
	publisher  messaging.Publisher
	validate   *validator.Validate
	logger     *slog.Logger
	now        func() time.Time

	subscriptions metric.Int64Counter
	searches      metric.Int64Counter
}

// NewHandler wires the storefront endpoints. publisher may be nil.
func NewHandler(sessions *session.Manager, processor *checkout.Processor, categories []domain.Category, publisher messaging.Publisher, logger *slog.Logger) *Handler {
	h := &Handler{
		sessions:   sessions,
		checkout:   processor,
		categories: categories,
		publisher:  publisher,
		validate:   newValidator(),
		logger:     logger,
		now:        time.Now,
	}

	meter := otel.Meter("storefront/http")
	var err error
	h.subscriptions, err = meter.Int64Counter("storefront.newsletter.subscriptions",
		metric.WithDescription("Accepted newsletter signups."))
	if err != nil {
		otel.Handle(err)
	}
	h.searches, err = meter.Int64Counter("storefront.search.requests",
		metric.WithDescription("Search submissions that produced a redirect."))
	if err != nil {
		otel.Handle(err)
	}

	return h
}

func (h *Handler) loadSession(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	id := session.IDFromContext(r.Context())
	s, err := h.sessions.Load(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to load session", "error", err, "session_id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return nil, false
	}
	return s, true
}

func currentUser(r *http.Request) (auth.User, bool) {
	return auth.UserFromContext(r.Context())
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// check validates v and writes a 400 with per-field messages on failure.
func (h *Handler) check(w http.ResponseWriter, v any) bool {
	err := h.validate.Struct(v)
	if err == nil {
		return true
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		h.logger.Error("failed to validate request", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return false
	}
	h.writeJSON(w, http.StatusBadRequest, errorResponse{
		Error:  "validation failed",
		Fields: fieldErrors(verrs),
	})
	return false
}

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, errorResponse{Error: message})
}

// writeRedirect sends the shopper elsewhere with 303 See Other. Only
// same-site targets are allowed.
func (h *Handler) writeRedirect(w http.ResponseWriter, target string) {
	if !navigation.Internal(target) {
		h.logger.Error("refusing external redirect", "target", target)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	w.Header().Set("Location", target)
	h.writeJSON(w, http.StatusSeeOther, navigation.Redirect{Redirect: target})
}
