// Package email is a development mail sink. It accepts messages on /send,
// logs them and keeps the most recent ones for inspection.
package email

import (
	"encoding/json"
	"errors"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const defaultCapacity = 100

type Message struct {
	ID      string    `json:"id"`
	To      string    `json:"to" validate:"required,email"`
	Subject string    `json:"subject" validate:"required,max=200"`
	Body    string    `json:"body" validate:"required"`
	SentAt  time.Time `json:"sent_at"`
}

type Handler struct {
	logger     *slog.Logger
	validate   *validator.Validate
	maxLatency time.Duration

	mu       sync.Mutex
	outbox   []Message
	capacity int
}

type Option func(*Handler)

// WithLatency delays each send by a random duration up to max.
func WithLatency(max time.Duration) Option {
	return func(h *Handler) { h.maxLatency = max }
}

func WithCapacity(n int) Option {
	return func(h *Handler) { h.capacity = n }
}

func NewHandler(logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{
		logger:   logger,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		capacity: defaultCapacity,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

type sendResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

func (h *Handler) HandleSend(w http.ResponseWriter, r *http.Request) {
	var msg Message
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(msg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			h.writeError(w, http.StatusBadRequest, "invalid "+verrs[0].Field())
			return
		}
		h.writeError(w, http.StatusBadRequest, "invalid message")
		return
	}

	if h.maxLatency > 0 {
		select {
		case <-time.After(rand.N(h.maxLatency)):
		case <-r.Context().Done():
			return
		}
	}

	msg.ID = uuid.NewString()
	msg.SentAt = time.Now().UTC()
	h.store(msg)

	h.logger.Info("email sent", "id", msg.ID, "to", msg.To, "subject", msg.Subject)
	h.writeJSON(w, http.StatusOK, sendResponse{ID: msg.ID, Status: "sent"})
}

// HandleList returns the kept messages, newest first.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.Messages())
}

func (h *Handler) Messages() []Message {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]Message, len(h.outbox))
	for i, m := range h.outbox {
		out[len(h.outbox)-1-i] = m
	}
	return out
}

func (h *Handler) store(msg Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.outbox = append(h.outbox, msg)
	if over := len(h.outbox) - h.capacity; over > 0 {
		h.outbox = h.outbox[over:]
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
