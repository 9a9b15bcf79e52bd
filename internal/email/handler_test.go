package email

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestHandler(opts ...Option) *Handler {
	return NewHandler(slog.New(slog.NewJSONHandler(io.Discard, nil)), opts...)
}

func send(h *Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/send", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.HandleSend(rec, req)
	return rec
}

func TestHandleSend(t *testing.T) {
	h := newTestHandler()

	rec := send(h, `{"to":"asha@example.com","subject":"Order Confirmation: ORDER1","body":"thanks"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp sendResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Status != "sent" || resp.ID == "" {
		t.Errorf("unexpected response %+v", resp)
	}

	msgs := h.Messages()
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	if msgs[0].To != "asha@example.com" || msgs[0].SentAt.IsZero() {
		t.Errorf("unexpected stored message %+v", msgs[0])
	}
}

func TestHandleSendRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed", `{`},
		{"bad address", `{"to":"nope","subject":"s","body":"b"}`},
		{"missing subject", `{"to":"a@example.com","body":"b"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler()
			rec := send(h, tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected status 400, got %d", rec.Code)
			}
			if len(h.Messages()) != 0 {
				t.Error("expected nothing stored")
			}
		})
	}
}

func TestOutboxCapacity(t *testing.T) {
	h := newTestHandler(WithCapacity(2))
	for _, subject := range []string{"one", "two", "three"} {
		if rec := send(h, `{"to":"a@example.com","subject":"`+subject+`","body":"b"}`); rec.Code != http.StatusOK {
			t.Fatalf("send %s: status %d", subject, rec.Code)
		}
	}

	rec := httptest.NewRecorder()
	h.HandleList(rec, httptest.NewRequest(http.MethodGet, "/messages", nil))

	var msgs []Message
	if err := json.NewDecoder(rec.Body).Decode(&msgs); err != nil {
		t.Fatalf("failed to decode messages: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Subject != "three" || msgs[1].Subject != "two" {
		t.Errorf("expected newest first, got %q, %q", msgs[0].Subject, msgs[1].Subject)
	}
}
