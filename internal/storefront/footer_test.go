package storefront

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joao-fontenele/storefront/internal/domain"
)

func TestFooter(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/layout/footer", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	view := decodeBody[footerView](t, rec)

	assert.Equal(t, "© 2025 Birdcarts. All rights reserved.", view.Copyright)
	assert.Equal(t, "support@birdcarts.com", view.Contact.Email)
	assert.Equal(t, "+91 9546620662", view.Contact.Phone)
	assert.Equal(t, quickLinks, view.QuickLinks)
	assert.Equal(t, "/returns", view.ServiceLinks[3].Path)
	assert.False(t, view.Newsletter.Subscribed)
	assert.Empty(t, view.Newsletter.Message)
}

func TestNewsletterSubscribe(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/newsletter", map[string]string{"email": "  asha@example.com "})
	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeBody[newsletterState](t, rec)
	assert.Equal(t, newsletterState{Subscribed: true, Email: "", Message: "Thank you for subscribing!"}, got)

	events := ts.publisher.all()
	require.Len(t, events, 1)
	assert.Equal(t, domain.EventNewsletterSubscribed, events[0].eventType)
	assert.Equal(t, "asha@example.com", events[0].key)

	footer := func() newsletterState {
		rec := ts.do(t, http.MethodGet, "/layout/footer", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		return decodeBody[footerView](t, rec).Newsletter
	}

	ts.now = ts.now.Add(2 * time.Second)
	assert.True(t, footer().Subscribed)

	ts.now = ts.now.Add(time.Second)
	assert.Equal(t, newsletterState{}, footer())
}

func TestNewsletterInvalidEmail(t *testing.T) {
	for _, email := range []string{"", "   ", "not-an-email", "a@"} {
		t.Run(email, func(t *testing.T) {
			ts := newTestServer(t)
			rec := ts.do(t, http.MethodPost, "/newsletter", map[string]string{"email": email})
			require.Equal(t, http.StatusBadRequest, rec.Code)

			body := decodeBody[errorResponse](t, rec)
			assert.Equal(t, "validation failed", body.Error)
			assert.Contains(t, body.Fields, "email")
			assert.Empty(t, ts.publisher.all())
		})
	}
}
