package storefront

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/joao-fontenele/storefront/internal/auth"
	"github.com/joao-fontenele/storefront/internal/middleware"
	"github.com/joao-fontenele/storefront/internal/session"
	"github.com/joao-fontenele/storefront/internal/telemetry"
)

type Deps struct {
	Logger   *slog.Logger
	Handler  *Handler
	Verifier *auth.Verifier

	SessionTTL       time.Duration
	CORSAllowOrigins []string

	// Metrics is mounted on GET /metrics when set.
	Metrics http.Handler
}

func NewRouter(d Deps) http.Handler {
	h := d.Handler
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "storefront"})
	})
	if d.Metrics != nil {
		mux.Handle("GET /metrics", d.Metrics)
	}

	route := func(pattern string, fn http.HandlerFunc) {
		mux.HandleFunc(pattern, telemetry.WithHTTPRoute(fn))
	}

	// Header
	route("GET /layout/header", h.HandleHeader)
	route("POST /search", h.HandleSearch)
	route("POST /session/logout", h.HandleLogout)

	// Footer
	route("GET /layout/footer", h.HandleFooter)
	route("POST /newsletter", h.HandleSubscribe)

	// Checkout
	route("GET /checkout", h.HandleCheckoutPage)
	route("POST /checkout", h.HandlePlaceOrder)
	route("GET /checkout/placements/{id}", h.HandleGetPlacement)
	route("DELETE /checkout/placements/{id}", h.HandleCancelPlacement)

	// Cart & wishlist
	route("GET /cart", h.HandleGetCart)
	route("POST /cart/items", h.HandleAddToCart)
	route("PATCH /cart/items/{productId}", h.HandleUpdateQuantity)
	route("DELETE /cart/items/{productId}", h.HandleRemoveFromCart)
	route("DELETE /cart", h.HandleClearCart)
	route("GET /wishlist", h.HandleGetWishlist)
	route("POST /wishlist/items", h.HandleAddToWishlist)
	route("DELETE /wishlist/items/{productId}", h.HandleRemoveFromWishlist)

	// Middlewares (inner -> outer)
	var handler http.Handler = mux
	handler = auth.Optional(d.Verifier, d.Logger)(handler)
	handler = session.Middleware(d.SessionTTL)(handler)
	handler = middleware.Recover(d.Logger)(handler)
	handler = middleware.CORS(d.CORSAllowOrigins)(handler)
	handler = middleware.CorrelationID(handler)
	handler = middleware.Logging(d.Logger)(handler)

	return handler
}
