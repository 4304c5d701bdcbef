package adapthttp

import (
	"log/slog"
	"net/http"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"github.com/namratazipy/testappios/internal/app"
)

// OIDCConfig carries the optional SSO configuration.
type OIDCConfig struct {
	Enabled      bool
	Provider     *oidc.Provider
	OAuth2Config *oauth2.Config
}

// Server is the driving HTTP adapter that routes presentation-layer intents
// to the stores.
type Server struct {
	catalog  *app.CatalogService
	cart     *app.CartService
	checkout *app.CheckoutService
	auth     *app.AuthService
	logger   *slog.Logger

	oidcConfig  OIDCConfig
	disableAuth bool
}

// New creates a Server wired to the given stores.
func New(catalog *app.CatalogService, cart *app.CartService, checkout *app.CheckoutService, auth *app.AuthService, logger *slog.Logger) *Server {
	return &Server{catalog: catalog, cart: cart, checkout: checkout, auth: auth, logger: logger}
}

// WithOIDC enables the SSO login flow.
func (s *Server) WithOIDC(cfg OIDCConfig) *Server {
	s.oidcConfig = cfg
	return s
}

// Handler returns the root http.Handler for the application.
func (s *Server) Handler() http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	api.HandleFunc("/auth/login", s.handleLogin)
	api.HandleFunc("/auth/logout", s.handleLogout)
	api.HandleFunc("/auth/session", s.handleSession)
	api.HandleFunc("/auth/sso/login", s.handleSSOLogin)
	api.HandleFunc("/auth/sso/callback", s.handleSSOCallback)

	protected := http.NewServeMux()
	protected.HandleFunc("/catalog/products", s.handleProducts)
	protected.HandleFunc("/catalog/products/", s.handleProduct)
	protected.HandleFunc("/catalog/categories", s.handleCategories)
	protected.HandleFunc("/catalog/visible", s.handleVisible)

	protected.HandleFunc("/cart", s.handleCart)
	protected.HandleFunc("/cart/items", s.handleCartAdd)
	protected.HandleFunc("/cart/items/", s.handleCartLine)

	protected.HandleFunc("/checkout/summary", s.handleCheckoutSummary)
	protected.HandleFunc("/checkout/payment-methods", s.handlePaymentMethods)
	protected.HandleFunc("/checkout/order", s.handlePlaceOrder)

	api.Handle("/", s.authMiddleware(protected))

	root := http.NewServeMux()
	root.Handle("/api/", http.StripPrefix("/api", api))

	return withRequestID(s.loggingMiddleware(root))
}
