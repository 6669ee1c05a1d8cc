package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"surplus-food-marketplace/internal/handlers"
	"surplus-food-marketplace/internal/middleware"
	"surplus-food-marketplace/internal/services"
)

// Dependencies are the collaborators the HTTP surface is built from
type Dependencies struct {
	Checkouts      services.CheckoutServiceInterface
	Orders         services.OrderServiceInterface
	Health         handlers.Pinger
	CacheStats     handlers.StatsReporter
	Identity       *middleware.Identity
	RateLimiter    *middleware.RateLimiter
	AllowedOrigins []string
	// DevSessions mounts POST /dev/session for signing in without the auth provider
	DevSessions bool
	Logger      zerolog.Logger
}

// NewRouter wires the middleware chain and all routes
func NewRouter(deps Dependencies) http.Handler {
	checkoutHandler := handlers.NewCheckoutHandler(deps.Checkouts, deps.Logger)
	profileHandler := handlers.NewProfileHandler(deps.Orders)
	healthHandler := handlers.NewHealthHandler(deps.Health, deps.CacheStats, deps.Logger)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(deps.Identity.Load)
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.Recoverer(deps.Logger))
	r.Use(middleware.SecurityHeadersMiddleware)
	r.Use(middleware.CORSMiddleware(middleware.DefaultCORSConfig(deps.AllowedOrigins)))

	r.NotFound(middleware.NotFoundHandler().ServeHTTP)

	r.Get("/healthz", healthHandler.Health)

	r.Route("/checkout", func(r chi.Router) {
		r.Get("/", checkoutHandler.View)
		r.Get("/count", checkoutHandler.Count)

		r.Group(func(r chi.Router) {
			if deps.RateLimiter != nil {
				r.Use(deps.RateLimiter.Limit)
			}
			r.Post("/add", checkoutHandler.AddItem)
			r.Patch("/items", checkoutHandler.AdjustItem)
			r.Delete("/items", checkoutHandler.RemoveItem)
			r.Post("/items", checkoutHandler.ItemCommand)
			r.Post("/finalize", checkoutHandler.Finalize)
		})
	})

	r.Route("/profile", func(r chi.Router) {
		r.Get("/orders", profileHandler.ListOrders)
		r.Get("/orders/{id}", profileHandler.GetOrder)
	})

	if deps.DevSessions {
		r.Post("/dev/session", devSignIn(deps.Identity))
	}

	return r
}

// devSignIn writes {userId} into the session cookie, standing in for the
// auth provider's callback during local development
func devSignIn(identity *middleware.Identity) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			UserID string `json:"userId"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.UserID) == "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "Missing userId"})
			return
		}

		if err := identity.SignIn(w, r, strings.TrimSpace(req.UserID)); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "Internal error"})
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
