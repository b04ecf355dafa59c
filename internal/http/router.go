package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/andreasstove999/ecommerce-system/checkout-service-go/internal/http/middleware"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	Logger   zerolog.Logger
	Cart     CartService
	Checkout Checkout
	Verifier middleware.TokenVerifier
	// Limiter guards the payment routes; nil disables rate limiting.
	Limiter          middleware.Limiter
	DB               Pinger
	CORSAllowOrigins []string
}

func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.CorrelationID)
	r.Use(middleware.Logging(d.Logger))
	r.Use(middleware.Recover(d.Logger))
	r.Use(middleware.CORS(d.CORSAllowOrigins))

	r.Get("/health", healthHandler(d.DB))

	cart := NewCartHandler(d.Cart, d.Logger)
	orders := NewOrderHandler(d.Checkout, d.Logger)
	pay := NewPaymentHandler(d.Checkout, d.Logger)

	limited := func(h http.HandlerFunc) http.Handler {
		if d.Limiter == nil {
			return h
		}
		return middleware.RateLimit(d.Limiter, "payments")(h)
	}

	r.Route("/api", func(r chi.Router) {
		// Authenticated by the shared webhook secret, not a user token.
		r.Post("/payments/flutterwave/webhook", pay.Webhook)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(d.Verifier))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", cart.Get)
				r.Post("/add", cart.Add)
				r.Put("/update", cart.Update)
				r.Delete("/remove", cart.Remove)
				r.Delete("/clear", cart.Clear)
			})

			r.Post("/orders", orders.Place)
			r.Get("/orders", orders.ListMine)
			r.Get("/orders/{id}", orders.Get)

			r.Method(http.MethodPost, "/payments/flutterwave/initialize", limited(pay.Initialize))
			r.Method(http.MethodGet, "/payments/flutterwave/verify/{txRef}", limited(pay.Verify))

			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireAdmin)
				r.Get("/orders", orders.ListAll)
				r.Put("/orders/{id}/status", orders.UpdateStatus)
			})
		})
	})

	return r
}

func healthHandler(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := db.Ping(ctx); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{
					"status":  "degraded",
					"service": "checkout-service",
				})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{
			"status":  "ok",
			"service": "checkout-service",
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, status, middleware.ErrorResponse{
		Error:         msg,
		CorrelationID: middleware.GetCorrelationID(r.Context()),
	})
}
