// Package stub is a development stand-in for the platform backend. It serves
// the order endpoints the client consumes so the synchronizer can be run end
// to end without the real service. None of the platform's business logic
// (limit ledger, settlement) lives here.
package stub

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type Server struct {
	Router *chi.Mux
}

func NewServer(handler *Handler, token string) *Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/orders", func(r chi.Router) {
		r.Use(bearerAuth(token))
		r.Get("/{orderId}", handler.GetOrder)
		r.Get("/{orderId}/status/stream", handler.StreamOrderStatus)
		r.Post("/{orderId}/cancel", handler.CancelOrder)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(bearerAuth(token))
		r.Post("/orders", handler.SeedOrder)
		r.Post("/orders/{orderId}/status", handler.SetOrderStatus)
	})

	return &Server{Router: r}
}

// bearerAuth enforces the configured token. An empty token disables the
// check, which is the usual local-development setup.
func bearerAuth(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token != "" {
				got := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
				if got != token {
					writeError(w, http.StatusUnauthorized, "invalid token")
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
