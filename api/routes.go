package api

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Sets up chi router, middlewares and defines all api endpoints
func (s *Server) routes() {
	s.r = chi.NewRouter()

	// Basic CORS
	s.r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))

	// Injects a request ID into the context of each request
	s.r.Use(middleware.RequestID)
	// Sets a http.Request's RemoteAddr to either X-Real-IP or X-Forwarded-For
	s.r.Use(middleware.RealIP)
	// Logs the start and end of each request with the elapsed processing time
	s.r.Use(middleware.Logger)
	// Gracefully absorb panics and prints the stack trace
	s.r.Use(middleware.Recoverer)

	s.r.Use(middleware.Timeout(60 * time.Second))

	s.r.Handle("/metrics", promhttp.Handler())

	s.r.Route("/v1", func(r chi.Router) {
		// Sets http response headers as content type JSON
		r.Use(middleware.SetHeader("Content-Type", "application/json"))

		// health
		r.Get("/health", s.handleHealthGet)

		// account
		r.Get("/account", s.handleAccountGet)
		r.Put("/account", s.handleAccountPut)

		// transfers
		r.Get("/deposits", s.handleDepositsGet)
		r.Post("/deposits", s.handleDepositsPost)
		r.Get("/withdrawals", s.handleWithdrawalsGet)
		r.Get("/transfers", s.handleTransfersGet)
		r.Post("/transfers/{id}/finalize", s.handleFinalizePost)

		// signals
		r.Post("/signals/balance", s.handleBalanceSignalPost)
	})
}
