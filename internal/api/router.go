/**
 * @description
 * This file sets up the HTTP router for the ledger service. It defines the
 * API endpoints, associates them with their corresponding handlers, and
 * applies standard middleware.
 *
 * @dependencies
 * - net/http: Standard Go library for HTTP functionality.
 * - github.com/go-chi/chi/v5: A lightweight and idiomatic router for Go.
 */

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Routes creates and returns the router for the ledger service.
func Routes(h *Handlers) http.Handler {
	r := chi.NewRouter()

	// Add standard middleware for logging, panic recovery, and timeouts.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("healthy"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			r.Post("/", h.RegisterUserHandler)
			r.Get("/", h.ListUsersHandler)
			r.Get("/{id}", h.GetUserHandler)
		})

		r.Route("/transactions", func(r chi.Router) {
			r.Post("/deposit", h.CreateDepositHandler)
			r.Post("/withdrawal", h.CreateWithdrawalHandler)
			r.Post("/transfer", h.CreateTransferHandler)
			r.Get("/", h.ListUserTransactionsHandler)
			r.Get("/{id}", h.GetTransactionHandler)
			r.Delete("/{id}", h.DeleteTransactionHandler)
			r.Post("/{id}/begin", h.BeginTransactionHandler)
			r.Post("/{id}/complete", h.CompleteTransactionHandler)
			r.Post("/{id}/cancel", h.CancelTransactionHandler)
		})
	})

	return r
}
