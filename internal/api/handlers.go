/**
 * @description
 * This file contains the HTTP handlers for the ledger service's API
 * endpoints. Handlers parse incoming requests, call the application service,
 * and map the outcome to an HTTP response. Domain errors keep their kind,
 * message and metadata in the response body; the kind decides the status
 * code.
 *
 * @dependencies
 * - encoding/json, errors, net/http: Standard Go libraries.
 * - github.com/go-chi/chi/v5, github.com/google/uuid,
 *   github.com/shopspring/decimal: Routing, ids and amounts.
 * - internal/app, internal/domain, internal/store: Service logic, models and
 *   typed errors.
 */

package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/VladislavRybnikov/onlinebanking/internal/app"
	"github.com/VladislavRybnikov/onlinebanking/internal/domain"
	"github.com/VladislavRybnikov/onlinebanking/internal/store"
)

// Handlers holds the application service the HTTP layer drives.
type Handlers struct {
	service *app.Service
}

// NewHandlers creates a new instance of Handlers.
func NewHandlers(service *app.Service) *Handlers {
	return &Handlers{service: service}
}

type registerUserRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	AccountNumber   string `json:"account_number"`
	AccountCurrency string `json:"account_currency"`
}

type createDepositRequest struct {
	ReceiverID uuid.UUID              `json:"receiver_id"`
	Amount     decimal.Decimal        `json:"amount"`
	Currency   string                 `json:"currency"`
	Details    *domain.DepositDetails `json:"details,omitempty"`
	Comment    string                 `json:"comment,omitempty"`
}

type createWithdrawalRequest struct {
	SenderID uuid.UUID                 `json:"sender_id"`
	Amount   decimal.Decimal           `json:"amount"`
	Currency string                    `json:"currency"`
	Details  *domain.WithdrawalDetails `json:"details,omitempty"`
	Comment  string                    `json:"comment,omitempty"`
}

type createTransferRequest struct {
	SenderID   uuid.UUID               `json:"sender_id"`
	ReceiverID uuid.UUID               `json:"receiver_id"`
	Amount     decimal.Decimal         `json:"amount"`
	Currency   string                  `json:"currency"`
	Details    *domain.TransferDetails `json:"details,omitempty"`
	Comment    string                  `json:"comment,omitempty"`
}

type createdResponse struct {
	ID uuid.UUID `json:"id"`
}

// RegisterUserHandler handles user registration with a single seed account.
func (h *Handlers) RegisterUserHandler(w http.ResponseWriter, r *http.Request) {
	var req registerUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Name == "" || req.Email == "" || req.AccountCurrency == "" {
		h.writeError(w, http.StatusBadRequest, "name, email and account_currency are required")
		return
	}

	user, err := h.service.RegisterUser(r.Context(), req.Name, req.Email, req.AccountNumber, req.AccountCurrency)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, createdResponse{ID: user.ID})
}

// GetUserHandler returns one user by id.
func (h *Handlers) GetUserHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	user, err := h.service.GetUser(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, user)
}

// ListUsersHandler returns all registered users.
func (h *Handlers) ListUsersHandler(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}

	if users == nil {
		users = []*domain.User{}
	}
	h.writeJSON(w, http.StatusOK, users)
}

// CreateDepositHandler records a new deposit transaction.
func (h *Handlers) CreateDepositHandler(w http.ResponseWriter, r *http.Request) {
	var req createDepositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	tx, err := h.service.CreateDeposit(r.Context(), req.ReceiverID, req.Amount, req.Currency, req.Details, req.Comment)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, createdResponse{ID: tx.ID})
}

// CreateWithdrawalHandler records a new withdrawal transaction.
func (h *Handlers) CreateWithdrawalHandler(w http.ResponseWriter, r *http.Request) {
	var req createWithdrawalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	tx, err := h.service.CreateWithdrawal(r.Context(), req.SenderID, req.Amount, req.Currency, req.Details, req.Comment)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, createdResponse{ID: tx.ID})
}

// CreateTransferHandler records a new transfer transaction.
func (h *Handlers) CreateTransferHandler(w http.ResponseWriter, r *http.Request) {
	var req createTransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	tx, err := h.service.CreateTransfer(r.Context(), req.SenderID, req.ReceiverID, req.Amount, req.Currency, req.Details, req.Comment)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, createdResponse{ID: tx.ID})
}

// GetTransactionHandler returns one transaction by id.
func (h *Handlers) GetTransactionHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	tx, err := h.service.GetTransaction(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, tx)
}

// DeleteTransactionHandler removes a transaction that never started
// processing.
func (h *Handlers) DeleteTransactionHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteTransaction(r.Context(), id); err != nil {
		h.respondError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// BeginTransactionHandler starts processing a transaction.
func (h *Handlers) BeginTransactionHandler(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, h.service.BeginTransaction)
}

// CompleteTransactionHandler settles a transaction.
func (h *Handlers) CompleteTransactionHandler(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, h.service.CompleteTransaction)
}

// CancelTransactionHandler aborts a transaction.
func (h *Handlers) CancelTransactionHandler(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, h.service.CancelTransaction)
}

// ListUserTransactionsHandler returns the incoming or outgoing transaction
// history of a user.
func (h *Handlers) ListUserTransactionsHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(r.URL.Query().Get("userId"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid userId")
		return
	}

	var transactions []*domain.Transaction
	switch r.URL.Query().Get("type") {
	case "incoming", "":
		transactions, err = h.service.ListIncomingTransactions(r.Context(), userID)
	case "outgoing":
		transactions, err = h.service.ListOutgoingTransactions(r.Context(), userID)
	default:
		h.writeError(w, http.StatusBadRequest, "type must be incoming or outgoing")
		return
	}
	if err != nil {
		h.respondError(w, err)
		return
	}

	if transactions == nil {
		transactions = []*domain.Transaction{}
	}
	h.writeJSON(w, http.StatusOK, transactions)
}

// lifecycle is the shared driver for the begin/complete/cancel endpoints:
// parse the id, run the operation, and render either the updated transaction
// or the mapped error.
func (h *Handlers) lifecycle(w http.ResponseWriter, r *http.Request, run func(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	tx, err := run(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, tx)
}

func (h *Handlers) pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid id")
		return uuid.Nil, false
	}
	return id, true
}

// respondError maps service errors to HTTP responses. Domain errors are
// rendered with their kind, message and metadata; store sentinels map to the
// usual statuses.
func (h *Handlers) respondError(w http.ResponseWriter, err error) {
	var domainErr *domain.Error
	if errors.As(err, &domainErr) {
		h.writeJSON(w, domainErrorStatus(domainErr), domainErr)
		return
	}

	switch {
	case errors.Is(err, store.ErrUserNotFound), errors.Is(err, store.ErrTransactionNotFound):
		h.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrAlreadyExists):
		h.writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, app.ErrRateLimited):
		h.writeError(w, http.StatusTooManyRequests, err.Error())
	default:
		log.Printf("level=error component=api msg=\"request failed\" err=%v", err)
		h.writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func domainErrorStatus(err *domain.Error) int {
	switch err.Kind {
	case domain.ErrorKindBadRequest:
		return http.StatusBadRequest
	case domain.ErrorKindNotFound:
		return http.StatusNotFound
	case domain.ErrorKindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// writeJSON is a helper for writing JSON responses.
func (h *Handlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError is a helper for writing JSON error responses.
func (h *Handlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
