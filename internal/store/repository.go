/**
 * @description
 * This file defines the repository interfaces for the two persisted entity
 * kinds, users and transactions. The interfaces decouple the application
 * layer from the Aerospike implementation and let tests substitute stubs.
 *
 * The store gives no transactional guarantee beyond per-record point reads
 * and writes; callers decide what to persist after a lifecycle operation.
 *
 * @dependencies
 * - context, errors: Standard Go libraries.
 * - github.com/google/uuid: Entity identifiers.
 * - internal/domain: The persisted models.
 */

package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/VladislavRybnikov/onlinebanking/internal/domain"
)

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrAlreadyExists       = errors.New("record already exists")
)

// UserRepository persists users together with their accounts and balances.
type UserRepository interface {
	InsertUser(ctx context.Context, user *domain.User) error
	UpdateUser(ctx context.Context, user *domain.User) error
	FindUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	ListUsers(ctx context.Context) ([]*domain.User, error)
}

// TransactionRepository persists transactions and answers the two
// participant-scoped history queries backed by secondary indexes.
type TransactionRepository interface {
	InsertTransaction(ctx context.Context, tx *domain.Transaction) error
	UpdateTransaction(ctx context.Context, tx *domain.Transaction) error
	FindTransactionByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
	DeleteTransaction(ctx context.Context, id uuid.UUID) error
	FindIncomingTransactions(ctx context.Context, userID uuid.UUID) ([]*domain.Transaction, error)
	FindOutgoingTransactions(ctx context.Context, userID uuid.UUID) ([]*domain.Transaction, error)
}

// Repository is the full data access contract consumed by the application
// service.
type Repository interface {
	UserRepository
	TransactionRepository
}
