/**
 * @description
 * This file contains the application service for the ledger. The Service
 * orchestrates the transaction lifecycle: it loads the transaction and the
 * referenced users from the repository, runs one lifecycle operation on the
 * in-memory entities, persists the touched records only when the status
 * changed, and publishes a status event for downstream consumers.
 *
 * The domain layer performs no I/O itself; everything crossing a process
 * boundary lives here.
 *
 * @dependencies
 * - context, errors, log, time: Standard Go libraries.
 * - github.com/google/uuid: Entity identifiers.
 * - github.com/shopspring/decimal: Money amounts.
 * - internal/domain, internal/store: Domain models and data access.
 * - pkg/rabbitmq: Event publishing.
 */

package app

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/VladislavRybnikov/onlinebanking/internal/domain"
	"github.com/VladislavRybnikov/onlinebanking/internal/store"
	"github.com/VladislavRybnikov/onlinebanking/pkg/rabbitmq"
)

// ErrRateLimited is returned when a lifecycle call exceeds the configured
// per-transaction rate limit.
var ErrRateLimited = errors.New("rate limit exceeded")

const eventsExchange = "onlinebanking.events"

// Service provides the use cases of the ledger service.
type Service struct {
	repo     store.Repository
	producer rabbitmq.Publisher

	limiter             *RedisRateLimiter
	lifecycleRatePerMin int
}

// NewService creates the application service.
func NewService(repo store.Repository, producer rabbitmq.Publisher) *Service {
	return &Service{repo: repo, producer: producer}
}

// SetLifecycleRateLimiter enables distributed rate limiting of lifecycle
// calls. A nil limiter or a non-positive limit disables it.
func (s *Service) SetLifecycleRateLimiter(limiter *RedisRateLimiter, perMinute int) {
	s.limiter = limiter
	s.lifecycleRatePerMin = perMinute
}

// RegisterUser creates a user with a single seed account and persists it.
func (s *Service) RegisterUser(ctx context.Context, name, email, accountNumber, accountCurrency string) (*domain.User, error) {
	user := domain.NewUserWithAccount(uuid.New(), name, email, uuid.New(), accountNumber, accountCurrency, time.Now().UTC())
	if err := s.repo.InsertUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// GetUser loads one user by id.
func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.repo.FindUserByID(ctx, id)
}

// ListUsers returns all registered users.
func (s *Service) ListUsers(ctx context.Context) ([]*domain.User, error) {
	return s.repo.ListUsers(ctx)
}

// CreateDeposit records a new deposit transaction in Created status.
func (s *Service) CreateDeposit(ctx context.Context, receiverID uuid.UUID, amount decimal.Decimal, currency string, details *domain.DepositDetails, comment string) (*domain.Transaction, error) {
	tx, derr := domain.CreateDeposit(uuid.New(), receiverID, amount, currency, time.Now().UTC(), details, comment)
	if derr != nil {
		return nil, derr
	}
	if err := s.repo.InsertTransaction(ctx, tx); err != nil {
		return nil, err
	}
	return tx, nil
}

// CreateWithdrawal records a new withdrawal transaction in Created status.
func (s *Service) CreateWithdrawal(ctx context.Context, senderID uuid.UUID, amount decimal.Decimal, currency string, details *domain.WithdrawalDetails, comment string) (*domain.Transaction, error) {
	tx, derr := domain.CreateWithdrawal(uuid.New(), senderID, amount, currency, time.Now().UTC(), details, comment)
	if derr != nil {
		return nil, derr
	}
	if err := s.repo.InsertTransaction(ctx, tx); err != nil {
		return nil, err
	}
	return tx, nil
}

// CreateTransfer records a new transfer transaction in Created status.
func (s *Service) CreateTransfer(ctx context.Context, senderID, receiverID uuid.UUID, amount decimal.Decimal, currency string, details *domain.TransferDetails, comment string) (*domain.Transaction, error) {
	tx, derr := domain.CreateTransfer(uuid.New(), senderID, receiverID, amount, currency, time.Now().UTC(), details, comment)
	if derr != nil {
		return nil, derr
	}
	if err := s.repo.InsertTransaction(ctx, tx); err != nil {
		return nil, err
	}
	return tx, nil
}

// GetTransaction loads one transaction by id.
func (s *Service) GetTransaction(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	return s.repo.FindTransactionByID(ctx, id)
}

// DeleteTransaction removes a transaction record. Only records that never
// started processing may be removed; anything past Created is part of the
// balance history.
func (s *Service) DeleteTransaction(ctx context.Context, id uuid.UUID) error {
	tx, err := s.repo.FindTransactionByID(ctx, id)
	if err != nil {
		return err
	}
	if tx.Status != domain.TransactionStatusCreated {
		return domain.ErrInvalidOperation("only a created transaction can be deleted")
	}
	return s.repo.DeleteTransaction(ctx, id)
}

// ListIncomingTransactions returns all transactions crediting the user.
func (s *Service) ListIncomingTransactions(ctx context.Context, userID uuid.UUID) ([]*domain.Transaction, error) {
	return s.repo.FindIncomingTransactions(ctx, userID)
}

// ListOutgoingTransactions returns all transactions debiting the user.
func (s *Service) ListOutgoingTransactions(ctx context.Context, userID uuid.UUID) ([]*domain.Transaction, error) {
	return s.repo.FindOutgoingTransactions(ctx, userID)
}

// BeginTransaction runs the begin lifecycle operation on the transaction.
func (s *Service) BeginTransaction(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	return s.runLifecycle(ctx, id, (*domain.Transaction).Begin)
}

// CompleteTransaction runs the complete lifecycle operation on the
// transaction.
func (s *Service) CompleteTransaction(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	return s.runLifecycle(ctx, id, (*domain.Transaction).Complete)
}

// CancelTransaction runs the cancel lifecycle operation on the transaction.
func (s *Service) CancelTransaction(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	return s.runLifecycle(ctx, id, (*domain.Transaction).Cancel)
}

type lifecycleOp func(t *domain.Transaction, receiver, sender *domain.User, now time.Time) (domain.TransactionStatus, *domain.Error)

// runLifecycle is the single driver for begin/complete/cancel. The returned
// transaction always reflects the record after the call; when the domain
// rejected the operation the error is the domain error, and the record was
// still persisted if a failure transition mutated it.
func (s *Service) runLifecycle(ctx context.Context, id uuid.UUID, op lifecycleOp) (*domain.Transaction, error) {
	if err := s.consumeLifecycleRateLimit(ctx, id); err != nil {
		return nil, err
	}

	tx, err := s.repo.FindTransactionByID(ctx, id)
	if err != nil {
		return nil, err
	}

	receiver, sender, err := s.loadParticipants(ctx, tx)
	if err != nil {
		return nil, err
	}

	before := tx.Status
	_, derr := op(tx, receiver, sender, time.Now().UTC())

	// Persist on status change, even when the change was a failure
	// transition: the record carries the error and is the audit trail.
	if tx.Status != before {
		if saveErr := s.persistLifecycleResult(ctx, tx, receiver, sender); saveErr != nil {
			return nil, saveErr
		}
		s.publishStatusEvent(ctx, tx)
	}

	if derr != nil {
		return tx, derr
	}
	return tx, nil
}

// loadParticipants resolves the users the transaction references. An absent
// user is passed to the domain as nil; the state machine decides what that
// means for the current operation.
func (s *Service) loadParticipants(ctx context.Context, tx *domain.Transaction) (receiver, sender *domain.User, err error) {
	if tx.ReceiverID != nil {
		receiver, err = s.repo.FindUserByID(ctx, *tx.ReceiverID)
		if err != nil && !errors.Is(err, store.ErrUserNotFound) {
			return nil, nil, err
		}
	}
	if tx.SenderID != nil {
		sender, err = s.repo.FindUserByID(ctx, *tx.SenderID)
		if err != nil && !errors.Is(err, store.ErrUserNotFound) {
			return nil, nil, err
		}
	}
	return receiver, sender, nil
}

func (s *Service) persistLifecycleResult(ctx context.Context, tx *domain.Transaction, receiver, sender *domain.User) error {
	if err := s.repo.UpdateTransaction(ctx, tx); err != nil {
		return err
	}
	if receiver != nil {
		if err := s.repo.UpdateUser(ctx, receiver); err != nil {
			return err
		}
	}
	if sender != nil {
		if err := s.repo.UpdateUser(ctx, sender); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) publishStatusEvent(ctx context.Context, tx *domain.Transaction) {
	if s.producer == nil {
		return
	}

	event := rabbitmq.TransactionStatusEvent{
		TransactionID: tx.ID,
		Type:          string(tx.Type),
		Status:        string(tx.Status),
		Amount:        tx.Amount.String(),
		Currency:      tx.Currency,
		Timestamp:     tx.UpdatedAt,
	}
	if err := s.producer.PublishTransactionStatusEvent(ctx, eventsExchange, event); err != nil {
		log.Printf("level=warn component=app msg=\"status event publish failed\" transaction_id=%s err=%v", tx.ID, err)
	}
}

func (s *Service) consumeLifecycleRateLimit(ctx context.Context, id uuid.UUID) error {
	if s.limiter == nil || s.lifecycleRatePerMin <= 0 {
		return nil
	}

	count, _, err := s.limiter.ConsumeRateLimit(ctx, "transaction_lifecycle", id.String(), s.lifecycleRatePerMin, time.Minute)
	if err != nil {
		// The limiter is best effort; an unreachable Redis must not block
		// settlement.
		log.Printf("level=warn component=app msg=\"rate limiter unavailable\" err=%v", err)
		return nil
	}
	if count > s.lifecycleRatePerMin {
		return ErrRateLimited
	}
	return nil
}
