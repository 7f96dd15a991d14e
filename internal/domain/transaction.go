/**
 * @description
 * This file defines the Transaction entity and its lifecycle state machine.
 * A transaction is one of three kinds (deposit, withdrawal, transfer) and
 * settles through Begin/Complete/Cancel into exactly one terminal status.
 * Outgoing money follows a two-phase protocol: Begin holds funds on the
 * sender, Complete settles the hold (and credits the receiver for transfers),
 * Cancel releases it.
 *
 * The lifecycle methods mutate only Status, Err and UpdatedAt on the
 * transaction, plus the balances of the supplied users. They perform no I/O;
 * callers persist the transaction and users when the status changed.
 *
 * @dependencies
 * - time: Standard Go library.
 * - github.com/google/uuid: Entity identifiers.
 * - github.com/shopspring/decimal: Money amounts.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType discriminates the three kinds of money movement.
type TransactionType string

const (
	TransactionTypeDeposit    TransactionType = "Deposit"
	TransactionTypeWithdrawal TransactionType = "Withdrawal"
	TransactionTypeTransfer   TransactionType = "Transfer"
)

// TransactionStatus is the lifecycle state of a transaction.
type TransactionStatus string

const (
	TransactionStatusCreated    TransactionStatus = "Created"
	TransactionStatusProcessing TransactionStatus = "Processing"
	TransactionStatusCompleted  TransactionStatus = "Completed"
	TransactionStatusCanceled   TransactionStatus = "Canceled"
	TransactionStatusFailed     TransactionStatus = "Failed"
)

// IsTerminal reports whether the status is absorbing: once reached, further
// lifecycle calls are no-ops returning the current status.
func (s TransactionStatus) IsTerminal() bool {
	switch s {
	case TransactionStatusCompleted, TransactionStatusCanceled, TransactionStatusFailed:
		return true
	}
	return false
}

// DepositDetails describes where incoming funds originate.
type DepositDetails struct {
	Source string `json:"source,omitempty"`
}

// WithdrawalDetails describes where outgoing funds are delivered.
type WithdrawalDetails struct {
	Destination string `json:"destination,omitempty"`
}

// TransferDetails carries an optional reference for a transfer between two
// users.
type TransferDetails struct {
	Reference string `json:"reference,omitempty"`
}

// Details holds the per-type payload of a transaction. Exactly one field is
// set, matching the transaction type.
type Details struct {
	Deposit    *DepositDetails    `json:"deposit,omitempty"`
	Withdrawal *WithdrawalDetails `json:"withdrawal,omitempty"`
	Transfer   *TransferDetails   `json:"transfer,omitempty"`
}

// Transaction is the ledger record for one money movement. It references its
// participants by id only; the live User entities are supplied by the caller
// on each lifecycle call.
type Transaction struct {
	ID         uuid.UUID         `json:"id"`
	SenderID   *uuid.UUID        `json:"sender_id,omitempty"`
	ReceiverID *uuid.UUID        `json:"receiver_id,omitempty"`
	Amount     decimal.Decimal   `json:"amount"`
	Currency   string            `json:"currency"`
	Type       TransactionType   `json:"type"`
	Status     TransactionStatus `json:"status"`
	Details    *Details          `json:"details,omitempty"`
	Comment    string            `json:"comment,omitempty"`
	Err        *Error            `json:"error,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

func newTransaction(id uuid.UUID, senderID, receiverID *uuid.UUID, amount decimal.Decimal, currency string, txType TransactionType, details *Details, comment string, now time.Time) *Transaction {
	return &Transaction{
		ID:         id,
		SenderID:   senderID,
		ReceiverID: receiverID,
		Amount:     amount,
		Currency:   currency,
		Type:       txType,
		Status:     TransactionStatusCreated,
		Details:    details,
		Comment:    comment,
		CreatedAt:  now.UTC(),
		UpdatedAt:  now.UTC(),
	}
}

// CreateDeposit builds a deposit transaction in Created status. Deposits have
// no sender.
func CreateDeposit(id, receiverID uuid.UUID, amount decimal.Decimal, currency string, now time.Time, details *DepositDetails, comment string) (*Transaction, *Error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidOperation("amount must be positive")
	}

	var d *Details
	if details != nil {
		d = &Details{Deposit: details}
	}
	return newTransaction(id, nil, &receiverID, amount, currency, TransactionTypeDeposit, d, comment, now), nil
}

// CreateWithdrawal builds a withdrawal transaction in Created status.
// Withdrawals have no receiver.
func CreateWithdrawal(id, senderID uuid.UUID, amount decimal.Decimal, currency string, now time.Time, details *WithdrawalDetails, comment string) (*Transaction, *Error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidOperation("amount must be positive")
	}

	var d *Details
	if details != nil {
		d = &Details{Withdrawal: details}
	}
	return newTransaction(id, &senderID, nil, amount, currency, TransactionTypeWithdrawal, d, comment, now), nil
}

// CreateTransfer builds a transfer transaction in Created status. Sender and
// receiver must be distinct users.
func CreateTransfer(id, senderID, receiverID uuid.UUID, amount decimal.Decimal, currency string, now time.Time, details *TransferDetails, comment string) (*Transaction, *Error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidOperation("amount must be positive")
	}
	if senderID == receiverID {
		return nil, ErrInvalidOperation("sender and receiver must differ")
	}

	var d *Details
	if details != nil {
		d = &Details{Transfer: details}
	}
	return newTransaction(id, &senderID, &receiverID, amount, currency, TransactionTypeTransfer, d, comment, now), nil
}

// fail moves the transaction to Failed, keeping the cause on the record so
// the transaction itself is the audit trail of what went wrong. Balance side
// effects applied before the failure was detected stay applied.
func (t *Transaction) fail(cause *Error, now time.Time) (TransactionStatus, *Error) {
	t.Status = TransactionStatusFailed
	t.Err = cause
	t.UpdatedAt = now.UTC()
	return t.Status, cause
}

func (t *Transaction) transition(status TransactionStatus, now time.Time) (TransactionStatus, *Error) {
	t.Status = status
	t.UpdatedAt = now.UTC()
	return t.Status, nil
}

// Begin starts processing the transaction. Deposits credit the receiver and
// complete in one step; withdrawals and transfers hold funds on the sender
// and move to Processing. A missing counterparty is reported without
// touching the record, since no side effect happened yet.
func (t *Transaction) Begin(receiver, sender *User, now time.Time) (TransactionStatus, *Error) {
	if t.Status.IsTerminal() {
		return t.Status, nil
	}
	if t.Status != TransactionStatusCreated {
		return t.Status, ErrInvalidOperation("transaction is already being processed")
	}

	switch t.Type {
	case TransactionTypeDeposit:
		if receiver == nil {
			return t.Status, ErrUnknownUser()
		}
		if _, err := receiver.DepositToCurrencyAccount(t.Amount, t.Currency, now); err != nil {
			return t.fail(err, now)
		}
		return t.transition(TransactionStatusCompleted, now)

	case TransactionTypeWithdrawal, TransactionTypeTransfer:
		if sender == nil {
			return t.Status, ErrUnknownUser()
		}
		if _, err := sender.HoldFromCurrencyAccount(t.Amount, t.Currency, now); err != nil {
			return t.fail(err, now)
		}
		return t.transition(TransactionStatusProcessing, now)

	default:
		return t.Status, ErrInvalidTransactionType()
	}
}

// Complete settles a Processing transaction: the sender's held funds are
// withdrawn and, for transfers, the receiver is credited. A receiver credit
// that fails after the sender withdrawal succeeded leaves the debit in
// place; the transaction is marked Failed with the cause attached so the
// pair can be reconciled.
func (t *Transaction) Complete(receiver, sender *User, now time.Time) (TransactionStatus, *Error) {
	if t.Status.IsTerminal() {
		return t.Status, nil
	}
	if t.Status != TransactionStatusProcessing {
		return t.Status, ErrInvalidOperation("transaction has not been started")
	}

	switch t.Type {
	case TransactionTypeWithdrawal:
		if sender == nil {
			return t.fail(ErrUnknownUser(), now)
		}
		if _, err := sender.WithdrawFromCurrencyAccount(t.Amount, t.Currency, now); err != nil {
			return t.fail(err, now)
		}
		return t.transition(TransactionStatusCompleted, now)

	case TransactionTypeTransfer:
		if sender == nil {
			return t.fail(ErrUnknownUser(), now)
		}
		if _, err := sender.WithdrawFromCurrencyAccount(t.Amount, t.Currency, now); err != nil {
			return t.fail(err, now)
		}
		if receiver == nil {
			return t.fail(ErrUnknownUser().withMetadata("stage", "receiver_credit"), now)
		}
		if _, err := receiver.DepositToCurrencyAccount(t.Amount, t.Currency, now); err != nil {
			return t.fail(err.withMetadata("stage", "receiver_credit"), now)
		}
		return t.transition(TransactionStatusCompleted, now)

	case TransactionTypeDeposit:
		// Deposits never enter Processing.
		return t.Status, ErrInvalidOperation("deposit completes on begin")

	default:
		return t.Status, ErrInvalidTransactionType()
	}
}

// Cancel aborts a transaction that has not settled yet. A Processing
// withdrawal or transfer releases the sender's held funds back to available;
// a Created transaction cancels without balance effects.
func (t *Transaction) Cancel(receiver, sender *User, now time.Time) (TransactionStatus, *Error) {
	if t.Status.IsTerminal() {
		return t.Status, nil
	}

	if t.Status == TransactionStatusCreated {
		return t.transition(TransactionStatusCanceled, now)
	}

	switch t.Type {
	case TransactionTypeWithdrawal, TransactionTypeTransfer:
		if sender == nil {
			return t.fail(ErrUnknownUser(), now)
		}
		if _, err := sender.UnholdFromCurrencyAccount(t.Amount, t.Currency, now); err != nil {
			return t.fail(err, now)
		}
		return t.transition(TransactionStatusCanceled, now)

	case TransactionTypeDeposit:
		return t.Status, ErrInvalidOperation("deposit completes on begin")

	default:
		return t.Status, ErrInvalidTransactionType()
	}
}
