/**
 * @description
 * This file defines the domain error type shared by balance, user and
 * transaction operations. Domain errors are plain values returned from
 * fallible operations, never panics; the API layer maps the error kind to an
 * HTTP status code.
 *
 * @dependencies
 * - fmt: Standard Go library.
 * - github.com/shopspring/decimal: For monetary metadata values.
 */

package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrorKind classifies a domain error for transport mapping.
type ErrorKind string

const (
	ErrorKindBadRequest ErrorKind = "BadRequest"
	ErrorKindNotFound   ErrorKind = "NotFound"
	ErrorKindForbidden  ErrorKind = "Forbidden"
)

// Error is a tagged domain error value. Metadata carries optional diagnostic
// fields and is only populated with present values.
type Error struct {
	Kind     ErrorKind      `json:"kind"`
	Message  string         `json:"message"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

func (e *Error) Error() string {
	if len(e.Metadata) == 0 {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s %v", e.Kind, e.Message, e.Metadata)
}

// withMetadata adds a key/value pair. Empty values are skipped and an already
// set key is never overwritten.
func (e *Error) withMetadata(key string, value any) *Error {
	if value == nil {
		return e
	}
	if s, ok := value.(string); ok && s == "" {
		return e
	}
	if e.Metadata == nil {
		e.Metadata = make(map[string]any)
	}
	if _, exists := e.Metadata[key]; !exists {
		e.Metadata[key] = value
	}
	return e
}

// ErrAccountNotFound reports that a user holds no account in the requested
// currency.
func ErrAccountNotFound(currency string) *Error {
	e := &Error{Kind: ErrorKindNotFound, Message: "User account not found"}
	return e.withMetadata("currency", currency)
}

// ErrInsufficientFunds reports a hold or withdrawal that exceeds the funds
// backing it. The attached balance is the account's available amount at the
// time of the attempt.
func ErrInsufficientFunds(balance, amount decimal.Decimal) *Error {
	e := &Error{Kind: ErrorKindNotFound, Message: "User account has insufficient amount of funds."}
	return e.withMetadata("balance", balance.String()).withMetadata("amount", amount.String())
}

// ErrUnknownUser reports a missing transaction counterparty.
func ErrUnknownUser() *Error {
	return &Error{Kind: ErrorKindNotFound, Message: "Unknown user."}
}

// ErrInvalidOperation reports a lifecycle call that is not valid for the
// transaction's current type and status.
func ErrInvalidOperation(details string) *Error {
	e := &Error{Kind: ErrorKindBadRequest, Message: "Invalid operation."}
	return e.withMetadata("details", details)
}

// ErrInvalidTransactionType reports a transaction whose type field holds an
// unrecognized value.
func ErrInvalidTransactionType() *Error {
	return &Error{Kind: ErrorKindBadRequest, Message: "Invalid transaction type."}
}
