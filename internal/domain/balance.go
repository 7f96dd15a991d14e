/**
 * @description
 * This file defines the AccountBalance value, which splits an account's funds
 * into an available and a reserved portion. Outgoing money is first held
 * (available -> reserved) and later either withdrawn (reserved leaves the
 * ledger) or released back to available.
 *
 * @dependencies
 * - github.com/shopspring/decimal: Exact decimal arithmetic for money.
 */

package domain

import "github.com/shopspring/decimal"

// AccountBalance tracks available versus reserved funds for one currency.
// Both parts are never negative.
type AccountBalance struct {
	Currency  string          `json:"currency"`
	Available decimal.Decimal `json:"available"`
	Reserved  decimal.Decimal `json:"reserved"`
}

// NewAccountBalance returns a zero balance in the given currency.
func NewAccountBalance(currency string) *AccountBalance {
	return &AccountBalance{
		Currency:  currency,
		Available: decimal.Zero,
		Reserved:  decimal.Zero,
	}
}

// Hold reserves funds against a pending outgoing transaction. It reports
// false and leaves the balance untouched when the amount exceeds the
// available funds.
func (b *AccountBalance) Hold(amount decimal.Decimal) bool {
	if amount.GreaterThan(b.Available) {
		return false
	}

	b.Available = b.Available.Sub(amount)
	b.Reserved = b.Reserved.Add(amount)

	return true
}

// Deposit credits the available balance unconditionally.
func (b *AccountBalance) Deposit(amount decimal.Decimal) {
	b.Available = b.Available.Add(amount)
}

// Withdraw finalizes a previous hold: the reserved funds leave the ledger.
// It reports false when the amount exceeds the reserved funds.
func (b *AccountBalance) Withdraw(amount decimal.Decimal) bool {
	if amount.GreaterThan(b.Reserved) {
		return false
	}

	b.Reserved = b.Reserved.Sub(amount)

	return true
}

// Release moves previously reserved funds back to available, undoing a hold.
func (b *AccountBalance) Release(amount decimal.Decimal) bool {
	if !b.Withdraw(amount) {
		return false
	}
	b.Deposit(amount)

	return true
}
