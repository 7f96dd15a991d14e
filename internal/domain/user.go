/**
 * @description
 * This file defines the User and Account entities. A user owns a set of
 * single-currency accounts and exposes the currency-scoped balance operations
 * the transaction engine drives: hold, deposit, withdraw and unhold.
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

// Account is a single-currency account owned by a user. It is mutated only
// through its balance operations.
type Account struct {
	ID        uuid.UUID       `json:"id"`
	Number    string          `json:"number"`
	Balance   *AccountBalance `json:"balance"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// NewAccount creates an account with a zero balance in the given currency.
func NewAccount(id uuid.UUID, number, currency string, now time.Time) *Account {
	return &Account{
		ID:        id,
		Number:    number,
		Balance:   NewAccountBalance(currency),
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}
}

// updateBalance stamps UpdatedAt and applies the mutation. The stamp happens
// on the attempt, not only on success, matching how failed attempts are
// still recorded on the owning entities.
func (a *Account) updateBalance(now time.Time, mutate func(*AccountBalance) bool) bool {
	a.UpdatedAt = now.UTC()
	return mutate(a.Balance)
}

// User is a registered customer owning one or more accounts. Registration
// always seeds exactly one account; accounts are never removed.
type User struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Accounts  []*Account `json:"accounts"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// NewUserWithAccount creates a user holding a single seed account.
func NewUserWithAccount(id uuid.UUID, name, email string, accountID uuid.UUID, accountNumber, accountCurrency string, now time.Time) *User {
	return &User{
		ID:    id,
		Name:  name,
		Email: email,
		Accounts: []*Account{
			NewAccount(accountID, accountNumber, accountCurrency, now),
		},
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}
}

// accountFor returns the first account matching the currency, in slice
// order. Nothing prevents a user from holding two accounts in the same
// currency; when that happens the first one always wins.
func (u *User) accountFor(currency string) *Account {
	for _, account := range u.Accounts {
		if account != nil && account.Balance != nil && account.Balance.Currency == currency {
			return account
		}
	}
	return nil
}

// HoldFromCurrencyAccount reserves funds on the account in the given
// currency.
func (u *User) HoldFromCurrencyAccount(amount decimal.Decimal, currency string, now time.Time) (*AccountBalance, *Error) {
	account := u.accountFor(currency)
	if account == nil {
		return nil, ErrAccountNotFound(currency)
	}

	if !account.updateBalance(now, func(b *AccountBalance) bool { return b.Hold(amount) }) {
		return nil, ErrInsufficientFunds(account.Balance.Available, amount)
	}

	return account.Balance, nil
}

// DepositToCurrencyAccount credits the account in the given currency.
func (u *User) DepositToCurrencyAccount(amount decimal.Decimal, currency string, now time.Time) (*AccountBalance, *Error) {
	account := u.accountFor(currency)
	if account == nil {
		return nil, ErrAccountNotFound(currency)
	}

	account.updateBalance(now, func(b *AccountBalance) bool {
		b.Deposit(amount)
		return true
	})

	return account.Balance, nil
}

// WithdrawFromCurrencyAccount finalizes previously held funds on the account
// in the given currency.
func (u *User) WithdrawFromCurrencyAccount(amount decimal.Decimal, currency string, now time.Time) (*AccountBalance, *Error) {
	account := u.accountFor(currency)
	if account == nil {
		return nil, ErrAccountNotFound(currency)
	}

	if !account.updateBalance(now, func(b *AccountBalance) bool { return b.Withdraw(amount) }) {
		return nil, ErrInsufficientFunds(account.Balance.Available, amount)
	}

	return account.Balance, nil
}

// UnholdFromCurrencyAccount returns previously held funds to the available
// balance on the account in the given currency.
func (u *User) UnholdFromCurrencyAccount(amount decimal.Decimal, currency string, now time.Time) (*AccountBalance, *Error) {
	account := u.accountFor(currency)
	if account == nil {
		return nil, ErrAccountNotFound(currency)
	}

	if !account.updateBalance(now, func(b *AccountBalance) bool { return b.Release(amount) }) {
		return nil, ErrInsufficientFunds(account.Balance.Available, amount)
	}

	return account.Balance, nil
}
