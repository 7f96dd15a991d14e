package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func assertBalance(t *testing.T, b *AccountBalance, available, reserved string) {
	t.Helper()
	if !b.Available.Equal(dec(available)) {
		t.Fatalf("expected available %s, got %s", available, b.Available)
	}
	if !b.Reserved.Equal(dec(reserved)) {
		t.Fatalf("expected reserved %s, got %s", reserved, b.Reserved)
	}
}

func TestHold_MovesFundsToReserved(t *testing.T) {
	b := NewAccountBalance("USD")
	b.Deposit(dec("100"))

	if !b.Hold(dec("40")) {
		t.Fatal("expected hold to succeed")
	}
	assertBalance(t, b, "60", "40")
}

func TestHold_FailsWithoutMutationWhenAmountExceedsAvailable(t *testing.T) {
	b := NewAccountBalance("USD")
	b.Deposit(dec("10"))

	if b.Hold(dec("40")) {
		t.Fatal("expected hold to fail")
	}
	assertBalance(t, b, "10", "0")
}

func TestWithdraw_ConsumesOnlyReservedFunds(t *testing.T) {
	b := NewAccountBalance("USD")
	b.Deposit(dec("100"))
	b.Hold(dec("25"))

	if !b.Withdraw(dec("25")) {
		t.Fatal("expected withdraw to succeed")
	}
	assertBalance(t, b, "75", "0")

	if b.Withdraw(dec("0.01")) {
		t.Fatal("expected withdraw beyond reserved to fail")
	}
	assertBalance(t, b, "75", "0")
}

func TestRelease_RestoresPreHoldBalance(t *testing.T) {
	b := NewAccountBalance("EUR")
	b.Deposit(dec("100"))
	b.Hold(dec("33.50"))

	if !b.Release(dec("33.50")) {
		t.Fatal("expected release to succeed")
	}
	assertBalance(t, b, "100", "0")
}

func TestBalance_NeverGoesNegative(t *testing.T) {
	b := NewAccountBalance("USD")
	b.Deposit(dec("50"))

	ops := []func() bool{
		func() bool { return b.Hold(dec("30")) },
		func() bool { return b.Hold(dec("30")) }, // only 20 available now
		func() bool { return b.Withdraw(dec("40")) },
		func() bool { return b.Withdraw(dec("30")) },
		func() bool { return b.Release(dec("1")) },
	}
	for i, op := range ops {
		op()
		if b.Available.IsNegative() || b.Reserved.IsNegative() {
			t.Fatalf("balance went negative after op %d: available=%s reserved=%s", i, b.Available, b.Reserved)
		}
	}
}
