package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func createdTransfer(t *testing.T, sender, receiver *User, amount string) *Transaction {
	t.Helper()
	tx, derr := CreateTransfer(uuid.New(), sender.ID, receiver.ID, dec(amount), "USD", testTime, nil, "")
	if derr != nil {
		t.Fatalf("CreateTransfer failed: %v", derr)
	}
	return tx
}

func TestCreateDeposit_HasNoSender(t *testing.T) {
	receiverID := uuid.New()
	tx, derr := CreateDeposit(uuid.New(), receiverID, dec("50"), "USD", testTime, &DepositDetails{Source: "cash"}, "salary")
	if derr != nil {
		t.Fatalf("CreateDeposit failed: %v", derr)
	}

	if tx.SenderID != nil {
		t.Fatal("expected deposit to have no sender")
	}
	if tx.ReceiverID == nil || *tx.ReceiverID != receiverID {
		t.Fatal("expected receiver id to be set")
	}
	if tx.Status != TransactionStatusCreated {
		t.Fatalf("expected Created, got %s", tx.Status)
	}
	if tx.Details == nil || tx.Details.Deposit == nil || tx.Details.Deposit.Source != "cash" {
		t.Fatal("expected deposit details to be kept")
	}
}

func TestCreateWithdrawal_HasNoReceiver(t *testing.T) {
	senderID := uuid.New()
	tx, derr := CreateWithdrawal(uuid.New(), senderID, dec("50"), "USD", testTime, nil, "")
	if derr != nil {
		t.Fatalf("CreateWithdrawal failed: %v", derr)
	}

	if tx.ReceiverID != nil {
		t.Fatal("expected withdrawal to have no receiver")
	}
	if tx.SenderID == nil || *tx.SenderID != senderID {
		t.Fatal("expected sender id to be set")
	}
}

func TestCreateTransfer_RejectsSameSenderAndReceiver(t *testing.T) {
	id := uuid.New()
	if _, derr := CreateTransfer(uuid.New(), id, id, dec("50"), "USD", testTime, nil, ""); derr == nil {
		t.Fatal("expected an error for sender == receiver")
	}
}

func TestCreate_RejectsNonPositiveAmount(t *testing.T) {
	if _, derr := CreateDeposit(uuid.New(), uuid.New(), dec("0"), "USD", testTime, nil, ""); derr == nil {
		t.Fatal("expected zero amount to be rejected")
	}
	if _, derr := CreateWithdrawal(uuid.New(), uuid.New(), dec("-1"), "USD", testTime, nil, ""); derr == nil {
		t.Fatal("expected negative amount to be rejected")
	}
}

func TestTransfer_HappyPath(t *testing.T) {
	sender := newTestUser(t, "USD", "100")
	receiver := newTestUser(t, "USD", "0")
	tx := createdTransfer(t, sender, receiver, "40")

	status, derr := tx.Begin(receiver, sender, testTime)
	if derr != nil {
		t.Fatalf("Begin failed: %v", derr)
	}
	if status != TransactionStatusProcessing {
		t.Fatalf("expected Processing, got %s", status)
	}
	assertBalance(t, sender.Accounts[0].Balance, "60", "40")
	assertBalance(t, receiver.Accounts[0].Balance, "0", "0")

	status, derr = tx.Complete(receiver, sender, testTime)
	if derr != nil {
		t.Fatalf("Complete failed: %v", derr)
	}
	if status != TransactionStatusCompleted {
		t.Fatalf("expected Completed, got %s", status)
	}
	assertBalance(t, sender.Accounts[0].Balance, "60", "0")
	assertBalance(t, receiver.Accounts[0].Balance, "40", "0")
}

func TestTransferBegin_InsufficientFundsMarksFailed(t *testing.T) {
	sender := newTestUser(t, "USD", "10")
	receiver := newTestUser(t, "USD", "0")
	tx := createdTransfer(t, sender, receiver, "40")

	status, derr := tx.Begin(receiver, sender, testTime)
	if derr == nil {
		t.Fatal("expected an error")
	}
	if status != TransactionStatusFailed || tx.Status != TransactionStatusFailed {
		t.Fatalf("expected Failed, got %s", tx.Status)
	}
	if tx.Err == nil || tx.Err.Metadata["balance"] != "10" || tx.Err.Metadata["amount"] != "40" {
		t.Fatalf("expected failure metadata on the record, got %v", tx.Err)
	}
	assertBalance(t, sender.Accounts[0].Balance, "10", "0")
}

func TestWithdrawalCancel_ReleasesHold(t *testing.T) {
	sender := newTestUser(t, "USD", "100")
	tx, derr := CreateWithdrawal(uuid.New(), sender.ID, dec("25"), "USD", testTime, nil, "")
	if derr != nil {
		t.Fatalf("CreateWithdrawal failed: %v", derr)
	}

	if status, berr := tx.Begin(nil, sender, testTime); berr != nil || status != TransactionStatusProcessing {
		t.Fatalf("Begin: status=%s err=%v", status, berr)
	}
	assertBalance(t, sender.Accounts[0].Balance, "75", "25")

	status, cerr := tx.Cancel(nil, sender, testTime)
	if cerr != nil {
		t.Fatalf("Cancel failed: %v", cerr)
	}
	if status != TransactionStatusCanceled {
		t.Fatalf("expected Canceled, got %s", status)
	}
	assertBalance(t, sender.Accounts[0].Balance, "100", "0")
}

func TestTransferComplete_MissingReceiverKeepsSenderDebit(t *testing.T) {
	sender := newTestUser(t, "USD", "100")
	receiver := newTestUser(t, "USD", "0")
	tx := createdTransfer(t, sender, receiver, "40")
	if _, derr := tx.Begin(receiver, sender, testTime); derr != nil {
		t.Fatalf("Begin failed: %v", derr)
	}

	status, derr := tx.Complete(nil, sender, testTime)
	if derr == nil {
		t.Fatal("expected an error")
	}
	if derr.Kind != ErrorKindNotFound {
		t.Fatalf("expected NotFound, got %s", derr.Kind)
	}
	if status != TransactionStatusFailed {
		t.Fatalf("expected Failed, got %s", status)
	}
	// The sender's withdrawal already settled; the debit is not rolled back
	// and the record marks where the pair broke.
	assertBalance(t, sender.Accounts[0].Balance, "60", "0")
	if tx.Err == nil || tx.Err.Metadata["stage"] != "receiver_credit" {
		t.Fatalf("expected receiver_credit stage on the record, got %v", tx.Err)
	}
}

func TestTransferBegin_MissingSenderLeavesRecordUntouched(t *testing.T) {
	sender := newTestUser(t, "USD", "100")
	receiver := newTestUser(t, "USD", "0")
	tx := createdTransfer(t, sender, receiver, "40")

	status, derr := tx.Begin(receiver, nil, testTime)
	if derr == nil {
		t.Fatal("expected an error")
	}
	if status != TransactionStatusCreated || tx.Status != TransactionStatusCreated {
		t.Fatalf("expected status to stay Created, got %s", tx.Status)
	}
	if tx.Err != nil {
		t.Fatal("expected no error recorded before any side effect")
	}
}

func TestDeposit_CompletesOnBegin(t *testing.T) {
	receiver := newTestUser(t, "USD", "0")
	tx, derr := CreateDeposit(uuid.New(), receiver.ID, dec("50"), "USD", testTime, nil, "")
	if derr != nil {
		t.Fatalf("CreateDeposit failed: %v", derr)
	}

	status, berr := tx.Begin(receiver, nil, testTime)
	if berr != nil {
		t.Fatalf("Begin failed: %v", berr)
	}
	if status != TransactionStatusCompleted {
		t.Fatalf("expected Completed, got %s", status)
	}
	assertBalance(t, receiver.Accounts[0].Balance, "50", "0")

	// Terminal states absorb further lifecycle calls.
	for i := 0; i < 2; i++ {
		if status, err := tx.Complete(receiver, nil, testTime); err != nil || status != TransactionStatusCompleted {
			t.Fatalf("expected Completed no-op, got status=%s err=%v", status, err)
		}
		if status, err := tx.Cancel(receiver, nil, testTime); err != nil || status != TransactionStatusCompleted {
			t.Fatalf("expected Completed no-op, got status=%s err=%v", status, err)
		}
	}
	assertBalance(t, receiver.Accounts[0].Balance, "50", "0")
}

func TestComplete_OnCreatedTransactionIsRejected(t *testing.T) {
	sender := newTestUser(t, "USD", "100")
	receiver := newTestUser(t, "USD", "0")
	tx := createdTransfer(t, sender, receiver, "40")

	status, derr := tx.Complete(receiver, sender, testTime)
	if derr == nil {
		t.Fatal("expected an error")
	}
	if derr.Kind != ErrorKindBadRequest {
		t.Fatalf("expected BadRequest, got %s", derr.Kind)
	}
	if status != TransactionStatusCreated || tx.Status != TransactionStatusCreated {
		t.Fatalf("expected status to stay Created, got %s", tx.Status)
	}
}

func TestCancel_OnCreatedTransactionCancelsWithoutBalanceEffects(t *testing.T) {
	sender := newTestUser(t, "USD", "100")
	receiver := newTestUser(t, "USD", "0")
	tx := createdTransfer(t, sender, receiver, "40")

	status, derr := tx.Cancel(receiver, sender, testTime)
	if derr != nil {
		t.Fatalf("Cancel failed: %v", derr)
	}
	if status != TransactionStatusCanceled {
		t.Fatalf("expected Canceled, got %s", status)
	}
	assertBalance(t, sender.Accounts[0].Balance, "100", "0")
}

func TestTerminalStatus_IsIdempotentAcrossCalls(t *testing.T) {
	sender := newTestUser(t, "USD", "100")
	tx, derr := CreateWithdrawal(uuid.New(), sender.ID, dec("25"), "USD", testTime, nil, "")
	if derr != nil {
		t.Fatalf("CreateWithdrawal failed: %v", derr)
	}
	tx.Begin(nil, sender, testTime)
	tx.Complete(nil, sender, testTime)
	if tx.Status != TransactionStatusCompleted {
		t.Fatalf("expected Completed, got %s", tx.Status)
	}

	first, err1 := tx.Complete(nil, sender, testTime)
	second, err2 := tx.Complete(nil, sender, testTime)
	if err1 != nil || err2 != nil {
		t.Fatalf("expected no-ops, got %v / %v", err1, err2)
	}
	if first != second || first != TransactionStatusCompleted {
		t.Fatalf("expected stable Completed, got %s then %s", first, second)
	}
	assertBalance(t, sender.Accounts[0].Balance, "75", "0")
}

func TestFailedTransactionStampsUpdatedAt(t *testing.T) {
	sender := newTestUser(t, "USD", "10")
	receiver := newTestUser(t, "USD", "0")
	tx := createdTransfer(t, sender, receiver, "40")

	later := testTime.Add(time.Hour)
	tx.Begin(receiver, sender, later)
	if !tx.UpdatedAt.Equal(later) {
		t.Fatalf("expected UpdatedAt %s, got %s", later, tx.UpdatedAt)
	}
}
