package store

import (
	"testing"
	"time"

	as "github.com/aerospike/aerospike-client-go/v7"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/VladislavRybnikov/onlinebanking/internal/domain"
)

func TestTransactionBins_StringifiesScalarFields(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	tx, derr := domain.CreateTransfer(uuid.New(), uuid.New(), uuid.New(), decimal.NewFromInt(40), "USD", now, nil, "")
	if derr != nil {
		t.Fatalf("CreateTransfer failed: %v", derr)
	}

	bins, err := transactionBins(tx)
	if err != nil {
		t.Fatalf("transactionBins returned error: %v", err)
	}

	if bins[binID] != tx.ID.String() {
		t.Fatalf("expected Id bin %s, got %v", tx.ID, bins[binID])
	}
	if bins[binSenderID] != tx.SenderID.String() || bins[binReceiverID] != tx.ReceiverID.String() {
		t.Fatalf("expected participant bins to carry the ids, got %v / %v", bins[binSenderID], bins[binReceiverID])
	}
	if bins[binStatus] != "Created" {
		t.Fatalf("expected Status bin Created, got %v", bins[binStatus])
	}
	if bins[binData] == "" {
		t.Fatal("expected Data bin to carry the encoded transaction")
	}
}

func TestTransactionBins_MissingParticipantsBecomeEmptyStrings(t *testing.T) {
	tx, derr := domain.CreateDeposit(uuid.New(), uuid.New(), decimal.NewFromInt(10), "USD", time.Now().UTC(), nil, "")
	if derr != nil {
		t.Fatalf("CreateDeposit failed: %v", derr)
	}

	bins, err := transactionBins(tx)
	if err != nil {
		t.Fatalf("transactionBins returned error: %v", err)
	}

	// Secondary index filters match on string equality, so an absent
	// participant is stored as an empty string rather than omitted.
	if bins[binSenderID] != "" {
		t.Fatalf("expected empty SenderId bin for a deposit, got %v", bins[binSenderID])
	}
	if bins[binReceiverID] == "" {
		t.Fatal("expected ReceiverId bin to be populated for a deposit")
	}
}

func TestTransactionFromRecord_RoundTripsThroughDataBin(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	tx, derr := domain.CreateWithdrawal(uuid.New(), uuid.New(), decimal.NewFromInt(25), "EUR", now, &domain.WithdrawalDetails{Destination: "40817810000000000042"}, "rent")
	if derr != nil {
		t.Fatalf("CreateWithdrawal failed: %v", derr)
	}

	bins, err := transactionBins(tx)
	if err != nil {
		t.Fatalf("transactionBins returned error: %v", err)
	}

	decoded, err := transactionFromRecord(&as.Record{Bins: bins})
	if err != nil {
		t.Fatalf("transactionFromRecord returned error: %v", err)
	}

	if decoded.ID != tx.ID || decoded.Type != tx.Type || decoded.Currency != tx.Currency {
		t.Fatalf("expected decoded transaction to match, got %+v", decoded)
	}
	if !decoded.Amount.Equal(tx.Amount) {
		t.Fatalf("expected amount %s, got %s", tx.Amount, decoded.Amount)
	}
	if decoded.SenderID == nil || *decoded.SenderID != *tx.SenderID {
		t.Fatalf("expected sender id %v, got %v", tx.SenderID, decoded.SenderID)
	}
}

func TestTransactionFromRecord_StatusBinWins(t *testing.T) {
	tx, derr := domain.CreateTransfer(uuid.New(), uuid.New(), uuid.New(), decimal.NewFromInt(40), "USD", time.Now().UTC(), nil, "")
	if derr != nil {
		t.Fatalf("CreateTransfer failed: %v", derr)
	}

	bins, err := transactionBins(tx)
	if err != nil {
		t.Fatalf("transactionBins returned error: %v", err)
	}
	bins[binStatus] = "Processing"

	decoded, decodeErr := transactionFromRecord(&as.Record{Bins: bins})
	if decodeErr != nil {
		t.Fatalf("transactionFromRecord returned error: %v", decodeErr)
	}
	if decoded.Status != domain.TransactionStatusProcessing {
		t.Fatalf("expected the Status bin to override the Data bin, got %s", decoded.Status)
	}
}

func TestUserFromRecord_RoundTripsThroughDataBin(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	user := domain.NewUserWithAccount(uuid.New(), "Alice", "alice@example.com", uuid.New(), "40817810000000000001", "USD", now)
	user.Accounts[0].Balance.Deposit(decimal.NewFromInt(100))

	bins, err := userBins(user)
	if err != nil {
		t.Fatalf("userBins returned error: %v", err)
	}

	decoded, decodeErr := userFromRecord(&as.Record{Bins: bins})
	if decodeErr != nil {
		t.Fatalf("userFromRecord returned error: %v", decodeErr)
	}
	if decoded.ID != user.ID || decoded.Name != user.Name {
		t.Fatalf("expected decoded user to match, got %+v", decoded)
	}
	if len(decoded.Accounts) != 1 || !decoded.Accounts[0].Balance.Available.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("expected account balance to survive the round trip, got %+v", decoded.Accounts)
	}
}

func TestTransactionFromRecord_MissingDataBinFails(t *testing.T) {
	_, err := transactionFromRecord(&as.Record{Bins: as.BinMap{binID: uuid.NewString()}})
	if err == nil {
		t.Fatal("expected an error for a record without a Data bin")
	}
}
