/**
 * @description
 * This file implements the repository interfaces on top of Aerospike, used
 * here as a record-oriented database with secondary indexes. Each entity is
 * stored as one record: a handful of scalar bins carry the fields that are
 * filtered or indexed (ids, status), and a Data bin carries the full entity
 * as JSON. Transaction history queries run against secondary indexes on the
 * SenderId and ReceiverId bins, created at startup.
 *
 * Aerospike write policies enforce insert-versus-update intent: inserts use
 * CREATE_ONLY, updates use UPDATE_ONLY, so a lost record surfaces as a typed
 * error instead of being silently recreated.
 *
 * @dependencies
 * - context, encoding/json, fmt, log, time: Standard Go libraries.
 * - github.com/aerospike/aerospike-client-go/v7: The Aerospike client.
 * - github.com/google/uuid: Entity identifiers.
 * - internal/domain: The persisted models.
 */

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"time"

	as "github.com/aerospike/aerospike-client-go/v7"
	"github.com/aerospike/aerospike-client-go/v7/types"
	"github.com/google/uuid"
	"github.com/VladislavRybnikov/onlinebanking/internal/domain"
)

const (
	binID         = "Id"
	binSenderID   = "SenderId"
	binReceiverID = "ReceiverId"
	binStatus     = "Status"
	binUpdatedAt  = "UpdatedAt"
	binData       = "Data"

	senderIndexName   = "SenderId_Idx"
	receiverIndexName = "ReceiverId_Idx"

	indexSetupAttempts = 3
)

// AerospikeConfig holds the connection and set layout for the store.
type AerospikeConfig struct {
	Host            string
	Port            int
	Namespace       string
	UsersSet        string
	TransactionsSet string
}

// AerospikeRepository implements Repository against a single Aerospike
// namespace.
type AerospikeRepository struct {
	client *as.Client
	cfg    AerospikeConfig
}

// NewAerospikeRepository connects to the cluster and returns the repository.
func NewAerospikeRepository(cfg AerospikeConfig) (*AerospikeRepository, error) {
	client, err := as.NewClient(cfg.Host, cfg.Port)
	if err != nil {
		return nil, fmt.Errorf("aerospike connect %s:%d: %w", cfg.Host, cfg.Port, err)
	}
	return &AerospikeRepository{client: client, cfg: cfg}, nil
}

// Close releases the underlying cluster connection.
func (r *AerospikeRepository) Close() {
	r.client.Close()
}

// EnsureIndexes creates the secondary indexes backing the transaction
// history queries. Index creation is retried with exponential backoff since
// the cluster may still be warming up at process start.
func (r *AerospikeRepository) EnsureIndexes(ctx context.Context) error {
	var lastErr error
	for attempt := 0; attempt < indexSetupAttempts; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt))) * time.Second
			log.Printf("level=warn component=store msg=\"index setup retry\" attempt=%d backoff=%s err=%v", attempt, backoff, lastErr)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		lastErr = r.createIndexes()
		if lastErr == nil {
			return nil
		}
	}
	return fmt.Errorf("aerospike index setup: %w", lastErr)
}

func (r *AerospikeRepository) createIndexes() error {
	for _, idx := range []struct {
		name string
		bin  string
	}{
		{senderIndexName, binSenderID},
		{receiverIndexName, binReceiverID},
	} {
		task, err := r.client.CreateIndex(nil, r.cfg.Namespace, r.cfg.TransactionsSet, idx.name, idx.bin, as.STRING)
		if err != nil {
			if err.Matches(types.INDEX_FOUND) {
				continue
			}
			return err
		}
		if taskErr := <-task.OnComplete(); taskErr != nil {
			return taskErr
		}
	}
	return nil
}

func (r *AerospikeRepository) key(set string, id uuid.UUID) (*as.Key, error) {
	key, err := as.NewKey(r.cfg.Namespace, set, id.String())
	if err != nil {
		return nil, fmt.Errorf("aerospike key: %w", err)
	}
	return key, nil
}

func insertPolicy() *as.WritePolicy {
	p := as.NewWritePolicy(0, 0)
	p.RecordExistsAction = as.CREATE_ONLY
	p.SendKey = true
	return p
}

func updatePolicy() *as.WritePolicy {
	p := as.NewWritePolicy(0, 0)
	p.RecordExistsAction = as.UPDATE_ONLY
	return p
}

func readPolicy() *as.BasePolicy {
	p := as.NewPolicy()
	p.SocketTimeout = 300 * time.Millisecond
	return p
}

// InsertUser stores a new user, failing when the id is already taken.
func (r *AerospikeRepository) InsertUser(_ context.Context, user *domain.User) error {
	key, err := r.key(r.cfg.UsersSet, user.ID)
	if err != nil {
		return err
	}

	bins, err := userBins(user)
	if err != nil {
		return err
	}

	if putErr := r.client.Put(insertPolicy(), key, bins); putErr != nil {
		if putErr.Matches(types.KEY_EXISTS_ERROR) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("aerospike insert user: %w", putErr)
	}
	return nil
}

// UpdateUser overwrites an existing user record.
func (r *AerospikeRepository) UpdateUser(_ context.Context, user *domain.User) error {
	key, err := r.key(r.cfg.UsersSet, user.ID)
	if err != nil {
		return err
	}

	bins, err := userBins(user)
	if err != nil {
		return err
	}

	if putErr := r.client.Put(updatePolicy(), key, bins); putErr != nil {
		if putErr.Matches(types.KEY_NOT_FOUND_ERROR) {
			return ErrUserNotFound
		}
		return fmt.Errorf("aerospike update user: %w", putErr)
	}
	return nil
}

// FindUserByID loads one user by id.
func (r *AerospikeRepository) FindUserByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	key, err := r.key(r.cfg.UsersSet, id)
	if err != nil {
		return nil, err
	}

	record, getErr := r.client.Get(readPolicy(), key)
	if getErr != nil {
		if getErr.Matches(types.KEY_NOT_FOUND_ERROR) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("aerospike get user: %w", getErr)
	}

	return userFromRecord(record)
}

// ListUsers scans the users set.
func (r *AerospikeRepository) ListUsers(_ context.Context) ([]*domain.User, error) {
	stmt := as.NewStatement(r.cfg.Namespace, r.cfg.UsersSet)

	recordset, queryErr := r.client.Query(as.NewQueryPolicy(), stmt)
	if queryErr != nil {
		return nil, fmt.Errorf("aerospike scan users: %w", queryErr)
	}
	defer recordset.Close()

	var users []*domain.User
	for result := range recordset.Results() {
		if result.Err != nil {
			return nil, fmt.Errorf("aerospike scan users: %w", result.Err)
		}
		user, decodeErr := userFromRecord(result.Record)
		if decodeErr != nil {
			return nil, decodeErr
		}
		users = append(users, user)
	}
	return users, nil
}

// InsertTransaction stores a new transaction, failing when the id is already
// taken.
func (r *AerospikeRepository) InsertTransaction(_ context.Context, tx *domain.Transaction) error {
	key, err := r.key(r.cfg.TransactionsSet, tx.ID)
	if err != nil {
		return err
	}

	bins, err := transactionBins(tx)
	if err != nil {
		return err
	}

	if putErr := r.client.Put(insertPolicy(), key, bins); putErr != nil {
		if putErr.Matches(types.KEY_EXISTS_ERROR) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("aerospike insert transaction: %w", putErr)
	}
	return nil
}

// UpdateTransaction overwrites an existing transaction record.
func (r *AerospikeRepository) UpdateTransaction(_ context.Context, tx *domain.Transaction) error {
	key, err := r.key(r.cfg.TransactionsSet, tx.ID)
	if err != nil {
		return err
	}

	bins, err := transactionBins(tx)
	if err != nil {
		return err
	}

	if putErr := r.client.Put(updatePolicy(), key, bins); putErr != nil {
		if putErr.Matches(types.KEY_NOT_FOUND_ERROR) {
			return ErrTransactionNotFound
		}
		return fmt.Errorf("aerospike update transaction: %w", putErr)
	}
	return nil
}

// FindTransactionByID loads one transaction by id.
func (r *AerospikeRepository) FindTransactionByID(_ context.Context, id uuid.UUID) (*domain.Transaction, error) {
	key, err := r.key(r.cfg.TransactionsSet, id)
	if err != nil {
		return nil, err
	}

	record, getErr := r.client.Get(readPolicy(), key)
	if getErr != nil {
		if getErr.Matches(types.KEY_NOT_FOUND_ERROR) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("aerospike get transaction: %w", getErr)
	}

	return transactionFromRecord(record)
}

// DeleteTransaction removes a transaction record.
func (r *AerospikeRepository) DeleteTransaction(_ context.Context, id uuid.UUID) error {
	key, err := r.key(r.cfg.TransactionsSet, id)
	if err != nil {
		return err
	}

	existed, delErr := r.client.Delete(nil, key)
	if delErr != nil {
		return fmt.Errorf("aerospike delete transaction: %w", delErr)
	}
	if !existed {
		return ErrTransactionNotFound
	}
	return nil
}

// FindIncomingTransactions returns all transactions crediting the user,
// served by the ReceiverId secondary index.
func (r *AerospikeRepository) FindIncomingTransactions(ctx context.Context, userID uuid.UUID) ([]*domain.Transaction, error) {
	return r.queryTransactions(ctx, binReceiverID, userID)
}

// FindOutgoingTransactions returns all transactions debiting the user,
// served by the SenderId secondary index.
func (r *AerospikeRepository) FindOutgoingTransactions(ctx context.Context, userID uuid.UUID) ([]*domain.Transaction, error) {
	return r.queryTransactions(ctx, binSenderID, userID)
}

func (r *AerospikeRepository) queryTransactions(_ context.Context, bin string, userID uuid.UUID) ([]*domain.Transaction, error) {
	stmt := as.NewStatement(r.cfg.Namespace, r.cfg.TransactionsSet)
	if err := stmt.SetFilter(as.NewEqualFilter(bin, userID.String())); err != nil {
		return nil, fmt.Errorf("aerospike filter: %w", err)
	}

	recordset, queryErr := r.client.Query(as.NewQueryPolicy(), stmt)
	if queryErr != nil {
		return nil, fmt.Errorf("aerospike query transactions: %w", queryErr)
	}
	defer recordset.Close()

	var transactions []*domain.Transaction
	for result := range recordset.Results() {
		if result.Err != nil {
			return nil, fmt.Errorf("aerospike query transactions: %w", result.Err)
		}
		tx, decodeErr := transactionFromRecord(result.Record)
		if decodeErr != nil {
			return nil, decodeErr
		}
		transactions = append(transactions, tx)
	}
	return transactions, nil
}

func userBins(user *domain.User) (as.BinMap, error) {
	data, err := json.Marshal(user)
	if err != nil {
		return nil, fmt.Errorf("encode user: %w", err)
	}
	return as.BinMap{
		binID:        user.ID.String(),
		binUpdatedAt: user.UpdatedAt.UTC().Format(time.RFC3339Nano),
		binData:      string(data),
	}, nil
}

func userFromRecord(record *as.Record) (*domain.User, error) {
	raw, ok := record.Bins[binData].(string)
	if !ok {
		return nil, fmt.Errorf("user record missing %s bin", binData)
	}

	var user domain.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}
	return &user, nil
}

func transactionBins(tx *domain.Transaction) (as.BinMap, error) {
	data, err := json.Marshal(tx)
	if err != nil {
		return nil, fmt.Errorf("encode transaction: %w", err)
	}

	senderID := ""
	if tx.SenderID != nil {
		senderID = tx.SenderID.String()
	}
	receiverID := ""
	if tx.ReceiverID != nil {
		receiverID = tx.ReceiverID.String()
	}

	return as.BinMap{
		binID:         tx.ID.String(),
		binSenderID:   senderID,
		binReceiverID: receiverID,
		binStatus:     string(tx.Status),
		binUpdatedAt:  tx.UpdatedAt.UTC().Format(time.RFC3339Nano),
		binData:       string(data),
	}, nil
}

func transactionFromRecord(record *as.Record) (*domain.Transaction, error) {
	raw, ok := record.Bins[binData].(string)
	if !ok {
		return nil, fmt.Errorf("transaction record missing %s bin", binData)
	}

	var tx domain.Transaction
	if err := json.Unmarshal([]byte(raw), &tx); err != nil {
		return nil, fmt.Errorf("decode transaction: %w", err)
	}

	// A status-only write may be newer than the Data bin.
	if status, ok := record.Bins[binStatus].(string); ok && status != "" {
		tx.Status = domain.TransactionStatus(status)
	}
	return &tx, nil
}
