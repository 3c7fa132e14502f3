package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/amqp"
	"fintrack/internal/bank"
	"fintrack/internal/core"
	"fintrack/internal/crypto"
	"fintrack/internal/docstore"
	"fintrack/internal/schedule"
)

// CreateTransactionInput is a transaction plus the recurrence settings that
// only matter at creation time.
type CreateTransactionInput struct {
	core.Transaction

	// RecurringType and EndDate are read when IsRecurring is set.
	RecurringType core.RecurrenceKind
	EndDate       int64
}

// TransactionService orchestrates transaction writes across the document
// store, the bank-balance ledger and the AMQP change feed.
type TransactionService struct {
	store      docstore.Store
	cipher     *crypto.Cipher
	amqpClient *amqp.Client
}

func NewTransactionService(store docstore.Store, cipher *crypto.Cipher, amqpClient *amqp.Client) *TransactionService {
	return &TransactionService{
		store:      store,
		cipher:     cipher,
		amqpClient: amqpClient,
	}
}

// CreateTransaction validates, encrypts and persists a transaction, applies
// the bank-balance delta, mirrors business transactions, and registers a
// recurring template when requested.
func (s *TransactionService) CreateTransaction(ctx context.Context, uid string, in CreateTransactionInput) (core.Transaction, error) {
	txn := in.Transaction
	if txn.TransactionID == "" {
		txn.TransactionID = uuid.NewString()
	}
	if txn.CreatedAt == 0 {
		txn.CreatedAt = time.Now().UnixMilli()
	}
	if err := txn.Validate(); err != nil {
		return core.Transaction{}, fmt.Errorf("validate transaction: %w", err)
	}

	field, err := transactionField(txn.Type)
	if err != nil {
		return core.Transaction{}, err
	}

	enc, err := encryptValue(txn, s.cipher)
	if err != nil {
		return core.Transaction{}, err
	}
	err = s.store.Set(ctx, CollectionTransactions, uid, docstore.Document{field: docstore.ArrayUnion(enc)}, true)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}

	if err := s.applyBankDelta(ctx, uid, txn); err != nil {
		// The transaction itself is saved; the balance can be reconciled.
		slog.ErrorContext(ctx, "Failed to apply bank balance delta",
			"uid", uid,
			"transaction_id", txn.TransactionID,
			"account_name", txn.AccountName,
			"error", err)
	}

	if txn.BusinessName != "" {
		if err := s.mirrorBusinessTransaction(ctx, uid, txn, enc); err != nil {
			slog.ErrorContext(ctx, "Failed to mirror business transaction",
				"uid", uid,
				"transaction_id", txn.TransactionID,
				"error", err)
		}
	}

	if txn.IsRecurring {
		if err := s.registerRecurring(ctx, uid, txn, in.RecurringType, in.EndDate); err != nil {
			return core.Transaction{}, fmt.Errorf("register recurring transaction: %w", err)
		}
	}

	s.publishChange(ctx, CollectionTransactions, uid)

	slog.InfoContext(ctx, "Transaction created",
		"uid", uid,
		"transaction_id", txn.TransactionID,
		"type", txn.Type,
		"category", txn.Category,
		"account_name", txn.AccountName)

	return txn, nil
}

// DeleteTransaction removes a transaction by id from the user's income or
// expense list. The bank balance is not adjusted.
func (s *TransactionService) DeleteTransaction(ctx context.Context, uid string, typ core.TransactionType, transactionID string) error {
	field, err := transactionField(typ)
	if err != nil {
		return err
	}

	_, doc, err := s.store.Get(ctx, CollectionTransactions, uid)
	if err != nil {
		return fmt.Errorf("load transactions: %w", err)
	}

	raw := listField(doc, field)
	kept := make([]any, 0, len(raw))
	found := false
	for _, entry := range raw {
		var txn core.Transaction
		if err := decodeValue(entry, s.cipher, &txn); err == nil && txn.TransactionID == transactionID {
			found = true
			continue
		}
		// Stored ciphertexts stay untouched for the entries we keep.
		kept = append(kept, entry)
	}
	if !found {
		return core.ErrNotFound
	}

	err = s.store.Set(ctx, CollectionTransactions, uid, docstore.Document{field: kept}, true)
	if err != nil {
		return fmt.Errorf("save transactions: %w", err)
	}

	s.publishChange(ctx, CollectionTransactions, uid)

	slog.InfoContext(ctx, "Transaction deleted",
		"uid", uid,
		"transaction_id", transactionID,
		"type", typ)

	return nil
}

// ListTransactions returns the user's decrypted income and expense lists.
func (s *TransactionService) ListTransactions(ctx context.Context, uid string) (income, expense []core.Transaction, err error) {
	_, doc, err := s.store.Get(ctx, CollectionTransactions, uid)
	if err != nil {
		return nil, nil, fmt.Errorf("load transactions: %w", err)
	}

	income, err = s.decodeTransactions(listField(doc, fieldIncome))
	if err != nil {
		return nil, nil, err
	}
	expense, err = s.decodeTransactions(listField(doc, fieldExpense))
	if err != nil {
		return nil, nil, err
	}
	return income, expense, nil
}

// ListBusinessTransactions returns the decrypted business mirror list.
func (s *TransactionService) ListBusinessTransactions(ctx context.Context, uid string) ([]core.Transaction, error) {
	_, doc, err := s.store.Get(ctx, CollectionBusiness, uid)
	if err != nil {
		return nil, fmt.Errorf("load business transactions: %w", err)
	}
	return s.decodeTransactions(listField(doc, fieldBusiness))
}

func (s *TransactionService) decodeTransactions(raw []any) ([]core.Transaction, error) {
	txns := make([]core.Transaction, 0, len(raw))
	for _, entry := range raw {
		var txn core.Transaction
		if err := decodeValue(entry, s.cipher, &txn); err != nil {
			return nil, err
		}
		txns = append(txns, txn)
	}
	return txns, nil
}

// applyBankDelta adjusts the matching account's balance. Unknown accounts
// and transactions dated before the account's creation are no-ops.
func (s *TransactionService) applyBankDelta(ctx context.Context, uid string, txn core.Transaction) error {
	accounts, err := loadBankAccounts(ctx, s.store, s.cipher, uid)
	if err != nil {
		return err
	}
	if len(accounts) == 0 {
		return nil
	}

	amount := strconv.FormatFloat(txn.Amount, 'f', -1, 64)
	updated, err := bank.ApplyDelta(accounts, txn.AccountName, amount, txn.Type, txn.Date)
	if err != nil {
		return err
	}

	if err := saveBankAccounts(ctx, s.store, s.cipher, uid, updated); err != nil {
		return err
	}
	s.publishChange(ctx, CollectionBanks, uid)
	return nil
}

// mirrorBusinessTransaction appends the already-encrypted transaction to the
// business collection so per-business reports need no second decryption key.
func (s *TransactionService) mirrorBusinessTransaction(ctx context.Context, uid string, txn core.Transaction, enc any) error {
	err := s.store.Set(ctx, CollectionBusiness, uid, docstore.Document{fieldBusiness: docstore.ArrayUnion(enc)}, true)
	if err != nil {
		return fmt.Errorf("save business transaction: %w", err)
	}
	s.publishChange(ctx, CollectionBusiness, uid)
	return nil
}

// registerRecurring stores the recurring template with its first scheduled
// execution computed from the transaction date.
func (s *TransactionService) registerRecurring(ctx context.Context, uid string, txn core.Transaction, kind core.RecurrenceKind, endDate int64) error {
	next, err := schedule.NextExecution(txn.Date, kind)
	if err != nil {
		return err
	}

	rt := core.RecurringTransaction{
		Transaction:            txn,
		RecurringTransactionID: uuid.NewString(),
		StartDate:              txn.Date,
		RecurringType:          kind,
		EndDate:                endDate,
		Status:                 core.StatusActive,
		NextExecution:          next,
	}
	if err := rt.Validate(); err != nil {
		return err
	}

	enc, err := encryptValue(rt, s.cipher)
	if err != nil {
		return err
	}
	err = s.store.Set(ctx, CollectionRecurring, uid, docstore.Document{fieldRecurring: docstore.ArrayUnion(enc)}, true)
	if err != nil {
		return fmt.Errorf("save recurring transaction: %w", err)
	}

	s.publishChange(ctx, CollectionRecurring, uid)

	slog.InfoContext(ctx, "Recurring transaction registered",
		"uid", uid,
		"recurring_id", rt.RecurringTransactionID,
		"recurring_type", kind,
		"next_execution", next)

	return nil
}

func (s *TransactionService) publishChange(ctx context.Context, collection, uid string) {
	if s.amqpClient == nil {
		return
	}
	if err := s.amqpClient.PublishDocumentChanged(ctx, collection, uid); err != nil {
		// Don't fail the request - the write itself succeeded.
		slog.ErrorContext(ctx, "Failed to publish change message",
			"collection", collection,
			"uid", uid,
			"error", err)
	}
}

// Close releases the AMQP connection. The document store is owned by the
// caller.
func (s *TransactionService) Close() error {
	if s.amqpClient != nil {
		if err := s.amqpClient.Close(); err != nil {
			return fmt.Errorf("close amqp client: %w", err)
		}
	}
	return nil
}
