package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/core"
	"fintrack/internal/crypto"
	"fintrack/internal/docstore"
	"fintrack/internal/schedule"
)

// RecurringProcessor fires due recurring transactions: each due template
// appends a concrete transaction and is advanced to its next execution.
type RecurringProcessor struct {
	store      docstore.Store
	cipher     *crypto.Cipher
	txnService *TransactionService
	batchSize  int
}

func NewRecurringProcessor(store docstore.Store, cipher *crypto.Cipher, txnService *TransactionService, batchSize int) *RecurringProcessor {
	if batchSize < 1 {
		batchSize = 100
	}
	return &RecurringProcessor{
		store:      store,
		cipher:     cipher,
		txnService: txnService,
		batchSize:  batchSize,
	}
}

// ProcessDue scans every user's recurring transactions and fires the due
// ones, up to the configured batch size per run. It returns the number of
// transactions created.
func (p *RecurringProcessor) ProcessDue(ctx context.Context, now time.Time) (int, error) {
	if p.store == nil || p.txnService == nil {
		return 0, fmt.Errorf("processor not properly initialized")
	}

	uids, err := p.store.List(ctx, CollectionRecurring)
	if err != nil {
		return 0, fmt.Errorf("list recurring documents: %w", err)
	}

	slog.InfoContext(ctx, "Processing recurring transactions",
		"users", len(uids),
		"processing_date", now.Format("2006-01-02"))

	fired := 0
	for _, uid := range uids {
		if fired >= p.batchSize {
			break
		}
		n, err := p.processUser(ctx, uid, now, p.batchSize-fired)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to process recurring transactions",
				"uid", uid,
				"error", err)
			continue
		}
		fired += n
	}

	slog.InfoContext(ctx, "Recurring transaction processing complete",
		"fired", fired,
		"users_checked", len(uids))

	return fired, nil
}

func (p *RecurringProcessor) processUser(ctx context.Context, uid string, now time.Time, budget int) (int, error) {
	_, doc, err := p.store.Get(ctx, CollectionRecurring, uid)
	if err != nil {
		return 0, fmt.Errorf("load recurring transactions: %w", err)
	}

	raw := listField(doc, fieldRecurring)
	entries := make([]any, len(raw))
	copy(entries, raw)

	fired := 0
	changed := false
	for i, entry := range raw {
		if fired >= budget {
			break
		}

		var rt core.RecurringTransaction
		if err := decodeValue(entry, p.cipher, &rt); err != nil {
			slog.ErrorContext(ctx, "Skipping undecodable recurring entry",
				"uid", uid,
				"error", err)
			continue
		}

		if !schedule.Due(rt, now) {
			continue
		}

		if err := p.fire(ctx, uid, rt, now); err != nil {
			slog.ErrorContext(ctx, "Failed to fire recurring transaction",
				"uid", uid,
				"recurring_id", rt.RecurringTransactionID,
				"error", err)
			continue
		}

		advanced, err := schedule.Advance(rt)
		if err != nil {
			return fired, fmt.Errorf("advance recurring transaction %s: %w", rt.RecurringTransactionID, err)
		}

		enc, err := encryptValue(advanced, p.cipher)
		if err != nil {
			return fired, err
		}
		entries[i] = enc
		changed = true
		fired++

		slog.InfoContext(ctx, "Fired recurring transaction",
			"uid", uid,
			"recurring_id", rt.RecurringTransactionID,
			"recurring_type", rt.RecurringType,
			"next_execution", advanced.NextExecution,
			"status", advanced.Status)
	}

	if changed {
		err = p.store.Set(ctx, CollectionRecurring, uid, docstore.Document{fieldRecurring: entries}, true)
		if err != nil {
			return fired, fmt.Errorf("save recurring transactions: %w", err)
		}
	}

	return fired, nil
}

// fire appends the concrete transaction for one due template. The copy gets
// its own id, today's date, and drops the recurring flag so it cannot
// re-register a template.
func (p *RecurringProcessor) fire(ctx context.Context, uid string, rt core.RecurringTransaction, now time.Time) error {
	txn := rt.Transaction
	txn.TransactionID = uuid.NewString()
	txn.Date = core.DateOf(now)
	txn.CreatedAt = now.UnixMilli()
	txn.IsRecurring = false

	_, err := p.txnService.CreateTransaction(ctx, uid, CreateTransactionInput{Transaction: txn})
	return err
}

// SetStatus manually pauses or resumes a recurring transaction.
func (p *RecurringProcessor) SetStatus(ctx context.Context, uid, recurringID string, status core.RecurringStatus) error {
	_, doc, err := p.store.Get(ctx, CollectionRecurring, uid)
	if err != nil {
		return fmt.Errorf("load recurring transactions: %w", err)
	}

	raw := listField(doc, fieldRecurring)
	entries := make([]any, len(raw))
	copy(entries, raw)

	found := false
	for i, entry := range raw {
		var rt core.RecurringTransaction
		if err := decodeValue(entry, p.cipher, &rt); err != nil || rt.RecurringTransactionID != recurringID {
			continue
		}

		updated := schedule.SetStatus(rt, status)
		enc, err := encryptValue(updated, p.cipher)
		if err != nil {
			return err
		}
		entries[i] = enc
		found = true
		break
	}
	if !found {
		return core.ErrNotFound
	}

	err = p.store.Set(ctx, CollectionRecurring, uid, docstore.Document{fieldRecurring: entries}, true)
	if err != nil {
		return fmt.Errorf("save recurring transactions: %w", err)
	}
	return nil
}

// ListRecurring returns the user's decrypted recurring templates.
func (p *RecurringProcessor) ListRecurring(ctx context.Context, uid string) ([]core.RecurringTransaction, error) {
	_, doc, err := p.store.Get(ctx, CollectionRecurring, uid)
	if err != nil {
		return nil, fmt.Errorf("load recurring transactions: %w", err)
	}

	raw := listField(doc, fieldRecurring)
	out := make([]core.RecurringTransaction, 0, len(raw))
	for _, entry := range raw {
		var rt core.RecurringTransaction
		if err := decodeValue(entry, p.cipher, &rt); err != nil {
			return nil, err
		}
		out = append(out, rt)
	}
	return out, nil
}
