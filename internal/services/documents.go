// Package services glues the pure cores (crypto, ledger, schedule, bank)
// to the document store and the AMQP change feed. Every user owns one
// document per collection, keyed by uid, with all scalar leaves encrypted
// before persistence.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/crypto"
	"fintrack/internal/docstore"
)

func nowUTC() time.Time { return time.Now().UTC() }

// Per-user collections. The document id is always the owning user's uid.
const (
	CollectionTransactions = "transactions"
	CollectionBanks        = "banks"
	CollectionCategories   = "categories"
	CollectionRecurring    = "recurring_transactions"
	CollectionBusiness     = "business_transactions"
)

// Top-level list fields inside the documents.
const (
	fieldIncome    = "income"
	fieldExpense   = "expense"
	fieldBanks     = "banks"
	fieldCategory  = "category"
	fieldLenders   = "lenders"
	fieldRecurring = "recurringTransactions"
	fieldBusiness  = "transactions"
)

// toDocValue normalizes a domain value into JSON shapes (map[string]any,
// []any, float64) so it can live in a document and survive union dedup.
func toDocValue(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode document value: %w", err)
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode document value: %w", err)
	}
	return out, nil
}

// encryptValue normalizes then encrypts a domain value for storage.
func encryptValue(v any, cipher *crypto.Cipher) (any, error) {
	doc, err := toDocValue(v)
	if err != nil {
		return nil, err
	}
	enc, err := crypto.EncryptTree(doc, cipher)
	if err != nil {
		return nil, fmt.Errorf("encrypt document value: %w", err)
	}
	return enc, nil
}

// decodeValue decrypts a stored value and unmarshals it into out.
func decodeValue(raw any, cipher *crypto.Cipher, out any) error {
	plain := crypto.DecryptTree(raw, cipher)
	data, err := json.Marshal(plain)
	if err != nil {
		return fmt.Errorf("encode decrypted value: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode document value: %w", err)
	}
	return nil
}

// listField extracts a list field from a document; a missing field or
// document yields an empty list.
func listField(doc docstore.Document, field string) []any {
	if doc == nil {
		return nil
	}
	list, _ := doc[field].([]any)
	return list
}

// transactionField maps a transaction type to its list field.
func transactionField(typ core.TransactionType) (string, error) {
	switch typ {
	case core.Income:
		return fieldIncome, nil
	case core.Expense:
		return fieldExpense, nil
	default:
		return "", fmt.Errorf("invalid transaction type: %s", typ)
	}
}

// loadBankAccounts reads and decrypts the user's account list.
func loadBankAccounts(ctx context.Context, store docstore.Store, cipher *crypto.Cipher, uid string) ([]core.BankAccount, error) {
	_, doc, err := store.Get(ctx, CollectionBanks, uid)
	if err != nil {
		return nil, fmt.Errorf("load bank accounts: %w", err)
	}
	var accounts []core.BankAccount
	if err := decodeValue(listField(doc, fieldBanks), cipher, &accounts); err != nil {
		return nil, fmt.Errorf("decode bank accounts: %w", err)
	}
	return accounts, nil
}

// saveBankAccounts encrypts and writes the full account list.
func saveBankAccounts(ctx context.Context, store docstore.Store, cipher *crypto.Cipher, uid string, accounts []core.BankAccount) error {
	if accounts == nil {
		accounts = []core.BankAccount{}
	}
	enc, err := encryptValue(accounts, cipher)
	if err != nil {
		return err
	}
	if err := store.Set(ctx, CollectionBanks, uid, docstore.Document{fieldBanks: enc}, true); err != nil {
		return fmt.Errorf("save bank accounts: %w", err)
	}
	return nil
}
