package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"fintrack/internal/amqp"
	"fintrack/internal/bank"
	"fintrack/internal/core"
	"fintrack/internal/crypto"
	"fintrack/internal/docstore"
)

// AccountService manages the user's bank account list.
type AccountService struct {
	store      docstore.Store
	cipher     *crypto.Cipher
	amqpClient *amqp.Client
}

func NewAccountService(store docstore.Store, cipher *crypto.Cipher, amqpClient *amqp.Client) *AccountService {
	return &AccountService{
		store:      store,
		cipher:     cipher,
		amqpClient: amqpClient,
	}
}

// ListAccounts returns the user's decrypted accounts.
func (s *AccountService) ListAccounts(ctx context.Context, uid string) ([]core.BankAccount, error) {
	return loadBankAccounts(ctx, s.store, s.cipher, uid)
}

// AddAccount adds a bank account, rejecting case-insensitive duplicate
// account names.
func (s *AccountService) AddAccount(ctx context.Context, uid string, acct core.BankAccount) (core.BankAccount, error) {
	if acct.BankID == "" {
		acct.BankID = uuid.NewString()
	}
	if acct.CreateDate.IsZero() {
		acct.CreateDate = core.DateOf(nowUTC())
	}
	if err := acct.Validate(); err != nil {
		return core.BankAccount{}, fmt.Errorf("validate account: %w", err)
	}

	accounts, err := loadBankAccounts(ctx, s.store, s.cipher, uid)
	if err != nil {
		return core.BankAccount{}, err
	}

	updated, err := bank.AddAccount(accounts, acct)
	if err != nil {
		return core.BankAccount{}, err
	}

	if err := saveBankAccounts(ctx, s.store, s.cipher, uid, updated); err != nil {
		return core.BankAccount{}, err
	}
	s.publishChange(ctx, uid)

	slog.InfoContext(ctx, "Bank account added",
		"uid", uid,
		"account_name", acct.AccountName,
		"bank_id", acct.BankID)

	return acct, nil
}

// RemoveAccount deletes an account by name. The Cash account cannot be
// removed.
func (s *AccountService) RemoveAccount(ctx context.Context, uid, accountName string) error {
	accounts, err := loadBankAccounts(ctx, s.store, s.cipher, uid)
	if err != nil {
		return err
	}

	updated, err := bank.RemoveAccount(accounts, accountName)
	if err != nil {
		return err
	}

	if err := saveBankAccounts(ctx, s.store, s.cipher, uid, updated); err != nil {
		return err
	}
	s.publishChange(ctx, uid)

	slog.InfoContext(ctx, "Bank account removed",
		"uid", uid,
		"account_name", accountName)

	return nil
}

func (s *AccountService) publishChange(ctx context.Context, uid string) {
	if s.amqpClient == nil {
		return
	}
	if err := s.amqpClient.PublishDocumentChanged(ctx, CollectionBanks, uid); err != nil {
		slog.ErrorContext(ctx, "Failed to publish change message",
			"collection", CollectionBanks,
			"uid", uid,
			"error", err)
	}
}
