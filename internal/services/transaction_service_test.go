package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"fintrack/internal/core"
	"fintrack/internal/crypto"
	"fintrack/internal/docstore/memory"
)

func newTestCipher(t *testing.T) *crypto.Cipher {
	t.Helper()
	key := make([]byte, crypto.KeySize)
	for i := range key {
		key[i] = byte(i)
	}
	c, err := crypto.New(key)
	if err != nil {
		t.Fatalf("new cipher: %v", err)
	}
	return c
}

func testTransaction(typ core.TransactionType) CreateTransactionInput {
	return CreateTransactionInput{
		Transaction: core.Transaction{
			Type:        typ,
			Amount:      42.50,
			Category:    "food",
			AccountName: "Checking",
			Date:        "2024-03-10",
			Description: "groceries",
		},
	}
}

func TestCreateTransactionRoundTrip(t *testing.T) {
	store := memory.New()
	cipher := newTestCipher(t)
	svc := NewTransactionService(store, cipher, nil)
	ctx := context.Background()

	created, err := svc.CreateTransaction(ctx, "u1", testTransaction(core.Expense))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.TransactionID == "" {
		t.Error("transaction id was not assigned")
	}
	if created.CreatedAt == 0 {
		t.Error("createdAt was not assigned")
	}

	income, expense, err := svc.ListTransactions(ctx, "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(income) != 0 || len(expense) != 1 {
		t.Fatalf("income=%d expense=%d, want 0/1", len(income), len(expense))
	}
	got := expense[0]
	if got.Category != "food" || got.Amount != 42.50 || got.Date != "2024-03-10" {
		t.Errorf("unexpected decrypted transaction: %+v", got)
	}
}

func TestCreateTransactionStoresCiphertext(t *testing.T) {
	store := memory.New()
	cipher := newTestCipher(t)
	svc := NewTransactionService(store, cipher, nil)
	ctx := context.Background()

	if _, err := svc.CreateTransaction(ctx, "u1", testTransaction(core.Income)); err != nil {
		t.Fatalf("create: %v", err)
	}

	_, doc, _ := store.Get(ctx, CollectionTransactions, "u1")
	entries := doc["income"].([]any)
	entry := entries[0].(map[string]any)
	if entry["category"] == "food" {
		t.Error("category leaf was stored in plaintext")
	}
	if _, ok := entry["category"].(string); !ok {
		t.Errorf("category leaf is not a ciphertext string: %T", entry["category"])
	}
}

func TestCreateTransactionRejectsInvalid(t *testing.T) {
	svc := NewTransactionService(memory.New(), newTestCipher(t), nil)
	ctx := context.Background()

	in := testTransaction(core.Expense)
	in.Amount = 0
	if _, err := svc.CreateTransaction(ctx, "u1", in); !errors.Is(err, core.ErrInvalidAmount) {
		t.Errorf("err = %v, want ErrInvalidAmount", err)
	}

	in = testTransaction(core.Expense)
	in.Date = "10/03/2024"
	if _, err := svc.CreateTransaction(ctx, "u1", in); !errors.Is(err, core.ErrInvalidDate) {
		t.Errorf("err = %v, want ErrInvalidDate", err)
	}
}

func TestCreateTransactionAppliesBankDelta(t *testing.T) {
	store := memory.New()
	cipher := newTestCipher(t)
	accounts := NewAccountService(store, cipher, nil)
	svc := NewTransactionService(store, cipher, nil)
	ctx := context.Background()

	_, err := accounts.AddAccount(ctx, "u1", core.BankAccount{
		AccountName:    "Checking",
		BankName:       "First",
		AccountType:    "checking",
		CreateDate:     "2024-01-01",
		InitialBalance: 100,
	})
	if err != nil {
		t.Fatalf("add account: %v", err)
	}

	if _, err := svc.CreateTransaction(ctx, "u1", testTransaction(core.Expense)); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := accounts.ListAccounts(ctx, "u1")
	if err != nil {
		t.Fatalf("list accounts: %v", err)
	}
	if got[0].InitialBalance != 57.50 {
		t.Errorf("balance = %v, want 57.50", got[0].InitialBalance)
	}
}

func TestCreateTransactionSkipsDeltaBeforeCreateDate(t *testing.T) {
	store := memory.New()
	cipher := newTestCipher(t)
	accounts := NewAccountService(store, cipher, nil)
	svc := NewTransactionService(store, cipher, nil)
	ctx := context.Background()

	_, err := accounts.AddAccount(ctx, "u1", core.BankAccount{
		AccountName:    "Checking",
		BankName:       "First",
		AccountType:    "checking",
		CreateDate:     "2024-06-01",
		InitialBalance: 100,
	})
	if err != nil {
		t.Fatalf("add account: %v", err)
	}

	// Dated before the account existed; recorded but no balance change.
	if _, err := svc.CreateTransaction(ctx, "u1", testTransaction(core.Expense)); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, _ := accounts.ListAccounts(ctx, "u1")
	if got[0].InitialBalance != 100 {
		t.Errorf("balance = %v, want 100 (transaction predates account)", got[0].InitialBalance)
	}
	_, expense, _ := svc.ListTransactions(ctx, "u1")
	if len(expense) != 1 {
		t.Errorf("transaction was not recorded")
	}
}

func TestCreateTransactionMirrorsBusiness(t *testing.T) {
	store := memory.New()
	cipher := newTestCipher(t)
	svc := NewTransactionService(store, cipher, nil)
	ctx := context.Background()

	in := testTransaction(core.Income)
	in.BusinessName = "acme"
	if _, err := svc.CreateTransaction(ctx, "u1", in); err != nil {
		t.Fatalf("create: %v", err)
	}

	mirrored, err := svc.ListBusinessTransactions(ctx, "u1")
	if err != nil {
		t.Fatalf("list business: %v", err)
	}
	if len(mirrored) != 1 || mirrored[0].BusinessName != "acme" {
		t.Errorf("unexpected business mirror: %+v", mirrored)
	}
}

func TestCreateTransactionRegistersRecurring(t *testing.T) {
	store := memory.New()
	cipher := newTestCipher(t)
	svc := NewTransactionService(store, cipher, nil)
	proc := NewRecurringProcessor(store, cipher, svc, 10)
	ctx := context.Background()

	in := testTransaction(core.Expense)
	in.IsRecurring = true
	in.RecurringType = core.Monthly
	if _, err := svc.CreateTransaction(ctx, "u1", in); err != nil {
		t.Fatalf("create: %v", err)
	}

	templates, err := proc.ListRecurring(ctx, "u1")
	if err != nil {
		t.Fatalf("list recurring: %v", err)
	}
	if len(templates) != 1 {
		t.Fatalf("got %d templates, want 1", len(templates))
	}
	rt := templates[0]
	if rt.Status != core.StatusActive {
		t.Errorf("status = %v, want active", rt.Status)
	}
	if rt.StartDate != in.Date {
		t.Errorf("startDate = %v, want %v", rt.StartDate, in.Date)
	}
	if rt.NextExecution <= in.Date.Epoch() {
		t.Errorf("nextExecution %d is not after start date", rt.NextExecution)
	}
}

func TestCreateTransactionRejectsRecurringWithoutKind(t *testing.T) {
	svc := NewTransactionService(memory.New(), newTestCipher(t), nil)

	in := testTransaction(core.Expense)
	in.IsRecurring = true
	if _, err := svc.CreateTransaction(context.Background(), "u1", in); !errors.Is(err, core.ErrInvalidRecurrenceKind) {
		t.Errorf("err = %v, want ErrInvalidRecurrenceKind", err)
	}
}

func TestDeleteTransaction(t *testing.T) {
	store := memory.New()
	cipher := newTestCipher(t)
	svc := NewTransactionService(store, cipher, nil)
	ctx := context.Background()

	first, _ := svc.CreateTransaction(ctx, "u1", testTransaction(core.Expense))
	second, _ := svc.CreateTransaction(ctx, "u1", testTransaction(core.Expense))

	if err := svc.DeleteTransaction(ctx, "u1", core.Expense, first.TransactionID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	_, expense, _ := svc.ListTransactions(ctx, "u1")
	if len(expense) != 1 || expense[0].TransactionID != second.TransactionID {
		t.Errorf("unexpected survivors: %+v", expense)
	}

	if err := svc.DeleteTransaction(ctx, "u1", core.Expense, "missing-id"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestAccountServiceDuplicateAndCash(t *testing.T) {
	store := memory.New()
	cipher := newTestCipher(t)
	accounts := NewAccountService(store, cipher, nil)
	ctx := context.Background()

	acct := core.BankAccount{
		AccountName: "Checking",
		BankName:    "First",
		AccountType: "checking",
		CreateDate:  "2024-01-01",
	}
	if _, err := accounts.AddAccount(ctx, "u1", acct); err != nil {
		t.Fatalf("add: %v", err)
	}

	dup := acct
	dup.AccountName = "CHECKING"
	if _, err := accounts.AddAccount(ctx, "u1", dup); !errors.Is(err, core.ErrDuplicateEntity) {
		t.Errorf("err = %v, want ErrDuplicateEntity", err)
	}

	cash := core.BankAccount{
		AccountName: "Cash",
		BankName:    "Wallet",
		AccountType: "Cash",
		CreateDate:  "2024-01-01",
	}
	if _, err := accounts.AddAccount(ctx, "u1", cash); err != nil {
		t.Fatalf("add cash: %v", err)
	}
	if err := accounts.RemoveAccount(ctx, "u1", "Cash"); !errors.Is(err, core.ErrCashAccountUndeletable) {
		t.Errorf("err = %v, want ErrCashAccountUndeletable", err)
	}
	if err := accounts.RemoveAccount(ctx, "u1", "Checking"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	got, _ := accounts.ListAccounts(ctx, "u1")
	if len(got) != 1 || got[0].AccountName != "Cash" {
		t.Errorf("unexpected accounts after remove: %+v", got)
	}
}

func TestCategoryServiceDuplicateAsymmetry(t *testing.T) {
	store := memory.New()
	cipher := newTestCipher(t)
	cats := NewCategoryService(store, cipher, nil)
	ctx := context.Background()

	created, err := cats.AddCategory(ctx, "u1", core.Category{Category: "  Food ", Type: core.Expense})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if created.Category != "food" {
		t.Errorf("category = %q, want lowercased %q", created.Category, "food")
	}

	// Same name, different case: still a duplicate for the same type.
	if _, err := cats.AddCategory(ctx, "u1", core.Category{Category: "FOOD", Type: core.Expense}); !errors.Is(err, core.ErrDuplicateEntity) {
		t.Errorf("err = %v, want ErrDuplicateEntity", err)
	}

	// Same name under the other type is allowed.
	if _, err := cats.AddCategory(ctx, "u1", core.Category{Category: "food", Type: core.Income}); err != nil {
		t.Errorf("cross-type add failed: %v", err)
	}

	expenseCats, _ := cats.ListCategories(ctx, "u1", core.Expense)
	if len(expenseCats) != 1 {
		t.Errorf("expense categories = %+v, want one entry", expenseCats)
	}
	all, _ := cats.ListCategories(ctx, "u1", "")
	if len(all) != 2 {
		t.Errorf("all categories = %+v, want two entries", all)
	}
}

func TestLenderExactDuplicate(t *testing.T) {
	cats := NewCategoryService(memory.New(), newTestCipher(t), nil)
	ctx := context.Background()

	if err := cats.AddLender(ctx, "u1", "Alice"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := cats.AddLender(ctx, "u1", "Alice"); !errors.Is(err, core.ErrDuplicateEntity) {
		t.Errorf("err = %v, want ErrDuplicateEntity", err)
	}
	// Lender matching is exact, unlike categories.
	if err := cats.AddLender(ctx, "u1", "alice"); err != nil {
		t.Errorf("case-variant lender rejected: %v", err)
	}

	lenders, _ := cats.ListLenders(ctx, "u1")
	if strings.Join(lenders, ",") != "Alice,alice" {
		t.Errorf("lenders = %v", lenders)
	}
}

func TestDeleteCategoryInUseGuard(t *testing.T) {
	store := memory.New()
	cipher := newTestCipher(t)
	cats := NewCategoryService(store, cipher, nil)
	txns := NewTransactionService(store, cipher, nil)
	ctx := context.Background()

	if _, err := cats.AddCategory(ctx, "u1", core.Category{Category: "food", Type: core.Expense}); err != nil {
		t.Fatalf("add category: %v", err)
	}
	if _, err := txns.CreateTransaction(ctx, "u1", testTransaction(core.Expense)); err != nil {
		t.Fatalf("create transaction: %v", err)
	}

	// A transaction references "food" as an expense, so the expense category
	// stays. The name match ignores case.
	err := cats.DeleteCategory(ctx, "u1", core.Category{Category: "FOOD", Type: core.Expense})
	if !errors.Is(err, core.ErrEntityInUse) {
		t.Errorf("err = %v, want ErrEntityInUse", err)
	}

	// The same name under the other type is independent and deletable.
	if _, err := cats.AddCategory(ctx, "u1", core.Category{Category: "food", Type: core.Income}); err != nil {
		t.Fatalf("add income category: %v", err)
	}
	if err := cats.DeleteCategory(ctx, "u1", core.Category{Category: "food", Type: core.Income}); err != nil {
		t.Fatalf("delete income category: %v", err)
	}
	if err := cats.DeleteCategory(ctx, "u1", core.Category{Category: "food", Type: core.Income}); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("second delete err = %v, want ErrNotFound", err)
	}

	remaining, _ := cats.ListCategories(ctx, "u1", "")
	if len(remaining) != 1 || remaining[0].Type != core.Expense {
		t.Errorf("categories = %+v, want only the expense entry", remaining)
	}
}

func TestDeleteLender(t *testing.T) {
	cats := NewCategoryService(memory.New(), newTestCipher(t), nil)
	ctx := context.Background()

	for _, name := range []string{"Alice", "Bob"} {
		if err := cats.AddLender(ctx, "u1", name); err != nil {
			t.Fatalf("add %s: %v", name, err)
		}
	}

	if err := cats.DeleteLender(ctx, "u1", "Alice"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	// The match is exact, so a case variant of a removed name is unknown.
	if err := cats.DeleteLender(ctx, "u1", "alice"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if err := cats.DeleteLender(ctx, "u1", "  "); !errors.Is(err, core.ErrEmptyLenderName) {
		t.Errorf("err = %v, want ErrEmptyLenderName", err)
	}
	if err := cats.AddLender(ctx, "u1", ""); !errors.Is(err, core.ErrEmptyLenderName) {
		t.Errorf("add err = %v, want ErrEmptyLenderName", err)
	}

	lenders, _ := cats.ListLenders(ctx, "u1")
	if strings.Join(lenders, ",") != "Bob" {
		t.Errorf("lenders = %v, want only Bob", lenders)
	}
}
