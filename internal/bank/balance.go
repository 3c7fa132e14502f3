// Package bank applies transaction deltas to bank-account balances and
// enforces the account-list rules: case-insensitive name uniqueness on
// creation, the Cash account's deletion exemption, and the creation-date
// cutoff that keeps back-dated transactions from rewriting an account's
// opening balance.
package bank

import (
	"fmt"
	"strings"

	"fintrack/internal/core"
)

// ApplyDelta applies a signed amount to the named account and returns a new
// account list; the input is never mutated. Lookup is by exact accountName
// (the rest of the system keys accounts case-sensitively) and a missing
// account is a silent no-op: a transaction may reference a bank that was
// later renamed or removed.
//
// The delta applies only when the transaction date is on or after the
// account's creation date; the Cash account is exempt from that cutoff.
// Dates compare lexically, which is correct exactly because core.Date is
// always YYYY-MM-DD.
func ApplyDelta(accounts []core.BankAccount, accountName, amount string, txnType core.TransactionType, txnDate core.Date) ([]core.BankAccount, error) {
	value, err := core.ParseAmount(amount)
	if err != nil {
		return nil, fmt.Errorf("parse amount %q: %w", amount, err)
	}

	out := make([]core.BankAccount, len(accounts))
	copy(out, accounts)
	for i := range out {
		if out[i].AccountName != accountName {
			continue
		}
		if accountName != core.CashAccount && txnDate < out[i].CreateDate {
			break
		}
		switch txnType {
		case core.Income:
			out[i].InitialBalance += value
		case core.Expense:
			out[i].InitialBalance -= value
		}
		break
	}
	return out, nil
}

// AddAccount appends a new account, rejecting names that already exist under
// a case-insensitive comparison. On rejection the input list is returned
// unchanged alongside ErrDuplicateEntity.
func AddAccount(accounts []core.BankAccount, acct core.BankAccount) ([]core.BankAccount, error) {
	if err := acct.Validate(); err != nil {
		return accounts, err
	}
	lowered := strings.ToLower(acct.AccountName)
	for _, existing := range accounts {
		if strings.ToLower(existing.AccountName) == lowered {
			return accounts, fmt.Errorf("account %q: %w", acct.AccountName, core.ErrDuplicateEntity)
		}
	}
	out := make([]core.BankAccount, len(accounts), len(accounts)+1)
	copy(out, accounts)
	return append(out, acct), nil
}

// RemoveAccount deletes an account by exact name. Accounts of the Cash type
// cannot be deleted; an unknown name yields ErrNotFound.
func RemoveAccount(accounts []core.BankAccount, accountName string) ([]core.BankAccount, error) {
	for i, acct := range accounts {
		if acct.AccountName != accountName {
			continue
		}
		if acct.AccountType == core.CashAccount {
			return accounts, core.ErrCashAccountUndeletable
		}
		out := make([]core.BankAccount, 0, len(accounts)-1)
		out = append(out, accounts[:i]...)
		return append(out, accounts[i+1:]...), nil
	}
	return accounts, fmt.Errorf("account %q: %w", accountName, core.ErrNotFound)
}

// Find returns the account with the exact name, or ErrNotFound.
func Find(accounts []core.BankAccount, accountName string) (core.BankAccount, error) {
	for _, acct := range accounts {
		if acct.AccountName == accountName {
			return acct, nil
		}
	}
	return core.BankAccount{}, fmt.Errorf("account %q: %w", accountName, core.ErrNotFound)
}
