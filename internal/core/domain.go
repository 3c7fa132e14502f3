package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

const (
	Daily     RecurrenceKind = "daily"
	Weekly    RecurrenceKind = "weekly"
	Monthly   RecurrenceKind = "monthly"
	Quarterly RecurrenceKind = "quarterly"
	Yearly    RecurrenceKind = "yearly"
)

const (
	StatusActive RecurringStatus = "active"
	StatusPaused RecurringStatus = "paused"
	StatusEnded  RecurringStatus = "ended"
)

// LoanCategory marks transactions that belong to a lender's loan ledger.
const LoanCategory = "loan"

// CashAccount is the built-in account exempt from the creation-date cutoff
// and from deletion.
const CashAccount = "Cash"

type (
	TransactionType string
	RecurrenceKind  string
	RecurringStatus string

	// Date is a calendar date formatted YYYY-MM-DD. The format is an
	// invariant: ordering comparisons on Date values are lexical and are
	// only valid while every Date in the system carries this exact shape.
	Date string

	Transaction struct {
		TransactionID string          `json:"transactionId"`
		Type          TransactionType `json:"type"`
		Amount        float64         `json:"amount"`
		Category      string          `json:"category"`
		AccountName   string          `json:"accountName"`
		Date          Date            `json:"date"`
		Description   string          `json:"description,omitempty"`
		BusinessName  string          `json:"businessName,omitempty"`
		LenderName    string          `json:"lenderName,omitempty"`
		CreatedAt     int64           `json:"createdAt"`
		IsRecurring   bool            `json:"isRecurring,omitempty"`
	}

	RecurringTransaction struct {
		Transaction
		RecurringTransactionID string          `json:"recurringTransactionId"`
		StartDate              Date            `json:"startDate"`
		RecurringType          RecurrenceKind  `json:"recurringType"`
		// EndDate is epoch milliseconds; zero means no end date.
		EndDate       int64           `json:"endDate,omitempty"`
		Status        RecurringStatus `json:"status"`
		NextExecution int64           `json:"nextExecution"`
	}

	BankAccount struct {
		AccountName    string  `json:"accountName"`
		BankName       string  `json:"bankName"`
		AccountType    string  `json:"accountType"`
		CreateDate     Date    `json:"createDate"`
		InitialBalance float64 `json:"initialBalance"`
		BankID         string  `json:"bankId"`
	}

	Category struct {
		Category string          `json:"category"`
		Type     TransactionType `json:"type"`
	}
)

var (
	ErrInvalidAmount          = errors.New("invalid amount")
	ErrInvalidDate            = errors.New("invalid date")
	ErrInvalidRecurrenceKind  = errors.New("invalid recurrence kind")
	ErrDuplicateEntity        = errors.New("entity already exists")
	ErrNotFound               = errors.New("entity not found")
	ErrInvalidEntity          = errors.New("invalid entity")
	ErrEmptyCategory          = errors.New("empty category")
	ErrEmptyAccountName       = errors.New("empty account name")
	ErrEmptyLenderName        = errors.New("empty lender name")
	ErrEntityInUse            = errors.New("entity is in use")
	ErrCashAccountUndeletable = errors.New("cash account cannot be deleted")
)

const dateLayout = "2006-01-02"

// NewDate builds a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return DateOf(time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC))
}

// DateOf truncates a time to its calendar date.
func DateOf(t time.Time) Date {
	return Date(t.Format(dateLayout))
}

// ParseDate validates and normalizes a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return "", ErrInvalidDate
	}
	return DateOf(t), nil
}

// Time converts the date to a UTC midnight time. A malformed Date yields the
// zero time; Validate first when the source is untrusted.
func (d Date) Time() time.Time {
	t, err := time.Parse(dateLayout, string(d))
	if err != nil {
		return time.Time{}
	}
	return t
}

// Epoch returns the date as epoch milliseconds at UTC midnight.
func (d Date) Epoch() int64 {
	return d.Time().UnixMilli()
}

func (d Date) Validate() error {
	if _, err := time.Parse(dateLayout, string(d)); err != nil {
		return ErrInvalidDate
	}
	return nil
}

func (d Date) IsZero() bool { return d == "" }

func (t TransactionType) Validate() error {
	switch t {
	case Income, Expense:
		return nil
	default:
		return fmt.Errorf("invalid transaction type: %w", ErrInvalidEntity)
	}
}

func (k RecurrenceKind) Validate() error {
	switch k {
	case Daily, Weekly, Monthly, Quarterly, Yearly:
		return nil
	default:
		return ErrInvalidRecurrenceKind
	}
}

func (tx Transaction) Validate() error {
	if err := tx.Type.Validate(); err != nil {
		return err
	}
	if tx.Amount <= 0 {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(tx.Category) == "" {
		return ErrEmptyCategory
	}
	if strings.TrimSpace(tx.AccountName) == "" {
		return ErrEmptyAccountName
	}
	if err := tx.Date.Validate(); err != nil {
		return err
	}
	if len(tx.Description) > 200 {
		return fmt.Errorf("description too long (max 200 characters): %w", ErrInvalidEntity)
	}
	return nil
}

func (rt RecurringTransaction) Validate() error {
	if err := rt.Transaction.Validate(); err != nil {
		return err
	}
	if err := rt.StartDate.Validate(); err != nil {
		return fmt.Errorf("invalid start date: %w", err)
	}
	if err := rt.RecurringType.Validate(); err != nil {
		return err
	}
	if rt.EndDate != 0 && rt.EndDate < rt.StartDate.Epoch() {
		return fmt.Errorf("end date must be after start date: %w", ErrInvalidEntity)
	}
	return nil
}

func (a BankAccount) Validate() error {
	if strings.TrimSpace(a.AccountName) == "" {
		return ErrEmptyAccountName
	}
	if strings.TrimSpace(a.BankName) == "" {
		return fmt.Errorf("empty bank name: %w", ErrInvalidEntity)
	}
	if strings.TrimSpace(a.AccountType) == "" {
		return fmt.Errorf("empty account type: %w", ErrInvalidEntity)
	}
	if err := a.CreateDate.Validate(); err != nil {
		return err
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Category) == "" {
		return ErrEmptyCategory
	}
	return c.Type.Validate()
}
