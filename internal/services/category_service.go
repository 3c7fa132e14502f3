package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/crypto"
	"fintrack/internal/docstore"
)

// CategoryService manages the user's category and lender lists, which live
// in the same per-user document.
type CategoryService struct {
	store      docstore.Store
	cipher     *crypto.Cipher
	amqpClient *amqp.Client
}

func NewCategoryService(store docstore.Store, cipher *crypto.Cipher, amqpClient *amqp.Client) *CategoryService {
	return &CategoryService{
		store:      store,
		cipher:     cipher,
		amqpClient: amqpClient,
	}
}

// AddCategory stores a category. Names are lowercased before storage and the
// duplicate check matches lowercased name plus exact type, so the same name
// may exist once per transaction type.
func (s *CategoryService) AddCategory(ctx context.Context, uid string, cat core.Category) (core.Category, error) {
	cat.Category = strings.ToLower(strings.TrimSpace(cat.Category))
	if err := cat.Validate(); err != nil {
		return core.Category{}, fmt.Errorf("validate category: %w", err)
	}

	existing, err := s.ListCategories(ctx, uid, "")
	if err != nil {
		return core.Category{}, err
	}
	for _, c := range existing {
		if c.Category == cat.Category && c.Type == cat.Type {
			return core.Category{}, core.ErrDuplicateEntity
		}
	}

	enc, err := encryptValue(cat, s.cipher)
	if err != nil {
		return core.Category{}, err
	}
	err = s.store.Set(ctx, CollectionCategories, uid, docstore.Document{fieldCategory: docstore.ArrayUnion(enc)}, true)
	if err != nil {
		return core.Category{}, fmt.Errorf("save category: %w", err)
	}

	s.publishChange(ctx, uid)

	slog.InfoContext(ctx, "Category added",
		"uid", uid,
		"category", cat.Category,
		"type", cat.Type)

	return cat, nil
}

// ListCategories returns the user's categories, optionally filtered by
// transaction type.
func (s *CategoryService) ListCategories(ctx context.Context, uid string, typ core.TransactionType) ([]core.Category, error) {
	_, doc, err := s.store.Get(ctx, CollectionCategories, uid)
	if err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}

	raw := listField(doc, fieldCategory)
	cats := make([]core.Category, 0, len(raw))
	for _, entry := range raw {
		var cat core.Category
		if err := decodeValue(entry, s.cipher, &cat); err != nil {
			return nil, err
		}
		if typ != "" && cat.Type != typ {
			continue
		}
		cats = append(cats, cat)
	}
	return cats, nil
}

// AddLender stores a lender name, rejecting exact duplicates.
func (s *CategoryService) AddLender(ctx context.Context, uid, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return core.ErrEmptyLenderName
	}

	lenders, err := s.ListLenders(ctx, uid)
	if err != nil {
		return err
	}
	for _, l := range lenders {
		if l == name {
			return core.ErrDuplicateEntity
		}
	}

	enc, err := encryptValue(name, s.cipher)
	if err != nil {
		return err
	}
	err = s.store.Set(ctx, CollectionCategories, uid, docstore.Document{fieldLenders: docstore.ArrayUnion(enc)}, true)
	if err != nil {
		return fmt.Errorf("save lender: %w", err)
	}

	s.publishChange(ctx, uid)

	slog.InfoContext(ctx, "Lender added", "uid", uid, "lender", name)

	return nil
}

// DeleteCategory removes a category, matching on lowercased name and exact
// type. A category referenced by any stored transaction cannot be deleted.
func (s *CategoryService) DeleteCategory(ctx context.Context, uid string, cat core.Category) error {
	cat.Category = strings.ToLower(strings.TrimSpace(cat.Category))
	if err := cat.Validate(); err != nil {
		return fmt.Errorf("validate category: %w", err)
	}

	used, err := s.categoryInUse(ctx, uid, cat)
	if err != nil {
		return err
	}
	if used {
		return fmt.Errorf("category %q: %w", cat.Category, core.ErrEntityInUse)
	}

	_, doc, err := s.store.Get(ctx, CollectionCategories, uid)
	if err != nil {
		return fmt.Errorf("load categories: %w", err)
	}

	raw := listField(doc, fieldCategory)
	kept := make([]any, 0, len(raw))
	found := false
	for _, entry := range raw {
		var existing core.Category
		if err := decodeValue(entry, s.cipher, &existing); err == nil &&
			existing.Category == cat.Category && existing.Type == cat.Type {
			found = true
			continue
		}
		kept = append(kept, entry)
	}
	if !found {
		return fmt.Errorf("category %q: %w", cat.Category, core.ErrNotFound)
	}

	err = s.store.Set(ctx, CollectionCategories, uid, docstore.Document{fieldCategory: kept}, true)
	if err != nil {
		return fmt.Errorf("save categories: %w", err)
	}

	s.publishChange(ctx, uid)

	slog.InfoContext(ctx, "Category deleted",
		"uid", uid,
		"category", cat.Category,
		"type", cat.Type)

	return nil
}

// categoryInUse reports whether any income or expense transaction references
// the category. The name comparison is case-insensitive, like the duplicate
// check; the type must match exactly.
func (s *CategoryService) categoryInUse(ctx context.Context, uid string, cat core.Category) (bool, error) {
	_, doc, err := s.store.Get(ctx, CollectionTransactions, uid)
	if err != nil {
		return false, fmt.Errorf("load transactions: %w", err)
	}

	for _, field := range []string{fieldIncome, fieldExpense} {
		for _, entry := range listField(doc, field) {
			var txn core.Transaction
			if err := decodeValue(entry, s.cipher, &txn); err != nil {
				continue
			}
			if strings.ToLower(txn.Category) == cat.Category && txn.Type == cat.Type {
				return true, nil
			}
		}
	}
	return false, nil
}

// ListLenders returns the user's lender names.
func (s *CategoryService) ListLenders(ctx context.Context, uid string) ([]string, error) {
	_, doc, err := s.store.Get(ctx, CollectionCategories, uid)
	if err != nil {
		return nil, fmt.Errorf("load lenders: %w", err)
	}

	raw := listField(doc, fieldLenders)
	lenders := make([]string, 0, len(raw))
	for _, entry := range raw {
		var name string
		if err := decodeValue(entry, s.cipher, &name); err != nil {
			return nil, err
		}
		lenders = append(lenders, name)
	}
	return lenders, nil
}

// DeleteLender removes a lender by exact name.
func (s *CategoryService) DeleteLender(ctx context.Context, uid, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return core.ErrEmptyLenderName
	}

	_, doc, err := s.store.Get(ctx, CollectionCategories, uid)
	if err != nil {
		return fmt.Errorf("load lenders: %w", err)
	}

	raw := listField(doc, fieldLenders)
	kept := make([]any, 0, len(raw))
	found := false
	for _, entry := range raw {
		var existing string
		if err := decodeValue(entry, s.cipher, &existing); err == nil && existing == name {
			found = true
			continue
		}
		kept = append(kept, entry)
	}
	if !found {
		return fmt.Errorf("lender %q: %w", name, core.ErrNotFound)
	}

	err = s.store.Set(ctx, CollectionCategories, uid, docstore.Document{fieldLenders: kept}, true)
	if err != nil {
		return fmt.Errorf("save lenders: %w", err)
	}

	s.publishChange(ctx, uid)

	slog.InfoContext(ctx, "Lender deleted", "uid", uid, "lender", name)

	return nil
}

func (s *CategoryService) publishChange(ctx context.Context, uid string) {
	if s.amqpClient == nil {
		return
	}
	if err := s.amqpClient.PublishDocumentChanged(ctx, CollectionCategories, uid); err != nil {
		slog.ErrorContext(ctx, "Failed to publish change message",
			"collection", CollectionCategories,
			"uid", uid,
			"error", err)
	}
}
