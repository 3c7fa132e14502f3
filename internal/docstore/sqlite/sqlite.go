// Package sqlite is a persistent document store on a single SQLite file.
// Documents are stored as JSON rows keyed by (collection, id).
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"fintrack/internal/docstore"

	_ "modernc.org/sqlite"
)

type Store struct {
	db       *sql.DB
	notifier *docstore.Notifier

	// Serializes read-modify-write cycles; SQLite itself only guards the
	// individual statements.
	mu sync.Mutex
}

func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db, notifier: docstore.NewNotifier()}, nil
}

func (s *Store) Get(ctx context.Context, collection, id string) (bool, docstore.Document, error) {
	var body string
	err := s.db.QueryRowContext(ctx,
		`SELECT body FROM documents WHERE collection = ? AND id = ?`,
		collection, id,
	).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil, nil
	}
	if err != nil {
		return false, nil, fmt.Errorf("select document %s/%s: %w", collection, id, err)
	}

	var doc docstore.Document
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		return false, nil, fmt.Errorf("unmarshal document %s/%s: %w", collection, id, err)
	}
	return true, doc, nil
}

func (s *Store) Set(ctx context.Context, collection, id string, data docstore.Document, merge bool) error {
	return s.write(ctx, collection, id, data, merge, false)
}

func (s *Store) Update(ctx context.Context, collection, id string, partial docstore.Document) error {
	return s.write(ctx, collection, id, partial, true, true)
}

func (s *Store) write(ctx context.Context, collection, id string, data docstore.Document, merge, mustExist bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	exists, existing, err := s.Get(ctx, collection, id)
	if err != nil {
		return err
	}
	if mustExist && !exists {
		return docstore.ErrNotFound
	}

	next := docstore.ApplyWrite(existing, exists, data, merge)
	raw, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("marshal document %s/%s: %w", collection, id, err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO documents (collection, id, body, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (collection, id) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`,
		collection, id, string(raw), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("upsert document %s/%s: %w", collection, id, err)
	}

	// Round-trip so subscribers observe the same shapes a Get returns.
	var snap docstore.Document
	if err := json.Unmarshal(raw, &snap); err != nil {
		return fmt.Errorf("unmarshal document %s/%s: %w", collection, id, err)
	}
	s.notifier.Publish(collection, id, true, snap)
	return nil
}

func (s *Store) List(ctx context.Context, collection string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM documents WHERE collection = ? ORDER BY id`, collection)
	if err != nil {
		return nil, fmt.Errorf("list collection %s: %w", collection, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ids: %w", err)
	}
	return ids, nil
}

func (s *Store) Subscribe(ctx context.Context, collection, id string, fn docstore.SnapshotFunc) (docstore.Subscription, error) {
	sub := s.notifier.Subscribe(collection, id, fn)
	exists, doc, err := s.Get(ctx, collection, id)
	if err != nil {
		sub.Cancel()
		return nil, err
	}
	fn(exists, doc)
	return sub, nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
