// Package bolt is a single-file persistent document store backed by bbolt.
// Each collection maps to a bucket; documents are stored as JSON by id.
package bolt

import (
	"context"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"fintrack/internal/docstore"
)

type Store struct {
	db       *bbolt.DB
	notifier *docstore.Notifier
}

// Open opens (creating if needed) the database file at path.
func Open(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("open bolt db: %w", err)
	}
	return &Store{db: db, notifier: docstore.NewNotifier()}, nil
}

func (s *Store) Get(_ context.Context, collection, id string) (bool, docstore.Document, error) {
	var doc docstore.Document
	exists := false
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(collection))
		if bucket == nil {
			return nil
		}
		raw := bucket.Get([]byte(id))
		if raw == nil {
			return nil
		}
		if err := json.Unmarshal(raw, &doc); err != nil {
			return fmt.Errorf("unmarshal document %s/%s: %w", collection, id, err)
		}
		exists = true
		return nil
	})
	if err != nil {
		return false, nil, err
	}
	return exists, doc, nil
}

func (s *Store) Set(ctx context.Context, collection, id string, data docstore.Document, merge bool) error {
	return s.write(ctx, collection, id, data, merge, false)
}

func (s *Store) Update(ctx context.Context, collection, id string, partial docstore.Document) error {
	return s.write(ctx, collection, id, partial, true, true)
}

func (s *Store) write(_ context.Context, collection, id string, data docstore.Document, merge, mustExist bool) error {
	var snap docstore.Document
	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists([]byte(collection))
		if err != nil {
			return fmt.Errorf("create bucket %s: %w", collection, err)
		}
		var existing docstore.Document
		exists := false
		if raw := bucket.Get([]byte(id)); raw != nil {
			if err := json.Unmarshal(raw, &existing); err != nil {
				return fmt.Errorf("unmarshal document %s/%s: %w", collection, id, err)
			}
			exists = true
		}
		if mustExist && !exists {
			return docstore.ErrNotFound
		}
		next := docstore.ApplyWrite(existing, exists, data, merge)
		raw, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("marshal document %s/%s: %w", collection, id, err)
		}
		if err := bucket.Put([]byte(id), raw); err != nil {
			return fmt.Errorf("put document %s/%s: %w", collection, id, err)
		}
		// Round-trip so subscribers observe the same shapes a Get returns.
		if err := json.Unmarshal(raw, &snap); err != nil {
			return fmt.Errorf("unmarshal document %s/%s: %w", collection, id, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.notifier.Publish(collection, id, true, snap)
	return nil
}

func (s *Store) List(_ context.Context, collection string) ([]string, error) {
	var ids []string
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(collection))
		if bucket == nil {
			return nil
		}
		return bucket.ForEach(func(k, _ []byte) error {
			ids = append(ids, string(k))
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("list collection %s: %w", collection, err)
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
