// Package memory is an in-process document store used by tests and by the
// default single-binary deployment.
package memory

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"

	"fintrack/internal/docstore"
)

type Store struct {
	mu       sync.Mutex
	docs     map[string]docstore.Document
	notifier *docstore.Notifier
}

func New() *Store {
	return &Store{
		docs:     make(map[string]docstore.Document),
		notifier: docstore.NewNotifier(),
	}
}

func (s *Store) Get(_ context.Context, collection, id string) (bool, docstore.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[key(collection, id)]
	if !ok {
		return false, nil, nil
	}
	return true, snapshot(doc), nil
}

func (s *Store) Set(_ context.Context, collection, id string, data docstore.Document, merge bool) error {
	s.mu.Lock()
	existing, exists := s.docs[key(collection, id)]
	next := snapshot(docstore.ApplyWrite(existing, exists, data, merge))
	s.docs[key(collection, id)] = next
	s.mu.Unlock()
	s.notifier.Publish(collection, id, true, snapshot(next))
	return nil
}

func (s *Store) Update(_ context.Context, collection, id string, partial docstore.Document) error {
	s.mu.Lock()
	existing, exists := s.docs[key(collection, id)]
	if !exists {
		s.mu.Unlock()
		return docstore.ErrNotFound
	}
	next := snapshot(docstore.ApplyWrite(existing, true, partial, true))
	s.docs[key(collection, id)] = next
	s.mu.Unlock()
	s.notifier.Publish(collection, id, true, snapshot(next))
	return nil
}

func (s *Store) List(_ context.Context, collection string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prefix := collection + "/"
	var ids []string
	for k := range s.docs {
		if strings.HasPrefix(k, prefix) {
			ids = append(ids, strings.TrimPrefix(k, prefix))
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *Store) Subscribe(_ context.Context, collection, id string, fn docstore.SnapshotFunc) (docstore.Subscription, error) {
	s.mu.Lock()
	sub := s.notifier.Subscribe(collection, id, fn)
	doc, exists := s.docs[key(collection, id)]
	snap := snapshot(doc)
	s.mu.Unlock()
	fn(exists, snap)
	return sub, nil
}

func (s *Store) Close() error { return nil }

// snapshot deep-copies via the JSON codec so listeners and callers can never
// alias the stored document. It also normalizes values to JSON shapes, which
// matches what the persistent backends return.
func snapshot(doc docstore.Document) docstore.Document {
	if doc == nil {
		return nil
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		// Documents only ever hold JSON-shaped values.
		panic(err)
	}
	var out docstore.Document
	if err := json.Unmarshal(raw, &out); err != nil {
		panic(err)
	}
	return out
}

func key(collection, id string) string {
	return collection + "/" + id
}
