// Package docstore defines the key-addressed document store the services
// persist user data to, plus the write semantics (merge, array-union) and
// snapshot subscription model shared by every backend.
//
// Documents are JSON-shaped maps keyed by (collection, id); in this system
// the id is always the owning user's uid. Writes are last-write-wins at
// document granularity.
package docstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"
)

// Document is a JSON-shaped document body.
type Document = map[string]any

// ErrNotFound is returned by Update when the target document does not exist.
var ErrNotFound = errors.New("document not found")

// Union is a field-level marker that appends values to a list field instead
// of replacing it. Values already present in the list are not appended again.
type Union struct {
	Values []any
}

// ArrayUnion builds a Union marker for use as a field value in Set or Update.
func ArrayUnion(values ...any) Union {
	return Union{Values: values}
}

// SnapshotFunc receives the current document state: once at subscribe time
// and then after every subsequent write.
type SnapshotFunc func(exists bool, data Document)

// Subscription is a live snapshot feed. Cancel stops delivery; it is safe to
// call more than once.
type Subscription interface {
	Cancel()
}

// Store is the document-store collaborator contract.
type Store interface {
	// Get returns the document and whether it exists.
	Get(ctx context.Context, collection, id string) (bool, Document, error)
	// Set writes a document. With merge, top-level fields fold into the
	// existing document; without, the document is replaced.
	Set(ctx context.Context, collection, id string, data Document, merge bool) error
	// Update merges fields into an existing document, failing with
	// ErrNotFound when it does not exist.
	Update(ctx context.Context, collection, id string, partial Document) error
	// List returns the ids of every document in a collection.
	List(ctx context.Context, collection string) ([]string, error)
	// Subscribe registers a snapshot listener for one document.
	Subscribe(ctx context.Context, collection, id string, fn SnapshotFunc) (Subscription, error)
	// Close releases backend resources.
	Close() error
}

// ApplyWrite computes the document state after a write, resolving Union
// markers against the existing state. It never mutates its inputs.
func ApplyWrite(existing Document, exists bool, data Document, merge bool) Document {
	var out Document
	if merge && exists {
		out = cloneDocument(existing)
	} else {
		out = make(Document, len(data))
	}
	for k, v := range data {
		if union, ok := v.(Union); ok {
			out[k] = appendUnion(out[k], union)
			continue
		}
		out[k] = v
	}
	return out
}

func appendUnion(existing any, union Union) any {
	list, _ := existing.([]any)
	out := make([]any, len(list), len(list)+len(union.Values))
	copy(out, list)
	for _, v := range union.Values {
		if containsValue(out, v) {
			continue
		}
		out = append(out, v)
	}
	return out
}

// containsValue compares by JSON encoding so that values read back from a
// backend (which normalizes numbers and maps) still match the originals.
func containsValue(list []any, v any) bool {
	want, err := json.Marshal(v)
	if err != nil {
		return false
	}
	for _, item := range list {
		got, err := json.Marshal(item)
		if err == nil && bytes.Equal(got, want) {
			return true
		}
	}
	return false
}

func cloneDocument(d Document) Document {
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// Notifier fans document snapshots out to subscribers. Backends publish
// after every successful write; delivery is synchronous and in subscription
// order.
type Notifier struct {
	mu   sync.Mutex
	subs map[string][]*notifierSub
	next int
}

type notifierSub struct {
	id  int
	key string
	fn  SnapshotFunc
	n   *Notifier
}

func (s *notifierSub) Cancel() {
	s.n.mu.Lock()
	defer s.n.mu.Unlock()
	subs := s.n.subs[s.key]
	for i, sub := range subs {
		if sub.id == s.id {
			s.n.subs[s.key] = append(subs[:i], subs[i+1:]...)
			return
		}
	}
}

func NewNotifier() *Notifier {
	return &Notifier{subs: make(map[string][]*notifierSub)}
}

// Subscribe registers fn for a document and returns its subscription handle.
// The initial snapshot is the caller's responsibility (backends deliver it
// from their own current state while holding their own locks).
func (n *Notifier) Subscribe(collection, id string, fn SnapshotFunc) Subscription {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.next++
	sub := &notifierSub{id: n.next, key: docKey(collection, id), fn: fn, n: n}
	n.subs[sub.key] = append(n.subs[sub.key], sub)
	return sub
}

// Publish delivers a snapshot to every subscriber of the document.
func (n *Notifier) Publish(collection, id string, exists bool, data Document) {
	n.mu.Lock()
	subs := append([]*notifierSub(nil), n.subs[docKey(collection, id)]...)
	n.mu.Unlock()
	for _, sub := range subs {
		sub.fn(exists, data)
	}
}

func docKey(collection, id string) string {
	return collection + "/" + id
}
