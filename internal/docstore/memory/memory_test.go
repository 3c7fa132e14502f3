package memory

import (
	"context"
	"testing"

	"fintrack/internal/docstore"
)

func TestSetGetRoundTrip(t *testing.T) {
	s := New()
	ctx := context.Background()

	exists, _, err := s.Get(ctx, "transactions", "u1")
	if err != nil || exists {
		t.Fatalf("expected missing document, exists=%v err=%v", exists, err)
	}

	if err := s.Set(ctx, "transactions", "u1", docstore.Document{"income": []any{}}, false); err != nil {
		t.Fatalf("set: %v", err)
	}
	exists, doc, err := s.Get(ctx, "transactions", "u1")
	if err != nil || !exists {
		t.Fatalf("get after set: exists=%v err=%v", exists, err)
	}
	if _, ok := doc["income"]; !ok {
		t.Fatalf("unexpected document: %v", doc)
	}
}

func TestMergeAndArrayUnion(t *testing.T) {
	s := New()
	ctx := context.Background()

	if err := s.Set(ctx, "banks", "u1", docstore.Document{"banks": []any{"a"}, "note": "n"}, false); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.Set(ctx, "banks", "u1", docstore.Document{"banks": docstore.ArrayUnion("b", "a")}, true); err != nil {
		t.Fatalf("merge set: %v", err)
	}

	_, doc, _ := s.Get(ctx, "banks", "u1")
	banks := doc["banks"].([]any)
	if len(banks) != 2 || banks[0] != "a" || banks[1] != "b" {
		t.Errorf("banks = %v, want [a b]", banks)
	}
	if doc["note"] != "n" {
		t.Errorf("merge dropped untouched field: %v", doc)
	}
}

func TestUpdateRequiresExisting(t *testing.T) {
	s := New()
	ctx := context.Background()

	if err := s.Update(ctx, "banks", "nope", docstore.Document{"x": 1}); err != docstore.ErrNotFound {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}

	if err := s.Set(ctx, "banks", "u1", docstore.Document{"x": 1}, false); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.Update(ctx, "banks", "u1", docstore.Document{"y": 2}); err != nil {
		t.Fatalf("update: %v", err)
	}
	_, doc, _ := s.Get(ctx, "banks", "u1")
	if doc["x"] != float64(1) || doc["y"] != float64(2) {
		t.Errorf("unexpected document after update: %v", doc)
	}
}

func TestSubscribeDeliversInitialAndLaterSnapshots(t *testing.T) {
	s := New()
	ctx := context.Background()

	var snaps []docstore.Document
	var existed []bool
	sub, err := s.Subscribe(ctx, "categories", "u1", func(exists bool, d docstore.Document) {
		existed = append(existed, exists)
		snaps = append(snaps, d)
	})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	if err := s.Set(ctx, "categories", "u1", docstore.Document{"category": []any{"food"}}, false); err != nil {
		t.Fatalf("set: %v", err)
	}
	sub.Cancel()
	if err := s.Set(ctx, "categories", "u1", docstore.Document{"category": []any{"rent"}}, false); err != nil {
		t.Fatalf("set after cancel: %v", err)
	}

	if len(snaps) != 2 {
		t.Fatalf("got %d snapshots, want 2", len(snaps))
	}
	if existed[0] {
		t.Errorf("initial snapshot reported an existing document")
	}
	if !existed[1] {
		t.Errorf("post-write snapshot reported a missing document")
	}
}

func TestGetReturnsCopy(t *testing.T) {
	s := New()
	ctx := context.Background()

	if err := s.Set(ctx, "banks", "u1", docstore.Document{"banks": []any{"a"}}, false); err != nil {
		t.Fatalf("set: %v", err)
	}
	_, doc, _ := s.Get(ctx, "banks", "u1")
	doc["banks"] = []any{"tampered"}

	_, fresh, _ := s.Get(ctx, "banks", "u1")
	banks := fresh["banks"].([]any)
	if len(banks) != 1 || banks[0] != "a" {
		t.Errorf("stored document was aliased: %v", banks)
	}
}
