package crypto

import (
	"reflect"
	"testing"
)

func testCipher(t *testing.T) *Cipher {
	t.Helper()
	key := make([]byte, KeySize)
	for i := range key {
		key[i] = byte(i)
	}
	c, err := New(key)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestEncryptDecryptTreeRoundTrip(t *testing.T) {
	c := testCipher(t)

	cases := []struct {
		name string
		in   any
	}{
		{"string", "hello"},
		{"number", 42.5},
		{"bool", true},
		{"nil", nil},
		{"list", []any{"a", "b", "c"}},
		{"empty list", []any{}},
		{"nested", map[string]any{
			"income": []any{
				map[string]any{"amount": 100.0, "category": "salary", "date": "2024-01-05"},
			},
			"expense": []any{
				map[string]any{"amount": 40.0, "category": "food", "isRecurring": false},
			},
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			enc, err := EncryptTree(tc.in, c)
			if err != nil {
				t.Fatalf("EncryptTree: %v", err)
			}
			got := DecryptTree(enc, c)
			if !reflect.DeepEqual(got, tc.in) {
				t.Errorf("round trip = %#v, want %#v", got, tc.in)
			}
		})
	}
}

func TestEncryptTreePreservesShape(t *testing.T) {
	c := testCipher(t)

	in := map[string]any{
		"banks": []any{
			map[string]any{"accountName": "SBI", "initialBalance": 1000.0},
			map[string]any{"accountName": "Cash", "initialBalance": 50.0},
		},
		"owner": "u1",
	}
	enc, err := EncryptTree(in, c)
	if err != nil {
		t.Fatalf("EncryptTree: %v", err)
	}

	m, ok := enc.(map[string]any)
	if !ok {
		t.Fatalf("encrypted root is %T, want map", enc)
	}
	if len(m) != len(in) {
		t.Errorf("key count = %d, want %d", len(m), len(in))
	}
	for k := range in {
		if _, ok := m[k]; !ok {
			t.Errorf("key %q missing after encryption", k)
		}
	}

	banks, ok := m["banks"].([]any)
	if !ok {
		t.Fatalf("banks is %T, want list", m["banks"])
	}
	if len(banks) != 2 {
		t.Errorf("banks length = %d, want 2", len(banks))
	}

	// Every leaf must actually be ciphertext, not plaintext.
	if m["owner"] == "u1" {
		t.Error("scalar leaf left in plaintext")
	}
	first, ok := banks[0].(map[string]any)
	if !ok {
		t.Fatalf("banks[0] is %T, want map", banks[0])
	}
	if first["accountName"] == "SBI" {
		t.Error("nested scalar leaf left in plaintext")
	}
}

func TestDecryptTreePassthrough(t *testing.T) {
	c := testCipher(t)

	// Plaintext that was never encrypted comes back untouched instead of
	// raising; this is how legacy unencrypted documents keep working.
	cases := []any{
		"just a plain string",
		"afyPQkqgbCSMaQfHEFuDffVF1EG3",
		map[string]any{"mixed": "plaintext", "n": 3.0},
	}
	for _, in := range cases {
		got := DecryptTree(in, c)
		if !reflect.DeepEqual(got, in) {
			t.Errorf("DecryptTree(%#v) = %#v, want passthrough", in, got)
		}
	}
}

func TestDecryptTreeMixedDocument(t *testing.T) {
	c := testCipher(t)

	encName, err := EncryptTree("groceries", c)
	if err != nil {
		t.Fatalf("EncryptTree: %v", err)
	}
	doc := map[string]any{
		"category": encName,      // encrypted field
		"legacy":   "old-value!", // field written before encryption existed
	}
	got := DecryptTree(doc, c).(map[string]any)
	if got["category"] != "groceries" {
		t.Errorf("category = %v, want groceries", got["category"])
	}
	if got["legacy"] != "old-value!" {
		t.Errorf("legacy = %v, want passthrough", got["legacy"])
	}
}

func TestDecryptWithWrongKeyPassesThrough(t *testing.T) {
	c := testCipher(t)
	other, err := New(make([]byte, KeySize))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	enc, err := EncryptTree("secret", c)
	if err != nil {
		t.Fatalf("EncryptTree: %v", err)
	}
	// Wrong key: auth fails, ciphertext is returned unchanged.
	if got := DecryptTree(enc, other); got != enc {
		t.Errorf("wrong-key decrypt = %v, want ciphertext passthrough", got)
	}
}

func TestNewRejectsBadKeySize(t *testing.T) {
	if _, err := New([]byte("short")); err == nil {
		t.Error("expected error for short key")
	}
}

func TestDeriveKey(t *testing.T) {
	salt, err := GenerateSalt()
	if err != nil {
		t.Fatalf("GenerateSalt: %v", err)
	}

	k1, err := DeriveKey("passphrase", salt)
	if err != nil {
		t.Fatalf("DeriveKey: %v", err)
	}
	if len(k1) != KeySize {
		t.Errorf("key length = %d, want %d", len(k1), KeySize)
	}

	// Deterministic for the same inputs.
	k2, err := DeriveKey("passphrase", salt)
	if err != nil {
		t.Fatalf("DeriveKey: %v", err)
	}
	if string(k1) != string(k2) {
		t.Error("same passphrase and salt produced different keys")
	}

	// Different passphrase, different key.
	k3, err := DeriveKey("other", salt)
	if err != nil {
		t.Fatalf("DeriveKey: %v", err)
	}
	if string(k1) == string(k3) {
		t.Error("different passphrases produced the same key")
	}

	if _, err := DeriveKey("", salt); err == nil {
		t.Error("expected error for empty passphrase")
	}
	if _, err := DeriveKey("p", []byte("short")); err == nil {
		t.Error("expected error for short salt")
	}
}
