package kvstore

import (
	"context"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "kv.db"))
	if err != nil {
		t.Fatalf("unexpected error opening store: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

func TestStorePutGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	if err := store.Put(ctx, "cart:session-1", []byte(`{"a":1}`)); err != nil {
		t.Fatalf("unexpected put error: %v", err)
	}

	value, ok, err := store.Get(ctx, "cart:session-1")
	if err != nil {
		t.Fatalf("unexpected get error: %v", err)
	}
	if !ok {
		t.Fatal("expected value to exist")
	}
	if string(value) != `{"a":1}` {
		t.Fatalf("unexpected value %q", value)
	}
}

func TestStorePutReplacesExisting(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	if err := store.Put(ctx, "k", []byte("one")); err != nil {
		t.Fatalf("unexpected put error: %v", err)
	}
	if err := store.Put(ctx, "k", []byte("two")); err != nil {
		t.Fatalf("unexpected put error: %v", err)
	}

	value, ok, err := store.Get(ctx, "k")
	if err != nil || !ok {
		t.Fatalf("unexpected get result: %v %v", ok, err)
	}
	if string(value) != "two" {
		t.Fatalf("expected replaced value, got %q", value)
	}
}

func TestStoreGetMissingKey(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	_, ok, err := store.Get(ctx, "absent")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("expected missing key to report absence")
	}
}

func TestStoreDeleteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	if err := store.Put(ctx, "k", []byte("v")); err != nil {
		t.Fatalf("unexpected put error: %v", err)
	}
	if err := store.Delete(ctx, "k"); err != nil {
		t.Fatalf("unexpected delete error: %v", err)
	}
	if err := store.Delete(ctx, "k"); err != nil {
		t.Fatalf("expected deleting absent key to succeed, got %v", err)
	}

	_, ok, err := store.Get(ctx, "k")
	if err != nil {
		t.Fatalf("unexpected get error: %v", err)
	}
	if ok {
		t.Fatal("expected key to be removed")
	}
}

func TestStoreRejectsEmptyKey(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	if err := store.Put(ctx, "  ", []byte("v")); err == nil {
		t.Fatal("expected error for empty key")
	}
	if _, _, err := store.Get(ctx, ""); err == nil {
		t.Fatal("expected error for empty key")
	}
}
