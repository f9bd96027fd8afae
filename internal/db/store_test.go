package db

import (
	"context"
	"errors"
	"testing"
)

func TestSetItemOverwritesValue(t *testing.T) {
	store, cleanup := newTestStore(t)
	defer cleanup()

	ctx := context.Background()
	if err := store.SetItem(ctx, "darkMode", "false"); err != nil {
		t.Fatalf("set item: %v", err)
	}
	if err := store.SetItem(ctx, "darkMode", "true"); err != nil {
		t.Fatalf("overwrite item: %v", err)
	}

	item, err := store.GetItem(ctx, "darkMode")
	if err != nil {
		t.Fatalf("get item: %v", err)
	}
	if item.Value != "true" {
		t.Fatalf("expected value 'true', got %q", item.Value)
	}

	keys, err := store.Keys(ctx)
	if err != nil {
		t.Fatalf("list keys: %v", err)
	}
	if len(keys) != 1 {
		t.Fatalf("expected 1 key, got %d", len(keys))
	}
}

func TestRemoveItem(t *testing.T) {
	store, cleanup := newTestStore(t)
	defer cleanup()

	ctx := context.Background()
	if err := store.SetItem(ctx, "loggedInUser", `{"jwt":"abc"}`); err != nil {
		t.Fatalf("set item: %v", err)
	}
	if err := store.RemoveItem(ctx, "loggedInUser"); err != nil {
		t.Fatalf("remove item: %v", err)
	}
	if _, err := store.GetItem(ctx, "loggedInUser"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := store.RemoveItem(ctx, "loggedInUser"); err != nil {
		t.Fatalf("remove missing item: %v", err)
	}
}

func TestEmptyKeyRejected(t *testing.T) {
	store, cleanup := newTestStore(t)
	defer cleanup()

	if err := store.SetItem(context.Background(), "  ", "x"); err == nil {
		t.Fatalf("expected error for empty key")
	}
}

func newTestStore(t *testing.T) (*Store, func()) {
	t.Helper()
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	return NewStore(db), func() {
		_ = db.Close()
	}
}
