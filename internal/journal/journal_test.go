package journal

import (
	"context"
	"path/filepath"
	"testing"
)

// openTestStore opens a journal in a temporary directory.
func openTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(context.Background(), Config{
		Path:        filepath.Join(t.TempDir(), "journal.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})
	return store
}

func TestOpenMissingPath(t *testing.T) {
	_, err := Open(context.Background(), Config{})
	if err == nil {
		t.Fatal("Open() expected error for empty path")
	}
}

func TestRecordAndList(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	events := []string{EventConnecting, EventConnected, EventLost}
	for _, ev := range events {
		if err := store.Record(ctx, ev, "localhost:1883", ""); err != nil {
			t.Fatalf("Record(%s) error = %v", ev, err)
		}
	}

	entries, err := store.List(ctx, Filter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(entries) != len(events) {
		t.Fatalf("List() returned %d entries, want %d", len(entries), len(events))
	}

	for _, e := range entries {
		if e.ID == "" {
			t.Error("entry ID is empty")
		}
		if e.Broker != "localhost:1883" {
			t.Errorf("entry broker = %q, want localhost:1883", e.Broker)
		}
		if e.CreatedAt.IsZero() {
			t.Error("entry created_at is zero")
		}
	}
}

func TestListFilterByEvent(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.Record(ctx, EventConnected, "localhost:1883", ""); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if err := store.Record(ctx, EventLost, "localhost:1883", "keepalive timeout"); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	entries, err := store.List(ctx, Filter{Event: EventLost})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("List(lost) returned %d entries, want 1", len(entries))
	}
	if entries[0].Event != EventLost {
		t.Errorf("entry event = %q, want %q", entries[0].Event, EventLost)
	}
	if entries[0].Detail != "keepalive timeout" {
		t.Errorf("entry detail = %q, want %q", entries[0].Detail, "keepalive timeout")
	}
}

func TestListLimit(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := store.Record(ctx, EventConnected, "localhost:1883", ""); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	entries, err := store.List(ctx, Filter{Limit: 2})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("List(limit=2) returned %d entries, want 2", len(entries))
	}
}

func TestCloseNil(t *testing.T) {
	store := &Store{}
	if err := store.Close(); err != nil {
		t.Errorf("Close() on empty store error = %v, want nil", err)
	}
}
