package sessions

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"pwshare/pkg/config"
	pwerrors "pwshare/pkg/errors"
)

func newTestStore(t *testing.T) Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "sessions.db")
	store, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestNewSQLiteStore(t *testing.T) {
	store := newTestStore(t)
	if store == nil {
		t.Fatal("Store should not be nil")
	}
}

func TestInsertAndCountMatching(t *testing.T) {
	store := newTestStore(t)
	now := time.Now().Unix()

	err := store.Insert("docs", "10.0.0.1", "tok-1", now+600)
	if err != nil {
		t.Fatalf("Failed to insert session: %v", err)
	}

	count, err := store.CountMatching("docs", "tok-1", "10.0.0.1", now)
	if err != nil {
		t.Fatalf("CountMatching failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 matching session, got %d", count)
	}
}

func TestCountMatchingMismatches(t *testing.T) {
	store := newTestStore(t)
	now := time.Now().Unix()

	if err := store.Insert("docs", "10.0.0.1", "tok-1", now+600); err != nil {
		t.Fatalf("Failed to insert session: %v", err)
	}

	cases := []struct {
		name   string
		folder string
		token  string
		ip     string
		at     int64
	}{
		{"wrong folder", "other", "tok-1", "10.0.0.1", now},
		{"wrong token", "docs", "tok-2", "10.0.0.1", now},
		{"wrong ip", "docs", "tok-1", "10.0.0.2", now},
		{"expired", "docs", "tok-1", "10.0.0.1", now + 601},
	}
	for _, tc := range cases {
		count, err := store.CountMatching(tc.folder, tc.token, tc.ip, tc.at)
		if err != nil {
			t.Fatalf("%s: CountMatching failed: %v", tc.name, err)
		}
		if count != 0 {
			t.Errorf("%s: expected 0 matching sessions, got %d", tc.name, count)
		}
	}
}

func TestListValidOrder(t *testing.T) {
	store := newTestStore(t)
	now := time.Now().Unix()

	for _, tok := range []string{"a", "b", "c"} {
		if err := store.Insert("docs", "10.0.0.1", tok, now+100); err != nil {
			t.Fatalf("Failed to insert session: %v", err)
		}
	}
	if err := store.Insert("docs", "10.0.0.1", "old", now-100); err != nil {
		t.Fatalf("Failed to insert session: %v", err)
	}

	rows, err := store.ListValid(now)
	if err != nil {
		t.Fatalf("ListValid failed: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("Expected 3 valid sessions, got %d", len(rows))
	}
	for i, want := range []string{"a", "b", "c"} {
		if rows[i].Token != want {
			t.Errorf("Row %d: expected token %q, got %q", i, want, rows[i].Token)
		}
	}
}

func TestDeleteExpired(t *testing.T) {
	store := newTestStore(t)
	now := int64(1_000_000)

	if err := store.Insert("a", "10.0.0.1", "expired", now-10); err != nil {
		t.Fatalf("Failed to insert session: %v", err)
	}
	if err := store.Insert("b", "10.0.0.1", "valid", now+10000); err != nil {
		t.Fatalf("Failed to insert session: %v", err)
	}

	removed, err := store.DeleteExpired(now)
	if err != nil {
		t.Fatalf("DeleteExpired failed: %v", err)
	}
	if removed != 1 {
		t.Errorf("Expected 1 removed row, got %d", removed)
	}

	rows, err := store.ListAll()
	if err != nil {
		t.Fatalf("ListAll failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("Expected 1 remaining row, got %d", len(rows))
	}
	if rows[0].Token != "valid" {
		t.Errorf("Expected the valid row to survive, got token %q", rows[0].Token)
	}
}

func TestDeleteExpiredBoundary(t *testing.T) {
	store := newTestStore(t)
	now := int64(1_000_000)

	// A row expiring exactly at now is no longer valid but is not swept:
	// the sweep predicate is expire < now, validity is expire > now.
	if err := store.Insert("a", "10.0.0.1", "edge", now); err != nil {
		t.Fatalf("Failed to insert session: %v", err)
	}

	removed, err := store.DeleteExpired(now)
	if err != nil {
		t.Fatalf("DeleteExpired failed: %v", err)
	}
	if removed != 0 {
		t.Errorf("Expected 0 removed rows, got %d", removed)
	}

	count, err := store.CountMatching("a", "edge", "10.0.0.1", now)
	if err != nil {
		t.Fatalf("CountMatching failed: %v", err)
	}
	if count != 0 {
		t.Errorf("Row expiring at now should not validate, got count %d", count)
	}
}

func TestDeleteAll(t *testing.T) {
	store := newTestStore(t)
	now := time.Now().Unix()

	for i := 0; i < 5; i++ {
		if err := store.Insert("docs", "10.0.0.1", "tok", now+100); err != nil {
			t.Fatalf("Failed to insert session: %v", err)
		}
	}

	removed, err := store.DeleteAll()
	if err != nil {
		t.Fatalf("DeleteAll failed: %v", err)
	}
	if removed != 5 {
		t.Errorf("Expected 5 removed rows, got %d", removed)
	}

	rows, err := store.ListAll()
	if err != nil {
		t.Fatalf("ListAll failed: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("Expected empty table, got %d rows", len(rows))
	}
}

func TestFactoryUnsupportedBackend(t *testing.T) {
	_, err := New(config.SessionsConfig{Backend: "oracle", DSN: "x"})
	if !errors.Is(err, pwerrors.ErrUnsupportedBackend) {
		t.Fatalf("Expected ErrUnsupportedBackend, got %v", err)
	}
}

func TestFactoryDefaultsToSQLite(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "factory.db")
	store, err := New(config.SessionsConfig{DSN: dbPath})
	if err != nil {
		t.Fatalf("Factory failed for default backend: %v", err)
	}
	defer store.Close()

	if _, ok := store.(*SQLiteStore); !ok {
		t.Errorf("Expected a SQLiteStore, got %T", store)
	}
}

func TestSweeperRemovesExpiredRows(t *testing.T) {
	store := newTestStore(t)
	now := time.Now().Unix()

	if err := store.Insert("docs", "10.0.0.1", "stale", now-10); err != nil {
		t.Fatalf("Failed to insert session: %v", err)
	}
	if err := store.Insert("docs", "10.0.0.1", "live", now+10000); err != nil {
		t.Fatalf("Failed to insert session: %v", err)
	}

	sweeper := NewSweeper(store, time.Hour)
	sweeper.Start()
	defer sweeper.Stop()

	// The first sweep runs immediately; wait for it to land.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		rows, err := store.ListAll()
		if err != nil {
			t.Fatalf("ListAll failed: %v", err)
		}
		if len(rows) == 1 {
			if rows[0].Token != "live" {
				t.Fatalf("Wrong row survived the sweep: %q", rows[0].Token)
			}
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("Sweep did not remove the expired row in time")
}
