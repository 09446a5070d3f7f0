package db

import (
	"context"
	"database/sql"
	"errors"
	"os/user"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), "sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestLogActionAndRecent(t *testing.T) {
	prevNow, prevUser := now, currentUser
	now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	currentUser = func() (*user.User, error) { return &user.User{Username: `CORP\alice`}, nil }
	defer func() { now, currentUser = prevNow, prevUser }()

	s := openTestStore(t)
	ctx := context.Background()

	if err := s.LogAction(ctx, ActionReconcile, "host1: added 1"); err != nil {
		t.Fatalf("LogAction failed: %v", err)
	}
	if err := s.LogAction(ctx, ActionRemove, "host2: removed 2"); err != nil {
		t.Fatalf("LogAction failed: %v", err)
	}

	entries, err := s.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Action != ActionRemove || entries[1].Action != ActionReconcile {
		t.Fatalf("expected newest first, got %+v", entries)
	}
	if entries[0].Username != "alice" {
		t.Fatalf("expected domain stripped username, got %q", entries[0].Username)
	}
	if !entries[1].Timestamp.Equal(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)) {
		t.Fatalf("unexpected timestamp: %v", entries[1].Timestamp)
	}

	limited, err := s.Recent(ctx, 1)
	if err != nil || len(limited) != 1 {
		t.Fatalf("expected 1 entry with limit, got %d (err %v)", len(limited), err)
	}
}

func TestOpen_FileDatabasePersists(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "audit.db")
	ctx := context.Background()

	s, err := Open(ctx, "sqlite", dsn)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := s.LogAction(ctx, ActionReconcile, "first"); err != nil {
		t.Fatalf("LogAction failed: %v", err)
	}
	_ = s.Close()

	// Reopening must not fail on the existing table.
	s, err = Open(ctx, "sqlite", dsn)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer func() { _ = s.Close() }()
	entries, err := s.Recent(ctx, 0)
	if err != nil || len(entries) != 1 || entries[0].Details != "first" {
		t.Fatalf("unexpected entries after reopen: %+v (err %v)", entries, err)
	}
}

func TestOpen_UnsupportedType(t *testing.T) {
	if _, err := Open(context.Background(), "oracle", "x"); err == nil {
		t.Fatalf("expected error for unsupported type")
	}
}

func TestDriverFor(t *testing.T) {
	for in, want := range map[string]string{"sqlite": "sqlite", "postgres": "pgx", "mysql": "mysql"} {
		got, err := driverFor(in)
		if err != nil || got != want {
			t.Fatalf("driverFor(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
}

func TestOpen_SQLOpenFailure(t *testing.T) {
	prev := sqlOpenFunc
	defer func() { sqlOpenFunc = prev }()
	boom := errors.New("boom")
	sqlOpenFunc = func(string, string) (*sql.DB, error) { return nil, boom }

	_, err := Open(context.Background(), "postgres", "postgres://x")
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped open error, got %v", err)
	}
}

func TestOsUsername_Fallback(t *testing.T) {
	prev := currentUser
	defer func() { currentUser = prev }()
	currentUser = func() (*user.User, error) { return nil, errors.New("no user") }
	if got := osUsername(); got != "unknown" {
		t.Fatalf("expected 'unknown', got %q", got)
	}
}
