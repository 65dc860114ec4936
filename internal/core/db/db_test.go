package db

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/solatis/beacon/internal/types"
)

func openMigrated(t *testing.T) *Queries {
	t.Helper()
	conn, err := Open("sqlite::memory:")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := MigrateUp(conn); err != nil {
		t.Fatalf("MigrateUp failed: %v", err)
	}
	q, err := LoadQueries(conn)
	if err != nil {
		t.Fatalf("LoadQueries failed: %v", err)
	}
	return q
}

func TestOpen(t *testing.T) {
	t.Run("unsupported scheme", func(t *testing.T) {
		_, err := Open("mysql://localhost/beacon")
		if !errors.Is(err, types.ErrUnsupportedDatabase) {
			t.Errorf("Open() error = %v, want ErrUnsupportedDatabase", err)
		}
	})

	t.Run("sqlite file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "events.db")
		conn, err := Open("sqlite://" + path)
		if err != nil {
			t.Fatalf("Open failed: %v", err)
		}
		defer conn.Close()
		if conn.DriverName() != "sqlite3" {
			t.Errorf("DriverName() = %s, want sqlite3", conn.DriverName())
		}
	})
}

func TestMigrateUp(t *testing.T) {
	conn, err := Open("sqlite::memory:")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer conn.Close()

	before, err := MigrateStatus(conn)
	if err != nil {
		t.Fatalf("MigrateStatus failed: %v", err)
	}
	if len(before) == 0 {
		t.Fatal("expected embedded migrations")
	}
	for _, s := range before {
		if s.Applied {
			t.Errorf("migration %s applied before MigrateUp", s.ID)
		}
	}

	if err := MigrateUp(conn); err != nil {
		t.Fatalf("MigrateUp failed: %v", err)
	}
	// second run is a no-op
	if err := MigrateUp(conn); err != nil {
		t.Fatalf("second MigrateUp failed: %v", err)
	}

	after, err := MigrateStatus(conn)
	if err != nil {
		t.Fatalf("MigrateStatus failed: %v", err)
	}
	for _, s := range after {
		if !s.Applied {
			t.Errorf("migration %s not applied", s.ID)
		}
		if s.AppliedAt == nil {
			t.Errorf("migration %s has no applied_at", s.ID)
		}
	}
}

func TestMigrateUp_ChecksumMismatch(t *testing.T) {
	conn, err := Open("sqlite::memory:")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer conn.Close()

	if err := MigrateUp(conn); err != nil {
		t.Fatalf("MigrateUp failed: %v", err)
	}
	if _, err := conn.Exec("UPDATE migrations SET checksum = 'tampered'"); err != nil {
		t.Fatal(err)
	}

	err = MigrateUp(conn)
	if err == nil || !strings.Contains(err.Error(), "checksum mismatch") {
		t.Errorf("MigrateUp() error = %v, want checksum mismatch", err)
	}
}

func TestQueries(t *testing.T) {
	q := openMigrated(t)

	if _, err := q.Exec("insert-event", "r1", "e1", "ue", "iglu:com.acme/a/jsonschema/1-0-0", int64(1000), []byte("x")); err != nil {
		t.Fatalf("insert-event failed: %v", err)
	}

	var count int
	if err := q.Get("count-events", &count); err != nil {
		t.Fatalf("count-events failed: %v", err)
	}
	if count != 1 {
		t.Errorf("count-events = %d, want 1", count)
	}

	if _, err := q.Exec("no-such-query"); err == nil {
		t.Error("expected error for unknown query name")
	}
}

func TestStripComments(t *testing.T) {
	got := stripComments("-- header\nCREATE TABLE t (a INT);\n  -- indented\nSELECT 1;")
	want := "CREATE TABLE t (a INT);\nSELECT 1;"
	if got != want {
		t.Errorf("stripComments() = %q, want %q", got, want)
	}
}
