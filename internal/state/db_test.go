package state

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// openTestDB opens a migrated store in a temp directory.
func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Migrate(); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return db
}

func TestOpen_CreatesFileAndParents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "project", ".devcrew", "state.db")

	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	if db.Path() != path {
		t.Errorf("Path() = %q, want %q", db.Path(), path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("database file missing: %v", err)
	}
}

func TestOpen_Pragmas(t *testing.T) {
	db := openTestDB(t)

	var fk int
	if err := db.QueryRow("PRAGMA foreign_keys").Scan(&fk); err != nil {
		t.Fatal(err)
	}
	if fk != 1 {
		t.Errorf("foreign_keys = %d, want 1", fk)
	}

	var mode string
	if err := db.QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatal(err)
	}
	if !strings.EqualFold(mode, "wal") {
		t.Errorf("journal_mode = %q, want wal", mode)
	}
}

func TestOpen_PathWithURLCharacters(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "odd?name #1")
	path := filepath.Join(dir, "state.db")

	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	if _, err := os.Stat(path); err != nil {
		t.Errorf("database file not at %q: %v", path, err)
	}
	var fk int
	if err := db.QueryRow("PRAGMA foreign_keys").Scan(&fk); err != nil {
		t.Fatal(err)
	}
	if fk != 1 {
		t.Errorf("foreign_keys = %d, want 1; pragmas lost to the path", fk)
	}
}

func TestDSN_EscapesPath(t *testing.T) {
	got := dsn("/tmp/a?b#c/state.db")
	if !strings.HasPrefix(got, "file:/tmp/a%3Fb%23c/state.db?") {
		t.Errorf("dsn = %q", got)
	}
	if strings.Count(got, "?") != 1 || strings.Contains(got, "#") {
		t.Errorf("dsn = %q, want a single query and no fragment", got)
	}
}

func TestClose_RejectsFurtherQueries(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatal(err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := db.Query("SELECT 1"); err == nil {
		t.Error("query after Close should fail")
	}
}

func TestMigrate_CreatesTables(t *testing.T) {
	db := openTestDB(t)

	for _, table := range []string{"schema_version", "sessions", "assignments", "iterations"} {
		t.Run(table, func(t *testing.T) {
			var name string
			err := db.QueryRow("SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&name)
			if err != nil {
				t.Errorf("table %s missing: %v", table, err)
			}
		})
	}
}

func TestMigrate_Versions(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	for i := 0; i < 2; i++ {
		if err := db.Migrate(); err != nil {
			t.Fatalf("Migrate #%d: %v", i+1, err)
		}
	}

	got, err := db.SchemaVersion()
	if err != nil {
		t.Fatal(err)
	}
	if want := migrations[len(migrations)-1].version; got != want {
		t.Errorf("SchemaVersion() = %d, want %d", got, want)
	}

	var rows int
	if err := db.QueryRow("SELECT COUNT(*) FROM schema_version").Scan(&rows); err != nil {
		t.Fatal(err)
	}
	if rows != len(migrations) {
		t.Errorf("schema_version rows = %d, want one per migration", rows)
	}
}

func TestMigrations_Ordered(t *testing.T) {
	for i, m := range migrations {
		if m.version != i+1 {
			t.Errorf("migrations[%d] has version %d, want %d", i, m.version, i+1)
		}
	}
}

func TestTransaction_RollsBackOnError(t *testing.T) {
	db := openTestDB(t)
	boom := errors.New("boom")

	err := db.Transaction(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`INSERT INTO sessions (id, mode, request, started_at) VALUES ('s1', 'run', 'r', ?)`,
			formatTime(time.Now())); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Transaction() = %v, want boom", err)
	}

	if n, _ := db.CountSessions(); n != 0 {
		t.Errorf("rolled back insert visible: %d sessions", n)
	}
}

func TestProjectDBPath(t *testing.T) {
	want := filepath.Join("/work/wallet", ".devcrew", "state.db")
	if got := ProjectDBPath("/work/wallet"); got != want {
		t.Errorf("ProjectDBPath() = %q, want %q", got, want)
	}
}

func TestTimeCodec(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 30, 45, 123456789, time.UTC)

	got, err := parseTime(formatTime(now))
	if err != nil || !got.Equal(now) {
		t.Errorf("round trip = %v, %v; want %v", got, err, now)
	}
	if earlier := formatTime(now.Add(-time.Millisecond)); earlier >= formatTime(now) {
		t.Errorf("%q should sort before %q", earlier, formatTime(now))
	}

	tests := []struct {
		name  string
		in    sql.NullString
		isNil bool
	}{
		{"null", sql.NullString{}, true},
		{"garbage", sql.NullString{String: "garbage", Valid: true}, true},
		{"valid", formatNullableTime(&now), false},
	}
	for _, tt := range tests {
		if got := parseNullableTime(tt.in); (got == nil) != tt.isNil {
			t.Errorf("%s: parseNullableTime() = %v", tt.name, got)
		}
	}
	if formatNullableTime(nil).Valid {
		t.Error("nil time should format as NULL")
	}
}
