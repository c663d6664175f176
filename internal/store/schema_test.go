package store

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

// The schema must stay portable across SQLite drivers: deployments use the
// pure-Go driver, but operators inspect the database with cgo-based
// tooling.
func TestSchemaAppliesUnderCgoDriver(t *testing.T) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	if _, err := db.Exec(Schema); err != nil {
		t.Fatalf("apply schema: %v", err)
	}
	// Applying twice must be a no-op thanks to IF NOT EXISTS.
	if _, err := db.Exec(Schema); err != nil {
		t.Fatalf("re-apply schema: %v", err)
	}

	for _, table := range []string{"events", "agents", "sessions", "tasks", "tool_usage", "token_usage"} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		if err != nil {
			t.Errorf("table %s missing: %v", table, err)
		}
	}
}
