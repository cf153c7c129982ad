package db

import (
	"path/filepath"
	"testing"
	"time"
)

func TestInitDBCreatesSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := InitDB(path)
	if err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	defer db.Close()

	for _, table := range []string{"chamber_state", "chamber_events"} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		if err != nil {
			t.Fatalf("table %s missing: %v", table, err)
		}
	}

	_, err = db.Exec(`INSERT INTO chamber_events (id, occurred_at, chamber_id, type, message) VALUES (?, ?, ?, ?, ?)`,
		"e1", time.Now().UTC().Format("2006-01-02 15:04:05"), 1, "POLL_FAILED", "x")
	if err != nil {
		t.Fatalf("insert event: %v", err)
	}
}

func TestInitDBIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	for i := 0; i < 2; i++ {
		db, err := InitDB(path)
		if err != nil {
			t.Fatalf("InitDB #%d: %v", i+1, err)
		}
		_ = db.Close()
	}
}
