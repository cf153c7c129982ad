package db

import (
	"database/sql"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

// InitDB opens/creates a SQLite DB file and ensures tables exist.
func InitDB(path string) (*sql.DB, error) {
	db, err := sql.Open(sqliteDriverName, path)
	if err != nil {
		return nil, errors.Wrapf(err, "open sqlite at %q", path)
	}

	// SQLite copes badly with concurrent writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA foreign_keys = ON;",
		"PRAGMA busy_timeout = 5000;",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, errors.Wrapf(err, "set %s", pragma)
		}
	}

	if err := ensureSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "ping sqlite")
	}

	return db, nil
}

const sqliteDriverName = "sqlite"

const schemaChamberState = `
CREATE TABLE IF NOT EXISTS chamber_state (
    chamber_id INTEGER PRIMARY KEY,
    gyle_id INTEGER,
    reading TEXT,
    updated_at TIMESTAMP NOT NULL
);
`

const schemaChamberEvents = `
CREATE TABLE IF NOT EXISTS chamber_events (
    id TEXT PRIMARY KEY,
    occurred_at TIMESTAMP NOT NULL,
    chamber_id INTEGER NOT NULL,
    gyle_id INTEGER,
    type TEXT NOT NULL,
    message TEXT NOT NULL,
    meta TEXT
);
`

const schemaChamberEventsIndex = `
CREATE INDEX IF NOT EXISTS idx_chamber_events_chamber_time
    ON chamber_events (chamber_id, occurred_at);
`

func ensureSchema(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return errors.Wrap(err, "begin schema transaction")
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for i, stmt := range []string{
		schemaChamberState,
		schemaChamberEvents,
		schemaChamberEventsIndex,
	} {
		if _, err := tx.Exec(stmt); err != nil {
			return errors.Wrapf(err, "apply schema statement %d", i+1)
		}
	}

	return errors.Wrap(tx.Commit(), "commit schema transaction")
}
