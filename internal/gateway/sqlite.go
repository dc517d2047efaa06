package gateway

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // cgo-free sqlite driver
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS records (
	owner_id   TEXT NOT NULL,
	kind       TEXT NOT NULL,
	id         TEXT NOT NULL,
	doc        TEXT NOT NULL,
	created_at TEXT NOT NULL DEFAULT (datetime('now')),
	updated_at TEXT NOT NULL DEFAULT (datetime('now')),
	PRIMARY KEY (owner_id, kind, id)
);
CREATE INDEX IF NOT EXISTS records_owner_kind_idx ON records (owner_id, kind, created_at);
`

var sqliteQueries = docQueries{
	list: `SELECT doc FROM records WHERE owner_id = ? AND kind = ? ORDER BY created_at, id`,
	upsert: `INSERT INTO records (owner_id, kind, id, doc) VALUES (?, ?, ?, ?)
		ON CONFLICT (owner_id, kind, id) DO UPDATE SET doc = excluded.doc, updated_at = datetime('now')`,
	update: `UPDATE records SET doc = ?4, updated_at = datetime('now') WHERE owner_id = ?1 AND kind = ?2 AND id = ?3`,
	delete: `DELETE FROM records WHERE owner_id = ? AND kind = ? AND id = ?`,
}

// OpenSQLite opens (or creates) a SQLite database file for single-user and
// local deployments, and ensures the records table exists.
func OpenSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// SQLite serializes writers; a single connection avoids SQLITE_BUSY
	// under the planner's modest write load.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate records table: %w", err)
	}
	return db, nil
}

// NewSQLiteGateway builds a Gateway backed by a SQLite records table.
func NewSQLiteGateway(db *sql.DB) *Gateway {
	return newSQLGateway(db, sqliteQueries)
}
