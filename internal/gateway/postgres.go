package gateway

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq" // postgres driver
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS records (
	owner_id   TEXT        NOT NULL,
	kind       TEXT        NOT NULL,
	id         TEXT        NOT NULL,
	doc        JSONB       NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (owner_id, kind, id)
);
CREATE INDEX IF NOT EXISTS records_owner_kind_idx ON records (owner_id, kind, created_at);
`

var postgresQueries = docQueries{
	list: `SELECT doc FROM records WHERE owner_id = $1 AND kind = $2 ORDER BY created_at, id`,
	upsert: `INSERT INTO records (owner_id, kind, id, doc) VALUES ($1, $2, $3, $4)
		ON CONFLICT (owner_id, kind, id) DO UPDATE SET doc = EXCLUDED.doc, updated_at = now()`,
	update: `UPDATE records SET doc = $4, updated_at = now() WHERE owner_id = $1 AND kind = $2 AND id = $3`,
	delete: `DELETE FROM records WHERE owner_id = $1 AND kind = $2 AND id = $3`,
}

// OpenPostgres opens a Postgres connection pool and ensures the records
// table exists.
func OpenPostgres(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	if _, err := db.Exec(postgresSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate records table: %w", err)
	}
	return db, nil
}

// NewPostgresGateway builds a Gateway backed by the shared records table.
func NewPostgresGateway(db *sql.DB) *Gateway {
	return newSQLGateway(db, postgresQueries)
}
