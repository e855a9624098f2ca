// Package db persists job records in sqlite. Queued work survives a process
// restart: pending rows are re-dispatched and interrupted processing rows are
// reset on startup.
package db

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS jobs (
	id                TEXT PRIMARY KEY,
	filename          TEXT NOT NULL,
	original_filename TEXT NOT NULL,
	status            TEXT NOT NULL,
	material_id       TEXT NOT NULL,
	color_id          TEXT NOT NULL,
	quality_id        TEXT NOT NULL DEFAULT '',
	fill_density      REAL NOT NULL DEFAULT 0,
	enable_supports   INTEGER NOT NULL DEFAULT 0,
	error_message     TEXT NOT NULL DEFAULT '',
	result_json       TEXT,
	created_at        DATETIME NOT NULL,
	started_at        DATETIME,
	completed_at      DATETIME,
	approved_at       DATETIME,
	rejected_at       DATETIME
);

CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status);
CREATE INDEX IF NOT EXISTS idx_jobs_created_at ON jobs(created_at);
`

// Open opens (creating if needed) the sqlite database at path and applies the
// schema. A single connection serializes writers and keeps sqlite happy.
func Open(path string) (*sql.DB, error) {
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return conn, nil
}
