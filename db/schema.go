// ABOUTME: Database schema definitions and migrations
// ABOUTME: Handles SQLite table creation for the mutation journal, snapshots and live sync state
package db

import (
	"database/sql"
)

const schema = `
CREATE TABLE IF NOT EXISTS mutation_log (
	id TEXT PRIMARY KEY,
	resource TEXT NOT NULL,
	record_id TEXT NOT NULL DEFAULT '',
	seq INTEGER NOT NULL DEFAULT 0,
	op TEXT NOT NULL CHECK(op IN ('create', 'update', 'delete')),
	patch TEXT,
	status TEXT NOT NULL DEFAULT 'pending' CHECK(status IN ('pending', 'confirmed', 'failed')),
	error TEXT,
	created_at DATETIME NOT NULL,
	resolved_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_mutation_log_record ON mutation_log(resource, record_id);
CREATE INDEX IF NOT EXISTS idx_mutation_log_status ON mutation_log(status);
CREATE INDEX IF NOT EXISTS idx_mutation_log_created_at ON mutation_log(created_at DESC);

CREATE TABLE IF NOT EXISTS record_snapshots (
	resource TEXT NOT NULL,
	record_id TEXT NOT NULL,
	data TEXT NOT NULL,
	updated_at DATETIME NOT NULL,
	PRIMARY KEY (resource, record_id)
);

CREATE TABLE IF NOT EXISTS sync_state (
	resource TEXT PRIMARY KEY,
	last_event_time DATETIME,
	last_event_id TEXT,
	status TEXT CHECK(status IN ('idle', 'syncing', 'error')),
	error_message TEXT,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

func InitSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
