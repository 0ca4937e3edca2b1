// ABOUTME: Database operations for the record_snapshots table
// ABOUTME: Persists confirmed records so the cache can be hydrated offline
package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/harperreed/crmlink/objects"
)

// SaveSnapshot upserts a confirmed record.
func SaveSnapshot(db *sql.DB, resource string, rec objects.Record) error {
	id := rec.ID()
	if id == "" {
		return fmt.Errorf("snapshot for %s has no id", resource)
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	_, err = db.Exec(`
		INSERT INTO record_snapshots (resource, record_id, data, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(resource, record_id) DO UPDATE SET
			data = excluded.data,
			updated_at = excluded.updated_at
	`, resource, id, string(data), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}

	return nil
}

// SaveSnapshots upserts records in one transaction.
func SaveSnapshots(db *sql.DB, resource string, recs []objects.Record) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
		INSERT INTO record_snapshots (resource, record_id, data, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(resource, record_id) DO UPDATE SET
			data = excluded.data,
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare snapshot insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	now := time.Now().UTC()
	for _, rec := range recs {
		if rec.ID() == "" {
			continue
		}
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("failed to encode snapshot %s: %w", rec.ID(), err)
		}
		if _, err := stmt.Exec(resource, rec.ID(), string(data), now); err != nil {
			return fmt.Errorf("failed to save snapshot %s: %w", rec.ID(), err)
		}
	}

	return tx.Commit()
}

// LoadSnapshots returns every snapshot of resource ordered by id.
func LoadSnapshots(db *sql.DB, resource string) ([]objects.Record, error) {
	rows, err := db.Query(`
		SELECT record_id, data FROM record_snapshots
		WHERE resource = ?
		ORDER BY record_id
	`, resource)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var recs []objects.Record
	for rows.Next() {
		var id, data string
		if err := rows.Scan(&id, &data); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		var rec objects.Record
		if err := json.Unmarshal([]byte(data), &rec); err != nil {
			return nil, fmt.Errorf("failed to decode snapshot %s: %w", id, err)
		}
		recs = append(recs, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshots: %w", err)
	}

	return recs, nil
}

// DeleteSnapshot removes a snapshot. Missing rows are not an error.
func DeleteSnapshot(db *sql.DB, resource, id string) error {
	_, err := db.Exec(`DELETE FROM record_snapshots WHERE resource = ? AND record_id = ?`, resource, id)
	if err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}
