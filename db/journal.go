// ABOUTME: Database operations for the mutation_log table
// ABOUTME: Journals every coordinator mutation and keeps record snapshots current
package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/harperreed/crmlink/coordinator"
	"github.com/harperreed/crmlink/objects"
	"github.com/oklog/ulid/v2"
)

const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusFailed    = "failed"
)

// MutationEntry is one journaled mutation.
type MutationEntry struct {
	ID         string
	Resource   string
	RecordID   string
	Seq        uint64
	Op         string
	Patch      objects.Patch
	Status     string
	Error      *string
	CreatedAt  time.Time
	ResolvedAt *time.Time
}

// InsertMutation records a pending mutation and returns its id.
func InsertMutation(db *sql.DB, resource, recordID string, seq uint64, op string, patch objects.Patch) (string, error) {
	var patchJSON sql.NullString
	if patch != nil {
		data, err := json.Marshal(patch)
		if err != nil {
			return "", fmt.Errorf("failed to encode patch: %w", err)
		}
		patchJSON = sql.NullString{String: string(data), Valid: true}
	}

	id := ulid.Make().String()
	_, err := db.Exec(`
		INSERT INTO mutation_log (id, resource, record_id, seq, op, patch, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, 'pending', ?)
	`, id, resource, recordID, int64(seq), op, patchJSON, time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("failed to insert mutation: %w", err)
	}

	return id, nil
}

// ResolveMutation marks a mutation confirmed or failed. A nil cause confirms.
// recordID fills in the id of created records.
func ResolveMutation(db *sql.DB, id, recordID string, cause error) error {
	status := StatusConfirmed
	var errMsg sql.NullString
	if cause != nil {
		status = StatusFailed
		errMsg = sql.NullString{String: cause.Error(), Valid: true}
	}

	result, err := db.Exec(`
		UPDATE mutation_log
		SET status = ?, error = ?, resolved_at = ?,
			record_id = CASE WHEN ? != '' THEN ? ELSE record_id END
		WHERE id = ?
	`, status, errMsg, time.Now().UTC(), recordID, recordID, id)
	if err != nil {
		return fmt.Errorf("failed to resolve mutation: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("mutation not found: %s", id)
	}

	return nil
}

// AbandonPendingMutations fails mutations left pending by an earlier process.
func AbandonPendingMutations(db *sql.DB) (int64, error) {
	result, err := db.Exec(`
		UPDATE mutation_log
		SET status = 'failed', error = 'abandoned: process exited before a response', resolved_at = ?
		WHERE status = 'pending'
	`, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to abandon pending mutations: %w", err)
	}
	return result.RowsAffected()
}

// RecentMutations lists the newest mutations first. ULID ids sort by creation time.
func RecentMutations(db *sql.DB, limit int) ([]MutationEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	return queryMutations(db, `
		SELECT id, resource, record_id, seq, op, patch, status, error, created_at, resolved_at
		FROM mutation_log
		ORDER BY id DESC
		LIMIT ?
	`, limit)
}

// PendingMutations lists unresolved mutations oldest first.
func PendingMutations(db *sql.DB) ([]MutationEntry, error) {
	return queryMutations(db, `
		SELECT id, resource, record_id, seq, op, patch, status, error, created_at, resolved_at
		FROM mutation_log
		WHERE status = 'pending'
		ORDER BY id ASC
	`)
}

// MutationsForRecord lists the history of one record oldest first.
func MutationsForRecord(db *sql.DB, resource, recordID string) ([]MutationEntry, error) {
	return queryMutations(db, `
		SELECT id, resource, record_id, seq, op, patch, status, error, created_at, resolved_at
		FROM mutation_log
		WHERE resource = ? AND record_id = ?
		ORDER BY id ASC
	`, resource, recordID)
}

func queryMutations(db *sql.DB, query string, args ...any) ([]MutationEntry, error) {
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query mutations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []MutationEntry
	for rows.Next() {
		var e MutationEntry
		var seq int64
		var patch sql.NullString
		var errMsg sql.NullString
		var resolvedAt sql.NullTime

		if err := rows.Scan(&e.ID, &e.Resource, &e.RecordID, &seq, &e.Op, &patch, &e.Status, &errMsg, &e.CreatedAt, &resolvedAt); err != nil {
			return nil, fmt.Errorf("failed to scan mutation: %w", err)
		}

		e.Seq = uint64(seq)
		if patch.Valid {
			if err := json.Unmarshal([]byte(patch.String), &e.Patch); err != nil {
				return nil, fmt.Errorf("failed to decode patch for %s: %w", e.ID, err)
			}
		}
		if errMsg.Valid {
			e.Error = &errMsg.String
		}
		if resolvedAt.Valid {
			e.ResolvedAt = &resolvedAt.Time
		}

		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating mutations: %w", err)
	}

	return entries, nil
}

// Journal adapts the mutation log to coordinator.Journal. Confirmed writes
// also refresh record_snapshots.
type Journal struct {
	db *sql.DB
}

func NewJournal(db *sql.DB) *Journal {
	return &Journal{db: db}
}

var _ coordinator.Journal = (*Journal)(nil)

func (j *Journal) Begin(m *coordinator.Mutation) error {
	id, err := InsertMutation(j.db, m.Resource, m.RecordID, m.Seq, string(m.Op), m.Patch)
	if err != nil {
		return err
	}
	m.JournalID = id
	return nil
}

func (j *Journal) Confirm(m *coordinator.Mutation, rec objects.Record) error {
	if m.JournalID != "" {
		if err := ResolveMutation(j.db, m.JournalID, m.RecordID, nil); err != nil {
			return err
		}
	}

	switch m.Op {
	case coordinator.OpDelete:
		return DeleteSnapshot(j.db, m.Resource, m.RecordID)
	default:
		if rec.ID() == "" {
			return nil
		}
		return SaveSnapshot(j.db, m.Resource, rec)
	}
}

func (j *Journal) Fail(m *coordinator.Mutation, cause error) error {
	if m.JournalID == "" {
		return nil
	}
	return ResolveMutation(j.db, m.JournalID, m.RecordID, cause)
}
