// ABOUTME: Database operations for the sync_state table
// ABOUTME: Tracks live subscription status and the last event seen per resource
package db

import (
	"database/sql"
	"fmt"
	"time"
)

const (
	SyncIdle    = "idle"
	SyncSyncing = "syncing"
	SyncError   = "error"
)

// SyncState represents the live sync state for a resource.
type SyncState struct {
	Resource      string
	LastEventTime *time.Time
	LastEventID   *string
	Status        string
	ErrorMessage  *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// GetSyncState retrieves the sync state for a resource, or nil when none exists.
func GetSyncState(db *sql.DB, resource string) (*SyncState, error) {
	var state SyncState
	var lastEventTime sql.NullTime
	var lastEventID sql.NullString
	var status sql.NullString
	var errorMessage sql.NullString

	err := db.QueryRow(`
		SELECT resource, last_event_time, last_event_id, status, error_message, created_at, updated_at
		FROM sync_state
		WHERE resource = ?
	`, resource).Scan(
		&state.Resource,
		&lastEventTime,
		&lastEventID,
		&status,
		&errorMessage,
		&state.CreatedAt,
		&state.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sync state: %w", err)
	}

	fillSyncState(&state, lastEventTime, lastEventID, status, errorMessage)
	return &state, nil
}

// UpdateSyncStatus updates the sync status for a resource.
func UpdateSyncStatus(db *sql.DB, resource, status string, errorMsg *string) error {
	var errorMsgVal sql.NullString
	if errorMsg != nil {
		errorMsgVal = sql.NullString{String: *errorMsg, Valid: true}
	}

	_, err := db.Exec(`
		INSERT INTO sync_state (resource, status, error_message, created_at, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT(resource) DO UPDATE SET
			status = excluded.status,
			error_message = excluded.error_message,
			updated_at = CURRENT_TIMESTAMP
	`, resource, status, errorMsgVal)

	if err != nil {
		return fmt.Errorf("failed to update sync status: %w", err)
	}

	return nil
}

// RecordSyncEvent stores the last event applied for a resource.
func RecordSyncEvent(db *sql.DB, resource, eventID string) error {
	_, err := db.Exec(`
		INSERT INTO sync_state (resource, last_event_time, last_event_id, status, created_at, updated_at)
		VALUES (?, CURRENT_TIMESTAMP, ?, 'syncing', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT(resource) DO UPDATE SET
			last_event_time = CURRENT_TIMESTAMP,
			last_event_id = excluded.last_event_id,
			error_message = NULL,
			updated_at = CURRENT_TIMESTAMP
	`, resource, eventID)

	if err != nil {
		return fmt.Errorf("failed to record sync event: %w", err)
	}

	return nil
}

// GetAllSyncStates retrieves the sync state for all resources.
func GetAllSyncStates(db *sql.DB) ([]SyncState, error) {
	rows, err := db.Query(`
		SELECT resource, last_event_time, last_event_id, status, error_message, created_at, updated_at
		FROM sync_state
		ORDER BY resource
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync states: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var states []SyncState
	for rows.Next() {
		var state SyncState
		var lastEventTime sql.NullTime
		var lastEventID sql.NullString
		var status sql.NullString
		var errorMessage sql.NullString

		err := rows.Scan(
			&state.Resource,
			&lastEventTime,
			&lastEventID,
			&status,
			&errorMessage,
			&state.CreatedAt,
			&state.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sync state: %w", err)
		}

		fillSyncState(&state, lastEventTime, lastEventID, status, errorMessage)
		states = append(states, state)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sync states: %w", err)
	}

	return states, nil
}

func fillSyncState(state *SyncState, lastEventTime sql.NullTime, lastEventID, status, errorMessage sql.NullString) {
	if lastEventTime.Valid {
		state.LastEventTime = &lastEventTime.Time
	}
	if lastEventID.Valid {
		state.LastEventID = &lastEventID.String
	}
	state.Status = status.String
	if errorMessage.Valid {
		state.ErrorMessage = &errorMessage.String
	}
}
