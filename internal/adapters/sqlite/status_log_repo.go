package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/feecc/internal/ports/secondary"
)

// StatusLogRepository implements secondary.StatusLogRepository with SQLite.
type StatusLogRepository struct {
	db *sql.DB
}

// NewStatusLogRepository creates a new SQLite unit status history repository.
func NewStatusLogRepository(db *sql.DB) *StatusLogRepository {
	return &StatusLogRepository{db: db}
}

// Create persists a new history entry.
func (r *StatusLogRepository) Create(ctx context.Context, entry *secondary.StatusLogRecord) error {
	result, err := conn(ctx, r.db).ExecContext(ctx,
		`INSERT INTO unit_status_log (unit_uuid, actor_id, old_status, new_status, changed_at) VALUES (?, ?, ?, ?, ?)`,
		entry.UnitUUID,
		nullString(entry.ActorID),
		entry.OldStatus,
		entry.NewStatus,
		formatTime(entry.ChangedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create status log entry: %w", err)
	}
	if id, err := result.LastInsertId(); err == nil {
		entry.ID = id
	}
	return nil
}

// ListByUnit retrieves the history of a unit, oldest first.
func (r *StatusLogRepository) ListByUnit(ctx context.Context, unitUUID string) ([]*secondary.StatusLogRecord, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx,
		`SELECT id, unit_uuid, actor_id, old_status, new_status, changed_at FROM unit_status_log WHERE unit_uuid = ? ORDER BY id`,
		unitUUID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list status log: %w", err)
	}
	defer rows.Close()

	var entries []*secondary.StatusLogRecord
	for rows.Next() {
		var (
			actorID   sql.NullString
			changedAt string
		)
		e := &secondary.StatusLogRecord{}
		if err := rows.Scan(&e.ID, &e.UnitUUID, &actorID, &e.OldStatus, &e.NewStatus, &changedAt); err != nil {
			return nil, fmt.Errorf("failed to scan status log entry: %w", err)
		}
		e.ActorID = actorID.String
		if e.ChangedAt, err = parseTime(changedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate status log: %w", err)
	}
	return entries, nil
}

// Ensure StatusLogRepository implements the interface
var _ secondary.StatusLogRepository = (*StatusLogRepository)(nil)
