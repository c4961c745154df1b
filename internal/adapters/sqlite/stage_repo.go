package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/example/feecc/internal/ports/secondary"
)

// StageRepository implements secondary.StageRepository with SQLite.
type StageRepository struct {
	db *sql.DB
}

// NewStageRepository creates a new SQLite stage repository.
func NewStageRepository(db *sql.DB) *StageRepository {
	return &StageRepository{db: db}
}

const stageColumns = `id, parent_unit_uuid, schema_stage_id, name, employee_name, session_start_time, session_end_time,
	ended_prematurely, completed, number, video_hashes, additional_info, creation_time`

// Create persists a new stage.
func (r *StageRepository) Create(ctx context.Context, stage *secondary.StageRecord) error {
	videoHashes, err := encodeJSON(nonNilStrings(stage.VideoHashes))
	if err != nil {
		return err
	}
	info, err := encodeJSON(nonNilInfo(stage.AdditionalInfo))
	if err != nil {
		return err
	}

	_, err = conn(ctx, r.db).ExecContext(ctx,
		`INSERT INTO production_stages (`+stageColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		stage.ID,
		stage.ParentUnitUUID,
		nullString(stage.SchemaStageID),
		stage.Name,
		nullString(stage.EmployeeName),
		nullTime(stage.SessionStartTime),
		nullTime(stage.SessionEndTime),
		boolToInt(stage.EndedPrematurely),
		boolToInt(stage.Completed),
		nullInt(stage.Number),
		videoHashes,
		info,
		formatTime(stage.CreationTime),
	)
	if err != nil {
		return fmt.Errorf("failed to create stage: %w", err)
	}
	return nil
}

// GetByID retrieves a stage by its ID.
func (r *StageRepository) GetByID(ctx context.Context, id string) (*secondary.StageRecord, error) {
	row := conn(ctx, r.db).QueryRowContext(ctx, `SELECT `+stageColumns+` FROM production_stages WHERE id = ?`, id)
	stage, err := scanStage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, secondary.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get stage: %w", err)
	}
	return stage, nil
}

// List retrieves stages matching the given filters, oldest first.
func (r *StageRepository) List(ctx context.Context, filters secondary.StageFilters) ([]*secondary.StageRecord, error) {
	query := `SELECT ` + stageColumns + ` FROM production_stages`
	var args []any
	if filters.ParentUnitUUID != "" {
		query += ` WHERE parent_unit_uuid = ?`
		args = append(args, filters.ParentUnitUUID)
	}
	query += ` ORDER BY creation_time ASC, rowid ASC`
	if filters.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, filters.Limit, filters.Offset)
	}
	return r.query(ctx, query, args...)
}

// Count returns the number of stages matching the given filters, ignoring paging.
func (r *StageRepository) Count(ctx context.Context, filters secondary.StageFilters) (int, error) {
	query := `SELECT COUNT(*) FROM production_stages`
	var args []any
	if filters.ParentUnitUUID != "" {
		query += ` WHERE parent_unit_uuid = ?`
		args = append(args, filters.ParentUnitUUID)
	}
	var count int
	if err := conn(ctx, r.db).QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count stages: %w", err)
	}
	return count, nil
}

// ListByUnit retrieves every stage of a unit ordered by creation time, then insertion order.
func (r *StageRepository) ListByUnit(ctx context.Context, unitUUID string) ([]*secondary.StageRecord, error) {
	return r.query(ctx,
		`SELECT `+stageColumns+` FROM production_stages WHERE parent_unit_uuid = ? ORDER BY creation_time ASC, rowid ASC`,
		unitUUID,
	)
}

// CountByUnit returns the number of stages recorded for a unit.
func (r *StageRepository) CountByUnit(ctx context.Context, unitUUID string) (int, error) {
	var count int
	err := conn(ctx, r.db).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM production_stages WHERE parent_unit_uuid = ?`, unitUUID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count stages: %w", err)
	}
	return count, nil
}

// CountIncompleteByUnit returns the number of stages of a unit that are
// neither completed nor cancelled.
func (r *StageRepository) CountIncompleteByUnit(ctx context.Context, unitUUID string) (int, error) {
	var count int
	err := conn(ctx, r.db).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM production_stages
		WHERE parent_unit_uuid = ? AND completed = 0
		AND COALESCE(json_extract(additional_info, '$.canceled'), 0) = 0`, unitUUID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count incomplete stages: %w", err)
	}
	return count, nil
}

// Update overwrites the editable fields of a stage.
func (r *StageRepository) Update(ctx context.Context, stage *secondary.StageRecord) error {
	videoHashes, err := encodeJSON(nonNilStrings(stage.VideoHashes))
	if err != nil {
		return err
	}
	info, err := encodeJSON(nonNilInfo(stage.AdditionalInfo))
	if err != nil {
		return err
	}

	result, err := conn(ctx, r.db).ExecContext(ctx,
		`UPDATE production_stages SET schema_stage_id = ?, name = ?, employee_name = ?,
			ended_prematurely = ?, completed = ?, number = ?, video_hashes = ?, additional_info = ?
		WHERE id = ?`,
		nullString(stage.SchemaStageID),
		stage.Name,
		nullString(stage.EmployeeName),
		boolToInt(stage.EndedPrematurely),
		boolToInt(stage.Completed),
		nullInt(stage.Number),
		videoHashes,
		info,
		stage.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update stage: %w", err)
	}
	return requireAffected(result, "stage", stage.ID)
}

// SetAdditionalInfo replaces the additional info map of a stage.
func (r *StageRepository) SetAdditionalInfo(ctx context.Context, id string, info map[string]any) error {
	encoded, err := encodeJSON(nonNilInfo(info))
	if err != nil {
		return err
	}
	result, err := conn(ctx, r.db).ExecContext(ctx,
		`UPDATE production_stages SET additional_info = ? WHERE id = ?`, encoded, id)
	if err != nil {
		return fmt.Errorf("failed to update stage info: %w", err)
	}
	return requireAffected(result, "stage", id)
}

// Delete removes a stage.
func (r *StageRepository) Delete(ctx context.Context, id string) error {
	result, err := conn(ctx, r.db).ExecContext(ctx, `DELETE FROM production_stages WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete stage: %w", err)
	}
	return requireAffected(result, "stage", id)
}

// DeleteByUnit removes every stage of a unit and returns how many were removed.
func (r *StageRepository) DeleteByUnit(ctx context.Context, unitUUID string) (int, error) {
	result, err := conn(ctx, r.db).ExecContext(ctx, `DELETE FROM production_stages WHERE parent_unit_uuid = ?`, unitUUID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete unit stages: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return int(n), nil
}

func (r *StageRepository) query(ctx context.Context, query string, args ...any) ([]*secondary.StageRecord, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list stages: %w", err)
	}
	defer rows.Close()

	var stages []*secondary.StageRecord
	for rows.Next() {
		stage, err := scanStage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan stage: %w", err)
		}
		stages = append(stages, stage)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate stages: %w", err)
	}
	return stages, nil
}

func scanStage(row rowScanner) (*secondary.StageRecord, error) {
	var (
		schemaStageID, employeeName, start, end sql.NullString
		number                                  sql.NullInt64
		endedPrematurely, completed             int
		videoHashes, info, creationTime         string
	)
	stage := &secondary.StageRecord{}
	err := row.Scan(
		&stage.ID,
		&stage.ParentUnitUUID,
		&schemaStageID,
		&stage.Name,
		&employeeName,
		&start,
		&end,
		&endedPrematurely,
		&completed,
		&number,
		&videoHashes,
		&info,
		&creationTime,
	)
	if err != nil {
		return nil, err
	}

	stage.SchemaStageID = schemaStageID.String
	stage.EmployeeName = employeeName.String
	stage.EndedPrematurely = endedPrematurely == 1
	stage.Completed = completed == 1
	if number.Valid {
		n := int(number.Int64)
		stage.Number = &n
	}
	if stage.SessionStartTime, err = timePtr(start); err != nil {
		return nil, err
	}
	if stage.SessionEndTime, err = timePtr(end); err != nil {
		return nil, err
	}
	if stage.VideoHashes, err = decodeStrings(videoHashes); err != nil {
		return nil, err
	}
	stage.AdditionalInfo = map[string]any{}
	if info != "" {
		if err := json.Unmarshal([]byte(info), &stage.AdditionalInfo); err != nil {
			return nil, fmt.Errorf("failed to decode additional info: %w", err)
		}
		if stage.AdditionalInfo == nil {
			stage.AdditionalInfo = map[string]any{}
		}
	}
	if stage.CreationTime, err = parseTime(creationTime); err != nil {
		return nil, err
	}
	return stage, nil
}

func nullInt(n *int) sql.NullInt64 {
	if n == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*n), Valid: true}
}

func nonNilInfo(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

// Ensure StageRepository implements the interface
var _ secondary.StageRepository = (*StageRepository)(nil)
