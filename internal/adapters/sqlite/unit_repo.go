package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/example/feecc/internal/ports/secondary"
)

// UnitRepository implements secondary.UnitRepository with SQLite.
type UnitRepository struct {
	db *sql.DB
}

// NewUnitRepository creates a new SQLite unit repository.
func NewUnitRepository(db *sql.DB) *UnitRepository {
	return &UnitRepository{db: db}
}

const unitColumns = `uuid, internal_id, schema_id, passport_short_url, passport_ipfs_cid, featured_in_int_id,
	components_internal_ids, model, type, serial_number, creation_time, status`

// Create persists a new unit.
func (r *UnitRepository) Create(ctx context.Context, unit *secondary.UnitRecord) error {
	components, err := encodeJSON(nonNilStrings(unit.ComponentsInternalIDs))
	if err != nil {
		return err
	}

	_, err = conn(ctx, r.db).ExecContext(ctx,
		`INSERT INTO units (`+unitColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		unit.UUID,
		unit.InternalID,
		nullString(unit.SchemaID),
		nullString(unit.PassportShortURL),
		nullString(unit.PassportIPFSCID),
		nullString(unit.FeaturedInIntID),
		components,
		unit.Model,
		unit.Type,
		unit.SerialNumber,
		formatTime(unit.CreationTime),
		unit.Status,
	)
	if err != nil {
		return fmt.Errorf("failed to create unit: %w", err)
	}
	return nil
}

// GetByUUID retrieves a unit by its uuid.
func (r *UnitRepository) GetByUUID(ctx context.Context, uuid string) (*secondary.UnitRecord, error) {
	row := conn(ctx, r.db).QueryRowContext(ctx, `SELECT `+unitColumns+` FROM units WHERE uuid = ?`, uuid)
	unit, err := scanUnit(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, secondary.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get unit: %w", err)
	}
	return unit, nil
}

// GetByInternalID retrieves a unit by its internal id.
func (r *UnitRepository) GetByInternalID(ctx context.Context, internalID string) (*secondary.UnitRecord, error) {
	row := conn(ctx, r.db).QueryRowContext(ctx, `SELECT `+unitColumns+` FROM units WHERE internal_id = ?`, internalID)
	unit, err := scanUnit(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, secondary.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get unit: %w", err)
	}
	return unit, nil
}

// List retrieves units matching the given filters.
func (r *UnitRepository) List(ctx context.Context, filters secondary.UnitFilters) ([]*secondary.UnitRecord, error) {
	where, args := unitWhere(filters)

	query := `SELECT ` + unitColumns + ` FROM units` + where
	if filters.NewestFirst {
		query += ` ORDER BY creation_time DESC, rowid DESC`
	} else {
		query += ` ORDER BY creation_time ASC, rowid ASC`
	}
	if filters.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, filters.Limit, filters.Offset)
	}

	rows, err := conn(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list units: %w", err)
	}
	defer rows.Close()

	var units []*secondary.UnitRecord
	for rows.Next() {
		unit, err := scanUnit(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan unit: %w", err)
		}
		units = append(units, unit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate units: %w", err)
	}
	return units, nil
}

// Count returns the number of units matching the given filters, ignoring paging.
func (r *UnitRepository) Count(ctx context.Context, filters secondary.UnitFilters) (int, error) {
	where, args := unitWhere(filters)
	var count int
	if err := conn(ctx, r.db).QueryRowContext(ctx, `SELECT COUNT(*) FROM units`+where, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count units: %w", err)
	}
	return count, nil
}

// Update overwrites the editable fields of a unit. Status is not written.
func (r *UnitRepository) Update(ctx context.Context, unit *secondary.UnitRecord) error {
	components, err := encodeJSON(nonNilStrings(unit.ComponentsInternalIDs))
	if err != nil {
		return err
	}

	result, err := conn(ctx, r.db).ExecContext(ctx,
		`UPDATE units SET schema_id = ?, passport_short_url = ?, passport_ipfs_cid = ?,
			components_internal_ids = ?, model = ?, type = ?, serial_number = ?
		WHERE uuid = ?`,
		nullString(unit.SchemaID),
		nullString(unit.PassportShortURL),
		nullString(unit.PassportIPFSCID),
		components,
		unit.Model,
		unit.Type,
		unit.SerialNumber,
		unit.UUID,
	)
	if err != nil {
		return fmt.Errorf("failed to update unit: %w", err)
	}
	return requireAffected(result, "unit", unit.UUID)
}

// SetStatus overwrites a unit's status unconditionally.
func (r *UnitRepository) SetStatus(ctx context.Context, uuid, status string) error {
	result, err := conn(ctx, r.db).ExecContext(ctx, `UPDATE units SET status = ? WHERE uuid = ?`, status, uuid)
	if err != nil {
		return fmt.Errorf("failed to update unit status: %w", err)
	}
	return requireAffected(result, "unit", uuid)
}

// CompareAndSetStatus writes next only if the stored status equals expected.
func (r *UnitRepository) CompareAndSetStatus(ctx context.Context, uuid, expected, next string) (bool, error) {
	result, err := conn(ctx, r.db).ExecContext(ctx,
		`UPDATE units SET status = ? WHERE uuid = ? AND status = ?`, next, uuid, expected)
	if err != nil {
		return false, fmt.Errorf("failed to update unit status: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n == 1, nil
}

// Delete removes a unit from persistence.
func (r *UnitRepository) Delete(ctx context.Context, uuid string) error {
	result, err := conn(ctx, r.db).ExecContext(ctx, `DELETE FROM units WHERE uuid = ?`, uuid)
	if err != nil {
		return fmt.Errorf("failed to delete unit: %w", err)
	}
	return requireAffected(result, "unit", uuid)
}

// ListTypes returns the distinct non-empty unit types.
func (r *UnitRepository) ListTypes(ctx context.Context) ([]string, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx, `SELECT DISTINCT type FROM units WHERE type != '' ORDER BY type`)
	if err != nil {
		return nil, fmt.Errorf("failed to list unit types: %w", err)
	}
	defer rows.Close()

	types := []string{}
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("failed to scan unit type: %w", err)
		}
		types = append(types, t)
	}
	return types, rows.Err()
}

// unitWhere translates typed filters into a WHERE clause.
func unitWhere(f secondary.UnitFilters) (string, []any) {
	var (
		clauses []string
		args    []any
	)
	if f.InternalID != "" {
		clauses = append(clauses, "internal_id = ?")
		args = append(args, f.InternalID)
	}
	if f.UUID != "" {
		clauses = append(clauses, "uuid = ?")
		args = append(args, f.UUID)
	}
	if f.ShortURL != "" {
		clauses = append(clauses, "passport_short_url = ?")
		args = append(args, f.ShortURL)
	}
	if f.ModelContains != "" {
		clauses = append(clauses, "model LIKE ? ESCAPE '\\'")
		args = append(args, "%"+escapeLike(f.ModelContains)+"%")
	}
	if len(f.Types) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(f.Types)), ", ")
		clauses = append(clauses, "type IN ("+placeholders+")")
		for _, t := range f.Types {
			args = append(args, t)
		}
	}
	if f.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, f.Status)
	}
	if !f.CreatedFrom.IsZero() {
		clauses = append(clauses, "creation_time >= ?")
		args = append(args, formatTime(f.CreatedFrom))
	}
	if !f.CreatedBefore.IsZero() {
		clauses = append(clauses, "creation_time < ?")
		args = append(args, formatTime(f.CreatedBefore))
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUnit(row rowScanner) (*secondary.UnitRecord, error) {
	var (
		schemaID, shortURL, ipfsCID, featuredIn sql.NullString
		components, creationTime                string
	)
	unit := &secondary.UnitRecord{}
	err := row.Scan(
		&unit.UUID,
		&unit.InternalID,
		&schemaID,
		&shortURL,
		&ipfsCID,
		&featuredIn,
		&components,
		&unit.Model,
		&unit.Type,
		&unit.SerialNumber,
		&creationTime,
		&unit.Status,
	)
	if err != nil {
		return nil, err
	}

	unit.SchemaID = schemaID.String
	unit.PassportShortURL = shortURL.String
	unit.PassportIPFSCID = ipfsCID.String
	unit.FeaturedInIntID = featuredIn.String
	if unit.ComponentsInternalIDs, err = decodeStrings(components); err != nil {
		return nil, err
	}
	if unit.CreationTime, err = parseTime(creationTime); err != nil {
		return nil, err
	}
	return unit, nil
}

func requireAffected(result sql.Result, entity, id string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", entity, id, secondary.ErrNotFound)
	}
	return nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// Ensure UnitRepository implements the interface
var _ secondary.UnitRepository = (*UnitRepository)(nil)
