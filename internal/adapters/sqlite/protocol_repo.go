package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/example/feecc/internal/ports/secondary"
)

// ProtocolTemplateRepository implements secondary.ProtocolTemplateRepository with SQLite.
type ProtocolTemplateRepository struct {
	db *sql.DB
}

// NewProtocolTemplateRepository creates a new SQLite protocol template repository.
func NewProtocolTemplateRepository(db *sql.DB) *ProtocolTemplateRepository {
	return &ProtocolTemplateRepository{db: db}
}

const templateColumns = `protocol_schema_id, protocol_name, associated_with_schema_id, default_serial_number, protocol_rows`

// Save inserts or replaces a template keyed by its protocol schema id.
func (r *ProtocolTemplateRepository) Save(ctx context.Context, template *secondary.ProtocolTemplateRecord) error {
	rows, err := encodeJSON(nonNilRows(template.Rows))
	if err != nil {
		return err
	}
	_, err = conn(ctx, r.db).ExecContext(ctx,
		`INSERT INTO protocol_templates (`+templateColumns+`) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (protocol_schema_id) DO UPDATE SET
			protocol_name = excluded.protocol_name,
			associated_with_schema_id = excluded.associated_with_schema_id,
			default_serial_number = excluded.default_serial_number,
			protocol_rows = excluded.protocol_rows`,
		template.ProtocolSchemaID,
		template.ProtocolName,
		template.AssociatedWithSchemaID,
		nullString(template.DefaultSerialNumber),
		rows,
	)
	if err != nil {
		return fmt.Errorf("failed to save protocol template: %w", err)
	}
	return nil
}

// GetBySchemaID retrieves the template associated with a production schema.
func (r *ProtocolTemplateRepository) GetBySchemaID(ctx context.Context, associatedWithSchemaID string) (*secondary.ProtocolTemplateRecord, error) {
	var (
		serial sql.NullString
		rows   string
	)
	t := &secondary.ProtocolTemplateRecord{}
	err := conn(ctx, r.db).QueryRowContext(ctx,
		`SELECT `+templateColumns+` FROM protocol_templates WHERE associated_with_schema_id = ?`, associatedWithSchemaID,
	).Scan(&t.ProtocolSchemaID, &t.ProtocolName, &t.AssociatedWithSchemaID, &serial, &rows)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, secondary.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get protocol template: %w", err)
	}
	t.DefaultSerialNumber = serial.String
	if t.Rows, err = decodeRows(rows); err != nil {
		return nil, err
	}
	return t, nil
}

// List retrieves every template.
func (r *ProtocolTemplateRepository) List(ctx context.Context) ([]*secondary.ProtocolTemplateRecord, error) {
	rs, err := conn(ctx, r.db).QueryContext(ctx, `SELECT `+templateColumns+` FROM protocol_templates ORDER BY protocol_name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list protocol templates: %w", err)
	}
	defer rs.Close()

	var templates []*secondary.ProtocolTemplateRecord
	for rs.Next() {
		var (
			serial sql.NullString
			rows   string
		)
		t := &secondary.ProtocolTemplateRecord{}
		if err := rs.Scan(&t.ProtocolSchemaID, &t.ProtocolName, &t.AssociatedWithSchemaID, &serial, &rows); err != nil {
			return nil, fmt.Errorf("failed to scan protocol template: %w", err)
		}
		t.DefaultSerialNumber = serial.String
		if t.Rows, err = decodeRows(rows); err != nil {
			return nil, err
		}
		templates = append(templates, t)
	}
	if err := rs.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate protocol templates: %w", err)
	}
	return templates, nil
}

// ProtocolRepository implements secondary.ProtocolRepository with SQLite.
type ProtocolRepository struct {
	db *sql.DB
}

// NewProtocolRepository creates a new SQLite protocol instance repository.
func NewProtocolRepository(db *sql.DB) *ProtocolRepository {
	return &ProtocolRepository{db: db}
}

const protocolColumns = `protocol_id, protocol_schema_id, protocol_name, associated_with_schema_id, default_serial_number,
	protocol_rows, associated_unit_id, status, creation_time`

// Create persists a new protocol instance.
func (r *ProtocolRepository) Create(ctx context.Context, p *secondary.ProtocolRecord) error {
	rows, err := encodeJSON(nonNilRows(p.Rows))
	if err != nil {
		return err
	}
	_, err = conn(ctx, r.db).ExecContext(ctx,
		`INSERT INTO protocols (`+protocolColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ProtocolID,
		p.ProtocolSchemaID,
		p.ProtocolName,
		p.AssociatedWithSchemaID,
		nullString(p.DefaultSerialNumber),
		rows,
		p.AssociatedUnitID,
		p.Status,
		formatTime(p.CreationTime),
	)
	if err != nil {
		return fmt.Errorf("failed to create protocol: %w", err)
	}
	return nil
}

// GetByUnitID retrieves the protocol instance of a unit by the unit's internal id.
func (r *ProtocolRepository) GetByUnitID(ctx context.Context, unitInternalID string) (*secondary.ProtocolRecord, error) {
	row := conn(ctx, r.db).QueryRowContext(ctx,
		`SELECT `+protocolColumns+` FROM protocols WHERE associated_unit_id = ?`, unitInternalID)
	p, err := scanProtocol(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, secondary.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get protocol: %w", err)
	}
	return p, nil
}

// List retrieves protocol instances matching the given filters.
func (r *ProtocolRepository) List(ctx context.Context, filters secondary.ProtocolFilters) ([]*secondary.ProtocolRecord, error) {
	query := `SELECT ` + protocolColumns + ` FROM protocols`
	var args []any
	if filters.Status != "" {
		query += ` WHERE status = ?`
		args = append(args, filters.Status)
	}
	query += ` ORDER BY creation_time ASC, rowid ASC`

	rs, err := conn(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list protocols: %w", err)
	}
	defer rs.Close()

	var protocols []*secondary.ProtocolRecord
	for rs.Next() {
		p, err := scanProtocol(rs)
		if err != nil {
			return nil, fmt.Errorf("failed to scan protocol: %w", err)
		}
		protocols = append(protocols, p)
	}
	if err := rs.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate protocols: %w", err)
	}
	return protocols, nil
}

// UpdateRows overwrites rows and status if the stored status equals expected.
func (r *ProtocolRepository) UpdateRows(ctx context.Context, protocolID string, rows []secondary.ProtocolRowRecord, expected, next string) (bool, error) {
	encoded, err := encodeJSON(nonNilRows(rows))
	if err != nil {
		return false, err
	}
	result, err := conn(ctx, r.db).ExecContext(ctx,
		`UPDATE protocols SET protocol_rows = ?, status = ? WHERE protocol_id = ? AND status = ?`,
		encoded, next, protocolID, expected,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update protocol: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n == 1, nil
}

// SetStatus overwrites a protocol's status unconditionally.
func (r *ProtocolRepository) SetStatus(ctx context.Context, protocolID, status string) error {
	result, err := conn(ctx, r.db).ExecContext(ctx,
		`UPDATE protocols SET status = ? WHERE protocol_id = ?`, status, protocolID)
	if err != nil {
		return fmt.Errorf("failed to update protocol status: %w", err)
	}
	return requireAffected(result, "protocol", protocolID)
}

// DeleteByUnitID removes the protocol instance of a unit.
func (r *ProtocolRepository) DeleteByUnitID(ctx context.Context, unitInternalID string) error {
	result, err := conn(ctx, r.db).ExecContext(ctx,
		`DELETE FROM protocols WHERE associated_unit_id = ?`, unitInternalID)
	if err != nil {
		return fmt.Errorf("failed to delete protocol: %w", err)
	}
	return requireAffected(result, "protocol for unit", unitInternalID)
}

func scanProtocol(row rowScanner) (*secondary.ProtocolRecord, error) {
	var (
		serial             sql.NullString
		rows, creationTime string
	)
	p := &secondary.ProtocolRecord{}
	err := row.Scan(
		&p.ProtocolID,
		&p.ProtocolSchemaID,
		&p.ProtocolName,
		&p.AssociatedWithSchemaID,
		&serial,
		&rows,
		&p.AssociatedUnitID,
		&p.Status,
		&creationTime,
	)
	if err != nil {
		return nil, err
	}
	p.DefaultSerialNumber = serial.String
	if p.Rows, err = decodeRows(rows); err != nil {
		return nil, err
	}
	if p.CreationTime, err = parseTime(creationTime); err != nil {
		return nil, err
	}
	return p, nil
}

func decodeRows(raw string) ([]secondary.ProtocolRowRecord, error) {
	rows := []secondary.ProtocolRowRecord{}
	if raw == "" {
		return rows, nil
	}
	if err := json.Unmarshal([]byte(raw), &rows); err != nil {
		return nil, fmt.Errorf("failed to decode protocol rows: %w", err)
	}
	if rows == nil {
		rows = []secondary.ProtocolRowRecord{}
	}
	return rows, nil
}

func nonNilRows(rows []secondary.ProtocolRowRecord) []secondary.ProtocolRowRecord {
	if rows == nil {
		return []secondary.ProtocolRowRecord{}
	}
	return rows
}

var (
	_ secondary.ProtocolTemplateRepository = (*ProtocolTemplateRepository)(nil)
	_ secondary.ProtocolRepository         = (*ProtocolRepository)(nil)
)
