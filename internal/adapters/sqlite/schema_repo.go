package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/example/feecc/internal/ports/secondary"
)

// SchemaRepository implements secondary.SchemaRepository with SQLite.
type SchemaRepository struct {
	db *sql.DB
}

// NewSchemaRepository creates a new SQLite production schema repository.
func NewSchemaRepository(db *sql.DB) *SchemaRepository {
	return &SchemaRepository{db: db}
}

const schemaColumns = `schema_id, unit_name, schema_type, production_stages, required_components_schema_ids, parent_schema_id`

// Create persists a new schema.
func (r *SchemaRepository) Create(ctx context.Context, schema *secondary.SchemaRecord) error {
	stages, err := encodeJSON(nonNilSchemaStages(schema.ProductionStages))
	if err != nil {
		return err
	}
	required, err := encodeJSON(nonNilStrings(schema.RequiredComponentsSchemaIDs))
	if err != nil {
		return err
	}

	_, err = conn(ctx, r.db).ExecContext(ctx,
		`INSERT INTO schemas (`+schemaColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		schema.SchemaID,
		schema.UnitName,
		schema.SchemaType,
		stages,
		required,
		nullString(schema.ParentSchemaID),
	)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// GetByID retrieves a schema by its ID.
func (r *SchemaRepository) GetByID(ctx context.Context, schemaID string) (*secondary.SchemaRecord, error) {
	row := conn(ctx, r.db).QueryRowContext(ctx, `SELECT `+schemaColumns+` FROM schemas WHERE schema_id = ?`, schemaID)
	schema, err := scanSchema(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, secondary.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get schema: %w", err)
	}
	return schema, nil
}

// List retrieves every schema.
func (r *SchemaRepository) List(ctx context.Context) ([]*secondary.SchemaRecord, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx, `SELECT `+schemaColumns+` FROM schemas ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("failed to list schemas: %w", err)
	}
	defer rows.Close()

	var schemas []*secondary.SchemaRecord
	for rows.Next() {
		schema, err := scanSchema(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan schema: %w", err)
		}
		schemas = append(schemas, schema)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate schemas: %w", err)
	}
	return schemas, nil
}

// Update overwrites unit name, schema type and stage list of a schema.
func (r *SchemaRepository) Update(ctx context.Context, schema *secondary.SchemaRecord) error {
	stages, err := encodeJSON(nonNilSchemaStages(schema.ProductionStages))
	if err != nil {
		return err
	}
	result, err := conn(ctx, r.db).ExecContext(ctx,
		`UPDATE schemas SET unit_name = ?, schema_type = ?, production_stages = ? WHERE schema_id = ?`,
		schema.UnitName, schema.SchemaType, stages, schema.SchemaID,
	)
	if err != nil {
		return fmt.Errorf("failed to update schema: %w", err)
	}
	return requireAffected(result, "schema", schema.SchemaID)
}

// Delete removes a schema.
func (r *SchemaRepository) Delete(ctx context.Context, schemaID string) error {
	result, err := conn(ctx, r.db).ExecContext(ctx, `DELETE FROM schemas WHERE schema_id = ?`, schemaID)
	if err != nil {
		return fmt.Errorf("failed to delete schema: %w", err)
	}
	return requireAffected(result, "schema", schemaID)
}

func scanSchema(row rowScanner) (*secondary.SchemaRecord, error) {
	var (
		stages, required string
		parent           sql.NullString
	)
	schema := &secondary.SchemaRecord{}
	if err := row.Scan(&schema.SchemaID, &schema.UnitName, &schema.SchemaType, &stages, &required, &parent); err != nil {
		return nil, err
	}
	schema.ParentSchemaID = parent.String

	schema.ProductionStages = []secondary.SchemaStageRecord{}
	if err := json.Unmarshal([]byte(stages), &schema.ProductionStages); err != nil {
		return nil, fmt.Errorf("failed to decode production stages: %w", err)
	}
	var err error
	if schema.RequiredComponentsSchemaIDs, err = decodeStrings(required); err != nil {
		return nil, err
	}
	return schema, nil
}

func nonNilSchemaStages(s []secondary.SchemaStageRecord) []secondary.SchemaStageRecord {
	if s == nil {
		return []secondary.SchemaStageRecord{}
	}
	return s
}

// Ensure SchemaRepository implements the interface
var _ secondary.SchemaRepository = (*SchemaRepository)(nil)
