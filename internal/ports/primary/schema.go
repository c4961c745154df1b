package primary

import "context"

// SchemaService defines the primary port for production schema operations.
type SchemaService interface {
	CreateSchema(ctx context.Context, req CreateSchemaRequest) (*Schema, error)
	GetSchema(ctx context.Context, schemaID string) (*Schema, error)
	ListSchemas(ctx context.Context) ([]*Schema, error)

	// EditSchema applies a generic field update. schema_id, parent_schema_id
	// and required_components_schema_ids are ignored.
	EditSchema(ctx context.Context, schemaID string, fields map[string]any) (*Schema, error)

	DeleteSchema(ctx context.Context, schemaID string) error
}

// SchemaStage is one expected stage of a production schema.
type SchemaStage struct {
	Name            string   `json:"name"`
	Type            string   `json:"type,omitempty"`
	Description     string   `json:"description,omitempty"`
	Equipment       []string `json:"equipment,omitempty"`
	Workplace       string   `json:"workplace,omitempty"`
	DurationSeconds *int     `json:"duration_seconds,omitempty"`
	StageID         string   `json:"stage_id"`
}

// CreateSchemaRequest contains parameters for creating a schema.
type CreateSchemaRequest struct {
	UnitName                    string        `json:"unit_name"`
	SchemaType                  string        `json:"schema_type"`
	ProductionStages            []SchemaStage `json:"production_stages"`
	RequiredComponentsSchemaIDs []string      `json:"required_components_schema_ids,omitempty"`
	ParentSchemaID              string        `json:"parent_schema_id,omitempty"`
}

// SchemaPatch holds the editable schema fields. Nil means unchanged.
type SchemaPatch struct {
	UnitName         *string        `json:"unit_name"`
	SchemaType       *string        `json:"schema_type"`
	ProductionStages *[]SchemaStage `json:"production_stages"`
}

// Schema represents a production schema at the port boundary.
type Schema struct {
	SchemaID                    string        `json:"schema_id"`
	UnitName                    string        `json:"unit_name"`
	SchemaType                  string        `json:"schema_type"`
	ProductionStages            []SchemaStage `json:"production_stages"`
	RequiredComponentsSchemaIDs []string      `json:"required_components_schema_ids"`
	ParentSchemaID              string        `json:"parent_schema_id,omitempty"`
}
