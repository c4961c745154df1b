// Package schema contains the pure validation rules for production schemas.
package schema

import (
	"strings"

	"github.com/example/feecc/internal/apperr"
)

// immutableFields define a schema's place in the component tree and never change.
var immutableFields = map[string]bool{
	"schema_id":                      true,
	"parent_schema_id":               true,
	"required_components_schema_ids": true,
}

// StripImmutableFields returns a copy of fields without structural keys.
func StripImmutableFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		if !immutableFields[k] {
			out[k] = v
		}
	}
	return out
}

// StageSpec is the part of a schema stage the rules inspect.
type StageSpec struct {
	Name    string
	StageID string
}

// ValidateStages checks that every stage is named and stage ids are unique.
func ValidateStages(stages []StageSpec) error {
	seen := make(map[string]int, len(stages))
	for i, s := range stages {
		if strings.TrimSpace(s.Name) == "" {
			return apperr.Validation("production stage %d has no name", i)
		}
		if s.StageID == "" {
			continue
		}
		if prev, ok := seen[s.StageID]; ok {
			return apperr.Validation("stage_id %q used by stages %d and %d", s.StageID, prev, i)
		}
		seen[s.StageID] = i
	}
	return nil
}

// CreateContext provides context for schema creation checks.
type CreateContext struct {
	UnitName            string
	SchemaType          string
	ParentSchemaID      string
	ParentExists        bool
	MissingComponentIDs []string
}

// CanCreate checks schema creation preconditions.
// Rules:
// - unit_name and schema_type are required
// - parent schema, if given, must exist
// - every required component schema must exist
func CanCreate(ctx CreateContext) error {
	if strings.TrimSpace(ctx.UnitName) == "" {
		return apperr.Validation("unit_name is required")
	}
	if strings.TrimSpace(ctx.SchemaType) == "" {
		return apperr.Validation("schema_type is required")
	}
	if ctx.ParentSchemaID != "" && !ctx.ParentExists {
		return apperr.Validation("parent schema %s not found", ctx.ParentSchemaID)
	}
	if len(ctx.MissingComponentIDs) > 0 {
		return apperr.Validation("required component schemas not found: %s", strings.Join(ctx.MissingComponentIDs, ", "))
	}
	return nil
}
