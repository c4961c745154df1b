package app

import (
	"context"
	"log/slog"

	"github.com/example/feecc/internal/apperr"
	"github.com/example/feecc/internal/core/schema"
	"github.com/example/feecc/internal/ports/primary"
	"github.com/example/feecc/internal/ports/secondary"
)

// SchemaServiceImpl implements the SchemaService interface.
type SchemaServiceImpl struct {
	schemaRepo secondary.SchemaRepository
	logger     *slog.Logger
}

// NewSchemaService creates a new SchemaService with injected dependencies.
func NewSchemaService(schemaRepo secondary.SchemaRepository, logger *slog.Logger) *SchemaServiceImpl {
	return &SchemaServiceImpl{
		schemaRepo: schemaRepo,
		logger:     loggerOrDiscard(logger),
	}
}

// CreateSchema registers a production schema. Stages without a stage id get one.
func (s *SchemaServiceImpl) CreateSchema(ctx context.Context, req primary.CreateSchemaRequest) (*primary.Schema, error) {
	checkCtx := schema.CreateContext{
		UnitName:       req.UnitName,
		SchemaType:     req.SchemaType,
		ParentSchemaID: req.ParentSchemaID,
	}

	if req.ParentSchemaID != "" {
		exists, err := s.exists(ctx, req.ParentSchemaID)
		if err != nil {
			return nil, err
		}
		checkCtx.ParentExists = exists
	}
	for _, id := range req.RequiredComponentsSchemaIDs {
		exists, err := s.exists(ctx, id)
		if err != nil {
			return nil, err
		}
		if !exists {
			checkCtx.MissingComponentIDs = append(checkCtx.MissingComponentIDs, id)
		}
	}

	if err := schema.CanCreate(checkCtx); err != nil {
		return nil, err
	}
	stages := withStageIDs(req.ProductionStages)
	if err := schema.ValidateStages(stageSpecs(stages)); err != nil {
		return nil, err
	}

	record := &secondary.SchemaRecord{
		SchemaID:                    newID(),
		UnitName:                    req.UnitName,
		SchemaType:                  req.SchemaType,
		ProductionStages:            stagesToRecords(stages),
		RequiredComponentsSchemaIDs: req.RequiredComponentsSchemaIDs,
		ParentSchemaID:              req.ParentSchemaID,
	}
	if err := s.schemaRepo.Create(ctx, record); err != nil {
		return nil, storeFailure(ctx, s.logger, "schema.create", record.SchemaID, err)
	}
	return recordToSchema(record), nil
}

// GetSchema retrieves a schema by ID.
func (s *SchemaServiceImpl) GetSchema(ctx context.Context, schemaID string) (*primary.Schema, error) {
	record, err := s.get(ctx, "schema.get", schemaID)
	if err != nil {
		return nil, err
	}
	return recordToSchema(record), nil
}

// ListSchemas retrieves every schema.
func (s *SchemaServiceImpl) ListSchemas(ctx context.Context) ([]*primary.Schema, error) {
	records, err := s.schemaRepo.List(ctx)
	if err != nil {
		return nil, storeFailure(ctx, s.logger, "schema.list", "", err)
	}
	out := make([]*primary.Schema, len(records))
	for i, r := range records {
		out[i] = recordToSchema(r)
	}
	return out, nil
}

// EditSchema applies a generic field update. Tree fields are dropped.
func (s *SchemaServiceImpl) EditSchema(ctx context.Context, schemaID string, fields map[string]any) (*primary.Schema, error) {
	record, err := s.get(ctx, "schema.edit", schemaID)
	if err != nil {
		return nil, err
	}

	var patch primary.SchemaPatch
	if err := decodePatch(schema.StripImmutableFields(fields), &patch); err != nil {
		return nil, err
	}
	if patch.UnitName != nil {
		record.UnitName = *patch.UnitName
	}
	if patch.SchemaType != nil {
		record.SchemaType = *patch.SchemaType
	}
	if patch.ProductionStages != nil {
		stages := withStageIDs(*patch.ProductionStages)
		if err := schema.ValidateStages(stageSpecs(stages)); err != nil {
			return nil, err
		}
		record.ProductionStages = stagesToRecords(stages)
	}
	if record.UnitName == "" || record.SchemaType == "" {
		return nil, apperr.Validation("unit_name and schema_type must not be empty")
	}

	if err := s.schemaRepo.Update(ctx, record); err != nil {
		return nil, storeFailure(ctx, s.logger, "schema.edit", schemaID, err)
	}
	return recordToSchema(record), nil
}

// DeleteSchema removes a schema.
func (s *SchemaServiceImpl) DeleteSchema(ctx context.Context, schemaID string) error {
	err := s.schemaRepo.Delete(ctx, schemaID)
	if isNotFound(err) {
		return apperr.NotFound("schema %s not found", schemaID)
	}
	if err != nil {
		return storeFailure(ctx, s.logger, "schema.delete", schemaID, err)
	}
	return nil
}

// Helper methods

func (s *SchemaServiceImpl) get(ctx context.Context, op, schemaID string) (*secondary.SchemaRecord, error) {
	record, err := s.schemaRepo.GetByID(ctx, schemaID)
	if isNotFound(err) {
		return nil, apperr.NotFound("schema %s not found", schemaID)
	}
	if err != nil {
		return nil, storeFailure(ctx, s.logger, op, schemaID, err)
	}
	return record, nil
}

func (s *SchemaServiceImpl) exists(ctx context.Context, schemaID string) (bool, error) {
	_, err := s.schemaRepo.GetByID(ctx, schemaID)
	if isNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, storeFailure(ctx, s.logger, "schema.create", schemaID, err)
	}
	return true, nil
}

func withStageIDs(stages []primary.SchemaStage) []primary.SchemaStage {
	out := make([]primary.SchemaStage, len(stages))
	for i, st := range stages {
		if st.StageID == "" {
			st.StageID = newID()
		}
		out[i] = st
	}
	return out
}

func stageSpecs(stages []primary.SchemaStage) []schema.StageSpec {
	specs := make([]schema.StageSpec, len(stages))
	for i, st := range stages {
		specs[i] = schema.StageSpec{Name: st.Name, StageID: st.StageID}
	}
	return specs
}

func stagesToRecords(stages []primary.SchemaStage) []secondary.SchemaStageRecord {
	out := make([]secondary.SchemaStageRecord, len(stages))
	for i, st := range stages {
		out[i] = secondary.SchemaStageRecord(st)
	}
	return out
}

func recordToSchema(r *secondary.SchemaRecord) *primary.Schema {
	stages := make([]primary.SchemaStage, len(r.ProductionStages))
	for i, st := range r.ProductionStages {
		stages[i] = primary.SchemaStage(st)
	}
	required := r.RequiredComponentsSchemaIDs
	if required == nil {
		required = []string{}
	}
	return &primary.Schema{
		SchemaID:                    r.SchemaID,
		UnitName:                    r.UnitName,
		SchemaType:                  r.SchemaType,
		ProductionStages:            stages,
		RequiredComponentsSchemaIDs: required,
		ParentSchemaID:              r.ParentSchemaID,
	}
}

// Ensure SchemaServiceImpl implements the interface.
var _ primary.SchemaService = (*SchemaServiceImpl)(nil)
