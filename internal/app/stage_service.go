package app

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/example/feecc/internal/apperr"
	"github.com/example/feecc/internal/core/employee"
	"github.com/example/feecc/internal/core/stage"
	"github.com/example/feecc/internal/ports/primary"
	"github.com/example/feecc/internal/ports/secondary"
)

// EmployeeDecoder resolves an employee fingerprint to the employee.
type EmployeeDecoder interface {
	Decode(ctx context.Context, fingerprint string) (*primary.Employee, error)
}

// StageServiceImpl implements the StageService interface.
type StageServiceImpl struct {
	stageRepo  secondary.StageRepository
	unitRepo   secondary.UnitRepository
	schemaRepo secondary.SchemaRepository
	decoder    EmployeeDecoder
	logger     *slog.Logger
	now        func() time.Time
}

// NewStageService creates a new StageService with injected dependencies.
func NewStageService(
	stageRepo secondary.StageRepository,
	unitRepo secondary.UnitRepository,
	schemaRepo secondary.SchemaRepository,
	decoder EmployeeDecoder,
	logger *slog.Logger,
) *StageServiceImpl {
	return &StageServiceImpl{
		stageRepo:  stageRepo,
		unitRepo:   unitRepo,
		schemaRepo: schemaRepo,
		decoder:    decoder,
		logger:     loggerOrDiscard(logger),
		now:        time.Now,
	}
}

// AppendStage records a new stage for an existing unit.
func (s *StageServiceImpl) AppendStage(ctx context.Context, req primary.AppendStageRequest) (*primary.Stage, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, apperr.Validation("stage name is required")
	}
	if req.ParentUnitUUID == "" {
		return nil, apperr.Validation("parent_unit_uuid is required")
	}

	_, err := s.unitRepo.GetByUUID(ctx, req.ParentUnitUUID)
	if isNotFound(err) {
		return nil, apperr.Validation("parent unit %s not found", req.ParentUnitUUID)
	}
	if err != nil {
		return nil, storeFailure(ctx, s.logger, "stage.append", req.ParentUnitUUID, err)
	}

	record := &secondary.StageRecord{
		ID:               newID(),
		ParentUnitUUID:   req.ParentUnitUUID,
		SchemaStageID:    req.SchemaStageID,
		Name:             req.Name,
		EmployeeName:     req.EmployeeName,
		SessionStartTime: req.SessionStartTime,
		SessionEndTime:   req.SessionEndTime,
		EndedPrematurely: req.EndedPrematurely,
		Completed:        req.Completed,
		Number:           req.Number,
		VideoHashes:      req.VideoHashes,
		AdditionalInfo:   req.AdditionalInfo,
		CreationTime:     s.now().UTC(),
	}
	if err := s.stageRepo.Create(ctx, record); err != nil {
		return nil, storeFailure(ctx, s.logger, "stage.append", record.ID, err)
	}
	return recordToStage(record), nil
}

// AddStageToUnit records a new stage for the unit with the given internal id.
func (s *StageServiceImpl) AddStageToUnit(ctx context.Context, internalID string, req primary.AppendStageRequest) (*primary.Stage, error) {
	u, err := s.unitRepo.GetByInternalID(ctx, internalID)
	if isNotFound(err) {
		return nil, apperr.NotFound("unit %s not found", internalID)
	}
	if err != nil {
		return nil, storeFailure(ctx, s.logger, "stage.append", internalID, err)
	}
	req.ParentUnitUUID = u.UUID
	return s.AppendStage(ctx, req)
}

// GetStage retrieves a stage by ID.
func (s *StageServiceImpl) GetStage(ctx context.Context, stageID string) (*primary.Stage, error) {
	record, err := s.getStage(ctx, "stage.get", stageID)
	if err != nil {
		return nil, err
	}
	return recordToStage(record), nil
}

// StagesFor returns the stages of a unit in recording order.
func (s *StageServiceImpl) StagesFor(ctx context.Context, unitUUID string) ([]*primary.Stage, error) {
	records, err := s.stageRepo.ListByUnit(ctx, unitUUID)
	if err != nil {
		return nil, storeFailure(ctx, s.logger, "stage.list", unitUUID, err)
	}
	return recordsToStages(records), nil
}

// StagesForInternalID returns the stages of a unit. With includeSubcomponents,
// the stages of every component unit follow, each annotated with the
// component's internal id and unit name.
func (s *StageServiceImpl) StagesForInternalID(ctx context.Context, internalID string, includeSubcomponents bool) ([]*primary.Stage, error) {
	u, err := s.unitRepo.GetByInternalID(ctx, internalID)
	if isNotFound(err) {
		return nil, apperr.NotFound("unit %s not found", internalID)
	}
	if err != nil {
		return nil, storeFailure(ctx, s.logger, "stage.list", internalID, err)
	}

	stages, err := s.StagesFor(ctx, u.UUID)
	if err != nil {
		return nil, err
	}
	if !includeSubcomponents {
		return stages, nil
	}

	visited := map[string]bool{u.InternalID: true}
	sub, err := s.componentStages(ctx, u.ComponentsInternalIDs, visited)
	if err != nil {
		return nil, err
	}
	return append(stages, sub...), nil
}

// componentStages walks the component tree depth-first.
func (s *StageServiceImpl) componentStages(ctx context.Context, componentIDs []string, visited map[string]bool) ([]*primary.Stage, error) {
	var out []*primary.Stage
	for _, id := range componentIDs {
		if visited[id] {
			continue
		}
		visited[id] = true

		component, err := s.unitRepo.GetByInternalID(ctx, id)
		if isNotFound(err) {
			s.logger.WarnContext(ctx, "component unit missing", "internal_id", id)
			continue
		}
		if err != nil {
			return nil, storeFailure(ctx, s.logger, "stage.list", id, err)
		}

		name, err := s.unitName(ctx, component)
		if err != nil {
			return nil, err
		}

		records, err := s.stageRepo.ListByUnit(ctx, component.UUID)
		if err != nil {
			return nil, storeFailure(ctx, s.logger, "stage.list", id, err)
		}
		for _, st := range recordsToStages(records) {
			st.ParentUnitInternalID = component.InternalID
			st.UnitName = name
			out = append(out, st)
		}

		nested, err := s.componentStages(ctx, component.ComponentsInternalIDs, visited)
		if err != nil {
			return nil, err
		}
		out = append(out, nested...)
	}
	return out, nil
}

// unitName is the schema's unit name, falling back to the unit's model.
func (s *StageServiceImpl) unitName(ctx context.Context, u *secondary.UnitRecord) (string, error) {
	if u.SchemaID == "" {
		return u.Model, nil
	}
	schema, err := s.schemaRepo.GetByID(ctx, u.SchemaID)
	if isNotFound(err) {
		return u.Model, nil
	}
	if err != nil {
		return "", storeFailure(ctx, s.logger, "stage.list", u.InternalID, err)
	}
	return schema.UnitName, nil
}

// ListStages lists stages one page at a time, oldest first.
func (s *StageServiceImpl) ListStages(ctx context.Context, req primary.ListStagesRequest) (*primary.StagePage, error) {
	limit, offset, err := pageBounds(req.Page, req.Items)
	if err != nil {
		return nil, err
	}

	filters := secondary.StageFilters{Limit: limit, Offset: offset}
	total, err := s.stageRepo.Count(ctx, filters)
	if err != nil {
		return nil, storeFailure(ctx, s.logger, "stage.list", "", err)
	}
	records, err := s.stageRepo.List(ctx, filters)
	if err != nil {
		return nil, storeFailure(ctx, s.logger, "stage.list", "", err)
	}

	stages := recordsToStages(records)
	if req.DecodeEmployees && s.decoder != nil {
		for _, st := range stages {
			if !employee.LooksLikeFingerprint(st.EmployeeName) {
				continue
			}
			e, err := s.decoder.Decode(ctx, st.EmployeeName)
			if apperr.Is(err, apperr.KindNotFound) {
				continue
			}
			if err != nil {
				return nil, err
			}
			st.Employee = e
		}
	}
	return &primary.StagePage{Count: total, Data: stages}, nil
}

// EditStage applies a generic field update. Recording-time fields are dropped.
func (s *StageServiceImpl) EditStage(ctx context.Context, stageID string, fields map[string]any) (*primary.Stage, error) {
	record, err := s.getStage(ctx, "stage.edit", stageID)
	if err != nil {
		return nil, err
	}

	var patch primary.StagePatch
	if err := decodePatch(stage.StripImmutableFields(fields), &patch); err != nil {
		return nil, err
	}
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return nil, apperr.Validation("stage name must not be empty")
	}
	applyStagePatch(record, patch)

	if err := s.stageRepo.Update(ctx, record); err != nil {
		return nil, storeFailure(ctx, s.logger, "stage.edit", stageID, err)
	}
	return recordToStage(record), nil
}

// DeleteStage removes a stage.
func (s *StageServiceImpl) DeleteStage(ctx context.Context, stageID string) error {
	err := s.stageRepo.Delete(ctx, stageID)
	if isNotFound(err) {
		return apperr.NotFound("stage %s not found", stageID)
	}
	if err != nil {
		return storeFailure(ctx, s.logger, "stage.delete", stageID, err)
	}
	return nil
}

// Helper methods

func (s *StageServiceImpl) getStage(ctx context.Context, op, stageID string) (*secondary.StageRecord, error) {
	record, err := s.stageRepo.GetByID(ctx, stageID)
	if isNotFound(err) {
		return nil, apperr.NotFound("stage %s not found", stageID)
	}
	if err != nil {
		return nil, storeFailure(ctx, s.logger, op, stageID, err)
	}
	return record, nil
}

func applyStagePatch(r *secondary.StageRecord, p primary.StagePatch) {
	if p.SchemaStageID != nil {
		r.SchemaStageID = *p.SchemaStageID
	}
	if p.Name != nil {
		r.Name = *p.Name
	}
	if p.EmployeeName != nil {
		r.EmployeeName = *p.EmployeeName
	}
	if p.EndedPrematurely != nil {
		r.EndedPrematurely = *p.EndedPrematurely
	}
	if p.Completed != nil {
		r.Completed = *p.Completed
	}
	if p.Number != nil {
		n := *p.Number
		r.Number = &n
	}
	if p.VideoHashes != nil {
		r.VideoHashes = *p.VideoHashes
	}
	if p.AdditionalInfo != nil {
		r.AdditionalInfo = *p.AdditionalInfo
	}
}

func recordToStage(r *secondary.StageRecord) *primary.Stage {
	videoHashes := r.VideoHashes
	if videoHashes == nil {
		videoHashes = []string{}
	}
	info := r.AdditionalInfo
	if info == nil {
		info = map[string]any{}
	}
	return &primary.Stage{
		ID:               r.ID,
		ParentUnitUUID:   r.ParentUnitUUID,
		SchemaStageID:    r.SchemaStageID,
		Name:             r.Name,
		EmployeeName:     r.EmployeeName,
		SessionStartTime: r.SessionStartTime,
		SessionEndTime:   r.SessionEndTime,
		EndedPrematurely: r.EndedPrematurely,
		Completed:        r.Completed,
		Number:           r.Number,
		VideoHashes:      videoHashes,
		AdditionalInfo:   info,
		CreationTime:     r.CreationTime,
	}
}

func recordsToStages(records []*secondary.StageRecord) []*primary.Stage {
	stages := make([]*primary.Stage, len(records))
	for i, r := range records {
		stages[i] = recordToStage(r)
	}
	return stages
}

// Ensure StageServiceImpl implements the interface.
var _ primary.StageService = (*StageServiceImpl)(nil)
