package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/example/feecc/internal/apperr"
	"github.com/example/feecc/internal/core/unit"
	"github.com/example/feecc/internal/ports/primary"
	"github.com/example/feecc/internal/ports/secondary"
)

// UnitServiceImpl implements the UnitService interface.
// It is a status store: it never judges whether a transition is legal.
type UnitServiceImpl struct {
	unitRepo   secondary.UnitRepository
	stageRepo  secondary.StageRepository
	schemaRepo secondary.SchemaRepository
	historyLog secondary.StatusLogRepository
	logWriter  secondary.LogWriter
	ledger     primary.StageService
	tx         secondary.Transactor
	recorder   secondary.TransitionRecorder
	logger     *slog.Logger
	now        func() time.Time
}

// UnitServiceDeps groups the collaborators of the unit registry.
type UnitServiceDeps struct {
	Units      secondary.UnitRepository
	Stages     secondary.StageRepository
	Schemas    secondary.SchemaRepository
	History    secondary.StatusLogRepository
	LogWriter  secondary.LogWriter
	Ledger     primary.StageService
	Transactor secondary.Transactor
	Recorder   secondary.TransitionRecorder
}

// NewUnitService creates a new UnitService with injected dependencies.
func NewUnitService(deps UnitServiceDeps, logger *slog.Logger) *UnitServiceImpl {
	return &UnitServiceImpl{
		unitRepo:   deps.Units,
		stageRepo:  deps.Stages,
		schemaRepo: deps.Schemas,
		historyLog: deps.History,
		logWriter:  deps.LogWriter,
		ledger:     deps.Ledger,
		tx:         deps.Transactor,
		recorder:   recorderOrNop(deps.Recorder),
		logger:     loggerOrDiscard(logger),
		now:        time.Now,
	}
}

// CreateUnit registers a new unit.
func (s *UnitServiceImpl) CreateUnit(ctx context.Context, req primary.CreateUnitRequest) (*primary.Unit, error) {
	guardCtx := unit.CreateUnitContext{
		InternalID:      req.InternalID,
		Status:          req.Status,
		SchemaID:        req.SchemaID,
		FeaturedInIntID: req.FeaturedInIntID,
	}

	_, err := s.unitRepo.GetByInternalID(ctx, req.InternalID)
	switch {
	case err == nil:
		guardCtx.InternalIDTaken = true
	case !isNotFound(err):
		return nil, storeFailure(ctx, s.logger, "unit.create", req.InternalID, err)
	}

	var schema *secondary.SchemaRecord
	if req.SchemaID != "" {
		schema, err = s.schemaRepo.GetByID(ctx, req.SchemaID)
		switch {
		case err == nil:
			guardCtx.SchemaExists = true
		case !isNotFound(err):
			return nil, storeFailure(ctx, s.logger, "unit.create", req.InternalID, err)
		}
	}

	if req.FeaturedInIntID != "" {
		_, err = s.unitRepo.GetByInternalID(ctx, req.FeaturedInIntID)
		switch {
		case err == nil:
			guardCtx.ParentUnitExists = true
		case !isNotFound(err):
			return nil, storeFailure(ctx, s.logger, "unit.create", req.InternalID, err)
		}
	}

	if err := unit.CanCreateUnit(guardCtx).Error(); err != nil {
		return nil, err
	}

	status := unit.InitialStatus()
	if req.Status != "" {
		status, _ = unit.ParseStatus(req.Status)
	}

	record := &secondary.UnitRecord{
		UUID:                  newID(),
		InternalID:            req.InternalID,
		SchemaID:              req.SchemaID,
		PassportShortURL:      req.PassportShortURL,
		PassportIPFSCID:       req.PassportIPFSCID,
		FeaturedInIntID:       req.FeaturedInIntID,
		ComponentsInternalIDs: req.ComponentsInternalIDs,
		Model:                 req.Model,
		Type:                  req.Type,
		SerialNumber:          req.SerialNumber,
		CreationTime:          s.now().UTC(),
		Status:                string(status),
	}
	if schema != nil {
		if record.Model == "" {
			record.Model = schema.UnitName
		}
		if record.Type == "" {
			record.Type = schema.SchemaType
		}
	}

	if err := s.unitRepo.Create(ctx, record); err != nil {
		return nil, storeFailure(ctx, s.logger, "unit.create", req.InternalID, err)
	}

	s.logger.InfoContext(ctx, "unit created", "internal_id", record.InternalID, "uuid", record.UUID, "status", record.Status)
	return recordToUnit(record), nil
}

// GetUnit retrieves a unit by exactly one of uuid or internal id.
func (s *UnitServiceImpl) GetUnit(ctx context.Context, lookup primary.UnitLookup) (*primary.Unit, error) {
	if err := unit.CanLookup(unit.LookupContext{UUID: lookup.UUID, InternalID: lookup.InternalID}).Error(); err != nil {
		return nil, err
	}

	var (
		record *secondary.UnitRecord
		err    error
		key    string
	)
	if lookup.UUID != "" {
		key = lookup.UUID
		record, err = s.unitRepo.GetByUUID(ctx, lookup.UUID)
	} else {
		key = lookup.InternalID
		record, err = s.unitRepo.GetByInternalID(ctx, lookup.InternalID)
	}
	if isNotFound(err) {
		return nil, apperr.NotFound("unit %s not found", key)
	}
	if err != nil {
		return nil, storeFailure(ctx, s.logger, "unit.get", key, err)
	}
	return recordToUnit(record), nil
}

// GetPassport retrieves a unit with its biography, including sub-component stages.
func (s *UnitServiceImpl) GetPassport(ctx context.Context, internalID string) (*primary.Passport, error) {
	record, err := s.getByInternalID(ctx, "unit.passport", internalID)
	if err != nil {
		return nil, err
	}

	biography, err := s.ledger.StagesForInternalID(ctx, internalID, true)
	if err != nil {
		return nil, err
	}

	passport := &primary.Passport{Unit: *recordToUnit(record), Biography: biography}

	if record.SchemaID == "" {
		return passport, nil
	}
	schema, err := s.schemaRepo.GetByID(ctx, record.SchemaID)
	if isNotFound(err) {
		return passport, nil
	}
	if err != nil {
		return nil, storeFailure(ctx, s.logger, "unit.passport", internalID, err)
	}
	passport.Model = schema.UnitName
	passport.Type = schema.SchemaType

	if schema.ParentSchemaID != "" {
		parent, err := s.schemaRepo.GetByID(ctx, schema.ParentSchemaID)
		switch {
		case err == nil:
			passport.ParentialUnit = parent.UnitName
		case !isNotFound(err):
			return nil, storeFailure(ctx, s.logger, "unit.passport", internalID, err)
		}
	}
	return passport, nil
}

// ListPassports lists units matching a query, one page at a time.
func (s *UnitServiceImpl) ListPassports(ctx context.Context, req primary.ListPassportsRequest) (*primary.PassportPage, error) {
	filter, err := unit.NewFilter().
		Name(req.Name).
		Date(req.Date).
		Types(req.Types).
		Status(req.Status).
		Build()
	if err != nil {
		return nil, err
	}

	limit, offset, err := pageBounds(req.Page, req.Items)
	if err != nil {
		return nil, err
	}

	newestFirst := true
	switch req.SortByDate {
	case "", "desc":
	case "asc":
		newestFirst = false
	default:
		return nil, apperr.Validation("sort_by_date must be asc or desc, got %q", req.SortByDate)
	}

	filters := secondary.UnitFilters{
		InternalID:    filter.InternalID,
		UUID:          filter.UUID,
		ShortURL:      filter.ShortURL,
		ModelContains: filter.ModelContains,
		Types:         filter.Types,
		Status:        string(filter.Status),
		CreatedFrom:   filter.CreatedFrom,
		CreatedBefore: filter.CreatedBefore,
		NewestFirst:   newestFirst,
		Limit:         limit,
		Offset:        offset,
	}

	total, err := s.unitRepo.Count(ctx, filters)
	if err != nil {
		return nil, storeFailure(ctx, s.logger, "unit.list", "", err)
	}
	records, err := s.unitRepo.List(ctx, filters)
	if err != nil {
		return nil, storeFailure(ctx, s.logger, "unit.list", "", err)
	}

	page := &primary.PassportPage{Count: total, Data: make([]*primary.Passport, len(records))}
	for i, r := range records {
		page.Data[i] = &primary.Passport{Unit: *recordToUnit(r), Biography: []*primary.Stage{}}
	}
	return page, nil
}

// ListTypes returns every distinct unit type.
func (s *UnitServiceImpl) ListTypes(ctx context.Context) ([]string, error) {
	types, err := s.unitRepo.ListTypes(ctx)
	if err != nil {
		return nil, storeFailure(ctx, s.logger, "unit.types", "", err)
	}
	return types, nil
}

// EditUnit applies a generic field update.
// Identity fields and status are dropped before the payload is interpreted.
func (s *UnitServiceImpl) EditUnit(ctx context.Context, internalID string, fields map[string]any) (*primary.Unit, error) {
	record, err := s.getByInternalID(ctx, "unit.edit", internalID)
	if err != nil {
		return nil, err
	}

	var patch primary.UnitPatch
	if err := decodePatch(unit.StripExcludedFields(fields), &patch); err != nil {
		return nil, err
	}

	if patch.SchemaID != nil && *patch.SchemaID != "" && *patch.SchemaID != record.SchemaID {
		_, err := s.schemaRepo.GetByID(ctx, *patch.SchemaID)
		if isNotFound(err) {
			return nil, apperr.Validation("schema %s not found", *patch.SchemaID)
		}
		if err != nil {
			return nil, storeFailure(ctx, s.logger, "unit.edit", internalID, err)
		}
	}

	applyUnitPatch(record, patch)

	if err := s.unitRepo.Update(ctx, record); err != nil {
		return nil, storeFailure(ctx, s.logger, "unit.edit", internalID, err)
	}
	return recordToUnit(record), nil
}

// UpdateStatus overwrites a unit's status without judging the transition.
// Writing the current status changes nothing and records no history.
func (s *UnitServiceImpl) UpdateStatus(ctx context.Context, internalID, status string) (*primary.Unit, error) {
	next, ok := unit.ParseStatus(status)
	if !ok {
		return nil, apperr.Validation("unknown unit status %q", status)
	}

	var updated *secondary.UnitRecord
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		record, err := s.getByInternalID(ctx, "unit.status", internalID)
		if err != nil {
			return err
		}
		current := unit.Status(record.Status)
		if unit.IsNoop(current, next) {
			s.logger.DebugContext(ctx, "unit status unchanged", "internal_id", internalID, "status", current)
			updated = record
			return nil
		}

		if err := s.unitRepo.SetStatus(ctx, record.UUID, string(next)); err != nil {
			return storeFailure(ctx, s.logger, "unit.status", internalID, err)
		}
		if err := s.logWriter.LogStatusChange(ctx, record.UUID, string(current), string(next)); err != nil {
			return storeFailure(ctx, s.logger, "unit.status", internalID, err)
		}
		s.recorder.UnitTransition(string(current), string(next))

		record.Status = string(next)
		updated = record
		return nil
	})
	if err != nil {
		return nil, err
	}
	return recordToUnit(updated), nil
}

// TransitionStatus writes next only if the unit is still in expected.
// A unit found in any other status yields an invalid state error naming both.
func (s *UnitServiceImpl) TransitionStatus(ctx context.Context, internalID, expected, next string) (*primary.Unit, error) {
	from, ok := unit.ParseStatus(expected)
	if !ok {
		return nil, apperr.Validation("unknown unit status %q", expected)
	}
	to, ok := unit.ParseStatus(next)
	if !ok {
		return nil, apperr.Validation("unknown unit status %q", next)
	}

	var updated *secondary.UnitRecord
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		record, err := s.getByInternalID(ctx, "unit.transition", internalID)
		if err != nil {
			return err
		}
		if unit.Status(record.Status) != from {
			return apperr.InvalidState("cannot move unit %s from %s to %s: unit is %s",
				internalID, from, to, record.Status)
		}
		if unit.IsNoop(from, to) {
			updated = record
			return nil
		}

		swapped, err := s.unitRepo.CompareAndSetStatus(ctx, record.UUID, string(from), string(to))
		if err != nil {
			return storeFailure(ctx, s.logger, "unit.transition", internalID, err)
		}
		if !swapped {
			return apperr.InvalidState("cannot move unit %s from %s to %s: status changed concurrently",
				internalID, from, to)
		}
		if err := s.logWriter.LogStatusChange(ctx, record.UUID, string(from), string(to)); err != nil {
			return storeFailure(ctx, s.logger, "unit.transition", internalID, err)
		}
		s.recorder.UnitTransition(string(from), string(to))

		record.Status = string(to)
		updated = record
		return nil
	})
	if err != nil {
		return nil, err
	}
	return recordToUnit(updated), nil
}

// ReportStatus moves a unit from production to built on behalf of an external
// collaborator. Every other status belongs to a workflow and is refused.
func (s *UnitServiceImpl) ReportStatus(ctx context.Context, internalID, status string) (*primary.Unit, error) {
	next, ok := unit.ParseStatus(status)
	if !ok {
		return nil, apperr.Validation("unknown unit status %q", status)
	}
	if next != unit.StatusBuilt {
		return nil, apperr.InvalidState("unit status %s can only be reached through its workflow", next)
	}

	var reported *primary.Unit
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		record, err := s.getByInternalID(ctx, "unit.report", internalID)
		if err != nil {
			return err
		}
		if unit.Status(record.Status) == unit.StatusBuilt {
			s.logger.DebugContext(ctx, "unit status unchanged", "internal_id", internalID, "status", record.Status)
			reported = recordToUnit(record)
			return nil
		}
		reported, err = s.TransitionStatus(ctx, internalID, string(unit.StatusProduction), string(unit.StatusBuilt))
		return err
	})
	if err != nil {
		return nil, err
	}
	return reported, nil
}

// DeleteUnit removes a unit. With cascade, its stages are removed as well;
// otherwise they stay in the ledger.
func (s *UnitServiceImpl) DeleteUnit(ctx context.Context, internalID string, cascade bool) error {
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		record, err := s.getByInternalID(ctx, "unit.delete", internalID)
		if err != nil {
			return err
		}
		if cascade {
			n, err := s.stageRepo.DeleteByUnit(ctx, record.UUID)
			if err != nil {
				return storeFailure(ctx, s.logger, "unit.delete", internalID, err)
			}
			s.logger.InfoContext(ctx, "unit stages deleted", "internal_id", internalID, "count", n)
		}
		if err := s.unitRepo.Delete(ctx, record.UUID); err != nil {
			return storeFailure(ctx, s.logger, "unit.delete", internalID, err)
		}
		return nil
	})
}

// GetHistory returns the status changes of a unit, oldest first.
func (s *UnitServiceImpl) GetHistory(ctx context.Context, internalID string) ([]*primary.StatusChange, error) {
	record, err := s.getByInternalID(ctx, "unit.history", internalID)
	if err != nil {
		return nil, err
	}
	entries, err := s.historyLog.ListByUnit(ctx, record.UUID)
	if err != nil {
		return nil, storeFailure(ctx, s.logger, "unit.history", internalID, err)
	}

	changes := make([]*primary.StatusChange, len(entries))
	for i, e := range entries {
		changes[i] = &primary.StatusChange{
			Actor:     e.ActorID,
			OldStatus: e.OldStatus,
			NewStatus: e.NewStatus,
			ChangedAt: e.ChangedAt,
		}
	}
	return changes, nil
}

// Helper methods

func (s *UnitServiceImpl) getByInternalID(ctx context.Context, op, internalID string) (*secondary.UnitRecord, error) {
	record, err := s.unitRepo.GetByInternalID(ctx, internalID)
	if isNotFound(err) {
		return nil, apperr.NotFound("unit %s not found", internalID)
	}
	if err != nil {
		return nil, storeFailure(ctx, s.logger, op, internalID, err)
	}
	return record, nil
}

func applyUnitPatch(r *secondary.UnitRecord, p primary.UnitPatch) {
	if p.SchemaID != nil {
		r.SchemaID = *p.SchemaID
	}
	if p.PassportShortURL != nil {
		r.PassportShortURL = *p.PassportShortURL
	}
	if p.PassportIPFSCID != nil {
		r.PassportIPFSCID = *p.PassportIPFSCID
	}
	if p.ComponentsInternalIDs != nil {
		r.ComponentsInternalIDs = *p.ComponentsInternalIDs
	}
	if p.Model != nil {
		r.Model = *p.Model
	}
	if p.Type != nil {
		r.Type = *p.Type
	}
	if p.SerialNumber != nil {
		r.SerialNumber = *p.SerialNumber
	}
}

func recordToUnit(r *secondary.UnitRecord) *primary.Unit {
	components := r.ComponentsInternalIDs
	if components == nil {
		components = []string{}
	}
	return &primary.Unit{
		UUID:                  r.UUID,
		InternalID:            r.InternalID,
		SchemaID:              r.SchemaID,
		PassportShortURL:      r.PassportShortURL,
		PassportIPFSCID:       r.PassportIPFSCID,
		FeaturedInIntID:       r.FeaturedInIntID,
		ComponentsInternalIDs: components,
		Model:                 r.Model,
		Type:                  r.Type,
		SerialNumber:          r.SerialNumber,
		CreationTime:          r.CreationTime,
		Status:                r.Status,
	}
}

// Ensure UnitServiceImpl implements the interface.
var _ primary.UnitService = (*UnitServiceImpl)(nil)
