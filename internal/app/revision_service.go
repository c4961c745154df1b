package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/example/feecc/internal/core/revision"
	"github.com/example/feecc/internal/core/stage"
	"github.com/example/feecc/internal/core/unit"
	"github.com/example/feecc/internal/ports/primary"
	"github.com/example/feecc/internal/ports/secondary"
)

// RevisionServiceImpl implements the RevisionService interface.
// It reopens stages in the ledger and moves units through the registry.
type RevisionServiceImpl struct {
	unitRepo  secondary.UnitRepository
	stageRepo secondary.StageRepository
	registry  primary.UnitService
	tx        secondary.Transactor
	recorder  secondary.TransitionRecorder
	logger    *slog.Logger
	now       func() time.Time
}

// NewRevisionService creates a new RevisionService with injected dependencies.
func NewRevisionService(
	unitRepo secondary.UnitRepository,
	stageRepo secondary.StageRepository,
	registry primary.UnitService,
	tx secondary.Transactor,
	recorder secondary.TransitionRecorder,
	logger *slog.Logger,
) *RevisionServiceImpl {
	return &RevisionServiceImpl{
		unitRepo:  unitRepo,
		stageRepo: stageRepo,
		registry:  registry,
		tx:        tx,
		recorder:  recorderOrNop(recorder),
		logger:    loggerOrDiscard(logger),
		now:       time.Now,
	}
}

// SendForRevision reopens the requested completed stages of a built unit and
// moves the unit to revision. Every stage is checked before anything is
// written; the new stages and the status change commit together.
func (s *RevisionServiceImpl) SendForRevision(ctx context.Context, req primary.SendForRevisionRequest) (*primary.RevisionResult, error) {
	stageIDs := revision.DedupeStageIDs(req.StageIDs)
	result := &primary.RevisionResult{InternalID: req.InternalID}

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		guardCtx := revision.SendContext{InternalID: req.InternalID}

		u, err := s.unitRepo.GetByInternalID(ctx, req.InternalID)
		switch {
		case err == nil:
			guardCtx.UnitExists = true
			guardCtx.UnitUUID = u.UUID
			guardCtx.UnitStatus = unit.Status(u.Status)
		case !isNotFound(err):
			return storeFailure(ctx, s.logger, "revision.send", req.InternalID, err)
		}

		sources := make(map[string]*secondary.StageRecord, len(stageIDs))
		if guardCtx.UnitExists && guardCtx.UnitStatus == unit.StatusBuilt {
			for _, id := range stageIDs {
				ref := revision.StageRef{ID: id}
				record, err := s.stageRepo.GetByID(ctx, id)
				switch {
				case err == nil:
					ref.Exists = true
					ref.ParentUnitUUID = record.ParentUnitUUID
					sources[id] = record
				case !isNotFound(err):
					return storeFailure(ctx, s.logger, "revision.send", id, err)
				}
				guardCtx.RequestedStages = append(guardCtx.RequestedStages, ref)
			}

			count, err := s.stageRepo.CountByUnit(ctx, u.UUID)
			if err != nil {
				return storeFailure(ctx, s.logger, "revision.send", req.InternalID, err)
			}
			guardCtx.UnitStageCount = count
		}

		if err := revision.CanSendForRevision(guardCtx).Error(); err != nil {
			return err
		}

		snapshots := make([]stage.Snapshot, len(stageIDs))
		for i, id := range stageIDs {
			snapshots[i] = stageSnapshot(sources[id])
			if err := stage.CanClear(snapshots[i]).Error(); err != nil {
				return err
			}
		}

		nextNumber := guardCtx.UnitStageCount
		created := s.now().UTC()
		for _, snap := range snapshots {
			pending, err := stage.Clear(snap, nextNumber, newID())
			if err != nil {
				return err
			}
			record := pendingToRecord(pending, created)
			if err := s.stageRepo.Create(ctx, record); err != nil {
				return storeFailure(ctx, s.logger, "revision.send", pending.ID, err)
			}
			result.NewStages = append(result.NewStages, recordToStage(record))
			nextNumber++
		}

		updated, err := s.registry.TransitionStatus(ctx, req.InternalID, string(unit.StatusBuilt), string(unit.StatusRevision))
		if err != nil {
			return err
		}
		result.Status = updated.Status
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recorder.StagesReworked(len(result.NewStages))
	s.logger.InfoContext(ctx, "unit sent for revision", "internal_id", req.InternalID, "stages", len(result.NewStages))
	return result, nil
}

// CancelRevision marks an incomplete stage as cancelled. A unit in revision
// returns to built once fewer than stage.RevisionExitThreshold of its stages
// are incomplete. The stage being cancelled counts; stages cancelled earlier
// do not.
func (s *RevisionServiceImpl) CancelRevision(ctx context.Context, req primary.CancelRevisionRequest) (*primary.CancelRevisionResult, error) {
	result := &primary.CancelRevisionResult{}

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		record, err := s.stageRepo.GetByID(ctx, req.StageID)
		if err != nil && !isNotFound(err) {
			return storeFailure(ctx, s.logger, "revision.cancel", req.StageID, err)
		}
		guardCtx := stage.CancelContext{StageID: req.StageID, StageExists: record != nil}
		if record != nil {
			guardCtx.Completed = record.Completed
		}
		if err := stage.CanCancelRevision(guardCtx).Error(); err != nil {
			return err
		}

		record.AdditionalInfo = stage.MarkCanceled(record.AdditionalInfo, req.Employee, s.now())
		if err := s.stageRepo.SetAdditionalInfo(ctx, record.ID, record.AdditionalInfo); err != nil {
			return storeFailure(ctx, s.logger, "revision.cancel", record.ID, err)
		}
		result.Stage = recordToStage(record)

		u, err := s.unitRepo.GetByUUID(ctx, record.ParentUnitUUID)
		if isNotFound(err) {
			s.logger.WarnContext(ctx, "cancelled stage has no unit", "stage_id", record.ID, "unit_uuid", record.ParentUnitUUID)
			return nil
		}
		if err != nil {
			return storeFailure(ctx, s.logger, "revision.cancel", record.ID, err)
		}
		result.UnitInternalID = u.InternalID
		result.UnitStatus = u.Status

		open, err := s.stageRepo.CountIncompleteByUnit(ctx, u.UUID)
		if err != nil {
			return storeFailure(ctx, s.logger, "revision.cancel", u.InternalID, err)
		}
		incomplete := open + 1
		result.IncompleteStages = incomplete

		if !stage.ShouldExitRevision(incomplete) || unit.Status(u.Status) != unit.StatusRevision {
			return nil
		}
		updated, err := s.registry.TransitionStatus(ctx, u.InternalID, string(unit.StatusRevision), string(unit.StatusBuilt))
		if err != nil {
			return err
		}
		result.UnitStatus = updated.Status
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func stageSnapshot(r *secondary.StageRecord) stage.Snapshot {
	return stage.Snapshot{
		ID:             r.ID,
		ParentUnitUUID: r.ParentUnitUUID,
		SchemaStageID:  r.SchemaStageID,
		Name:           r.Name,
		Completed:      r.Completed,
	}
}

func pendingToRecord(p stage.Pending, created time.Time) *secondary.StageRecord {
	number := p.Number
	return &secondary.StageRecord{
		ID:             p.ID,
		ParentUnitUUID: p.ParentUnitUUID,
		SchemaStageID:  p.SchemaStageID,
		Name:           p.Name,
		Completed:      p.Completed,
		Number:         &number,
		AdditionalInfo: p.AdditionalInfo,
		CreationTime:   created,
	}
}

// Ensure RevisionServiceImpl implements the interface.
var _ primary.RevisionService = (*RevisionServiceImpl)(nil)
