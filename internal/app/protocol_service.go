package app

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/example/feecc/internal/apperr"
	"github.com/example/feecc/internal/core/access"
	"github.com/example/feecc/internal/core/protocol"
	"github.com/example/feecc/internal/core/unit"
	"github.com/example/feecc/internal/ports/primary"
	"github.com/example/feecc/internal/ports/secondary"
)

// ProtocolServiceImpl implements the ProtocolService interface.
type ProtocolServiceImpl struct {
	protocolRepo secondary.ProtocolRepository
	templateRepo secondary.ProtocolTemplateRepository
	unitRepo     secondary.UnitRepository
	schemaRepo   secondary.SchemaRepository
	employeeRepo secondary.EmployeeRepository
	registry     primary.UnitService
	tx           secondary.Transactor
	recorder     secondary.TransitionRecorder
	logger       *slog.Logger
	now          func() time.Time
}

// ProtocolServiceDeps groups the collaborators of the protocol workflow.
type ProtocolServiceDeps struct {
	Protocols  secondary.ProtocolRepository
	Templates  secondary.ProtocolTemplateRepository
	Units      secondary.UnitRepository
	Schemas    secondary.SchemaRepository
	Employees  secondary.EmployeeRepository
	Registry   primary.UnitService
	Transactor secondary.Transactor
	Recorder   secondary.TransitionRecorder
}

// NewProtocolService creates a new ProtocolService with injected dependencies.
func NewProtocolService(deps ProtocolServiceDeps, logger *slog.Logger) *ProtocolServiceImpl {
	return &ProtocolServiceImpl{
		protocolRepo: deps.Protocols,
		templateRepo: deps.Templates,
		unitRepo:     deps.Units,
		schemaRepo:   deps.Schemas,
		employeeRepo: deps.Employees,
		registry:     deps.Registry,
		tx:           deps.Transactor,
		recorder:     recorderOrNop(deps.Recorder),
		logger:       loggerOrDiscard(logger),
		now:          time.Now,
	}
}

// protocolState is what the workflow knows about a unit before acting on it.
type protocolState struct {
	unit     *secondary.UnitRecord
	protocol *secondary.ProtocolRecord
	template *secondary.ProtocolTemplateRecord
}

// load reads the unit, its protocol instance and, when no instance exists,
// the template of the unit's schema. Absent rows are left nil.
func (s *ProtocolServiceImpl) load(ctx context.Context, op, internalID string) (*protocolState, error) {
	st := &protocolState{}

	u, err := s.unitRepo.GetByInternalID(ctx, internalID)
	switch {
	case err == nil:
		st.unit = u
	case !isNotFound(err):
		return nil, storeFailure(ctx, s.logger, op, internalID, err)
	}

	p, err := s.protocolRepo.GetByUnitID(ctx, internalID)
	switch {
	case err == nil:
		st.protocol = p
	case !isNotFound(err):
		return nil, storeFailure(ctx, s.logger, op, internalID, err)
	}

	if st.protocol == nil && st.unit != nil && st.unit.SchemaID != "" {
		t, err := s.templateRepo.GetBySchemaID(ctx, st.unit.SchemaID)
		switch {
		case err == nil:
			st.template = t
		case !isNotFound(err):
			return nil, storeFailure(ctx, s.logger, op, internalID, err)
		}
	}
	return st, nil
}

// GetProtocol returns the unit's protocol instance, or an unsaved prototype
// built from its schema's template, together with the serial number to print
// and the acting user's employee.
func (s *ProtocolServiceImpl) GetProtocol(ctx context.Context, internalID string, actor *primary.User) (*primary.ProtocolView, error) {
	st, err := s.load(ctx, "protocol.get", internalID)
	if err != nil {
		return nil, err
	}

	guardCtx := protocol.PrototypeContext{
		UnitInternalID: internalID,
		UnitExists:     st.unit != nil,
		ProtocolExists: st.protocol != nil,
		TemplateExists: st.template != nil,
	}
	if st.unit != nil {
		guardCtx.UnitSchemaID = st.unit.SchemaID
	}
	if err := protocol.CanGetPrototype(guardCtx).Error(); err != nil {
		return nil, err
	}

	var p *primary.Protocol
	if st.protocol != nil {
		p = recordToProtocol(st.protocol)
	} else {
		p = prototypeFromTemplate(st.template, internalID)
	}

	view := &primary.ProtocolView{
		SerialNumber: st.unit.SerialNumber,
		Protocol:     p,
	}
	if view.SerialNumber == "" {
		view.SerialNumber = p.DefaultSerialNumber
	}

	if actor != nil && actor.AssociatedEmployee != "" {
		e, err := s.employeeRepo.GetByRFID(ctx, actor.AssociatedEmployee)
		switch {
		case err == nil:
			view.Employee = &primary.Employee{RFIDCardID: e.RFIDCardID, Name: e.Name, Position: e.Position}
		case !isNotFound(err):
			return nil, storeFailure(ctx, s.logger, "protocol.get", internalID, err)
		}
	}
	return view, nil
}

// ListProtocols lists protocol instances, optionally restricted to one status.
func (s *ProtocolServiceImpl) ListProtocols(ctx context.Context, status string) ([]*primary.Protocol, error) {
	if status != "" {
		if _, ok := protocol.ParseStatus(status); !ok {
			return nil, apperr.Validation("unknown protocol status %q", status)
		}
	}
	records, err := s.protocolRepo.List(ctx, secondary.ProtocolFilters{Status: status})
	if err != nil {
		return nil, storeFailure(ctx, s.logger, "protocol.list", "", err)
	}
	out := make([]*primary.Protocol, len(records))
	for i, r := range records {
		out[i] = recordToProtocol(r)
	}
	return out, nil
}

// ProcessUpdate writes incoming rows to the unit's protocol. The first update
// creates the instance at the initial status; each later one overwrites the
// rows and advances the status one step. Approved protocols are frozen.
func (s *ProtocolServiceImpl) ProcessUpdate(ctx context.Context, req primary.ProcessUpdateRequest) (*primary.Protocol, error) {
	canApprove := req.Actor != nil && access.Can(req.Actor.RuleSet, access.Approve)

	var (
		out        *primary.Protocol
		from, into string
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		st, err := s.load(ctx, "protocol.update", req.InternalID)
		if err != nil {
			return err
		}

		guardCtx := protocol.UpdateContext{
			UnitInternalID: req.InternalID,
			CanApprove:     canApprove,
			UnitExists:     st.unit != nil,
			ProtocolExists: st.protocol != nil,
			TemplateExists: st.template != nil,
		}
		if st.protocol != nil {
			guardCtx.Status = protocol.Status(st.protocol.Status)
		}
		if err := protocol.CanUpdate(guardCtx).Error(); err != nil {
			return err
		}

		rows := rowsToRecords(req.Rows)

		if st.protocol == nil {
			if len(rows) == 0 {
				rows = st.template.Rows
			}
			record := &secondary.ProtocolRecord{
				ProtocolID:             newID(),
				ProtocolSchemaID:       st.template.ProtocolSchemaID,
				ProtocolName:           st.template.ProtocolName,
				AssociatedWithSchemaID: st.template.AssociatedWithSchemaID,
				DefaultSerialNumber:    st.template.DefaultSerialNumber,
				Rows:                   rows,
				AssociatedUnitID:       req.InternalID,
				Status:                 string(protocol.InitialStatus()),
				CreationTime:           s.now().UTC(),
			}
			if err := s.protocolRepo.Create(ctx, record); err != nil {
				return storeFailure(ctx, s.logger, "protocol.update", req.InternalID, err)
			}
			into = record.Status
			out = recordToProtocol(record)
			return nil
		}

		current := protocol.Status(st.protocol.Status)
		next := protocol.Advance(current)
		swapped, err := s.protocolRepo.UpdateRows(ctx, st.protocol.ProtocolID, rows, string(current), string(next))
		if err != nil {
			return storeFailure(ctx, s.logger, "protocol.update", req.InternalID, err)
		}
		if !swapped {
			return apperr.InvalidState("cannot move protocol for unit %s from %s to %s: status changed concurrently",
				req.InternalID, current, next)
		}

		st.protocol.Rows = rows
		st.protocol.Status = string(next)
		from, into = string(current), string(next)
		out = recordToProtocol(st.protocol)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recorder.ProtocolTransition(from, into)
	s.logger.InfoContext(ctx, "protocol updated", "internal_id", req.InternalID, "from", from, "to", into)
	return out, nil
}

// Approve freezes the unit's protocol and finalizes the unit.
// Both writes commit together.
func (s *ProtocolServiceImpl) Approve(ctx context.Context, internalID string) (*primary.Protocol, error) {
	var (
		out  *primary.Protocol
		from string
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		st, err := s.load(ctx, "protocol.approve", internalID)
		if err != nil {
			return err
		}
		guardCtx := protocol.ApproveContext{
			UnitInternalID: internalID,
			UnitExists:     st.unit != nil,
			ProtocolExists: st.protocol != nil,
		}
		if err := protocol.CanApprove(guardCtx).Error(); err != nil {
			return err
		}

		from = st.protocol.Status
		if err := s.protocolRepo.SetStatus(ctx, st.protocol.ProtocolID, string(protocol.StatusApproved)); err != nil {
			return storeFailure(ctx, s.logger, "protocol.approve", internalID, err)
		}
		if _, err := s.registry.UpdateStatus(ctx, internalID, string(unit.StatusFinalized)); err != nil {
			return err
		}

		st.protocol.Status = string(protocol.StatusApproved)
		out = recordToProtocol(st.protocol)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if from != string(protocol.StatusApproved) {
		s.recorder.ProtocolTransition(from, string(protocol.StatusApproved))
	}
	s.logger.InfoContext(ctx, "protocol approved", "internal_id", internalID)
	return out, nil
}

// Remove deletes the unit's protocol instance. The unit's status is untouched.
func (s *ProtocolServiceImpl) Remove(ctx context.Context, internalID string) error {
	err := s.protocolRepo.DeleteByUnitID(ctx, internalID)
	if isNotFound(err) {
		return protocol.CanRemove(protocol.RemoveContext{UnitInternalID: internalID}).Error()
	}
	if err != nil {
		return storeFailure(ctx, s.logger, "protocol.remove", internalID, err)
	}
	s.logger.InfoContext(ctx, "protocol removed", "internal_id", internalID)
	return nil
}

// SaveTemplate inserts or replaces a protocol template.
func (s *ProtocolServiceImpl) SaveTemplate(ctx context.Context, t primary.ProtocolTemplate) (*primary.ProtocolTemplate, error) {
	if strings.TrimSpace(t.ProtocolName) == "" {
		return nil, apperr.Validation("protocol_name is required")
	}
	if t.AssociatedWithSchemaID == "" {
		return nil, apperr.Validation("associated_with_schema_id is required")
	}
	_, err := s.schemaRepo.GetByID(ctx, t.AssociatedWithSchemaID)
	if isNotFound(err) {
		return nil, apperr.Validation("schema %s not found", t.AssociatedWithSchemaID)
	}
	if err != nil {
		return nil, storeFailure(ctx, s.logger, "protocol.template", t.AssociatedWithSchemaID, err)
	}

	if t.ProtocolSchemaID == "" {
		t.ProtocolSchemaID = newID()
	}
	record := &secondary.ProtocolTemplateRecord{
		ProtocolSchemaID:       t.ProtocolSchemaID,
		ProtocolName:           t.ProtocolName,
		AssociatedWithSchemaID: t.AssociatedWithSchemaID,
		DefaultSerialNumber:    t.DefaultSerialNumber,
		Rows:                   rowsToRecords(t.Rows),
	}
	if err := s.templateRepo.Save(ctx, record); err != nil {
		return nil, storeFailure(ctx, s.logger, "protocol.template", t.ProtocolSchemaID, err)
	}
	return recordToTemplate(record), nil
}

// ListTemplates lists every protocol template.
func (s *ProtocolServiceImpl) ListTemplates(ctx context.Context) ([]*primary.ProtocolTemplate, error) {
	records, err := s.templateRepo.List(ctx)
	if err != nil {
		return nil, storeFailure(ctx, s.logger, "protocol.templates", "", err)
	}
	out := make([]*primary.ProtocolTemplate, len(records))
	for i, r := range records {
		out[i] = recordToTemplate(r)
	}
	return out, nil
}

// Helper methods

func prototypeFromTemplate(t *secondary.ProtocolTemplateRecord, internalID string) *primary.Protocol {
	return &primary.Protocol{
		ProtocolTemplate: *recordToTemplate(t),
		AssociatedUnitID: internalID,
	}
}

func recordToTemplate(r *secondary.ProtocolTemplateRecord) *primary.ProtocolTemplate {
	return &primary.ProtocolTemplate{
		ProtocolName:           r.ProtocolName,
		ProtocolSchemaID:       r.ProtocolSchemaID,
		AssociatedWithSchemaID: r.AssociatedWithSchemaID,
		DefaultSerialNumber:    r.DefaultSerialNumber,
		Rows:                   recordsToRows(r.Rows),
	}
}

func recordToProtocol(r *secondary.ProtocolRecord) *primary.Protocol {
	created := r.CreationTime
	return &primary.Protocol{
		ProtocolTemplate: primary.ProtocolTemplate{
			ProtocolName:           r.ProtocolName,
			ProtocolSchemaID:       r.ProtocolSchemaID,
			AssociatedWithSchemaID: r.AssociatedWithSchemaID,
			DefaultSerialNumber:    r.DefaultSerialNumber,
			Rows:                   recordsToRows(r.Rows),
		},
		ProtocolID:       r.ProtocolID,
		AssociatedUnitID: r.AssociatedUnitID,
		Status:           r.Status,
		CreationTime:     &created,
	}
}

func rowsToRecords(rows []primary.ProtocolRow) []secondary.ProtocolRowRecord {
	out := make([]secondary.ProtocolRowRecord, len(rows))
	for i, r := range rows {
		out[i] = secondary.ProtocolRowRecord(r)
	}
	return out
}

func recordsToRows(rows []secondary.ProtocolRowRecord) []primary.ProtocolRow {
	out := make([]primary.ProtocolRow, len(rows))
	for i, r := range rows {
		out[i] = primary.ProtocolRow(r)
	}
	return out
}

// Ensure ProtocolServiceImpl implements the interface.
var _ primary.ProtocolService = (*ProtocolServiceImpl)(nil)
