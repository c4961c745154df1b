package app

import (
	"context"
	"testing"

	"github.com/example/feecc/internal/adapters/sqlite"
	"github.com/example/feecc/internal/apperr"
	"github.com/example/feecc/internal/ctxutil"
	"github.com/example/feecc/internal/db"
	"github.com/example/feecc/internal/ports/primary"
)

// sqliteServices wires the workflow services against a migrated in-memory store.
type sqliteServices struct {
	units     *UnitServiceImpl
	stages    *StageServiceImpl
	revisions *RevisionServiceImpl
	protocols *ProtocolServiceImpl
	schemas   *SchemaServiceImpl
}

func newSQLiteServices(t *testing.T) *sqliteServices {
	t.Helper()
	database, err := db.OpenMigrated(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	unitRepo := sqlite.NewUnitRepository(database)
	stageRepo := sqlite.NewStageRepository(database)
	schemaRepo := sqlite.NewSchemaRepository(database)
	employeeRepo := sqlite.NewEmployeeRepository(database)
	historyRepo := sqlite.NewStatusLogRepository(database)
	tx := sqlite.NewTransactor(database)

	employees := NewEmployeeService(employeeRepo, nil, nil)
	stages := NewStageService(stageRepo, unitRepo, schemaRepo, employees, nil)
	units := NewUnitService(UnitServiceDeps{
		Units:      unitRepo,
		Stages:     stageRepo,
		Schemas:    schemaRepo,
		History:    historyRepo,
		LogWriter:  sqlite.NewLogWriterAdapter(historyRepo),
		Ledger:     stages,
		Transactor: tx,
	}, nil)

	return &sqliteServices{
		units:     units,
		stages:    stages,
		revisions: NewRevisionService(unitRepo, stageRepo, units, tx, nil, nil),
		protocols: NewProtocolService(ProtocolServiceDeps{
			Protocols:  sqlite.NewProtocolRepository(database),
			Templates:  sqlite.NewProtocolTemplateRepository(database),
			Units:      unitRepo,
			Schemas:    schemaRepo,
			Employees:  employeeRepo,
			Registry:   units,
			Transactor: tx,
		}, nil),
		schemas: NewSchemaService(schemaRepo, nil),
	}
}

func TestWorkflow_ReviseCancelApprove(t *testing.T) {
	svc := newSQLiteServices(t)
	ctx := ctxutil.WithActor(context.Background(), "qc-lead")

	schema, err := svc.schemas.CreateSchema(ctx, primary.CreateSchemaRequest{UnitName: "Lidar", SchemaType: "final"})
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	if _, err := svc.protocols.SaveTemplate(ctx, primary.ProtocolTemplate{
		ProtocolName:           "Lidar acceptance",
		AssociatedWithSchemaID: schema.SchemaID,
		Rows:                   []primary.ProtocolRow{{Name: "Range", Value: "100m"}},
	}); err != nil {
		t.Fatalf("template: %v", err)
	}

	u, err := svc.units.CreateUnit(ctx, primary.CreateUnitRequest{InternalID: "1000000000001", SchemaID: schema.SchemaID})
	if err != nil {
		t.Fatalf("unit: %v", err)
	}
	var firstStage *primary.Stage
	for _, name := range []string{"assembly", "calibration"} {
		s, err := svc.stages.AppendStage(ctx, primary.AppendStageRequest{ParentUnitUUID: u.UUID, Name: name, Completed: true})
		if err != nil {
			t.Fatalf("stage %s: %v", name, err)
		}
		if firstStage == nil {
			firstStage = s
		}
	}
	if _, err := svc.units.UpdateStatus(ctx, u.InternalID, "built"); err != nil {
		t.Fatalf("built: %v", err)
	}

	// A stage of another unit is rejected and nothing is written.
	other, err := svc.units.CreateUnit(ctx, primary.CreateUnitRequest{InternalID: "1000000000002", Status: "built"})
	if err != nil {
		t.Fatalf("other unit: %v", err)
	}
	foreign, err := svc.stages.AppendStage(ctx, primary.AppendStageRequest{ParentUnitUUID: other.UUID, Name: "assembly", Completed: true})
	if err != nil {
		t.Fatalf("foreign stage: %v", err)
	}
	_, err = svc.revisions.SendForRevision(ctx, primary.SendForRevisionRequest{
		InternalID: u.InternalID,
		StageIDs:   []string{firstStage.ID, foreign.ID},
	})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for foreign stage, got %v", err)
	}
	if got, _ := svc.stages.StagesFor(ctx, u.UUID); len(got) != 2 {
		t.Fatalf("expected ledger untouched, got %d stages", len(got))
	}

	sent, err := svc.revisions.SendForRevision(ctx, primary.SendForRevisionRequest{
		InternalID: u.InternalID,
		StageIDs:   []string{firstStage.ID},
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if sent.Status != "revision" || len(sent.NewStages) != 1 || *sent.NewStages[0].Number != 2 {
		t.Fatalf("unexpected revision result: %+v", sent)
	}

	cancelled, err := svc.revisions.CancelRevision(ctx, primary.CancelRevisionRequest{StageID: sent.NewStages[0].ID, Employee: "qc-lead"})
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.UnitStatus != "built" {
		t.Errorf("expected unit back in built, got %q", cancelled.UnitStatus)
	}

	admin := &primary.User{Username: "qc-lead", RuleSet: []string{"approve"}}
	for i := 0; i < 2; i++ {
		if _, err := svc.protocols.ProcessUpdate(ctx, primary.ProcessUpdateRequest{InternalID: u.InternalID, Actor: admin}); err != nil {
			t.Fatalf("protocol update %d: %v", i, err)
		}
	}
	approved, err := svc.protocols.Approve(ctx, u.InternalID)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if approved.Status != "approved" {
		t.Errorf("expected approved protocol, got %q", approved.Status)
	}

	passport, err := svc.units.GetPassport(ctx, u.InternalID)
	if err != nil {
		t.Fatalf("passport: %v", err)
	}
	if passport.Status != "finalized" {
		t.Errorf("expected finalized unit, got %q", passport.Status)
	}
	if len(passport.Biography) != 3 {
		t.Errorf("expected 3 stages in biography, got %d", len(passport.Biography))
	}

	history, err := svc.units.GetHistory(ctx, u.InternalID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	want := []string{"built", "revision", "built", "finalized"}
	if len(history) != len(want) {
		t.Fatalf("expected %d history entries, got %d", len(want), len(history))
	}
	for i, h := range history {
		if h.NewStatus != want[i] {
			t.Errorf("entry %d: expected %q, got %q", i, want[i], h.NewStatus)
		}
		if h.Actor != "qc-lead" {
			t.Errorf("entry %d: expected actor 'qc-lead', got %q", i, h.Actor)
		}
	}
}
