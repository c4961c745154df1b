package app

import (
	"context"
	"testing"

	"github.com/example/feecc/internal/apperr"
	"github.com/example/feecc/internal/core/employee"
	"github.com/example/feecc/internal/ports/primary"
	"github.com/example/feecc/internal/ports/secondary"
)

func TestAppendStage(t *testing.T) {
	sequentialIDs(t)
	env := newTestEnv()
	env.addUnit("u1", "100", "production", 0)
	ctx := context.Background()

	s, err := env.stageService.AppendStage(ctx, primary.AppendStageRequest{ParentUnitUUID: "u1", Name: "assembly", Completed: true})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if s.ID != "id001" {
		t.Errorf("expected id 'id001', got %q", s.ID)
	}
	if s.VideoHashes == nil || s.AdditionalInfo == nil {
		t.Error("expected empty collections instead of nil")
	}

	if _, err := env.stageService.AppendStage(ctx, primary.AppendStageRequest{ParentUnitUUID: "missing", Name: "x"}); !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("expected validation error for unknown unit, got %v", err)
	}
	if _, err := env.stageService.AppendStage(ctx, primary.AppendStageRequest{ParentUnitUUID: "u1"}); !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("expected validation error for missing name, got %v", err)
	}
}

func TestAddStageToUnit_ResolvesInternalID(t *testing.T) {
	env := newTestEnv()
	env.addUnit("u1", "100", "production", 0)
	ctx := context.Background()

	s, err := env.stageService.AddStageToUnit(ctx, "100", primary.AppendStageRequest{Name: "soldering"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if s.ParentUnitUUID != "u1" {
		t.Errorf("expected parent 'u1', got %q", s.ParentUnitUUID)
	}

	if _, err := env.stageService.AddStageToUnit(ctx, "missing", primary.AppendStageRequest{Name: "x"}); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestStagesFor_RecordingOrder(t *testing.T) {
	env := newTestEnv()
	env.addUnit("u1", "100", "built", 0)
	env.addStage("late", "u1", "testing", true, 5)
	env.addStage("first", "u1", "assembly", true, 1)
	env.addStage("second", "u1", "packing", true, 1)

	stages, err := env.stageService.StagesFor(context.Background(), "u1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	got := []string{}
	for _, s := range stages {
		got = append(got, s.ID)
	}
	want := []string{"first", "second", "late"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestStagesForInternalID_Subcomponents(t *testing.T) {
	env := newTestEnv()
	env.schemas.schemas["motor"] = &secondary.SchemaRecord{SchemaID: "motor", UnitName: "Motor"}

	parent := env.addUnit("u1", "100", "built", 0)
	parent.ComponentsInternalIDs = []string{"200", "300", "missing"}
	env.units.put(parent)

	motor := env.addUnit("u2", "200", "built", 0)
	motor.SchemaID = "motor"
	motor.ComponentsInternalIDs = []string{"100"} // cycle back to the parent
	env.units.put(motor)

	env.addUnit("u3", "300", "built", 0)

	env.addStage("p1", "u1", "final assembly", true, 3)
	env.addStage("m1", "u2", "winding", true, 1)
	env.addStage("b1", "u3", "charging", true, 2)
	ctx := context.Background()

	own, err := env.stageService.StagesForInternalID(ctx, "100", false)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(own) != 1 {
		t.Fatalf("expected only own stages, got %d", len(own))
	}

	all, err := env.stageService.StagesForInternalID(ctx, "100", true)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 stages, got %d", len(all))
	}
	if all[0].ID != "p1" || all[0].ParentUnitInternalID != "" {
		t.Errorf("expected own stage first without annotation, got %+v", all[0])
	}
	if all[1].ID != "m1" || all[1].ParentUnitInternalID != "200" || all[1].UnitName != "Motor" {
		t.Errorf("expected motor stage annotated from schema, got %+v", all[1])
	}
	if all[2].ID != "b1" || all[2].UnitName != "Model 300" {
		t.Errorf("expected component stage named after model, got %+v", all[2])
	}
}

func TestListStages_DecodesEmployees(t *testing.T) {
	env := newTestEnv()
	env.addUnit("u1", "100", "built", 0)
	env.employees.employees["0008368511"] = &secondary.EmployeeRecord{RFIDCardID: "0008368511", Name: "Ivan Ivanov", Position: "Engineer"}
	fp := employee.Fingerprint("0008368511", "Ivan Ivanov", "Engineer")

	known := env.addStage("s1", "u1", "assembly", true, 1)
	known.EmployeeName = fp
	_ = env.stages.Update(context.Background(), known)
	env.addStage("s2", "u1", "testing", true, 2)

	page, err := env.stageService.ListStages(context.Background(), primary.ListStagesRequest{DecodeEmployees: true})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if page.Count != 2 {
		t.Errorf("expected count 2, got %d", page.Count)
	}
	if page.Data[0].Employee == nil || page.Data[0].Employee.Name != "Ivan Ivanov" {
		t.Errorf("expected decoded employee, got %+v", page.Data[0].Employee)
	}
	if page.Data[1].Employee != nil {
		t.Errorf("expected no employee for anonymous stage, got %+v", page.Data[1].Employee)
	}
}

func TestEditStage_IgnoresImmutableFields(t *testing.T) {
	env := newTestEnv()
	env.addUnit("u1", "100", "built", 0)
	env.addStage("s1", "u1", "assembly", false, 1)

	s, err := env.stageService.EditStage(context.Background(), "s1", map[string]any{
		"parent_unit_uuid": "u9",
		"completed":        true,
		"name":             "final assembly",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if s.ParentUnitUUID != "u1" {
		t.Errorf("expected parent to stay 'u1', got %q", s.ParentUnitUUID)
	}
	if !s.Completed || s.Name != "final assembly" {
		t.Errorf("expected editable fields to change, got %+v", s)
	}
}

func TestDeleteStage_NotFound(t *testing.T) {
	env := newTestEnv()
	if err := env.stageService.DeleteStage(context.Background(), "missing"); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}
