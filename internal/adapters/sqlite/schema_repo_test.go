package sqlite_test

import (
	"context"
	"errors"
	"testing"

	"github.com/example/feecc/internal/adapters/sqlite"
	"github.com/example/feecc/internal/ports/secondary"
)

func TestSchemaRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewSchemaRepository(db)
	ctx := context.Background()

	seconds := 600
	parent := &secondary.SchemaRecord{
		SchemaID:   "sch-drone",
		UnitName:   "Drone",
		SchemaType: "final",
		ProductionStages: []secondary.SchemaStageRecord{
			{Name: "assembly", StageID: "st-1", Equipment: []string{"screwdriver"}, DurationSeconds: &seconds},
		},
		RequiredComponentsSchemaIDs: []string{"sch-motor"},
	}
	child := &secondary.SchemaRecord{
		SchemaID:       "sch-motor",
		UnitName:       "Motor",
		SchemaType:     "component",
		ParentSchemaID: "sch-drone",
	}
	for _, s := range []*secondary.SchemaRecord{parent, child} {
		if err := repo.Create(ctx, s); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	got, err := repo.GetByID(ctx, "sch-drone")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if len(got.ProductionStages) != 1 || got.ProductionStages[0].Equipment[0] != "screwdriver" {
		t.Errorf("ProductionStages = %+v", got.ProductionStages)
	}
	if got.ProductionStages[0].DurationSeconds == nil || *got.ProductionStages[0].DurationSeconds != 600 {
		t.Errorf("DurationSeconds not round-tripped: %+v", got.ProductionStages[0])
	}
	if len(got.RequiredComponentsSchemaIDs) != 1 || got.RequiredComponentsSchemaIDs[0] != "sch-motor" {
		t.Errorf("RequiredComponentsSchemaIDs = %v", got.RequiredComponentsSchemaIDs)
	}
	if got.ParentSchemaID != "" {
		t.Errorf("ParentSchemaID = %q, want empty", got.ParentSchemaID)
	}

	motor, err := repo.GetByID(ctx, "sch-motor")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if motor.ParentSchemaID != "sch-drone" {
		t.Errorf("ParentSchemaID = %q, want sch-drone", motor.ParentSchemaID)
	}
	if motor.ProductionStages == nil {
		t.Error("expected empty stage list instead of nil")
	}

	motor.UnitName = "Motor Mk2"
	if err := repo.Update(ctx, motor); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	all, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("List returned %d schemas, want 2", len(all))
	}

	if err := repo.Delete(ctx, "sch-motor"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := repo.GetByID(ctx, "sch-motor"); !errors.Is(err, secondary.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}
