package revision

import (
	"reflect"
	"testing"

	"github.com/example/feecc/internal/apperr"
	"github.com/example/feecc/internal/core/unit"
)

func builtContext() SendContext {
	return SendContext{
		InternalID: "0000000000001",
		UnitExists: true,
		UnitUUID:   "unit-a",
		UnitStatus: unit.StatusBuilt,
		RequestedStages: []StageRef{
			{ID: "s2", Exists: true, ParentUnitUUID: "unit-a"},
		},
		UnitStageCount: 3,
	}
}

func TestCanSendForRevision(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*SendContext)
		wantAllowed bool
		wantKind    apperr.Kind
	}{
		{
			name:        "built unit with own stage is allowed",
			mutate:      func(*SendContext) {},
			wantAllowed: true,
		},
		{
			name:     "missing unit",
			mutate:   func(c *SendContext) { c.UnitExists = false },
			wantKind: apperr.KindValidation,
		},
		{
			name:     "empty stage list",
			mutate:   func(c *SendContext) { c.RequestedStages = nil },
			wantKind: apperr.KindValidation,
		},
		{
			name: "stage of another unit",
			mutate: func(c *SendContext) {
				c.RequestedStages = []StageRef{{ID: "s9", Exists: true, ParentUnitUUID: "unit-b"}}
			},
			wantKind: apperr.KindValidation,
		},
		{
			name: "unknown stage",
			mutate: func(c *SendContext) {
				c.RequestedStages = append(c.RequestedStages, StageRef{ID: "ghost"})
			},
			wantKind: apperr.KindValidation,
		},
		{
			name:     "unit without stages",
			mutate:   func(c *SendContext) { c.UnitStageCount = 0 },
			wantKind: apperr.KindValidation,
		},
		{
			name: "status checked before stage list",
			mutate: func(c *SendContext) {
				c.UnitStatus = unit.StatusProduction
				c.RequestedStages = nil
			},
			wantKind: apperr.KindInvalidState,
		},
		{
			name: "existence checked before status",
			mutate: func(c *SendContext) {
				c.UnitExists = false
				c.UnitStatus = unit.StatusFinalized
			},
			wantKind: apperr.KindValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := builtContext()
			tt.mutate(&ctx)

			result := CanSendForRevision(ctx)
			if result.Allowed != tt.wantAllowed {
				t.Fatalf("Allowed = %v, want %v (reason: %s)", result.Allowed, tt.wantAllowed, result.Reason)
			}
			if !tt.wantAllowed && !apperr.Is(result.Error(), tt.wantKind) {
				t.Errorf("kind = %q, want %q", apperr.KindOf(result.Error()), tt.wantKind)
			}
		})
	}
}

func TestCanSendForRevision_NonBuiltStatuses(t *testing.T) {
	for _, status := range []unit.Status{
		unit.StatusProduction,
		unit.StatusRevision,
		unit.StatusApproved,
		unit.StatusFinalized,
	} {
		t.Run(string(status), func(t *testing.T) {
			ctx := builtContext()
			ctx.UnitStatus = status

			result := CanSendForRevision(ctx)
			if result.Allowed {
				t.Fatal("expected revision to be rejected")
			}
			if !apperr.Is(result.Error(), apperr.KindInvalidState) {
				t.Errorf("kind = %q, want INVALID_STATE", apperr.KindOf(result.Error()))
			}
			want := "cannot move unit 0000000000001 from " + string(status) + " to revision: only built units can be sent for revision"
			if result.Reason != want {
				t.Errorf("Reason = %q, want %q", result.Reason, want)
			}
		})
	}
}

func TestDedupeStageIDs(t *testing.T) {
	got := DedupeStageIDs([]string{"s2", "", "s1", "s2"})
	want := []string{"s2", "s1"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("DedupeStageIDs() = %v, want %v", got, want)
	}
}
