// Package revision contains the pure business logic for sending a built unit
// back for rework.
package revision

import (
	"fmt"

	"github.com/example/feecc/internal/apperr"
	"github.com/example/feecc/internal/core/unit"
)

// GuardResult represents the outcome of a guard evaluation.
type GuardResult struct {
	Allowed bool
	Kind    apperr.Kind
	Reason  string
}

// Error converts the guard result to an error if not allowed.
func (r GuardResult) Error() error {
	if r.Allowed {
		return nil
	}
	return &apperr.Error{Kind: r.Kind, Message: r.Reason}
}

// StageRef describes one requested stage as found in the ledger.
type StageRef struct {
	ID             string
	Exists         bool
	ParentUnitUUID string
}

// SendContext provides context for the send-for-revision guard.
type SendContext struct {
	InternalID      string
	UnitExists      bool
	UnitUUID        string
	UnitStatus      unit.Status
	RequestedStages []StageRef
	UnitStageCount  int
}

// CanSendForRevision evaluates whether a unit can be sent back for rework.
// Rules (checked in order, first failure wins):
// - Unit must exist
// - Unit status must be exactly "built"
// - At least one stage must be requested
// - Every requested stage must exist and belong to the unit
// - Unit must have at least one recorded stage
func CanSendForRevision(ctx SendContext) GuardResult {
	if !ctx.UnitExists {
		return GuardResult{
			Allowed: false,
			Kind:    apperr.KindValidation,
			Reason:  fmt.Sprintf("unit not found: %s", ctx.InternalID),
		}
	}

	if ctx.UnitStatus != unit.StatusBuilt {
		return GuardResult{
			Allowed: false,
			Kind:    apperr.KindInvalidState,
			Reason: fmt.Sprintf("cannot move unit %s from %s to %s: only built units can be sent for revision",
				ctx.InternalID, ctx.UnitStatus, unit.StatusRevision),
		}
	}

	if len(ctx.RequestedStages) == 0 {
		return GuardResult{
			Allowed: false,
			Kind:    apperr.KindValidation,
			Reason:  "at least one stage id is required",
		}
	}

	for _, s := range ctx.RequestedStages {
		if !s.Exists || s.ParentUnitUUID != ctx.UnitUUID {
			return GuardResult{
				Allowed: false,
				Kind:    apperr.KindValidation,
				Reason:  fmt.Sprintf("stage not associated with unit: stage %s, unit %s", s.ID, ctx.InternalID),
			}
		}
	}

	if ctx.UnitStageCount < 1 {
		return GuardResult{
			Allowed: false,
			Kind:    apperr.KindValidation,
			Reason:  fmt.Sprintf("unit %s has no recorded stages", ctx.InternalID),
		}
	}

	return GuardResult{Allowed: true}
}

// DedupeStageIDs returns ids with blanks and repeats removed, keeping first-seen order.
func DedupeStageIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
