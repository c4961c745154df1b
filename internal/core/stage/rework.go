// Package stage contains the pure business logic for production stage records:
// clearing completed stages for rework and cancelling rework stages.
package stage

import (
	"fmt"
	"time"

	"github.com/example/feecc/internal/apperr"
)

// RevisionExitThreshold is the number of incomplete stages below which a unit
// in revision returns to built after a cancellation.
const RevisionExitThreshold = 2

// Additional info keys written by rework operations.
const (
	InfoReworked     = "reworked"
	InfoCanceled     = "canceled"
	InfoCanceledDate = "canceled_date"
	InfoCanceledBy   = "canceled_by"
)

// Snapshot is the part of a stage record the rework rules look at.
type Snapshot struct {
	ID             string
	ParentUnitUUID string
	SchemaStageID  string
	Name           string
	Completed      bool
}

// Pending is a freshly cleared stage, ready to be appended to the ledger.
// It has no session times until an operator starts it.
type Pending struct {
	ID             string
	ParentUnitUUID string
	SchemaStageID  string
	Name           string
	Completed      bool
	Number         int
	AdditionalInfo map[string]any
}

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

// CanClear evaluates whether a stage can be cleared for rework.
// Rules:
// - Stage must be completed
func CanClear(s Snapshot) GuardResult {
	if !s.Completed {
		return GuardResult{
			Allowed: false,
			Kind:    apperr.KindInvalidState,
			Reason:  fmt.Sprintf("cannot clear stage %s for rework: stage is incomplete (only completed stages can be reworked)", s.ID),
		}
	}
	return GuardResult{Allowed: true}
}

// Clear produces a new pending stage that reworks s.
// The source snapshot is never modified; newID must be a fresh identifier.
func Clear(s Snapshot, nextNumber int, newID string) (Pending, error) {
	if err := CanClear(s).Error(); err != nil {
		return Pending{}, err
	}
	return Pending{
		ID:             newID,
		ParentUnitUUID: s.ParentUnitUUID,
		SchemaStageID:  s.SchemaStageID,
		Name:           s.Name,
		Completed:      false,
		Number:         nextNumber,
		AdditionalInfo: map[string]any{InfoReworked: true},
	}, nil
}

// CancelContext provides context for revision cancellation guards.
type CancelContext struct {
	StageID     string
	StageExists bool
	Completed   bool
}

// CanCancelRevision evaluates whether a rework stage can be cancelled.
// Rules:
// - Stage must exist
// - Stage must not be completed
func CanCancelRevision(ctx CancelContext) GuardResult {
	if !ctx.StageExists {
		return GuardResult{
			Allowed: false,
			Kind:    apperr.KindNotFound,
			Reason:  fmt.Sprintf("stage %s not found", ctx.StageID),
		}
	}
	if ctx.Completed {
		return GuardResult{
			Allowed: false,
			Kind:    apperr.KindInvalidState,
			Reason:  fmt.Sprintf("cannot cancel revision of stage %s: stage is already completed", ctx.StageID),
		}
	}
	return GuardResult{Allowed: true}
}

// MarkCanceled returns a copy of info carrying the cancellation marker.
func MarkCanceled(info map[string]any, employee string, now time.Time) map[string]any {
	out := make(map[string]any, len(info)+3)
	for k, v := range info {
		out[k] = v
	}
	out[InfoCanceled] = true
	out[InfoCanceledDate] = now.UTC().Format(time.RFC3339)
	if employee != "" {
		out[InfoCanceledBy] = employee
	} else {
		out[InfoCanceledBy] = nil
	}
	return out
}

// ShouldExitRevision reports whether a unit with the given number of
// incomplete stages should leave revision.
func ShouldExitRevision(incomplete int) bool {
	return incomplete < RevisionExitThreshold
}
