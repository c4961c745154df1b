package protocol

import (
	"fmt"

	"github.com/example/feecc/internal/apperr"
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

// UpdateContext provides context for protocol update guards.
type UpdateContext struct {
	UnitInternalID string
	CanApprove     bool
	UnitExists     bool
	ProtocolExists bool
	Status         Status
	TemplateExists bool
}

// PrototypeContext provides context for protocol lookup guards.
type PrototypeContext struct {
	UnitInternalID string
	UnitExists     bool
	UnitSchemaID   string
	ProtocolExists bool
	TemplateExists bool
}

// ApproveContext provides context for protocol approval guards.
type ApproveContext struct {
	UnitInternalID string
	UnitExists     bool
	ProtocolExists bool
}

// RemoveContext provides context for protocol removal guards.
type RemoveContext struct {
	UnitInternalID string
	ProtocolExists bool
}

// CanUpdate evaluates whether incoming rows may be written to a unit's protocol.
// Rules (checked in order):
// - Acting user must hold the approve capability
// - Unit must exist
// - A protocol instance or a template for the unit's schema must exist
// - Existing protocol must not be approved
func CanUpdate(ctx UpdateContext) GuardResult {
	if !ctx.CanApprove {
		return GuardResult{
			Allowed: false,
			Kind:    apperr.KindForbidden,
			Reason:  "updating protocols requires the approve capability",
		}
	}
	if !ctx.UnitExists {
		return GuardResult{
			Allowed: false,
			Kind:    apperr.KindNotFound,
			Reason:  fmt.Sprintf("unit %s not found", ctx.UnitInternalID),
		}
	}
	if !ctx.ProtocolExists && !ctx.TemplateExists {
		return GuardResult{
			Allowed: false,
			Kind:    apperr.KindNotFound,
			Reason:  fmt.Sprintf("no protocol template for unit %s", ctx.UnitInternalID),
		}
	}
	if ctx.ProtocolExists && IsImmutable(ctx.Status) {
		return GuardResult{
			Allowed: false,
			Kind:    apperr.KindInvalidState,
			Reason: fmt.Sprintf("cannot update immutable protocol for unit %s (status %s): delete it first to restart",
				ctx.UnitInternalID, ctx.Status),
		}
	}

	return GuardResult{Allowed: true}
}

// CanGetPrototype evaluates whether a protocol can be shown for a unit.
// Rules:
// - Unit must exist
// - A protocol instance or a template for the unit's schema must exist
func CanGetPrototype(ctx PrototypeContext) GuardResult {
	if !ctx.UnitExists {
		return GuardResult{
			Allowed: false,
			Kind:    apperr.KindNotFound,
			Reason:  fmt.Sprintf("unit %s not found", ctx.UnitInternalID),
		}
	}
	if !ctx.ProtocolExists && !ctx.TemplateExists {
		return GuardResult{
			Allowed: false,
			Kind:    apperr.KindNotFound,
			Reason:  fmt.Sprintf("no protocol template for schema %q of unit %s", ctx.UnitSchemaID, ctx.UnitInternalID),
		}
	}
	return GuardResult{Allowed: true}
}

// CanApprove evaluates whether a unit's protocol can be approved.
// Rules:
// - Protocol must exist
// - Unit must exist
func CanApprove(ctx ApproveContext) GuardResult {
	if !ctx.ProtocolExists {
		return GuardResult{
			Allowed: false,
			Kind:    apperr.KindNotFound,
			Reason:  fmt.Sprintf("protocol for unit %s not found", ctx.UnitInternalID),
		}
	}
	if !ctx.UnitExists {
		return GuardResult{
			Allowed: false,
			Kind:    apperr.KindNotFound,
			Reason:  fmt.Sprintf("unit %s not found", ctx.UnitInternalID),
		}
	}
	return GuardResult{Allowed: true}
}

// CanRemove evaluates whether a unit's protocol can be removed.
// Rules:
// - Protocol must exist
func CanRemove(ctx RemoveContext) GuardResult {
	if !ctx.ProtocolExists {
		return GuardResult{
			Allowed: false,
			Kind:    apperr.KindNotFound,
			Reason:  fmt.Sprintf("protocol for unit %s not found", ctx.UnitInternalID),
		}
	}
	return GuardResult{Allowed: true}
}
