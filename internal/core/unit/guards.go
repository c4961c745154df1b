package unit

import (
	"fmt"
	"strings"

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

// LookupContext provides context for unit lookup guards.
type LookupContext struct {
	UUID       string
	InternalID string
}

// CreateUnitContext provides context for unit creation guards.
type CreateUnitContext struct {
	InternalID       string
	Status           string
	InternalIDTaken  bool
	SchemaID         string
	SchemaExists     bool
	FeaturedInIntID  string
	ParentUnitExists bool
}

// CanLookup evaluates whether a lookup request is well-formed.
// Rules:
// - Exactly one of uuid and internal_id must be supplied
func CanLookup(ctx LookupContext) GuardResult {
	hasUUID := strings.TrimSpace(ctx.UUID) != ""
	hasInternal := strings.TrimSpace(ctx.InternalID) != ""

	if hasUUID && hasInternal {
		return GuardResult{
			Allowed: false,
			Kind:    apperr.KindValidation,
			Reason:  "ambiguous lookup: supply either uuid or internal_id, not both",
		}
	}
	if !hasUUID && !hasInternal {
		return GuardResult{
			Allowed: false,
			Kind:    apperr.KindValidation,
			Reason:  "lookup requires uuid or internal_id",
		}
	}

	return GuardResult{Allowed: true}
}

// CanCreateUnit evaluates whether a unit can be created.
// Rules:
// - internal_id must be present and unused
// - status, if supplied, must be a known status
// - schema_id, if supplied, must reference an existing schema
// - featured_in_int_id, if supplied, must reference an existing unit
func CanCreateUnit(ctx CreateUnitContext) GuardResult {
	if strings.TrimSpace(ctx.InternalID) == "" {
		return GuardResult{Allowed: false, Kind: apperr.KindValidation, Reason: "internal_id is required"}
	}
	if ctx.InternalIDTaken {
		return GuardResult{
			Allowed: false,
			Kind:    apperr.KindValidation,
			Reason:  fmt.Sprintf("unit with internal_id %s already exists", ctx.InternalID),
		}
	}
	if ctx.Status != "" {
		if _, ok := ParseStatus(ctx.Status); !ok {
			return GuardResult{
				Allowed: false,
				Kind:    apperr.KindValidation,
				Reason:  fmt.Sprintf("unknown unit status %q", ctx.Status),
			}
		}
	}
	if ctx.SchemaID != "" && !ctx.SchemaExists {
		return GuardResult{
			Allowed: false,
			Kind:    apperr.KindValidation,
			Reason:  fmt.Sprintf("schema %s not found", ctx.SchemaID),
		}
	}
	if ctx.FeaturedInIntID != "" && !ctx.ParentUnitExists {
		return GuardResult{
			Allowed: false,
			Kind:    apperr.KindValidation,
			Reason:  fmt.Sprintf("parent unit %s not found", ctx.FeaturedInIntID),
		}
	}

	return GuardResult{Allowed: true}
}
