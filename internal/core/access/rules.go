// Package access contains the capability rules consulted by every mutating
// operation, plus credential shape checks for user registration.
package access

import (
	"fmt"
	"slices"
	"strings"

	"github.com/example/feecc/internal/apperr"
)

// Capability is a permission a user may hold in their rule set.
type Capability string

const (
	Read    Capability = "read"
	Write   Capability = "write"
	Approve Capability = "approve"
)

// AllCapabilities lists every known capability.
var AllCapabilities = []Capability{Read, Write, Approve}

const (
	MinUsernameLength = 4
	MinPasswordLength = 8
)

// Can reports whether ruleSet grants capability c.
func Can(ruleSet []string, c Capability) bool {
	return slices.Contains(ruleSet, string(c))
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

// CanAct evaluates whether a user may perform an action needing capability c.
func CanAct(username string, ruleSet []string, c Capability) GuardResult {
	if Can(ruleSet, c) {
		return GuardResult{Allowed: true}
	}
	return GuardResult{
		Allowed: false,
		Kind:    apperr.KindForbidden,
		Reason:  fmt.Sprintf("user %q lacks the %s capability", username, c),
	}
}

// RegisterContext provides context for user registration guards.
type RegisterContext struct {
	Username      string
	Password      string
	RuleSet       []string
	UsernameTaken bool
}

// CanRegister evaluates whether a user can be registered.
// Rules:
// - Username must be at least MinUsernameLength characters
// - Password must be at least MinPasswordLength characters
// - Every rule must be a known capability
// - Username must be unused
func CanRegister(ctx RegisterContext) GuardResult {
	if len(strings.TrimSpace(ctx.Username)) < MinUsernameLength {
		return GuardResult{
			Allowed: false,
			Kind:    apperr.KindValidation,
			Reason:  fmt.Sprintf("username must be at least %d characters", MinUsernameLength),
		}
	}
	if len(ctx.Password) < MinPasswordLength {
		return GuardResult{
			Allowed: false,
			Kind:    apperr.KindValidation,
			Reason:  fmt.Sprintf("password must be at least %d characters", MinPasswordLength),
		}
	}
	for _, rule := range ctx.RuleSet {
		if !slices.Contains(AllCapabilities, Capability(rule)) {
			return GuardResult{
				Allowed: false,
				Kind:    apperr.KindValidation,
				Reason:  fmt.Sprintf("unknown capability %q", rule),
			}
		}
	}
	if ctx.UsernameTaken {
		return GuardResult{
			Allowed: false,
			Kind:    apperr.KindValidation,
			Reason:  fmt.Sprintf("username %q is already taken", ctx.Username),
		}
	}
	return GuardResult{Allowed: true}
}
