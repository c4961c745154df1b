// Package unit contains the pure business logic for production unit (passport) records.
package unit

// Status represents the lifecycle status of a production unit.
type Status string

const (
	StatusProduction Status = "production"
	StatusBuilt      Status = "built"
	StatusRevision   Status = "revision"
	StatusApproved   Status = "approved"
	StatusFinalized  Status = "finalized"
)

// AllStatuses lists every unit status in lifecycle order.
var AllStatuses = []Status{
	StatusProduction,
	StatusBuilt,
	StatusRevision,
	StatusApproved,
	StatusFinalized,
}

// InitialStatus returns the status a unit is created with when none is supplied.
func InitialStatus() Status {
	return StatusProduction
}

// ParseStatus converts a raw string into a Status.
// Returns false if the value is not a known status.
func ParseStatus(raw string) (Status, bool) {
	for _, s := range AllStatuses {
		if string(s) == raw {
			return s, true
		}
	}
	return "", false
}

// IsNoop reports whether writing next over current changes nothing.
func IsNoop(current, next Status) bool {
	return current == next
}

// excludedEditFields are structural identity fields plus the status,
// which only moves through the workflow operations.
var excludedEditFields = map[string]bool{
	"uuid":               true,
	"internal_id":        true,
	"is_in_db":           true,
	"featured_in_int_id": true,
	"status":             true,
}

// IsEditableField reports whether a field may appear in a generic edit payload.
func IsEditableField(field string) bool {
	return !excludedEditFields[field]
}

// StripExcludedFields returns a copy of fields without any identity or status keys.
func StripExcludedFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		if IsEditableField(k) {
			out[k] = v
		}
	}
	return out
}
