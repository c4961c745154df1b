// Package protocol contains the pure business logic for quality-control
// protocols: the approval state machine and its preconditions.
package protocol

// Status represents the approval status of a protocol instance.
type Status string

const (
	StatusFirstStagePassed  Status = "first_stage_passed"
	StatusSecondStagePassed Status = "second_stage_passed"
	StatusApproved          Status = "approved"
)

// order is the forward progression of protocol statuses.
var order = []Status{
	StatusFirstStagePassed,
	StatusSecondStagePassed,
	StatusApproved,
}

// InitialStatus returns the status a freshly created protocol instance carries.
func InitialStatus() Status {
	return StatusFirstStagePassed
}

// ParseStatus converts a raw string into a Status.
func ParseStatus(raw string) (Status, bool) {
	for _, s := range order {
		if string(s) == raw {
			return s, true
		}
	}
	return "", false
}

// Advance returns the status one step after s. Approved is terminal, so
// advancing it (or an unknown status) yields approved.
func Advance(s Status) Status {
	for i, candidate := range order {
		if candidate == s && i+1 < len(order) {
			return order[i+1]
		}
	}
	return StatusApproved
}

// Rank returns the position of s in the forward progression, or -1 if unknown.
func Rank(s Status) int {
	for i, candidate := range order {
		if candidate == s {
			return i
		}
	}
	return -1
}

// IsImmutable reports whether a protocol in status s can no longer change.
func IsImmutable(s Status) bool {
	return s == StatusApproved
}
