package secondary

import (
	"context"
	"time"
)

// LogWriter defines the interface for writing unit status history entries.
// Implementations extract the actor from context.
type LogWriter interface {
	// LogStatusChange records a unit moving from oldStatus to newStatus.
	LogStatusChange(ctx context.Context, unitUUID, oldStatus, newStatus string) error
}

// StatusLogRepository defines the secondary port for unit status history persistence.
type StatusLogRepository interface {
	// Create persists a new history entry.
	Create(ctx context.Context, entry *StatusLogRecord) error

	// ListByUnit retrieves the history of a unit, oldest first.
	ListByUnit(ctx context.Context, unitUUID string) ([]*StatusLogRecord, error)
}

// StatusLogRecord represents one status change of a unit.
type StatusLogRecord struct {
	ID        int64
	UnitUUID  string
	ActorID   string // Empty string means null
	OldStatus string
	NewStatus string
	ChangedAt time.Time
}

// TransitionRecorder receives workflow events for metrics.
type TransitionRecorder interface {
	// UnitTransition records a unit status change.
	UnitTransition(from, to string)

	// ProtocolTransition records a protocol status change. from is empty on creation.
	ProtocolTransition(from, to string)

	// StagesReworked records how many stages one revision request reopened.
	StagesReworked(n int)
}
