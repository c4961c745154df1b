package sqlite

import (
	"context"
	"time"

	"github.com/example/feecc/internal/ctxutil"
	"github.com/example/feecc/internal/ports/secondary"
)

// LogWriterAdapter implements secondary.LogWriter using StatusLogRepository.
type LogWriterAdapter struct {
	logRepo secondary.StatusLogRepository
	now     func() time.Time
}

// NewLogWriterAdapter creates a new LogWriterAdapter.
func NewLogWriterAdapter(logRepo secondary.StatusLogRepository) *LogWriterAdapter {
	return &LogWriterAdapter{
		logRepo: logRepo,
		now:     time.Now,
	}
}

// LogStatusChange records a unit moving from oldStatus to newStatus.
// The actor is taken from context; system-initiated changes have none.
func (w *LogWriterAdapter) LogStatusChange(ctx context.Context, unitUUID, oldStatus, newStatus string) error {
	return w.logRepo.Create(ctx, &secondary.StatusLogRecord{
		UnitUUID:  unitUUID,
		ActorID:   ctxutil.Actor(ctx),
		OldStatus: oldStatus,
		NewStatus: newStatus,
		ChangedAt: w.now(),
	})
}

// Ensure LogWriterAdapter implements the interface
var _ secondary.LogWriter = (*LogWriterAdapter)(nil)
