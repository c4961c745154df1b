package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/example/feecc/internal/apperr"
	"github.com/example/feecc/internal/ports/secondary"
)

// newID returns a fresh 32-character hex identifier.
// Tests replace it to get deterministic ids.
var newID = func() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

const (
	defaultPage  = 1
	defaultItems = 20
	maxItems     = 500
)

// pageBounds validates paging parameters and returns limit and offset.
func pageBounds(page, items int) (int, int, error) {
	if page == 0 {
		page = defaultPage
	}
	if items == 0 {
		items = defaultItems
	}
	if page < 1 {
		return 0, 0, apperr.Validation("page must be positive, got %d", page)
	}
	if items < 1 || items > maxItems {
		return 0, 0, apperr.Validation("items must be between 1 and %d, got %d", maxItems, items)
	}
	return items, (page - 1) * items, nil
}

// loggerOrDiscard returns logger, or a logger that drops everything.
func loggerOrDiscard(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return logger
}

// storeFailure classifies a repository error. Errors that already carry an
// apperr kind pass through unchanged; anything else is logged and wrapped as
// a store error.
func storeFailure(ctx context.Context, logger *slog.Logger, op, entityID string, err error) error {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return err
	}
	logger.ErrorContext(ctx, "store failure", "op", op, "id", entityID, "error", err)
	return apperr.Store(op, err)
}

// isNotFound reports whether a repository error means the row is absent.
func isNotFound(err error) bool {
	return errors.Is(err, secondary.ErrNotFound)
}

// decodePatch converts a generic field map into a typed patch struct.
// Unknown keys and mistyped values are validation errors.
func decodePatch(fields map[string]any, patch any) error {
	raw, err := json.Marshal(fields)
	if err != nil {
		return apperr.Validation("invalid update payload: %v", err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(patch); err != nil {
		return apperr.Validation("invalid update payload: %v", err)
	}
	return nil
}

type nopRecorder struct{}

func (nopRecorder) UnitTransition(from, to string)     {}
func (nopRecorder) ProtocolTransition(from, to string) {}
func (nopRecorder) StagesReworked(n int)               {}

// recorderOrNop returns r, or a recorder that drops every event.
func recorderOrNop(r secondary.TransitionRecorder) secondary.TransitionRecorder {
	if r == nil {
		return nopRecorder{}
	}
	return r
}
