package sqlite_test

import (
	"context"
	"testing"

	"github.com/example/feecc/internal/adapters/sqlite"
	"github.com/example/feecc/internal/ctxutil"
)

func TestLogWriterAdapter_RecordsActor(t *testing.T) {
	db := setupTestDB(t)
	seedUnit(t, db, "u1", "1000000000001", "production", baseTime)
	repo := sqlite.NewStatusLogRepository(db)
	writer := sqlite.NewLogWriterAdapter(repo)

	ctx := ctxutil.WithActor(context.Background(), "qc-lead")
	if err := writer.LogStatusChange(ctx, "u1", "production", "built"); err != nil {
		t.Fatalf("LogStatusChange failed: %v", err)
	}
	if err := writer.LogStatusChange(context.Background(), "u1", "built", "revision"); err != nil {
		t.Fatalf("LogStatusChange failed: %v", err)
	}

	entries, err := repo.ListByUnit(context.Background(), "u1")
	if err != nil {
		t.Fatalf("ListByUnit failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].ActorID != "qc-lead" || entries[0].NewStatus != "built" {
		t.Errorf("first entry = %+v", entries[0])
	}
	if entries[1].ActorID != "" || entries[1].OldStatus != "built" {
		t.Errorf("second entry = %+v, want no actor", entries[1])
	}
	if entries[0].ChangedAt.IsZero() {
		t.Error("expected ChangedAt to be set")
	}

	other, err := repo.ListByUnit(context.Background(), "u2")
	if err != nil {
		t.Fatalf("ListByUnit failed: %v", err)
	}
	if len(other) != 0 {
		t.Errorf("expected no entries for another unit, got %d", len(other))
	}
}
