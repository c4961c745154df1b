// Package sqlite_test contains integration tests for SQLite repositories.
//
// # Schema Protection
//
// This file is the SINGLE POINT where the database schema is loaded for tests.
// setupTestDB applies the embedded goose migrations so tests run against the
// same schema as production.
//
// DO NOT hardcode CREATE TABLE statements in test files. Use setupTestDB()
// and the seed* helpers instead.
package sqlite_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/example/feecc/internal/adapters/sqlite"
	"github.com/example/feecc/internal/db"
	"github.com/example/feecc/internal/ports/secondary"
)

// setupTestDB creates an in-memory database with every migration applied.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	testDB, err := db.OpenMigrated(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}

	t.Cleanup(func() {
		testDB.Close()
	})

	return testDB
}

// baseTime is the creation time of the first seeded row.
var baseTime = time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)

// seedUnit inserts a unit with the given status and returns its uuid.
func seedUnit(t *testing.T, database *sql.DB, uuid, internalID, status string, created time.Time) string {
	t.Helper()
	repo := sqlite.NewUnitRepository(database)
	err := repo.Create(context.Background(), &secondary.UnitRecord{
		UUID:         uuid,
		InternalID:   internalID,
		Model:        "Model " + internalID,
		Type:         "Sensor",
		CreationTime: created,
		Status:       status,
	})
	if err != nil {
		t.Fatalf("failed to seed unit: %v", err)
	}
	return uuid
}

// seedStage inserts a stage of unitUUID and returns its id.
func seedStage(t *testing.T, database *sql.DB, id, unitUUID, name string, completed bool, created time.Time) string {
	t.Helper()
	repo := sqlite.NewStageRepository(database)
	err := repo.Create(context.Background(), &secondary.StageRecord{
		ID:             id,
		ParentUnitUUID: unitUUID,
		SchemaStageID:  "schema-stage-" + name,
		Name:           name,
		Completed:      completed,
		CreationTime:   created,
	})
	if err != nil {
		t.Fatalf("failed to seed stage: %v", err)
	}
	return id
}

// seedUser inserts a user with the given capabilities.
func seedUser(t *testing.T, database *sql.DB, username string, rules ...string) {
	t.Helper()
	repo := sqlite.NewUserRepository(database)
	err := repo.Create(context.Background(), &secondary.UserRecord{
		Username:       username,
		RuleSet:        rules,
		HashedPassword: "hash",
	})
	if err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
}
