// Package wire assembles the application: store, repositories, services and
// adapters. Everything is built once by New and handed to the caller.
package wire

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/example/feecc/internal/adapters/cache"
	cliadapter "github.com/example/feecc/internal/adapters/cli"
	httpadapter "github.com/example/feecc/internal/adapters/http"
	"github.com/example/feecc/internal/adapters/metrics"
	"github.com/example/feecc/internal/adapters/sqlite"
	"github.com/example/feecc/internal/app"
	"github.com/example/feecc/internal/config"
	"github.com/example/feecc/internal/db"
)

// App holds the assembled services.
type App struct {
	DB      *sql.DB
	Metrics *metrics.Metrics
	Logger  *slog.Logger

	Units     *app.UnitServiceImpl
	Stages    *app.StageServiceImpl
	Revisions *app.RevisionServiceImpl
	Protocols *app.ProtocolServiceImpl
	Employees *app.EmployeeServiceImpl
	Schemas   *app.SchemaServiceImpl
	Auth      *app.AuthServiceImpl
	Seeder    *app.Seeder

	handler http.Handler
}

// New opens and migrates the store, builds every service and makes sure a
// bootstrap admin exists when one is configured.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	database, err := db.OpenMigrated(ctx, cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	a := build(database, cfg, logger)

	created, err := a.Auth.EnsureBootstrapAdmin(ctx, cfg.Auth.BootstrapUsername, cfg.Auth.BootstrapPassword)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to create bootstrap admin: %w", err)
	}
	if created {
		logger.InfoContext(ctx, "bootstrap admin created", "username", cfg.Auth.BootstrapUsername)
	}
	return a, nil
}

func build(database *sql.DB, cfg *config.Config, logger *slog.Logger) *App {
	m := metrics.New()

	// Secondary adapters
	unitRepo := sqlite.NewUnitRepository(database)
	stageRepo := sqlite.NewStageRepository(database)
	schemaRepo := sqlite.NewSchemaRepository(database)
	employeeRepo := sqlite.NewEmployeeRepository(database)
	historyRepo := sqlite.NewStatusLogRepository(database)
	tx := sqlite.NewTransactor(database)
	employeeCache := cache.NewEmployeeCache(cfg.Cache.Size, cfg.Cache.TTL)

	// Services
	employees := app.NewEmployeeService(employeeRepo, employeeCache, logger.With("service", "employee"))
	stages := app.NewStageService(stageRepo, unitRepo, schemaRepo, employees, logger.With("service", "stage"))
	units := app.NewUnitService(app.UnitServiceDeps{
		Units:      unitRepo,
		Stages:     stageRepo,
		Schemas:    schemaRepo,
		History:    historyRepo,
		LogWriter:  sqlite.NewLogWriterAdapter(historyRepo),
		Ledger:     stages,
		Transactor: tx,
		Recorder:   m,
	}, logger.With("service", "unit"))
	revisions := app.NewRevisionService(unitRepo, stageRepo, units, tx, m, logger.With("service", "revision"))
	protocols := app.NewProtocolService(app.ProtocolServiceDeps{
		Protocols:  sqlite.NewProtocolRepository(database),
		Templates:  sqlite.NewProtocolTemplateRepository(database),
		Units:      unitRepo,
		Schemas:    schemaRepo,
		Employees:  employeeRepo,
		Registry:   units,
		Transactor: tx,
		Recorder:   m,
	}, logger.With("service", "protocol"))
	schemas := app.NewSchemaService(schemaRepo, logger.With("service", "schema"))
	auth := app.NewAuthService(sqlite.NewUserRepository(database), sqlite.NewTokenRepository(database),
		cfg.Auth.TokenTTL, logger.With("service", "auth"))

	a := &App{
		DB:        database,
		Metrics:   m,
		Logger:    logger,
		Units:     units,
		Stages:    stages,
		Revisions: revisions,
		Protocols: protocols,
		Employees: employees,
		Schemas:   schemas,
		Auth:      auth,
		Seeder:    app.NewSeeder(schemas, protocols, employees, logger.With("service", "seed")),
	}

	a.handler = httpadapter.NewRouter(httpadapter.Services{
		Units:     units,
		Stages:    stages,
		Revisions: revisions,
		Protocols: protocols,
		Employees: employees,
		Schemas:   schemas,
		Auth:      auth,
	}, httpadapter.Options{
		Metrics:        m,
		Logger:         logger.With("component", "http"),
		RequestTimeout: cfg.Database.Timeout,
	})
	return a
}

// Handler returns the HTTP API.
func (a *App) Handler() http.Handler {
	return a.handler
}

// PassportAdapter returns a passport CLI adapter writing to out.
func (a *App) PassportAdapter(out io.Writer) *cliadapter.PassportAdapter {
	return cliadapter.NewPassportAdapter(a.Units, a.Revisions, out)
}

// ProtocolAdapter returns a protocol CLI adapter writing to out.
func (a *App) ProtocolAdapter(out io.Writer) *cliadapter.ProtocolAdapter {
	return cliadapter.NewProtocolAdapter(a.Protocols, out)
}

// Close releases the store.
func (a *App) Close() error {
	return a.DB.Close()
}
