package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/example/feecc/internal/db"
	"github.com/example/feecc/internal/ports/primary"
)

// SeedReport summarizes what a seed run created and skipped.
type SeedReport struct {
	EmployeesCreated int
	EmployeesSkipped int
	SchemasCreated   int
	SchemasSkipped   int
	TemplatesSaved   int
}

// Seeder loads reference data through the application services,
// so seeded rows pass the same validation as API writes.
type Seeder struct {
	schemas   primary.SchemaService
	protocols primary.ProtocolService
	employees primary.EmployeeService
	logger    *slog.Logger
}

// NewSeeder creates a new Seeder.
func NewSeeder(schemas primary.SchemaService, protocols primary.ProtocolService, employees primary.EmployeeService, logger *slog.Logger) *Seeder {
	return &Seeder{
		schemas:   schemas,
		protocols: protocols,
		employees: employees,
		logger:    loggerOrDiscard(logger),
	}
}

// Apply creates every fixture that is not already present. Schemas match
// existing ones by unit name and type; employees by rfid card id.
func (s *Seeder) Apply(ctx context.Context, fx *db.Fixtures) (*SeedReport, error) {
	report := &SeedReport{}

	for _, e := range fx.Employees {
		if _, err := s.employees.GetEmployee(ctx, e.RFIDCardID); err == nil {
			report.EmployeesSkipped++
			continue
		}
		if _, err := s.employees.CreateEmployee(ctx, primary.Employee{RFIDCardID: e.RFIDCardID, Name: e.Name, Position: e.Position}); err != nil {
			return report, fmt.Errorf("employee %s: %w", e.RFIDCardID, err)
		}
		report.EmployeesCreated++
	}

	schemaIDs, err := s.applySchemas(ctx, fx.Schemas, report)
	if err != nil {
		return report, err
	}

	if err := s.applyTemplates(ctx, fx, schemaIDs, report); err != nil {
		return report, err
	}

	s.logger.InfoContext(ctx, "seed applied",
		"employees_created", report.EmployeesCreated,
		"schemas_created", report.SchemasCreated,
		"templates_saved", report.TemplatesSaved,
	)
	return report, nil
}

// applySchemas creates schemas parents and components first and returns the
// stored schema id of every fixture key.
func (s *Seeder) applySchemas(ctx context.Context, fixtures []db.SchemaFixture, report *SeedReport) (map[string]string, error) {
	existing, err := s.schemas.ListSchemas(ctx)
	if err != nil {
		return nil, err
	}
	byName := make(map[string]string, len(existing))
	for _, sc := range existing {
		byName[sc.UnitName+"\x00"+sc.SchemaType] = sc.SchemaID
	}

	ids := make(map[string]string, len(fixtures))
	pending := fixtures
	for len(pending) > 0 {
		var deferred []db.SchemaFixture
		for _, f := range pending {
			if !dependenciesResolved(f, ids) {
				deferred = append(deferred, f)
				continue
			}
			if id, ok := byName[f.UnitName+"\x00"+f.SchemaType]; ok {
				ids[f.Key] = id
				report.SchemasSkipped++
				continue
			}

			req := primary.CreateSchemaRequest{
				UnitName:       f.UnitName,
				SchemaType:     f.SchemaType,
				ParentSchemaID: ids[f.Parent],
			}
			for _, c := range f.RequiredComponents {
				req.RequiredComponentsSchemaIDs = append(req.RequiredComponentsSchemaIDs, ids[c])
			}
			for _, st := range f.ProductionStages {
				req.ProductionStages = append(req.ProductionStages, primary.SchemaStage{
					Name:            st.Name,
					Type:            st.Type,
					Description:     st.Description,
					Equipment:       st.Equipment,
					Workplace:       st.Workplace,
					DurationSeconds: st.DurationSeconds,
					StageID:         st.StageID,
				})
			}

			created, err := s.schemas.CreateSchema(ctx, req)
			if err != nil {
				return nil, fmt.Errorf("schema %s: %w", f.Key, err)
			}
			ids[f.Key] = created.SchemaID
			report.SchemasCreated++
		}
		if len(deferred) == len(pending) {
			return nil, fmt.Errorf("schema fixtures contain a reference cycle starting at %q", deferred[0].Key)
		}
		pending = deferred
	}
	return ids, nil
}

func dependenciesResolved(f db.SchemaFixture, ids map[string]string) bool {
	if f.Parent != "" && ids[f.Parent] == "" {
		return false
	}
	for _, c := range f.RequiredComponents {
		if ids[c] == "" {
			return false
		}
	}
	return true
}

// applyTemplates attaches each referenced protocol template to its schema,
// replacing the template a schema already carries.
func (s *Seeder) applyTemplates(ctx context.Context, fx *db.Fixtures, schemaIDs map[string]string, report *SeedReport) error {
	templates := make(map[string]db.ProtocolTemplateFixture, len(fx.Templates))
	for _, t := range fx.Templates {
		templates[t.Key] = t
	}

	existing, err := s.protocols.ListTemplates(ctx)
	if err != nil {
		return err
	}
	bySchema := make(map[string]string, len(existing))
	for _, t := range existing {
		bySchema[t.AssociatedWithSchemaID] = t.ProtocolSchemaID
	}

	for _, f := range fx.Schemas {
		if f.ProtocolTemplateKey == "" {
			continue
		}
		t := templates[f.ProtocolTemplateKey]
		schemaID := schemaIDs[f.Key]

		rows := make([]primary.ProtocolRow, len(t.Rows))
		for i, r := range t.Rows {
			rows[i] = primary.ProtocolRow{Name: r.Name, Value: r.Value, Deviation: r.Deviation, Test1: r.Test1, Test2: r.Test2}
		}
		_, err := s.protocols.SaveTemplate(ctx, primary.ProtocolTemplate{
			ProtocolName:           t.ProtocolName,
			ProtocolSchemaID:       bySchema[schemaID],
			AssociatedWithSchemaID: schemaID,
			DefaultSerialNumber:    t.DefaultSerialNumber,
			Rows:                   rows,
		})
		if err != nil {
			return fmt.Errorf("protocol template %s: %w", t.Key, err)
		}
		report.TemplatesSaved++
	}
	return nil
}
