package db

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Fixtures is the reference data loaded by the seed command: production
// schemas, the protocol templates attached to them, and employees.
type Fixtures struct {
	Employees []EmployeeFixture         `yaml:"employees"`
	Schemas   []SchemaFixture           `yaml:"schemas"`
	Templates []ProtocolTemplateFixture `yaml:"protocol_templates"`
}

// EmployeeFixture is an employee entry of a seed file.
type EmployeeFixture struct {
	RFIDCardID string `yaml:"rfid_card_id"`
	Name       string `yaml:"name"`
	Position   string `yaml:"position"`
}

// SchemaFixture is a production schema entry of a seed file.
// Key is a local name used to reference the schema from other entries;
// the stored schema id is generated.
type SchemaFixture struct {
	Key                 string               `yaml:"key"`
	UnitName            string               `yaml:"unit_name"`
	SchemaType          string               `yaml:"schema_type"`
	Parent              string               `yaml:"parent,omitempty"`
	RequiredComponents  []string             `yaml:"required_components,omitempty"`
	ProductionStages    []SchemaStageFixture `yaml:"production_stages"`
	ProtocolTemplateKey string               `yaml:"protocol_template,omitempty"`
}

// SchemaStageFixture is one expected stage of a schema fixture.
type SchemaStageFixture struct {
	Name            string   `yaml:"name"`
	Type            string   `yaml:"type,omitempty"`
	Description     string   `yaml:"description,omitempty"`
	Equipment       []string `yaml:"equipment,omitempty"`
	Workplace       string   `yaml:"workplace,omitempty"`
	DurationSeconds *int     `yaml:"duration_seconds,omitempty"`
	StageID         string   `yaml:"stage_id"`
}

// ProtocolTemplateFixture is a protocol template entry of a seed file.
type ProtocolTemplateFixture struct {
	Key                 string               `yaml:"key"`
	ProtocolName        string               `yaml:"protocol_name"`
	DefaultSerialNumber string               `yaml:"default_serial_number,omitempty"`
	Rows                []ProtocolRowFixture `yaml:"rows"`
}

// ProtocolRowFixture is one row of a protocol template fixture.
type ProtocolRowFixture struct {
	Name      string `yaml:"name"`
	Value     string `yaml:"value"`
	Deviation string `yaml:"deviation,omitempty"`
	Test1     string `yaml:"test1,omitempty"`
	Test2     string `yaml:"test2,omitempty"`
}

// LoadFixtures reads a YAML seed file.
func LoadFixtures(path string) (*Fixtures, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open seed file: %w", err)
	}
	defer f.Close()
	return DecodeFixtures(f)
}

// DecodeFixtures parses YAML seed data and checks internal references.
func DecodeFixtures(r io.Reader) (*Fixtures, error) {
	var fx Fixtures
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&fx); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}

	schemaKeys := make(map[string]bool, len(fx.Schemas))
	for _, s := range fx.Schemas {
		if s.Key == "" {
			return nil, fmt.Errorf("schema %q has no key", s.UnitName)
		}
		if schemaKeys[s.Key] {
			return nil, fmt.Errorf("duplicate schema key %q", s.Key)
		}
		schemaKeys[s.Key] = true
	}
	templateKeys := make(map[string]bool, len(fx.Templates))
	for _, t := range fx.Templates {
		templateKeys[t.Key] = true
	}
	for _, s := range fx.Schemas {
		if s.Parent != "" && !schemaKeys[s.Parent] {
			return nil, fmt.Errorf("schema %q references unknown parent %q", s.Key, s.Parent)
		}
		for _, c := range s.RequiredComponents {
			if !schemaKeys[c] {
				return nil, fmt.Errorf("schema %q references unknown component %q", s.Key, c)
			}
		}
		if s.ProtocolTemplateKey != "" && !templateKeys[s.ProtocolTemplateKey] {
			return nil, fmt.Errorf("schema %q references unknown protocol template %q", s.Key, s.ProtocolTemplateKey)
		}
	}

	return &fx, nil
}
