// Package secondary defines the secondary ports (driven adapters) for the application.
// These are the interfaces through which the application drives external systems.
package secondary

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by repositories when the requested row does not exist.
var ErrNotFound = errors.New("record not found")

// Transactor runs a function inside a single store transaction.
// Repositories invoked with the context passed to fn join that transaction.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// UnitRepository defines the secondary port for unit (passport) persistence.
type UnitRepository interface {
	// Create persists a new unit.
	Create(ctx context.Context, unit *UnitRecord) error

	// GetByUUID retrieves a unit by its uuid.
	GetByUUID(ctx context.Context, uuid string) (*UnitRecord, error)

	// GetByInternalID retrieves a unit by its internal id.
	GetByInternalID(ctx context.Context, internalID string) (*UnitRecord, error)

	// List retrieves units matching the given filters.
	List(ctx context.Context, filters UnitFilters) ([]*UnitRecord, error)

	// Count returns the number of units matching the given filters, ignoring paging.
	Count(ctx context.Context, filters UnitFilters) (int, error)

	// Update overwrites the editable fields of a unit. Status is not written.
	Update(ctx context.Context, unit *UnitRecord) error

	// SetStatus overwrites a unit's status unconditionally.
	SetStatus(ctx context.Context, uuid, status string) error

	// CompareAndSetStatus writes next only if the stored status equals expected.
	// Returns false when the stored status differed.
	CompareAndSetStatus(ctx context.Context, uuid, expected, next string) (bool, error)

	// Delete removes a unit from persistence.
	Delete(ctx context.Context, uuid string) error

	// ListTypes returns the distinct non-empty unit types.
	ListTypes(ctx context.Context) ([]string, error)
}

// UnitRecord represents a unit as stored in persistence.
type UnitRecord struct {
	UUID                  string
	InternalID            string
	SchemaID              string // Empty string means null
	PassportShortURL      string // Empty string means null
	PassportIPFSCID       string // Empty string means null
	FeaturedInIntID       string // Empty string means null - parent unit internal id
	ComponentsInternalIDs []string
	Model                 string
	Type                  string
	SerialNumber          string
	CreationTime          time.Time
	Status                string
}

// UnitFilters contains filter options for querying units.
type UnitFilters struct {
	InternalID    string
	UUID          string
	ShortURL      string
	ModelContains string
	Types         []string
	Status        string
	CreatedFrom   time.Time // Zero means unbounded
	CreatedBefore time.Time // Zero means unbounded
	NewestFirst   bool
	Limit         int // Zero means no limit
	Offset        int
}

// StageRepository defines the secondary port for production stage persistence.
type StageRepository interface {
	// Create persists a new stage.
	Create(ctx context.Context, stage *StageRecord) error

	// GetByID retrieves a stage by its ID.
	GetByID(ctx context.Context, id string) (*StageRecord, error)

	// List retrieves stages matching the given filters, oldest first.
	List(ctx context.Context, filters StageFilters) ([]*StageRecord, error)

	// Count returns the number of stages matching the given filters, ignoring paging.
	Count(ctx context.Context, filters StageFilters) (int, error)

	// ListByUnit retrieves every stage of a unit ordered by creation time, then insertion order.
	ListByUnit(ctx context.Context, unitUUID string) ([]*StageRecord, error)

	// CountByUnit returns the number of stages recorded for a unit.
	CountByUnit(ctx context.Context, unitUUID string) (int, error)

	// CountIncompleteByUnit returns the number of stages of a unit that are
	// neither completed nor cancelled.
	CountIncompleteByUnit(ctx context.Context, unitUUID string) (int, error)

	// Update overwrites the editable fields of a stage.
	Update(ctx context.Context, stage *StageRecord) error

	// SetAdditionalInfo replaces the additional info map of a stage.
	SetAdditionalInfo(ctx context.Context, id string, info map[string]any) error

	// Delete removes a stage.
	Delete(ctx context.Context, id string) error

	// DeleteByUnit removes every stage of a unit and returns how many were removed.
	DeleteByUnit(ctx context.Context, unitUUID string) (int, error)
}

// StageRecord represents a production stage as stored in persistence.
type StageRecord struct {
	ID               string
	ParentUnitUUID   string
	SchemaStageID    string // Empty string means null
	Name             string
	EmployeeName     string // Empty string means null - usually an employee fingerprint
	SessionStartTime *time.Time
	SessionEndTime   *time.Time
	EndedPrematurely bool
	Completed        bool
	Number           *int
	VideoHashes      []string
	AdditionalInfo   map[string]any
	CreationTime     time.Time
}

// StageFilters contains filter options for querying stages.
type StageFilters struct {
	ParentUnitUUID string
	Limit          int
	Offset         int
}

// EmployeeRepository defines the secondary port for employee persistence.
type EmployeeRepository interface {
	// Create persists a new employee.
	Create(ctx context.Context, employee *EmployeeRecord) error

	// GetByRFID retrieves an employee by rfid card id.
	GetByRFID(ctx context.Context, rfidCardID string) (*EmployeeRecord, error)

	// List retrieves every employee.
	List(ctx context.Context) ([]*EmployeeRecord, error)

	// Update overwrites name and position of an employee.
	Update(ctx context.Context, employee *EmployeeRecord) error

	// Delete removes an employee.
	Delete(ctx context.Context, rfidCardID string) error
}

// EmployeeRecord represents an employee as stored in persistence.
type EmployeeRecord struct {
	RFIDCardID string
	Name       string
	Position   string
}

// EmployeeCache is a best-effort lookaside cache keyed by (namespace, content hash).
// A miss never implies absence.
type EmployeeCache interface {
	Get(namespace, hash string) (*EmployeeRecord, bool)
	Put(namespace, hash string, employee *EmployeeRecord)
	Remove(namespace, hash string)
}

// SchemaRepository defines the secondary port for production schema persistence.
type SchemaRepository interface {
	// Create persists a new schema.
	Create(ctx context.Context, schema *SchemaRecord) error

	// GetByID retrieves a schema by its ID.
	GetByID(ctx context.Context, schemaID string) (*SchemaRecord, error)

	// List retrieves every schema.
	List(ctx context.Context) ([]*SchemaRecord, error)

	// Update overwrites unit name, schema type and stage list of a schema.
	Update(ctx context.Context, schema *SchemaRecord) error

	// Delete removes a schema.
	Delete(ctx context.Context, schemaID string) error
}

// SchemaRecord represents a production schema as stored in persistence.
type SchemaRecord struct {
	SchemaID                    string
	UnitName                    string
	SchemaType                  string
	ProductionStages            []SchemaStageRecord
	RequiredComponentsSchemaIDs []string
	ParentSchemaID              string // Empty string means null
}

// SchemaStageRecord is one expected stage of a production schema.
type SchemaStageRecord struct {
	Name            string   `json:"name"`
	Type            string   `json:"type,omitempty"`
	Description     string   `json:"description,omitempty"`
	Equipment       []string `json:"equipment,omitempty"`
	Workplace       string   `json:"workplace,omitempty"`
	DurationSeconds *int     `json:"duration_seconds,omitempty"`
	StageID         string   `json:"stage_id"`
}

// ProtocolTemplateRepository defines the secondary port for protocol template persistence.
type ProtocolTemplateRepository interface {
	// Save inserts or replaces a template keyed by its protocol schema id.
	Save(ctx context.Context, template *ProtocolTemplateRecord) error

	// GetBySchemaID retrieves the template associated with a production schema.
	GetBySchemaID(ctx context.Context, associatedWithSchemaID string) (*ProtocolTemplateRecord, error)

	// List retrieves every template.
	List(ctx context.Context) ([]*ProtocolTemplateRecord, error)
}

// ProtocolTemplateRecord represents a protocol template as stored in persistence.
type ProtocolTemplateRecord struct {
	ProtocolSchemaID       string
	ProtocolName           string
	AssociatedWithSchemaID string
	DefaultSerialNumber    string // Empty string means null
	Rows                   []ProtocolRowRecord
}

// ProtocolRowRecord is a single measured row of a protocol.
type ProtocolRowRecord struct {
	Name      string `json:"name"`
	Value     string `json:"value"`
	Deviation string `json:"deviation,omitempty"`
	Test1     string `json:"test1,omitempty"`
	Test2     string `json:"test2,omitempty"`
	Checked   bool   `json:"checked"`
}

// ProtocolRepository defines the secondary port for protocol instance persistence.
type ProtocolRepository interface {
	// Create persists a new protocol instance.
	Create(ctx context.Context, protocol *ProtocolRecord) error

	// GetByUnitID retrieves the protocol instance of a unit by the unit's internal id.
	GetByUnitID(ctx context.Context, unitInternalID string) (*ProtocolRecord, error)

	// List retrieves protocol instances matching the given filters.
	List(ctx context.Context, filters ProtocolFilters) ([]*ProtocolRecord, error)

	// UpdateRows overwrites rows and status if the stored status equals expected.
	// Returns false when the stored status differed.
	UpdateRows(ctx context.Context, protocolID string, rows []ProtocolRowRecord, expected, next string) (bool, error)

	// SetStatus overwrites a protocol's status unconditionally.
	SetStatus(ctx context.Context, protocolID, status string) error

	// DeleteByUnitID removes the protocol instance of a unit.
	DeleteByUnitID(ctx context.Context, unitInternalID string) error
}

// ProtocolRecord represents a protocol instance as stored in persistence.
type ProtocolRecord struct {
	ProtocolID             string
	ProtocolSchemaID       string
	ProtocolName           string
	AssociatedWithSchemaID string
	DefaultSerialNumber    string
	Rows                   []ProtocolRowRecord
	AssociatedUnitID       string
	Status                 string
	CreationTime           time.Time
}

// ProtocolFilters contains filter options for querying protocol instances.
type ProtocolFilters struct {
	Status string
}

// UserRepository defines the secondary port for user persistence.
type UserRepository interface {
	// Create persists a new user.
	Create(ctx context.Context, user *UserRecord) error

	// GetByUsername retrieves a user by username.
	GetByUsername(ctx context.Context, username string) (*UserRecord, error)

	// Delete removes a user and all of their tokens.
	Delete(ctx context.Context, username string) error

	// Count returns the number of registered users.
	Count(ctx context.Context) (int, error)
}

// UserRecord represents a user as stored in persistence.
type UserRecord struct {
	Username           string
	RuleSet            []string
	AssociatedEmployee string // Empty string means null - rfid card id
	HashedPassword     string
}

// TokenRepository defines the secondary port for bearer token persistence.
type TokenRepository interface {
	// Create persists a token hash.
	Create(ctx context.Context, token *TokenRecord) error

	// GetByHash retrieves an unexpired token by its hash.
	GetByHash(ctx context.Context, hash string, now time.Time) (*TokenRecord, error)

	// DeleteExpired removes tokens that expired before now.
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}

// TokenRecord represents a bearer token as stored in persistence.
// Only the SHA-256 of the token is kept.
type TokenRecord struct {
	TokenHash string
	Username  string
	ExpiresAt time.Time
}
