// Package primary defines the primary ports (driving adapters) for the application.
// The HTTP and CLI adapters drive the application exclusively through these interfaces.
package primary

import (
	"context"
	"time"
)

// UnitService defines the primary port for the unit registry.
// It stores unit status but never judges whether a transition is legal;
// the workflow services own that.
type UnitService interface {
	// CreateUnit registers a new unit. Status defaults to production.
	CreateUnit(ctx context.Context, req CreateUnitRequest) (*Unit, error)

	// GetUnit retrieves a unit by exactly one of uuid or internal id.
	GetUnit(ctx context.Context, lookup UnitLookup) (*Unit, error)

	// GetPassport retrieves a unit with its biography and sub-component stages.
	GetPassport(ctx context.Context, internalID string) (*Passport, error)

	// ListPassports lists units matching a query, one page at a time.
	ListPassports(ctx context.Context, req ListPassportsRequest) (*PassportPage, error)

	// ListTypes returns every distinct unit type.
	ListTypes(ctx context.Context) ([]string, error)

	// EditUnit applies a generic field update. Identity fields and status are ignored.
	EditUnit(ctx context.Context, internalID string, fields map[string]any) (*Unit, error)

	// UpdateStatus overwrites a unit's status. Writing the current status is a no-op.
	UpdateStatus(ctx context.Context, internalID, status string) (*Unit, error)

	// TransitionStatus writes next only if the unit is still in expected.
	TransitionStatus(ctx context.Context, internalID, expected, next string) (*Unit, error)

	// ReportStatus accepts a status reported by an external stage-completion
	// collaborator. Only production to built is accepted; reporting built for
	// a built unit is a no-op.
	ReportStatus(ctx context.Context, internalID, status string) (*Unit, error)

	// DeleteUnit removes a unit, optionally with all of its stages.
	DeleteUnit(ctx context.Context, internalID string, cascade bool) error

	// GetHistory returns the status changes of a unit, oldest first.
	GetHistory(ctx context.Context, internalID string) ([]*StatusChange, error)
}

// UnitLookup selects a unit by exactly one key.
type UnitLookup struct {
	UUID       string
	InternalID string
}

// CreateUnitRequest contains parameters for creating a unit.
type CreateUnitRequest struct {
	InternalID            string   `json:"internal_id"`
	SchemaID              string   `json:"schema_id,omitempty"`
	PassportShortURL      string   `json:"passport_short_url,omitempty"`
	PassportIPFSCID       string   `json:"passport_ipfs_cid,omitempty"`
	FeaturedInIntID       string   `json:"featured_in_int_id,omitempty"`
	ComponentsInternalIDs []string `json:"components_internal_ids,omitempty"`
	Model                 string   `json:"model,omitempty"`
	Type                  string   `json:"type,omitempty"`
	SerialNumber          string   `json:"serial_number,omitempty"`
	Status                string   `json:"status,omitempty"`
}

// UnitPatch holds the editable unit fields. Nil means unchanged.
type UnitPatch struct {
	SchemaID              *string   `json:"schema_id"`
	PassportShortURL      *string   `json:"passport_short_url"`
	PassportIPFSCID       *string   `json:"passport_ipfs_cid"`
	ComponentsInternalIDs *[]string `json:"components_internal_ids"`
	Model                 *string   `json:"model"`
	Type                  *string   `json:"type"`
	SerialNumber          *string   `json:"serial_number"`
}

// Unit represents a production unit at the port boundary.
// Status lifecycle: production → built → revision → built → finalized
type Unit struct {
	UUID                  string    `json:"uuid"`
	InternalID            string    `json:"internal_id"`
	SchemaID              string    `json:"schema_id,omitempty"`
	PassportShortURL      string    `json:"passport_short_url,omitempty"`
	PassportIPFSCID       string    `json:"passport_ipfs_cid,omitempty"`
	FeaturedInIntID       string    `json:"featured_in_int_id,omitempty"`
	ComponentsInternalIDs []string  `json:"components_internal_ids"`
	Model                 string    `json:"model,omitempty"`
	Type                  string    `json:"type,omitempty"`
	SerialNumber          string    `json:"serial_number,omitempty"`
	CreationTime          time.Time `json:"creation_time"`
	Status                string    `json:"status"`
}

// Passport is a unit joined with its stage history.
type Passport struct {
	Unit
	ParentialUnit string   `json:"parential_unit,omitempty"`
	Biography     []*Stage `json:"biography"`
}

// ListPassportsRequest contains query parameters for listing units.
type ListPassportsRequest struct {
	Name       string
	Date       string
	Types      string
	Status     string
	Page       int
	Items      int
	SortByDate string // "asc" or "desc"
}

// PassportPage is one page of units plus the total match count.
type PassportPage struct {
	Count int         `json:"count"`
	Data  []*Passport `json:"data"`
}

// StatusChange is one entry of a unit's status history.
type StatusChange struct {
	Actor     string    `json:"actor,omitempty"`
	OldStatus string    `json:"old_status"`
	NewStatus string    `json:"new_status"`
	ChangedAt time.Time `json:"changed_at"`
}
