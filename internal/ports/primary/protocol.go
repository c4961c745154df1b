package primary

import (
	"context"
	"time"
)

// ProtocolService defines the primary port for the QC protocol workflow.
type ProtocolService interface {
	// GetProtocol returns the unit's protocol instance, or an unsaved prototype
	// built from the template of the unit's schema.
	GetProtocol(ctx context.Context, internalID string, actor *User) (*ProtocolView, error)

	// ListProtocols lists protocol instances, optionally restricted to one status.
	ListProtocols(ctx context.Context, status string) ([]*Protocol, error)

	// ProcessUpdate writes incoming rows and advances the protocol one step.
	ProcessUpdate(ctx context.Context, req ProcessUpdateRequest) (*Protocol, error)

	// Approve freezes the protocol and finalizes the unit.
	Approve(ctx context.Context, internalID string) (*Protocol, error)

	// Remove deletes the unit's protocol instance. Unit status is untouched.
	Remove(ctx context.Context, internalID string) error

	// SaveTemplate inserts or replaces a protocol template.
	SaveTemplate(ctx context.Context, template ProtocolTemplate) (*ProtocolTemplate, error)

	// ListTemplates lists every protocol template.
	ListTemplates(ctx context.Context) ([]*ProtocolTemplate, error)
}

// ProtocolRow is one measured row of a protocol.
type ProtocolRow struct {
	Name      string `json:"name"`
	Value     string `json:"value"`
	Deviation string `json:"deviation,omitempty"`
	Test1     string `json:"test1,omitempty"`
	Test2     string `json:"test2,omitempty"`
	Checked   bool   `json:"checked"`
}

// ProtocolTemplate describes the rows a unit of a given schema is checked against.
type ProtocolTemplate struct {
	ProtocolName           string        `json:"protocol_name"`
	ProtocolSchemaID       string        `json:"protocol_schema_id"`
	AssociatedWithSchemaID string        `json:"associated_with_schema_id"`
	DefaultSerialNumber    string        `json:"default_serial_number,omitempty"`
	Rows                   []ProtocolRow `json:"rows"`
}

// Protocol is a template instantiated for one unit.
// Status lifecycle: first_stage_passed → second_stage_passed → approved
// A prototype that has not been saved yet has no ID and no status.
type Protocol struct {
	ProtocolTemplate
	ProtocolID       string     `json:"protocol_id,omitempty"`
	AssociatedUnitID string     `json:"associated_unit_id"`
	Status           string     `json:"status,omitempty"`
	CreationTime     *time.Time `json:"creation_time,omitempty"`
}

// ProtocolView is what a QC terminal displays for a unit.
type ProtocolView struct {
	SerialNumber string    `json:"serial_number"`
	Employee     *Employee `json:"employee"`
	Protocol     *Protocol `json:"protocol"`
}

// ProcessUpdateRequest contains parameters for a protocol update.
type ProcessUpdateRequest struct {
	InternalID string
	Rows       []ProtocolRow
	Actor      *User
}
