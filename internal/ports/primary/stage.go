package primary

import (
	"context"
	"time"
)

// StageService defines the primary port for the stage ledger.
type StageService interface {
	// AppendStage records a new stage. The parent unit must exist.
	AppendStage(ctx context.Context, req AppendStageRequest) (*Stage, error)

	// AddStageToUnit records a new stage for the unit with the given internal id.
	AddStageToUnit(ctx context.Context, internalID string, req AppendStageRequest) (*Stage, error)

	// GetStage retrieves a stage by ID.
	GetStage(ctx context.Context, stageID string) (*Stage, error)

	// StagesFor returns the stages of a unit in recording order.
	StagesFor(ctx context.Context, unitUUID string) ([]*Stage, error)

	// StagesForInternalID returns the stages of a unit and, optionally,
	// the stages of its sub-components annotated with the owning sub-unit.
	StagesForInternalID(ctx context.Context, internalID string, includeSubcomponents bool) ([]*Stage, error)

	// ListStages lists stages one page at a time.
	ListStages(ctx context.Context, req ListStagesRequest) (*StagePage, error)

	// EditStage applies a generic field update. Parent, timing and identity fields are ignored.
	EditStage(ctx context.Context, stageID string, fields map[string]any) (*Stage, error)

	// DeleteStage removes a stage.
	DeleteStage(ctx context.Context, stageID string) error
}

// AppendStageRequest contains parameters for recording a stage.
type AppendStageRequest struct {
	ParentUnitUUID   string         `json:"parent_unit_uuid"`
	SchemaStageID    string         `json:"schema_stage_id,omitempty"`
	Name             string         `json:"name"`
	EmployeeName     string         `json:"employee_name,omitempty"`
	SessionStartTime *time.Time     `json:"session_start_time,omitempty"`
	SessionEndTime   *time.Time     `json:"session_end_time,omitempty"`
	EndedPrematurely bool           `json:"ended_prematurely"`
	Completed        bool           `json:"completed"`
	Number           *int           `json:"number,omitempty"`
	VideoHashes      []string       `json:"video_hashes,omitempty"`
	AdditionalInfo   map[string]any `json:"additional_info,omitempty"`
}

// StagePatch holds the editable stage fields. Nil means unchanged.
type StagePatch struct {
	SchemaStageID    *string         `json:"schema_stage_id"`
	Name             *string         `json:"name"`
	EmployeeName     *string         `json:"employee_name"`
	EndedPrematurely *bool           `json:"ended_prematurely"`
	Completed        *bool           `json:"completed"`
	Number           *int            `json:"number"`
	VideoHashes      *[]string       `json:"video_hashes"`
	AdditionalInfo   *map[string]any `json:"additional_info"`
}

// Stage represents a production stage at the port boundary.
type Stage struct {
	ID               string         `json:"id"`
	ParentUnitUUID   string         `json:"parent_unit_uuid"`
	SchemaStageID    string         `json:"schema_stage_id,omitempty"`
	Name             string         `json:"name"`
	EmployeeName     string         `json:"employee_name,omitempty"`
	SessionStartTime *time.Time     `json:"session_start_time"`
	SessionEndTime   *time.Time     `json:"session_end_time"`
	EndedPrematurely bool           `json:"ended_prematurely"`
	Completed        bool           `json:"completed"`
	Number           *int           `json:"number"`
	VideoHashes      []string       `json:"video_hashes"`
	AdditionalInfo   map[string]any `json:"additional_info"`
	CreationTime     time.Time      `json:"creation_time"`

	// Set only for sub-component stages in a parent's biography.
	ParentUnitInternalID string `json:"parent_unit_internal_id,omitempty"`
	UnitName             string `json:"unit_name,omitempty"`

	// Set only when employees are decoded.
	Employee *Employee `json:"employee,omitempty"`
}

// ListStagesRequest contains query parameters for listing stages.
type ListStagesRequest struct {
	Page            int
	Items           int
	DecodeEmployees bool
}

// StagePage is one page of stages plus the total count.
type StagePage struct {
	Count int      `json:"count"`
	Data  []*Stage `json:"data"`
}
