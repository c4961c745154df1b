package primary

import "context"

// RevisionService defines the primary port for the revision workflow.
type RevisionService interface {
	// SendForRevision reopens completed stages of a built unit and moves it to revision.
	SendForRevision(ctx context.Context, req SendForRevisionRequest) (*RevisionResult, error)

	// CancelRevision marks an incomplete stage as cancelled and returns the
	// unit to built once fewer than two incomplete stages remain.
	CancelRevision(ctx context.Context, req CancelRevisionRequest) (*CancelRevisionResult, error)
}

// SendForRevisionRequest contains parameters for sending a unit for revision.
type SendForRevisionRequest struct {
	InternalID string   `json:"-"`
	StageIDs   []string `json:"stage_ids"`
}

// RevisionResult contains the outcome of a revision request.
type RevisionResult struct {
	InternalID string   `json:"internal_id"`
	Status     string   `json:"status"`
	NewStages  []*Stage `json:"new_stages"`
}

// CancelRevisionRequest contains parameters for cancelling a rework stage.
type CancelRevisionRequest struct {
	StageID  string `json:"-"`
	Employee string `json:"employee,omitempty"`
}

// CancelRevisionResult contains the outcome of a cancellation.
type CancelRevisionResult struct {
	Stage            *Stage `json:"stage"`
	UnitInternalID   string `json:"unit_internal_id"`
	UnitStatus       string `json:"unit_status"`
	IncompleteStages int    `json:"incomplete_stages"`
}
