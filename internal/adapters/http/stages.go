package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/example/feecc/internal/ports/primary"
)

func (h *Handler) handleListStages(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	items, err := queryInt(r, "items")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	decode, err := queryBool(r, "decode_employees")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	result, err := h.svc.Stages.ListStages(r.Context(), primary.ListStagesRequest{
		Page:            page,
		Items:           items,
		DecodeEmployees: decode,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleCreateStage(w http.ResponseWriter, r *http.Request) {
	var req primary.AppendStageRequest
	if err := decodeRequiredJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	stage, err := h.svc.Stages.AppendStage(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, stage)
}

func (h *Handler) handleGetStage(w http.ResponseWriter, r *http.Request) {
	stage, err := h.svc.Stages.GetStage(r.Context(), chi.URLParam(r, "stage_id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stage)
}

func (h *Handler) handlePatchStage(w http.ResponseWriter, r *http.Request) {
	var fields map[string]any
	if err := decodeRequiredJSON(r, &fields); err != nil {
		h.writeError(w, r, err)
		return
	}
	stage, err := h.svc.Stages.EditStage(r.Context(), chi.URLParam(r, "stage_id"), fields)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stage)
}

func (h *Handler) handleDeleteStage(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Stages.DeleteStage(r.Context(), chi.URLParam(r, "stage_id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeDetail(w, "Deleted stage")
}

// handleCancelRevision records the caller as the canceller unless the body names an employee.
func (h *Handler) handleCancelRevision(w http.ResponseWriter, r *http.Request) {
	var req primary.CancelRevisionRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	req.StageID = chi.URLParam(r, "stage_id")
	if req.Employee == "" {
		if user := currentUser(r.Context()); user != nil {
			req.Employee = user.Username
		}
	}
	result, err := h.svc.Revisions.CancelRevision(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
