package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/example/feecc/internal/ports/primary"
)

type passportResponse struct {
	Passport *primary.Passport `json:"passport"`
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) handleListPassports(w http.ResponseWriter, r *http.Request) {
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
	q := r.URL.Query()
	result, err := h.svc.Units.ListPassports(r.Context(), primary.ListPassportsRequest{
		Name:       q.Get("name"),
		Date:       q.Get("date"),
		Types:      q.Get("types"),
		Status:     q.Get("status"),
		Page:       page,
		Items:      items,
		SortByDate: q.Get("sort_by_date"),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleListTypes(w http.ResponseWriter, r *http.Request) {
	types, err := h.svc.Units.ListTypes(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse[string]{Data: types})
}

func (h *Handler) handleCreatePassport(w http.ResponseWriter, r *http.Request) {
	var req primary.CreateUnitRequest
	if err := decodeRequiredJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	unit, err := h.svc.Units.CreateUnit(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, unit)
}

func (h *Handler) handleGetPassport(w http.ResponseWriter, r *http.Request) {
	passport, err := h.svc.Units.GetPassport(r.Context(), chi.URLParam(r, "internal_id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, passportResponse{Passport: passport})
}

func (h *Handler) handlePatchPassport(w http.ResponseWriter, r *http.Request) {
	var fields map[string]any
	if err := decodeRequiredJSON(r, &fields); err != nil {
		h.writeError(w, r, err)
		return
	}
	unit, err := h.svc.Units.EditUnit(r.Context(), chi.URLParam(r, "internal_id"), fields)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, unit)
}

func (h *Handler) handleDeletePassport(w http.ResponseWriter, r *http.Request) {
	cascade, err := queryBool(r, "cascade")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.svc.Units.DeleteUnit(r.Context(), chi.URLParam(r, "internal_id"), cascade); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeDetail(w, "Deleted unit")
}

func (h *Handler) handleAddStage(w http.ResponseWriter, r *http.Request) {
	var req primary.AppendStageRequest
	if err := decodeRequiredJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	stage, err := h.svc.Stages.AddStageToUnit(r.Context(), chi.URLParam(r, "internal_id"), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, stage)
}

func (h *Handler) handlePassportStages(w http.ResponseWriter, r *http.Request) {
	withComponents, err := queryBool(r, "include_subcomponents")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	stages, err := h.svc.Stages.StagesForInternalID(r.Context(), chi.URLParam(r, "internal_id"), withComponents)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse[*primary.Stage]{Data: stages})
}

// handleUpdateStatus is the path external stage-completion collaborators use
// to move a unit from production to built.
func (h *Handler) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := decodeRequiredJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	unit, err := h.svc.Units.ReportStatus(r.Context(), chi.URLParam(r, "internal_id"), req.Status)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, unit)
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	history, err := h.svc.Units.GetHistory(r.Context(), chi.URLParam(r, "internal_id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse[*primary.StatusChange]{Data: history})
}

func (h *Handler) handleSendForRevision(w http.ResponseWriter, r *http.Request) {
	var req primary.SendForRevisionRequest
	if err := decodeRequiredJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	req.InternalID = chi.URLParam(r, "internal_id")
	result, err := h.svc.Revisions.SendForRevision(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
