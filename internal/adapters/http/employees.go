package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/example/feecc/internal/ports/primary"
)

type decodeRequest struct {
	EncodedName string `json:"encoded_name"`
}

func (h *Handler) handleListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.svc.Employees.ListEmployees(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse[*primary.Employee]{Data: employees})
}

func (h *Handler) handleCreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req primary.Employee
	if err := decodeRequiredJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	employee, err := h.svc.Employees.CreateEmployee(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, employee)
}

func (h *Handler) handleGetEmployee(w http.ResponseWriter, r *http.Request) {
	employee, err := h.svc.Employees.GetEmployee(r.Context(), chi.URLParam(r, "rfid_card_id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, employee)
}

func (h *Handler) handlePatchEmployee(w http.ResponseWriter, r *http.Request) {
	var req primary.UpdateEmployeeRequest
	if err := decodeRequiredJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	employee, err := h.svc.Employees.UpdateEmployee(r.Context(), chi.URLParam(r, "rfid_card_id"), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, employee)
}

func (h *Handler) handleDeleteEmployee(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Employees.DeleteEmployee(r.Context(), chi.URLParam(r, "rfid_card_id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeDetail(w, "Deleted employee")
}

func (h *Handler) handleDecodeEmployee(w http.ResponseWriter, r *http.Request) {
	var req decodeRequest
	if err := decodeRequiredJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	employee, err := h.svc.Employees.Decode(r.Context(), req.EncodedName)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, employee)
}
