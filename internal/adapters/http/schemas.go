package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/example/feecc/internal/ports/primary"
)

func (h *Handler) handleListSchemas(w http.ResponseWriter, r *http.Request) {
	schemas, err := h.svc.Schemas.ListSchemas(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse[*primary.Schema]{Data: schemas})
}

func (h *Handler) handleCreateSchema(w http.ResponseWriter, r *http.Request) {
	var req primary.CreateSchemaRequest
	if err := decodeRequiredJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	schema, err := h.svc.Schemas.CreateSchema(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, schema)
}

func (h *Handler) handleGetSchema(w http.ResponseWriter, r *http.Request) {
	schema, err := h.svc.Schemas.GetSchema(r.Context(), chi.URLParam(r, "schema_id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, schema)
}

func (h *Handler) handlePatchSchema(w http.ResponseWriter, r *http.Request) {
	var fields map[string]any
	if err := decodeRequiredJSON(r, &fields); err != nil {
		h.writeError(w, r, err)
		return
	}
	schema, err := h.svc.Schemas.EditSchema(r.Context(), chi.URLParam(r, "schema_id"), fields)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, schema)
}

func (h *Handler) handleDeleteSchema(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Schemas.DeleteSchema(r.Context(), chi.URLParam(r, "schema_id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeDetail(w, "Deleted schema")
}
