package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/example/feecc/internal/ports/primary"
)

type protocolUpdateRequest struct {
	Rows []primary.ProtocolRow `json:"rows"`
}

func (h *Handler) handleListProtocols(w http.ResponseWriter, r *http.Request) {
	protocols, err := h.svc.Protocols.ListProtocols(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse[*primary.Protocol]{Data: protocols})
}

func (h *Handler) handleGetProtocol(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.Protocols.GetProtocol(r.Context(), chi.URLParam(r, "internal_id"), currentUser(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// handleUpdateProtocol accepts an empty body; the first update then copies the template rows.
func (h *Handler) handleUpdateProtocol(w http.ResponseWriter, r *http.Request) {
	var req protocolUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	protocol, err := h.svc.Protocols.ProcessUpdate(r.Context(), primary.ProcessUpdateRequest{
		InternalID: chi.URLParam(r, "internal_id"),
		Rows:       req.Rows,
		Actor:      currentUser(r.Context()),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, protocol)
}

func (h *Handler) handleRemoveProtocol(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Protocols.Remove(r.Context(), chi.URLParam(r, "internal_id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeDetail(w, "Removed protocol")
}

func (h *Handler) handleApproveProtocol(w http.ResponseWriter, r *http.Request) {
	protocol, err := h.svc.Protocols.Approve(r.Context(), chi.URLParam(r, "internal_id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, protocol)
}

func (h *Handler) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := h.svc.Protocols.ListTemplates(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse[*primary.ProtocolTemplate]{Data: templates})
}

func (h *Handler) handleSaveTemplate(w http.ResponseWriter, r *http.Request) {
	var req primary.ProtocolTemplate
	if err := decodeRequiredJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	template, err := h.svc.Protocols.SaveTemplate(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, template)
}
