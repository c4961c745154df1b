package http

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/example/feecc/internal/apperr"
	"github.com/example/feecc/internal/ports/primary"
)

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// handleToken issues a bearer token for form or JSON credentials.
func (h *Handler) handleToken(w http.ResponseWriter, r *http.Request) {
	var creds credentials
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if err := decodeRequiredJSON(r, &creds); err != nil {
			h.writeError(w, r, err)
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			h.writeError(w, r, apperr.Validation("invalid form: %v", err))
			return
		}
		creds.Username = r.PostForm.Get("username")
		creds.Password = r.PostForm.Get("password")
	}

	token, err := h.svc.Auth.Login(r.Context(), strings.TrimSpace(creds.Username), creds.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, token)
}

func (h *Handler) handleWhoAmI(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r.Context())
	if user == nil {
		h.writeError(w, r, apperr.Unauthorized("not authenticated"))
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *Handler) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req primary.CreateUserRequest
	if err := decodeRequiredJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	user, err := h.svc.Auth.CreateUser(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (h *Handler) handleGetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.svc.Auth.GetUser(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *Handler) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Auth.DeleteUser(r.Context(), chi.URLParam(r, "username")); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeDetail(w, "Deleted user")
}
