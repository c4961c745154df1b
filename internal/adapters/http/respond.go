package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/example/feecc/internal/apperr"
)

type errorResponse struct {
	StatusCode int    `json:"status_code"`
	Kind       string `json:"kind"`
	Detail     string `json:"detail"`
}

type genericResponse struct {
	StatusCode int    `json:"status_code"`
	Detail     string `json:"detail"`
}

type listResponse[T any] struct {
	Data []T `json:"data"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeDetail(w http.ResponseWriter, detail string) {
	writeJSON(w, http.StatusOK, genericResponse{StatusCode: http.StatusOK, Detail: detail})
}

func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindUnauthorized:
		return http.StatusUnauthorized
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindInvalidState:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperr.KindOf(err)
	status := statusFor(kind)
	if status == http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}
	writeJSON(w, status, errorResponse{StatusCode: status, Kind: string(kind), Detail: apperr.Detail(err)})
}

// decodeJSON reads the request body into dst. An empty body leaves dst untouched.
func decodeJSON(r *http.Request, dst any) error {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return apperr.Validation("invalid request body: %v", err)
}

// decodeRequiredJSON is decodeJSON that rejects an empty body.
func decodeRequiredJSON(r *http.Request, dst any) error {
	err := json.NewDecoder(r.Body).Decode(dst)
	if errors.Is(err, io.EOF) {
		return apperr.Validation("request body is required")
	}
	if err != nil {
		return apperr.Validation("invalid request body: %v", err)
	}
	return nil
}

func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.Validation("%s must be an integer, got %q", name, raw)
	}
	return v, nil
}

func queryBool(r *http.Request, name string) (bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, apperr.Validation("%s must be a boolean, got %q", name, raw)
	}
	return v, nil
}
