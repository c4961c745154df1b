// Package http exposes the application services as a JSON API under /api/v1.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/example/feecc/internal/adapters/metrics"
	"github.com/example/feecc/internal/apperr"
	"github.com/example/feecc/internal/core/access"
	"github.com/example/feecc/internal/ports/primary"
)

// Services bundles the primary ports the API drives.
type Services struct {
	Units     primary.UnitService
	Stages    primary.StageService
	Revisions primary.RevisionService
	Protocols primary.ProtocolService
	Employees primary.EmployeeService
	Schemas   primary.SchemaService
	Auth      primary.AuthService
}

// Options configures the router.
type Options struct {
	Metrics        *metrics.Metrics
	Logger         *slog.Logger
	RequestTimeout time.Duration // zero disables the deadline
}

// Handler holds the dependencies shared by every route.
type Handler struct {
	svc     Services
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewRouter builds the HTTP handler.
func NewRouter(svc Services, opts Options) http.Handler {
	h := &Handler{svc: svc, metrics: opts.Metrics, logger: opts.Logger}
	if h.metrics == nil {
		h.metrics = metrics.New()
	}
	if h.logger == nil {
		h.logger = slog.New(slog.DiscardHandler)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.accessLog)
	r.Use(middleware.Recoverer)
	if opts.RequestTimeout > 0 {
		r.Use(middleware.Timeout(opts.RequestTimeout))
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		h.writeError(w, r, apperr.NotFound("no route for %s %s", r.Method, r.URL.Path))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{
			StatusCode: http.StatusMethodNotAllowed,
			Kind:       "METHOD_NOT_ALLOWED",
			Detail:     r.Method + " is not allowed on " + r.URL.Path,
		})
	})

	r.Handle("/metrics", h.metrics.Handler())

	r.Route("/api/v1", func(api chi.Router) {
		api.Get("/status", h.handleStatus)
		api.Post("/token", h.handleToken)

		read := h.requireAuth(access.Read)
		write := h.requireAuth(access.Write)
		approve := h.requireAuth(access.Approve)

		api.Route("/passports", func(p chi.Router) {
			p.With(read).Get("/", h.handleListPassports)
			p.With(read).Get("/types", h.handleListTypes)
			p.With(write).Post("/", h.handleCreatePassport)
			p.With(read).Get("/{internal_id}", h.handleGetPassport)
			p.With(write).Patch("/{internal_id}", h.handlePatchPassport)
			p.With(write).Delete("/{internal_id}", h.handleDeletePassport)
			p.With(write).Post("/{internal_id}/add_stage", h.handleAddStage)
			p.With(read).Get("/{internal_id}/stages", h.handlePassportStages)
			p.With(write).Post("/{internal_id}/status", h.handleUpdateStatus)
			p.With(read).Get("/{internal_id}/history", h.handleHistory)
			p.With(write).Post("/{internal_id}/revision", h.handleSendForRevision)
		})

		api.Route("/stages", func(s chi.Router) {
			s.With(read).Get("/", h.handleListStages)
			s.With(write).Post("/", h.handleCreateStage)
			s.With(read).Get("/{stage_id}", h.handleGetStage)
			s.With(write).Patch("/{stage_id}", h.handlePatchStage)
			s.With(write).Delete("/{stage_id}", h.handleDeleteStage)
			s.With(write).Post("/{stage_id}/cancel_revision", h.handleCancelRevision)
		})

		api.Route("/employees", func(e chi.Router) {
			e.With(read).Get("/", h.handleListEmployees)
			e.With(write).Post("/", h.handleCreateEmployee)
			e.With(read).Post("/decode", h.handleDecodeEmployee)
			e.With(read).Get("/{rfid_card_id}", h.handleGetEmployee)
			e.With(write).Patch("/{rfid_card_id}", h.handlePatchEmployee)
			e.With(write).Delete("/{rfid_card_id}", h.handleDeleteEmployee)
		})

		api.Route("/schemas", func(s chi.Router) {
			s.With(read).Get("/", h.handleListSchemas)
			s.With(write).Post("/", h.handleCreateSchema)
			s.With(read).Get("/{schema_id}", h.handleGetSchema)
			s.With(write).Patch("/{schema_id}", h.handlePatchSchema)
			s.With(write).Delete("/{schema_id}", h.handleDeleteSchema)
		})

		api.Route("/tcd", func(t chi.Router) {
			t.With(read).Get("/protocols", h.handleListProtocols)
			t.With(read).Get("/protocols/{internal_id}", h.handleGetProtocol)
			t.With(approve).Post("/protocols/{internal_id}", h.handleUpdateProtocol)
			t.With(approve).Delete("/protocols/{internal_id}", h.handleRemoveProtocol)
			t.With(approve).Post("/protocols/{internal_id}/approve", h.handleApproveProtocol)
			t.With(read).Get("/templates", h.handleListTemplates)
			t.With(write).Post("/templates", h.handleSaveTemplate)
		})

		api.Route("/users", func(u chi.Router) {
			u.With(read).Get("/me", h.handleWhoAmI)
			u.With(write).Post("/", h.handleCreateUser)
			u.With(read).Get("/{username}", h.handleGetUser)
			u.With(write).Delete("/{username}", h.handleDeleteUser)
		})
	})

	return r
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
