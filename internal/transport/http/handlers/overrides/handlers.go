package overrideshandler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"hrperf/internal/domain/auth"
	"hrperf/internal/domain/directory"
	"hrperf/internal/domain/overrides"
	"hrperf/internal/domain/templates"
	"hrperf/internal/requestctx"
	"hrperf/internal/transport/http/api"
	"hrperf/internal/transport/http/middleware"
	"hrperf/internal/transport/http/shared"
)

type Service interface {
	List(ctx context.Context, filter overrides.Filter) ([]overrides.Override, error)
	Save(ctx context.Context, actorID, requestID string, o overrides.Override) (overrides.SaveResult, error)
	Delete(ctx context.Context, actorID, requestID string, key overrides.Key) (bool, error)
	Assignments(ctx context.Context, employeeID string, year int) ([]overrides.Assignment, error)
}

type Handler struct {
	Service Service
	Perms   middleware.PermissionStore
	Now     func() time.Time
}

func NewHandler(service Service, perms middleware.PermissionStore) *Handler {
	return &Handler{Service: service, Perms: perms, Now: time.Now}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	read := middleware.RequirePermission(auth.PermOverridesRead, h.Perms)
	write := middleware.RequirePermission(auth.PermOverridesWrite, h.Perms)

	r.Route("/overrides", func(r chi.Router) {
		r.With(read).Get("/", h.handleList)
		r.With(write).Post("/", h.handleSave)
		r.With(write).Delete("/{empleado}/{plantillaId}/{year}", h.handleDelete)
	})
	r.With(read).Get("/employees/{empleado}/assignments", h.handleAssignments)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	year, ok := shared.QueryYear(r, h.Now())
	if !ok {
		shared.FailValidation(w, middleware.GetRequestID(r.Context()), []shared.ValidationIssue{{Field: "year", Reason: "must be a four digit year"}})
		return
	}

	items, err := h.Service.List(r.Context(), overrides.Filter{Year: year, EmployeeID: r.URL.Query().Get("empleado")})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if items == nil {
		items = []overrides.Override{}
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(len(items)))
	api.Success(w, items, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSave(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.RequireUser(w, r)
	if !ok {
		return
	}

	var payload overrides.Override
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	v := shared.NewValidator()
	v.Required("empleado", payload.EmployeeID, "is required")
	v.Required("plantillaId", payload.TemplateID, "is required")
	v.Year("year", payload.Year)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	result, err := h.Service.Save(r.Context(), user.UserID, middleware.GetRequestID(r.Context()), payload)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.Success(w, result, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.RequireUser(w, r)
	if !ok {
		return
	}

	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		shared.FailValidation(w, middleware.GetRequestID(r.Context()), []shared.ValidationIssue{{Field: "year", Reason: "must be a four digit year"}})
		return
	}
	key := overrides.Key{
		EmployeeID: chi.URLParam(r, "empleado"),
		TemplateID: chi.URLParam(r, "plantillaId"),
		Year:       year,
	}
	deleted, err := h.Service.Delete(r.Context(), user.UserID, middleware.GetRequestID(r.Context()), key)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.Success(w, map[string]bool{"deleted": deleted}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleAssignments(w http.ResponseWriter, r *http.Request) {
	year, ok := shared.QueryYear(r, h.Now())
	if !ok {
		shared.FailValidation(w, middleware.GetRequestID(r.Context()), []shared.ValidationIssue{{Field: "year", Reason: "must be a four digit year"}})
		return
	}

	items, err := h.Service.Assignments(r.Context(), chi.URLParam(r, "empleado"), year)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if items == nil {
		items = []overrides.Assignment{}
	}
	api.Success(w, items, middleware.GetRequestID(r.Context()))
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	reqID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, directory.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "employee_not_found", "employee not found", reqID)
	case errors.Is(err, templates.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "template_not_found", "template not found", reqID)
	default:
		status := overrides.MapHTTPStatus(err)
		if status >= http.StatusInternalServerError {
			requestctx.Logger(r.Context()).Warn("override request failed", "path", r.URL.Path, "err", err)
			api.Fail(w, status, "override_failed", "failed to process override request", reqID)
			return
		}
		api.Fail(w, status, "invalid_override", err.Error(), reqID)
	}
}
