package templateshandler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"hrperf/internal/domain/auth"
	"hrperf/internal/domain/templates"
	"hrperf/internal/transport/http/api"
	"hrperf/internal/transport/http/middleware"
	"hrperf/internal/transport/http/shared"
)

type Service interface {
	List(ctx context.Context, filter templates.Filter) ([]templates.Template, error)
	Get(ctx context.Context, templateID string) (templates.Template, error)
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
	r.Route("/templates", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermTemplatesRead, h.Perms)).Get("/", h.handleList)
		r.With(middleware.RequirePermission(auth.PermTemplatesRead, h.Perms)).Get("/{templateID}", h.handleGet)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	year, ok := shared.QueryYear(r, h.Now())
	if !ok {
		shared.FailValidation(w, middleware.GetRequestID(r.Context()), []shared.ValidationIssue{{Field: "year", Reason: "must be a year between 1900 and 9999"}})
		return
	}

	filter := templates.Filter{
		Year:      year,
		ScopeType: templates.ScopeType(r.URL.Query().Get("scopeType")),
		ScopeID:   r.URL.Query().Get("scopeId"),
	}
	items, err := h.Service.List(r.Context(), filter)
	if err != nil {
		if errors.Is(err, templates.ErrInvalidScope) {
			api.Fail(w, http.StatusBadRequest, "invalid_scope", err.Error(), middleware.GetRequestID(r.Context()))
			return
		}
		slog.Warn("template list failed", "year", year, "err", err)
		api.Fail(w, http.StatusInternalServerError, "template_list_failed", "failed to list templates", middleware.GetRequestID(r.Context()))
		return
	}
	if items == nil {
		items = []templates.Template{}
	}

	w.Header().Set("X-Total-Count", strconv.Itoa(len(items)))
	api.Success(w, items, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	tmpl, err := h.Service.Get(r.Context(), chi.URLParam(r, "templateID"))
	if err != nil {
		if errors.Is(err, templates.ErrNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "template not found", middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "template_get_failed", "failed to load template", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, tmpl, middleware.GetRequestID(r.Context()))
}
