package schedulehandler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"hrperf/internal/domain/auth"
	"hrperf/internal/domain/schedule"
	"hrperf/internal/transport/http/api"
	"hrperf/internal/transport/http/middleware"
	"hrperf/internal/transport/http/shared"
)

type Service interface {
	Timeline(ctx context.Context, year int, today time.Time, filter schedule.Filter) (schedule.Timeline, error)
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
	r.With(middleware.RequirePermission(auth.PermScheduleRead, h.Perms)).Get("/schedule/timeline", h.handleTimeline)
}

// handleTimeline serves the milestone grid. ?today pins the reference date so
// a past or future state of the calendar can be inspected.
func (h *Handler) handleTimeline(w http.ResponseWriter, r *http.Request) {
	now := h.Now()
	v := shared.NewValidator()
	year, ok := shared.QueryYear(r, now)
	if !ok {
		v.Add("year", "must be a four digit year")
	}
	today := now
	if raw := strings.TrimSpace(r.URL.Query().Get("today")); raw != "" {
		if parsed, ok := v.Date("today", raw); ok {
			today = parsed
		}
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	filter := schedule.Filter{
		AreaID:   r.URL.Query().Get("area"),
		SectorID: r.URL.Query().Get("sector"),
	}
	timeline, err := h.Service.Timeline(r.Context(), year, today, filter)
	if err != nil {
		slog.Warn("timeline failed", "year", year, "err", err)
		api.Fail(w, http.StatusInternalServerError, "timeline_failed", "failed to build timeline", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, timeline, middleware.GetRequestID(r.Context()))
}
