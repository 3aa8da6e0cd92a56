package reportshandler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"hrperf/internal/domain/auth"
	"hrperf/internal/domain/directory"
	"hrperf/internal/domain/reports"
	"hrperf/internal/requestctx"
	"hrperf/internal/transport/http/api"
	"hrperf/internal/transport/http/middleware"
	"hrperf/internal/transport/http/shared"
)

type Service interface {
	EmployeeScore(ctx context.Context, employeeID string, year int) (reports.ScoreReport, error)
	EmployeeScorePDF(ctx context.Context, employeeID string, year int) ([]byte, reports.ScoreReport, error)
	JobRuns(ctx context.Context, filter reports.JobRunFilter, limit, offset int) ([]reports.JobRun, int, error)
	JobRun(ctx context.Context, runID string) (reports.JobRun, error)
}

// Jobs triggers background work on demand.
type Jobs interface {
	RunReminders(ctx context.Context, today time.Time) (any, error)
}

type Handler struct {
	Service Service
	Jobs    Jobs
	Perms   middleware.PermissionStore
	Now     func() time.Time
}

func NewHandler(service Service, jobs Jobs, perms middleware.PermissionStore) *Handler {
	return &Handler{Service: service, Jobs: jobs, Perms: perms, Now: time.Now}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/reports", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermReportsRead, h.Perms)).Get("/employees/{empleado}/score", h.handleScore)
		r.With(middleware.RequirePermission(auth.PermReportsRead, h.Perms)).Get("/employees/{empleado}/score.pdf", h.handleScorePDF)
		r.With(middleware.RequirePermission(auth.PermJobsRun, h.Perms)).Get("/jobs", h.handleJobRuns)
		r.With(middleware.RequirePermission(auth.PermJobsRun, h.Perms)).Get("/jobs/{runID}", h.handleJobRun)
		r.With(middleware.RequirePermission(auth.PermJobsRun, h.Perms)).Post("/jobs/reminders", h.handleRunReminders)
	})
}

// scoreTarget resolves the employee and year of a score request. Employees
// may only read their own score.
func (h *Handler) scoreTarget(w http.ResponseWriter, r *http.Request) (string, int, bool) {
	user, ok := middleware.RequireUser(w, r)
	if !ok {
		return "", 0, false
	}
	employeeID := chi.URLParam(r, "empleado")
	if employeeID == "me" {
		employeeID = user.EmployeeID
	}
	if user.RoleName == auth.RoleEmployee && employeeID != user.EmployeeID {
		api.Fail(w, http.StatusForbidden, "forbidden", "employees may only read their own score", middleware.GetRequestID(r.Context()))
		return "", 0, false
	}
	year, ok := shared.QueryYear(r, h.Now())
	if !ok {
		shared.FailValidation(w, middleware.GetRequestID(r.Context()), []shared.ValidationIssue{{Field: "year", Reason: "must be a four digit year"}})
		return "", 0, false
	}
	return employeeID, year, true
}

func (h *Handler) handleScore(w http.ResponseWriter, r *http.Request) {
	employeeID, year, ok := h.scoreTarget(w, r)
	if !ok {
		return
	}

	report, err := h.Service.EmployeeScore(r.Context(), employeeID, year)
	if err != nil {
		h.failReport(w, r, err)
		return
	}
	api.Success(w, report, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleScorePDF(w http.ResponseWriter, r *http.Request) {
	employeeID, year, ok := h.scoreTarget(w, r)
	if !ok {
		return
	}

	data, _, err := h.Service.EmployeeScorePDF(r.Context(), employeeID, year)
	if err != nil {
		h.failReport(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s-%d.pdf", employeeID, year))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		slog.Warn("score pdf write failed", "employeeId", employeeID, "err", err)
	}
}

var jobStatuses = []string{"running", "completed", "failed"}

func (h *Handler) handleJobRuns(w http.ResponseWriter, r *http.Request) {
	page := shared.ParsePagination(r, 50, 200)
	v := shared.NewValidator()
	filter := reports.JobRunFilter{
		JobType: strings.TrimSpace(r.URL.Query().Get("jobType")),
		Status:  v.Enum("status", r.URL.Query().Get("status"), jobStatuses...),
	}
	if raw := r.URL.Query().Get("startedFrom"); raw != "" {
		if from, ok := v.Date("startedFrom", raw); ok {
			filter.StartedFrom = &from
		}
	}
	if raw := r.URL.Query().Get("startedTo"); raw != "" {
		if to, ok := v.Date("startedTo", raw); ok {
			filter.StartedTo = &to
		}
	}
	if filter.StartedFrom != nil && filter.StartedTo != nil {
		v.DateOrder("startedFrom", *filter.StartedFrom, "startedTo", *filter.StartedTo)
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	runs, total, err := h.Service.JobRuns(r.Context(), filter, page.Limit, page.Offset)
	if err != nil {
		slog.Warn("job run list failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "job_runs_failed", "failed to list job runs", middleware.GetRequestID(r.Context()))
		return
	}
	if runs == nil {
		runs = []reports.JobRun{}
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(total))
	api.Success(w, runs, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleJobRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.Service.JobRun(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		if errors.Is(err, reports.ErrNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "job run not found", middleware.GetRequestID(r.Context()))
			return
		}
		slog.Warn("job run lookup failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "job_run_failed", "failed to load job run", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, run, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleRunReminders(w http.ResponseWriter, r *http.Request) {
	today := h.Now()
	if raw := r.URL.Query().Get("today"); raw != "" {
		parsed, err := shared.ParseDate(raw)
		if err != nil {
			shared.FailValidation(w, middleware.GetRequestID(r.Context()), []shared.ValidationIssue{{Field: "today", Reason: "must be a valid date in YYYY-MM-DD format"}})
			return
		}
		today = parsed
	}

	summary, err := h.Jobs.RunReminders(r.Context(), today)
	if err != nil {
		slog.Warn("reminder run failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "reminders_failed", "failed to send reminders", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, summary, middleware.GetRequestID(r.Context()))
}

func (h *Handler) failReport(w http.ResponseWriter, r *http.Request, err error) {
	reqID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, reports.ErrInvalidYear):
		shared.FailValidation(w, reqID, []shared.ValidationIssue{{Field: "year", Reason: "is required"}})
	case errors.Is(err, directory.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "employee_not_found", "employee not found", reqID)
	default:
		requestctx.Logger(r.Context()).Warn("score report failed", "path", r.URL.Path, "err", err)
		api.Fail(w, http.StatusInternalServerError, "report_failed", "failed to build score report", reqID)
	}
}
