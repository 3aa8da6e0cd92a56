package evaluationshandler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"hrperf/internal/domain/auth"
	"hrperf/internal/domain/evaluation"
	"hrperf/internal/domain/period"
	"hrperf/internal/domain/templates"
	"hrperf/internal/requestctx"
	"hrperf/internal/transport/http/api"
	"hrperf/internal/transport/http/middleware"
)

type Service interface {
	Get(ctx context.Context, id string) (evaluation.Evaluation, error)
	List(ctx context.Context, filter evaluation.ListFilter) ([]evaluation.Evaluation, error)
	Upsert(ctx context.Context, cc evaluation.CallContext, key evaluation.Key, draft evaluation.Draft, version int) (evaluation.Evaluation, bool, error)
	Transition(ctx context.Context, cc evaluation.CallContext, id string, action evaluation.Action, comment string, version int) (evaluation.Evaluation, error)
	SubmitToEmployees(ctx context.Context, cc evaluation.CallContext, req evaluation.SubmitRequest) (evaluation.BatchResult, error)
	PendingHR(ctx context.Context, filter evaluation.ListFilter) ([]evaluation.Evaluation, error)
	CloseBulk(ctx context.Context, cc evaluation.CallContext, req evaluation.CloseBulkRequest) (evaluation.BatchResult, error)
}

type Handler struct {
	Service Service
	Perms   middleware.PermissionStore
}

func NewHandler(service Service, perms middleware.PermissionStore) *Handler {
	return &Handler{Service: service, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	read := middleware.RequirePermission(auth.PermEvaluationsRead, h.Perms)
	write := middleware.RequirePermission(auth.PermEvaluationsWrite, h.Perms)
	respond := middleware.RequirePermission(auth.PermEvaluationsRespond, h.Perms)
	review := middleware.RequirePermission(auth.PermEvaluationsReview, h.Perms)
	closer := middleware.RequirePermission(auth.PermEvaluationsClose, h.Perms)

	r.Route("/evaluaciones", func(r chi.Router) {
		r.With(read).Get("/", h.handleList)
		r.With(write).Post("/", h.handleFindOrCreate)
		r.With(write).Post("/submit-to-employee", h.handleSubmitBatch)
		r.With(review).Get("/hr/pending", h.handlePendingHR)
		r.With(closer).Post("/hr/close-bulk", h.handleCloseBulk)
		r.With(read).Get("/{id}", h.handleGet)
		r.With(write).Put("/{empleado}/{plantillaId}/{periodo}", h.handleUpdate)
		r.With(write).Post("/{id}/submit-to-employee", h.transition(evaluation.ActionSubmitToEmployee))
		r.With(write).Post("/{id}/submit-to-hr", h.transition(evaluation.ActionSubmitToHR))
		r.With(respond).Post("/{id}/employee-ack", h.transition(evaluation.ActionEmployeeAck))
		r.With(respond).Post("/{id}/employee-contest", h.transition(evaluation.ActionEmployeeContest))
		r.With(closer).Post("/{id}/close", h.transition(evaluation.ActionClose))
		r.With(closer).Post("/{id}/reopen", h.transition(evaluation.ActionReopen))
	})
}

// evaluationPayload is the body of POST /evaluaciones and PUT
// /evaluaciones/{empleado}/{plantillaId}/{periodo}.
type evaluationPayload struct {
	EmployeeID string `json:"empleado"`
	TemplateID string `json:"plantillaId"`
	Year       int    `json:"year"`
	Period     string `json:"periodo"`
	Version    int    `json:"version"`
	evaluation.Draft
}

type transitionPayload struct {
	Comment string `json:"comentario"`
	Version int    `json:"version"`
}

func callContext(r *http.Request, user auth.UserContext) evaluation.CallContext {
	return evaluation.CallContext{
		Actor: evaluation.Actor{
			UserID:     user.UserID,
			EmployeeID: user.EmployeeID,
			Role:       user.RoleName,
		},
		RequestID: middleware.GetRequestID(r.Context()),
	}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.RequireUser(w, r)
	if !ok {
		return
	}

	filter, err := listFilter(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	// employees only ever see their own evaluations
	if user.RoleName == auth.RoleEmployee {
		filter.EmployeeID = user.EmployeeID
		if filter.EmployeeID == "" {
			api.Success(w, []evaluation.Evaluation{}, middleware.GetRequestID(r.Context()))
			return
		}
	}

	items, err := h.Service.List(r.Context(), filter)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if items == nil {
		items = []evaluation.Evaluation{}
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(len(items)))
	api.Success(w, items, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.RequireUser(w, r)
	if !ok {
		return
	}

	ev, err := h.Service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if user.RoleName == auth.RoleEmployee && ev.EmployeeID != user.EmployeeID {
		api.Fail(w, http.StatusNotFound, "not_found", "evaluation not found", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, ev, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleFindOrCreate(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.RequireUser(w, r)
	if !ok {
		return
	}

	var payload evaluationPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	key, err := evaluation.ParseKey(payload.EmployeeID, payload.TemplateID, payload.Year, payload.Period)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	ev, created, err := h.Service.Upsert(r.Context(), callContext(r, user), key, payload.Draft, payload.Version)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if created {
		api.Created(w, ev, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, ev, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.RequireUser(w, r)
	if !ok {
		return
	}

	var payload evaluationPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	if raw := r.URL.Query().Get("year"); raw != "" && payload.Year == 0 {
		year, err := strconv.Atoi(raw)
		if err != nil {
			h.fail(w, r, &evaluation.ValidationError{Code: evaluation.CodeInvalidPayload, Field: "year", Message: "year must be a number"})
			return
		}
		payload.Year = year
	}
	key, err := evaluation.ParseKey(chi.URLParam(r, "empleado"), chi.URLParam(r, "plantillaId"), payload.Year, chi.URLParam(r, "periodo"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if version := ifMatchVersion(r); version != 0 {
		payload.Version = version
	}

	ev, _, err := h.Service.Upsert(r.Context(), callContext(r, user), key, payload.Draft, payload.Version)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.Success(w, ev, middleware.GetRequestID(r.Context()))
}

func (h *Handler) transition(action evaluation.Action) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := middleware.RequireUser(w, r)
		if !ok {
			return
		}

		var payload transitionPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil && !errors.Is(err, io.EOF) {
			api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
			return
		}
		if version := ifMatchVersion(r); version != 0 {
			payload.Version = version
		}

		ev, err := h.Service.Transition(r.Context(), callContext(r, user), chi.URLParam(r, "id"), action, payload.Comment, payload.Version)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		api.Success(w, ev, middleware.GetRequestID(r.Context()))
	}
}

func (h *Handler) handleSubmitBatch(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.RequireUser(w, r)
	if !ok {
		return
	}

	var req evaluation.SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	result, err := h.Service.SubmitToEmployees(r.Context(), callContext(r, user), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.Success(w, result, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handlePendingHR(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.RequireUser(w, r); !ok {
		return
	}

	filter, err := listFilter(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	items, err := h.Service.PendingHR(r.Context(), filter)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if items == nil {
		items = []evaluation.Evaluation{}
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(len(items)))
	api.Success(w, items, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCloseBulk(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.RequireUser(w, r)
	if !ok {
		return
	}

	var req evaluation.CloseBulkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	result, err := h.Service.CloseBulk(r.Context(), callContext(r, user), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.Success(w, result, middleware.GetRequestID(r.Context()))
}

// listFilter reads plantillaId, year, periodo, empleado, estado and ack.
func listFilter(r *http.Request) (evaluation.ListFilter, error) {
	q := r.URL.Query()
	filter := evaluation.ListFilter{
		TemplateID: strings.TrimSpace(q.Get("plantillaId")),
		EmployeeID: strings.TrimSpace(q.Get("empleado")),
	}
	if raw := q.Get("year"); raw != "" {
		year, err := strconv.Atoi(raw)
		if err != nil {
			return filter, &evaluation.ValidationError{Code: evaluation.CodeInvalidPayload, Field: "year", Message: "year must be a number"}
		}
		filter.Year = year
	}
	if raw := q.Get("periodo"); raw != "" {
		p, err := period.Parse(raw, filter.Year)
		if err != nil {
			return filter, &evaluation.ValidationError{Code: evaluation.CodeInvalidPeriod, Field: "periodo", Message: "period " + strconv.Quote(raw) + " is not a valid month, quarter or FINAL token"}
		}
		filter.Period = p
		filter.Year = p.Year
	}
	if raw := q.Get("estado"); raw != "" {
		state, err := evaluation.ParseState(raw)
		if err != nil {
			return filter, &evaluation.ValidationError{Code: evaluation.CodeInvalidState, Field: "estado", Message: err.Error()}
		}
		filter.State = state
	}
	if raw := q.Get("ack"); raw != "" {
		ack, err := evaluation.ParseAckState(raw)
		if err != nil {
			return filter, &evaluation.ValidationError{Code: evaluation.CodeInvalidPayload, Field: "ack", Message: err.Error()}
		}
		filter.Ack = ack
	}
	return filter, nil
}

func ifMatchVersion(r *http.Request) int {
	raw := strings.Trim(strings.TrimSpace(r.Header.Get("If-Match")), `"`)
	if raw == "" {
		return 0
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return v
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	reqID := middleware.GetRequestID(r.Context())
	var vErr *evaluation.ValidationError
	var tErr *evaluation.TransitionError
	switch {
	case errors.As(err, &vErr):
		api.FailWithDetails(w, http.StatusBadRequest, vErr.Code, vErr.Message, map[string]any{
			"field":     vErr.Field,
			"employees": vErr.Employees,
		}, reqID)
	case errors.As(err, &tErr) && tErr.Current != nil:
		api.FailWithDetails(w, evaluation.MapHTTPStatus(err), evaluation.ErrorCode(err), err.Error(), map[string]any{
			"current": tErr.Current,
		}, reqID)
	case errors.Is(err, templates.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "template_not_found", "template not found", reqID)
	default:
		status := evaluation.MapHTTPStatus(err)
		message := err.Error()
		if status >= http.StatusInternalServerError {
			requestctx.Logger(r.Context()).Warn("evaluation request failed", "path", r.URL.Path, "err", err)
			message = "failed to process evaluation request"
			if status == http.StatusServiceUnavailable {
				message = "evaluation storage is unreachable, try again"
			}
		}
		api.Fail(w, status, evaluation.ErrorCode(err), message, reqID)
	}
}
