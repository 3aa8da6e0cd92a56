package scoringhandler

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"

	"github.com/go-chi/chi/v5"

	"hrperf/internal/domain/auth"
	"hrperf/internal/domain/scoring"
	"hrperf/internal/transport/http/api"
	"hrperf/internal/transport/http/middleware"
	"hrperf/internal/transport/http/shared"
)

// Handler exposes the pure scoring functions for what-if simulation. Nothing
// here reads or writes storage.
type Handler struct {
	Shares scoring.Shares
	Perms  middleware.PermissionStore
}

func NewHandler(shares scoring.Shares, perms middleware.PermissionStore) *Handler {
	return &Handler{Shares: shares, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/scoring", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermEvaluationsRead, h.Perms)).Post("/simulate", h.handleSimulate)
		r.With(middleware.RequirePermission(auth.PermEvaluationsRead, h.Perms)).Post("/aggregate", h.handleAggregate)
	})
}

type simulatePayload struct {
	Objectives   []scoring.ObjectiveResult  `json:"objetivos"`
	Competencies []scoring.CompetencyResult `json:"competencias"`
	Shares       *scoring.Shares            `json:"pesos"`
}

type aggregatePayload struct {
	Goals  []scoring.GoalProgress `json:"metas"`
	Period string                 `json:"periodo"`
	Year   int                    `json:"year"`
}

type aggregateResult struct {
	Results []scoring.GoalResult `json:"resultados"`
	Actual  float64              `json:"actual"`
}

func (h *Handler) handleSimulate(w http.ResponseWriter, r *http.Request) {
	var payload simulatePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	shares := h.Shares
	v := shared.NewValidator()
	if payload.Shares != nil {
		shares = *payload.Shares
		if shares.Objective < 0 || shares.Competency < 0 || math.Abs(shares.Objective+shares.Competency-1) > 1e-9 {
			v.Add("pesos", "objetivos and competencias must be non-negative and add up to 1")
		}
	}
	for _, c := range payload.Competencies {
		if c.Scale < 0 || c.Scale > 100 {
			v.Add("competencias", "escala must be between 1 and 5, or already on 0-100")
			break
		}
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	api.Success(w, scoring.ScoreBreakdown(payload.Objectives, payload.Competencies, shares), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleAggregate(w http.ResponseWriter, r *http.Request) {
	var payload aggregatePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	v := shared.NewValidator()
	v.Year("year", payload.Year)
	at, _ := v.Period("periodo", payload.Period, payload.Year)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	results, actual, err := scoring.ComputeGoalResults(payload.Goals, at)
	if err != nil {
		code := "invalid_goal"
		switch {
		case errors.Is(err, scoring.ErrUnknownOperator):
			code = "unknown_operator"
		case errors.Is(err, scoring.ErrUnknownUnit):
			code = "unknown_unit"
		case errors.Is(err, scoring.ErrUnknownClosing):
			code = "unknown_closing_rule"
		case errors.Is(err, scoring.ErrUnknownMode):
			code = "unknown_accumulation_mode"
		}
		api.Fail(w, http.StatusBadRequest, code, err.Error(), middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, aggregateResult{Results: results, Actual: actual}, middleware.GetRequestID(r.Context()))
}
