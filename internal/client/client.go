// Package client is a typed client for the evaluation REST API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"hrperf/internal/domain/evaluation"
	"hrperf/internal/domain/overrides"
	"hrperf/internal/domain/scoring"
	"hrperf/internal/domain/templates"
)

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// New returns a client for baseURL, e.g. "https://hr.example.com/api/v1".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string          `json:"code"`
		Message string          `json:"message"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
	RequestID string `json:"requestId"`
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) (int, error) {
	op := method + " " + path
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("%s: encode body: %w", op, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, &NetworkError{Op: op, Err: err}
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		if resp.StatusCode >= 400 {
			return resp.StatusCode, &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
		}
		return resp.StatusCode, fmt.Errorf("%s: decode response: %w", op, err)
	}
	if resp.StatusCode >= 400 || !env.Success {
		apiErr := &APIError{Status: resp.StatusCode, RequestID: env.RequestID}
		if env.Error != nil {
			apiErr.Code = env.Error.Code
			apiErr.Message = env.Error.Message
			apiErr.Details = env.Error.Details
		}
		return resp.StatusCode, apiErr
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return resp.StatusCode, fmt.Errorf("%s: decode data: %w", op, err)
		}
	}
	return resp.StatusCode, nil
}

type TemplateQuery struct {
	Year      int
	ScopeType templates.ScopeType
	ScopeID   string
}

func (c *Client) Templates(ctx context.Context, q TemplateQuery) ([]templates.Template, error) {
	values := url.Values{}
	if q.Year != 0 {
		values.Set("year", strconv.Itoa(q.Year))
	}
	if q.ScopeType != "" {
		values.Set("scopeType", string(q.ScopeType))
		values.Set("scopeId", q.ScopeID)
	}
	var out []templates.Template
	_, err := c.do(ctx, http.MethodGet, "/templates", values, nil, &out)
	return out, err
}

func (c *Client) Overrides(ctx context.Context, year int, employeeID string) ([]overrides.Override, error) {
	values := url.Values{"year": {strconv.Itoa(year)}}
	if employeeID != "" {
		values.Set("empleado", employeeID)
	}
	var out []overrides.Override
	_, err := c.do(ctx, http.MethodGet, "/overrides", values, nil, &out)
	return out, err
}

// SaveOverride stores o. A result with Deleted set means o carried nothing
// beyond the base values and the existing row, if any, was removed.
func (c *Client) SaveOverride(ctx context.Context, o overrides.Override) (overrides.SaveResult, error) {
	var out overrides.SaveResult
	_, err := c.do(ctx, http.MethodPost, "/overrides", nil, o, &out)
	return out, err
}

type EvaluationQuery struct {
	TemplateID string
	Year       int
	Period     string
	EmployeeID string
	State      evaluation.State
}

func (q EvaluationQuery) values() url.Values {
	values := url.Values{}
	set := func(key, value string) {
		if value != "" {
			values.Set(key, value)
		}
	}
	set("plantillaId", q.TemplateID)
	set("periodo", q.Period)
	set("empleado", q.EmployeeID)
	set("estado", string(q.State))
	if q.Year != 0 {
		values.Set("year", strconv.Itoa(q.Year))
	}
	return values
}

func (c *Client) Evaluations(ctx context.Context, q EvaluationQuery) ([]evaluation.Evaluation, error) {
	var out []evaluation.Evaluation
	_, err := c.do(ctx, http.MethodGet, "/evaluaciones", q.values(), nil, &out)
	return out, err
}

type EvaluationKey struct {
	EmployeeID string `json:"empleado"`
	TemplateID string `json:"plantillaId"`
	Year       int    `json:"year"`
	Period     string `json:"periodo"`
}

type evaluationBody struct {
	EvaluationKey
	Version int `json:"version,omitempty"`
	evaluation.Draft
}

// FindOrCreate returns the evaluation for key, creating it when missing.
// created is true only for the call that inserted the row.
func (c *Client) FindOrCreate(ctx context.Context, key EvaluationKey) (evaluation.Evaluation, bool, error) {
	var out evaluation.Evaluation
	status, err := c.do(ctx, http.MethodPost, "/evaluaciones", nil, evaluationBody{EvaluationKey: key}, &out)
	return out, status == http.StatusCreated, err
}

// Update saves draft values. version 0 skips the concurrency check.
func (c *Client) Update(ctx context.Context, key EvaluationKey, draft evaluation.Draft, version int) (evaluation.Evaluation, error) {
	path := fmt.Sprintf("/evaluaciones/%s/%s/%s", url.PathEscape(key.EmployeeID), url.PathEscape(key.TemplateID), url.PathEscape(key.Period))
	var out evaluation.Evaluation
	_, err := c.do(ctx, http.MethodPut, path, nil, evaluationBody{EvaluationKey: key, Version: version, Draft: draft}, &out)
	return out, err
}

var transitionPaths = map[evaluation.Action]string{
	evaluation.ActionSubmitToEmployee: "submit-to-employee",
	evaluation.ActionSubmitToHR:       "submit-to-hr",
	evaluation.ActionEmployeeAck:      "employee-ack",
	evaluation.ActionEmployeeContest:  "employee-contest",
	evaluation.ActionClose:            "close",
	evaluation.ActionReopen:           "reopen",
}

// Transition applies action to the evaluation id. On a 409 the returned
// *APIError carries the current evaluation; see CurrentFromConflict.
func (c *Client) Transition(ctx context.Context, id string, action evaluation.Action, comment string, version int) (evaluation.Evaluation, error) {
	segment, ok := transitionPaths[action]
	if !ok {
		return evaluation.Evaluation{}, fmt.Errorf("transition %q has no endpoint", action)
	}
	body := struct {
		Comment string `json:"comentario,omitempty"`
		Version int    `json:"version,omitempty"`
	}{comment, version}

	var out evaluation.Evaluation
	_, err := c.do(ctx, http.MethodPost, "/evaluaciones/"+url.PathEscape(id)+"/"+segment, nil, body, &out)
	return out, err
}

// CurrentFromConflict extracts the server's evaluation from a 409 error.
func CurrentFromConflict(err error) (evaluation.Evaluation, bool) {
	apiErr, ok := AsAPIError(err)
	if !ok || !apiErr.Conflict() || len(apiErr.Details) == 0 {
		return evaluation.Evaluation{}, false
	}
	var details struct {
		Current *evaluation.Evaluation `json:"current"`
	}
	if err := json.Unmarshal(apiErr.Details, &details); err != nil || details.Current == nil {
		return evaluation.Evaluation{}, false
	}
	return *details.Current, true
}

func (c *Client) SubmitToEmployees(ctx context.Context, req evaluation.SubmitRequest) (evaluation.BatchResult, error) {
	var out evaluation.BatchResult
	_, err := c.do(ctx, http.MethodPost, "/evaluaciones/submit-to-employee", nil, req, &out)
	return out, err
}

func (c *Client) HRPending(ctx context.Context, q EvaluationQuery) ([]evaluation.Evaluation, error) {
	var out []evaluation.Evaluation
	_, err := c.do(ctx, http.MethodGet, "/evaluaciones/hr/pending", q.values(), nil, &out)
	return out, err
}

func (c *Client) CloseBulk(ctx context.Context, req evaluation.CloseBulkRequest) (evaluation.BatchResult, error) {
	var out evaluation.BatchResult
	_, err := c.do(ctx, http.MethodPost, "/evaluaciones/hr/close-bulk", nil, req, &out)
	return out, err
}

type SimulateRequest struct {
	Objectives   []scoring.ObjectiveResult  `json:"objetivos"`
	Competencies []scoring.CompetencyResult `json:"competencias"`
	Shares       *scoring.Shares            `json:"pesos,omitempty"`
}

func (c *Client) Simulate(ctx context.Context, req SimulateRequest) (scoring.Breakdown, error) {
	var out scoring.Breakdown
	_, err := c.do(ctx, http.MethodPost, "/scoring/simulate", nil, req, &out)
	return out, err
}
