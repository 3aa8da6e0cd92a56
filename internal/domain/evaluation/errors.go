package evaluation

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrNotFound          = errors.New("evaluation not found")
	ErrInvalidTransition = errors.New("transition not allowed from current state")
	ErrForbiddenActor    = errors.New("actor may not perform this transition")
	ErrStaleVersion      = errors.New("evaluation was modified by someone else")
	ErrUnavailable       = errors.New("evaluation storage unavailable")
	ErrConflict          = errors.New("conditional update matched no row")
)

const (
	CodeEmptySelection         = "empty_selection"
	CodeMissingEscala          = "missing_escala"
	CodeMissingActual          = "missing_actual"
	CodeAlreadySent            = "already_sent"
	CodeInvalidPeriod          = "invalid_period"
	CodeContestCommentRequired = "contest_comment_required"
	CodeInvalidMode            = "invalid_mode"
	CodeInvalidState           = "invalid_state"
	CodeInvalidPayload         = "invalid_payload"
)

// ValidationError is a request rejected before anything was written.
// Employees names the employees that caused it, when there are any.
type ValidationError struct {
	Code      string   `json:"code"`
	Message   string   `json:"message"`
	Field     string   `json:"field,omitempty"`
	Employees []string `json:"employees,omitempty"`
}

func (e *ValidationError) Error() string {
	if len(e.Employees) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Message, strings.Join(e.Employees, ", "))
}

func invalid(code, field, message string, employees ...string) *ValidationError {
	return &ValidationError{Code: code, Field: field, Message: message, Employees: employees}
}

// TransitionError carries the evaluation as the server currently holds it
// so callers can refresh instead of trusting their local copy.
type TransitionError struct {
	Action  Action
	From    State
	Current *Evaluation
	Err     error
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s from %s: %v", e.Action, e.From, e.Err)
}

func (e *TransitionError) Unwrap() error {
	return e.Err
}

func MapHTTPStatus(err error) int {
	var vErr *ValidationError
	switch {
	case errors.As(err, &vErr):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrForbiddenActor):
		return http.StatusForbidden
	case errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrStaleVersion):
		return http.StatusConflict
	case errors.Is(err, ErrUnavailable):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// ErrorCode is the machine-readable code reported alongside MapHTTPStatus.
func ErrorCode(err error) string {
	var vErr *ValidationError
	switch {
	case errors.As(err, &vErr):
		return vErr.Code
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrForbiddenActor):
		return "forbidden_actor"
	case errors.Is(err, ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, ErrStaleVersion):
		return "stale_version"
	case errors.Is(err, ErrUnavailable):
		return "unavailable"
	}
	return "internal_error"
}
