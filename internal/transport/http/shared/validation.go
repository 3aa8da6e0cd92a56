package shared

import (
	"net/http"
	"sort"
	"strings"
	"time"

	"hrperf/internal/domain/period"
	"hrperf/internal/transport/http/api"
)

// ValidationIssue names one rejected field. Handlers collect every issue
// before answering so the caller can fix the whole form at once.
type ValidationIssue struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

type Validator struct {
	issues []ValidationIssue
}

func NewValidator() *Validator {
	return &Validator{}
}

func (v *Validator) Add(field, reason string) {
	if v == nil || strings.TrimSpace(reason) == "" {
		return
	}
	v.issues = append(v.issues, ValidationIssue{Field: strings.TrimSpace(field), Reason: strings.TrimSpace(reason)})
}

func (v *Validator) Required(field, value, reason string) {
	if strings.TrimSpace(value) == "" {
		v.Add(field, reason)
	}
}

// Enum matches value case-insensitively against allowed and returns the
// allowed spelling. Empty input is not an error and returns "".
func (v *Validator) Enum(field, value string, allowed ...string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	for _, candidate := range allowed {
		if strings.EqualFold(value, candidate) {
			return candidate
		}
	}
	v.Add(field, "must be one of "+strings.Join(allowed, ", "))
	return ""
}

// Period parses a period token; bare tokens take year.
func (v *Validator) Period(field, token string, year int) (period.Period, bool) {
	p, err := period.Parse(token, year)
	if err != nil {
		v.Add(field, "must be a period token such as M06, Q2 or FINAL")
		return period.Period{}, false
	}
	return p, true
}

func (v *Validator) Date(field, raw string) (time.Time, bool) {
	parsed, err := ParseDate(strings.TrimSpace(raw))
	if err != nil || parsed.IsZero() {
		v.Add(field, "must be a valid date in YYYY-MM-DD format")
		return time.Time{}, false
	}
	return parsed, true
}

func (v *Validator) DateOrder(startField string, start time.Time, endField string, end time.Time) {
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		v.Add(startField, "must be on or before "+endField)
	}
}

func (v *Validator) HasIssues() bool {
	return v != nil && len(v.issues) > 0
}

// Issues returns the collected issues ordered by field.
func (v *Validator) Issues() []ValidationIssue {
	if !v.HasIssues() {
		return nil
	}
	out := append([]ValidationIssue(nil), v.issues...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Field < out[j].Field })
	return out
}

// Reject writes a validation_error response when anything was collected and
// reports whether it did.
func (v *Validator) Reject(w http.ResponseWriter, requestID string) bool {
	if !v.HasIssues() {
		return false
	}
	FailValidation(w, requestID, v.Issues())
	return true
}

func FailValidation(w http.ResponseWriter, requestID string, issues []ValidationIssue) {
	api.FailWithDetails(w, http.StatusBadRequest, "validation_error", "payload validation failed",
		map[string]any{"fields": issues}, requestID)
}
