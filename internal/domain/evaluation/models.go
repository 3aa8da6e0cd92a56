package evaluation

import (
	"time"

	"hrperf/internal/domain/auth"
	"hrperf/internal/domain/period"
	"hrperf/internal/domain/scoring"
	"hrperf/internal/domain/templates"
)

type EmployeeAck struct {
	State   AckState   `json:"estado"`
	Comment string     `json:"comentario,omitempty"`
	At      *time.Time `json:"fecha,omitempty"`
}

type Evaluation struct {
	ID              string               `json:"id"`
	EmployeeID      string               `json:"empleado"`
	TemplateID      string               `json:"plantillaId"`
	Kind            templates.Kind       `json:"tipo"`
	Year            int                  `json:"year"`
	Period          period.Period        `json:"periodo"`
	Actual          *float64             `json:"actual"`
	Scale           *int                 `json:"escala,omitempty"`
	GoalResults     []scoring.GoalResult `json:"metasResultados,omitempty"`
	Comment         string               `json:"comentario,omitempty"`
	ManagerComment  string               `json:"comentarioManager,omitempty"`
	EmployeeComment string               `json:"comentarioEmpleado,omitempty"`
	State           State                `json:"estado"`
	EmployeeAck     *EmployeeAck         `json:"empleadoAck,omitempty"`
	ReopenNote      string               `json:"reopenNote,omitempty"`
	ReopenedAt      *time.Time           `json:"reopenedAt,omitempty"`
	Version         int                  `json:"version"`
	CreatedAt       time.Time            `json:"createdAt"`
	UpdatedAt       time.Time            `json:"updatedAt"`
}

// Key is the natural key of an evaluation.
type Key struct {
	EmployeeID string
	TemplateID string
	Year       int
	Period     period.Period
}

func (e Evaluation) Key() Key {
	return Key{EmployeeID: e.EmployeeID, TemplateID: e.TemplateID, Year: e.Year, Period: e.Period}
}

// Actor is whoever triggers a transition.
type Actor struct {
	UserID     string
	EmployeeID string
	Role       string
}

func (a Actor) IsHR() bool {
	return a.Role == auth.RoleHR || a.Role == auth.RoleAdmin
}

// Draft carries the fields a manager may edit while the evaluation is a
// draft. Nil fields are left untouched.
type Draft struct {
	Actual         *float64             `json:"actual"`
	Scale          *int                 `json:"escala"`
	GoalResults    []scoring.GoalResult `json:"metasResultados"`
	Comment        *string              `json:"comentario"`
	ManagerComment *string              `json:"comentarioManager"`
	State          string               `json:"estado"`
}

func (d Draft) IsEmpty() bool {
	return d.Actual == nil && d.Scale == nil && d.GoalResults == nil && d.Comment == nil && d.ManagerComment == nil
}

// Input is the extra data a transition may need.
type Input struct {
	Draft   *Draft
	Comment string
	Now     time.Time
}

type Selection struct {
	Mode        SelectionMode `json:"mode"`
	EmployeeIDs []string      `json:"employeeIds"`
}

type ListFilter struct {
	TemplateID string
	Year       int
	Period     period.Period
	EmployeeID string
	State      State
	Ack        AckState
}

// Condition guards a conditional write: the row must still be in State and,
// when Version is non-zero, at that version.
type Condition struct {
	State   State
	Version int
}

type ItemResult struct {
	EmployeeID string      `json:"employeeId"`
	Success    bool        `json:"success"`
	Error      string      `json:"error,omitempty"`
	Code       string      `json:"code,omitempty"`
	Evaluation *Evaluation `json:"evaluation,omitempty"`
}

type BatchResult struct {
	Results   []ItemResult `json:"results"`
	Succeeded int          `json:"succeeded"`
	Failed    int          `json:"failed"`
}

type SubmitRequest struct {
	TemplateID string           `json:"plantillaId"`
	Year       int              `json:"year"`
	Period     string           `json:"periodo"`
	Selection  Selection        `json:"selection"`
	Drafts     map[string]Draft `json:"drafts,omitempty"`
}

type CloseBulkRequest struct {
	TemplateID string    `json:"plantillaId"`
	Year       int       `json:"year"`
	Period     string    `json:"periodo"`
	Selection  Selection `json:"selection"`
	Ack        string    `json:"ackEstado,omitempty"`
}
