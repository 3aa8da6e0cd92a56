package overrides

import (
	"time"

	"hrperf/internal/domain/templates"
)

// Override is the per-year exception for one (employee, template) pair.
// A nil *Override means no exception: the template's base values apply.
type Override struct {
	EmployeeID string    `json:"empleado"`
	TemplateID string    `json:"plantillaId"`
	Year       int       `json:"year"`
	Excluded   bool      `json:"excluido"`
	Weight     *float64  `json:"peso"`
	Target     *float64  `json:"meta"`
	UpdatedAt  time.Time `json:"updatedAt,omitempty"`
}

// IsNoop reports whether the override carries nothing beyond the base values.
func (o Override) IsNoop() bool {
	return !o.Excluded && o.Weight == nil && o.Target == nil
}

type Key struct {
	EmployeeID string
	TemplateID string
	Year       int
}

func (o Override) Key() Key {
	return Key{EmployeeID: o.EmployeeID, TemplateID: o.TemplateID, Year: o.Year}
}

type Effective struct {
	Weight   float64  `json:"peso"`
	Target   *float64 `json:"meta"`
	Excluded bool     `json:"excluido"`
}

// Assignment is one template that applies to an employee, resolved against
// that employee's override.
type Assignment struct {
	Template  templates.Template  `json:"plantilla"`
	Scope     templates.ScopeType `json:"scope"`
	Override  *Override           `json:"override"`
	Effective Effective           `json:"efectivo"`
}

type Filter struct {
	Year       int
	EmployeeID string
}

// SaveResult tells the caller whether Save stored a row or removed one.
type SaveResult struct {
	Override *Override `json:"override"`
	Deleted  bool      `json:"deleted"`
}
