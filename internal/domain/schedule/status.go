package schedule

import (
	"math"
	"sort"
	"time"

	"hrperf/internal/domain/evaluation"
)

type Status string

const (
	StatusOverdue         Status = "vencido"
	StatusDueSoon         Status = "por_vencer"
	StatusSentToEmployee  Status = "enviado_empleado"
	StatusSentToHR        Status = "enviado_rrhh"
	StatusDraft           Status = "borrador"
	StatusCompleted       Status = "completado"
	StatusFinalized       Status = "finalizado"
	StatusFuture          Status = "futuro"
)

type ItemKind string

const (
	ItemObjective  ItemKind = "objective"
	ItemCompetency ItemKind = "competency"
	ItemFeedback   ItemKind = "feedback"
)

// Snapshot is the part of an evaluation status derivation looks at.
type Snapshot struct {
	ID     string           `json:"id"`
	State  evaluation.State `json:"estado"`
	Actual *float64         `json:"actual"`
}

type Cell struct {
	EmployeeID    string     `json:"empleado"`
	TemplateID    string     `json:"plantillaId,omitempty"`
	TemplateName  string     `json:"plantilla,omitempty"`
	Kind          ItemKind   `json:"tipo"`
	Period        string     `json:"periodo"`
	DueDate       *time.Time `json:"fecha,omitempty"`
	Evaluation    *Snapshot  `json:"evaluacion,omitempty"`
	Status        Status     `json:"status"`
	DaysRemaining *int       `json:"diasRestantes,omitempty"`
}

var priority = map[Status]int{
	StatusOverdue:        0,
	StatusDueSoon:        1,
	StatusSentToEmployee: 2,
	StatusSentToHR:       3,
	StatusDraft:          4,
	StatusCompleted:      5,
	StatusFinalized:      5,
	StatusFuture:         6,
}

// Priority orders statuses for display; lower comes first.
func Priority(s Status) int {
	if p, ok := priority[s]; ok {
		return p
	}
	return len(priority)
}

// DaysRemaining is ceil((end of due day - start of today) / 1 day). A
// milestone due today has 1 day left and one due yesterday still has 0; it
// goes negative from the day after that.
func DaysRemaining(due, today time.Time) int {
	end := dateOnly(due).Add(24*time.Hour - time.Millisecond)
	start := dateOnly(today)
	days := math.Ceil(float64(end.Sub(start)) / float64(24*time.Hour))
	return int(days)
}

// DeriveStatus classifies one timeline cell.
func DeriveStatus(cell Cell, today time.Time, dueSoonDays int) Status {
	if cell.Kind == ItemFeedback {
		if cell.Evaluation == nil {
			return StatusDraft
		}
		switch cell.Evaluation.State {
		case evaluation.StatePendingEmployee:
			return StatusSentToEmployee
		case evaluation.StatePendingHR:
			return StatusSentToHR
		case evaluation.StateClosed:
			return StatusFinalized
		}
		return StatusDraft
	}

	if cell.Evaluation != nil && cell.Evaluation.Actual != nil {
		return StatusCompleted
	}
	if cell.DueDate == nil {
		return StatusFuture
	}
	days := DaysRemaining(*cell.DueDate, today)
	switch {
	case days < 0:
		return StatusOverdue
	case days <= dueSoonDays:
		return StatusDueSoon
	}
	if cell.Evaluation != nil && (cell.Evaluation.State == evaluation.StateManagerDraft || cell.Evaluation.State == "") {
		return StatusDraft
	}
	return StatusFuture
}

// Resolve fills Status and DaysRemaining on every cell.
func Resolve(cells []Cell, today time.Time, dueSoonDays int) {
	for i := range cells {
		cells[i].Status = DeriveStatus(cells[i], today, dueSoonDays)
		cells[i].DaysRemaining = nil
		if cells[i].DueDate != nil && cells[i].Kind != ItemFeedback {
			d := DaysRemaining(*cells[i].DueDate, today)
			cells[i].DaysRemaining = &d
		}
	}
}

// SortCells orders by status priority, then due date, then period.
func SortCells(cells []Cell) {
	sort.SliceStable(cells, func(i, j int) bool {
		pi, pj := Priority(cells[i].Status), Priority(cells[j].Status)
		if pi != pj {
			return pi < pj
		}
		di, dj := cells[i].DueDate, cells[j].DueDate
		switch {
		case di != nil && dj != nil && !di.Equal(*dj):
			return di.Before(*dj)
		case di != nil && dj == nil:
			return true
		case di == nil && dj != nil:
			return false
		}
		return cells[i].Period < cells[j].Period
	})
}

type GroupKey struct {
	AreaID   string `json:"areaId"`
	SectorID string `json:"sectorId"`
	Status   Status `json:"status"`
}

// Worst returns the most urgent status among cells, or StatusFuture when
// there are none.
func Worst(cells []Cell) Status {
	worst := StatusFuture
	for _, c := range cells {
		if Priority(c.Status) < Priority(worst) {
			worst = c.Status
		}
	}
	return worst
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
