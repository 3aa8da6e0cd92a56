package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"hrperf/internal/domain/directory"
	"hrperf/internal/domain/evaluation"
	"hrperf/internal/domain/overrides"
	"hrperf/internal/domain/period"
	"hrperf/internal/domain/scoring"
	"hrperf/internal/domain/templates"
)

type EmployeeLister interface {
	List(ctx context.Context, filter directory.Filter) ([]directory.Employee, error)
}

type AssignmentSource interface {
	Assignments(ctx context.Context, employeeID string, year int) ([]overrides.Assignment, error)
}

type EvaluationLister interface {
	List(ctx context.Context, filter evaluation.ListFilter) ([]evaluation.Evaluation, error)
}

type Filter struct {
	AreaID   string
	SectorID string
}

type Row struct {
	Employee directory.Employee `json:"empleado"`
	Cells    []Cell             `json:"celdas"`
	Worst    Status             `json:"peorStatus"`
}

type Group struct {
	AreaID     string         `json:"areaId"`
	AreaName   string         `json:"area"`
	SectorID   string         `json:"sectorId"`
	SectorName string         `json:"sector"`
	Rows       []Row          `json:"filas"`
	Counts     map[Status]int `json:"conteo"`
}

type Timeline struct {
	Year   int     `json:"year"`
	Today  string  `json:"today"`
	Groups []Group `json:"grupos"`
}

type Service struct {
	employees   EmployeeLister
	assignments AssignmentSource
	evaluations EvaluationLister
	dueSoonDays int
}

func NewService(employees EmployeeLister, assignments AssignmentSource, evaluations EvaluationLister, dueSoonDays int) *Service {
	return &Service{employees: employees, assignments: assignments, evaluations: evaluations, dueSoonDays: dueSoonDays}
}

// Timeline derives the year's employee x milestone grid as of today, grouped
// by area and sector. Nothing here is stored; every status is recomputed.
func (s *Service) Timeline(ctx context.Context, year int, today time.Time, filter Filter) (Timeline, error) {
	emps, err := s.employees.List(ctx, directory.Filter{AreaID: filter.AreaID, SectorID: filter.SectorID})
	if err != nil {
		return Timeline{}, fmt.Errorf("list employees: %w", err)
	}
	evs, err := s.evaluations.List(ctx, evaluation.ListFilter{Year: year})
	if err != nil {
		return Timeline{}, fmt.Errorf("list evaluations: %w", err)
	}
	index := make(map[evaluation.Key]evaluation.Evaluation, len(evs))
	byEmployee := map[string][]evaluation.Evaluation{}
	for _, ev := range evs {
		index[ev.Key()] = ev
		byEmployee[ev.EmployeeID] = append(byEmployee[ev.EmployeeID], ev)
	}

	groups := map[GroupKey]*Group{}
	var order []GroupKey
	for _, emp := range emps {
		assigned, err := s.assignments.Assignments(ctx, emp.ID, year)
		if err != nil {
			return Timeline{}, fmt.Errorf("assignments for %s: %w", emp.ID, err)
		}
		cells := BuildCells(emp.ID, year, assigned, index, byEmployee[emp.ID])
		Resolve(cells, today, s.dueSoonDays)
		SortCells(cells)

		key := GroupKey{AreaID: emp.AreaID, SectorID: emp.SectorID}
		g, ok := groups[key]
		if !ok {
			g = &Group{AreaID: emp.AreaID, AreaName: emp.AreaName, SectorID: emp.SectorID, SectorName: emp.SectorName, Counts: map[Status]int{}}
			groups[key] = g
			order = append(order, key)
		}
		for _, c := range cells {
			g.Counts[c.Status]++
		}
		g.Rows = append(g.Rows, Row{Employee: emp, Cells: cells, Worst: Worst(cells)})
	}

	out := Timeline{Year: year, Today: today.Format("2006-01-02")}
	for _, key := range order {
		g := groups[key]
		sort.SliceStable(g.Rows, func(i, j int) bool {
			return Priority(g.Rows[i].Worst) < Priority(g.Rows[j].Worst)
		})
		out.Groups = append(out.Groups, *g)
	}
	sort.SliceStable(out.Groups, func(i, j int) bool {
		if out.Groups[i].AreaName != out.Groups[j].AreaName {
			return out.Groups[i].AreaName < out.Groups[j].AreaName
		}
		return out.Groups[i].SectorName < out.Groups[j].SectorName
	})
	return out, nil
}

// BuildCells turns an employee's assignments into milestone cells plus one
// feedback cell per quarter that has milestones. A feedback cell borrows the
// least advanced state among the employee's evaluations in that quarter.
func BuildCells(employeeID string, year int, assigned []overrides.Assignment, index map[evaluation.Key]evaluation.Evaluation, evs []evaluation.Evaluation) []Cell {
	var cells []Cell
	quarters := map[period.Period]bool{}
	for _, a := range assigned {
		if a.Effective.Excluded {
			continue
		}
		kind := ItemObjective
		if a.Template.Kind == templates.KindCompetency {
			kind = ItemCompetency
		}
		for _, m := range a.Template.Milestones {
			p, err := period.Parse(m.Period, year)
			if err != nil {
				slog.Warn("skipping milestone with bad period", "templateId", a.Template.ID, "period", m.Period, "err", err)
				continue
			}
			due := m.DueDate
			cell := Cell{
				EmployeeID:   employeeID,
				TemplateID:   a.Template.ID,
				TemplateName: a.Template.Name,
				Kind:         kind,
				Period:       p.String(),
				DueDate:      &due,
			}
			if ev, ok := index[evaluation.Key{EmployeeID: employeeID, TemplateID: a.Template.ID, Year: p.Year, Period: p}]; ok {
				cell.Evaluation = snapshot(ev)
			}
			cells = append(cells, cell)
			if q := p.Quarter(); !q.IsZero() {
				quarters[q] = true
			}
		}
	}

	qs := make([]period.Period, 0, len(quarters))
	for q := range quarters {
		qs = append(qs, q)
	}
	sort.Slice(qs, func(i, j int) bool { return qs[i].Before(qs[j]) })
	for _, q := range qs {
		cell := Cell{EmployeeID: employeeID, Kind: ItemFeedback, Period: q.String()}
		var least *evaluation.Evaluation
		for i := range evs {
			if !q.Contains(evs[i].Period) {
				continue
			}
			if least == nil || stateRank(evs[i].State) < stateRank(least.State) {
				least = &evs[i]
			}
		}
		if least != nil {
			cell.Evaluation = snapshot(*least)
		}
		cells = append(cells, cell)
	}
	return cells
}

func snapshot(ev evaluation.Evaluation) *Snapshot {
	s := &Snapshot{ID: ev.ID, State: ev.State, Actual: ev.Actual}
	if s.Actual == nil && ev.Scale != nil {
		v := scoring.NormalizeScale(float64(*ev.Scale))
		s.Actual = &v
	}
	return s
}

func stateRank(s evaluation.State) int {
	switch s {
	case evaluation.StatePendingEmployee:
		return 1
	case evaluation.StatePendingHR:
		return 2
	case evaluation.StateClosed:
		return 3
	}
	return 0
}
