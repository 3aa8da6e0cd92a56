package reports

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"hrperf/internal/domain/directory"
	"hrperf/internal/domain/evaluation"
	"hrperf/internal/domain/overrides"
	"hrperf/internal/domain/scoring"
	"hrperf/internal/domain/templates"
)

type AssignmentSource interface {
	Assignments(ctx context.Context, employeeID string, year int) ([]overrides.Assignment, error)
}

type EvaluationLister interface {
	List(ctx context.Context, filter evaluation.ListFilter) ([]evaluation.Evaluation, error)
}

type EmployeeLookup interface {
	Get(ctx context.Context, employeeID string) (directory.Employee, error)
}

type Service struct {
	assignments AssignmentSource
	evaluations EvaluationLister
	employees   EmployeeLookup
	jobs        JobRunStore
	shares      scoring.Shares
	dir         string
	now         func() time.Time
}

// NewService wires the report builder. dir is where archived PDFs are
// written; an empty dir disables archiving.
func NewService(assignments AssignmentSource, evaluations EvaluationLister, employees EmployeeLookup, jobs JobRunStore, shares scoring.Shares, dir string) *Service {
	return &Service{
		assignments: assignments,
		evaluations: evaluations,
		employees:   employees,
		jobs:        jobs,
		shares:      shares,
		dir:         dir,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// EmployeeScore builds the year score for one employee from persisted
// evaluations. Each assigned template uses its FINAL evaluation, or the most
// recent period on record when FINAL has not been evaluated yet.
func (s *Service) EmployeeScore(ctx context.Context, employeeID string, year int) (ScoreReport, error) {
	if year <= 0 {
		return ScoreReport{}, ErrInvalidYear
	}
	emp, err := s.employees.Get(ctx, employeeID)
	if err != nil {
		return ScoreReport{}, err
	}
	assigned, err := s.assignments.Assignments(ctx, employeeID, year)
	if err != nil {
		return ScoreReport{}, err
	}
	evs, err := s.evaluations.List(ctx, evaluation.ListFilter{EmployeeID: employeeID, Year: year})
	if err != nil {
		return ScoreReport{}, err
	}

	report := Build(emp, year, assigned, evs, s.shares)
	report.GeneratedAt = s.now()
	return report, nil
}

// Build is the pure part of EmployeeScore.
func Build(emp directory.Employee, year int, assigned []overrides.Assignment, evs []evaluation.Evaluation, shares scoring.Shares) ScoreReport {
	latest := latestByTemplate(evs)
	report := ScoreReport{
		Employee:     emp,
		Year:         year,
		Objectives:   []ObjectiveLine{},
		Competencies: []CompetencyLine{},
		Shares:       shares,
		Closed:       true,
	}

	var objs []scoring.ObjectiveResult
	var comps []scoring.CompetencyResult
	for _, a := range assigned {
		if a.Effective.Excluded {
			continue
		}
		ev, ok := latest[a.Template.ID]
		if !ok || ev.State != evaluation.StateClosed || !ev.Period.IsFinal() {
			report.Closed = false
		}

		switch a.Template.Kind {
		case templates.KindCompetency:
			line := CompetencyLine{CompetencyResult: scoring.CompetencyResult{TemplateID: a.Template.ID, Name: a.Template.Name}}
			if ok {
				line.Period, line.State = ev.Period.String(), ev.State
			}
			if ok && ev.Scale != nil {
				line.Scale = float64(*ev.Scale)
				comps = append(comps, line.CompetencyResult)
			} else {
				// unrated competencies stay out of the mean
				line.Missing = true
			}
			report.Competencies = append(report.Competencies, line)
		default:
			line := ObjectiveLine{ObjectiveResult: scoring.ObjectiveResult{
				TemplateID:      a.Template.ID,
				Name:            a.Template.Name,
				EffectiveWeight: a.Effective.Weight,
			}}
			if ok {
				line.Period, line.State = ev.Period.String(), ev.State
			}
			if ok && ev.Actual != nil {
				line.Actual = *ev.Actual
			} else {
				line.Missing = true
			}
			objs = append(objs, line.ObjectiveResult)
			report.Objectives = append(report.Objectives, line)
		}
	}
	if len(report.Objectives)+len(report.Competencies) == 0 {
		report.Closed = false
	}

	report.Breakdown = scoring.ScoreBreakdown(objs, comps, shares)
	return report
}

// latestByTemplate keeps, per template, the FINAL evaluation when there is
// one and otherwise the latest period.
func latestByTemplate(evs []evaluation.Evaluation) map[string]evaluation.Evaluation {
	sorted := append([]evaluation.Evaluation(nil), evs...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Period.Before(sorted[j].Period)
	})
	out := make(map[string]evaluation.Evaluation, len(sorted))
	for _, ev := range sorted {
		out[ev.TemplateID] = ev
	}
	return out
}

// EmployeeScorePDF renders the report and, when an archive directory is
// configured, keeps a copy there.
func (s *Service) EmployeeScorePDF(ctx context.Context, employeeID string, year int) ([]byte, ScoreReport, error) {
	report, err := s.EmployeeScore(ctx, employeeID, year)
	if err != nil {
		return nil, ScoreReport{}, err
	}
	data, err := RenderPDF(report)
	if err != nil {
		return nil, ScoreReport{}, err
	}
	if s.dir != "" && report.Closed {
		if err := s.archive(report, data); err != nil {
			return nil, ScoreReport{}, err
		}
	}
	return data, report, nil
}

func (s *Service) archive(report ScoreReport, data []byte) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(s.dir, fmt.Sprintf("%s-%d.pdf", report.Employee.ID, report.Year))
	return os.WriteFile(path, data, 0o600)
}

func (s *Service) JobRuns(ctx context.Context, filter JobRunFilter, limit, offset int) ([]JobRun, int, error) {
	runs, err := s.jobs.ListJobRuns(ctx, filter, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.jobs.CountJobRuns(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return runs, total, nil
}

func (s *Service) JobRun(ctx context.Context, runID string) (JobRun, error) {
	return s.jobs.JobRunByID(ctx, runID)
}
