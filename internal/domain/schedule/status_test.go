package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrperf/internal/domain/directory"
	"hrperf/internal/domain/evaluation"
	"hrperf/internal/domain/overrides"
	"hrperf/internal/domain/period"
	"hrperf/internal/domain/templates"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func fp(v float64) *float64 { return &v }

func TestDeriveStatusScenario(t *testing.T) {
	today := time.Date(2025, 6, 1, 15, 30, 0, 0, time.UTC)
	draft := &Snapshot{State: evaluation.StateManagerDraft}
	cell := func(due time.Time, ev *Snapshot) Cell {
		return Cell{Kind: ItemObjective, DueDate: &due, Evaluation: ev}
	}

	assert.Equal(t, StatusDueSoon, DeriveStatus(cell(day(2025, 6, 5), draft), today, 7))
	assert.Equal(t, StatusOverdue, DeriveStatus(cell(day(2025, 5, 20), draft), today, 7))
	assert.Equal(t, StatusFuture, DeriveStatus(cell(day(2025, 7, 1), nil), today, 7))
	assert.Equal(t, StatusDraft, DeriveStatus(cell(day(2025, 7, 1), draft), today, 7))
	for _, due := range []time.Time{day(2025, 5, 20), day(2025, 6, 5), day(2025, 7, 1)} {
		assert.Equal(t, StatusCompleted, DeriveStatus(cell(due, &Snapshot{Actual: fp(85)}), today, 7))
	}
	assert.Equal(t, StatusFuture, DeriveStatus(Cell{Kind: ItemCompetency}, today, 7))
}

func TestDaysRemainingBoundaries(t *testing.T) {
	today := time.Date(2025, 6, 1, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, 1, DaysRemaining(day(2025, 6, 1), today))
	assert.Equal(t, 2, DaysRemaining(day(2025, 6, 2), today))
	assert.Equal(t, 0, DaysRemaining(day(2025, 5, 31), today))
	assert.Equal(t, -1, DaysRemaining(day(2025, 5, 30), today))
}

func TestDueYesterdayIsStillDueSoon(t *testing.T) {
	today := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	draft := &Snapshot{State: evaluation.StateManagerDraft}
	yesterday := day(2025, 5, 31)
	twoDaysAgo := day(2025, 5, 30)

	assert.Equal(t, StatusDueSoon, DeriveStatus(Cell{Kind: ItemObjective, DueDate: &yesterday, Evaluation: draft}, today, 7))
	assert.Equal(t, StatusOverdue, DeriveStatus(Cell{Kind: ItemObjective, DueDate: &twoDaysAgo, Evaluation: draft}, today, 7))
}

func TestFeedbackIgnoresDueDate(t *testing.T) {
	today := day(2025, 6, 1)
	overdue := day(2025, 1, 1)
	cases := map[evaluation.State]Status{
		evaluation.StateManagerDraft:    StatusDraft,
		evaluation.StatePendingEmployee: StatusSentToEmployee,
		evaluation.StatePendingHR:       StatusSentToHR,
		evaluation.StateClosed:          StatusFinalized,
	}
	for state, want := range cases {
		c := Cell{Kind: ItemFeedback, DueDate: &overdue, Evaluation: &Snapshot{State: state}}
		assert.Equal(t, want, DeriveStatus(c, today, 7), state)
	}
	assert.Equal(t, StatusDraft, DeriveStatus(Cell{Kind: ItemFeedback, DueDate: &overdue}, today, 7))
}

func TestSortCellsUsesFixedPriority(t *testing.T) {
	cells := []Cell{
		{Period: "a", Status: StatusFuture},
		{Period: "b", Status: StatusCompleted},
		{Period: "c", Status: StatusDraft},
		{Period: "d", Status: StatusSentToHR},
		{Period: "e", Status: StatusSentToEmployee},
		{Period: "f", Status: StatusDueSoon},
		{Period: "g", Status: StatusOverdue},
	}
	SortCells(cells)
	var got []Status
	for _, c := range cells {
		got = append(got, c.Status)
	}
	assert.Equal(t, []Status{StatusOverdue, StatusDueSoon, StatusSentToEmployee, StatusSentToHR, StatusDraft, StatusCompleted, StatusFuture}, got)
	assert.Equal(t, Priority(StatusCompleted), Priority(StatusFinalized))
	assert.Equal(t, StatusOverdue, Worst(cells))
}

func TestBuildCellsSynthesizesFeedbackPerQuarter(t *testing.T) {
	tmpl := templates.Template{
		ID: "t1", Kind: templates.KindObjective, Name: "Ventas", Year: 2025,
		Milestones: []templates.Milestone{
			{Period: "M04", DueDate: day(2025, 4, 30)},
			{Period: "M05", DueDate: day(2025, 5, 31)},
			{Period: "bogus", DueDate: day(2025, 5, 31)},
		},
	}
	excluded := templates.Template{ID: "t2", Year: 2025, Milestones: []templates.Milestone{{Period: "Q3", DueDate: day(2025, 9, 30)}}}
	assigned := []overrides.Assignment{
		{Template: tmpl},
		{Template: excluded, Effective: overrides.Effective{Excluded: true}},
	}
	evs := []evaluation.Evaluation{
		{ID: "a", EmployeeID: "e1", TemplateID: "t1", Year: 2025, Period: period.Month(2025, 4), State: evaluation.StatePendingHR, Actual: fp(90)},
		{ID: "b", EmployeeID: "e1", TemplateID: "t1", Year: 2025, Period: period.Month(2025, 5), State: evaluation.StatePendingEmployee},
	}
	index := map[evaluation.Key]evaluation.Evaluation{}
	for _, ev := range evs {
		index[ev.Key()] = ev
	}

	cells := BuildCells("e1", 2025, assigned, index, evs)
	require.Len(t, cells, 3)
	assert.Equal(t, "2025M04", cells[0].Period)
	require.NotNil(t, cells[0].Evaluation)
	assert.Equal(t, "a", cells[0].Evaluation.ID)

	feedback := cells[2]
	assert.Equal(t, ItemFeedback, feedback.Kind)
	assert.Equal(t, "2025Q2", feedback.Period)
	assert.Equal(t, evaluation.StatePendingEmployee, feedback.Evaluation.State)
}

type stubEmployees []directory.Employee

func (s stubEmployees) List(context.Context, directory.Filter) ([]directory.Employee, error) {
	return s, nil
}

type stubAssignments map[string][]overrides.Assignment

func (s stubAssignments) Assignments(_ context.Context, id string, _ int) ([]overrides.Assignment, error) {
	return s[id], nil
}

type stubEvaluations []evaluation.Evaluation

func (s stubEvaluations) List(context.Context, evaluation.ListFilter) ([]evaluation.Evaluation, error) {
	return s, nil
}

func TestTimelineGroupsByAreaAndSector(t *testing.T) {
	tmpl := templates.Template{ID: "t1", Kind: templates.KindCompetency, Year: 2025, Milestones: []templates.Milestone{{Period: "Q2", DueDate: day(2025, 6, 5)}}}
	scale := 4
	svc := NewService(
		stubEmployees{
			{ID: "e1", AreaID: "a1", AreaName: "Comercial", SectorID: "s1", SectorName: "Ventas"},
			{ID: "e2", AreaID: "a1", AreaName: "Comercial", SectorID: "s1", SectorName: "Ventas"},
			{ID: "e3", AreaID: "a0", AreaName: "Administracion", SectorID: "s9", SectorName: "Finanzas"},
		},
		stubAssignments{"e1": {{Template: tmpl}}, "e2": {{Template: tmpl}}},
		stubEvaluations{{ID: "x", EmployeeID: "e2", TemplateID: "t1", Year: 2025, Period: period.Quarter(2025, 2), Scale: &scale, State: evaluation.StateManagerDraft}},
		7,
	)

	tl, err := svc.Timeline(context.Background(), 2025, day(2025, 6, 1), Filter{})
	require.NoError(t, err)
	require.Len(t, tl.Groups, 2)
	assert.Equal(t, "Administracion", tl.Groups[0].AreaName)

	ventas := tl.Groups[1]
	require.Len(t, ventas.Rows, 2)
	assert.Equal(t, "e1", ventas.Rows[0].Employee.ID, "rows with urgent cells come first")
	assert.Equal(t, StatusDueSoon, ventas.Rows[0].Worst)
	assert.Equal(t, 1, ventas.Counts[StatusCompleted])
	assert.Equal(t, 1, ventas.Counts[StatusDueSoon])
}
