package overrides

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrperf/internal/domain/directory"
	"hrperf/internal/domain/templates"
)

func fp(v float64) *float64 { return &v }

func TestResolveEffectiveWithoutOverrideUsesBase(t *testing.T) {
	tmpl := templates.Template{BaseWeight: 30, BaseTarget: fp(90)}
	eff := ResolveEffective(tmpl, nil)
	assert.Equal(t, 30.0, eff.Weight)
	require.NotNil(t, eff.Target)
	assert.Equal(t, 90.0, *eff.Target)
	assert.False(t, eff.Excluded)
}

func TestResolveEffectiveExclusionWins(t *testing.T) {
	tmpl := templates.Template{BaseWeight: 30, BaseTarget: fp(90)}
	for _, w := range []*float64{nil, fp(0), fp(50), fp(100)} {
		eff := ResolveEffective(tmpl, &Override{Excluded: true, Weight: w, Target: fp(10)})
		assert.Equal(t, 0.0, eff.Weight)
		assert.Nil(t, eff.Target)
		assert.True(t, eff.Excluded)
	}
}

func TestResolveEffectivePartialOverride(t *testing.T) {
	tmpl := templates.Template{BaseWeight: 30, BaseTarget: fp(90)}
	eff := ResolveEffective(tmpl, &Override{Weight: fp(45)})
	assert.Equal(t, 45.0, eff.Weight)
	assert.Equal(t, 90.0, *eff.Target)

	eff = ResolveEffective(tmpl, &Override{Target: fp(70)})
	assert.Equal(t, 30.0, eff.Weight)
	assert.Equal(t, 70.0, *eff.Target)
}

func TestEffectiveAssignmentsCascade(t *testing.T) {
	scopes := map[templates.ScopeType]string{
		templates.ScopeEmployee: "e1",
		templates.ScopeSector:   "s1",
		templates.ScopeArea:     "a1",
	}
	tpls := []templates.Template{
		{ID: "t-area", Kind: templates.KindCompetency, Name: "Liderazgo", ScopeType: templates.ScopeArea, ScopeID: "a1", Year: 2025, BaseWeight: 50},
		{ID: "t-sector", Kind: templates.KindObjective, Name: "Ventas", ScopeType: templates.ScopeSector, ScopeID: "s1", Year: 2025, BaseWeight: 40},
		{ID: "t-emp", Kind: templates.KindObjective, Name: "Calidad", ScopeType: templates.ScopeEmployee, ScopeID: "e1", Year: 2025, BaseWeight: 60},
		{ID: "t-sector", Kind: templates.KindObjective, Name: "Ventas", ScopeType: templates.ScopeEmployee, ScopeID: "e1", Year: 2025, BaseWeight: 40},
		{ID: "t-other", Kind: templates.KindObjective, Name: "Otro", ScopeType: templates.ScopeSector, ScopeID: "s2", Year: 2025},
		{ID: "t-old", Kind: templates.KindObjective, Name: "Viejo", ScopeType: templates.ScopeArea, ScopeID: "a1", Year: 2024},
	}
	ovs := []Override{
		{EmployeeID: "e1", TemplateID: "t-sector", Year: 2025, Weight: fp(25)},
		{EmployeeID: "e2", TemplateID: "t-emp", Year: 2025, Excluded: true},
	}

	got := EffectiveAssignments("e1", scopes, tpls, ovs, 2025)
	require.Len(t, got, 3)

	assert.Equal(t, "Calidad", got[0].Template.Name)
	assert.Nil(t, got[0].Override)
	assert.Equal(t, 60.0, got[0].Effective.Weight)

	assert.Equal(t, "Ventas", got[1].Template.Name)
	assert.Equal(t, templates.ScopeEmployee, got[1].Scope)
	require.NotNil(t, got[1].Override)
	assert.Equal(t, 25.0, got[1].Effective.Weight, "sector template uses the employee's override")

	assert.Equal(t, templates.KindCompetency, got[2].Template.Kind)
}

func TestSaveNoopOverrideIsNotPersisted(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, nil, nil, nil)
	ctx := context.Background()

	_, err := svc.Save(ctx, "u1", "r1", Override{EmployeeID: "e1", TemplateID: "t1", Year: 2025, Weight: fp(20)})
	require.NoError(t, err)
	require.Len(t, store.rows, 1)

	res, err := svc.Save(ctx, "u1", "r2", Override{EmployeeID: "e1", TemplateID: "t1", Year: 2025})
	require.NoError(t, err)
	assert.True(t, res.Deleted)
	assert.Nil(t, res.Override)

	_, err = store.GetOverride(ctx, Key{EmployeeID: "e1", TemplateID: "t1", Year: 2025})
	assert.True(t, errors.Is(err, ErrNotFound))

	list, err := svc.List(ctx, Filter{Year: 2025, EmployeeID: "e1"})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestSaveValidatesWeightAndTarget(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, nil, nil, nil)
	ctx := context.Background()

	_, err := svc.Save(ctx, "", "", Override{EmployeeID: "e1", TemplateID: "t1", Year: 2025, Weight: fp(120)})
	assert.True(t, errors.Is(err, ErrInvalidWeight))
	_, err = svc.Save(ctx, "", "", Override{EmployeeID: "e1", TemplateID: "t1", Year: 2025, Target: fp(-1)})
	assert.True(t, errors.Is(err, ErrInvalidTarget))
	_, err = svc.Save(ctx, "", "", Override{TemplateID: "t1", Year: 2025, Excluded: true})
	assert.True(t, errors.Is(err, ErrInvalidKey))
	assert.Zero(t, store.ops)
}

type stubTemplates struct{ list []templates.Template }

func (s stubTemplates) ForScopes(_ context.Context, _ int, _ map[templates.ScopeType]string) ([]templates.Template, error) {
	return s.list, nil
}

type stubEmployees struct{}

func (stubEmployees) Get(_ context.Context, id string) (directory.Employee, error) {
	return directory.Employee{ID: id, SectorID: "s1", AreaID: "a1"}, nil
}

type recordingAuditor struct {
	actions []string
	before  []any
	after   []any
}

func (r *recordingAuditor) Record(_ context.Context, _, action, _, _, _ string, before, after any) error {
	r.actions = append(r.actions, action)
	r.before = append(r.before, before)
	r.after = append(r.after, after)
	return nil
}

func TestAssignmentsResolvesThroughService(t *testing.T) {
	store := newMemStore()
	auditor := &recordingAuditor{}
	svc := NewService(store, stubTemplates{list: []templates.Template{
		{ID: "t1", Kind: templates.KindObjective, Name: "Ventas", ScopeType: templates.ScopeArea, ScopeID: "a1", Year: 2025, BaseWeight: 40},
	}}, stubEmployees{}, auditor)
	ctx := context.Background()

	_, err := svc.Save(ctx, "u1", "r1", Override{EmployeeID: "e1", TemplateID: "t1", Year: 2025, Excluded: true, Weight: fp(30)})
	require.NoError(t, err)

	got, err := svc.Assignments(ctx, "e1", 2025)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].Effective.Excluded)
	assert.Equal(t, 0.0, got[0].Effective.Weight)
	assert.Equal(t, []string{"override.save"}, auditor.actions)
}

func TestAuditCarriesPreviousOverride(t *testing.T) {
	store := newMemStore()
	auditor := &recordingAuditor{}
	svc := NewService(store, stubTemplates{}, stubEmployees{}, auditor)
	ctx := context.Background()
	key := Key{EmployeeID: "e1", TemplateID: "t1", Year: 2025}

	_, err := svc.Save(ctx, "u1", "r1", Override{EmployeeID: "e1", TemplateID: "t1", Year: 2025, Weight: fp(30)})
	require.NoError(t, err)
	_, err = svc.Save(ctx, "u1", "r2", Override{EmployeeID: "e1", TemplateID: "t1", Year: 2025, Weight: fp(45)})
	require.NoError(t, err)
	deleted, err := svc.Delete(ctx, "u1", "r3", key)
	require.NoError(t, err)
	require.True(t, deleted)

	require.Equal(t, []string{"override.save", "override.save", "override.delete"}, auditor.actions)
	assert.Nil(t, auditor.before[0])

	prev, ok := auditor.before[1].(Override)
	require.True(t, ok)
	assert.Equal(t, 30.0, *prev.Weight)

	prev, ok = auditor.before[2].(Override)
	require.True(t, ok)
	assert.Equal(t, 45.0, *prev.Weight)
	assert.Nil(t, auditor.after[2])
}
