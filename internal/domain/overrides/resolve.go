package overrides

import (
	"sort"

	"hrperf/internal/domain/templates"
)

// ResolveEffective merges a template with its override. Exclusion wins over
// any weight or target on the override.
func ResolveEffective(t templates.Template, o *Override) Effective {
	if o == nil {
		return Effective{Weight: t.BaseWeight, Target: copyFloat(t.BaseTarget)}
	}
	if o.Excluded {
		return Effective{Weight: 0, Target: nil, Excluded: true}
	}

	eff := Effective{Weight: t.BaseWeight, Target: copyFloat(t.BaseTarget)}
	if o.Weight != nil {
		eff.Weight = *o.Weight
	}
	if o.Target != nil {
		eff.Target = copyFloat(o.Target)
	}
	return eff
}

// EffectiveAssignments builds the set of templates that apply to one employee
// in a year. tpls may hold employee-, sector- and area-scoped templates in any
// order and with repeats; each template appears once, labelled with the most
// specific scope it was reached through. Overrides are matched on
// (employee, template, year) whatever the template's own scope.
func EffectiveAssignments(employeeID string, scopes map[templates.ScopeType]string, tpls []templates.Template, ovs []Override, year int) []Assignment {
	byKey := make(map[Key]Override, len(ovs))
	for _, o := range ovs {
		byKey[o.Key()] = o
	}

	index := map[string]int{}
	var out []Assignment
	for _, t := range tpls {
		if t.Year != year || !applies(t, scopes) {
			continue
		}
		if i, ok := index[t.ID]; ok {
			if t.ScopeType.Specificity() > out[i].Scope.Specificity() {
				out[i].Scope = t.ScopeType
			}
			continue
		}

		var ov *Override
		if o, ok := byKey[Key{EmployeeID: employeeID, TemplateID: t.ID, Year: year}]; ok {
			ov = &o
		}
		index[t.ID] = len(out)
		out = append(out, Assignment{
			Template:  t,
			Scope:     t.ScopeType,
			Override:  ov,
			Effective: ResolveEffective(t, ov),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Template.Kind != out[j].Template.Kind {
			return kindOrder(out[i].Template.Kind) < kindOrder(out[j].Template.Kind)
		}
		return out[i].Template.Name < out[j].Template.Name
	})
	return out
}

func applies(t templates.Template, scopes map[templates.ScopeType]string) bool {
	id, ok := scopes[t.ScopeType]
	return ok && id != "" && id == t.ScopeID
}

func kindOrder(k templates.Kind) int {
	if k == templates.KindObjective {
		return 0
	}
	return 1
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}
