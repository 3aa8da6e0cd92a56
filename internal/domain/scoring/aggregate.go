package scoring

import (
	"fmt"
	"math"
	"sort"

	"hrperf/internal/domain/period"
	"hrperf/internal/domain/templates"
)

// Measurement is one recorded value of a goal for one period.
type Measurement struct {
	Period period.Period `json:"periodo"`
	Value  *float64      `json:"valor"`
}

type GoalProgress struct {
	Goal         templates.Goal `json:"meta"`
	Measurements []Measurement  `json:"mediciones"`
}

// GoalResult mirrors one entry of an evaluation's metasResultados.
type GoalResult struct {
	Name         string     `json:"nombre"`
	Result       *float64   `json:"resultado"`
	Compliance   Compliance `json:"cumple"`
	Attainment   float64    `json:"alcance"`
	Measured     bool       `json:"medido"`
	Contribution float64    `json:"aporte"`
}

// AggregateGoals reduces the goals of one objective to a single percentage
// for the evaluation period at. Goals without a measurement in the window do
// not dilute the result; no measured goals yields 0.
func AggregateGoals(goals []GoalProgress, at period.Period) (float64, error) {
	_, total, err := ComputeGoalResults(goals, at)
	return total, err
}

// ComputeGoalResults returns the per-goal breakdown together with the
// aggregated percentage.
func ComputeGoalResults(goals []GoalProgress, at period.Period) ([]GoalResult, float64, error) {
	results := make([]GoalResult, len(goals))
	for i, g := range goals {
		r, err := evaluateGoal(g, at)
		if err != nil {
			return nil, 0, fmt.Errorf("goal %q: %w", g.Goal.Name, err)
		}
		results[i] = r
	}

	var weightSum, weighted float64
	measured := 0
	for i, r := range results {
		if !r.Measured {
			continue
		}
		measured++
		w := math.Max(goals[i].Goal.Weight, 0)
		weightSum += w
		weighted += r.Attainment * w
	}
	if measured == 0 {
		return results, 0, nil
	}

	equalWeights := weightSum <= 0
	for i := range results {
		if !results[i].Measured {
			continue
		}
		if equalWeights {
			results[i].Contribution = round1(results[i].Attainment / float64(measured))
			continue
		}
		results[i].Contribution = round1(results[i].Attainment * math.Max(goals[i].Goal.Weight, 0) / weightSum)
	}

	if equalWeights {
		var sum float64
		for _, r := range results {
			if r.Measured {
				sum += r.Attainment
			}
		}
		return results, round1(sum / float64(measured)), nil
	}
	return results, round1(weighted / weightSum), nil
}

func evaluateGoal(g GoalProgress, at period.Period) (GoalResult, error) {
	goal := g.Goal
	out := GoalResult{Name: goal.Name}

	// Fail on misconfiguration even before anything is measured.
	if _, err := EvaluateCompliance(nil, goal.Expected, goal.Operator, goal.Unit); err != nil {
		return out, err
	}

	window := measuredWindow(g.Measurements, at)
	if len(window) == 0 {
		return out, nil
	}

	mode := goal.Accumulation
	if mode == "" {
		mode = templates.AccumulationPerPeriod
	}

	var attainmentValue float64
	var compliance Compliance
	var result float64
	var err error

	switch mode {
	case templates.AccumulationCumulative:
		result = *window[len(window)-1].Value
		attainmentValue, compliance, err = single(goal, result)
	case templates.AccumulationPerPeriod:
		if at.IsFinal() {
			result, attainmentValue, compliance, err = closeWindow(goal, window)
			break
		}
		last := window[len(window)-1]
		if last.Period != at {
			return out, nil
		}
		result = *last.Value
		attainmentValue, compliance, err = single(goal, result)
	default:
		return out, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
	if err != nil {
		return out, err
	}

	if (goal.Unit == templates.UnitBoolean || !goal.RecognizesPartialCredit) && !compliance.Met() {
		attainmentValue = 0
	}

	out.Measured = true
	out.Result = &result
	out.Compliance = compliance
	out.Attainment = round1(attainmentValue)
	return out, nil
}

// measuredWindow keeps non-nil values at or before at, oldest first.
func measuredWindow(ms []Measurement, at period.Period) []Measurement {
	var window []Measurement
	for _, m := range ms {
		if m.Value == nil || m.Period.IsZero() {
			continue
		}
		if m.Period.Compare(at) > 0 {
			continue
		}
		window = append(window, m)
	}
	sort.SliceStable(window, func(i, j int) bool {
		return window[i].Period.Before(window[j].Period)
	})
	return window
}

func closeWindow(goal templates.Goal, window []Measurement) (float64, float64, Compliance, error) {
	rule := goal.Closing
	if rule == "" {
		rule = templates.ClosingAverage
	}

	switch rule {
	case templates.ClosingLastValue:
		v := *window[len(window)-1].Value
		att, c, err := single(goal, v)
		return v, att, c, err
	case templates.ClosingAverage:
		var attSum, valueSum float64
		for _, m := range window {
			att, _, err := single(goal, *m.Value)
			if err != nil {
				return 0, 0, ComplianceUnmeasured, err
			}
			attSum += att
			valueSum += *m.Value
		}
		n := float64(len(window))
		mean := valueSum / n
		c, err := toleratedCompliance(goal, mean)
		return mean, attSum / n, c, err
	case templates.ClosingThresholdCount:
		met := 0
		for _, m := range window {
			c, err := toleratedCompliance(goal, *m.Value)
			if err != nil {
				return 0, 0, ComplianceUnmeasured, err
			}
			if c.Met() {
				met++
			}
		}
		c := ComplianceNotMet
		if met == len(window) {
			c = ComplianceMet
		}
		return float64(met), float64(met) / float64(len(window)) * 100, c, nil
	}
	return 0, 0, ComplianceUnmeasured, fmt.Errorf("%w: %q", ErrUnknownClosing, rule)
}

func single(goal templates.Goal, value float64) (float64, Compliance, error) {
	c, err := toleratedCompliance(goal, value)
	if err != nil {
		return 0, ComplianceUnmeasured, err
	}
	return attainment(goal, value, c), c, nil
}

// toleratedCompliance widens the threshold by the goal's tolerance, given as
// a percentage of the expected value.
func toleratedCompliance(goal templates.Goal, value float64) (Compliance, error) {
	t := goal.Tolerance / 100
	if goal.Unit == templates.UnitBoolean || t <= 0 {
		return EvaluateCompliance(&value, goal.Expected, goal.Operator, goal.Unit)
	}

	op, err := ParseOperator(string(goal.Operator))
	if err != nil {
		return ComplianceUnmeasured, err
	}
	slack := math.Abs(goal.Expected) * t
	switch op {
	case templates.OpGTE, templates.OpGT:
		return EvaluateCompliance(&value, goal.Expected-slack, op, goal.Unit)
	case templates.OpLTE, templates.OpLT:
		return EvaluateCompliance(&value, goal.Expected+slack, op, goal.Unit)
	}
	if math.Abs(value-goal.Expected) <= slack {
		return ComplianceMet, nil
	}
	return ComplianceNotMet, nil
}

func attainment(goal templates.Goal, value float64, c Compliance) float64 {
	if goal.Unit == templates.UnitBoolean {
		if c.Met() {
			return 100
		}
		return 0
	}

	expected := goal.Expected
	op, _ := ParseOperator(string(goal.Operator))
	var pct float64
	switch op {
	case templates.OpGTE, templates.OpGT:
		if expected == 0 {
			pct = complianceScore(c)
		} else {
			pct = value / expected * 100
		}
	case templates.OpLTE, templates.OpLT:
		switch {
		case value <= 0 && expected >= 0:
			pct = 100
		case expected <= 0:
			pct = complianceScore(c)
		default:
			pct = expected / value * 100
		}
	case templates.OpEQ:
		if expected == 0 {
			pct = complianceScore(c)
		} else {
			pct = 100 - math.Abs(value-expected)/math.Abs(expected)*100
		}
	}

	if pct < 0 || math.IsNaN(pct) {
		pct = 0
	}
	if !goal.AllowsOverRun && pct > 100 {
		pct = 100
	}
	return pct
}

func complianceScore(c Compliance) float64 {
	if c.Met() {
		return 100
	}
	return 0
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
