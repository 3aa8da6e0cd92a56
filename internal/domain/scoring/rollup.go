package scoring

import "math"

type ObjectiveResult struct {
	TemplateID      string  `json:"plantillaId,omitempty"`
	Name            string  `json:"nombre,omitempty"`
	Actual          float64 `json:"actual"`
	EffectiveWeight float64 `json:"pesoEfectivo"`
}

type CompetencyResult struct {
	TemplateID string  `json:"plantillaId,omitempty"`
	Name       string  `json:"nombre,omitempty"`
	Scale      float64 `json:"escala"`
}

type Shares struct {
	Objective  float64 `json:"objetivos"`
	Competency float64 `json:"competencias"`
}

func DefaultShares() Shares {
	return Shares{Objective: 0.7, Competency: 0.3}
}

type Breakdown struct {
	Objectives  float64 `json:"aporteObjetivos"`
	Competences float64 `json:"aporteCompetencias"`
	Global      float64 `json:"global"`
}

// GlobalScore combines objective actuals and competency scales into one
// score. It depends only on its inputs so it serves both what-if simulation
// and closed-period reports.
func GlobalScore(objs []ObjectiveResult, comps []CompetencyResult, shares Shares) float64 {
	return ScoreBreakdown(objs, comps, shares).Global
}

func ScoreBreakdown(objs []ObjectiveResult, comps []CompetencyResult, shares Shares) Breakdown {
	var objective float64
	for _, o := range objs {
		w := math.Max(o.EffectiveWeight, 0)
		// an over-run objective still caps at its own weight
		objective += math.Min(math.Max(o.Actual, 0)*w/100, w)
	}
	objective *= shares.Objective

	var competency float64
	if len(comps) > 0 {
		var sum float64
		for _, c := range comps {
			sum += NormalizeScale(c.Scale)
		}
		// competencies are averaged unweighted; pesoBase does not apply here
		competency = sum / float64(len(comps)) * shares.Competency
	}

	return Breakdown{
		Objectives:  round1(objective),
		Competences: round1(competency),
		Global:      round1(objective + competency),
	}
}

// NormalizeScale maps a 1-5 scale onto 0-100; larger values are taken as
// already normalized.
func NormalizeScale(scale float64) float64 {
	if scale <= 5 {
		return math.Max(scale, 0) * 20
	}
	return scale
}
