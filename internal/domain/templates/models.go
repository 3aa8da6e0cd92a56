package templates

import "time"

type Kind string

const (
	KindObjective  Kind = "objective"
	KindCompetency Kind = "competency"
)

type ScopeType string

const (
	ScopeArea     ScopeType = "area"
	ScopeSector   ScopeType = "sector"
	ScopeEmployee ScopeType = "employee"
)

// Specificity ranks scopes from broadest to narrowest.
func (s ScopeType) Specificity() int {
	switch s {
	case ScopeArea:
		return 1
	case ScopeSector:
		return 2
	case ScopeEmployee:
		return 3
	}
	return 0
}

func (s ScopeType) Valid() bool {
	return s.Specificity() > 0
}

type Unit string

const (
	UnitPercentage Unit = "percentage"
	UnitNumeric    Unit = "numeric"
	UnitBoolean    Unit = "boolean"
)

type Operator string

const (
	OpGTE Operator = ">="
	OpLTE Operator = "<="
	OpEQ  Operator = "="
	OpGT  Operator = ">"
	OpLT  Operator = "<"
)

type AccumulationMode string

const (
	AccumulationPerPeriod  AccumulationMode = "per_period"
	AccumulationCumulative AccumulationMode = "cumulative"
)

type ClosingRule string

const (
	ClosingAverage        ClosingRule = "average"
	ClosingLastValue      ClosingRule = "last_value"
	ClosingThresholdCount ClosingRule = "threshold_count"
)

// Goal is one measurable sub-target ("meta") of an objective template.
type Goal struct {
	Name                    string           `json:"nombre"`
	Unit                    Unit             `json:"unidad"`
	Operator                Operator         `json:"operador"`
	Expected                float64          `json:"esperado"`
	Weight                  float64          `json:"peso"`
	Accumulation            AccumulationMode `json:"modoAcumulacion"`
	Closing                 ClosingRule      `json:"reglaCierre"`
	Tolerance               float64          `json:"tolerancia"`
	RecognizesPartialCredit bool             `json:"reconoceParcial"`
	AllowsOverRun           bool             `json:"permiteOver"`
}

type Template struct {
	ID         string      `json:"id"`
	Kind       Kind        `json:"tipo"`
	Name       string      `json:"nombre"`
	BaseWeight float64     `json:"pesoBase"`
	BaseTarget *float64    `json:"metaBase,omitempty"`
	ScopeType  ScopeType   `json:"scopeType"`
	ScopeID    string      `json:"scopeId"`
	Year       int         `json:"year"`
	Goals      []Goal      `json:"metas,omitempty"`
	Milestones []Milestone `json:"hitos,omitempty"`
}

// Milestone ("hito") is a due date for one period of a template.
type Milestone struct {
	Period  string    `json:"periodo"`
	DueDate time.Time `json:"fecha"`
}

type Filter struct {
	Year      int
	ScopeType ScopeType
	ScopeID   string
}
