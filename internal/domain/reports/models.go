package reports

import (
	"time"

	"hrperf/internal/domain/directory"
	"hrperf/internal/domain/evaluation"
	"hrperf/internal/domain/scoring"
)

// ObjectiveLine is one assigned objective with the value the report used.
type ObjectiveLine struct {
	scoring.ObjectiveResult
	Period  string           `json:"periodo,omitempty"`
	State   evaluation.State `json:"estado,omitempty"`
	Missing bool             `json:"sinDato"`
}

type CompetencyLine struct {
	scoring.CompetencyResult
	Period  string           `json:"periodo,omitempty"`
	State   evaluation.State `json:"estado,omitempty"`
	Missing bool             `json:"sinDato"`
}

type ScoreReport struct {
	Employee     directory.Employee `json:"empleado"`
	Year         int                `json:"year"`
	Objectives   []ObjectiveLine    `json:"objetivos"`
	Competencies []CompetencyLine   `json:"competencias"`
	Shares       scoring.Shares     `json:"pesos"`
	Breakdown    scoring.Breakdown  `json:"resultado"`
	// Closed is true when every line comes from a CLOSED FINAL evaluation.
	Closed      bool      `json:"cerrado"`
	GeneratedAt time.Time `json:"generatedAt"`
}

type JobRun struct {
	ID          string         `json:"id"`
	JobType     string         `json:"jobType"`
	Status      string         `json:"status"`
	Details     map[string]any `json:"details"`
	StartedAt   time.Time      `json:"startedAt"`
	CompletedAt *time.Time     `json:"completedAt,omitempty"`
}

type JobRunFilter struct {
	JobType     string
	Status      string
	StartedFrom *time.Time
	StartedTo   *time.Time
}
