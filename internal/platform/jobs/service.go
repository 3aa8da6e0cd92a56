package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"
)

const (
	JobReminders = "evaluation_reminders"

	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// RunStore records each job execution in job_runs.
type RunStore interface {
	StartRun(ctx context.Context, jobType string) (string, error)
	FinishRun(ctx context.Context, runID, status string, details []byte) error
}

type Metrics interface {
	JobRun(job, status string)
}

type Service struct {
	runs      RunStore
	reminders *Reminders
	metrics   Metrics
	interval  time.Duration
	queue     chan job
}

type job struct {
	Type string
	Run  func(context.Context) (any, error)
}

// New builds the worker. reminders and metrics may be nil; a non-positive
// interval disables the reminder schedule.
func New(runs RunStore, reminders *Reminders, metrics Metrics, interval time.Duration) *Service {
	return &Service{
		runs:      runs,
		reminders: reminders,
		metrics:   metrics,
		interval:  interval,
		queue:     make(chan job, 128),
	}
}

func (s *Service) Start(ctx context.Context) {
	go s.worker(ctx)
	if s.reminders != nil && s.interval > 0 {
		go s.scheduleReminders(ctx, s.interval)
	}
}

func (s *Service) Enqueue(jobType string, run func(context.Context) (any, error)) bool {
	select {
	case s.queue <- job{Type: jobType, Run: run}:
		return true
	default:
		slog.Warn("job queue full", "jobType", jobType)
		return false
	}
}

func (s *Service) RunNow(ctx context.Context, jobType string, run func(context.Context) (any, error)) (any, error) {
	return s.runJob(ctx, job{Type: jobType, Run: run})
}

// RunReminders runs the reminder job synchronously for the given day.
func (s *Service) RunReminders(ctx context.Context, today time.Time) (any, error) {
	if s.reminders == nil {
		return nil, errors.New("reminders are not configured")
	}
	return s.RunNow(ctx, JobReminders, func(ctx context.Context) (any, error) {
		return s.reminders.Run(ctx, today)
	})
}

func (s *Service) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-s.queue:
			if _, err := s.runJob(ctx, j); err != nil {
				slog.Warn("job run failed", "jobType", j.Type, "err", err)
			}
		}
	}
}

func (s *Service) runJob(ctx context.Context, j job) (any, error) {
	runID := ""
	if s.runs != nil {
		id, err := s.runs.StartRun(ctx, j.Type)
		if err != nil {
			slog.Warn("job run insert failed", "err", err)
		}
		runID = id
	}

	details, err := j.Run(ctx)
	status := StatusCompleted
	if err != nil {
		status = StatusFailed
		details = map[string]any{"error": err.Error()}
	}
	if s.metrics != nil {
		s.metrics.JobRun(j.Type, status)
	}

	detailsJSON, marshalErr := json.Marshal(details)
	if marshalErr != nil {
		slog.Warn("job details marshal failed", "err", marshalErr)
		detailsJSON = []byte("{}")
	}
	if runID != "" {
		if updErr := s.runs.FinishRun(ctx, runID, status, detailsJSON); updErr != nil {
			slog.Warn("job run update failed", "err", updErr)
		}
	}
	return details, err
}

func (s *Service) scheduleReminders(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			today := time.Now()
			s.Enqueue(JobReminders, func(ctx context.Context) (any, error) {
				return s.reminders.Run(ctx, today)
			})
		}
	}
}
