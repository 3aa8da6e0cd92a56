package reports

import "context"

type JobRunStore interface {
	ListJobRuns(ctx context.Context, filter JobRunFilter, limit, offset int) ([]JobRun, error)
	CountJobRuns(ctx context.Context, filter JobRunFilter) (int, error)
	JobRunByID(ctx context.Context, runID string) (JobRun, error)
}
