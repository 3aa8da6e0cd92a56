package evaluation

import (
	"context"

	"hrperf/internal/domain/templates"
)

type StoreAPI interface {
	// FindOrCreate returns the evaluation for key, creating a draft when none
	// exists. created reports whether this call inserted the row.
	FindOrCreate(ctx context.Context, key Key, kind templates.Kind) (ev Evaluation, created bool, err error)
	Get(ctx context.Context, id string) (Evaluation, error)
	GetByKey(ctx context.Context, key Key) (Evaluation, error)
	List(ctx context.Context, filter ListFilter) ([]Evaluation, error)
	// Update writes ev when the stored row still matches cond and bumps its
	// version. It returns ErrConflict when nothing matched.
	Update(ctx context.Context, ev Evaluation, cond Condition) (Evaluation, error)
}
