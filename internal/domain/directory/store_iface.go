package directory

import (
	"context"

	"hrperf/internal/domain/templates"
)

type StoreAPI interface {
	Get(ctx context.Context, employeeID string) (Employee, error)
	EmployeeIDByUserID(ctx context.Context, userID string) (string, error)
	InScope(ctx context.Context, scopeType templates.ScopeType, scopeID string) ([]Employee, error)
	List(ctx context.Context, filter Filter) ([]Employee, error)
}
