package auth

import "context"

const (
	RoleEmployee = "EMPLOYEE"
	RoleManager  = "MANAGER"
	RoleHR       = "HR"
	RoleAdmin    = "ADMIN"
)

const (
	PermTemplatesRead      = "templates.read"
	PermOverridesRead      = "overrides.read"
	PermOverridesWrite     = "overrides.write"
	PermEvaluationsRead    = "evaluations.read"
	PermEvaluationsWrite   = "evaluations.write"
	PermEvaluationsRespond = "evaluations.respond"
	PermEvaluationsReview  = "evaluations.review"
	PermEvaluationsClose   = "evaluations.close"
	PermScheduleRead       = "schedule.read"
	PermReportsRead        = "reports.read"
	PermAuditRead          = "audit.read"
	PermJobsRun            = "jobs.run"
)

var RolePermissions = map[string][]string{
	RoleEmployee: {
		PermTemplatesRead,
		PermEvaluationsRead,
		PermEvaluationsRespond,
		PermReportsRead,
	},
	RoleManager: {
		PermTemplatesRead,
		PermOverridesRead,
		PermOverridesWrite,
		PermEvaluationsRead,
		PermEvaluationsWrite,
		PermScheduleRead,
		PermReportsRead,
	},
	RoleHR: {
		PermTemplatesRead,
		PermOverridesRead,
		PermOverridesWrite,
		PermEvaluationsRead,
		PermEvaluationsWrite,
		PermEvaluationsReview,
		PermEvaluationsClose,
		PermScheduleRead,
		PermReportsRead,
		PermAuditRead,
		PermJobsRun,
	},
}

// StaticPermissions answers permission checks from RolePermissions. Roles are
// owned by the identity provider, so there is nothing to load from storage.
type StaticPermissions struct {
	index map[string]map[string]struct{}
}

func NewStaticPermissions(table map[string][]string) *StaticPermissions {
	index := make(map[string]map[string]struct{}, len(table))
	for role, perms := range table {
		set := make(map[string]struct{}, len(perms))
		for _, p := range perms {
			set[p] = struct{}{}
		}
		index[role] = set
	}
	return &StaticPermissions{index: index}
}

func (s *StaticPermissions) HasPermission(_ context.Context, role, permission string) (bool, error) {
	if role == RoleAdmin {
		return true, nil
	}
	_, ok := s.index[role][permission]
	return ok, nil
}
