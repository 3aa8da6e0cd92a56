package overrides

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"hrperf/internal/domain/audit"
	"hrperf/internal/domain/directory"
	"hrperf/internal/domain/templates"
	"hrperf/internal/requestctx"
)

type TemplateSource interface {
	ForScopes(ctx context.Context, year int, scopes map[templates.ScopeType]string) ([]templates.Template, error)
}

type EmployeeLookup interface {
	Get(ctx context.Context, employeeID string) (directory.Employee, error)
}

type Auditor interface {
	Record(ctx context.Context, actorID, action, entityType, entityID, requestID string, before, after any) error
}

type Service struct {
	store     StoreAPI
	templates TemplateSource
	employees EmployeeLookup
	audit     Auditor
}

func NewService(store StoreAPI, tpls TemplateSource, employees EmployeeLookup, auditor Auditor) *Service {
	return &Service{store: store, templates: tpls, employees: employees, audit: auditor}
}

func (s *Service) List(ctx context.Context, filter Filter) ([]Override, error) {
	if filter.Year == 0 {
		return nil, ErrInvalidKey
	}
	return s.store.ListOverrides(ctx, filter)
}

// Save stores o by its natural key. An override that carries nothing beyond
// the base values is removed instead of stored.
func (s *Service) Save(ctx context.Context, actorID, requestID string, o Override) (SaveResult, error) {
	o.EmployeeID = strings.TrimSpace(o.EmployeeID)
	o.TemplateID = strings.TrimSpace(o.TemplateID)
	if err := validate(o); err != nil {
		return SaveResult{}, err
	}

	if o.IsNoop() {
		if _, err := s.Delete(ctx, actorID, requestID, o.Key()); err != nil {
			return SaveResult{}, err
		}
		return SaveResult{Deleted: true}, nil
	}

	before := s.previous(ctx, o.Key())
	saved, err := s.store.UpsertOverride(ctx, o)
	if err != nil {
		return SaveResult{}, fmt.Errorf("upsert override: %w", err)
	}
	s.record(ctx, actorID, "override.save", saved.Key(), requestID, before, saved)
	return SaveResult{Override: &saved}, nil
}

// Delete removes the override for key. Removing a missing override is not an
// error; the returned flag tells whether a row existed.
func (s *Service) Delete(ctx context.Context, actorID, requestID string, key Key) (bool, error) {
	if key.EmployeeID == "" || key.TemplateID == "" || key.Year == 0 {
		return false, ErrInvalidKey
	}
	before := s.previous(ctx, key)
	deleted, err := s.store.DeleteOverride(ctx, key)
	if err != nil {
		return false, fmt.Errorf("delete override: %w", err)
	}
	if deleted {
		s.record(ctx, actorID, "override.delete", key, requestID, before, nil)
	}
	return deleted, nil
}

// Assignments lists the templates that apply to employeeID in year, each
// resolved against the employee's override.
func (s *Service) Assignments(ctx context.Context, employeeID string, year int) ([]Assignment, error) {
	emp, err := s.employees.Get(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	scopes := emp.Scopes()
	tpls, err := s.templates.ForScopes(ctx, year, scopes)
	if err != nil {
		return nil, err
	}
	ovs, err := s.store.ListOverrides(ctx, Filter{Year: year, EmployeeID: employeeID})
	if err != nil {
		return nil, err
	}
	return EffectiveAssignments(employeeID, scopes, tpls, ovs, year), nil
}

// previous loads the stored override for the audit trail. Nil means there
// was none, or it could not be read.
func (s *Service) previous(ctx context.Context, key Key) *Override {
	if s.audit == nil {
		return nil
	}
	o, err := s.store.GetOverride(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			requestctx.Logger(ctx).Warn("override lookup for audit failed", "err", err)
		}
		return nil
	}
	return &o
}

func (s *Service) record(ctx context.Context, actorID, action string, key Key, requestID string, before *Override, after any) {
	if s.audit == nil {
		return
	}
	entityID := fmt.Sprintf("%s/%s/%d", key.EmployeeID, key.TemplateID, key.Year)
	var prev any
	if before != nil {
		prev = *before
	}
	if err := s.audit.Record(ctx, actorID, action, audit.EntityOverride, entityID, requestID, prev, after); err != nil {
		requestctx.Logger(ctx).Warn("audit log failed", "action", action, "err", err)
	}
}
