package templates

import (
	"context"
	"fmt"
)

type Service struct {
	lister Lister
	store  StoreAPI
}

// NewService reads lists through lister (typically a CachedLister over store)
// and single templates straight from store.
func NewService(store StoreAPI, lister Lister) *Service {
	if lister == nil {
		lister = store
	}
	return &Service{lister: lister, store: store}
}

func (s *Service) List(ctx context.Context, filter Filter) ([]Template, error) {
	if filter.ScopeType != "" && !filter.ScopeType.Valid() {
		return nil, fmt.Errorf("%w %q", ErrInvalidScope, filter.ScopeType)
	}
	return s.lister.ListTemplates(ctx, filter)
}

func (s *Service) Get(ctx context.Context, templateID string) (Template, error) {
	return s.store.GetTemplate(ctx, templateID)
}

// ForScopes lists the year's templates for each (scopeType, scopeId) pair.
func (s *Service) ForScopes(ctx context.Context, year int, scopes map[ScopeType]string) ([]Template, error) {
	var out []Template
	for _, scope := range []ScopeType{ScopeEmployee, ScopeSector, ScopeArea} {
		id, ok := scopes[scope]
		if !ok || id == "" {
			continue
		}
		list, err := s.lister.ListTemplates(ctx, Filter{Year: year, ScopeType: scope, ScopeID: id})
		if err != nil {
			return nil, fmt.Errorf("list %s templates: %w", scope, err)
		}
		out = append(out, list...)
	}
	return out, nil
}
