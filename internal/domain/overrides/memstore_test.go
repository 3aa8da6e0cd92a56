package overrides

import (
	"context"
	"sort"
	"sync"
	"time"
)

type memStore struct {
	mu   sync.Mutex
	rows map[Key]Override
	ops  int
}

func newMemStore() *memStore {
	return &memStore{rows: map[Key]Override{}}
}

func (m *memStore) ListOverrides(_ context.Context, filter Filter) ([]Override, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Override
	for k, o := range m.rows {
		if k.Year != filter.Year || (filter.EmployeeID != "" && k.EmployeeID != filter.EmployeeID) {
			continue
		}
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TemplateID < out[j].TemplateID })
	return out, nil
}

func (m *memStore) GetOverride(_ context.Context, key Key) (Override, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.rows[key]
	if !ok {
		return Override{}, ErrNotFound
	}
	return o, nil
}

func (m *memStore) UpsertOverride(_ context.Context, o Override) (Override, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops++
	o.UpdatedAt = time.Now()
	m.rows[o.Key()] = o
	return o, nil
}

func (m *memStore) DeleteOverride(_ context.Context, key Key) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops++
	_, ok := m.rows[key]
	delete(m.rows, key)
	return ok, nil
}
