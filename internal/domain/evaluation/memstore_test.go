package evaluation

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"hrperf/internal/domain/directory"
	"hrperf/internal/domain/templates"
)

// memStore is an in-memory StoreAPI with the same conditional-write rules as
// the SQL store. writes counts every insert and update.
type memStore struct {
	mu     sync.Mutex
	rows   map[string]Evaluation
	byKey  map[Key]string
	writes int
	failOn map[string]error
}

func newMemStore() *memStore {
	return &memStore{rows: map[string]Evaluation{}, byKey: map[Key]string{}, failOn: map[string]error{}}
}

func (m *memStore) seed(ev Evaluation) Evaluation {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.Version == 0 {
		ev.Version = 1
	}
	m.rows[ev.ID] = ev
	m.byKey[ev.Key()] = ev.ID
	return ev
}

func (m *memStore) FindOrCreate(_ context.Context, key Key, kind templates.Kind) (Evaluation, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failOn[key.EmployeeID]; err != nil {
		return Evaluation{}, false, err
	}
	if id, ok := m.byKey[key]; ok {
		return m.rows[id], false, nil
	}
	m.writes++
	now := time.Now().UTC()
	ev := Evaluation{
		ID: uuid.NewString(), EmployeeID: key.EmployeeID, TemplateID: key.TemplateID, Kind: kind,
		Year: key.Year, Period: key.Period, State: StateManagerDraft, Version: 1, CreatedAt: now, UpdatedAt: now,
	}
	m.rows[ev.ID] = ev
	m.byKey[key] = ev.ID
	return ev, true, nil
}

func (m *memStore) Get(_ context.Context, id string) (Evaluation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ev, ok := m.rows[id]
	if !ok {
		return Evaluation{}, ErrNotFound
	}
	return ev, nil
}

func (m *memStore) GetByKey(_ context.Context, key Key) (Evaluation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byKey[key]
	if !ok {
		return Evaluation{}, ErrNotFound
	}
	return m.rows[id], nil
}

func (m *memStore) List(_ context.Context, f ListFilter) ([]Evaluation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Evaluation
	for _, ev := range m.rows {
		if f.TemplateID != "" && ev.TemplateID != f.TemplateID ||
			f.Year != 0 && ev.Year != f.Year ||
			!f.Period.IsZero() && ev.Period != f.Period ||
			f.EmployeeID != "" && ev.EmployeeID != f.EmployeeID ||
			f.State != "" && ev.State != f.State {
			continue
		}
		if f.Ack != "" && (ev.EmployeeAck == nil || ev.EmployeeAck.State != f.Ack) {
			continue
		}
		out = append(out, ev)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EmployeeID < out[j].EmployeeID })
	return out, nil
}

func (m *memStore) Update(_ context.Context, ev Evaluation, cond Condition) (Evaluation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failOn[ev.EmployeeID]; err != nil {
		return Evaluation{}, err
	}
	cur, ok := m.rows[ev.ID]
	if !ok || cur.State != cond.State || (cond.Version != 0 && cur.Version != cond.Version) {
		return Evaluation{}, ErrConflict
	}
	m.writes++
	ev.Version = cur.Version + 1
	ev.UpdatedAt = time.Now().UTC()
	m.rows[ev.ID] = ev
	return ev, nil
}

func (m *memStore) writeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

type stubTemplates map[string]templates.Template

func (s stubTemplates) Get(_ context.Context, id string) (templates.Template, error) {
	t, ok := s[id]
	if !ok {
		return templates.Template{}, templates.ErrNotFound
	}
	return t, nil
}

type stubDirectory struct {
	scoped []directory.Employee
}

func (s stubDirectory) Get(_ context.Context, id string) (directory.Employee, error) {
	return directory.Employee{ID: id, UserID: "user-" + id, ManagerUserID: "mgr-user", Name: id}, nil
}

func (s stubDirectory) InScope(_ context.Context, _ templates.ScopeType, _ string) ([]directory.Employee, error) {
	return s.scoped, nil
}

type sentNotification struct {
	userID string
	ntype  string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
}

func (r *recordingNotifier) Create(_ context.Context, userID, ntype, _, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, sentNotification{userID: userID, ntype: ntype})
	return nil
}

func (r *recordingNotifier) NotifyHR(_ context.Context, ntype, _, _ string) error {
	return r.Create(context.Background(), "hr", ntype, "", "")
}

type failingAuditor struct{}

func (failingAuditor) Record(context.Context, string, string, string, string, string, any, any) error {
	return errors.New("audit down")
}

var errBoom = fmt.Errorf("boom: %w", ErrUnavailable)
