package evaluation

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"hrperf/internal/domain/audit"
	"hrperf/internal/domain/directory"
	"hrperf/internal/domain/notifications"
	"hrperf/internal/domain/period"
	"hrperf/internal/domain/templates"
	"hrperf/internal/requestctx"
)

type TemplateReader interface {
	Get(ctx context.Context, templateID string) (templates.Template, error)
}

type Directory interface {
	Get(ctx context.Context, employeeID string) (directory.Employee, error)
	InScope(ctx context.Context, scopeType templates.ScopeType, scopeID string) ([]directory.Employee, error)
}

type Auditor interface {
	Record(ctx context.Context, actorID, action, entityType, entityID, requestID string, before, after any) error
}

type Notifier interface {
	Create(ctx context.Context, userID, ntype, title, body string) error
	NotifyHR(ctx context.Context, ntype, title, body string) error
}

type Recorder interface {
	Transition(action, outcome string)
	BatchItem(action, outcome string)
}

// Deps are the collaborators a Service reports to. Audit, Notify and Metrics
// may be nil.
type Deps struct {
	Templates   TemplateReader
	Directory   Directory
	Audit       Auditor
	Notify      Notifier
	Metrics     Recorder
	Concurrency int
}

type Service struct {
	store       StoreAPI
	templates   TemplateReader
	directory   Directory
	audit       Auditor
	notify      Notifier
	metrics     Recorder
	concurrency int
	now         func() time.Time
}

func NewService(store StoreAPI, deps Deps) *Service {
	if deps.Concurrency <= 0 {
		deps.Concurrency = 8
	}
	return &Service{
		store:       store,
		templates:   deps.Templates,
		directory:   deps.Directory,
		audit:       deps.Audit,
		notify:      deps.Notify,
		metrics:     deps.Metrics,
		concurrency: deps.Concurrency,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// CallContext identifies who acts and under which request.
type CallContext struct {
	Actor     Actor
	RequestID string
}

func (s *Service) Get(ctx context.Context, id string) (Evaluation, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]Evaluation, error) {
	return s.store.List(ctx, filter)
}

// ParseKey validates the natural key as it arrives from a request.
func ParseKey(employeeID, templateID string, year int, token string) (Key, error) {
	employeeID = strings.TrimSpace(employeeID)
	templateID = strings.TrimSpace(templateID)
	if employeeID == "" {
		return Key{}, invalid(CodeInvalidPayload, "empleado", "empleado is required")
	}
	if templateID == "" {
		return Key{}, invalid(CodeInvalidPayload, "plantillaId", "plantillaId is required")
	}
	p, err := parsePeriod(token, year)
	if err != nil {
		return Key{}, err
	}
	return Key{EmployeeID: employeeID, TemplateID: templateID, Year: p.Year, Period: p}, nil
}

// parsePeriod reads token in year; a year-qualified token must agree with
// year when one is given.
func parsePeriod(token string, year int) (period.Period, error) {
	p, err := period.Parse(token, year)
	if err != nil {
		return period.Period{}, invalid(CodeInvalidPeriod, "periodo", fmt.Sprintf("period %q is not a valid month, quarter or FINAL token", token))
	}
	if year != 0 && p.Year != year {
		return period.Period{}, invalid(CodeInvalidPeriod, "periodo", fmt.Sprintf("period %q does not belong to year %d", token, year))
	}
	return p, nil
}

// Upsert finds or creates the evaluation for key and, when draft carries
// anything, saves it as a draft. Calling it twice with the same key never
// creates a second row.
func (s *Service) Upsert(ctx context.Context, cc CallContext, key Key, draft Draft, version int) (Evaluation, bool, error) {
	tmpl, err := s.templates.Get(ctx, key.TemplateID)
	if err != nil {
		return Evaluation{}, false, err
	}
	ev, created, err := s.store.FindOrCreate(ctx, key, tmpl.Kind)
	if err != nil {
		return Evaluation{}, false, err
	}
	if draft.IsEmpty() && draft.State == "" {
		return ev, created, nil
	}

	next, err := Apply(ev, ActionSaveDraft, cc.Actor, Input{Draft: &draft, Now: s.now()})
	if err != nil {
		s.observe(ActionSaveDraft, err)
		return ev, created, err
	}
	saved, err := s.commit(ctx, ActionSaveDraft, ev, next, version)
	s.observe(ActionSaveDraft, err)
	if err != nil {
		return Evaluation{}, created, err
	}
	s.record(ctx, cc, ActionSaveDraft, ev, saved)
	return saved, created, nil
}

// Transition applies a single-evaluation workflow action. version is the
// caller's last seen version; 0 skips the staleness check.
func (s *Service) Transition(ctx context.Context, cc CallContext, id string, action Action, comment string, version int) (Evaluation, error) {
	if action == ActionSaveDraft {
		return Evaluation{}, fmt.Errorf("use Upsert to save drafts")
	}
	ev, err := s.store.Get(ctx, id)
	if err != nil {
		return Evaluation{}, err
	}

	next, err := Apply(ev, action, cc.Actor, Input{Comment: comment, Now: s.now()})
	if err != nil {
		s.observe(action, err)
		return Evaluation{}, err
	}
	saved, err := s.commit(ctx, action, ev, next, version)
	s.observe(action, err)
	if err != nil {
		return Evaluation{}, err
	}
	s.record(ctx, cc, action, ev, saved)
	s.notifyTransition(ctx, action, saved)
	return saved, nil
}

// SubmitToEmployees sends one template/period to a set of employees. The
// whole request is validated before anything is written; after that each
// employee is handled independently and a failure for one never stops the
// others.
func (s *Service) SubmitToEmployees(ctx context.Context, cc CallContext, req SubmitRequest) (BatchResult, error) {
	p, err := parsePeriod(req.Period, req.Year)
	if err != nil {
		return BatchResult{}, err
	}
	tmpl, err := s.templates.Get(ctx, req.TemplateID)
	if err != nil {
		return BatchResult{}, err
	}

	existing, err := s.store.List(ctx, ListFilter{TemplateID: tmpl.ID, Year: p.Year, Period: p})
	if err != nil {
		return BatchResult{}, err
	}
	byEmployee := make(map[string]Evaluation, len(existing))
	for _, ev := range existing {
		byEmployee[ev.EmployeeID] = ev
	}

	var targets []string
	switch req.Selection.Mode {
	case SelectionSelected:
		targets = dedupe(req.Selection.EmployeeIDs)
		var sent []string
		for _, id := range targets {
			if ev, ok := byEmployee[id]; ok && ev.State != StateManagerDraft {
				sent = append(sent, id)
			}
		}
		if len(sent) > 0 {
			return BatchResult{}, invalid(CodeAlreadySent, "selection", "already sent; wait for the employee's response or reopen through HR", sent...)
		}
	case SelectionAll:
		scoped, err := s.directory.InScope(ctx, tmpl.ScopeType, tmpl.ScopeID)
		if err != nil {
			return BatchResult{}, err
		}
		for _, emp := range scoped {
			if ev, ok := byEmployee[emp.ID]; ok && ev.State != StateManagerDraft {
				continue
			}
			targets = append(targets, emp.ID)
		}
	default:
		return BatchResult{}, invalid(CodeInvalidMode, "selection.mode", fmt.Sprintf("selection mode must be %q or %q", SelectionAll, SelectionSelected))
	}
	if len(targets) == 0 {
		return BatchResult{}, invalid(CodeEmptySelection, "selection", "select at least one employee to send the evaluation to")
	}

	// Check every target would pass the submit guard before the first write.
	var missing []string
	missingCode := CodeMissingActual
	if tmpl.Kind == templates.KindCompetency {
		missingCode = CodeMissingEscala
	}
	for _, id := range targets {
		ev, ok := byEmployee[id]
		if !ok {
			ev = Evaluation{EmployeeID: id, TemplateID: tmpl.ID, Kind: tmpl.Kind, Year: p.Year, Period: p, State: StateManagerDraft}
		}
		var in Input
		if d, ok := req.Drafts[id]; ok {
			in.Draft = &d
		}
		if _, err := Apply(ev, ActionSubmitToEmployee, cc.Actor, in); err != nil {
			var vErr *ValidationError
			if errors.As(err, &vErr) && vErr.Code == missingCode {
				missing = append(missing, id)
				continue
			}
			return BatchResult{}, err
		}
	}
	if len(missing) > 0 {
		msg := "the objective result has not been computed yet"
		if missingCode == CodeMissingEscala {
			msg = "choose a scale value from 1 to 5 before sending"
		}
		return BatchResult{}, invalid(missingCode, "selection", msg, missing...)
	}

	results := s.fanOut(ctx, ActionSubmitToEmployee, targets, func(ctx context.Context, employeeID string) (Evaluation, error) {
		key := Key{EmployeeID: employeeID, TemplateID: tmpl.ID, Year: p.Year, Period: p}
		ev, _, err := s.store.FindOrCreate(ctx, key, tmpl.Kind)
		if err != nil {
			return Evaluation{}, err
		}
		var in Input
		if d, ok := req.Drafts[employeeID]; ok {
			in.Draft = &d
		}
		in.Now = s.now()
		next, err := Apply(ev, ActionSubmitToEmployee, cc.Actor, in)
		if err != nil {
			return Evaluation{}, err
		}
		saved, err := s.commit(ctx, ActionSubmitToEmployee, ev, next, 0)
		if err != nil {
			return Evaluation{}, err
		}
		s.record(ctx, cc, ActionSubmitToEmployee, ev, saved)
		s.notifyTransition(ctx, ActionSubmitToEmployee, saved)
		return saved, nil
	})
	return results, nil
}

// PendingHR lists the HR queue, optionally narrowed to one template, period
// or acknowledgement state.
func (s *Service) PendingHR(ctx context.Context, filter ListFilter) ([]Evaluation, error) {
	filter.State = StatePendingHR
	return s.store.List(ctx, filter)
}

// CloseBulk closes PENDING_HR evaluations of one template and period. Mode
// all takes the whole queue, optionally filtered by the employee's response.
func (s *Service) CloseBulk(ctx context.Context, cc CallContext, req CloseBulkRequest) (BatchResult, error) {
	p, err := parsePeriod(req.Period, req.Year)
	if err != nil {
		return BatchResult{}, err
	}
	if strings.TrimSpace(req.TemplateID) == "" {
		return BatchResult{}, invalid(CodeInvalidPayload, "plantillaId", "plantillaId is required")
	}
	var ack AckState
	if req.Ack != "" {
		if ack, err = ParseAckState(req.Ack); err != nil {
			return BatchResult{}, invalid(CodeInvalidPayload, "ackEstado", err.Error())
		}
	}

	filter := ListFilter{TemplateID: req.TemplateID, Year: p.Year, Period: p}
	var targets []string
	switch req.Selection.Mode {
	case SelectionAll:
		filter.State = StatePendingHR
		filter.Ack = ack
		queue, err := s.store.List(ctx, filter)
		if err != nil {
			return BatchResult{}, err
		}
		for _, ev := range queue {
			targets = append(targets, ev.EmployeeID)
		}
	case SelectionSelected:
		targets = dedupe(req.Selection.EmployeeIDs)
	default:
		return BatchResult{}, invalid(CodeInvalidMode, "selection.mode", fmt.Sprintf("selection mode must be %q or %q", SelectionAll, SelectionSelected))
	}
	if len(targets) == 0 {
		return BatchResult{}, invalid(CodeEmptySelection, "selection", "no evaluations awaiting HR match this selection")
	}

	return s.fanOut(ctx, ActionClose, targets, func(ctx context.Context, employeeID string) (Evaluation, error) {
		ev, err := s.store.GetByKey(ctx, Key{EmployeeID: employeeID, TemplateID: req.TemplateID, Year: p.Year, Period: p})
		if err != nil {
			return Evaluation{}, err
		}
		next, err := Apply(ev, ActionClose, cc.Actor, Input{Now: s.now()})
		if err != nil {
			return Evaluation{}, err
		}
		saved, err := s.commit(ctx, ActionClose, ev, next, 0)
		if err != nil {
			return Evaluation{}, err
		}
		s.record(ctx, cc, ActionClose, ev, saved)
		s.notifyTransition(ctx, ActionClose, saved)
		return saved, nil
	}), nil
}

// fanOut runs fn once per employee with bounded concurrency. Errors stay in
// the per-employee results; the group itself never fails.
func (s *Service) fanOut(ctx context.Context, action Action, employeeIDs []string, fn func(context.Context, string) (Evaluation, error)) BatchResult {
	results := make([]ItemResult, len(employeeIDs))
	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, id := range employeeIDs {
		g.Go(func() error {
			ev, err := fn(ctx, id)
			if err != nil {
				requestctx.Logger(ctx).Warn("batch item failed", "action", action, "employeeId", id, "err", err)
				results[i] = ItemResult{EmployeeID: id, Error: err.Error(), Code: ErrorCode(err)}
				var tErr *TransitionError
				if errors.As(err, &tErr) && tErr.Current != nil {
					results[i].Evaluation = tErr.Current
				}
				s.batchItem(action, outcomeFailed)
				return nil
			}
			results[i] = ItemResult{EmployeeID: id, Success: true, Evaluation: &ev}
			s.batchItem(action, outcomeOK)
			return nil
		})
	}
	_ = g.Wait()

	out := BatchResult{Results: results}
	for _, r := range results {
		if r.Success {
			out.Succeeded++
		} else {
			out.Failed++
		}
	}
	return out
}

// commit persists next conditionally on prev's state. A miss is turned into
// the error the caller can act on, carrying the row as it is now.
func (s *Service) commit(ctx context.Context, action Action, prev, next Evaluation, version int) (Evaluation, error) {
	if version != 0 && version != prev.Version {
		current := prev
		return Evaluation{}, &TransitionError{Action: action, From: prev.State, Current: &current, Err: ErrStaleVersion}
	}
	saved, err := s.store.Update(ctx, next, Condition{State: prev.State, Version: version})
	if !errors.Is(err, ErrConflict) {
		return saved, err
	}

	current, getErr := s.store.Get(ctx, prev.ID)
	if getErr != nil {
		return Evaluation{}, getErr
	}
	cause := ErrInvalidTransition
	if current.State == prev.State {
		cause = ErrStaleVersion
	}
	return Evaluation{}, &TransitionError{Action: action, From: current.State, Current: &current, Err: cause}
}

func (s *Service) record(ctx context.Context, cc CallContext, action Action, before, after Evaluation) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, cc.Actor.UserID, "evaluation."+string(action), audit.EntityEvaluation, after.ID, cc.RequestID, before, after); err != nil {
		requestctx.Logger(ctx).Warn("audit log failed", "action", action, "evaluationId", after.ID, "err", err)
	}
}

// notifyTransition tells whoever has to act next.
func (s *Service) notifyTransition(ctx context.Context, action Action, ev Evaluation) {
	if s.notify == nil || s.directory == nil {
		return
	}
	label := fmt.Sprintf("%s %s", ev.TemplateID, ev.Period)

	var err error
	switch action {
	case ActionSubmitToHR:
		err = s.notify.NotifyHR(ctx, notifications.TypeEvaluationPendingHR, "Evaluation awaiting HR review", label)
	case ActionSubmitToEmployee, ActionClose, ActionReopen, ActionEmployeeAck, ActionEmployeeContest:
		emp, lookupErr := s.directory.Get(ctx, ev.EmployeeID)
		if lookupErr != nil {
			err = lookupErr
			break
		}
		switch action {
		case ActionSubmitToEmployee:
			err = s.notify.Create(ctx, emp.UserID, notifications.TypeEvaluationSent, "New evaluation to review", label)
		case ActionClose:
			err = s.notify.Create(ctx, emp.UserID, notifications.TypeEvaluationClosed, "Evaluation closed", label)
		case ActionReopen:
			err = s.notify.Create(ctx, emp.UserID, notifications.TypeEvaluationReopened, "Evaluation reopened", label)
		case ActionEmployeeAck:
			err = s.notify.Create(ctx, emp.ManagerUserID, notifications.TypeEvaluationAcknowledged, emp.Name+" acknowledged the evaluation", label)
		case ActionEmployeeContest:
			err = s.notify.Create(ctx, emp.ManagerUserID, notifications.TypeEvaluationContested, emp.Name+" contested the evaluation", label)
		}
	}
	if err != nil {
		requestctx.Logger(ctx).Warn("notification failed", "action", action, "evaluationId", ev.ID, "err", err)
	}
}

func (s *Service) observe(action Action, err error) {
	if s.metrics == nil {
		return
	}
	outcome := outcomeOK
	switch {
	case err == nil:
	case MapHTTPStatus(err) < 500:
		outcome = outcomeRejected
	default:
		outcome = outcomeFailed
	}
	s.metrics.Transition(string(action), outcome)
}

func (s *Service) batchItem(action Action, outcome string) {
	if s.metrics != nil {
		s.metrics.BatchItem(string(action), outcome)
	}
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	var out []string
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
